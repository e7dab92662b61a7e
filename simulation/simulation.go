package simulation

import (
	"context"
	"math"
	"math/rand"
	"time"

	"netstack/buffers"
	"netstack/log"
	"netstack/quantization"
	"netstack/transport"
	"netstack/wire"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultTickRate = 60
	DefaultBurst    = 1
	DefaultTicks    = 120

	snapshotHeaderBits = 4 + 32 + 8
)

var (
	ErrTooManyPlayers  = errors.New("too many players for one packet")
	ErrNoPlayers       = errors.New("simulation needs at least one player")
	ErrUnexpectedReply = errors.New("unexpected message")
)

// Report summarizes a simulation run.
type Report struct {
	Ticks         int
	Players       int
	PacketBytes   int
	BytesSent     uint64
	BytesReceived uint64
	// RawBytes is what the same snapshots would cost as plain 32-bit fields.
	RawBytes         uint64
	MaxPositionError quantization.Vector3
	PositionBound    quantization.Vector3
	// MaxVelocityError is relative to the velocity's magnitude.
	MaxVelocityError float32
	MaxRotationError float32
	Elapsed          time.Duration
}

// Recorder receives every packet the server side of a run reads, before it
// is decoded. It must copy packet if it keeps it.
type Recorder interface {
	Record(packet []byte) error
}

type recordingConn struct {
	transport.Conn
	rec Recorder
}

func (c *recordingConn) ReceiveCtx(ctx context.Context) ([]byte, error) {
	packet, err := c.Conn.ReceiveCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.rec.Record(packet); err != nil {
		c.Conn.Release(packet)
		return nil, errors.Wrap(err, "error recording packet")
	}
	return packet, nil
}

// Simulator streams world snapshots from a client session to a server
// session over an in-memory connection, and measures how far the decoded
// state drifts from the simulated one.
type Simulator struct {
	TickRate rate.Limit
	Burst    int
	Ticks    int
	Seed     int64
	Recorder Recorder
	schema   *wire.Schema
	pool     *buffers.ArrayPool
	players  int
	lgr      log.Logger
}

func New(schema *wire.Schema, pool *buffers.ArrayPool, players int) (*Simulator, error) {
	if players < 1 {
		return nil, ErrNoPlayers
	}
	if max := MaxPlayers(schema); players > max {
		return nil, errors.Wrapf(ErrTooManyPlayers, "%d, max %d", players, max)
	}
	return &Simulator{
		TickRate: DefaultTickRate,
		Burst:    DefaultBurst,
		Ticks:    DefaultTicks,
		Seed:     1,
		schema:   schema,
		pool:     pool,
		players:  players,
		lgr:      log.WithModule("simulation"),
	}, nil
}

// MaxPlayers is the number of players whose snapshot fits in one packet.
func MaxPlayers(schema *wire.Schema) int {
	n := (transport.MaxPacketSize*8 - snapshotHeaderBits) / schema.PlayerStateBits()
	if n > wire.MaxSnapshotPlayers {
		n = wire.MaxSnapshotPlayers
	}
	return n
}

func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	limit := s.TickRate
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := s.Burst
	if burst < 1 {
		burst = 1
	}
	client, server := transport.Pipe(&transport.ConnOpts{
		Pool:          s.pool,
		RecvRateLimit: limit,
		RecvBurst:     burst,
	})
	var serverConn transport.Conn = server
	if s.Recorder != nil {
		serverConn = &recordingConn{Conn: server, rec: s.Recorder}
	}
	tx := transport.NewSession(client, s.schema, s.pool)
	rx := transport.NewSession(serverConn, s.schema, s.pool)
	defer tx.Close()
	defer rx.Close()

	dt := 1.0 / DefaultTickRate
	if limit != rate.Inf {
		dt = 1 / float64(limit)
	}
	w := newWorld(s.schema, s.players, rand.New(rand.NewSource(s.Seed)))
	lim := rate.NewLimiter(limit, burst)
	truthCh := make(chan []wire.PlayerState, s.Ticks)
	report := &Report{
		Ticks:         s.Ticks,
		Players:       s.players,
		PositionBound: s.schema.PositionError(),
		RawBytes:      uint64(s.Ticks) * uint64(4+1+s.players*(4+12+12+16)),
	}

	s.lgr.Info("starting simulation", "players", s.players, "ticks", s.Ticks, "tick_rate", float64(limit))
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for tick := 0; tick < s.Ticks; tick++ {
			if err := lim.Wait(gctx); err != nil {
				return err
			}
			w.step(dt)
			players := w.snapshot()
			truthCh <- players
			n, err := tx.SendCtx(gctx, &wire.Snapshot{
				Tick:    uint32(tick),
				Players: players,
			})
			if err != nil {
				return errors.Wrapf(err, "error sending tick %d", tick)
			}
			report.PacketBytes = n
			s.lgr.Trace("sent snapshot", "tick", tick, "bytes", n)
		}
		return nil
	})
	g.Go(func() error {
		for tick := 0; tick < s.Ticks; tick++ {
			msg, err := rx.ReceiveCtx(gctx)
			if err != nil {
				return errors.Wrapf(err, "error receiving tick %d", tick)
			}
			snap, ok := msg.(*wire.Snapshot)
			if !ok || snap.Tick != uint32(tick) {
				return errors.Wrapf(ErrUnexpectedReply, "%s at tick %d", msg.MsgType(), tick)
			}
			var truth []wire.PlayerState
			select {
			case truth = <-truthCh:
			case <-gctx.Done():
				return gctx.Err()
			}
			report.observe(truth, snap.Players)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Elapsed = time.Since(start)
	report.BytesSent, _ = client.BandwidthUsage()
	_, report.BytesReceived = server.BandwidthUsage()
	s.lgr.Info(
		"simulation finished",
		"elapsed", report.Elapsed,
		"bytes_sent", report.BytesSent,
		"packet_bytes", report.PacketBytes,
	)
	return report, nil
}

func (r *Report) observe(truth []wire.PlayerState, decoded []wire.PlayerState) {
	for i := range truth {
		exp, got := &truth[i], &decoded[i]
		r.MaxPositionError.X = maxAbs(r.MaxPositionError.X, exp.Position.X-got.Position.X)
		r.MaxPositionError.Y = maxAbs(r.MaxPositionError.Y, exp.Position.Y-got.Position.Y)
		r.MaxPositionError.Z = maxAbs(r.MaxPositionError.Z, exp.Position.Z-got.Position.Z)
		r.MaxVelocityError = maxFloat32(r.MaxVelocityError, relativeError(exp.Velocity, got.Velocity))
		r.MaxRotationError = maxFloat32(r.MaxRotationError, rotationError(exp.Rotation, got.Rotation))
	}
}

func relativeError(exp quantization.Vector3, got quantization.Vector3) float32 {
	mag := math.Sqrt(float64(exp.X*exp.X + exp.Y*exp.Y + exp.Z*exp.Z))
	if mag < 1e-3 {
		return 0
	}
	dx, dy, dz := exp.X-got.X, exp.Y-got.Y, exp.Z-got.Z
	return float32(math.Sqrt(float64(dx*dx+dy*dy+dz*dz)) / mag)
}

// rotationError is the largest component difference between two
// quaternions, treating q and -q as equal.
func rotationError(exp quantization.Quaternion, got quantization.Quaternion) float32 {
	if exp.X*got.X+exp.Y*got.Y+exp.Z*got.Z+exp.W*got.W < 0 {
		got = quantization.Quaternion{X: -got.X, Y: -got.Y, Z: -got.Z, W: -got.W}
	}
	var out float32
	out = maxAbs(out, exp.X-got.X)
	out = maxAbs(out, exp.Y-got.Y)
	out = maxAbs(out, exp.Z-got.Z)
	return maxAbs(out, exp.W-got.W)
}

func maxAbs(cur float32, d float32) float32 {
	if d < 0 {
		d = -d
	}
	return maxFloat32(cur, d)
}

func maxFloat32(a float32, b float32) float32 {
	if b > a {
		return b
	}
	return a
}
