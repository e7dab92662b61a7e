package simulation

import (
	"context"
	"math/rand"
	"testing"

	"netstack/buffers"
	"netstack/quantization"
	"netstack/wire"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSimulator_Run(t *testing.T) {
	stats := new(buffers.StatsListener)
	pool, err := buffers.NewArrayPool(4096, 4, stats)
	require.NoError(t, err)
	schema := wire.DefaultSchema()

	sim, err := New(schema, pool, 8)
	require.NoError(t, err)
	sim.TickRate = rate.Inf
	sim.Ticks = 50

	report, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 50, report.Ticks)
	require.Equal(t, 8, report.Players)

	packetBits := 4 + 40 + 8*schema.PlayerStateBits()
	require.Equal(t, (packetBits+7)/8, report.PacketBytes)
	require.EqualValues(t, 50*(report.PacketBytes+2), report.BytesSent)
	require.Equal(t, report.BytesSent, report.BytesReceived)
	require.True(t, report.BytesSent < report.RawBytes)

	bound := report.PositionBound
	require.True(t, report.MaxPositionError.X <= bound.X+1e-4)
	require.True(t, report.MaxPositionError.Y <= bound.Y+1e-4)
	require.True(t, report.MaxPositionError.Z <= bound.Z+1e-4)
	require.True(t, report.MaxVelocityError <= 1.0/1024)
	require.True(t, report.MaxRotationError < 2e-3)
	require.Equal(t, stats.Rented(), stats.Returned())
}

func TestSimulator_Cancel(t *testing.T) {
	sim, err := New(wire.DefaultSchema(), nil, 2)
	require.NoError(t, err)
	sim.TickRate = 1
	sim.Ticks = 10

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Run(ctx)
	require.Error(t, err)
}

func TestNew_PlayerLimits(t *testing.T) {
	schema := wire.DefaultSchema()
	require.Equal(t, 57, MaxPlayers(schema))

	_, err := New(schema, nil, 0)
	require.Equal(t, ErrNoPlayers, err)
	_, err = New(schema, nil, 58)
	require.Equal(t, ErrTooManyPlayers, errors.Cause(err))
}

func TestWorld_StaysInBounds(t *testing.T) {
	schema := wire.DefaultSchema()
	w := newWorld(schema, 20, rand.New(rand.NewSource(3)))
	for i := 0; i < 2000; i++ {
		w.step(0.1)
	}
	for _, p := range w.players {
		for axis, v := range []float32{p.Position.X, p.Position.Y, p.Position.Z} {
			r := schema.Position[axis]
			require.True(t, float64(v) >= r.Min() && float64(v) <= r.Max())
		}
		n := p.Rotation.Y*p.Rotation.Y + p.Rotation.W*p.Rotation.W
		require.InDelta(t, 1, n, 1e-5)
	}
}

func TestRotationError_SignInvariant(t *testing.T) {
	q := quantization.Quaternion{Y: 0.6, W: 0.8}
	neg := quantization.Quaternion{Y: -0.6, W: -0.8}
	require.Equal(t, float32(0), rotationError(q, neg))
}

type sliceRecorder struct {
	packets [][]byte
}

func (r *sliceRecorder) Record(packet []byte) error {
	r.packets = append(r.packets, append([]byte(nil), packet...))
	return nil
}

func TestSimulator_Record(t *testing.T) {
	schema := wire.DefaultSchema()
	sim, err := New(schema, nil, 3)
	require.NoError(t, err)
	sim.TickRate = rate.Inf
	sim.Ticks = 10
	rec := new(sliceRecorder)
	sim.Recorder = rec

	_, err = sim.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.packets, 10)
	for i, p := range rec.packets {
		msg, err := wire.Unmarshal(p, schema)
		require.NoError(t, err)
		snap := msg.(*wire.Snapshot)
		require.EqualValues(t, i, snap.Tick)
		require.Len(t, snap.Players, 3)
	}
}
