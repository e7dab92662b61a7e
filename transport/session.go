package transport

import (
	"context"
	"sync"

	"netstack/bitbuf"
	"netstack/buffers"
	"netstack/wire"

	"github.com/pkg/errors"
)

// Session sends and receives typed messages over a Conn. Both ends must be
// created with the same schema.
type Session struct {
	conn   Conn
	schema *wire.Schema
	pool   *buffers.ArrayPool
	out    *bitbuf.BitBuffer
	mu     sync.Mutex
}

func NewSession(conn Conn, schema *wire.Schema, pool *buffers.ArrayPool) *Session {
	if pool == nil {
		pool = buffers.Shared()
	}
	return &Session{
		conn:   conn,
		schema: schema,
		pool:   pool,
		out:    bitbuf.NewWithCapacity(MaxPacketSize),
	}
}

func (s *Session) Conn() Conn {
	return s.conn
}

func (s *Session) Schema() *wire.Schema {
	return s.schema
}

// SendCtx encodes msg and writes it as a single packet. It returns the
// packet size in bytes.
func (s *Session) SendCtx(ctx context.Context, msg wire.Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.out.Clear()
	if err := wire.EncodeTo(s.out, msg, s.schema); err != nil {
		return 0, errors.Wrapf(err, "error encoding %s", msg.MsgType())
	}

	packet := s.pool.Rent(s.out.Length())
	defer func() {
		_ = s.pool.Return(packet, false)
	}()
	n, err := s.out.ToBytes(packet)
	if err != nil {
		return 0, err
	}
	if err := s.conn.SendCtx(ctx, packet[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Session) ReceiveCtx(ctx context.Context) (wire.Message, error) {
	packet, err := s.conn.ReceiveCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.conn.Release(packet)
	return wire.Unmarshal(packet, s.schema)
}

func (s *Session) Close() error {
	return s.conn.Close()
}
