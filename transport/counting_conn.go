package transport

import (
	"net"
	"sync/atomic"
)

// countingConn tracks the bytes moved through a net.Conn in each direction.
type countingConn struct {
	net.Conn
	sent     uint64
	received uint64
}

func newCountingConn(conn net.Conn) *countingConn {
	return &countingConn{
		Conn: conn,
	}
}

func (c *countingConn) Sent() uint64 {
	return atomic.LoadUint64(&c.sent)
}

func (c *countingConn) Received() uint64 {
	return atomic.LoadUint64(&c.received)
}

func (c *countingConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	atomic.AddUint64(&c.sent, uint64(n))
	return n, err
}

func (c *countingConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	atomic.AddUint64(&c.received, uint64(n))
	return n, err
}
