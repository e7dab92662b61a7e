package transport

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"netstack/buffers"
	"netstack/log"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrHangup         = errors.New("remote hung up")
	ErrSendBufferFull = errors.New("send buffer full")
	ErrPacketTooLarge = errors.New("packet too large")
	ErrEmptyPacket    = errors.New("empty packet")
)

const (
	// MaxPacketSize keeps a packet inside a single unfragmented datagram on
	// common links.
	MaxPacketSize             = 1200
	DefaultRecvRateLimit      = 128
	DefaultRecvRateLimitBurst = 256
	IdleTimeout               = time.Minute

	packetHeaderSize = 2
	recvBufferSize   = 128
)

// Conn exchanges whole packets over a stream connection. Each packet is
// framed with a two byte big-endian length.
type Conn interface {
	LocalAddr() string
	RemoteAddr() string
	SendCtx(ctx context.Context, packet []byte) error
	Send(packet []byte) error
	ReceiveCtx(ctx context.Context) ([]byte, error)
	Receive() ([]byte, error)
	// Release hands a received packet back to the connection's pool.
	Release(packet []byte)
	CloseChan() <-chan struct{}
	Close() error
	BandwidthUsage() (uint64, uint64)
	CloseReason() error
}

type ConnOpts struct {
	Pool          *buffers.ArrayPool
	RecvRateLimit rate.Limit
	RecvBurst     int
}

type ConnImpl struct {
	conn *countingConn
	pool *buffers.ArrayPool
	lim  *rate.Limiter
	lgr  log.Logger

	sendCh        chan *sendReq
	packetCh      chan []byte
	sendDoneCh    chan struct{}
	recvDoneCh    chan struct{}
	closeCh       chan struct{}
	closeMu       sync.Mutex
	closeReason   error
	closeReasonMu sync.Mutex
}

type sendReq struct {
	packet []byte
	errCh  chan error
}

func NewConn(conn net.Conn, opts *ConnOpts) Conn {
	if opts == nil {
		opts = &ConnOpts{}
	}
	pool := opts.Pool
	if pool == nil {
		pool = buffers.Shared()
	}
	limit := opts.RecvRateLimit
	if limit == 0 {
		limit = DefaultRecvRateLimit
	}
	burst := opts.RecvBurst
	if burst == 0 {
		burst = DefaultRecvRateLimitBurst
	}

	c := &ConnImpl{
		conn:       newCountingConn(conn),
		pool:       pool,
		lim:        rate.NewLimiter(limit, burst),
		sendCh:     make(chan *sendReq, 128),
		packetCh:   make(chan []byte, recvBufferSize),
		sendDoneCh: make(chan struct{}, 1),
		recvDoneCh: make(chan struct{}, 1),
		closeCh:    make(chan struct{}),
		lgr:        log.WithModule("conn").Sub("remote_addr", conn.RemoteAddr()),
	}
	go c.send()
	go c.recv()
	return c
}

// Pipe returns both ends of an in-memory connection.
func Pipe(opts *ConnOpts) (Conn, Conn) {
	a, b := net.Pipe()
	return NewConn(a, opts), NewConn(b, opts)
}

// SendCtx blocks until packet has been written. The caller may reuse packet
// once it returns.
func (c *ConnImpl) SendCtx(ctx context.Context, packet []byte) error {
	if len(packet) == 0 {
		return ErrEmptyPacket
	}
	if len(packet) > MaxPacketSize {
		return errors.Wrapf(ErrPacketTooLarge, "%d bytes, max %d", len(packet), MaxPacketSize)
	}

	select {
	case <-c.closeCh:
		return c.CloseReason()
	default:
	}

	errCh := make(chan error, 1)
	req := &sendReq{
		packet: packet,
		errCh:  errCh,
	}
	if err := c.bufferSendCtx(ctx, req); err != nil {
		return err
	}

	select {
	case err := <-errCh:
		return err
	case <-c.closeCh:
		return c.CloseReason()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ConnImpl) Send(packet []byte) error {
	return c.SendCtx(context.Background(), packet)
}

// ReceiveCtx returns the next packet in arrival order. Packets that arrived
// before the connection closed are still returned. A cancelled call consumes
// nothing.
func (c *ConnImpl) ReceiveCtx(ctx context.Context) ([]byte, error) {
	select {
	case packet := <-c.packetCh:
		return packet, nil
	default:
	}

	select {
	case packet := <-c.packetCh:
		return packet, nil
	case <-c.closeCh:
		select {
		case packet := <-c.packetCh:
			return packet, nil
		default:
		}
		return nil, c.CloseReason()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *ConnImpl) Receive() ([]byte, error) {
	return c.ReceiveCtx(context.Background())
}

func (c *ConnImpl) Release(packet []byte) {
	if err := c.pool.Return(packet, false); err != nil {
		c.lgr.Warn("error releasing packet", "err", err)
	}
}

func (c *ConnImpl) CloseChan() <-chan struct{} {
	return c.closeCh
}

func (c *ConnImpl) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	select {
	case <-c.closeCh:
		return nil
	default:
	}

	c.closeReasonMu.Lock()
	if c.closeReason == nil {
		c.closeReason = ErrConnClosed
	}
	c.closeReasonMu.Unlock()
	_ = c.conn.Close()
	close(c.closeCh)
	<-c.recvDoneCh
	<-c.sendDoneCh
	return nil
}

func (c *ConnImpl) LocalAddr() string {
	return c.conn.LocalAddr().String()
}

func (c *ConnImpl) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// BandwidthUsage returns the bytes sent and received, framing included.
func (c *ConnImpl) BandwidthUsage() (uint64, uint64) {
	return c.conn.Sent(), c.conn.Received()
}

func (c *ConnImpl) CloseReason() error {
	c.closeReasonMu.Lock()
	defer c.closeReasonMu.Unlock()
	return c.closeReason
}

func (c *ConnImpl) send() {
	defer func() {
		c.sendDoneCh <- struct{}{}
		_ = c.Close()
	}()

	for {
		select {
		case req := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(IdleTimeout))
			if err := c.writePacket(req.packet); err != nil {
				req.errCh <- c.setCloseReason(err)
				return
			}
			req.errCh <- nil
			c.lgr.Trace("sent packet", "size", len(req.packet))
		case <-c.closeCh:
			return
		}
	}
}

func (c *ConnImpl) recv() {
	defer func() {
		c.recvDoneCh <- struct{}{}
		_ = c.Close()
	}()

	for {
		rv := c.lim.Reserve()
		if delay := rv.Delay(); delay > 0 {
			time.Sleep(delay)
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(IdleTimeout))
		packet, err := c.readPacket()
		if err != nil {
			c.setCloseReason(err)
			return
		}

		c.lgr.Trace("received packet", "size", len(packet))
		select {
		case c.packetCh <- packet:
		case <-c.closeCh:
			c.Release(packet)
			return
		}
	}
}

func (c *ConnImpl) writePacket(packet []byte) error {
	frame := c.pool.Rent(packetHeaderSize + len(packet))
	defer c.Release(frame)
	binary.BigEndian.PutUint16(frame, uint16(len(packet)))
	n := copy(frame[packetHeaderSize:], packet)
	_, err := c.conn.Write(frame[:packetHeaderSize+n])
	return err
}

func (c *ConnImpl) readPacket() ([]byte, error) {
	var header [packetHeaderSize]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return nil, err
	}
	size := int(binary.BigEndian.Uint16(header[:]))
	if size == 0 {
		return nil, ErrEmptyPacket
	}
	if size > MaxPacketSize {
		return nil, errors.Wrapf(ErrPacketTooLarge, "%d bytes, max %d", size, MaxPacketSize)
	}

	packet := c.pool.Rent(size)[:size]
	if _, err := io.ReadFull(c.conn, packet); err != nil {
		c.Release(packet)
		return nil, err
	}
	return packet, nil
}

func (c *ConnImpl) setCloseReason(err error) error {
	c.closeReasonMu.Lock()
	defer c.closeReasonMu.Unlock()
	if c.closeReason != nil {
		return c.closeReason
	}
	if err == nil {
		return nil
	}
	if err == io.EOF || err == io.ErrClosedPipe {
		c.closeReason = ErrHangup
	} else {
		c.closeReason = err
	}
	return c.closeReason
}

func (c *ConnImpl) bufferSendCtx(ctx context.Context, req *sendReq) error {
	var retries int
	for {
		if retries > 10 {
			return ErrSendBufferFull
		}

		timer := time.NewTimer(time.Duration(int(math.Pow(2, float64(retries)))) * time.Millisecond)
		select {
		case c.sendCh <- req:
			timer.Stop()
			return nil
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			retries++
			continue
		}
	}
}
