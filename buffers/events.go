package buffers

import (
	"sync/atomic"

	"netstack/log"
)

type AllocatedReason int

const (
	// Pooled means a bucket allocated one of its own arrays on first use.
	Pooled AllocatedReason = iota
	// OverMaximumSize means the request was larger than the biggest bucket.
	OverMaximumSize
	// PoolExhausted means every bucket that could serve the request was
	// empty.
	PoolExhausted
)

func (r AllocatedReason) String() string {
	switch r {
	case Pooled:
		return "Pooled"
	case OverMaximumSize:
		return "OverMaximumSize"
	case PoolExhausted:
		return "PoolExhausted"
	default:
		return "unknown"
	}
}

// EventListener receives diagnostic events from an ArrayPool. Listeners are
// called synchronously from Rent and Return and must be safe for concurrent
// use. bucketID is -1 for arrays that do not belong to any bucket.
type EventListener interface {
	BufferAllocated(bufferID uintptr, bufferSize int, poolID int, bucketID int, reason AllocatedReason)
	BufferRented(bufferID uintptr, bufferSize int, poolID int, bucketID int)
	BufferReturned(bufferID uintptr, bufferSize int, poolID int)
}

type NopListener struct{}

var _ EventListener = NopListener{}

func (NopListener) BufferAllocated(uintptr, int, int, int, AllocatedReason) {}

func (NopListener) BufferRented(uintptr, int, int, int) {}

func (NopListener) BufferReturned(uintptr, int, int) {}

type LogListener struct {
	lgr log.Logger
}

var _ EventListener = (*LogListener)(nil)

func NewLogListener() *LogListener {
	return &LogListener{
		lgr: log.WithModule("buffers"),
	}
}

func (l *LogListener) BufferAllocated(bufferID uintptr, bufferSize int, poolID int, bucketID int, reason AllocatedReason) {
	fields := []interface{}{
		"buffer_id", bufferID,
		"buffer_size", bufferSize,
		"pool_id", poolID,
		"bucket_id", bucketID,
		"reason", reason.String(),
	}
	if reason == Pooled {
		l.lgr.Info("buffer allocated", fields...)
	} else {
		l.lgr.Warn("buffer allocated", fields...)
	}
}

func (l *LogListener) BufferRented(bufferID uintptr, bufferSize int, poolID int, bucketID int) {
	l.lgr.Info(
		"buffer rented",
		"buffer_id", bufferID,
		"buffer_size", bufferSize,
		"pool_id", poolID,
		"bucket_id", bucketID,
	)
}

func (l *LogListener) BufferReturned(bufferID uintptr, bufferSize int, poolID int) {
	l.lgr.Info(
		"buffer returned",
		"buffer_id", bufferID,
		"buffer_size", bufferSize,
		"pool_id", poolID,
	)
}

// StatsListener counts events.
type StatsListener struct {
	allocated [3]uint64
	rented    uint64
	returned  uint64
}

var _ EventListener = (*StatsListener)(nil)

func (s *StatsListener) BufferAllocated(_ uintptr, _ int, _ int, _ int, reason AllocatedReason) {
	if reason < Pooled || reason > PoolExhausted {
		return
	}
	atomic.AddUint64(&s.allocated[reason], 1)
}

func (s *StatsListener) BufferRented(uintptr, int, int, int) {
	atomic.AddUint64(&s.rented, 1)
}

func (s *StatsListener) BufferReturned(uintptr, int, int) {
	atomic.AddUint64(&s.returned, 1)
}

func (s *StatsListener) Allocated(reason AllocatedReason) uint64 {
	return atomic.LoadUint64(&s.allocated[reason])
}

func (s *StatsListener) Rented() uint64 {
	return atomic.LoadUint64(&s.rented)
}

func (s *StatsListener) Returned() uint64 {
	return atomic.LoadUint64(&s.returned)
}

// MultiListener forwards every event to each of its listeners in order.
type MultiListener []EventListener

var _ EventListener = MultiListener(nil)

func (m MultiListener) BufferAllocated(bufferID uintptr, bufferSize int, poolID int, bucketID int, reason AllocatedReason) {
	for _, l := range m {
		l.BufferAllocated(bufferID, bufferSize, poolID, bucketID, reason)
	}
}

func (m MultiListener) BufferRented(bufferID uintptr, bufferSize int, poolID int, bucketID int) {
	for _, l := range m {
		l.BufferRented(bufferID, bufferSize, poolID, bucketID)
	}
}

func (m MultiListener) BufferReturned(bufferID uintptr, bufferSize int, poolID int) {
	for _, l := range m {
		l.BufferReturned(bufferID, bufferSize, poolID)
	}
}
