package buffers

import (
	"math/bits"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	DefaultMaxArrayLength     = 1024 * 1024
	DefaultMaxArraysPerBucket = 50
	MinArrayLength            = 16
	MaxArrayLength            = 1 << 30

	// A request that finds its own bucket empty may be served by the next
	// larger one.
	maxBucketsToTry = 2
)

var (
	ErrNotFromPool     = errors.New("buffer is not from this pool")
	ErrInvalidPoolSize = errors.New("pool sizes must be positive")
)

var lastPoolID int32

// ArrayPool hands out reusable byte arrays grouped into power-of-two sized
// buckets, from MinArrayLength up to the configured maximum. Each bucket
// keeps at most maxArraysPerBucket arrays and allocates them lazily. It is
// safe for concurrent use.
type ArrayPool struct {
	id       int
	buckets  []*bucket
	listener EventListener
}

type bucket struct {
	id       int
	poolID   int
	length   int
	arrays   [][]byte
	index    int
	listener EventListener
	mu       sync.Mutex
}

func NewArrayPool(maxArrayLength int, maxArraysPerBucket int, listener EventListener) (*ArrayPool, error) {
	if maxArrayLength <= 0 || maxArraysPerBucket <= 0 {
		return nil, errors.Wrapf(
			ErrInvalidPoolSize,
			"max array length %d, max arrays per bucket %d",
			maxArrayLength,
			maxArraysPerBucket,
		)
	}
	if maxArrayLength < MinArrayLength {
		maxArrayLength = MinArrayLength
	} else if maxArrayLength > MaxArrayLength {
		maxArrayLength = MaxArrayLength
	}
	if listener == nil {
		listener = NopListener{}
	}

	p := &ArrayPool{
		id:       int(atomic.AddInt32(&lastPoolID, 1)),
		listener: listener,
	}
	count := selectBucketIndex(maxArrayLength) + 1
	p.buckets = make([]*bucket, count)
	for i := range p.buckets {
		p.buckets[i] = &bucket{
			id:       i,
			poolID:   p.id,
			length:   MinArrayLength << uint(i),
			arrays:   make([][]byte, maxArraysPerBucket),
			listener: listener,
		}
	}
	return p, nil
}

var (
	sharedPool     *ArrayPool
	sharedPoolOnce sync.Once
)

// Shared returns a process-wide pool with the default sizes and no listener.
func Shared() *ArrayPool {
	sharedPoolOnce.Do(func() {
		sharedPool, _ = NewArrayPool(DefaultMaxArrayLength, DefaultMaxArraysPerBucket, nil)
	})
	return sharedPool
}

func (p *ArrayPool) ID() int {
	return p.id
}

// MaxArrayLength is the length of the largest bucket.
func (p *ArrayPool) MaxArrayLength() int {
	return p.buckets[len(p.buckets)-1].length
}

// Rent returns an array of at least minimumLength bytes. Arrays served by a
// bucket have exactly the bucket's length. The contents are not cleared.
func (p *ArrayPool) Rent(minimumLength int) []byte {
	if minimumLength < 0 {
		panic("buffers: negative array length")
	}
	if minimumLength == 0 {
		return []byte{}
	}

	var buf []byte
	var bucketID int
	var reason AllocatedReason
	idx := selectBucketIndex(minimumLength)
	if idx < len(p.buckets) {
		for i := idx; i < len(p.buckets) && i < idx+maxBucketsToTry; i++ {
			if buf = p.buckets[i].rent(); buf != nil {
				p.listener.BufferRented(bufferID(buf), len(buf), p.id, i)
				return buf
			}
		}
		buf = make([]byte, p.buckets[idx].length)
		bucketID = idx
		reason = PoolExhausted
	} else {
		buf = make([]byte, minimumLength)
		bucketID = -1
		reason = OverMaximumSize
	}

	id := bufferID(buf)
	p.listener.BufferRented(id, len(buf), p.id, bucketID)
	p.listener.BufferAllocated(id, len(buf), p.id, bucketID, reason)
	return buf
}

// Return hands buf back to the pool. Arrays larger than the biggest bucket
// and arrays arriving at a full bucket are dropped. When clear is set the
// array is zeroed before it becomes available again.
func (p *ArrayPool) Return(buf []byte, clear bool) error {
	if cap(buf) == 0 {
		return nil
	}
	buf = buf[:cap(buf)]

	idx := selectBucketIndex(len(buf))
	if idx < len(p.buckets) {
		b := p.buckets[idx]
		if b.length != len(buf) {
			return errors.Wrapf(ErrNotFromPool, "length %d", len(buf))
		}
		if clear {
			for i := range buf {
				buf[i] = 0
			}
		}
		b.put(buf)
	}

	p.listener.BufferReturned(bufferID(buf), len(buf), p.id)
	return nil
}

func (b *bucket) rent() []byte {
	var buf []byte
	allocate := false

	b.mu.Lock()
	if b.index < len(b.arrays) {
		buf = b.arrays[b.index]
		b.arrays[b.index] = nil
		b.index++
		allocate = buf == nil
	}
	b.mu.Unlock()

	if allocate {
		buf = make([]byte, b.length)
		b.listener.BufferAllocated(bufferID(buf), b.length, b.poolID, b.id, Pooled)
	}
	return buf
}

func (b *bucket) put(buf []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == 0 {
		return
	}
	b.index--
	b.arrays[b.index] = buf
}

func selectBucketIndex(length int) int {
	return bits.Len(uint(length-1)|(MinArrayLength-1)) - 4
}

func bufferID(buf []byte) uintptr {
	return reflect.ValueOf(buf).Pointer()
}
