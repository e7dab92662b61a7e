package bitbuf

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitBuffer_UIntRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for bits := 1; bits <= 32; bits++ {
		max := uint64(1)<<uint(bits) - 1
		values := []uint32{0, uint32(max), uint32(max / 2)}
		for i := 0; i < 50; i++ {
			values = append(values, uint32(rng.Uint64()&max))
		}

		for _, v := range values {
			b := New()
			require.NoError(t, b.AddUInt(v, bits))
			actual, err := FromArray(b.ToArray()).ReadUInt(bits)
			require.NoError(t, err)
			require.Equal(t, v, actual, "bits=%d", bits)
		}
	}
}

func TestBitBuffer_IntRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for bits := 1; bits <= 32; bits++ {
		lo := int64(-1) << uint(bits-1)
		hi := -lo - 1
		values := []int32{int32(lo), int32(hi), 0}
		if bits > 1 {
			values = append(values, -1, 1)
		}
		span := hi - lo + 1
		for i := 0; i < 50; i++ {
			values = append(values, int32(lo+rng.Int63n(span)))
		}

		for _, v := range values {
			b := New()
			require.NoError(t, b.AddInt(v, bits))
			require.Equal(t, bits, b.BitsWritten())
			actual, err := FromArray(b.ToArray()).ReadInt(bits)
			require.NoError(t, err)
			require.Equal(t, v, actual, "bits=%d", bits)
		}
	}
}

func TestBitBuffer_LongRoundTrip(t *testing.T) {
	b := New()
	require.NoError(t, b.AddULong(math.MaxUint64, 64))
	require.NoError(t, b.AddLong(math.MinInt64, 64))
	require.NoError(t, b.AddULong(1<<40, 41))
	require.NoError(t, b.AddLong(-(1<<39), 41))
	b.AddUInt64(0xdeadbeefcafebabe)
	b.AddInt64(-42)

	r := FromArray(b.ToArray())
	u, err := r.ReadULong(64)
	require.NoError(t, err)
	require.EqualValues(t, uint64(math.MaxUint64), u)
	i, err := r.ReadLong(64)
	require.NoError(t, err)
	require.EqualValues(t, int64(math.MinInt64), i)
	u, err = r.ReadULong(41)
	require.NoError(t, err)
	require.EqualValues(t, uint64(1<<40), u)
	i, err = r.ReadLong(41)
	require.NoError(t, err)
	require.EqualValues(t, int64(-(1 << 39)), i)
	u, err = r.ReadUInt64()
	require.NoError(t, err)
	require.EqualValues(t, uint64(0xdeadbeefcafebabe), u)
	i, err = r.ReadInt64()
	require.NoError(t, err)
	require.EqualValues(t, -42, i)
}

func TestBitBuffer_FixedWidthWrappers(t *testing.T) {
	b := New()
	b.AddInt32(math.MinInt32)
	b.AddUInt32(math.MaxUint32)
	b.AddShort(-1234)
	b.AddUShort(65535)
	b.AddByte(0xab)
	b.AddBool(true)
	b.AddBool(false)
	require.Equal(t, 32+32+16+16+8+2, b.BitsWritten())

	r := FromArray(b.ToArray())
	i32, err := r.ReadInt32()
	require.NoError(t, err)
	require.EqualValues(t, math.MinInt32, i32)
	u32, err := r.ReadUInt32()
	require.NoError(t, err)
	require.EqualValues(t, uint32(math.MaxUint32), u32)
	i16, err := r.ReadShort()
	require.NoError(t, err)
	require.EqualValues(t, -1234, i16)
	u16, err := r.ReadUShort()
	require.NoError(t, err)
	require.EqualValues(t, 65535, u16)
	by, err := r.ReadByte()
	require.NoError(t, err)
	require.EqualValues(t, 0xab, by)
	bl, err := r.ReadBool()
	require.NoError(t, err)
	require.True(t, bl)
	bl, err = r.ReadBool()
	require.NoError(t, err)
	require.False(t, bl)
}

func TestBitBuffer_Density(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := New()
	var total int
	for i := 0; i < 200; i++ {
		bits := rng.Intn(32) + 1
		total += bits
		require.NoError(t, b.AddUInt(0, bits))
		require.Equal(t, (total+7)/8, len(b.ToArray()))
		require.Equal(t, (total+7)/8, b.Length())
	}
}

func TestBitBuffer_CrossBoundary(t *testing.T) {
	b := New()
	require.NoError(t, b.AddUInt(1, 1))
	require.NoError(t, b.AddUInt(0x1abcd, 17))
	require.NoError(t, b.AddUInt(1, 1))
	require.Equal(t, 3, b.Length())

	r := FromArray(b.ToArray())
	v, err := r.ReadUInt(1)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)
	v, err = r.ReadUInt(17)
	require.NoError(t, err)
	require.EqualValues(t, 0x1abcd, v)
	v, err = r.ReadUInt(1)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)
}

func TestBitBuffer_Layout(t *testing.T) {
	b := New()
	require.NoError(t, b.AddUInt(0x5, 3))
	require.NoError(t, b.AddUInt(0x1f, 5))
	require.NoError(t, b.AddUInt(0x3, 2))
	require.EqualValues(t, []byte{0xfd, 0x03}, b.ToArray())

	b = New()
	require.NoError(t, b.AddInt(-1, 4))
	require.NoError(t, b.AddInt(1, 4))
	require.EqualValues(t, []byte{0x21}, b.ToArray())
}

func TestBitBuffer_ToArrayZeroPadsAndKeepsCursors(t *testing.T) {
	b := New()
	require.NoError(t, b.AddUInt(0x7, 3))
	require.EqualValues(t, []byte{0x07}, b.ToArray())
	require.Equal(t, 3, b.BitsWritten())
	require.Equal(t, 0, b.BitsRead())

	out := b.ToArray()
	out[0] = 0xff
	require.EqualValues(t, []byte{0x07}, b.ToArray())
}

func TestBitBuffer_ReadOutOfRange(t *testing.T) {
	b := New()
	require.NoError(t, b.AddUInt(3, 2))

	_, err := b.ReadUInt(3)
	require.Error(t, err)
	require.Equal(t, ErrReadOutOfRange, errors.Cause(err))
	require.Equal(t, 0, b.BitsRead())

	v, err := b.ReadUInt(2)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)
	require.True(t, b.IsFinished())

	_, err = b.ReadBool()
	require.Equal(t, ErrReadOutOfRange, errors.Cause(err))

	// padding bits of the last byte are readable once the bytes travel
	r := FromArray(b.ToArray())
	_, err = r.ReadUInt(8)
	require.NoError(t, err)
	_, err = r.ReadUInt(1)
	require.Equal(t, ErrReadOutOfRange, errors.Cause(err))

	_, err = New().ReadString()
	require.Equal(t, ErrReadOutOfRange, errors.Cause(err))
}

func TestBitBuffer_ValueOverflow(t *testing.T) {
	b := New()
	err := b.AddUInt(8, 3)
	require.Equal(t, ErrValueOverflow, errors.Cause(err))
	err = b.AddInt(4, 3)
	require.Equal(t, ErrValueOverflow, errors.Cause(err))
	err = b.AddInt(-5, 3)
	require.Equal(t, ErrValueOverflow, errors.Cause(err))
	err = b.AddLong(1<<40, 41)
	require.Equal(t, ErrValueOverflow, errors.Cause(err))
	require.Equal(t, 0, b.BitsWritten())

	require.NoError(t, b.AddInt(-4, 3))
	require.NoError(t, b.AddInt(3, 3))
}

func TestBitBuffer_InvalidWidthPanics(t *testing.T) {
	b := New()
	require.Panics(t, func() {
		_ = b.AddUInt(0, 0)
	})
	require.Panics(t, func() {
		_ = b.AddUInt(0, 33)
	})
	require.Panics(t, func() {
		_ = b.AddInt(0, 33)
	})
	require.Panics(t, func() {
		_ = b.AddULong(0, 65)
	})
	require.Panics(t, func() {
		_, _ = b.ReadUInt(33)
	})
	require.Panics(t, func() {
		_, _ = b.ReadLong(0)
	})
}

func TestBitBuffer_Strings(t *testing.T) {
	b := New()
	require.NoError(t, b.AddString("hello"))
	require.NoError(t, b.AddString(""))
	require.NoError(t, b.AddString("héllo wörld"))
	require.Equal(t, 9+1+5*7+9+1+9+1+len("héllo wörld")*8, b.BitsWritten())

	long := string(bytes.Repeat([]byte{'a'}, MaxStringLength+1))
	err := b.AddString(long)
	require.Equal(t, ErrStringTooLong, errors.Cause(err))

	r := FromArray(b.ToArray())
	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)
	s, err = r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "", s)
	s, err = r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "héllo wörld", s)
}

func TestBitBuffer_TruncatedStringRestoresCursor(t *testing.T) {
	b := New()
	require.NoError(t, b.AddString("truncated"))
	data := b.ToArray()

	r := FromArray(data[:3])
	_, err := r.ReadString()
	require.Equal(t, ErrReadOutOfRange, errors.Cause(err))
	require.Equal(t, 0, r.BitsRead())
}

func TestBitBuffer_Peek(t *testing.T) {
	b := New()
	b.AddBool(true)
	require.NoError(t, b.AddUInt(42, 7))

	ok, err := b.PeekBool()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, b.BitsRead())

	_, err = b.ReadBool()
	require.NoError(t, err)
	v, err := b.PeekUInt(7)
	require.NoError(t, err)
	require.EqualValues(t, 42, v)
	v, err = b.ReadUInt(7)
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	_, err = b.PeekUInt(1)
	require.Equal(t, ErrReadOutOfRange, errors.Cause(err))
}

func TestBitBuffer_ClearAndReset(t *testing.T) {
	b := New()
	b.AddUInt32(math.MaxUint32)
	b.Clear()
	require.Equal(t, 0, b.BitsWritten())
	require.Equal(t, 0, b.Length())
	require.Empty(t, b.ToArray())

	// stale bytes in reused capacity must not leak into new writes
	require.NoError(t, b.AddUInt(1, 2))
	require.EqualValues(t, []byte{0x01}, b.ToArray())

	b.Reset([]byte{0xff, 0x01})
	require.Equal(t, 16, b.BitsWritten())
	require.Equal(t, 0, b.BitsRead())
	v, err := b.ReadUInt(9)
	require.NoError(t, err)
	require.EqualValues(t, 0x1ff, v)
}

func TestBitBuffer_FromArrayCopies(t *testing.T) {
	data := []byte{0x2a}
	b := FromArray(data)
	data[0] = 0
	v, err := b.ReadByte()
	require.NoError(t, err)
	require.EqualValues(t, 0x2a, v)
}

func TestBitBuffer_ToBytesAndWriteTo(t *testing.T) {
	b := New()
	b.AddUInt32(0x04030201)
	require.NoError(t, b.AddUInt(1, 1))

	dst := make([]byte, 8)
	n, err := b.ToBytes(dst)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.EqualValues(t, []byte{0x01, 0x02, 0x03, 0x04, 0x01}, dst[:n])

	_, err = b.ToBytes(make([]byte, 4))
	require.Equal(t, ErrShortBuffer, errors.Cause(err))

	var buf bytes.Buffer
	written, err := b.WriteTo(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 5, written)
	assert.EqualValues(t, b.ToArray(), buf.Bytes())
}

func TestBitBuffer_Growth(t *testing.T) {
	b := NewWithCapacity(0)
	for i := 0; i < 10000; i++ {
		require.NoError(t, b.AddUInt(uint32(i%128), 7))
	}
	require.Equal(t, (10000*7+7)/8, b.Length())

	r := FromArray(b.ToArray())
	for i := 0; i < 10000; i++ {
		v, err := r.ReadUInt(7)
		require.NoError(t, err)
		require.EqualValues(t, i%128, v)
	}
}
