package bitbuf

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const (
	DefaultCapacity  = 64
	MaxStringLength  = 1<<stringLengthBits - 1
	stringLengthBits = 9
)

var (
	ErrReadOutOfRange = errors.New("read past end of buffer")
	ErrValueOverflow  = errors.New("value does not fit in bit width")
	ErrShortBuffer    = errors.New("destination buffer too small")
	ErrStringTooLong  = errors.New("string too long")
)

type BitBuffer struct {
	data     []byte
	writePos int
	readPos  int
}

func New() *BitBuffer {
	return NewWithCapacity(DefaultCapacity)
}

func NewWithCapacity(bytes int) *BitBuffer {
	if bytes < 0 {
		bytes = 0
	}
	return &BitBuffer{
		data: make([]byte, 0, bytes),
	}
}

// FromArray returns a buffer positioned at the start of a copy of data.
// Every bit of data is readable.
func FromArray(data []byte) *BitBuffer {
	b := NewWithCapacity(len(data))
	b.Reset(data)
	return b
}

// Reset replaces the buffer's contents with a copy of data, reusing the
// existing backing store where possible.
func (b *BitBuffer) Reset(data []byte) {
	b.data = append(b.data[:0], data...)
	b.writePos = len(data) * 8
	b.readPos = 0
}

// Clear empties the buffer but keeps its capacity.
func (b *BitBuffer) Clear() {
	b.data = b.data[:0]
	b.writePos = 0
	b.readPos = 0
}

func (b *BitBuffer) Length() int {
	return (b.writePos + 7) >> 3
}

func (b *BitBuffer) BitsWritten() int {
	return b.writePos
}

func (b *BitBuffer) BitsRead() int {
	return b.readPos
}

func (b *BitBuffer) BitsRemaining() int {
	return b.writePos - b.readPos
}

func (b *BitBuffer) IsFinished() bool {
	return b.readPos == b.writePos
}

// ToArray returns a copy of the written bits, padded with zero bits to a
// whole number of bytes.
func (b *BitBuffer) ToArray() []byte {
	out := make([]byte, b.Length())
	copy(out, b.data)
	return out
}

// ToBytes copies the written bits into dst and returns the number of bytes
// used.
func (b *BitBuffer) ToBytes(dst []byte) (int, error) {
	n := b.Length()
	if len(dst) < n {
		return 0, errors.Wrapf(ErrShortBuffer, "need %d bytes, have %d", n, len(dst))
	}
	return copy(dst, b.data[:n]), nil
}

func (b *BitBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data[:b.Length()])
	return int64(n), err
}

func (b *BitBuffer) AddUInt(value uint32, bits int) error {
	checkBits(bits, 32)
	return b.addUnsigned(uint64(value), bits)
}

func (b *BitBuffer) AddInt(value int32, bits int) error {
	checkBits(bits, 32)
	return b.addSigned(int64(value), bits)
}

func (b *BitBuffer) AddULong(value uint64, bits int) error {
	checkBits(bits, 64)
	return b.addUnsigned(value, bits)
}

func (b *BitBuffer) AddLong(value int64, bits int) error {
	checkBits(bits, 64)
	return b.addSigned(value, bits)
}

func (b *BitBuffer) AddUInt32(value uint32) {
	b.writeBits(uint64(value), 32)
}

func (b *BitBuffer) AddInt32(value int32) {
	b.writeBits(zigzag(int64(value)), 32)
}

func (b *BitBuffer) AddUInt64(value uint64) {
	b.writeBits(value, 64)
}

func (b *BitBuffer) AddInt64(value int64) {
	b.writeBits(zigzag(value), 64)
}

func (b *BitBuffer) AddUShort(value uint16) {
	b.writeBits(uint64(value), 16)
}

func (b *BitBuffer) AddShort(value int16) {
	b.writeBits(zigzag(int64(value)), 16)
}

func (b *BitBuffer) AddByte(value byte) {
	b.writeBits(uint64(value), 8)
}

func (b *BitBuffer) AddBool(value bool) {
	if value {
		b.writeBits(1, 1)
	} else {
		b.writeBits(0, 1)
	}
}

func (b *BitBuffer) AddString(s string) error {
	if len(s) > MaxStringLength {
		return errors.Wrapf(ErrStringTooLong, "%d bytes, max %d", len(s), MaxStringLength)
	}

	width := 8
	ascii := isASCII(s)
	b.writeBits(uint64(len(s)), stringLengthBits)
	b.AddBool(ascii)
	if ascii {
		width = 7
	}
	for i := 0; i < len(s); i++ {
		b.writeBits(uint64(s[i]), width)
	}
	return nil
}

func (b *BitBuffer) ReadUInt(bits int) (uint32, error) {
	checkBits(bits, 32)
	v, err := b.read(bits)
	return uint32(v), err
}

func (b *BitBuffer) ReadInt(bits int) (int32, error) {
	checkBits(bits, 32)
	v, err := b.read(bits)
	return int32(unzigzag(v)), err
}

func (b *BitBuffer) ReadULong(bits int) (uint64, error) {
	checkBits(bits, 64)
	return b.read(bits)
}

func (b *BitBuffer) ReadLong(bits int) (int64, error) {
	checkBits(bits, 64)
	v, err := b.read(bits)
	return unzigzag(v), err
}

func (b *BitBuffer) ReadUInt32() (uint32, error) {
	return b.ReadUInt(32)
}

func (b *BitBuffer) ReadInt32() (int32, error) {
	return b.ReadInt(32)
}

func (b *BitBuffer) ReadUInt64() (uint64, error) {
	return b.ReadULong(64)
}

func (b *BitBuffer) ReadInt64() (int64, error) {
	return b.ReadLong(64)
}

func (b *BitBuffer) ReadUShort() (uint16, error) {
	v, err := b.read(16)
	return uint16(v), err
}

func (b *BitBuffer) ReadShort() (int16, error) {
	v, err := b.read(16)
	return int16(unzigzag(v)), err
}

func (b *BitBuffer) ReadByte() (byte, error) {
	v, err := b.read(8)
	return byte(v), err
}

func (b *BitBuffer) ReadBool() (bool, error) {
	v, err := b.read(1)
	return v == 1, err
}

func (b *BitBuffer) ReadString() (string, error) {
	start := b.readPos
	l, err := b.read(stringLengthBits)
	if err != nil {
		return "", err
	}
	ascii, err := b.ReadBool()
	if err != nil {
		b.readPos = start
		return "", err
	}
	width := 8
	if ascii {
		width = 7
	}
	if err := b.ensure(int(l) * width); err != nil {
		b.readPos = start
		return "", err
	}

	buf := make([]byte, l)
	for i := range buf {
		buf[i] = byte(b.readBits(b.readPos, width))
		b.readPos += width
	}
	return string(buf), nil
}

// PeekUInt reads the next value without advancing the read cursor.
func (b *BitBuffer) PeekUInt(bits int) (uint32, error) {
	checkBits(bits, 32)
	if err := b.ensure(bits); err != nil {
		return 0, err
	}
	return uint32(b.readBits(b.readPos, bits)), nil
}

func (b *BitBuffer) PeekBool() (bool, error) {
	v, err := b.PeekUInt(1)
	return v == 1, err
}

func (b *BitBuffer) addUnsigned(value uint64, bits int) error {
	if bits < 64 && value>>uint(bits) != 0 {
		return errors.Wrapf(ErrValueOverflow, "%d in %d unsigned bits", value, bits)
	}
	b.writeBits(value, bits)
	return nil
}

func (b *BitBuffer) addSigned(value int64, bits int) error {
	if bits < 64 {
		lo := int64(-1) << uint(bits-1)
		if value < lo || value > -lo-1 {
			return errors.Wrapf(ErrValueOverflow, "%d in %d signed bits", value, bits)
		}
	}
	b.writeBits(zigzag(value), bits)
	return nil
}

func (b *BitBuffer) read(bits int) (uint64, error) {
	if err := b.ensure(bits); err != nil {
		return 0, err
	}
	v := b.readBits(b.readPos, bits)
	b.readPos += bits
	return v, nil
}

func (b *BitBuffer) ensure(bits int) error {
	if b.readPos+bits > b.writePos {
		return errors.Wrapf(
			ErrReadOutOfRange,
			"need %d bits at offset %d, %d available",
			bits,
			b.readPos,
			b.writePos-b.readPos,
		)
	}
	return nil
}

// writeBits and readBits hold all of the shift/mask arithmetic. value must
// already fit in bits.
func (b *BitBuffer) writeBits(value uint64, bits int) {
	for bits > 0 {
		idx := b.writePos >> 3
		off := uint(b.writePos & 7)
		if idx == len(b.data) {
			b.data = append(b.data, 0)
		}
		n := 8 - int(off)
		if n > bits {
			n = bits
		}
		b.data[idx] |= byte(value&(1<<uint(n)-1)) << off
		value >>= uint(n)
		bits -= n
		b.writePos += n
	}
}

func (b *BitBuffer) readBits(pos int, bits int) uint64 {
	var value uint64
	var shift uint
	for bits > 0 {
		idx := pos >> 3
		off := uint(pos & 7)
		n := 8 - int(off)
		if n > bits {
			n = bits
		}
		chunk := uint64(b.data[idx]>>off) & (1<<uint(n) - 1)
		value |= chunk << shift
		shift += uint(n)
		bits -= n
		pos += n
	}
	return value
}

func checkBits(bits int, max int) {
	if bits < 1 || bits > max {
		panic(fmt.Sprintf("bitbuf: invalid bit width %d, must be between 1 and %d", bits, max))
	}
}

func zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
