package quantization

import (
	"math"
	"math/bits"

	"netstack/bitbuf"

	"github.com/pkg/errors"
)

const MaxRangeBits = 32

var (
	ErrInvalidRange     = errors.New("range minimum must be finite and below maximum")
	ErrInvalidBits      = errors.New("range bit count must be between 1 and 32")
	ErrInvalidPrecision = errors.New("range precision must be positive and representable in 32 bits")
)

// BoundedRange maps values in [min, max] onto the codes [0, 2^bits-1].
// The zero value is not usable; construct one with NewBoundedRange or
// NewBoundedRangePrecision. A BoundedRange is immutable and may be shared
// between goroutines.
type BoundedRange struct {
	min     float64
	max     float64
	bits    int
	maxCode uint32
}

func NewBoundedRange(min float64, max float64, bits int) (BoundedRange, error) {
	if !isFinite(min) || !isFinite(max) || min >= max {
		return BoundedRange{}, errors.Wrapf(ErrInvalidRange, "[%g, %g]", min, max)
	}
	if bits < 1 || bits > MaxRangeBits {
		return BoundedRange{}, errors.Wrapf(ErrInvalidBits, "got %d", bits)
	}
	return BoundedRange{
		min:     min,
		max:     max,
		bits:    bits,
		maxCode: uint32(uint64(1)<<uint(bits) - 1),
	}, nil
}

// NewBoundedRangePrecision picks the smallest bit count whose step size,
// (max - min) / (2^bits - 1), is no larger than precision.
func NewBoundedRangePrecision(min float64, max float64, precision float64) (BoundedRange, error) {
	if !isFinite(min) || !isFinite(max) || min >= max {
		return BoundedRange{}, errors.Wrapf(ErrInvalidRange, "[%g, %g]", min, max)
	}
	if !isFinite(precision) || precision <= 0 {
		return BoundedRange{}, errors.Wrapf(ErrInvalidPrecision, "got %g", precision)
	}
	steps := math.Ceil((max - min) / precision)
	if steps > math.MaxUint32 {
		return BoundedRange{}, errors.Wrapf(ErrInvalidPrecision, "%g over [%g, %g] needs more than 32 bits", precision, min, max)
	}
	n := bits.Len64(uint64(steps))
	if n == 0 {
		n = 1
	}
	return NewBoundedRange(min, max, n)
}

func (r BoundedRange) Min() float64 {
	return r.min
}

func (r BoundedRange) Max() float64 {
	return r.max
}

func (r BoundedRange) Bits() int {
	return r.bits
}

// Step is the distance between two adjacent codes.
func (r BoundedRange) Step() float64 {
	return (r.max - r.min) / float64(r.maxCode)
}

// MaxError is the largest reconstruction error Dequantize(Quantize(v)) can
// show for v inside the range: half a step.
func (r BoundedRange) MaxError() float64 {
	return r.Step() / 2
}

// Quantize maps value onto a code that fits in Bits() bits. Values outside
// the range are clamped to its nearest bound and NaN is treated as Min().
// Clamping loses information but never produces a code that overflows its
// width.
func (r BoundedRange) Quantize(value float64) uint32 {
	if math.IsNaN(value) || value <= r.min {
		return 0
	}
	if value >= r.max {
		return r.maxCode
	}
	scaled := (value - r.min) / (r.max - r.min) * float64(r.maxCode)
	code := math.Floor(scaled + 0.5)
	if code >= float64(r.maxCode) {
		return r.maxCode
	}
	return uint32(code)
}

// Dequantize maps code back into [Min(), Max()]. Bits above Bits() are
// ignored.
func (r BoundedRange) Dequantize(code uint32) float64 {
	code &= r.maxCode
	if code == r.maxCode {
		return r.max
	}
	return r.min + float64(code)/float64(r.maxCode)*(r.max-r.min)
}

// Write quantizes value and appends the code to b.
func (r BoundedRange) Write(b *bitbuf.BitBuffer, value float64) error {
	return b.AddUInt(r.Quantize(value), r.bits)
}

// Read consumes one code from b and dequantizes it.
func (r BoundedRange) Read(b *bitbuf.BitBuffer) (float64, error) {
	code, err := b.ReadUInt(r.bits)
	if err != nil {
		return 0, err
	}
	return r.Dequantize(code), nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
