package quantization

import (
	"math"

	"netstack/bitbuf"
)

const (
	halfSignMask uint16 = 0x8000
	halfExpMask  uint16 = 0x7c00
	halfFracMask uint16 = 0x03ff

	floatExpMask  uint32 = 0x7f800000
	floatFracMask uint32 = 0x007fffff
)

// HalfPrecision converts between float32 and IEEE-754 binary16 bit
// patterns. Layout: 1 sign bit, 5 exponent bits (bias 15), 10 fraction bits.
var HalfPrecision halfPrecision

type halfPrecision struct{}

// Quantize rounds to nearest, ties to even. Values beyond ±65504 become
// infinities.
func (halfPrecision) Quantize(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & halfSignMask
	exp := int32((b & floatExpMask) >> 23)
	frac := b & floatFracMask

	if exp == 0xff {
		if frac == 0 {
			return sign | halfExpMask
		}
		payload := uint16(frac >> 13)
		return sign | halfExpMask | 0x0200 | (payload & halfFracMask)
	}
	if exp == 0 {
		return sign
	}

	e16 := exp - 127 + 15
	if e16 >= 0x1f {
		return sign | halfExpMask
	}

	if e16 <= 0 {
		if e16 < -10 {
			return sign
		}
		mant := frac | 0x00800000
		shift := uint32(14 - e16)
		m := mant >> shift
		rem := mant & (uint32(1)<<shift - 1)
		half := uint32(1) << (shift - 1)
		if rem > half || (rem == half && m&1 == 1) {
			m++
		}
		return sign | uint16(m)
	}

	m := frac >> 13
	rem := frac & 0x1fff
	if rem > 0x1000 || (rem == 0x1000 && m&1 == 1) {
		m++
		if m == 0x0400 {
			m = 0
			e16++
			if e16 >= 0x1f {
				return sign | halfExpMask
			}
		}
	}
	return sign | uint16(e16)<<10 | uint16(m)
}

func (halfPrecision) Dequantize(h uint16) float32 {
	sign := uint32(h&halfSignMask) << 16
	exp := uint32(h&halfExpMask) >> 10
	frac := uint32(h & halfFracMask)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		e := int32(-14)
		for frac&0x0400 == 0 {
			frac <<= 1
			e--
		}
		frac &= uint32(halfFracMask)
		return math.Float32frombits(sign | uint32(127+e)<<23 | frac<<13)
	case 0x1f:
		return math.Float32frombits(sign | floatExpMask | frac<<13)
	default:
		return math.Float32frombits(sign | (exp-15+127)<<23 | frac<<13)
	}
}

func (h halfPrecision) Write(b *bitbuf.BitBuffer, f float32) {
	b.AddUShort(h.Quantize(f))
}

func (h halfPrecision) Read(b *bitbuf.BitBuffer) (float32, error) {
	v, err := b.ReadUShort()
	if err != nil {
		return 0, err
	}
	return h.Dequantize(v), nil
}

func (h halfPrecision) WriteVector3(b *bitbuf.BitBuffer, v Vector3) {
	h.Write(b, v.X)
	h.Write(b, v.Y)
	h.Write(b, v.Z)
}

func (h halfPrecision) ReadVector3(b *bitbuf.BitBuffer) (Vector3, error) {
	var v Vector3
	var err error
	if v.X, err = h.Read(b); err != nil {
		return Vector3{}, err
	}
	if v.Y, err = h.Read(b); err != nil {
		return Vector3{}, err
	}
	if v.Z, err = h.Read(b); err != nil {
		return Vector3{}, err
	}
	return v, nil
}
