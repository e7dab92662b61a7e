package quantization

import (
	"fmt"
	"math"

	"netstack/bitbuf"
)

const (
	DefaultQuaternionBits = 12
	MinQuaternionBits     = 2
	MaxQuaternionBits     = 30

	// The three smallest components of a unit quaternion lie within
	// ±1/sqrt(2). The small bias keeps the bound itself encodable.
	smallestThreeUnpack = 0.70710678118654752440084436210485 + 0.0000001
	smallestThreePack   = 1.0 / smallestThreeUnpack
)

type Quaternion struct {
	X float32
	Y float32
	Z float32
	W float32
}

// QuantizedQuaternion is a unit quaternion with its largest component
// dropped. M is the index (x=0 .. w=3) of the dropped component; A, B and C
// are the remaining components in order.
type QuantizedQuaternion struct {
	M uint32
	A uint32
	B uint32
	C uint32
}

// QuantizeQuaternion packs a unit quaternion into 2 + 3*bitsPerElement bits.
// q and -q describe the same rotation, so the sign is chosen to make the
// dropped component positive.
func QuantizeQuaternion(q Quaternion, bitsPerElement int) QuantizedQuaternion {
	checkQuaternionBits(bitsPerElement)
	halfRange := float64(uint32(1) << uint(bitsPerElement-1))
	maxCode := float64(uint32(1)<<uint(bitsPerElement) - 1)
	packer := smallestThreePack * halfRange

	c := [4]float64{float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)}
	m := 0
	for i := 1; i < 4; i++ {
		if math.Abs(c[i]) > math.Abs(c[m]) {
			m = i
		}
	}
	sign := 1.0
	if c[m] < 0 {
		sign = -1.0
	}

	var codes [3]uint32
	j := 0
	for i := 0; i < 4; i++ {
		if i == m {
			continue
		}
		code := math.Floor(c[i]*sign*packer + halfRange + 0.5)
		if code < 0 || math.IsNaN(code) {
			code = 0
		} else if code > maxCode {
			code = maxCode
		}
		codes[j] = uint32(code)
		j++
	}

	return QuantizedQuaternion{
		M: uint32(m),
		A: codes[0],
		B: codes[1],
		C: codes[2],
	}
}

func DequantizeQuaternion(q QuantizedQuaternion, bitsPerElement int) Quaternion {
	checkQuaternionBits(bitsPerElement)
	halfRange := float64(uint32(1) << uint(bitsPerElement-1))
	unpacker := smallestThreeUnpack / halfRange

	a := (float64(q.A) - halfRange) * unpacker
	b := (float64(q.B) - halfRange) * unpacker
	c := (float64(q.C) - halfRange) * unpacker
	d := math.Sqrt(math.Max(0, 1-(a*a+b*b+c*c)))

	switch q.M & 3 {
	case 0:
		return Quaternion{X: float32(d), Y: float32(a), Z: float32(b), W: float32(c)}
	case 1:
		return Quaternion{X: float32(a), Y: float32(d), Z: float32(b), W: float32(c)}
	case 2:
		return Quaternion{X: float32(a), Y: float32(b), Z: float32(d), W: float32(c)}
	default:
		return Quaternion{X: float32(a), Y: float32(b), Z: float32(c), W: float32(d)}
	}
}

func WriteQuaternion(b *bitbuf.BitBuffer, q Quaternion, bitsPerElement int) error {
	qq := QuantizeQuaternion(q, bitsPerElement)
	if err := b.AddUInt(qq.M, 2); err != nil {
		return err
	}
	for _, code := range [3]uint32{qq.A, qq.B, qq.C} {
		if err := b.AddUInt(code, bitsPerElement); err != nil {
			return err
		}
	}
	return nil
}

func ReadQuaternion(b *bitbuf.BitBuffer, bitsPerElement int) (Quaternion, error) {
	checkQuaternionBits(bitsPerElement)
	var qq QuantizedQuaternion
	var err error
	if qq.M, err = b.ReadUInt(2); err != nil {
		return Quaternion{}, err
	}
	for _, code := range []*uint32{&qq.A, &qq.B, &qq.C} {
		if *code, err = b.ReadUInt(bitsPerElement); err != nil {
			return Quaternion{}, err
		}
	}
	return DequantizeQuaternion(qq, bitsPerElement), nil
}

func checkQuaternionBits(bits int) {
	if bits < MinQuaternionBits || bits > MaxQuaternionBits {
		panic(fmt.Sprintf("quantization: invalid quaternion element width %d, must be between %d and %d", bits, MinQuaternionBits, MaxQuaternionBits))
	}
}
