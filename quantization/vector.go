package quantization

import (
	"netstack/bitbuf"
)

type Vector2 struct {
	X float32
	Y float32
}

type Vector3 struct {
	X float32
	Y float32
	Z float32
}

type QuantizedVector2 struct {
	X uint32
	Y uint32
}

type QuantizedVector3 struct {
	X uint32
	Y uint32
	Z uint32
}

// Ranges2 and Ranges3 hold one range per axis in x, y, z order.
type Ranges2 [2]BoundedRange

type Ranges3 [3]BoundedRange

func Uniform2(r BoundedRange) Ranges2 {
	return Ranges2{r, r}
}

func Uniform3(r BoundedRange) Ranges3 {
	return Ranges3{r, r, r}
}

func QuantizeVector2(v Vector2, ranges Ranges2) QuantizedVector2 {
	return QuantizedVector2{
		X: ranges[0].Quantize(float64(v.X)),
		Y: ranges[1].Quantize(float64(v.Y)),
	}
}

func DequantizeVector2(q QuantizedVector2, ranges Ranges2) Vector2 {
	return Vector2{
		X: float32(ranges[0].Dequantize(q.X)),
		Y: float32(ranges[1].Dequantize(q.Y)),
	}
}

func QuantizeVector3(v Vector3, ranges Ranges3) QuantizedVector3 {
	return QuantizedVector3{
		X: ranges[0].Quantize(float64(v.X)),
		Y: ranges[1].Quantize(float64(v.Y)),
		Z: ranges[2].Quantize(float64(v.Z)),
	}
}

func DequantizeVector3(q QuantizedVector3, ranges Ranges3) Vector3 {
	return Vector3{
		X: float32(ranges[0].Dequantize(q.X)),
		Y: float32(ranges[1].Dequantize(q.Y)),
		Z: float32(ranges[2].Dequantize(q.Z)),
	}
}

func (r BoundedRange) QuantizeVector2(v Vector2) QuantizedVector2 {
	return QuantizeVector2(v, Uniform2(r))
}

func (r BoundedRange) DequantizeVector2(q QuantizedVector2) Vector2 {
	return DequantizeVector2(q, Uniform2(r))
}

func (r BoundedRange) QuantizeVector3(v Vector3) QuantizedVector3 {
	return QuantizeVector3(v, Uniform3(r))
}

func (r BoundedRange) DequantizeVector3(q QuantizedVector3) Vector3 {
	return DequantizeVector3(q, Uniform3(r))
}

// Bits is the number of bits one encoded vector occupies.
func (r Ranges3) Bits() int {
	return r[0].bits + r[1].bits + r[2].bits
}

func (r Ranges2) Bits() int {
	return r[0].bits + r[1].bits
}

func WriteVector2(b *bitbuf.BitBuffer, v Vector2, ranges Ranges2) error {
	q := QuantizeVector2(v, ranges)
	if err := b.AddUInt(q.X, ranges[0].bits); err != nil {
		return err
	}
	return b.AddUInt(q.Y, ranges[1].bits)
}

func ReadVector2(b *bitbuf.BitBuffer, ranges Ranges2) (Vector2, error) {
	var q QuantizedVector2
	var err error
	if q.X, err = b.ReadUInt(ranges[0].bits); err != nil {
		return Vector2{}, err
	}
	if q.Y, err = b.ReadUInt(ranges[1].bits); err != nil {
		return Vector2{}, err
	}
	return DequantizeVector2(q, ranges), nil
}

func WriteVector3(b *bitbuf.BitBuffer, v Vector3, ranges Ranges3) error {
	q := QuantizeVector3(v, ranges)
	if err := b.AddUInt(q.X, ranges[0].bits); err != nil {
		return err
	}
	if err := b.AddUInt(q.Y, ranges[1].bits); err != nil {
		return err
	}
	return b.AddUInt(q.Z, ranges[2].bits)
}

func ReadVector3(b *bitbuf.BitBuffer, ranges Ranges3) (Vector3, error) {
	var q QuantizedVector3
	var err error
	if q.X, err = b.ReadUInt(ranges[0].bits); err != nil {
		return Vector3{}, err
	}
	if q.Y, err = b.ReadUInt(ranges[1].bits); err != nil {
		return Vector3{}, err
	}
	if q.Z, err = b.ReadUInt(ranges[2].bits); err != nil {
		return Vector3{}, err
	}
	return DequantizeVector3(q, ranges), nil
}
