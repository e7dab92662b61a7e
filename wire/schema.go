package wire

import (
	"netstack/quantization"

	"github.com/pkg/errors"
)

var ErrInvalidSchema = errors.New("invalid schema")

// Schema is the out-of-band agreement between sender and receiver on how
// quantized fields are encoded. Both sides must use identical schemas.
type Schema struct {
	Position     quantization.Ranges3
	RotationBits int
}

func NewSchema(position quantization.Ranges3, rotationBits int) (*Schema, error) {
	for i, r := range position {
		if r.Bits() == 0 {
			return nil, errors.Wrapf(ErrInvalidSchema, "position axis %d has no range", i)
		}
	}
	if rotationBits < quantization.MinQuaternionBits || rotationBits > quantization.MaxQuaternionBits {
		return nil, errors.Wrapf(ErrInvalidSchema, "rotation bits %d", rotationBits)
	}
	return &Schema{
		Position:     position,
		RotationBits: rotationBits,
	}, nil
}

// DefaultSchema quantizes positions over [-50, 50] with 16 bits per axis and
// rotations with 12 bits per element.
func DefaultSchema() *Schema {
	r, err := quantization.NewBoundedRange(-50, 50, 16)
	if err != nil {
		panic(err)
	}
	return &Schema{
		Position:     quantization.Uniform3(r),
		RotationBits: quantization.DefaultQuaternionBits,
	}
}

// PlayerStateBits is the encoded size of one PlayerState body.
func (s *Schema) PlayerStateBits() int {
	return 32 + s.Position.Bits() + 3*16 + 2 + 3*s.RotationBits
}

// PositionError is the largest per-axis position error the schema allows.
func (s *Schema) PositionError() quantization.Vector3 {
	return quantization.Vector3{
		X: float32(s.Position[0].MaxError()),
		Y: float32(s.Position[1].MaxError()),
		Z: float32(s.Position[2].MaxError()),
	}
}
