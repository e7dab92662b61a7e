package cli

import (
	"math"
	"strconv"
	"strings"

	"netstack/quantization"

	"github.com/pkg/errors"
)

var ErrInvalidVector = errors.New("invalid vector")

// ParseFloats parses a comma separated list of exactly n floats.
func ParseFloats(s string, n int) ([]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, errors.Wrapf(ErrInvalidVector, "expected %d components, got %d", n, len(parts))
	}
	out := make([]float32, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidVector, "component %d: %v", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func ParseVector3(s string) (quantization.Vector3, error) {
	f, err := ParseFloats(s, 3)
	if err != nil {
		return quantization.Vector3{}, err
	}
	return quantization.Vector3{X: f[0], Y: f[1], Z: f[2]}, nil
}

func ParseQuaternion(s string) (quantization.Quaternion, error) {
	f, err := ParseFloats(s, 4)
	if err != nil {
		return quantization.Quaternion{}, err
	}
	return normalizeQuaternion(quantization.Quaternion{X: f[0], Y: f[1], Z: f[2], W: f[3]})
}

// normalizeQuaternion scales q to unit length, which smallest-three packing
// requires.
func normalizeQuaternion(q quantization.Quaternion) (quantization.Quaternion, error) {
	n := math.Sqrt(float64(q.X)*float64(q.X) + float64(q.Y)*float64(q.Y) +
		float64(q.Z)*float64(q.Z) + float64(q.W)*float64(q.W))
	if n < 1e-6 || math.IsInf(n, 0) || math.IsNaN(n) {
		return quantization.Quaternion{}, errors.Wrapf(ErrInvalidVector, "quaternion norm %v", n)
	}
	return quantization.Quaternion{
		X: float32(float64(q.X) / n),
		Y: float32(float64(q.Y) / n),
		Z: float32(float64(q.Z) / n),
		W: float32(float64(q.W) / n),
	}, nil
}

func FormatVector3(v quantization.Vector3) string {
	return strings.Join([]string{
		formatFloat(v.X),
		formatFloat(v.Y),
		formatFloat(v.Z),
	}, ",")
}

func FormatQuaternion(q quantization.Quaternion) string {
	return strings.Join([]string{
		formatFloat(q.X),
		formatFloat(q.Y),
		formatFloat(q.Z),
		formatFloat(q.W),
	}, ",")
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', 4, 32)
}
