// Package quantization provides the fixed-width lossy codecs used to shrink
// network messages.
//
// # Bounded ranges
//
// A BoundedRange maps a closed interval [min, max] onto the unsigned codes
// [0, 2^bits-1]:
//
//	r, err := quantization.NewBoundedRange(-50, 50, 16)
//	code := r.Quantize(1.5)     // fits in 16 bits
//	value := r.Dequantize(code) // |value - 1.5| <= r.MaxError()
//
// The step between codes is (max - min) / (2^bits - 1) and the
// reconstruction error of any in-range value is at most half a step. Inputs
// outside the range are clamped.
//
// Vectors are quantized per axis in x, y, z order, with one range per axis
// (Ranges3) or one range shared by every axis (Uniform3).
//
// # Half precision
//
// HalfPrecision converts float32 values to IEEE-754 binary16 patterns.
//
// # Smallest three
//
// QuantizeQuaternion packs a unit quaternion into 2 + 3*bitsPerElement bits by
// dropping its largest component and rebuilding it from unit length on the
// receiving side.
package quantization
