package quantization

import (
	"testing"

	"netstack/bitbuf"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestVector3_PerAxisRanges(t *testing.T) {
	ranges := Ranges3{
		mustRange(t, -100, 100, 18),
		mustRange(t, 0, 20, 10),
		mustRange(t, -1, 1, 8),
	}
	require.Equal(t, 36, ranges.Bits())

	v := Vector3{X: 42.42, Y: 7.5, Z: -0.3}
	q := QuantizeVector3(v, ranges)
	require.True(t, q.X < 1<<18)
	require.True(t, q.Y < 1<<10)
	require.True(t, q.Z < 1<<8)

	out := DequantizeVector3(q, ranges)
	require.InDelta(t, v.X, out.X, ranges[0].MaxError()+1e-5)
	require.InDelta(t, v.Y, out.Y, ranges[1].MaxError()+1e-5)
	require.InDelta(t, v.Z, out.Z, ranges[2].MaxError()+1e-5)
}

func TestVector3_SharedRange(t *testing.T) {
	r := mustRange(t, -50, 50, 16)
	v := Vector3{X: 1.5, Y: -2.25, Z: 0}
	q := r.QuantizeVector3(v)
	require.Equal(t, QuantizeVector3(v, Uniform3(r)), q)

	out := r.DequantizeVector3(q)
	require.InDelta(t, v.X, out.X, r.MaxError()+1e-5)
	require.InDelta(t, v.Y, out.Y, r.MaxError()+1e-5)
	require.InDelta(t, v.Z, out.Z, r.MaxError()+1e-5)
}

func TestVector2_RoundTrip(t *testing.T) {
	ranges := Ranges2{mustRange(t, 0, 1, 8), mustRange(t, -5, 5, 12)}
	require.Equal(t, 20, ranges.Bits())

	v := Vector2{X: 0.3, Y: -4.2}
	out := DequantizeVector2(QuantizeVector2(v, ranges), ranges)
	require.InDelta(t, v.X, out.X, ranges[0].MaxError()+1e-6)
	require.InDelta(t, v.Y, out.Y, ranges[1].MaxError()+1e-6)

	shared := ranges[1]
	out = shared.DequantizeVector2(shared.QuantizeVector2(Vector2{X: 1, Y: 2}))
	require.InDelta(t, 1, out.X, shared.MaxError()+1e-6)
	require.InDelta(t, 2, out.Y, shared.MaxError()+1e-6)
}

func TestVector_WriteRead(t *testing.T) {
	r3 := Ranges3{mustRange(t, -50, 50, 16), mustRange(t, 0, 10, 7), mustRange(t, -50, 50, 16)}
	r2 := Uniform2(mustRange(t, -1, 1, 9))

	b := bitbuf.New()
	require.NoError(t, WriteVector3(b, Vector3{X: 12, Y: 3, Z: -40}, r3))
	require.NoError(t, WriteVector2(b, Vector2{X: 0.5, Y: -0.5}, r2))
	require.Equal(t, r3.Bits()+r2.Bits(), b.BitsWritten())

	rd := bitbuf.FromArray(b.ToArray())
	v3, err := ReadVector3(rd, r3)
	require.NoError(t, err)
	require.InDelta(t, 12, v3.X, r3[0].MaxError()+1e-5)
	require.InDelta(t, 3, v3.Y, r3[1].MaxError()+1e-5)
	require.InDelta(t, -40, v3.Z, r3[2].MaxError()+1e-5)
	v2, err := ReadVector2(rd, r2)
	require.NoError(t, err)
	require.InDelta(t, 0.5, v2.X, r2[0].MaxError()+1e-6)
	require.InDelta(t, -0.5, v2.Y, r2[1].MaxError()+1e-6)

	_, err = ReadVector3(rd, r3)
	require.Equal(t, bitbuf.ErrReadOutOfRange, errors.Cause(err))
}
