package cli

import (
	"testing"

	"netstack/quantization"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestParseVector3(t *testing.T) {
	v, err := ParseVector3("1.5, -2.25,0")
	require.NoError(t, err)
	require.Equal(t, quantization.Vector3{X: 1.5, Y: -2.25, Z: 0}, v)
	require.Equal(t, "1.5000,-2.2500,0.0000", FormatVector3(v))

	_, err = ParseVector3("1,2")
	require.Equal(t, ErrInvalidVector, errors.Cause(err))
	_, err = ParseVector3("1,a,2")
	require.Equal(t, ErrInvalidVector, errors.Cause(err))
}

func TestParseQuaternion(t *testing.T) {
	q, err := ParseQuaternion("0,0,0,1")
	require.NoError(t, err)
	require.Equal(t, quantization.Quaternion{W: 1}, q)
	require.Equal(t, "0.0000,0.0000,0.0000,1.0000", FormatQuaternion(q))

	q, err = ParseQuaternion("0,0,0,2")
	require.NoError(t, err)
	require.Equal(t, quantization.Quaternion{W: 1}, q)

	q, err = ParseQuaternion("0,3,0,-4")
	require.NoError(t, err)
	require.InDelta(t, 0.6, q.Y, 1e-6)
	require.InDelta(t, -0.8, q.W, 1e-6)
	out := quantization.DequantizeQuaternion(
		quantization.QuantizeQuaternion(q, quantization.DefaultQuaternionBits),
		quantization.DefaultQuaternionBits,
	)
	if out.W > 0 {
		out = quantization.Quaternion{X: -out.X, Y: -out.Y, Z: -out.Z, W: -out.W}
	}
	require.InDelta(t, q.Y, out.Y, 2e-3)
	require.InDelta(t, q.W, out.W, 2e-3)

	_, err = ParseQuaternion("0,0,0,0")
	require.Equal(t, ErrInvalidVector, errors.Cause(err))
}

func TestBandwidthToStr(t *testing.T) {
	require.Equal(t, "-", BandwidthToStr(0))
	require.Equal(t, "999 B", BandwidthToStr(999))
	require.Equal(t, "1.5 kB", BandwidthToStr(1500))
	require.Equal(t, "2.0 MB", BandwidthToStr(2000000))
}
