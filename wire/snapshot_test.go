package wire

import (
	"testing"

	"netstack/bitbuf"
	"netstack/quantization"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_Encoding(t *testing.T) {
	s := DefaultSchema()
	snap := &Snapshot{Tick: 1234}
	for i := 0; i < 5; i++ {
		snap.Players = append(snap.Players, PlayerState{
			ID:       int32(i),
			Position: quantization.Vector3{X: float32(i) * 3.5, Y: -float32(i), Z: 10},
			Velocity: quantization.Vector3{X: 1, Y: 2, Z: 4},
			Rotation: quantization.Quaternion{W: 1},
		})
	}

	b := bitbuf.New()
	require.NoError(t, snap.Encode(b, s))
	require.Equal(t, 32+8+5*s.PlayerStateBits(), b.BitsWritten())

	out := &Snapshot{}
	require.NoError(t, out.Decode(bitbuf.FromArray(b.ToArray()), s))
	require.Equal(t, snap.Tick, out.Tick)
	require.Len(t, out.Players, 5)
	for i := range snap.Players {
		requirePlayerState(t, s, snap.Players[i], out.Players[i])
	}
}

func TestSnapshot_Empty(t *testing.T) {
	b := bitbuf.New()
	require.NoError(t, (&Snapshot{Tick: 9}).Encode(b, DefaultSchema()))
	require.Equal(t, 40, b.BitsWritten())

	out := &Snapshot{}
	require.NoError(t, out.Decode(bitbuf.FromArray(b.ToArray()), DefaultSchema()))
	require.EqualValues(t, 9, out.Tick)
	require.Empty(t, out.Players)
}

func TestSnapshot_TooManyPlayers(t *testing.T) {
	snap := &Snapshot{Players: make([]PlayerState, MaxSnapshotPlayers+1)}
	b := bitbuf.New()
	err := snap.Encode(b, DefaultSchema())
	require.Equal(t, ErrTooManyPlayers, errors.Cause(err))
	require.Equal(t, 0, b.BitsWritten())
}
