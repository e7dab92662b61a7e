package wire

import (
	"netstack/bitbuf"

	"github.com/pkg/errors"
)

const (
	MaxSnapshotPlayers = 1<<playerCountBits - 1
	playerCountBits    = 8
)

var ErrTooManyPlayers = errors.New("too many players in snapshot")

// Snapshot is the world state for one simulation tick.
type Snapshot struct {
	Tick    uint32
	Players []PlayerState
}

var _ Message = (*Snapshot)(nil)

func (s *Snapshot) MsgType() MessageType {
	return MessageTypeSnapshot
}

func (s *Snapshot) Encode(b *bitbuf.BitBuffer, schema *Schema) error {
	if len(s.Players) > MaxSnapshotPlayers {
		return errors.Wrapf(ErrTooManyPlayers, "%d, max %d", len(s.Players), MaxSnapshotPlayers)
	}
	b.AddUInt32(s.Tick)
	if err := b.AddUInt(uint32(len(s.Players)), playerCountBits); err != nil {
		return err
	}
	for i := range s.Players {
		if err := s.Players[i].Encode(b, schema); err != nil {
			return errors.Wrapf(err, "error encoding player %d", i)
		}
	}
	return nil
}

func (s *Snapshot) Decode(b *bitbuf.BitBuffer, schema *Schema) error {
	var err error
	if s.Tick, err = b.ReadUInt32(); err != nil {
		return err
	}
	count, err := b.ReadUInt(playerCountBits)
	if err != nil {
		return err
	}
	players := make([]PlayerState, count)
	for i := range players {
		if err := players[i].Decode(b, schema); err != nil {
			return errors.Wrapf(err, "error decoding player %d", i)
		}
	}
	s.Players = players
	return nil
}
