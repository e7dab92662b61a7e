package wire

import (
	"netstack/bitbuf"
)

// Message is a fixed-schema payload. Encode and Decode must read and write
// the same fields in the same order and widths.
type Message interface {
	MsgType() MessageType
	Encode(b *bitbuf.BitBuffer, s *Schema) error
	Decode(b *bitbuf.BitBuffer, s *Schema) error
}

type MessageType uint8

const (
	MessageTypePlayerState MessageType = iota
	MessageTypeSnapshot
	MessageTypeChat

	messageTypeBits = 4
)

func (t MessageType) String() string {
	switch t {
	case MessageTypePlayerState:
		return "PlayerState"
	case MessageTypeSnapshot:
		return "Snapshot"
	case MessageTypeChat:
		return "Chat"
	default:
		return "unknown"
	}
}

func (t MessageType) Encode(b *bitbuf.BitBuffer) error {
	return b.AddUInt(uint32(t), messageTypeBits)
}

func (t *MessageType) Decode(b *bitbuf.BitBuffer) error {
	decoded, err := b.ReadUInt(messageTypeBits)
	if err != nil {
		return err
	}
	*t = MessageType(decoded)
	return nil
}
