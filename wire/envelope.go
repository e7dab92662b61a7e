package wire

import (
	"netstack/bitbuf"

	"github.com/pkg/errors"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrTrailingData       = errors.New("trailing data after message")
)

// EncodeTo appends msg, prefixed with its type, to b.
func EncodeTo(b *bitbuf.BitBuffer, msg Message, s *Schema) error {
	if err := msg.MsgType().Encode(b); err != nil {
		return err
	}
	return msg.Encode(b, s)
}

// DecodeFrom reads one typed message from b.
func DecodeFrom(b *bitbuf.BitBuffer, s *Schema) (Message, error) {
	var msgType MessageType
	if err := msgType.Decode(b); err != nil {
		return nil, errors.Wrap(err, "error decoding message type")
	}

	var msg Message
	switch msgType {
	case MessageTypePlayerState:
		msg = &PlayerState{}
	case MessageTypeSnapshot:
		msg = &Snapshot{}
	case MessageTypeChat:
		msg = &Chat{}
	default:
		return nil, errors.Wrapf(ErrUnknownMessageType, "%d", msgType)
	}

	if err := msg.Decode(b, s); err != nil {
		return nil, errors.Wrapf(err, "error decoding %s", msgType)
	}
	return msg, nil
}

func Marshal(msg Message, s *Schema) ([]byte, error) {
	b := bitbuf.New()
	if err := EncodeTo(b, msg, s); err != nil {
		return nil, err
	}
	return b.ToArray(), nil
}

// Unmarshal decodes a packet holding exactly one message. Up to seven
// padding bits may follow the message.
func Unmarshal(data []byte, s *Schema) (Message, error) {
	b := bitbuf.FromArray(data)
	msg, err := DecodeFrom(b, s)
	if err != nil {
		return nil, err
	}
	if b.BitsRemaining() >= 8 {
		return nil, errors.Wrapf(ErrTrailingData, "%d bits", b.BitsRemaining())
	}
	return msg, nil
}
