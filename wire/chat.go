package wire

import (
	"netstack/bitbuf"
)

type Chat struct {
	PlayerID int32
	Text     string
}

var _ Message = (*Chat)(nil)

func (c *Chat) MsgType() MessageType {
	return MessageTypeChat
}

func (c *Chat) Encode(b *bitbuf.BitBuffer, _ *Schema) error {
	b.AddInt32(c.PlayerID)
	return b.AddString(c.Text)
}

func (c *Chat) Decode(b *bitbuf.BitBuffer, _ *Schema) error {
	var err error
	if c.PlayerID, err = b.ReadInt32(); err != nil {
		return err
	}
	c.Text, err = b.ReadString()
	return err
}
