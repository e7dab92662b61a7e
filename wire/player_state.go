package wire

import (
	"netstack/bitbuf"
	"netstack/quantization"
)

type PlayerState struct {
	ID       int32
	Position quantization.Vector3
	Velocity quantization.Vector3
	Rotation quantization.Quaternion
}

var _ Message = (*PlayerState)(nil)

func (p *PlayerState) MsgType() MessageType {
	return MessageTypePlayerState
}

func (p *PlayerState) Encode(b *bitbuf.BitBuffer, s *Schema) error {
	b.AddInt32(p.ID)
	if err := quantization.WriteVector3(b, p.Position, s.Position); err != nil {
		return err
	}
	quantization.HalfPrecision.WriteVector3(b, p.Velocity)
	return quantization.WriteQuaternion(b, p.Rotation, s.RotationBits)
}

func (p *PlayerState) Decode(b *bitbuf.BitBuffer, s *Schema) error {
	var err error
	if p.ID, err = b.ReadInt32(); err != nil {
		return err
	}
	if p.Position, err = quantization.ReadVector3(b, s.Position); err != nil {
		return err
	}
	if p.Velocity, err = quantization.HalfPrecision.ReadVector3(b); err != nil {
		return err
	}
	p.Rotation, err = quantization.ReadQuaternion(b, s.RotationBits)
	return err
}
