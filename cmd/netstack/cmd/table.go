package cmd

import (
	"fmt"

	"netstack/cli"
	"netstack/wire"
)

// describe flattens a decoded message into table rows.
func describe(msg wire.Message) [][]string {
	switch m := msg.(type) {
	case *wire.PlayerState:
		return [][]string{playerRow(m)}
	case *wire.Snapshot:
		rows := make([][]string, len(m.Players))
		for i := range m.Players {
			rows[i] = playerRow(&m.Players[i])
		}
		return rows
	case *wire.Chat:
		return [][]string{{fmt.Sprint(m.PlayerID), m.Text}}
	default:
		return nil
	}
}

func playerRow(p *wire.PlayerState) []string {
	return []string{
		fmt.Sprint(p.ID),
		cli.FormatVector3(p.Position),
		cli.FormatVector3(p.Velocity),
		cli.FormatQuaternion(p.Rotation),
	}
}

func header(msg wire.Message) []string {
	if msg.MsgType() == wire.MessageTypeChat {
		return []string{"Player ID", "Text"}
	}
	return []string{"Player ID", "Position", "Velocity", "Rotation"}
}
