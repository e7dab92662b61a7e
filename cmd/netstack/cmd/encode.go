package cmd

import (
	"encoding/hex"
	"fmt"

	"netstack/bitbuf"
	"netstack/cli"
	"netstack/wire"

	"github.com/spf13/cobra"
)

const (
	IDFlag       = "id"
	PositionFlag = "pos"
	VelocityFlag = "vel"
	RotationFlag = "rot"
	TextFlag     = "text"
)

var (
	encodeID       int32
	encodePosition string
	encodeVelocity string
	encodeRotation string
	encodeText     string
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encodes a player state, or a chat message when --text is set, and prints it as hex.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		schema, err := cfg.Schema()
		if err != nil {
			return err
		}

		var msg wire.Message
		if cmd.Flags().Changed(TextFlag) {
			msg = &wire.Chat{
				PlayerID: encodeID,
				Text:     encodeText,
			}
		} else {
			state := &wire.PlayerState{
				ID: encodeID,
			}
			if state.Position, err = cli.ParseVector3(encodePosition); err != nil {
				return err
			}
			if state.Velocity, err = cli.ParseVector3(encodeVelocity); err != nil {
				return err
			}
			if state.Rotation, err = cli.ParseQuaternion(encodeRotation); err != nil {
				return err
			}
			msg = state
		}

		b := bitbuf.New()
		if err := wire.EncodeTo(b, msg, schema); err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(b.ToArray()))
		fmt.Printf("%s: %d bits, %d bytes\n", msg.MsgType(), b.BitsWritten(), b.Length())
		return nil
	},
}

func init() {
	encodeCmd.Flags().Int32Var(&encodeID, IDFlag, 0, "Player ID")
	encodeCmd.Flags().StringVar(&encodePosition, PositionFlag, "0,0,0", "Position as x,y,z")
	encodeCmd.Flags().StringVar(&encodeVelocity, VelocityFlag, "0,0,0", "Velocity as x,y,z")
	encodeCmd.Flags().StringVar(&encodeRotation, RotationFlag, "0,0,0,1", "Rotation quaternion as x,y,z,w")
	encodeCmd.Flags().StringVar(&encodeText, TextFlag, "", "Chat text")
	rootCmd.AddCommand(encodeCmd)
}
