package cmd

import (
	"fmt"
	"os"

	"netstack/cli"
	"netstack/config"
	"netstack/store"
	"netstack/wire"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const ShowTickFlag = "tick"

var ErrSchemaMismatch = errors.New("capture was recorded with a different schema")

var replayCmd = &cobra.Command{
	Use:   "replay <name>",
	Short: "Decodes a recorded capture. With --tick, prints the players of that tick.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		schema, err := cfg.Schema()
		if err != nil {
			return err
		}
		db, err := store.Open(config.ExpandCapturesPath(cli.GetHomeDir(cmd)))
		if err != nil {
			return err
		}
		defer db.Close()

		capture, err := store.GetCapture(db, args[0])
		if err != nil {
			return err
		}
		if capture.PlayerStateBits != schema.PlayerStateBits() {
			return errors.Wrapf(ErrSchemaMismatch, "%d bits per player recorded, %d configured", capture.PlayerStateBits, schema.PlayerStateBits())
		}
		stream, err := store.StreamPackets(db, args[0])
		if err != nil {
			return err
		}
		defer stream.Close()

		showTick := -1
		if cmd.Flags().Changed(ShowTickFlag) {
			showTick, _ = cmd.Flags().GetInt(ShowTickFlag)
		}

		table := tablewriter.NewWriter(os.Stdout)
		if showTick < 0 {
			table.SetHeader([]string{"Seq", "Type", "Tick", "Players", "Bytes"})
		}
		var seq int
		for packet := stream.Next(); packet != nil; packet = stream.Next() {
			msg, err := wire.Unmarshal(packet, schema)
			if err != nil {
				return errors.Wrapf(err, "error decoding packet %d", seq)
			}
			snap, isSnap := msg.(*wire.Snapshot)
			switch {
			case showTick < 0:
				tick, players := "-", "-"
				if isSnap {
					tick, players = fmt.Sprint(snap.Tick), fmt.Sprint(len(snap.Players))
				}
				table.Append([]string{fmt.Sprint(seq), msg.MsgType().String(), tick, players, fmt.Sprint(len(packet))})
			case isSnap && int(snap.Tick) == showTick:
				table.SetHeader(header(msg))
				for _, row := range describe(msg) {
					table.Append(row)
				}
			}
			seq++
		}
		table.Render()
		return nil
	},
}

func init() {
	replayCmd.Flags().Int(ShowTickFlag, 0, "Tick whose players to print")
	rootCmd.AddCommand(replayCmd)
}
