package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"netstack/buffers"
	"netstack/cli"
	"netstack/config"
	"netstack/simulation"
	"netstack/store"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const (
	PlayersFlag  = "players"
	TicksFlag    = "ticks"
	TickRateFlag = "tick-rate"
	SeedFlag     = "seed"
	RecordFlag   = "record"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Streams simulated snapshots over an in-memory connection and reports bandwidth and error.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		schema, err := cfg.Schema()
		if err != nil {
			return err
		}
		stats := new(buffers.StatsListener)
		pool, err := cfg.NewPool(stats)
		if err != nil {
			return err
		}

		simCfg := cfg.Simulation
		flags := cmd.Flags()
		if flags.Changed(PlayersFlag) {
			simCfg.Players, _ = flags.GetInt(PlayersFlag)
		}
		if flags.Changed(TicksFlag) {
			simCfg.Ticks, _ = flags.GetInt(TicksFlag)
		}
		if flags.Changed(TickRateFlag) {
			simCfg.TickRateHz, _ = flags.GetInt(TickRateFlag)
		}
		seed, _ := flags.GetInt64(SeedFlag)

		sim, err := simulation.New(schema, pool, simCfg.Players)
		if err != nil {
			return err
		}
		sim.TickRate = rate.Limit(simCfg.TickRateHz)
		sim.Burst = simCfg.Burst
		sim.Ticks = simCfg.Ticks
		sim.Seed = seed

		var capture *store.CaptureWriter
		if name, _ := flags.GetString(RecordFlag); name != "" {
			db, err := store.Open(config.ExpandCapturesPath(cli.GetHomeDir(cmd)))
			if err != nil {
				return err
			}
			defer db.Close()
			if capture, err = store.NewCaptureWriter(db, name, schema.PlayerStateBits()); err != nil {
				return err
			}
			sim.Recorder = capture
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)
		go func() {
			select {
			case <-sigs:
				cancel()
			case <-ctx.Done():
			}
		}()

		report, err := sim.Run(ctx)
		if err != nil {
			if capture != nil {
				capture.Discard()
			}
			return err
		}
		if capture != nil {
			if err := capture.Close(); err != nil {
				return err
			}
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Metric", "Value"})
		table.Append([]string{"Ticks", fmt.Sprint(report.Ticks)})
		table.Append([]string{"Players", fmt.Sprint(report.Players)})
		table.Append([]string{"Bits per player", fmt.Sprint(schema.PlayerStateBits())})
		table.Append([]string{"Snapshot size", fmt.Sprintf("%d B", report.PacketBytes)})
		table.Append([]string{"Bytes sent", cli.BandwidthToStr(report.BytesSent)})
		table.Append([]string{"Unquantized size", cli.BandwidthToStr(report.RawBytes)})
		table.Append([]string{"Max position error", cli.FormatVector3(report.MaxPositionError)})
		table.Append([]string{"Position error bound", cli.FormatVector3(report.PositionBound)})
		table.Append([]string{"Max velocity error", fmt.Sprintf("%.5f%%", report.MaxVelocityError*100)})
		table.Append([]string{"Max rotation error", fmt.Sprintf("%.5f", report.MaxRotationError)})
		table.Append([]string{"Buffers allocated", fmt.Sprint(stats.Allocated(buffers.Pooled) + stats.Allocated(buffers.PoolExhausted) + stats.Allocated(buffers.OverMaximumSize))})
		table.Append([]string{"Buffers rented", fmt.Sprint(stats.Rented())})
		table.Append([]string{"Elapsed", report.Elapsed.String()})
		table.Render()
		if capture != nil {
			fmt.Printf("Recorded %d packets to capture %s.\n", capture.Capture().Packets, capture.Capture().Name)
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().Int(PlayersFlag, 0, "Number of players, overrides the config file")
	simulateCmd.Flags().Int(TicksFlag, 0, "Number of ticks, overrides the config file")
	simulateCmd.Flags().Int(TickRateFlag, 0, "Ticks per second, 0 runs unthrottled; overrides the config file")
	simulateCmd.Flags().Int64(SeedFlag, 1, "Random seed for the simulated world")
	simulateCmd.Flags().String(RecordFlag, "", "Records received packets to the named capture")
	rootCmd.AddCommand(simulateCmd)
}
