package cmd

import (
	"fmt"
	"os"

	"netstack/cli"
	"netstack/config"
	"netstack/store"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var capturesCmd = &cobra.Command{
	Use:   "captures",
	Short: "Lists recorded packet captures.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.LoadConfig(cmd); err != nil {
			return err
		}
		db, err := store.Open(config.ExpandCapturesPath(cli.GetHomeDir(cmd)))
		if err != nil {
			return err
		}
		defer db.Close()

		captures, err := store.ListCaptures(db)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Name", "Created", "Packets", "Bytes", "Bits Per Player"})
		for _, c := range captures {
			table.Append([]string{
				c.Name,
				c.Created.Format("2006-01-02 15:04:05"),
				fmt.Sprint(c.Packets),
				cli.BandwidthToStr(c.Bytes),
				fmt.Sprint(c.PlayerStateBits),
			})
		}
		table.Render()
		fmt.Println("")
		fmt.Printf("Total: %d\n", len(captures))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capturesCmd)
}
