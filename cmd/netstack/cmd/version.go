package cmd

import (
	"fmt"

	"netstack/version"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the netstack version.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("netstack %s\n", version.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
