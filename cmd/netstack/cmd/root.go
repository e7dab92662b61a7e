package cmd

import (
	"fmt"
	"os"

	"netstack/cli"
	"netstack/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "netstack",
	Short:        "Encodes, decodes and simulates quantized game state packets.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String(cli.FlagHome, config.DefaultHomePath, "Home directory for netstack's config.")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
