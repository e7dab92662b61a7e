package cmd

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"netstack/cli"
	"netstack/wire"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [hex]",
	Short: "Decodes a hex encoded packet. Reads stdin when no packet is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(cmd)
		if err != nil {
			return err
		}
		schema, err := cfg.Schema()
		if err != nil {
			return err
		}

		var input []byte
		if len(args) == 0 {
			if isatty.IsTerminal(os.Stdin.Fd()) {
				input = readDataTTY()
			} else if input, err = ioutil.ReadAll(os.Stdin); err != nil {
				return err
			}
		} else {
			input = []byte(args[0])
		}

		data, err := hex.DecodeString(strings.TrimSpace(string(input)))
		if err != nil {
			return err
		}
		msg, err := wire.Unmarshal(data, schema)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString(cli.FlagFormat)
		if format == "json" {
			return json.NewEncoder(os.Stdout).Encode(msg)
		}

		fmt.Printf("%s (%d bytes)\n", msg.MsgType(), len(data))
		if snap, ok := msg.(*wire.Snapshot); ok {
			fmt.Printf("Tick: %d\n", snap.Tick)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader(header(msg))
		for _, row := range describe(msg) {
			table.Append(row)
		}
		table.Render()
		return nil
	},
}

func readDataTTY() []byte {
	fmt.Println("Paste the hex encoded packet below.")
	fmt.Println("When you are finished, press Ctrl+D.")

	var buf bytes.Buffer
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		buf.WriteString(scanner.Text())
	}

	return buf.Bytes()
}

func init() {
	decodeCmd.Flags().String(cli.FlagFormat, "table", "Output format, table or json")
	rootCmd.AddCommand(decodeCmd)
}
