package main

import "netstack/cmd/netstack/cmd"

func main() {
	cmd.Execute()
}
