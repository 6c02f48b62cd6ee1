package main

import (
	"os"

	"nomadledger/internal/cli"
	"nomadledger/internal/commands"
)

func main() {
	cli.LoadEnvFile()
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
