package main

import (
	"os"

	"orderlyflow/cmd/boardctl/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
