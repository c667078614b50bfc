package main

import (
	"os"

	"github.com/samuelfneumann/pendulumac/command"
)

func main() {
	if err := command.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
