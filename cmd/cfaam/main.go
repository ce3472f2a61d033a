package main

import (
	"os"

	"github.com/tradefin/cfaam/cmd/cfaam/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
