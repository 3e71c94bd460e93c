// Package main is the entry point for the pricecheck CLI.
package main

import (
	"os"

	"github.com/jmylchreest/pricecheck/cmd/pricecheck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
