package main

import (
	"os"

	"github.com/fleetai/fleetcharge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
