package main

import (
	"os"

	"github.com/opsforge-io/ticketwash/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
