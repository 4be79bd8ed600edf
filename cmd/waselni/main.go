package main

import (
	"os"

	"github.com/waselni/waselni-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
