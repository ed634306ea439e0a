package main

import (
	"os"

	"chakravyuh-round/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
