package main

import (
	"os"

	"github.com/ohare93/delegate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
