// Package main is the entry point for the notchlight CLI.
package main

import (
	"os"

	"github.com/notchlight-io/notchlight/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
