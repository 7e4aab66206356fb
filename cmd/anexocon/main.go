// Package main provides the anexocon CLI.
package main

import (
	"os"

	"github.com/anexotools/anexocon/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
