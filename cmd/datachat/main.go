// Package main provides the datachat CLI.
package main

import (
	"os"

	"github.com/datachat-labs/datachat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
