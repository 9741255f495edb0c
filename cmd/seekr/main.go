// Package main provides the entry point for the seekr CLI.
package main

import (
	"os"

	"github.com/brobert1/seekr/cmd/seekr/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
