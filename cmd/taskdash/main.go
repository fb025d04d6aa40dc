// Package main provides the entry point for the taskdash CLI.
package main

import (
	"os"

	"github.com/dsrs-analytics/taskdash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
