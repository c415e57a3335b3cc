package main

import (
	"fmt"
	"os"

	"github.com/dyluth/drey/cmd/drey/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Set version information on root command
	commands.SetVersionInfo(version, commit, date)

	// Execute root command
	// User-facing failures are printed by the printer package with color
	// formatting; the plain error line covers everything else.
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
