package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "drey",
	Short: "Drey - Container-native character simulation engine",
	Long: `Drey is a container-native character simulation engine. Characters live
in a shared nest: a quantum-flavored entanglement network that propagates
and mutates memes, and a consciousness engine that evolves through
recorded experience.

Drey provides an event-driven architecture with Redis-based state management;
every mutation lands in an append-only journal, so a simulation is fully
auditable after the fact.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	// e.g., "drey --factor 10" instead of "drey spawn 1 --factor 10"
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is specified, show help
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	// Global flags can be added here
}
