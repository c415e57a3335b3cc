package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/mind"
)

var (
	beliefInstanceName string
	beliefCaller       string
)

var beliefCmd = &cobra.Command{
	Use:   "belief CHARACTER TEXT",
	Short: "Add a belief to an awakened character",
	Long: `Append a belief to a character's mind.

Beliefs accumulate; evolution also appends each experience as a belief.

Examples:
  drey belief 1 "the nest is safe"`,
	Args: cobra.ExactArgs(2),
	RunE: runBelief,
}

func init() {
	beliefCmd.Flags().StringVarP(&beliefInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	addCallerFlag(beliefCmd, &beliefCaller)
	rootCmd.AddCommand(beliefCmd)
}

func runBelief(cmd *cobra.Command, args []string) error {
	return runMindAppend(args, beliefInstanceName, beliefCaller, "belief", func(ctx context.Context, engine *mind.Engine, caller string, characterID uint64, text string) error {
		return engine.AddBelief(ctx, caller, characterID, text)
	})
}
