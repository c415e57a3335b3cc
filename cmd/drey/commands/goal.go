package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/mind"
	"github.com/dyluth/drey/internal/printer"
)

var (
	goalInstanceName string
	goalCaller       string
)

var goalCmd = &cobra.Command{
	Use:   "goal CHARACTER TEXT",
	Short: "Add a goal to an awakened character",
	Long: `Append a goal to a character's mind.

Goals shape evolution: an experience that exactly matches a goal earns
bonus impact.

Examples:
  drey goal 1 "spread the hello meme"`,
	Args: cobra.ExactArgs(2),
	RunE: runGoal,
}

func init() {
	goalCmd.Flags().StringVarP(&goalInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	addCallerFlag(goalCmd, &goalCaller)
	rootCmd.AddCommand(goalCmd)
}

func runGoal(cmd *cobra.Command, args []string) error {
	return runMindAppend(args, goalInstanceName, goalCaller, "goal", func(ctx context.Context, engine *mind.Engine, caller string, characterID uint64, text string) error {
		return engine.AddGoal(ctx, caller, characterID, text)
	})
}

// runMindAppend is the shared body of the goal and belief verbs, which
// differ only in the engine call and the word printed.
func runMindAppend(args []string, nameFlag, callerFlag, noun string, op func(ctx context.Context, engine *mind.Engine, caller string, characterID uint64, text string) error) error {
	ctx := context.Background()

	characterID, err := parseCharacterID(args[0])
	if err != nil {
		return err
	}
	text := args[1]

	cfg, err := loadSimulationConfig()
	if err != nil {
		return err
	}

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, nameFlag, noun)
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	_, mindEngine := newEngines(ledgerClient, cfg)

	err = op(ctx, mindEngine, callerIdentity(callerFlag), characterID, text)
	if err != nil {
		if errors.Is(err, mind.ErrNotInitialized) {
			return printer.Error(
				fmt.Sprintf("character %d is not awake", characterID),
				fmt.Sprintf("Only awakened characters can hold a %s.", noun),
				[]string{fmt.Sprintf("Awaken the character first:\n  drey awaken %d --awareness 10", characterID)},
			)
		}
		return fmt.Errorf("failed to add %s: %w", noun, err)
	}

	printer.Success("Character %d gained %s '%s'\n", characterID, noun, text)
	return nil
}
