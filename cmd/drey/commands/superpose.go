package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/quantum"
)

var (
	superposeInstanceName string
	superposeCaller       string
)

var superposeCmd = &cobra.Command{
	Use:   "superpose CHARACTER LABEL",
	Short: "Add a superposition label to a character",
	Long: `Append a superposition label to a spawned, uncollapsed character.

Superposition labels widen the character's meme fan-out: each propagation
delivers to as many linked peers as the source holds labels. Collapse
empties the labels permanently.

Examples:
  # Give character 1 an "explorer" superposition
  drey superpose 1 explorer

  # Labels may contain spaces when quoted
  drey superpose 1 "reluctant diplomat"`,
	Args: cobra.ExactArgs(2),
	RunE: runSuperpose,
}

func init() {
	superposeCmd.Flags().StringVarP(&superposeInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	addCallerFlag(superposeCmd, &superposeCaller)
	rootCmd.AddCommand(superposeCmd)
}

func runSuperpose(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	characterID, err := parseCharacterID(args[0])
	if err != nil {
		return err
	}
	label := args[1]

	cfg, err := loadSimulationConfig()
	if err != nil {
		return err
	}

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, superposeInstanceName, "superpose")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	quantumEngine, _ := newEngines(ledgerClient, cfg)

	err = quantumEngine.AddSuperposition(ctx, callerIdentity(superposeCaller), characterID, label)
	if err != nil {
		if errors.Is(err, quantum.ErrNotInitialized) {
			return printer.Error(
				fmt.Sprintf("character %d is not spawned", characterID),
				"Only spawned characters can hold superpositions.",
				[]string{fmt.Sprintf("Spawn the character first:\n  drey spawn %d --factor 10", characterID)},
			)
		}
		if errors.Is(err, quantum.ErrAlreadyCollapsed) {
			return printer.Error(
				fmt.Sprintf("character %d has collapsed", characterID),
				"Collapsed characters cannot gain new superpositions.",
				[]string{fmt.Sprintf("Inspect the state:\n  drey show %d", characterID)},
			)
		}
		return fmt.Errorf("failed to add superposition: %w", err)
	}

	printer.Success("Character %d superposed as '%s'\n", characterID, label)
	return nil
}
