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
	collapseInstanceName string
	collapseCaller       string
)

var collapseCmd = &cobra.Command{
	Use:   "collapse CHARACTER",
	Short: "Collapse a character to a classical state",
	Long: `Collapse a character's quantum state.

Collapse is one-way: the superposition labels are emptied permanently and
never return, while bonds and entanglement links survive. A collapsed
character can still propagate memes but cannot gain new superpositions.

Examples:
  # Collapse character 1
  drey collapse 1`,
	Args: cobra.ExactArgs(1),
	RunE: runCollapse,
}

func init() {
	collapseCmd.Flags().StringVarP(&collapseInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	addCallerFlag(collapseCmd, &collapseCaller)
	rootCmd.AddCommand(collapseCmd)
}

func runCollapse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	characterID, err := parseCharacterID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadSimulationConfig()
	if err != nil {
		return err
	}

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, collapseInstanceName, "collapse")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	quantumEngine, _ := newEngines(ledgerClient, cfg)

	err = quantumEngine.Collapse(ctx, callerIdentity(collapseCaller), characterID)
	if err != nil {
		if errors.Is(err, quantum.ErrNotInitialized) {
			return printer.Error(
				fmt.Sprintf("character %d is not spawned", characterID),
				"Only spawned characters can collapse.",
				[]string{fmt.Sprintf("Spawn the character first:\n  drey spawn %d --factor 10", characterID)},
			)
		}
		if errors.Is(err, quantum.ErrAlreadyCollapsed) {
			return printer.Error(
				fmt.Sprintf("character %d is already collapsed", characterID),
				"Collapse is one-way and cannot repeat.",
				[]string{fmt.Sprintf("Inspect the state:\n  drey show %d", characterID)},
			)
		}
		return fmt.Errorf("failed to collapse character: %w", err)
	}

	printer.Success("Character %d collapsed to a classical state\n", characterID)
	return nil
}
