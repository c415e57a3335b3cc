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
	awakenInstanceName string
	awakenCaller       string
	awakenAwareness    uint64
)

var awakenCmd = &cobra.Command{
	Use:   "awaken CHARACTER",
	Short: "Initialize a character's consciousness",
	Long: `Awaken a character with a starting awareness level (1-100).

Awakening seeds the mind with a founding belief, value, and goal, plus the
standard priority set (survival, growth, connection). It is once-only:
re-awakening an initialized mind fails.

Consciousness is independent of the entanglement network; a character can
be awakened without being spawned, and vice versa.

Examples:
  # Awaken character 1 at awareness 10
  drey awaken 1 --awareness 10`,
	Args: cobra.ExactArgs(1),
	RunE: runAwaken,
}

func init() {
	awakenCmd.Flags().StringVarP(&awakenInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	awakenCmd.Flags().Uint64VarP(&awakenAwareness, "awareness", "a", 0, "Starting awareness level (required, 1-100)")
	addCallerFlag(awakenCmd, &awakenCaller)
	awakenCmd.MarkFlagRequired("awareness")
	rootCmd.AddCommand(awakenCmd)
}

func runAwaken(cmd *cobra.Command, args []string) error {
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

	targetInstanceName, err := resolveInstanceName(ctx, cli, awakenInstanceName, "awaken")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	_, mindEngine := newEngines(ledgerClient, cfg)

	err = mindEngine.Initialize(ctx, callerIdentity(awakenCaller), characterID, awakenAwareness)
	if err != nil {
		if errors.Is(err, mind.ErrAlreadyInitialized) {
			return printer.Error(
				fmt.Sprintf("character %d is already awake", characterID),
				"Consciousness initialization is once-only.",
				[]string{fmt.Sprintf("Inspect the existing mind:\n  drey show %d", characterID)},
			)
		}
		if errors.Is(err, mind.ErrInvalidAwareness) {
			return printer.Error(
				"awareness level must be between 1 and 100",
				fmt.Sprintf("Got: %d", awakenAwareness),
				[]string{fmt.Sprintf("Pick a level in range:\n  drey awaken %d --awareness 10", characterID)},
			)
		}
		return fmt.Errorf("failed to awaken character: %w", err)
	}

	printer.Success("Character %d awakened (awareness %d)\n", characterID, awakenAwareness)
	return nil
}
