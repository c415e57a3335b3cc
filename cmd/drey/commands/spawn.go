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
	spawnInstanceName string
	spawnCaller       string
	spawnFactor       uint64
)

var spawnCmd = &cobra.Command{
	Use:   "spawn CHARACTER",
	Short: "Bring a character into the entanglement network",
	Long: `Initialize a character's quantum state with an entanglement factor.

A character must be spawned before it can bond, propagate memes, or hold
superposition labels. Spawning is once-only: re-spawning an existing
character fails.

The entanglement factor must be non-zero and grows as bonds form.

Examples:
  # Spawn character 1 with factor 10
  drey spawn 1 --factor 10

  # Spawn on a specific instance
  drey spawn 7 --factor 42 --name prod`,
	Args: cobra.ExactArgs(1),
	RunE: runSpawn,
}

func init() {
	spawnCmd.Flags().StringVarP(&spawnInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	spawnCmd.Flags().Uint64VarP(&spawnFactor, "factor", "f", 0, "Entanglement factor (required, non-zero)")
	addCallerFlag(spawnCmd, &spawnCaller)
	spawnCmd.MarkFlagRequired("factor")
	rootCmd.AddCommand(spawnCmd)
}

func runSpawn(cmd *cobra.Command, args []string) error {
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

	targetInstanceName, err := resolveInstanceName(ctx, cli, spawnInstanceName, "spawn")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	quantumEngine, _ := newEngines(ledgerClient, cfg)

	err = quantumEngine.InitializeState(ctx, callerIdentity(spawnCaller), characterID, spawnFactor)
	if err != nil {
		if errors.Is(err, quantum.ErrAlreadyInitialized) {
			return printer.Error(
				fmt.Sprintf("character %d already spawned", characterID),
				"Quantum state initialization is once-only.",
				[]string{fmt.Sprintf("Inspect the existing state:\n  drey show %d", characterID)},
			)
		}
		if errors.Is(err, quantum.ErrZeroFactor) {
			return printer.Error(
				"entanglement factor must be non-zero",
				"Zero marks an uninitialized slot and cannot be assigned.",
				[]string{fmt.Sprintf("Pick a positive factor:\n  drey spawn %d --factor 10", characterID)},
			)
		}
		return fmt.Errorf("failed to spawn character: %w", err)
	}

	printer.Success("Character %d entered the entanglement network (factor %d)\n", characterID, spawnFactor)
	return nil
}
