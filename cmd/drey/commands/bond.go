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
	bondInstanceName string
	bondCaller       string
)

var bondCmd = &cobra.Command{
	Use:   "bond CHARACTER PEER",
	Short: "Entangle two characters",
	Long: `Create a quantum bond between two spawned characters.

The bond strength is the truncated mean of the two entanglement factors,
recorded symmetrically on both sides. Each character's factor then grows
by a tenth of the strength. Bonding is once-only per pair; re-bonding an
entangled pair fails.

Examples:
  # Bond characters 1 and 2
  drey bond 1 2

  # Bond on a specific instance
  drey bond 1 2 --name prod`,
	Args: cobra.ExactArgs(2),
	RunE: runBond,
}

func init() {
	bondCmd.Flags().StringVarP(&bondInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	addCallerFlag(bondCmd, &bondCaller)
	rootCmd.AddCommand(bondCmd)
}

func runBond(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := parseCharacterID(args[0])
	if err != nil {
		return err
	}
	b, err := parseCharacterID(args[1])
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

	targetInstanceName, err := resolveInstanceName(ctx, cli, bondInstanceName, "bond")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	quantumEngine, _ := newEngines(ledgerClient, cfg)

	strength, err := quantumEngine.CreateBond(ctx, callerIdentity(bondCaller), a, b)
	if err != nil {
		if errors.Is(err, quantum.ErrSelfBond) {
			return printer.Error(
				"cannot bond a character with itself",
				fmt.Sprintf("Character %d appears on both sides.", a),
				[]string{"Pick two distinct characters:\n  drey bond 1 2"},
			)
		}
		if errors.Is(err, quantum.ErrNotInitialized) {
			return printer.Error(
				"both characters must be spawned before bonding",
				fmt.Sprintf("Error: %v", err),
				[]string{
					fmt.Sprintf("Spawn the missing character first:\n  drey spawn %d --factor 10", a),
					fmt.Sprintf("Check both states:\n  drey show %d\n  drey show %d", a, b),
				},
			)
		}
		if errors.Is(err, quantum.ErrAlreadyEntangled) {
			return printer.Error(
				fmt.Sprintf("characters %d and %d are already entangled", a, b),
				"Bonds are once-only per pair; entanglement does not re-form.",
				[]string{fmt.Sprintf("Inspect the existing bond:\n  drey show %d", a)},
			)
		}
		return fmt.Errorf("failed to create bond: %w", err)
	}

	printer.Success("Bond formed between %d and %d (strength %d)\n", a, b, strength)
	return nil
}
