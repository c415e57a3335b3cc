package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/mind"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/scenario"
)

var (
	valueInstanceName string
	valueCaller       string
	valuePriority     uint64
)

var valueCmd = &cobra.Command{
	Use:   "value CHARACTER TEXT",
	Short: "Add a value to an awakened character",
	Long: `Append a value to a character's mind and set its priority.

The priority (0-100) is recorded in the priority map under the value's
name; re-adding a value updates its priority.

Examples:
  # Add "honesty" at the default priority
  drey value 1 honesty

  # Add "curiosity" at priority 90
  drey value 1 curiosity --priority 90`,
	Args: cobra.ExactArgs(2),
	RunE: runValue,
}

func init() {
	valueCmd.Flags().StringVarP(&valueInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	valueCmd.Flags().Uint64VarP(&valuePriority, "priority", "p", scenario.DefaultValuePriority, "Priority for the value (0-100)")
	addCallerFlag(valueCmd, &valueCaller)
	rootCmd.AddCommand(valueCmd)
}

func runValue(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	characterID, err := parseCharacterID(args[0])
	if err != nil {
		return err
	}
	value := args[1]

	cfg, err := loadSimulationConfig()
	if err != nil {
		return err
	}

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, valueInstanceName, "value")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	_, mindEngine := newEngines(ledgerClient, cfg)

	err = mindEngine.AddValue(ctx, callerIdentity(valueCaller), characterID, value, valuePriority)
	if err != nil {
		if errors.Is(err, mind.ErrNotInitialized) {
			return printer.Error(
				fmt.Sprintf("character %d is not awake", characterID),
				"Only awakened characters can hold values.",
				[]string{fmt.Sprintf("Awaken the character first:\n  drey awaken %d --awareness 10", characterID)},
			)
		}
		if errors.Is(err, mind.ErrInvalidPriority) {
			return printer.Error(
				"priority cannot exceed 100",
				fmt.Sprintf("Got: %d", valuePriority),
				[]string{fmt.Sprintf("Pick a priority in range:\n  drey value %d %s --priority 75", characterID, value)},
			)
		}
		return fmt.Errorf("failed to add value: %w", err)
	}

	printer.Success("Character %d gained value '%s' (priority %d)\n", characterID, value, valuePriority)
	return nil
}
