package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/scenario"
)

var runInstanceName string

var runCmd = &cobra.Command{
	Use:   "run SCENARIO",
	Short: "Run a scenario file against an instance",
	Long: `Run a scenario file against an instance.

A scenario is a YAML file listing simulation steps (spawn, bond, superpose,
meme, collapse, awaken, evolve, goal, belief, value, sleep) executed in
order. Steps that declare expect_error must fail; any other failure aborts
the run. Every step in a run is journalled under a shared scenario caller,
so a whole run can be replayed from the event log afterwards.

'drey init' scaffolds an example at scenarios/first-contact.yml.

Examples:
  # Run the scaffolded example
  drey run scenarios/first-contact.yml

  # Run against a specific instance
  drey run scenarios/first-contact.yml --name prod`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	scenarioPath := args[0]

	// Phase 1: Load and validate the scenario before touching Docker
	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		return printer.Error(
			fmt.Sprintf("failed to load scenario '%s'", scenarioPath),
			fmt.Sprintf("Error: %v", err),
			[]string{
				"Check the file path and YAML syntax.",
				"Scaffold a working example:\n  drey init",
			},
		)
	}

	cfg, err := loadSimulationConfig()
	if err != nil {
		return err
	}

	// Phase 2: Instance discovery
	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, runInstanceName, "run")
	if err != nil {
		return err
	}

	// Phase 3: Connect to the ledger
	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	quantumEngine, mindEngine := newEngines(ledgerClient, cfg)

	// Phase 4: Execute
	runner := scenario.NewRunner(quantumEngine, mindEngine, os.Stdout)
	result, err := runner.Run(ctx, sc)
	if err != nil {
		return printer.Error(
			"scenario failed",
			fmt.Sprintf("Error: %v", err),
			[]string{
				"Inspect the journal to see how far the run got:\n  drey events",
				"Check character state:\n  drey show CHARACTER",
			},
		)
	}

	printer.Info("\nInspect the run:")
	printer.Info("  drey events --caller scenario:%s", result.RunID[:8])
	printer.Info("  drey watch")
	return nil
}
