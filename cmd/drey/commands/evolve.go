package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/entropy"
	"github.com/dyluth/drey/internal/mind"
	"github.com/dyluth/drey/internal/printer"
)

var (
	evolveInstanceName string
	evolveCaller       string
	evolveOutcome      string
)

var evolveCmd = &cobra.Command{
	Use:   "evolve CHARACTER EXPERIENCE",
	Short: "Evolve a character's consciousness through an experience",
	Long: `Feed an experience to an awakened character.

Evolution appends the experience to the character's beliefs, records a
decision, and raises awareness (capped at 100) and evolution points by an
impact derived from coherence. An experience that exactly matches an
existing goal gains bonus impact. A pseudo-random draw may additionally
achieve a write-once breakthrough for the experience.

Evolutions are rate-limited by the configured cooldown
(simulation.evolution_cooldown in drey.yml, default 1h).

Examples:
  # Character 1 learns from an encounter
  drey evolve 1 "met character 2" --outcome "friendship"

  # Outcome is optional
  drey evolve 1 "watched the rain"`,
	Args: cobra.ExactArgs(2),
	RunE: runEvolve,
}

func init() {
	evolveCmd.Flags().StringVarP(&evolveInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	evolveCmd.Flags().StringVarP(&evolveOutcome, "outcome", "o", "", "Outcome description recorded on the decision")
	addCallerFlag(evolveCmd, &evolveCaller)
	rootCmd.AddCommand(evolveCmd)
}

func runEvolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	characterID, err := parseCharacterID(args[0])
	if err != nil {
		return err
	}
	experience := args[1]

	cfg, err := loadSimulationConfig()
	if err != nil {
		return err
	}

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, evolveInstanceName, "evolve")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	_, mindEngine := newEngines(ledgerClient, cfg)

	callSeed, err := entropy.NewCallSeed()
	if err != nil {
		return fmt.Errorf("failed to derive call seed: %w", err)
	}

	evolution, err := mindEngine.Evolve(ctx, callerIdentity(evolveCaller), characterID, experience, evolveOutcome, callSeed)
	if err != nil {
		if errors.Is(err, mind.ErrNotInitialized) {
			return printer.Error(
				fmt.Sprintf("character %d is not awake", characterID),
				"Only awakened characters can evolve.",
				[]string{fmt.Sprintf("Awaken the character first:\n  drey awaken %d --awareness 10", characterID)},
			)
		}
		if errors.Is(err, mind.ErrCooldownNotElapsed) {
			return printer.Error(
				fmt.Sprintf("character %d cannot evolve yet", characterID),
				fmt.Sprintf("Error: %v", err),
				[]string{
					"Wait for the cooldown to elapse, or shorten it:\n  simulation.evolution_cooldown in drey.yml",
					fmt.Sprintf("Check the mind state:\n  drey show %d", characterID),
				},
			)
		}
		return fmt.Errorf("failed to evolve character: %w", err)
	}

	printer.Success("Character %d evolved (impact %d)\n", characterID, evolution.Impact)
	printer.Info("  • awareness: %d\n", evolution.Awareness)
	printer.Info("  • evolution points: %d\n", evolution.Points)
	printer.Info("  • decision confidence: %d\n", evolution.Confidence)
	if evolution.GoalAligned {
		printer.Info("  • experience matched a goal (+2 impact)\n")
	}
	if evolution.Breakthrough {
		printer.Success("  BREAKTHROUGH achieved for this experience\n")
	}
	return nil
}
