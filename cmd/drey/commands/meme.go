package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/entropy"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/quantum"
)

var (
	memeInstanceName string
	memeCaller       string
)

var memeCmd = &cobra.Command{
	Use:   "meme CHARACTER TEXT",
	Short: "Propagate a meme from a character",
	Long: `Record a meme on a character and broadcast it across the entanglement graph.

The meme is appended to the character's own pattern first. A pseudo-random
draw may append a mutated variant (one byte changed). Linked peers then
receive the original meme, gaining virality and a propagation-path entry
pointing back at the source.

Examples:
  # Character 1 coins a meme
  drey meme 1 "hello"

  # Memes may contain spaces when quoted
  drey meme 7 "the nest remembers"`,
	Args: cobra.ExactArgs(2),
	RunE: runMeme,
}

func init() {
	memeCmd.Flags().StringVarP(&memeInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	addCallerFlag(memeCmd, &memeCaller)
	rootCmd.AddCommand(memeCmd)
}

func runMeme(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	characterID, err := parseCharacterID(args[0])
	if err != nil {
		return err
	}
	meme := args[1]

	cfg, err := loadSimulationConfig()
	if err != nil {
		return err
	}

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, memeInstanceName, "meme")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	quantumEngine, _ := newEngines(ledgerClient, cfg)

	callSeed, err := entropy.NewCallSeed()
	if err != nil {
		return fmt.Errorf("failed to derive call seed: %w", err)
	}

	propagation, err := quantumEngine.PropagateMeme(ctx, callerIdentity(memeCaller), characterID, meme, callSeed)
	if err != nil {
		if errors.Is(err, quantum.ErrEmptyMeme) {
			return printer.Error(
				"meme cannot be empty",
				"An empty string carries nothing to propagate.",
				[]string{fmt.Sprintf("Give the meme some content:\n  drey meme %d \"hello\"", characterID)},
			)
		}
		if errors.Is(err, quantum.ErrNotInitialized) {
			return printer.Error(
				fmt.Sprintf("character %d is not spawned", characterID),
				"Only spawned characters can propagate memes.",
				[]string{fmt.Sprintf("Spawn the character first:\n  drey spawn %d --factor 10", characterID)},
			)
		}
		return fmt.Errorf("failed to propagate meme: %w", err)
	}

	printer.Success("Character %d propagated '%s'\n", characterID, propagation.Meme)
	if propagation.Mutated {
		printer.Info("  • mutated variant recorded: '%s'\n", propagation.Variant)
	}
	if len(propagation.Receivers) > 0 {
		printer.Info("  • delivered to %s: %v\n", formatCharacterCount(len(propagation.Receivers)), propagation.Receivers)
	} else {
		printer.Info("  • no entangled peers to deliver to\n")
	}
	return nil
}
