package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/watch"
	"github.com/dyluth/drey/pkg/ledger"
)

var (
	watchInstanceName string
	watchOutputFormat string
	watchKinds        []string
	watchCharacter    string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor real-time simulation activity",
	Long: `Monitor real-time simulation activity.

Streams journal events as they occur: spawns, bonds, collapses, meme
propagation and mutation, awakenings, evolutions, decisions, and
breakthroughs. Stop with Ctrl+C.

Output Formats:
  default - Human-readable output with timestamps
  jsonl   - Line-delimited JSON for programmatic processing

Examples:
  # Watch all activity on inferred instance
  drey watch

  # Watch specific instance
  drey watch --name prod

  # Only meme traffic, for character 7
  drey watch --kind meme.propagated --kind meme.mutated --character 7

  # Export events as JSONL
  drey watch --output=jsonl > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or jsonl)")
	watchCmd.Flags().StringArrayVar(&watchKinds, "kind", nil, "Only render this event kind (repeatable)")
	watchCmd.Flags().StringVar(&watchCharacter, "character", "", "Only render events for this character (subject or peer)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Validate output format and filters before touching Docker
	switch watchOutputFormat {
	case "default", "jsonl":
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	opts := watch.Options{Output: watchOutputFormat}

	for _, kind := range watchKinds {
		eventKind := ledger.EventKind(kind)
		if err := eventKind.Validate(); err != nil {
			return printer.Error(
				fmt.Sprintf("unknown event kind '%s'", kind),
				err.Error(),
				[]string{"List recent events to see kinds in use:\n  drey events"},
			)
		}
		opts.Kinds = append(opts.Kinds, eventKind)
	}

	if watchCharacter != "" {
		characterID, err := strconv.ParseUint(watchCharacter, 10, 64)
		if err != nil {
			return printer.Error(
				fmt.Sprintf("invalid character filter '%s'", watchCharacter),
				"Character IDs are non-negative integers.",
				[]string{"Example:\n  drey watch --character=7"},
			)
		}
		opts.CharacterID = &characterID
	}

	// Phase 1: Instance discovery
	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, watchInstanceName, "watch")
	if err != nil {
		return err
	}

	// Phase 2: Connect to the ledger
	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	watcher, err := watch.NewWatcher(ledgerClient, os.Stdout, opts)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Phase 3: Stream until interrupted
	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	printer.Info("Watching instance '%s' (Ctrl+C to stop)\n", targetInstanceName)
	return watcher.Run(runCtx)
}
