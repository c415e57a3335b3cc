package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/events"
	"github.com/dyluth/drey/internal/filter"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/resolver"
	"github.com/dyluth/drey/internal/timespec"
	"github.com/dyluth/drey/pkg/ledger"
)

var (
	eventsInstanceName string
	eventsOutputFormat string
	eventsSince        string
	eventsUntil        string
	eventsKind         string
	eventsCharacter    string
	eventsCaller       string
)

var eventsCmd = &cobra.Command{
	Use:   "events [EVENT_REF]",
	Short: "Inspect the journal with filtering",
	Long: `Inspect journal events in list or get mode.

List Mode (no EVENT_REF):
  Displays events matching filters as a table or JSONL stream, oldest first.

Get Mode (with EVENT_REF):
  Displays one event as pretty-printed JSON. EVENT_REF is a journal
  sequence number, a full event UUID, or a unique UUID prefix of at least
  6 characters. An all-digit ref is read as a sequence number.

Output Formats (list mode only):
  default - Human-readable table with sequence, kind, characters, and age
  jsonl   - Line-delimited JSON, one event per line

Time Filters (list mode only):
  --since  - Show events emitted after this time
  --until  - Show events emitted before this time

Content Filters (list mode only):
  --kind      - Filter by event kind (glob pattern: "quantum.*", "*.added")
  --character - Filter by character ID (matches subject or peer side)
  --caller    - Filter by caller identity (exact match)

Examples:
  # List all events
  drey events

  # Filter by kind and time
  drey events --kind="meme.*" --since=2h

  # Events for character 7, as JSONL for piping to jq
  drey events --character=7 --output=jsonl | jq .kind

  # Get event by sequence number
  drey events 12

  # Get event by ID prefix
  drey events 550e84`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVarP(&eventsInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	eventsCmd.Flags().StringVarP(&eventsOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")

	// Time-based filters
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Show events after time (duration or RFC3339)")
	eventsCmd.Flags().StringVar(&eventsUntil, "until", "", "Show events before time (duration or RFC3339)")

	// Content-based filters
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "Filter by event kind (glob pattern)")
	eventsCmd.Flags().StringVar(&eventsCharacter, "character", "", "Filter by character ID (subject or peer)")
	eventsCmd.Flags().StringVar(&eventsCaller, "caller", "", "Filter by caller identity (exact match)")

	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Determine mode based on arguments
	isGetMode := len(args) > 0

	// Validate output format (only applies to list mode)
	var outputFormat events.OutputFormat
	if !isGetMode {
		switch eventsOutputFormat {
		case "default":
			outputFormat = events.OutputFormatDefault
		case "jsonl":
			outputFormat = events.OutputFormatJSONL
		default:
			return printer.Error(
				"invalid output format",
				fmt.Sprintf("Unknown format: %s", eventsOutputFormat),
				[]string{"Valid formats: default, jsonl"},
			)
		}
	}

	// Phase 1: Instance discovery
	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create Docker client: %w", err)
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, eventsInstanceName, "events")
	if err != nil {
		return err
	}

	// Phase 2: Connect to the ledger
	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	// Phase 3: Execute appropriate mode
	if isGetMode {
		return getEvent(ctx, ledgerClient, args[0], targetInstanceName)
	}
	return listEvents(ctx, ledgerClient, outputFormat)
}

func getEvent(ctx context.Context, ledgerClient *ledger.Client, ref, instanceName string) error {
	// An all-digit ref addresses the journal by sequence number.
	if seq, err := strconv.ParseInt(ref, 10, 64); err == nil {
		err := events.GetBySeq(ctx, ledgerClient, seq, os.Stdout)
		if err != nil {
			if events.IsNotFound(err) {
				return printer.Error(
					fmt.Sprintf("event with sequence %d not found", seq),
					"The journal has no event at that position.",
					[]string{
						"List all events:\n  drey events",
						fmt.Sprintf("Verify instance:\n  drey events --name %s", instanceName),
					},
				)
			}
			return fmt.Errorf("failed to get event: %w", err)
		}
		return nil
	}

	// Resolve short ID to full UUID
	fullID, err := resolver.ResolveEventID(ctx, ledgerClient, ref)
	if err != nil {
		if resolver.IsNotFoundError(err) {
			return printer.Error(
				fmt.Sprintf("event with ID '%s' not found", ref),
				"The specified event does not exist in the journal.",
				[]string{
					"List all events:\n  drey events",
					fmt.Sprintf("Verify instance:\n  drey events --name %s", instanceName),
				},
			)
		}
		if resolver.IsAmbiguousError(err) {
			ambigErr := err.(*resolver.AmbiguousError)
			fmt.Fprintln(os.Stderr, resolver.FormatAmbiguousError(ambigErr))
			return fmt.Errorf("ambiguous short ID")
		}
		return fmt.Errorf("failed to resolve event ID: %w", err)
	}

	// Fetch and display event
	if err := events.Get(ctx, ledgerClient, fullID, os.Stdout); err != nil {
		if events.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("event with ID '%s' not found", fullID),
				"The event was resolved but could not be fetched.",
				[]string{"This might indicate a race condition. Try again."},
			)
		}
		return fmt.Errorf("failed to get event: %w", err)
	}
	return nil
}

func listEvents(ctx context.Context, ledgerClient *ledger.Client, outputFormat events.OutputFormat) error {
	// Parse time filters
	sinceMS, untilMS, err := timespec.ParseRange(eventsSince, eventsUntil)
	if err != nil {
		return printer.Error(
			"invalid time filter",
			err.Error(),
			[]string{"Use duration format like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z'"},
		)
	}

	// Build filter criteria
	criteria := &filter.Criteria{
		SinceTimestampMs: sinceMS,
		UntilTimestampMs: untilMS,
		KindGlob:         eventsKind,
		Caller:           eventsCaller,
	}

	if eventsCharacter != "" {
		characterID, err := strconv.ParseUint(eventsCharacter, 10, 64)
		if err != nil {
			return printer.Error(
				fmt.Sprintf("invalid character filter '%s'", eventsCharacter),
				"Character IDs are non-negative integers.",
				[]string{"Example:\n  drey events --character=7"},
			)
		}
		criteria.CharacterID = &characterID
	}

	// List events with filtering
	if err := events.List(ctx, ledgerClient, outputFormat, criteria, os.Stdout); err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	return nil
}
