// Package events implements journal inspection for the CLI: listing
// events with filters and fetching a single event by sequence or ID.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dyluth/drey/internal/filter"
	"github.com/dyluth/drey/pkg/ledger"
)

// OutputFormat specifies how to format the event list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated payloads
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete events as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// List retrieves the journal for an instance and writes it to the provided writer.
// The journal list is append-ordered, so output is already chronological.
// Applies filter criteria if provided. Skips malformed entries with a warning
// to stderr but continues processing.
func List(ctx context.Context, client *ledger.Client, format OutputFormat, criteria *filter.Criteria, w io.Writer) error {
	key := ledger.EventsKey(client.InstanceName())
	raw, err := client.RedisClient().LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	var events []*ledger.Event
	for offset, entry := range raw {
		var evt ledger.Event
		if err := json.Unmarshal([]byte(entry), &evt); err != nil {
			// Skip malformed entries with warning to stderr
			fmt.Fprintf(os.Stderr, "⚠️  Skipping malformed journal entry: offset=%d (error: %v)\n", offset, err)
			continue
		}

		// Apply filters if provided
		if criteria != nil && !criteria.Matches(&evt) {
			continue
		}

		events = append(events, &evt)
	}

	// Format output based on requested format
	switch format {
	case OutputFormatDefault:
		FormatTable(w, events, client.InstanceName())
	case OutputFormatJSONL:
		if err := FormatJSONL(w, events); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}
