package events

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/drey/pkg/ledger"
)

// FormatTable writes events as a formatted table to the provided writer.
// The table includes columns: SEQ, KIND, CHARACTER, PEER, CALLER, AGE, and DETAIL (truncated).
// Returns the number of events formatted.
func FormatTable(w io.Writer, events []*ledger.Event, instanceName string) int {
	if len(events) == 0 {
		fmt.Fprintf(w, "No events found for instance '%s'\n", instanceName)
		return 0
	}

	// Print header
	fmt.Fprintf(w, "Journal for instance '%s':\n\n", instanceName)

	// Print header row
	fmt.Fprintf(w, "%-5s %-21s %-9s %-5s %-16s %-8s %s\n",
		"SEQ", "KIND", "CHARACTER", "PEER", "CALLER", "AGE", "DETAIL")
	fmt.Fprintf(w, "%-5s %-21s %-9s %-5s %-16s %-8s %s\n",
		"-----", "---------------------", "---------", "-----", "----------------", "--------", "----------------------------------------")

	// Print data rows
	for _, e := range events {
		fmt.Fprintf(w, "%-5d %-21s %-9d %-5s %-16s %-8s %s\n",
			e.Seq,
			formatKind(e.Kind),
			e.CharacterID,
			formatPeer(e.PeerID),
			formatCaller(e.Caller),
			formatTimestamp(e.EmittedAtMs),
			formatDetail(e.Payload),
		)
	}

	// Print count
	countMsg := "event"
	if len(events) != 1 {
		countMsg = "events"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(events), countMsg)

	return len(events)
}

// FormatJSONL writes events as line-delimited JSON (JSONL) to the provided writer.
// Each event is written as a single JSON object on its own line.
// This format is ideal for streaming and processing with tools like jq.
func FormatJSONL(w io.Writer, events []*ledger.Event) error {
	for _, evt := range events {
		// Marshal event to JSON (compact, no indentation)
		data, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event to JSON: %w", err)
		}

		// Write as single line
		_, err = fmt.Fprintf(w, "%s\n", string(data))
		if err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatSingleJSON writes a single event as pretty-printed JSON to the provided writer.
// Used in get mode to display complete event details.
func FormatSingleJSON(w io.Writer, evt *ledger.Event) error {
	// Marshal to pretty JSON
	data, err := json.MarshalIndent(evt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	// Write to output
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	// Add newline for clean output
	fmt.Fprintln(w)

	return nil
}

// formatKind truncates kind names for compact display.
// All built-in kinds fit the column; this guards against future additions.
func formatKind(kind ledger.EventKind) string {
	name := string(kind)
	if len(name) > 21 {
		return name[:18] + "..."
	}
	return name
}

// formatPeer formats the peer column. Events without a peer show "-".
func formatPeer(peerID uint64) string {
	if peerID == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", peerID)
}

// formatCaller formats the caller column for table display.
// Empty values return "-", long values are truncated.
func formatCaller(caller string) string {
	if caller == "" {
		return "-"
	}
	if len(caller) > 16 {
		return caller[:13] + "..."
	}
	return caller
}

// formatDetail truncates the event payload to first line with max 40 characters
// for table display. Multi-line payloads show only the first line. Empty
// payloads return "-".
func formatDetail(payload string) string {
	if payload == "" {
		return "-"
	}

	// Get first non-empty line
	lines := strings.Split(payload, "\n")
	var firstLine string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			firstLine = trimmed
			break
		}
	}

	// If all lines were empty
	if firstLine == "" {
		return "-"
	}

	// Truncate to 40 chars (shorter for compact display)
	if len(firstLine) > 40 {
		return firstLine[:37] + "..."
	}

	return firstLine
}

// formatTimestamp formats Unix timestamp in milliseconds to human-readable time.
// Shows relative time like "2m ago", "1h ago", etc.
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	// Convert ms to time
	t := time.Unix(timestampMs/1000, (timestampMs%1000)*1000000)

	// Calculate time difference from now
	diff := time.Since(t)

	// Format as relative time
	if diff < time.Minute {
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	} else {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
