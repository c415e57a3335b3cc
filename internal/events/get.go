package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dyluth/drey/pkg/ledger"
)

// Get retrieves a single event by ID and writes it as pretty-printed JSON to the writer.
// Returns an error if the event ID is invalid or the event does not exist.
// Uses IsNotFound() to distinguish "not found" errors from other errors.
func Get(ctx context.Context, client *ledger.Client, eventID string, w io.Writer) error {
	// Validate event ID format
	if _, err := uuid.Parse(eventID); err != nil {
		return fmt.Errorf("invalid event ID format: must be a valid UUID")
	}

	// Fetch event from the journal
	evt, err := client.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &EventNotFoundError{Ref: eventID}
		}
		return fmt.Errorf("failed to fetch event: %w", err)
	}

	// Format and write as JSON
	if err := FormatSingleJSON(w, evt); err != nil {
		return fmt.Errorf("failed to format event: %w", err)
	}

	return nil
}

// GetBySeq retrieves a single event by sequence number and writes it as
// pretty-printed JSON to the writer.
func GetBySeq(ctx context.Context, client *ledger.Client, seq int64, w io.Writer) error {
	// Negative indexes address the list tail in Redis; sequences never do.
	if seq < 0 {
		return &EventNotFoundError{Ref: strconv.FormatInt(seq, 10)}
	}

	evt, err := client.GetEvent(ctx, seq)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &EventNotFoundError{Ref: strconv.FormatInt(seq, 10)}
		}
		return fmt.Errorf("failed to fetch event: %w", err)
	}

	if err := FormatSingleJSON(w, evt); err != nil {
		return fmt.Errorf("failed to format event: %w", err)
	}

	return nil
}

// EventNotFoundError represents a specific "event not found" error.
// This allows callers to distinguish not-found errors from other failures.
type EventNotFoundError struct {
	Ref string // event ID or sequence number, as given by the caller
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("event '%s' not found", e.Ref)
}

// IsNotFound returns true if the error is an EventNotFoundError.
func IsNotFound(err error) bool {
	var notFound *EventNotFoundError
	return errors.As(err, &notFound)
}
