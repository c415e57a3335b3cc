package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Journal operations
//
// The journal is an append-only list of JSON-encoded events, one per state
// change. Appends happen inside the same transaction as the writes they
// describe, so the journal never drifts from the records. A rolling SHA-256
// digest folds in every appended event; the digest is the chain context fed
// into entropy derivation.

// JournalLen returns the number of events in the journal.
func (c *Client) JournalLen(ctx context.Context) (int64, error) {
	return c.journalLen(ctx, c.rdb)
}

// JournalLenTx reads the journal length through an open transaction.
// Engines use this to assign sequence numbers to events they stage.
func (c *Client) JournalLenTx(ctx context.Context, tx *redis.Tx) (int64, error) {
	return c.journalLen(ctx, tx)
}

func (c *Client) journalLen(ctx context.Context, r redis.Cmdable) (int64, error) {
	n, err := r.LLen(ctx, EventsKey(c.instanceName)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read journal length: %w", err)
	}
	return n, nil
}

// Digest returns the current rolling journal digest.
// A journal with no events yields an empty digest (genesis).
func (c *Client) Digest(ctx context.Context) ([]byte, error) {
	return c.digest(ctx, c.rdb)
}

// DigestTx reads the journal digest through an open transaction.
// The digest key must be among the transaction's watched keys so that a
// concurrent append forces a retry rather than a stale chain context.
func (c *Client) DigestTx(ctx context.Context, tx *redis.Tx) ([]byte, error) {
	return c.digest(ctx, tx)
}

func (c *Client) digest(ctx context.Context, r redis.Cmdable) ([]byte, error) {
	raw, err := r.Get(ctx, DigestKey(c.instanceName)).Result()
	if errors.Is(err, redis.Nil) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal digest: %w", err)
	}

	digest, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt journal digest: %w", err)
	}

	return digest, nil
}

// AppendEvent stages an event append on pipe: journal RPUSH, firehose and
// subsystem channel publishes, and the digest fold. prevDigest is the digest
// read earlier in the same transaction; the return value is the folded digest
// so several events can be chained within one transaction.
//
// Validates the event before staging.
func (c *Client) AppendEvent(ctx context.Context, pipe redis.Pipeliner, evt *Event, prevDigest []byte) ([]byte, error) {
	if err := evt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe.RPush(ctx, EventsKey(c.instanceName), data)
	pipe.Publish(ctx, EventsChannel(c.instanceName), data)

	switch evt.Kind.Subsystem() {
	case SubsystemMind:
		pipe.Publish(ctx, MindEventsChannel(c.instanceName), data)
	default:
		pipe.Publish(ctx, QuantumEventsChannel(c.instanceName), data)
	}

	h := sha256.New()
	h.Write(prevDigest)
	h.Write(data)
	next := h.Sum(nil)

	pipe.Set(ctx, DigestKey(c.instanceName), hex.EncodeToString(next), 0)

	return next, nil
}

// AppendEvents stages a batch of events on pipe in order, assigning
// consecutive sequence numbers from the current journal length and folding
// the digest across each event. Reads go through tx, so the digest key must
// be among the transaction's watched keys.
func (c *Client) AppendEvents(ctx context.Context, tx *redis.Tx, pipe redis.Pipeliner, evts ...*Event) error {
	if len(evts) == 0 {
		return nil
	}

	seq, err := c.JournalLenTx(ctx, tx)
	if err != nil {
		return err
	}

	digest, err := c.DigestTx(ctx, tx)
	if err != nil {
		return err
	}

	for i, evt := range evts {
		evt.Seq = seq + int64(i)
		digest, err = c.AppendEvent(ctx, pipe, evt, digest)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListEvents retrieves journal events by position, LRANGE semantics:
// start and stop are inclusive indexes, negative values count from the end.
// ListEvents(ctx, 0, -1) returns the full journal.
func (c *Client) ListEvents(ctx context.Context, start, stop int64) ([]*Event, error) {
	raw, err := c.rdb.LRange(ctx, EventsKey(c.instanceName), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal from Redis: %w", err)
	}

	events := make([]*Event, 0, len(raw))
	for i, entry := range raw {
		var evt Event
		if err := json.Unmarshal([]byte(entry), &evt); err != nil {
			return nil, fmt.Errorf("failed to decode journal entry at offset %d: %w", i, err)
		}
		events = append(events, &evt)
	}

	return events, nil
}

// GetEvent retrieves a single journal event by sequence number.
// Returns (nil, redis.Nil) if the sequence is out of range.
func (c *Client) GetEvent(ctx context.Context, seq int64) (*Event, error) {
	raw, err := c.rdb.LIndex(ctx, EventsKey(c.instanceName), seq).Result()
	if errors.Is(err, redis.Nil) {
		return nil, redis.Nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journal entry from Redis: %w", err)
	}

	var evt Event
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		return nil, fmt.Errorf("failed to decode journal entry %d: %w", seq, err)
	}

	return &evt, nil
}

// GetEventByID retrieves a journal event by its unique ID.
// Returns (nil, redis.Nil) when no event carries the ID. The journal is a
// list, so this walks it; fine for inspection tooling, not for hot paths.
func (c *Client) GetEventByID(ctx context.Context, id string) (*Event, error) {
	raw, err := c.rdb.LRange(ctx, EventsKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal from Redis: %w", err)
	}

	for _, entry := range raw {
		var evt Event
		if err := json.Unmarshal([]byte(entry), &evt); err != nil {
			continue
		}
		if evt.ID == id {
			return &evt, nil
		}
	}

	return nil, redis.Nil
}

// ScanEventIDs returns the IDs of journal events whose ID starts with
// prefix. Malformed journal entries are skipped.
func (c *Client) ScanEventIDs(ctx context.Context, prefix string) ([]string, error) {
	raw, err := c.rdb.LRange(ctx, EventsKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read journal from Redis: %w", err)
	}

	var ids []string
	for _, entry := range raw {
		var evt Event
		if err := json.Unmarshal([]byte(entry), &evt); err != nil {
			continue
		}
		if strings.HasPrefix(evt.ID, prefix) {
			ids = append(ids, evt.ID)
		}
	}

	return ids, nil
}

// ObserverCursor returns the observer's persisted journal position.
// Returns 0 if no cursor has been written yet.
func (c *Client) ObserverCursor(ctx context.Context) (int64, error) {
	seq, err := c.rdb.Get(ctx, ObserverCursorKey(c.instanceName)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read observer cursor: %w", err)
	}
	return seq, nil
}

// SetObserverCursor persists the observer's journal position.
// The cursor is the sequence number of the next unprocessed event.
func (c *Client) SetObserverCursor(ctx context.Context, seq int64) error {
	if err := c.rdb.Set(ctx, ObserverCursorKey(c.instanceName), seq, 0).Err(); err != nil {
		return fmt.Errorf("failed to write observer cursor: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to journal events.
// Caller must call Close() when done to clean up resources.
// Subscriptions deliver full event objects via the Events() channel.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of journal events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and other non-fatal issues.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeAllEvents subscribes to every event published by this instance.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub
// (at-most-once delivery); the journal remains the complete record.
func (c *Client) SubscribeAllEvents(ctx context.Context) (*Subscription, error) {
	return c.subscribe(ctx, EventsChannel(c.instanceName))
}

// SubscribeQuantumEvents subscribes to entanglement and meme events.
// Caller must call subscription.Close() when done.
func (c *Client) SubscribeQuantumEvents(ctx context.Context) (*Subscription, error) {
	return c.subscribe(ctx, QuantumEventsChannel(c.instanceName))
}

// SubscribeMindEvents subscribes to consciousness events.
// Caller must call subscription.Close() when done.
func (c *Client) SubscribeMindEvents(ctx context.Context) (*Subscription, error) {
	return c.subscribe(ctx, MindEventsChannel(c.instanceName))
}

func (c *Client) subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, channel)

	// Create buffered channels for events and errors
	eventsChan := make(chan *Event, 10)
	errorsChan := make(chan error, 10)

	// Create cancellation context
	subCtx, cancelFunc := context.WithCancel(ctx)

	// Start goroutine to process messages
	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		// Receive channel from pubsub
		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				// Unmarshal event from JSON
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					// Send error on error channel, skip message
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				// Send event on events channel
				select {
				case eventsChan <- &evt:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
