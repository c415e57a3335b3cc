// Package observer implements the dreyd daemon: it tails the instance's
// event journal, keeps running statistics, exposes health and stats
// endpoints, and persists a journal cursor so a restarted observer replays
// exactly the events it missed.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dyluth/drey/pkg/ledger"
)

// Engine is the core observer that follows the journal and accounts for
// every event.
type Engine struct {
	client       *ledger.Client
	instanceName string
	healthServer *HealthServer
	stats        *Stats
	nextSeq      int64 // next journal sequence to process
}

// NewEngine creates a new observer engine.
func NewEngine(client *ledger.Client) *Engine {
	stats := NewStats()
	return &Engine{
		client:       client,
		instanceName: client.InstanceName(),
		healthServer: NewHealthServer(client, stats),
		stats:        stats,
	}
}

// Run starts the observer and blocks until the context is cancelled.
// The firehose subscription is opened before journal recovery so no event
// can fall between the replayed range and the live stream; duplicates are
// dropped by sequence number.
func (e *Engine) Run(ctx context.Context) error {
	// Start health check server
	if err := e.healthServer.Start(); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}
	defer e.healthServer.Shutdown(context.Background())

	log.Printf("[Observer] Starting for instance '%s'", e.instanceName)

	subscription, err := e.client.SubscribeAllEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	defer subscription.Close()

	log.Printf("[Observer] Subscribed to event firehose")

	if err := e.Recover(ctx); err != nil {
		return fmt.Errorf("failed to recover journal position: %w", err)
	}

	// Process events until context is cancelled
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Observer] Shutting down...")
			return nil

		case evt, ok := <-subscription.Events():
			if !ok {
				log.Printf("[Observer] Subscription closed")
				return nil
			}
			e.processEvent(ctx, evt)

		case err, ok := <-subscription.Errors():
			if !ok {
				log.Printf("[Observer] Error channel closed")
				return nil
			}
			log.Printf("[Observer] Subscription error: %v", err)
			// Continue processing - errors are non-fatal
		}
	}
}

// Recover replays the journal from the persisted cursor to its current end,
// so events emitted while the observer was down are still accounted for.
func (e *Engine) Recover(ctx context.Context) error {
	log.Printf("[Observer] Recovering journal position...")
	startTime := time.Now()

	cursor, err := e.client.ObserverCursor(ctx)
	if err != nil {
		return err
	}
	e.nextSeq = cursor

	length, err := e.client.JournalLen(ctx)
	if err != nil {
		return err
	}

	if cursor >= length {
		log.Printf("[Observer] Journal position %d is current", cursor)
		return nil
	}

	events, err := e.client.ListEvents(ctx, cursor, -1)
	if err != nil {
		return fmt.Errorf("failed to replay journal: %w", err)
	}

	for _, evt := range events {
		e.stats.Record(evt)
	}
	e.nextSeq = cursor + int64(len(events))

	if err := e.client.SetObserverCursor(ctx, e.nextSeq); err != nil {
		return err
	}

	duration := time.Since(startTime)
	e.logEvent("recovery_complete", map[string]interface{}{
		"events_replayed": len(events),
		"from_seq":        cursor,
		"to_seq":          e.nextSeq,
		"duration_ms":     duration.Milliseconds(),
	})

	log.Printf("[Observer] Replayed %d journal events (position %d -> %d, duration: %v)",
		len(events), cursor, e.nextSeq, duration.Round(time.Millisecond))

	return nil
}

// processEvent accounts for a single live event and advances the cursor.
func (e *Engine) processEvent(ctx context.Context, evt *ledger.Event) {
	if evt.Seq < e.nextSeq {
		// Already seen during recovery
		return
	}
	e.nextSeq = evt.Seq + 1

	e.stats.Record(evt)

	e.logEvent("event_observed", map[string]interface{}{
		"seq":          evt.Seq,
		"kind":         string(evt.Kind),
		"character_id": evt.CharacterID,
		"caller":       evt.Caller,
	})

	if err := e.client.SetObserverCursor(ctx, e.nextSeq); err != nil {
		log.Printf("[Observer] Failed to persist cursor: %v", err)
		// Non-fatal - worst case the event is replayed after a restart
	}
}

// logEvent logs a structured event in JSON format.
func (e *Engine) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "observer"
	data["event_type"] = eventType
	data["instance"] = e.instanceName

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Observer] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
