// Package watch streams journal events to a terminal as they arrive.
package watch

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/drey/pkg/ledger"
)

// Options controls which events a watcher renders and how.
type Options struct {
	// Output selects the formatter: "default" or "jsonl".
	Output string

	// Kinds limits rendering to the given event kinds. Empty means all.
	Kinds []ledger.EventKind

	// CharacterID limits rendering to events concerning one character
	// (as the primary or the peer). Nil means all characters.
	CharacterID *uint64
}

// Watcher subscribes to the instance firehose and renders matching events.
type Watcher struct {
	client    *ledger.Client
	formatter Formatter
	kinds     map[ledger.EventKind]bool
	character *uint64
}

// NewWatcher creates a watcher writing formatted events to w.
func NewWatcher(client *ledger.Client, w io.Writer, opts Options) (*Watcher, error) {
	formatter, err := NewFormatter(opts.Output, w)
	if err != nil {
		return nil, err
	}

	var kinds map[ledger.EventKind]bool
	if len(opts.Kinds) > 0 {
		kinds = make(map[ledger.EventKind]bool, len(opts.Kinds))
		for _, kind := range opts.Kinds {
			kinds[kind] = true
		}
	}

	return &Watcher{
		client:    client,
		formatter: formatter,
		kinds:     kinds,
		character: opts.CharacterID,
	}, nil
}

// Run subscribes to the firehose and renders events until the context is
// cancelled. Cancellation is the normal way to stop watching and returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	sub, err := w.client.SubscribeAllEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := w.handle(evt); err != nil {
				return err
			}

		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			return fmt.Errorf("event subscription failed: %w", err)
		}
	}
}

// handle renders one event if it passes the kind and character filters.
func (w *Watcher) handle(evt *ledger.Event) error {
	if w.kinds != nil && !w.kinds[evt.Kind] {
		return nil
	}
	if w.character != nil && evt.CharacterID != *w.character && evt.PeerID != *w.character {
		return nil
	}
	return w.formatter.FormatEvent(evt)
}
