package filter

import (
	"path/filepath"

	"github.com/dyluth/drey/pkg/ledger"
)

// Criteria defines filtering criteria for journal events.
// All filters are ANDed together - an event must match ALL criteria to pass.
type Criteria struct {
	SinceTimestampMs int64   // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64   // Unix timestamp in milliseconds, 0 = no filter
	KindGlob         string  // Glob pattern for event kind, empty = no filter
	CharacterID      *uint64 // Match against character or peer ID, nil = no filter
	Caller           string  // Exact match for the recorded caller, empty = no filter
}

// Matches returns true if the event matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(evt *ledger.Event) bool {
	// Time filtering - check EmittedAtMs field
	if c.SinceTimestampMs > 0 && evt.EmittedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && evt.EmittedAtMs > c.UntilTimestampMs {
		return false
	}

	// Kind filtering - glob pattern matching
	if c.KindGlob != "" {
		matched, err := filepath.Match(c.KindGlob, string(evt.Kind))
		if err != nil || !matched {
			return false
		}
	}

	// Character filtering - an event involves a character as either the
	// primary subject or the peer (propagations address the receiver).
	if c.CharacterID != nil && evt.CharacterID != *c.CharacterID && evt.PeerID != *c.CharacterID {
		return false
	}

	// Caller filtering - exact match
	if c.Caller != "" && evt.Caller != c.Caller {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.KindGlob != "" ||
		c.CharacterID != nil ||
		c.Caller != ""
}
