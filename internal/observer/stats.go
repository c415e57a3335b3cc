package observer

import (
	"sync"
	"time"

	"github.com/dyluth/drey/pkg/ledger"
)

// Stats accumulates journal statistics. Safe for concurrent use: the engine
// records from its event loop while the stats endpoint reads snapshots.
type Stats struct {
	mu          sync.Mutex
	startedAt   time.Time
	observed    int64
	lastSeq     int64
	byKind      map[ledger.EventKind]int64
	byCharacter map[uint64]int64
}

// NewStats creates an empty stats accumulator.
func NewStats() *Stats {
	return &Stats{
		startedAt:   time.Now(),
		lastSeq:     -1,
		byKind:      make(map[ledger.EventKind]int64),
		byCharacter: make(map[uint64]int64),
	}
}

// Record accounts for one event.
func (s *Stats) Record(evt *ledger.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observed++
	if evt.Seq > s.lastSeq {
		s.lastSeq = evt.Seq
	}
	s.byKind[evt.Kind]++
	s.byCharacter[evt.CharacterID]++
}

// Snapshot is the JSON shape served on /statz.
type Snapshot struct {
	UptimeSeconds  int64            `json:"uptime_seconds"`
	EventsObserved int64            `json:"events_observed"`
	LastSeq        int64            `json:"last_seq"`
	ByKind         map[string]int64 `json:"by_kind"`
	ByCharacter    map[uint64]int64 `json:"by_character"`
}

// Snapshot returns a copy of the current statistics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKind := make(map[string]int64, len(s.byKind))
	for kind, n := range s.byKind {
		byKind[string(kind)] = n
	}

	byCharacter := make(map[uint64]int64, len(s.byCharacter))
	for id, n := range s.byCharacter {
		byCharacter[id] = n
	}

	return Snapshot{
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		EventsObserved: s.observed,
		LastSeq:        s.lastSeq,
		ByKind:         byKind,
		ByCharacter:    byCharacter,
	}
}
