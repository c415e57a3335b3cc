// Package ledger provides type-safe Go definitions and Redis schema patterns
// for the Drey character ledger. The ledger is the shared state system where
// all Drey components (simulation engines, observer, CLI) interact via
// well-defined data structures stored in Redis.
//
// All Redis keys and channels are namespaced by instance name to enable
// multiple Drey instances to safely coexist on a single Redis server.
package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// QuantumState represents a character's position in the entanglement network.
// The record is created by the first initialize call; EntanglementFactor zero
// is the uninitialized sentinel, so a live record always carries a non-zero
// factor.
type QuantumState struct {
	CharacterID         uint64   `json:"character_id"`         // Numeric character identifier
	EntanglementFactor  uint64   `json:"entanglement_factor"`  // Non-zero once initialized; grows as bonds form
	IsCollapsed         bool     `json:"is_collapsed"`         // One-way flag; collapse is irreversible
	SuperpositionStates []string `json:"superposition_states"` // Labels; emptied permanently on collapse
}

// MemeticPattern is the assembled view of a character's meme state.
// Memes and propagation paths live in nested containers next to the scalar
// hash; GetMemeticPattern stitches them back together.
type MemeticPattern struct {
	CharacterID      uint64            `json:"character_id"`
	Memes            []string          `json:"memes"`             // Append-only, original and mutated variants interleaved
	Virality         uint64            `json:"virality"`          // Count of inbound propagations
	MutationRate     uint64            `json:"mutation_rate"`     // Percent chance per propagation; 0 until first lazily defaulted
	PropagationPaths map[uint64]uint64 `json:"propagation_paths"` // Source character ID -> inbound propagation count
}

// MindRecord holds the scalar consciousness state of a character.
// Beliefs, values, goals, priorities, decisions and breakthroughs live in
// nested containers keyed off the same character ID.
type MindRecord struct {
	CharacterID     uint64 `json:"character_id"`
	AwarenessLevel  uint64 `json:"awareness_level"`  // 1..100; clamped at 100
	CoherenceLevel  uint64 `json:"coherence_level"`  // Set to 50 at initialization; no operation changes it
	EvolutionPoints uint64 `json:"evolution_points"` // Monotonically increasing
	LastUpdateMs    int64  `json:"last_update_ms"`   // Unix ms of initialization or last evolution
}

// MindSnapshot is the full consciousness view assembled from the scalar
// record and its nested containers. Used by read paths that want everything
// at once (CLI show, JSONL export).
type MindSnapshot struct {
	MindRecord
	Beliefs       []string          `json:"beliefs"`
	Values        []string          `json:"values"`
	Goals         []string          `json:"goals"`
	Priorities    map[string]uint64 `json:"priorities"`
	Decisions     []Decision        `json:"decisions"`
	Breakthroughs []string          `json:"breakthroughs"`
}

// Decision records one evolution step's decision entry.
// Decisions are append-only; the history is never rewritten.
type Decision struct {
	Context     string `json:"context"`       // The experience that triggered the evolution
	Reasoning   string `json:"reasoning"`     // Fixed template text, not derived from inputs
	Outcome     string `json:"outcome"`       // Caller-supplied outcome description
	DecidedAtMs int64  `json:"decided_at_ms"` // Unix ms when the decision was recorded
	Confidence  uint64 `json:"confidence"`    // (awareness+coherence)/2, capped at 95
	Success     bool   `json:"success"`       // Always true; no failure path records decisions
}

// Event is one entry in the instance's append-only journal.
// Every successful mutation appends at least one event in the same
// transaction as its writes, so the journal is a complete public history.
type Event struct {
	ID          string    `json:"id"`                // UUID - unique identifier for this event
	Seq         int64     `json:"seq"`               // Journal position, assigned at append time
	Kind        EventKind `json:"kind"`              // What happened
	CharacterID uint64    `json:"character_id"`      // Primary character the event concerns
	PeerID      uint64    `json:"peer_id,omitempty"` // Counterparty for bond/propagation events
	Caller      string    `json:"caller"`            // Identity that invoked the operation
	Payload     string    `json:"payload,omitempty"` // Kind-specific JSON detail
	EmittedAtMs int64     `json:"emitted_at_ms"`     // Unix ms when the event was emitted
}

// EventKind identifies what a journal event describes.
type EventKind string

const (
	// EventQuantumInitialized records a character entering the entanglement network
	EventQuantumInitialized EventKind = "quantum.initialized"

	// EventQuantumSuperposed records a superposition label being added
	EventQuantumSuperposed EventKind = "quantum.superposed"

	// EventBondFormed records a symmetric entanglement bond between two characters
	EventBondFormed EventKind = "bond.formed"

	// EventStateCollapsed records the irreversible collapse of a quantum state
	EventStateCollapsed EventKind = "state.collapsed"

	// EventMemePropagated records a meme reaching a character
	EventMemePropagated EventKind = "meme.propagated"

	// EventMemeMutated records a single-byte mutation of a propagated meme
	EventMemeMutated EventKind = "meme.mutated"

	// EventMindInitialized records a consciousness being initialized
	EventMindInitialized EventKind = "mind.initialized"

	// EventMindEvolved records a completed evolution step
	EventMindEvolved EventKind = "mind.evolved"

	// EventDecisionRecorded records a decision appended during evolution
	EventDecisionRecorded EventKind = "decision.recorded"

	// EventBreakthrough records a write-once breakthrough on an experience
	EventBreakthrough EventKind = "breakthrough.achieved"

	// EventGoalAdded records a goal appended outside the evolution path
	EventGoalAdded EventKind = "goal.added"

	// EventBeliefAdded records a belief appended outside the evolution path
	EventBeliefAdded EventKind = "belief.added"

	// EventValueAdded records a value appended with its priority
	EventValueAdded EventKind = "value.added"
)

// Subsystem names the event channel family a kind belongs to.
type Subsystem string

const (
	// SubsystemQuantum covers entanglement and meme events
	SubsystemQuantum Subsystem = "quantum"

	// SubsystemMind covers consciousness events
	SubsystemMind Subsystem = "mind"
)

// Subsystem returns which channel family this kind publishes on.
func (k EventKind) Subsystem() Subsystem {
	switch k {
	case EventMindInitialized, EventMindEvolved, EventDecisionRecorded,
		EventBreakthrough, EventGoalAdded, EventBeliefAdded, EventValueAdded:
		return SubsystemMind
	default:
		return SubsystemQuantum
	}
}

// Validate checks if the EventKind is a valid enum value.
func (k EventKind) Validate() error {
	switch k {
	case EventQuantumInitialized, EventQuantumSuperposed, EventBondFormed,
		EventStateCollapsed, EventMemePropagated, EventMemeMutated,
		EventMindInitialized, EventMindEvolved, EventDecisionRecorded,
		EventBreakthrough, EventGoalAdded, EventBeliefAdded, EventValueAdded:
		return nil
	default:
		return fmt.Errorf("unknown event kind: %q", k)
	}
}

// Validate checks if the Event has valid field values.
func (e *Event) Validate() error {
	if !isValidUUID(e.ID) {
		return fmt.Errorf("invalid event ID: not a valid UUID")
	}

	if e.Seq < 0 {
		return fmt.Errorf("invalid seq: must be >= 0, got %d", e.Seq)
	}

	if err := e.Kind.Validate(); err != nil {
		return fmt.Errorf("invalid kind: %w", err)
	}

	if e.Caller == "" {
		return fmt.Errorf("caller cannot be empty")
	}

	if e.EmittedAtMs <= 0 {
		return fmt.Errorf("invalid emitted_at_ms: must be > 0, got %d", e.EmittedAtMs)
	}

	return nil
}

// Validate checks if the QuantumState has valid field values.
// A collapsed state must carry no superposition labels.
func (q *QuantumState) Validate() error {
	if q.EntanglementFactor == 0 {
		return fmt.Errorf("entanglement factor cannot be zero on a live record")
	}

	if q.IsCollapsed && len(q.SuperpositionStates) > 0 {
		return fmt.Errorf("collapsed state cannot hold superposition labels, got %d", len(q.SuperpositionStates))
	}

	return nil
}

// Validate checks if the MindRecord has valid field values.
func (m *MindRecord) Validate() error {
	if m.AwarenessLevel == 0 || m.AwarenessLevel > 100 {
		return fmt.Errorf("invalid awareness level: must be in 1..100, got %d", m.AwarenessLevel)
	}

	if m.CoherenceLevel > 100 {
		return fmt.Errorf("invalid coherence level: must be <= 100, got %d", m.CoherenceLevel)
	}

	if m.LastUpdateMs <= 0 {
		return fmt.Errorf("invalid last_update_ms: must be > 0, got %d", m.LastUpdateMs)
	}

	return nil
}

// Validate checks if the Decision has valid field values.
func (d *Decision) Validate() error {
	if d.Context == "" {
		return fmt.Errorf("decision context cannot be empty")
	}

	if d.Confidence > 95 {
		return fmt.Errorf("invalid confidence: must be <= 95, got %d", d.Confidence)
	}

	if d.DecidedAtMs <= 0 {
		return fmt.Errorf("invalid decided_at_ms: must be > 0, got %d", d.DecidedAtMs)
	}

	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
