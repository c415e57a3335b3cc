// Package quantum implements the entanglement network: per-character quantum
// states, symmetric bonds, state collapse, and meme propagation across the
// entanglement graph.
//
// Every mutating operation runs as a single ledger transaction: preconditions
// are read, writes and journal events are staged, and the whole batch commits
// atomically or not at all. A failed precondition therefore never leaves
// partial state behind.
package quantum

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dyluth/drey/internal/entropy"
	"github.com/dyluth/drey/pkg/ledger"
)

const (
	// DefaultMutationRate is the percentage chance of meme mutation applied
	// to patterns that have never had a rate set.
	DefaultMutationRate = 10

	// DefaultMutationCeiling is the byte value at which mutation switches
	// from incrementing to decrementing, keeping mutated bytes near the
	// printable range.
	DefaultMutationCeiling = 126
)

// Config carries tunables for the entanglement network.
// Zero values fall back to the package defaults.
type Config struct {
	// DefaultMutationRate is applied lazily the first time a character
	// propagates a meme without an explicit rate (percentage, 1-100).
	DefaultMutationRate uint64

	// MutationCeiling is the byte value at or above which mutation
	// decrements instead of increments.
	MutationCeiling byte
}

// Engine applies entanglement-network operations to the ledger.
type Engine struct {
	client  *ledger.Client
	source  entropy.Source
	rate    uint64
	ceiling byte
	now     func() time.Time
}

// NewEngine creates an entanglement-network engine backed by the given
// ledger client and entropy source.
func NewEngine(client *ledger.Client, source entropy.Source, cfg Config) *Engine {
	rate := cfg.DefaultMutationRate
	if rate == 0 || rate > 100 {
		rate = DefaultMutationRate
	}

	ceiling := cfg.MutationCeiling
	if ceiling == 0 {
		ceiling = DefaultMutationCeiling
	}

	return &Engine{
		client:  client,
		source:  source,
		rate:    rate,
		ceiling: ceiling,
		now:     time.Now,
	}
}

// Propagation reports what a single meme propagation did.
type Propagation struct {
	// Meme is the propagated meme as appended to the source pattern.
	Meme string

	// Mutated is true when a mutated variant was also appended.
	Mutated bool

	// Variant is the mutated meme, set only when Mutated is true.
	Variant string

	// Receivers lists the linked peers that received the original meme,
	// in ascending ID order.
	Receivers []uint64
}

// Event payloads, JSON-encoded into Event.Payload.
type (
	initializedPayload struct {
		Factor uint64 `json:"factor"`
	}

	bondPayload struct {
		Strength uint64 `json:"strength"`
	}

	collapsePayload struct {
		ClearedStates int `json:"cleared_states"`
	}

	superposePayload struct {
		Label string `json:"label"`
	}

	mutationPayload struct {
		Original string `json:"original"`
		Variant  string `json:"variant"`
		Index    int    `json:"index"`
	}

	propagationPayload struct {
		Meme string `json:"meme"`
	}
)

// InitializeState creates a character's quantum state with the given
// entanglement factor. First write wins: a second initialization fails with
// ErrAlreadyInitialized. A zero factor is rejected because zero is the
// storage sentinel for "uninitialized".
func (e *Engine) InitializeState(ctx context.Context, caller string, characterID, factor uint64) error {
	if factor == 0 {
		return ErrZeroFactor
	}

	inst := e.client.InstanceName()

	return e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		_, err := e.client.QuantumStateTx(ctx, tx, characterID)
		if err == nil {
			return fmt.Errorf("character %d: %w", characterID, ErrAlreadyInitialized)
		}
		if !ledger.IsNotFound(err) {
			return err
		}

		state := &ledger.QuantumState{
			CharacterID:         characterID,
			EntanglementFactor:  factor,
			SuperpositionStates: []string{},
		}
		if err := e.client.StageQuantumState(ctx, pipe, state); err != nil {
			return err
		}

		evt, err := e.event(ledger.EventQuantumInitialized, characterID, 0, caller, initializedPayload{Factor: factor})
		if err != nil {
			return err
		}
		return e.client.AppendEvents(ctx, tx, pipe, evt)
	}, ledger.QuantumKey(inst, characterID), ledger.DigestKey(inst))
}

// CreateBond entangles two characters. Both must be initialized and not
// already entangled. The bond strength is the truncating average of the two
// entanglement factors at bonding time; both factors then grow by a tenth of
// that strength. Bonds and adjacency are written symmetrically, and there is
// no unbonding: re-bonding fails with ErrAlreadyEntangled.
//
// Returns the bond strength on success.
func (e *Engine) CreateBond(ctx context.Context, caller string, a, b uint64) (uint64, error) {
	if a == b {
		return 0, fmt.Errorf("character %d: %w", a, ErrSelfBond)
	}

	inst := e.client.InstanceName()
	var strength uint64

	err := e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		stateA, err := e.readState(ctx, tx, a)
		if err != nil {
			return err
		}
		stateB, err := e.readState(ctx, tx, b)
		if err != nil {
			return err
		}

		linked, err := e.client.LinkedTx(ctx, tx, a, b)
		if err != nil {
			return err
		}
		if linked {
			return fmt.Errorf("characters %d and %d: %w", a, b, ErrAlreadyEntangled)
		}

		strength = (stateA.EntanglementFactor + stateB.EntanglementFactor) / 2
		boost := strength / 10
		stateA.EntanglementFactor += boost
		stateB.EntanglementFactor += boost

		e.client.StageBond(ctx, pipe, a, b, strength)
		e.client.StageBond(ctx, pipe, b, a, strength)
		e.client.StageLink(ctx, pipe, a, b)
		e.client.StageLink(ctx, pipe, b, a)

		if err := e.client.StageQuantumState(ctx, pipe, stateA); err != nil {
			return err
		}
		if err := e.client.StageQuantumState(ctx, pipe, stateB); err != nil {
			return err
		}

		evt, err := e.event(ledger.EventBondFormed, a, b, caller, bondPayload{Strength: strength})
		if err != nil {
			return err
		}
		return e.client.AppendEvents(ctx, tx, pipe, evt)
	},
		ledger.QuantumKey(inst, a), ledger.QuantumKey(inst, b),
		ledger.LinksKey(inst, a), ledger.LinksKey(inst, b),
		ledger.DigestKey(inst),
	)
	if err != nil {
		return 0, err
	}

	return strength, nil
}

// Collapse marks a character's quantum state as collapsed and empties its
// superposition list. Entanglement factor, bonds, and links survive the
// collapse. The transition is one-way: a second collapse fails with
// ErrAlreadyCollapsed.
func (e *Engine) Collapse(ctx context.Context, caller string, characterID uint64) error {
	inst := e.client.InstanceName()

	return e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		state, err := e.readState(ctx, tx, characterID)
		if err != nil {
			return err
		}
		if state.IsCollapsed {
			return fmt.Errorf("character %d: %w", characterID, ErrAlreadyCollapsed)
		}

		cleared := len(state.SuperpositionStates)
		state.IsCollapsed = true
		state.SuperpositionStates = []string{}

		if err := e.client.StageQuantumState(ctx, pipe, state); err != nil {
			return err
		}

		evt, err := e.event(ledger.EventStateCollapsed, characterID, 0, caller, collapsePayload{ClearedStates: cleared})
		if err != nil {
			return err
		}
		return e.client.AppendEvents(ctx, tx, pipe, evt)
	}, ledger.QuantumKey(inst, characterID), ledger.DigestKey(inst))
}

// AddSuperposition appends a superposition label to an initialized,
// uncollapsed quantum state. The label list also bounds meme fan-out, so
// superposing widens the set of peers a character can reach.
func (e *Engine) AddSuperposition(ctx context.Context, caller string, characterID uint64, label string) error {
	if label == "" {
		return fmt.Errorf("superposition label cannot be empty")
	}

	inst := e.client.InstanceName()

	return e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		state, err := e.readState(ctx, tx, characterID)
		if err != nil {
			return err
		}
		if state.IsCollapsed {
			return fmt.Errorf("character %d: %w", characterID, ErrAlreadyCollapsed)
		}

		state.SuperpositionStates = append(state.SuperpositionStates, label)

		if err := e.client.StageQuantumState(ctx, pipe, state); err != nil {
			return err
		}

		evt, err := e.event(ledger.EventQuantumSuperposed, characterID, 0, caller, superposePayload{Label: label})
		if err != nil {
			return err
		}
		return e.client.AppendEvents(ctx, tx, pipe, evt)
	}, ledger.QuantumKey(inst, characterID), ledger.DigestKey(inst))
}

// PropagateMeme records a meme on an initialized character and broadcasts it
// across the entanglement graph.
//
// The meme is appended to the source's own pattern first. If the pattern has
// no mutation rate yet, the engine's default is written. One entropy draw mod
// 100 decides mutation: below the rate, a variant differing in exactly one
// byte is appended to the source as well. Linked peers then each receive the
// original meme, a virality increment, and a propagation-path increment keyed
// by the source.
//
// callSeed is the per-call unpredictability input for the entropy draws; use
// entropy.NewCallSeed outside tests.
func (e *Engine) PropagateMeme(ctx context.Context, caller string, characterID uint64, meme string, callSeed uint64) (*Propagation, error) {
	if meme == "" {
		return nil, ErrEmptyMeme
	}

	inst := e.client.InstanceName()
	var report *Propagation

	err := e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		state, err := e.readState(ctx, tx, characterID)
		if err != nil {
			return err
		}

		rate, err := e.client.MutationRateTx(ctx, tx, characterID)
		if err != nil {
			return err
		}
		if rate == 0 {
			rate = e.rate
			e.client.StageMutationRate(ctx, pipe, characterID, rate)
		}

		digest, err := e.client.DigestTx(ctx, tx)
		if err != nil {
			return err
		}

		e.client.StageMemeAppend(ctx, pipe, characterID, meme)

		rep := &Propagation{Meme: meme}
		var events []*ledger.Event

		draw := entropy.Context{
			Time:        e.now(),
			Caller:      caller,
			CallSeed:    callSeed,
			ChainDigest: digest,
		}

		if e.source.Draw(draw)%100 < rate {
			draw.Nonce = 1
			idx := int(e.source.Draw(draw) % uint64(len(meme)))
			variant := mutateMeme(meme, idx, e.ceiling)

			e.client.StageMemeAppend(ctx, pipe, characterID, variant)
			rep.Mutated = true
			rep.Variant = variant

			evt, err := e.event(ledger.EventMemeMutated, characterID, 0, caller, mutationPayload{
				Original: meme,
				Variant:  variant,
				Index:    idx,
			})
			if err != nil {
				return err
			}
			events = append(events, evt)
		}

		// The fan-out bound is the source's own superposition count, not
		// the adjacency set: a linked peer whose ID is at or above that
		// count is never reached.
		// TODO: iterate the links hash (GetLinks) here instead of counting
		// IDs up to the superposition length, so every linked peer
		// receives the meme regardless of its numeric ID.
		for peer := uint64(0); peer < uint64(len(state.SuperpositionStates)); peer++ {
			linked, err := e.client.LinkedTx(ctx, tx, characterID, peer)
			if err != nil {
				return err
			}
			if !linked {
				continue
			}

			e.client.StageMemeAppend(ctx, pipe, peer, meme)
			e.client.StageViralityIncr(ctx, pipe, peer)
			e.client.StagePathIncr(ctx, pipe, peer, characterID)
			rep.Receivers = append(rep.Receivers, peer)

			evt, err := e.event(ledger.EventMemePropagated, peer, characterID, caller, propagationPayload{Meme: meme})
			if err != nil {
				return err
			}
			events = append(events, evt)
		}

		if err := e.client.AppendEvents(ctx, tx, pipe, events...); err != nil {
			return err
		}

		report = rep
		return nil
	},
		ledger.QuantumKey(inst, characterID),
		ledger.MemeKey(inst, characterID),
		ledger.LinksKey(inst, characterID),
		ledger.DigestKey(inst),
	)
	if err != nil {
		return nil, err
	}

	return report, nil
}

// readState loads a quantum state inside a transaction, translating absence
// into ErrNotInitialized.
func (e *Engine) readState(ctx context.Context, tx *redis.Tx, characterID uint64) (*ledger.QuantumState, error) {
	state, err := e.client.QuantumStateTx(ctx, tx, characterID)
	if ledger.IsNotFound(err) {
		return nil, fmt.Errorf("character %d: %w", characterID, ErrNotInitialized)
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// event builds a journal event with the payload JSON-encoded. The sequence
// number is assigned at append time.
func (e *Engine) event(kind ledger.EventKind, characterID, peerID uint64, caller string, payload interface{}) (*ledger.Event, error) {
	evt := &ledger.Event{
		ID:          uuid.New().String(),
		Kind:        kind,
		CharacterID: characterID,
		PeerID:      peerID,
		Caller:      caller,
		EmittedAtMs: e.now().UnixMilli(),
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event payload: %w", err)
		}
		evt.Payload = string(data)
	}

	return evt, nil
}

// mutateMeme returns a copy of meme with the byte at idx shifted by one:
// incremented below the ceiling, decremented at or above it. The result has
// the same length and differs in exactly one byte.
func mutateMeme(meme string, idx int, ceiling byte) string {
	b := []byte(meme)
	if b[idx] < ceiling {
		b[idx]++
	} else {
		b[idx]--
	}
	return string(b)
}
