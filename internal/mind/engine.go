// Package mind implements the consciousness engine: per-character belief,
// value, and goal accumulation, a cooldown-gated evolution state machine,
// and probability-gated breakthroughs.
//
// Like the entanglement network, every mutating operation is a single ledger
// transaction. Consciousness shares only the character-ID namespace with the
// quantum subsystem; neither reads the other's records.
package mind

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

// DefaultCooldown is the minimum wait between successive evolutions of one
// character.
const DefaultCooldown = time.Hour

// initialCoherence is the coherence level written at initialization. No
// operation mutates it afterwards.
const initialCoherence = 50

// decisionReasoning is the fixed reasoning recorded with every evolution
// decision. The model has no alternative reasoning path.
const decisionReasoning = "synthesized from accumulated experience"

// breakthroughBonus is the flat evolution-point award for a breakthrough.
const breakthroughBonus = 5

// Seed state written by Initialize: one belief, one value, one goal, and
// three priority entries.
const (
	seedBelief = "existence precedes essence"
	seedValue  = "curiosity"
	seedGoal   = "achieve self-awareness"
)

var seedPriorities = []struct {
	Name  string
	Level uint64
}{
	{"survival", 100},
	{"growth", 75},
	{"connection", 50},
}

// Config carries tunables for the consciousness engine.
// Zero values fall back to the package defaults.
type Config struct {
	// Cooldown is the minimum wait between evolutions.
	Cooldown time.Duration
}

// Engine applies consciousness operations to the ledger.
type Engine struct {
	client   *ledger.Client
	source   entropy.Source
	cooldown time.Duration
	now      func() time.Time
}

// NewEngine creates a consciousness engine backed by the given ledger client
// and entropy source.
func NewEngine(client *ledger.Client, source entropy.Source, cfg Config) *Engine {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &Engine{
		client:   client,
		source:   source,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Evolution reports what a single evolution did.
type Evolution struct {
	// Impact is the awareness/point gain computed for this evolution.
	Impact uint64

	// Awareness is the character's awareness level after the evolution.
	Awareness uint64

	// Points is the evolution-point total after the evolution, including
	// any breakthrough bonus.
	Points uint64

	// Confidence is the confidence recorded on the decision.
	Confidence uint64

	// GoalAligned is true when the experience exactly matched an existing
	// goal, which adds 2 to the impact.
	GoalAligned bool

	// Breakthrough is true when this evolution achieved a breakthrough
	// for the experience.
	Breakthrough bool
}

// Event payloads, JSON-encoded into Event.Payload.
type (
	initializedPayload struct {
		Awareness uint64 `json:"awareness"`
	}

	evolvedPayload struct {
		Experience string `json:"experience"`
		Impact     uint64 `json:"impact"`
		Awareness  uint64 `json:"awareness"`
		Points     uint64 `json:"points"`
	}

	decisionPayload struct {
		Confidence uint64 `json:"confidence"`
		Outcome    string `json:"outcome"`
	}

	breakthroughPayload struct {
		Experience  string `json:"experience"`
		Probability uint64 `json:"probability"`
	}

	goalPayload struct {
		Goal string `json:"goal"`
	}

	beliefPayload struct {
		Belief string `json:"belief"`
	}

	valuePayload struct {
		Value    string `json:"value"`
		Priority uint64 `json:"priority"`
	}
)

// Initialize creates a character's consciousness record with the given
// awareness level and seeds its starting beliefs, values, goals, and
// priorities. Coherence starts at 50 and never changes afterwards. A second
// initialization fails with ErrAlreadyInitialized.
func (e *Engine) Initialize(ctx context.Context, caller string, characterID, awareness uint64) error {
	if awareness == 0 || awareness > 100 {
		return fmt.Errorf("awareness %d: %w", awareness, ErrInvalidAwareness)
	}

	inst := e.client.InstanceName()

	return e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		_, err := e.client.MindRecordTx(ctx, tx, characterID)
		if err == nil {
			return fmt.Errorf("character %d: %w", characterID, ErrAlreadyInitialized)
		}
		if !ledger.IsNotFound(err) {
			return err
		}

		record := &ledger.MindRecord{
			CharacterID:    characterID,
			AwarenessLevel: awareness,
			CoherenceLevel: initialCoherence,
			LastUpdateMs:   e.now().UnixMilli(),
		}
		if err := e.client.StageMindRecord(ctx, pipe, record); err != nil {
			return err
		}

		e.client.StageBeliefAppend(ctx, pipe, characterID, seedBelief)
		e.client.StageValueAppend(ctx, pipe, characterID, seedValue)
		e.client.StageGoalAppend(ctx, pipe, characterID, seedGoal)
		for _, p := range seedPriorities {
			e.client.StagePriority(ctx, pipe, characterID, p.Name, p.Level)
		}

		evt, err := e.event(ledger.EventMindInitialized, characterID, caller, initializedPayload{Awareness: awareness})
		if err != nil {
			return err
		}
		return e.client.AppendEvents(ctx, tx, pipe, evt)
	}, ledger.MindKey(inst, characterID), ledger.DigestKey(inst))
}

// Evolve advances a character's consciousness with a new experience. The
// character must be initialized and past its cooldown window.
//
// The experience is appended to beliefs unconditionally, even when it
// duplicates an earlier one. A decision is recorded with confidence
// min(95, (awareness+coherence)/2); decisions always succeed. The evolution
// impact is 1 + coherence/20, plus 2 when the experience exactly matches an
// existing goal. Awareness grows by the impact, clamped at 100; evolution
// points grow by the full impact.
//
// A breakthrough check then runs unless the experience already achieved one:
// probability = awareness*coherence/100 + points/100 (using the updated
// values, with no upper clamp, so large totals make a breakthrough certain),
// compared against an entropy draw mod 100. A breakthrough adds the
// experience to the achieved set permanently and awards 5 bonus points.
//
// callSeed is the per-call unpredictability input for the breakthrough draw;
// use entropy.NewCallSeed outside tests.
func (e *Engine) Evolve(ctx context.Context, caller string, characterID uint64, experience, outcome string, callSeed uint64) (*Evolution, error) {
	if experience == "" {
		return nil, fmt.Errorf("experience cannot be empty")
	}

	inst := e.client.InstanceName()
	var result *Evolution

	err := e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		record, err := e.readRecord(ctx, tx, characterID)
		if err != nil {
			return err
		}

		now := e.now()
		last := time.UnixMilli(record.LastUpdateMs)
		if now.Sub(last) < e.cooldown {
			return fmt.Errorf("character %d: %w (next evolution at %s)",
				characterID, ErrCooldownNotElapsed, last.Add(e.cooldown).UTC().Format(time.RFC3339))
		}

		e.client.StageBeliefAppend(ctx, pipe, characterID, experience)

		confidence := (record.AwarenessLevel + record.CoherenceLevel) / 2
		if confidence > 95 {
			confidence = 95
		}

		decision := &ledger.Decision{
			Context:     experience,
			Reasoning:   decisionReasoning,
			Outcome:     outcome,
			DecidedAtMs: now.UnixMilli(),
			Confidence:  confidence,
			Success:     true,
		}
		if err := e.client.StageDecisionAppend(ctx, pipe, characterID, decision); err != nil {
			return err
		}

		goals, err := e.client.GoalsTx(ctx, tx, characterID)
		if err != nil {
			return err
		}
		aligned := false
		for _, g := range goals {
			if g == experience {
				aligned = true
				break
			}
		}

		impact := uint64(1) + record.CoherenceLevel/20
		if aligned {
			impact += 2
		}

		record.AwarenessLevel += impact
		if record.AwarenessLevel > 100 {
			record.AwarenessLevel = 100
		}
		record.EvolutionPoints += impact
		record.LastUpdateMs = now.UnixMilli()

		rep := &Evolution{
			Impact:      impact,
			Confidence:  confidence,
			GoalAligned: aligned,
		}

		evtDecision, err := e.event(ledger.EventDecisionRecorded, characterID, caller, decisionPayload{
			Confidence: confidence,
			Outcome:    outcome,
		})
		if err != nil {
			return err
		}
		events := []*ledger.Event{evtDecision}

		achieved, err := e.client.HasBreakthroughTx(ctx, tx, characterID, experience)
		if err != nil {
			return err
		}
		if !achieved {
			probability := record.AwarenessLevel*record.CoherenceLevel/100 + record.EvolutionPoints/100

			draw := e.source.Draw(entropy.Context{
				Time:        now,
				Caller:      caller,
				CallSeed:    callSeed,
				CharacterID: characterID,
				Salt:        entropy.ExperienceSalt(experience),
			})

			if draw%100 < probability {
				e.client.StageBreakthrough(ctx, pipe, characterID, experience)
				record.EvolutionPoints += breakthroughBonus
				rep.Breakthrough = true

				evt, err := e.event(ledger.EventBreakthrough, characterID, caller, breakthroughPayload{
					Experience:  experience,
					Probability: probability,
				})
				if err != nil {
					return err
				}
				events = append(events, evt)
			}
		}

		if err := e.client.StageMindRecord(ctx, pipe, record); err != nil {
			return err
		}

		rep.Awareness = record.AwarenessLevel
		rep.Points = record.EvolutionPoints

		evtEvolved, err := e.event(ledger.EventMindEvolved, characterID, caller, evolvedPayload{
			Experience: experience,
			Impact:     impact,
			Awareness:  record.AwarenessLevel,
			Points:     record.EvolutionPoints,
		})
		if err != nil {
			return err
		}
		events = append(events, evtEvolved)

		if err := e.client.AppendEvents(ctx, tx, pipe, events...); err != nil {
			return err
		}

		result = rep
		return nil
	},
		ledger.MindKey(inst, characterID),
		ledger.GoalsKey(inst, characterID),
		ledger.BreakthroughsKey(inst, characterID),
		ledger.DigestKey(inst),
	)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AddGoal appends a goal to an initialized character.
func (e *Engine) AddGoal(ctx context.Context, caller string, characterID uint64, goal string) error {
	if goal == "" {
		return fmt.Errorf("goal cannot be empty")
	}

	inst := e.client.InstanceName()

	return e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		if _, err := e.readRecord(ctx, tx, characterID); err != nil {
			return err
		}

		e.client.StageGoalAppend(ctx, pipe, characterID, goal)

		evt, err := e.event(ledger.EventGoalAdded, characterID, caller, goalPayload{Goal: goal})
		if err != nil {
			return err
		}
		return e.client.AppendEvents(ctx, tx, pipe, evt)
	}, ledger.MindKey(inst, characterID), ledger.DigestKey(inst))
}

// AddBelief appends a belief to an initialized character.
func (e *Engine) AddBelief(ctx context.Context, caller string, characterID uint64, belief string) error {
	if belief == "" {
		return fmt.Errorf("belief cannot be empty")
	}

	inst := e.client.InstanceName()

	return e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		if _, err := e.readRecord(ctx, tx, characterID); err != nil {
			return err
		}

		e.client.StageBeliefAppend(ctx, pipe, characterID, belief)

		evt, err := e.event(ledger.EventBeliefAdded, characterID, caller, beliefPayload{Belief: belief})
		if err != nil {
			return err
		}
		return e.client.AppendEvents(ctx, tx, pipe, evt)
	}, ledger.MindKey(inst, characterID), ledger.DigestKey(inst))
}

// AddValue appends a value to an initialized character and upserts its
// priority entry. The priority must not exceed 100; re-adding a value
// overwrites its priority, last write wins.
func (e *Engine) AddValue(ctx context.Context, caller string, characterID uint64, value string, priority uint64) error {
	if value == "" {
		return fmt.Errorf("value cannot be empty")
	}
	if priority > 100 {
		return fmt.Errorf("priority %d: %w", priority, ErrInvalidPriority)
	}

	inst := e.client.InstanceName()

	return e.client.Txn(ctx, func(tx *redis.Tx, pipe redis.Pipeliner) error {
		if _, err := e.readRecord(ctx, tx, characterID); err != nil {
			return err
		}

		e.client.StageValueAppend(ctx, pipe, characterID, value)
		e.client.StagePriority(ctx, pipe, characterID, value, priority)

		evt, err := e.event(ledger.EventValueAdded, characterID, caller, valuePayload{Value: value, Priority: priority})
		if err != nil {
			return err
		}
		return e.client.AppendEvents(ctx, tx, pipe, evt)
	}, ledger.MindKey(inst, characterID), ledger.DigestKey(inst))
}

// Priority retrieves the priority for a value name. The character must be
// initialized; a value with no priority entry returns a not-found error
// (check with ledger.IsNotFound).
func (e *Engine) Priority(ctx context.Context, characterID uint64, name string) (uint64, error) {
	_, err := e.client.GetMindRecord(ctx, characterID)
	if ledger.IsNotFound(err) {
		return 0, fmt.Errorf("character %d: %w", characterID, ErrNotInitialized)
	}
	if err != nil {
		return 0, err
	}

	return e.client.GetPriority(ctx, characterID, name)
}

// CanEvolve reports whether the character's cooldown window has elapsed.
func (e *Engine) CanEvolve(ctx context.Context, characterID uint64) (bool, error) {
	next, err := e.NextEvolution(ctx, characterID)
	if err != nil {
		return false, err
	}
	return !e.now().Before(next), nil
}

// NextEvolution returns the earliest time the character can evolve again.
func (e *Engine) NextEvolution(ctx context.Context, characterID uint64) (time.Time, error) {
	record, err := e.client.GetMindRecord(ctx, characterID)
	if ledger.IsNotFound(err) {
		return time.Time{}, fmt.Errorf("character %d: %w", characterID, ErrNotInitialized)
	}
	if err != nil {
		return time.Time{}, err
	}

	return time.UnixMilli(record.LastUpdateMs).Add(e.cooldown), nil
}

// readRecord loads a mind record inside a transaction, translating absence
// into ErrNotInitialized.
func (e *Engine) readRecord(ctx context.Context, tx *redis.Tx, characterID uint64) (*ledger.MindRecord, error) {
	record, err := e.client.MindRecordTx(ctx, tx, characterID)
	if ledger.IsNotFound(err) {
		return nil, fmt.Errorf("character %d: %w", characterID, ErrNotInitialized)
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// event builds a journal event with the payload JSON-encoded. Consciousness
// events never carry a peer ID; the sequence number is assigned at append
// time.
func (e *Engine) event(kind ledger.EventKind, characterID uint64, caller string, payload interface{}) (*ledger.Event, error) {
	evt := &ledger.Event{
		ID:          uuid.New().String(),
		Kind:        kind,
		CharacterID: characterID,
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
