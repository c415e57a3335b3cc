package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores data as string-to-string maps (hashes). Complex fields like the
// superposition label list are JSON-encoded into single hash fields. Nested
// containers (bonds, links, paths, priorities, lists, sets) are stored under
// their own keys and handled by the client, not here.

// QuantumToHash converts a QuantumState struct to a Redis hash format.
// The superposition label list is JSON-encoded.
func QuantumToHash(q *QuantumState) (map[string]interface{}, error) {
	statesJSON, err := json.Marshal(q.SuperpositionStates)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal superposition states: %w", err)
	}

	hash := map[string]interface{}{
		"character_id":         q.CharacterID,
		"entanglement_factor":  q.EntanglementFactor,
		"is_collapsed":         q.IsCollapsed,
		"superposition_states": string(statesJSON),
	}

	return hash, nil
}

// HashToQuantum converts a Redis hash to a QuantumState struct.
// JSON fields are decoded back to Go types.
func HashToQuantum(hash map[string]string) (*QuantumState, error) {
	characterID, err := strconv.ParseUint(hash["character_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid character_id field: %w", err)
	}

	factor, err := strconv.ParseUint(hash["entanglement_factor"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid entanglement_factor field: %w", err)
	}

	isCollapsed, _ := strconv.ParseBool(hash["is_collapsed"])

	var states []string
	if statesJSON := hash["superposition_states"]; statesJSON != "" {
		if err := json.Unmarshal([]byte(statesJSON), &states); err != nil {
			return nil, fmt.Errorf("failed to unmarshal superposition_states: %w", err)
		}
	}

	// Ensure we have an empty slice instead of nil for consistency
	if states == nil {
		states = []string{}
	}

	return &QuantumState{
		CharacterID:         characterID,
		EntanglementFactor:  factor,
		IsCollapsed:         isCollapsed,
		SuperpositionStates: states,
	}, nil
}

// MindToHash converts a MindRecord struct to a Redis hash format.
func MindToHash(m *MindRecord) map[string]interface{} {
	return map[string]interface{}{
		"character_id":     m.CharacterID,
		"awareness_level":  m.AwarenessLevel,
		"coherence_level":  m.CoherenceLevel,
		"evolution_points": m.EvolutionPoints,
		"last_update_ms":   m.LastUpdateMs,
	}
}

// HashToMind converts a Redis hash to a MindRecord struct.
func HashToMind(hash map[string]string) (*MindRecord, error) {
	characterID, err := strconv.ParseUint(hash["character_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid character_id field: %w", err)
	}

	awareness, err := strconv.ParseUint(hash["awareness_level"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid awareness_level field: %w", err)
	}

	coherence, err := strconv.ParseUint(hash["coherence_level"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid coherence_level field: %w", err)
	}

	points, err := strconv.ParseUint(hash["evolution_points"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid evolution_points field: %w", err)
	}

	lastUpdateMs, err := strconv.ParseInt(hash["last_update_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid last_update_ms field: %w", err)
	}

	return &MindRecord{
		CharacterID:     characterID,
		AwarenessLevel:  awareness,
		CoherenceLevel:  coherence,
		EvolutionPoints: points,
		LastUpdateMs:    lastUpdateMs,
	}, nil
}

// DecisionToJSON encodes a Decision for storage in the decision history list.
func DecisionToJSON(d *Decision) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal decision: %w", err)
	}
	return string(data), nil
}

// JSONToDecision decodes a decision history entry.
func JSONToDecision(data string) (*Decision, error) {
	var d Decision
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decision: %w", err)
	}
	return &d, nil
}

// parseUintField parses a hash field holding an unsigned counter.
// Missing fields parse as zero, matching Redis HINCRBY semantics where a
// counter that was never incremented simply has no field yet.
func parseUintField(hash map[string]string, field string) (uint64, error) {
	raw, ok := hash[field]
	if !ok || raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s field: %w", field, err)
	}
	return v, nil
}

// parseUintMap converts a Redis hash with numeric field names and counter
// values (bond strengths, propagation paths) into a typed map.
func parseUintMap(hash map[string]string) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64, len(hash))
	for field, raw := range hash {
		k, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric field %q: %w", field, err)
		}
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for field %q: %w", field, err)
		}
		out[k] = v
	}
	return out, nil
}

// parsePriorityMap converts the priorities hash into a typed map.
func parsePriorityMap(hash map[string]string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(hash))
	for name, raw := range hash {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid priority for %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// uintField formats a character ID for use as a hash field name.
func uintField(id uint64) string {
	return strconv.FormatUint(id, 10)
}
