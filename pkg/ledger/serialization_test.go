package ledger

import (
	"fmt"
	"reflect"
	"strconv"
	"testing"
)

// TestQuantumRoundTrip tests that quantum state serialization maintains fidelity
func TestQuantumRoundTrip(t *testing.T) {
	original := &QuantumState{
		CharacterID:         42,
		EntanglementFactor:  17,
		IsCollapsed:         false,
		SuperpositionStates: []string{"wave", "particle"},
	}

	hash, err := QuantumToHash(original)
	if err != nil {
		t.Fatalf("QuantumToHash failed: %v", err)
	}

	// Convert hash to string map (simulating Redis storage)
	stringHash := make(map[string]string)
	for k, v := range hash {
		stringHash[k] = toString(v)
	}

	result, err := HashToQuantum(stringHash)
	if err != nil {
		t.Fatalf("HashToQuantum failed: %v", err)
	}

	if !reflect.DeepEqual(original, result) {
		t.Errorf("round-trip failed:\noriginal: %+v\nresult:   %+v", original, result)
	}
}

// TestQuantumRoundTrip_Collapsed tests round-trip of a collapsed state with no labels
func TestQuantumRoundTrip_Collapsed(t *testing.T) {
	original := &QuantumState{
		CharacterID:         7,
		EntanglementFactor:  101,
		IsCollapsed:         true,
		SuperpositionStates: []string{},
	}

	hash, err := QuantumToHash(original)
	if err != nil {
		t.Fatalf("QuantumToHash failed: %v", err)
	}

	stringHash := make(map[string]string)
	for k, v := range hash {
		stringHash[k] = toString(v)
	}

	result, err := HashToQuantum(stringHash)
	if err != nil {
		t.Fatalf("HashToQuantum failed: %v", err)
	}

	if !reflect.DeepEqual(original, result) {
		t.Errorf("round-trip failed:\noriginal: %+v\nresult:   %+v", original, result)
	}

	// nil superpositions must normalize to an empty slice, never nil
	if result.SuperpositionStates == nil {
		t.Error("superposition states should round-trip to an empty slice, not nil")
	}
}

// TestHashToQuantum_MissingSuperpositions tests that an absent label field decodes as empty
func TestHashToQuantum_MissingSuperpositions(t *testing.T) {
	stringHash := map[string]string{
		"character_id":        "3",
		"entanglement_factor": "10",
		"is_collapsed":        "false",
	}

	result, err := HashToQuantum(stringHash)
	if err != nil {
		t.Fatalf("HashToQuantum failed: %v", err)
	}

	if result.SuperpositionStates == nil || len(result.SuperpositionStates) != 0 {
		t.Errorf("expected empty superposition slice, got %#v", result.SuperpositionStates)
	}
}

// TestMindRoundTrip tests mind record serialization fidelity
func TestMindRoundTrip(t *testing.T) {
	original := &MindRecord{
		CharacterID:     9,
		AwarenessLevel:  75,
		CoherenceLevel:  50,
		EvolutionPoints: 12,
		LastUpdateMs:    1700000000000,
	}

	hash := MindToHash(original)

	stringHash := make(map[string]string)
	for k, v := range hash {
		stringHash[k] = toString(v)
	}

	result, err := HashToMind(stringHash)
	if err != nil {
		t.Fatalf("HashToMind failed: %v", err)
	}

	if !reflect.DeepEqual(original, result) {
		t.Errorf("round-trip failed:\noriginal: %+v\nresult:   %+v", original, result)
	}
}

// TestDecisionRoundTrip tests decision history entry encoding
func TestDecisionRoundTrip(t *testing.T) {
	original := &Decision{
		Context:     "crossed the river",
		Reasoning:   "evaluated against current awareness and coherence",
		Outcome:     "reached the far bank",
		DecidedAtMs: 1700000000000,
		Confidence:  62,
		Success:     true,
	}

	data, err := DecisionToJSON(original)
	if err != nil {
		t.Fatalf("DecisionToJSON failed: %v", err)
	}

	result, err := JSONToDecision(data)
	if err != nil {
		t.Fatalf("JSONToDecision failed: %v", err)
	}

	if !reflect.DeepEqual(original, result) {
		t.Errorf("round-trip failed:\noriginal: %+v\nresult:   %+v", original, result)
	}
}

// TestParseUintMap tests numeric-field hash parsing used for bonds and paths
func TestParseUintMap(t *testing.T) {
	m, err := parseUintMap(map[string]string{"1": "15", "42": "3"})
	if err != nil {
		t.Fatalf("parseUintMap failed: %v", err)
	}

	if m[1] != 15 || m[42] != 3 {
		t.Errorf("unexpected map contents: %#v", m)
	}

	if _, err := parseUintMap(map[string]string{"not-a-number": "1"}); err == nil {
		t.Error("expected error for non-numeric field name")
	}
}

// TestParseUintField tests counter field parsing with HINCRBY absence semantics
func TestParseUintField(t *testing.T) {
	hash := map[string]string{"virality": "4"}

	v, err := parseUintField(hash, "virality")
	if err != nil || v != 4 {
		t.Errorf("expected 4, got %d (err %v)", v, err)
	}

	// Missing counters read as zero
	v, err = parseUintField(hash, "mutation_rate")
	if err != nil || v != 0 {
		t.Errorf("expected 0 for missing field, got %d (err %v)", v, err)
	}
}

// toString converts hash values to strings, simulating Redis storage
func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}
