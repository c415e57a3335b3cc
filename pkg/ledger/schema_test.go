package ledger

import (
	"strings"
	"testing"
)

// TestQuantumKey tests quantum state key generation
func TestQuantumKey(t *testing.T) {
	key := QuantumKey("default-1", 42)

	expected := "drey:default-1:quantum:42"
	if key != expected {
		t.Errorf("QuantumKey() = %q, expected %q", key, expected)
	}

	// Verify format
	if !strings.HasPrefix(key, "drey:") {
		t.Error("quantum key should start with 'drey:'")
	}
	if !strings.Contains(key, ":quantum:") {
		t.Error("quantum key should contain ':quantum:'")
	}
}

// TestNestedContainerKeys tests that per-character containers hang off the entity key
func TestNestedContainerKeys(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		expected string
	}{
		{"bonds", BondsKey("default-1", 7), "drey:default-1:quantum:7:bonds"},
		{"links", LinksKey("default-1", 7), "drey:default-1:quantum:7:links"},
		{"memes", MemesKey("default-1", 7), "drey:default-1:meme:7:memes"},
		{"paths", PathsKey("default-1", 7), "drey:default-1:meme:7:paths"},
		{"beliefs", BeliefsKey("default-1", 7), "drey:default-1:mind:7:beliefs"},
		{"values", ValuesKey("default-1", 7), "drey:default-1:mind:7:values"},
		{"goals", GoalsKey("default-1", 7), "drey:default-1:mind:7:goals"},
		{"priorities", PrioritiesKey("default-1", 7), "drey:default-1:mind:7:priorities"},
		{"decisions", DecisionsKey("default-1", 7), "drey:default-1:mind:7:decisions"},
		{"breakthroughs", BreakthroughsKey("default-1", 7), "drey:default-1:mind:7:breakthroughs"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.key != tc.expected {
				t.Errorf("got %q, expected %q", tc.key, tc.expected)
			}
		})
	}
}

// TestJournalKeys tests journal and digest key generation
func TestJournalKeys(t *testing.T) {
	if key := EventsKey("myproject"); key != "drey:myproject:events" {
		t.Errorf("EventsKey() = %q, expected %q", key, "drey:myproject:events")
	}

	if key := DigestKey("myproject"); key != "drey:myproject:digest" {
		t.Errorf("DigestKey() = %q, expected %q", key, "drey:myproject:digest")
	}

	if key := ObserverCursorKey("myproject"); key != "drey:myproject:observer:cursor" {
		t.Errorf("ObserverCursorKey() = %q, expected %q", key, "drey:myproject:observer:cursor")
	}
}

// TestEventChannels tests event channel name generation
func TestEventChannels(t *testing.T) {
	if ch := EventsChannel("default"); ch != "drey:default:events" {
		t.Errorf("EventsChannel() = %q, expected %q", ch, "drey:default:events")
	}

	if ch := QuantumEventsChannel("default"); ch != "drey:default:quantum_events" {
		t.Errorf("QuantumEventsChannel() = %q, expected %q", ch, "drey:default:quantum_events")
	}

	if ch := MindEventsChannel("default"); ch != "drey:default:mind_events" {
		t.Errorf("MindEventsChannel() = %q, expected %q", ch, "drey:default:mind_events")
	}
}

// TestInstanceNameNamespacing tests that different instance names produce different keys
func TestInstanceNameNamespacing(t *testing.T) {
	key1 := QuantumKey("default-1", 99)
	key2 := QuantumKey("default-2", 99)
	key3 := QuantumKey("myproject", 99)

	// All keys should be different
	if key1 == key2 {
		t.Error("keys for different instances should be different")
	}
	if key1 == key3 {
		t.Error("keys for different instances should be different")
	}
	if key2 == key3 {
		t.Error("keys for different instances should be different")
	}

	// But they should all contain the same character ID
	if !strings.HasSuffix(key1, ":99") || !strings.HasSuffix(key2, ":99") || !strings.HasSuffix(key3, ":99") {
		t.Error("all keys should end with the character ID")
	}
}

// TestCharacterNamespacing tests that different characters produce different keys
func TestCharacterNamespacing(t *testing.T) {
	if QuantumKey("default", 1) == QuantumKey("default", 2) {
		t.Error("keys for different characters should be different")
	}
	if MindKey("default", 1) == MindKey("default", 2) {
		t.Error("keys for different characters should be different")
	}
}
