package watch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/drey/pkg/ledger"
)

func TestDefaultFormatter(t *testing.T) {
	tests := []struct {
		name     string
		event    *ledger.Event
		expected string
	}{
		{
			name: "quantum initialized",
			event: &ledger.Event{
				Kind:        ledger.EventQuantumInitialized,
				CharacterID: 1,
				Payload:     `{"factor":10}`,
			},
			expected: "✨ Quantum state initialized: character=1 factor=10",
		},
		{
			name: "superposition added",
			event: &ledger.Event{
				Kind:        ledger.EventQuantumSuperposed,
				CharacterID: 1,
				Payload:     `{"label":"explorer"}`,
			},
			expected: "🌀 Superposition added: character=1 label=explorer",
		},
		{
			name: "bond formed",
			event: &ledger.Event{
				Kind:        ledger.EventBondFormed,
				CharacterID: 1,
				PeerID:      2,
				Payload:     `{"strength":15}`,
			},
			expected: "🔗 Bond formed: characters=1,2 strength=15",
		},
		{
			name: "state collapsed",
			event: &ledger.Event{
				Kind:        ledger.EventStateCollapsed,
				CharacterID: 3,
				Payload:     `{"cleared_states":2}`,
			},
			expected: "💥 State collapsed: character=3 cleared=2",
		},
		{
			name: "meme mutated",
			event: &ledger.Event{
				Kind:        ledger.EventMemeMutated,
				CharacterID: 1,
				Payload:     `{"original":"hello","variant":"hemlo","index":2}`,
			},
			expected: "🧬 Meme mutated: character=1 variant=hemlo",
		},
		{
			name: "meme propagated renders source and receiver",
			event: &ledger.Event{
				Kind:        ledger.EventMemePropagated,
				CharacterID: 2,
				PeerID:      1,
				Payload:     `{"meme":"hello"}`,
			},
			expected: "📡 Meme propagated: from=1 to=2",
		},
		{
			name: "mind initialized",
			event: &ledger.Event{
				Kind:        ledger.EventMindInitialized,
				CharacterID: 1,
				Payload:     `{"awareness":10}`,
			},
			expected: "🧠 Mind initialized: character=1 awareness=10",
		},
		{
			name: "mind evolved",
			event: &ledger.Event{
				Kind:        ledger.EventMindEvolved,
				CharacterID: 1,
				Payload:     `{"experience":"met 2","impact":3,"awareness":13,"points":3}`,
			},
			expected: "🌱 Mind evolved: character=1 impact=3 awareness=13",
		},
		{
			name: "decision recorded",
			event: &ledger.Event{
				Kind:        ledger.EventDecisionRecorded,
				CharacterID: 1,
				Payload:     `{"confidence":30,"outcome":"friendship"}`,
			},
			expected: "📝 Decision recorded: character=1 confidence=30",
		},
		{
			name: "breakthrough achieved",
			event: &ledger.Event{
				Kind:        ledger.EventBreakthrough,
				CharacterID: 7,
			},
			expected: "🎉 Breakthrough achieved: character=7",
		},
		{
			name: "value added",
			event: &ledger.Event{
				Kind:        ledger.EventValueAdded,
				CharacterID: 1,
				Payload:     `{"value":"honesty","priority":70}`,
			},
			expected: "⭐ Value added: character=1 priority=70",
		},
		{
			name: "unknown kind falls back to the kind name",
			event: &ledger.Event{
				Kind:        ledger.EventKind("future.kind"),
				CharacterID: 9,
			},
			expected: "future.kind: character=9",
		},
		{
			name: "malformed payload still renders the header",
			event: &ledger.Event{
				Kind:        ledger.EventBreakthrough,
				CharacterID: 4,
				Payload:     "{not json",
			},
			expected: "🎉 Breakthrough achieved: character=4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter := &defaultFormatter{writer: &buf}

			err := formatter.FormatEvent(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.expected+"\n", buf.String())
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter := &jsonFormatter{writer: &buf}

	err := formatter.FormatEvent(&ledger.Event{
		ID:          "evt-1",
		Seq:         12,
		Kind:        ledger.EventBondFormed,
		CharacterID: 1,
		PeerID:      2,
		Caller:      "tester",
		Payload:     `{"strength":15}`,
	})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, `"id":"evt-1"`)
	assert.Contains(t, output, `"seq":12`)
	assert.Contains(t, output, `"kind":"bond.formed"`)
	assert.Contains(t, output, `"character_id":1`)
	assert.Contains(t, output, `"peer_id":2`)
	assert.True(t, output[len(output)-1] == '\n')
}

func TestNewFormatter(t *testing.T) {
	var buf bytes.Buffer

	f, err := NewFormatter("", &buf)
	require.NoError(t, err)
	assert.IsType(t, &defaultFormatter{}, f)

	f, err = NewFormatter("default", &buf)
	require.NoError(t, err)
	assert.IsType(t, &defaultFormatter{}, f)

	f, err = NewFormatter("jsonl", &buf)
	require.NoError(t, err)
	assert.IsType(t, &jsonFormatter{}, f)

	_, err = NewFormatter("xml", &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format: xml")
}
