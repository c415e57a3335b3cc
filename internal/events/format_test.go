package events

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/drey/pkg/ledger"
)

func TestFormatDetail(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{
			name:     "empty payload",
			payload:  "",
			expected: "-",
		},
		{
			name:     "short single line",
			payload:  `{"factor":10}`,
			expected: `{"factor":10}`,
		},
		{
			name:     "exactly 40 chars",
			payload:  strings.Repeat("a", 40),
			expected: strings.Repeat("a", 40),
		},
		{
			name:     "41 chars - should truncate",
			payload:  strings.Repeat("a", 41),
			expected: strings.Repeat("a", 37) + "...",
		},
		{
			name:     "multi-line payload - first line only",
			payload:  "First line\nSecond line\nThird line",
			expected: "First line",
		},
		{
			name:     "payload with leading/trailing whitespace",
			payload:  "  \n  hello world  \n  ",
			expected: "hello world",
		},
		{
			name:     "all blank lines",
			payload:  " \n\t\n ",
			expected: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatDetail(tt.payload)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormatCaller(t *testing.T) {
	tests := []struct {
		name     string
		caller   string
		expected string
	}{
		{
			name:     "empty caller",
			caller:   "",
			expected: "-",
		},
		{
			name:     "short caller",
			caller:   "cli",
			expected: "cli",
		},
		{
			name:     "long caller - should truncate",
			caller:   "scenario:0a1b2c3d-full-run",
			expected: "scenario:0a1b...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatCaller(tt.caller)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormatPeer(t *testing.T) {
	assert.Equal(t, "-", formatPeer(0))
	assert.Equal(t, "7", formatPeer(7))
}

func TestFormatKind(t *testing.T) {
	assert.Equal(t, "breakthrough.achieved", formatKind(ledger.EventBreakthrough))
	assert.Equal(t, "future.very.long.e...", formatKind(ledger.EventKind("future.very.long.event.kind")))
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		ms       int64
		expected string
	}{
		{
			name:     "zero timestamp",
			ms:       0,
			expected: "-",
		},
		{
			name:     "seconds ago",
			ms:       now.Add(-30 * time.Second).UnixMilli(),
			expected: "30s ago",
		},
		{
			name:     "minutes ago",
			ms:       now.Add(-5 * time.Minute).UnixMilli(),
			expected: "5m ago",
		},
		{
			name:     "hours ago",
			ms:       now.Add(-3 * time.Hour).UnixMilli(),
			expected: "3h ago",
		},
		{
			name:     "days ago",
			ms:       now.Add(-48 * time.Hour).UnixMilli(),
			expected: "2d ago",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatTimestamp(tt.ms)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFormatTable(t *testing.T) {
	t.Run("no events", func(t *testing.T) {
		var buf bytes.Buffer
		count := FormatTable(&buf, nil, "test-instance")

		assert.Equal(t, 0, count)
		assert.Contains(t, buf.String(), "No events found for instance 'test-instance'")
	})

	t.Run("renders rows and count", func(t *testing.T) {
		events := []*ledger.Event{
			{
				ID:          "11111111-2222-3333-4444-555555555555",
				Seq:         0,
				Kind:        ledger.EventQuantumInitialized,
				CharacterID: 1,
				Caller:      "cli",
				Payload:     `{"factor":10}`,
				EmittedAtMs: time.Now().UnixMilli(),
			},
			{
				ID:          "66666666-7777-8888-9999-000000000000",
				Seq:         1,
				Kind:        ledger.EventBondFormed,
				CharacterID: 1,
				PeerID:      2,
				Caller:      "cli",
				Payload:     `{"strength":15}`,
				EmittedAtMs: time.Now().UnixMilli(),
			},
		}

		var buf bytes.Buffer
		count := FormatTable(&buf, events, "test-instance")
		output := buf.String()

		assert.Equal(t, 2, count)
		assert.Contains(t, output, "Journal for instance 'test-instance':")
		assert.Contains(t, output, "SEQ")
		assert.Contains(t, output, "KIND")
		assert.Contains(t, output, "quantum.initialized")
		assert.Contains(t, output, "bond.formed")
		assert.Contains(t, output, `{"strength":15}`)
		assert.Contains(t, output, "2 events found")
	})

	t.Run("singular count", func(t *testing.T) {
		events := []*ledger.Event{
			{Seq: 0, Kind: ledger.EventMindEvolved, CharacterID: 3, EmittedAtMs: time.Now().UnixMilli()},
		}

		var buf bytes.Buffer
		FormatTable(&buf, events, "test-instance")

		assert.Contains(t, buf.String(), "1 event found")
	})
}

func TestFormatJSONL(t *testing.T) {
	events := []*ledger.Event{
		{ID: "a", Seq: 0, Kind: ledger.EventGoalAdded, CharacterID: 1},
		{ID: "b", Seq: 1, Kind: ledger.EventBeliefAdded, CharacterID: 1},
	}

	var buf bytes.Buffer
	err := FormatJSONL(&buf, events)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var first ledger.Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, ledger.EventGoalAdded, first.Kind)
}

func TestFormatSingleJSON(t *testing.T) {
	evt := &ledger.Event{
		ID:          "11111111-2222-3333-4444-555555555555",
		Seq:         4,
		Kind:        ledger.EventStateCollapsed,
		CharacterID: 2,
		Caller:      "cli",
		Payload:     `{"cleared_states":3}`,
		EmittedAtMs: 5000,
	}

	var buf bytes.Buffer
	err := FormatSingleJSON(&buf, evt)
	require.NoError(t, err)

	output := buf.String()
	assert.True(t, strings.HasSuffix(output, "\n"))
	assert.Contains(t, output, "  \"seq\": 4")

	var decoded ledger.Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, evt.ID, decoded.ID)
	assert.Equal(t, evt.Kind, decoded.Kind)
}
