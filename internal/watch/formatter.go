package watch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dyluth/drey/pkg/ledger"
)

// Formatter renders one journal event to an output stream.
type Formatter interface {
	FormatEvent(evt *ledger.Event) error
}

// NewFormatter returns the formatter for the given output mode.
// Supported modes: "default" (human-readable) and "jsonl" (one JSON object
// per line, suitable for piping to jq).
func NewFormatter(output string, writer io.Writer) (Formatter, error) {
	switch output {
	case "", "default":
		return &defaultFormatter{writer: writer}, nil
	case "jsonl":
		return &jsonFormatter{writer: writer}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (supported: default, jsonl)", output)
	}
}

// defaultFormatter renders events as human-readable one-liners.
type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) FormatEvent(evt *ledger.Event) error {
	// Payload detail is best-effort; a malformed payload still renders the
	// event header.
	detail := map[string]interface{}{}
	if evt.Payload != "" {
		_ = json.Unmarshal([]byte(evt.Payload), &detail)
	}

	var line string
	switch evt.Kind {
	case ledger.EventQuantumInitialized:
		line = fmt.Sprintf("✨ Quantum state initialized: character=%d factor=%v", evt.CharacterID, detail["factor"])
	case ledger.EventQuantumSuperposed:
		line = fmt.Sprintf("🌀 Superposition added: character=%d label=%v", evt.CharacterID, detail["label"])
	case ledger.EventBondFormed:
		line = fmt.Sprintf("🔗 Bond formed: characters=%d,%d strength=%v", evt.CharacterID, evt.PeerID, detail["strength"])
	case ledger.EventStateCollapsed:
		line = fmt.Sprintf("💥 State collapsed: character=%d cleared=%v", evt.CharacterID, detail["cleared_states"])
	case ledger.EventMemeMutated:
		line = fmt.Sprintf("🧬 Meme mutated: character=%d variant=%v", evt.CharacterID, detail["variant"])
	case ledger.EventMemePropagated:
		line = fmt.Sprintf("📡 Meme propagated: from=%d to=%d", evt.PeerID, evt.CharacterID)
	case ledger.EventMindInitialized:
		line = fmt.Sprintf("🧠 Mind initialized: character=%d awareness=%v", evt.CharacterID, detail["awareness"])
	case ledger.EventMindEvolved:
		line = fmt.Sprintf("🌱 Mind evolved: character=%d impact=%v awareness=%v", evt.CharacterID, detail["impact"], detail["awareness"])
	case ledger.EventDecisionRecorded:
		line = fmt.Sprintf("📝 Decision recorded: character=%d confidence=%v", evt.CharacterID, detail["confidence"])
	case ledger.EventBreakthrough:
		line = fmt.Sprintf("🎉 Breakthrough achieved: character=%d", evt.CharacterID)
	case ledger.EventGoalAdded:
		line = fmt.Sprintf("🎯 Goal added: character=%d", evt.CharacterID)
	case ledger.EventBeliefAdded:
		line = fmt.Sprintf("💭 Belief added: character=%d", evt.CharacterID)
	case ledger.EventValueAdded:
		line = fmt.Sprintf("⭐ Value added: character=%d priority=%v", evt.CharacterID, detail["priority"])
	default:
		line = fmt.Sprintf("%s: character=%d", evt.Kind, evt.CharacterID)
	}

	_, err := fmt.Fprintf(f.writer, "%s\n", line)
	return err
}

// jsonFormatter renders events as JSON lines.
type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatEvent(evt *ledger.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}
