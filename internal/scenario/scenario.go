// Package scenario loads and runs scripted simulation scenarios: a YAML
// file listing steps (spawn, bond, meme, awaken, evolve, ...) that the
// runner executes in order against the quantum and mind engines. Scenarios
// are the fastest way to set up a populated instance or demonstrate a
// behavior end to end.
package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Actions a step may name.
const (
	ActionSpawn     = "spawn"
	ActionBond      = "bond"
	ActionCollapse  = "collapse"
	ActionSuperpose = "superpose"
	ActionMeme      = "meme"
	ActionAwaken    = "awaken"
	ActionEvolve    = "evolve"
	ActionGoal      = "goal"
	ActionBelief    = "belief"
	ActionValue     = "value"
	ActionSleep     = "sleep"
)

// DefaultValuePriority is used when a value step omits priority.
const DefaultValuePriority = 50

// Scenario represents a parsed scenario file.
type Scenario struct {
	Version string `yaml:"version"`
	Name    string `yaml:"name,omitempty"`
	Steps   []Step `yaml:"steps"`
}

// Step is one scripted operation. Which fields are required depends on the
// action; Validate enforces the combinations.
type Step struct {
	Action    string  `yaml:"action"`
	Character *uint64 `yaml:"character,omitempty"`
	Peer      *uint64 `yaml:"peer,omitempty"`

	Factor     uint64  `yaml:"factor,omitempty"`     // spawn
	Awareness  uint64  `yaml:"awareness,omitempty"`  // awaken
	Label      string  `yaml:"label,omitempty"`      // superpose
	Meme       string  `yaml:"meme,omitempty"`       // meme
	Experience string  `yaml:"experience,omitempty"` // evolve
	Outcome    string  `yaml:"outcome,omitempty"`    // evolve
	Text       string  `yaml:"text,omitempty"`       // goal, belief, value
	Priority   *uint64 `yaml:"priority,omitempty"`   // value
	Duration   string  `yaml:"duration,omitempty"`   // sleep

	// ExpectError inverts the step: the operation must fail, and the error
	// is reported as the step's outcome. Useful for demonstrating guards
	// (double-bond, cooldown) in a scripted run.
	ExpectError bool `yaml:"expect_error,omitempty"`

	pause time.Duration // parsed by Validate for sleep steps
}

// Validate performs strict validation on the scenario and parses sleep
// durations.
func (s *Scenario) Validate() error {
	if s.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", s.Version)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}

	for i := range s.Steps {
		if err := s.Steps[i].validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	return nil
}

func (st *Step) validate() error {
	switch st.Action {
	case ActionSleep:
		if st.ExpectError {
			return fmt.Errorf("sleep cannot expect an error")
		}
		if st.Duration == "" {
			return fmt.Errorf("sleep requires duration")
		}
		pause, err := time.ParseDuration(st.Duration)
		if err != nil {
			return fmt.Errorf("duration is not a valid duration: %s", st.Duration)
		}
		if pause <= 0 {
			return fmt.Errorf("duration must be positive, got %s", st.Duration)
		}
		st.pause = pause
		return nil

	case ActionSpawn:
		if err := st.requireCharacter(); err != nil {
			return err
		}
		if st.Factor == 0 {
			return fmt.Errorf("spawn requires a non-zero factor")
		}

	case ActionBond:
		if err := st.requireCharacter(); err != nil {
			return err
		}
		if st.Peer == nil {
			return fmt.Errorf("bond requires peer")
		}

	case ActionCollapse:
		if err := st.requireCharacter(); err != nil {
			return err
		}

	case ActionSuperpose:
		if err := st.requireCharacter(); err != nil {
			return err
		}
		if st.Label == "" {
			return fmt.Errorf("superpose requires label")
		}

	case ActionMeme:
		if err := st.requireCharacter(); err != nil {
			return err
		}
		if st.Meme == "" {
			return fmt.Errorf("meme requires meme text")
		}

	case ActionAwaken:
		if err := st.requireCharacter(); err != nil {
			return err
		}
		if st.Awareness < 1 || st.Awareness > 100 {
			return fmt.Errorf("awaken awareness must be between 1 and 100, got %d", st.Awareness)
		}

	case ActionEvolve:
		if err := st.requireCharacter(); err != nil {
			return err
		}
		if st.Experience == "" {
			return fmt.Errorf("evolve requires experience")
		}

	case ActionGoal, ActionBelief, ActionValue:
		if err := st.requireCharacter(); err != nil {
			return err
		}
		if st.Text == "" {
			return fmt.Errorf("%s requires text", st.Action)
		}
		if st.Action == ActionValue {
			if st.Priority == nil {
				priority := uint64(DefaultValuePriority)
				st.Priority = &priority
			}
			if *st.Priority > 100 {
				return fmt.Errorf("value priority must be at most 100, got %d", *st.Priority)
			}
		}

	case "":
		return fmt.Errorf("missing action")

	default:
		return fmt.Errorf("unknown action: %s", st.Action)
	}

	return nil
}

func (st *Step) requireCharacter() error {
	if st.Character == nil {
		return fmt.Errorf("%s requires character", st.Action)
	}
	return nil
}

// describe renders the step for progress output.
func (st *Step) describe() string {
	switch st.Action {
	case ActionSpawn:
		return fmt.Sprintf("spawn character %d (factor %d)", *st.Character, st.Factor)
	case ActionBond:
		return fmt.Sprintf("bond characters %d and %d", *st.Character, *st.Peer)
	case ActionCollapse:
		return fmt.Sprintf("collapse character %d", *st.Character)
	case ActionSuperpose:
		return fmt.Sprintf("superpose character %d as %q", *st.Character, st.Label)
	case ActionMeme:
		return fmt.Sprintf("propagate meme from character %d", *st.Character)
	case ActionAwaken:
		return fmt.Sprintf("awaken character %d (awareness %d)", *st.Character, st.Awareness)
	case ActionEvolve:
		return fmt.Sprintf("evolve character %d", *st.Character)
	case ActionGoal:
		return fmt.Sprintf("add goal to character %d", *st.Character)
	case ActionBelief:
		return fmt.Sprintf("add belief to character %d", *st.Character)
	case ActionValue:
		return fmt.Sprintf("add value to character %d", *st.Character)
	case ActionSleep:
		return fmt.Sprintf("sleep %s", st.Duration)
	}
	return st.Action
}

// Load reads and validates a scenario file from the specified path
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &sc, nil
}
