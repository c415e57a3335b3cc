package scenario

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dyluth/drey/internal/entropy"
	"github.com/dyluth/drey/internal/mind"
	"github.com/dyluth/drey/internal/quantum"
)

// Runner executes scenario steps against the simulation engines, printing
// per-step progress to out.
type Runner struct {
	quantum *quantum.Engine
	mind    *mind.Engine
	out     io.Writer
}

// NewRunner creates a runner driving the given engines.
func NewRunner(quantumEngine *quantum.Engine, mindEngine *mind.Engine, out io.Writer) *Runner {
	return &Runner{
		quantum: quantumEngine,
		mind:    mindEngine,
		out:     out,
	}
}

// Result summarizes a completed run.
type Result struct {
	RunID            string
	Steps            int
	ExpectedFailures int
	Mutations        int
	Deliveries       int
	Breakthroughs    int
	Duration         time.Duration
}

// Run executes every step in order. Each run gets a fresh run ID, used as
// the caller recorded on journal events. A step error aborts the run unless
// the step declares expect_error, in which case the error is the expected
// outcome and a success would abort instead.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	result := &Result{RunID: uuid.New().String()}
	caller := "scenario:" + result.RunID[:8]
	start := time.Now()

	name := sc.Name
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintf(r.out, "Running %s (%d steps, run %s)\n", name, len(sc.Steps), caller)

	for i := range sc.Steps {
		step := &sc.Steps[i]
		fmt.Fprintf(r.out, "step %d/%d: %s\n", i+1, len(sc.Steps), step.describe())

		if step.Action == ActionSleep {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(step.pause):
			}
			result.Steps++
			continue
		}

		err := r.execute(ctx, caller, step, result)
		if step.ExpectError {
			if err == nil {
				return nil, fmt.Errorf("step %d (%s): succeeded but expected failure", i+1, step.Action)
			}
			fmt.Fprintf(r.out, "  failed as expected: %v\n", err)
			result.ExpectedFailures++
		} else if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
		result.Steps++
	}

	result.Duration = time.Since(start)
	r.printSummary(name, result)
	return result, nil
}

func (r *Runner) execute(ctx context.Context, caller string, step *Step, result *Result) error {
	switch step.Action {
	case ActionSpawn:
		return r.quantum.InitializeState(ctx, caller, *step.Character, step.Factor)

	case ActionBond:
		strength, err := r.quantum.CreateBond(ctx, caller, *step.Character, *step.Peer)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "  bond strength %d\n", strength)
		return nil

	case ActionCollapse:
		return r.quantum.Collapse(ctx, caller, *step.Character)

	case ActionSuperpose:
		return r.quantum.AddSuperposition(ctx, caller, *step.Character, step.Label)

	case ActionMeme:
		seed, err := entropy.NewCallSeed()
		if err != nil {
			return err
		}
		prop, err := r.quantum.PropagateMeme(ctx, caller, *step.Character, step.Meme, seed)
		if err != nil {
			return err
		}
		if prop.Mutated {
			fmt.Fprintf(r.out, "  mutated to %q\n", prop.Variant)
			result.Mutations++
		}
		if len(prop.Receivers) > 0 {
			fmt.Fprintf(r.out, "  delivered to %d linked peer(s)\n", len(prop.Receivers))
			result.Deliveries += len(prop.Receivers)
		}
		return nil

	case ActionAwaken:
		return r.mind.Initialize(ctx, caller, *step.Character, step.Awareness)

	case ActionEvolve:
		seed, err := entropy.NewCallSeed()
		if err != nil {
			return err
		}
		evo, err := r.mind.Evolve(ctx, caller, *step.Character, step.Experience, step.Outcome, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "  impact %d, awareness %d, points %d\n", evo.Impact, evo.Awareness, evo.Points)
		if evo.Breakthrough {
			fmt.Fprintf(r.out, "  breakthrough achieved\n")
			result.Breakthroughs++
		}
		return nil

	case ActionGoal:
		return r.mind.AddGoal(ctx, caller, *step.Character, step.Text)

	case ActionBelief:
		return r.mind.AddBelief(ctx, caller, *step.Character, step.Text)

	case ActionValue:
		return r.mind.AddValue(ctx, caller, *step.Character, step.Text, *step.Priority)
	}

	return fmt.Errorf("unknown action: %s", step.Action)
}

func (r *Runner) printSummary(name string, result *Result) {
	fmt.Fprintf(r.out, "\n%s complete: %d steps in %s\n", name, result.Steps, result.Duration.Round(time.Millisecond))
	if result.ExpectedFailures > 0 {
		fmt.Fprintf(r.out, "  expected failures: %d\n", result.ExpectedFailures)
	}
	fmt.Fprintf(r.out, "  mutations:     %d\n", result.Mutations)
	fmt.Fprintf(r.out, "  deliveries:    %d\n", result.Deliveries)
	fmt.Fprintf(r.out, "  breakthroughs: %d\n", result.Breakthroughs)
}
