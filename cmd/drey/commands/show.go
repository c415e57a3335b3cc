package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/pkg/ledger"
)

var (
	showInstanceName string
	showJSON         bool
)

var showCmd = &cobra.Command{
	Use:   "show CHARACTER",
	Short: "Show a character's full state",
	Long: `Display a character's state across both subsystems.

Quantum section: entanglement factor, collapse flag, superposition labels,
bonds, and links. Meme section: the pattern, virality, mutation rate, and
propagation paths. Mind section: awareness, coherence, evolution points,
beliefs, values, goals, priorities, decisions, and breakthroughs.

A character that never entered a subsystem shows as absent there; that is
not an error.

Use --json for machine-readable output.

Examples:
  # Show character 1
  drey show 1

  # Machine-readable
  drey show 1 --json | jq .mind.awareness_level`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(showCmd)
}

// characterView is the combined read model rendered by show.
type characterView struct {
	CharacterID uint64                 `json:"character_id"`
	Quantum     *ledger.QuantumState   `json:"quantum,omitempty"`
	Bonds       map[uint64]uint64      `json:"bonds,omitempty"`
	Links       []uint64               `json:"links,omitempty"`
	Meme        *ledger.MemeticPattern `json:"meme,omitempty"`
	Mind        *ledger.MindSnapshot   `json:"mind,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	characterID, err := parseCharacterID(args[0])
	if err != nil {
		return err
	}

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	targetInstanceName, err := resolveInstanceName(ctx, cli, showInstanceName, "show")
	if err != nil {
		return err
	}

	ledgerClient, err := connectLedger(ctx, cli, targetInstanceName)
	if err != nil {
		return err
	}
	defer ledgerClient.Close()

	view, err := assembleView(ctx, ledgerClient, characterID)
	if err != nil {
		return err
	}

	if showJSON {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal character view: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	renderView(view)
	return nil
}

// assembleView gathers both subsystems' state, treating absence as empty
// rather than an error.
func assembleView(ctx context.Context, client *ledger.Client, characterID uint64) (*characterView, error) {
	view := &characterView{CharacterID: characterID}

	quantumState, err := client.GetQuantumState(ctx, characterID)
	if err != nil && !ledger.IsNotFound(err) {
		return nil, fmt.Errorf("failed to read quantum state: %w", err)
	}
	// A zero factor is the uninitialized sentinel; treat it as absent.
	if err == nil && quantumState.EntanglementFactor != 0 {
		view.Quantum = quantumState

		bonds, err := client.GetBonds(ctx, characterID)
		if err != nil {
			return nil, fmt.Errorf("failed to read bonds: %w", err)
		}
		view.Bonds = bonds

		links, err := client.GetLinks(ctx, characterID)
		if err != nil {
			return nil, fmt.Errorf("failed to read links: %w", err)
		}
		view.Links = links

		pattern, err := client.GetMemeticPattern(ctx, characterID)
		if err != nil && !ledger.IsNotFound(err) {
			return nil, fmt.Errorf("failed to read memetic pattern: %w", err)
		}
		if err == nil {
			view.Meme = pattern
		}
	}

	snapshot, err := client.GetMindSnapshot(ctx, characterID)
	if err != nil && !ledger.IsNotFound(err) {
		return nil, fmt.Errorf("failed to read mind snapshot: %w", err)
	}
	if err == nil {
		view.Mind = snapshot
	}

	return view, nil
}

func renderView(view *characterView) {
	fmt.Printf("Character %d\n", view.CharacterID)

	fmt.Printf("\nQuantum:\n")
	if view.Quantum == nil {
		fmt.Printf("  not spawned\n")
	} else {
		fmt.Printf("  entanglement factor: %d\n", view.Quantum.EntanglementFactor)
		fmt.Printf("  collapsed:           %v\n", view.Quantum.IsCollapsed)
		fmt.Printf("  superpositions:      %s\n", formatLabels(view.Quantum.SuperpositionStates))
		fmt.Printf("  bonds:               %s\n", formatBonds(view.Bonds))
		fmt.Printf("  links:               %s\n", formatIDs(view.Links))

		if view.Meme != nil && (len(view.Meme.Memes) > 0 || view.Meme.Virality > 0 || view.Meme.MutationRate > 0) {
			fmt.Printf("\nMemes:\n")
			fmt.Printf("  virality:      %d\n", view.Meme.Virality)
			fmt.Printf("  mutation rate: %d%%\n", view.Meme.MutationRate)
			for _, meme := range view.Meme.Memes {
				fmt.Printf("  • %s\n", meme)
			}
			if len(view.Meme.PropagationPaths) > 0 {
				fmt.Printf("  paths in: %s\n", formatPaths(view.Meme.PropagationPaths))
			}
		}
	}

	fmt.Printf("\nMind:\n")
	if view.Mind == nil {
		fmt.Printf("  not awakened\n")
	} else {
		fmt.Printf("  awareness:        %d\n", view.Mind.AwarenessLevel)
		fmt.Printf("  coherence:        %d\n", view.Mind.CoherenceLevel)
		fmt.Printf("  evolution points: %d\n", view.Mind.EvolutionPoints)
		fmt.Printf("  last update:      %s\n", time.UnixMilli(view.Mind.LastUpdateMs).UTC().Format(time.RFC3339))
		fmt.Printf("  beliefs:          %s\n", formatLabels(view.Mind.Beliefs))
		fmt.Printf("  values:           %s\n", formatLabels(view.Mind.Values))
		fmt.Printf("  goals:            %s\n", formatLabels(view.Mind.Goals))
		fmt.Printf("  priorities:       %s\n", formatPriorities(view.Mind.Priorities))
		fmt.Printf("  decisions:        %d recorded\n", len(view.Mind.Decisions))
		if len(view.Mind.Breakthroughs) > 0 {
			fmt.Printf("  breakthroughs:\n")
			for _, breakthrough := range view.Mind.Breakthroughs {
				fmt.Printf("    • %s\n", breakthrough)
			}
		}
	}
}

func formatLabels(labels []string) string {
	if len(labels) == 0 {
		return "(none)"
	}
	return strings.Join(labels, ", ")
}

func formatIDs(ids []uint64) string {
	if len(ids) == 0 {
		return "(none)"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}

func formatBonds(bonds map[uint64]uint64) string {
	if len(bonds) == 0 {
		return "(none)"
	}
	peers := make([]uint64, 0, len(bonds))
	for peer := range bonds {
		peers = append(peers, peer)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })

	parts := make([]string, len(peers))
	for i, peer := range peers {
		parts[i] = fmt.Sprintf("%d (strength %d)", peer, bonds[peer])
	}
	return strings.Join(parts, ", ")
}

func formatPaths(paths map[uint64]uint64) string {
	sources := make([]uint64, 0, len(paths))
	for source := range paths {
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	parts := make([]string, len(sources))
	for i, source := range sources {
		parts[i] = fmt.Sprintf("from %d (x%d)", source, paths[source])
	}
	return strings.Join(parts, ", ")
}

func formatPriorities(priorities map[string]uint64) string {
	if len(priorities) == 0 {
		return "(none)"
	}
	names := make([]string, 0, len(priorities))
	for name := range priorities {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, priorities[name])
	}
	return strings.Join(parts, ", ")
}
