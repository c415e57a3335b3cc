package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/docker/docker/client"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/entropy"
	"github.com/dyluth/drey/internal/instance"
	"github.com/dyluth/drey/internal/mind"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/quantum"
	"github.com/dyluth/drey/pkg/ledger"
)

// resolveInstanceName applies an explicit --name or infers the instance from
// the current workspace, translating inference failures into remediation
// messages. verb is the subcommand name, used in suggestion text.
func resolveInstanceName(ctx context.Context, cli *client.Client, nameFlag, verb string) (string, error) {
	if nameFlag != "" {
		return nameFlag, nil
	}

	instanceName, err := instance.InferInstanceFromWorkspace(ctx, cli)
	if err != nil {
		if err.Error() == "no Drey instances found for this workspace" {
			return "", printer.Error(
				"no Drey instances found",
				"No running instances found for this workspace.",
				[]string{"Start an instance first:\n  drey up"},
			)
		}
		if err.Error() == "multiple instances found for this workspace, use --name to specify which one" {
			return "", printer.Error(
				"multiple instances found",
				"Found multiple running instances for this workspace.",
				[]string{
					fmt.Sprintf("Specify which instance:\n  drey %s --name <instance-name>", verb),
					"List instances:\n  drey list",
				},
			)
		}
		return "", fmt.Errorf("failed to infer instance: %w", err)
	}

	return instanceName, nil
}

// connectLedger verifies the instance's Redis container is running and opens
// a ledger client against it. The caller owns Close on the returned client.
func connectLedger(ctx context.Context, cli *client.Client, instanceName string) (*ledger.Client, error) {
	if err := instance.VerifyInstanceRunning(ctx, cli, instanceName); err != nil {
		return nil, printer.Error(
			fmt.Sprintf("instance '%s' is not running", instanceName),
			fmt.Sprintf("Error: %v", err),
			[]string{fmt.Sprintf("Start the instance:\n  drey up --name %s", instanceName)},
		)
	}

	redisPort, err := instance.GetInstanceRedisPort(ctx, cli, instanceName)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"Redis port not found",
			fmt.Sprintf("Instance '%s' exists but Redis port label is missing.", instanceName),
			nil,
			[]string{fmt.Sprintf("Restart the instance:\n  drey down --name %s\n  drey up --name %s", instanceName, instanceName)},
		)
	}

	redisURL := instance.GetRedisURL(redisPort)
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ledgerClient, err := ledger.NewClient(redisOpts, instanceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger client: %w", err)
	}

	if err := ledgerClient.Ping(ctx); err != nil {
		ledgerClient.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", redisURL),
			nil,
			[]string{
				fmt.Sprintf("Check Redis container status:\n  docker logs drey-redis-%s", instanceName),
				fmt.Sprintf("Restart if needed:\n  drey down --name %s\n  drey up --name %s", instanceName, instanceName),
			},
		)
	}

	return ledgerClient, nil
}

// loadSimulationConfig loads drey.yml from the current directory, falling
// back to defaults when the file does not exist. An invalid file is an
// error; the engines must not run with half-parsed tuning.
func loadSimulationConfig() (*config.DreyConfig, error) {
	cfg, err := config.Load("drey.yml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, printer.Error(
			"invalid drey.yml",
			err.Error(),
			[]string{"Regenerate the default configuration:\n  drey init --force"},
		)
	}
	return cfg, nil
}

// newEngines builds the simulation engines for a connected instance, with
// tuning taken from the loaded configuration.
func newEngines(ledgerClient *ledger.Client, cfg *config.DreyConfig) (*quantum.Engine, *mind.Engine) {
	source := entropy.NewChainSource()
	quantumEngine := quantum.NewEngine(ledgerClient, source, quantum.Config{
		DefaultMutationRate: uint64(*cfg.Simulation.DefaultMutationRate),
		MutationCeiling:     byte(*cfg.Simulation.MutationByteCeiling),
	})
	mindEngine := mind.NewEngine(ledgerClient, source, mind.Config{
		Cooldown: cfg.Simulation.Cooldown(),
	})
	return quantumEngine, mindEngine
}

// callerIdentity returns the caller recorded on journal events: the --caller
// flag if given, else $USER, else "cli".
func callerIdentity(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "cli"
}

// parseCharacterID parses a positional character ID argument.
func parseCharacterID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, printer.Error(
			fmt.Sprintf("invalid character ID '%s'", arg),
			"Character IDs are non-negative integers.",
			[]string{"Example:\n  drey spawn 1 --factor 10"},
		)
	}
	return id, nil
}

// addCallerFlag registers the shared --caller flag on a domain verb.
func addCallerFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "caller", "", "Caller identity recorded on journal events (default: $USER)")
}

// formatCharacterCount is a tiny pluralization helper for success output.
func formatCharacterCount(n int) string {
	if n == 1 {
		return "1 peer"
	}
	return strconv.Itoa(n) + " peers"
}
