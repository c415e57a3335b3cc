package commands

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/spf13/cobra"

	dockerpkg "github.com/dyluth/drey/internal/docker"
	"github.com/dyluth/drey/internal/printer"
)

var (
	downInstanceName string
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop a Drey instance",
	Long: `Stop and remove all Docker resources associated with a Drey instance.

This includes:
  • The Redis container (ledger storage)
  • Docker network

The instance name is auto-inferred from the current workspace if not specified.
The command does not prompt for confirmation and executes immediately.

The journal lives inside the Redis container, so down discards the
instance's history.

Examples:
  # Stop the instance for current workspace
  drey down

  # Stop a specific instance
  drey down --name prod-instance`,
	RunE: runDown,
}

func init() {
	downCmd.Flags().StringVarP(&downInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Create Docker client
	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	// Phase 1: Instance discovery
	targetInstanceName, err := resolveInstanceName(ctx, cli, downInstanceName, "down")
	if err != nil {
		return err
	}

	// Find all containers for this instance
	containerFilters := filters.NewArgs()
	containerFilters.Add("label", fmt.Sprintf("%s=%s", dockerpkg.LabelInstanceName, targetInstanceName))

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: containerFilters,
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	if len(containers) == 0 {
		return printer.Error(
			fmt.Sprintf("instance '%s' not found", targetInstanceName),
			fmt.Sprintf("No containers found with instance name '%s'.", targetInstanceName),
			[]string{"Run 'drey list' to see available instances"},
		)
	}

	// Stop containers (10s graceful timeout)
	timeout := 10
	for _, c := range containers {
		containerName := c.Names[0]
		printer.Step("Stopping %s...\n", containerName)
		if err := cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout}); err != nil {
			// Log but continue - container might already be stopped
			printer.Warning("failed to stop %s: %v\n", containerName, err)
		}
	}

	// Remove containers
	for _, c := range containers {
		containerName := c.Names[0]
		printer.Step("Removing %s...\n", containerName)
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true, RemoveVolumes: true}); err != nil {
			return fmt.Errorf("failed to remove %s: %w", containerName, err)
		}
	}

	// Find and remove network
	networkFilters := filters.NewArgs()
	networkFilters.Add("label", fmt.Sprintf("%s=%s", dockerpkg.LabelInstanceName, targetInstanceName))

	networks, err := cli.NetworkList(ctx, types.NetworkListOptions{
		Filters: networkFilters,
	})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}

	for _, net := range networks {
		printer.Step("Removing network %s...\n", net.Name)
		if err := cli.NetworkRemove(ctx, net.ID); err != nil {
			return fmt.Errorf("failed to remove network %s: %w", net.Name, err)
		}
	}

	printer.Success("\nInstance '%s' removed successfully\n", targetInstanceName)

	return nil
}
