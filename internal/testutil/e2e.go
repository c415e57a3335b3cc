//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/drey/internal/instance"
	"github.com/dyluth/drey/pkg/ledger"
)

// E2EEnvironment represents an isolated E2E test environment
type E2EEnvironment struct {
	T            *testing.T
	TmpDir       string
	OriginalDir  string
	InstanceName string
	DockerClient *client.Client
	Ledger       *ledger.Client
	RedisPort    int
	Ctx          context.Context
}

// SetupE2EEnvironment creates a fully isolated E2E test environment
// with temp directory, Git repo, drey.yml, and unique instance name
func SetupE2EEnvironment(t *testing.T, dreyYML string) *E2EEnvironment {
	ctx := context.Background()

	// Create isolated temporary directory (auto-cleaned up)
	tmpDir := t.TempDir()

	// Initialize Git repository; the workspace identity comes from the Git root
	cmd := exec.Command("git", "init")
	cmd.Dir = tmpDir
	require.NoError(t, cmd.Run(), "Failed to initialize Git repository")

	// Configure Git
	exec.Command("git", "-C", tmpDir, "config", "user.email", "test@drey.local").Run()
	exec.Command("git", "-C", tmpDir, "config", "user.name", "Drey Test").Run()

	// Create initial commit
	testFile := filepath.Join(tmpDir, "README.md")
	require.NoError(t, os.WriteFile(testFile, []byte("# Test Project\n"), 0644))
	exec.Command("git", "-C", tmpDir, "add", ".").Run()
	exec.Command("git", "-C", tmpDir, "commit", "-m", "Initial commit").Run()

	// Write drey.yml
	dreyYMLPath := filepath.Join(tmpDir, "drey.yml")
	require.NoError(t, os.WriteFile(dreyYMLPath, []byte(dreyYML), 0644), "Failed to write drey.yml")

	// Change to test directory
	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir), "Failed to change to test directory")

	// Generate unique instance name with microseconds for uniqueness
	instanceName := fmt.Sprintf("test-e2e-%s", time.Now().Format("20060102-150405-000000"))

	// Get Docker client
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	require.NoError(t, err, "Failed to create Docker client")

	env := &E2EEnvironment{
		T:            t,
		TmpDir:       tmpDir,
		OriginalDir:  originalDir,
		InstanceName: instanceName,
		DockerClient: cli,
		Ctx:          ctx,
	}

	// Register cleanup
	t.Cleanup(func() {
		if env.Ledger != nil {
			env.Ledger.Close()
		}
		if env.DockerClient != nil {
			env.DockerClient.Close()
		}
		os.Chdir(originalDir)
	})

	return env
}

// InitializeLedgerClient connects to the instance's ledger for this environment
func (env *E2EEnvironment) InitializeLedgerClient() {
	var err error
	env.RedisPort, err = instance.GetInstanceRedisPort(env.Ctx, env.DockerClient, env.InstanceName)
	require.NoError(env.T, err, "Failed to get Redis port")

	redisOpts := &redis.Options{
		Addr: fmt.Sprintf("localhost:%d", env.RedisPort),
	}

	env.Ledger, err = ledger.NewClient(redisOpts, env.InstanceName)
	require.NoError(env.T, err, "Failed to create ledger client")
}

// WaitForContainer waits for a component container to be running (up to 30 seconds)
func (env *E2EEnvironment) WaitForContainer(component string) {
	fullName := fmt.Sprintf("drey-%s-%s", component, env.InstanceName)

	for i := 0; i < 30; i++ {
		containers, err := env.DockerClient.ContainerList(env.Ctx, types.ContainerListOptions{All: true})
		if err == nil {
			for _, container := range containers {
				for _, name := range container.Names {
					if name == "/"+fullName && container.State == "running" {
						env.T.Logf("✓ Container %s is running", fullName)
						return
					}
				}
			}
		}
		time.Sleep(1 * time.Second)
	}

	require.Fail(env.T, fmt.Sprintf("Container %s did not start within 30 seconds", fullName))
}

// WaitForEventKind polls the journal for an event of the given kind (up to 60 seconds)
func (env *E2EEnvironment) WaitForEventKind(kind ledger.EventKind) *ledger.Event {
	require.NotNil(env.T, env.Ledger, "Ledger client not initialized - call InitializeLedgerClient first")

	env.T.Logf("Waiting for journal event of kind '%s'...", kind)

	for i := 0; i < 60; i++ {
		events, err := env.Ledger.ListEvents(env.Ctx, 0, -1)
		if err == nil {
			for _, evt := range events {
				if evt.Kind == kind {
					env.T.Logf("✓ Found event: kind=%s, seq=%d, character=%d", evt.Kind, evt.Seq, evt.CharacterID)
					return evt
				}
			}
		}
		time.Sleep(1 * time.Second)
	}

	require.Fail(env.T, fmt.Sprintf("Journal event of kind '%s' not found within 60 seconds", kind))
	return nil
}

// WaitForJournalLen polls until the journal holds at least n events (up to 60 seconds)
func (env *E2EEnvironment) WaitForJournalLen(n int64) {
	require.NotNil(env.T, env.Ledger, "Ledger client not initialized - call InitializeLedgerClient first")

	for i := 0; i < 60; i++ {
		length, err := env.Ledger.JournalLen(env.Ctx)
		if err == nil && length >= n {
			env.T.Logf("✓ Journal holds %d events", length)
			return
		}
		time.Sleep(1 * time.Second)
	}

	require.Fail(env.T, fmt.Sprintf("Journal did not reach %d events within 60 seconds", n))
}

// DefaultDreyYML returns a minimal drey.yml with engine defaults
func DefaultDreyYML() string {
	return `version: "1.0"
services:
  redis:
    image: redis:7-alpine
`
}

// ShortCooldownDreyYML returns a drey.yml whose evolution cooldown is short
// enough for scripted evolution tests
func ShortCooldownDreyYML() string {
	return `version: "1.0"
simulation:
  evolution_cooldown: "100ms"
services:
  redis:
    image: redis:7-alpine
`
}
