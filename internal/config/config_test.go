package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Create temporary directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "drey.yml")

	// Write valid config
	validConfig := `version: "1.0"
simulation:
  evolution_cooldown: "30m"
  default_mutation_rate: 25
  mutation_byte_ceiling: 120
services:
  redis:
    image: "redis:7.2-alpine"
`
	err := os.WriteFile(configPath, []byte(validConfig), 0644)
	require.NoError(t, err)

	// Load and validate
	config, err := Load(configPath)
	require.NoError(t, err)
	assert.NotNil(t, config)
	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, 30*time.Minute, config.Simulation.Cooldown())
	assert.Equal(t, 25, *config.Simulation.DefaultMutationRate)
	assert.Equal(t, 120, *config.Simulation.MutationByteCeiling)
	assert.Equal(t, "redis:7.2-alpine", config.RedisImage())
}

func TestLoad_MinimalConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "drey.yml")

	err := os.WriteFile(configPath, []byte("version: \"1.0\"\n"), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	require.NoError(t, err)

	// All simulation defaults applied
	require.NotNil(t, config.Simulation)
	assert.Equal(t, DefaultEvolutionCooldown, config.Simulation.Cooldown())
	assert.Equal(t, DefaultMutationRate, *config.Simulation.DefaultMutationRate)
	assert.Equal(t, DefaultMutationCeiling, *config.Simulation.MutationByteCeiling)
	assert.Equal(t, "redis:7-alpine", config.RedisImage())
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/drey.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "drey.yml")

	// Write invalid YAML
	invalidYAML := `version: "1.0"
simulation:
  - this is invalid
    yaml syntax
`
	err := os.WriteFile(configPath, []byte(invalidYAML), 0644)
	require.NoError(t, err)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate_UnsupportedVersion(t *testing.T) {
	config := &DreyConfig{Version: "2.0"}

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version: 2.0")
}

func TestValidate_MissingVersion(t *testing.T) {
	config := &DreyConfig{}

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestValidate_BadCooldown(t *testing.T) {
	config := &DreyConfig{
		Version:    "1.0",
		Simulation: &SimulationConfig{EvolutionCooldown: "soon"},
	}

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid duration")
}

func TestValidate_NegativeCooldown(t *testing.T) {
	config := &DreyConfig{
		Version:    "1.0",
		Simulation: &SimulationConfig{EvolutionCooldown: "-10m"},
	}

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestValidate_MutationRateRange(t *testing.T) {
	zero := 0
	config := &DreyConfig{
		Version:    "1.0",
		Simulation: &SimulationConfig{DefaultMutationRate: &zero},
	}

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "default_mutation_rate must be between 1 and 100")

	over := 101
	config.Simulation.DefaultMutationRate = &over
	err = config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "default_mutation_rate must be between 1 and 100")
}

func TestValidate_MutationCeilingRange(t *testing.T) {
	over := 256
	config := &DreyConfig{
		Version:    "1.0",
		Simulation: &SimulationConfig{MutationByteCeiling: &over},
	}

	err := config.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mutation_byte_ceiling must be between 1 and 255")
}

func TestDefault(t *testing.T) {
	config := Default()

	assert.Equal(t, "1.0", config.Version)
	assert.Equal(t, DefaultEvolutionCooldown, config.Simulation.Cooldown())
	assert.Equal(t, DefaultMutationRate, *config.Simulation.DefaultMutationRate)
	assert.Equal(t, "redis:7-alpine", config.RedisImage())
}
