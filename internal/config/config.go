package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Validate when drey.yml omits the simulation block or
// individual entries. The engine packages carry matching fallbacks for
// callers that bypass configuration entirely.
const (
	DefaultEvolutionCooldown = time.Hour
	DefaultMutationRate      = 10
	DefaultMutationCeiling   = 126
)

// DreyConfig represents the top-level drey.yml configuration
type DreyConfig struct {
	Version    string            `yaml:"version"`
	Simulation *SimulationConfig `yaml:"simulation,omitempty"`
	Services   *ServicesConfig   `yaml:"services,omitempty"`
}

// SimulationConfig tunes the simulation engines
type SimulationConfig struct {
	EvolutionCooldown   string `yaml:"evolution_cooldown,omitempty"`    // Duration string, e.g. "1h", "30m"
	DefaultMutationRate *int   `yaml:"default_mutation_rate,omitempty"` // Percentage 1-100, default 10
	MutationByteCeiling *int   `yaml:"mutation_byte_ceiling,omitempty"` // Byte value 1-255, default 126

	cooldown time.Duration // parsed by Validate
}

// Cooldown returns the parsed evolution cooldown. Only valid after Validate.
func (s *SimulationConfig) Cooldown() time.Duration {
	return s.cooldown
}

// ServicesConfig specifies service-level overrides
type ServicesConfig struct {
	Redis *ServiceOverride `yaml:"redis,omitempty"`
}

// ServiceOverride allows overriding a default service image
type ServiceOverride struct {
	Image string `yaml:"image,omitempty"`
}

// Validate performs strict validation on the configuration and applies
// defaults for omitted simulation entries.
func (c *DreyConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Apply default simulation config if missing
	if c.Simulation == nil {
		c.Simulation = &SimulationConfig{}
	}

	if err := c.Simulation.validate(); err != nil {
		return err
	}

	return nil
}

func (s *SimulationConfig) validate() error {
	if s.EvolutionCooldown == "" {
		s.cooldown = DefaultEvolutionCooldown
	} else {
		cooldown, err := time.ParseDuration(s.EvolutionCooldown)
		if err != nil {
			return fmt.Errorf("simulation.evolution_cooldown is not a valid duration: %s", s.EvolutionCooldown)
		}
		if cooldown <= 0 {
			return fmt.Errorf("simulation.evolution_cooldown must be positive, got %s", s.EvolutionCooldown)
		}
		s.cooldown = cooldown
	}

	if s.DefaultMutationRate == nil {
		rate := DefaultMutationRate
		s.DefaultMutationRate = &rate
	}
	if *s.DefaultMutationRate < 1 || *s.DefaultMutationRate > 100 {
		return fmt.Errorf("simulation.default_mutation_rate must be between 1 and 100, got %d", *s.DefaultMutationRate)
	}

	if s.MutationByteCeiling == nil {
		ceiling := DefaultMutationCeiling
		s.MutationByteCeiling = &ceiling
	}
	if *s.MutationByteCeiling < 1 || *s.MutationByteCeiling > 255 {
		return fmt.Errorf("simulation.mutation_byte_ceiling must be between 1 and 255, got %d", *s.MutationByteCeiling)
	}

	return nil
}

// RedisImage returns the Redis image to run, honoring the services override.
func (c *DreyConfig) RedisImage() string {
	if c.Services != nil && c.Services.Redis != nil && c.Services.Redis.Image != "" {
		return c.Services.Redis.Image
	}
	return "redis:7-alpine"
}

// Load reads and validates drey.yml from the specified path
func Load(path string) (*DreyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config DreyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration a missing drey.yml implies: version 1.0
// with every simulation default applied.
func Default() *DreyConfig {
	config := &DreyConfig{Version: "1.0"}
	if err := config.Validate(); err != nil {
		panic(err) // static config, cannot fail
	}
	return config
}
