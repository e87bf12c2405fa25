package simulation

import (
	"errors"
	"fmt"
	"time"

	"roadnet-sim/pkg/agent"
)

var (
	// ErrNilGraph is returned when a world is created without a road graph
	ErrNilGraph = errors.New("simulation: nil graph")

	// ErrEmptyGraph is returned when the road graph has no nodes
	ErrEmptyGraph = errors.New("simulation: graph has no nodes")

	// ErrNoRoads is returned by Spawn when no node has an outgoing road
	ErrNoRoads = errors.New("simulation: no node has a road to spawn on")

	// ErrInvalidConfig wraps every configuration validation failure
	ErrInvalidConfig = errors.New("simulation: invalid config")
)

// Config holds the world parameters
type Config struct {
	AgentCount       int           `json:"agentCount"`       // agents spawned by the binary at startup
	MaxRouteAttempts int           `json:"maxRouteAttempts"` // goals tried before an agent roams instead
	SpawnJitter      float64       `json:"spawnJitter"`      // max X/Z offset from the spawn node
	TickInterval     time.Duration `json:"tickInterval"`
	Workers          int           `json:"workers"` // 0 uses GOMAXPROCS
	AgentRadius      float64       `json:"agentRadius"`
	Seed             int64         `json:"seed"` // 0 picks a time-based seed
	Agent            agent.Config  `json:"agent"`
}

// DefaultConfig returns the reference world parameters
func DefaultConfig() Config {
	return Config{
		AgentCount:       2,
		MaxRouteAttempts: 10,
		SpawnJitter:      0.5,
		TickInterval:     20 * time.Millisecond,
		AgentRadius:      1.0,
		Agent:            agent.DefaultConfig(),
	}
}

// Validate checks that every parameter is usable
func (c Config) Validate() error {
	switch {
	case c.AgentCount < 0:
		return fmt.Errorf("%w: agentCount must be >= 0, got %d", ErrInvalidConfig, c.AgentCount)
	case c.MaxRouteAttempts < 0:
		return fmt.Errorf("%w: maxRouteAttempts must be >= 0, got %d", ErrInvalidConfig, c.MaxRouteAttempts)
	case c.SpawnJitter < 0:
		return fmt.Errorf("%w: spawnJitter must be >= 0, got %v", ErrInvalidConfig, c.SpawnJitter)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: tickInterval must be > 0, got %v", ErrInvalidConfig, c.TickInterval)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	case c.AgentRadius <= 0:
		return fmt.Errorf("%w: agentRadius must be > 0, got %v", ErrInvalidConfig, c.AgentRadius)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
