package roadgen

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyNetwork is returned when a network has no waypoints to translate.
	// The owning simulation cannot start without topology.
	ErrEmptyNetwork = errors.New("roadgen: network has no waypoints")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("roadgen: invalid config")
)

// Config holds the generator parameters. Angles are in degrees.
type Config struct {
	MainChainLength       int     `json:"mainChainLength"`
	BranchLength          int     `json:"branchLength"`
	StepDistance          float64 `json:"stepDistance"`
	MaxAngleOffset        float64 `json:"maxAngleOffset"`
	ExpansionIterations   int     `json:"expansionIterations"`
	SpawnDistance         float64 `json:"spawnDistance"`
	MinConnectionAngle    float64 `json:"minConnectionAngle"`
	FreeDirectionAttempts int     `json:"freeDirectionAttempts"`
	IntersectThreshold    float64 `json:"intersectThreshold"`
	OriginTolerance       float64 `json:"originTolerance"`
	ParallelEpsilon       float64 `json:"parallelEpsilon"`
	Seed                  int64   `json:"seed"` // 0 picks a time-based seed
}

// DefaultConfig returns the parameters of the reference road generator
func DefaultConfig() Config {
	return Config{
		MainChainLength:       20,
		BranchLength:          10,
		StepDistance:          5,
		MaxAngleOffset:        10,
		ExpansionIterations:   1000,
		SpawnDistance:         10,
		MinConnectionAngle:    60,
		FreeDirectionAttempts: 10,
		IntersectThreshold:    0.5,
		OriginTolerance:       0.1,
		ParallelEpsilon:       1e-4,
	}
}

// Validate checks that every parameter is usable
func (c Config) Validate() error {
	switch {
	case c.MainChainLength < 0:
		return fmt.Errorf("%w: mainChainLength must be >= 0, got %d", ErrInvalidConfig, c.MainChainLength)
	case c.BranchLength < 0:
		return fmt.Errorf("%w: branchLength must be >= 0, got %d", ErrInvalidConfig, c.BranchLength)
	case c.StepDistance <= 0:
		return fmt.Errorf("%w: stepDistance must be > 0, got %v", ErrInvalidConfig, c.StepDistance)
	case c.MaxAngleOffset < 0 || c.MaxAngleOffset > 180:
		return fmt.Errorf("%w: maxAngleOffset must be in [0, 180], got %v", ErrInvalidConfig, c.MaxAngleOffset)
	case c.ExpansionIterations < 0:
		return fmt.Errorf("%w: expansionIterations must be >= 0, got %d", ErrInvalidConfig, c.ExpansionIterations)
	case c.SpawnDistance <= 0:
		return fmt.Errorf("%w: spawnDistance must be > 0, got %v", ErrInvalidConfig, c.SpawnDistance)
	case c.MinConnectionAngle < 0 || c.MinConnectionAngle > 180:
		return fmt.Errorf("%w: minConnectionAngle must be in [0, 180], got %v", ErrInvalidConfig, c.MinConnectionAngle)
	case c.FreeDirectionAttempts < 1:
		return fmt.Errorf("%w: freeDirectionAttempts must be >= 1, got %d", ErrInvalidConfig, c.FreeDirectionAttempts)
	case c.IntersectThreshold < 0:
		return fmt.Errorf("%w: intersectThreshold must be >= 0, got %v", ErrInvalidConfig, c.IntersectThreshold)
	case c.OriginTolerance < 0:
		return fmt.Errorf("%w: originTolerance must be >= 0, got %v", ErrInvalidConfig, c.OriginTolerance)
	case c.ParallelEpsilon <= 0:
		return fmt.Errorf("%w: parallelEpsilon must be > 0, got %v", ErrInvalidConfig, c.ParallelEpsilon)
	}
	return nil
}
