package agent

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps every agent configuration validation failure
var ErrInvalidConfig = errors.New("agent: invalid config")

// SpeedBand forces the speed to Speed when an obstruction is closer than Below
type SpeedBand struct {
	Below float64 `json:"below"`
	Speed float64 `json:"speed"`
}

// Config holds the navigation and collision-avoidance parameters.
// Distances are in world units, speeds in units per second.
type Config struct {
	BaseSpeed         float64     `json:"baseSpeed"`
	SpeedJitter       float64     `json:"speedJitter"`  // base speed is drawn from BaseSpeed ± SpeedJitter
	MinBaseSpeed      float64     `json:"minBaseSpeed"` // floor applied after the jitter
	DetectionDistance float64     `json:"detectionDistance"`
	ArrivalThreshold  float64     `json:"arrivalThreshold"`
	OncomingAngle     float64     `json:"oncomingAngle"` // degrees
	RecoveryRate      float64     `json:"recoveryRate"`  // speed regained per second
	Bands             []SpeedBand `json:"bands"`         // ascending by Below
}

// DefaultConfig returns the reference vehicle parameters
func DefaultConfig() Config {
	return Config{
		BaseSpeed:         8,
		SpeedJitter:       0.8,
		MinBaseSpeed:      6,
		DetectionDistance: 20,
		ArrivalThreshold:  0.2,
		OncomingAngle:     20,
		RecoveryRate:      1,
		Bands: []SpeedBand{
			{Below: 2, Speed: 0},
			{Below: 4, Speed: 1},
			{Below: 6, Speed: 2},
		},
	}
}

// Validate checks that every parameter is usable
func (c Config) Validate() error {
	switch {
	case c.BaseSpeed <= 0:
		return fmt.Errorf("%w: baseSpeed must be > 0, got %v", ErrInvalidConfig, c.BaseSpeed)
	case c.SpeedJitter < 0:
		return fmt.Errorf("%w: speedJitter must be >= 0, got %v", ErrInvalidConfig, c.SpeedJitter)
	case c.MinBaseSpeed < 0:
		return fmt.Errorf("%w: minBaseSpeed must be >= 0, got %v", ErrInvalidConfig, c.MinBaseSpeed)
	case c.DetectionDistance <= 0:
		return fmt.Errorf("%w: detectionDistance must be > 0, got %v", ErrInvalidConfig, c.DetectionDistance)
	case c.ArrivalThreshold <= 0:
		return fmt.Errorf("%w: arrivalThreshold must be > 0, got %v", ErrInvalidConfig, c.ArrivalThreshold)
	case c.OncomingAngle < 0 || c.OncomingAngle > 180:
		return fmt.Errorf("%w: oncomingAngle must be in [0, 180], got %v", ErrInvalidConfig, c.OncomingAngle)
	case c.RecoveryRate < 0:
		return fmt.Errorf("%w: recoveryRate must be >= 0, got %v", ErrInvalidConfig, c.RecoveryRate)
	}

	for i, b := range c.Bands {
		if b.Speed < 0 {
			return fmt.Errorf("%w: band %d has negative speed %v", ErrInvalidConfig, i, b.Speed)
		}
		if i > 0 && b.Below <= c.Bands[i-1].Below {
			return fmt.Errorf("%w: bands must be strictly ascending, band %d (%v) follows %v",
				ErrInvalidConfig, i, b.Below, c.Bands[i-1].Below)
		}
	}
	return nil
}
