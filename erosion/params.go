// Package erosion degrades heightfields with two hydraulic models: a
// per-droplet sediment transport simulation and a whole-grid
// hydraulic+thermal relaxation simulation.
package erosion

import (
	"errors"
	"fmt"
)

// ErrInvalidParams wraps every parameter validation failure.
var ErrInvalidParams = errors.New("erosion: invalid parameters")

// DropletParams configures the per-droplet hydraulic model. Each droplet
// is an independent virtual raindrop; Iterations is the droplet count.
type DropletParams struct {
	Iterations      int
	Radius          float64
	Inertia         float64
	CapacityFactor  float64
	MinSlope        float64
	Gravity         float64
	EvaporationRate float64
	DepositionRate  float64
	ErosionRate     float64
	Seed            int64
}

// DefaultDropletParams returns the tuned droplet defaults.
func DefaultDropletParams() DropletParams {
	return DropletParams{
		Iterations:      50000,
		Radius:          2,
		Inertia:         0.05,
		CapacityFactor:  4,
		MinSlope:        0.01,
		Gravity:         4,
		EvaporationRate: 0.01,
		DepositionRate:  0.3,
		ErosionRate:     0.3,
		Seed:            42,
	}
}

// DropletPreset maps an intensity name to droplet parameters.
func DropletPreset(intensity string) (DropletParams, error) {
	p := DefaultDropletParams()
	switch intensity {
	case "light":
		p.Iterations = 10000
		p.ErosionRate = 0.2
	case "medium":
		p.Iterations = 50000
	case "heavy":
		p.Iterations = 150000
		p.ErosionRate = 0.4
	default:
		return DropletParams{}, fmt.Errorf("%w: unknown intensity %q", ErrInvalidParams, intensity)
	}
	return p, nil
}

// Validate rejects out-of-range parameters before any simulation state is
// created. Zero iterations is legal and makes Erode a no-op.
func (p DropletParams) Validate() error {
	switch {
	case p.Iterations < 0:
		return fmt.Errorf("%w: iterations must be >= 0, got %d", ErrInvalidParams, p.Iterations)
	case p.Radius < 0:
		return fmt.Errorf("%w: radius must be >= 0, got %v", ErrInvalidParams, p.Radius)
	case p.Inertia < 0 || p.Inertia > 1:
		return fmt.Errorf("%w: inertia must be in [0,1], got %v", ErrInvalidParams, p.Inertia)
	case p.CapacityFactor <= 0:
		return fmt.Errorf("%w: capacity factor must be positive, got %v", ErrInvalidParams, p.CapacityFactor)
	case p.MinSlope <= 0:
		return fmt.Errorf("%w: min slope must be positive, got %v", ErrInvalidParams, p.MinSlope)
	case p.Gravity <= 0:
		return fmt.Errorf("%w: gravity must be positive, got %v", ErrInvalidParams, p.Gravity)
	case p.EvaporationRate <= 0 || p.EvaporationRate >= 1:
		return fmt.Errorf("%w: evaporation rate must be in (0,1), got %v", ErrInvalidParams, p.EvaporationRate)
	case p.DepositionRate < 0 || p.DepositionRate > 1:
		return fmt.Errorf("%w: deposition rate must be in [0,1], got %v", ErrInvalidParams, p.DepositionRate)
	case p.ErosionRate < 0 || p.ErosionRate > 1:
		return fmt.Errorf("%w: erosion rate must be in [0,1], got %v", ErrInvalidParams, p.ErosionRate)
	}
	return nil
}

// HydroThermalParams configures the whole-grid model: uniform rainfall
// with sediment transport plus talus slope relaxation.
type HydroThermalParams struct {
	Iterations          int
	RainRate            float64
	EvaporationRate     float64
	SedimentCapacity    float64
	DissolveRate        float64
	DepositRate         float64
	ThermalAngleDegrees float64
	ThermalRate         float64
	Gravity             float64
	Seed                int64
}

// DefaultHydroThermalParams returns the tuned grid-model defaults.
func DefaultHydroThermalParams() HydroThermalParams {
	return HydroThermalParams{
		Iterations:          50,
		RainRate:            0.01,
		EvaporationRate:     0.1,
		SedimentCapacity:    1.0,
		DissolveRate:        0.1,
		DepositRate:         0.1,
		ThermalAngleDegrees: 30,
		ThermalRate:         0.1,
		Gravity:             9.81,
		Seed:                42,
	}
}

// Validate rejects out-of-range parameters before any simulation state is
// created.
func (p HydroThermalParams) Validate() error {
	switch {
	case p.Iterations < 1:
		return fmt.Errorf("%w: iterations must be >= 1, got %d", ErrInvalidParams, p.Iterations)
	case p.RainRate < 0:
		return fmt.Errorf("%w: rain rate must be >= 0, got %v", ErrInvalidParams, p.RainRate)
	case p.EvaporationRate < 0 || p.EvaporationRate > 1:
		return fmt.Errorf("%w: evaporation rate must be in [0,1], got %v", ErrInvalidParams, p.EvaporationRate)
	case p.SedimentCapacity < 0:
		return fmt.Errorf("%w: sediment capacity must be >= 0, got %v", ErrInvalidParams, p.SedimentCapacity)
	case p.DissolveRate < 0 || p.DissolveRate > 1:
		return fmt.Errorf("%w: dissolve rate must be in [0,1], got %v", ErrInvalidParams, p.DissolveRate)
	case p.DepositRate < 0 || p.DepositRate > 1:
		return fmt.Errorf("%w: deposit rate must be in [0,1], got %v", ErrInvalidParams, p.DepositRate)
	case p.ThermalAngleDegrees <= 0 || p.ThermalAngleDegrees >= 90:
		return fmt.Errorf("%w: thermal angle must be in (0,90) degrees, got %v", ErrInvalidParams, p.ThermalAngleDegrees)
	case p.ThermalRate < 0 || p.ThermalRate > 1:
		return fmt.Errorf("%w: thermal rate must be in [0,1], got %v", ErrInvalidParams, p.ThermalRate)
	case p.Gravity <= 0:
		return fmt.Errorf("%w: gravity must be positive, got %v", ErrInvalidParams, p.Gravity)
	}
	return nil
}
