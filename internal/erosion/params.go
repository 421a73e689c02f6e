package erosion

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is wrapped by Params.Validate.
var ErrInvalidParams = errors.New("erosion: invalid parameters")

// Params configures the droplet simulation.
type Params struct {
	Iterations      int   `yaml:"iterations"`
	Seed            int64 `yaml:"seed"`
	BrushRadius     int   `yaml:"brush_radius"`
	DropletLifetime int   `yaml:"droplet_lifetime"`
	// BorderSize keeps droplets away from the grid edge. It is raised to
	// BrushRadius when smaller so brushes never leave the grid.
	BorderSize int `yaml:"border_size"`

	Inertia                float64 `yaml:"inertia"`
	SedimentCapacityFactor float64 `yaml:"sediment_capacity_factor"`
	MinSedimentCapacity    float64 `yaml:"min_sediment_capacity"`
	DepositSpeed           float64 `yaml:"deposit_speed"`
	ErodeSpeed             float64 `yaml:"erode_speed"`
	EvaporateSpeed         float64 `yaml:"evaporate_speed"`
	Gravity                float64 `yaml:"gravity"`
	InitialWaterVolume     float64 `yaml:"initial_water_volume"`
	InitialSpeed           float64 `yaml:"initial_speed"`

	// BatchSize droplets are simulated concurrently against the same
	// snapshot; their changes are applied in droplet order before the next
	// batch starts. A batch size of 1 is fully sequential.
	BatchSize int `yaml:"batch_size"`
	Workers   int `yaml:"workers"`
}

// DefaultParams returns the tuning used by the flight terrain.
func DefaultParams() Params {
	return Params{
		Iterations:             20000,
		Seed:                   1,
		BrushRadius:            3,
		DropletLifetime:        30,
		BorderSize:             3,
		Inertia:                0.05,
		SedimentCapacityFactor: 4,
		MinSedimentCapacity:    0.01,
		DepositSpeed:           0.3,
		ErodeSpeed:             0.3,
		EvaporateSpeed:         0.01,
		Gravity:                4,
		InitialWaterVolume:     1,
		InitialSpeed:           1,
		BatchSize:              64,
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	switch {
	case p.Iterations < 0:
		return fmt.Errorf("%w: iterations cannot be negative", ErrInvalidParams)
	case p.BrushRadius < 1:
		return fmt.Errorf("%w: brush_radius must be at least 1", ErrInvalidParams)
	case p.DropletLifetime < 1:
		return fmt.Errorf("%w: droplet_lifetime must be at least 1", ErrInvalidParams)
	case p.Inertia < 0 || p.Inertia > 1:
		return fmt.Errorf("%w: inertia must be within [0,1]", ErrInvalidParams)
	case p.EvaporateSpeed < 0 || p.EvaporateSpeed > 1:
		return fmt.Errorf("%w: evaporate_speed must be within [0,1]", ErrInvalidParams)
	case p.DepositSpeed < 0 || p.ErodeSpeed < 0:
		return fmt.Errorf("%w: deposit_speed and erode_speed cannot be negative", ErrInvalidParams)
	case p.BatchSize < 0 || p.Workers < 0:
		return fmt.Errorf("%w: batch_size and workers cannot be negative", ErrInvalidParams)
	}
	return nil
}
