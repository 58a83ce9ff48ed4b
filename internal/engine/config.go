package engine

import (
	"github.com/PossumXI/Asgard/Heimdall/internal/filter"
	"github.com/PossumXI/Asgard/Heimdall/internal/grid"
	"github.com/PossumXI/Asgard/Heimdall/internal/risk"
)

// Config holds every engine-construction-time knob.
type Config struct {
	BaseSafetyBuffer float64
	ReactionTime     float64
	MaxAccel         float64
	GPSUncertainty   float64

	CoarseBuffer float64
	CoarseStep   float64

	GridCellSize float64
	GridTimeStep float64

	VRef   float64
	DRef   float64
	TTCRef float64
}

// DefaultConfig returns the reference engine defaults.
func DefaultConfig() Config {
	return Config{
		BaseSafetyBuffer: 50.0,
		ReactionTime:     2.5,
		MaxAccel:         5.0,
		GPSUncertainty:   10.0,
		CoarseBuffer:     200.0,
		CoarseStep:       10.0,
		GridCellSize:     100.0,
		GridTimeStep:     1.0,
		VRef:             30.0,
		DRef:             10.0,
		TTCRef:           10.0,
	}
}

// validate rejects non-positive buffers or steps. Other fields have no
// positivity requirement (accel/uncertainty could in principle be zero)
// but the ones that divide into rates or gate loops must be > 0.
func (c Config) validate() error {
	checks := []struct {
		name string
		val  float64
	}{
		{"base_safety_buffer", c.BaseSafetyBuffer},
		{"coarse_buffer", c.CoarseBuffer},
		{"coarse_step", c.CoarseStep},
		{"grid_cell_size", c.GridCellSize},
		{"grid_time_step", c.GridTimeStep},
		{"v_ref", c.VRef},
		{"d_ref", c.DRef},
		{"ttc_ref", c.TTCRef},
	}
	for _, c := range checks {
		if c.val <= 0 {
			return &ConfigurationError{Field: c.name, Value: c.val, Reason: "must be > 0"}
		}
	}
	return nil
}

func (c Config) filterConfig() filter.Config {
	return filter.Config{CoarseBuffer: c.CoarseBuffer, CoarseStep: c.CoarseStep}
}

func (c Config) gridConfig() grid.Config {
	return grid.Config{CellSize: c.GridCellSize, TimeStep: c.GridTimeStep}
}

func (c Config) riskConfig() risk.Config {
	return risk.Config{
		BaseSafetyBuffer: c.BaseSafetyBuffer,
		ReactionTime:     c.ReactionTime,
		MaxAccel:         c.MaxAccel,
		GPSUncertainty:   c.GPSUncertainty,
		VRef:             c.VRef,
		DRef:             c.DRef,
		TTCRef:           c.TTCRef,
		GridTimeStep:     c.GridTimeStep,
	}
}
