package sim

import (
	"fmt"

	"github.com/inference-sim/cpu-sim/sim/trace"
)

const (
	// DefaultQuantum is the Round Robin time slice used when none is configured.
	DefaultQuantum = 2
	// DefaultAgingInterval is the number of elapsed cycles between aging checkpoints
	// of the priority policy.
	DefaultAgingInterval int64 = 5
)

// SimConfig groups engine parameters shared by every policy run.
type SimConfig struct {
	Quantum       int64                  // Round Robin slice length (must be >= 1)
	AgingInterval int64                  // cycles between priority aging checkpoints (must be >= 1)
	Trace         *trace.SimulationTrace // optional decision trace; nil disables recording
}

// DefaultSimConfig returns the configuration used when nothing is overridden.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Quantum:       DefaultQuantum,
		AgingInterval: DefaultAgingInterval,
	}
}

// Validate checks parameter ranges.
func (c SimConfig) Validate() error {
	if c.Quantum < 1 {
		return &InvalidConfigurationError{Field: "quantum", Reason: fmt.Sprintf("must be >= 1, got %d", c.Quantum)}
	}
	if c.AgingInterval < 1 {
		return &InvalidConfigurationError{Field: "aging interval", Reason: fmt.Sprintf("must be >= 1, got %d", c.AgingInterval)}
	}
	return nil
}
