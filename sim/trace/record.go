// Package trace provides decision-trace recording for scheduling and contention analysis.
// This package has no dependencies on sim/ or its sub-packages; it stores pure data types.
package trace

// DispatchRecord captures a process being handed the CPU.
type DispatchRecord struct {
	ProcessID string `yaml:"pid"`
	Clock     int64  `yaml:"clock"`
	Policy    string `yaml:"policy"`
	Reason    string `yaml:"reason"`    // "arrival-order", "shortest-burst", "quantum-slice", ...
	ReadyLen  int    `yaml:"ready_len"` // ready processes left behind at dispatch time
}

// PreemptionRecord captures a running process being displaced.
type PreemptionRecord struct {
	Clock     int64  `yaml:"clock"`
	Preempted string `yaml:"preempted"`
	By        string `yaml:"by,omitempty"` // empty when the process was preempted by quantum expiry
	Remaining int64  `yaml:"remaining"`    // remaining cycles of the preempted process
	Reason    string `yaml:"reason"`
}

// AgingRecord captures one priority improvement at an aging checkpoint.
type AgingRecord struct {
	ProcessID string `yaml:"pid"`
	Clock     int64  `yaml:"clock"`
	From      int    `yaml:"from"`
	To        int    `yaml:"to"`
}

// ContentionOutcome classifies a contention record.
type ContentionOutcome string

const (
	OutcomeAcquired ContentionOutcome = "acquired"
	OutcomeBlocked  ContentionOutcome = "blocked"
	OutcomeReleased ContentionOutcome = "released"
)

// ContentionRecord captures an acquire, block or release on a resource.
type ContentionRecord struct {
	ProcessID string            `yaml:"pid"`
	Resource  string            `yaml:"resource"`
	Clock     int64             `yaml:"clock"`
	Progress  int64             `yaml:"progress"` // the process's own executed-cycle count at this point
	Outcome   ContentionOutcome `yaml:"outcome"`
	Available int               `yaml:"available"` // availability after the operation
	QueueLen  int               `yaml:"queue_len"` // wait queue length after the operation
}
