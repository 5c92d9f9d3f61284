// Defines the Process struct that models a single schedulable job in the simulation.
// Tracks burst, arrival and priority plus the timing fields finalized by each run.

package sim

import (
	"fmt"
)

// ProcessState represents the lifecycle state of a process within one run.
type ProcessState string

const (
	StatePending   ProcessState = "pending"
	StateReady     ProcessState = "ready"
	StateRunning   ProcessState = "running"
	StateCompleted ProcessState = "completed"
)

// Process models one job's lifecycle in the simulation.
// ID, BurstTime, ArrivalTime and Priority are the canonical loaded values and
// are never changed by a run. The remaining fields are per-run state, reset by
// Reset before every run and finalized by the engine.
type Process struct {
	ID          string `json:"id"`           // Unique identifier
	BurstTime   int64  `json:"burst_time"`   // Total CPU cycles needed
	ArrivalTime int64  `json:"arrival_time"` // Cycle at which the process becomes ready
	Priority    int    `json:"priority"`     // Lower value = higher priority

	State          ProcessState `json:"state"`
	RemainingTime  int64        `json:"remaining_time"`  // Cycles still to execute, in [0, BurstTime]
	WaitingTime    int64        `json:"waiting_time"`    // CompletionTime - ArrivalTime - BurstTime
	CompletionTime int64        `json:"completion_time"` // Set once, when RemainingTime first reaches 0
	StartTime      int64        `json:"start_time"`      // First dispatch cycle; -1 until dispatched
	Started        bool         `json:"started"`
}

// NewProcess builds a process with its per-run state already reset.
func NewProcess(id string, burst, arrival int64, priority int) Process {
	p := Process{ID: id, BurstTime: burst, ArrivalTime: arrival, Priority: priority}
	p.Reset()
	return p
}

// Reset restores every per-run field to its initial value.
func (p *Process) Reset() {
	p.State = StatePending
	p.RemainingTime = p.BurstTime
	p.WaitingTime = 0
	p.CompletionTime = 0
	p.StartTime = -1
	p.Started = false
}

// Completed reports whether the process has been finalized in the current run.
func (p *Process) Completed() bool {
	return p.State == StateCompleted
}

// ResponseTime is the delay between arrival and first dispatch.
// Zero for a process that never started.
func (p *Process) ResponseTime() int64 {
	if !p.Started {
		return 0
	}
	return p.StartTime - p.ArrivalTime
}

// TurnaroundTime is the delay between arrival and completion.
// Zero for a process that has not completed.
func (p *Process) TurnaroundTime() int64 {
	if !p.Completed() {
		return 0
	}
	return p.CompletionTime - p.ArrivalTime
}

// Validate checks the canonical fields of a loaded process.
func (p *Process) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("process id must not be empty")
	}
	if p.BurstTime < 0 {
		return fmt.Errorf("process %s: burst time must be non-negative, got %d", p.ID, p.BurstTime)
	}
	if p.ArrivalTime < 0 {
		return fmt.Errorf("process %s: arrival time must be non-negative, got %d", p.ID, p.ArrivalTime)
	}
	return nil
}

// This method returns a human-readable string representation of a Process.
func (p Process) String() string {
	return fmt.Sprintf("Process: (ID: %s, State: %s, Burst: %d, Arrival: %d, Priority: %d, Remaining: %d)",
		p.ID, p.State, p.BurstTime, p.ArrivalTime, p.Priority, p.RemainingTime)
}

// CloneProcesses returns a deep copy of procs with every per-run field reset.
func CloneProcesses(procs []Process) []Process {
	out := make([]Process, len(procs))
	copy(out, procs)
	for i := range out {
		out[i].Reset()
	}
	return out
}
