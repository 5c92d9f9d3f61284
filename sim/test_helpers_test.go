package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mustRun builds an engine over procs with the default configuration
// (optionally adjusted by mutate) and runs policy.
func mustRun(t *testing.T, procs []Process, policy Policy, mutate ...func(*SimConfig)) *Schedule {
	t.Helper()
	cfg := DefaultSimConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	engine, err := NewEngine(procs, cfg)
	require.NoError(t, err)
	sched, err := engine.Run(policy)
	require.NoError(t, err)
	return sched
}

// processByID returns the finalized copy of id from a schedule.
func processByID(t *testing.T, sched *Schedule, id string) Process {
	t.Helper()
	for _, p := range sched.Processes {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("process %s not in schedule", id)
	return Process{}
}

// mixedWorkload exercises idle gaps, equal arrivals, equal bursts and a zero burst.
func mixedWorkload() []Process {
	return []Process{
		NewProcess("P1", 5, 0, 3),
		NewProcess("P2", 3, 0, 1),
		NewProcess("P3", 3, 2, 2),
		NewProcess("P4", 0, 4, 2),
		NewProcess("P5", 6, 20, 1),
		NewProcess("P6", 2, 21, 4),
		NewProcess("P7", 1, 21, 4),
	}
}
