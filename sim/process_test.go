package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProcess_StartsReset(t *testing.T) {
	p := NewProcess("P1", 4, 2, 3)

	assert.Equal(t, StatePending, p.State)
	assert.Equal(t, int64(4), p.RemainingTime)
	assert.Equal(t, int64(-1), p.StartTime)
	assert.False(t, p.Started)
	assert.Equal(t, int64(0), p.ResponseTime())
	assert.Equal(t, int64(0), p.TurnaroundTime())
}

func TestProcess_Validate(t *testing.T) {
	assert.NoError(t, (&Process{ID: "P1", BurstTime: 0, ArrivalTime: 0}).Validate())
	assert.Error(t, (&Process{ID: "", BurstTime: 1}).Validate())
	assert.Error(t, (&Process{ID: "P1", BurstTime: -1}).Validate())
	assert.Error(t, (&Process{ID: "P1", BurstTime: 1, ArrivalTime: -2}).Validate())
}

func TestCloneProcesses_IndependentAndReset(t *testing.T) {
	// GIVEN a finalized process
	src := []Process{NewProcess("P1", 4, 0, 2)}
	src[0].State = StateCompleted
	src[0].RemainingTime = 0
	src[0].CompletionTime = 4

	// WHEN cloned
	out := CloneProcesses(src)
	out[0].Priority = 9

	// THEN the clone is reset and does not alias the source
	assert.Equal(t, StatePending, out[0].State)
	assert.Equal(t, int64(4), out[0].RemainingTime)
	assert.Equal(t, 2, src[0].Priority)
	assert.Equal(t, StateCompleted, src[0].State)
}
