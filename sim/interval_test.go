package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterval_String_StateSuffix(t *testing.T) {
	assert.Equal(t, "P1[0-4]", Interval{ProcessID: "P1", Start: 0, End: 4, State: IntervalRunning}.String())
	assert.Equal(t, "P2[3-4]:WAITING", Interval{ProcessID: "P2", Start: 3, End: 4, State: IntervalWaiting}.String())
	assert.Equal(t, "P2[4-5]:ACCESSED", Interval{ProcessID: "P2", Start: 4, End: 5, State: IntervalAccessed}.String())
}

func TestDurationByProcess_FiltersByState(t *testing.T) {
	ivs := []Interval{
		{ProcessID: "P1", Start: 0, End: 2, State: IntervalRunning},
		{ProcessID: "P1", Start: 2, End: 3, State: IntervalAccessed},
		{ProcessID: "P2", Start: 3, End: 4, State: IntervalWaiting},
		{ProcessID: "P1", Start: 4, End: 7, State: IntervalRunning},
	}

	assert.Equal(t, map[string]int64{"P1": 5}, DurationByProcess(ivs, IntervalRunning))
	assert.Equal(t, map[string]int64{"P2": 1}, DurationByProcess(ivs, IntervalWaiting))
	assert.Equal(t, int64(7), MaxEnd(ivs))
	assert.Equal(t, int64(0), MaxEnd(nil))
}
