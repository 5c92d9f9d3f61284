package sim

import (
	"fmt"
	"strings"
)

// IntervalState tags what a process was doing during an interval.
type IntervalState string

const (
	// IntervalRunning is plain CPU execution. The engine only emits this state.
	IntervalRunning IntervalState = "RUNNING"
	// IntervalWaiting is a cycle spent blocked on an unavailable resource.
	IntervalWaiting IntervalState = "WAITING"
	// IntervalAccessed is a cycle in which a resource was acquired.
	IntervalAccessed IntervalState = "ACCESSED"
)

// Interval is one entry of the execution log: ProcessID held the CPU over the
// half-open cycle range [Start, End).
type Interval struct {
	ProcessID string        `json:"pid"`
	Start     int64         `json:"start"`
	End       int64         `json:"end"`
	State     IntervalState `json:"state"`
}

// Duration returns End - Start.
func (iv Interval) Duration() int64 {
	return iv.End - iv.Start
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s[%d-%d]%s", iv.ProcessID, iv.Start, iv.End, stateSuffix(iv.State))
}

func stateSuffix(s IntervalState) string {
	if s == IntervalRunning || s == "" {
		return ""
	}
	return ":" + string(s)
}

// FormatIntervals renders a log as a compact, space separated string,
// e.g. "P1[0-4] P2[5-8]".
func FormatIntervals(ivs []Interval) string {
	parts := make([]string, len(ivs))
	for i, iv := range ivs {
		parts[i] = iv.String()
	}
	return strings.Join(parts, " ")
}

// DurationByProcess sums the durations of intervals in the given state per process.
func DurationByProcess(ivs []Interval, state IntervalState) map[string]int64 {
	out := make(map[string]int64)
	for _, iv := range ivs {
		if iv.State == state {
			out[iv.ProcessID] += iv.Duration()
		}
	}
	return out
}

// MaxEnd returns the latest End cycle in the log, or 0 for an empty log.
func MaxEnd(ivs []Interval) int64 {
	var end int64
	for _, iv := range ivs {
		if iv.End > end {
			end = iv.End
		}
	}
	return end
}
