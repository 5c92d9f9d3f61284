// Aggregates per-run scheduling metrics: averages over finalized processes plus
// CPU-level figures derived from the interval log.

package sim

import (
	"fmt"
	"io"
)

// Metrics summarizes one schedule. Averages are taken over the completed
// processes and are 0 for an empty set.
type Metrics struct {
	Processes             int     `json:"processes"`
	AverageWaitingTime    float64 `json:"average_waiting_time"`
	AverageCompletionTime float64 `json:"average_completion_time"`
	AverageResponseTime   float64 `json:"average_response_time"`
	AverageTurnaroundTime float64 `json:"average_turnaround_time"`
	P90WaitingTime        float64 `json:"p90_waiting_time"`
	Makespan              int64   `json:"makespan"`         // end of the last interval
	BusyCycles            int64   `json:"busy_cycles"`      // cycles covered by RUNNING or ACCESSED intervals
	Utilization           float64 `json:"utilization"`      // BusyCycles / Makespan
	ContextSwitches       int     `json:"context_switches"` // adjacent intervals owned by different processes
}

// ComputeMetrics derives Metrics from finalized processes and their interval log.
func ComputeMetrics(procs []Process, intervals []Interval) Metrics {
	m := Metrics{}

	waiting := make([]int64, 0, len(procs))
	completion := make([]int64, 0, len(procs))
	response := make([]int64, 0, len(procs))
	turnaround := make([]int64, 0, len(procs))
	for i := range procs {
		p := &procs[i]
		if !p.Completed() {
			continue
		}
		waiting = append(waiting, p.WaitingTime)
		completion = append(completion, p.CompletionTime)
		response = append(response, p.ResponseTime())
		turnaround = append(turnaround, p.TurnaroundTime())
	}
	m.Processes = len(waiting)
	m.AverageWaitingTime = CalculateMean(waiting)
	m.AverageCompletionTime = CalculateMean(completion)
	m.AverageResponseTime = CalculateMean(response)
	m.AverageTurnaroundTime = CalculateMean(turnaround)
	m.P90WaitingTime = CalculatePercentile(waiting, 90)

	m.Makespan = MaxEnd(intervals)
	for i, iv := range intervals {
		if iv.State != IntervalWaiting {
			m.BusyCycles += iv.Duration()
		}
		if i > 0 && intervals[i-1].ProcessID != iv.ProcessID {
			m.ContextSwitches++
		}
	}
	if m.Makespan > 0 {
		m.Utilization = float64(m.BusyCycles) / float64(m.Makespan)
	}
	return m
}

// Print writes a human-readable metrics block to w.
func (m Metrics) Print(w io.Writer, label string) {
	_, _ = fmt.Fprintf(w, "=== %s Metrics ===\n", label)
	_, _ = fmt.Fprintf(w, "Completed Processes    : %d\n", m.Processes)
	if m.Processes > 0 {
		_, _ = fmt.Fprintf(w, "Average Waiting Time   : %.2f\n", m.AverageWaitingTime)
		_, _ = fmt.Fprintf(w, "Average Completion Time: %.2f\n", m.AverageCompletionTime)
		_, _ = fmt.Fprintf(w, "Average Response Time  : %.2f\n", m.AverageResponseTime)
		_, _ = fmt.Fprintf(w, "Makespan               : %d cycles\n", m.Makespan)
		_, _ = fmt.Fprintf(w, "CPU Utilization        : %.1f%%\n", m.Utilization*100)
	}
}
