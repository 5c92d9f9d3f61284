package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDispatches      int            `json:"total_dispatches" yaml:"total_dispatches"`
	Preemptions          int            `json:"preemptions" yaml:"preemptions"`
	AgingEvents          int            `json:"aging_events" yaml:"aging_events"`
	Acquisitions         int            `json:"acquisitions" yaml:"acquisitions"`
	Blocks               int            `json:"blocks" yaml:"blocks"`
	Releases             int            `json:"releases" yaml:"releases"`
	UniqueProcesses      int            `json:"unique_processes" yaml:"unique_processes"`
	DispatchDistribution map[string]int `json:"dispatch_distribution" yaml:"dispatch_distribution"` // process ID → number of dispatches
	BlocksByResource     map[string]int `json:"blocks_by_resource" yaml:"blocks_by_resource"`       // resource name → blocked steps
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		DispatchDistribution: make(map[string]int),
		BlocksByResource:     make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDispatches = len(st.Dispatches)
	for _, d := range st.Dispatches {
		summary.DispatchDistribution[d.ProcessID]++
	}
	summary.Preemptions = len(st.Preemptions)
	summary.AgingEvents = len(st.Agings)

	for _, c := range st.Contentions {
		switch c.Outcome {
		case OutcomeAcquired:
			summary.Acquisitions++
		case OutcomeBlocked:
			summary.Blocks++
			summary.BlocksByResource[c.Resource]++
		case OutcomeReleased:
			summary.Releases++
		}
	}

	summary.UniqueProcesses = len(summary.DispatchDistribution)

	return summary
}
