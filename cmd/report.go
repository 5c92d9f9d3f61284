package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/inference-sim/cpu-sim/sim"
	"github.com/inference-sim/cpu-sim/sim/contention"
	"github.com/inference-sim/cpu-sim/sim/session"
	"github.com/inference-sim/cpu-sim/sim/trace"
)

// report is everything one CLI invocation prints.
type report struct {
	Outcomes []*session.Outcome  `json:"outcomes"`
	Trace    *trace.TraceSummary `json:"trace,omitempty"`
}

func newReport(outcomes []*session.Outcome, st *trace.SimulationTrace) *report {
	r := &report{Outcomes: outcomes}
	if st != nil {
		r.Trace = trace.Summarize(st)
	}
	return r
}

func writeJSONReport(w io.Writer, r *report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func writeTableReport(w io.Writer, r *report) {
	for _, out := range r.Outcomes {
		_, _ = fmt.Fprintf(w, "=== %s (run %s) ===\n", out.Label(), out.RunID)
		if !out.Synchronized {
			_, _ = fmt.Fprintf(w, "Preemptive: %s\n", yesNo(out.Policy.Preemptive()))
		}
		if out.Policy == sim.PolicyRoundRobin {
			_, _ = fmt.Fprintf(w, "Quantum: %d\n", out.Quantum)
		}
		outputGantt(w, out.Intervals)
		outputProcessTable(w, out)
		if out.Contention != nil {
			outputCycleLog(w, out.Intervals)
			outputContention(w, out.Contention)
		}
		_, _ = fmt.Fprintln(w)
	}
	if len(r.Outcomes) > 1 {
		outputComparison(w, r.Outcomes)
	}
	if r.Trace != nil {
		_, _ = fmt.Fprintf(w, "Trace: %d dispatches, %d preemptions, %d aging events, %d acquisitions, %d blocks, %d releases\n",
			r.Trace.TotalDispatches, r.Trace.Preemptions, r.Trace.AgingEvents,
			r.Trace.Acquisitions, r.Trace.Blocks, r.Trace.Releases)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ganttCell is one column of the Gantt strip.
type ganttCell struct {
	label      string
	start, end int64
}

func ganttCells(intervals []sim.Interval) []ganttCell {
	cells := make([]ganttCell, 0, len(intervals))
	var clock int64
	for _, iv := range intervals {
		if iv.Start > clock {
			cells = append(cells, ganttCell{label: "idle", start: clock, end: iv.Start})
		}
		label := iv.ProcessID
		switch iv.State {
		case sim.IntervalWaiting:
			label += "(w)"
		case sim.IntervalAccessed:
			label += "(a)"
		}
		cells = append(cells, ganttCell{label: label, start: iv.Start, end: iv.End})
		clock = iv.End
	}
	return cells
}

func outputGantt(w io.Writer, intervals []sim.Interval) {
	_, _ = fmt.Fprintln(w, "Gantt schedule")
	cells := ganttCells(intervals)
	if len(cells) == 0 {
		_, _ = fmt.Fprintln(w, "(empty)")
		return
	}
	_, _ = fmt.Fprint(w, "|")
	for _, c := range cells {
		_, _ = fmt.Fprintf(w, "\t%s\t|", c.label)
	}
	_, _ = fmt.Fprintln(w)
	for i, c := range cells {
		_, _ = fmt.Fprint(w, c.start, "\t")
		if i == len(cells)-1 {
			_, _ = fmt.Fprint(w, c.end)
		}
	}
	_, _ = fmt.Fprintln(w)
}

func outputProcessTable(w io.Writer, out *session.Outcome) {
	ran := sim.DurationByProcess(out.Intervals, sim.IntervalRunning)
	accessed := sim.DurationByProcess(out.Intervals, sim.IntervalAccessed)
	rows := make([][]string, 0, len(out.Processes))
	for _, p := range out.Processes {
		start := "-"
		if p.Started {
			start = strconv.FormatInt(p.StartTime, 10)
		}
		rows = append(rows, []string{
			p.ID,
			strconv.Itoa(p.Priority),
			strconv.FormatInt(p.BurstTime, 10),
			strconv.FormatInt(p.ArrivalTime, 10),
			start,
			strconv.FormatInt(p.CompletionTime, 10),
			strconv.FormatInt(p.WaitingTime, 10),
			strconv.FormatInt(p.ResponseTime(), 10),
			strconv.FormatInt(p.TurnaroundTime(), 10),
			strconv.FormatInt(ran[p.ID]+accessed[p.ID], 10),
		})
	}

	m := out.Metrics
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Priority", "Burst", "Arrival", "Start", "Completion", "Wait", "Response", "Turnaround", "CPU"})
	table.AppendBulk(rows)
	table.SetFooter([]string{"", "", "", "", "Average",
		fmt.Sprintf("%.2f", m.AverageCompletionTime),
		fmt.Sprintf("%.2f", m.AverageWaitingTime),
		fmt.Sprintf("%.2f", m.AverageResponseTime),
		fmt.Sprintf("%.2f", m.AverageTurnaroundTime), ""})
	table.Render()
}

func outputComparison(w io.Writer, outcomes []*session.Outcome) {
	_, _ = fmt.Fprintln(w, "Policy comparison")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Policy", "Avg Wait", "Avg Completion", "Avg Response", "Avg Turnaround", "P90 Wait", "Makespan", "Utilization", "Switches"})
	for _, out := range outcomes {
		m := out.Metrics
		table.Append([]string{
			out.Label(),
			fmt.Sprintf("%.2f", m.AverageWaitingTime),
			fmt.Sprintf("%.2f", m.AverageCompletionTime),
			fmt.Sprintf("%.2f", m.AverageResponseTime),
			fmt.Sprintf("%.2f", m.AverageTurnaroundTime),
			fmt.Sprintf("%.2f", m.P90WaitingTime),
			strconv.FormatInt(m.Makespan, 10),
			fmt.Sprintf("%.1f%%", m.Utilization*100),
			strconv.Itoa(m.ContextSwitches),
		})
	}
	table.Render()
}

func outputCycleLog(w io.Writer, intervals []sim.Interval) {
	_, _ = fmt.Fprintln(w, "Cycle log")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Cycle", "Process", "State"})
	for _, iv := range intervals {
		table.Append([]string{strconv.FormatInt(iv.Start, 10), iv.ProcessID, string(iv.State)})
	}
	table.Render()
}

func outputContention(w io.Writer, res *contention.Result) {
	_, _ = fmt.Fprintf(w, "Resources (%s mode)\n", res.Mode)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Resource", "Capacity", "Acquired", "Released", "Blocked", "Peak Queue"})
	for _, s := range res.Resources {
		table.Append([]string{
			s.Name,
			strconv.Itoa(s.Capacity),
			strconv.Itoa(s.Acquisitions),
			strconv.Itoa(s.Releases),
			strconv.Itoa(s.BlockedSteps),
			strconv.Itoa(s.MaxQueueLen),
		})
	}
	table.Render()

	pids := make([]string, 0, len(res.Unfinished))
	for pid := range res.Unfinished {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	for _, pid := range pids {
		_, _ = fmt.Fprintf(w, "%s left %d cycle(s) of work unfinished\n", pid, res.Unfinished[pid])
	}
	for _, a := range res.Ignored {
		_, _ = fmt.Fprintf(w, "ignored action %s: unknown resource\n", a)
	}
}
