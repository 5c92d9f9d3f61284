// sim/scheduler.go
package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cpu-sim/sim/trace"
)

// Engine runs scheduling policies over a fixed set of canonical processes.
// The canonical records are copied on construction and never mutated: every
// Run works on a fresh arena, so runs are independent and reproducible.
// An Engine is not safe for concurrent use.
type Engine struct {
	processes []Process
	config    SimConfig
}

// Schedule is the outcome of one policy run.
type Schedule struct {
	Policy    Policy     `json:"policy"`
	Quantum   int64      `json:"quantum,omitempty"`
	Intervals []Interval `json:"intervals"`
	Processes []Process  `json:"processes"` // finalized copies, in load order
	Metrics   Metrics    `json:"metrics"`
}

// NewEngine validates config and copies procs into the engine's canonical registry.
func NewEngine(procs []Process, config SimConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	canonical := make([]Process, len(procs))
	copy(canonical, procs)
	for i := range canonical {
		canonical[i].Reset()
	}
	return &Engine{processes: canonical, config: config}, nil
}

// Processes returns a copy of the canonical registry.
func (e *Engine) Processes() []Process {
	return CloneProcesses(e.processes)
}

// Config returns the engine configuration.
func (e *Engine) Config() SimConfig {
	return e.config
}

// policyRunners dispatches a Policy to its implementation.
var policyRunners = map[Policy]func(*runState){
	PolicyFIFO:       runFIFO,
	PolicySJF:        runSJF,
	PolicySRTF:       runSRTF,
	PolicyRoundRobin: runRoundRobin,
	PolicyPriority:   runPriority,
}

// Run simulates policy over the canonical process set. The only failure is an
// unrecognized policy value; any loaded set, including the empty one, runs.
func (e *Engine) Run(policy Policy) (*Schedule, error) {
	runner, ok := policyRunners[policy]
	if !ok {
		return nil, &InvalidConfigurationError{Field: "policy", Reason: fmt.Sprintf("unknown policy %q", policy)}
	}

	rs := newRunState(e.processes, policy, e.config)
	logrus.Debugf("[cycle %05d] %s run started with %d processes", rs.clock, policy.Label(), len(rs.procs))
	runner(rs)
	logrus.Debugf("[cycle %05d] %s run ended, %d intervals", rs.clock, policy.Label(), len(rs.intervals))

	sched := &Schedule{
		Policy:    policy,
		Intervals: rs.intervals,
		Processes: rs.procs,
		Metrics:   ComputeMetrics(rs.procs, rs.intervals),
	}
	if policy == PolicyRoundRobin {
		sched.Quantum = e.config.Quantum
	}
	return sched, nil
}

// runState is the mutable arena of a single run. Processes are addressed by
// their index into procs, which never changes during the run.
type runState struct {
	policy    Policy
	config    SimConfig
	procs     []Process
	pending   []int // not yet admitted, in admission order
	ready     *ReadyQueue
	clock     int64
	intervals []Interval
	trace     *trace.SimulationTrace
}

func newRunState(canonical []Process, policy Policy, config SimConfig) *runState {
	procs := CloneProcesses(canonical)
	pending := make([]int, len(procs))
	for i := range procs {
		pending[i] = i
	}
	return &runState{
		policy:    policy,
		config:    config,
		procs:     procs,
		pending:   pending,
		ready:     &ReadyQueue{},
		intervals: make([]Interval, 0, len(procs)),
		trace:     config.Trace,
	}
}

// sortPendingByArrival orders the pending list by arrival time, keeping load
// order among equal arrivals.
func (rs *runState) sortPendingByArrival() {
	sort.SliceStable(rs.pending, func(i, j int) bool {
		return rs.procs[rs.pending[i]].ArrivalTime < rs.procs[rs.pending[j]].ArrivalTime
	})
}

// hasWork reports whether any process is still pending or ready.
func (rs *runState) hasWork() bool {
	return len(rs.pending) > 0 || rs.ready.Len() > 0
}

// admit moves every pending process that has arrived by the current clock into
// the ready queue, keeping pending order.
func (rs *runState) admit() {
	kept := rs.pending[:0]
	for _, idx := range rs.pending {
		p := &rs.procs[idx]
		if p.ArrivalTime <= rs.clock {
			p.State = StateReady
			rs.ready.Enqueue(idx)
			logrus.Debugf("[cycle %05d] admitted %s", rs.clock, p.ID)
			continue
		}
		kept = append(kept, idx)
	}
	rs.pending = kept
}

// advanceToNextArrival idles the CPU forward to the earliest pending arrival.
func (rs *runState) advanceToNextArrival() {
	if len(rs.pending) == 0 {
		return
	}
	next := rs.procs[rs.pending[0]].ArrivalTime
	for _, idx := range rs.pending[1:] {
		if at := rs.procs[idx].ArrivalTime; at < next {
			next = at
		}
	}
	if next > rs.clock {
		logrus.Debugf("[cycle %05d] CPU idle until %d", rs.clock, next)
		rs.clock = next
	}
}

// dispatch hands the CPU to process idx, stamping its start time on first dispatch.
func (rs *runState) dispatch(idx int, reason string) {
	p := &rs.procs[idx]
	if !p.Started {
		p.Started = true
		p.StartTime = rs.clock
	}
	p.State = StateRunning
	logrus.Debugf("[cycle %05d] dispatch %s (%s, remaining=%d, ready=%s)", rs.clock, p.ID, reason, p.RemainingTime, rs.ready)
	if rs.trace != nil {
		rs.trace.RecordDispatch(trace.DispatchRecord{
			ProcessID: p.ID,
			Clock:     rs.clock,
			Policy:    string(rs.policy),
			Reason:    reason,
			ReadyLen:  rs.ready.Len(),
		})
	}
}

// preempt returns a running process to the ready state.
func (rs *runState) preempt(idx int, by string, reason string) {
	p := &rs.procs[idx]
	p.State = StateReady
	logrus.Debugf("[cycle %05d] preempt %s (%s, remaining=%d)", rs.clock, p.ID, reason, p.RemainingTime)
	if rs.trace != nil {
		rs.trace.RecordPreemption(trace.PreemptionRecord{
			Clock:     rs.clock,
			Preempted: p.ID,
			By:        by,
			Remaining: p.RemainingTime,
			Reason:    reason,
		})
	}
}

// execute runs process idx for n cycles from the current clock and finalizes it
// if no work remains. With coalesce set, a slice that directly continues the
// previous interval of the same process extends it instead of opening a new one.
func (rs *runState) execute(idx int, n int64, coalesce bool) {
	p := &rs.procs[idx]
	if n > p.RemainingTime {
		n = p.RemainingTime
	}
	if n > 0 {
		start := rs.clock
		p.RemainingTime -= n
		rs.clock += n
		rs.emit(p.ID, start, rs.clock, coalesce)
	}
	if p.RemainingTime == 0 && !p.Completed() {
		rs.finalize(idx)
	}
}

// runToCompletion dispatches idx and executes all of its remaining work.
func (rs *runState) runToCompletion(idx int, reason string) {
	rs.dispatch(idx, reason)
	rs.execute(idx, rs.procs[idx].RemainingTime, false)
}

func (rs *runState) emit(pid string, start, end int64, coalesce bool) {
	if coalesce && len(rs.intervals) > 0 {
		last := &rs.intervals[len(rs.intervals)-1]
		if last.ProcessID == pid && last.End == start && last.State == IntervalRunning {
			last.End = end
			return
		}
	}
	rs.intervals = append(rs.intervals, Interval{ProcessID: pid, Start: start, End: end, State: IntervalRunning})
}

// finalize stamps completion and waiting time. Called exactly once per process,
// when its remaining time first reaches zero.
func (rs *runState) finalize(idx int) {
	p := &rs.procs[idx]
	p.State = StateCompleted
	p.RemainingTime = 0
	p.CompletionTime = rs.clock
	p.WaitingTime = p.CompletionTime - p.ArrivalTime - p.BurstTime
	logrus.Debugf("[cycle %05d] completed %s (waiting=%d)", rs.clock, p.ID, p.WaitingTime)
}

// byArrival breaks ties between two ready processes by arrival time. Equal
// arrivals fall through to queue order.
func (rs *runState) byArrival(a, b int) bool {
	return rs.procs[a].ArrivalTime < rs.procs[b].ArrivalTime
}
