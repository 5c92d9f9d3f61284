package contention

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cpu-sim/sim"
	"github.com/inference-sim/cpu-sim/sim/trace"
)

// Options tune one overlay pass.
type Options struct {
	Mode  Mode                   // empty means ModeSemaphore
	Trace *trace.SimulationTrace // optional; nil disables contention records
}

// Result is the outcome of an overlay pass.
type Result struct {
	Mode      Mode           `json:"mode"`
	Intervals []sim.Interval `json:"intervals"` // single-cycle, chronological
	// Progress is the number of cycles of its own work each process executed.
	Progress map[string]int64 `json:"progress"`
	// Unfinished holds, per process, base cycles that were spent blocked and
	// therefore left work undone. Processes that finished are absent.
	Unfinished map[string]int64 `json:"unfinished,omitempty"`
	Resources  []ResourceStats  `json:"resources"` // load order
	Ignored    []Action         `json:"ignored_actions,omitempty"`

	// Set by Synchronize.
	Base    *sim.Schedule `json:"base,omitempty"`
	Metrics sim.Metrics   `json:"metrics"`
}

type pendingRelease struct {
	pid      string
	resource string
	at       int64
}

// pass holds the mutable state of one Apply call.
type pass struct {
	opts      Options
	locks     map[string]*lockState
	order     []string
	timelines map[string]timeline
	progress  map[string]int64
	releases  []pendingRelease // ordered by at
	out       []sim.Interval
}

// Apply expands base into single cycles and replays actions against resources.
//
// At a cycle where a process's progress equals an action's Cycle, the process
// tries to take one unit of the named resource. On success the cycle is
// ACCESSED, progress advances and the unit is returned automatically after the
// following global cycle has been evaluated. On failure the cycle is WAITING,
// the process joins the resource's FIFO wait queue once, and its progress does
// not advance, so the action fires again on its next cycle. Blocking never
// extends the base schedule; work that did not fit is reported in Unfinished.
//
// Resources are validated and reset on every call; actions that name an
// unknown resource are ignored with a warning.
func Apply(base []sim.Interval, actions []Action, resources []Resource, opts Options) (*Result, error) {
	if opts.Mode == "" {
		opts.Mode = ModeSemaphore
	}
	p := &pass{
		opts:     opts,
		locks:    make(map[string]*lockState, len(resources)),
		order:    make([]string, 0, len(resources)),
		progress: make(map[string]int64),
	}
	for _, r := range resources {
		if err := r.Validate(); err != nil {
			return nil, &sim.InvalidConfigurationError{Field: "resource", Reason: err.Error()}
		}
		if _, dup := p.locks[r.Name]; dup {
			return nil, &sim.InvalidConfigurationError{Field: "resource", Reason: fmt.Sprintf("duplicate resource %q", r.Name)}
		}
		p.locks[r.Name] = newLockState(r, opts.Mode)
		p.order = append(p.order, r.Name)
	}

	var ignored []Action
	p.timelines, ignored = buildTimelines(actions, p.locks)
	for _, a := range ignored {
		logrus.Warnf("action %s references unknown resource %q, ignoring", a, a.Resource)
	}

	steps := make([]sim.Interval, len(base))
	copy(steps, base)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Start < steps[j].Start })

	baseCycles := make(map[string]int64)
	lastStep := make(map[string]int64)
	for _, iv := range steps {
		baseCycles[iv.ProcessID] += iv.Duration()
		if end, ok := lastStep[iv.ProcessID]; !ok || iv.End-1 > end {
			lastStep[iv.ProcessID] = iv.End - 1
		}
		if _, ok := p.progress[iv.ProcessID]; !ok {
			p.progress[iv.ProcessID] = 0
		}
	}

	for _, iv := range steps {
		for t := iv.Start; t < iv.End; t++ {
			p.releaseThrough(t - 1)
			p.step(iv.ProcessID, t)
			p.releaseThrough(t)
			if t == lastStep[iv.ProcessID] {
				p.retire(iv.ProcessID)
			}
		}
	}
	p.releaseThrough(math.MaxInt64)

	res := &Result{
		Mode:       opts.Mode,
		Intervals:  p.out,
		Progress:   p.progress,
		Unfinished: make(map[string]int64),
		Resources:  make([]ResourceStats, 0, len(p.order)),
		Ignored:    ignored,
	}
	for pid, cycles := range baseCycles {
		if left := cycles - p.progress[pid]; left > 0 {
			res.Unfinished[pid] = left
			logrus.Infof("%s spent %d of its %d scheduled cycles blocked", pid, left, cycles)
		}
	}
	for _, name := range p.order {
		res.Resources = append(res.Resources, p.locks[name].stats)
	}
	return res, nil
}

// step evaluates one global cycle t for process pid.
func (p *pass) step(pid string, t int64) {
	progress := p.progress[pid]
	state := sim.IntervalRunning

	if due := p.timelines[pid].due(progress); len(due) > 0 {
		state = sim.IntervalAccessed
		for _, a := range due {
			lock := p.locks[a.Resource]
			if !lock.canAcquire() {
				lock.block(pid)
				state = sim.IntervalWaiting
				logrus.Debugf("[cycle %05d] %s blocked on %s (queue=%d)", t, pid, a.Resource, len(lock.queue))
				p.record(pid, a.Resource, t, progress, trace.OutcomeBlocked, lock)
				continue
			}
			lock.acquire(pid)
			a.acquired = true
			p.releases = append(p.releases, pendingRelease{pid: pid, resource: a.Resource, at: t + 1})
			logrus.Debugf("[cycle %05d] %s %s %s (available=%d)", t, pid, a.Kind, a.Resource, lock.available)
			p.record(pid, a.Resource, t, progress, trace.OutcomeAcquired, lock)
		}
	}

	if state != sim.IntervalWaiting {
		p.progress[pid] = progress + 1
	}
	p.out = append(p.out, sim.Interval{ProcessID: pid, Start: t, End: t + 1, State: state})
}

// releaseThrough returns every unit whose release cycle is at or before t.
func (p *pass) releaseThrough(t int64) {
	n := 0
	for n < len(p.releases) && p.releases[n].at <= t {
		rel := p.releases[n]
		lock := p.locks[rel.resource]
		if lock.release() {
			logrus.Debugf("[cycle %05d] %s released by %s (available=%d)", rel.at, rel.resource, rel.pid, lock.available)
			p.record(rel.pid, rel.resource, rel.at, p.progress[rel.pid], trace.OutcomeReleased, lock)
		}
		n++
	}
	p.releases = p.releases[n:]
}

// retire drops a process that has no base cycles left from every wait queue.
func (p *pass) retire(pid string) {
	for _, name := range p.order {
		p.locks[name].forget(pid)
	}
}

func (p *pass) record(pid, resource string, clock, progress int64, outcome trace.ContentionOutcome, lock *lockState) {
	if p.opts.Trace == nil {
		return
	}
	p.opts.Trace.RecordContention(trace.ContentionRecord{
		ProcessID: pid,
		Resource:  resource,
		Clock:     clock,
		Progress:  progress,
		Outcome:   outcome,
		Available: lock.available,
		QueueLen:  len(lock.queue),
	})
}
