// Package session provides Simulator, the facade a front end drives: load
// processes, resources and actions, configure the run, execute one or more
// policies, then read the resulting events and averages.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/inference-sim/cpu-sim/sim"
	"github.com/inference-sim/cpu-sim/sim/contention"
	"github.com/inference-sim/cpu-sim/sim/telemetry"
	"github.com/inference-sim/cpu-sim/sim/trace"
	"github.com/inference-sim/cpu-sim/sim/workload"
)

// Outcome is one completed run as seen by a front end.
type Outcome struct {
	RunID        string         `json:"run_id"`
	Policy       sim.Policy     `json:"policy"`
	Quantum      int64          `json:"quantum,omitempty"`
	Synchronized bool           `json:"synchronized"`
	Intervals    []sim.Interval `json:"intervals"`
	Processes    []sim.Process  `json:"processes"`
	Metrics      sim.Metrics    `json:"metrics"`
	// Contention is set for synchronized runs only.
	Contention *contention.Result `json:"contention,omitempty"`
}

// Label tags rows of this outcome in multi-policy reports, e.g. "FIFO" or "SYNC/MUTEX".
func (o *Outcome) Label() string {
	if o.Synchronized && o.Contention != nil {
		return fmt.Sprintf("SYNC/%s", strings.ToUpper(string(o.Contention.Mode)))
	}
	return o.Policy.Label()
}

// Simulator holds the loaded registries and the most recent outcome.
// It is not safe for concurrent use: each run is exclusive.
type Simulator struct {
	processes []sim.Process
	resources []contention.Resource
	actions   []contention.Action

	config    sim.SimConfig
	mode      contention.Mode
	loader    *workload.Loader
	collector *telemetry.RunCollector

	last *Outcome
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLoader sets the loader used by the Load*From methods.
func WithLoader(l *workload.Loader) Option {
	return func(s *Simulator) { s.loader = l }
}

// WithCollector records every outcome on c.
func WithCollector(c *telemetry.RunCollector) Option {
	return func(s *Simulator) { s.collector = c }
}

// WithTrace collects decision records of every run into st.
func WithTrace(st *trace.SimulationTrace) Option {
	return func(s *Simulator) { s.config.Trace = st }
}

// WithAgingInterval overrides the priority aging interval.
func WithAgingInterval(cycles int64) Option {
	return func(s *Simulator) { s.config.AgingInterval = cycles }
}

// New returns a Simulator with empty registries, the default quantum and
// semaphore synchronization mode.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		config: sim.DefaultSimConfig(),
		mode:   contention.ModeSemaphore,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loader == nil {
		s.loader = workload.NewLoader(nil)
	}
	return s
}

// LoadProcesses replaces the process registry. The whole list is validated
// first; on error the previous registry is left untouched.
func (s *Simulator) LoadProcesses(procs []sim.Process) error {
	seen := make(map[string]bool, len(procs))
	for i := range procs {
		p := procs[i]
		if err := p.Validate(); err != nil {
			return &sim.InputParseError{Record: p.ID, Reason: "invalid process", Err: err}
		}
		if seen[p.ID] {
			return &sim.InputParseError{Record: p.ID, Reason: fmt.Sprintf("duplicate process id %q", p.ID)}
		}
		seen[p.ID] = true
	}
	s.processes = sim.CloneProcesses(procs)
	s.last = nil
	logrus.Debugf("registry holds %d processes", len(s.processes))
	return nil
}

// LoadResources replaces the resource set, all-or-nothing.
func (s *Simulator) LoadResources(resources []contention.Resource) error {
	seen := make(map[string]bool, len(resources))
	for _, r := range resources {
		if err := r.Validate(); err != nil {
			return &sim.InputParseError{Record: r.Name, Reason: "invalid resource", Err: err}
		}
		if seen[r.Name] {
			return &sim.InputParseError{Record: r.Name, Reason: fmt.Sprintf("duplicate resource %q", r.Name)}
		}
		seen[r.Name] = true
	}
	s.resources = append([]contention.Resource(nil), resources...)
	s.last = nil
	return nil
}

// LoadActions replaces the action timeline, all-or-nothing.
func (s *Simulator) LoadActions(actions []contention.Action) error {
	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return &sim.InputParseError{Record: a.String(), Reason: "invalid action", Err: err}
		}
	}
	s.actions = append([]contention.Action(nil), actions...)
	s.last = nil
	return nil
}

// LoadProcessesFrom reads and loads processes from location.
func (s *Simulator) LoadProcessesFrom(ctx context.Context, location string) error {
	procs, err := s.loader.Processes(ctx, location)
	if err != nil {
		return err
	}
	return s.LoadProcesses(procs)
}

// LoadResourcesFrom reads and loads resources from location.
func (s *Simulator) LoadResourcesFrom(ctx context.Context, location string) error {
	resources, err := s.loader.Resources(ctx, location)
	if err != nil {
		return err
	}
	return s.LoadResources(resources)
}

// LoadActionsFrom reads and loads actions from location.
func (s *Simulator) LoadActionsFrom(ctx context.Context, location string) error {
	actions, err := s.loader.Actions(ctx, location)
	if err != nil {
		return err
	}
	return s.LoadActions(actions)
}

// SetQuantum sets the Round Robin quantum. n must be >= 1.
func (s *Simulator) SetQuantum(n int64) error {
	if n < 1 {
		return &sim.InvalidConfigurationError{Field: "quantum", Reason: fmt.Sprintf("must be >= 1, got %d", n)}
	}
	s.config.Quantum = n
	return nil
}

// Quantum returns the configured Round Robin quantum.
func (s *Simulator) Quantum() int64 {
	return s.config.Quantum
}

// SetSyncMode selects mutex or semaphore interpretation of resource capacities.
func (s *Simulator) SetSyncMode(mode contention.Mode) {
	s.mode = mode
}

// Counts reports the sizes of the loaded registries.
func (s *Simulator) Counts() (processes, resources, actions int) {
	return len(s.processes), len(s.resources), len(s.actions)
}

// Synchronized reports whether Run will take the synchronization path, which
// happens when both resources and actions are loaded.
func (s *Simulator) Synchronized() bool {
	return len(s.resources) > 0 && len(s.actions) > 0
}

// Run executes policy over the loaded processes. When resources and actions
// are loaded the result is the synchronization view, whose base schedule is
// always FIFO; any other requested policy is ignored with a warning.
func (s *Simulator) Run(ctx context.Context, policy sim.Policy) (*Outcome, error) {
	if s.Synchronized() {
		if policy != sim.PolicyFIFO {
			logrus.Warnf("synchronization view always uses a FIFO base schedule; ignoring policy %s", policy)
		}
		return s.Synchronize(ctx)
	}
	return s.Schedule(ctx, policy)
}

// Schedule runs policy without the synchronization overlay.
func (s *Simulator) Schedule(ctx context.Context, policy sim.Policy) (out *Outcome, err error) {
	runID := telemetry.NewRunID()
	_, span := telemetry.StartSpan(ctx, "cpu-sim/schedule",
		attribute.String("run.id", runID),
		attribute.String("policy", string(policy)),
		attribute.Int("processes", len(s.processes)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	engine, err := sim.NewEngine(s.processes, s.config)
	if err != nil {
		return nil, err
	}
	sched, err := engine.Run(policy)
	if err != nil {
		return nil, err
	}

	out = &Outcome{
		RunID:     runID,
		Policy:    sched.Policy,
		Quantum:   sched.Quantum,
		Intervals: sched.Intervals,
		Processes: sched.Processes,
		Metrics:   sched.Metrics,
	}
	span.SetAttributes(
		attribute.Int64("makespan", out.Metrics.Makespan),
		attribute.Float64("avg_waiting", out.Metrics.AverageWaitingTime),
	)
	s.collector.ObserveRun(string(policy), out.Metrics, out.Processes)
	logrus.Infof("%s run %s: %d processes, avg waiting %.2f, makespan %d",
		policy.Label(), runID, out.Metrics.Processes, out.Metrics.AverageWaitingTime, out.Metrics.Makespan)
	s.last = out
	return out, nil
}

// Synchronize runs the synchronization view over the loaded registries.
func (s *Simulator) Synchronize(ctx context.Context) (out *Outcome, err error) {
	runID := telemetry.NewRunID()
	_, span := telemetry.StartSpan(ctx, "cpu-sim/synchronize",
		attribute.String("run.id", runID),
		attribute.String("sync.mode", string(s.mode)),
		attribute.Int("resources", len(s.resources)),
		attribute.Int("actions", len(s.actions)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	engine, err := sim.NewEngine(s.processes, s.config)
	if err != nil {
		return nil, err
	}
	res, err := contention.Synchronize(engine, s.actions, s.resources, contention.Options{Mode: s.mode})
	if err != nil {
		return nil, err
	}

	out = &Outcome{
		RunID:        runID,
		Policy:       sim.PolicyFIFO,
		Synchronized: true,
		Intervals:    res.Intervals,
		Processes:    res.Base.Processes,
		Metrics:      res.Metrics,
		Contention:   res,
	}
	span.SetAttributes(attribute.Int("unfinished", len(res.Unfinished)))
	s.collector.ObserveRun("sync-"+string(res.Mode), out.Metrics, out.Processes)
	s.collector.ObserveContention(res.Resources)
	logrus.Infof("synchronization run %s (%s): %d cycles, %d processes with unfinished work",
		runID, res.Mode, len(res.Intervals), len(res.Unfinished))
	s.last = out
	return out, nil
}

// Compare runs each policy over the same loaded set, without the overlay.
// The last outcome becomes the one reported by Events and the averages.
func (s *Simulator) Compare(ctx context.Context, policies ...sim.Policy) ([]*Outcome, error) {
	if len(policies) == 0 {
		return nil, &sim.InvalidConfigurationError{Field: "policy", Reason: "no policy selected"}
	}
	outcomes := make([]*Outcome, 0, len(policies))
	for _, p := range policies {
		out, err := s.Schedule(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("running %s: %w", p, err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Last returns the most recent outcome, or nil before the first run or after
// a load.
func (s *Simulator) Last() *Outcome {
	return s.last
}

// Events returns the interval log of the most recent run.
func (s *Simulator) Events() []sim.Interval {
	if s.last == nil {
		return nil
	}
	return append([]sim.Interval(nil), s.last.Intervals...)
}

// AverageWaitingTime of the most recent run; 0 before any run.
func (s *Simulator) AverageWaitingTime() float64 {
	if s.last == nil {
		return 0
	}
	return s.last.Metrics.AverageWaitingTime
}

// AverageCompletionTime of the most recent run; 0 before any run.
func (s *Simulator) AverageCompletionTime() float64 {
	if s.last == nil {
		return 0
	}
	return s.last.Metrics.AverageCompletionTime
}

// AverageResponseTime of the most recent run; 0 before any run.
func (s *Simulator) AverageResponseTime() float64 {
	if s.last == nil {
		return 0
	}
	return s.last.Metrics.AverageResponseTime
}
