package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/inference-sim/cpu-sim/sim/session"
	"github.com/inference-sim/cpu-sim/sim/telemetry"
	"github.com/inference-sim/cpu-sim/sim/trace"
)

// invocation bundles the simulator of one CLI call with its telemetry sinks.
type invocation struct {
	opts      runOptions
	sim       *session.Simulator
	collector *telemetry.RunCollector
	trace     *trace.SimulationTrace
	shutdown  func(context.Context) error
	spanFile  *os.File
}

func newInvocation(ctx context.Context, opts runOptions) (*invocation, error) {
	inv := &invocation{opts: opts}

	tracing := telemetry.TracingConfig{ServiceName: "cpu-sim"}
	if opts.OtelOut != "" {
		f, err := os.Create(opts.OtelOut)
		if err != nil {
			return nil, fmt.Errorf("creating span export file: %w", err)
		}
		inv.spanFile = f
		tracing.Enabled = true
		tracing.Writer = f
	}
	shutdown, err := telemetry.InitTracing(ctx, tracing)
	if err != nil {
		inv.close(ctx)
		return nil, err
	}
	inv.shutdown = shutdown

	collector, err := telemetry.NewRunCollector(prometheus.NewRegistry())
	if err != nil {
		inv.close(ctx)
		return nil, err
	}
	inv.collector = collector

	sessionOpts := []session.Option{
		session.WithCollector(collector),
		session.WithAgingInterval(opts.AgingInterval),
	}
	traceConfig := trace.TraceConfig{Level: opts.TraceLevel}
	if traceConfig.Enabled() {
		inv.trace = trace.NewSimulationTrace(traceConfig)
		sessionOpts = append(sessionOpts, session.WithTrace(inv.trace))
	}
	inv.sim = session.New(sessionOpts...)
	if err := inv.sim.SetQuantum(opts.Quantum); err != nil {
		inv.close(ctx)
		return nil, err
	}
	inv.sim.SetSyncMode(opts.Mode)
	return inv, nil
}

// load reads every configured input into the simulator.
func (inv *invocation) load(ctx context.Context) error {
	if err := inv.sim.LoadProcessesFrom(ctx, inv.opts.Processes); err != nil {
		return err
	}
	if inv.opts.Resources != "" {
		if err := inv.sim.LoadResourcesFrom(ctx, inv.opts.Resources); err != nil {
			return err
		}
	}
	if inv.opts.Actions != "" {
		if err := inv.sim.LoadActionsFrom(ctx, inv.opts.Actions); err != nil {
			return err
		}
	}
	procs, resources, actions := inv.sim.Counts()
	logrus.Infof("loaded %d processes, %d resources, %d actions", procs, resources, actions)
	return nil
}

// finish renders the report and writes the optional side outputs.
func (inv *invocation) finish(ctx context.Context, outcomes []*session.Outcome, w io.Writer) error {
	report := newReport(outcomes, inv.trace)
	switch inv.opts.Output {
	case outputJSON:
		if err := writeJSONReport(w, report); err != nil {
			return err
		}
	default:
		writeTableReport(w, report)
	}

	if inv.opts.MetricsOut != "" {
		if err := inv.collector.WriteTextfile(inv.opts.MetricsOut); err != nil {
			return err
		}
		logrus.Infof("metrics written to %s", inv.opts.MetricsOut)
	}
	if inv.opts.ReportOut != "" {
		if err := storeReport(ctx, afs.New(), inv.opts.ReportOut, report); err != nil {
			return err
		}
	}
	if inv.opts.TraceOut != "" && inv.trace != nil {
		if err := storeTrace(ctx, afs.New(), inv.opts.TraceOut, inv.trace); err != nil {
			return err
		}
	}
	return nil
}

func (inv *invocation) close(ctx context.Context) {
	telemetry.ShutdownWithTimeout(ctx, inv.shutdown)
	if inv.spanFile != nil {
		if err := inv.spanFile.Close(); err != nil {
			logrus.Warnf("closing span export file: %v", err)
		}
	}
}

// executeRun simulates every selected policy and writes the report to w.
func executeRun(ctx context.Context, opts runOptions, w io.Writer) error {
	inv, err := newInvocation(ctx, opts)
	if err != nil {
		return err
	}
	defer inv.close(ctx)

	if err := inv.load(ctx); err != nil {
		return err
	}
	if inv.sim.Synchronized() {
		logrus.Warnf("resources and actions are ignored by run; use sync for the synchronization view")
	}
	outcomes, err := inv.sim.Compare(ctx, opts.Policies...)
	if err != nil {
		return err
	}
	return inv.finish(ctx, outcomes, w)
}

// executeSync runs the synchronization view and writes the report to w.
func executeSync(ctx context.Context, opts runOptions, w io.Writer) error {
	inv, err := newInvocation(ctx, opts)
	if err != nil {
		return err
	}
	defer inv.close(ctx)

	if err := inv.load(ctx); err != nil {
		return err
	}
	out, err := inv.sim.Synchronize(ctx)
	if err != nil {
		return err
	}
	return inv.finish(ctx, []*session.Outcome{out}, w)
}

// executeValidate loads the inputs and reports what was found.
func executeValidate(ctx context.Context, opts runOptions, w io.Writer) error {
	s := session.New()
	inv := &invocation{opts: opts, sim: s}
	if err := inv.load(ctx); err != nil {
		return err
	}
	procs, resources, actions := s.Counts()
	_, _ = fmt.Fprintf(w, "processes: %d\nresources: %d\nactions: %d\n", procs, resources, actions)
	return nil
}

// storeReport uploads the JSON report to location through fs.
func storeReport(ctx context.Context, fs afs.Service, location string, r *report) error {
	var buf bytes.Buffer
	if err := writeJSONReport(&buf, r); err != nil {
		return err
	}
	URL := url.Normalize(location, file.Scheme)
	if err := fs.Upload(ctx, URL, file.DefaultFileOsMode, &buf); err != nil {
		return fmt.Errorf("storing report at %s: %w", location, err)
	}
	logrus.Infof("report stored at %s", location)
	return nil
}

// storeTrace uploads the YAML export of st to location through fs.
func storeTrace(ctx context.Context, fs afs.Service, location string, st *trace.SimulationTrace) error {
	var buf bytes.Buffer
	if err := st.WriteYAML(&buf); err != nil {
		return err
	}
	URL := url.Normalize(location, file.Scheme)
	if err := fs.Upload(ctx, URL, file.DefaultFileOsMode, &buf); err != nil {
		return fmt.Errorf("storing trace at %s: %w", location, err)
	}
	logrus.Infof("decision trace stored at %s", location)
	return nil
}
