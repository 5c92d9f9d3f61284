// Package telemetry exports simulation outcomes as Prometheus metrics and
// OpenTelemetry spans. Nothing here is served over the network: metrics are
// written as a node-exporter textfile and spans to a writer.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/cpu-sim/sim"
	"github.com/inference-sim/cpu-sim/sim/contention"
)

// RunCollector exposes per-policy run metrics.
type RunCollector struct {
	gatherer prometheus.Gatherer

	Runs               *prometheus.CounterVec
	AverageWaiting     *prometheus.GaugeVec
	AverageCompletion  *prometheus.GaugeVec
	AverageResponse    *prometheus.GaugeVec
	Makespan           *prometheus.GaugeVec
	Utilization        *prometheus.GaugeVec
	ContextSwitches    *prometheus.CounterVec
	ProcessWaiting     *prometheus.HistogramVec
	ResourceAcquired   *prometheus.CounterVec
	ResourceBlocked    *prometheus.CounterVec
	ResourcePeakQueued *prometheus.GaugeVec
}

// NewRunCollector registers run metrics against reg, or the default registerer when nil.
func NewRunCollector(reg prometheus.Registerer) (*RunCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &RunCollector{gatherer: gatherer}
	var err error

	if c.Runs, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpusim_runs_total",
		Help: "Number of completed simulation runs by policy.",
	}, []string{"policy"}), "cpusim_runs_total"); err != nil {
		return nil, err
	}
	if c.AverageWaiting, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cpusim_average_waiting_cycles",
		Help: "Mean waiting time of the most recent run, in cycles.",
	}, []string{"policy"}), "cpusim_average_waiting_cycles"); err != nil {
		return nil, err
	}
	if c.AverageCompletion, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cpusim_average_completion_cycles",
		Help: "Mean completion time of the most recent run, in cycles.",
	}, []string{"policy"}), "cpusim_average_completion_cycles"); err != nil {
		return nil, err
	}
	if c.AverageResponse, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cpusim_average_response_cycles",
		Help: "Mean response time of the most recent run, in cycles.",
	}, []string{"policy"}), "cpusim_average_response_cycles"); err != nil {
		return nil, err
	}
	if c.Makespan, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cpusim_makespan_cycles",
		Help: "End cycle of the last interval of the most recent run.",
	}, []string{"policy"}), "cpusim_makespan_cycles"); err != nil {
		return nil, err
	}
	if c.Utilization, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cpusim_cpu_utilization_ratio",
		Help: "Busy cycles over makespan for the most recent run.",
	}, []string{"policy"}), "cpusim_cpu_utilization_ratio"); err != nil {
		return nil, err
	}
	if c.ContextSwitches, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpusim_context_switches_total",
		Help: "Cumulative context switches across runs.",
	}, []string{"policy"}), "cpusim_context_switches_total"); err != nil {
		return nil, err
	}
	if c.ProcessWaiting, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cpusim_process_waiting_cycles",
		Help:    "Distribution of per-process waiting time, in cycles.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 200, 500},
	}, []string{"policy"}), "cpusim_process_waiting_cycles"); err != nil {
		return nil, err
	}
	if c.ResourceAcquired, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpusim_resource_acquisitions_total",
		Help: "Successful resource acquisitions in synchronization runs.",
	}, []string{"resource"}), "cpusim_resource_acquisitions_total"); err != nil {
		return nil, err
	}
	if c.ResourceBlocked, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpusim_resource_blocked_cycles_total",
		Help: "Cycles spent WAITING on a resource in synchronization runs.",
	}, []string{"resource"}), "cpusim_resource_blocked_cycles_total"); err != nil {
		return nil, err
	}
	if c.ResourcePeakQueued, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cpusim_resource_peak_queue_length",
		Help: "Longest wait queue seen on a resource in the most recent synchronization run.",
	}, []string{"resource"}), "cpusim_resource_peak_queue_length"); err != nil {
		return nil, err
	}
	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *RunCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveRun records the outcome of one policy run.
func (c *RunCollector) ObserveRun(policy string, metrics sim.Metrics, procs []sim.Process) {
	if c == nil {
		return
	}
	c.Runs.WithLabelValues(policy).Inc()
	c.AverageWaiting.WithLabelValues(policy).Set(metrics.AverageWaitingTime)
	c.AverageCompletion.WithLabelValues(policy).Set(metrics.AverageCompletionTime)
	c.AverageResponse.WithLabelValues(policy).Set(metrics.AverageResponseTime)
	c.Makespan.WithLabelValues(policy).Set(float64(metrics.Makespan))
	c.Utilization.WithLabelValues(policy).Set(metrics.Utilization)
	c.ContextSwitches.WithLabelValues(policy).Add(float64(metrics.ContextSwitches))
	hist := c.ProcessWaiting.WithLabelValues(policy)
	for i := range procs {
		if procs[i].Completed() {
			hist.Observe(float64(procs[i].WaitingTime))
		}
	}
}

// ObserveContention records per-resource statistics of a synchronization run.
func (c *RunCollector) ObserveContention(stats []contention.ResourceStats) {
	if c == nil {
		return
	}
	for _, s := range stats {
		c.ResourceAcquired.WithLabelValues(s.Name).Add(float64(s.Acquisitions))
		c.ResourceBlocked.WithLabelValues(s.Name).Add(float64(s.BlockedSteps))
		c.ResourcePeakQueued.WithLabelValues(s.Name).Set(float64(s.MaxQueueLen))
	}
}

// WriteTextfile writes every gathered metric to path in the text exposition
// format, for pickup by a node-exporter textfile collector.
func (c *RunCollector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
