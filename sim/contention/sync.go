package contention

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cpu-sim/sim"
)

// Synchronize runs engine under FIFO to obtain the base schedule and applies
// the overlay to it. The base policy is always FIFO. Without an explicit
// opts.Trace, contention records go to the engine's trace.
func Synchronize(engine *sim.Engine, actions []Action, resources []Resource, opts Options) (*Result, error) {
	if opts.Trace == nil {
		opts.Trace = engine.Config().Trace
	}
	warnOrphanActions(engine.Processes(), actions)

	base, err := engine.Run(sim.PolicyFIFO)
	if err != nil {
		return nil, err
	}
	res, err := Apply(base.Intervals, actions, resources, opts)
	if err != nil {
		return nil, err
	}
	res.Base = base
	res.Metrics = sim.ComputeMetrics(base.Processes, res.Intervals)
	logrus.Debugf("synchronization (%s): %d cycles, %d processes unfinished", res.Mode, len(res.Intervals), len(res.Unfinished))
	return res, nil
}

// warnOrphanActions logs actions owned by processes that are not loaded, and
// returns how many there were.
func warnOrphanActions(procs []sim.Process, actions []Action) int {
	known := make(map[string]bool, len(procs))
	for _, p := range procs {
		known[p.ID] = true
	}
	orphans := 0
	for _, a := range actions {
		if !known[a.ProcessID] {
			logrus.Warnf("action %s belongs to unknown process %s and will never fire", a, a.ProcessID)
			orphans++
		}
	}
	return orphans
}
