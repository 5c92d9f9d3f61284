package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/cpu-sim/sim/trace"
)

// minPriority is the floor that aging never crosses. Lower values are better.
const minPriority = 1

// runPriority is non-preemptive priority scheduling with aging. At every
// dispatch point, once AgingInterval cycles have elapsed since the previous
// checkpoint, every ready process has its effective priority lowered by one,
// floored at minPriority. The best effective priority wins; ties go to the
// earlier arrival, then queue order.
//
// Effective priorities live in the run arena only. The canonical Priority of
// each process is never modified, so every completed process reports its
// loaded priority.
func runPriority(rs *runState) {
	effective := make([]int, len(rs.procs))
	for i := range rs.procs {
		effective[i] = rs.procs[i].Priority
	}
	best := func(a, b int) bool {
		if effective[a] != effective[b] {
			return effective[a] < effective[b]
		}
		return rs.byArrival(a, b)
	}

	var lastAging int64
	for rs.hasWork() {
		rs.admit()
		if rs.clock-lastAging >= rs.config.AgingInterval {
			rs.age(effective)
			lastAging = rs.clock
		}
		if rs.ready.Len() == 0 {
			rs.advanceToNextArrival()
			continue
		}
		idx := rs.ready.RemoveAt(rs.ready.SelectMin(best))
		rs.runToCompletion(idx, "best-priority")
	}
}

// age applies one aging checkpoint to every ready process.
func (rs *runState) age(effective []int) {
	for _, idx := range rs.ready.Items() {
		from := effective[idx]
		if from <= minPriority {
			continue
		}
		effective[idx] = from - 1
		logrus.Debugf("[cycle %05d] aged %s priority %d -> %d", rs.clock, rs.procs[idx].ID, from, from-1)
		if rs.trace != nil {
			rs.trace.RecordAging(trace.AgingRecord{
				ProcessID: rs.procs[idx].ID,
				Clock:     rs.clock,
				From:      from,
				To:        from - 1,
			})
		}
	}
}
