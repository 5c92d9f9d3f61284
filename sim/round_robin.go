package sim

// runRoundRobin time-slices a FIFO ready queue. Each slice is
// min(quantum, remaining) cycles and becomes one interval. Processes that
// arrived during a slice are queued ahead of the process whose slice expired.
func runRoundRobin(rs *runState) {
	rs.sortPendingByArrival()
	quantum := rs.config.Quantum

	expiring := -1
	for rs.hasWork() || expiring >= 0 {
		rs.admit()
		if expiring >= 0 {
			rs.ready.Enqueue(expiring)
			expiring = -1
		}
		if rs.ready.Len() == 0 {
			rs.advanceToNextArrival()
			continue
		}

		idx := rs.ready.Dequeue()
		rs.dispatch(idx, "quantum-slice")
		rs.execute(idx, min(quantum, rs.procs[idx].RemainingTime), false)
		if !rs.procs[idx].Completed() {
			rs.preempt(idx, "", "quantum-expired")
			expiring = idx
		}
	}
}
