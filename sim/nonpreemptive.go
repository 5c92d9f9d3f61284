package sim

// runFIFO runs processes to completion in arrival order; equal arrivals keep
// load order. The CPU idles forward whenever nothing has arrived yet.
func runFIFO(rs *runState) {
	rs.sortPendingByArrival()
	for rs.hasWork() {
		rs.admit()
		if rs.ready.Len() == 0 {
			rs.advanceToNextArrival()
			continue
		}
		rs.runToCompletion(rs.ready.Dequeue(), "arrival-order")
	}
}

// runSJF picks the ready process with the smallest burst at every dispatch
// point and runs it to completion. A shorter job arriving mid-execution waits.
func runSJF(rs *runState) {
	shortest := func(a, b int) bool {
		if rs.procs[a].BurstTime != rs.procs[b].BurstTime {
			return rs.procs[a].BurstTime < rs.procs[b].BurstTime
		}
		return rs.byArrival(a, b)
	}
	for rs.hasWork() {
		rs.admit()
		if rs.ready.Len() == 0 {
			rs.advanceToNextArrival()
			continue
		}
		idx := rs.ready.RemoveAt(rs.ready.SelectMin(shortest))
		rs.runToCompletion(idx, "shortest-burst")
	}
}
