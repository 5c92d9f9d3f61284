package sim

// runSRTF re-evaluates the CPU assignment every cycle. A ready process with
// strictly less remaining time displaces the incumbent; equal remaining time
// keeps the incumbent running. Adjacent cycles of the same process are merged
// into one interval.
func runSRTF(rs *runState) {
	shortestRemaining := func(a, b int) bool {
		if rs.procs[a].RemainingTime != rs.procs[b].RemainingTime {
			return rs.procs[a].RemainingTime < rs.procs[b].RemainingTime
		}
		return rs.byArrival(a, b)
	}

	running := -1
	for rs.hasWork() || running >= 0 {
		rs.admit()

		if running >= 0 {
			pos := rs.ready.SelectMin(shortestRemaining)
			if pos >= 0 && rs.procs[rs.ready.Items()[pos]].RemainingTime < rs.procs[running].RemainingTime {
				challenger := rs.ready.RemoveAt(pos)
				rs.preempt(running, rs.procs[challenger].ID, "shorter-remaining")
				rs.ready.Enqueue(running)
				running = challenger
				rs.dispatch(running, "shorter-remaining")
			}
		}

		if running < 0 {
			if rs.ready.Len() == 0 {
				rs.advanceToNextArrival()
				continue
			}
			running = rs.ready.RemoveAt(rs.ready.SelectMin(shortestRemaining))
			rs.dispatch(running, "shortest-remaining")
		}

		rs.execute(running, 1, true)
		if rs.procs[running].Completed() {
			running = -1
		}
	}
}
