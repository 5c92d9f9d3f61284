package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/cpu-sim/sim/trace"
)

func TestFIFO_IdleGap_ZeroAverageWaiting(t *testing.T) {
	// GIVEN P1 (bt=4, at=0) and P2 (bt=3, at=5)
	procs := []Process{NewProcess("P1", 4, 0, 1), NewProcess("P2", 3, 5, 1)}

	// WHEN scheduled with FIFO
	sched := mustRun(t, procs, PolicyFIFO)

	// THEN the CPU idles between the two and nobody waits
	assert.Equal(t, []Interval{
		{ProcessID: "P1", Start: 0, End: 4, State: IntervalRunning},
		{ProcessID: "P2", Start: 5, End: 8, State: IntervalRunning},
	}, sched.Intervals)
	assert.Equal(t, 0.0, sched.Metrics.AverageWaitingTime)
	assert.Equal(t, int64(8), sched.Metrics.Makespan)
	assert.Equal(t, int64(7), sched.Metrics.BusyCycles)
}

func TestFIFO_EqualArrivals_KeepLoadOrder(t *testing.T) {
	// GIVEN three processes, two of which arrive together after the first in the file
	procs := []Process{NewProcess("B", 1, 3, 1), NewProcess("C", 1, 3, 1), NewProcess("A", 2, 0, 1)}

	// WHEN scheduled with FIFO
	sched := mustRun(t, procs, PolicyFIFO)

	// THEN arrival order decides, and load order breaks the tie
	assert.Equal(t, "A[0-2] B[3-4] C[4-5]", FormatIntervals(sched.Intervals))
}

func TestSJF_NonPreemptive_ShorterArrivalWaits(t *testing.T) {
	// GIVEN P1 (bt=6, at=0) and a shorter P2 (bt=2, at=1)
	procs := []Process{NewProcess("P1", 6, 0, 1), NewProcess("P2", 2, 1, 1)}

	// WHEN scheduled with SJF
	sched := mustRun(t, procs, PolicySJF)

	// THEN P1 runs to completion before P2
	assert.Equal(t, "P1[0-6] P2[6-8]", FormatIntervals(sched.Intervals))
	assert.Equal(t, int64(6), processByID(t, sched, "P1").CompletionTime)
	assert.Equal(t, int64(5), processByID(t, sched, "P2").WaitingTime)
}

func TestSJF_PicksShortestAmongReady(t *testing.T) {
	// GIVEN three processes ready at t=0
	procs := []Process{NewProcess("L", 5, 0, 1), NewProcess("S", 1, 0, 1), NewProcess("M", 3, 0, 1)}

	// WHEN scheduled with SJF
	sched := mustRun(t, procs, PolicySJF)

	// THEN they run shortest first
	assert.Equal(t, "S[0-1] M[1-4] L[4-9]", FormatIntervals(sched.Intervals))
}

func TestSRTF_PreemptsOnStrictlyShorterRemaining(t *testing.T) {
	// GIVEN P1 (bt=8, at=0) and P2 (bt=4, at=1)
	procs := []Process{NewProcess("P1", 8, 0, 1), NewProcess("P2", 4, 1, 1)}

	// WHEN scheduled with SRTF
	sched := mustRun(t, procs, PolicySRTF)

	// THEN P2 preempts P1 at t=1 and P1 finishes at 12 in two segments
	assert.Equal(t, "P1[0-1] P2[1-5] P1[5-12]", FormatIntervals(sched.Intervals))
	p1 := processByID(t, sched, "P1")
	assert.Equal(t, int64(12), p1.CompletionTime)
	assert.Equal(t, int64(8), DurationByProcess(sched.Intervals, IntervalRunning)["P1"])
	assert.Equal(t, 2, sched.Metrics.ContextSwitches)
}

func TestSRTF_EqualRemaining_IncumbentKeepsCPU(t *testing.T) {
	// GIVEN P1 (bt=4, at=0) and P2 (bt=3, at=1), equal remaining at t=1
	procs := []Process{NewProcess("P1", 4, 0, 1), NewProcess("P2", 3, 1, 1)}

	// WHEN scheduled with SRTF
	sched := mustRun(t, procs, PolicySRTF)

	// THEN P1 is not preempted
	assert.Equal(t, "P1[0-4] P2[4-7]", FormatIntervals(sched.Intervals))
}

func TestRoundRobin_QuantumTwo_ExactSlices(t *testing.T) {
	// GIVEN P1 (bt=5) and P2 (bt=3), both at t=0
	procs := []Process{NewProcess("P1", 5, 0, 1), NewProcess("P2", 3, 0, 1)}

	// WHEN scheduled with RR and quantum 2
	sched := mustRun(t, procs, PolicyRoundRobin)

	// THEN the slice sequence is exact
	assert.Equal(t, "P1[0-2] P2[2-4] P1[4-6] P2[6-7] P1[7-9]", FormatIntervals(sched.Intervals))
	assert.Equal(t, int64(9), processByID(t, sched, "P1").CompletionTime)
	assert.Equal(t, int64(7), processByID(t, sched, "P2").CompletionTime)
	assert.Equal(t, int64(2), sched.Quantum)
}

func TestRoundRobin_ArrivalDuringSlice_QueuedBeforeExpiring(t *testing.T) {
	// GIVEN P1 (bt=4, at=0) and P2 (bt=2, at=1)
	procs := []Process{NewProcess("P1", 4, 0, 1), NewProcess("P2", 2, 1, 1)}

	// WHEN scheduled with RR, quantum 2
	sched := mustRun(t, procs, PolicyRoundRobin)

	// THEN P2, which arrived mid-slice, runs before P1's second slice
	assert.Equal(t, "P1[0-2] P2[2-4] P1[4-6]", FormatIntervals(sched.Intervals))
}

func TestRoundRobin_CustomQuantum(t *testing.T) {
	procs := []Process{NewProcess("P1", 5, 0, 1), NewProcess("P2", 3, 0, 1)}

	sched := mustRun(t, procs, PolicyRoundRobin, func(c *SimConfig) { c.Quantum = 4 })

	assert.Equal(t, "P1[0-4] P2[4-7] P1[7-8]", FormatIntervals(sched.Intervals))
}

func TestPriority_AgingReordersAtFloor(t *testing.T) {
	// GIVEN P1 (pr=1) running first, P2 (pr=2) ready since t=0 and P3 (pr=1) arriving at t=5
	procs := []Process{
		NewProcess("P1", 5, 0, 1),
		NewProcess("P2", 2, 0, 2),
		NewProcess("P3", 2, 5, 1),
	}
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})

	// WHEN scheduled with priority aging
	sched := mustRun(t, procs, PolicyPriority, func(c *SimConfig) { c.Trace = st })

	// THEN at the t=5 checkpoint P2 ages 2 -> 1 and wins the tie by earlier arrival
	assert.Equal(t, "P1[0-5] P2[5-7] P3[7-9]", FormatIntervals(sched.Intervals))
	require.Len(t, st.Agings, 1)
	assert.Equal(t, trace.AgingRecord{ProcessID: "P2", Clock: 5, From: 2, To: 1}, st.Agings[0])

	// AND the finalized records keep the loaded priority
	assert.Equal(t, 2, processByID(t, sched, "P2").Priority)
}

func TestPriority_NoAgingBeforeInterval(t *testing.T) {
	// GIVEN a short first job so the next dispatch point is before the first checkpoint
	procs := []Process{
		NewProcess("P1", 3, 0, 1),
		NewProcess("P2", 2, 0, 2),
		NewProcess("P3", 2, 3, 1),
	}
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})

	// WHEN scheduled
	sched := mustRun(t, procs, PolicyPriority, func(c *SimConfig) { c.Trace = st })

	// THEN P3's better priority wins at t=3 and nothing has aged yet
	assert.Equal(t, "P1[0-3] P3[3-5] P2[5-7]", FormatIntervals(sched.Intervals))
	require.NotEmpty(t, st.Agings)
	assert.Equal(t, int64(5), st.Agings[0].Clock)
}

func TestPriority_DecrementIsExactlyOnePerCheckpoint(t *testing.T) {
	// GIVEN a long job holding the CPU while a low-priority process waits
	procs := []Process{NewProcess("H", 12, 0, 1), NewProcess("L", 1, 0, 9)}
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})

	// WHEN scheduled
	mustRun(t, procs, PolicyPriority, func(c *SimConfig) { c.Trace = st })

	// THEN the only checkpoint lowers L by exactly one
	require.Len(t, st.Agings, 1)
	assert.Equal(t, 9, st.Agings[0].From)
	assert.Equal(t, 8, st.Agings[0].To)
}

func TestEngine_Run_UnknownPolicy_ReturnsInvalidConfiguration(t *testing.T) {
	engine, err := NewEngine(nil, DefaultSimConfig())
	require.NoError(t, err)

	_, err = engine.Run(Policy("lottery"))

	var cfgErr *InvalidConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNewEngine_InvalidQuantum_ReturnsError(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.Quantum = 0

	_, err := NewEngine(nil, cfg)

	var cfgErr *InvalidConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "quantum", cfgErr.Field)
}

func TestEngine_EmptySet_AllPoliciesYieldEmptySchedule(t *testing.T) {
	for _, policy := range AllPolicies() {
		t.Run(string(policy), func(t *testing.T) {
			sched := mustRun(t, nil, policy)
			assert.Empty(t, sched.Intervals)
			assert.Equal(t, 0.0, sched.Metrics.AverageWaitingTime)
			assert.Equal(t, 0.0, sched.Metrics.AverageCompletionTime)
			assert.Equal(t, int64(0), sched.Metrics.Makespan)
		})
	}
}

func TestEngine_ZeroBurst_CompletesWithoutInterval(t *testing.T) {
	for _, policy := range AllPolicies() {
		t.Run(string(policy), func(t *testing.T) {
			procs := []Process{NewProcess("Z", 0, 2, 1), NewProcess("A", 2, 0, 1)}

			sched := mustRun(t, procs, policy)

			z := processByID(t, sched, "Z")
			assert.True(t, z.Completed())
			assert.Equal(t, int64(0), z.WaitingTime)
			for _, iv := range sched.Intervals {
				assert.NotEqual(t, "Z", iv.ProcessID)
			}
		})
	}
}

func TestEngine_AllPolicies_ConserveBurstAndBoundCompletion(t *testing.T) {
	for _, policy := range AllPolicies() {
		t.Run(string(policy), func(t *testing.T) {
			// GIVEN a workload with idle gaps and ties
			procs := mixedWorkload()

			// WHEN scheduled
			sched := mustRun(t, procs, policy)

			// THEN every process runs exactly its burst and completes no earlier than arrival+burst
			ran := DurationByProcess(sched.Intervals, IntervalRunning)
			for _, p := range sched.Processes {
				assert.Equal(t, p.BurstTime, ran[p.ID], "burst of %s", p.ID)
				require.True(t, p.Completed(), "%s not completed", p.ID)
				assert.GreaterOrEqual(t, p.CompletionTime, p.ArrivalTime+p.BurstTime)
				assert.Equal(t, p.CompletionTime-p.ArrivalTime-p.BurstTime, p.WaitingTime)
				assert.GreaterOrEqual(t, p.WaitingTime, int64(0))
			}

			// AND intervals never overlap or run backwards
			for i, iv := range sched.Intervals {
				assert.Greater(t, iv.End, iv.Start)
				if i > 0 {
					assert.GreaterOrEqual(t, iv.Start, sched.Intervals[i-1].End)
				}
			}
		})
	}
}

func TestEngine_Run_Idempotent(t *testing.T) {
	engine, err := NewEngine(mixedWorkload(), DefaultSimConfig())
	require.NoError(t, err)

	for _, policy := range AllPolicies() {
		t.Run(string(policy), func(t *testing.T) {
			// WHEN the same policy runs twice
			first, err := engine.Run(policy)
			require.NoError(t, err)
			second, err := engine.Run(policy)
			require.NoError(t, err)

			// THEN interval logs and metrics are identical
			assert.Equal(t, first.Intervals, second.Intervals)
			assert.Equal(t, first.Metrics, second.Metrics)
		})
	}
}

func TestEngine_Run_DoesNotMutateCanonicalRegistry(t *testing.T) {
	procs := mixedWorkload()
	engine, err := NewEngine(procs, DefaultSimConfig())
	require.NoError(t, err)

	_, err = engine.Run(PolicyPriority)
	require.NoError(t, err)

	for i, p := range engine.Processes() {
		assert.Equal(t, procs[i].Priority, p.Priority)
		assert.Equal(t, StatePending, p.State)
		assert.Equal(t, p.BurstTime, p.RemainingTime)
	}
}

func TestEngine_Trace_RecordsDispatchesAndPreemptions(t *testing.T) {
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	procs := []Process{NewProcess("P1", 8, 0, 1), NewProcess("P2", 4, 1, 1)}

	mustRun(t, procs, PolicySRTF, func(c *SimConfig) { c.Trace = st })

	summary := trace.Summarize(st)
	assert.Equal(t, 3, summary.TotalDispatches)
	require.Len(t, st.Preemptions, 1)
	assert.Equal(t, "P1", st.Preemptions[0].Preempted)
	assert.Equal(t, "P2", st.Preemptions[0].By)
	assert.Equal(t, int64(7), st.Preemptions[0].Remaining)
}

func TestProcess_ResponseTime_FirstDispatchOnly(t *testing.T) {
	procs := []Process{NewProcess("P1", 5, 0, 1), NewProcess("P2", 3, 0, 1)}

	sched := mustRun(t, procs, PolicyRoundRobin)

	p1 := processByID(t, sched, "P1")
	p2 := processByID(t, sched, "P2")
	assert.Equal(t, int64(0), p1.ResponseTime())
	assert.Equal(t, int64(2), p2.ResponseTime())
}
