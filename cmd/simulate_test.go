package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/inference-sim/cpu-sim/sim"
	"github.com/inference-sim/cpu-sim/sim/contention"
	"github.com/inference-sim/cpu-sim/sim/session"
	"github.com/inference-sim/cpu-sim/sim/trace"
)

func testdataPath(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)
	return path
}

func baseOptions(t *testing.T) runOptions {
	return runOptions{
		Processes:     testdataPath(t, "processes.txt"),
		Policies:      []sim.Policy{sim.PolicyFIFO},
		Quantum:       sim.DefaultQuantum,
		AgingInterval: sim.DefaultAgingInterval,
		Mode:          contention.ModeSemaphore,
		Output:        outputJSON,
		TraceLevel:    trace.TraceLevelNone,
	}
}

func decodeReport(t *testing.T, data []byte) report {
	t.Helper()
	var r report
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func TestExecuteRun_JSON_FIFO(t *testing.T) {
	// GIVEN the sample process set and a FIFO run
	opts := baseOptions(t)
	var buf bytes.Buffer

	// WHEN the run executes
	require.NoError(t, executeRun(context.Background(), opts, &buf))

	// THEN the JSON report carries the FIFO schedule and its averages
	r := decodeReport(t, buf.Bytes())
	require.Len(t, r.Outcomes, 1)
	out := r.Outcomes[0]
	assert.Equal(t, sim.PolicyFIFO, out.Policy)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, "P1[0-5] P2[5-8] P3[8-9] P4[9-11]", sim.FormatIntervals(out.Intervals))
	assert.InDelta(t, 4.0, out.Metrics.AverageWaitingTime, 1e-9)
	assert.Equal(t, int64(11), out.Metrics.Makespan)
	assert.Nil(t, r.Trace)
}

func TestExecuteRun_MultiplePolicies_OneOutcomeEach(t *testing.T) {
	opts := baseOptions(t)
	opts.Policies = []sim.Policy{sim.PolicyFIFO, sim.PolicyRoundRobin}
	opts.Quantum = 3
	var buf bytes.Buffer

	require.NoError(t, executeRun(context.Background(), opts, &buf))

	r := decodeReport(t, buf.Bytes())
	require.Len(t, r.Outcomes, 2)
	assert.Equal(t, sim.PolicyRoundRobin, r.Outcomes[1].Policy)
	assert.Equal(t, int64(3), r.Outcomes[1].Quantum)
	assert.Equal(t, "P1[0-3] P2[3-6] P3[6-7] P4[7-9] P1[9-11]", sim.FormatIntervals(r.Outcomes[1].Intervals))
}

func TestExecuteRun_TraceAndSideOutputs(t *testing.T) {
	// GIVEN decision tracing, a metrics textfile and a span export file
	dir := t.TempDir()
	opts := baseOptions(t)
	opts.Policies = []sim.Policy{sim.PolicySRTF}
	opts.TraceLevel = trace.TraceLevelDecisions
	opts.MetricsOut = filepath.Join(dir, "cpusim.prom")
	opts.OtelOut = filepath.Join(dir, "spans.json")
	var buf bytes.Buffer

	// WHEN the run executes
	require.NoError(t, executeRun(context.Background(), opts, &buf))

	// THEN the report carries a trace summary
	r := decodeReport(t, buf.Bytes())
	require.NotNil(t, r.Trace)
	assert.Equal(t, 4, r.Trace.UniqueProcesses)
	assert.Greater(t, r.Trace.TotalDispatches, 0)

	// AND the metrics textfile has the run counters
	metrics, err := os.ReadFile(opts.MetricsOut)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `cpusim_runs_total{policy="srtf"} 1`)

	// AND the span of the run was exported
	spans, err := os.ReadFile(opts.OtelOut)
	require.NoError(t, err)
	assert.Contains(t, string(spans), "cpu-sim/schedule")
}

func TestExecuteRun_MissingProcessFile_Fails(t *testing.T) {
	opts := baseOptions(t)
	opts.Processes = filepath.Join(t.TempDir(), "absent.txt")

	err := executeRun(context.Background(), opts, &bytes.Buffer{})

	var unavailable *sim.FileUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestExecuteSync_BlockingReported(t *testing.T) {
	// GIVEN P1 writing R1 on its last cycle and P2 reading it on its first
	opts := baseOptions(t)
	opts.Resources = testdataPath(t, "resources.txt")
	opts.Actions = testdataPath(t, "actions.txt")
	opts.Mode = contention.ModeMutex
	var buf bytes.Buffer

	// WHEN the synchronization view runs
	require.NoError(t, executeSync(context.Background(), opts, &buf))

	// THEN P2 waits one cycle for the unit P1 held
	r := decodeReport(t, buf.Bytes())
	require.Len(t, r.Outcomes, 1)
	out := r.Outcomes[0]
	assert.True(t, out.Synchronized)
	require.NotNil(t, out.Contention)
	assert.Equal(t, contention.ModeMutex, out.Contention.Mode)
	assert.Equal(t, sim.IntervalAccessed, out.Intervals[4].State)
	assert.Equal(t, sim.Interval{ProcessID: "P2", Start: 5, End: 6, State: sim.IntervalWaiting}, out.Intervals[5])
	assert.Equal(t, sim.Interval{ProcessID: "P2", Start: 6, End: 7, State: sim.IntervalAccessed}, out.Intervals[6])
	assert.Equal(t, map[string]int64{"P2": 1}, out.Contention.Unfinished)
}

func TestExecuteSync_TableOutput(t *testing.T) {
	opts := baseOptions(t)
	opts.Resources = testdataPath(t, "resources.txt")
	opts.Actions = testdataPath(t, "actions.txt")
	opts.Output = outputTable
	var buf bytes.Buffer

	require.NoError(t, executeSync(context.Background(), opts, &buf))

	output := buf.String()
	assert.Contains(t, output, "SYNC/SEMAPHORE")
	assert.Contains(t, output, "Cycle log")
	assert.Contains(t, output, "WAITING")
	assert.Contains(t, output, "Resources (semaphore mode)")
	assert.Contains(t, output, "P2 left 1 cycle(s) of work unfinished")
}

func TestExecuteValidate_ReportsCounts(t *testing.T) {
	opts := baseOptions(t)
	opts.Resources = testdataPath(t, "resources.txt")
	opts.Actions = testdataPath(t, "actions.txt")
	var buf bytes.Buffer

	require.NoError(t, executeValidate(context.Background(), opts, &buf))

	assert.Equal(t, "processes: 4\nresources: 1\nactions: 2\n", buf.String())
}

func TestExecuteValidate_MalformedInput_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("P1,4,0,1\nP2,three,1,1\n"), 0o644))
	opts := baseOptions(t)
	opts.Processes = path

	err := executeValidate(context.Background(), opts, &bytes.Buffer{})

	var parseErr *sim.InputParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)
}

func TestStoreReport_MemURL(t *testing.T) {
	// GIVEN a report and an in-memory destination
	ctx := context.Background()
	service := afs.New()
	r := newReport([]*session.Outcome{{RunID: "run-1", Policy: sim.PolicySJF}}, nil)

	// WHEN the report is stored
	require.NoError(t, storeReport(ctx, service, "mem://localhost/cpu-sim/report.json", r))

	// THEN it can be read back as the same JSON
	data, err := service.DownloadWithURL(ctx, "mem://localhost/cpu-sim/report.json")
	require.NoError(t, err)
	stored := decodeReport(t, data)
	require.Len(t, stored.Outcomes, 1)
	assert.Equal(t, "run-1", stored.Outcomes[0].RunID)
}

func TestStoreTrace_MemURL(t *testing.T) {
	ctx := context.Background()
	service := afs.New()
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	st.RecordDispatch(trace.DispatchRecord{ProcessID: "P1", Policy: "fifo", Reason: "arrival-order"})

	require.NoError(t, storeTrace(ctx, service, "mem://localhost/cpu-sim/trace.yaml", st))

	data, err := service.DownloadWithURL(ctx, "mem://localhost/cpu-sim/trace.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "reason: arrival-order")
	assert.Contains(t, string(data), "total_dispatches: 1")
}

func TestExecuteRun_TraceOutToFile(t *testing.T) {
	opts := baseOptions(t)
	opts.Policies = []sim.Policy{sim.PolicyPriority}
	opts.TraceLevel = trace.TraceLevelDecisions
	opts.TraceOut = filepath.Join(t.TempDir(), "trace.yaml")

	require.NoError(t, executeRun(context.Background(), opts, &bytes.Buffer{}))

	data, err := os.ReadFile(opts.TraceOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level: decisions")
	assert.Contains(t, string(data), "policy: priority")
}
