package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRunProfile_AllKeys(t *testing.T) {
	data := []byte(`
processes: p.txt
resources: r.txt
actions: a.txt
policies: [fifo, rr]
quantum: 3
aging_interval: 4
sync_mode: mutex
output: json
trace_level: decisions
metrics_out: m.prom
otel_out: spans.json
report_out: mem://localhost/report.json
`)

	profile, err := parseRunProfile(data)

	require.NoError(t, err)
	assert.Equal(t, "p.txt", profile.Processes)
	assert.Equal(t, []string{"fifo", "rr"}, profile.Policies)
	assert.Equal(t, int64(3), profile.Quantum)
	assert.Equal(t, int64(4), profile.AgingInterval)
	assert.Equal(t, "mutex", profile.SyncMode)
	assert.Equal(t, "mem://localhost/report.json", profile.ReportOut)
}

func TestParseRunProfile_UnknownKey_Rejected(t *testing.T) {
	// GIVEN a profile with a typo in a key
	data := []byte("processes: p.txt\nquantom: 3\n")

	// WHEN parsed
	_, err := parseRunProfile(data)

	// THEN strict parsing rejects it
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantom")
}

func TestApplyProfile_ExplicitFlagsWin(t *testing.T) {
	// GIVEN flag values where only --quantum was set explicitly
	raw := rawOptions{processes: "", policies: []string{"fifo"}, quantum: 5, output: "table"}
	profile := &RunProfile{Processes: "p.txt", Policies: []string{"sjf"}, Quantum: 3, Output: "json"}
	changed := func(flag string) bool { return flag == "quantum" }

	// WHEN the profile is applied
	applyProfile(&raw, profile, changed)

	// THEN unset flags take profile values and the explicit flag is kept
	assert.Equal(t, "p.txt", raw.processes)
	assert.Equal(t, []string{"sjf"}, raw.policies)
	assert.Equal(t, int64(5), raw.quantum)
	assert.Equal(t, "json", raw.output)
}

func TestApplyProfile_EmptyValues_KeepFlagDefaults(t *testing.T) {
	raw := rawOptions{policies: []string{"fifo"}, quantum: 2, agingInterval: 5, output: "table"}

	applyProfile(&raw, &RunProfile{}, func(string) bool { return false })

	assert.Equal(t, []string{"fifo"}, raw.policies)
	assert.Equal(t, int64(2), raw.quantum)
	assert.Equal(t, int64(5), raw.agingInterval)
	assert.Equal(t, "table", raw.output)
}

func TestLoadRunProfile_Testdata(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("testdata", "profile.yaml"))
	require.NoError(t, err)

	profile, err := LoadRunProfile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, []string{"fifo", "rr"}, profile.Policies)
	assert.Equal(t, int64(3), profile.Quantum)
	assert.Equal(t, "json", profile.Output)
}

func TestLoadRunProfile_Missing(t *testing.T) {
	_, err := LoadRunProfile(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
