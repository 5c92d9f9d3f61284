package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// RunProfile is a YAML run profile passed with --config. Every key mirrors a
// flag; flags set explicitly on the command line win over the profile.
// All keys must be listed to satisfy KnownFields(true) strict parsing.
type RunProfile struct {
	Processes     string   `yaml:"processes"`
	Resources     string   `yaml:"resources"`
	Actions       string   `yaml:"actions"`
	Policies      []string `yaml:"policies"`
	Quantum       int64    `yaml:"quantum"`
	AgingInterval int64    `yaml:"aging_interval"`
	SyncMode      string   `yaml:"sync_mode"`
	Output        string   `yaml:"output"`
	TraceLevel    string   `yaml:"trace_level"`
	MetricsOut    string   `yaml:"metrics_out"`
	OtelOut       string   `yaml:"otel_out"`
	ReportOut     string   `yaml:"report_out"`
	TraceOut      string   `yaml:"trace_out"`
}

// LoadRunProfile reads a profile from a path or afs URL. Unknown keys are errors.
func LoadRunProfile(ctx context.Context, location string) (*RunProfile, error) {
	fs := afs.New()
	URL := url.Normalize(location, file.Scheme)
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("reading run profile %s: %w", location, err)
	}
	return parseRunProfile(data)
}

func parseRunProfile(data []byte) (*RunProfile, error) {
	var profile RunProfile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&profile); err != nil {
		return nil, fmt.Errorf("parsing run profile: %w", err)
	}
	return &profile, nil
}

// applyProfile copies non-empty profile values into raw for every flag that
// changed reports as unset.
func applyProfile(raw *rawOptions, p *RunProfile, changed func(flag string) bool) {
	setString := func(flag string, dst *string, v string) {
		if v != "" && !changed(flag) {
			*dst = v
		}
	}
	setInt := func(flag string, dst *int64, v int64) {
		if v != 0 && !changed(flag) {
			*dst = v
		}
	}

	setString("processes", &raw.processes, p.Processes)
	setString("resources", &raw.resources, p.Resources)
	setString("actions", &raw.actions, p.Actions)
	if len(p.Policies) > 0 && !changed("policy") {
		raw.policies = p.Policies
	}
	setInt("quantum", &raw.quantum, p.Quantum)
	setInt("aging-interval", &raw.agingInterval, p.AgingInterval)
	setString("sync-mode", &raw.syncMode, p.SyncMode)
	setString("output", &raw.output, p.Output)
	setString("trace-level", &raw.traceLevel, p.TraceLevel)
	setString("metrics-out", &raw.metricsOut, p.MetricsOut)
	setString("otel-out", &raw.otelOut, p.OtelOut)
	setString("report-out", &raw.reportOut, p.ReportOut)
	setString("trace-out", &raw.traceOut, p.TraceOut)
}
