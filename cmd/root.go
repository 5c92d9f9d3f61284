package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/cpu-sim/sim"
	"github.com/inference-sim/cpu-sim/sim/contention"
	"github.com/inference-sim/cpu-sim/sim/trace"
)

var (
	// Input locations: plain paths or afs URLs
	processesPath string // Process records: id, burst, arrival, priority
	resourcesPath string // Resource records: name, capacity
	actionsPath   string // Action records: pid, READ|WRITE, resource, cycle

	// Scheduling configuration
	policyNames   []string // Policies to simulate, in report order
	quantum       int64    // Round Robin time slice in cycles
	agingInterval int64    // Cycles between priority aging passes
	syncMode      string   // mutex or semaphore

	// Output configuration
	profilePath  string // YAML run profile
	outputFormat string // table or json
	logLevel     string // Log verbosity level
	traceLevel   string // Decision trace verbosity
	metricsOut   string // Prometheus textfile destination
	otelOut      string // Span export destination
	reportOut    string // Copy of the JSON report, path or afs URL
	traceOut     string // YAML export of the decision trace, path or afs URL
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "cpu-sim",
	Short: "Discrete-event simulator for CPU scheduling and resource synchronization",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd simulates every selected policy over the same process set
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one or more scheduling policies and compare them",
	Run: func(cmd *cobra.Command, args []string) {
		opts := mustResolve(cmd)
		if err := executeRun(cmd.Context(), opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// syncCmd runs the synchronization view: a FIFO base schedule with resource contention
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the resource synchronization view over a FIFO schedule",
	Run: func(cmd *cobra.Command, args []string) {
		opts := mustResolve(cmd)
		if opts.Resources == "" || opts.Actions == "" {
			logrus.Fatalf("sync requires both --resources and --actions")
		}
		if err := executeSync(cmd.Context(), opts, os.Stdout); err != nil {
			logrus.Fatalf("Synchronization failed: %v", err)
		}
	},
}

// validateCmd loads inputs without simulating
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate input files",
	Run: func(cmd *cobra.Command, args []string) {
		opts := mustResolve(cmd)
		if err := executeValidate(cmd.Context(), opts, os.Stdout); err != nil {
			logrus.Fatalf("Validation failed: %v", err)
		}
	},
}

// rawOptions holds flag values before the run profile is merged and parsed.
type rawOptions struct {
	processes     string
	resources     string
	actions       string
	policies      []string
	quantum       int64
	agingInterval int64
	syncMode      string
	output        string
	traceLevel    string
	metricsOut    string
	otelOut       string
	reportOut     string
	traceOut      string
}

// runOptions is the resolved configuration of one CLI invocation.
type runOptions struct {
	Processes     string
	Resources     string
	Actions       string
	Policies      []sim.Policy
	Quantum       int64
	AgingInterval int64
	Mode          contention.Mode
	Output        string
	TraceLevel    trace.TraceLevel
	MetricsOut    string
	OtelOut       string
	ReportOut     string
	TraceOut      string
}

const (
	outputTable = "table"
	outputJSON  = "json"
)

func flagValues() rawOptions {
	return rawOptions{
		processes:     processesPath,
		resources:     resourcesPath,
		actions:       actionsPath,
		policies:      policyNames,
		quantum:       quantum,
		agingInterval: agingInterval,
		syncMode:      syncMode,
		output:        outputFormat,
		traceLevel:    traceLevel,
		metricsOut:    metricsOut,
		otelOut:       otelOut,
		reportOut:     reportOut,
		traceOut:      traceOut,
	}
}

// mustResolve merges the optional run profile under the command's flags.
func mustResolve(cmd *cobra.Command) runOptions {
	raw := flagValues()
	if profilePath != "" {
		profile, err := LoadRunProfile(cmd.Context(), profilePath)
		if err != nil {
			logrus.Fatalf("Failed to load run profile: %v", err)
		}
		applyProfile(&raw, profile, cmd.Flags().Changed)
		logrus.Debugf("applied run profile %s", profilePath)
	}
	opts, err := raw.resolve()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return opts
}

// resolve parses and validates raw flag values.
func (raw rawOptions) resolve() (runOptions, error) {
	if raw.processes == "" {
		return runOptions{}, &sim.InvalidConfigurationError{Field: "processes", Reason: "no process file given"}
	}

	var policies []sim.Policy
	if len(raw.policies) == 1 && strings.EqualFold(raw.policies[0], "all") {
		policies = sim.AllPolicies()
	} else {
		parsed, err := sim.ParsePolicies(raw.policies)
		if err != nil {
			return runOptions{}, err
		}
		policies = parsed
	}

	mode, err := contention.ParseMode(raw.syncMode)
	if err != nil {
		return runOptions{}, err
	}

	output := strings.ToLower(raw.output)
	if output != outputTable && output != outputJSON {
		return runOptions{}, &sim.InvalidConfigurationError{
			Field:  "output",
			Reason: fmt.Sprintf("unknown format %q; valid: %s, %s", raw.output, outputTable, outputJSON),
		}
	}

	if !trace.IsValidTraceLevel(raw.traceLevel) {
		return runOptions{}, &sim.InvalidConfigurationError{
			Field:  "trace-level",
			Reason: fmt.Sprintf("unknown level %q; valid: none, decisions", raw.traceLevel),
		}
	}

	if raw.traceOut != "" && trace.TraceLevel(raw.traceLevel) != trace.TraceLevelDecisions {
		return runOptions{}, &sim.InvalidConfigurationError{
			Field:  "trace-out",
			Reason: "requires --trace-level decisions",
		}
	}

	opts := runOptions{
		Processes:     raw.processes,
		Resources:     raw.resources,
		Actions:       raw.actions,
		Policies:      policies,
		Quantum:       raw.quantum,
		AgingInterval: raw.agingInterval,
		Mode:          mode,
		Output:        output,
		TraceLevel:    trace.TraceLevel(raw.traceLevel),
		MetricsOut:    raw.metricsOut,
		OtelOut:       raw.otelOut,
		ReportOut:     raw.reportOut,
		TraceOut:      raw.traceOut,
	}
	config := sim.SimConfig{Quantum: opts.Quantum, AgingInterval: opts.AgingInterval}
	if err := config.Validate(); err != nil {
		return runOptions{}, err
	}
	return opts, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func registerInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&processesPath, "processes", "", "Process file (id, burst, arrival, priority per line)")
	cmd.Flags().StringVar(&resourcesPath, "resources", "", "Resource file (name, capacity per line)")
	cmd.Flags().StringVar(&actionsPath, "actions", "", "Action file (pid, READ|WRITE, resource, cycle per line)")
	cmd.Flags().StringVar(&profilePath, "config", "", "YAML run profile; explicit flags override it")
}

func registerOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputFormat, "output", outputTable, "Report format (table, json)")
	cmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write run metrics as a Prometheus textfile")
	cmd.Flags().StringVar(&otelOut, "otel-out", "", "Export run spans to this file")
	cmd.Flags().StringVar(&reportOut, "report-out", "", "Also store the JSON report at this path or afs URL")
	cmd.Flags().StringVar(&traceOut, "trace-out", "", "Export the decision trace as YAML to this path or afs URL")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerInputFlags(runCmd)
	registerOutputFlags(runCmd)
	runCmd.Flags().StringSliceVar(&policyNames, "policy", []string{string(sim.PolicyFIFO)}, "Policies to run: "+strings.Join(sim.PolicyNames(), ", ")+", or all")
	runCmd.Flags().Int64Var(&quantum, "quantum", sim.DefaultQuantum, "Round Robin quantum in cycles")
	runCmd.Flags().Int64Var(&agingInterval, "aging-interval", sim.DefaultAgingInterval, "Cycles between priority aging passes")

	registerInputFlags(syncCmd)
	registerOutputFlags(syncCmd)
	syncCmd.Flags().StringVar(&syncMode, "sync-mode", string(contention.ModeSemaphore), "Resource mode (mutex, semaphore)")

	registerInputFlags(validateCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(validateCmd)
}
