package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/inference-sim/cpu-sim/sim/workload"
)

var (
	// Synthetic workload flags
	generatorSpecPath string  // YAML generator spec
	seed              int64   // Seed for random process generation
	processCount      int     // Number of processes
	arrivalRate       float64 // Mean arrivals per cycle
	arrivalProcess    string  // poisson, gamma, weibull, constant
	arrivalCV         float64 // Coefficient of variation for gamma/weibull gaps
	burstDist         string  // gaussian, exponential, uniform, constant
	burstMean         float64 // Mean burst in cycles
	burstStdev        float64 // Burst standard deviation (gaussian)
	burstMin          int64   // Shortest burst
	burstMax          int64   // Longest burst
	priorityMin       int     // Best generated priority
	priorityMax       int     // Worst generated priority
	generateOut       string  // Destination, path or afs URL; stdout when empty
)

// generateCmd writes a synthetic process file
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic process file",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := generatorSpec(cmd.Context(), cmd.Flags().Changed)
		if err != nil {
			logrus.Fatalf("Invalid generator configuration: %v", err)
		}
		if err := executeGenerate(cmd.Context(), spec, generateOut, os.Stdout); err != nil {
			logrus.Fatalf("Generation failed: %v", err)
		}
	},
}

// generatorSpec builds the spec from --spec, if given, with explicitly set
// flags layered on top; otherwise from flags alone.
func generatorSpec(ctx context.Context, changed func(flag string) bool) (*workload.GeneratorSpec, error) {
	spec := workload.DefaultGeneratorSpec()
	if generatorSpecPath != "" {
		loaded, err := workload.NewLoader(nil).GeneratorSpec(ctx, generatorSpecPath)
		if err != nil {
			return nil, err
		}
		spec = *loaded
	} else {
		changed = func(string) bool { return true }
	}

	if changed("seed") {
		spec.Seed = seed
	}
	if changed("count") {
		spec.Count = processCount
	}
	if changed("rate") {
		spec.Rate = arrivalRate
	}
	if changed("arrival") {
		spec.Arrival.Process = arrivalProcess
	}
	if changed("arrival-cv") {
		cv := arrivalCV
		spec.Arrival.CV = &cv
	}
	if changed("burst-dist") || changed("burst-mean") || changed("burst-stdev") || changed("burst-min") || changed("burst-max") {
		spec.Burst = workload.DistSpec{Type: burstDist, Params: map[string]float64{
			"mean":    burstMean,
			"std_dev": burstStdev,
			"min":     float64(burstMin),
			"max":     float64(burstMax),
			"value":   burstMean,
		}}
	}
	if changed("priority-min") {
		spec.Priority.Min = priorityMin
	}
	if changed("priority-max") {
		spec.Priority.Max = priorityMax
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// executeGenerate writes the generated process set to location, or to w when
// location is empty.
func executeGenerate(ctx context.Context, spec *workload.GeneratorSpec, location string, w io.Writer) error {
	procs, err := workload.GenerateProcesses(spec)
	if err != nil {
		return err
	}
	if location == "" {
		return workload.WriteProcesses(w, procs)
	}
	var buf bytes.Buffer
	if err := workload.WriteProcesses(&buf, procs); err != nil {
		return err
	}
	URL := url.Normalize(location, file.Scheme)
	if err := afs.New().Upload(ctx, URL, file.DefaultFileOsMode, &buf); err != nil {
		return fmt.Errorf("storing processes at %s: %w", location, err)
	}
	logrus.Infof("wrote %d processes to %s", len(procs), location)
	return nil
}

func init() {
	defaults := workload.DefaultGeneratorSpec()
	generateCmd.Flags().StringVar(&generatorSpecPath, "spec", "", "YAML generator spec; explicit flags override it")
	generateCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for random process generation")
	generateCmd.Flags().IntVar(&processCount, "count", defaults.Count, "Number of processes")
	generateCmd.Flags().Float64Var(&arrivalRate, "rate", defaults.Rate, "Mean arrivals per cycle")
	generateCmd.Flags().StringVar(&arrivalProcess, "arrival", defaults.Arrival.Process, "Arrival process (poisson, gamma, weibull, constant)")
	generateCmd.Flags().Float64Var(&arrivalCV, "arrival-cv", 1.0, "Coefficient of variation of arrival gaps (gamma, weibull)")
	generateCmd.Flags().StringVar(&burstDist, "burst-dist", defaults.Burst.Type, "Burst distribution (gaussian, exponential, uniform, constant)")
	generateCmd.Flags().Float64Var(&burstMean, "burst-mean", defaults.Burst.Params["mean"], "Mean burst in cycles")
	generateCmd.Flags().Float64Var(&burstStdev, "burst-stdev", defaults.Burst.Params["std_dev"], "Burst standard deviation")
	generateCmd.Flags().Int64Var(&burstMin, "burst-min", int64(defaults.Burst.Params["min"]), "Shortest burst")
	generateCmd.Flags().Int64Var(&burstMax, "burst-max", int64(defaults.Burst.Params["max"]), "Longest burst")
	generateCmd.Flags().IntVar(&priorityMin, "priority-min", defaults.Priority.Min, "Best generated priority")
	generateCmd.Flags().IntVar(&priorityMax, "priority-max", defaults.Priority.Max, "Worst generated priority")
	generateCmd.Flags().StringVar(&generateOut, "out", "", "Destination path or afs URL (default stdout)")

	rootCmd.AddCommand(generateCmd)
}
