package workload

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// GeneratorSpec describes a synthetic process set. Loaded from YAML via
// Loader.GeneratorSpec or built from CLI flags.
type GeneratorSpec struct {
	Seed     int64        `yaml:"seed"`
	Count    int          `yaml:"count"`
	IDPrefix string       `yaml:"id_prefix,omitempty"` // default "P"
	Rate     float64      `yaml:"rate"`                // mean arrivals per cycle
	Arrival  ArrivalSpec  `yaml:"arrival"`
	Burst    DistSpec     `yaml:"burst"`
	Priority PrioritySpec `yaml:"priority"`
}

// ArrivalSpec configures the inter-arrival gap process.
type ArrivalSpec struct {
	Process string   `yaml:"process"`
	CV      *float64 `yaml:"cv,omitempty"`
}

// DistSpec parameterizes a burst length distribution.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// PrioritySpec bounds uniformly drawn priorities, inclusive.
type PrioritySpec struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Valid value registries.
var (
	validArrivalProcesses = map[string]bool{
		"poisson": true, "gamma": true, "weibull": true, "constant": true,
	}
	validDistTypes = map[string]bool{
		"gaussian": true, "exponential": true, "uniform": true, "constant": true,
	}
)

// DefaultGeneratorSpec returns ten Poisson arrivals at one every two cycles,
// Gaussian bursts around 5 cycles and priorities 1 to 5.
func DefaultGeneratorSpec() GeneratorSpec {
	return GeneratorSpec{
		Seed:    42,
		Count:   10,
		Rate:    0.5,
		Arrival: ArrivalSpec{Process: "poisson"},
		Burst: DistSpec{Type: "gaussian", Params: map[string]float64{
			"mean": 5, "std_dev": 2, "min": 1, "max": 12,
		}},
		Priority: PrioritySpec{Min: 1, Max: 5},
	}
}

// ParseGeneratorSpec decodes a YAML generator spec.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func ParseGeneratorSpec(data []byte) (*GeneratorSpec, error) {
	var spec GeneratorSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing generator spec: %w", err)
	}
	return &spec, nil
}

// GeneratorSpec loads a YAML generator spec from location.
func (l *Loader) GeneratorSpec(ctx context.Context, location string) (*GeneratorSpec, error) {
	data, err := l.download(ctx, location)
	if err != nil {
		return nil, err
	}
	return ParseGeneratorSpec(data)
}

// Validate checks that all fields in the spec are valid.
func (s *GeneratorSpec) Validate() error {
	if s.Count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", s.Count)
	}
	if err := validateFinitePositive("rate", s.Rate); err != nil {
		return err
	}
	if !validArrivalProcesses[s.Arrival.Process] {
		return fmt.Errorf("unknown arrival process %q; valid: poisson, gamma, weibull, constant", s.Arrival.Process)
	}
	if s.Arrival.CV != nil {
		if err := validateFinitePositive("arrival.cv", *s.Arrival.CV); err != nil {
			return err
		}
		if s.Arrival.Process == "weibull" && (*s.Arrival.CV < 0.01 || *s.Arrival.CV > 10.4) {
			return fmt.Errorf("weibull CV must be in [0.01, 10.4], got %f", *s.Arrival.CV)
		}
	}
	if !validDistTypes[s.Burst.Type] {
		return fmt.Errorf("unknown burst distribution %q; valid: gaussian, exponential, uniform, constant", s.Burst.Type)
	}
	for name, val := range s.Burst.Params {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("burst.params.%s must be a finite number, got %f", name, val)
		}
	}
	if s.Priority.Min > s.Priority.Max {
		return fmt.Errorf("priority.min %d exceeds priority.max %d", s.Priority.Min, s.Priority.Max)
	}
	return nil
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
