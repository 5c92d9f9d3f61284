package trace

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// traceDocument is the on-disk layout of an exported trace.
type traceDocument struct {
	Level       TraceLevel         `yaml:"level"`
	Summary     *TraceSummary      `yaml:"summary"`
	Dispatches  []DispatchRecord   `yaml:"dispatches"`
	Preemptions []PreemptionRecord `yaml:"preemptions,omitempty"`
	Agings      []AgingRecord      `yaml:"agings,omitempty"`
	Contentions []ContentionRecord `yaml:"contentions,omitempty"`
}

// WriteYAML exports every collected record, preceded by its summary.
func (st *SimulationTrace) WriteYAML(w io.Writer) error {
	doc := traceDocument{
		Level:       st.Config.Level,
		Summary:     Summarize(st),
		Dispatches:  st.Dispatches,
		Preemptions: st.Preemptions,
		Agings:      st.Agings,
		Contentions: st.Contentions,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding trace: %w", err)
	}
	return enc.Close()
}
