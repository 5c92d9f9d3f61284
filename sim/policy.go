package sim

import (
	"fmt"
	"sort"
	"strings"
)

// Policy selects the scheduling algorithm for a run. It is passed directly to
// Engine.Run; the string value doubles as the CLI and YAML spelling.
type Policy string

const (
	// PolicyFIFO runs processes to completion in arrival order.
	PolicyFIFO Policy = "fifo"
	// PolicySJF runs the shortest ready burst to completion (non-preemptive).
	PolicySJF Policy = "sjf"
	// PolicySRTF re-evaluates every cycle and preempts on strictly shorter remaining time.
	PolicySRTF Policy = "srtf"
	// PolicyRoundRobin time-slices a FIFO ready queue with a fixed quantum.
	PolicyRoundRobin Policy = "rr"
	// PolicyPriority runs the best priority to completion, aging waiting processes.
	PolicyPriority Policy = "priority"
)

// validPolicies is the set of recognized policy names.
var validPolicies = map[Policy]bool{
	PolicyFIFO:       true,
	PolicySJF:        true,
	PolicySRTF:       true,
	PolicyRoundRobin: true,
	PolicyPriority:   true,
}

// policyAliases maps alternative spellings accepted on input to canonical names.
var policyAliases = map[string]Policy{
	"fcfs":        PolicyFIFO,
	"round-robin": PolicyRoundRobin,
	"roundrobin":  PolicyRoundRobin,
	"prio":        PolicyPriority,
	"aging":       PolicyPriority,
}

// policyOrder fixes the presentation order used by AllPolicies.
var policyOrder = map[Policy]int{
	PolicyFIFO:       0,
	PolicySJF:        1,
	PolicySRTF:       2,
	PolicyRoundRobin: 3,
	PolicyPriority:   4,
}

// ParsePolicy resolves a case-insensitive policy name or alias.
// An empty or unknown name is an InvalidConfigurationError.
func ParsePolicy(name string) (Policy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", &InvalidConfigurationError{Field: "policy", Reason: "no policy selected"}
	}
	if p, ok := policyAliases[key]; ok {
		return p, nil
	}
	if validPolicies[Policy(key)] {
		return Policy(key), nil
	}
	return "", &InvalidConfigurationError{
		Field:  "policy",
		Reason: fmt.Sprintf("unknown policy %q; valid: %s", name, strings.Join(PolicyNames(), ", ")),
	}
}

// ParsePolicies resolves a list of names, dropping duplicates while keeping
// first-seen order. At least one policy is required.
func ParsePolicies(names []string) ([]Policy, error) {
	seen := make(map[Policy]bool)
	var out []Policy
	for _, name := range names {
		p, err := ParsePolicy(name)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, &InvalidConfigurationError{Field: "policy", Reason: "no policy selected"}
	}
	return out, nil
}

// AllPolicies returns every policy in presentation order.
func AllPolicies() []Policy {
	out := make([]Policy, 0, len(validPolicies))
	for p := range validPolicies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return policyOrder[out[i]] < policyOrder[out[j]] })
	return out
}

// PolicyNames returns the canonical names of AllPolicies.
func PolicyNames() []string {
	all := AllPolicies()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = string(p)
	}
	return names
}

// Preemptive reports whether the policy may interrupt a running process.
func (p Policy) Preemptive() bool {
	return p == PolicySRTF || p == PolicyRoundRobin
}

// Label returns the upper-case tag used in reports (e.g. "FIFO", "RR").
func (p Policy) Label() string {
	if p == PolicyPriority {
		return "PRIO"
	}
	return strings.ToUpper(string(p))
}
