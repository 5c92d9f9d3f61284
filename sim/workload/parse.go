package workload

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inference-sim/cpu-sim/sim"
	"github.com/inference-sim/cpu-sim/sim/contention"
)

// Field counts of the three record formats.
const (
	processFields  = 4 // <pid>,<burst>,<arrival>,<priority>
	resourceFields = 2 // <name>,<capacity>
	actionFields   = 4 // <pid>,<READ|WRITE>,<resource>,<cycle>
)

// record is one non-blank input line split into trimmed fields.
type record struct {
	line   int
	raw    string
	fields []string
}

// scanRecords reads line-oriented comma separated records. Blank lines are
// skipped; every other line must have exactly want fields.
func scanRecords(r io.Reader, source string, want int) ([]record, error) {
	var out []record
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		if len(parts) != want {
			return nil, &sim.InputParseError{
				Source: source, Line: lineNo, Record: raw,
				Reason: fmt.Sprintf("expected %d fields, got %d", want, len(parts)),
			}
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		out = append(out, record{line: lineNo, raw: raw, fields: parts})
	}
	if err := scanner.Err(); err != nil {
		return nil, &sim.FileUnavailableError{Path: source, Err: err}
	}
	return out, nil
}

func (rec record) fail(source, reason string, err error) error {
	return &sim.InputParseError{Source: source, Line: rec.line, Record: rec.raw, Reason: reason, Err: err}
}

func (rec record) int64Field(source string, idx int, name string) (int64, error) {
	v, err := strconv.ParseInt(rec.fields[idx], 10, 64)
	if err != nil {
		return 0, rec.fail(source, fmt.Sprintf("%s %q is not an integer", name, rec.fields[idx]), err)
	}
	return v, nil
}

// ParseProcesses reads process records. Process IDs must be unique and
// burst/arrival non-negative.
func ParseProcesses(r io.Reader, source string) ([]sim.Process, error) {
	records, err := scanRecords(r, source, processFields)
	if err != nil {
		return nil, err
	}
	procs := make([]sim.Process, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		burst, err := rec.int64Field(source, 1, "burst time")
		if err != nil {
			return nil, err
		}
		arrival, err := rec.int64Field(source, 2, "arrival time")
		if err != nil {
			return nil, err
		}
		priority, err := rec.int64Field(source, 3, "priority")
		if err != nil {
			return nil, err
		}
		p := sim.NewProcess(rec.fields[0], burst, arrival, int(priority))
		if err := p.Validate(); err != nil {
			return nil, rec.fail(source, "invalid process", err)
		}
		if seen[p.ID] {
			return nil, rec.fail(source, fmt.Sprintf("duplicate process id %q", p.ID), nil)
		}
		seen[p.ID] = true
		procs = append(procs, p)
	}
	return procs, nil
}

// ParseResources reads resource records. Names must be unique and capacities >= 1.
func ParseResources(r io.Reader, source string) ([]contention.Resource, error) {
	records, err := scanRecords(r, source, resourceFields)
	if err != nil {
		return nil, err
	}
	resources := make([]contention.Resource, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		capacity, err := rec.int64Field(source, 1, "capacity")
		if err != nil {
			return nil, err
		}
		res := contention.Resource{Name: rec.fields[0], Capacity: int(capacity)}
		if err := res.Validate(); err != nil {
			return nil, rec.fail(source, "invalid resource", err)
		}
		if seen[res.Name] {
			return nil, rec.fail(source, fmt.Sprintf("duplicate resource %q", res.Name), nil)
		}
		seen[res.Name] = true
		resources = append(resources, res)
	}
	return resources, nil
}

// ParseActions reads action records in file order.
func ParseActions(r io.Reader, source string) ([]contention.Action, error) {
	records, err := scanRecords(r, source, actionFields)
	if err != nil {
		return nil, err
	}
	actions := make([]contention.Action, 0, len(records))
	for _, rec := range records {
		kind, err := contention.ParseActionKind(rec.fields[1])
		if err != nil {
			return nil, rec.fail(source, "invalid action kind", err)
		}
		cycle, err := rec.int64Field(source, 3, "cycle")
		if err != nil {
			return nil, err
		}
		a := contention.Action{ProcessID: rec.fields[0], Kind: kind, Resource: rec.fields[2], Cycle: cycle}
		if err := a.Validate(); err != nil {
			return nil, rec.fail(source, "invalid action", err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
