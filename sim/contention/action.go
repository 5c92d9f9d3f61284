package contention

import (
	"fmt"
	"sort"
	"strings"
)

// ActionKind is the access type of an action. Both kinds acquire one unit;
// the kind is carried through to reports.
type ActionKind string

const (
	ActionRead  ActionKind = "READ"
	ActionWrite ActionKind = "WRITE"
)

// ParseActionKind resolves READ or WRITE, case-insensitively.
func ParseActionKind(s string) (ActionKind, error) {
	switch ActionKind(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionRead:
		return ActionRead, nil
	case ActionWrite:
		return ActionWrite, nil
	}
	return "", fmt.Errorf("unknown action kind %q, expected READ or WRITE", s)
}

// Action requests a resource when its owning process has executed Cycle
// cycles of its own work. Cycle is not a global clock value.
type Action struct {
	ProcessID string     `json:"pid"`
	Kind      ActionKind `json:"kind"`
	Resource  string     `json:"resource"`
	Cycle     int64      `json:"cycle"`
}

// Validate checks the loaded fields.
func (a Action) Validate() error {
	if a.ProcessID == "" {
		return fmt.Errorf("action process id must not be empty")
	}
	if a.Resource == "" {
		return fmt.Errorf("action of %s: resource must not be empty", a.ProcessID)
	}
	if a.Cycle < 0 {
		return fmt.Errorf("action of %s on %s: cycle must be non-negative, got %d", a.ProcessID, a.Resource, a.Cycle)
	}
	if _, err := ParseActionKind(string(a.Kind)); err != nil {
		return err
	}
	return nil
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s %s@%d", a.ProcessID, a.Kind, a.Resource, a.Cycle)
}

// actionState tracks one action during a pass.
type actionState struct {
	Action
	acquired bool
}

// timeline is one process's actions ordered by cycle, load order within a cycle.
type timeline []*actionState

// buildTimelines groups actions by process. Actions on resources not in known
// are returned separately and never fire.
func buildTimelines(actions []Action, known map[string]*lockState) (map[string]timeline, []Action) {
	out := make(map[string]timeline)
	var ignored []Action
	for _, a := range actions {
		if _, ok := known[a.Resource]; !ok {
			ignored = append(ignored, a)
			continue
		}
		out[a.ProcessID] = append(out[a.ProcessID], &actionState{Action: a})
	}
	for _, tl := range out {
		sort.SliceStable(tl, func(i, j int) bool { return tl[i].Cycle < tl[j].Cycle })
	}
	return out, ignored
}

// due returns the not-yet-acquired actions scheduled at progress.
func (tl timeline) due(progress int64) []*actionState {
	var out []*actionState
	for _, a := range tl {
		if a.Cycle == progress && !a.acquired {
			out = append(out, a)
		}
	}
	return out
}
