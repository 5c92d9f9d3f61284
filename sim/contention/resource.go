// Package contention overlays resource acquisition and blocking onto a base
// schedule. It expands a RUNNING interval log into single cycles and replays a
// per-process action timeline against a set of counting locks, marking cycles
// ACCESSED when a resource is acquired and WAITING when the process is blocked.
package contention

import (
	"fmt"
	"strings"

	"github.com/inference-sim/cpu-sim/sim"
)

// Mode selects how resource capacities are interpreted.
type Mode string

const (
	// ModeSemaphore uses each resource's loaded capacity.
	ModeSemaphore Mode = "semaphore"
	// ModeMutex clamps every resource to a capacity of one.
	ModeMutex Mode = "mutex"
)

// ParseMode resolves a case-insensitive mode name. Empty means semaphore.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(ModeSemaphore), "sem":
		return ModeSemaphore, nil
	case string(ModeMutex), "lock":
		return ModeMutex, nil
	}
	return "", &sim.InvalidConfigurationError{
		Field:  "sync mode",
		Reason: fmt.Sprintf("unknown mode %q; valid: mutex, semaphore", name),
	}
}

// Resource is a named counting lock as loaded from input.
type Resource struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Validate checks the loaded fields.
func (r Resource) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("resource name must not be empty")
	}
	if r.Capacity < 1 {
		return fmt.Errorf("resource %s: capacity must be >= 1, got %d", r.Name, r.Capacity)
	}
	return nil
}

// ResourceStats summarizes what happened to one resource during an overlay pass.
type ResourceStats struct {
	Name         string `json:"name"`
	Capacity     int    `json:"capacity"` // effective capacity after mode clamping
	Acquisitions int    `json:"acquisitions"`
	Releases     int    `json:"releases"`
	BlockedSteps int    `json:"blocked_steps"`
	MaxQueueLen  int    `json:"max_queue_len"`
}

// lockState is the mutable per-pass view of a Resource. It is rebuilt from the
// loaded record at the start of every pass.
type lockState struct {
	capacity  int
	available int
	queue     []string // blocked process IDs, FIFO
	stats     ResourceStats
}

func newLockState(r Resource, mode Mode) *lockState {
	capacity := r.Capacity
	if mode == ModeMutex {
		capacity = 1
	}
	return &lockState{
		capacity:  capacity,
		available: capacity,
		stats:     ResourceStats{Name: r.Name, Capacity: capacity},
	}
}

func (l *lockState) position(pid string) int {
	for i, q := range l.queue {
		if q == pid {
			return i
		}
	}
	return -1
}

// canAcquire reports whether a unit is free. Availability alone decides; the
// wait queue only records blocking order and is trimmed on acquire.
func (l *lockState) canAcquire() bool {
	return l.available > 0
}

func (l *lockState) acquire(pid string) {
	l.available--
	if pos := l.position(pid); pos >= 0 {
		l.queue = append(l.queue[:pos], l.queue[pos+1:]...)
	}
	l.stats.Acquisitions++
}

func (l *lockState) block(pid string) {
	if l.position(pid) < 0 {
		l.queue = append(l.queue, pid)
	}
	l.stats.BlockedSteps++
	if len(l.queue) > l.stats.MaxQueueLen {
		l.stats.MaxQueueLen = len(l.queue)
	}
}

// release returns one unit, never exceeding capacity. Reports whether a unit
// was actually returned.
func (l *lockState) release() bool {
	if l.available >= l.capacity {
		return false
	}
	l.available++
	l.stats.Releases++
	return true
}

func (l *lockState) forget(pid string) {
	if pos := l.position(pid); pos >= 0 {
		l.queue = append(l.queue[:pos], l.queue[pos+1:]...)
	}
}
