// Implements the ReadyQueue, which holds the arena indices of processes that
// have arrived and are waiting for the CPU. Processes are enqueued on admission.

package sim

import (
	"fmt"
	"strings"
)

// ReadyQueue is an ordered collection of process indices into a run's arena.
// Enqueue order is admission order, which is also the tie-break order for the
// selection policies.
type ReadyQueue struct {
	queue []int // arena indices, in admission order
}

// Enqueue adds a process index to the back of the queue.
func (rq *ReadyQueue) Enqueue(idx int) {
	rq.queue = append(rq.queue, idx)
}

func (rq *ReadyQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range rq.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(rq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of processes in the queue.
func (rq *ReadyQueue) Len() int {
	return len(rq.queue)
}

// Dequeue removes and returns the index at the front of the queue.
// Returns -1 if the queue is empty.
func (rq *ReadyQueue) Dequeue() int {
	if len(rq.queue) == 0 {
		return -1
	}
	idx := rq.queue[0]
	rq.queue = rq.queue[1:]
	return idx
}

// Items returns the queue contents for iteration.
// Callers MUST NOT append to or reslice the returned slice.
func (rq *ReadyQueue) Items() []int {
	return rq.queue
}

// SelectMin returns the position of the first index that is minimal under less,
// or -1 when the queue is empty. Earlier entries win ties, so queue order is the
// final tie-breaker.
func (rq *ReadyQueue) SelectMin(less func(a, b int) bool) int {
	if len(rq.queue) == 0 {
		return -1
	}
	best := 0
	for pos := 1; pos < len(rq.queue); pos++ {
		if less(rq.queue[pos], rq.queue[best]) {
			best = pos
		}
	}
	return best
}

// RemoveAt removes and returns the index stored at position pos.
// Panics if pos is out of range.
func (rq *ReadyQueue) RemoveAt(pos int) int {
	if pos < 0 || pos >= len(rq.queue) {
		panic(fmt.Sprintf("RemoveAt: position %d out of range [0,%d)", pos, len(rq.queue)))
	}
	idx := rq.queue[pos]
	rq.queue = append(rq.queue[:pos], rq.queue[pos+1:]...)
	return idx
}
