package sim

import (
	"testing"
)

func TestReadyQueue_Empty_DequeueAndSelectMinReturnMinusOne(t *testing.T) {
	rq := &ReadyQueue{}

	if got := rq.Dequeue(); got != -1 {
		t.Errorf("Dequeue on empty queue: got %d, want -1", got)
	}
	if got := rq.SelectMin(func(a, b int) bool { return a < b }); got != -1 {
		t.Errorf("SelectMin on empty queue: got %d, want -1", got)
	}
}

func TestReadyQueue_Dequeue_FIFOOrder(t *testing.T) {
	rq := &ReadyQueue{}
	for _, idx := range []int{2, 0, 1} {
		rq.Enqueue(idx)
	}

	var got []int
	for rq.Len() > 0 {
		got = append(got, rq.Dequeue())
	}

	want := []int{2, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Dequeue order: got %v, want %v", got, want)
		}
	}
}

func TestReadyQueue_SelectMin_EarlierEntryWinsTies(t *testing.T) {
	// GIVEN keys where indices 4 and 2 tie for the minimum
	keys := map[int]int{4: 1, 2: 1, 7: 5}
	rq := &ReadyQueue{}
	rq.Enqueue(7)
	rq.Enqueue(4)
	rq.Enqueue(2)

	// WHEN selecting the minimum key
	pos := rq.SelectMin(func(a, b int) bool { return keys[a] < keys[b] })

	// THEN the first of the tied entries is chosen
	if pos != 1 {
		t.Errorf("SelectMin: got position %d, want 1", pos)
	}
	if got := rq.RemoveAt(pos); got != 4 {
		t.Errorf("RemoveAt: got %d, want 4", got)
	}
	if rq.String() != "[7 2]" {
		t.Errorf("queue after RemoveAt: got %s, want [7 2]", rq.String())
	}
}

func TestReadyQueue_RemoveAt_OutOfRange_Panics(t *testing.T) {
	rq := &ReadyQueue{}
	rq.Enqueue(0)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for out-of-range RemoveAt")
		}
	}()
	rq.RemoveAt(1)
}
