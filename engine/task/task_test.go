package task

import (
	"sync/atomic"
	"testing"
)

func TestSynchronousSchedulerRunsInline(t *testing.T) {
	s := NewScheduler(WithWorkers(1))
	if !s.Synchronous() {
		t.Fatal("one worker must run inline")
	}

	var order []string
	s.Submit(Task{Name: "outer", Do: func(workerIndex int) {
		order = append(order, "outer")
		s.Submit(Task{Name: "inner", Do: func(workerIndex int) {
			if workerIndex != 0 {
				t.Errorf("inline worker index = %d, want 0", workerIndex)
			}
			order = append(order, "inner")
		}})
		order = append(order, "outer-end")
	}})

	want := []string{"outer", "inner", "outer-end"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if s.Submitted() != 2 {
		t.Errorf("Submitted() = %d, want 2", s.Submitted())
	}
}

func TestCounterLastDoneIsUnique(t *testing.T) {
	s := NewScheduler(WithWorkers(4))

	const n = 200
	var c Counter
	var finishers atomic.Int32
	c.Add(n)
	for i := 0; i < n; i++ {
		s.Submit(Task{Name: "count", Do: func(int) {
			if c.Done() {
				finishers.Add(1)
			}
		}})
	}
	c.WaitUntilZero(nil)

	if got := finishers.Load(); got != 1 {
		t.Fatalf("tasks observing zero = %d, want 1", got)
	}
	if !c.IsZero() || c.Pending() != 0 {
		t.Fatalf("counter not drained: %d pending", c.Pending())
	}
}

func TestWorkerSlotsAreExclusive(t *testing.T) {
	const workers = 3
	s := NewScheduler(WithWorkers(workers))

	var inUse [workers]atomic.Int32
	var clashes atomic.Int32
	var c Counter
	c.Add(100)
	for i := 0; i < 100; i++ {
		s.Submit(Task{Name: "slot", Do: func(workerIndex int) {
			defer c.Done()
			if workerIndex < 0 || workerIndex >= workers {
				clashes.Add(1)
				return
			}
			if inUse[workerIndex].Add(1) != 1 {
				clashes.Add(1)
			}
			for j := 0; j < 1000; j++ {
				_ = j * j
			}
			inUse[workerIndex].Add(-1)
		}})
	}
	c.WaitUntilZero(nil)

	if clashes.Load() != 0 {
		t.Fatalf("%d tasks shared or overflowed a worker slot", clashes.Load())
	}
}

func TestCounterPanicsBelowZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on unbalanced Done")
		}
	}()
	var c Counter
	c.Done()
}
