// package task runs frame work on a shared goroutine pool. Tasks never block on each other;
// completion is tracked with atomic Counters that the submitting side polls.
package task

import (
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// Task is a unit of work. Do receives the index of the worker slot it runs on, in [0, Workers()).
// Two tasks running at the same time never share a slot, so per-slot scratch memory is safe to use.
type Task struct {
	Name string
	Do   func(workerIndex int)
}

// Scheduler accepts tasks for execution.
type Scheduler interface {
	// Submit queues a task. A synchronous scheduler runs it before returning.
	//
	// Parameters:
	//   - t: the task to run
	Submit(t Task)

	// Workers returns the number of worker slots.
	Workers() int

	// Synchronous reports whether tasks run inline on the submitting goroutine.
	Synchronous() bool

	// Submitted returns the number of tasks submitted since creation.
	Submitted() uint64
}

type schedulerImpl struct {
	workers     int
	queueSize   int
	idleTimeout time.Duration

	pool      worker.DynamicWorkerPool
	slots     chan int
	nextID    atomic.Int64
	submitted atomic.Uint64
}

var _ Scheduler = &schedulerImpl{}

// NewScheduler creates a Scheduler. With one worker, tasks execute inline on the submitting goroutine,
// which keeps frame processing fully deterministic and single-threaded.
//
// Parameters:
//   - opts: functional options such as WithWorkers
//
// Returns:
//   - Scheduler: the configured scheduler
func NewScheduler(opts ...SchedulerBuilderOption) Scheduler {
	s := &schedulerImpl{
		queueSize:   4096,
		idleTimeout: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}

	if s.workers > 1 {
		s.pool = worker.NewDynamicWorkerPool(s.workers, s.queueSize, s.idleTimeout)
		s.slots = make(chan int, s.workers)
		for i := 0; i < s.workers; i++ {
			s.slots <- i
		}
	}

	log.Printf("[Task] scheduler ready: %d worker(s), synchronous=%v", s.workers, s.Synchronous())
	return s
}

func (s *schedulerImpl) Submit(t Task) {
	s.submitted.Add(1)
	if s.pool == nil {
		t.Do(0)
		return
	}

	id := int(s.nextID.Add(1))
	s.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			slot := <-s.slots
			defer func() { s.slots <- slot }()
			t.Do(slot)
			return nil, nil
		},
	})
}

func (s *schedulerImpl) Workers() int {
	return s.workers
}

func (s *schedulerImpl) Synchronous() bool {
	return s.pool == nil
}

func (s *schedulerImpl) Submitted() uint64 {
	return s.submitted.Load()
}
