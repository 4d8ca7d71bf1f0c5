package task

import "time"

// SchedulerBuilderOption configures a scheduler created by NewScheduler.
type SchedulerBuilderOption func(*schedulerImpl)

// WithWorkers sets the number of worker slots. Zero or less uses one per CPU, one runs tasks inline.
func WithWorkers(workers int) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		s.workers = workers
	}
}

// WithQueueSize sets the capacity of the pending task queue.
func WithQueueSize(size int) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithIdleTimeout sets how long an idle pool goroutine lives before exiting.
func WithIdleTimeout(timeout time.Duration) SchedulerBuilderOption {
	return func(s *schedulerImpl) {
		if timeout > 0 {
			s.idleTimeout = timeout
		}
	}
}
