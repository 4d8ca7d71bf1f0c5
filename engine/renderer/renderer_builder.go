package renderer

import (
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
)

// DefaultDrawablesPerBatchTask is the number of drawables an octant collection task accumulates
// before it hands them to a batch collection task.
const DefaultDrawablesPerBatchTask = 128

// Config holds the renderer settings that are fixed after construction.
type Config struct {
	// DrawablesPerBatchTask bounds the work of one batch collection task.
	DrawablesPerBatchTask int
	// Instancing merges equal state opaque and shadow batches into instanced draws.
	Instancing bool
	// Verbose logs per-frame degradations such as lights left without shadow map space.
	Verbose bool
}

// DefaultConfig returns the default renderer settings.
func DefaultConfig() Config {
	return Config{
		DrawablesPerBatchTask: DefaultDrawablesPerBatchTask,
		Instancing:            true,
	}
}

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithConfig replaces all renderer settings.
//
// Parameters:
//   - cfg: the settings; a non-positive DrawablesPerBatchTask falls back to the default
//
// Returns:
//   - RendererBuilderOption: a function that applies the config option to a renderer
func WithConfig(cfg Config) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg = cfg
	}
}

// WithScheduler sets the task scheduler used for view preparation. Without it the renderer
// creates a scheduler with one worker per CPU.
//
// Parameters:
//   - scheduler: the scheduler to submit tasks to
//
// Returns:
//   - RendererBuilderOption: a function that applies the scheduler option to a renderer
func WithScheduler(scheduler task.Scheduler) RendererBuilderOption {
	return func(r *renderer) {
		r.scheduler = scheduler
	}
}

// WithInstancing enables or disables instanced batch merging.
func WithInstancing(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.Instancing = enabled
	}
}

// WithDrawablesPerBatchTask sets how many drawables one batch collection task processes.
func WithDrawablesPerBatchTask(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.DrawablesPerBatchTask = n
	}
}

// WithVerbose enables logging of per-frame degradations.
func WithVerbose(verbose bool) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.Verbose = verbose
	}
}
