package profiler

import (
	"log"
	"runtime"
	"time"
)

// FrameStats are the per-frame counters of a prepared view that the profiler averages.
type FrameStats struct {
	VisibleGeometries int
	Lights            int
	ShadowViews       int
	OpaqueBatches     int
	AlphaBatches      int
	ShadowBatches     int
	PrepareTime       time.Duration
}

// Report is one logged profiling interval.
type Report struct {
	FPS          float64
	Frames       int
	AvgVisible   float64
	AvgLights    float64
	AvgBatches   float64
	AvgShadows   float64
	AvgPrepareMs float64
	HeapMB       float64
	AllocRateMB  float64
	NumGC        uint32
	MaxPauseUs   uint64
}

// Profiler tracks frame rate, frame counters and memory statistics.
// Outputs a report to the log at a configurable interval.
type Profiler struct {
	now            func() time.Time
	updateInterval time.Duration
	readMem        bool

	frameCount     int
	sum            FrameStats
	lastTime       time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Report
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often a report is logged. Non-positive values are ignored.
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithClock replaces the time source, for deterministic intervals.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// WithMemStats toggles reading runtime memory statistics for each report.
func WithMemStats(enabled bool) ProfilerOption {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - opts: variadic list of ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		now:            time.Now,
		updateInterval: time.Second,
		readMem:        true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with that frame's counters.
// Logs averaged statistics when the update interval has elapsed.
//
// Parameters:
//   - stats: the counters of the frame that just finished
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats FrameStats) bool {
	p.frameCount++
	p.sum.VisibleGeometries += stats.VisibleGeometries
	p.sum.Lights += stats.Lights
	p.sum.ShadowViews += stats.ShadowViews
	p.sum.OpaqueBatches += stats.OpaqueBatches
	p.sum.AlphaBatches += stats.AlphaBatches
	p.sum.ShadowBatches += stats.ShadowBatches
	p.sum.PrepareTime += stats.PrepareTime

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	frames := float64(p.frameCount)
	r := Report{
		FPS:          frames / elapsed.Seconds(),
		Frames:       p.frameCount,
		AvgVisible:   float64(p.sum.VisibleGeometries) / frames,
		AvgLights:    float64(p.sum.Lights) / frames,
		AvgBatches:   float64(p.sum.OpaqueBatches+p.sum.AlphaBatches) / frames,
		AvgShadows:   float64(p.sum.ShadowBatches) / frames,
		AvgPrepareMs: float64(p.sum.PrepareTime.Microseconds()) / 1000 / frames,
	}

	if p.readMem {
		runtime.ReadMemStats(&p.memStats)
		r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
		allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
		r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

		// PauseNs is a circular buffer of the last 256 GC pauses
		r.NumGC = p.memStats.NumGC
		startIdx := p.lastGCCount
		if r.NumGC-startIdx > 256 {
			startIdx = r.NumGC - 256
		}
		for i := startIdx; i < r.NumGC; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
		p.lastGCCount = r.NumGC
		p.lastTotalAlloc = p.memStats.TotalAlloc
	}

	log.Printf("[Profiler] FPS: %.2f | Prepare: %.2f ms | Visible: %.0f | Lights: %.1f | Batches: %.0f | Shadow batches: %.0f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs)",
		r.FPS, r.AvgPrepareMs, r.AvgVisible, r.AvgLights, r.AvgBatches, r.AvgShadows, r.HeapMB, r.AllocRateMB, r.NumGC, r.MaxPauseUs)

	p.last = r
	p.frameCount = 0
	p.sum = FrameStats{}
	p.lastTime = currentTime
	return true
}

// LastReport returns the most recently logged report.
func (p *Profiler) LastReport() Report {
	return p.last
}
