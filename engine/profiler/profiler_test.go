package profiler

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func TestTickReportsAtInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second), WithMemStats(false))

	frame := FrameStats{VisibleGeometries: 10, Lights: 2, OpaqueBatches: 3, AlphaBatches: 1, ShadowBatches: 4, PrepareTime: 2 * time.Millisecond}
	for i := range 4 {
		clock.t = clock.t.Add(200 * time.Millisecond)
		if p.Tick(frame) {
			t.Fatalf("reported after %d frames", i+1)
		}
	}
	clock.t = clock.t.Add(200 * time.Millisecond)
	if !p.Tick(frame) {
		t.Fatal("no report after the interval elapsed")
	}

	r := p.LastReport()
	tests := []struct {
		name      string
		got, want float64
	}{
		{"fps", r.FPS, 5},
		{"visible", r.AvgVisible, 10},
		{"lights", r.AvgLights, 2},
		{"batches", r.AvgBatches, 4},
		{"shadow batches", r.AvgShadows, 4},
		{"prepare ms", r.AvgPrepareMs, 2},
	}
	for _, tt := range tests {
		if d := tt.got - tt.want; d > 1e-9 || d < -1e-9 {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if r.Frames != 5 {
		t.Errorf("frames = %d, want 5", r.Frames)
	}
}

func TestTickResetsAfterReport(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second), WithMemStats(false))

	clock.t = clock.t.Add(time.Second)
	p.Tick(FrameStats{Lights: 8})
	clock.t = clock.t.Add(time.Second)
	if !p.Tick(FrameStats{Lights: 2}) {
		t.Fatal("second interval not reported")
	}
	if got := p.LastReport().AvgLights; got != 2 {
		t.Errorf("average lights = %v, want 2", got)
	}
}
