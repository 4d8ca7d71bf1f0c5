package engine

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/profiler"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestScene() scene.Scene {
	geom := material.NewGeometry(nil, nil, 0, 36, common.NewBoundingBox(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}))
	mat := material.NewMaterial(material.WithName("opaque"), material.WithDefaultPasses("lit", "depth"))
	batches := []scene.SourceBatch{{Geometry: geom, Material: mat}}
	return scene.NewScene("engine", scene.WithDrawables(
		scene.NewGeometryDrawable(batches, scene.WithPosition(mgl32.Vec3{0, 0, -10})),
		scene.NewGeometryDrawable(batches, scene.WithPosition(mgl32.Vec3{2, 0, -10}), scene.WithRotationSpeed(mgl32.Vec3{0, 1, 0})),
	))
}

func newTestEngine(rec *graphics.Recorder, opts ...EngineBuilderOption) Engine {
	r := renderer.NewRenderer(rec, renderer.WithScheduler(task.NewScheduler(task.WithWorkers(1))))
	opts = append([]EngineBuilderOption{
		WithRenderer(r),
		WithScene(newTestScene()),
		WithCamera(camera.NewCamera()),
	}, opts...)
	return NewEngine(opts...)
}

func TestRenderFrameWithoutView(t *testing.T) {
	e := NewEngine()
	if err := e.RenderFrame(0.016); !errors.Is(err, ErrNoView) {
		t.Fatalf("RenderFrame() error = %v, want ErrNoView", err)
	}
	if e.Renderer() == nil {
		t.Fatal("default renderer is nil")
	}
	if e.Frames() != 0 {
		t.Errorf("frames = %d, want 0", e.Frames())
	}
}

func TestRenderFrame(t *testing.T) {
	tests := []struct {
		name         string
		drawShadows  bool
		useOcclusion bool
	}{
		{"plain", false, false},
		{"shadows", true, false},
		{"occlusion", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := graphics.NewRecorder()
			e := newTestEngine(rec, WithDrawShadows(tt.drawShadows), WithUseOcclusion(tt.useOcclusion))

			for range 2 {
				if err := e.RenderFrame(0.016); err != nil {
					t.Fatalf("RenderFrame() error = %v", err)
				}
			}
			if e.Frames() != 2 {
				t.Errorf("frames = %d, want 2", e.Frames())
			}
			if got := e.Renderer().Stats().VisibleGeometries; got != 2 {
				t.Errorf("visible geometries = %d, want 2", got)
			}
			if got := rec.Count(graphics.CmdSubmit); got != 2 {
				t.Errorf("submits = %d, want 2", got)
			}
		})
	}
}

func TestRunStopsAfterMaxFrames(t *testing.T) {
	rec := graphics.NewRecorder()
	e := newTestEngine(rec, WithMaxFrames(3), WithTickRate(1000))
	var ticks atomic.Int32
	e.SetTickCallback(func(float32) { ticks.Add(1) })

	rendered := 0
	e.SetRenderCallback(func(float32) { rendered++ })

	if err := e.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if e.Frames() != 3 || rendered != 3 {
		t.Errorf("frames = %d, render callbacks = %d, want 3", e.Frames(), rendered)
	}
	if got := e.Renderer().FrameNumber(); got != 3 {
		t.Errorf("renderer frame number = %d, want 3", got)
	}
	if got := rec.Count(graphics.CmdSubmit); got != 3 {
		t.Errorf("submits = %d, want 3", got)
	}
}

func TestRunRecoversRenderPanic(t *testing.T) {
	e := newTestEngine(graphics.NewRecorder())
	e.SetRenderCallback(func(float32) { panic("boom") })

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Fatalf("Run() error = %v, want the recovered panic", err)
		}
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("Run() did not return after a render panic")
	}
}

func TestRunFailsWithoutView(t *testing.T) {
	e := NewEngine()
	if err := e.Run(); !errors.Is(err, ErrNoView) {
		t.Fatalf("Run() error = %v, want ErrNoView", err)
	}
}

func TestQuitStopsRun(t *testing.T) {
	e := newTestEngine(graphics.NewRecorder(), WithRenderFrameLimit(1000))
	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	time.Sleep(20 * time.Millisecond)
	e.Quit()
	e.Quit()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Quit")
	}
}

func TestProfilerFedFromStats(t *testing.T) {
	p := profiler.NewProfiler(profiler.WithInterval(time.Nanosecond), profiler.WithMemStats(false))
	e := newTestEngine(graphics.NewRecorder(), WithProfiling(true), WithProfiler(p), WithDrawShadows(false))

	time.Sleep(time.Millisecond)
	if err := e.RenderFrame(0.016); err != nil {
		t.Fatalf("RenderFrame() error = %v", err)
	}
	r := p.LastReport()
	if r.Frames != 1 {
		t.Fatalf("reported frames = %d, want 1", r.Frames)
	}
	if r.AvgVisible != 2 {
		t.Errorf("average visible = %v, want 2", r.AvgVisible)
	}
	if r.AvgBatches < 1 {
		t.Errorf("average batches = %v, want at least 1", r.AvgBatches)
	}
}

func TestSetTickRate(t *testing.T) {
	tests := []struct {
		fps  float64
		want time.Duration
	}{
		{30, time.Second / 30},
		{0, time.Second / 60},
		{-5, time.Second / 60},
	}
	for _, tt := range tests {
		e := NewEngine().(*engine)
		e.SetTickRate(tt.fps)
		if e.engineTickRate != tt.want {
			t.Errorf("SetTickRate(%v) rate = %v, want %v", tt.fps, e.engineTickRate, tt.want)
		}
	}

	e := NewEngine(WithRenderFrameLimit(50)).(*engine)
	if e.renderFrameLimit != 20*time.Millisecond {
		t.Errorf("frame limit = %v, want 20ms", e.renderFrameLimit)
	}
	e.SetRenderFrameLimit(0)
	if e.renderFrameLimit != 0 {
		t.Errorf("frame limit = %v, want uncapped", e.renderFrameLimit)
	}
}
