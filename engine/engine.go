package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/profiler"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
)

var (
	// ErrNoView is returned when a frame is rendered without a scene or camera.
	ErrNoView = errors.New("no scene or camera to render")

	// ErrRunning is returned when Run is called on an engine that is already running.
	ErrRunning = errors.New("engine already running")
)

// engine implements the Engine interface.
// Coordinates the tick and render goroutines around one renderer.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	// frameMu serializes tick callbacks with frame rendering, so tick logic never moves
	// drawables while a view is being prepared.
	frameMu sync.Mutex

	renderer     renderer.Renderer
	scene        scene.Scene
	camera       camera.Camera
	debug        scene.DebugRenderer
	drawShadows  bool
	useOcclusion bool

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // frames to render before quitting; 0 = until Quit
	frames           atomic.Uint64
	err              error
}

// Engine runs a scene through the renderer frame after frame.
// It orchestrates the tick loop and the render loop.
type Engine interface {
	// Renderer returns the renderer driven by the engine.
	Renderer() renderer.Renderer

	// Scene returns the rendered scene, or nil.
	Scene() scene.Scene

	// SetScene replaces the rendered scene.
	SetScene(s scene.Scene)

	// Camera returns the view camera, or nil.
	Camera() camera.Camera

	// SetCamera replaces the view camera.
	SetCamera(c camera.Camera)

	// SetDrawShadows toggles shadow rendering for subsequent frames.
	SetDrawShadows(enabled bool)

	// SetUseOcclusion toggles occlusion culling for subsequent frames.
	SetUseOcclusion(enabled bool)

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for game logic and scene changes; it never overlaps a frame.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// RenderFrame updates the scene and renders one frame: prepare, shadow maps, opaque and
	// alpha passes, optional debug geometry, then submit.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: ErrNoView, or a wrapped renderer error
	RenderFrame(deltaTime float32) error

	// Frames returns the number of frames rendered.
	Frames() uint64

	// Run starts the tick and render loops and blocks until Quit is called, the frame limit
	// set by WithMaxFrames is reached or a frame fails.
	//
	// Returns:
	//   - error: the error that stopped the render loop, or nil
	Run() error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Without WithRenderer, the engine renders through a headless command recorder.
//
// Parameters:
//   - options: functional options for engine configuration (scene, camera, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		drawShadows:     true,
		useOcclusion:    true,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.renderer == nil {
		e.renderer = renderer.NewRenderer(graphics.NewRecorder())
	}
	return e
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.scene
}

func (e *engine) SetScene(s scene.Scene) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.scene = s
}

func (e *engine) Camera() camera.Camera {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.camera
}

func (e *engine) SetCamera(c camera.Camera) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.camera = c
}

func (e *engine) SetDrawShadows(enabled bool) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.drawShadows = enabled
}

func (e *engine) SetUseOcclusion(enabled bool) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.useOcclusion = enabled
}

func (e *engine) RenderFrame(deltaTime float32) error {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	if e.scene == nil || e.camera == nil {
		return ErrNoView
	}

	start := time.Now()
	e.scene.Update(deltaTime)
	e.renderer.PrepareView(e.scene, e.camera, e.drawShadows, e.useOcclusion)
	prepareTime := time.Since(start)

	frame := e.renderer.FrameNumber()
	if err := e.renderer.RenderShadowMaps(); err != nil {
		return fmt.Errorf("frame %d shadow maps: %w", frame, err)
	}
	if err := e.renderer.RenderOpaque(true); err != nil {
		return fmt.Errorf("frame %d opaque: %w", frame, err)
	}
	if err := e.renderer.RenderAlpha(); err != nil {
		return fmt.Errorf("frame %d alpha: %w", frame, err)
	}
	if e.debug != nil {
		e.renderer.RenderDebug(e.debug)
	}
	if err := e.renderer.Submit(); err != nil {
		return err
	}
	e.frames.Add(1)

	if e.profilingEnabled && e.profiler != nil {
		stats := e.renderer.Stats()
		e.profiler.Tick(profiler.FrameStats{
			VisibleGeometries: stats.VisibleGeometries,
			Lights:            stats.Lights,
			ShadowViews:       stats.ShadowViews,
			OpaqueBatches:     stats.OpaqueBatches,
			AlphaBatches:      stats.AlphaBatches,
			ShadowBatches:     stats.ShadowBatches,
			PrepareTime:       prepareTime,
		})
	}
	return nil
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) Run() error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)

	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
	e.wg.Wait()
	return e.err
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.frameMu.Lock()
				e.tickCallback(dt)
				e.frameMu.Unlock()
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.err = fmt.Errorf("render panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if err := e.RenderFrame(dt); err != nil {
				log.Printf("[Engine] %v", err)
				e.err = err
				e.signalQuit()
				return
			}

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.maxFrames > 0 && e.frames.Load() >= e.maxFrames {
				e.signalQuit()
				return
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
