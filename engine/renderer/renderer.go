// Package renderer prepares a camera view of a scene on worker tasks and renders it: octree culling,
// batch collection and sorting, light processing with shadow map allocation, and light clustering.
package renderer

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/batch"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/shadow"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
	"github.com/go-gl/mathgl/mgl32"
)

// numOctantTasks is one task for the root octant's own drawables plus one per root child.
const numOctantTasks = 9

// Texture units with a fixed meaning during view rendering.
const (
	TUDirLightShadow   = 8
	TUShadowAtlas      = 9
	TULightClusterData = 12
)

// Constant buffer slots with a fixed meaning during view rendering.
const (
	SlotPerView   = 0
	SlotLightData = 1
	SlotMaterial  = 2
)

// Stats are the counters of the last prepared view.
type Stats struct {
	FrameNumber       uint32
	Workers           int
	OctantTasks       int
	BatchTasks        int
	TestedDrawables   int
	OccludedDrawables int
	VisibleGeometries int
	Occluders         int
	Lights            int
	DirLight          bool
	ShadowLights      int
	ShadowViews       int
	ShadowBatches     int
	OpaqueBatches     int
	AlphaBatches      int
	Instances         int
	ClusterLights     int
	MinZ              float32
	MaxZ              float32
}

// Renderer prepares and renders views of a scene.
//
// PrepareView fans the work out over the scheduler and returns once every task of the frame has
// finished, so the Render calls and accessors that follow see a complete, immutable frame.
// A Renderer is driven from one goroutine.
type Renderer interface {
	// SetupShadowMaps (re)defines the two shadow map textures.
	//
	// Parameters:
	//   - dirLightSize: the directional light map height; its width is twice that for two cascades
	//   - lightAtlasSize: the width and height of the point and spot light atlas
	//   - format: a depth texture format
	//
	// Returns:
	//   - error: a texture definition error; that map is left undefined and its lights unshadowed
	SetupShadowMaps(dirLightSize, lightAtlasSize int, format graphics.Format) error

	// SetShadowDepthBiasMul scales every light's depth biases when rendering shadow views.
	//
	// Parameters:
	//   - depthBiasMul: the constant bias multiplier
	//   - slopeScaleBiasMul: the slope-scaled bias multiplier
	SetShadowDepthBiasMul(depthBiasMul, slopeScaleBiasMul float32)

	// SetViewTarget sets the framebuffer and viewport RenderOpaque and RenderAlpha draw into.
	SetViewTarget(target *graphics.FrameBuffer, viewport common.IntRect)

	// PrepareView culls the scene against the camera and builds every batch queue, shadow view and
	// light cluster for the frame.
	//
	// Parameters:
	//   - s: the scene to render
	//   - cam: the view camera
	//   - drawShadows: whether lights may get shadow maps this frame
	//   - useOcclusion: whether occluders in view hide what is behind them
	PrepareView(s scene.Scene, cam camera.Camera, drawShadows, useOcclusion bool)

	// RenderShadowMaps renders the shadow views of the prepared frame.
	//
	// Returns:
	//   - error: a backend or material error
	RenderShadowMaps() error

	// RenderOpaque renders the opaque queue into the view target.
	//
	// Parameters:
	//   - clear: whether to clear color to the fog color and depth to 1 first
	//
	// Returns:
	//   - error: a backend or material error
	RenderOpaque(clear bool) error

	// RenderAlpha renders the transparent queue into the view target, back to front.
	//
	// Returns:
	//   - error: a backend or material error
	RenderAlpha() error

	// RenderDebug adds the bounds of visible geometries and occluders and the volumes of visible
	// lights to debug. Nothing is drawn by this call.
	RenderDebug(debug scene.DebugRenderer)

	// Submit flushes the recorded passes to the backend.
	Submit() error

	OpaqueBatches() *batch.Queue
	AlphaBatches() *batch.Queue

	// ShadowMap returns shadow.DirectionalMap or shadow.AtlasMap, or nil for other indices.
	ShadowMap(index int) *shadow.Map

	// DirLight returns the brightest directional light in view, or nil.
	DirLight() light.Light

	// Lights returns the point and spot lights in view, nearest first, at most light.MaxClusterLights.
	Lights() []light.Light

	// ClusterData returns light.MaxLightsPerCluster 1-based light indices per cluster, zero
	// terminated, for clusters ordered by (y, z, x) with x varying fastest.
	ClusterData() []byte

	// NumClusterLights returns the number of lights in each cluster, in ClusterData order.
	NumClusterLights() []uint8

	// LightData returns the GPU records of Lights, in the same order.
	LightData() []light.LightData

	// GeometryBounds returns the combined bounds of the visible geometries.
	GeometryBounds() common.BoundingBox

	Stats() Stats
	FrameNumber() uint32
	Config() Config
	Scheduler() task.Scheduler

	// Release frees every GPU resource the renderer created.
	Release()
}

type renderer struct {
	cfg       Config
	backend   graphics.Backend
	scheduler task.Scheduler

	scene        scene.Scene
	octree       *scene.Octree
	camera       camera.Camera
	frustum      common.Frustum
	viewMatrix   mgl32.Mat4
	viewMask     uint32
	frameNumber  uint32
	drawShadows  bool
	useOcclusion bool

	octantResults   [numOctantTasks]threadOctantResult
	pendingOctants  task.Counter
	pendingBatches  task.Counter
	pendingLights   task.Counter
	pendingCasters  task.Counter
	pendingClusters task.Counter
	workerTested    []int

	occlusion      occlusionTester
	occluders      []*scene.Drawable
	minZ           float32
	maxZ           float32
	geometryBounds common.BoundingBox
	visible        []*scene.Drawable
	dirLight       light.Light
	dirDrawable    *scene.Drawable
	lights         []light.Light
	lightDrawables []*scene.Drawable
	opaque         batch.Queue
	alpha          batch.Queue

	shadowMaps        [shadow.NumMaps]*shadow.Map
	shadowJobs        []shadowJob
	depthBiasMul      float32
	slopeScaleBiasMul float32

	clusters  clusterGrid
	lightData []light.LightData

	viewTarget      *graphics.FrameBuffer
	viewport        common.IntRect
	perView         *graphics.ConstantBuffer
	shadowPerView   []*graphics.ConstantBuffer
	lightDataBuffer *graphics.ConstantBuffer
	clusterTexture  *graphics.Texture
	instanceBuffer  *graphics.Buffer
	instanceData    []mgl32.Mat4
	opaqueBase      int
	alphaBase       int
	shadowBase      [shadow.NumMaps]int
	frameUploaded   bool

	stats Stats
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer drawing through the given backend.
//
// Parameters:
//   - backend: the graphics backend owning every GPU resource the renderer creates
//   - options: variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: the new renderer, without shadow maps until SetupShadowMaps is called
func NewRenderer(backend graphics.Backend, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		cfg:               DefaultConfig(),
		backend:           backend,
		depthBiasMul:      1,
		slopeScaleBiasMul: 1,
		geometryBounds:    common.UndefinedBoundingBox(),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.cfg.DrawablesPerBatchTask <= 0 {
		r.cfg.DrawablesPerBatchTask = DefaultDrawablesPerBatchTask
	}
	if r.scheduler == nil {
		r.scheduler = task.NewScheduler()
	}
	r.workerTested = make([]int, r.scheduler.Workers())

	for i := range r.shadowMaps {
		r.shadowMaps[i] = shadow.NewMap(backend, i)
	}
	r.perView = graphics.NewConstantBuffer(backend, "per-view")
	r.lightDataBuffer = graphics.NewConstantBuffer(backend, "light-data")
	r.clusterTexture = graphics.NewTexture(backend, "light-clusters")
	r.instanceBuffer = graphics.NewBuffer(backend, graphics.BufferVertex, "instance-transforms")
	r.clusters.init()

	log.Printf("[Renderer] ready: %d worker(s), instancing=%v", r.scheduler.Workers(), r.cfg.Instancing)
	return r
}

func (r *renderer) SetupShadowMaps(dirLightSize, lightAtlasSize int, format graphics.Format) error {
	dirLightSize = common.NextPowerOfTwo(max(dirLightSize, 1))
	lightAtlasSize = common.NextPowerOfTwo(max(lightAtlasSize, 1))

	var firstErr error
	if err := r.shadowMaps[shadow.DirectionalMap].Define(dirLightSize*2, dirLightSize, format); err != nil {
		log.Printf("[Renderer] directional shadow map: %v", err)
		firstErr = err
	}
	if err := r.shadowMaps[shadow.AtlasMap].Define(lightAtlasSize, lightAtlasSize, format); err != nil {
		log.Printf("[Renderer] shadow atlas: %v", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("setup shadow maps: %w", firstErr)
	}
	return nil
}

func (r *renderer) SetShadowDepthBiasMul(depthBiasMul, slopeScaleBiasMul float32) {
	r.depthBiasMul = max(depthBiasMul, 0)
	r.slopeScaleBiasMul = max(slopeScaleBiasMul, 0)
}

func (r *renderer) SetViewTarget(target *graphics.FrameBuffer, viewport common.IntRect) {
	r.viewTarget = target
	r.viewport = viewport
}

func (r *renderer) OpaqueBatches() *batch.Queue {
	return &r.opaque
}

func (r *renderer) AlphaBatches() *batch.Queue {
	return &r.alpha
}

func (r *renderer) ShadowMap(index int) *shadow.Map {
	if index < 0 || index >= len(r.shadowMaps) {
		return nil
	}
	return r.shadowMaps[index]
}

func (r *renderer) DirLight() light.Light {
	return r.dirLight
}

func (r *renderer) Lights() []light.Light {
	return r.lights
}

func (r *renderer) ClusterData() []byte {
	return r.clusters.data
}

func (r *renderer) NumClusterLights() []uint8 {
	return r.clusters.numLights[:]
}

func (r *renderer) LightData() []light.LightData {
	return r.lightData
}

func (r *renderer) GeometryBounds() common.BoundingBox {
	return r.geometryBounds
}

func (r *renderer) Stats() Stats {
	return r.stats
}

func (r *renderer) FrameNumber() uint32 {
	return r.frameNumber
}

func (r *renderer) Config() Config {
	return r.cfg
}

func (r *renderer) Scheduler() task.Scheduler {
	return r.scheduler
}

func (r *renderer) Release() {
	for _, m := range r.shadowMaps {
		m.Release()
	}
	r.perView.Release()
	for _, cb := range r.shadowPerView {
		cb.Release()
	}
	r.shadowPerView = nil
	r.lightDataBuffer.Release()
	r.clusterTexture.Release()
	r.instanceBuffer.Release()
}
