package scene

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

var nextDrawableID atomic.Uint64

// DrawableKind tags the closed set of things the octree can hold.
type DrawableKind uint8

const (
	// KindGeometry drawables are rendered through their source batches.
	KindGeometry DrawableKind = iota
	// KindLight drawables wrap a light.Light.
	KindLight
	// KindOccluder drawables are boxes that hide what lies behind them. They are not rendered.
	KindOccluder

	numDrawableKinds
)

func (k DrawableKind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindLight:
		return "light"
	case KindOccluder:
		return "occluder"
	}
	return fmt.Sprintf("DrawableKind(%d)", int(k))
}

// SourceBatch is one geometry drawn with one material.
type SourceBatch struct {
	Geometry *material.Geometry
	Material material.Material
}

// RaycastResult is one drawable hit by Octree.Raycast.
type RaycastResult struct {
	Drawable *Drawable
	Position mgl32.Vec3
	Distance float32
}

// DebugRenderer receives debug geometry. Nothing is drawn until the implementation renders it.
type DebugRenderer interface {
	AddBoundingBox(box common.BoundingBox, color colorful.Color, depthTest bool)
	AddSphere(sphere common.Sphere, color colorful.Color, depthTest bool)
	AddFrustum(frustum common.Frustum, color colorful.Color, depthTest bool)
}

// Per-kind behavior. Indexed by DrawableKind.
var (
	worldBoxFuncs = [numDrawableKinds]func(d *Drawable) common.BoundingBox{
		KindGeometry: geometryWorldBox,
		KindLight:    lightWorldBox,
		KindOccluder: geometryWorldBox,
	}
	prepareRenderFuncs = [numDrawableKinds]func(d *Drawable, frameNumber uint32, cam camera.Camera) bool{
		KindGeometry: geometryPrepareRender,
		KindLight:    lightPrepareRender,
		KindOccluder: geometryPrepareRender,
	}
	raycastFuncs = [numDrawableKinds]func(d *Drawable, ray common.Ray) float32{
		KindGeometry: boxRaycast,
		KindLight:    lightRaycast,
		KindOccluder: boxRaycast,
	}
	debugFuncs = [numDrawableKinds]func(d *Drawable, debug DebugRenderer){
		KindGeometry: geometryDebug,
		KindLight:    lightDebug,
		KindOccluder: occluderDebug,
	}
)

// Drawable is an object placed in the octree.
//
// During view preparation drawables are only read and stamped: OnPrepareRender writes the
// distance and last frame number of the drawable being tested, and each drawable is tested by
// exactly one task. Transform changes are queued and applied by Octree.Update between frames.
type Drawable struct {
	id   uint64
	kind DrawableKind

	position      mgl32.Vec3
	rotation      mgl32.Quat
	scale         mgl32.Vec3
	rotationSpeed mgl32.Vec3

	worldTransform mgl32.Mat4
	worldBox       common.BoundingBox
	dirty          bool

	enabled     bool
	castShadows bool
	viewMask    uint32
	maxDistance float32
	distance    float32
	lastFrame   uint32

	batches     []SourceBatch
	localBounds common.BoundingBox
	light       light.Light

	octree *Octree
	octant *Octant
}

func newDrawable(kind DrawableKind) *Drawable {
	return &Drawable{
		id:       nextDrawableID.Add(1),
		kind:     kind,
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
		enabled:  true,
		viewMask: 0xffffffff,
		dirty:    true,
	}
}

// NewGeometryDrawable creates a drawable rendering the given batches. Its local bounds are the
// union of the batch geometries' bounds.
//
// Parameters:
//   - batches: the geometry and material pairs to draw
//   - opts: transform and culling options
//
// Returns:
//   - *Drawable: the drawable, not yet in any octree
func NewGeometryDrawable(batches []SourceBatch, opts ...DrawableBuilderOption) *Drawable {
	d := newDrawable(KindGeometry)
	d.batches = batches
	d.localBounds = common.UndefinedBoundingBox()
	for _, b := range batches {
		if b.Geometry != nil {
			d.localBounds.Merge(b.Geometry.LocalBounds)
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewLightDrawable creates a drawable for a light. Its position and orientation drive the light.
//
// Parameters:
//   - l: the light
//   - opts: transform and culling options
//
// Returns:
//   - *Drawable: the drawable, not yet in any octree
func NewLightDrawable(l light.Light, opts ...DrawableBuilderOption) *Drawable {
	d := newDrawable(KindLight)
	d.light = l
	d.position = l.Position()
	d.castShadows = l.CastShadows()
	d.maxDistance = l.MaxDistance()
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewOccluderDrawable creates an invisible box occluder.
//
// Parameters:
//   - localBounds: the occluding box in local space
//   - opts: transform options
//
// Returns:
//   - *Drawable: the drawable, not yet in any octree
func NewOccluderDrawable(localBounds common.BoundingBox, opts ...DrawableBuilderOption) *Drawable {
	d := newDrawable(KindOccluder)
	d.localBounds = localBounds
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Drawable) ID() uint64 {
	return d.id
}

func (d *Drawable) Kind() DrawableKind {
	return d.kind
}

// Batches returns the source batches of a geometry drawable. Lights and occluders have none.
func (d *Drawable) Batches() []SourceBatch {
	if d.kind != KindGeometry {
		return nil
	}
	return d.batches
}

// Light returns the wrapped light, or nil when the drawable is not a light.
func (d *Drawable) Light() light.Light {
	return d.light
}

func (d *Drawable) Position() mgl32.Vec3 {
	return d.position
}

func (d *Drawable) Rotation() mgl32.Quat {
	return d.rotation
}

func (d *Drawable) Scale() mgl32.Vec3 {
	return d.scale
}

func (d *Drawable) RotationSpeed() mgl32.Vec3 {
	return d.rotationSpeed
}

// Enabled reports whether the drawable takes part in rendering. A light drawable follows its light.
func (d *Drawable) Enabled() bool {
	if d.light != nil {
		return d.enabled && d.light.Enabled()
	}
	return d.enabled
}

// CastShadows reports whether the drawable is rendered into shadow maps, or for lights,
// whether the light renders shadows.
func (d *Drawable) CastShadows() bool {
	if d.light != nil {
		return d.light.CastShadows()
	}
	return d.castShadows
}

func (d *Drawable) ViewMask() uint32 {
	return d.viewMask
}

func (d *Drawable) MaxDistance() float32 {
	return d.maxDistance
}

// Distance returns the camera distance computed by the last OnPrepareRender.
func (d *Drawable) Distance() float32 {
	return d.distance
}

// LastFrameNumber returns the frame the drawable was last accepted for rendering.
func (d *Drawable) LastFrameNumber() uint32 {
	return d.lastFrame
}

// Octant returns the octant the drawable currently resides in, or nil.
func (d *Drawable) Octant() *Octant {
	return d.octant
}

// WorldTransform returns the translation * rotation * scale matrix.
func (d *Drawable) WorldTransform() mgl32.Mat4 {
	d.update()
	return d.worldTransform
}

// WorldBoundingBox returns the world space bounds, recomputing them after a transform change.
func (d *Drawable) WorldBoundingBox() common.BoundingBox {
	d.update()
	return d.worldBox
}

func (d *Drawable) update() {
	if !d.dirty {
		return
	}
	d.worldTransform = common.NewTransform(d.position, d.rotation, d.scale)
	d.worldBox = worldBoxFuncs[d.kind](d)
	d.dirty = false
}

// OnPrepareRender computes the camera distance and decides whether the drawable is rendered.
//
// Parameters:
//   - frameNumber: the current frame
//   - cam: the view camera
//
// Returns:
//   - bool: true if the drawable should be rendered this frame
func (d *Drawable) OnPrepareRender(frameNumber uint32, cam camera.Camera) bool {
	if !d.Enabled() || d.viewMask&cam.ViewMask() == 0 {
		return false
	}
	return prepareRenderFuncs[d.kind](d, frameNumber, cam)
}

// OnRaycast returns the distance along ray to the drawable, or +Inf on a miss.
func (d *Drawable) OnRaycast(ray common.Ray) float32 {
	return raycastFuncs[d.kind](d, ray)
}

// OnRenderDebug adds the drawable's debug shape.
func (d *Drawable) OnRenderDebug(debug DebugRenderer) {
	debugFuncs[d.kind](d, debug)
}

// SetPosition moves the drawable and queues an octree update.
func (d *Drawable) SetPosition(position mgl32.Vec3) {
	d.position = position
	if d.light != nil {
		d.light.SetPosition(position)
	}
	d.markDirty()
}

// SetRotation rotates the drawable and queues an octree update. A light drawable points its
// light along the rotated -Z axis.
func (d *Drawable) SetRotation(rotation mgl32.Quat) {
	d.rotation = rotation.Normalize()
	if d.light != nil {
		d.light.SetDirection(d.rotation.Rotate(mgl32.Vec3{0, 0, -1}))
	}
	d.markDirty()
}

// SetScale scales the drawable and queues an octree update. Lights ignore scale.
func (d *Drawable) SetScale(scale mgl32.Vec3) {
	d.scale = scale
	d.markDirty()
}

// SetTransform sets position, rotation and scale at once.
func (d *Drawable) SetTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {
	d.scale = scale
	d.SetRotation(rotation)
	d.SetPosition(position)
}

// SetRotationSpeed sets a constant spin in Euler degrees per second, applied by Scene.Update.
func (d *Drawable) SetRotationSpeed(speed mgl32.Vec3) {
	d.rotationSpeed = speed
}

func (d *Drawable) SetEnabled(enabled bool) {
	d.enabled = enabled
}

func (d *Drawable) SetCastShadows(castShadows bool) {
	if d.light != nil {
		d.light.SetCastShadows(castShadows)
	}
	d.castShadows = castShadows
}

func (d *Drawable) SetViewMask(mask uint32) {
	d.viewMask = mask
}

// SetMaxDistance sets the camera distance beyond which the drawable is culled. 0 disables it.
func (d *Drawable) SetMaxDistance(distance float32) {
	distance = math32.Max(distance, 0)
	if d.light != nil {
		d.light.SetMaxDistance(distance)
	}
	d.maxDistance = distance
}

func (d *Drawable) markDirty() {
	d.dirty = true
	if d.octree != nil {
		d.octree.QueueUpdate(d)
	}
}

// Tick advances the rotation speed by dt seconds. It reports whether the transform changed.
func (d *Drawable) Tick(dt float32) bool {
	if d.rotationSpeed == (mgl32.Vec3{}) || dt == 0 {
		return false
	}
	s := d.rotationSpeed.Mul(dt)
	d.SetRotation(d.rotation.Mul(common.EulerToQuat(s[0], s[1], s[2])))
	return true
}

func geometryWorldBox(d *Drawable) common.BoundingBox {
	if !d.localBounds.IsDefined() {
		return common.NewBoundingBox(d.position, d.position)
	}
	return d.localBounds.Transformed(d.worldTransform)
}

func lightWorldBox(d *Drawable) common.BoundingBox {
	return d.light.WorldBoundingBox()
}

func geometryPrepareRender(d *Drawable, frameNumber uint32, cam camera.Camera) bool {
	d.distance = cam.Distance(d.WorldBoundingBox().Center())
	if d.maxDistance > 0 && d.distance > d.maxDistance {
		return false
	}
	d.lastFrame = frameNumber
	return true
}

func lightPrepareRender(d *Drawable, frameNumber uint32, cam camera.Camera) bool {
	ok := d.light.OnPrepareRender(frameNumber, cam)
	d.distance = d.light.Distance()
	if ok {
		d.lastFrame = frameNumber
	}
	return ok
}

func boxRaycast(d *Drawable, ray common.Ray) float32 {
	return ray.HitDistance(d.WorldBoundingBox())
}

func lightRaycast(d *Drawable, ray common.Ray) float32 {
	switch d.light.Type() {
	case light.LightTypePoint:
		return ray.HitDistanceSphere(d.light.WorldSphere())
	case light.LightTypeSpot:
		f := d.light.WorldFrustum()
		return ray.HitDistanceFrustum(&f)
	}
	return math32.Inf(1)
}

func geometryDebug(d *Drawable, debug DebugRenderer) {
	debug.AddBoundingBox(d.WorldBoundingBox(), colorful.Color{R: 0, G: 1, B: 0}, true)
}

func lightDebug(d *Drawable, debug DebugRenderer) {
	c := d.light.Color()
	switch d.light.Type() {
	case light.LightTypePoint:
		debug.AddSphere(d.light.WorldSphere(), c, true)
	case light.LightTypeSpot:
		debug.AddFrustum(d.light.WorldFrustum(), c, true)
	}
}

func occluderDebug(d *Drawable, debug DebugRenderer) {
	debug.AddBoundingBox(d.WorldBoundingBox(), colorful.Color{R: 1, G: 0, B: 0}, true)
}
