package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.RWMutex

	position mgl32.Vec3
	rotation mgl32.Quat

	fov          float32 // degrees
	aspect       float32
	near         float32
	far          float32
	zoom         float32
	orthographic bool
	orthoSize    float32
	viewMask     uint32

	projectionVersion uint64

	worldTransform          mgl32.Mat4
	viewMatrix              mgl32.Mat4
	projectionMatrix        mgl32.Mat4
	viewProjectionMatrix    mgl32.Mat4
	inverseProjectionMatrix mgl32.Mat4
	worldFrustum            common.Frustum
}

// Camera defines a viewpoint for culling and rendering. It looks down its local -Z axis,
// with +Y up. Projection maps view depth to the [0, 1] clip range.
//
// All getters are safe to call from multiple goroutines. Setters recompute the cached matrices
// and frustum immediately.
type Camera interface {
	Position() mgl32.Vec3
	Rotation() mgl32.Quat

	// Forward returns the world-space view direction.
	Forward() mgl32.Vec3

	// Fov returns the vertical field of view in degrees.
	Fov() float32
	Aspect() float32
	Zoom() float32
	Orthographic() bool
	OrthoSize() float32
	ViewMask() uint32

	// Near returns the near clip distance. Orthographic cameras always clip at zero.
	Near() float32
	Far() float32

	// ProjectionVersion increases whenever a projection parameter changes, so that
	// consumers caching data derived from the projection can detect staleness.
	ProjectionVersion() uint64

	WorldTransform() mgl32.Mat4
	ViewMatrix() mgl32.Mat4
	ProjectionMatrix() mgl32.Mat4
	ViewProjectionMatrix() mgl32.Mat4
	InverseProjectionMatrix() mgl32.Mat4

	// WorldFrustum returns the world-space view frustum between the near and far clip distances.
	WorldFrustum() common.Frustum

	// WorldSplitFrustum returns the world-space frustum for a sub-range of view depth.
	// The range is clamped to the camera's own near and far distances.
	//
	// Parameters:
	//   - nearClip: the near distance of the split
	//   - farClip: the far distance of the split
	//
	// Returns:
	//   - common.Frustum: the split frustum
	WorldSplitFrustum(nearClip, farClip float32) common.Frustum

	// Distance returns the distance from the camera to a world-space point.
	// Orthographic cameras measure along the view direction only.
	//
	// Parameters:
	//   - worldPos: the point to measure to
	//
	// Returns:
	//   - float32: the distance
	Distance(worldPos mgl32.Vec3) float32

	SetPosition(position mgl32.Vec3)
	SetRotation(rotation mgl32.Quat)

	// SetTransform sets position and rotation together with a single matrix update.
	SetTransform(position mgl32.Vec3, rotation mgl32.Quat)

	// Translate moves the camera by a world-space offset.
	Translate(delta mgl32.Vec3)

	// SetFov sets the vertical field of view in degrees, clamped to (0, 180).
	SetFov(fov float32)
	SetAspect(aspect float32)
	SetNear(near float32)
	SetFar(far float32)
	SetZoom(zoom float32)
	SetOrthographic(enable bool)

	// SetOrthoSize sets the full height of an orthographic view volume.
	SetOrthoSize(size float32)

	// SetOrthoExtents sets the full width and height of an orthographic view volume,
	// deriving the aspect ratio from them.
	//
	// Parameters:
	//   - size: width and height
	SetOrthoExtents(size mgl32.Vec2)
	SetViewMask(mask uint32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at the origin with default perspective settings.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:        &sync.RWMutex{},
		rotation:  mgl32.QuatIdent(),
		fov:       45.0,
		aspect:    1.0,
		near:      0.1,
		far:       1000.0,
		zoom:      1.0,
		orthoSize: 20.0,
		viewMask:  0xffffffff,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *cameraImpl) Rotation() mgl32.Quat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotation
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

func (c *cameraImpl) Fov() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aspect
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zoom
}

func (c *cameraImpl) Orthographic() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orthographic
}

func (c *cameraImpl) OrthoSize() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orthoSize
}

func (c *cameraImpl) ViewMask() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewMask
}

func (c *cameraImpl) Near() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nearClip()
}

func (c *cameraImpl) Far() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.far
}

func (c *cameraImpl) ProjectionVersion() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projectionVersion
}

func (c *cameraImpl) WorldTransform() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.worldTransform
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseProjectionMatrix() mgl32.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) WorldFrustum() common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.worldFrustum
}

func (c *cameraImpl) WorldSplitFrustum(nearClip, farClip float32) common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()

	nearClip = math32.Max(nearClip, c.nearClip())
	farClip = math32.Min(farClip, c.far)
	if farClip < nearClip {
		farClip = nearClip
	}
	return c.frustum(nearClip, farClip)
}

func (c *cameraImpl) Distance(worldPos mgl32.Vec3) float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.orthographic {
		return worldPos.Sub(c.position).Len()
	}
	forward := c.rotation.Rotate(mgl32.Vec3{0, 0, -1})
	return math32.Abs(worldPos.Sub(c.position).Dot(forward))
}

func (c *cameraImpl) SetPosition(position mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.updateMatrices()
}

func (c *cameraImpl) SetRotation(rotation mgl32.Quat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = rotation.Normalize()
	c.updateMatrices()
}

func (c *cameraImpl) SetTransform(position mgl32.Vec3, rotation mgl32.Quat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.rotation = rotation.Normalize()
	c.updateMatrices()
}

func (c *cameraImpl) Translate(delta mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = c.position.Add(delta)
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = common.Clamp(fov, 0.001, 179.999)
	c.projectionChanged()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = math32.Max(aspect, common.Epsilon)
	c.projectionChanged()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = math32.Max(near, common.Epsilon)
	c.projectionChanged()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = math32.Max(far, common.Epsilon)
	c.projectionChanged()
}

func (c *cameraImpl) SetZoom(zoom float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = math32.Max(zoom, common.Epsilon)
	c.projectionChanged()
}

func (c *cameraImpl) SetOrthographic(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthographic = enable
	c.projectionChanged()
}

func (c *cameraImpl) SetOrthoSize(size float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoSize = math32.Max(size, common.Epsilon)
	c.projectionChanged()
}

func (c *cameraImpl) SetOrthoExtents(size mgl32.Vec2) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoSize = math32.Max(size[1], common.Epsilon)
	c.aspect = math32.Max(size[0], common.Epsilon) / c.orthoSize
	c.projectionChanged()
}

func (c *cameraImpl) SetViewMask(mask uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMask = mask
}

func (c *cameraImpl) nearClip() float32 {
	if c.orthographic {
		return 0
	}
	return c.near
}

// frustum builds a world-space frustum for the given depth range. Caller must hold the mutex.
func (c *cameraImpl) frustum(nearClip, farClip float32) common.Frustum {
	if c.orthographic {
		return common.NewOrthoFrustum(c.orthoSize, c.aspect, c.zoom, nearClip, farClip, c.worldTransform)
	}
	return common.NewPerspectiveFrustum(c.fov, c.aspect, c.zoom, nearClip, farClip, c.worldTransform)
}

// projectionChanged bumps the projection version and recomputes matrices. Caller must hold the mutex.
func (c *cameraImpl) projectionChanged() {
	c.projectionVersion++
	c.updateMatrices()
}

// updateMatrices recalculates the world, view, projection, view-projection, and inverse projection matrices
// and the world frustum. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.worldTransform = common.NewTransform(c.position, c.rotation, mgl32.Vec3{1, 1, 1})
	c.viewMatrix = c.rotation.Conjugate().Mat4().Mul4(
		mgl32.Translate3D(-c.position[0], -c.position[1], -c.position[2]),
	)
	c.projectionMatrix = c.projection()
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.inverseProjectionMatrix = c.projectionMatrix.Inv()
	c.worldFrustum = c.frustum(c.nearClip(), c.far)
}

// projection builds a right-handed projection with [0, 1] depth.
func (c *cameraImpl) projection() mgl32.Mat4 {
	var m mgl32.Mat4
	nearClip := c.nearClip()
	farClip := c.far

	if c.orthographic {
		h := 2.0 / c.orthoSize * c.zoom
		w := h / c.aspect
		m[0] = w
		m[5] = h
		m[10] = -1.0 / farClip
		m[14] = 0
		m[15] = 1
		return m
	}

	h := c.zoom / math32.Tan(mgl32.DegToRad(c.fov)*0.5)
	w := h / c.aspect
	m[0] = w
	m[5] = h
	m[10] = farClip / (nearClip - farClip)
	m[11] = -1
	m[14] = nearClip * farClip / (nearClip - farClip)
	return m
}
