package light

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Shadows use two orthographic cascades
	// fitted to the main camera's view.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to its range. Shadows use six 90 degree faces packed in a 3x2 grid.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Shadows use a single perspective view matching the cone.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return "unknown"
}

// ShadowMapTarget is the texture a light's shadow views are rendered into.
type ShadowMapTarget interface {
	Width() int
	Height() int
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType   LightType
	position    mgl32.Vec3
	direction   mgl32.Vec3
	color       colorful.Color
	intensity   float32
	specular    float32
	lightRange  float32
	fov         float32 // degrees
	fadeStart   float32
	enabled     bool
	castShadows bool

	maxDistance     float32
	distance        float32
	lastFrameNumber uint32

	shadowMapSize      int
	shadowFadeStart    float32
	shadowCascadeSplit float32
	shadowMaxDistance  float32
	shadowMaxStrength  float32
	shadowQuantize     float32
	shadowMinView      float32
	depthBias          float32
	slopeScaleBias     float32

	shadowMap        ShadowMapTarget
	shadowRect       common.IntRect
	shadowViews      []*ShadowView
	shadowParameters mgl32.Vec4
	pointParams      PointShadowParams
}

// Light defines the interface for a light source in the scene.
//
// Lights take part in culling through a scene drawable. During frame preparation the renderer
// is the only writer of a light's visibility stamp, distance and shadow map state; all of those
// writes happen on the single light-processing task.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	Position() mgl32.Vec3

	// Direction returns the normalized direction the light shines toward.
	// Meaningless for point lights.
	Direction() mgl32.Vec3

	// Rotation returns the orientation whose forward (-Z) axis matches Direction.
	Rotation() mgl32.Quat

	// Color returns the light color, without intensity or distance fade applied.
	Color() colorful.Color
	Intensity() float32
	Specular() float32
	Range() float32

	// Fov returns the full spot cone angle in degrees.
	Fov() float32
	FadeStart() float32
	Enabled() bool
	CastShadows() bool

	// MaxDistance returns the camera distance beyond which the light is not rendered. Zero means unlimited.
	MaxDistance() float32

	// Distance returns the camera distance computed by the last OnPrepareRender call.
	Distance() float32
	LastFrameNumber() uint32

	ShadowMapSize() int
	ShadowFadeStart() float32
	ShadowCascadeSplit() float32
	ShadowMaxDistance() float32
	ShadowMaxStrength() float32
	ShadowQuantize() float32
	ShadowMinView() float32
	DepthBias() float32
	SlopeScaleBias() float32

	// Brightness returns the average color channel scaled by intensity, used to rank directional lights.
	Brightness() float32

	// TotalShadowMapSize returns the atlas area needed by all of the light's shadow views.
	//
	// Returns:
	//   - int: width in texels
	//   - int: height in texels
	TotalShadowMapSize() (int, int)

	// ActualShadowMapSize returns the per-view resolution derived from the allocated shadow rectangle.
	ActualShadowMapSize() int

	// NumShadowViews returns the number of shadow views: 2 for directional, 6 for point, 1 for spot,
	// or 0 if the light does not cast shadows.
	NumShadowViews() int

	// ShadowCascadeSplits returns the far distances of the two directional cascades.
	ShadowCascadeSplits() mgl32.Vec2

	// EffectiveColor returns the color with intensity applied, faded toward black as the light
	// approaches its max distance. The alpha channel carries the specular intensity.
	EffectiveColor() mgl32.Vec4

	// ShadowStrength returns the shadow darkness to use this frame, where 1 means no shadow.
	ShadowStrength() float32

	// WorldFrustum returns the spot light cone as a frustum.
	WorldFrustum() common.Frustum

	// WorldSphere returns the sphere of influence of a point light.
	WorldSphere() common.Sphere

	// WorldBoundingBox returns the box of the light's influence.
	WorldBoundingBox() common.BoundingBox

	// OnPrepareRender computes the camera distance and stamps the frame number.
	// A gap in rendering discards the cached shadow map assignment.
	//
	// Parameters:
	//   - frameNumber: the current frame number
	//   - cam: the main view camera
	//
	// Returns:
	//   - bool: false if the light is beyond its max distance
	OnPrepareRender(frameNumber uint32, cam camera.Camera) bool

	// WasInView reports whether the light was rendered in this frame or the previous one.
	WasInView(frameNumber uint32) bool

	ShadowMap() ShadowMapTarget
	ShadowRect() common.IntRect

	// SetShadowMap assigns the shadow map texture and the region of it owned by this light.
	// Passing nil removes the assignment. Views created while no map was assigned are discarded.
	//
	// Parameters:
	//   - target: the shadow map texture, or nil
	//   - rect: the allocated region in texels
	SetShadowMap(target ShadowMapTarget, rect common.IntRect)

	// ShadowViews returns the views set up by InitShadowViews.
	ShadowViews() []*ShadowView

	// InitShadowViews sizes the shadow view list for the light type, creating shadow cameras on first use,
	// and computes the shadow parameters shared by all views. A shadow map must be assigned.
	InitShadowViews()

	// SetupShadowView positions one view's shadow camera and computes its viewport and shadow matrix.
	//
	// Parameters:
	//   - viewIndex: index into ShadowViews
	//   - mainCamera: the camera the scene is viewed from
	//   - geometryBounds: for directional lights, the combined box of visible geometry, or nil to skip focusing
	//
	// Returns:
	//   - bool: false if the view has nothing to render and should be skipped
	SetupShadowView(viewIndex int, mainCamera camera.Camera, geometryBounds *common.BoundingBox) bool

	// ShadowParameters returns the half-texel size of the shadow map and the shadow strength.
	ShadowParameters() mgl32.Vec4

	// PointShadowParams returns the parameters a shader needs to sample a point light's shadow faces.
	PointShadowParams() PointShadowParams

	SetLightType(lightType LightType)
	SetPosition(position mgl32.Vec3)

	// SetDirection sets the light direction. The direction is normalized before storing.
	SetDirection(direction mgl32.Vec3)
	SetColor(color colorful.Color)
	SetIntensity(intensity float32)
	SetSpecular(specular float32)

	// SetRange sets the light range, clamped to zero or more.
	SetRange(lightRange float32)

	// SetFov sets the spot cone angle, clamped to [0, 180] degrees.
	SetFov(fov float32)

	// SetFadeStart sets the fraction of max distance where the light starts fading, clamped to [0, 1).
	SetFadeStart(start float32)
	SetEnabled(enabled bool)
	SetCastShadows(castShadows bool)
	SetMaxDistance(distance float32)

	// SetShadowMapSize sets the per-view shadow resolution, rounded up to a power of two.
	SetShadowMapSize(size int)
	SetShadowFadeStart(start float32)
	SetShadowCascadeSplit(split float32)
	SetShadowMaxDistance(distance float32)
	SetShadowMaxStrength(strength float32)
	SetShadowQuantize(quantize float32)
	SetShadowMinView(minView float32)
	SetDepthBias(bias float32)
	SetSlopeScaleBias(bias float32)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		direction: mgl32.Vec3{0, -1, 0},
		color:     colorful.Color{R: 1, G: 1, B: 1},
		intensity: 1.0,
		enabled:   true,
	}
	l.applyConfig(DefaultConfig())
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return l.direction
}

func (l *lightImpl) Rotation() mgl32.Quat {
	return common.LookRotation(l.direction, mgl32.Vec3{0, 1, 0})
}

func (l *lightImpl) Color() colorful.Color {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Specular() float32 {
	return l.specular
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Fov() float32 {
	return l.fov
}

func (l *lightImpl) FadeStart() float32 {
	return l.fadeStart
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastShadows() bool {
	return l.castShadows
}

func (l *lightImpl) MaxDistance() float32 {
	return l.maxDistance
}

func (l *lightImpl) Distance() float32 {
	return l.distance
}

func (l *lightImpl) LastFrameNumber() uint32 {
	return l.lastFrameNumber
}

func (l *lightImpl) ShadowMapSize() int {
	return l.shadowMapSize
}

func (l *lightImpl) ShadowFadeStart() float32 {
	return l.shadowFadeStart
}

func (l *lightImpl) ShadowCascadeSplit() float32 {
	return l.shadowCascadeSplit
}

func (l *lightImpl) ShadowMaxDistance() float32 {
	return l.shadowMaxDistance
}

func (l *lightImpl) ShadowMaxStrength() float32 {
	return l.shadowMaxStrength
}

func (l *lightImpl) ShadowQuantize() float32 {
	return l.shadowQuantize
}

func (l *lightImpl) ShadowMinView() float32 {
	return l.shadowMinView
}

func (l *lightImpl) DepthBias() float32 {
	return l.depthBias
}

func (l *lightImpl) SlopeScaleBias() float32 {
	return l.slopeScaleBias
}

func (l *lightImpl) Brightness() float32 {
	return float32(l.color.R+l.color.G+l.color.B) / 3.0 * l.intensity
}

func (l *lightImpl) TotalShadowMapSize() (int, int) {
	switch l.lightType {
	case LightTypeDirectional:
		return l.shadowMapSize * 2, l.shadowMapSize
	case LightTypePoint:
		return l.shadowMapSize * 3, l.shadowMapSize * 2
	default:
		return l.shadowMapSize, l.shadowMapSize
	}
}

func (l *lightImpl) ActualShadowMapSize() int {
	if l.lightType == LightTypePoint {
		return l.shadowRect.Height() / 2
	}
	return l.shadowRect.Height()
}

func (l *lightImpl) NumShadowViews() int {
	if !l.castShadows {
		return 0
	}
	switch l.lightType {
	case LightTypeDirectional:
		return 2
	case LightTypePoint:
		return 6
	default:
		return 1
	}
}

func (l *lightImpl) ShadowCascadeSplits() mgl32.Vec2 {
	return mgl32.Vec2{l.shadowCascadeSplit * l.shadowMaxDistance, l.shadowMaxDistance}
}

func (l *lightImpl) EffectiveColor() mgl32.Vec4 {
	c := mgl32.Vec4{
		float32(l.color.R) * l.intensity,
		float32(l.color.G) * l.intensity,
		float32(l.color.B) * l.intensity,
		l.specular,
	}

	if l.maxDistance > 0 {
		scaledDistance := l.distance / l.maxDistance
		if scaledDistance >= l.fadeStart {
			t := common.Clamp((scaledDistance-l.fadeStart)/(1.0-l.fadeStart), 0, 1)
			c = c.Mul(1 - t)
		}
	}
	return c
}

func (l *lightImpl) ShadowStrength() float32 {
	if !l.castShadows {
		return 1.0
	}

	if l.lightType != LightTypeDirectional && l.shadowMaxDistance > 0 {
		scaledDistance := l.distance / l.shadowMaxDistance
		if scaledDistance >= l.shadowFadeStart {
			t := common.Clamp((scaledDistance-l.shadowFadeStart)/(1.0-l.shadowFadeStart), 0, 1)
			return common.Lerp(l.shadowMaxStrength, 1.0, t)
		}
	}
	return l.shadowMaxStrength
}

func (l *lightImpl) WorldFrustum() common.Frustum {
	transform := common.NewTransform(l.position, l.Rotation(), mgl32.Vec3{1, 1, 1})
	return common.NewPerspectiveFrustum(l.fov, 1.0, 1.0, 0.0, l.lightRange, transform)
}

func (l *lightImpl) WorldSphere() common.Sphere {
	return common.Sphere{Center: l.position, Radius: l.lightRange}
}

func (l *lightImpl) WorldBoundingBox() common.BoundingBox {
	switch l.lightType {
	case LightTypeDirectional:
		v := common.LargeValue
		return common.NewBoundingBox(mgl32.Vec3{-v, -v, -v}, mgl32.Vec3{v, v, v})
	case LightTypePoint:
		return l.WorldSphere().BoundingBox()
	default:
		f := l.WorldFrustum()
		return f.BoundingBox()
	}
}

func (l *lightImpl) OnPrepareRender(frameNumber uint32, cam camera.Camera) bool {
	switch l.lightType {
	case LightTypeDirectional:
		l.distance = 0
	case LightTypeSpot:
		l.distance = cam.Distance(l.position.Add(l.direction.Mul(0.5 * l.lightRange)))
	case LightTypePoint:
		l.distance = cam.Distance(l.position)
	}

	if l.maxDistance > 0 && l.distance > l.maxDistance {
		return false
	}

	if !l.WasInView(frameNumber) {
		l.SetShadowMap(nil, common.IntRect{})
	}

	l.lastFrameNumber = frameNumber
	return true
}

func (l *lightImpl) WasInView(frameNumber uint32) bool {
	return l.lastFrameNumber == frameNumber || l.lastFrameNumber+1 == frameNumber
}

func (l *lightImpl) ShadowMap() ShadowMapTarget {
	return l.shadowMap
}

func (l *lightImpl) ShadowRect() common.IntRect {
	return l.shadowRect
}

func (l *lightImpl) SetShadowMap(target ShadowMapTarget, rect common.IntRect) {
	if l.shadowMap == nil {
		l.shadowViews = nil
	}
	l.shadowMap = target
	l.shadowRect = rect
}

func (l *lightImpl) ShadowViews() []*ShadowView {
	return l.shadowViews
}

func (l *lightImpl) ShadowParameters() mgl32.Vec4 {
	return l.shadowParameters
}

func (l *lightImpl) PointShadowParams() PointShadowParams {
	return l.pointParams
}

func (l *lightImpl) SetLightType(lightType LightType) {
	l.lightType = lightType
}

func (l *lightImpl) SetPosition(position mgl32.Vec3) {
	l.position = position
}

func (l *lightImpl) SetDirection(direction mgl32.Vec3) {
	if direction.Len() < common.Epsilon {
		return
	}
	l.direction = direction.Normalize()
}

func (l *lightImpl) SetColor(color colorful.Color) {
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = math32.Max(intensity, 0)
}

func (l *lightImpl) SetSpecular(specular float32) {
	l.specular = math32.Max(specular, 0)
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = math32.Max(lightRange, 0)
}

func (l *lightImpl) SetFov(fov float32) {
	l.fov = common.Clamp(fov, 0, 180)
}

func (l *lightImpl) SetFadeStart(start float32) {
	l.fadeStart = common.Clamp(start, 0, 1-common.Epsilon)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetCastShadows(castShadows bool) {
	l.castShadows = castShadows
}

func (l *lightImpl) SetMaxDistance(distance float32) {
	l.maxDistance = math32.Max(distance, 0)
}

func (l *lightImpl) SetShadowMapSize(size int) {
	if size < 1 {
		size = 1
	}
	l.shadowMapSize = common.NextPowerOfTwo(size)
}

func (l *lightImpl) SetShadowFadeStart(start float32) {
	l.shadowFadeStart = common.Clamp(start, 0, 1-common.Epsilon)
}

func (l *lightImpl) SetShadowCascadeSplit(split float32) {
	l.shadowCascadeSplit = common.Clamp(split, common.Epsilon, 1-common.Epsilon)
}

func (l *lightImpl) SetShadowMaxDistance(distance float32) {
	l.shadowMaxDistance = math32.Max(distance, 0)
}

func (l *lightImpl) SetShadowMaxStrength(strength float32) {
	l.shadowMaxStrength = common.Clamp(strength, 0, 1)
}

func (l *lightImpl) SetShadowQuantize(quantize float32) {
	l.shadowQuantize = math32.Max(quantize, common.Epsilon)
}

func (l *lightImpl) SetShadowMinView(minView float32) {
	l.shadowMinView = math32.Max(minView, common.Epsilon)
}

func (l *lightImpl) SetDepthBias(bias float32) {
	l.depthBias = math32.Max(bias, 0)
}

func (l *lightImpl) SetSlopeScaleBias(bias float32) {
	l.slopeScaleBias = math32.Max(bias, 0)
}
