package light

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultRange is the default reach of point and spot lights in world units.
	DefaultRange float32 = 10.0

	// DefaultSpotFov is the default full spot cone angle in degrees.
	DefaultSpotFov float32 = 30.0

	// DefaultSpecular is the default specular intensity carried in the effective color's alpha.
	DefaultSpecular float32 = 0.5

	// DefaultFadeStart is the fraction of max distance where lights and their shadows begin to fade.
	DefaultFadeStart float32 = 0.9

	// DefaultShadowMapSize is the default per-view shadow resolution in texels.
	DefaultShadowMapSize = 512

	// DefaultShadowCascadeSplit is the fraction of the shadow max distance covered by the first cascade.
	DefaultShadowCascadeSplit float32 = 0.25

	// DefaultShadowMaxDistance is the camera distance up to which shadows are drawn.
	DefaultShadowMaxDistance float32 = 250.0

	// DefaultShadowMaxStrength is the darkest a shadow gets. Zero is fully black.
	DefaultShadowMaxStrength float32 = 0.0

	// DefaultShadowQuantize is the step used to quantize directional shadow view sizes,
	// which keeps the projection stable while the camera moves.
	DefaultShadowQuantize float32 = 0.5

	// DefaultShadowMinView is the smallest directional shadow view size in world units.
	DefaultShadowMinView float32 = 10.0

	// DefaultDepthBias is the constant depth bias used when rendering the light's shadow views.
	DefaultDepthBias float32 = 2.0

	// DefaultSlopeScaleBias is the slope-scaled depth bias used when rendering the light's shadow views.
	DefaultSlopeScaleBias float32 = 1.5
)

// Config holds the attribute values a new light starts from.
type Config struct {
	Range              float32
	SpotFov            float32
	Specular           float32
	FadeStart          float32
	ShadowMapSize      int
	ShadowFadeStart    float32
	ShadowCascadeSplit float32
	ShadowMaxDistance  float32
	ShadowMaxStrength  float32
	ShadowQuantize     float32
	ShadowMinView      float32
	DepthBias          float32
	SlopeScaleBias     float32
}

// DefaultConfig returns the default light attributes.
func DefaultConfig() Config {
	return Config{
		Range:              DefaultRange,
		SpotFov:            DefaultSpotFov,
		Specular:           DefaultSpecular,
		FadeStart:          DefaultFadeStart,
		ShadowMapSize:      DefaultShadowMapSize,
		ShadowFadeStart:    DefaultFadeStart,
		ShadowCascadeSplit: DefaultShadowCascadeSplit,
		ShadowMaxDistance:  DefaultShadowMaxDistance,
		ShadowMaxStrength:  DefaultShadowMaxStrength,
		ShadowQuantize:     DefaultShadowQuantize,
		ShadowMinView:      DefaultShadowMinView,
		DepthBias:          DefaultDepthBias,
		SlopeScaleBias:     DefaultSlopeScaleBias,
	}
}

// applyConfig routes every value through its clamping setter.
func (l *lightImpl) applyConfig(cfg Config) {
	l.SetRange(cfg.Range)
	l.SetFov(cfg.SpotFov)
	l.SetSpecular(cfg.Specular)
	l.SetFadeStart(cfg.FadeStart)
	l.SetShadowMapSize(cfg.ShadowMapSize)
	l.SetShadowFadeStart(cfg.ShadowFadeStart)
	l.SetShadowCascadeSplit(cfg.ShadowCascadeSplit)
	l.SetShadowMaxDistance(cfg.ShadowMaxDistance)
	l.SetShadowMaxStrength(cfg.ShadowMaxStrength)
	l.SetShadowQuantize(cfg.ShadowQuantize)
	l.SetShadowMinView(cfg.ShadowMinView)
	l.SetDepthBias(cfg.DepthBias)
	l.SetSlopeScaleBias(cfg.SlopeScaleBias)
}

// pointLightFaces are the forward and up directions of the six point light shadow faces,
// in +X, -X, +Y, -Y, +Z, -Z order.
var pointLightFaces = [6][2]mgl32.Vec3{
	{{1, 0, 0}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 1, 0}},
	{{0, 1, 0}, {0, 0, -1}},
	{{0, -1, 0}, {0, 0, 1}},
	{{0, 0, 1}, {0, 1, 0}},
	{{0, 0, -1}, {0, 1, 0}},
}

// PointLightFaceRotation returns the shadow camera orientation for one point light face.
func PointLightFaceRotation(face int) mgl32.Quat {
	f := pointLightFaces[face]
	return common.LookRotation(f[0], f[1])
}

// ShadowView is one shadow camera of a light, rendered into a sub-rectangle of a shadow map.
type ShadowView struct {
	// Light is the owner of this view.
	Light Light
	// ShadowCamera renders the view. It is reused across frames while the light keeps its shadow map.
	ShadowCamera camera.Camera
	// Viewport is the texel rectangle of the shadow map this view renders into.
	Viewport common.IntRect
	// ShadowFrustum is the world-space frustum of ShadowCamera, used to find shadow casters.
	ShadowFrustum common.Frustum
	// ShadowMatrix maps world positions to shadow map texture coordinates and depth.
	ShadowMatrix mgl32.Mat4
	// SplitMinZ and SplitMaxZ are the main camera depth range covered by a directional cascade.
	SplitMinZ float32
	SplitMaxZ float32
	// Render is false when setup found nothing to render.
	Render bool
}

// PointShadowParams carries what a shader needs to sample the 3x2 face grid of a point light.
type PointShadowParams struct {
	// FaceSize is one face's size relative to the shadow map dimensions.
	FaceSize mgl32.Vec2
	// Offset is the top-left corner of the light's region relative to the shadow map dimensions.
	Offset mgl32.Vec2
	// Zoom shrinks the faces slightly so filtering does not sample across face borders.
	Zoom float32
	// DepthQ and DepthR reconstruct [0, 1] depth from a view distance d as DepthQ + DepthR/d.
	DepthQ float32
	DepthR float32
	// Position is the light position. A change invalidates cached shadow content.
	Position mgl32.Vec3
}

func (l *lightImpl) InitShadowViews() {
	n := l.NumShadowViews()
	if len(l.shadowViews) > n {
		l.shadowViews = l.shadowViews[:n]
	}
	for len(l.shadowViews) < n {
		l.shadowViews = append(l.shadowViews, &ShadowView{})
	}

	for _, view := range l.shadowViews {
		view.Light = l
		view.Render = false
		if view.ShadowCamera == nil {
			view.ShadowCamera = camera.NewCamera()
		}
	}

	if l.shadowMap == nil {
		return
	}
	l.shadowParameters = mgl32.Vec4{
		0.5 / float32(l.shadowMap.Width()),
		0.5 / float32(l.shadowMap.Height()),
		l.ShadowStrength(),
		0,
	}
}

func (l *lightImpl) SetupShadowView(viewIndex int, mainCamera camera.Camera, geometryBounds *common.BoundingBox) bool {
	if l.shadowMap == nil || viewIndex < 0 || viewIndex >= len(l.shadowViews) {
		return false
	}

	view := l.shadowViews[viewIndex]
	view.Render = false
	shadowCamera := view.ShadowCamera
	actualSize := l.ActualShadowMapSize()
	if actualSize <= 0 {
		return false
	}

	switch l.lightType {
	case LightTypeDirectional:
		if !l.setupDirectionalView(view, viewIndex, actualSize, mainCamera, geometryBounds) {
			return false
		}

	case LightTypePoint:
		left := l.shadowRect.Left + (viewIndex>>1)*actualSize
		top := l.shadowRect.Top + (viewIndex&1)*actualSize
		view.Viewport = common.NewIntRect(left, top, left+actualSize, top+actualSize)

		shadowCamera.SetOrthographic(false)
		shadowCamera.SetTransform(l.position, PointLightFaceRotation(viewIndex))
		shadowCamera.SetFov(90)
		shadowCamera.SetZoom(float32(actualSize-4) / float32(actualSize))
		shadowCamera.SetFar(l.lightRange)
		shadowCamera.SetNear(l.lightRange * 0.01)
		shadowCamera.SetAspect(1)

	case LightTypeSpot:
		view.Viewport = l.shadowRect

		shadowCamera.SetOrthographic(false)
		shadowCamera.SetTransform(l.position, l.Rotation())
		shadowCamera.SetFov(l.fov)
		shadowCamera.SetZoom(1)
		shadowCamera.SetFar(l.lightRange)
		shadowCamera.SetNear(l.lightRange * 0.01)
		shadowCamera.SetAspect(1)
	}

	view.ShadowFrustum = shadowCamera.WorldFrustum()
	view.ShadowMatrix = l.textureAdjust(view.Viewport).Mul4(shadowCamera.ViewProjectionMatrix())

	if l.lightType == LightTypePoint && viewIndex == 0 {
		width := float32(l.shadowMap.Width())
		height := float32(l.shadowMap.Height())
		nearClip := l.lightRange * 0.01
		farClip := l.lightRange
		q := farClip / (farClip - nearClip)
		l.pointParams = PointShadowParams{
			FaceSize: mgl32.Vec2{float32(actualSize) / width, float32(actualSize) / height},
			Offset:   mgl32.Vec2{float32(l.shadowRect.Left) / width, float32(l.shadowRect.Top) / height},
			Zoom:     shadowCamera.Zoom(),
			DepthQ:   q,
			DepthR:   -q * nearClip,
			Position: l.position,
		}
	}

	view.Render = true
	return true
}

// setupDirectionalView fits an orthographic shadow camera around one cascade of the main view.
func (l *lightImpl) setupDirectionalView(view *ShadowView, viewIndex, actualSize int, mainCamera camera.Camera, geometryBounds *common.BoundingBox) bool {
	shadowCamera := view.ShadowCamera

	left := l.shadowRect.Left + (viewIndex&1)*actualSize
	top := l.shadowRect.Top
	view.Viewport = common.NewIntRect(left, top, left+actualSize, top+actualSize)

	splits := l.ShadowCascadeSplits()
	if viewIndex == 0 {
		view.SplitMinZ = mainCamera.Near()
		view.SplitMaxZ = math32.Min(mainCamera.Far(), splits[0])
	} else {
		view.SplitMinZ = math32.Max(mainCamera.Near(), splits[0])
		view.SplitMaxZ = math32.Min(mainCamera.Far(), splits[1])
	}
	if view.SplitMaxZ <= view.SplitMinZ {
		return false
	}

	extrusionDistance := mainCamera.Far()
	rotation := l.Rotation()
	shadowCamera.SetOrthographic(true)
	shadowCamera.SetTransform(mainCamera.Position().Sub(l.direction.Mul(extrusionDistance)), rotation)

	splitFrustum := mainCamera.WorldSplitFrustum(view.SplitMinZ, view.SplitMaxZ)
	var shadowBox common.BoundingBox
	if geometryBounds != nil {
		if !geometryBounds.IsDefined() {
			return false
		}
		volume := common.NewPolyhedronFromFrustum(&splitFrustum)
		volume.ClipBox(*geometryBounds)
		if volume.IsEmpty() {
			return false
		}
		volume.Transform(shadowCamera.ViewMatrix())
		shadowBox = volume.BoundingBox()
	} else {
		shadowFrustum := splitFrustum.Transformed(shadowCamera.ViewMatrix())
		shadowBox = shadowFrustum.BoundingBox()
	}

	// View space looks down -Z, so depth in front of the camera is -z.
	minDepth := -shadowBox.Max[2]
	maxDepth := -shadowBox.Min[2]

	// Pull the camera closer when it sits far behind the fitted volume, for depth precision
	minDistance := mainCamera.Far() * 0.25
	if minDepth > minDistance {
		move := minDepth - minDistance
		shadowCamera.Translate(l.direction.Mul(move))
		maxDepth -= move
	}
	shadowCamera.SetFar(math32.Max(maxDepth, common.Epsilon))

	center := shadowBox.Center()
	size := shadowBox.Size()
	sizeX := math32.Ceil(math32.Sqrt(size[0] / l.shadowQuantize))
	sizeY := math32.Ceil(math32.Sqrt(size[1] / l.shadowQuantize))
	sizeX = math32.Max(sizeX*sizeX*l.shadowQuantize, l.shadowMinView)
	sizeY = math32.Max(sizeY*sizeY*l.shadowQuantize, l.shadowMinView)

	shadowCamera.SetOrthoExtents(mgl32.Vec2{sizeX, sizeY})
	shadowCamera.SetZoom(1)

	// Center on the fitted box, then snap to whole texels so shadow edges do not shimmer
	shadowCamera.Translate(rotation.Rotate(mgl32.Vec3{center[0], center[1], 0}))

	viewPos := rotation.Inverse().Rotate(shadowCamera.Position())
	invSize := 4.0 / float32(actualSize)
	texelX := sizeX * invSize
	texelY := sizeY * invSize
	snap := mgl32.Vec3{-math32.Mod(viewPos[0], texelX), -math32.Mod(viewPos[1], texelY), 0}
	shadowCamera.Translate(rotation.Rotate(snap))

	return true
}

// textureAdjust maps clip space of a view to its viewport in shadow map texture coordinates.
// Texture V grows downward while clip Y grows upward, and clip depth is already [0, 1].
func (l *lightImpl) textureAdjust(viewport common.IntRect) mgl32.Mat4 {
	width := float32(l.shadowMap.Width())
	height := float32(l.shadowMap.Height())

	scaleX := 0.5 * float32(viewport.Width()) / width
	scaleY := 0.5 * float32(viewport.Height()) / height
	offsetX := float32(viewport.Left)/width + scaleX
	offsetY := float32(viewport.Top)/height + scaleY

	m := mgl32.Ident4()
	m[0] = scaleX
	m[5] = -scaleY
	m[12] = offsetX
	m[13] = offsetY
	return m
}
