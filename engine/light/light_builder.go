package light

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithConfig is an option builder that replaces every configurable attribute with the values in cfg.
// Values are clamped the same way the setters clamp them.
//
// Parameters:
//   - cfg: the attribute values to apply
//
// Returns:
//   - LightBuilderOption: a function that applies the config to a lightImpl
func WithConfig(cfg Config) LightBuilderOption {
	return func(l *lightImpl) {
		l.applyConfig(cfg)
	}
}

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - position: the world-space position
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(position mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetPosition(position)
	}
}

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized before storing; a zero vector is ignored.
//
// Parameters:
//   - direction: the direction the light shines toward
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(direction mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetDirection(direction)
	}
}

// WithColor is an option builder that sets the color of the light.
//
// Parameters:
//   - color: the light color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(color colorful.Color) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetColor(color)
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetIntensity(intensity)
	}
}

func WithSpecular(specular float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetSpecular(specular)
	}
}

// WithRange is an option builder that sets the maximum reach of point and spot lights.
//
// Parameters:
//   - lightRange: the range value
//
// Returns:
//   - LightBuilderOption: a function that applies the range option to a lightImpl
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetRange(lightRange)
	}
}

// WithFov is an option builder that sets the full spot cone angle in degrees.
func WithFov(fov float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetFov(fov)
	}
}

func WithFadeStart(start float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetFadeStart(start)
	}
}

func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetEnabled(enabled)
	}
}

// WithCastShadows is an option builder that sets whether the light renders shadow views.
//
// Parameters:
//   - castShadows: true to allocate shadow map space for the light
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option to a lightImpl
func WithCastShadows(castShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetCastShadows(castShadows)
	}
}

// WithMaxDistance is an option builder that sets the camera distance beyond which the light is skipped.
// Zero means unlimited.
func WithMaxDistance(distance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetMaxDistance(distance)
	}
}

// WithShadowMapSize is an option builder that sets the per-view shadow resolution.
// The size is rounded up to a power of two.
//
// Parameters:
//   - size: the requested resolution in texels
//
// Returns:
//   - LightBuilderOption: a function that applies the size option to a lightImpl
func WithShadowMapSize(size int) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetShadowMapSize(size)
	}
}

func WithShadowFadeStart(start float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetShadowFadeStart(start)
	}
}

func WithShadowCascadeSplit(split float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetShadowCascadeSplit(split)
	}
}

func WithShadowMaxDistance(distance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetShadowMaxDistance(distance)
	}
}

func WithShadowMaxStrength(strength float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetShadowMaxStrength(strength)
	}
}

func WithShadowQuantize(quantize float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetShadowQuantize(quantize)
	}
}

func WithShadowMinView(minView float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetShadowMinView(minView)
	}
}

// WithDepthBias is an option builder that sets the constant and slope-scaled depth bias of the shadow views.
//
// Parameters:
//   - bias: constant depth bias
//   - slopeScale: slope-scaled depth bias
//
// Returns:
//   - LightBuilderOption: a function that applies the bias option to a lightImpl
func WithDepthBias(bias, slopeScale float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.SetDepthBias(bias)
		l.SetSlopeScaleBias(slopeScale)
	}
}
