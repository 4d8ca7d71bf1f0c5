package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DrawableBuilderOption is a function that configures a drawable during construction.
type DrawableBuilderOption func(*Drawable)

// WithPosition is an option builder that sets the world position of the drawable.
//
// Parameters:
//   - position: the world position
//
// Returns:
//   - DrawableBuilderOption: a function that applies the position option to a drawable
func WithPosition(position mgl32.Vec3) DrawableBuilderOption {
	return func(d *Drawable) {
		d.SetPosition(position)
	}
}

// WithRotation is an option builder that sets the world orientation of the drawable.
//
// Parameters:
//   - rotation: the orientation quaternion
//
// Returns:
//   - DrawableBuilderOption: a function that applies the rotation option to a drawable
func WithRotation(rotation mgl32.Quat) DrawableBuilderOption {
	return func(d *Drawable) {
		d.SetRotation(rotation)
	}
}

// WithScale is an option builder that sets the per-axis scale of the drawable.
//
// Parameters:
//   - scale: the scale factors
//
// Returns:
//   - DrawableBuilderOption: a function that applies the scale option to a drawable
func WithScale(scale mgl32.Vec3) DrawableBuilderOption {
	return func(d *Drawable) {
		d.SetScale(scale)
	}
}

// WithRotationSpeed is an option builder that sets a constant spin in Euler degrees per second.
func WithRotationSpeed(speed mgl32.Vec3) DrawableBuilderOption {
	return func(d *Drawable) {
		d.SetRotationSpeed(speed)
	}
}

// WithCastShadows is an option builder that sets whether the drawable is rendered into shadow maps.
func WithCastShadows(castShadows bool) DrawableBuilderOption {
	return func(d *Drawable) {
		d.SetCastShadows(castShadows)
	}
}

// WithMaxDistance is an option builder that sets the camera distance beyond which the drawable is culled.
//
// Parameters:
//   - distance: the maximum distance, 0 for unlimited
//
// Returns:
//   - DrawableBuilderOption: a function that applies the max distance option to a drawable
func WithMaxDistance(distance float32) DrawableBuilderOption {
	return func(d *Drawable) {
		d.SetMaxDistance(distance)
	}
}

// WithViewMask is an option builder that sets which camera view masks see the drawable.
func WithViewMask(mask uint32) DrawableBuilderOption {
	return func(d *Drawable) {
		d.SetViewMask(mask)
	}
}

// WithEnabled is an option builder that sets whether the drawable takes part in rendering.
func WithEnabled(enabled bool) DrawableBuilderOption {
	return func(d *Drawable) {
		d.SetEnabled(enabled)
	}
}
