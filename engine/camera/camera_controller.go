package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController moves a camera around a target point using spherical coordinates
// (radius, azimuth, elevation). The controller owns the eye and target positions; Apply
// copies the resulting transform onto a Camera.
//
// Azimuth 0 places the eye on the +Z side of the target, looking down -Z.
type CameraController interface {
	// Position returns the world-space eye position.
	Position() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// SetTarget moves the look-at point, keeping the spherical offset.
	//
	// Parameters:
	//   - target: world-space pivot
	SetTarget(target mgl32.Vec3)

	Radius() float32

	// SetRadius sets the distance from the target, clamped to the radius bounds.
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32
	SetAzimuth(azimuth float32)

	// Elevation returns the vertical angle from the horizontal plane in radians.
	Elevation() float32

	// SetElevation sets the vertical angle, clamped to the elevation bounds.
	SetElevation(elevation float32)

	// Orbit rotates the eye around the target.
	//
	// Parameters:
	//   - deltaAzimuth: horizontal change in radians
	//   - deltaElevation: vertical change in radians, clamped to the elevation bounds
	Orbit(deltaAzimuth, deltaElevation float32)

	// Zoom moves the eye toward the target. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Pan translates both eye and target along the view's local axes.
	//
	// Parameters:
	//   - right: movement along the local right axis
	//   - up: movement along the local up axis
	//   - forward: movement toward the target
	Pan(right, up, forward float32)

	// Update advances the automatic orbit by the configured orbit speed.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous update
	Update(deltaTime float32)

	// Apply sets the camera's position and rotation to look from the eye at the target.
	//
	// Parameters:
	//   - c: the camera to move
	Apply(c Camera)
}
