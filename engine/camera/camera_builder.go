package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the camera's world position.
//
// Parameters:
//   - position: world-space position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(position mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = position
	}
}

// WithRotation sets the camera's world orientation.
//
// Parameters:
//   - rotation: world-space orientation
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's rotation
func WithRotation(rotation mgl32.Quat) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.rotation = rotation.Normalize()
	}
}

// WithFov sets the camera's vertical field of view in degrees.
//
// Parameters:
//   - fov: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithZoom sets the zoom factor.
func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoom = zoom
	}
}

// WithOrthographic switches the camera to an orthographic projection of the given full height.
//
// Parameters:
//   - orthoSize: full height of the view volume
//
// Returns:
//   - CameraBuilderOption: functional option to enable orthographic projection
func WithOrthographic(orthoSize float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orthographic = true
		c.orthoSize = orthoSize
	}
}

// WithViewMask sets which drawables the camera sees. A drawable is visible when its own mask
// shares at least one bit with the camera's.
func WithViewMask(mask uint32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewMask = mask
	}
}
