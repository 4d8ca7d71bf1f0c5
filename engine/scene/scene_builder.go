package scene

import (
	"github.com/lucasb-eyer/go-colorful"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithOctree sets the octree the scene places its drawables in.
//
// Parameters:
//   - octree: the octree; a default one is created when not given
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithOctree(octree *Octree) SceneBuilderOption {
	return func(s *scene) {
		s.octree = octree
	}
}

// WithDrawables adds initial drawables to the scene. They are inserted into the octree once all
// options have been applied.
//
// Parameters:
//   - drawables: the drawables to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDrawables(drawables ...*Drawable) SceneBuilderOption {
	return func(s *scene) {
		for _, d := range drawables {
			if _, ok := s.registry[d.ID()]; ok {
				continue
			}
			s.registry[d.ID()] = d
			s.order = append(s.order, d)
		}
	}
}

// WithAmbientColor sets the ambient light color.
func WithAmbientColor(color colorful.Color) SceneBuilderOption {
	return func(s *scene) {
		s.ambientColor = color
	}
}

// WithFog sets the fog color and its range as fractions of the camera far distance.
//
// Parameters:
//   - color: the fog color
//   - start: where fog begins
//   - end: where fog is opaque
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFog(color colorful.Color, start, end float32) SceneBuilderOption {
	return func(s *scene) {
		s.fogColor = color
		s.fogStart = start
		s.fogEnd = max(end, start)
	}
}
