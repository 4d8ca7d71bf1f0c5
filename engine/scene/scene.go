package scene

import (
	"slices"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// Scene owns the drawables of one world, the octree they are placed in, and the environment
// settings (ambient light and fog) used when rendering it.
// Registry methods are safe for concurrent use; Update must not run while a view is being prepared.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Octree returns the spatial index holding the scene's drawables.
	Octree() *Octree

	// Add inserts a drawable into the scene and its octree.
	//
	// Parameters:
	//   - d: the drawable to add
	//
	// Returns:
	//   - uint64: the drawable's ID
	Add(d *Drawable) uint64

	// Get looks up a drawable by ID.
	//
	// Parameters:
	//   - id: the drawable ID
	//
	// Returns:
	//   - *Drawable: the drawable, or nil if it is not in the scene
	Get(id uint64) *Drawable

	// Remove takes a drawable out of the scene and its octree.
	//
	// Parameters:
	//   - id: the drawable ID
	Remove(id uint64)

	// Clear removes every drawable.
	Clear()

	// Count returns the number of drawables in the scene.
	Count() int

	// Lights returns the light drawables in insertion order.
	Lights() []*Drawable

	// Update advances rotation speeds by dt seconds and applies queued octree updates.
	//
	// Parameters:
	//   - dt: the elapsed time in seconds
	//
	// Returns:
	//   - int: the number of queued drawables the octree processed
	Update(dt float32) int

	// AmbientColor returns the ambient light color.
	AmbientColor() colorful.Color

	// SetAmbientColor sets the ambient light color.
	SetAmbientColor(color colorful.Color)

	// FogColor returns the fog color, also used to clear the view.
	FogColor() colorful.Color

	// SetFogColor sets the fog color.
	SetFogColor(color colorful.Color)

	// FogStart returns the fraction of the camera far distance where fog begins.
	FogStart() float32

	// FogEnd returns the fraction of the camera far distance where fog is opaque.
	FogEnd() float32

	// SetFog sets the fog range as fractions of the camera far distance.
	//
	// Parameters:
	//   - start: where fog begins
	//   - end: where fog is opaque, raised to start if lower
	SetFog(start, end float32)
}

type scene struct {
	mu       *sync.RWMutex
	name     string
	octree   *Octree
	registry map[uint64]*Drawable
	order    []*Drawable

	ambientColor colorful.Color
	fogColor     colorful.Color
	fogStart     float32
	fogEnd       float32
}

var _ Scene = &scene{}

// NewScene creates an empty scene.
//
// Parameters:
//   - name: the scene identifier
//   - options: variadic list of SceneBuilderOption functions to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:           &sync.RWMutex{},
		name:         name,
		registry:     make(map[uint64]*Drawable),
		ambientColor: colorful.Color{R: 0.1, G: 0.1, B: 0.1},
		fogColor:     colorful.Color{R: 0.5, G: 0.5, B: 0.5},
		fogStart:     0.8,
		fogEnd:       1.0,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.octree == nil {
		s.octree = NewOctree()
	}
	for _, d := range s.order {
		s.octree.Insert(d)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Octree() *Octree {
	return s.octree
}

func (s *scene) Add(d *Drawable) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registry[d.ID()]; ok {
		return d.ID()
	}
	s.registry[d.ID()] = d
	s.order = append(s.order, d)
	s.octree.Insert(d)
	return d.ID()
}

func (s *scene) Get(id uint64) *Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.registry[id]
	if !ok {
		return
	}
	delete(s.registry, id)
	s.order = slices.DeleteFunc(s.order, func(x *Drawable) bool { return x == d })
	s.octree.Remove(d)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.order {
		s.octree.Remove(d)
	}
	s.order = nil
	clear(s.registry)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Lights() []*Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lights []*Drawable
	for _, d := range s.order {
		if d.Kind() == KindLight {
			lights = append(lights, d)
		}
	}
	return lights
}

func (s *scene) Update(dt float32) int {
	s.mu.RLock()
	for _, d := range s.order {
		d.Tick(dt)
	}
	s.mu.RUnlock()
	return s.octree.Update()
}

func (s *scene) AmbientColor() colorful.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color colorful.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambientColor = color
}

func (s *scene) FogColor() colorful.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fogColor
}

func (s *scene) SetFogColor(color colorful.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fogColor = color
}

func (s *scene) FogStart() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fogStart
}

func (s *scene) FogEnd() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fogEnd
}

func (s *scene) SetFog(start, end float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fogStart = start
	s.fogEnd = max(end, start)
}
