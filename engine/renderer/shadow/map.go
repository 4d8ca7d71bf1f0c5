package shadow

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/batch"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
)

const (
	// DirectionalMap is the index of the map reserved for the directional light's cascades.
	DirectionalMap = 0
	// AtlasMap is the index of the map shared by point and spot lights.
	AtlasMap = 1
	// NumMaps is the number of shadow maps a renderer owns.
	NumMaps = 2
)

// CasterList is the result of one shadow caster query, shared by the views of a light that use
// the same query volume.
type CasterList struct {
	Drawables []*scene.Drawable
}

// Map is one shadow map texture together with the per-frame state of the views rendered into it.
//
// Views, caster lists and queues are appended by one goroutine at a time. Lists and queues are
// held by pointer, so a task keeps writing to the one it was handed while more are appended.
type Map struct {
	index       int
	allocator   AreaAllocator
	texture     *graphics.Texture
	frameBuffer *graphics.FrameBuffer

	// Views are the shadow views allocated into this map this frame, in allocation order.
	Views []*light.ShadowView
	// Queues holds one shadow batch queue per entry of Views.
	Queues []*batch.Queue
	// Casters holds the caster lists reserved this frame.
	Casters []*CasterList
	// InstanceBases holds the offset of each queue's transforms in the combined instance data.
	InstanceBases []int

	// Pending counts the shadow view tasks of this map that have not finished.
	Pending task.Counter

	freeQueueIdx      int
	freeCasterListIdx int
}

var _ light.ShadowMapTarget = &Map{}

// NewMap creates an undefined shadow map.
//
// Parameters:
//   - backend: the backend owning the texture
//   - index: DirectionalMap or AtlasMap
//
// Returns:
//   - *Map: the map, to be defined with Define
func NewMap(backend graphics.Backend, index int) *Map {
	m := &Map{index: index}
	m.texture = graphics.NewTexture(backend, fmt.Sprintf("shadow-map-%d", index))
	m.frameBuffer = graphics.NewFrameBuffer(backend)
	return m
}

// Define (re)creates the depth texture and framebuffer. Views from a previous definition are dropped.
//
// Parameters:
//   - width: texture width in texels
//   - height: texture height in texels
//   - format: a depth format
//
// Returns:
//   - error: a texture or framebuffer definition error; the map is then left undefined
func (m *Map) Define(width, height int, format graphics.Format) error {
	m.Clear()
	if err := m.texture.Define(graphics.Texture2D, graphics.UsageRenderTarget, width, height, format, 1); err != nil {
		m.allocator.Reset(0, 0)
		return fmt.Errorf("shadow map %d: %w", m.index, err)
	}
	if err := m.frameBuffer.Define(m.texture); err != nil {
		m.texture.Release()
		m.allocator.Reset(0, 0)
		return fmt.Errorf("shadow map %d: %w", m.index, err)
	}
	m.allocator.Reset(width, height)
	log.Printf("[ShadowMap] map %d defined: %dx%d", m.index, width, height)
	return nil
}

// Clear releases every rectangle and forgets this frame's views, caster lists and queues.
// Queue and list storage is kept for reuse.
func (m *Map) Clear() {
	m.allocator.Reset(m.texture.Width(), m.texture.Height())
	clear(m.Views)
	m.Views = m.Views[:0]
	m.InstanceBases = m.InstanceBases[:0]
	m.freeQueueIdx = 0
	m.freeCasterListIdx = 0
	m.Pending.Reset()
}

// Allocate reserves the light's total shadow size and hands the rectangle to the light.
//
// Parameters:
//   - l: the light to allocate for
//
// Returns:
//   - bool: false when the map is undefined or full, in which case the light keeps no shadow map
func (m *Map) Allocate(l light.Light) bool {
	if !m.texture.IsDefined() {
		l.SetShadowMap(nil, common.IntRect{})
		return false
	}
	w, h := l.TotalShadowMapSize()
	rect, ok := m.allocator.Allocate(w, h)
	if !ok {
		l.SetShadowMap(nil, rect)
		return false
	}
	l.SetShadowMap(m, rect)
	return true
}

// AddView appends a view and returns the index of the batch queue reserved for it. The queue is
// emptied before it is handed out.
func (m *Map) AddView(view *light.ShadowView) int {
	m.Views = append(m.Views, view)
	if m.freeQueueIdx == len(m.Queues) {
		m.Queues = append(m.Queues, &batch.Queue{})
	}
	idx := m.freeQueueIdx
	m.Queues[idx].Clear()
	m.freeQueueIdx++
	return idx
}

// NewCasterList reserves an empty caster list.
func (m *Map) NewCasterList() *CasterList {
	if m.freeCasterListIdx == len(m.Casters) {
		m.Casters = append(m.Casters, &CasterList{})
	}
	list := m.Casters[m.freeCasterListIdx]
	clear(list.Drawables)
	list.Drawables = list.Drawables[:0]
	m.freeCasterListIdx++
	return list
}

// NumCasterLists returns the number of caster lists in use this frame.
func (m *Map) NumCasterLists() int {
	return m.freeCasterListIdx
}

// UpdateInstanceBases lays the queues in use end to end, starting at base, and returns the
// offset following the last one.
func (m *Map) UpdateInstanceBases(base int) int {
	m.InstanceBases = m.InstanceBases[:0]
	for _, q := range m.Queues[:m.freeQueueIdx] {
		m.InstanceBases = append(m.InstanceBases, base)
		base += q.NumInstances()
	}
	return base
}

// NumQueues returns the number of batch queues in use this frame.
func (m *Map) NumQueues() int {
	return m.freeQueueIdx
}

func (m *Map) Index() int {
	return m.index
}

func (m *Map) Width() int {
	return m.texture.Width()
}

func (m *Map) Height() int {
	return m.texture.Height()
}

func (m *Map) Texture() *graphics.Texture {
	return m.texture
}

func (m *Map) FrameBuffer() *graphics.FrameBuffer {
	return m.frameBuffer
}

func (m *Map) Allocator() *AreaAllocator {
	return &m.allocator
}

// IsDefined reports whether the map has a texture to render into.
func (m *Map) IsDefined() bool {
	return m.texture.IsDefined() && m.frameBuffer.IsDefined()
}

// Release frees the texture and forgets all views.
func (m *Map) Release() {
	m.texture.Release()
	m.Clear()
}
