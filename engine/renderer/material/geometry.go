package material

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
)

var nextGeometryID atomic.Uint32

// Geometry is an indexed draw range inside a vertex and index buffer pair.
type Geometry struct {
	id           uint32
	VertexBuffer *graphics.Buffer
	IndexBuffer  *graphics.Buffer
	// DrawStart and DrawCount select the index range to draw.
	DrawStart uint32
	DrawCount uint32
	// LocalBounds is the untransformed bounding box of the vertices.
	LocalBounds common.BoundingBox
}

// NewGeometry creates a geometry with a process-unique ID.
//
// Parameters:
//   - vertices: the vertex buffer, may be nil for culling-only use
//   - indices: the index buffer, may be nil for culling-only use
//   - drawStart: the first index to draw
//   - drawCount: the number of indices to draw
//   - localBounds: the model space bounding box
//
// Returns:
//   - *Geometry: the new geometry
func NewGeometry(vertices, indices *graphics.Buffer, drawStart, drawCount uint32, localBounds common.BoundingBox) *Geometry {
	return &Geometry{
		id:           nextGeometryID.Add(1),
		VertexBuffer: vertices,
		IndexBuffer:  indices,
		DrawStart:    drawStart,
		DrawCount:    drawCount,
		LocalBounds:  localBounds,
	}
}

// ID returns the identifier used in batch sort keys.
func (g *Geometry) ID() uint32 {
	return g.id
}

// DrawCommand returns the backend draw call for this geometry with the given instance range.
func (g *Geometry) DrawCommand(instanceBuffer graphics.Handle, instanceStart, instanceCount uint32) graphics.DrawCommand {
	cmd := graphics.DrawCommand{
		InstanceBuffer: instanceBuffer,
		IndexStart:     g.DrawStart,
		IndexCount:     g.DrawCount,
		InstanceStart:  instanceStart,
		InstanceCount:  instanceCount,
	}
	if g.VertexBuffer != nil {
		cmd.VertexBuffer = g.VertexBuffer.Handle()
	}
	if g.IndexBuffer != nil {
		cmd.IndexBuffer = g.IndexBuffer.Handle()
	}
	return cmd
}
