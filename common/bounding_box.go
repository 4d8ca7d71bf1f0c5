package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BoundingBox is an axis-aligned box. A box whose Min exceeds its Max on any axis is undefined
// and merges as an empty set.
type BoundingBox struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// UndefinedBoundingBox returns an empty box ready to be grown with Merge calls.
func UndefinedBoundingBox() BoundingBox {
	inf := math32.Inf(1)
	return BoundingBox{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// NewBoundingBox creates a box from its two extreme corners.
func NewBoundingBox(min, max mgl32.Vec3) BoundingBox {
	return BoundingBox{Min: min, Max: max}
}

// NewBoundingBoxFromCenter creates a box from its center and half extents.
func NewBoundingBoxFromCenter(center, halfSize mgl32.Vec3) BoundingBox {
	return BoundingBox{Min: center.Sub(halfSize), Max: center.Add(halfSize)}
}

// BoundingBoxFromPoints returns the smallest box enclosing all points.
func BoundingBoxFromPoints(points ...mgl32.Vec3) BoundingBox {
	b := UndefinedBoundingBox()
	for _, p := range points {
		b.MergePoint(p)
	}
	return b
}

// IsDefined reports whether the box encloses at least one point.
func (b BoundingBox) IsDefined() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// MergePoint grows the box to include point.
func (b *BoundingBox) MergePoint(point mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], point[i])
		b.Max[i] = math32.Max(b.Max[i], point[i])
	}
}

// Merge grows the box to include other. Undefined boxes are ignored.
func (b *BoundingBox) Merge(other BoundingBox) {
	if !other.IsDefined() {
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], other.Min[i])
		b.Max[i] = math32.Max(b.Max[i], other.Max[i])
	}
}

// Clip shrinks the box to its intersection with other. If they do not overlap the result is undefined.
func (b *BoundingBox) Clip(other BoundingBox) {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Max(b.Min[i], other.Min[i])
		b.Max[i] = math32.Min(b.Max[i], other.Max[i])
	}
	if !b.IsDefined() {
		*b = UndefinedBoundingBox()
	}
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the full extents of the box.
func (b BoundingBox) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// HalfSize returns half of the extents of the box.
func (b BoundingBox) HalfSize() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Corners returns the eight corners of the box.
func (b BoundingBox) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Transformed returns the axis-aligned box enclosing this box after an affine transform.
//
// Parameters:
//   - m: the affine transform to apply
//
// Returns:
//   - BoundingBox: the enclosing world-space box, or an undefined box if b is undefined
func (b BoundingBox) Transformed(m mgl32.Mat4) BoundingBox {
	if !b.IsDefined() {
		return b
	}

	center := mgl32.TransformCoordinate(b.Center(), m)
	edge := b.HalfSize()
	var newEdge mgl32.Vec3
	for row := 0; row < 3; row++ {
		newEdge[row] = math32.Abs(m.At(row, 0))*edge[0] + math32.Abs(m.At(row, 1))*edge[1] + math32.Abs(m.At(row, 2))*edge[2]
	}
	return NewBoundingBoxFromCenter(center, newEdge)
}

// IsInside tests other against this box.
func (b BoundingBox) IsInside(other BoundingBox) Intersection {
	if other.Max[0] < b.Min[0] || other.Min[0] > b.Max[0] ||
		other.Max[1] < b.Min[1] || other.Min[1] > b.Max[1] ||
		other.Max[2] < b.Min[2] || other.Min[2] > b.Max[2] {
		return Outside
	}
	if other.Min[0] < b.Min[0] || other.Max[0] > b.Max[0] ||
		other.Min[1] < b.Min[1] || other.Max[1] > b.Max[1] ||
		other.Min[2] < b.Min[2] || other.Max[2] > b.Max[2] {
		return Intersects
	}
	return Inside
}

// IsPointInside reports whether point lies within the box, borders included.
func (b BoundingBox) IsPointInside(point mgl32.Vec3) bool {
	return point[0] >= b.Min[0] && point[0] <= b.Max[0] &&
		point[1] >= b.Min[1] && point[1] <= b.Max[1] &&
		point[2] >= b.Min[2] && point[2] <= b.Max[2]
}

// Planes returns the six inward-facing planes of the box, in -X, +X, -Y, +Y, -Z, +Z order.
func (b BoundingBox) Planes() [6]Plane {
	return [6]Plane{
		{Normal: mgl32.Vec3{1, 0, 0}, Distance: -b.Min[0]},
		{Normal: mgl32.Vec3{-1, 0, 0}, Distance: b.Max[0]},
		{Normal: mgl32.Vec3{0, 1, 0}, Distance: -b.Min[1]},
		{Normal: mgl32.Vec3{0, -1, 0}, Distance: b.Max[1]},
		{Normal: mgl32.Vec3{0, 0, 1}, Distance: -b.Min[2]},
		{Normal: mgl32.Vec3{0, 0, -1}, Distance: b.Max[2]},
	}
}
