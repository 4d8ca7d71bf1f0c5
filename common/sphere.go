package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sphere is a bounding sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// BoundingBox returns the axis-aligned box enclosing the sphere.
func (s Sphere) BoundingBox() BoundingBox {
	r := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
	return NewBoundingBoxFromCenter(s.Center, r)
}

// IsInsideBox tests a box against the sphere using the closest and farthest box points.
func (s Sphere) IsInsideBox(box BoundingBox) Intersection {
	radiusSq := s.Radius * s.Radius
	var distSq float32
	for i := 0; i < 3; i++ {
		if s.Center[i] < box.Min[i] {
			d := s.Center[i] - box.Min[i]
			distSq += d * d
		} else if s.Center[i] > box.Max[i] {
			d := s.Center[i] - box.Max[i]
			distSq += d * d
		}
	}
	if distSq >= radiusSq {
		return Outside
	}

	var farSq float32
	for i := 0; i < 3; i++ {
		d := math32.Max(math32.Abs(s.Center[i]-box.Min[i]), math32.Abs(s.Center[i]-box.Max[i]))
		farSq += d * d
	}
	if farSq < radiusSq {
		return Inside
	}
	return Intersects
}
