package common

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const polyhedronEpsilon = 1e-5

// Polyhedron is a convex polyhedron stored as a list of planar polygonal faces.
type Polyhedron struct {
	Faces [][]mgl32.Vec3
}

// NewPolyhedronFromFrustum returns the six faces of a frustum.
func NewPolyhedronFromFrustum(f *Frustum) Polyhedron {
	v := f.Vertices
	return Polyhedron{Faces: [][]mgl32.Vec3{
		{v[0], v[4], v[5], v[1]},
		{v[7], v[3], v[2], v[6]},
		{v[7], v[4], v[0], v[3]},
		{v[1], v[5], v[6], v[2]},
		{v[4], v[7], v[6], v[5]},
		{v[3], v[0], v[1], v[2]},
	}}
}

// NewPolyhedronFromBox returns the six faces of a box.
func NewPolyhedronFromBox(b BoundingBox) Polyhedron {
	c := b.Corners()
	return Polyhedron{Faces: [][]mgl32.Vec3{
		{c[0], c[2], c[6], c[4]},
		{c[1], c[5], c[7], c[3]},
		{c[0], c[4], c[5], c[1]},
		{c[2], c[3], c[7], c[6]},
		{c[0], c[1], c[3], c[2]},
		{c[4], c[6], c[7], c[5]},
	}}
}

// IsEmpty reports whether clipping removed every face.
func (p *Polyhedron) IsEmpty() bool {
	return len(p.Faces) == 0
}

// Clip removes the part of the polyhedron behind plane and closes the cut with a new face.
func (p *Polyhedron) Clip(plane Plane) {
	var cut []mgl32.Vec3
	faces := p.Faces[:0]

	for _, face := range p.Faces {
		var out []mgl32.Vec3
		n := len(face)
		for i := 0; i < n; i++ {
			a := face[i]
			b := face[(i+1)%n]
			da := plane.SignedDistance(a)
			db := plane.SignedDistance(b)
			if da >= 0 {
				out = append(out, a)
			}
			if (da >= 0) != (db >= 0) {
				t := da / (da - db)
				hit := a.Add(b.Sub(a).Mul(t))
				out = append(out, hit)
				cut = append(cut, hit)
			}
		}
		if len(out) >= 3 {
			faces = append(faces, out)
		}
	}
	p.Faces = faces

	if capFace := convexFace(cut, plane.Normal); len(capFace) >= 3 && len(p.Faces) > 0 {
		p.Faces = append(p.Faces, capFace)
	}
}

// ClipBox clips the polyhedron by the six planes of a box.
func (p *Polyhedron) ClipBox(b BoundingBox) {
	if !b.IsDefined() {
		p.Faces = nil
		return
	}
	for _, plane := range b.Planes() {
		p.Clip(plane)
		if p.IsEmpty() {
			return
		}
	}
}

// Transform applies an affine transform to every vertex.
func (p *Polyhedron) Transform(m mgl32.Mat4) {
	for _, face := range p.Faces {
		for i := range face {
			face[i] = mgl32.TransformCoordinate(face[i], m)
		}
	}
}

// BoundingBox returns the box of all face vertices.
func (p *Polyhedron) BoundingBox() BoundingBox {
	b := UndefinedBoundingBox()
	for _, face := range p.Faces {
		for _, v := range face {
			b.MergePoint(v)
		}
	}
	return b
}

// convexFace dedupes coplanar points and orders them by angle around their centroid.
func convexFace(points []mgl32.Vec3, normal mgl32.Vec3) []mgl32.Vec3 {
	unique := make([]mgl32.Vec3, 0, len(points))
	for _, pt := range points {
		dup := false
		for _, u := range unique {
			if pt.ApproxEqualThreshold(u, polyhedronEpsilon) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, pt)
		}
	}
	if len(unique) < 3 {
		return nil
	}

	var center mgl32.Vec3
	for _, u := range unique {
		center = center.Add(u)
	}
	center = center.Mul(1 / float32(len(unique)))

	axisU := unique[0].Sub(center)
	if axisU.Len() < polyhedronEpsilon {
		axisU = unique[1].Sub(center)
	}
	axisU = axisU.Normalize()
	axisV := normal.Cross(axisU)

	sort.Slice(unique, func(i, j int) bool {
		di := unique[i].Sub(center)
		dj := unique[j].Sub(center)
		return math32.Atan2(di.Dot(axisV), di.Dot(axisU)) < math32.Atan2(dj.Dot(axisV), dj.Dot(axisU))
	})
	return unique
}
