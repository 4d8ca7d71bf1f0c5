package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: n·p + d = 0
// where n is the unit normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// NewPlane creates a plane through point facing along normal.
//
// Parameters:
//   - normal: the plane normal, normalized by this function
//   - point: any point lying on the plane
//
// Returns:
//   - Plane: the resulting plane
func NewPlane(normal, point mgl32.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Distance: -n.Dot(point)}
}

// NewPlaneFromPoints creates a plane through three points, with the normal
// following the right-hand rule over (v1-v0) x (v2-v0).
func NewPlaneFromPoints(v0, v1, v2 mgl32.Vec3) Plane {
	return NewPlane(v1.Sub(v0).Cross(v2.Sub(v0)), v0)
}

// SignedDistance returns the distance of point from the plane, positive on the normal side.
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Transformed returns the plane transformed by an affine matrix.
func (p Plane) Transformed(m mgl32.Mat4) Plane {
	point := mgl32.TransformCoordinate(p.Normal.Mul(-p.Distance), m)
	normal := m.Inv().Transpose().Mul4x1(p.Normal.Vec4(0)).Vec3()
	return NewPlane(normal, point)
}

// Intersection is the result of a containment test.
type Intersection uint8

const (
	Outside Intersection = iota
	Intersects
	Inside
)

// Frustum represents the six planes and eight corners of a convex view volume.
// Planes are oriented so that positive half-space is inside the frustum.
//
// Vertex order is near-right-top, near-right-bottom, near-left-bottom, near-left-top,
// then the same four corners on the far plane.
type Frustum struct {
	Planes   [6]Plane // Left, Right, Bottom, Top, Near, Far
	Vertices [8]mgl32.Vec3
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// AllPlanesMask has one bit set per frustum plane. A cleared bit means the tested
// volume is already known to lie fully inside that plane.
const AllPlanesMask uint8 = 0x3f

// NewFrustumFromVertices builds a frustum from its eight corners, in the vertex order
// documented on Frustum.
func NewFrustumFromVertices(vertices [8]mgl32.Vec3) Frustum {
	f := Frustum{Vertices: vertices}
	f.updatePlanes()
	return f
}

// NewPerspectiveFrustum builds a perspective frustum looking down -Z in local space,
// then transformed into world space.
//
// Parameters:
//   - fov: vertical field of view in degrees
//   - aspect: width divided by height
//   - zoom: zoom factor, larger values narrow the view
//   - near: near clip distance
//   - far: far clip distance
//   - transform: the local-to-world transform of the viewer
//
// Returns:
//   - Frustum: the world-space frustum
func NewPerspectiveFrustum(fov, aspect, zoom, near, far float32, transform mgl32.Mat4) Frustum {
	near = math32.Max(near, 0)
	far = math32.Max(far, near)
	halfViewSize := math32.Tan(mgl32.DegToRad(fov)*0.5) / zoom

	nearY := near * halfViewSize
	nearX := nearY * aspect
	farY := far * halfViewSize
	farX := farY * aspect

	return newFrustumFromExtents(nearX, nearY, -near, farX, farY, -far, transform)
}

// NewOrthoFrustum builds an orthographic frustum looking down -Z in local space.
//
// Parameters:
//   - orthoSize: full height of the view volume
//   - aspect: width divided by height
//   - zoom: zoom factor
//   - near: near clip distance
//   - far: far clip distance
//   - transform: the local-to-world transform of the viewer
//
// Returns:
//   - Frustum: the world-space frustum
func NewOrthoFrustum(orthoSize, aspect, zoom, near, far float32, transform mgl32.Mat4) Frustum {
	near = math32.Max(near, 0)
	far = math32.Max(far, near)
	halfY := orthoSize * 0.5 / zoom
	halfX := halfY * aspect

	return newFrustumFromExtents(halfX, halfY, -near, halfX, halfY, -far, transform)
}

func newFrustumFromExtents(nearX, nearY, nearZ, farX, farY, farZ float32, transform mgl32.Mat4) Frustum {
	var v [8]mgl32.Vec3
	v[0] = mgl32.TransformCoordinate(mgl32.Vec3{nearX, nearY, nearZ}, transform)
	v[1] = mgl32.TransformCoordinate(mgl32.Vec3{nearX, -nearY, nearZ}, transform)
	v[2] = mgl32.TransformCoordinate(mgl32.Vec3{-nearX, -nearY, nearZ}, transform)
	v[3] = mgl32.TransformCoordinate(mgl32.Vec3{-nearX, nearY, nearZ}, transform)
	v[4] = mgl32.TransformCoordinate(mgl32.Vec3{farX, farY, farZ}, transform)
	v[5] = mgl32.TransformCoordinate(mgl32.Vec3{farX, -farY, farZ}, transform)
	v[6] = mgl32.TransformCoordinate(mgl32.Vec3{-farX, -farY, farZ}, transform)
	v[7] = mgl32.TransformCoordinate(mgl32.Vec3{-farX, farY, farZ}, transform)
	return NewFrustumFromVertices(v)
}

// NewFrustumFromNDC builds a frustum covering an axis-aligned sub-box of normalized device
// coordinates, unprojected through the inverse projection matrix. Depth is in the [0, 1] range.
//
// Parameters:
//   - min: minimum NDC corner
//   - max: maximum NDC corner
//   - inverseProjection: the inverse of the projection matrix
//
// Returns:
//   - Frustum: the frustum in the space the projection maps from
func NewFrustumFromNDC(min, max mgl32.Vec3, inverseProjection mgl32.Mat4) Frustum {
	var v [8]mgl32.Vec3
	v[0] = mgl32.TransformCoordinate(mgl32.Vec3{max.X(), max.Y(), min.Z()}, inverseProjection)
	v[1] = mgl32.TransformCoordinate(mgl32.Vec3{max.X(), min.Y(), min.Z()}, inverseProjection)
	v[2] = mgl32.TransformCoordinate(mgl32.Vec3{min.X(), min.Y(), min.Z()}, inverseProjection)
	v[3] = mgl32.TransformCoordinate(mgl32.Vec3{min.X(), max.Y(), min.Z()}, inverseProjection)
	v[4] = mgl32.TransformCoordinate(mgl32.Vec3{max.X(), max.Y(), max.Z()}, inverseProjection)
	v[5] = mgl32.TransformCoordinate(mgl32.Vec3{max.X(), min.Y(), max.Z()}, inverseProjection)
	v[6] = mgl32.TransformCoordinate(mgl32.Vec3{min.X(), min.Y(), max.Z()}, inverseProjection)
	v[7] = mgl32.TransformCoordinate(mgl32.Vec3{min.X(), max.Y(), max.Z()}, inverseProjection)
	return NewFrustumFromVertices(v)
}

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix with [0, 1] clip depth.
// Uses the Gribb/Hartmann method for plane extraction. Corners are recovered through the inverse.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	// For column-major matrix M, element M[row][col] is at index col*4 + row
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	f.Planes[FrustumLeft] = planeFromVec4(r3.Add(r0))
	f.Planes[FrustumRight] = planeFromVec4(r3.Sub(r0))
	f.Planes[FrustumBottom] = planeFromVec4(r3.Add(r1))
	f.Planes[FrustumTop] = planeFromVec4(r3.Sub(r1))
	// WebGPU clip depth is [0, w], so the near plane is row2 alone
	f.Planes[FrustumNear] = planeFromVec4(r2)
	f.Planes[FrustumFar] = planeFromVec4(r3.Sub(r2))

	if inv := viewProj.Inv(); inv != (mgl32.Mat4{}) {
		f.Vertices = NewFrustumFromNDC(mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, 1, 1}, inv).Vertices
	}

	return f
}

// planeFromVec4 normalizes a raw plane equation so that the normal has unit length.
func planeFromVec4(v mgl32.Vec4) Plane {
	p := Plane{Normal: v.Vec3(), Distance: v.W()}
	length := p.Normal.Len()
	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
	return p
}

// updatePlanes rebuilds the planes from the vertices, facing each one toward the centroid.
func (f *Frustum) updatePlanes() {
	var center mgl32.Vec3
	for _, v := range f.Vertices {
		center = center.Add(v)
	}
	center = center.Mul(1.0 / 8.0)

	v := f.Vertices
	f.Planes[FrustumLeft] = facing(NewPlaneFromPoints(v[3], v[7], v[6]), center)
	f.Planes[FrustumRight] = facing(NewPlaneFromPoints(v[1], v[5], v[4]), center)
	f.Planes[FrustumBottom] = facing(NewPlaneFromPoints(v[6], v[5], v[1]), center)
	f.Planes[FrustumTop] = facing(NewPlaneFromPoints(v[0], v[4], v[7]), center)
	f.Planes[FrustumFar] = facing(NewPlaneFromPoints(v[5], v[6], v[7]), center)

	// A perspective frustum starting at distance zero has a point-sized near face.
	nearNormal := v[1].Sub(v[2]).Cross(v[0].Sub(v[2]))
	if nearNormal.Len() < Epsilon {
		f.Planes[FrustumNear] = facing(NewPlane(f.Planes[FrustumFar].Normal, v[0]), center)
	} else {
		f.Planes[FrustumNear] = facing(NewPlane(nearNormal, v[2]), center)
	}
}

func facing(p Plane, inside mgl32.Vec3) Plane {
	if p.SignedDistance(inside) < 0 {
		p.Normal = p.Normal.Mul(-1)
		p.Distance = -p.Distance
	}
	return p
}

// Transformed returns the frustum with its corners transformed by m.
func (f Frustum) Transformed(m mgl32.Mat4) Frustum {
	var v [8]mgl32.Vec3
	for i := range f.Vertices {
		v[i] = mgl32.TransformCoordinate(f.Vertices[i], m)
	}
	return NewFrustumFromVertices(v)
}

// IsInside tests a bounding box against all six planes.
//
// Parameters:
//   - box: the box to test
//
// Returns:
//   - Intersection: Outside, Intersects, or Inside
func (f *Frustum) IsInside(box BoundingBox) Intersection {
	center := box.Center()
	edge := box.HalfSize()
	allInside := true

	for i := range f.Planes {
		p := &f.Planes[i]
		dist := p.SignedDistance(center)
		absDist := math32.Abs(p.Normal[0])*edge[0] + math32.Abs(p.Normal[1])*edge[1] + math32.Abs(p.Normal[2])*edge[2]
		if dist < -absDist {
			return Outside
		}
		if dist < absDist {
			allInside = false
		}
	}

	if allInside {
		return Inside
	}
	return Intersects
}

// IsInsideFast reports whether a bounding box is at least partially inside.
func (f *Frustum) IsInsideFast(box BoundingBox) bool {
	return f.IsInside(box) != Outside
}

// IsInsideMasked tests a bounding box against the planes whose bit is set in planeMask.
// A plane the box lies fully inside of has its bit cleared in the returned mask, so that
// children of a hierarchy need not test it again.
//
// Parameters:
//   - box: the box to test
//   - planeMask: planes still needing a test
//
// Returns:
//   - uint8: the reduced plane mask
//   - bool: false if the box is fully outside one of the tested planes
func (f *Frustum) IsInsideMasked(box BoundingBox, planeMask uint8) (uint8, bool) {
	center := box.Center()
	edge := box.HalfSize()

	for i := range f.Planes {
		bit := uint8(1) << i
		if planeMask&bit == 0 {
			continue
		}
		p := &f.Planes[i]
		dist := p.SignedDistance(center)
		absDist := math32.Abs(p.Normal[0])*edge[0] + math32.Abs(p.Normal[1])*edge[1] + math32.Abs(p.Normal[2])*edge[2]
		if dist < -absDist {
			return planeMask, false
		}
		if dist >= absDist {
			planeMask &^= bit
		}
	}

	return planeMask, true
}

// IsInsideSphere tests a sphere against all six planes.
func (f *Frustum) IsInsideSphere(s Sphere) Intersection {
	allInside := true
	for i := range f.Planes {
		dist := f.Planes[i].SignedDistance(s.Center)
		if dist < -s.Radius {
			return Outside
		}
		if dist < s.Radius {
			allInside = false
		}
	}
	if allInside {
		return Inside
	}
	return Intersects
}

// IsPointInside reports whether a point is on the inner side of every plane.
func (f *Frustum) IsPointInside(point mgl32.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(point) < 0 {
			return false
		}
	}
	return true
}

// BoundingBox returns the axis-aligned box of the frustum corners.
func (f *Frustum) BoundingBox() BoundingBox {
	return BoundingBoxFromPoints(f.Vertices[:]...)
}
