package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half-line from Origin along Direction. Direction need not be unit length;
// hit distances are expressed in multiples of it.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay creates a ray with a normalized direction.
func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// NewSegmentRay creates an unnormalized ray from a to b, so that b lies at distance 1.
func NewSegmentRay(a, b mgl32.Vec3) Ray {
	return Ray{Origin: a, Direction: b.Sub(a)}
}

// Point returns the point at distance t along the ray.
func (r Ray) Point(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// HitRange returns the parametric interval where the ray's line lies inside box.
//
// Parameters:
//   - box: the box to intersect
//
// Returns:
//   - float32: entry distance, negative when the origin is inside
//   - float32: exit distance
//   - bool: false if the line misses the box or the box lies behind the origin
func (r Ray) HitRange(box BoundingBox) (float32, float32, bool) {
	if !box.IsDefined() {
		return 0, 0, false
	}
	tNear := math32.Inf(-1)
	tFar := math32.Inf(1)

	for i := 0; i < 3; i++ {
		if r.Direction[i] == 0 {
			if r.Origin[i] < box.Min[i] || r.Origin[i] > box.Max[i] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / r.Direction[i]
		t0 := (box.Min[i] - r.Origin[i]) * inv
		t1 := (box.Max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tNear = math32.Max(tNear, t0)
		tFar = math32.Min(tFar, t1)
		if tNear > tFar {
			return 0, 0, false
		}
	}

	if tFar < 0 {
		return 0, 0, false
	}
	return tNear, tFar, true
}

// HitDistance returns the distance to the first intersection with box, or +Inf on a miss.
// An origin inside the box hits at distance 0.
func (r Ray) HitDistance(box BoundingBox) float32 {
	tNear, _, ok := r.HitRange(box)
	if !ok {
		return math32.Inf(1)
	}
	return math32.Max(tNear, 0)
}

// HitDistanceSphere returns the distance to the first intersection with s, or +Inf on a miss.
func (r Ray) HitDistanceSphere(s Sphere) float32 {
	centeredOrigin := r.Origin.Sub(s.Center)
	squaredRadius := s.Radius * s.Radius
	if centeredOrigin.LenSqr() <= squaredRadius {
		return 0
	}

	a := r.Direction.Dot(r.Direction)
	b := 2 * centeredOrigin.Dot(r.Direction)
	c := centeredOrigin.Dot(centeredOrigin) - squaredRadius
	d := b*b - 4*a*c
	if d < 0 || a == 0 {
		return math32.Inf(1)
	}

	dSqrt := math32.Sqrt(d)
	dist := (-b - dSqrt) / (2 * a)
	if dist >= 0 {
		return dist
	}
	dist = (-b + dSqrt) / (2 * a)
	if dist >= 0 {
		return dist
	}
	return math32.Inf(1)
}

// HitDistanceFrustum returns the distance to the first intersection with a convex frustum,
// or +Inf on a miss. An origin inside the frustum hits at distance 0.
func (r Ray) HitDistanceFrustum(f *Frustum) float32 {
	tNear := float32(0)
	tFar := math32.Inf(1)

	for i := range f.Planes {
		p := &f.Planes[i]
		denom := p.Normal.Dot(r.Direction)
		dist := p.SignedDistance(r.Origin)
		if denom == 0 {
			if dist < 0 {
				return math32.Inf(1)
			}
			continue
		}
		t := -dist / denom
		if denom > 0 {
			tNear = math32.Max(tNear, t)
		} else {
			tFar = math32.Min(tFar, t)
		}
		if tNear > tFar {
			return math32.Inf(1)
		}
	}
	return tNear
}
