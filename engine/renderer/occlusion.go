package renderer

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// occlusionTester hides boxes that lie entirely behind one occluder box as seen from the eye.
// It is read-only once set up, so batch and octant tasks share it.
type occlusionTester struct {
	eye       mgl32.Vec3
	occluders []common.BoundingBox
}

// setup keeps the boxes of the given occluders, skipping any that contain the eye.
func (o *occlusionTester) setup(eye mgl32.Vec3, occluders []*scene.Drawable) {
	o.eye = eye
	o.occluders = o.occluders[:0]
	for _, d := range occluders {
		box := d.WorldBoundingBox()
		if box.IsDefined() && !box.IsPointInside(eye) {
			o.occluders = append(o.occluders, box)
		}
	}
}

// isOccluded reports whether every sight line from the eye to a corner of box crosses the same
// occluder. The set of points hidden by a convex occluder is convex, so the whole box is hidden.
func (o *occlusionTester) isOccluded(box common.BoundingBox) bool {
	if len(o.occluders) == 0 || box.IsPointInside(o.eye) {
		return false
	}
	corners := box.Corners()
	for i := range o.occluders {
		if o.hidesAll(&o.occluders[i], &corners) {
			return true
		}
	}
	return false
}

func (o *occlusionTester) hidesAll(occluder *common.BoundingBox, corners *[8]mgl32.Vec3) bool {
	for _, c := range corners {
		enter, _, ok := common.NewSegmentRay(o.eye, c).HitRange(*occluder)
		if !ok || enter > 1 {
			return false
		}
	}
	return true
}
