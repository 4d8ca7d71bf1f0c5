package renderer

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/batch"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
	"github.com/chewxy/math32"
)

// threadBatchResult is what one batch collection task produces. Results are merged after all
// batch tasks finish, in octant branch order and then spawn order.
type threadBatchResult struct {
	minZ           float32
	maxZ           float32
	geometryBounds common.BoundingBox
	opaque         []batch.Batch
	alpha          []batch.Batch
	visible        []*scene.Drawable
	occluded       int
}

func (t *threadBatchResult) clear() {
	t.minZ = math32.MaxFloat32
	t.maxZ = 0
	t.geometryBounds = common.UndefinedBoundingBox()
	clear(t.opaque)
	t.opaque = t.opaque[:0]
	clear(t.alpha)
	t.alpha = t.alpha[:0]
	clear(t.visible)
	t.visible = t.visible[:0]
	t.occluded = 0
}

func (r *renderer) collectBatchesTask(octants []octantEntry, result *threadBatchResult) task.Task {
	return task.Task{
		Name: "collect-batches",
		Do: func(workerIndex int) {
			r.workerTested[workerIndex] += r.collectBatches(octants, result)
			r.pendingBatches.Done()
		},
	}
}

// collectBatches tests the geometries of the given octants and appends a batch per accepted
// geometry and material. It returns the number of geometries tested.
func (r *renderer) collectBatches(octants []octantEntry, result *threadBatchResult) int {
	tested := 0
	for _, entry := range octants {
		for _, d := range entry.octant.Drawables() {
			if d.Kind() != scene.KindGeometry || !d.Enabled() || d.ViewMask()&r.viewMask == 0 {
				continue
			}
			tested++

			box := d.WorldBoundingBox()
			if entry.planeMask != 0 {
				if _, ok := r.frustum.IsInsideMasked(box, entry.planeMask); !ok {
					continue
				}
			}
			if r.useOcclusion && r.occlusion.isOccluded(box) {
				result.occluded++
				continue
			}
			if !d.OnPrepareRender(r.frameNumber, r.camera) {
				continue
			}

			result.visible = append(result.visible, d)
			result.geometryBounds.Merge(box)
			viewBox := box.Transformed(r.viewMatrix)
			result.minZ = math32.Min(result.minZ, -viewBox.Max[2])
			result.maxZ = math32.Max(result.maxZ, -viewBox.Min[2])

			transform := d.WorldTransform()
			distance := d.Distance()
			for _, sb := range d.Batches() {
				if sb.Material == nil || sb.Geometry == nil {
					continue
				}
				b := batch.Batch{Material: sb.Material, Geometry: sb.Geometry, WorldTransform: transform, Distance: distance}
				if b.Pass = sb.Material.Pass(material.PassAlpha); b.Pass != nil {
					result.alpha = append(result.alpha, b)
				} else if b.Pass = sb.Material.Pass(material.PassOpaque); b.Pass != nil {
					result.opaque = append(result.opaque, b)
				}
			}
		}
	}
	return tested
}
