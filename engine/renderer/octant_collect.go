package renderer

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
)

// octantEntry is an octant found in view, with the frustum planes its contents still need testing against.
type octantEntry struct {
	octant    *scene.Octant
	planeMask uint8
}

// threadOctantResult is what one octant collection task gathers from its branch of the octree.
// Only the owning task writes it while the frame is being prepared.
type threadOctantResult struct {
	// drawableAcc counts geometries queued since the last batch task was spawned.
	drawableAcc   int
	taskOctantIdx int
	batchTaskIdx  int
	octants       []octantEntry
	lights        []*scene.Drawable
	// batchResults are reused across frames. A spawned batch task holds its own pointer, so
	// appending here never moves a result out from under it.
	batchResults []*threadBatchResult
}

func (t *threadOctantResult) clear() {
	t.drawableAcc = 0
	t.taskOctantIdx = 0
	t.batchTaskIdx = 0
	clear(t.octants)
	t.octants = t.octants[:0]
	clear(t.lights)
	t.lights = t.lights[:0]
}

// spawnedBatchResults returns the batch results written this frame, in spawn order.
func (t *threadOctantResult) spawnedBatchResults() []*threadBatchResult {
	return t.batchResults[:t.batchTaskIdx]
}

// collectOctantsTask walks one branch. Index 0 takes only the root's own drawables.
func (r *renderer) collectOctantsTask(index int, octant *scene.Octant) task.Task {
	return task.Task{
		Name: "collect-octants",
		Do: func(workerIndex int) {
			result := &r.octantResults[index]
			if index == 0 {
				r.addOctant(octant, result, common.AllPlanesMask)
			} else {
				r.collectOctantsAndLights(octant, result, common.AllPlanesMask)
			}
			r.spawnBatchTask(result)
			r.pendingOctants.Done()
		},
	}
}

// collectOctantsAndLights descends from octant, pruning octants outside the frustum or hidden by
// occluders. Planes an octant is fully inside of are dropped from its children's tests.
func (r *renderer) collectOctantsAndLights(octant *scene.Octant, result *threadOctantResult, planeMask uint8) {
	box := octant.CullingBox()
	if planeMask != 0 {
		var ok bool
		if planeMask, ok = r.frustum.IsInsideMasked(box, planeMask); !ok {
			return
		}
	}
	if r.useOcclusion && r.occlusion.isOccluded(box) {
		return
	}

	r.addOctant(octant, result, planeMask)
	for _, child := range octant.Children() {
		if child != nil {
			r.collectOctantsAndLights(child, result, planeMask)
		}
	}
}

// addOctant accepts the lights of an octant and queues its geometries for batch collection,
// spawning a batch task whenever enough geometries have accumulated.
func (r *renderer) addOctant(octant *scene.Octant, result *threadOctantResult, planeMask uint8) {
	geometries := 0
	for _, d := range octant.Drawables() {
		if !d.Enabled() || d.ViewMask()&r.viewMask == 0 {
			continue
		}
		switch d.Kind() {
		case scene.KindGeometry:
			geometries++
		case scene.KindLight:
			if planeMask != 0 {
				if _, ok := r.frustum.IsInsideMasked(d.WorldBoundingBox(), planeMask); !ok {
					continue
				}
			}
			if d.OnPrepareRender(r.frameNumber, r.camera) {
				result.lights = append(result.lights, d)
			}
		}
	}
	if geometries == 0 {
		return
	}

	result.octants = append(result.octants, octantEntry{octant: octant, planeMask: planeMask})
	result.drawableAcc += geometries
	if result.drawableAcc >= r.cfg.DrawablesPerBatchTask {
		r.spawnBatchTask(result)
	}
}

// spawnBatchTask hands the octants queued since the previous spawn to a new batch task.
func (r *renderer) spawnBatchTask(result *threadOctantResult) {
	end := len(result.octants)
	if result.taskOctantIdx >= end {
		return
	}
	if result.batchTaskIdx == len(result.batchResults) {
		result.batchResults = append(result.batchResults, &threadBatchResult{})
	}
	br := result.batchResults[result.batchTaskIdx]
	br.clear()
	result.batchTaskIdx++

	// The capacity limit keeps later appends from writing into the task's view.
	octants := result.octants[result.taskOctantIdx:end:end]
	result.taskOctantIdx = end
	result.drawableAcc = 0

	r.pendingBatches.Add(1)
	r.scheduler.Submit(r.collectBatchesTask(octants, br))
}
