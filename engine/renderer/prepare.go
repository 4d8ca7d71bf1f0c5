package renderer

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/batch"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
	"github.com/chewxy/math32"
)

// PrepareView runs the frame's task graph. Checkpoints between phases poll the pending counters:
//
//  1. octant collection, one task per root branch, spawning batch collection tasks as it goes
//  2. light processing, concurrent with batch collection, spawning shadow caster queries and
//     light cluster culling
//  3. batch merge and sort, then directional shadow view fitting around the visible geometry
//  4. one shadow batch collection task per shadow view
func (r *renderer) PrepareView(s scene.Scene, cam camera.Camera, drawShadows, useOcclusion bool) {
	if s == nil || cam == nil {
		return
	}

	r.frameNumber++
	r.scene = s
	r.octree = s.Octree()
	r.camera = cam
	r.frustum = cam.WorldFrustum()
	r.viewMatrix = cam.ViewMatrix()
	r.viewMask = cam.ViewMask()
	r.drawShadows = drawShadows
	r.useOcclusion = useOcclusion
	r.resetFrame()

	// Moved drawables are reinserted before any task reads the octree.
	r.octree.Update()

	if useOcclusion {
		r.occluders = r.octree.FindOccluders(r.occluders, &r.frustum)
	}
	r.occlusion.setup(cam.Position(), r.occluders)
	r.clusters.update(cam)

	root := r.octree.Root()
	var octantTasks [numOctantTasks]task.Task
	n := 0
	if len(root.Drawables()) > 0 {
		octantTasks[n] = r.collectOctantsTask(0, root)
		n++
	}
	for i, child := range root.Children() {
		if child != nil {
			octantTasks[n] = r.collectOctantsTask(i+1, child)
			n++
		}
	}
	r.pendingOctants.Add(n)
	for _, t := range octantTasks[:n] {
		r.scheduler.Submit(t)
	}
	r.pendingOctants.WaitUntilZero(nil)

	r.pendingLights.Add(1)
	r.scheduler.Submit(r.processLightsTask())

	r.pendingBatches.WaitUntilZero(nil)
	batchTasks, occluded := r.mergeBatchResults()
	r.opaque.Sort(batch.SortState, r.cfg.Instancing)
	r.alpha.Sort(batch.SortBackToFront, false)

	r.pendingLights.WaitUntilZero(nil)
	r.setupDirLightViews()

	r.pendingCasters.WaitUntilZero(nil)
	r.spawnShadowBatchTasks()
	for _, m := range r.shadowMaps {
		m.Pending.WaitUntilZero(nil)
	}
	r.pendingClusters.WaitUntilZero(nil)

	r.layoutInstances()
	r.updateStats(n, batchTasks, occluded)
}

// resetFrame discards every per-frame result of the previous view.
func (r *renderer) resetFrame() {
	for i := range r.octantResults {
		r.octantResults[i].clear()
	}
	clear(r.visible)
	r.visible = r.visible[:0]
	clear(r.occluders)
	r.occluders = r.occluders[:0]
	r.dirLight = nil
	r.dirDrawable = nil
	clear(r.lights)
	r.lights = r.lights[:0]
	clear(r.lightDrawables)
	r.lightDrawables = r.lightDrawables[:0]
	r.lightData = r.lightData[:0]
	clear(r.shadowJobs)
	r.shadowJobs = r.shadowJobs[:0]
	r.opaque.Clear()
	r.alpha.Clear()
	for _, m := range r.shadowMaps {
		m.Clear()
	}
	r.geometryBounds = common.UndefinedBoundingBox()
	r.minZ = 0
	r.maxZ = 0
	clear(r.workerTested)
	r.frameUploaded = false
}

// mergeBatchResults concatenates the batch task results in branch order, then spawn order.
func (r *renderer) mergeBatchResults() (batchTasks, occluded int) {
	minZ := float32(math32.MaxFloat32)
	var maxZ float32
	for i := range r.octantResults {
		for _, br := range r.octantResults[i].spawnedBatchResults() {
			batchTasks++
			occluded += br.occluded
			r.opaque.Append(br.opaque)
			r.alpha.Append(br.alpha)
			r.visible = append(r.visible, br.visible...)
			if !br.geometryBounds.IsDefined() {
				continue
			}
			r.geometryBounds.Merge(br.geometryBounds)
			minZ = math32.Min(minZ, br.minZ)
			maxZ = math32.Max(maxZ, br.maxZ)
		}
	}
	if r.geometryBounds.IsDefined() {
		r.minZ = math32.Max(minZ, 0)
		r.maxZ = maxZ
	}
	return batchTasks, occluded
}

// layoutInstances concatenates every queue's instance transforms for a single upload: the opaque
// queue, the alpha queue, then each shadow map's queues. Runs after every shadow batch task has
// finished, so the maps' instance bases are only written here.
func (r *renderer) layoutInstances() {
	r.instanceData = r.instanceData[:0]
	r.opaqueBase = len(r.instanceData)
	r.instanceData = append(r.instanceData, r.opaque.InstanceTransforms...)
	r.alphaBase = len(r.instanceData)
	r.instanceData = append(r.instanceData, r.alpha.InstanceTransforms...)
	for i, m := range r.shadowMaps {
		r.shadowBase[i] = len(r.instanceData)
		m.UpdateInstanceBases(0)
		for _, q := range m.Queues[:m.NumQueues()] {
			r.instanceData = append(r.instanceData, q.InstanceTransforms...)
		}
	}
}

func (r *renderer) updateStats(octantTasks, batchTasks, occluded int) {
	tested := 0
	for _, n := range r.workerTested {
		tested += n
	}
	shadowLights := 0
	if r.dirLight != nil && r.dirLight.ShadowMap() != nil {
		shadowLights++
	}
	for _, l := range r.lights {
		if l.ShadowMap() != nil {
			shadowLights++
		}
	}
	shadowBatches := 0
	for _, m := range r.shadowMaps {
		for _, q := range m.Queues[:m.NumQueues()] {
			shadowBatches += q.Len()
		}
	}

	r.stats = Stats{
		FrameNumber:       r.frameNumber,
		Workers:           r.scheduler.Workers(),
		OctantTasks:       octantTasks,
		BatchTasks:        batchTasks,
		TestedDrawables:   tested,
		OccludedDrawables: occluded,
		VisibleGeometries: len(r.visible),
		Occluders:         len(r.occlusion.occluders),
		Lights:            len(r.lights),
		DirLight:          r.dirLight != nil,
		ShadowLights:      shadowLights,
		ShadowViews:       len(r.shadowJobs),
		ShadowBatches:     shadowBatches,
		OpaqueBatches:     r.opaque.Len(),
		AlphaBatches:      r.alpha.Len(),
		Instances:         len(r.instanceData),
		ClusterLights:     len(r.lights),
		MinZ:              r.minZ,
		MaxZ:              r.maxZ,
	}
}
