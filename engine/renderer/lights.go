package renderer

import (
	"cmp"
	"log"
	"slices"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/batch"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/shadow"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
)

// shadowJob is one shadow view to collect batches for. Point light faces share one caster list.
type shadowJob struct {
	mapIndex int
	view     *light.ShadowView
	queueIdx int
	casters  *shadow.CasterList
}

func (r *renderer) processLightsTask() task.Task {
	return task.Task{
		Name: "process-lights",
		Do: func(int) {
			r.processLights()
			r.pendingLights.Done()
		},
	}
}

// wantsShadows reports whether a light in view should get shadow map space this frame.
func (r *renderer) wantsShadows(l light.Light) bool {
	if !r.drawShadows || !l.CastShadows() || l.ShadowStrength() >= 1 {
		return false
	}
	if l.Type() == light.LightTypeDirectional {
		return true
	}
	return l.ShadowMaxDistance() <= 0 || l.Distance() < l.ShadowMaxDistance()
}

// processLights picks the directional light, orders and caps the other lights, allocates their
// shadow map space and sets up point and spot shadow views. It then spawns the shadow caster
// queries and the light cluster culling tasks.
func (r *renderer) processLights() {
	for i := range r.octantResults {
		for _, d := range r.octantResults[i].lights {
			l := d.Light()
			if l.Type() != light.LightTypeDirectional {
				r.lightDrawables = append(r.lightDrawables, d)
				continue
			}
			if r.dirLight == nil || l.Brightness() > r.dirLight.Brightness() {
				r.dirLight = l
				r.dirDrawable = d
			}
		}
	}

	slices.SortStableFunc(r.lightDrawables, func(a, b *scene.Drawable) int {
		return cmp.Compare(a.Distance(), b.Distance())
	})
	if len(r.lightDrawables) > light.MaxClusterLights {
		for _, d := range r.lightDrawables[light.MaxClusterLights:] {
			d.Light().SetShadowMap(nil, common.IntRect{})
		}
		if r.cfg.Verbose {
			log.Printf("[Renderer] frame %d: dropped %d light(s) past the cluster limit", r.frameNumber, len(r.lightDrawables)-light.MaxClusterLights)
		}
		clear(r.lightDrawables[light.MaxClusterLights:])
		r.lightDrawables = r.lightDrawables[:light.MaxClusterLights]
	}
	for _, d := range r.lightDrawables {
		r.lights = append(r.lights, d.Light())
	}

	if r.dirLight != nil {
		if !r.wantsShadows(r.dirLight) {
			r.dirLight.SetShadowMap(nil, common.IntRect{})
		} else if r.shadowMaps[shadow.DirectionalMap].Allocate(r.dirLight) {
			r.dirLight.InitShadowViews()
		}
	}

	atlas := r.shadowMaps[shadow.AtlasMap]
	var casterTasks []task.Task
	for _, l := range r.lights {
		if !r.wantsShadows(l) {
			l.SetShadowMap(nil, common.IntRect{})
			continue
		}
		if !atlas.Allocate(l) {
			if r.cfg.Verbose {
				log.Printf("[Renderer] frame %d: no atlas space for %s light shadow", r.frameNumber, l.Type())
			}
			continue
		}
		l.InitShadowViews()

		var list *shadow.CasterList
		for i, view := range l.ShadowViews() {
			if !l.SetupShadowView(i, r.camera, nil) {
				continue
			}
			if r.frustum.IsInside(view.ShadowFrustum.BoundingBox()) == common.Outside {
				view.Render = false
				continue
			}
			if list == nil {
				list = atlas.NewCasterList()
			}
			idx := atlas.AddView(view)
			r.shadowJobs = append(r.shadowJobs, shadowJob{mapIndex: shadow.AtlasMap, view: view, queueIdx: idx, casters: list})
		}
		if list != nil {
			casterTasks = append(casterTasks, r.collectLightCastersTask(l, list))
		}
	}

	for _, l := range r.lights {
		r.lightData = append(r.lightData, light.NewLightData(l))
	}

	r.pendingCasters.Add(len(casterTasks))
	for _, t := range casterTasks {
		r.scheduler.Submit(t)
	}
	r.pendingClusters.Add(light.NumClustersZ)
	for z := range light.NumClustersZ {
		r.scheduler.Submit(r.cullLightsTask(z))
	}
}

// collectLightCastersTask queries the octree for the shadow casters of a point or spot light.
func (r *renderer) collectLightCastersTask(l light.Light, list *shadow.CasterList) task.Task {
	return task.Task{
		Name: "collect-shadow-casters",
		Do: func(int) {
			switch l.Type() {
			case light.LightTypePoint:
				list.Drawables = r.octree.FindShadowCastersInSphere(list.Drawables, l.WorldSphere())
			case light.LightTypeSpot:
				f := l.WorldFrustum()
				list.Drawables = r.octree.FindShadowCasters(list.Drawables, &f)
			}
			r.pendingCasters.Done()
		},
	}
}

// setupDirLightViews fits the directional light's cascades around the visible geometry and spawns
// a caster query per cascade.
func (r *renderer) setupDirLightViews() {
	l := r.dirLight
	if l == nil || l.ShadowMap() == nil {
		return
	}

	m := r.shadowMaps[shadow.DirectionalMap]
	for i, view := range l.ShadowViews() {
		if !l.SetupShadowView(i, r.camera, &r.geometryBounds) {
			continue
		}
		idx := m.AddView(view)
		list := m.NewCasterList()
		r.shadowJobs = append(r.shadowJobs, shadowJob{mapIndex: shadow.DirectionalMap, view: view, queueIdx: idx, casters: list})

		r.pendingCasters.Add(1)
		r.scheduler.Submit(task.Task{
			Name: "collect-shadow-casters",
			Do: func(int) {
				list.Drawables = r.octree.FindShadowCasters(list.Drawables, &view.ShadowFrustum)
				r.pendingCasters.Done()
			},
		})
	}
}

// spawnShadowBatchTasks starts one batch collection task per shadow view. Each map's pending
// counter is raised in full before any task can finish.
func (r *renderer) spawnShadowBatchTasks() {
	for _, job := range r.shadowJobs {
		r.shadowMaps[job.mapIndex].Pending.Add(1)
	}
	for i := range r.shadowJobs {
		r.scheduler.Submit(r.collectShadowBatchesTask(&r.shadowJobs[i]))
	}
}

func (r *renderer) collectShadowBatchesTask(job *shadowJob) task.Task {
	return task.Task{
		Name: "collect-shadow-batches",
		Do: func(int) {
			m := r.shadowMaps[job.mapIndex]
			q := m.Queues[job.queueIdx]
			r.collectShadowBatches(job, q)
			q.Sort(batch.SortState, r.cfg.Instancing)
			m.Pending.Done()
		},
	}
}

// collectShadowBatches adds the shadow pass batches of the casters inside the view's frustum.
// Casters past their max distance from the main camera are skipped. Drawables are only read here,
// since casters can be shared with other views running concurrently.
func (r *renderer) collectShadowBatches(job *shadowJob, q *batch.Queue) {
	view := job.view
	for _, d := range job.casters.Drawables {
		box := d.WorldBoundingBox()
		if view.ShadowFrustum.IsInside(box) == common.Outside {
			continue
		}
		center := box.Center()
		if maxDistance := d.MaxDistance(); maxDistance > 0 && r.camera.Distance(center) > maxDistance {
			continue
		}

		transform := d.WorldTransform()
		distance := view.ShadowCamera.Distance(center)
		for _, sb := range d.Batches() {
			if sb.Material == nil || sb.Geometry == nil {
				continue
			}
			pass := sb.Material.Pass(material.PassShadow)
			if pass == nil {
				continue
			}
			q.Add(batch.Batch{Pass: pass, Material: sb.Material, Geometry: sb.Geometry, WorldTransform: transform, Distance: distance})
		}
	}
}
