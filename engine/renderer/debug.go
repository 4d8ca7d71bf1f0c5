package renderer

import "github.com/Carmen-Shannon/oxy-vis/engine/scene"

func (r *renderer) RenderDebug(debug scene.DebugRenderer) {
	if debug == nil {
		return
	}
	for _, d := range r.visible {
		d.OnRenderDebug(debug)
	}
	for _, d := range r.lightDrawables {
		d.OnRenderDebug(debug)
	}
	if r.dirDrawable != nil {
		r.dirDrawable.OnRenderDebug(debug)
	}
	for _, d := range r.occluders {
		d.OnRenderDebug(debug)
	}
}
