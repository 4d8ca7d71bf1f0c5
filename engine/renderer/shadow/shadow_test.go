package shadow

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
	"github.com/go-gl/mathgl/mgl32"
)

func TestAllocatorNeverOverlaps(t *testing.T) {
	tests := []struct {
		name  string
		sizes [][2]int
	}{
		{name: "point and spot mix", sizes: [][2]int{{768, 512}, {256, 256}, {1536, 1024}, {512, 512}, {256, 256}, {768, 512}}},
		{name: "many small", sizes: repeat([2]int{256, 256}, 80)},
		{name: "too large", sizes: [][2]int{{4096, 4096}, {1024, 1024}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAreaAllocator(2048, 2048)
			var placed []common.IntRect
			for _, s := range tt.sizes {
				r, ok := a.Allocate(s[0], s[1])
				if !ok {
					continue
				}
				if r.Width() != s[0] || r.Height() != s[1] {
					t.Fatalf("rect %+v does not have the requested size %v", r, s)
				}
				if r.Left < 0 || r.Top < 0 || r.Right > 2048 || r.Bottom > 2048 {
					t.Fatalf("rect %+v leaves the area", r)
				}
				for _, p := range placed {
					if p.Overlaps(r) {
						t.Fatalf("rect %+v overlaps %+v", r, p)
					}
				}
				placed = append(placed, r)
			}

			total := 0
			for _, p := range placed {
				total += p.Area()
			}
			if total > 2048*2048 || total != a.UsedArea() {
				t.Errorf("allocated area %d, used area %d", total, a.UsedArea())
			}
		})
	}
}

func TestAllocatorFillsAndFails(t *testing.T) {
	a := NewAreaAllocator(1024, 1024)
	for i := 0; i < 16; i++ {
		if _, ok := a.Allocate(256, 256); !ok {
			t.Fatalf("allocation %d failed in a half empty atlas", i)
		}
	}
	if _, ok := a.Allocate(1, 1); ok {
		t.Error("allocation succeeded in a full atlas")
	}
	if _, ok := a.Allocate(0, 10); ok {
		t.Error("zero sized allocation succeeded")
	}

	a.Reset(1024, 1024)
	if r, ok := a.Allocate(1024, 1024); !ok || r != common.NewIntRect(0, 0, 1024, 1024) {
		t.Errorf("after Reset got %+v, %v", r, ok)
	}
}

func TestAllocatorIsDeterministic(t *testing.T) {
	sizes := [][2]int{{768, 512}, {256, 256}, {512, 512}, {1024, 512}, {256, 256}, {768, 512}, {128, 128}}
	run := func() []common.IntRect {
		a := NewAreaAllocator(2048, 2048)
		var out []common.IntRect
		for _, s := range sizes {
			r, _ := a.Allocate(s[0], s[1])
			out = append(out, r)
		}
		return out
	}

	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("allocation %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0] != common.NewIntRect(0, 0, 768, 512) {
		t.Errorf("first allocation = %+v, want the top-left corner", first[0])
	}
}

func TestMapAllocate(t *testing.T) {
	rec := graphics.NewRecorder()
	m := NewMap(rec, AtlasMap)

	spot := light.NewLight(light.LightTypeSpot, light.WithCastShadows(true), light.WithShadowMapSize(512))
	if m.Allocate(spot) {
		t.Fatal("allocation into an undefined map succeeded")
	}
	if spot.ShadowMap() != nil {
		t.Fatal("light kept a shadow map after a failed allocation")
	}

	if err := m.Define(1024, 1024, graphics.FormatD16); err != nil {
		t.Fatalf("Define() error = %v", err)
	}

	point := light.NewLight(light.LightTypePoint, light.WithCastShadows(true), light.WithShadowMapSize(256))
	if !m.Allocate(point) {
		t.Fatal("point light allocation failed")
	}
	if point.ShadowMap() != m || point.ShadowRect().Width() != 768 || point.ShadowRect().Height() != 512 {
		t.Errorf("point light rect = %+v", point.ShadowRect())
	}
	if point.ActualShadowMapSize() != 256 {
		t.Errorf("ActualShadowMapSize() = %d, want 256", point.ActualShadowMapSize())
	}

	if !m.Allocate(spot) {
		t.Fatal("spot light allocation failed")
	}
	if spot.ShadowRect().Overlaps(point.ShadowRect()) {
		t.Error("spot and point rectangles overlap")
	}

	big := light.NewLight(light.LightTypeSpot, light.WithCastShadows(true), light.WithShadowMapSize(1024))
	if m.Allocate(big) || big.ShadowMap() != nil {
		t.Error("allocation larger than the remaining space succeeded")
	}

	m.Clear()
	if !m.Allocate(big) {
		t.Error("allocation failed after Clear")
	}
}

func TestMapViewsAndQueues(t *testing.T) {
	m := NewMap(graphics.NewRecorder(), DirectionalMap)
	if err := m.Define(2048, 1024, graphics.FormatD32); err != nil {
		t.Fatalf("Define() error = %v", err)
	}

	a := m.AddView(&light.ShadowView{})
	b := m.AddView(&light.ShadowView{})
	if a != 0 || b != 1 || m.NumQueues() != 2 || len(m.Views) != 2 {
		t.Fatalf("queues = %d, %d (%d in use)", a, b, m.NumQueues())
	}
	m.Queues[a].InstanceTransforms = append(m.Queues[a].InstanceTransforms, mgl32.Translate3D(1, 2, 3))

	list := m.NewCasterList()
	list.Drawables = append(list.Drawables, nil)
	if end := m.UpdateInstanceBases(10); end != 11 || m.InstanceBases[0] != 10 || m.InstanceBases[1] != 11 {
		t.Errorf("instance bases = %v ending at %d", m.InstanceBases, end)
	}

	m.Clear()
	if len(m.Views) != 0 || m.NumQueues() != 0 {
		t.Error("Clear kept views")
	}
	if idx := m.AddView(&light.ShadowView{}); idx != 0 || m.Queues[idx].NumInstances() != 0 {
		t.Error("reused queue was not emptied")
	}
	if reused := m.NewCasterList(); reused != list || len(reused.Drawables) != 0 || m.NumCasterLists() != 1 {
		t.Error("reused caster list was not emptied")
	}
}

func repeat(s [2]int, n int) [][2]int {
	out := make([][2]int, n)
	for i := range out {
		out[i] = s
	}
	return out
}
