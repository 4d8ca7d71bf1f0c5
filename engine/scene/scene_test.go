package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}

func unitBox() common.BoundingBox {
	return common.NewBoundingBox(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5})
}

func newBox(opts ...DrawableBuilderOption) *Drawable {
	g := material.NewGeometry(nil, nil, 0, 36, unitBox())
	m := material.NewMaterial(material.WithDefaultPasses("lit", "depth"))
	return NewGeometryDrawable([]SourceBatch{{Geometry: g, Material: m}}, opts...)
}

func TestOctreeInsertLevels(t *testing.T) {
	tests := []struct {
		name      string
		position  mgl32.Vec3
		scale     float32
		wantLevel int
	}{
		{name: "small goes to the deepest level", position: mgl32.Vec3{10, 10, 10}, scale: 1, wantLevel: 3},
		{name: "medium stops early", position: mgl32.Vec3{-10, 5, 0}, scale: 30, wantLevel: 1},
		{name: "large stays in root", position: mgl32.Vec3{}, scale: 60, wantLevel: 0},
		{name: "outside the world stays in root", position: mgl32.Vec3{200, 0, 0}, scale: 1, wantLevel: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOctree(WithWorldSize(100), WithLevels(4))
			d := newBox(WithPosition(tt.position), WithScale(mgl32.Vec3{tt.scale, tt.scale, tt.scale}))
			o.Insert(d)

			if d.Octant() == nil {
				t.Fatal("drawable has no octant")
			}
			if got := d.Octant().Level(); got != tt.wantLevel {
				t.Errorf("level = %d, want %d", got, tt.wantLevel)
			}
			if d.Octant() != o.Root() && d.Octant().CullingBox().IsInside(d.WorldBoundingBox()) != common.Inside {
				t.Error("drawable is not inside its octant's culling box")
			}
		})
	}
}

func TestOctreeRemovePrunes(t *testing.T) {
	o := NewOctree(WithWorldSize(100), WithLevels(4))
	d := newBox(WithPosition(mgl32.Vec3{10, 10, 10}))
	o.Insert(d)
	if o.Root().NumChildren() != 1 {
		t.Fatalf("root children = %d, want 1", o.Root().NumChildren())
	}

	o.Remove(d)
	if d.Octant() != nil {
		t.Error("removed drawable still has an octant")
	}
	if !o.Root().IsEmpty() {
		t.Error("empty branches were not pruned")
	}
}

func TestOctreeQueuedUpdate(t *testing.T) {
	o := NewOctree(WithWorldSize(100), WithLevels(4))
	d := newBox(WithPosition(mgl32.Vec3{10, 10, 10}))
	o.Insert(d)
	before := d.Octant()

	d.SetPosition(mgl32.Vec3{-10, -10, -10})
	d.SetPosition(mgl32.Vec3{-12, -10, -10})
	if o.NumQueued() != 1 {
		t.Fatalf("queued = %d, want 1", o.NumQueued())
	}
	if d.Octant() != before {
		t.Fatal("drawable moved before Update")
	}

	if n := o.Update(); n != 1 {
		t.Errorf("Update processed %d, want 1", n)
	}
	if d.Octant() == before {
		t.Fatal("drawable was not reinserted")
	}
	if d.Octant().CullingBox().IsInside(d.WorldBoundingBox()) != common.Inside {
		t.Error("drawable is not inside its new octant's culling box")
	}
	if o.Root().Child(7) != nil {
		t.Error("old branch was not pruned")
	}
}

func TestFindShadowCasters(t *testing.T) {
	cam := camera.NewCamera(camera.WithFar(100))
	frustum := cam.WorldFrustum()

	s := NewScene("casters", WithOctree(NewOctree(WithWorldSize(200))))
	front := newBox(WithPosition(mgl32.Vec3{0, 0, -10}), WithCastShadows(true))
	behind := newBox(WithPosition(mgl32.Vec3{0, 0, 10}), WithCastShadows(true))
	noShadow := newBox(WithPosition(mgl32.Vec3{0, 0, -20}))
	occluder := NewOccluderDrawable(unitBox(), WithPosition(mgl32.Vec3{0, 0, -5}))
	for _, d := range []*Drawable{front, behind, noShadow, occluder} {
		s.Add(d)
	}

	casters := s.Octree().FindShadowCasters(nil, &frustum)
	if len(casters) != 1 || casters[0] != front {
		t.Errorf("casters = %v, want only the front box", casters)
	}

	sphereCasters := s.Octree().FindShadowCastersInSphere(nil, common.Sphere{Center: mgl32.Vec3{}, Radius: 15})
	if len(sphereCasters) != 2 {
		t.Errorf("sphere casters = %d, want 2", len(sphereCasters))
	}

	occluders := s.Octree().FindOccluders(nil, &frustum)
	if len(occluders) != 1 || occluders[0] != occluder {
		t.Errorf("occluders = %v", occluders)
	}
}

func TestOctreeRaycast(t *testing.T) {
	o := NewOctree(WithWorldSize(200))
	far := newBox(WithPosition(mgl32.Vec3{0, 0, -20}))
	near := newBox(WithPosition(mgl32.Vec3{0, 0, -10}))
	aside := newBox(WithPosition(mgl32.Vec3{10, 0, -10}))
	o.Insert(far)
	o.Insert(near)
	o.Insert(aside)

	ray := common.NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	results := o.Raycast(ray, 100)
	if len(results) != 2 {
		t.Fatalf("hits = %d, want 2", len(results))
	}
	if results[0].Drawable != near || !approx(results[0].Distance, 9.5, 1e-4) {
		t.Errorf("first hit = %+v, want near box at 9.5", results[0])
	}
	if results[1].Drawable != far || !approx(results[1].Distance, 19.5, 1e-4) {
		t.Errorf("second hit = %+v, want far box at 19.5", results[1])
	}

	if got := o.Raycast(ray, 15); len(got) != 1 {
		t.Errorf("hits within 15 = %d, want 1", len(got))
	}
}

func TestRaycastLightVolumes(t *testing.T) {
	o := NewOctree(WithWorldSize(200))
	point := NewLightDrawable(light.NewLight(light.LightTypePoint, light.WithRange(2)), WithPosition(mgl32.Vec3{0, 0, -10}))
	o.Insert(point)

	results := o.Raycast(common.NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}), 100)
	if len(results) != 1 || !approx(results[0].Distance, 8, 1e-4) {
		t.Errorf("point light hit = %+v, want distance 8", results)
	}
}

func TestDrawablePrepareRender(t *testing.T) {
	cam := camera.NewCamera(camera.WithViewMask(1))

	tests := []struct {
		name string
		d    *Drawable
		want bool
	}{
		{name: "visible", d: newBox(WithPosition(mgl32.Vec3{0, 0, -10})), want: true},
		{name: "beyond max distance", d: newBox(WithPosition(mgl32.Vec3{0, 0, -10}), WithMaxDistance(5)), want: false},
		{name: "view mask mismatch", d: newBox(WithPosition(mgl32.Vec3{0, 0, -10}), WithViewMask(2)), want: false},
		{name: "disabled", d: newBox(WithPosition(mgl32.Vec3{0, 0, -10}), WithEnabled(false)), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.OnPrepareRender(3, cam); got != tt.want {
				t.Errorf("OnPrepareRender = %v, want %v", got, tt.want)
			}
			if tt.want {
				if !approx(tt.d.Distance(), 10, 1e-4) {
					t.Errorf("Distance() = %v, want 10", tt.d.Distance())
				}
				if tt.d.LastFrameNumber() != 3 {
					t.Errorf("LastFrameNumber() = %d, want 3", tt.d.LastFrameNumber())
				}
			}
		})
	}
}

func TestLightDrawable(t *testing.T) {
	l := light.NewLight(light.LightTypePoint, light.WithRange(10))
	d := NewLightDrawable(l, WithPosition(mgl32.Vec3{0, 0, -5}))

	if l.Position() != (mgl32.Vec3{0, 0, -5}) {
		t.Errorf("light position = %v", l.Position())
	}
	box := d.WorldBoundingBox()
	if box.Min != (mgl32.Vec3{-10, -10, -15}) || box.Max != (mgl32.Vec3{10, 10, 5}) {
		t.Errorf("light box = %+v", box)
	}
	if !d.OnPrepareRender(1, camera.NewCamera()) {
		t.Fatal("light rejected")
	}
	if !approx(d.Distance(), 5, 1e-4) {
		t.Errorf("Distance() = %v, want 5", d.Distance())
	}
	if d.Batches() != nil {
		t.Error("light drawable has batches")
	}
}

func TestDrawableTick(t *testing.T) {
	s := NewScene("spin")
	d := newBox(WithRotationSpeed(mgl32.Vec3{0, 90, 0}))
	s.Add(d)

	if n := s.Update(1); n != 1 {
		t.Errorf("Update reinserted %d, want 1", n)
	}
	got := d.Rotation().Rotate(mgl32.Vec3{0, 0, -1})
	if !approx(got[0], -1, 1e-4) || !approx(got[2], 0, 1e-4) {
		t.Errorf("rotated forward = %v, want (-1, 0, 0)", got)
	}
}

func TestSceneRegistry(t *testing.T) {
	a := newBox()
	b := NewLightDrawable(light.NewLight(light.LightTypeSpot))
	s := NewScene("registry", WithDrawables(a, b))

	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
	if s.Get(a.ID()) != a || a.Octant() == nil {
		t.Error("initial drawable not registered and inserted")
	}
	if lights := s.Lights(); len(lights) != 1 || lights[0] != b {
		t.Errorf("Lights() = %v", lights)
	}

	s.Remove(a.ID())
	if s.Get(a.ID()) != nil || a.Octant() != nil {
		t.Error("Remove left the drawable behind")
	}
	s.Clear()
	if s.Count() != 0 || b.Octant() != nil {
		t.Error("Clear left drawables behind")
	}

	s.SetFog(0.9, 0.5)
	if s.FogEnd() != 0.9 {
		t.Errorf("FogEnd() = %v, want 0.9", s.FogEnd())
	}
}
