package renderer

import (
	"errors"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/shadow"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

func approx(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}

var unitBox = common.NewBoundingBox(mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5})

type testAssets struct {
	geometry *material.Geometry
	opaque   material.Material
	alpha    material.Material
}

func newTestAssets() testAssets {
	return testAssets{
		geometry: material.NewGeometry(nil, nil, 0, 36, unitBox),
		opaque:   material.NewMaterial(material.WithName("opaque"), material.WithDefaultPasses("lit", "depth")),
		alpha:    material.NewMaterial(material.WithName("glass"), material.WithPass(material.NewPass(material.PassAlpha, "blend"))),
	}
}

func (a testAssets) box(m material.Material, pos mgl32.Vec3, opts ...scene.DrawableBuilderOption) *scene.Drawable {
	opts = append([]scene.DrawableBuilderOption{scene.WithPosition(pos)}, opts...)
	return scene.NewGeometryDrawable([]scene.SourceBatch{{Geometry: a.geometry, Material: m}}, opts...)
}

func newTestRenderer(rec *graphics.Recorder, opts ...RendererBuilderOption) Renderer {
	opts = append([]RendererBuilderOption{WithScheduler(task.NewScheduler(task.WithWorkers(1)))}, opts...)
	return NewRenderer(rec, opts...)
}

func TestPrepareViewCulling(t *testing.T) {
	a := newTestAssets()
	front := a.box(a.opaque, mgl32.Vec3{0, 0, -10})
	s := scene.NewScene("culling", scene.WithDrawables(
		front,
		a.box(a.opaque, mgl32.Vec3{0, 0, 10}),
		a.box(a.opaque, mgl32.Vec3{500, 0, -10}),
		a.box(a.opaque, mgl32.Vec3{1, 0, -10}, scene.WithEnabled(false)),
		a.box(a.opaque, mgl32.Vec3{0, 0, -50}, scene.WithMaxDistance(20)),
		a.box(a.opaque, mgl32.Vec3{-1, 0, -10}, scene.WithViewMask(0x2)),
	))
	cam := camera.NewCamera(camera.WithViewMask(0x1))

	r := newTestRenderer(graphics.NewRecorder())
	r.PrepareView(s, cam, false, false)

	stats := r.Stats()
	if stats.VisibleGeometries != 1 {
		t.Fatalf("visible geometries = %d, want 1", stats.VisibleGeometries)
	}
	if stats.FrameNumber != 1 || r.FrameNumber() != 1 {
		t.Errorf("frame number = %d, want 1", stats.FrameNumber)
	}
	q := r.OpaqueBatches()
	if q.Len() != 1 {
		t.Fatalf("opaque batches = %d, want 1", q.Len())
	}
	if !approx(q.Batches[0].Distance, 10, 1e-3) {
		t.Errorf("batch distance = %v, want 10", q.Batches[0].Distance)
	}
	if r.AlphaBatches().Len() != 0 {
		t.Errorf("alpha batches = %d, want 0", r.AlphaBatches().Len())
	}

	bounds := r.GeometryBounds()
	if !bounds.IsDefined() || bounds != front.WorldBoundingBox() {
		t.Errorf("geometry bounds = %+v, want %+v", bounds, front.WorldBoundingBox())
	}
	if !approx(stats.MinZ, 9.5, 1e-3) || !approx(stats.MaxZ, 10.5, 1e-3) {
		t.Errorf("depth range = [%v, %v], want [9.5, 10.5]", stats.MinZ, stats.MaxZ)
	}
}

func TestPrepareViewEmptyScene(t *testing.T) {
	r := newTestRenderer(graphics.NewRecorder())
	r.PrepareView(scene.NewScene("empty"), camera.NewCamera(), true, true)

	stats := r.Stats()
	if stats.VisibleGeometries != 0 || stats.OctantTasks != 0 || stats.BatchTasks != 0 {
		t.Errorf("stats = %+v, want no work", stats)
	}
	if r.GeometryBounds().IsDefined() {
		t.Error("geometry bounds defined for an empty scene")
	}
	if stats.MinZ != 0 || stats.MaxZ != 0 {
		t.Errorf("depth range = [%v, %v], want zero", stats.MinZ, stats.MaxZ)
	}
}

func TestInstancing(t *testing.T) {
	tests := []struct {
		name        string
		instancing  bool
		wantBatches int
	}{
		{name: "merged", instancing: true, wantBatches: 1},
		{name: "separate", instancing: false, wantBatches: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAssets()
			s := scene.NewScene("instancing")
			for i := range 8 {
				s.Add(a.box(a.opaque, mgl32.Vec3{float32(i) - 4, 0, -10 - float32(i)}))
			}

			r := newTestRenderer(graphics.NewRecorder(), WithInstancing(tt.instancing))
			r.PrepareView(s, camera.NewCamera(), false, false)

			q := r.OpaqueBatches()
			if q.Len() != tt.wantBatches {
				t.Fatalf("batches = %d, want %d", q.Len(), tt.wantBatches)
			}
			if q.NumInstances() != 8 {
				t.Errorf("instances = %d, want 8", q.NumInstances())
			}
			total := 0
			for _, b := range q.Batches {
				total += b.InstanceCount
			}
			if total != 8 {
				t.Errorf("instance counts sum to %d, want 8", total)
			}
			if r.Stats().Instances != 8 {
				t.Errorf("uploaded instances = %d, want 8", r.Stats().Instances)
			}
		})
	}
}

func TestAlphaBatchesBackToFront(t *testing.T) {
	a := newTestAssets()
	s := scene.NewScene("alpha", scene.WithDrawables(
		a.box(a.alpha, mgl32.Vec3{0, 0, -5}),
		a.box(a.alpha, mgl32.Vec3{0, 0, -20}),
		a.box(a.alpha, mgl32.Vec3{0, 0, -10}),
		a.box(a.opaque, mgl32.Vec3{2, 0, -10}),
	))

	r := newTestRenderer(graphics.NewRecorder())
	r.PrepareView(s, camera.NewCamera(), false, false)

	q := r.AlphaBatches()
	if q.Len() != 3 {
		t.Fatalf("alpha batches = %d, want 3", q.Len())
	}
	want := []float32{20, 10, 5}
	for i, b := range q.Batches {
		if !approx(b.Distance, want[i], 1e-3) {
			t.Errorf("batch %d distance = %v, want %v", i, b.Distance, want[i])
		}
		if b.InstanceCount != 1 {
			t.Errorf("batch %d instance count = %d, want 1", i, b.InstanceCount)
		}
	}
	if r.OpaqueBatches().Len() != 1 {
		t.Errorf("opaque batches = %d, want 1", r.OpaqueBatches().Len())
	}
}

func TestBatchTasksSpawnPerThreshold(t *testing.T) {
	a := newTestAssets()
	s := scene.NewScene("threshold")
	for i := range 40 {
		s.Add(a.box(a.opaque, mgl32.Vec3{float32(i%5) - 2, float32(i/5%2) - 0.5, -5 - float32(i)}))
	}

	small := newTestRenderer(graphics.NewRecorder(), WithDrawablesPerBatchTask(4))
	small.PrepareView(s, camera.NewCamera(), false, false)
	large := newTestRenderer(graphics.NewRecorder(), WithDrawablesPerBatchTask(1000))
	large.PrepareView(s, camera.NewCamera(), false, false)

	if small.Stats().BatchTasks <= large.Stats().BatchTasks {
		t.Errorf("batch tasks with threshold 4 = %d, threshold 1000 = %d", small.Stats().BatchTasks, large.Stats().BatchTasks)
	}
	if large.Stats().BatchTasks > numOctantTasks {
		t.Errorf("batch tasks = %d, want at most one per octant task", large.Stats().BatchTasks)
	}
	if small.Stats().VisibleGeometries != 40 || large.Stats().VisibleGeometries != 40 {
		t.Errorf("visible = %d and %d, want 40", small.Stats().VisibleGeometries, large.Stats().VisibleGeometries)
	}
	if !slices.Equal(small.OpaqueBatches().InstanceTransforms, large.OpaqueBatches().InstanceTransforms) {
		t.Error("instance transforms depend on the batch task threshold")
	}
	if small.Stats().TestedDrawables != 40 {
		t.Errorf("tested = %d, want 40", small.Stats().TestedDrawables)
	}
}

func TestLightOrderingAndDirLight(t *testing.T) {
	a := newTestAssets()
	dim := light.NewLight(light.LightTypeDirectional, light.WithIntensity(1))
	bright := light.NewLight(light.LightTypeDirectional, light.WithIntensity(3))
	far := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, -30}))
	near := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, -10}))
	mid := light.NewLight(light.LightTypeSpot, light.WithPosition(mgl32.Vec3{0, 0, -20}), light.WithDirection(mgl32.Vec3{0, 0, -1}), light.WithRange(1))
	behind := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, 50}), light.WithRange(2))

	s := scene.NewScene("lights", scene.WithDrawables(
		a.box(a.opaque, mgl32.Vec3{0, 0, -10}),
		scene.NewLightDrawable(dim),
		scene.NewLightDrawable(bright),
		scene.NewLightDrawable(far),
		scene.NewLightDrawable(near),
		scene.NewLightDrawable(mid),
		scene.NewLightDrawable(behind),
	))

	r := newTestRenderer(graphics.NewRecorder())
	r.PrepareView(s, camera.NewCamera(), false, false)

	if r.DirLight() != bright {
		t.Error("the brightest directional light was not picked")
	}
	got := r.Lights()
	want := []light.Light{near, mid, far}
	if len(got) != len(want) {
		t.Fatalf("lights = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("light %d is at distance %v, want the light at %v", i, got[i].Distance(), want[i].Distance())
		}
	}
	if len(r.LightData()) != len(want) {
		t.Errorf("light data records = %d, want %d", len(r.LightData()), len(want))
	}
	if r.Stats().Lights != 3 || !r.Stats().DirLight {
		t.Errorf("stats = %+v", r.Stats())
	}
}

func TestClustersEmptyWithoutLights(t *testing.T) {
	a := newTestAssets()
	s := scene.NewScene("dark", scene.WithDrawables(a.box(a.opaque, mgl32.Vec3{0, 0, -10})))

	r := newTestRenderer(graphics.NewRecorder())
	r.PrepareView(s, camera.NewCamera(), false, false)

	if len(r.ClusterData()) != light.NumClusters*light.MaxLightsPerCluster {
		t.Fatalf("cluster data = %d bytes, want %d", len(r.ClusterData()), light.NumClusters*light.MaxLightsPerCluster)
	}
	for i, b := range r.ClusterData() {
		if b != 0 {
			t.Fatalf("cluster byte %d = %d, want 0", i, b)
		}
	}
	for i, n := range r.NumClusterLights() {
		if n != 0 {
			t.Fatalf("cluster %d has %d lights, want 0", i, n)
		}
	}
	if len(r.LightData()) != 0 {
		t.Errorf("light data = %d entries, want 0", len(r.LightData()))
	}
}

func TestLightClusterAssignment(t *testing.T) {
	tests := []struct {
		name string
		l    light.Light
	}{
		{
			name: "point",
			l:    light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, -10}), light.WithRange(2)),
		},
		{
			name: "spot",
			l: light.NewLight(light.LightTypeSpot, light.WithPosition(mgl32.Vec3{0, 0, -9}),
				light.WithDirection(mgl32.Vec3{0, 0, -1}), light.WithRange(4), light.WithFov(30)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.NewScene("clusters", scene.WithDrawables(scene.NewLightDrawable(tt.l)))
			r := newTestRenderer(graphics.NewRecorder())
			r.PrepareView(s, camera.NewCamera(), false, false)

			data := r.ClusterData()
			counts := r.NumClusterLights()
			found := false
			for idx, n := range counts {
				cell := data[idx*light.MaxLightsPerCluster : (idx+1)*light.MaxLightsPerCluster]
				for i, b := range cell {
					if i < int(n) && b != 1 {
						t.Fatalf("cluster %d slot %d = %d, want 1", idx, i, b)
					}
					if i >= int(n) && b != 0 {
						t.Fatalf("cluster %d slot %d = %d past the count", idx, i, b)
					}
				}
				if n > 0 {
					found = true
				}
			}
			if !found {
				t.Fatal("light was not assigned to any cluster")
			}

			center := false
			for _, x := range []int{7, 8} {
				for _, y := range []int{3, 4} {
					if counts[clusterIndex(x, y, 0)] > 0 {
						center = true
					}
				}
			}
			if !center {
				t.Error("light missing from the central clusters of the first slice")
			}
			for y := range light.NumClustersY {
				for x := range light.NumClustersX {
					if counts[clusterIndex(x, y, light.NumClustersZ-1)] != 0 {
						t.Fatalf("far slice cluster (%d, %d) has lights", x, y)
					}
				}
			}
		})
	}
}

func TestClusterLightCap(t *testing.T) {
	s := scene.NewScene("crowd")
	for i := range light.MaxLightsPerCluster + 4 {
		l := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, -10 - 0.01*float32(i)}), light.WithRange(1))
		s.Add(scene.NewLightDrawable(l))
	}

	r := newTestRenderer(graphics.NewRecorder())
	r.PrepareView(s, camera.NewCamera(), false, false)

	for idx, n := range r.NumClusterLights() {
		if n > light.MaxLightsPerCluster {
			t.Fatalf("cluster %d holds %d lights", idx, n)
		}
	}
	if r.Stats().ClusterLights != light.MaxLightsPerCluster+4 {
		t.Errorf("cluster lights = %d, want %d", r.Stats().ClusterLights, light.MaxLightsPerCluster+4)
	}
}

type shadowScene struct {
	s     scene.Scene
	dir   light.Light
	point light.Light
	spot  light.Light
}

func newShadowScene() shadowScene {
	a := newTestAssets()
	dir := light.NewLight(light.LightTypeDirectional, light.WithDirection(mgl32.Vec3{0.3, -1, -0.2}),
		light.WithCastShadows(true), light.WithShadowMapSize(512), light.WithDepthBias(1, 0.5))
	point := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 2, -10}), light.WithRange(10),
		light.WithCastShadows(true), light.WithShadowMapSize(256))
	spot := light.NewLight(light.LightTypeSpot, light.WithPosition(mgl32.Vec3{3, 3, -8}), light.WithRange(10),
		light.WithCastShadows(true), light.WithShadowMapSize(256))

	s := scene.NewScene("shadows", scene.WithDrawables(
		a.box(a.opaque, mgl32.Vec3{0, -2, -100}, scene.WithScale(mgl32.Vec3{200, 1, 200}), scene.WithCastShadows(true)),
		a.box(a.opaque, mgl32.Vec3{0, 0, -10}, scene.WithCastShadows(true)),
		a.box(a.opaque, mgl32.Vec3{3, 0, -8}, scene.WithCastShadows(true)),
		scene.NewLightDrawable(dir),
		scene.NewLightDrawable(point),
		scene.NewLightDrawable(spot),
	))
	return shadowScene{s: s, dir: dir, point: point, spot: spot}
}

func TestShadowMapAllocation(t *testing.T) {
	ss := newShadowScene()
	rec := graphics.NewRecorder()
	r := newTestRenderer(rec)
	if err := r.SetupShadowMaps(512, 2048, graphics.FormatD32); err != nil {
		t.Fatalf("SetupShadowMaps() error = %v", err)
	}
	r.PrepareView(ss.s, camera.NewCamera(), true, false)

	dirMap := r.ShadowMap(shadow.DirectionalMap)
	atlas := r.ShadowMap(shadow.AtlasMap)
	if dirMap.Width() != 1024 || dirMap.Height() != 512 {
		t.Errorf("directional map = %dx%d, want 1024x512", dirMap.Width(), dirMap.Height())
	}
	if ss.dir.ShadowMap() != light.ShadowMapTarget(dirMap) {
		t.Error("directional light is not in the directional map")
	}
	if ss.point.ShadowMap() != light.ShadowMapTarget(atlas) || ss.spot.ShadowMap() != light.ShadowMapTarget(atlas) {
		t.Fatal("point and spot lights are not in the atlas")
	}
	if w, h := ss.point.ShadowRect().Width(), ss.point.ShadowRect().Height(); w != 768 || h != 512 {
		t.Errorf("point shadow rect = %dx%d, want 768x512", w, h)
	}
	if ss.point.ShadowRect().Overlaps(ss.spot.ShadowRect()) {
		t.Error("point and spot shadow rects overlap")
	}

	if dirMap.NumQueues() != 2 {
		t.Errorf("directional views = %d, want 2 cascades", dirMap.NumQueues())
	}
	if atlas.NumQueues() < 2 {
		t.Errorf("atlas views = %d, want the spot view and at least one point face", atlas.NumQueues())
	}
	for _, m := range []*shadow.Map{dirMap, atlas} {
		if len(m.InstanceBases) != m.NumQueues() {
			t.Errorf("map %d instance bases = %d, want %d", m.Index(), len(m.InstanceBases), m.NumQueues())
		}
		if m.Pending.Pending() != 0 {
			t.Errorf("map %d still has %d pending views", m.Index(), m.Pending.Pending())
		}
	}
	if dirMap.Queues[0].Len() == 0 {
		t.Error("first cascade has no shadow batches")
	}

	stats := r.Stats()
	if stats.ShadowLights != 3 {
		t.Errorf("shadow lights = %d, want 3", stats.ShadowLights)
	}
	if stats.ShadowViews != dirMap.NumQueues()+atlas.NumQueues() {
		t.Errorf("shadow views = %d, want %d", stats.ShadowViews, dirMap.NumQueues()+atlas.NumQueues())
	}

	r.SetShadowDepthBiasMul(2, 1)
	if err := r.RenderShadowMaps(); err != nil {
		t.Fatalf("RenderShadowMaps() error = %v", err)
	}
	if got := rec.Count(graphics.CmdBeginPass); got != 2 {
		t.Errorf("shadow passes = %d, want 2", got)
	}
	foundBias := false
	for _, cmd := range rec.Commands() {
		if cmd.Type == graphics.CmdSetDepthBias && approx(cmd.Bias.Constant, 2, 1e-6) && approx(cmd.Bias.SlopeScale, 0.5, 1e-6) {
			foundBias = true
		}
	}
	if !foundBias {
		t.Error("directional cascades were not drawn with the scaled depth bias")
	}
}

func TestShadowsDisabled(t *testing.T) {
	tests := []struct {
		name        string
		setupMaps   bool
		drawShadows bool
	}{
		{name: "draw shadows off", setupMaps: true, drawShadows: false},
		{name: "maps undefined", setupMaps: false, drawShadows: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss := newShadowScene()
			r := newTestRenderer(graphics.NewRecorder())
			if tt.setupMaps {
				if err := r.SetupShadowMaps(512, 2048, graphics.FormatD32); err != nil {
					t.Fatalf("SetupShadowMaps() error = %v", err)
				}
			}
			r.PrepareView(ss.s, camera.NewCamera(), tt.drawShadows, false)

			for _, l := range []light.Light{ss.dir, ss.point, ss.spot} {
				if l.ShadowMap() != nil {
					t.Errorf("%s light has a shadow map", l.Type())
				}
			}
			if r.Stats().ShadowViews != 0 || r.Stats().ShadowLights != 0 {
				t.Errorf("stats = %+v, want no shadows", r.Stats())
			}
			if len(r.Lights()) != 2 {
				t.Errorf("lights = %d, want 2", len(r.Lights()))
			}
		})
	}
}

func TestSetupShadowMapsRoundsUp(t *testing.T) {
	r := newTestRenderer(graphics.NewRecorder())
	if err := r.SetupShadowMaps(1000, 1500, graphics.FormatD16); err != nil {
		t.Fatalf("SetupShadowMaps() error = %v", err)
	}
	if m := r.ShadowMap(shadow.DirectionalMap); m.Width() != 2048 || m.Height() != 1024 {
		t.Errorf("directional map = %dx%d, want 2048x1024", m.Width(), m.Height())
	}
	if m := r.ShadowMap(shadow.AtlasMap); m.Width() != 2048 || m.Height() != 2048 {
		t.Errorf("atlas = %dx%d, want 2048x2048", m.Width(), m.Height())
	}
	if r.ShadowMap(2) != nil || r.ShadowMap(-1) != nil {
		t.Error("out of range shadow map index returned a map")
	}
}

func TestOcclusion(t *testing.T) {
	tests := []struct {
		name         string
		occluderPos  mgl32.Vec3
		useOcclusion bool
		wantVisible  int
		wantOccluder int
	}{
		{name: "occluder hides the box behind it", occluderPos: mgl32.Vec3{0, 0, -5}, useOcclusion: true, wantVisible: 1, wantOccluder: 1},
		{name: "occlusion off", occluderPos: mgl32.Vec3{0, 0, -5}, useOcclusion: false, wantVisible: 2, wantOccluder: 0},
		{name: "occluder around the eye is ignored", occluderPos: mgl32.Vec3{0, 0, 0}, useOcclusion: true, wantVisible: 2, wantOccluder: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAssets()
			wall := scene.NewOccluderDrawable(unitBox, scene.WithPosition(tt.occluderPos), scene.WithScale(mgl32.Vec3{10, 10, 1}))
			s := scene.NewScene("occlusion", scene.WithDrawables(
				a.box(a.opaque, mgl32.Vec3{0, 0, -3}),
				a.box(a.opaque, mgl32.Vec3{0, 0, -20}),
				wall,
			))

			r := newTestRenderer(graphics.NewRecorder())
			r.PrepareView(s, camera.NewCamera(), false, tt.useOcclusion)

			if got := r.Stats().VisibleGeometries; got != tt.wantVisible {
				t.Errorf("visible = %d, want %d", got, tt.wantVisible)
			}
			if got := r.Stats().Occluders; got != tt.wantOccluder {
				t.Errorf("occluders = %d, want %d", got, tt.wantOccluder)
			}
		})
	}
}

func TestOcclusionTester(t *testing.T) {
	var o occlusionTester
	wall := scene.NewOccluderDrawable(common.NewBoundingBox(mgl32.Vec3{-5, -5, -6}, mgl32.Vec3{5, 5, -5}))
	o.setup(mgl32.Vec3{}, []*scene.Drawable{wall})

	tests := []struct {
		name string
		box  common.BoundingBox
		want bool
	}{
		{name: "fully behind", box: common.NewBoundingBox(mgl32.Vec3{-1, -1, -21}, mgl32.Vec3{1, 1, -19}), want: true},
		{name: "in front", box: common.NewBoundingBox(mgl32.Vec3{-1, -1, -3}, mgl32.Vec3{1, 1, -2}), want: false},
		{name: "sticking out sideways", box: common.NewBoundingBox(mgl32.Vec3{10, -1, -21}, mgl32.Vec3{30, 1, -19}), want: false},
		{name: "behind the eye", box: common.NewBoundingBox(mgl32.Vec3{-1, -1, 19}, mgl32.Vec3{1, 1, 21}), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.isOccluded(tt.box); got != tt.want {
				t.Errorf("isOccluded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShadowInstanceBasesPooled(t *testing.T) {
	a := newTestAssets()
	s := scene.NewScene("pooled-shadows")
	for i := range 64 {
		s.Add(a.box(a.opaque, mgl32.Vec3{float32(i%8)*3 - 12, 0, -5 - float32(i/8)*3}, scene.WithCastShadows(true)))
	}
	for i := range 8 {
		l := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{float32(i%4)*6 - 9, 3, -8 - float32(i/4)*10}),
			light.WithRange(12), light.WithCastShadows(true), light.WithShadowMapSize(128))
		s.Add(scene.NewLightDrawable(l))
	}
	s.Add(scene.NewLightDrawable(light.NewLight(light.LightTypeDirectional, light.WithDirection(mgl32.Vec3{0.2, -1, -0.3}), light.WithCastShadows(true))))

	r := newTestRenderer(graphics.NewRecorder(), WithScheduler(task.NewScheduler(task.WithWorkers(8))), WithDrawablesPerBatchTask(4))
	if err := r.SetupShadowMaps(512, 2048, graphics.FormatD32); err != nil {
		t.Fatalf("SetupShadowMaps() error = %v", err)
	}
	cam := camera.NewCamera(camera.WithFar(200))

	for frame := range 50 {
		r.PrepareView(s, cam, true, false)
		for _, idx := range []int{shadow.DirectionalMap, shadow.AtlasMap} {
			m := r.ShadowMap(idx)
			if len(m.InstanceBases) != m.NumQueues() {
				t.Fatalf("frame %d map %d: %d instance bases for %d queues", frame, idx, len(m.InstanceBases), m.NumQueues())
			}
			next := 0
			for qi, base := range m.InstanceBases {
				if base != next {
					t.Fatalf("frame %d map %d queue %d: base = %d, want %d", frame, idx, qi, base, next)
				}
				next += m.Queues[qi].NumInstances()
			}
		}
	}
}

func TestSynchronousAndPooledFramesMatch(t *testing.T) {
	build := func() scene.Scene {
		a := newTestAssets()
		s := scene.NewScene("determinism")
		for i := range 120 {
			x := float32(i%12)*4 - 22
			z := -5 - float32(i/12)*6
			s.Add(a.box(a.opaque, mgl32.Vec3{x, float32(i%3) - 1, z}, scene.WithCastShadows(true)))
			if i%10 == 0 {
				s.Add(a.box(a.alpha, mgl32.Vec3{x, 2, z}))
			}
		}
		for i := range 6 {
			l := light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{float32(i)*6 - 15, 3, -10 - float32(i)*8}),
				light.WithRange(8), light.WithCastShadows(i%2 == 0), light.WithShadowMapSize(128))
			s.Add(scene.NewLightDrawable(l))
		}
		s.Add(scene.NewLightDrawable(light.NewLight(light.LightTypeDirectional, light.WithDirection(mgl32.Vec3{0.2, -1, -0.3}), light.WithCastShadows(true))))
		return s
	}

	run := func(workers int) Renderer {
		r := NewRenderer(graphics.NewRecorder(), WithScheduler(task.NewScheduler(task.WithWorkers(workers))), WithDrawablesPerBatchTask(8))
		if err := r.SetupShadowMaps(512, 2048, graphics.FormatD32); err != nil {
			t.Fatalf("SetupShadowMaps() error = %v", err)
		}
		r.PrepareView(build(), camera.NewCamera(camera.WithFar(200)), true, false)
		return r
	}

	sync := run(1)
	pooled := run(4)

	a, b := sync.Stats(), pooled.Stats()
	a.Workers, b.Workers = 0, 0
	if a != b {
		t.Fatalf("stats differ:\nsync   %+v\npooled %+v", a, b)
	}
	if !slices.Equal(sync.OpaqueBatches().InstanceTransforms, pooled.OpaqueBatches().InstanceTransforms) {
		t.Error("opaque instance transforms differ")
	}
	if !slices.Equal(sync.AlphaBatches().InstanceTransforms, pooled.AlphaBatches().InstanceTransforms) {
		t.Error("alpha instance transforms differ")
	}
	if !slices.Equal(sync.ClusterData(), pooled.ClusterData()) {
		t.Error("cluster data differs")
	}
	for i := range shadow.NumMaps {
		ms, mp := sync.ShadowMap(i), pooled.ShadowMap(i)
		if !slices.Equal(ms.InstanceBases, mp.InstanceBases) {
			t.Errorf("map %d instance bases differ: %v vs %v", i, ms.InstanceBases, mp.InstanceBases)
		}
	}
}

func TestRenderCommandSequence(t *testing.T) {
	a := newTestAssets()
	s := scene.NewScene("render", scene.WithDrawables(
		a.box(a.opaque, mgl32.Vec3{0, 0, -10}),
		a.box(a.opaque, mgl32.Vec3{1, 0, -12}),
		a.box(a.alpha, mgl32.Vec3{0, 1, -8}),
		scene.NewLightDrawable(light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, -9}))),
	))

	rec := graphics.NewRecorder()
	r := newTestRenderer(rec)
	if err := r.RenderOpaque(true); !errors.Is(err, ErrNotPrepared) {
		t.Fatalf("RenderOpaque() before PrepareView error = %v, want ErrNotPrepared", err)
	}

	r.SetViewTarget(nil, common.NewIntRect(0, 0, 640, 480))
	r.PrepareView(s, camera.NewCamera(), false, false)
	if err := r.RenderOpaque(true); err != nil {
		t.Fatalf("RenderOpaque() error = %v", err)
	}
	if err := r.RenderAlpha(); err != nil {
		t.Fatalf("RenderAlpha() error = %v", err)
	}
	if err := r.Submit(); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if got := rec.Count(graphics.CmdBeginPass); got != 2 {
		t.Errorf("passes = %d, want 2", got)
	}
	if got := rec.Count(graphics.CmdSubmit); got != 1 {
		t.Errorf("submits = %d, want 1", got)
	}
	if got := rec.Count(graphics.CmdWriteTexture); got != 1 {
		t.Errorf("cluster texture uploads = %d, want 1", got)
	}

	var draws []graphics.DrawCommand
	var clears []graphics.ClearOptions
	for _, cmd := range rec.Commands() {
		switch cmd.Type {
		case graphics.CmdDraw:
			draws = append(draws, cmd.Draw)
		case graphics.CmdBeginPass:
			clears = append(clears, cmd.Clear)
		}
	}
	if len(clears) == 2 && (!clears[0].Color || !clears[0].Depth || clears[1].Color || clears[1].Depth) {
		t.Errorf("clear options = %+v, want the opaque pass cleared only", clears)
	}
	wantDraws := r.OpaqueBatches().Len() + r.AlphaBatches().Len()
	if len(draws) != wantDraws {
		t.Fatalf("draws = %d, want %d", len(draws), wantDraws)
	}
	last := draws[len(draws)-1]
	if int(last.InstanceStart) != r.OpaqueBatches().NumInstances() {
		t.Errorf("alpha draw instance start = %d, want %d", last.InstanceStart, r.OpaqueBatches().NumInstances())
	}
}

type debugCounter struct {
	boxes, spheres, frustums int
}

func (d *debugCounter) AddBoundingBox(common.BoundingBox, colorful.Color, bool) { d.boxes++ }
func (d *debugCounter) AddSphere(common.Sphere, colorful.Color, bool)           { d.spheres++ }
func (d *debugCounter) AddFrustum(common.Frustum, colorful.Color, bool)         { d.frustums++ }

func TestRenderDebug(t *testing.T) {
	a := newTestAssets()
	s := scene.NewScene("debug", scene.WithDrawables(
		a.box(a.opaque, mgl32.Vec3{0, 0, -10}),
		a.box(a.opaque, mgl32.Vec3{0, 0, 10}),
		scene.NewLightDrawable(light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 0, -9}))),
		scene.NewLightDrawable(light.NewLight(light.LightTypeSpot, light.WithPosition(mgl32.Vec3{0, 2, -9}))),
	))

	r := newTestRenderer(graphics.NewRecorder())
	r.PrepareView(s, camera.NewCamera(), false, false)

	var d debugCounter
	r.RenderDebug(&d)
	if d.boxes != 1 || d.spheres != 1 || d.frustums != 1 {
		t.Errorf("debug shapes = %+v, want one of each", d)
	}
}
