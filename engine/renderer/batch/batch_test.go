package batch

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

type fixture struct {
	passA, passB *material.Pass
	matA, matB   material.Material
	geoA, geoB   *material.Geometry
}

func newFixture() fixture {
	box := common.NewBoundingBox(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	return fixture{
		passA: material.NewPass(material.PassOpaque, "a"),
		passB: material.NewPass(material.PassOpaque, "b"),
		matA:  material.NewMaterial(),
		matB:  material.NewMaterial(),
		geoA:  material.NewGeometry(nil, nil, 0, 36, box),
		geoB:  material.NewGeometry(nil, nil, 0, 36, box),
	}
}

func translated(x float32) mgl32.Mat4 {
	return mgl32.Translate3D(x, 0, 0)
}

func TestStateSortGroupsAndInstances(t *testing.T) {
	f := newFixture()
	var q Queue
	q.Add(Batch{Pass: f.passB, Material: f.matA, Geometry: f.geoA, Distance: 5, WorldTransform: translated(1)})
	q.Add(Batch{Pass: f.passA, Material: f.matB, Geometry: f.geoA, Distance: 1, WorldTransform: translated(2)})
	q.Add(Batch{Pass: f.passA, Material: f.matA, Geometry: f.geoB, Distance: 3, WorldTransform: translated(3)})
	q.Add(Batch{Pass: f.passA, Material: f.matA, Geometry: f.geoB, Distance: 2, WorldTransform: translated(4)})
	q.Add(Batch{Pass: f.passB, Material: f.matA, Geometry: f.geoA, Distance: 4, WorldTransform: translated(5)})
	q.Add(Batch{Pass: f.passA, Material: f.matA, Geometry: f.geoB, Distance: 2, WorldTransform: translated(6)})

	q.Sort(SortState, true)

	if q.NumInstances() != 6 {
		t.Fatalf("NumInstances() = %d, want 6", q.NumInstances())
	}
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 merged batches", q.Len())
	}

	want := []struct {
		pass     *material.Pass
		mat      material.Material
		count    int
		distance float32
	}{
		{pass: f.passA, mat: f.matA, count: 3, distance: 2},
		{pass: f.passA, mat: f.matB, count: 1, distance: 1},
		{pass: f.passB, mat: f.matA, count: 2, distance: 4},
	}
	start := 0
	for i, w := range want {
		b := q.Batches[i]
		if b.Pass != w.pass || b.Material != w.mat {
			t.Errorf("batch %d has the wrong state", i)
		}
		if b.InstanceCount != w.count || b.InstanceStart != start {
			t.Errorf("batch %d instances = [%d, +%d), want [%d, +%d)", i, b.InstanceStart, b.InstanceCount, start, w.count)
		}
		if b.Distance != w.distance {
			t.Errorf("batch %d distance = %v, want %v", i, b.Distance, w.distance)
		}
		start += w.count
	}

	// Within the first group: distances 2, 2, 3 with the equal pair in insertion order.
	wantX := []float32{4, 6, 3}
	for i, x := range wantX {
		if got := q.InstanceTransforms[i].Col(3)[0]; got != x {
			t.Errorf("instance %d x = %v, want %v", i, got, x)
		}
	}
}

func TestStateSortWithoutInstancing(t *testing.T) {
	f := newFixture()
	var q Queue
	for i := 0; i < 4; i++ {
		q.Add(Batch{Pass: f.passA, Material: f.matA, Geometry: f.geoA, Distance: float32(4 - i)})
	}
	q.Sort(SortState, false)

	if q.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", q.Len())
	}
	for i := range q.Batches {
		if q.Batches[i].InstanceCount != 1 || q.Batches[i].InstanceStart != i {
			t.Errorf("batch %d instances = %d at %d", i, q.Batches[i].InstanceCount, q.Batches[i].InstanceStart)
		}
		if i > 0 && q.Batches[i].Distance < q.Batches[i-1].Distance {
			t.Error("equal state batches are not front to back")
		}
	}
}

func TestBackToFrontSort(t *testing.T) {
	f := newFixture()
	var q Queue
	distances := []float32{3, 9, 1, 9, 4}
	for i, d := range distances {
		q.Add(Batch{Pass: f.passA, Material: f.matA, Geometry: f.geoA, Distance: d, WorldTransform: translated(float32(i))})
	}
	q.Sort(SortBackToFront, true)

	if q.Len() != len(distances) {
		t.Fatalf("Len() = %d, alpha batches must never merge", q.Len())
	}
	for i := 1; i < q.Len(); i++ {
		if q.Batches[i-1].Distance < q.Batches[i].Distance {
			t.Errorf("batch %d distance %v is nearer than batch %d distance %v", i-1, q.Batches[i-1].Distance, i, q.Batches[i].Distance)
		}
	}
	// The two batches at distance 9 keep their insertion order.
	if q.InstanceTransforms[0].Col(3)[0] != 1 || q.InstanceTransforms[1].Col(3)[0] != 3 {
		t.Error("equal distances are not in insertion order")
	}
}

func TestQueueClear(t *testing.T) {
	f := newFixture()
	var q Queue
	q.Append([]Batch{{Pass: f.passA}, {Pass: f.passB}})
	q.Sort(SortState, true)
	q.Clear()
	if q.Len() != 0 || q.NumInstances() != 0 {
		t.Errorf("Clear left %d batches and %d instances", q.Len(), q.NumInstances())
	}
}

func TestSortKey(t *testing.T) {
	f := newFixture()
	a := Batch{Pass: f.passA, Material: f.matA, Geometry: f.geoA}
	b := Batch{Pass: f.passA, Material: f.matA, Geometry: f.geoA, Distance: 10}
	c := Batch{Pass: f.passA, Material: f.matB, Geometry: f.geoA}
	if a.SortKey() != b.SortKey() {
		t.Error("distance changed the sort key")
	}
	if a.SortKey() == c.SortKey() {
		t.Error("different materials share a sort key")
	}
}
