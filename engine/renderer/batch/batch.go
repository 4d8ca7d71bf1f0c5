// Package batch holds draw batches and the queues they are sorted in before submission.
package batch

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// SortMode selects how a Queue orders its batches.
type SortMode int

const (
	// SortState groups equal (pass, material, geometry) batches, then orders them front to back.
	SortState SortMode = iota
	// SortBackToFront orders batches by decreasing distance.
	SortBackToFront
)

// Batch is one draw submission: a geometry drawn with one material pass, possibly instanced.
type Batch struct {
	Pass     *material.Pass
	Material material.Material
	Geometry *material.Geometry
	// WorldTransform is the drawable's transform. After Sort it has been copied to the queue's
	// instance transforms.
	WorldTransform mgl32.Mat4
	// Distance is the camera distance used for ordering.
	Distance float32
	// InstanceStart and InstanceCount select this batch's range of Queue.InstanceTransforms. They
	// are set by Sort.
	InstanceStart int
	InstanceCount int
}

// SortKey packs the pass, material and geometry IDs. Batches with equal keys can be instanced
// as long as every ID fits its field (16, 24 and 24 bits).
func (b *Batch) SortKey() uint64 {
	return uint64(passID(b)&0xffff)<<48 | uint64(materialID(b)&0xffffff)<<24 | uint64(geometryID(b)&0xffffff)
}

// Instanced reports whether the batch draws more than one instance.
func (b *Batch) Instanced() bool {
	return b.InstanceCount > 1
}

func passID(b *Batch) uint32 {
	if b.Pass == nil {
		return 0
	}
	return b.Pass.ID()
}

func materialID(b *Batch) uint32 {
	if b.Material == nil {
		return 0
	}
	return b.Material.ID()
}

func geometryID(b *Batch) uint32 {
	if b.Geometry == nil {
		return 0
	}
	return b.Geometry.ID()
}

// sameState reports whether two batches can share one instanced draw.
func sameState(a, b *Batch) bool {
	return a.Pass == b.Pass && a.Material == b.Material && a.Geometry == b.Geometry
}

func compareState(a, b Batch) int {
	if c := cmp.Compare(passID(&a), passID(&b)); c != 0 {
		return c
	}
	if c := cmp.Compare(materialID(&a), materialID(&b)); c != 0 {
		return c
	}
	if c := cmp.Compare(geometryID(&a), geometryID(&b)); c != 0 {
		return c
	}
	return cmp.Compare(a.Distance, b.Distance)
}

func compareBackToFront(a, b Batch) int {
	return cmp.Compare(b.Distance, a.Distance)
}

// Queue is an ordered list of batches plus the instance transforms they reference.
type Queue struct {
	Batches            []Batch
	InstanceTransforms []mgl32.Mat4
}

// Clear empties the queue, keeping its storage.
func (q *Queue) Clear() {
	q.Batches = q.Batches[:0]
	q.InstanceTransforms = q.InstanceTransforms[:0]
}

// Add appends one unsorted batch.
func (q *Queue) Add(b Batch) {
	q.Batches = append(q.Batches, b)
}

// Append appends unsorted batches, keeping their order.
func (q *Queue) Append(batches []Batch) {
	q.Batches = append(q.Batches, batches...)
}

func (q *Queue) Len() int {
	return len(q.Batches)
}

// Sort orders the batches and fills the instance transforms. Both orders are stable.
//
// With SortState and instancing enabled, runs of consecutive batches sharing pass, material and
// geometry are merged into one batch whose instance range covers every member's transform. Other
// batches reference a single transform.
//
// Parameters:
//   - mode: the ordering rule
//   - instancing: whether equal state batches are merged
func (q *Queue) Sort(mode SortMode, instancing bool) {
	switch mode {
	case SortState:
		slices.SortStableFunc(q.Batches, compareState)
	case SortBackToFront:
		slices.SortStableFunc(q.Batches, compareBackToFront)
		instancing = false
	}

	q.InstanceTransforms = q.InstanceTransforms[:0]
	merged := q.Batches[:0]
	for i := 0; i < len(q.Batches); {
		b := q.Batches[i]
		j := i + 1
		if instancing {
			for j < len(q.Batches) && sameState(&q.Batches[j], &b) {
				j++
			}
		}
		b.InstanceStart = len(q.InstanceTransforms)
		b.InstanceCount = j - i
		for k := i; k < j; k++ {
			q.InstanceTransforms = append(q.InstanceTransforms, q.Batches[k].WorldTransform)
		}
		// merged never overtakes i, so writing in place is safe.
		merged = append(merged, b)
		i = j
	}
	q.Batches = merged
}

// NumInstances returns the number of drawn instances, which is the number of batches before
// instanced merging.
func (q *Queue) NumInstances() int {
	return len(q.InstanceTransforms)
}
