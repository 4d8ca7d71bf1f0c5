package scene

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Octant is one cube of the loose octree. Its culling box is twice its nominal size, so a
// drawable fits any octant whose nominal cube holds the drawable's center, as long as the
// drawable is no larger than the octant's half size.
type Octant struct {
	center     mgl32.Vec3
	halfSize   float32
	cullingBox common.BoundingBox
	level      int

	parent      *Octant
	children    [8]*Octant
	numChildren int
	drawables   []*Drawable
}

func newOctant(parent *Octant, center mgl32.Vec3, halfSize float32, level int) *Octant {
	loose := mgl32.Vec3{halfSize * 2, halfSize * 2, halfSize * 2}
	return &Octant{
		center:     center,
		halfSize:   halfSize,
		cullingBox: common.NewBoundingBox(center.Sub(loose), center.Add(loose)),
		level:      level,
		parent:     parent,
	}
}

func (o *Octant) Center() mgl32.Vec3 {
	return o.center
}

// HalfSize returns half the edge length of the nominal cube.
func (o *Octant) HalfSize() float32 {
	return o.halfSize
}

// CullingBox returns the loose bounds every drawable of this octant and its children lies within.
func (o *Octant) CullingBox() common.BoundingBox {
	return o.cullingBox
}

// Level returns the depth of the octant, 0 for the root.
func (o *Octant) Level() int {
	return o.level
}

func (o *Octant) Parent() *Octant {
	return o.parent
}

// Child returns the child at index i (bit 0 = +X, bit 1 = +Y, bit 2 = +Z), or nil.
func (o *Octant) Child(i int) *Octant {
	if i < 0 || i >= 8 {
		return nil
	}
	return o.children[i]
}

// Children returns all eight child slots. Missing children are nil.
func (o *Octant) Children() [8]*Octant {
	return o.children
}

func (o *Octant) NumChildren() int {
	return o.numChildren
}

// Drawables returns the drawables stored directly in this octant. The slice must not be modified.
func (o *Octant) Drawables() []*Drawable {
	return o.drawables
}

// IsEmpty reports whether the octant holds no drawables and has no children.
func (o *Octant) IsEmpty() bool {
	return len(o.drawables) == 0 && o.numChildren == 0
}

func (o *Octant) childIndex(position mgl32.Vec3) int {
	i := 0
	if position[0] >= o.center[0] {
		i |= 1
	}
	if position[1] >= o.center[1] {
		i |= 2
	}
	if position[2] >= o.center[2] {
		i |= 4
	}
	return i
}

func (o *Octant) createChild(i int) *Octant {
	if o.children[i] != nil {
		return o.children[i]
	}
	q := o.halfSize * 0.5
	offset := mgl32.Vec3{-q, -q, -q}
	if i&1 != 0 {
		offset[0] = q
	}
	if i&2 != 0 {
		offset[1] = q
	}
	if i&4 != 0 {
		offset[2] = q
	}
	child := newOctant(o, o.center.Add(offset), q, o.level+1)
	o.children[i] = child
	o.numChildren++
	return child
}

// Octree is a loose octree of drawables.
//
// The tree is only modified by Insert, Remove and Update. None of them may run while a view is
// being prepared; transform changes during a frame are queued with QueueUpdate instead.
type Octree struct {
	root      *Octant
	numLevels int
	halfSize  float32

	mu          *sync.Mutex
	updateQueue []*Drawable
	queued      map[*Drawable]struct{}
}

// NewOctree creates an empty octree.
//
// Parameters:
//   - options: world size and level count options
//
// Returns:
//   - *Octree: the octree
func NewOctree(options ...OctreeBuilderOption) *Octree {
	o := &Octree{
		numLevels: DefaultOctreeLevels,
		halfSize:  DefaultOctreeHalfSize,
		mu:        &sync.Mutex{},
		queued:    make(map[*Drawable]struct{}),
	}
	for _, opt := range options {
		opt(o)
	}
	o.root = newOctant(nil, mgl32.Vec3{}, o.halfSize, 0)
	return o
}

// Root returns the root octant.
func (o *Octree) Root() *Octant {
	return o.root
}

func (o *Octree) NumLevels() int {
	return o.numLevels
}

// Insert adds a drawable to the deepest octant that fits it. A drawable already in another
// octree is moved.
func (o *Octree) Insert(d *Drawable) {
	if d.octree != nil && d.octree != o {
		d.octree.Remove(d)
	}
	if d.octant != nil {
		d.octant.drawables = slices.DeleteFunc(d.octant.drawables, func(x *Drawable) bool { return x == d })
		d.octant = nil
	}
	d.octree = o

	box := d.WorldBoundingBox()
	center := box.Center()
	h := o.root.halfSize
	rootCube := common.NewBoundingBoxFromCenter(o.root.center, mgl32.Vec3{h, h, h})
	target := o.root
	if rootCube.IsPointInside(center) && o.root.cullingBox.IsInside(box) == common.Inside {
		size := box.Size()
		maxSize := math32.Max(size[0], math32.Max(size[1], size[2]))
		for target.level < o.numLevels-1 && maxSize < target.halfSize {
			target = target.createChild(target.childIndex(center))
		}
	}

	target.drawables = append(target.drawables, d)
	d.octant = target
}

// Remove takes a drawable out of the octree and prunes octants left empty.
func (o *Octree) Remove(d *Drawable) {
	if d.octree != o {
		return
	}
	o.mu.Lock()
	if _, ok := o.queued[d]; ok {
		delete(o.queued, d)
		o.updateQueue = slices.DeleteFunc(o.updateQueue, func(x *Drawable) bool { return x == d })
	}
	o.mu.Unlock()

	octant := d.octant
	if octant != nil {
		octant.drawables = slices.DeleteFunc(octant.drawables, func(x *Drawable) bool { return x == d })
		o.prune(octant)
	}
	d.octant = nil
	d.octree = nil
}

func (o *Octree) prune(octant *Octant) {
	for octant != nil && octant != o.root && octant.IsEmpty() {
		parent := octant.parent
		for i, c := range parent.children {
			if c == octant {
				parent.children[i] = nil
				parent.numChildren--
				break
			}
		}
		octant = parent
	}
}

// QueueUpdate schedules a drawable for reinsertion on the next Update. It is safe for concurrent use.
func (o *Octree) QueueUpdate(d *Drawable) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.queued[d]; ok {
		return
	}
	o.queued[d] = struct{}{}
	o.updateQueue = append(o.updateQueue, d)
}

// Update reinserts every queued drawable whose bounds no longer fit its octant.
//
// Returns:
//   - int: the number of drawables processed
func (o *Octree) Update() int {
	o.mu.Lock()
	queue := o.updateQueue
	o.updateQueue = nil
	clear(o.queued)
	o.mu.Unlock()

	for _, d := range queue {
		if d.octree != o {
			continue
		}
		box := d.WorldBoundingBox()
		if d.octant != nil && d.octant != o.root && d.octant.cullingBox.IsInside(box) == common.Inside {
			size := box.Size()
			maxSize := math32.Max(size[0], math32.Max(size[1], size[2]))
			// Still fits and could not go one level deeper.
			if maxSize >= d.octant.halfSize || d.octant.level >= o.numLevels-1 {
				continue
			}
		}
		old := d.octant
		o.Insert(d)
		if old != nil && old != d.octant {
			o.prune(old)
		}
	}
	return len(queue)
}

// NumQueued returns the number of drawables waiting for Update.
func (o *Octree) NumQueued() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.updateQueue)
}

// FindDrawables collects drawables accepted by filter whose bounds pass test. Octants fully
// inside skip the per-drawable test.
//
// Parameters:
//   - dest: the slice to append to
//   - test: classifies a box against the query volume
//   - filter: accepts a drawable, or nil to accept all
//
// Returns:
//   - []*Drawable: dest with the matches appended
func (o *Octree) FindDrawables(dest []*Drawable, test func(common.BoundingBox) common.Intersection, filter func(*Drawable) bool) []*Drawable {
	return o.collect(dest, o.root, test, filter, false)
}

func (o *Octree) collect(dest []*Drawable, octant *Octant, test func(common.BoundingBox) common.Intersection, filter func(*Drawable) bool, inside bool) []*Drawable {
	if !inside {
		switch test(octant.cullingBox) {
		case common.Outside:
			// The root also holds drawables that did not fit the world bounds.
			if octant != o.root {
				return dest
			}
		case common.Inside:
			inside = true
		}
	}

	for _, d := range octant.drawables {
		if filter != nil && !filter(d) {
			continue
		}
		if inside || test(d.WorldBoundingBox()) != common.Outside {
			dest = append(dest, d)
		}
	}
	for _, child := range octant.children {
		if child != nil {
			dest = o.collect(dest, child, test, filter, inside)
		}
	}
	return dest
}

// FindShadowCasters collects enabled shadow-casting geometry drawables inside a frustum.
func (o *Octree) FindShadowCasters(dest []*Drawable, frustum *common.Frustum) []*Drawable {
	return o.FindDrawables(dest, frustum.IsInside, isShadowCaster)
}

// FindShadowCastersInSphere collects enabled shadow-casting geometry drawables inside a sphere.
func (o *Octree) FindShadowCastersInSphere(dest []*Drawable, sphere common.Sphere) []*Drawable {
	return o.FindDrawables(dest, sphere.IsInsideBox, isShadowCaster)
}

// FindOccluders collects enabled occluders inside a frustum.
func (o *Octree) FindOccluders(dest []*Drawable, frustum *common.Frustum) []*Drawable {
	return o.FindDrawables(dest, frustum.IsInside, func(d *Drawable) bool {
		return d.kind == KindOccluder && d.Enabled()
	})
}

func isShadowCaster(d *Drawable) bool {
	return d.kind == KindGeometry && d.castShadows && d.Enabled()
}

// Raycast returns the enabled drawables hit by a ray within maxDistance, nearest first.
//
// Parameters:
//   - ray: the ray to cast
//   - maxDistance: the farthest hit to report
//
// Returns:
//   - []RaycastResult: the hits sorted by distance
func (o *Octree) Raycast(ray common.Ray, maxDistance float32) []RaycastResult {
	var results []RaycastResult
	o.raycast(&results, o.root, ray, maxDistance)
	slices.SortStableFunc(results, func(a, b RaycastResult) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
	return results
}

func (o *Octree) raycast(results *[]RaycastResult, octant *Octant, ray common.Ray, maxDistance float32) {
	if octant != o.root && !hit(ray.HitDistance(octant.cullingBox), maxDistance) {
		return
	}
	for _, d := range octant.drawables {
		if !d.Enabled() {
			continue
		}
		dist := d.OnRaycast(ray)
		if hit(dist, maxDistance) {
			*results = append(*results, RaycastResult{Drawable: d, Position: ray.Point(dist), Distance: dist})
		}
	}
	for _, child := range octant.children {
		if child != nil {
			o.raycast(results, child, ray, maxDistance)
		}
	}
}

func hit(distance, maxDistance float32) bool {
	return !math32.IsInf(distance, 1) && distance <= maxDistance
}
