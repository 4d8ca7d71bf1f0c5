package scene

const (
	// DefaultOctreeHalfSize is the default distance from the world origin to each root octant face.
	DefaultOctreeHalfSize float32 = 1000
	// DefaultOctreeLevels is the default number of octree levels, the root included.
	DefaultOctreeLevels = 8
)

// OctreeBuilderOption is a function that configures an octree during construction.
type OctreeBuilderOption func(*Octree)

// WithWorldSize is an option builder that sets the edge length of the root octant's nominal cube,
// centered on the origin. Drawables outside it are kept in the root.
//
// Parameters:
//   - size: the world edge length, values below 1 are ignored
//
// Returns:
//   - OctreeBuilderOption: a function that applies the world size option to an octree
func WithWorldSize(size float32) OctreeBuilderOption {
	return func(o *Octree) {
		if size >= 1 {
			o.halfSize = size * 0.5
		}
	}
}

// WithLevels is an option builder that sets the number of octree levels, the root included.
//
// Parameters:
//   - levels: the level count, clamped to at least 1
//
// Returns:
//   - OctreeBuilderOption: a function that applies the levels option to an octree
func WithLevels(levels int) OctreeBuilderOption {
	return func(o *Octree) {
		o.numLevels = max(levels, 1)
	}
}
