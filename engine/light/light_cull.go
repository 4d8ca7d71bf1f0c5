package light

import "github.com/chewxy/math32"

const (
	// NumClustersX is the number of light cluster columns across the view.
	NumClustersX = 16
	// NumClustersY is the number of light cluster rows across the view.
	NumClustersY = 8
	// NumClustersZ is the number of depth slices of the light cluster grid.
	NumClustersZ = 8
	// NumClusters is the total number of cells in the light cluster grid.
	NumClusters = NumClustersX * NumClustersY * NumClustersZ

	// MaxClusterLights is the maximum number of point and spot lights assigned to clusters per frame.
	// Light indices are stored 1-based in a single byte, leaving 0 as the list terminator.
	MaxClusterLights = 255

	// MaxLightsPerCluster is the number of light index slots in each cluster cell.
	// Lights overlapping a full cell are dropped from that cell only.
	MaxLightsPerCluster = 16
)

// ClusterSliceRange returns the view depth range of one cluster Z slice.
// Slices are spaced quadratically so near slices are thin, and the first slice starts at the near clip.
//
// Parameters:
//   - z: the slice index in [0, NumClustersZ)
//   - near: the camera near clip distance
//   - far: the camera far clip distance
//
// Returns:
//   - float32: the near depth of the slice
//   - float32: the far depth of the slice
func ClusterSliceRange(z int, near, far float32) (float32, float32) {
	sliceNear := near
	if z > 0 {
		f := float32(z) / NumClustersZ
		sliceNear = math32.Max(f*f*far, near)
	}
	f := float32(z+1) / NumClustersZ
	return sliceNear, f * f * far
}
