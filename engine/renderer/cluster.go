package renderer

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/task"
	"github.com/go-gl/mathgl/mgl32"
)

// clusterGrid is the view-space grid of light clusters. Cell frustums only depend on the
// projection, so they are rebuilt when it changes.
type clusterGrid struct {
	valid    bool
	lastProj mgl32.Mat4
	frustums [light.NumClusters]common.Frustum
	boxes    [light.NumClusters]common.BoundingBox

	numLights [light.NumClusters]uint8
	data      []byte
}

// clusterIndex orders cells by row, then depth slice, then column, matching the cluster texture
// layout of NumClustersX*NumClustersZ texels by NumClustersY rows.
func clusterIndex(x, y, z int) int {
	return (y*light.NumClustersZ+z)*light.NumClustersX + x
}

func (g *clusterGrid) init() {
	g.data = make([]byte, light.NumClusters*light.MaxLightsPerCluster)
}

// update rebuilds the cell frustums if the camera projection changed and reports whether it did.
func (g *clusterGrid) update(cam camera.Camera) bool {
	proj := cam.ProjectionMatrix()
	if g.valid && proj == g.lastProj {
		return false
	}
	g.valid = true
	g.lastProj = proj

	inv := cam.InverseProjectionMatrix()
	near, far := cam.Near(), cam.Far()
	const stepX = 2.0 / light.NumClustersX
	const stepY = 2.0 / light.NumClustersY

	for y := range light.NumClustersY {
		for x := range light.NumClustersX {
			ndcMin := mgl32.Vec3{-1 + float32(x)*stepX, -1 + float32(y)*stepY, 0}
			ndcMax := mgl32.Vec3{ndcMin[0] + stepX, ndcMin[1] + stepY, 1}
			column := common.NewFrustumFromNDC(ndcMin, ndcMax, inv)

			for z := range light.NumClustersZ {
				sliceNear, sliceFar := light.ClusterSliceRange(z, near, far)
				var v [8]mgl32.Vec3
				for i := range 4 {
					v[i] = pointAtDepth(column.Vertices[i], column.Vertices[i+4], sliceNear)
					v[i+4] = pointAtDepth(column.Vertices[i], column.Vertices[i+4], sliceFar)
				}
				idx := clusterIndex(x, y, z)
				g.frustums[idx] = common.NewFrustumFromVertices(v)
				g.boxes[idx] = common.BoundingBoxFromPoints(v[:]...)
			}
		}
	}
	return true
}

// pointAtDepth interpolates along a view-space frustum edge to the given view depth.
func pointAtDepth(nearPoint, farPoint mgl32.Vec3, depth float32) mgl32.Vec3 {
	dn, df := -nearPoint[2], -farPoint[2]
	if df-dn < common.Epsilon {
		return nearPoint
	}
	t := (depth - dn) / (df - dn)
	return nearPoint.Add(farPoint.Sub(nearPoint).Mul(t))
}

func (r *renderer) cullLightsTask(z int) task.Task {
	return task.Task{
		Name: "cull-lights",
		Do: func(int) {
			r.cullLightsToSlice(z)
			r.pendingClusters.Done()
		},
	}
}

// cullLightsToSlice rewrites the clusters of one depth slice. Point lights are tested as
// view-space spheres and spot lights by the bounds of their view-space frustum.
func (r *renderer) cullLightsToSlice(z int) {
	g := &r.clusters
	for y := range light.NumClustersY {
		for x := range light.NumClustersX {
			idx := clusterIndex(x, y, z)
			g.numLights[idx] = 0
			clear(g.data[idx*light.MaxLightsPerCluster : (idx+1)*light.MaxLightsPerCluster])
		}
	}

	sliceNear, sliceFar := light.ClusterSliceRange(z, r.camera.Near(), r.camera.Far())
	for i, l := range r.lights {
		switch l.Type() {
		case light.LightTypePoint:
			s := common.Sphere{Center: mgl32.TransformCoordinate(l.Position(), r.viewMatrix), Radius: l.Range()}
			depth := -s.Center[2]
			if depth+s.Radius < sliceNear || depth-s.Radius > sliceFar {
				continue
			}
			for y := range light.NumClustersY {
				for x := range light.NumClustersX {
					idx := clusterIndex(x, y, z)
					if s.IsInsideBox(g.boxes[idx]) == common.Outside || g.frustums[idx].IsInsideSphere(s) == common.Outside {
						continue
					}
					g.add(idx, i)
				}
			}

		case light.LightTypeSpot:
			f := l.WorldFrustum().Transformed(r.viewMatrix)
			box := f.BoundingBox()
			if -box.Max[2] > sliceFar || -box.Min[2] < sliceNear {
				continue
			}
			for y := range light.NumClustersY {
				for x := range light.NumClustersX {
					idx := clusterIndex(x, y, z)
					if g.boxes[idx].IsInside(box) == common.Outside || g.frustums[idx].IsInside(box) == common.Outside {
						continue
					}
					g.add(idx, i)
				}
			}
		}
	}
}

// add stores a 1-based light index in a cell. Lights past a full cell are dropped from it.
func (g *clusterGrid) add(idx, lightIndex int) {
	n := int(g.numLights[idx])
	if n >= light.MaxLightsPerCluster {
		return
	}
	g.data[idx*light.MaxLightsPerCluster+n] = uint8(lightIndex + 1)
	g.numLights[idx]++
}
