package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b float32) bool {
	return math32.Abs(a-b) <= 1e-3
}

func TestProjectionDepthRange(t *testing.T) {
	c := NewCamera(WithNear(1), WithFar(100), WithFov(90))
	proj := c.ProjectionMatrix()

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	if !approx(near.Z()/near.W(), 0) {
		t.Errorf("near plane depth = %v, want 0", near.Z()/near.W())
	}
	if !approx(far.Z()/far.W(), 1) {
		t.Errorf("far plane depth = %v, want 1", far.Z()/far.W())
	}
}

func TestOrthographicNearIsZero(t *testing.T) {
	c := NewCamera(WithNear(5), WithFar(50), WithOrthographic(10))
	if c.Near() != 0 {
		t.Fatalf("orthographic near = %v, want 0", c.Near())
	}

	proj := c.ProjectionMatrix()
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -50, 1})
	if !approx(far.Z(), 1) {
		t.Errorf("orthographic far depth = %v, want 1", far.Z())
	}
	edge := proj.Mul4x1(mgl32.Vec4{0, 5, -10, 1})
	if !approx(edge.Y(), 1) {
		t.Errorf("orthographic top edge = %v, want 1", edge.Y())
	}
}

func TestViewMatrixInvertsTransform(t *testing.T) {
	c := NewCamera(
		WithPosition(mgl32.Vec3{3, 4, 5}),
		WithRotation(common.EulerToQuat(30, 60, 0)),
	)
	product := c.ViewMatrix().Mul4(c.WorldTransform())
	ident := mgl32.Ident4()
	for i := range product {
		if !approx(product[i], ident[i]) {
			t.Fatalf("view * world = %v, want identity", product)
		}
	}
}

func TestWorldFrustumFollowsTransform(t *testing.T) {
	c := NewCamera(WithNear(1), WithFar(100), WithFov(60))
	c.SetTransform(mgl32.Vec3{0, 0, 50}, common.LookRotation(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}))

	f := c.WorldFrustum()
	if !f.IsPointInside(mgl32.Vec3{20, 0, 50}) {
		t.Error("point ahead of the camera must be inside")
	}
	if f.IsPointInside(mgl32.Vec3{0, 0, 30}) {
		t.Error("point beside the camera must be outside")
	}

	split := c.WorldSplitFrustum(10, 20)
	if split.IsPointInside(mgl32.Vec3{5, 0, 50}) || !split.IsPointInside(mgl32.Vec3{15, 0, 50}) {
		t.Error("split frustum must cover only its depth range")
	}
}

func TestDistance(t *testing.T) {
	c := NewCamera()
	if d := c.Distance(mgl32.Vec3{3, 0, -4}); !approx(d, 5) {
		t.Errorf("perspective distance = %v, want 5", d)
	}

	c.SetOrthographic(true)
	if d := c.Distance(mgl32.Vec3{3, 0, -4}); !approx(d, 4) {
		t.Errorf("orthographic distance = %v, want 4", d)
	}
}

func TestProjectionVersion(t *testing.T) {
	c := NewCamera()
	v := c.ProjectionVersion()
	c.SetPosition(mgl32.Vec3{1, 2, 3})
	if c.ProjectionVersion() != v {
		t.Error("moving the camera must not change the projection version")
	}
	c.SetAspect(2)
	if c.ProjectionVersion() == v {
		t.Error("changing the aspect must change the projection version")
	}
}
