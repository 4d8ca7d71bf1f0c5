package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

func approxVec(a, b mgl32.Vec3) bool {
	return a.ApproxEqualThreshold(b, 1e-3)
}

func TestControllerSphericalPosition(t *testing.T) {
	tests := []struct {
		name         string
		azimuth      float32
		elevation    float32
		wantPosition mgl32.Vec3
		wantForward  mgl32.Vec3
	}{
		{"front", 0, 0, mgl32.Vec3{0, 1, 10}, mgl32.Vec3{0, 0, -1}},
		{"side", math32.Pi / 2, 0, mgl32.Vec3{10, 1, 0}, mgl32.Vec3{-1, 0, 0}},
		{"above", 0, math32.Pi / 4, mgl32.Vec3{0, 1 + 10*math32.Sin(math32.Pi/4), 10 * math32.Cos(math32.Pi/4)}, mgl32.Vec3{0, -math32.Sqrt2 / 2, -math32.Sqrt2 / 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewCameraController(
				WithTarget(mgl32.Vec3{0, 1, 0}),
				WithRadius(10),
				WithAzimuth(tt.azimuth),
				WithElevation(tt.elevation),
			)
			if !approxVec(cc.Position(), tt.wantPosition) {
				t.Errorf("position = %v, want %v", cc.Position(), tt.wantPosition)
			}

			c := NewCamera()
			cc.Apply(c)
			if !approxVec(c.Position(), tt.wantPosition) {
				t.Errorf("camera position = %v, want %v", c.Position(), tt.wantPosition)
			}
			if !approxVec(c.Forward(), tt.wantForward) {
				t.Errorf("camera forward = %v, want %v", c.Forward(), tt.wantForward)
			}
		})
	}
}

func TestControllerClamps(t *testing.T) {
	cc := NewCameraController(WithRadius(10), WithRadiusBounds(5, 20), WithElevationBounds(0, 1), WithZoomSpeed(2))

	cc.Zoom(10)
	if cc.Radius() != 5 {
		t.Errorf("radius after zoom in = %v, want 5", cc.Radius())
	}
	cc.SetRadius(100)
	if cc.Radius() != 20 {
		t.Errorf("radius = %v, want 20", cc.Radius())
	}
	cc.Orbit(0, 5)
	if cc.Elevation() != 1 {
		t.Errorf("elevation = %v, want 1", cc.Elevation())
	}
	cc.SetElevation(-1)
	if cc.Elevation() != 0 {
		t.Errorf("elevation = %v, want 0", cc.Elevation())
	}
}

func TestControllerPanKeepsOffset(t *testing.T) {
	cc := NewCameraController(WithRadius(10), WithElevation(0))
	before := cc.Position().Sub(cc.Target())

	cc.Pan(2, 0, 3)
	if !approxVec(cc.Target(), mgl32.Vec3{2, 0, -3}) {
		t.Errorf("target = %v, want (2, 0, -3)", cc.Target())
	}
	if !approxVec(cc.Position().Sub(cc.Target()), before) {
		t.Errorf("eye offset = %v, want %v", cc.Position().Sub(cc.Target()), before)
	}
}

func TestControllerUpdateOrbits(t *testing.T) {
	cc := NewCameraController(WithOrbitSpeed(0.5))
	cc.Update(2)
	if math32.Abs(cc.Azimuth()-1) > 1e-5 {
		t.Errorf("azimuth = %v, want 1", cc.Azimuth())
	}

	still := NewCameraController()
	still.Update(2)
	if still.Azimuth() != 0 {
		t.Errorf("azimuth without orbit speed = %v, want 0", still.Azimuth())
	}
}
