// package common contains the math and geometry types shared by the scene, light and renderer packages.
// They are plain value types rather than interface-wrapped structs.
package common

import (
	"cmp"
	"strconv"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the smallest meaningful difference used by clamps and comparisons.
const Epsilon float32 = 1e-6

// LargeValue bounds boxes that should contain everything, such as a directional light's.
const LargeValue float32 = 1e20

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// MaxPowerOfTwo is the largest power of two an int can hold.
const MaxPowerOfTwo = 1 << (strconv.IntSize - 2)

// NextPowerOfTwo returns the smallest power of two that is greater than or equal to value.
// Values below 1 return 1 and values above MaxPowerOfTwo return MaxPowerOfTwo.
func NextPowerOfTwo(value int) int {
	if value >= MaxPowerOfTwo {
		return MaxPowerOfTwo
	}
	ret := 1
	for ret < value {
		ret <<= 1
	}
	return ret
}

// IsPowerOfTwo reports whether value is a positive power of two.
func IsPowerOfTwo(value int) bool {
	return value > 0 && value&(value-1) == 0
}

// Clamp limits value to the [lo, hi] range.
func Clamp[T cmp.Ordered](value, lo, hi T) T {
	return max(lo, min(value, hi))
}

// Lerp linearly interpolates from a to b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// NewTransform builds a translation * rotation * scale matrix.
//
// Parameters:
//   - position: world translation
//   - rotation: world orientation
//   - scale: per-axis scale
//
// Returns:
//   - mgl32.Mat4: the column-major transform
func NewTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(rotation.Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// EulerToQuat builds a rotation from Euler angles in degrees, applied as yaw (Y), then pitch (X), then roll (Z).
func EulerToQuat(pitch, yaw, roll float32) mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(yaw), mgl32.Vec3{0, 1, 0}).
		Mul(mgl32.QuatRotate(mgl32.DegToRad(pitch), mgl32.Vec3{1, 0, 0})).
		Mul(mgl32.QuatRotate(mgl32.DegToRad(roll), mgl32.Vec3{0, 0, 1}))
}

// LookRotation returns the orientation whose forward axis (-Z) points along direction.
// When direction is nearly parallel to up, the X axis is used as the up reference instead.
//
// Parameters:
//   - direction: the desired forward direction, need not be normalized
//   - up: the preferred up reference
//
// Returns:
//   - mgl32.Quat: the orientation, or identity for a zero direction
func LookRotation(direction, up mgl32.Vec3) mgl32.Quat {
	if direction.Len() < Epsilon {
		return mgl32.QuatIdent()
	}
	forward := direction.Normalize()
	if math32.Abs(forward.Dot(up.Normalize())) > 0.999 {
		up = mgl32.Vec3{1, 0, 0}
		if math32.Abs(forward[0]) > 0.999 {
			up = mgl32.Vec3{0, 0, 1}
		}
	}

	back := forward.Mul(-1)
	right := up.Cross(back).Normalize()
	newUp := back.Cross(right)

	m := mgl32.Mat4{
		right[0], right[1], right[2], 0,
		newUp[0], newUp[1], newUp[2], 0,
		back[0], back[1], back[2], 0,
		0, 0, 0, 1,
	}
	return mgl32.Mat4ToQuat(m).Normalize()
}
