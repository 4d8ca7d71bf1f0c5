package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightDataSize is the byte size of one marshaled LightData record.
const LightDataSize = 192

// DirLightDataSize is the byte size of one marshaled DirLightData record.
const DirLightDataSize = 192

// LightData is the GPU-aligned representation of one clustered point or spot light.
// Size: 192 bytes (five vec4, one mat4x4, three vec4).
type LightData struct {
	Position  mgl32.Vec4 // offset   0: world position, w = 1
	Direction mgl32.Vec4 // offset  16: direction toward the light (negated shine direction), w = 0
	// Attenuation holds 1/range, the spot cutoff cosine (-2 for point lights),
	// 1/(1-cutoff) and a constant 1.
	Attenuation      mgl32.Vec4 // offset  32
	Color            mgl32.Vec4 // offset  48: effective color, specular in w
	ShadowParameters mgl32.Vec4 // offset  64: half texel size, strength, 0
	ShadowMatrix     mgl32.Mat4 // offset  80: world to shadow atlas UV and depth (spot only)
	// PointShadow packs PointShadowParams as
	// (faceSize.xy, offset.xy), (zoom, depthQ, depthR, 0), (position.xyz, 0).
	PointShadow [3]mgl32.Vec4 // offset 144
}

// Size returns the size of the LightData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (192)
func (d *LightData) Size() int {
	return int(unsafe.Sizeof(*d))
}

// Marshal serializes the LightData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 192-byte buffer ready for GPU upload
func (d *LightData) Marshal() []byte {
	buf := make([]byte, LightDataSize)
	d.MarshalTo(buf)
	return buf
}

// MarshalTo writes the record into buf, which must hold at least LightDataSize bytes.
func (d *LightData) MarshalTo(buf []byte) {
	off := putVec4(buf, 0, d.Position)
	off = putVec4(buf, off, d.Direction)
	off = putVec4(buf, off, d.Attenuation)
	off = putVec4(buf, off, d.Color)
	off = putVec4(buf, off, d.ShadowParameters)
	off = putMat4(buf, off, d.ShadowMatrix)
	for _, v := range d.PointShadow {
		off = putVec4(buf, off, v)
	}
}

// NewLightData converts a point or spot light into its GPU record.
// Shadow fields stay zero unless the light has a shadow map this frame.
//
// Parameters:
//   - l: the light to convert
//
// Returns:
//   - LightData: the GPU-aligned representation
func NewLightData(l Light) LightData {
	cutoff := float32(-2.0)
	if l.Type() == LightTypeSpot {
		cutoff = math32.Cos(mgl32.DegToRad(l.Fov() * 0.5))
	}
	invRange := 1.0 / math32.Max(l.Range(), 1e-4)
	invCutoff := 1.0 / math32.Max(1.0-cutoff, 1e-4)

	pos := l.Position()
	dir := l.Direction().Mul(-1)
	d := LightData{
		Position:    mgl32.Vec4{pos[0], pos[1], pos[2], 1},
		Direction:   mgl32.Vec4{dir[0], dir[1], dir[2], 0},
		Attenuation: mgl32.Vec4{invRange, cutoff, invCutoff, 1},
		Color:       l.EffectiveColor(),
	}

	if l.ShadowMap() == nil || len(l.ShadowViews()) == 0 {
		return d
	}
	d.ShadowParameters = l.ShadowParameters()
	if l.Type() == LightTypeSpot {
		d.ShadowMatrix = l.ShadowViews()[0].ShadowMatrix
	} else {
		p := l.PointShadowParams()
		d.PointShadow = [3]mgl32.Vec4{
			{p.FaceSize[0], p.FaceSize[1], p.Offset[0], p.Offset[1]},
			{p.Zoom, p.DepthQ, p.DepthR, 0},
			{p.Position[0], p.Position[1], p.Position[2], 0},
		}
	}
	return d
}

// MarshalLightData marshals light records back to back for a single buffer upload.
//
// Parameters:
//   - records: the light records in cluster index order
//
// Returns:
//   - []byte: len(records)*LightDataSize bytes, or nil when records is empty
func MarshalLightData(records []LightData) []byte {
	if len(records) == 0 {
		return nil
	}
	buf := make([]byte, len(records)*LightDataSize)
	for i := range records {
		records[i].MarshalTo(buf[i*LightDataSize:])
	}
	return buf
}

// DirLightData is the GPU-aligned representation of the single directional light.
// Size: 192 bytes (four vec4, two mat4x4).
type DirLightData struct {
	Direction mgl32.Vec4 // offset   0: direction toward the light, w = 0
	Color     mgl32.Vec4 // offset  16: effective color, specular in w
	// ShadowSplits holds the far depth of each cascade, the fade start depth and 1/fade range.
	ShadowSplits     mgl32.Vec4    // offset  32
	ShadowParameters mgl32.Vec4    // offset  48
	ShadowMatrices   [2]mgl32.Mat4 // offset  64: one per cascade
}

// Size returns the size of the DirLightData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (192)
func (d *DirLightData) Size() int {
	return int(unsafe.Sizeof(*d))
}

// Marshal serializes the DirLightData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 192-byte buffer ready for GPU upload
func (d *DirLightData) Marshal() []byte {
	buf := make([]byte, DirLightDataSize)
	off := putVec4(buf, 0, d.Direction)
	off = putVec4(buf, off, d.Color)
	off = putVec4(buf, off, d.ShadowSplits)
	off = putVec4(buf, off, d.ShadowParameters)
	for _, m := range d.ShadowMatrices {
		off = putMat4(buf, off, m)
	}
	return buf
}

// NewDirLightData converts the frame's directional light into its GPU record.
// A nil light yields a black light with no shadows.
//
// Parameters:
//   - l: the directional light, or nil
//   - mainCameraFar: the far clip of the main camera, bounding the cascade splits
//
// Returns:
//   - DirLightData: the GPU-aligned representation
func NewDirLightData(l Light, mainCameraFar float32) DirLightData {
	if l == nil {
		return DirLightData{}
	}

	dir := l.Direction().Mul(-1)
	d := DirLightData{
		Direction: mgl32.Vec4{dir[0], dir[1], dir[2], 0},
		Color:     l.EffectiveColor(),
	}

	views := l.ShadowViews()
	if l.ShadowMap() == nil || len(views) < 2 {
		return d
	}

	farSplit := math32.Min(mainCameraFar, l.ShadowMaxDistance())
	fadeStart := l.ShadowFadeStart() * farSplit
	fadeRange := math32.Max(farSplit-fadeStart, 1e-4)
	d.ShadowSplits = mgl32.Vec4{views[0].SplitMaxZ, views[1].SplitMaxZ, fadeStart, 1.0 / fadeRange}
	d.ShadowParameters = l.ShadowParameters()
	d.ShadowMatrices[0] = views[0].ShadowMatrix
	d.ShadowMatrices[1] = views[1].ShadowMatrix
	return d
}

func putVec4(buf []byte, off int, v mgl32.Vec4) int {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[off+i*4:off+(i+1)*4], math.Float32bits(v[i]))
	}
	return off + 16
}

func putMat4(buf []byte, off int, m mgl32.Mat4) int {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[off+i*4:off+(i+1)*4], math.Float32bits(m[i]))
	}
	return off + 64
}
