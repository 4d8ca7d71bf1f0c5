package material

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// MaterialDataSize is the byte size of MaterialData once marshalled.
const MaterialDataSize = 32

// MaterialData is the per-material uniform block.
// Size: 32 bytes (two vec4<f32>, std140 aligned).
type MaterialData struct {
	BaseColor [4]float32 // offset 0: RGBA albedo (16 bytes)
	Metallic  float32    // offset 16
	Roughness float32    // offset 20
	AlphaTest float32    // offset 24: fragments with alpha below this are discarded, 0 disables
	_         float32    // offset 28: padding
}

// Size returns the size of the MaterialData struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *MaterialData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the MaterialData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *MaterialData) Marshal() []byte {
	buf := make([]byte, MaterialDataSize)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(g.BaseColor[i]))
	}
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.AlphaTest))
	return buf
}
