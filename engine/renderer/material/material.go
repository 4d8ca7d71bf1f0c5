package material

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-vis/engine/renderer/graphics"
)

var (
	nextPassID     atomic.Uint32
	nextMaterialID atomic.Uint32
)

// PassType selects the render queue a pass is drawn in.
type PassType int

const (
	// PassOpaque batches are sorted by state, then front to back.
	PassOpaque PassType = iota
	// PassAlpha batches are sorted back to front.
	PassAlpha
	// PassShadow batches are drawn into shadow maps.
	PassShadow

	numPassTypes
)

func (p PassType) String() string {
	switch p {
	case PassOpaque:
		return "opaque"
	case PassAlpha:
		return "alpha"
	case PassShadow:
		return "shadow"
	}
	return fmt.Sprintf("PassType(%d)", int(p))
}

// Pass is one way of drawing a material, identified by the render pipeline it uses.
type Pass struct {
	id          uint32
	passType    PassType
	pipelineKey string
}

// NewPass creates a pass with a process-unique ID.
//
// Parameters:
//   - passType: the queue the pass is drawn in
//   - pipelineKey: the render pipeline the backend resolves for this pass
//
// Returns:
//   - *Pass: the new pass
func NewPass(passType PassType, pipelineKey string) *Pass {
	return &Pass{id: nextPassID.Add(1), passType: passType, pipelineKey: pipelineKey}
}

func (p *Pass) ID() uint32 {
	return p.id
}

func (p *Pass) Type() PassType {
	return p.passType
}

func (p *Pass) PipelineKey() string {
	return p.pipelineKey
}

// material is the implementation of the Material interface.
type material struct {
	id        uint32
	name      string
	baseColor [4]float32
	metallic  float32
	roughness float32
	alphaTest float32
	passes    [numPassTypes]*Pass
	uniforms  *graphics.ConstantBuffer
}

// Material defines the interface for a render material: its surface properties, the passes it
// can be drawn with, and the per-material uniform block uploaded before its batches are drawn.
type Material interface {
	// ID retrieves the process-unique material identifier used in batch sort keys.
	//
	// Returns:
	//   - uint32: the material ID, never 0
	ID() uint32

	// Name retrieves the material name.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// AlphaTest retrieves the alpha cutoff below which fragments are discarded. 0 disables it.
	AlphaTest() float32

	// Pass retrieves the pass of a given type.
	//
	// Parameters:
	//   - passType: the queue to look up
	//
	// Returns:
	//   - *Pass: the pass, or nil if the material is not drawn in that queue
	Pass(passType PassType) *Pass

	// SetPass sets or clears (nil) the pass for its type.
	//
	// Parameters:
	//   - passType: the queue the pass belongs to
	//   - pass: the pass, or nil to remove it
	SetPass(passType PassType, pass *Pass)

	// Data returns the uniform block for the current surface properties.
	Data() MaterialData

	// Apply uploads the uniform block if needed and binds it to a constant buffer slot.
	// The constant buffer is created on the first call.
	//
	// Parameters:
	//   - backend: the backend the constant buffer lives on
	//   - slot: the constant buffer slot
	//
	// Returns:
	//   - error: a graphics error if the buffer could not be defined or uploaded
	Apply(backend graphics.Backend, slot int) error
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		id:        nextMaterialID.Add(1),
		baseColor: [4]float32{1, 1, 1, 1},
		metallic:  0.0,
		roughness: 1.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) ID() uint32 {
	return m.id
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) AlphaTest() float32 {
	return m.alphaTest
}

func (m *material) Pass(passType PassType) *Pass {
	if passType < 0 || passType >= numPassTypes {
		return nil
	}
	return m.passes[passType]
}

func (m *material) SetPass(passType PassType, pass *Pass) {
	if passType < 0 || passType >= numPassTypes {
		return
	}
	m.passes[passType] = pass
}

func (m *material) Data() MaterialData {
	return MaterialData{
		BaseColor: m.baseColor,
		Metallic:  m.metallic,
		Roughness: m.roughness,
		AlphaTest: m.alphaTest,
	}
}

func (m *material) Apply(backend graphics.Backend, slot int) error {
	if m.uniforms == nil {
		cb := graphics.NewConstantBuffer(backend, m.name)
		err := cb.Define(graphics.UsageDefault, []graphics.Constant{
			{Type: graphics.ElementVector4, Name: "baseColor", NumElements: 1},
			{Type: graphics.ElementVector4, Name: "surface", NumElements: 1},
		})
		if err != nil {
			return fmt.Errorf("material %q: %w", m.name, err)
		}
		data := m.Data()
		raw := data.Marshal()
		cb.SetConstant(0, raw[0:16], 1)
		cb.SetConstant(1, raw[16:32], 1)
		m.uniforms = cb
	}

	if err := m.uniforms.Apply(); err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	m.uniforms.Bind(slot)
	return nil
}
