package graphics

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/lucasb-eyer/go-colorful"
)

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label  string
	Type   TextureType
	Usage  ResourceUsage
	Width  int
	Height int
	Format Format
	Levels int
}

// BufferDescriptor describes a GPU buffer to create.
type BufferDescriptor struct {
	Label string
	Kind  BufferKind
	Size  int
}

// ClearOptions selects which attachments a pass clears when it begins.
type ClearOptions struct {
	Color      bool
	ColorValue colorful.Color
	Depth      bool
	DepthValue float32
}

// DepthBias is the rasterizer depth bias applied to draws.
type DepthBias struct {
	Constant   float32
	SlopeScale float32
}

// DrawCommand is one indexed, possibly instanced, draw.
type DrawCommand struct {
	VertexBuffer   Handle
	IndexBuffer    Handle
	InstanceBuffer Handle
	IndexStart     uint32
	IndexCount     uint32
	InstanceStart  uint32
	InstanceCount  uint32
}

// Backend creates GPU objects and encodes render passes. Objects are referred to by Handle.
//
// Passes are recorded in order: BindFrameBuffer, BeginPass, any number of state changes and draws, EndPass.
// Submit flushes all passes recorded since the previous Submit.
type Backend interface {
	// CreateTexture creates a texture with undefined contents.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Handle: the new texture
	//   - error: an error if the texture could not be created
	CreateTexture(desc TextureDescriptor) (Handle, error)

	// WriteTexture uploads texel data into a region of one mip level.
	//
	// Parameters:
	//   - h: the texture
	//   - level: the mip level
	//   - rect: the region in texels
	//   - data: tightly packed texel rows
	//
	// Returns:
	//   - error: an error if the handle is unknown
	WriteTexture(h Handle, level int, rect common.IntRect, data []byte) error
	ReleaseTexture(h Handle)

	// BindTexture binds a texture to a sampling unit for subsequent draws. A zero handle unbinds.
	BindTexture(unit int, h Handle)

	// CreateBuffer creates a zero-filled GPU buffer.
	//
	// Parameters:
	//   - desc: the buffer description
	//
	// Returns:
	//   - Handle: the new buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(desc BufferDescriptor) (Handle, error)

	// WriteBuffer uploads data into a buffer at a byte offset.
	WriteBuffer(h Handle, offset int, data []byte) error
	ReleaseBuffer(h Handle)

	// BindConstantBuffer binds a constant buffer to a slot for subsequent draws. A zero handle unbinds.
	BindConstantBuffer(slot int, h Handle)

	// BindFrameBuffer selects the attachments the next pass renders into. Either handle may be zero.
	BindFrameBuffer(color, depthStencil Handle)

	// BeginPass starts a render pass on the bound framebuffer.
	//
	// Parameters:
	//   - clear: which attachments to clear, and to what
	//
	// Returns:
	//   - error: an error if the pass could not be started
	BeginPass(clear ClearOptions) error

	// SetViewport restricts rendering to a region of the bound framebuffer.
	SetViewport(rect common.IntRect)

	// SetDepthBias sets the depth bias used by subsequent draws.
	SetDepthBias(bias DepthBias)

	// SetPipeline selects the render pipeline by key for subsequent draws.
	SetPipeline(key string)

	// Draw encodes one draw with the current state.
	Draw(cmd DrawCommand)
	EndPass()

	// Submit sends all recorded passes to the GPU.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	Submit() error
}
