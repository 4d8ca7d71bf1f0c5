package graphics

import (
	"fmt"
	"log"
)

// FrameBuffer groups the attachments a render pass draws into.
type FrameBuffer struct {
	backend      Backend
	color        *Texture
	depthStencil *Texture
	defined      bool
}

// NewFrameBuffer creates an empty framebuffer on the given backend.
func NewFrameBuffer(backend Backend) *FrameBuffer {
	return &FrameBuffer{backend: backend}
}

// Define sets up a depth-only framebuffer, as used for shadow maps.
//
// Parameters:
//   - depthStencil: a defined render target texture with a depth format
//
// Returns:
//   - error: ErrNotDefined or ErrInvalidUsage when the texture can not be attached
func (f *FrameBuffer) Define(depthStencil *Texture) error {
	return f.DefineWithColor(nil, depthStencil)
}

// DefineWithColor sets up a framebuffer with an optional color and an optional depth attachment.
// On failure the framebuffer keeps its previous attachments.
//
// Parameters:
//   - color: a render target texture with a color format, or nil
//   - depthStencil: a render target texture with a depth format, or nil
//
// Returns:
//   - error: ErrNotDefined or ErrInvalidUsage when an attachment is unusable
func (f *FrameBuffer) DefineWithColor(color, depthStencil *Texture) error {
	if color == nil && depthStencil == nil {
		return fmt.Errorf("define framebuffer: %w", ErrNotDefined)
	}
	if err := checkAttachment(color, false); err != nil {
		return err
	}
	if err := checkAttachment(depthStencil, true); err != nil {
		return err
	}

	f.color = color
	f.depthStencil = depthStencil
	f.defined = true
	return nil
}

func checkAttachment(t *Texture, depth bool) error {
	if t == nil {
		return nil
	}
	if !t.IsDefined() {
		return fmt.Errorf("attach texture %q: %w", t.label, ErrNotDefined)
	}
	if t.Usage() != UsageRenderTarget || t.Format().IsDepth() != depth {
		log.Printf("[Graphics] texture %q can not be attached to a framebuffer", t.label)
		return fmt.Errorf("attach texture %q: %w", t.label, ErrInvalidUsage)
	}
	return nil
}

// Bind makes this framebuffer the target of the next render pass.
func (f *FrameBuffer) Bind() {
	var color, depth Handle
	if f.color != nil {
		color = f.color.Handle()
	}
	if f.depthStencil != nil {
		depth = f.depthStencil.Handle()
	}
	f.backend.BindFrameBuffer(color, depth)
}

func (f *FrameBuffer) Color() *Texture {
	return f.color
}

func (f *FrameBuffer) DepthStencil() *Texture {
	return f.depthStencil
}

func (f *FrameBuffer) IsDefined() bool {
	return f.defined
}
