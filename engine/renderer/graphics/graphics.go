// Package graphics wraps GPU resources (textures, framebuffers, constant and vertex buffers) behind
// a small handle-based Backend so the renderer can be driven by WebGPU or by a headless command recorder.
package graphics

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoConstants is returned when a constant buffer is defined without any constants.
	ErrNoConstants = errors.New("constant buffer has no constants")

	// ErrInvalidUsage is returned when a resource is defined with a usage it can not support.
	ErrInvalidUsage = errors.New("invalid resource usage")

	// ErrUnsupportedTextureType is returned when a texture is defined with a type other than 2D.
	ErrUnsupportedTextureType = errors.New("unsupported texture type")

	// ErrInvalidSize is returned for zero or negative dimensions and for updates outside a resource.
	ErrInvalidSize = errors.New("invalid size")

	// ErrImmutable is returned when updating the contents of an immutable resource.
	ErrImmutable = errors.New("resource is immutable")

	// ErrNotDefined is returned when using a resource that has not been defined.
	ErrNotDefined = errors.New("resource not defined")
)

// Handle identifies a backend-owned GPU object. The zero handle means none.
type Handle uint32

// TextureType identifies the dimensionality of a texture.
type TextureType int

const (
	Texture1D TextureType = iota
	Texture2D
	Texture3D
	TextureCube
)

// ResourceUsage describes how a resource's contents are updated.
type ResourceUsage int

const (
	// UsageDefault resources are updated occasionally.
	UsageDefault ResourceUsage = iota
	// UsageImmutable resources can not be updated after definition.
	UsageImmutable
	// UsageDynamic resources are updated every frame.
	UsageDynamic
	// UsageRenderTarget textures are rendered into. Illegal for buffers.
	UsageRenderTarget
)

// Format is a texel format.
type Format int

const (
	FormatNone Format = iota
	FormatRGBA8
	FormatRGBA16F
	FormatR32F
	FormatRGBA32Uint
	FormatD16
	FormatD32
	FormatD24S8
)

// PixelSize returns the byte size of one texel.
func (f Format) PixelSize() int {
	switch f {
	case FormatRGBA8, FormatR32F, FormatD32, FormatD24S8:
		return 4
	case FormatRGBA16F:
		return 8
	case FormatRGBA32Uint:
		return 16
	case FormatD16:
		return 2
	}
	return 0
}

// IsDepth reports whether the format can be used as a depth attachment.
func (f Format) IsDepth() bool {
	return f == FormatD16 || f == FormatD32 || f == FormatD24S8
}

// WGPU returns the matching WebGPU texture format.
func (f Format) WGPU() wgpu.TextureFormat {
	switch f {
	case FormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	case FormatRGBA16F:
		return wgpu.TextureFormatRGBA16Float
	case FormatR32F:
		return wgpu.TextureFormatR32Float
	case FormatRGBA32Uint:
		return wgpu.TextureFormatRGBA32Uint
	case FormatD16:
		return wgpu.TextureFormatDepth16Unorm
	case FormatD32:
		return wgpu.TextureFormatDepth32Float
	case FormatD24S8:
		return wgpu.TextureFormatDepth24PlusStencil8
	}
	return wgpu.TextureFormatUndefined
}

// ElementType is the type of one constant buffer element.
type ElementType int

const (
	ElementInt ElementType = iota
	ElementFloat
	ElementVector2
	ElementVector3
	ElementVector4
	ElementMatrix3x4
	ElementMatrix4
)

// Size returns the byte size of one element.
func (e ElementType) Size() int {
	switch e {
	case ElementInt, ElementFloat:
		return 4
	case ElementVector2:
		return 8
	case ElementVector3:
		return 12
	case ElementVector4:
		return 16
	case ElementMatrix3x4:
		return 48
	case ElementMatrix4:
		return 64
	}
	return 0
}

// BufferKind selects what a GPU buffer is bound as.
type BufferKind int

const (
	BufferConstant BufferKind = iota
	BufferVertex
	BufferIndex
)

// WGPU returns the WebGPU usage flags for a buffer of this kind.
func (k BufferKind) WGPU() wgpu.BufferUsage {
	switch k {
	case BufferVertex:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case BufferIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	}
	return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
}

// textureUsageWGPU returns the WebGPU usage flags for a texture.
func textureUsageWGPU(usage ResourceUsage) wgpu.TextureUsage {
	flags := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
	if usage == UsageRenderTarget {
		flags |= wgpu.TextureUsageRenderAttachment
	}
	return flags
}
