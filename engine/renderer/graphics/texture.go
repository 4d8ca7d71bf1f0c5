package graphics

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// Texture is a 2D GPU texture owned by a Backend.
type Texture struct {
	backend Backend
	handle  Handle
	label   string

	texType TextureType
	usage   ResourceUsage
	width   int
	height  int
	format  Format
	levels  int
}

// NewTexture creates an undefined texture on the given backend.
//
// Parameters:
//   - backend: the backend that will own the GPU object
//   - label: a debug label, "texture" if empty
//
// Returns:
//   - *Texture: the texture, to be defined with Define
func NewTexture(backend Backend, label string) *Texture {
	return &Texture{backend: backend, label: common.Coalesce(label, "texture"), texType: Texture2D}
}

// Define (re)creates the texture. Any previous GPU object is released first.
// On failure the texture is left released.
//
// Parameters:
//   - texType: the texture type; only Texture2D is supported
//   - usage: how the contents are updated
//   - width: width in texels
//   - height: height in texels
//   - format: the texel format
//   - levels: number of mip levels, clamped to at least 1
//
// Returns:
//   - error: ErrUnsupportedTextureType, ErrInvalidSize or a backend error
func (t *Texture) Define(texType TextureType, usage ResourceUsage, width, height int, format Format, levels int) error {
	t.Release()

	if texType != Texture2D {
		log.Printf("[Graphics] texture %q: only 2D textures are supported", t.label)
		return fmt.Errorf("define texture %q: %w", t.label, ErrUnsupportedTextureType)
	}
	if width < 1 || height < 1 {
		log.Printf("[Graphics] texture %q: invalid size %dx%d", t.label, width, height)
		return fmt.Errorf("define texture %q %dx%d: %w", t.label, width, height, ErrInvalidSize)
	}
	if levels < 1 {
		levels = 1
	}

	h, err := t.backend.CreateTexture(TextureDescriptor{
		Label:  t.label,
		Type:   texType,
		Usage:  usage,
		Width:  width,
		Height: height,
		Format: format,
		Levels: levels,
	})
	if err != nil {
		log.Printf("[Graphics] texture %q: %v", t.label, err)
		return fmt.Errorf("define texture %q: %w", t.label, err)
	}

	t.handle = h
	t.texType = texType
	t.usage = usage
	t.width = width
	t.height = height
	t.format = format
	t.levels = levels
	return nil
}

// Release frees the GPU object. The texture can be defined again afterwards.
func (t *Texture) Release() {
	if t.handle == 0 {
		return
	}
	t.backend.ReleaseTexture(t.handle)
	t.handle = 0
	t.width = 0
	t.height = 0
	t.format = FormatNone
	t.levels = 0
}

// Bind binds the texture to a sampling unit.
func (t *Texture) Bind(unit int) {
	t.backend.BindTexture(unit, t.handle)
}

// SetData updates a region of one mip level.
//
// Parameters:
//   - level: the mip level to update
//   - rect: the region in texels, which must lie within the level
//   - data: tightly packed texel rows covering rect
//
// Returns:
//   - error: ErrNotDefined, ErrImmutable, ErrInvalidSize or a backend error
func (t *Texture) SetData(level int, rect common.IntRect, data []byte) error {
	if t.handle == 0 {
		return fmt.Errorf("update texture %q: %w", t.label, ErrNotDefined)
	}
	if t.usage == UsageImmutable {
		log.Printf("[Graphics] texture %q: can not update immutable texture", t.label)
		return fmt.Errorf("update texture %q: %w", t.label, ErrImmutable)
	}
	if level < 0 || level >= t.levels {
		return fmt.Errorf("update texture %q level %d: %w", t.label, level, ErrInvalidSize)
	}

	levelRect := common.NewIntRect(0, 0, max(t.width>>level, 1), max(t.height>>level, 1))
	if !levelRect.Contains(rect) || rect.IsEmpty() {
		log.Printf("[Graphics] texture %q: update region %+v is outside level %+v", t.label, rect, levelRect)
		return fmt.Errorf("update texture %q region: %w", t.label, ErrInvalidSize)
	}
	if need := rect.Area() * t.format.PixelSize(); len(data) < need {
		return fmt.Errorf("update texture %q: %d bytes for %d: %w", t.label, len(data), need, ErrInvalidSize)
	}
	return t.backend.WriteTexture(t.handle, level, rect, data)
}

func (t *Texture) Handle() Handle {
	return t.handle
}

func (t *Texture) Width() int {
	return t.width
}

func (t *Texture) Height() int {
	return t.height
}

func (t *Texture) Format() Format {
	return t.format
}

func (t *Texture) Usage() ResourceUsage {
	return t.usage
}

func (t *Texture) Levels() int {
	return t.levels
}

// IsDefined reports whether the texture currently owns a GPU object.
func (t *Texture) IsDefined() bool {
	return t.handle != 0
}
