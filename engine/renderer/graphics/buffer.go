package graphics

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// Buffer is a vertex or index buffer. Dynamic buffers grow to the next power of two when
// SetData is called with more data than they hold.
type Buffer struct {
	backend Backend
	label   string
	handle  Handle
	kind    BufferKind
	usage   ResourceUsage
	size    int
}

// NewBuffer creates an undefined buffer on the given backend.
func NewBuffer(backend Backend, kind BufferKind, label string) *Buffer {
	return &Buffer{backend: backend, kind: kind, label: label}
}

// Define (re)creates the buffer with the given byte size and optional initial data.
//
// Parameters:
//   - usage: how the contents are updated; UsageRenderTarget is rejected
//   - size: the byte size
//   - data: initial contents, or nil
//
// Returns:
//   - error: ErrInvalidUsage, ErrInvalidSize or a backend error
func (b *Buffer) Define(usage ResourceUsage, size int, data []byte) error {
	b.Release()

	if usage == UsageRenderTarget {
		return fmt.Errorf("define buffer %q: %w", b.label, ErrInvalidUsage)
	}
	if size < 1 {
		return fmt.Errorf("define buffer %q size %d: %w", b.label, size, ErrInvalidSize)
	}

	h, err := b.backend.CreateBuffer(BufferDescriptor{Label: b.label, Kind: b.kind, Size: size})
	if err != nil {
		return fmt.Errorf("define buffer %q: %w", b.label, err)
	}
	b.handle = h
	b.usage = usage
	b.size = size

	if len(data) > 0 {
		return b.backend.WriteBuffer(h, 0, data[:min(len(data), size)])
	}
	return nil
}

// SetData replaces the buffer contents from offset 0. A dynamic buffer that is too small is
// redefined at the next power of two size first.
//
// Parameters:
//   - data: the new contents
//
// Returns:
//   - error: ErrNotDefined, ErrImmutable, ErrInvalidSize or a backend error
func (b *Buffer) SetData(data []byte) error {
	if b.handle == 0 {
		return fmt.Errorf("update buffer %q: %w", b.label, ErrNotDefined)
	}
	if b.usage == UsageImmutable {
		return fmt.Errorf("update buffer %q: %w", b.label, ErrImmutable)
	}
	if len(data) > b.size {
		if b.usage != UsageDynamic {
			return fmt.Errorf("update buffer %q with %d bytes: %w", b.label, len(data), ErrInvalidSize)
		}
		return b.Define(b.usage, common.NextPowerOfTwo(len(data)), data)
	}
	if len(data) == 0 {
		return nil
	}
	return b.backend.WriteBuffer(b.handle, 0, data)
}

// Release frees the GPU object.
func (b *Buffer) Release() {
	if b.handle == 0 {
		return
	}
	b.backend.ReleaseBuffer(b.handle)
	b.handle = 0
	b.size = 0
}

func (b *Buffer) Handle() Handle {
	return b.handle
}

func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) Kind() BufferKind {
	return b.kind
}
