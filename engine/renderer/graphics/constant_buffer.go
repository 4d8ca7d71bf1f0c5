package graphics

import (
	"fmt"
	"log"
)

// Constant describes one named entry of a constant buffer.
type Constant struct {
	Type        ElementType
	Name        string
	NumElements int
}

type constantLayout struct {
	Constant
	elementSize int
	offset      int
}

// ConstantBuffer is a CPU-side shadow copy of a uniform block, uploaded to the GPU on Apply.
//
// Constants are laid out in declaration order. An element that would straddle a 16-byte boundary,
// or any element larger than 16 bytes, starts at the next 16-byte boundary, and the total size is
// rounded up to a multiple of 16.
type ConstantBuffer struct {
	backend   Backend
	label     string
	handle    Handle
	usage     ResourceUsage
	constants []constantLayout
	data      []byte
	dirty     bool
	applied   bool
}

// NewConstantBuffer creates an undefined constant buffer on the given backend.
func NewConstantBuffer(backend Backend, label string) *ConstantBuffer {
	return &ConstantBuffer{backend: backend, label: label}
}

// Define lays out the constants and allocates the shadow copy. Non-immutable buffers create
// their GPU object immediately; immutable ones create it on the first Apply.
//
// Parameters:
//   - usage: how the contents are updated; UsageRenderTarget is rejected
//   - constants: the entries in declaration order
//
// Returns:
//   - error: ErrNoConstants, ErrInvalidUsage or a backend error
func (c *ConstantBuffer) Define(usage ResourceUsage, constants []Constant) error {
	c.Release()

	if len(constants) == 0 {
		log.Printf("[Graphics] constant buffer %q: can not define with no constants", c.label)
		return fmt.Errorf("define constant buffer %q: %w", c.label, ErrNoConstants)
	}
	if usage == UsageRenderTarget {
		log.Printf("[Graphics] constant buffer %q: render target usage is illegal", c.label)
		return fmt.Errorf("define constant buffer %q: %w", c.label, ErrInvalidUsage)
	}

	layout := make([]constantLayout, 0, len(constants))
	byteSize := 0
	for _, src := range constants {
		elemSize := src.Type.Size()
		if (elemSize <= 16 && (byteSize+elemSize-1)>>4 != byteSize>>4) || (elemSize > 16 && byteSize&15 != 0) {
			byteSize += 16 - (byteSize & 15)
		}
		layout = append(layout, constantLayout{Constant: src, elementSize: elemSize, offset: byteSize})
		byteSize += elemSize * max(src.NumElements, 1)
	}
	if byteSize&15 != 0 {
		byteSize += 16 - (byteSize & 15)
	}

	c.usage = usage
	c.constants = layout
	c.data = make([]byte, byteSize)

	if usage != UsageImmutable {
		return c.create()
	}
	return nil
}

func (c *ConstantBuffer) create() error {
	h, err := c.backend.CreateBuffer(BufferDescriptor{Label: c.label, Kind: BufferConstant, Size: len(c.data)})
	if err != nil {
		log.Printf("[Graphics] constant buffer %q: %v", c.label, err)
		return fmt.Errorf("create constant buffer %q: %w", c.label, err)
	}
	c.handle = h
	return nil
}

// Release frees the GPU object and the layout.
func (c *ConstantBuffer) Release() {
	if c.handle != 0 {
		c.backend.ReleaseBuffer(c.handle)
		c.handle = 0
	}
	c.constants = nil
	c.data = nil
	c.dirty = false
	c.applied = false
}

// SetConstant copies data into the shadow copy of one constant.
//
// Parameters:
//   - index: the constant's declaration index
//   - data: the element bytes
//   - numElements: how many elements to copy; 0 or more than declared copies all of them
//
// Returns:
//   - bool: false if the index is unknown or the buffer is immutable and already applied
func (c *ConstantBuffer) SetConstant(index int, data []byte, numElements int) bool {
	if index < 0 || index >= len(c.constants) {
		return false
	}
	if c.usage == UsageImmutable && c.applied {
		return false
	}

	constant := c.constants[index]
	count := max(constant.NumElements, 1)
	if numElements <= 0 || numElements > count {
		numElements = count
	}
	n := min(numElements*constant.elementSize, len(data))
	copy(c.data[constant.offset:constant.offset+n], data[:n])
	c.dirty = true
	return true
}

// SetConstantByName is SetConstant addressed by the constant's name.
func (c *ConstantBuffer) SetConstantByName(name string, data []byte, numElements int) bool {
	index := c.FindConstantIndex(name)
	if index < 0 {
		return false
	}
	return c.SetConstant(index, data, numElements)
}

// FindConstantIndex returns the declaration index of a named constant, or -1.
func (c *ConstantBuffer) FindConstantIndex(name string) int {
	for i := range c.constants {
		if c.constants[i].Name == name {
			return i
		}
	}
	return -1
}

// Apply uploads the shadow copy if it changed since the last Apply.
//
// Returns:
//   - error: ErrNotDefined, ErrImmutable on a second upload of an immutable buffer, or a backend error
func (c *ConstantBuffer) Apply() error {
	if c.data == nil {
		return fmt.Errorf("apply constant buffer %q: %w", c.label, ErrNotDefined)
	}
	if !c.dirty && c.handle != 0 {
		return nil
	}
	if c.usage == UsageImmutable {
		if c.applied {
			return fmt.Errorf("apply constant buffer %q: %w", c.label, ErrImmutable)
		}
		if err := c.create(); err != nil {
			return err
		}
		c.applied = true
	}

	if err := c.backend.WriteBuffer(c.handle, 0, c.data); err != nil {
		return fmt.Errorf("apply constant buffer %q: %w", c.label, err)
	}
	c.dirty = false
	return nil
}

// Bind binds the buffer to a constant buffer slot for subsequent draws.
func (c *ConstantBuffer) Bind(slot int) {
	c.backend.BindConstantBuffer(slot, c.handle)
}

// Offset returns the byte offset of a constant, or -1 for an unknown index.
func (c *ConstantBuffer) Offset(index int) int {
	if index < 0 || index >= len(c.constants) {
		return -1
	}
	return c.constants[index].offset
}

// Size returns the aligned byte size of the buffer.
func (c *ConstantBuffer) Size() int {
	return len(c.data)
}

// Data returns the shadow copy. It must not be modified.
func (c *ConstantBuffer) Data() []byte {
	return c.data
}

func (c *ConstantBuffer) Handle() Handle {
	return c.handle
}

func (c *ConstantBuffer) IsDirty() bool {
	return c.dirty
}
