package graphics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineResolver returns the render pipeline for a key, compiled for the given depth bias and
// attachment formats. Returning nil skips the draw.
type PipelineResolver func(key string, bias DepthBias, colorFormat, depthFormat wgpu.TextureFormat) *wgpu.RenderPipeline

// BindGroupResolver builds the bind groups for a pipeline from the currently bound texture views
// and constant buffers, keyed by unit and slot. Bind groups are owned by the resolver.
type BindGroupResolver func(pipelineKey string, textures map[int]*wgpu.TextureView, constants map[int]*wgpu.Buffer) []*wgpu.BindGroup

// WGPUBackendOption configures the WebGPU backend during construction.
type WGPUBackendOption func(*wgpuBackendImpl)

// WithPipelineResolver is an option builder that sets how pipeline keys are turned into render pipelines.
//
// Parameters:
//   - resolver: the pipeline lookup
//
// Returns:
//   - WGPUBackendOption: a function that applies the resolver to the backend
func WithPipelineResolver(resolver PipelineResolver) WGPUBackendOption {
	return func(b *wgpuBackendImpl) {
		b.resolvePipeline = resolver
	}
}

// WithBindGroupResolver is an option builder that sets how bound resources are turned into bind groups.
//
// Parameters:
//   - resolver: the bind group lookup
//
// Returns:
//   - WGPUBackendOption: a function that applies the resolver to the backend
func WithBindGroupResolver(resolver BindGroupResolver) WGPUBackendOption {
	return func(b *wgpuBackendImpl) {
		b.resolveBindGroups = resolver
	}
}

type wgpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	desc    TextureDescriptor
}

type wgpuBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	next     Handle
	textures map[Handle]*wgpuTexture
	buffers  map[Handle]*wgpu.Buffer

	// Pass state. All passes between two Submit calls share one command encoder.
	encoder        *wgpu.CommandEncoder
	pass           *wgpu.RenderPassEncoder
	colorTarget    Handle
	depthTarget    Handle
	boundTextures  map[int]Handle
	boundConstants map[int]Handle
	pipelineKey    string
	bias           DepthBias

	resolvePipeline   PipelineResolver
	resolveBindGroups BindGroupResolver
}

var _ Backend = &wgpuBackendImpl{}

// NewWGPUBackend creates a Backend on an existing WebGPU device.
//
// Parameters:
//   - device: the WebGPU device resources are created on
//   - queue: the device queue used for uploads and submission
//   - opts: pipeline and bind group resolvers
//
// Returns:
//   - Backend: the WebGPU backend
func NewWGPUBackend(device *wgpu.Device, queue *wgpu.Queue, opts ...WGPUBackendOption) Backend {
	b := &wgpuBackendImpl{
		mu:             &sync.Mutex{},
		device:         device,
		queue:          queue,
		textures:       make(map[Handle]*wgpuTexture),
		buffers:        make(map[Handle]*wgpu.Buffer),
		boundTextures:  make(map[int]Handle),
		boundConstants: make(map[int]Handle),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewHeadlessDevice requests a WebGPU adapter and device without a presentation surface.
//
// Parameters:
//   - forceFallbackAdapter: true to request the software adapter
//
// Returns:
//   - *wgpu.Device: the device
//   - *wgpu.Queue: the device queue
//   - error: an error if no adapter or device is available
func NewHeadlessDevice(forceFallbackAdapter bool) (*wgpu.Device, *wgpu.Queue, error) {
	instance := wgpu.CreateInstance(nil)

	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to request adapter: %w", err)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Headless Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to request device: %w", err)
	}
	return d, d.GetQueue(), nil
}

func (b *wgpuBackendImpl) CreateTexture(desc TextureDescriptor) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	format := desc.Format.WGPU()
	if format == wgpu.TextureFormatUndefined {
		return 0, fmt.Errorf("create texture %q: %w", desc.Label, ErrInvalidUsage)
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(desc.Levels),
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         textureUsageWGPU(desc.Usage),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return 0, fmt.Errorf("failed to create texture view %q: %w", desc.Label, err)
	}

	b.next++
	b.textures[b.next] = &wgpuTexture{texture: tex, view: view, desc: desc}
	return b.next, nil
}

func (b *wgpuBackendImpl) WriteTexture(h Handle, level int, rect common.IntRect, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[h]
	if !ok {
		return fmt.Errorf("write texture %d: %w", h, ErrNotDefined)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: uint32(level),
			Origin:   wgpu.Origin3D{X: uint32(rect.Left), Y: uint32(rect.Top)},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rect.Width() * t.desc.Format.PixelSize()),
			RowsPerImage: uint32(rect.Height()),
		},
		&wgpu.Extent3D{
			Width:              uint32(rect.Width()),
			Height:             uint32(rect.Height()),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuBackendImpl) ReleaseTexture(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.textures[h]
	if !ok {
		return
	}
	t.view.Release()
	t.texture.Release()
	delete(b.textures, h)
}

func (b *wgpuBackendImpl) BindTexture(unit int, h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h == 0 {
		delete(b.boundTextures, unit)
		return
	}
	b.boundTextures[unit] = h
}

func (b *wgpuBackendImpl) CreateBuffer(desc BufferDescriptor) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             uint64(desc.Size),
		Usage:            desc.Kind.WGPU(),
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create buffer %q: %w", desc.Label, err)
	}

	b.next++
	b.buffers[b.next] = buf
	return b.next, nil
}

func (b *wgpuBackendImpl) WriteBuffer(h Handle, offset int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("write buffer %d: %w", h, ErrNotDefined)
	}
	b.queue.WriteBuffer(buf, uint64(offset), data)
	return nil
}

func (b *wgpuBackendImpl) ReleaseBuffer(h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.buffers[h]
	if !ok {
		return
	}
	buf.Release()
	delete(b.buffers, h)
}

func (b *wgpuBackendImpl) BindConstantBuffer(slot int, h Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h == 0 {
		delete(b.boundConstants, slot)
		return
	}
	b.boundConstants[slot] = h
}

func (b *wgpuBackendImpl) BindFrameBuffer(color, depthStencil Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.colorTarget = color
	b.depthTarget = depthStencil
}

func (b *wgpuBackendImpl) BeginPass(clear ClearOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass != nil {
		return errors.New("render pass already in progress")
	}
	if b.encoder == nil {
		encoder, err := b.device.CreateCommandEncoder(nil)
		if err != nil {
			return err
		}
		b.encoder = encoder
	}

	desc := &wgpu.RenderPassDescriptor{}
	if t, ok := b.textures[b.colorTarget]; ok {
		loadOp := wgpu.LoadOpLoad
		if clear.Color {
			loadOp = wgpu.LoadOpClear
		}
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{
			{
				View:    t.view,
				LoadOp:  loadOp,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: clear.ColorValue.R, G: clear.ColorValue.G, B: clear.ColorValue.B, A: 1.0,
				},
			},
		}
	}
	if t, ok := b.textures[b.depthTarget]; ok {
		loadOp := wgpu.LoadOpLoad
		if clear.Depth {
			loadOp = wgpu.LoadOpClear
		}
		attachment := &wgpu.RenderPassDepthStencilAttachment{
			View:            t.view,
			DepthLoadOp:     loadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: clear.DepthValue,
		}
		if t.desc.Format == FormatD24S8 {
			attachment.StencilLoadOp = loadOp
			attachment.StencilStoreOp = wgpu.StoreOpStore
		}
		desc.DepthStencilAttachment = attachment
	}
	if desc.ColorAttachments == nil && desc.DepthStencilAttachment == nil {
		return fmt.Errorf("begin pass: %w", ErrNotDefined)
	}

	b.pass = b.encoder.BeginRenderPass(desc)
	return nil
}

func (b *wgpuBackendImpl) SetViewport(rect common.IntRect) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass == nil || rect.IsEmpty() {
		return
	}
	b.pass.SetViewport(float32(rect.Left), float32(rect.Top), float32(rect.Width()), float32(rect.Height()), 0, 1)
	b.pass.SetScissorRect(uint32(rect.Left), uint32(rect.Top), uint32(rect.Width()), uint32(rect.Height()))
}

func (b *wgpuBackendImpl) SetDepthBias(bias DepthBias) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bias = bias
}

func (b *wgpuBackendImpl) SetPipeline(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipelineKey = key
}

func (b *wgpuBackendImpl) Draw(cmd DrawCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass == nil || b.resolvePipeline == nil {
		return
	}
	vb, okVB := b.buffers[cmd.VertexBuffer]
	ib, okIB := b.buffers[cmd.IndexBuffer]
	if !okVB || !okIB {
		return
	}

	colorFormat := wgpu.TextureFormatUndefined
	if t, ok := b.textures[b.colorTarget]; ok {
		colorFormat = t.desc.Format.WGPU()
	}
	depthFormat := wgpu.TextureFormatUndefined
	if t, ok := b.textures[b.depthTarget]; ok {
		depthFormat = t.desc.Format.WGPU()
	}
	renderPipeline := b.resolvePipeline(b.pipelineKey, b.bias, colorFormat, depthFormat)
	if renderPipeline == nil {
		return
	}
	b.pass.SetPipeline(renderPipeline)

	if b.resolveBindGroups != nil {
		views := make(map[int]*wgpu.TextureView, len(b.boundTextures))
		for unit, h := range b.boundTextures {
			if t, ok := b.textures[h]; ok {
				views[unit] = t.view
			}
		}
		constants := make(map[int]*wgpu.Buffer, len(b.boundConstants))
		for slot, h := range b.boundConstants {
			if buf, ok := b.buffers[h]; ok {
				constants[slot] = buf
			}
		}
		for i, bg := range b.resolveBindGroups(b.pipelineKey, views, constants) {
			b.pass.SetBindGroup(uint32(i), bg, nil)
		}
	}

	b.pass.SetVertexBuffer(0, vb, 0, wgpu.WholeSize)
	if inst, ok := b.buffers[cmd.InstanceBuffer]; ok {
		b.pass.SetVertexBuffer(1, inst, 0, wgpu.WholeSize)
	}
	b.pass.SetIndexBuffer(ib, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.pass.DrawIndexed(cmd.IndexCount, max(cmd.InstanceCount, 1), cmd.IndexStart, 0, cmd.InstanceStart)
}

func (b *wgpuBackendImpl) EndPass() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass == nil {
		return
	}
	b.pass.End()
	b.pass = nil
}

func (b *wgpuBackendImpl) Submit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass != nil {
		return errors.New("submit with a render pass in progress")
	}
	if b.encoder == nil {
		return nil
	}

	commandBuffer, err := b.encoder.Finish(nil)
	if err != nil {
		b.encoder.Release()
		b.encoder = nil
		return err
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.encoder.Release()
	b.encoder = nil
	return nil
}
