package graphics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// CommandType identifies a recorded backend call.
type CommandType int

const (
	CmdWriteTexture CommandType = iota
	CmdBindTexture
	CmdWriteBuffer
	CmdBindConstantBuffer
	CmdBindFrameBuffer
	CmdBeginPass
	CmdSetViewport
	CmdSetDepthBias
	CmdSetPipeline
	CmdDraw
	CmdEndPass
	CmdSubmit
)

// Command is one recorded backend call. Only the fields relevant to Type are set.
type Command struct {
	Type     CommandType
	Handle   Handle
	Handle2  Handle
	Slot     int
	Rect     common.IntRect
	Clear    ClearOptions
	Bias     DepthBias
	Pipeline string
	Draw     DrawCommand
	Size     int
}

// Recorder is a headless Backend that keeps resources in memory and records every pass command.
// It is safe for concurrent use.
type Recorder struct {
	mu       *sync.Mutex
	next     Handle
	textures map[Handle]TextureDescriptor
	buffers  map[Handle][]byte
	commands []Command
	inPass   bool
}

var _ Backend = &Recorder{}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		mu:       &sync.Mutex{},
		textures: make(map[Handle]TextureDescriptor),
		buffers:  make(map[Handle][]byte),
	}
}

func (r *Recorder) CreateTexture(desc TextureDescriptor) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if desc.Format == FormatNone {
		return 0, fmt.Errorf("create texture %q: %w", desc.Label, ErrInvalidUsage)
	}
	r.next++
	r.textures[r.next] = desc
	return r.next, nil
}

func (r *Recorder) WriteTexture(h Handle, level int, rect common.IntRect, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.textures[h]; !ok {
		return fmt.Errorf("write texture %d: %w", h, ErrNotDefined)
	}
	r.commands = append(r.commands, Command{Type: CmdWriteTexture, Handle: h, Slot: level, Rect: rect, Size: len(data)})
	return nil
}

func (r *Recorder) ReleaseTexture(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.textures, h)
}

func (r *Recorder) BindTexture(unit int, h Handle) {
	r.record(Command{Type: CmdBindTexture, Handle: h, Slot: unit})
}

func (r *Recorder) CreateBuffer(desc BufferDescriptor) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if desc.Size < 1 {
		return 0, fmt.Errorf("create buffer %q: %w", desc.Label, ErrInvalidSize)
	}
	r.next++
	r.buffers[r.next] = make([]byte, desc.Size)
	return r.next, nil
}

func (r *Recorder) WriteBuffer(h Handle, offset int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[h]
	if !ok {
		return fmt.Errorf("write buffer %d: %w", h, ErrNotDefined)
	}
	if offset < 0 || offset+len(data) > len(buf) {
		return fmt.Errorf("write buffer %d: %d bytes at %d: %w", h, len(data), offset, ErrInvalidSize)
	}
	copy(buf[offset:], data)
	r.commands = append(r.commands, Command{Type: CmdWriteBuffer, Handle: h, Slot: offset, Size: len(data)})
	return nil
}

func (r *Recorder) ReleaseBuffer(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, h)
}

func (r *Recorder) BindConstantBuffer(slot int, h Handle) {
	r.record(Command{Type: CmdBindConstantBuffer, Handle: h, Slot: slot})
}

func (r *Recorder) BindFrameBuffer(color, depthStencil Handle) {
	r.record(Command{Type: CmdBindFrameBuffer, Handle: color, Handle2: depthStencil})
}

func (r *Recorder) BeginPass(clear ClearOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inPass {
		return errors.New("render pass already in progress")
	}
	r.inPass = true
	r.commands = append(r.commands, Command{Type: CmdBeginPass, Clear: clear})
	return nil
}

func (r *Recorder) SetViewport(rect common.IntRect) {
	r.record(Command{Type: CmdSetViewport, Rect: rect})
}

func (r *Recorder) SetDepthBias(bias DepthBias) {
	r.record(Command{Type: CmdSetDepthBias, Bias: bias})
}

func (r *Recorder) SetPipeline(key string) {
	r.record(Command{Type: CmdSetPipeline, Pipeline: key})
}

func (r *Recorder) Draw(cmd DrawCommand) {
	r.record(Command{Type: CmdDraw, Draw: cmd})
}

func (r *Recorder) EndPass() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inPass {
		return
	}
	r.inPass = false
	r.commands = append(r.commands, Command{Type: CmdEndPass})
}

func (r *Recorder) Submit() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inPass {
		return errors.New("submit with a render pass in progress")
	}
	r.commands = append(r.commands, Command{Type: CmdSubmit})
	return nil
}

func (r *Recorder) record(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

// Commands returns a copy of everything recorded since the last Reset.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Count returns how many commands of a type were recorded since the last Reset.
func (r *Recorder) Count(t CommandType) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.commands {
		if r.commands[i].Type == t {
			n++
		}
	}
	return n
}

// Reset clears the recorded commands. Resources are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = r.commands[:0]
}

// BufferData returns a copy of a buffer's current contents, or nil for an unknown handle.
func (r *Recorder) BufferData(h Handle) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	buf, ok := r.buffers[h]
	if !ok {
		return nil
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

// Texture returns the description a live texture was created with.
func (r *Recorder) Texture(h Handle) (TextureDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, ok := r.textures[h]
	return desc, ok
}

// NumResources returns the number of live textures and buffers.
func (r *Recorder) NumResources() (textures, buffers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures), len(r.buffers)
}
