// Package devicetest provides a recording device.Device that runs without a GPU.
// Every call is captured so tests can assert on the exact command stream a frame produced.
package devicetest

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// Op names a recorded command.
type Op string

const (
	OpBeginComputePass Op = "begin_compute_pass"
	OpBeginRenderPass  Op = "begin_render_pass"
	OpSetPipeline      Op = "set_pipeline"
	OpSetBindGroup     Op = "set_bind_group"
	OpPushConstants    Op = "push_constants"
	OpDispatch         Op = "dispatch"
	OpSetVertexBuffer  Op = "set_vertex_buffer"
	OpSetIndexBuffer   Op = "set_index_buffer"
	OpDrawIndexed      Op = "draw_indexed"
	OpEndPass          Op = "end_pass"
)

// Command is one recorded encoder or pass call. Only the fields relevant to Op are set.
type Command struct {
	Op    Op
	Label string

	Index  uint32
	Slot   uint32
	Buffer *Buffer
	Group  *BindGroup
	Data   []byte

	Workgroups [3]uint32

	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32

	View          *TextureView
	ResolveTarget *TextureView
	ClearColor    wgpu.Color
	IndexFormat   wgpu.IndexFormat
}

// Submission is one command buffer handed to Submit.
type Submission struct {
	Label    string
	Commands []Command
}

// Recorder implements device.Device in memory.
type Recorder struct {
	mu sync.Mutex

	// Capabilities is returned from SurfaceCapabilities.
	Capabilities device.SurfaceCapabilities

	// AcquireErrors are returned, in order, by successive AcquireSurfaceTexture calls.
	// A nil entry (or an exhausted queue) yields a texture.
	AcquireErrors []error

	// FailPipelines makes CreateRenderPipeline and CreateComputePipeline fail for these labels.
	FailPipelines map[string]error

	Configs          []device.SurfaceConfig
	Buffers          []*Buffer
	Layouts          []*BindGroupLayout
	BindGroups       []*BindGroup
	RenderPipelines  []*RenderPipeline
	ComputePipelines []*ComputePipeline
	Submissions      []Submission
	Acquired         int
	Presented        int
	MultisampleViews int
	Released         bool

	target device.TargetInfo
}

var _ device.Device = &Recorder{}

// NewRecorder returns a Recorder advertising a BGRA8 sRGB surface with Fifo and Mailbox.
func NewRecorder() *Recorder {
	return &Recorder{
		Capabilities: device.SurfaceCapabilities{
			Formats:      []wgpu.TextureFormat{wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb},
			PresentModes: []wgpu.PresentMode{wgpu.PresentModeFifo, wgpu.PresentModeMailbox, wgpu.PresentModeImmediate},
			AlphaModes:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModeAuto, wgpu.CompositeAlphaModeOpaque},
		},
		FailPipelines: map[string]error{},
	}
}

func (r *Recorder) SurfaceCapabilities() device.SurfaceCapabilities {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Capabilities
}

func (r *Recorder) ConfigureSurface(cfg device.SurfaceConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Configs = append(r.Configs, cfg)
	r.target = cfg.Target()
	return nil
}

func (r *Recorder) MultisampleTarget() device.TargetInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// SetMultisampleTarget overrides the reported target, e.g. to simulate a stale target.
func (r *Recorder) SetMultisampleTarget(t device.TargetInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = t
}

func (r *Recorder) CreateMultisampleView() (device.TextureView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.target.SampleCount <= 1 {
		return nil, nil
	}
	r.MultisampleViews++
	return &TextureView{Name: "msaa"}, nil
}

func (r *Recorder) CreateBuffer(desc device.BufferDescriptor) (device.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := desc.Size
	if size == 0 {
		size = uint64(len(desc.Contents))
	}
	if size == 0 {
		return nil, errors.New("buffer size is zero")
	}
	b := &Buffer{label: desc.Label, size: size, usage: desc.Usage, Contents: desc.Contents}
	r.Buffers = append(r.Buffers, b)
	return b, nil
}

func (r *Recorder) WriteBuffer(buf device.Buffer, offset uint64, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := buf.(*Buffer)
	if offset+uint64(len(data)) > b.size {
		panic("devicetest: write past end of buffer " + b.label)
	}
	if b.Contents == nil {
		b.Contents = make([]byte, b.size)
	}
	copy(b.Contents[offset:], data)
	b.Writes++
}

func (r *Recorder) CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (device.BindGroupLayout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := &BindGroupLayout{label: desc.Label, Desc: desc}
	r.Layouts = append(r.Layouts, l)
	return l, nil
}

func (r *Recorder) CreateBindGroup(desc device.BindGroupDescriptor) (device.BindGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := &BindGroup{label: desc.Label, Desc: desc}
	r.BindGroups = append(r.BindGroups, g)
	return g, nil
}

func (r *Recorder) CreateRenderPipeline(desc device.RenderPipelineDescriptor) (device.RenderPipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailPipelines[desc.Label]; ok {
		return nil, err
	}
	p := &RenderPipeline{label: desc.Label, Desc: desc}
	r.RenderPipelines = append(r.RenderPipelines, p)
	return p, nil
}

func (r *Recorder) CreateComputePipeline(desc device.ComputePipelineDescriptor) (device.ComputePipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailPipelines[desc.Label]; ok {
		return nil, err
	}
	p := &ComputePipeline{label: desc.Label, Desc: desc}
	r.ComputePipelines = append(r.ComputePipelines, p)
	return p, nil
}

func (r *Recorder) CreateCommandEncoder(label string) (device.CommandEncoder, error) {
	return &CommandEncoder{label: label}, nil
}

func (r *Recorder) Submit(buffers ...device.CommandBuffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cb := range buffers {
		c := cb.(*CommandBuffer)
		r.Submissions = append(r.Submissions, Submission{Label: c.label, Commands: c.commands})
	}
}

func (r *Recorder) AcquireSurfaceTexture() (device.SurfaceTexture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.AcquireErrors) > 0 {
		err := r.AcquireErrors[0]
		r.AcquireErrors = r.AcquireErrors[1:]
		if err != nil {
			return nil, err
		}
	}
	r.Acquired++
	return &SurfaceTexture{view: &TextureView{Name: "surface"}}, nil
}

func (r *Recorder) Present(tex device.SurfaceTexture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Presented++
	tex.Release()
}

func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Released = true
}

// Commands returns every submitted command with the given op, in submission order.
func (r *Recorder) Commands(op Op) []Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Command
	for _, s := range r.Submissions {
		for _, c := range s.Commands {
			if c.Op == op {
				out = append(out, c)
			}
		}
	}
	return out
}

// Reset clears the recorded submissions and presentation counters, keeping created resources.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Submissions = nil
	r.Acquired = 0
	r.Presented = 0
	r.MultisampleViews = 0
}
