package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// wgpuDevice is the WebGPU implementation of Device.
type wgpuDevice struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	msaaTexture *wgpu.Texture
	target      TargetInfo

	logger *zap.Logger

	// pre-creation options
	label                string
	forceFallbackAdapter bool
	nativeLogLevel       string
}

var _ Device = &wgpuDevice{}

// NewWGPUDevice creates the WebGPU instance, surface, adapter, device, and queue for a window.
// Adapter and device acquisition block until the driver answers.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor of the target window
//   - options: functional options applied before creation
//
// Returns:
//   - Device: the created device
//   - error: an error if no compatible adapter or device could be acquired
func NewWGPUDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUDeviceOption) (Device, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("surface descriptor is nil")
	}

	d := &wgpuDevice{
		mu:     &sync.Mutex{},
		label:  "Main Device",
		logger: zap.NewNop(),
	}
	for _, option := range options {
		option(d)
	}

	if level, ok := nativeLogLevels[d.nativeLogLevel]; ok {
		wgpu.SetLogLevel(level)
	}

	d.instance = wgpu.CreateInstance(nil)
	d.surface = d.instance.CreateSurface(surfaceDescriptor)

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = adapter

	limits := wgpu.DefaultLimits()
	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	d.logger.Info("gpu device ready",
		zap.String("label", d.label),
		zap.Bool("fallback_adapter", d.forceFallbackAdapter),
	)
	return d, nil
}

var nativeLogLevels = map[string]wgpu.LogLevel{
	"off":   wgpu.LogLevelOff,
	"error": wgpu.LogLevelError,
	"warn":  wgpu.LogLevelWarn,
	"info":  wgpu.LogLevelInfo,
	"debug": wgpu.LogLevelDebug,
	"trace": wgpu.LogLevelTrace,
}

func (d *wgpuDevice) SurfaceCapabilities() SurfaceCapabilities {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps := d.surface.GetCapabilities(d.adapter)
	return SurfaceCapabilities{
		Formats:      caps.Formats,
		PresentModes: caps.PresentModes,
		AlphaModes:   caps.AlphaModes,
	}
}

func (d *wgpuDevice) ConfigureSurface(cfg SurfaceConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      cfg.Format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: cfg.PresentMode,
		AlphaMode:   cfg.AlphaMode,
	})

	if d.msaaTexture != nil {
		d.msaaTexture.Release()
		d.msaaTexture = nil
	}

	if cfg.SampleCount > 1 {
		// The render pass draws into this texture and resolves into the surface image.
		tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              cfg.Width,
				Height:             cfg.Height,
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   cfg.SampleCount,
			Dimension:     wgpu.TextureDimension2D,
			Format:        cfg.Format,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			d.target = TargetInfo{}
			return fmt.Errorf("failed to create multisample target: %w", err)
		}
		d.msaaTexture = tex
	}
	d.target = cfg.Target()
	return nil
}

func (d *wgpuDevice) MultisampleTarget() TargetInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target
}

func (d *wgpuDevice) CreateMultisampleView() (TextureView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.msaaTexture == nil {
		return nil, nil
	}
	view, err := d.msaaTexture.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuTextureView{view: view}, nil
}

func (d *wgpuDevice) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	size := desc.Size
	if size == 0 {
		size = uint64(len(desc.Contents))
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             size,
		Usage:            desc.Usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Contents) > 0 {
		d.queue.WriteBuffer(buf, 0, desc.Contents)
	}
	return &wgpuBuffer{label: desc.Label, size: size, usage: desc.Usage, buf: buf}, nil
}

func (d *wgpuDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue.WriteBuffer(buf.(*wgpuBuffer).buf, offset, data)
}

func (d *wgpuDevice) CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	layout, err := d.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout %q: %w", desc.Label, err)
	}
	return &wgpuBindGroupLayout{label: desc.Label, layout: layout}, nil
}

func (d *wgpuDevice) CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: e.Binding,
			Buffer:  e.Buffer.(*wgpuBuffer).buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*wgpuBindGroupLayout).layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{label: desc.Label, group: group}, nil
}

func (d *wgpuDevice) CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader %q: %w", desc.Label, err)
	}
	defer module.Release()

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: unwrapLayouts(desc.BindGroupLayouts),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout %q: %w", desc.Label, err)
	}
	defer layout.Release()

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: desc.VertexEntry,
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: desc.FragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    desc.Format,
					WriteMask: desc.WriteMask,
					Blend:     desc.Blend,
				},
			},
		},
		Primitive: desc.Primitive,
		Multisample: wgpu.MultisampleState{
			Count: desc.SampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", desc.Label, err)
	}
	return &wgpuRenderPipeline{label: desc.Label, pipeline: created}, nil
}

func (d *wgpuDevice) CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader %q: %w", desc.Label, err)
	}
	defer module.Release()

	layouts := unwrapLayouts(desc.BindGroupLayouts)

	var push *pushBlock
	if len(desc.PushConstantRanges) > 0 {
		push, err = d.newPushBlock(desc.Label, uint32(len(layouts)), desc.PushConstantRanges)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, push.layout)
	}

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		push.release()
		return nil, fmt.Errorf("failed to create pipeline layout %q: %w", desc.Label, err)
	}
	defer layout.Release()

	created, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		push.release()
		return nil, fmt.Errorf("failed to create compute pipeline %q: %w", desc.Label, err)
	}
	return &wgpuComputePipeline{label: desc.Label, pipeline: created, push: push}, nil
}

// newPushBlock backs the push-constant window of a compute pipeline with a small uniform buffer
// bound at the group after the caller's layouts. Core WebGPU has no push constants, so the
// window is written through the queue right before the dispatch that reads it.
func (d *wgpuDevice) newPushBlock(label string, group uint32, ranges []PushConstantRange) (*pushBlock, error) {
	var end uint32
	var stages wgpu.ShaderStage
	for _, r := range ranges {
		end = max(end, r.End)
		stages |= r.Stages
	}

	layout, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label + " Push Constants",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: stages,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(end),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create push constant layout %q: %w", label, err)
	}

	// Uniform buffers are sized in 16-byte steps.
	size := uint64((end + 15) &^ 15)
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Push Constants",
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		layout.Release()
		return nil, fmt.Errorf("failed to create push constant buffer %q: %w", label, err)
	}

	bindGroup, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Push Constants",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		buf.Release()
		layout.Release()
		return nil, fmt.Errorf("failed to create push constant bind group %q: %w", label, err)
	}

	return &pushBlock{group: group, size: end, layout: layout, buffer: buf, bindGroup: bindGroup}, nil
}

func (d *wgpuDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder %q: %w", label, err)
	}
	return &wgpuCommandEncoder{queue: d.queue, encoder: encoder}, nil
}

func (d *wgpuDevice) Submit(buffers ...CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, cb := range buffers {
		d.queue.Submit(cb.(*wgpuCommandBuffer).buf)
		cb.Release()
	}
}

func (d *wgpuDevice) AcquireSurfaceTexture() (SurfaceTexture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tex, err := d.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create view for surface texture: %w", err)
	}
	return &wgpuSurfaceTexture{texture: tex, view: &wgpuTextureView{view: view}}, nil
}

func (d *wgpuDevice) Present(tex SurfaceTexture) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.surface.Present()
	tex.Release()
}

func (d *wgpuDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.msaaTexture != nil {
		d.msaaTexture.Release()
		d.msaaTexture = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

func unwrapLayouts(layouts []BindGroupLayout) []*wgpu.BindGroupLayout {
	out := make([]*wgpu.BindGroupLayout, 0, len(layouts))
	for _, l := range layouts {
		out = append(out, l.(*wgpuBindGroupLayout).layout)
	}
	return out
}
