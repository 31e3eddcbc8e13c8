// Package device is the GPU API boundary of the engine. Everything above it records work through
// the Device interface; the wgpu implementation lives in wgpu_device.go and a recording
// implementation for tests lives in the devicetest subpackage.
package device

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Device owns the logical GPU device, its queue, and the presentation surface.
// It is created once and borrowed by every other component for the lifetime of the process.
type Device interface {
	// SurfaceCapabilities reports the formats, present modes, and alpha modes the surface supports.
	//
	// Returns:
	//   - SurfaceCapabilities: the adapter/surface capabilities
	SurfaceCapabilities() SurfaceCapabilities

	// ConfigureSurface applies cfg to the presentation surface and rebuilds the multisample
	// color target to match its size, format, and sample count.
	//
	// Parameters:
	//   - cfg: the complete surface configuration
	//
	// Returns:
	//   - error: an error if the multisample target cannot be created
	ConfigureSurface(cfg SurfaceConfig) error

	// MultisampleTarget describes the current multisample color target. The zero value is
	// returned before the first ConfigureSurface.
	//
	// Returns:
	//   - TargetInfo: size, format, and sample count of the target
	MultisampleTarget() TargetInfo

	// CreateMultisampleView creates a transient view of the multisample target. The caller
	// releases it at the end of the frame. Returns nil when the sample count is 1.
	//
	// Returns:
	//   - TextureView: the view, or nil when multisampling is off
	//   - error: an error if the view cannot be created
	CreateMultisampleView() (TextureView, error)

	// CreateBuffer allocates a GPU buffer and uploads desc.Contents when present.
	//
	// Parameters:
	//   - desc: label, size, usage, and optional initial contents
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: an error if allocation fails
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// WriteBuffer enqueues a write of data into buf at offset.
	//
	// Parameters:
	//   - buf: destination buffer (must include CopyDst usage)
	//   - offset: byte offset into buf
	//   - data: bytes to write
	WriteBuffer(buf Buffer, offset uint64, data []byte)

	// CreateBindGroupLayout creates a bind group layout from a wgpu descriptor.
	CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error)

	// CreateBindGroup binds whole buffers to the entries of layout.
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)

	// CreateRenderPipeline compiles desc.Source and builds a render pipeline.
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)

	// CreateComputePipeline compiles desc.Source and builds a compute pipeline.
	CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error)

	// CreateCommandEncoder opens a command recorder.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit enqueues finished command buffers in order and releases them.
	Submit(buffers ...CommandBuffer)

	// AcquireSurfaceTexture acquires the next presentable image. Acquisition failures are
	// returned untouched; see ClassifySurfaceError.
	//
	// Returns:
	//   - SurfaceTexture: the acquired image
	//   - error: the acquisition error, if any
	AcquireSurfaceTexture() (SurfaceTexture, error)

	// Present flips the acquired image to the screen and releases it.
	Present(tex SurfaceTexture)

	// Release frees the device, queue, surface, and targets.
	Release()
}

// SurfaceCapabilities lists what the surface supports on the selected adapter.
type SurfaceCapabilities struct {
	Formats      []wgpu.TextureFormat
	PresentModes []wgpu.PresentMode
	AlphaModes   []wgpu.CompositeAlphaMode
}

// SurfaceConfig is the full presentation surface configuration plus the multisample count
// of the offscreen color target.
type SurfaceConfig struct {
	Width       uint32
	Height      uint32
	Format      wgpu.TextureFormat
	PresentMode wgpu.PresentMode
	AlphaMode   wgpu.CompositeAlphaMode
	SampleCount uint32
}

// Target returns the multisample target description that matches this configuration.
func (c SurfaceConfig) Target() TargetInfo {
	return TargetInfo{
		Width:       c.Width,
		Height:      c.Height,
		Format:      c.Format,
		SampleCount: c.SampleCount,
	}
}

// TargetInfo describes the multisample color target.
type TargetInfo struct {
	Width       uint32
	Height      uint32
	Format      wgpu.TextureFormat
	SampleCount uint32
}

// BufferDescriptor describes a buffer to create. When Size is zero the length of Contents is used.
type BufferDescriptor struct {
	Label    string
	Size     uint64
	Usage    wgpu.BufferUsage
	Contents []byte
}

// BindGroupDescriptor binds one whole buffer per entry.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// BindGroupEntry binds Buffer at Binding.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
}

// PushConstantRange is a byte window of inline per-dispatch data visible to Stages.
type PushConstantRange struct {
	Stages wgpu.ShaderStage
	Start  uint32
	End    uint32
}

// Size returns End - Start.
func (r PushConstantRange) Size() uint32 {
	return r.End - r.Start
}

// RenderPipelineDescriptor holds everything needed to build a render pipeline.
type RenderPipelineDescriptor struct {
	Label            string
	Source           string
	VertexEntry      string
	FragmentEntry    string
	VertexBuffers    []wgpu.VertexBufferLayout
	BindGroupLayouts []BindGroupLayout
	Format           wgpu.TextureFormat
	SampleCount      uint32
	Primitive        wgpu.PrimitiveState
	WriteMask        wgpu.ColorWriteMask
	Blend            *wgpu.BlendState
}

// ComputePipelineDescriptor holds everything needed to build a compute pipeline.
type ComputePipelineDescriptor struct {
	Label              string
	Source             string
	EntryPoint         string
	BindGroupLayouts   []BindGroupLayout
	PushConstantRanges []PushConstantRange
}

// RenderPassDescriptor describes the single color attachment of a render pass.
// When ResolveTarget is set, View is multisampled and is resolved into ResolveTarget.
type RenderPassDescriptor struct {
	Label         string
	View          TextureView
	ResolveTarget TextureView
	ClearColor    wgpu.Color
	StoreOp       wgpu.StoreOp
}

// Buffer is a GPU buffer.
type Buffer interface {
	Label() string
	Size() uint64
	Usage() wgpu.BufferUsage
	Release()
}

// BindGroupLayout is a compiled bind group layout.
type BindGroupLayout interface {
	Label() string
	Release()
}

// BindGroup is a set of bound resources.
type BindGroup interface {
	Label() string
	Release()
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline interface {
	Label() string
	Release()
}

// ComputePipeline is a compiled compute pipeline.
type ComputePipeline interface {
	Label() string
	Release()
}

// TextureView is a view of a texture usable as a render attachment.
type TextureView interface {
	Release()
}

// SurfaceTexture is an acquired presentable image.
type SurfaceTexture interface {
	// View returns the view of the image used as the resolve target (or color attachment).
	View() TextureView
	Release()
}

// CommandBuffer is a finished, submittable command list.
type CommandBuffer interface {
	Release()
}

// CommandEncoder records passes into a command buffer.
type CommandEncoder interface {
	BeginComputePass(label string) ComputePass
	BeginRenderPass(desc RenderPassDescriptor) RenderPass
	Finish() (CommandBuffer, error)
	Release()
}

// ComputePass records compute dispatches.
type ComputePass interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(index uint32, group BindGroup)
	// SetPushConstants writes data at offset into the push-constant window of the bound pipeline.
	SetPushConstants(offset uint32, data []byte)
	DispatchWorkgroups(x, y, z uint32)
	End()
}

// RenderPass records draw calls.
type RenderPass interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format wgpu.IndexFormat)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End()
}
