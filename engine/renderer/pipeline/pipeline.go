package pipeline

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

// String returns "compute" or "render".
func (t PipelineType) String() string {
	if t == PipelineTypeRender {
		return "render"
	}
	return "compute"
}

// VertexLayout is implemented by vertex types that can describe their own buffer layout.
type VertexLayout interface {
	Layout() wgpu.VertexBufferLayout
}

// pipeline is the implementation of the Pipeline interface.
// It holds the description of the pipeline and, once built by a Registry, the GPU object.
type pipeline struct {
	// pipelineType indicates the type of pipeline this is; compute or render
	pipelineType PipelineType
	// selector is the registry key of this pipeline
	selector Selector

	shader           shader.Shader
	bindGroupLayouts []device.BindGroupLayout
	vertexLayouts    []VertexLayout

	// render target state, unused by compute pipelines
	format      wgpu.TextureFormat
	sampleCount uint32
	cullMode    wgpu.CullMode
	topology    wgpu.PrimitiveTopology
	frontFace   wgpu.FrontFace
	writeMask   wgpu.ColorWriteMask
	blendState  *wgpu.BlendState

	// pushConstantSize is the byte size of the compute push-constant window
	pushConstantSize uint32

	renderPipeline  device.RenderPipeline
	computePipeline device.ComputePipeline
}

// Pipeline is a tagged variant over a render pipeline (vertex + fragment) and a compute
// pipeline. It is described with NewPipeline and becomes immutable once a Registry builds it.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// Selector returns the registry key of this pipeline.
	Selector() Selector

	// Shader returns the shader the pipeline is compiled from.
	Shader() shader.Shader

	// BindGroupLayouts returns the caller bind group layouts in group order.
	BindGroupLayouts() []device.BindGroupLayout

	// VertexBuffers returns the vertex buffer layouts in slot order.
	VertexBuffers() []wgpu.VertexBufferLayout

	// Format returns the color target format of a render pipeline.
	Format() wgpu.TextureFormat

	// SampleCount returns the multisample count of a render pipeline.
	SampleCount() uint32

	// Primitive returns the primitive state of a render pipeline.
	Primitive() wgpu.PrimitiveState

	// WriteMask returns the color write mask configured for this pipeline.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state, nil when blending is disabled.
	BlendState() *wgpu.BlendState

	// PushConstantRange returns the compute push-constant window.
	//
	// Returns:
	//   - device.PushConstantRange: the range [0, size) visible to the compute stage
	//   - bool: false when the pipeline declares no push constants
	PushConstantRange() (device.PushConstantRange, bool)

	// RenderPipeline returns the built render pipeline, nil for compute or before Build.
	RenderPipeline() device.RenderPipeline

	// ComputePipeline returns the built compute pipeline, nil for render or before Build.
	ComputePipeline() device.ComputePipeline

	// Built reports whether a Registry has created the GPU pipeline.
	Built() bool

	// Release frees the GPU pipeline and the bind group layouts it owns.
	Release()

	setRender(p device.RenderPipeline)
	setCompute(p device.ComputePipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline describes a new pipeline. Render pipelines default to a triangle list with CCW
// front faces, back-face culling, no blending, and all color channels written.
//
// Parameters:
//   - selector: the registry key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the unbuilt pipeline description
func NewPipeline(selector Selector, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		selector:     selector,
		pipelineType: pipelineType,
		sampleCount:  1,
		cullMode:     wgpu.CullModeBack,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) Selector() Selector {
	return p.selector
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) BindGroupLayouts() []device.BindGroupLayout {
	return p.bindGroupLayouts
}

func (p *pipeline) VertexBuffers() []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, 0, len(p.vertexLayouts))
	for _, v := range p.vertexLayouts {
		out = append(out, v.Layout())
	}
	return out
}

func (p *pipeline) Format() wgpu.TextureFormat {
	return p.format
}

func (p *pipeline) SampleCount() uint32 {
	return p.sampleCount
}

func (p *pipeline) Primitive() wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  p.topology,
		FrontFace: p.frontFace,
		CullMode:  p.cullMode,
	}
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) PushConstantRange() (device.PushConstantRange, bool) {
	if p.pipelineType != PipelineTypeCompute || p.pushConstantSize == 0 {
		return device.PushConstantRange{}, false
	}
	return device.PushConstantRange{
		Stages: wgpu.ShaderStageCompute,
		Start:  0,
		End:    p.pushConstantSize,
	}, true
}

func (p *pipeline) RenderPipeline() device.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ComputePipeline() device.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) Built() bool {
	return p.renderPipeline != nil || p.computePipeline != nil
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	for _, l := range p.bindGroupLayouts {
		l.Release()
	}
	p.bindGroupLayouts = nil
}

func (p *pipeline) setRender(rp device.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) setCompute(cp device.ComputePipeline) {
	p.computePipeline = cp
}
