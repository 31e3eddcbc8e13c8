package pipeline

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithShader sets the shader the pipeline is compiled from. Entry points are taken from it.
//
// Parameters:
//   - s: the parsed shader
//
// Returns:
//   - PipelineBuilderOption: a function that sets the shader for this pipeline
func WithShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.shader = s
	}
}

// WithBindGroupLayouts sets the caller bind group layouts, in group order. The pipeline takes
// ownership and releases them with itself.
//
// Parameters:
//   - layouts: one layout per group index starting at 0
//
// Returns:
//   - PipelineBuilderOption: a function that sets the bind group layouts for this pipeline
func WithBindGroupLayouts(layouts ...device.BindGroupLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.bindGroupLayouts = layouts
	}
}

// WithVertexLayouts sets the vertex buffer layouts, one per slot in order.
//
// Parameters:
//   - layouts: vertex types describing their buffer layouts
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex layouts for this pipeline
func WithVertexLayouts(layouts ...VertexLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithTargetFormat sets the color target format of a render pipeline.
//
// Parameters:
//   - format: the surface format
//
// Returns:
//   - PipelineBuilderOption: a function that sets the target format for this pipeline
func WithTargetFormat(format wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.format = format
	}
}

// WithSampleCount sets the multisample count of a render pipeline. Zero is treated as 1.
//
// Parameters:
//   - count: the sample count of the color target
//
// Returns:
//   - PipelineBuilderOption: a function that sets the sample count for this pipeline
func WithSampleCount(count uint32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.sampleCount = max(count, 1)
	}
}

// WithPushConstantSize sets the size in bytes of the compute push-constant window [0, size).
//
// Parameters:
//   - size: the push-constant block size
//
// Returns:
//   - PipelineBuilderOption: a function that sets the push-constant size for this pipeline
func WithPushConstantSize(size uint32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.pushConstantSize = size
	}
}

// WithCullMode sets the cull mode for this pipeline.
//
// Parameters:
//   - mode: the cull mode to use
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithBlendState enables blending with state. Nil disables blending.
//
// Parameters:
//   - state: the blend state to use
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlendState(state *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = state
	}
}
