package model

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// Vertex is a GPU vertex type: it describes its buffer layout and serializes itself into it.
type Vertex interface {
	pipeline.VertexLayout

	// AppendBytes appends the little-endian GPU representation of the vertex to dst.
	AppendBytes(dst []byte) []byte
}

// vec3Stride is the byte size of a tightly packed vec3<f32>.
const vec3Stride = 12

// Position is a per-vertex model-space position bound at shader location 0.
type Position [3]float32

// Layout returns the per-vertex Float32x3 layout at location 0.
func (Position) Layout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: vec3Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		},
	}
}

func (p Position) AppendBytes(dst []byte) []byte {
	return common.AppendFloat32s(dst, p[0], p[1], p[2])
}

// Instance is a per-instance world-space offset bound at shader location 1.
// The simulation positions buffer uses the same packed layout.
type Instance [3]float32

// Layout returns the per-instance Float32x3 layout at location 1.
func (Instance) Layout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: vec3Stride,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 1},
		},
	}
}

func (i Instance) AppendBytes(dst []byte) []byte {
	return common.AppendFloat32s(dst, i[0], i[1], i[2])
}

// InstanceStride is the byte size of one Instance in a GPU buffer.
const InstanceStride = vec3Stride
