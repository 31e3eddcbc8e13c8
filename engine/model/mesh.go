package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrEmptyMesh is returned by NewMesh when vertices or indices are empty.
	ErrEmptyMesh = errors.New("mesh has no vertices or indices")

	// ErrIndexOutOfRange is returned by NewMesh when an index does not address a vertex.
	ErrIndexOutOfRange = errors.New("mesh index out of range")
)

// Mesh is an indexed triangle mesh uploaded to the GPU once at creation.
type Mesh struct {
	label        string
	vertexBuffer device.Buffer
	indexBuffer  device.Buffer
	indexCount   uint32
	vertexCount  uint32
}

// NewMesh validates indices against vertices and uploads both arrays.
//
// Parameters:
//   - dev: the device to allocate the buffers on
//   - label: debug label prefix for the buffers
//   - vertices: the vertex array
//   - indices: triangle list indices into vertices
//
// Returns:
//   - *Mesh: the uploaded mesh
//   - error: ErrEmptyMesh, ErrIndexOutOfRange, or a buffer allocation error
func NewMesh[V Vertex](dev device.Device, label string, vertices []V, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("mesh %s: %w", label, ErrEmptyMesh)
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("mesh %s: index %d at %d, %d vertices: %w", label, idx, i, len(vertices), ErrIndexOutOfRange)
		}
	}

	var vertexData []byte
	for _, v := range vertices {
		vertexData = v.AppendBytes(vertexData)
	}

	vb, err := dev.CreateBuffer(device.BufferDescriptor{
		Label:    label + " vertices",
		Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		Contents: vertexData,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh %s: vertex buffer: %w", label, err)
	}

	ib, err := dev.CreateBuffer(device.BufferDescriptor{
		Label:    label + " indices",
		Usage:    wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		Contents: common.AppendUint32s(nil, indices...),
	})
	if err != nil {
		vb.Release()
		return nil, fmt.Errorf("mesh %s: index buffer: %w", label, err)
	}

	return &Mesh{
		label:        label,
		vertexBuffer: vb,
		indexBuffer:  ib,
		indexCount:   uint32(len(indices)),
		vertexCount:  uint32(len(vertices)),
	}, nil
}

// Label returns the mesh label.
func (m *Mesh) Label() string {
	return m.label
}

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() uint32 {
	return m.indexCount
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() uint32 {
	return m.vertexCount
}

// Draw binds the mesh at vertex slot 0 and issues one indexed draw of one instance.
func (m *Mesh) Draw(pass device.RenderPass) {
	m.bind(pass)
	pass.DrawIndexed(m.indexCount, 1, 0, 0, 0)
}

// DrawInstanced binds the mesh at slot 0 and instances at slot 1, then issues one indexed
// draw over the instance range [start, end). The instance buffer layout must match the
// pipeline's slot 1 layout.
//
// Parameters:
//   - pass: the open render pass
//   - instances: the per-instance vertex buffer
//   - start: first instance
//   - end: one past the last instance
func (m *Mesh) DrawInstanced(pass device.RenderPass, instances device.Buffer, start, end uint32) {
	if end < start {
		panic(fmt.Sprintf("mesh %s: instance range [%d, %d) is reversed", m.label, start, end))
	}
	m.bind(pass)
	pass.SetVertexBuffer(1, instances)
	pass.DrawIndexed(m.indexCount, end-start, 0, 0, start)
}

func (m *Mesh) bind(pass device.RenderPass) {
	pass.SetVertexBuffer(0, m.vertexBuffer)
	pass.SetIndexBuffer(m.indexBuffer, wgpu.IndexFormatUint32)
}

// Release frees the vertex and index buffers.
func (m *Mesh) Release() {
	m.vertexBuffer.Release()
	m.indexBuffer.Release()
}
