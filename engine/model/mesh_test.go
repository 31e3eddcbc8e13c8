package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device/devicetest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMeshIndexBounds(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		wantErr error
	}{
		{"valid", []uint32{0, 1, 2}, nil},
		{"last vertex", []uint32{2, 2, 2}, nil},
		{"one past", []uint32{0, 1, 3}, ErrIndexOutOfRange},
		{"far past", []uint32{0, 1, 1 << 20}, ErrIndexOutOfRange},
		{"empty", nil, ErrEmptyMesh},
	}
	vertices := []Position{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := devicetest.NewRecorder()
			m, err := NewMesh(rec, "tri", vertices, tt.indices)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, rec.Buffers)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint32(len(tt.indices)), m.IndexCount())
			assert.Equal(t, uint32(3), m.VertexCount())
		})
	}
}

func TestNewMeshUploads(t *testing.T) {
	rec := devicetest.NewRecorder()
	vertices, indices := Cube()

	m, err := NewMesh(rec, "cube", vertices, indices)
	require.NoError(t, err)
	require.Len(t, rec.Buffers, 2)

	vb, ib := rec.Buffers[0], rec.Buffers[1]
	assert.Equal(t, uint64(8*12), vb.Size())
	assert.Equal(t, uint64(36*4), ib.Size())
	assert.NotZero(t, vb.Usage()&wgpu.BufferUsageVertex)
	assert.NotZero(t, ib.Usage()&wgpu.BufferUsageIndex)
	assert.Equal(t, float32(-0.5), common.Float32At(vb.Contents, 0))
	assert.Equal(t, float32(0.5), common.Float32At(vb.Contents, 6*12+4))

	m.Release()
	assert.True(t, vb.Released)
	assert.True(t, ib.Released)
}

func TestCube(t *testing.T) {
	vertices, indices := Cube()
	assert.Len(t, vertices, 8)
	assert.Len(t, indices, 36)
	for _, idx := range indices {
		assert.Less(t, idx, uint32(len(vertices)))
	}
	for _, v := range vertices {
		for _, c := range v {
			assert.Equal(t, float32(0.5), max(c, -c))
		}
	}
}

func recordDraw(t *testing.T, draw func(m *Mesh, pass device.RenderPass, instances device.Buffer)) *devicetest.Recorder {
	t.Helper()
	rec := devicetest.NewRecorder()
	vertices, indices := Cube()
	m, err := NewMesh(rec, "cube", vertices, indices)
	require.NoError(t, err)
	instances, err := rec.CreateBuffer(device.BufferDescriptor{Label: "instances", Size: 12 * 100, Usage: wgpu.BufferUsageVertex})
	require.NoError(t, err)

	enc, err := rec.CreateCommandEncoder("draw")
	require.NoError(t, err)
	pass := enc.BeginRenderPass(device.RenderPassDescriptor{Label: "pass"})
	draw(m, pass, instances)
	pass.End()
	cb, err := enc.Finish()
	require.NoError(t, err)
	rec.Submit(cb)
	return rec
}

func TestMeshDraw(t *testing.T) {
	rec := recordDraw(t, func(m *Mesh, pass device.RenderPass, _ device.Buffer) {
		m.Draw(pass)
	})

	draws := rec.Commands(devicetest.OpDrawIndexed)
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(36), draws[0].IndexCount)
	assert.Equal(t, uint32(1), draws[0].InstanceCount)

	ibs := rec.Commands(devicetest.OpSetIndexBuffer)
	require.Len(t, ibs, 1)
	assert.Equal(t, wgpu.IndexFormatUint32, ibs[0].IndexFormat)
	assert.Len(t, rec.Commands(devicetest.OpSetVertexBuffer), 1)
}

func TestMeshDrawInstanced(t *testing.T) {
	tests := []struct {
		name       string
		start, end uint32
	}{
		{"all", 0, 100},
		{"window", 10, 35},
		{"empty", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordDraw(t, func(m *Mesh, pass device.RenderPass, instances device.Buffer) {
				m.DrawInstanced(pass, instances, tt.start, tt.end)
			})

			draws := rec.Commands(devicetest.OpDrawIndexed)
			require.Len(t, draws, 1)
			assert.Equal(t, uint32(36), draws[0].IndexCount)
			assert.Equal(t, tt.end-tt.start, draws[0].InstanceCount)
			assert.Equal(t, tt.start, draws[0].FirstInstance)

			vbs := rec.Commands(devicetest.OpSetVertexBuffer)
			require.Len(t, vbs, 2)
			assert.Equal(t, uint32(0), vbs[0].Slot)
			assert.Equal(t, uint32(1), vbs[1].Slot)
			assert.Equal(t, "instances", vbs[1].Label)
		})
	}
}

func TestMeshDrawInstancedReversedPanics(t *testing.T) {
	assert.Panics(t, func() {
		recordDraw(t, func(m *Mesh, pass device.RenderPass, instances device.Buffer) {
			m.DrawInstanced(pass, instances, 5, 2)
		})
	})
}

func TestVertexLayouts(t *testing.T) {
	pos := Position{}.Layout()
	inst := Instance{}.Layout()

	assert.Equal(t, uint64(12), pos.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, pos.StepMode)
	assert.Equal(t, uint32(0), pos.Attributes[0].ShaderLocation)

	assert.Equal(t, uint64(InstanceStride), inst.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, inst.StepMode)
	assert.Equal(t, uint32(1), inst.Attributes[0].ShaderLocation)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, inst.Attributes[0].Format)

	assert.Len(t, Instance{1, 2, 3}.AppendBytes(nil), 12)
}
