package camera

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraUniformSize is the byte size of CameraUniform on the GPU: three mat4x4<f32>.
const CameraUniformSize = 3 * 16 * 4

// CameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL struct { view, inv_view, proj: mat4x4<f32> } bound at group 0 binding 0
// of the render pipeline. Matrices are column-major.
type CameraUniform struct {
	View        mgl32.Mat4 // offset   0: world-to-view
	InverseView mgl32.Mat4 // offset  64: view-to-world
	Projection  mgl32.Mat4 // offset 128: view-to-clip
}

// Size returns the size of the CameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (192)
func (g *CameraUniform) Size() int {
	return CameraUniformSize
}

// Marshal serializes the CameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *CameraUniform) Marshal() []byte {
	buf := make([]byte, 0, CameraUniformSize)
	buf = common.AppendFloat32s(buf, g.View[:]...)
	buf = common.AppendFloat32s(buf, g.InverseView[:]...)
	buf = common.AppendFloat32s(buf, g.Projection[:]...)
	return buf
}
