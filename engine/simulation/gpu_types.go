package simulation

import (
	"github.com/Carmen-Shannon/oxy-particles/common"
)

// PushConstantsSize is the byte size of PushConstants on the GPU.
const PushConstantsSize = 8

// PushConstants is the per-dispatch block read by the compute shader.
// Matches the WGSL struct { time: f32, delta: f32 }.
type PushConstants struct {
	Time  float32 // offset 0: accumulated simulation time in seconds
	Delta float32 // offset 4: elapsed seconds since the previous frame
}

// Size returns the size of the PushConstants struct in bytes.
func (g *PushConstants) Size() int {
	return PushConstantsSize
}

// Marshal serializes the PushConstants struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 8-byte buffer
func (g *PushConstants) Marshal() []byte {
	return common.AppendFloat32s(make([]byte, 0, PushConstantsSize), g.Time, g.Delta)
}
