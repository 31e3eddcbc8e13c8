package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestLookToLHMapsDirectionToPositiveZ(t *testing.T) {
	eye := mgl32.Vec3{3, -2, 5}
	view := LookToLH(eye, mgl32.Vec3{0, 0, 2}, mgl32.Vec3{0, 1, 0})

	p := view.Mul4x1(eye.Add(mgl32.Vec3{0, 0, 10}).Vec4(1))
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assert.InDelta(t, 10, p[2], 1e-5)

	origin := view.Mul4x1(eye.Vec4(1))
	assert.InDelta(t, 0, origin.Vec3().Len(), 1e-5)
}

func TestPerspectiveLHDepthRange(t *testing.T) {
	proj := PerspectiveLH(mgl32.DegToRad(90), 16.0/9.0, 0.1, 40000)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, 0.1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, 40000, 1})
	assert.InDelta(t, 0, near[2]/near[3], 1e-5)
	assert.InDelta(t, 1, far[2]/far[3], 1e-5)
}

func TestDivCeil(t *testing.T) {
	tests := []struct {
		n, d, want uint32
	}{
		{1024, 8, 128},
		{4, 1, 4},
		{1025, 8, 129},
		{1, 64, 1},
		{0, 8, 0},
		{math.MaxUint32, 8, 536870912},
		{math.MaxUint32, 1, math.MaxUint32},
		{math.MaxUint32 - 1, math.MaxUint32, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DivCeil(tt.n, tt.d), "DivCeil(%d, %d)", tt.n, tt.d)
	}
}

func TestAppendFloat32s(t *testing.T) {
	buf := AppendFloat32s(nil, 1.5, -2)
	assert.Len(t, buf, 8)
	assert.Equal(t, float32(1.5), Float32At(buf, 0))
	assert.Equal(t, float32(-2), Float32At(buf, 4))
}
