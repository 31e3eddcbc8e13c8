package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	assert.Equal(t, mgl32.Vec3{0, 0, 1}, c.Eye())
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, c.Direction())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, c.Up())
	assert.InDelta(t, math32.Pi/2, c.Fov(), eps)
	assert.InDelta(t, 0.1, c.Near(), eps)
	assert.InDelta(t, 40000, c.Far(), eps)
	assert.True(t, c.Right().ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, eps))
}

func TestUniformInverseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts []CameraControllerOption
	}{
		{"default", nil},
		{"moved", []CameraControllerOption{WithPosition(mgl32.Vec3{12, -3, 40})}},
		{"rotated", []CameraControllerOption{WithPosition(mgl32.Vec3{-5, 7, 2}), WithYaw(1.1), WithPitch(-0.4)}},
		{"near pole", []CameraControllerOption{WithPitch(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCamera(WithController(NewCameraController(tt.opts...)), WithAspect(16.0/9.0))
			u := c.Uniform()
			identity := u.View.Mul4(u.InverseView)
			assert.True(t, identity.ApproxEqualThreshold(mgl32.Ident4(), eps), "view·inverse = %v", identity)
		})
	}
}

func TestViewMatrixMapsEyeToOrigin(t *testing.T) {
	ctrl := NewCameraController(WithPosition(mgl32.Vec3{3, 4, 5}), WithYaw(0.7))
	c := NewCamera(WithController(ctrl))

	eye := c.ViewMatrix().Mul4x1(c.Eye().Vec4(1))
	assert.True(t, eye.Vec3().ApproxEqualThreshold(mgl32.Vec3{}, eps))

	ahead := c.ViewMatrix().Mul4x1(c.Eye().Add(c.Direction().Mul(10)).Vec4(1))
	assert.InDelta(t, 10, ahead.Z(), 1e-4)
}

func TestProjectionDepthRange(t *testing.T) {
	c := NewCamera()
	p := c.ProjectionMatrix()

	near := p.Mul4x1(mgl32.Vec4{0, 0, c.Near(), 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, c.Far(), 1})
	assert.InDelta(t, 0, near.Z()/near.W(), eps)
	assert.InDelta(t, 1, far.Z()/far.W(), eps)
}

func TestSetAspectFromSize(t *testing.T) {
	c := NewCamera()
	c.SetAspectFromSize(1280, 720)
	assert.InDelta(t, 1280.0/720.0, c.Aspect(), eps)

	c.SetAspectFromSize(0, 0)
	assert.InDelta(t, 1, c.Aspect(), eps)

	c.SetAspect(-1)
	assert.InDelta(t, 1, c.Aspect(), eps)
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera()
	u := c.Uniform()
	buf := u.Marshal()

	require.Len(t, buf, CameraUniformSize)
	assert.Equal(t, 192, u.Size())
	assert.Equal(t, u.View[0], common.Float32At(buf, 0))
	assert.Equal(t, u.InverseView[12], common.Float32At(buf, 64+12*4))
	assert.Equal(t, u.Projection[11], common.Float32At(buf, 128+11*4))
}

func TestCameraUpdateFollowsController(t *testing.T) {
	ctrl := NewCameraController(WithSpeed(2))
	c := NewCamera(WithController(ctrl))

	ctrl.ProcessKey(common.KeyW, true)
	c.Update(0.5)
	assert.True(t, c.Eye().ApproxEqualThreshold(mgl32.Vec3{0, 0, 2}, eps), "eye = %v", c.Eye())

	ctrl.ProcessKey(common.KeyW, false)
	c.Update(0.5)
	assert.True(t, c.Eye().ApproxEqualThreshold(mgl32.Vec3{0, 0, 2}, eps))
}
