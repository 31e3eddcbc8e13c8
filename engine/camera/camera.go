package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	eye       mgl32.Vec3
	direction mgl32.Vec3
	up        mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes a left-handed look-to view matrix
// and a [0, 1] depth projection. When a CameraController is attached, Update advances it
// and takes the eye and direction from it.
type Camera interface {
	// Eye returns the camera's world-space position.
	Eye() mgl32.Vec3

	// Direction returns the normalized view direction.
	Direction() mgl32.Vec3

	// Up returns the camera's up vector.
	Up() mgl32.Vec3

	// Right returns the normalized right vector, up × direction.
	Right() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// SetAspect sets the aspect ratio and recomputes the projection.
	//
	// Parameters:
	//   - aspect: width / height, ignored when not positive
	SetAspect(aspect float32)

	// SetAspectFromSize sets the aspect ratio from a framebuffer size. Zero sizes are clamped to 1.
	SetAspectFromSize(width, height uint32)

	// ViewMatrix returns the world-to-view matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the view-to-clip matrix.
	ProjectionMatrix() mgl32.Mat4

	// Uniform returns the view, inverse view, and projection matrices for upload.
	//
	// Returns:
	//   - CameraUniform: the GPU uniform block
	Uniform() CameraUniform

	// Controller returns the attached controller, or nil.
	Controller() CameraController

	// SetController attaches ctrl. The camera takes its eye and direction from ctrl on the next Update.
	SetController(ctrl CameraController)

	// Update advances the attached controller by delta seconds and recomputes the matrices.
	//
	// Parameters:
	//   - delta: frame time in seconds
	Update(delta float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at (0, 0, 1) looking down +Z with +Y up, a 90° vertical
// field of view, and clip planes at 0.1 and 40000.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:        &sync.Mutex{},
		eye:       mgl32.Vec3{0, 0, 1},
		direction: mgl32.Vec3{0, 0, 1},
		up:        mgl32.Vec3{0, 1, 0},
		fov:       math32.Pi / 2,
		aspect:    1.0,
		near:      0.1,
		far:       40000.0,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller != nil {
		c.eye = c.controller.Position()
		c.direction = c.controller.Direction()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Direction() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.direction
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Right() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up.Cross(c.direction).Normalize()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetAspectFromSize(width, height uint32) {
	c.SetAspect(float32(max(width, 1)) / float32(max(height, 1)))
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) Uniform() CameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CameraUniform{
		View:        c.viewMatrix,
		InverseView: c.viewMatrix.Inv(),
		Projection:  c.projectionMatrix,
	}
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *cameraImpl) Update(delta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller != nil {
		c.controller.Update(delta, c.up)
		c.eye = c.controller.Position()
		c.direction = c.controller.Direction()
	}
	c.updateMatrices()
}

// updateMatrices recalculates the view and projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = common.LookToLH(c.eye, c.direction, c.up)
	c.projectionMatrix = common.PerspectiveLH(c.fov, c.aspect, c.near, c.far)
}
