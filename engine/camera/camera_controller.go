package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraController defines a free-fly controller. Controllers own positional state
// (position, yaw, pitch) and consume raw input; Camera reads from the controller and
// computes view/projection matrices.
type CameraController interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// SetPosition sets the camera's world-space position directly.
	SetPosition(p mgl32.Vec3)

	// Direction returns the view direction derived from yaw and pitch: RotY(yaw)·RotX(pitch)·+Z.
	Direction() mgl32.Vec3

	// Yaw returns the rotation about +Y in radians.
	Yaw() float32

	// Pitch returns the rotation about +X in radians, within ±(π/2 − 0.001).
	Pitch() float32

	// Speed returns the movement speed in world units per second.
	Speed() float32

	// SetSpeed sets the movement speed. Values below the minimum are clamped.
	SetSpeed(speed float32)

	// Sensitivity returns the radians of rotation per unit of mouse motion.
	Sensitivity() float32

	// ProcessKey records a key press or release.
	//
	// Parameters:
	//   - key: GLFW key code
	//   - pressed: true on press or repeat, false on release
	//
	// Returns:
	//   - bool: true if the key is bound by the controller
	ProcessKey(key int, pressed bool) bool

	// ProcessMouseMotion rotates the view by a raw cursor delta.
	ProcessMouseMotion(dx, dy float64)

	// ProcessScroll scales the speed by 1 + 0.1·dy.
	ProcessScroll(dy float64)

	// Update moves the position along the held axes for delta seconds.
	//
	// Parameters:
	//   - delta: frame time in seconds
	//   - up: the camera up vector, used for the right and vertical axes
	Update(delta float32, up mgl32.Vec3)
}

const (
	// pitchLimit keeps the direction off the up axis so the view basis stays defined.
	pitchLimit = math32.Pi/2 - 0.001

	// speedStep is the fractional speed change of one arrow key press.
	speedStep = 0.2

	// scrollStep is the fractional speed change of one scroll line.
	scrollStep = 0.1

	minSpeed = 0.001
)

// axis is a pair of opposing keys producing -1, 0, or +1.
type axis struct {
	negativeKey, positiveKey         int
	negativePressed, positivePressed bool
}

func (a *axis) process(key int, pressed bool) bool {
	switch key {
	case a.negativeKey:
		a.negativePressed = pressed
	case a.positiveKey:
		a.positivePressed = pressed
	default:
		return false
	}
	return true
}

func (a *axis) value() float32 {
	var v float32
	if a.negativePressed {
		v--
	}
	if a.positivePressed {
		v++
	}
	return v
}

type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	yaw      float32
	pitch    float32

	speed       float32
	sensitivity float32

	horizontal axis
	forward    axis
	vertical   axis
	speedAxis  axis
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a free-fly controller at (0, 0, 1) facing +Z with speed 1 and
// mouse sensitivity 0.005. A/D strafe, W/S move forward/back, Space/LeftShift move up/down,
// and the up/down arrows scale the speed.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		position:    mgl32.Vec3{0, 0, 1},
		speed:       1.0,
		sensitivity: 0.005,
		horizontal:  axis{negativeKey: common.KeyA, positiveKey: common.KeyD},
		forward:     axis{negativeKey: common.KeyS, positiveKey: common.KeyW},
		vertical:    axis{negativeKey: common.KeyLeftShift, positiveKey: common.KeySpace},
		speedAxis:   axis{negativeKey: common.KeyDown, positiveKey: common.KeyUp},
	}
	for _, option := range options {
		option(cc)
	}
	cc.pitch = mgl32.Clamp(cc.pitch, -pitchLimit, pitchLimit)
	cc.speed = max(cc.speed, minSpeed)
	return cc
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(p mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = p
}

func (cc *cameraControllerImpl) Direction() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.direction()
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) Speed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speed
}

func (cc *cameraControllerImpl) SetSpeed(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.speed = max(speed, minSpeed)
}

func (cc *cameraControllerImpl) Sensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.sensitivity
}

func (cc *cameraControllerImpl) ProcessKey(key int, pressed bool) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.speedAxis.process(key, pressed) {
		if pressed {
			cc.speed = max(cc.speed*(1+cc.speedAxis.value()*speedStep), minSpeed)
		}
		return true
	}
	handled := cc.horizontal.process(key, pressed)
	handled = cc.forward.process(key, pressed) || handled
	handled = cc.vertical.process(key, pressed) || handled
	return handled
}

func (cc *cameraControllerImpl) ProcessMouseMotion(dx, dy float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw -= float32(dx) * cc.sensitivity
	cc.pitch -= float32(dy) * cc.sensitivity
	cc.pitch = mgl32.Clamp(cc.pitch, -pitchLimit, pitchLimit)
}

func (cc *cameraControllerImpl) ProcessScroll(dy float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.speed = max(cc.speed*(1+float32(dy)*scrollStep), minSpeed)
}

func (cc *cameraControllerImpl) Update(delta float32, up mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	h, f, v := cc.horizontal.value(), cc.forward.value(), cc.vertical.value()
	if h == 0 && f == 0 && v == 0 {
		return
	}

	dir := cc.direction()
	right := up.Cross(dir).Normalize()
	move := right.Mul(h).Add(dir.Mul(f)).Add(up.Mul(v))
	if move.Len() == 0 {
		return
	}
	cc.position = cc.position.Add(move.Normalize().Mul(cc.speed * delta))
}

// direction computes RotY(yaw)·RotX(pitch)·+Z. Caller must hold the mutex.
func (cc *cameraControllerImpl) direction() mgl32.Vec3 {
	rot := mgl32.Rotate3DY(cc.yaw).Mul3(mgl32.Rotate3DX(cc.pitch))
	return rot.Mul3x1(mgl32.Vec3{0, 0, 1})
}
