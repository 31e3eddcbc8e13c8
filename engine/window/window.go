package window

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling for the sandbox.
// Escape closes the window and F toggles borderless fullscreen; every other key is forwarded.
// Mouse motion is reported as a delta from the previous cursor position so the cursor can stay
// captured for mouse look.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll offset (positive = away from the user)
	SetScrollCallback(callback func(dy float64))

	// SetKeyCallback sets the callback for key press and release events. Repeats are not forwarded.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code and whether it is pressed
	SetKeyCallback(callback func(key int, pressed bool))

	// SetMouseMotionCallback sets the callback for cursor movement.
	//
	// Parameters:
	//   - callback: function receiving the cursor delta in screen coordinates
	SetMouseMotionCallback(callback func(dx, dy float64))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// PollEvents dispatches pending input events to the callbacks without blocking.
	//
	// Returns:
	//   - bool: true if the window is still running afterwards
	PollEvents() bool

	// RequestClose marks the window to close; IsRunning reports false from then on.
	RequestClose()

	// ToggleFullscreen switches between borderless fullscreen on the current monitor and the
	// previous windowed placement.
	ToggleFullscreen()

	// Fullscreen reports whether the window is fullscreen.
	Fullscreen() bool

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// captureCursor hides the cursor and locks it to the window.
	captureCursor bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// mouse turns absolute cursor positions into deltas.
	mouse mouseTracker

	onResize      func(width, height int)
	onScroll      func(dy float64)
	onKey         func(key int, pressed bool)
	onMouseMotion func(dx, dy float64)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a Window with the specified options.
// Applies default values first, then each option in order. Must be called on the main thread.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: an error if GLFW or the window cannot be initialized
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:         "oxy-particles",
		width:         1280,
		height:        720,
		captureCursor: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(dy float64)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyCallback(callback func(key int, pressed bool)) {
	w.onKey = callback
}

func (w *engineWindow) SetMouseMotionCallback(callback func(dx, dy float64)) {
	w.onMouseMotion = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) PollEvents() bool {
	return platformProcessMessages(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) ToggleFullscreen() {
	platformToggleFullscreen(w)
	// the cursor jumps when the window moves
	w.mouse.reset()
}

func (w *engineWindow) Fullscreen() bool {
	return platformIsFullscreen(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// mouseTracker converts absolute cursor positions into deltas. The first position after a
// reset only sets the reference point.
type mouseTracker struct {
	x, y  float64
	valid bool
}

func (m *mouseTracker) move(x, y float64) (dx, dy float64, ok bool) {
	if !m.valid {
		m.x, m.y, m.valid = x, y, true
		return 0, 0, false
	}
	dx, dy = x-m.x, y-m.y
	m.x, m.y = x, y
	return dx, dy, true
}

func (m *mouseTracker) reset() {
	m.valid = false
}
