package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"go.uber.org/zap"
)

// Window is the part of the platform window the frame loop drives.
// window.Window satisfies it.
type Window interface {
	PollEvents() bool
	RequestClose()
	SetResizeCallback(callback func(width, height int))
	SetKeyCallback(callback func(key int, pressed bool))
	SetMouseMotionCallback(callback func(dx, dy float64))
	SetScrollCallback(callback func(dy float64))
}

// engine implements the Engine interface.
// Runs the frame loop on the calling goroutine.
type engine struct {
	window     Window
	renderer   renderer.Renderer
	controller camera.CameraController

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	quitOnce sync.Once
	quit     chan struct{}

	now    func() time.Time
	sleep  func(time.Duration)
	logger *zap.Logger
}

// Engine is the main entry point for the sandbox.
// It wires window input to the camera controller and the renderer, then runs one frame at a time:
// poll events, Update, Render, and react to surface errors.
type Engine interface {
	// Renderer returns the renderer driven by the loop.
	Renderer() renderer.Renderer

	// Run executes frames until the window closes, ctx is cancelled, Quit is called, or a fatal
	// error occurs. Cancellation is observed between frames. Must be called on the thread that
	// created the window.
	//
	// Parameters:
	//   - ctx: cancels the loop between frames
	//
	// Returns:
	//   - error: nil on a normal exit, otherwise the fatal update or surface error
	Run(ctx context.Context) error

	// Quit asks the loop to stop after the current frame and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates an Engine over win and r and registers the window callbacks.
//
// Parameters:
//   - win: the platform window
//   - r: the renderer
//   - options: functional options for engine configuration (profiling, frame limit, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(win Window, r renderer.Renderer, options ...EngineBuilderOption) Engine {
	e := &engine{
		window:   win,
		renderer: r,
		quit:     make(chan struct{}),
		now:      time.Now,
		sleep:    time.Sleep,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	win.SetResizeCallback(func(width, height int) {
		if err := e.renderer.Resize(uint32(max(width, 0)), uint32(max(height, 0))); err != nil {
			e.logger.Error("resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		}
	})
	if e.controller != nil {
		win.SetKeyCallback(func(key int, pressed bool) {
			e.controller.ProcessKey(key, pressed)
		})
		win.SetMouseMotionCallback(e.controller.ProcessMouseMotion)
		win.SetScrollCallback(e.controller.ProcessScroll)
	}

	return e
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run(ctx context.Context) error {
	last := e.now()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("frame loop cancelled", zap.Error(ctx.Err()))
			return nil
		case <-e.quit:
			return nil
		default:
		}

		if !e.window.PollEvents() {
			return nil
		}

		frameStart := e.now()
		delta := float32(frameStart.Sub(last).Seconds())
		last = frameStart

		if err := e.frame(delta); err != nil {
			return err
		}

		if e.profilingEnabled {
			e.profiler.Tick()
		}
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
				e.sleep(remaining)
			}
		}
	}
}

func (e *engine) frame(delta float32) error {
	if err := e.renderer.Update(delta); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if err := e.renderer.Render(); err != nil {
		if err := e.renderer.HandleRenderError(err); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quit)
		e.window.RequestClose()
	})
}
