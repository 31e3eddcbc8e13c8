package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/logging"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Values <= 0 leave the loop uncapped (default).
//
// Parameters:
//   - fps: maximum frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithController routes key, mouse motion, and scroll events to ctrl.
//
// Parameters:
//   - ctrl: the camera controller attached to the rendered camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithController(ctrl camera.CameraController) EngineBuilderOption {
	return func(e *engine) {
		e.controller = ctrl
	}
}

// WithLogger sets the logger used by the frame loop and the default profiler.
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = logging.OrNop(logger)
	}
}

// withClock replaces time.Now.
func withClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		e.now = now
	}
}

// withSleep replaces time.Sleep.
func withSleep(sleep func(time.Duration)) EngineBuilderOption {
	return func(e *engine) {
		e.sleep = sleep
	}
}
