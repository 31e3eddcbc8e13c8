package renderer

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/logging"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSize sets the initial window size the surface is configured to.
//
// Parameters:
//   - width: framebuffer width in pixels, clamped to 1
//   - height: framebuffer height in pixels, clamped to 1
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithSize(width, height uint32) RendererBuilderOption {
	return func(r *renderer) {
		r.windowWidth = max(width, 1)
		r.windowHeight = max(height, 1)
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, the default is MSAA4x. Use MSAAOff to render straight into the surface.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.sampleCount = count
	}
}

// WithClearColor sets the background color the render pass clears to.
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = color
	}
}

// WithShader overrides the embedded particle render shader used when the registry has no
// Default pipeline.
func WithShader(s shader.Shader) RendererBuilderOption {
	return func(r *renderer) {
		r.renderShader = s
	}
}

// WithPrePresentHook registers fn to run after the frame is submitted and before it is presented.
func WithPrePresentHook(fn func()) RendererBuilderOption {
	return func(r *renderer) {
		r.prePresent = fn
	}
}

// WithLogger sets the logger used for surface and frame messages.
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = logging.OrNop(logger)
	}
}
