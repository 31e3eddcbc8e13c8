package renderer

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// SurfaceState is the presentation surface configuration last applied to the device.
// Width and Height are never zero.
type SurfaceState struct {
	Width       uint32
	Height      uint32
	Format      wgpu.TextureFormat
	PresentMode wgpu.PresentMode
	AlphaMode   wgpu.CompositeAlphaMode
	SampleCount uint32
}

// Config returns the device configuration for s.
func (s SurfaceState) Config() device.SurfaceConfig {
	return device.SurfaceConfig{
		Width:       s.Width,
		Height:      s.Height,
		Format:      s.Format,
		PresentMode: s.PresentMode,
		AlphaMode:   s.AlphaMode,
		SampleCount: s.SampleCount,
	}
}

// Target returns the multisample target that must exist while s is applied.
func (s SurfaceState) Target() device.TargetInfo {
	return s.Config().Target()
}

// initialSurfaceState picks the surface format, present mode, and alpha mode from caps.
// An sRGB format is preferred, otherwise the first reported one. Mailbox is used for
// PresentModeUncapped when the surface supports it; everything else falls back to Fifo,
// which every surface supports. Opaque alpha is used when available.
func initialSurfaceState(caps device.SurfaceCapabilities, mode PresentMode, samples MSAASampleCount) (SurfaceState, error) {
	if len(caps.Formats) == 0 {
		return SurfaceState{}, fmt.Errorf("surface reports no formats")
	}

	format := caps.Formats[0]
	for _, f := range caps.Formats {
		if isSRGB(f) {
			format = f
			break
		}
	}

	present := wgpu.PresentModeFifo
	if mode == PresentModeUncapped && slices.Contains(caps.PresentModes, wgpu.PresentModeMailbox) {
		present = wgpu.PresentModeMailbox
	}

	alpha := wgpu.CompositeAlphaModeAuto
	if slices.Contains(caps.AlphaModes, wgpu.CompositeAlphaModeOpaque) {
		alpha = wgpu.CompositeAlphaModeOpaque
	} else if len(caps.AlphaModes) > 0 {
		alpha = caps.AlphaModes[0]
	}

	return SurfaceState{
		Width:       1,
		Height:      1,
		Format:      format,
		PresentMode: present,
		AlphaMode:   alpha,
		SampleCount: uint32(max(samples, MSAAOff)),
	}, nil
}

func isSRGB(f wgpu.TextureFormat) bool {
	switch f {
	case wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatBGRA8UnormSrgb:
		return true
	default:
		return false
	}
}

// Configure records width × height as the window size, updates the camera aspect, applies the
// surface and rebuilds the multisample target with the surface format and sample count. Zero
// dimensions are clamped to 1. Configuring the size the surface already has is a no-op.
//
// Parameters:
//   - width: framebuffer width in pixels
//   - height: framebuffer height in pixels
//
// Returns:
//   - error: an error if the device cannot rebuild the multisample target
func (r *renderer) Configure(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.windowWidth = max(width, 1)
	r.windowHeight = max(height, 1)
	r.camera.SetAspectFromSize(r.windowWidth, r.windowHeight)
	return r.configure(r.windowWidth, r.windowHeight)
}

func (r *renderer) configure(width, height uint32) error {
	next := r.surface
	next.Width = max(width, 1)
	next.Height = max(height, 1)

	if r.configured && next == r.surface {
		return nil
	}
	if err := r.device.ConfigureSurface(next.Config()); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", next.Width, next.Height, err)
	}

	r.surface = next
	r.configured = true
	r.logger.Debug("surface configured",
		zap.Uint32("width", next.Width),
		zap.Uint32("height", next.Height),
		zap.Uint32("samples", next.SampleCount),
	)
	return nil
}

// Surface returns the applied surface state.
func (r *renderer) Surface() SurfaceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface
}
