package device

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/logging"
	"go.uber.org/zap"
)

// WGPUDeviceOption is a functional option applied by NewWGPUDevice before any GPU object is created.
type WGPUDeviceOption func(*wgpuDevice)

// WithLabel sets the debug label of the logical device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - WGPUDeviceOption: option function to apply
func WithLabel(label string) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.label = label
	}
}

// WithForceFallbackAdapter forces the CPU/software fallback adapter. This requires a software
// Vulkan ICD (e.g. lavapipe or SwiftShader).
//
// Parameters:
//   - force: true to request the fallback adapter
//
// Returns:
//   - WGPUDeviceOption: option function to apply
func WithForceFallbackAdapter(force bool) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.forceFallbackAdapter = force
	}
}

// WithNativeLogLevel sets the wgpu-native log level ("off", "error", "warn", "info", "debug",
// "trace"). Unknown names leave the library default.
//
// Parameters:
//   - level: the level name
//
// Returns:
//   - WGPUDeviceOption: option function to apply
func WithNativeLogLevel(level string) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.nativeLogLevel = level
	}
}

// WithLogger sets the logger used for device lifecycle messages.
func WithLogger(logger *zap.Logger) WGPUDeviceOption {
	return func(d *wgpuDevice) {
		d.logger = logging.OrNop(logger)
	}
}
