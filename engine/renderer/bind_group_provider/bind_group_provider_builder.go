package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
)

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithUniformBuffer allocates a Uniform|CopyDst buffer of size bytes at binding. The provider
// owns it and frees it on Release.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - size: the buffer size in bytes
//
// Returns:
//   - BindGroupProviderOption: a function that adds the uniform buffer to the provider
func WithUniformBuffer(binding uint32, size uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.entries[binding] = &entry{size: size, owned: true}
	}
}

// WithBuffer binds an existing buffer at binding. The provider does not free it.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding uint32, buf device.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.entries[binding] = &entry{buffer: buf}
	}
}
