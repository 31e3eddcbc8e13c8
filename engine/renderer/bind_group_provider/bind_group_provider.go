package bind_group_provider

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoBindings is returned by NewBindGroupProvider when no buffer option was given.
var ErrNoBindings = errors.New("bind group provider has no bindings")

type entry struct {
	buffer device.Buffer
	size   uint64
	owned  bool
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	device    device.Device
	bindGroup device.BindGroup

	// entries holds the bound buffers keyed by binding index.
	entries map[uint32]*entry
}

// BindGroupProvider owns one bind group and knows the buffer behind each of its bindings.
// Components hold a provider to bind it in a pass and to write uniform data into it.
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group for shader binding.
	//
	// Returns:
	//   - device.BindGroup: the bind group
	BindGroup() device.BindGroup

	// Buffer returns the buffer bound at binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - device.Buffer: the buffer or nil
	Buffer(binding uint32) device.Buffer

	// Bindings returns the bound binding indices in ascending order.
	Bindings() []uint32

	// Write enqueues the writes in order. Panics on a binding the provider does not hold.
	//
	// Parameters:
	//   - writes: the buffer writes to apply
	Write(writes ...BufferWrite)

	// Release frees the bind group and the buffers the provider allocated.
	// Buffers supplied with WithBuffer are left to their owner.
	Release()
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider allocates the requested uniform buffers and creates a bind group over
// layout with one whole-buffer entry per binding.
//
// Parameters:
//   - dev: the device to allocate on
//   - label: debug label of the bind group; owned buffers are labelled "<label> binding <n>"
//   - layout: the bind group layout the entries must match
//   - options: the buffer bindings
//
// Returns:
//   - BindGroupProvider: the provider
//   - error: ErrNoBindings, or an allocation error
func NewBindGroupProvider(dev device.Device, label string, layout device.BindGroupLayout, options ...BindGroupProviderOption) (BindGroupProvider, error) {
	p := &bindGroupProvider{
		label:   label,
		device:  dev,
		entries: make(map[uint32]*entry),
	}
	for _, opt := range options {
		opt(p)
	}
	if len(p.entries) == 0 {
		return nil, fmt.Errorf("%s: %w", label, ErrNoBindings)
	}

	bindings := p.Bindings()
	groupEntries := make([]device.BindGroupEntry, 0, len(bindings))
	for _, b := range bindings {
		e := p.entries[b]
		if e.owned {
			buf, err := dev.CreateBuffer(device.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", label, b),
				Size:  e.size,
				Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				p.releaseOwned()
				return nil, fmt.Errorf("%s binding %d: %w", label, b, err)
			}
			e.buffer = buf
		}
		groupEntries = append(groupEntries, device.BindGroupEntry{Binding: b, Buffer: e.buffer})
	}

	bg, err := dev.CreateBindGroup(device.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: groupEntries,
	})
	if err != nil {
		p.releaseOwned()
		return nil, fmt.Errorf("%s bind group: %w", label, err)
	}
	p.bindGroup = bg
	return p, nil
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() device.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding uint32) device.Buffer {
	if e, ok := p.entries[binding]; ok {
		return e.buffer
	}
	return nil
}

func (p *bindGroupProvider) Bindings() []uint32 {
	return slices.Sorted(maps.Keys(p.entries))
}

func (p *bindGroupProvider) Write(writes ...BufferWrite) {
	for _, w := range writes {
		e, ok := p.entries[w.Binding]
		if !ok {
			panic(fmt.Sprintf("%s: no buffer at binding %d", p.label, w.Binding))
		}
		p.device.WriteBuffer(e.buffer, w.Offset, w.Data)
	}
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.releaseOwned()
}

func (p *bindGroupProvider) releaseOwned() {
	for _, e := range p.entries {
		if e.owned && e.buffer != nil {
			e.buffer.Release()
			e.buffer = nil
		}
	}
}
