package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/engine/logging"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

var (
	// ErrDuplicatePipeline is returned by Build when the selector is already registered.
	ErrDuplicatePipeline = errors.New("pipeline already registered")

	// ErrMissingShader is returned by Build when the pipeline has no shader or lacks a required entry point.
	ErrMissingShader = errors.New("pipeline shader missing")

	// ErrMissingFormat is returned by Build for a render pipeline without a target format.
	ErrMissingFormat = errors.New("render pipeline has no target format")
)

// Registry owns every built pipeline, keyed by Selector.
type Registry struct {
	mu        sync.RWMutex
	pipelines map[Selector]Pipeline
	logger    *zap.Logger
}

// RegistryOption is a functional option used to configure a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used to report built pipelines.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logging.OrNop(logger)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		pipelines: make(map[Selector]Pipeline),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Build compiles p's shader on dev, creates the render or compute pipeline, and registers it
// under p.Selector(). The pipeline layout is made of p's bind group layouts and, for compute
// pipelines, the push-constant range [0, size) visible to the compute stage only.
//
// Parameters:
//   - dev: the device to create the pipeline on
//   - p: the pipeline description from NewPipeline
//
// Returns:
//   - Pipeline: p, now built and immutable
//   - error: ErrDuplicatePipeline, ErrMissingShader, ErrMissingFormat, or a device error
func (r *Registry) Build(dev device.Device, p Pipeline) (Pipeline, error) {
	sel := p.Selector()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pipelines[sel]; ok {
		return nil, fmt.Errorf("build %s: %w", sel, ErrDuplicatePipeline)
	}

	s := p.Shader()
	if s == nil || s.Source() == "" {
		return nil, fmt.Errorf("build %s: %w", sel, ErrMissingShader)
	}

	switch p.Type() {
	case PipelineTypeRender:
		if !s.HasStage(shader.ShaderTypeVertex) || !s.HasStage(shader.ShaderTypeFragment) {
			return nil, fmt.Errorf("build %s: %w: need vertex and fragment entry points", sel, ErrMissingShader)
		}
		if p.Format() == wgpu.TextureFormatUndefined {
			return nil, fmt.Errorf("build %s: %w", sel, ErrMissingFormat)
		}
		rp, err := dev.CreateRenderPipeline(device.RenderPipelineDescriptor{
			Label:            sel.String(),
			Source:           s.Source(),
			VertexEntry:      s.EntryPoint(shader.ShaderTypeVertex),
			FragmentEntry:    s.EntryPoint(shader.ShaderTypeFragment),
			VertexBuffers:    p.VertexBuffers(),
			BindGroupLayouts: p.BindGroupLayouts(),
			Format:           p.Format(),
			SampleCount:      p.SampleCount(),
			Primitive:        p.Primitive(),
			WriteMask:        p.WriteMask(),
			Blend:            p.BlendState(),
		})
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", sel, err)
		}
		p.setRender(rp)

	case PipelineTypeCompute:
		if !s.HasStage(shader.ShaderTypeCompute) {
			return nil, fmt.Errorf("build %s: %w: need a compute entry point", sel, ErrMissingShader)
		}
		var ranges []device.PushConstantRange
		if pc, ok := p.PushConstantRange(); ok {
			ranges = append(ranges, pc)
		}
		cp, err := dev.CreateComputePipeline(device.ComputePipelineDescriptor{
			Label:              sel.String(),
			Source:             s.Source(),
			EntryPoint:         s.EntryPoint(shader.ShaderTypeCompute),
			BindGroupLayouts:   p.BindGroupLayouts(),
			PushConstantRanges: ranges,
		})
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", sel, err)
		}
		p.setCompute(cp)

	default:
		return nil, fmt.Errorf("build %s: unknown pipeline type %d", sel, int(p.Type()))
	}

	r.pipelines[sel] = p
	r.logger.Debug("pipeline built",
		zap.Stringer("selector", sel),
		zap.Stringer("type", p.Type()),
		zap.String("shader", s.Key()),
	)
	return p, nil
}

// Has reports whether sel is registered.
func (r *Registry) Has(sel Selector) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.pipelines[sel]
	return ok
}

// Get returns the pipeline registered under sel. A missing selector is a programming error and panics.
func (r *Registry) Get(sel Selector) Pipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[sel]
	if !ok {
		panic(fmt.Sprintf("pipeline registry: no pipeline for selector %s", sel))
	}
	return p
}

// Render returns the render pipeline under sel, panicking if it is missing or a compute pipeline.
func (r *Registry) Render(sel Selector) device.RenderPipeline {
	p := r.Get(sel)
	if p.Type() != PipelineTypeRender {
		panic(fmt.Sprintf("pipeline registry: %s is a %s pipeline, want render", sel, p.Type()))
	}
	return p.RenderPipeline()
}

// Compute returns the compute pipeline under sel, panicking if it is missing or a render pipeline.
func (r *Registry) Compute(sel Selector) device.ComputePipeline {
	p := r.Get(sel)
	if p.Type() != PipelineTypeCompute {
		panic(fmt.Sprintf("pipeline registry: %s is a %s pipeline, want compute", sel, p.Type()))
	}
	return p.ComputePipeline()
}

// Len returns the number of registered pipelines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pipelines)
}

// Release frees every pipeline and empties the registry.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sel, p := range r.pipelines {
		p.Release()
		delete(r.pipelines, sel)
	}
}

// CreateBindGroupLayouts creates one layout per listed group from the declarations in s,
// applying visibility to every entry.
//
// Parameters:
//   - dev: the device to create the layouts on
//   - s: the parsed shader
//   - visibility: the stages that see the bindings
//   - groups: the group indices to create, in pipeline layout order
//
// Returns:
//   - []device.BindGroupLayout: the layouts in the order of groups
//   - error: an error if s does not declare a group or creation fails
func CreateBindGroupLayouts(dev device.Device, s shader.Shader, visibility wgpu.ShaderStage, groups ...int) ([]device.BindGroupLayout, error) {
	layouts := make([]device.BindGroupLayout, 0, len(groups))
	for _, g := range groups {
		desc, ok := s.BindGroupLayoutDescriptor(g, visibility)
		if !ok {
			releaseLayouts(layouts)
			return nil, fmt.Errorf("shader %s declares no @group(%d)", s.Key(), g)
		}
		layout, err := dev.CreateBindGroupLayout(desc)
		if err != nil {
			releaseLayouts(layouts)
			return nil, fmt.Errorf("create layout for %s group %d: %w", s.Key(), g, err)
		}
		layouts = append(layouts, layout)
	}
	return layouts, nil
}

func releaseLayouts(layouts []device.BindGroupLayout) {
	for _, l := range layouts {
		l.Release()
	}
}
