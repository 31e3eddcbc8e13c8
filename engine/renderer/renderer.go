package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	bgp "github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-particles/engine/simulation"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// ErrFatalSurface is wrapped by HandleRenderError for surface failures the frame loop cannot
// recover from.
var ErrFatalSurface = errors.New("fatal surface error")

type renderer struct {
	mu *sync.Mutex

	device   device.Device
	registry *pipeline.Registry
	camera   camera.Camera
	mesh     *model.Mesh
	stage    *simulation.Stage

	surface      SurfaceState
	configured   bool
	windowWidth  uint32
	windowHeight uint32

	renderShader shader.Shader
	cameraGroup  bgp.BindGroupProvider

	// pending options, resolved in NewRenderer
	presentMode PresentMode
	sampleCount MSAASampleCount

	clearColor wgpu.Color
	prePresent func()

	time   float32
	frames uint64

	logger *zap.Logger
}

// Renderer drives one frame at a time: Update submits the particle compute pass, Render draws
// every particle as an instance of the mesh into the multisampled target, resolves it into the
// surface image, and presents.
type Renderer interface {
	// Configure records the window size, updates the camera aspect, applies a width × height
	// surface and rebuilds the multisample target. Zero dimensions are clamped to 1;
	// re-applying the current size is a no-op. Lost and outdated surfaces are restored to the
	// last configured size.
	//
	// Parameters:
	//   - width: framebuffer width in pixels
	//   - height: framebuffer height in pixels
	//
	// Returns:
	//   - error: an error if the device cannot rebuild the target
	Configure(width, height uint32) error

	// Surface returns the applied surface state.
	Surface() SurfaceState

	// Resize is Configure, named for window resize notifications.
	//
	// Parameters:
	//   - width: new framebuffer width in pixels
	//   - height: new framebuffer height in pixels
	//
	// Returns:
	//   - error: a Configure error
	Resize(width, height uint32) error

	// Update advances simulation time by delta, updates the camera, and submits the compute
	// dispatch. The dispatch is queued before the render submission of the same frame.
	//
	// Parameters:
	//   - delta: elapsed seconds since the previous frame
	//
	// Returns:
	//   - error: a dispatch error
	Update(delta float32) error

	// Render records and presents one frame. Acquisition errors are returned untouched so the
	// caller can pass them to HandleRenderError. Panics if the multisample target no longer
	// matches the surface.
	//
	// Returns:
	//   - error: an acquisition or encoder error
	Render() error

	// HandleRenderError reacts to a Render error. Lost and outdated surfaces are reconfigured
	// to the last window size; out of memory and device loss are returned wrapped in
	// ErrFatalSurface; timeouts and other failures are logged and dropped.
	//
	// Parameters:
	//   - err: the error returned by Render
	//
	// Returns:
	//   - error: nil if the loop may continue, otherwise a fatal error
	HandleRenderError(err error) error

	// Frames returns the number of presented frames.
	Frames() uint64

	// Time returns the accumulated simulation time in seconds.
	Time() float32

	// Release frees the camera uniform resources. The device, registry, mesh, and stage are
	// owned by the caller.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer configures the surface, registers the Default particle render pipeline if the
// registry lacks it, and allocates the camera uniform.
//
// Parameters:
//   - dev: the device to render with
//   - registry: the pipeline registry; Simulation must already be built when stage is set
//   - cam: the camera whose uniform is uploaded every frame
//   - mesh: the mesh instanced once per particle
//   - stage: the simulation stage, or nil to render static instances
//   - options: functional options
//
// Returns:
//   - Renderer: the renderer, with the surface configured
//   - error: a surface, pipeline, or allocation error
func NewRenderer(dev device.Device, registry *pipeline.Registry, cam camera.Camera, mesh *model.Mesh, stage *simulation.Stage, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:           &sync.Mutex{},
		device:       dev,
		registry:     registry,
		camera:       cam,
		mesh:         mesh,
		stage:        stage,
		windowWidth:  1,
		windowHeight: 1,
		presentMode:  PresentModeUncapped,
		sampleCount:  MSAA4x,
		clearColor:   wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		logger:       zap.NewNop(),
	}
	for _, option := range options {
		option(r)
	}

	state, err := initialSurfaceState(dev.SurfaceCapabilities(), r.presentMode, r.sampleCount)
	if err != nil {
		return nil, err
	}
	r.surface = state
	if err := r.configure(r.windowWidth, r.windowHeight); err != nil {
		return nil, err
	}
	r.camera.SetAspectFromSize(r.surface.Width, r.surface.Height)

	if err := r.initPipeline(); err != nil {
		return nil, err
	}
	if err := r.initCameraUniform(); err != nil {
		return nil, err
	}

	r.logger.Info("renderer ready",
		zap.Any("format", r.surface.Format),
		zap.Any("present_mode", r.surface.PresentMode),
		zap.Uint32("samples", r.surface.SampleCount),
		zap.Uint32("instances", r.instanceCount()),
	)
	return r, nil
}

// RegisterPipeline builds the particle render pipeline from s for surface and registers it
// under pipeline.Default. Group 0 of s holds the camera uniform, visible to the vertex stage.
//
// Parameters:
//   - dev: the device to build on
//   - registry: the pipeline registry
//   - s: the render shader
//   - surface: the surface the pipeline renders into
//
// Returns:
//   - pipeline.Pipeline: the built pipeline
//   - error: a layout or pipeline creation error
func RegisterPipeline(dev device.Device, registry *pipeline.Registry, s shader.Shader, surface SurfaceState) (pipeline.Pipeline, error) {
	layouts, err := pipeline.CreateBindGroupLayouts(dev, s, wgpu.ShaderStageVertex, 0)
	if err != nil {
		return nil, err
	}
	p, err := registry.Build(dev, pipeline.NewPipeline(pipeline.Default, pipeline.PipelineTypeRender,
		pipeline.WithShader(s),
		pipeline.WithBindGroupLayouts(layouts...),
		pipeline.WithVertexLayouts(model.Position{}, model.Instance{}),
		pipeline.WithTargetFormat(surface.Format),
		pipeline.WithSampleCount(surface.SampleCount),
	))
	if err != nil {
		for _, l := range layouts {
			l.Release()
		}
		return nil, err
	}
	return p, nil
}

func (r *renderer) initPipeline() error {
	if !r.registry.Has(pipeline.Default) {
		s := r.renderShader
		if s == nil {
			var err error
			if s, err = shader.Load(shader.ParticlesRenderKey); err != nil {
				return err
			}
		}
		if _, err := RegisterPipeline(r.device, r.registry, s, r.surface); err != nil {
			return err
		}
	}

	p := r.registry.Get(pipeline.Default)
	if p.Type() != pipeline.PipelineTypeRender {
		return fmt.Errorf("renderer: %s is a %s pipeline", pipeline.Default, p.Type())
	}
	if p.Format() != r.surface.Format || p.SampleCount() != r.surface.SampleCount {
		return fmt.Errorf("renderer: %s targets %v x%d, surface is %v x%d", pipeline.Default,
			p.Format(), p.SampleCount(), r.surface.Format, r.surface.SampleCount)
	}
	if len(p.BindGroupLayouts()) == 0 {
		return fmt.Errorf("renderer: %s has no camera bind group layout", pipeline.Default)
	}
	return nil
}

func (r *renderer) initCameraUniform() error {
	group, err := bgp.NewBindGroupProvider(r.device, "camera",
		r.registry.Get(pipeline.Default).BindGroupLayouts()[0],
		bgp.WithUniformBuffer(0, camera.CameraUniformSize),
	)
	if err != nil {
		return err
	}
	r.cameraGroup = group
	return nil
}

func (r *renderer) instanceCount() uint32 {
	if r.stage == nil {
		return 0
	}
	return r.stage.Particles().Count()
}

func (r *renderer) Resize(width, height uint32) error {
	return r.Configure(width, height)
}

func (r *renderer) Update(delta float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.time += delta
	r.camera.Update(delta)
	if r.stage == nil {
		return nil
	}
	return r.stage.Dispatch(r.time, delta)
}

func (r *renderer) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tex, err := r.device.AcquireSurfaceTexture()
	if err != nil {
		return err
	}

	if target := r.device.MultisampleTarget(); target != r.surface.Target() {
		tex.Release()
		panic(fmt.Sprintf("renderer: multisample target %+v does not match surface %+v", target, r.surface.Target()))
	}

	msaa, err := r.device.CreateMultisampleView()
	if err != nil {
		tex.Release()
		return fmt.Errorf("multisample view: %w", err)
	}
	if msaa != nil {
		defer msaa.Release()
	}

	uniform := r.camera.Uniform()
	r.cameraGroup.Write(bgp.BufferWrite{Binding: 0, Data: uniform.Marshal()})

	enc, err := r.device.CreateCommandEncoder("frame")
	if err != nil {
		tex.Release()
		return fmt.Errorf("frame encoder: %w", err)
	}
	defer enc.Release()

	desc := device.RenderPassDescriptor{
		Label:      "particles",
		View:       tex.View(),
		ClearColor: r.clearColor,
		StoreOp:    wgpu.StoreOpStore,
	}
	if msaa != nil {
		desc.View = msaa
		desc.ResolveTarget = tex.View()
	}

	pass := enc.BeginRenderPass(desc)
	pass.SetPipeline(r.registry.Render(pipeline.Default))
	pass.SetBindGroup(0, r.cameraGroup.BindGroup())
	if r.stage != nil {
		particles := r.stage.Particles()
		r.mesh.DrawInstanced(pass, particles.Positions(), 0, particles.Count())
	}
	pass.End()

	cb, err := enc.Finish()
	if err != nil {
		tex.Release()
		return fmt.Errorf("frame encoder: %w", err)
	}
	r.device.Submit(cb)
	if r.stage != nil {
		r.stage.Retire()
	}

	if r.prePresent != nil {
		r.prePresent()
	}
	r.device.Present(tex)
	r.frames++
	return nil
}

func (r *renderer) HandleRenderError(err error) error {
	if err == nil {
		return nil
	}

	kind := device.ClassifySurfaceError(err)
	switch kind {
	case device.SurfaceErrorLost, device.SurfaceErrorOutdated:
		r.mu.Lock()
		defer r.mu.Unlock()
		r.logger.Debug("reconfiguring surface", zap.Stringer("kind", kind), zap.Error(err))
		// force the reconfigure even though the size is unchanged
		r.configured = false
		return r.configure(r.windowWidth, r.windowHeight)
	case device.SurfaceErrorOutOfMemory, device.SurfaceErrorDeviceLost:
		return fmt.Errorf("%w: %w", ErrFatalSurface, err)
	default:
		r.logger.Warn("dropped frame", zap.Stringer("kind", kind), zap.Error(err))
		return nil
	}
}

func (r *renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *renderer) Time() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.time
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cameraGroup != nil {
		r.cameraGroup.Release()
		r.cameraGroup = nil
	}
}
