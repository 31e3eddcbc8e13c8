package simulation

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-particles/common"
	bgp "github.com/Carmen-Shannon/oxy-particles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// StageState is the lifecycle state of the per-frame compute work.
type StageState int

const (
	// StageIdle means no compute commands are pending for the current frame.
	StageIdle StageState = iota

	// StageRecording means the compute pass is open.
	StageRecording

	// StageDispatched means the pass is closed and its commands are queued ahead of the render pass.
	StageDispatched
)

// String returns the state name.
func (s StageState) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageRecording:
		return "recording"
	case StageDispatched:
		return "dispatched"
	default:
		return fmt.Sprintf("StageState(%d)", int(s))
	}
}

// DispatchGrid returns the workgroup counts that cover n invocations with the given
// workgroup size: ceil(n/workgroup) per axis.
//
// Parameters:
//   - n: invocation counts per axis
//   - workgroup: workgroup size per axis, each non-zero
//
// Returns:
//   - [3]uint32: workgroup counts per axis
func DispatchGrid(n, workgroup [3]uint32) [3]uint32 {
	return [3]uint32{
		common.DivCeil(n[0], workgroup[0]),
		common.DivCeil(n[1], workgroup[1]),
		common.DivCeil(n[2], workgroup[2]),
	}
}

// RegisterPipeline builds the particle compute pipeline from s and registers it under
// pipeline.Simulation. Group 0 of s holds the position and velocity storage buffers; the
// pipeline carries a push-constant window sized for PushConstants.
//
// Parameters:
//   - dev: the device to build on
//   - registry: the pipeline registry
//   - s: the compute shader
//
// Returns:
//   - pipeline.Pipeline: the built pipeline
//   - error: a layout or pipeline creation error
func RegisterPipeline(dev device.Device, registry *pipeline.Registry, s shader.Shader) (pipeline.Pipeline, error) {
	layouts, err := pipeline.CreateBindGroupLayouts(dev, s, wgpu.ShaderStageCompute, 0)
	if err != nil {
		return nil, err
	}
	p, err := registry.Build(dev, pipeline.NewPipeline(pipeline.Simulation, pipeline.PipelineTypeCompute,
		pipeline.WithShader(s),
		pipeline.WithBindGroupLayouts(layouts...),
		pipeline.WithPushConstantSize(PushConstantsSize),
	))
	if err != nil {
		for _, l := range layouts {
			l.Release()
		}
		return nil, err
	}
	return p, nil
}

// Stage records and submits the particle compute dispatch once per frame.
type Stage struct {
	mu sync.Mutex

	device        device.Device
	pipeline      device.ComputePipeline
	bindings      bgp.BindGroupProvider
	particles     *Particles
	workgroupSize [3]uint32
	workgroups    [3]uint32

	state      StageState
	dispatches uint64

	label  string
	logger *zap.Logger
}

// NewStage binds particles to the pipeline registered under pipeline.Simulation: positions at
// binding 0 and velocities at binding 1 of group 0. The workgroup size is read from the
// shader's @workgroup_size.
//
// Parameters:
//   - dev: the device to record on
//   - registry: a registry holding the Simulation compute pipeline
//   - particles: the particle state
//   - opts: functional options
//
// Returns:
//   - *Stage: the stage, in StageIdle
//   - error: an error if the pipeline is missing or the bind group cannot be created
func NewStage(dev device.Device, registry *pipeline.Registry, particles *Particles, opts ...StageOption) (*Stage, error) {
	if !registry.Has(pipeline.Simulation) {
		return nil, fmt.Errorf("simulation stage: no %s pipeline registered", pipeline.Simulation)
	}
	p := registry.Get(pipeline.Simulation)
	if p.Type() != pipeline.PipelineTypeCompute {
		return nil, fmt.Errorf("simulation stage: %s is a %s pipeline", pipeline.Simulation, p.Type())
	}
	layouts := p.BindGroupLayouts()
	if len(layouts) == 0 {
		return nil, fmt.Errorf("simulation stage: %s has no bind group layout", pipeline.Simulation)
	}

	s := &Stage{
		device:        dev,
		pipeline:      registry.Compute(pipeline.Simulation),
		particles:     particles,
		workgroupSize: p.Shader().WorkgroupSize(),
		label:         "simulation",
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.workgroups = DispatchGrid(particles.Grid(), s.workgroupSize)

	bindings, err := bgp.NewBindGroupProvider(dev, s.label+" particles", layouts[0],
		bgp.WithBuffer(0, particles.Positions()),
		bgp.WithBuffer(1, particles.Velocities()),
	)
	if err != nil {
		return nil, fmt.Errorf("simulation stage: %w", err)
	}
	s.bindings = bindings

	s.logger.Info("simulation stage ready",
		zap.Uint32("particles", particles.Count()),
		zap.Uint32s("workgroup_size", s.workgroupSize[:]),
		zap.Uint32s("workgroups", s.workgroups[:]),
	)
	return s, nil
}

// Dispatch records one compute pass and submits it: set pipeline, bind group 0, write the
// push constants {time, delta}, dispatch the workgroup grid. The stage moves
// Idle → Recording → Dispatched and stays Dispatched until Retire.
//
// Parameters:
//   - time: accumulated simulation time in seconds
//   - delta: elapsed seconds since the previous frame
//
// Returns:
//   - error: an encoder error, after which the stage is Idle again
func (s *Stage) Dispatch(time, delta float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StageRecording {
		panic("simulation stage: Dispatch while a pass is recording")
	}
	s.state = StageRecording

	enc, err := s.device.CreateCommandEncoder(s.label)
	if err != nil {
		s.state = StageIdle
		return fmt.Errorf("simulation dispatch: %w", err)
	}
	defer enc.Release()

	push := PushConstants{Time: time, Delta: delta}
	pass := enc.BeginComputePass(s.label)
	pass.SetPipeline(s.pipeline)
	pass.SetBindGroup(0, s.bindings.BindGroup())
	pass.SetPushConstants(0, push.Marshal())
	pass.DispatchWorkgroups(s.workgroups[0], s.workgroups[1], s.workgroups[2])
	pass.End()

	cb, err := enc.Finish()
	if err != nil {
		s.state = StageIdle
		return fmt.Errorf("simulation dispatch: %w", err)
	}
	s.device.Submit(cb)

	s.state = StageDispatched
	s.dispatches++
	return nil
}

// Retire marks the dispatched work as consumed by the frame that read it.
//
// Returns:
//   - bool: true if the stage was Dispatched
func (s *Stage) Retire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StageDispatched {
		return false
	}
	s.state = StageIdle
	return true
}

// State returns the current stage state.
func (s *Stage) State() StageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatches returns the number of submitted dispatches.
func (s *Stage) Dispatches() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatches
}

// Workgroups returns the dispatched workgroup counts.
func (s *Stage) Workgroups() [3]uint32 {
	return s.workgroups
}

// WorkgroupSize returns the shader workgroup size.
func (s *Stage) WorkgroupSize() [3]uint32 {
	return s.workgroupSize
}

// Particles returns the particle state the stage updates.
func (s *Stage) Particles() *Particles {
	return s.particles
}

// Release frees the bind group. Particles and pipeline are owned elsewhere.
func (s *Stage) Release() {
	s.bindings.Release()
}
