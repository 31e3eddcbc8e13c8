package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-particles/engine/simulation"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	rec      *devicetest.Recorder
	registry *pipeline.Registry
	camera   camera.Camera
	stage    *simulation.Stage
	renderer Renderer
}

func newFixture(t *testing.T, grid [3]uint32, opts ...RendererBuilderOption) *fixture {
	t.Helper()
	rec := devicetest.NewRecorder()
	reg := pipeline.NewRegistry()

	cs, err := shader.Load(shader.ParticlesComputeKey)
	require.NoError(t, err)
	_, err = simulation.RegisterPipeline(rec, reg, cs)
	require.NoError(t, err)

	particles, err := simulation.NewParticles(rec, grid)
	require.NoError(t, err)
	stage, err := simulation.NewStage(rec, reg, particles)
	require.NoError(t, err)

	vertices, indices := model.Cube()
	mesh, err := model.NewMesh(rec, "cube", vertices, indices)
	require.NoError(t, err)

	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	opts = append([]RendererBuilderOption{WithSize(640, 480)}, opts...)
	r, err := NewRenderer(rec, reg, cam, mesh, stage, opts...)
	require.NoError(t, err)

	return &fixture{rec: rec, registry: reg, camera: cam, stage: stage, renderer: r}
}

func findBuffer(t *testing.T, rec *devicetest.Recorder, label string) *devicetest.Buffer {
	t.Helper()
	for _, b := range rec.Buffers {
		if b.Label() == label {
			return b
		}
	}
	require.FailNow(t, "no buffer labelled "+label)
	return nil
}

func TestInitialSurfaceState(t *testing.T) {
	all := devicetest.NewRecorder().Capabilities

	tests := []struct {
		name    string
		caps    device.SurfaceCapabilities
		mode    PresentMode
		samples MSAASampleCount
		want    SurfaceState
	}{
		{
			name:    "prefers srgb and mailbox",
			caps:    all,
			mode:    PresentModeUncapped,
			samples: MSAA4x,
			want: SurfaceState{1, 1, wgpu.TextureFormatBGRA8UnormSrgb, wgpu.PresentModeMailbox,
				wgpu.CompositeAlphaModeOpaque, 4},
		},
		{
			name:    "vsync uses fifo",
			caps:    all,
			mode:    PresentModeVSync,
			samples: MSAAOff,
			want: SurfaceState{1, 1, wgpu.TextureFormatBGRA8UnormSrgb, wgpu.PresentModeFifo,
				wgpu.CompositeAlphaModeOpaque, 1},
		},
		{
			name: "falls back without mailbox or srgb",
			caps: device.SurfaceCapabilities{
				Formats:      []wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm},
				PresentModes: []wgpu.PresentMode{wgpu.PresentModeFifo},
				AlphaModes:   []wgpu.CompositeAlphaMode{wgpu.CompositeAlphaModePremultiplied},
			},
			mode:    PresentModeUncapped,
			samples: MSAA4x,
			want: SurfaceState{1, 1, wgpu.TextureFormatRGBA8Unorm, wgpu.PresentModeFifo,
				wgpu.CompositeAlphaModePremultiplied, 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := initialSurfaceState(tt.caps, tt.mode, tt.samples)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := initialSurfaceState(device.SurfaceCapabilities{}, PresentModeVSync, MSAA4x)
	require.Error(t, err)
}

func TestNewRendererConfiguresSurface(t *testing.T) {
	f := newFixture(t, [3]uint32{16, 16, 1})

	require.Len(t, f.rec.Configs, 1)
	assert.Equal(t, device.SurfaceConfig{
		Width:       640,
		Height:      480,
		Format:      wgpu.TextureFormatBGRA8UnormSrgb,
		PresentMode: wgpu.PresentModeMailbox,
		AlphaMode:   wgpu.CompositeAlphaModeOpaque,
		SampleCount: 4,
	}, f.rec.Configs[0])
	assert.InDelta(t, 640.0/480.0, f.camera.Aspect(), 1e-6)

	require.Len(t, f.rec.RenderPipelines, 1)
	desc := f.rec.RenderPipelines[0].Desc
	assert.Equal(t, pipeline.Default.String(), desc.Label)
	assert.Equal(t, "vs_main", desc.VertexEntry)
	assert.Equal(t, "fs_main", desc.FragmentEntry)
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, desc.Format)
	assert.Equal(t, uint32(4), desc.SampleCount)
	require.Len(t, desc.VertexBuffers, 2)
	assert.Equal(t, wgpu.VertexStepModeVertex, desc.VertexBuffers[0].StepMode)
	assert.Equal(t, wgpu.VertexStepModeInstance, desc.VertexBuffers[1].StepMode)

	cam := findBuffer(t, f.rec, "camera binding 0")
	assert.Equal(t, uint64(camera.CameraUniformSize), cam.Size())
	assert.NotZero(t, cam.Usage()&wgpu.BufferUsageUniform)
}

func TestNewRendererRejectsMismatchedPipeline(t *testing.T) {
	rec := devicetest.NewRecorder()
	reg := pipeline.NewRegistry()

	rs, err := shader.Load(shader.ParticlesRenderKey)
	require.NoError(t, err)
	state, err := initialSurfaceState(rec.Capabilities, PresentModeUncapped, MSAAOff)
	require.NoError(t, err)
	_, err = RegisterPipeline(rec, reg, rs, state)
	require.NoError(t, err)

	vertices, indices := model.Cube()
	mesh, err := model.NewMesh(rec, "cube", vertices, indices)
	require.NoError(t, err)

	_, err = NewRenderer(rec, reg, camera.NewCamera(), mesh, nil, WithMSAA(MSAA4x))
	require.Error(t, err)
}

func TestConfigureIsIdempotent(t *testing.T) {
	f := newFixture(t, [3]uint32{16, 16, 1})
	require.Len(t, f.rec.Configs, 1)

	require.NoError(t, f.renderer.Configure(640, 480))
	assert.Len(t, f.rec.Configs, 1)

	require.NoError(t, f.renderer.Configure(0, 0))
	require.Len(t, f.rec.Configs, 2)
	assert.Equal(t, uint32(1), f.rec.Configs[1].Width)
	assert.Equal(t, uint32(1), f.rec.Configs[1].Height)

	require.NoError(t, f.renderer.Configure(0, 1))
	assert.Len(t, f.rec.Configs, 2)
	assert.Equal(t, SurfaceState{1, 1, wgpu.TextureFormatBGRA8UnormSrgb, wgpu.PresentModeMailbox,
		wgpu.CompositeAlphaModeOpaque, 4}, f.renderer.Surface())
}

func TestResize(t *testing.T) {
	f := newFixture(t, [3]uint32{16, 16, 1})

	require.NoError(t, f.renderer.Resize(1920, 1080))
	require.Len(t, f.rec.Configs, 2)
	assert.Equal(t, uint32(1920), f.rec.Configs[1].Width)
	assert.Equal(t, uint32(1080), f.rec.Configs[1].Height)
	assert.InDelta(t, 16.0/9.0, f.camera.Aspect(), 1e-6)
	assert.Equal(t, f.renderer.Surface().Target(), f.rec.MultisampleTarget())
}

func TestLostSurfaceKeepsConfiguredSize(t *testing.T) {
	f := newFixture(t, [3]uint32{8, 8, 1})

	require.NoError(t, f.renderer.Configure(1920, 1080))
	assert.InDelta(t, 16.0/9.0, f.camera.Aspect(), 1e-6)

	require.NoError(t, f.renderer.HandleRenderError(device.NewSurfaceError(device.SurfaceErrorLost, nil)))
	assert.Equal(t, uint32(1920), f.renderer.Surface().Width)
	assert.Equal(t, uint32(1080), f.renderer.Surface().Height)
	last := f.rec.Configs[len(f.rec.Configs)-1]
	assert.Equal(t, uint32(1920), last.Width)
	assert.Equal(t, uint32(1080), last.Height)
	assert.InDelta(t, 16.0/9.0, f.camera.Aspect(), 1e-6)
}

func TestHandleRenderError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		fatal       bool
		reconfigure bool
	}{
		{"nil", nil, false, false},
		{"lost", device.NewSurfaceError(device.SurfaceErrorLost, nil), false, true},
		{"outdated", errors.New("Surface is outdated"), false, true},
		{"timeout", errors.New("Surface timed out"), false, false},
		{"other", errors.New("validation error"), false, false},
		{"out of memory", device.NewSurfaceError(device.SurfaceErrorOutOfMemory, nil), true, false},
		{"native out of memory", errors.New("wgpu.(*Surface).GetCurrentTexture(): Not enough memory left."), true, false},
		{"device lost", errors.New("wgpu.(*Surface).GetCurrentTexture(): Parent device is lost"), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, [3]uint32{8, 8, 1})
			require.NoError(t, f.renderer.Resize(800, 600))
			configs := len(f.rec.Configs)

			err := f.renderer.HandleRenderError(tt.err)
			if tt.fatal {
				require.ErrorIs(t, err, ErrFatalSurface)
				assert.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}

			if tt.reconfigure {
				require.Len(t, f.rec.Configs, configs+1)
				last := f.rec.Configs[len(f.rec.Configs)-1]
				assert.Equal(t, uint32(800), last.Width)
				assert.Equal(t, uint32(600), last.Height)
			} else {
				assert.Len(t, f.rec.Configs, configs)
			}
		})
	}
}

func TestFrameEndToEnd(t *testing.T) {
	f := newFixture(t, [3]uint32{1024, 1024, 4}, WithClearColor(wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}))

	require.NoError(t, f.renderer.Update(0.016))
	assert.Equal(t, simulation.StageDispatched, f.stage.State())
	require.NoError(t, f.renderer.Render())

	require.Len(t, f.rec.Submissions, 2)
	assert.Equal(t, devicetest.OpBeginComputePass, f.rec.Submissions[0].Commands[0].Op)
	assert.Equal(t, devicetest.OpBeginRenderPass, f.rec.Submissions[1].Commands[0].Op)

	dispatch := f.rec.Commands(devicetest.OpDispatch)
	require.Len(t, dispatch, 1)
	assert.Equal(t, [3]uint32{128, 128, 4}, dispatch[0].Workgroups)

	draws := f.rec.Commands(devicetest.OpDrawIndexed)
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(4_194_304), draws[0].InstanceCount)
	assert.Equal(t, uint32(36), draws[0].IndexCount)
	assert.Zero(t, draws[0].FirstInstance)

	pass := f.rec.Commands(devicetest.OpBeginRenderPass)
	require.Len(t, pass, 1)
	require.NotNil(t, pass[0].View)
	require.NotNil(t, pass[0].ResolveTarget)
	assert.Equal(t, "msaa", pass[0].View.Name)
	assert.Equal(t, "surface", pass[0].ResolveTarget.Name)
	assert.True(t, pass[0].View.Released)
	assert.Equal(t, wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, pass[0].ClearColor)

	render := f.rec.Submissions[1].Commands
	assert.Equal(t, devicetest.OpSetPipeline, render[1].Op)
	assert.Equal(t, pipeline.Default.String(), render[1].Label)
	assert.Equal(t, devicetest.OpSetBindGroup, render[2].Op)
	assert.Equal(t, uint32(0), render[2].Index)
	assert.Equal(t, "camera", render[2].Label)

	var instanceSlot *devicetest.Command
	for i, c := range render {
		if c.Op == devicetest.OpSetVertexBuffer && c.Slot == 1 {
			instanceSlot = &render[i]
		}
	}
	require.NotNil(t, instanceSlot)
	assert.Same(t, f.stage.Particles().Positions(), instanceSlot.Buffer)

	assert.Equal(t, 1, findBuffer(t, f.rec, "camera binding 0").Writes)
	assert.Equal(t, 1, f.rec.Acquired)
	assert.Equal(t, 1, f.rec.Presented)
	assert.Equal(t, 1, f.rec.MultisampleViews)
	assert.Equal(t, uint64(1), f.renderer.Frames())
	assert.InDelta(t, 0.016, f.renderer.Time(), 1e-7)
	assert.Equal(t, simulation.StageIdle, f.stage.State())
}

func TestRenderCameraUniform(t *testing.T) {
	f := newFixture(t, [3]uint32{8, 8, 1})
	require.NoError(t, f.renderer.Render())

	uniform := f.camera.Uniform()
	assert.Equal(t, uniform.Marshal(), findBuffer(t, f.rec, "camera binding 0").Contents)
}

func TestRenderReturnsAcquireErrorUntouched(t *testing.T) {
	f := newFixture(t, [3]uint32{8, 8, 1})
	outdated := errors.New("Surface is outdated")
	f.rec.AcquireErrors = []error{outdated}

	err := f.renderer.Render()
	assert.Equal(t, outdated, err)
	assert.Empty(t, f.rec.Submissions)
	assert.Zero(t, f.rec.Presented)
	assert.Zero(t, f.renderer.Frames())

	require.NoError(t, f.renderer.HandleRenderError(err))
	require.NoError(t, f.renderer.Render())
	assert.Equal(t, uint64(1), f.renderer.Frames())
}

func TestRenderPanicsOnStaleTarget(t *testing.T) {
	f := newFixture(t, [3]uint32{8, 8, 1})
	stale := f.renderer.Surface().Target()
	stale.Width++
	f.rec.SetMultisampleTarget(stale)

	assert.Panics(t, func() { _ = f.renderer.Render() })
}

func TestRenderWithoutMSAA(t *testing.T) {
	f := newFixture(t, [3]uint32{8, 8, 1}, WithMSAA(MSAAOff), WithPresentMode(PresentModeVSync))

	assert.Equal(t, uint32(1), f.rec.Configs[0].SampleCount)
	assert.Equal(t, wgpu.PresentModeFifo, f.rec.Configs[0].PresentMode)
	assert.Equal(t, uint32(1), f.rec.RenderPipelines[0].Desc.SampleCount)

	require.NoError(t, f.renderer.Update(0.01))
	require.NoError(t, f.renderer.Render())

	assert.Zero(t, f.rec.MultisampleViews)
	pass := f.rec.Commands(devicetest.OpBeginRenderPass)
	require.Len(t, pass, 1)
	require.NotNil(t, pass[0].View)
	assert.Equal(t, "surface", pass[0].View.Name)
	assert.Nil(t, pass[0].ResolveTarget)
}

func TestPrePresentHook(t *testing.T) {
	var submitted, presented int
	var rec *devicetest.Recorder
	f := newFixture(t, [3]uint32{8, 8, 1}, WithPrePresentHook(func() {
		submitted = len(rec.Submissions)
		presented = rec.Presented
	}))
	rec = f.rec

	require.NoError(t, f.renderer.Update(0.01))
	require.NoError(t, f.renderer.Render())
	assert.Equal(t, 2, submitted)
	assert.Zero(t, presented)
	assert.Equal(t, 1, f.rec.Presented)
}

func TestParsePresentMode(t *testing.T) {
	mode, err := ParsePresentMode("vsync")
	require.NoError(t, err)
	assert.Equal(t, PresentModeVSync, mode)

	mode, err = ParsePresentMode("uncapped")
	require.NoError(t, err)
	assert.Equal(t, PresentModeUncapped, mode)
	assert.Equal(t, "uncapped", mode.String())

	_, err = ParsePresentMode("triple")
	require.Error(t, err)
}
