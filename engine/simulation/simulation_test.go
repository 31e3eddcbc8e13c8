package simulation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchGrid(t *testing.T) {
	tests := []struct {
		name  string
		n, wg [3]uint32
		want  [3]uint32
	}{
		{"default grid", [3]uint32{1024, 1024, 4}, [3]uint32{8, 8, 1}, [3]uint32{128, 128, 4}},
		{"rounds up", [3]uint32{1025, 9, 1}, [3]uint32{8, 8, 1}, [3]uint32{129, 2, 1}},
		{"exact one", [3]uint32{1, 1, 1}, [3]uint32{64, 1, 1}, [3]uint32{1, 1, 1}},
		{"1d", [3]uint32{100000, 1, 1}, [3]uint32{256, 1, 1}, [3]uint32{391, 1, 1}},
		{"max axis", [3]uint32{math.MaxUint32, 1, 1}, [3]uint32{8, 8, 1}, [3]uint32{536870912, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DispatchGrid(tt.n, tt.wg))
		})
	}
}

func TestPushConstantsMarshal(t *testing.T) {
	pc := PushConstants{Time: 1.5, Delta: 0.016}
	buf := pc.Marshal()
	require.Len(t, buf, PushConstantsSize)
	assert.Equal(t, float32(1.5), common.Float32At(buf, 0))
	assert.Equal(t, float32(0.016), common.Float32At(buf, 4))
}

func TestNewParticles(t *testing.T) {
	rec := devicetest.NewRecorder()
	p, err := NewParticles(rec, [3]uint32{40, 30, 2}, WithSeed(7), WithWorkers(3))
	require.NoError(t, err)

	assert.Equal(t, uint32(2400), p.Count())
	assert.Equal(t, [3]uint32{40, 30, 2}, p.Grid())

	pos := p.Positions().(*devicetest.Buffer)
	vel := p.Velocities().(*devicetest.Buffer)
	assert.Equal(t, uint64(2400*12), pos.Size())
	assert.Equal(t, uint64(2400*12), vel.Size())
	assert.NotZero(t, pos.Usage()&wgpu.BufferUsageStorage)
	assert.NotZero(t, pos.Usage()&wgpu.BufferUsageVertex)
	assert.NotZero(t, vel.Usage()&wgpu.BufferUsageStorage)

	for off := 0; off < len(pos.Contents); off += 4 {
		v := common.Float32At(pos.Contents, off)
		require.True(t, v >= -100 && v <= 100, "position %v out of range", v)
		w := common.Float32At(vel.Contents, off)
		require.True(t, w >= -1 && w <= 1, "velocity %v out of range", w)
	}
}

func TestNewParticlesDeterministic(t *testing.T) {
	grid := [3]uint32{300, 300, 1}

	a, err := NewParticles(devicetest.NewRecorder(), grid, WithSeed(42), WithWorkers(2))
	require.NoError(t, err)
	b, err := NewParticles(devicetest.NewRecorder(), grid, WithSeed(42), WithWorkers(8))
	require.NoError(t, err)
	c, err := NewParticles(devicetest.NewRecorder(), grid, WithSeed(43))
	require.NoError(t, err)

	pa := a.Positions().(*devicetest.Buffer).Contents
	assert.Equal(t, pa, b.Positions().(*devicetest.Buffer).Contents)
	assert.NotEqual(t, pa, c.Positions().(*devicetest.Buffer).Contents)
}

func TestNewParticlesSharedPool(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(4, 256, time.Second)
	defer pool.Stop()
	grid := [3]uint32{200, 200, 2}

	a, err := NewParticles(devicetest.NewRecorder(), grid, WithSeed(9), WithWorkerPool(pool))
	require.NoError(t, err)
	b, err := NewParticles(devicetest.NewRecorder(), grid, WithSeed(9), WithWorkerPool(pool))
	require.NoError(t, err)
	owned, err := NewParticles(devicetest.NewRecorder(), grid, WithSeed(9), WithWorkers(2))
	require.NoError(t, err)

	pa := a.Positions().(*devicetest.Buffer).Contents
	assert.Equal(t, pa, b.Positions().(*devicetest.Buffer).Contents)
	assert.Equal(t, pa, owned.Positions().(*devicetest.Buffer).Contents)
}

func TestNewParticlesExtents(t *testing.T) {
	p, err := NewParticles(devicetest.NewRecorder(), [3]uint32{64, 64, 1}, WithExtents(5, 0.25))
	require.NoError(t, err)

	pos := p.Positions().(*devicetest.Buffer).Contents
	vel := p.Velocities().(*devicetest.Buffer).Contents
	var maxPos, maxVel float32
	for off := 0; off < len(pos); off += 4 {
		maxPos = max(maxPos, math32.Abs(common.Float32At(pos, off)))
		maxVel = max(maxVel, math32.Abs(common.Float32At(vel, off)))
	}
	assert.LessOrEqual(t, maxPos, float32(5))
	assert.Greater(t, maxPos, float32(4))
	assert.LessOrEqual(t, maxVel, float32(0.25))
	assert.Greater(t, maxVel, float32(0.2))
}

func TestNewParticlesEmptyGrid(t *testing.T) {
	_, err := NewParticles(devicetest.NewRecorder(), [3]uint32{10, 0, 1})
	require.ErrorIs(t, err, ErrEmptyGrid)
}

func newTestStage(t *testing.T, rec *devicetest.Recorder, grid [3]uint32) *Stage {
	t.Helper()
	s, err := shader.Load(shader.ParticlesComputeKey)
	require.NoError(t, err)
	reg := pipeline.NewRegistry()
	_, err = RegisterPipeline(rec, reg, s)
	require.NoError(t, err)

	particles, err := NewParticles(rec, grid)
	require.NoError(t, err)
	stage, err := NewStage(rec, reg, particles)
	require.NoError(t, err)
	return stage
}

func TestNewStage(t *testing.T) {
	rec := devicetest.NewRecorder()
	stage := newTestStage(t, rec, [3]uint32{16, 16, 2})

	assert.Equal(t, StageIdle, stage.State())
	assert.Equal(t, [3]uint32{8, 8, 1}, stage.WorkgroupSize())
	assert.Equal(t, [3]uint32{2, 2, 2}, stage.Workgroups())

	require.Len(t, rec.BindGroups, 1)
	entries := rec.BindGroups[0].Desc.Entries
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Same(t, stage.Particles().Positions(), entries[0].Buffer)
	assert.Equal(t, uint32(1), entries[1].Binding)
	assert.Same(t, stage.Particles().Velocities(), entries[1].Buffer)
}

func TestNewStageWithoutPipeline(t *testing.T) {
	rec := devicetest.NewRecorder()
	particles, err := NewParticles(rec, [3]uint32{8, 8, 1})
	require.NoError(t, err)

	_, err = NewStage(rec, pipeline.NewRegistry(), particles)
	require.Error(t, err)
}

func TestStageDispatch(t *testing.T) {
	rec := devicetest.NewRecorder()
	stage := newTestStage(t, rec, [3]uint32{16, 16, 2})

	require.NoError(t, stage.Dispatch(2.5, 0.016))
	assert.Equal(t, StageDispatched, stage.State())
	assert.Equal(t, uint64(1), stage.Dispatches())

	require.Len(t, rec.Submissions, 1)
	ops := make([]devicetest.Op, 0, len(rec.Submissions[0].Commands))
	for _, c := range rec.Submissions[0].Commands {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []devicetest.Op{
		devicetest.OpBeginComputePass,
		devicetest.OpSetPipeline,
		devicetest.OpSetBindGroup,
		devicetest.OpPushConstants,
		devicetest.OpDispatch,
		devicetest.OpEndPass,
	}, ops)

	dispatch := rec.Commands(devicetest.OpDispatch)
	require.Len(t, dispatch, 1)
	assert.Equal(t, [3]uint32{2, 2, 2}, dispatch[0].Workgroups)

	push := rec.Commands(devicetest.OpPushConstants)
	require.Len(t, push, 1)
	assert.Equal(t, uint32(0), push[0].Index)
	assert.Equal(t, float32(2.5), common.Float32At(push[0].Data, 0))
	assert.Equal(t, float32(0.016), common.Float32At(push[0].Data, 4))

	bind := rec.Commands(devicetest.OpSetBindGroup)
	require.Len(t, bind, 1)
	assert.Equal(t, uint32(0), bind[0].Index)

	assert.True(t, stage.Retire())
	assert.Equal(t, StageIdle, stage.State())
	assert.False(t, stage.Retire())
}

func TestStageDispatchDefaultGrid(t *testing.T) {
	rec := devicetest.NewRecorder()
	stage := newTestStage(t, rec, [3]uint32{1024, 1024, 4})

	require.NoError(t, stage.Dispatch(0, 0.016))
	dispatch := rec.Commands(devicetest.OpDispatch)
	require.Len(t, dispatch, 1)
	assert.Equal(t, [3]uint32{128, 128, 4}, dispatch[0].Workgroups)
}

func TestStageDispatchEncoderError(t *testing.T) {
	rec := devicetest.NewRecorder()
	stage := newTestStage(t, rec, [3]uint32{8, 8, 1})

	boom := errors.New("device lost")
	stage.device = failingEncoder{Device: rec, err: boom}

	err := stage.Dispatch(0, 0)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StageIdle, stage.State())
	assert.Zero(t, stage.Dispatches())
}

type failingEncoder struct {
	device.Device
	err error
}

func (f failingEncoder) CreateCommandEncoder(string) (device.CommandEncoder, error) {
	return nil, f.err
}
