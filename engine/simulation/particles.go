package simulation

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-particles/engine/logging"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// ErrEmptyGrid is returned by NewParticles when any grid dimension is zero.
var ErrEmptyGrid = errors.New("particle grid has a zero dimension")

const (
	// seedChunk is the number of particles filled by one worker task.
	seedChunk = 1 << 16

	defaultPositionExtent = 100
	defaultVelocityExtent = 1
)

// Particles holds the GPU state of the simulation: packed xyz positions and velocities.
// The host writes both buffers once, at creation; afterwards only the compute shader does.
// Positions double as the per-instance vertex buffer of the render pass.
type Particles struct {
	grid       [3]uint32
	count      uint32
	positions  device.Buffer
	velocities device.Buffer
}

type particlesConfig struct {
	seed           uint64
	workers        int
	pool           worker.DynamicWorkerPool
	positionExtent float32
	velocityExtent float32
	logger         *zap.Logger
}

// ParticlesOption is a functional option for configuring NewParticles.
type ParticlesOption func(*particlesConfig)

// WithSeed sets the seed of the initial state. The same seed and grid give the same buffers.
func WithSeed(seed uint64) ParticlesOption {
	return func(c *particlesConfig) {
		c.seed = seed
	}
}

// WithWorkers sets the number of workers of the seeding pool created when no pool is supplied.
func WithWorkers(n int) ParticlesOption {
	return func(c *particlesConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithWorkerPool fills the buffers on pool instead of a pool owned by NewParticles.
// The caller keeps ownership and stops the pool.
func WithWorkerPool(pool worker.DynamicWorkerPool) ParticlesOption {
	return func(c *particlesConfig) {
		c.pool = pool
	}
}

// WithExtents sets the half-widths of the uniform ranges positions and velocities are drawn from.
//
// Parameters:
//   - position: positions fall in [-position, position]³
//   - velocity: velocities fall in [-velocity, velocity]³
//
// Returns:
//   - ParticlesOption: functional option to set the extents
func WithExtents(position, velocity float32) ParticlesOption {
	return func(c *particlesConfig) {
		c.positionExtent = position
		c.velocityExtent = velocity
	}
}

// WithParticlesLogger sets the logger used to report seeding.
func WithParticlesLogger(logger *zap.Logger) ParticlesOption {
	return func(c *particlesConfig) {
		c.logger = logging.OrNop(logger)
	}
}

// NewParticles allocates grid[0]·grid[1]·grid[2] particles and uploads their initial state:
// positions uniform in [-100, 100]³ and velocities uniform in [-1, 1]³ by default.
// The state is generated in fixed-size chunks on a worker pool, each chunk from its own PCG
// stream, so the result depends only on the seed and the grid.
//
// Parameters:
//   - dev: the device to allocate the buffers on
//   - grid: particle counts per dispatch axis
//   - opts: functional options
//
// Returns:
//   - *Particles: the uploaded particle state
//   - error: ErrEmptyGrid, an overflow error, or a buffer allocation error
func NewParticles(dev device.Device, grid [3]uint32, opts ...ParticlesOption) (*Particles, error) {
	cfg := &particlesConfig{
		seed:           1,
		workers:        4,
		positionExtent: defaultPositionExtent,
		velocityExtent: defaultVelocityExtent,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if grid[0] == 0 || grid[1] == 0 || grid[2] == 0 {
		return nil, fmt.Errorf("grid %v: %w", grid, ErrEmptyGrid)
	}
	n := uint64(grid[0]) * uint64(grid[1]) * uint64(grid[2])
	if n > math.MaxUint32 || n*model.InstanceStride > math.MaxInt32 {
		return nil, fmt.Errorf("grid %v: %d particles exceed the buffer limit", grid, n)
	}
	count := uint32(n)

	start := time.Now()
	positions, velocities := seed(cfg, count)
	cfg.logger.Debug("particles seeded",
		zap.Uint32("count", count),
		zap.Uint64("seed", cfg.seed),
		zap.Duration("elapsed", time.Since(start)),
	)

	pb, err := dev.CreateBuffer(device.BufferDescriptor{
		Label:    "particle positions",
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		Contents: positions,
	})
	if err != nil {
		return nil, fmt.Errorf("particle positions: %w", err)
	}
	vb, err := dev.CreateBuffer(device.BufferDescriptor{
		Label:    "particle velocities",
		Usage:    wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		Contents: velocities,
	})
	if err != nil {
		pb.Release()
		return nil, fmt.Errorf("particle velocities: %w", err)
	}

	return &Particles{
		grid:       grid,
		count:      count,
		positions:  pb,
		velocities: vb,
	}, nil
}

// seed fills the position and velocity arrays chunk by chunk on the worker pool and waits
// for every chunk.
func seed(cfg *particlesConfig, count uint32) (positions, velocities []byte) {
	positions = make([]byte, int(count)*model.InstanceStride)
	velocities = make([]byte, int(count)*model.InstanceStride)

	pool := cfg.pool
	if pool == nil {
		pool = worker.NewDynamicWorkerPool(cfg.workers, 256, 1*time.Second)
		defer pool.Stop()
	}

	var wg sync.WaitGroup
	chunks := (int(count) + seedChunk - 1) / seedChunk
	for chunk := range chunks {
		first := chunk * seedChunk
		last := min(first+seedChunk, int(count))

		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: chunk,
			Do: func() (any, error) {
				defer wg.Done()
				rng := rand.New(rand.NewPCG(cfg.seed, uint64(chunk)))
				lo, hi := first*model.InstanceStride, last*model.InstanceStride
				fillUniform(rng, positions[lo:hi], cfg.positionExtent)
				fillUniform(rng, velocities[lo:hi], cfg.velocityExtent)
				return nil, nil
			},
		})
	}
	wg.Wait()

	return positions, velocities
}

// fillUniform writes little-endian float32 values uniform in [-extent, extent] over dst.
func fillUniform(rng *rand.Rand, dst []byte, extent float32) {
	for off := 0; off+4 <= len(dst); off += 4 {
		v := (rng.Float32()*2 - 1) * extent
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(v))
	}
}

// Grid returns the particle counts per dispatch axis.
func (p *Particles) Grid() [3]uint32 {
	return p.grid
}

// Count returns the total number of particles.
func (p *Particles) Count() uint32 {
	return p.count
}

// Positions returns the position buffer, usable as storage and as a per-instance vertex buffer.
func (p *Particles) Positions() device.Buffer {
	return p.positions
}

// Velocities returns the velocity storage buffer.
func (p *Particles) Velocities() device.Buffer {
	return p.velocities
}

// Release frees both buffers.
func (p *Particles) Release() {
	p.positions.Release()
	p.velocities.Release()
}
