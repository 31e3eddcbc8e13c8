package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-particles/engine"
	"github.com/Carmen-Shannon/oxy-particles/engine/camera"
	"github.com/Carmen-Shannon/oxy-particles/engine/config"
	"github.com/Carmen-Shannon/oxy-particles/engine/logging"
	"github.com/Carmen-Shannon/oxy-particles/engine/model"
	"github.com/Carmen-Shannon/oxy-particles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-particles/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-particles/engine/simulation"
	"github.com/Carmen-Shannon/oxy-particles/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

func init() {
	// GLFW and the wgpu surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "oxy-particles.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Environment: cfg.Log.Environment,
		Level:       cfg.Log.Level,
		Name:        "oxy-particles",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("oxy-particles exited", zap.Error(err))
		logger.Sync() //nolint:errcheck
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	dev, err := device.NewWGPUDevice(win.SurfaceDescriptor(),
		device.WithForceFallbackAdapter(cfg.Renderer.ForceFallback),
		device.WithNativeLogLevel(cfg.Renderer.NativeLogLevel),
		device.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer dev.Release()

	registry := pipeline.NewRegistry(pipeline.WithLogger(logger))
	defer registry.Release()

	computeShader, err := shader.Load(shader.ParticlesComputeKey)
	if err != nil {
		return err
	}
	if _, err := simulation.RegisterPipeline(dev, registry, computeShader); err != nil {
		return err
	}

	pool := worker.NewDynamicWorkerPool(cfg.Particles.Workers, 256, time.Second)
	particles, err := simulation.NewParticles(dev, cfg.Particles.Grid,
		simulation.WithSeed(cfg.Particles.Seed),
		simulation.WithWorkerPool(pool),
		simulation.WithExtents(cfg.Particles.PositionExtent, cfg.Particles.VelocityExtent),
		simulation.WithParticlesLogger(logger),
	)
	pool.Stop()
	if err != nil {
		return err
	}
	defer particles.Release()

	stage, err := simulation.NewStage(dev, registry, particles, simulation.WithLogger(logger))
	if err != nil {
		return err
	}
	defer stage.Release()

	vertices, indices := model.Cube()
	mesh, err := model.NewMesh(dev, "particle cube", vertices, indices)
	if err != nil {
		return err
	}
	defer mesh.Release()

	controller := camera.NewCameraController(
		camera.WithSpeed(cfg.Camera.Speed),
		camera.WithMouseSensitivity(cfg.Camera.Sensitivity),
	)
	controller.SetPosition(mgl32.Vec3(cfg.Camera.Position))
	cam := camera.NewCamera(
		camera.WithFov(cfg.Camera.FovY),
		camera.WithNear(cfg.Camera.Near),
		camera.WithFar(cfg.Camera.Far),
		camera.WithController(controller),
	)

	presentMode, err := renderer.ParsePresentMode(cfg.Renderer.PresentMode)
	if err != nil {
		return err
	}
	cc := cfg.Renderer.ClearColor
	r, err := renderer.NewRenderer(dev, registry, cam, mesh, stage,
		renderer.WithSize(uint32(win.Width()), uint32(win.Height())),
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(renderer.MSAASampleCount(cfg.Renderer.SampleCount)),
		renderer.WithClearColor(wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]}),
		renderer.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer r.Release()

	eng := engine.NewEngine(win, r,
		engine.WithController(controller),
		engine.WithProfiling(cfg.Renderer.Profiling),
		engine.WithRenderFrameLimit(cfg.Renderer.FrameLimit),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithLogger(logger.Named("profiler")))),
		engine.WithLogger(logger),
	)

	logger.Info("running",
		zap.Uint64("particles", cfg.Particles.ParticleCount()),
		zap.Uint32s("grid", cfg.Particles.Grid[:]),
	)
	return eng.Run(ctx)
}
