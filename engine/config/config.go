// Package config loads the sandbox settings from a TOML file layered over defaults.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/Carmen-Shannon/oxy-particles/common"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every validation failure returned from Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the sandbox configuration file.
type Config struct {
	Window    WindowConfig    `toml:"window"`
	Renderer  RendererConfig  `toml:"renderer"`
	Particles ParticlesConfig `toml:"particles"`
	Camera    CameraConfig    `toml:"camera"`
	Log       LogConfig       `toml:"log"`
}

// WindowConfig controls the platform window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RendererConfig controls surface and device creation.
type RendererConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode   string     `toml:"present_mode"`
	SampleCount   uint32     `toml:"sample_count"`
	ForceFallback bool       `toml:"force_fallback_adapter"`
	ClearColor    [4]float64 `toml:"clear_color"`
	// NativeLogLevel is forwarded to wgpu-native ("off", "error", "warn", "info", "debug", "trace").
	NativeLogLevel string `toml:"native_log_level"`
	Profiling      bool   `toml:"profiling"`
	// FrameLimit caps the frame rate in frames per second; 0 leaves the loop uncapped.
	FrameLimit float64 `toml:"frame_limit"`
}

// ParticlesConfig controls the simulated particle grid.
type ParticlesConfig struct {
	Grid    [3]uint32 `toml:"grid"`
	Seed    uint64    `toml:"seed"`
	Workers int       `toml:"workers"`
	// PositionExtent and VelocityExtent are the half-widths of the initial uniform ranges.
	PositionExtent float32 `toml:"position_extent"`
	VelocityExtent float32 `toml:"velocity_extent"`
}

// CameraConfig controls the free-fly camera.
type CameraConfig struct {
	Position    [3]float32 `toml:"position"`
	Speed       float32    `toml:"speed"`
	Sensitivity float32    `toml:"sensitivity"`
	FovY        float32    `toml:"fov_y"`
	Near        float32    `toml:"near"`
	Far         float32    `toml:"far"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `toml:"level"`
	Environment string `toml:"environment"`
}

// Default returns the configuration used when no file is supplied.
//
// Returns:
//   - Config: the default sandbox configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "oxy-particles",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			PresentMode:    "uncapped",
			SampleCount:    4,
			ClearColor:     [4]float64{0.02, 0.02, 0.04, 1},
			NativeLogLevel: "warn",
		},
		Particles: ParticlesConfig{
			Grid:           [3]uint32{1024, 1024, 4},
			Seed:           1,
			Workers:        8,
			PositionExtent: 100,
			VelocityExtent: 1,
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, 1},
			Speed:       1.0,
			Sensitivity: 0.005,
			FovY:        1.5707964, // π/2
			Near:        0.1,
			Far:         40000,
		},
		Log: LogConfig{
			Level:       "info",
			Environment: "development",
		},
	}
}

// Load reads the TOML file at path on top of Default and validates the result.
// An empty path or a missing file yields the defaults.
//
// Parameters:
//   - path: filesystem path of the TOML file
//
// Returns:
//   - Config: the merged configuration
//   - error: a read, decode, or validation error
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := Decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals TOML data into cfg, filling zero values back from Default, then validates.
//
// Parameters:
//   - data: raw TOML document
//   - cfg: destination, usually pre-populated with Default()
//
// Returns:
//   - error: a decode or validation error
func Decode(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}

	def := Default()
	cfg.Window.Title = common.Coalesce(cfg.Window.Title, def.Window.Title)
	cfg.Window.Width = common.Coalesce(cfg.Window.Width, def.Window.Width)
	cfg.Window.Height = common.Coalesce(cfg.Window.Height, def.Window.Height)
	cfg.Renderer.PresentMode = common.Coalesce(cfg.Renderer.PresentMode, def.Renderer.PresentMode)
	cfg.Renderer.SampleCount = common.Coalesce(cfg.Renderer.SampleCount, def.Renderer.SampleCount)
	cfg.Renderer.NativeLogLevel = common.Coalesce(cfg.Renderer.NativeLogLevel, def.Renderer.NativeLogLevel)
	cfg.Particles.Workers = common.Coalesce(cfg.Particles.Workers, def.Particles.Workers)
	cfg.Particles.PositionExtent = common.Coalesce(cfg.Particles.PositionExtent, def.Particles.PositionExtent)
	cfg.Particles.VelocityExtent = common.Coalesce(cfg.Particles.VelocityExtent, def.Particles.VelocityExtent)
	cfg.Camera.Speed = common.Coalesce(cfg.Camera.Speed, def.Camera.Speed)
	cfg.Camera.Sensitivity = common.Coalesce(cfg.Camera.Sensitivity, def.Camera.Sensitivity)
	cfg.Camera.FovY = common.Coalesce(cfg.Camera.FovY, def.Camera.FovY)
	cfg.Camera.Near = common.Coalesce(cfg.Camera.Near, def.Camera.Near)
	cfg.Camera.Far = common.Coalesce(cfg.Camera.Far, def.Camera.Far)
	cfg.Log.Level = common.Coalesce(cfg.Log.Level, def.Log.Level)
	cfg.Log.Environment = common.Coalesce(cfg.Log.Environment, def.Log.Environment)

	return cfg.Validate()
}

// Validate checks the configuration for values the renderer cannot start with.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig, or nil
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	switch c.Renderer.PresentMode {
	case "vsync", "uncapped":
	default:
		return fmt.Errorf("%w: present_mode %q", ErrInvalidConfig, c.Renderer.PresentMode)
	}
	switch c.Renderer.SampleCount {
	case 1, 4, 8, 16:
	default:
		return fmt.Errorf("%w: sample_count %d", ErrInvalidConfig, c.Renderer.SampleCount)
	}
	if c.Renderer.FrameLimit < 0 {
		return fmt.Errorf("%w: frame_limit %g", ErrInvalidConfig, c.Renderer.FrameLimit)
	}
	for axis, n := range c.Particles.Grid {
		if n == 0 {
			return fmt.Errorf("%w: particles.grid[%d] is zero", ErrInvalidConfig, axis)
		}
	}
	if n := c.Particles.ParticleCount(); n > math.MaxUint32 {
		return fmt.Errorf("%w: particles.grid %v holds %d particles", ErrInvalidConfig, c.Particles.Grid, n)
	}
	if c.Particles.PositionExtent < 0 || c.Particles.VelocityExtent < 0 {
		return fmt.Errorf("%w: particle extents %g/%g", ErrInvalidConfig,
			c.Particles.PositionExtent, c.Particles.VelocityExtent)
	}
	if c.Particles.Workers < 0 {
		return fmt.Errorf("%w: particles.workers %d", ErrInvalidConfig, c.Particles.Workers)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: camera near/far %g/%g", ErrInvalidConfig, c.Camera.Near, c.Camera.Far)
	}
	return nil
}

// ParticleCount returns grid_x * grid_y * grid_z.
func (p ParticlesConfig) ParticleCount() uint64 {
	return uint64(p.Grid[0]) * uint64(p.Grid[1]) * uint64(p.Grid[2])
}
