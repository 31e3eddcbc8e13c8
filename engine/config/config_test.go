package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(4_194_304), cfg.Particles.ParticleCount())
	assert.Equal(t, uint32(4), cfg.Renderer.SampleCount)
	assert.Zero(t, cfg.Renderer.FrameLimit)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandbox.toml")
	doc := `
[window]
title = "swarm"
width = 800

[renderer]
present_mode = "vsync"
sample_count = 1
frame_limit = 144.0

[particles]
grid = [64, 64, 2]
seed = 42
position_extent = 10.0

[camera]
position = [0.0, 5.0, -20.0]

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "swarm", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, "vsync", cfg.Renderer.PresentMode)
	assert.Equal(t, uint32(1), cfg.Renderer.SampleCount)
	assert.Equal(t, [3]uint32{64, 64, 2}, cfg.Particles.Grid)
	assert.Equal(t, uint64(42), cfg.Particles.Seed)
	assert.Equal(t, float32(10), cfg.Particles.PositionExtent)
	assert.Equal(t, float32(1), cfg.Particles.VelocityExtent)
	assert.Equal(t, 144.0, cfg.Renderer.FrameLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, [3]float32{0, 5, -20}, cfg.Camera.Position)
	assert.Equal(t, Default().Camera.Speed, cfg.Camera.Speed)
}

func TestDecodeRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"present mode", "[renderer]\npresent_mode = \"mailbox-ish\"\n"},
		{"sample count", "[renderer]\nsample_count = 3\n"},
		{"zero grid axis", "[particles]\ngrid = [8, 0, 1]\n"},
		{"grid too large", "[particles]\ngrid = [65536, 65536, 2]\n"},
		{"negative extent", "[particles]\nvelocity_extent = -1.0\n"},
		{"negative frame limit", "[renderer]\nframe_limit = -30.0\n"},
		{"near after far", "[camera]\nnear = 10.0\nfar = 1.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := Decode([]byte(tt.doc), &cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestDecodeRejectsMalformedTOML(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("[window\nwidth = 1"), &cfg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "oxy-particles.toml"))
	require.NoError(t, err)

	want := Default()
	want.Renderer.Profiling = true
	assert.Equal(t, want, cfg)
}
