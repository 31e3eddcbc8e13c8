package shader

import (
	"embed"
)

//go:embed assets/*.wgsl
var assets embed.FS

const (
	// ParticlesRenderKey names the instanced cube render shader.
	ParticlesRenderKey = "particles_render"

	// ParticlesComputeKey names the particle integration compute shader.
	ParticlesComputeKey = "particles_compute"
)

// Source returns the embedded WGSL source stored under key.
//
// Parameters:
//   - key: the asset name without the .wgsl extension
//
// Returns:
//   - string: the WGSL source
//   - error: an error if no asset exists for key
func Source(key string) (string, error) {
	data, err := assets.ReadFile("assets/" + key + ".wgsl")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Load reads and parses the embedded shader stored under key.
func Load(key string) (Shader, error) {
	src, err := Source(key)
	if err != nil {
		return nil, err
	}
	return NewShader(key, src)
}
