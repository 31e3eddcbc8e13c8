package device

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySurfaceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want SurfaceErrorKind
	}{
		{"typed lost", NewSurfaceError(SurfaceErrorLost, nil), SurfaceErrorLost},
		{"wrapped typed", fmt.Errorf("frame: %w", NewSurfaceError(SurfaceErrorOutOfMemory, nil)), SurfaceErrorOutOfMemory},
		{"native timeout", errors.New("Surface timed out"), SurfaceErrorTimeout},
		{"native outdated", errors.New("Surface is outdated"), SurfaceErrorOutdated},
		{"native lost", errors.New("Surface was lost"), SurfaceErrorLost},
		{"native oom", errors.New("Surface out of memory"), SurfaceErrorOutOfMemory},
		{"wgpu-native oom", errors.New("wgpu.(*Surface).GetCurrentTexture(): Not enough memory left."), SurfaceErrorOutOfMemory},
		{"wgpu-native device lost", errors.New("wgpu.(*Surface).GetCurrentTexture(): Parent device is lost"), SurfaceErrorDeviceLost},
		{"wgpu-native surface lost", errors.New("wgpu.(*Surface).GetCurrentTexture(): Surface was lost"), SurfaceErrorLost},
		{"unknown", errors.New("something else"), SurfaceErrorOther},
		{"nil", nil, SurfaceErrorOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySurfaceError(tt.err))
		})
	}
}

func TestSurfaceErrorUnwrap(t *testing.T) {
	cause := errors.New("driver said no")
	err := NewSurfaceError(SurfaceErrorTimeout, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "surface timeout: driver said no", err.Error())
	assert.Equal(t, "surface lost", NewSurfaceError(SurfaceErrorLost, nil).Error())
	assert.Equal(t, "surface device lost", NewSurfaceError(SurfaceErrorDeviceLost, nil).Error())
}

func TestSurfaceConfigTarget(t *testing.T) {
	cfg := SurfaceConfig{Width: 640, Height: 480, SampleCount: 4}
	target := cfg.Target()
	assert.Equal(t, uint32(640), target.Width)
	assert.Equal(t, uint32(480), target.Height)
	assert.Equal(t, uint32(4), target.SampleCount)
}
