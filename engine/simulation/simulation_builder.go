package simulation

import (
	"github.com/Carmen-Shannon/oxy-particles/engine/logging"
	"go.uber.org/zap"
)

// StageOption is a functional option for configuring a Stage.
type StageOption func(*Stage)

// WithLabel sets the debug label of the encoder and pass.
func WithLabel(label string) StageOption {
	return func(s *Stage) {
		s.label = label
	}
}

// WithWorkgroupSize overrides the workgroup size parsed from the shader. Zero dimensions are
// treated as 1.
//
// Parameters:
//   - size: the workgroup size as [x, y, z]
//
// Returns:
//   - StageOption: functional option to set the workgroup size
func WithWorkgroupSize(size [3]uint32) StageOption {
	return func(s *Stage) {
		for i := range size {
			s.workgroupSize[i] = max(size[i], 1)
		}
	}
}

// WithLogger sets the logger used for stage lifecycle messages.
func WithLogger(logger *zap.Logger) StageOption {
	return func(s *Stage) {
		s.logger = logging.OrNop(logger)
	}
}
