package device

import (
	"errors"
	"strings"
)

// SurfaceErrorKind classifies a failure to acquire the next surface texture.
type SurfaceErrorKind int

const (
	// SurfaceErrorOther is any acquisition failure not covered by another kind.
	SurfaceErrorOther SurfaceErrorKind = iota

	// SurfaceErrorTimeout means no image became available in time. The frame is dropped.
	SurfaceErrorTimeout

	// SurfaceErrorOutdated means the surface no longer matches the window and must be reconfigured.
	SurfaceErrorOutdated

	// SurfaceErrorLost means the surface was lost and must be reconfigured.
	SurfaceErrorLost

	// SurfaceErrorOutOfMemory means the GPU ran out of memory. Not recoverable.
	SurfaceErrorOutOfMemory

	// SurfaceErrorDeviceLost means the logical device behind the surface is gone.
	// Reconfiguring the surface cannot bring it back.
	SurfaceErrorDeviceLost
)

func (k SurfaceErrorKind) String() string {
	switch k {
	case SurfaceErrorTimeout:
		return "timeout"
	case SurfaceErrorOutdated:
		return "outdated"
	case SurfaceErrorLost:
		return "lost"
	case SurfaceErrorOutOfMemory:
		return "out of memory"
	case SurfaceErrorDeviceLost:
		return "device lost"
	default:
		return "other"
	}
}

// SurfaceError is an acquisition failure with a known kind.
type SurfaceError struct {
	Kind SurfaceErrorKind
	Err  error
}

// NewSurfaceError wraps err with kind.
func NewSurfaceError(kind SurfaceErrorKind, err error) *SurfaceError {
	return &SurfaceError{Kind: kind, Err: err}
}

func (e *SurfaceError) Error() string {
	if e.Err == nil {
		return "surface " + e.Kind.String()
	}
	return "surface " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *SurfaceError) Unwrap() error {
	return e.Err
}

// ClassifySurfaceError returns the kind of an acquisition error.
// A *SurfaceError anywhere in the chain wins; otherwise the wgpu-native status text is matched
// ("Surface timed out", "Surface is outdated", "Surface was lost", "Not enough memory left.",
// "Parent device is lost").
//
// Parameters:
//   - err: the error returned from AcquireSurfaceTexture
//
// Returns:
//   - SurfaceErrorKind: the classified kind
func ClassifySurfaceError(err error) SurfaceErrorKind {
	var se *SurfaceError
	if errors.As(err, &se) {
		return se.Kind
	}
	if err == nil {
		return SurfaceErrorOther
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"):
		return SurfaceErrorTimeout
	case strings.Contains(msg, "outdated"):
		return SurfaceErrorOutdated
	case strings.Contains(msg, "not enough memory"),
		strings.Contains(msg, "out of memory"),
		strings.Contains(msg, "outofmemory"):
		return SurfaceErrorOutOfMemory
	case strings.Contains(msg, "device is lost"), strings.Contains(msg, "device lost"):
		return SurfaceErrorDeviceLost
	case strings.Contains(msg, "lost"):
		return SurfaceErrorLost
	default:
		return SurfaceErrorOther
	}
}
