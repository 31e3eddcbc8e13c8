package common

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LookToLH builds a left-handed view matrix for a camera at eye looking along direction.
// The view-space +Z axis points along direction. Matrices are column-major.
//
// Parameters:
//   - eye: camera position in world space
//   - direction: view direction (need not be normalized)
//   - up: world up vector used to derive the camera basis
//
// Returns:
//   - mgl32.Mat4: the world-to-view matrix
func LookToLH(eye, direction, up mgl32.Vec3) mgl32.Mat4 {
	f := direction.Normalize()
	s := up.Cross(f).Normalize()
	u := f.Cross(s)

	return mgl32.Mat4{
		s[0], u[0], f[0], 0,
		s[1], u[1], f[1], 0,
		s[2], u[2], f[2], 0,
		-s.Dot(eye), -u.Dot(eye), -f.Dot(eye), 1,
	}
}

// PerspectiveLH builds a left-handed perspective projection with WebGPU's [0, 1] clip depth.
// View-space depth near maps to 0 and far maps to 1.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near plane distance (> 0)
//   - far: far plane distance (> near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func PerspectiveLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	h := 1 / math32.Tan(fovY/2)
	depth := far / (far - near)

	return mgl32.Mat4{
		h / aspect, 0, 0, 0,
		0, h, 0, 0,
		0, 0, depth, 1,
		0, 0, -near * depth, 0,
	}
}

// DivCeil returns ceil(n / d) for unsigned integers without overflowing near math.MaxUint32.
// d must be non-zero.
func DivCeil(n, d uint32) uint32 {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}

// AppendFloat32s appends each value to dst as a little-endian IEEE-754 float32.
//
// Parameters:
//   - dst: destination byte slice (may be nil)
//   - values: the float32 values to encode
//
// Returns:
//   - []byte: dst extended by 4*len(values) bytes
func AppendFloat32s(dst []byte, values ...float32) []byte {
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// AppendUint32s appends each value to dst in little-endian order.
func AppendUint32s(dst []byte, values ...uint32) []byte {
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}

// Float32At decodes the little-endian float32 stored at byte offset off.
func Float32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}
