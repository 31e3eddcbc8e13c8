package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies a pipeline stage entry point in a WGSL module.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// String returns the WGSL attribute name of the stage.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// ErrNoEntryPoint is returned by NewShader when the source declares no stage entry point.
var ErrNoEntryPoint = errors.New("shader declares no entry point")

// shader is the implementation of the Shader interface.
// It holds the parsed metadata the pipeline registry needs to build a pipeline from the source.
type shader struct {
	key           string
	source        string
	entryPoints   map[ShaderType]string
	workGroupSize [3]uint32
	bindings      map[int][]binding
}

// Shader defines the interface for a loaded and parsed WGSL shader. It exposes the shader's
// unique key, source code, entry points, workgroup size, and the buffer bindings it declares.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for labels and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint retrieves the name of the first function annotated for the given stage.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - string: the entry point name, or an empty string if the stage is absent
	EntryPoint(shaderType ShaderType) string

	// HasStage reports whether the source declares an entry point for the stage.
	HasStage(shaderType ShaderType) bool

	// WorkgroupSize retrieves the @workgroup_size of the compute entry point.
	// Omitted dimensions default to 1; a shader without the attribute reports [1, 1, 1].
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Groups retrieves the sorted indices of every @group declared by the shader.
	Groups() []int

	// BindGroupLayoutDescriptor builds the layout descriptor for one @group, applying visibility
	// to every entry. Only buffer bindings are described.
	//
	// Parameters:
	//   - group: the bind group index
	//   - visibility: the stages that can see the bindings
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor with entries sorted by binding
	//   - bool: false if the shader declares no such group
	BindGroupLayoutDescriptor(group int, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutDescriptor, bool)

	// BindingName retrieves the variable name declared at group/binding.
	//
	// Returns:
	//   - string: the variable name, or an empty string if not declared
	BindingName(group, binding int) string
}

var _ Shader = &shader{}

// NewShader parses source and returns a Shader identified by key.
//
// Parameters:
//   - key: a unique identifier, used as the label prefix of derived GPU objects
//   - source: WGSL source code
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrNoEntryPoint if no @vertex, @fragment, or @compute function exists, or an
//     error describing an unsupported binding declaration
func NewShader(key, source string) (Shader, error) {
	s := &shader{
		key:         key,
		source:      source,
		entryPoints: make(map[ShaderType]string, 3),
	}

	for _, t := range []ShaderType{ShaderTypeCompute, ShaderTypeVertex, ShaderTypeFragment} {
		if name := parseEntryPoint(source, t); name != "" {
			s.entryPoints[t] = name
		}
	}
	if len(s.entryPoints) == 0 {
		return nil, fmt.Errorf("shader %q: %w", key, ErrNoEntryPoint)
	}

	s.workGroupSize = parseWorkgroupSize(source)

	bindings, err := parseBindings(source)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", key, err)
	}
	s.bindings = bindings

	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint(shaderType ShaderType) string {
	return s.entryPoints[shaderType]
}

func (s *shader) HasStage(shaderType ShaderType) bool {
	_, ok := s.entryPoints[shaderType]
	return ok
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Groups() []int {
	return sortedGroups(s.bindings)
}

func (s *shader) BindGroupLayoutDescriptor(group int, visibility wgpu.ShaderStage) (wgpu.BindGroupLayoutDescriptor, bool) {
	bs, ok := s.bindings[group]
	if !ok {
		return wgpu.BindGroupLayoutDescriptor{}, false
	}

	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(bs))
	for _, b := range bs {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    b.binding,
			Visibility: visibility,
			Buffer: wgpu.BufferBindingLayout{
				Type: b.bufferType,
			},
		})
	}

	return wgpu.BindGroupLayoutDescriptor{
		Label:   fmt.Sprintf("%s group %d", s.key, group),
		Entries: entries,
	}, true
}

func (s *shader) BindingName(group, binding int) string {
	for _, b := range s.bindings[group] {
		if int(b.binding) == binding {
			return b.name
		}
	}
	return ""
}
