package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniform;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// binding is one parsed @group/@binding buffer declaration.
type binding struct {
	binding    uint32
	name       string
	typeName   string
	bufferType wgpu.BufferBindingType
}

// parseBindings extracts every @group(N) @binding(M) declaration from WGSL source, grouped by
// group index and sorted by binding. Only buffer address spaces are accepted.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - map[int][]binding: bindings keyed by group index
//   - error: an error for a handle (texture/sampler) binding or an unknown address space
func parseBindings(source string) (map[int][]binding, error) {
	groups := make(map[int][]binding)
	cleaned := stripComments(source)

	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(match[1])
		idx, _ := strconv.ParseUint(match[2], 10, 32)
		varName := strings.TrimSpace(match[4])

		bufferType, err := classifyBuffer(strings.TrimSpace(match[3]))
		if err != nil {
			return nil, fmt.Errorf("@group(%d) @binding(%d) %s: %w", group, idx, varName, err)
		}

		groups[group] = append(groups[group], binding{
			binding:    uint32(idx),
			name:       varName,
			typeName:   strings.TrimSpace(match[5]),
			bufferType: bufferType,
		})
	}

	for g := range groups {
		sort.Slice(groups[g], func(i, j int) bool {
			return groups[g][i].binding < groups[g][j].binding
		})
	}

	return groups, nil
}

// classifyBuffer maps a WGSL address space (the text between var< and >) to a buffer binding type.
func classifyBuffer(addressSpace string) (wgpu.BufferBindingType, error) {
	parts := strings.Split(addressSpace, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch parts[0] {
	case "uniform":
		return wgpu.BufferBindingTypeUniform, nil
	case "storage":
		if len(parts) > 1 && parts[1] == "read_write" {
			return wgpu.BufferBindingTypeStorage, nil
		}
		return wgpu.BufferBindingTypeReadOnlyStorage, nil
	case "":
		return wgpu.BufferBindingTypeUndefined, fmt.Errorf("handle bindings are not supported")
	default:
		return wgpu.BufferBindingTypeUndefined, fmt.Errorf("unknown address space %q", addressSpace)
	}
}

// parseWorkgroupSize extracts the @workgroup_size(x, y, z) dimensions from WGSL source.
// Omitted dimensions default to 1.
// Returns [1, 1, 1] if no @workgroup_size annotation is found.
func parseWorkgroupSize(source string) [3]uint32 {
	cleaned := stripComments(source)
	result := [3]uint32{1, 1, 1}

	match := workgroupSizeRegex.FindStringSubmatch(cleaned)
	if match == nil {
		return result
	}

	for i := range result {
		if match[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(match[i+1], 10, 32); err == nil && v > 0 {
			result[i] = uint32(v)
		}
	}

	return result
}

// parseEntryPoint extracts the first entry point function name for the given shader stage.
//
// Parameters:
//   - source: the raw WGSL source code string
//   - shaderType: the stage to search for
//
// Returns:
//   - string: the entry point name, or empty string if not found
func parseEntryPoint(source string, shaderType ShaderType) string {
	cleaned := stripComments(source)

	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	case ShaderTypeCompute:
		re = computeEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(cleaned); match != nil {
		return match[1]
	}
	return ""
}

func sortedGroups(groups map[int][]binding) []int {
	out := make([]int, 0, len(groups))
	for g := range groups {
		out = append(out, g)
	}
	sort.Ints(out)
	return out
}

// stripComments removes line and block comments from WGSL source.
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes // comments from each line of WGSL source.
func stripLineComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments (/* ... */) from WGSL source,
// including nested ones
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	i := 0
	for i < len(source) {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i += 2
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i += 2
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}
