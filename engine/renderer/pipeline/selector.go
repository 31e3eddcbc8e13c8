package pipeline

import (
	"fmt"
)

// SelectorKind distinguishes the built-in pipelines from caller-named ones.
type SelectorKind int

const (
	// SelectorDefault is the main instanced render pipeline.
	SelectorDefault SelectorKind = iota

	// SelectorSimulation is the particle compute pipeline.
	SelectorSimulation

	// SelectorCustom is a pipeline identified by a caller-chosen name.
	SelectorCustom
)

// Selector identifies a pipeline in a Registry. It is comparable and used directly as a map key.
type Selector struct {
	kind SelectorKind
	name string
}

var (
	// Default selects the main render pipeline.
	Default = Selector{kind: SelectorDefault}

	// Simulation selects the particle compute pipeline.
	Simulation = Selector{kind: SelectorSimulation}
)

// Custom returns the selector for a caller-named pipeline.
//
// Parameters:
//   - name: the pipeline name, unique among custom pipelines of a registry
//
// Returns:
//   - Selector: the selector
func Custom(name string) Selector {
	return Selector{kind: SelectorCustom, name: name}
}

// Kind returns the selector kind.
func (s Selector) Kind() SelectorKind {
	return s.kind
}

// Name returns the custom name, empty for the built-in selectors.
func (s Selector) Name() string {
	return s.name
}

// String returns the label used for the pipeline's GPU objects.
func (s Selector) String() string {
	switch s.kind {
	case SelectorDefault:
		return "default"
	case SelectorSimulation:
		return "simulation"
	case SelectorCustom:
		return "custom:" + s.name
	default:
		return fmt.Sprintf("selector(%d)", int(s.kind))
	}
}
