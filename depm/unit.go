package depm

import (
	"github.com/jdpage/jeff65/ast"
)

// UnitKind enumerates the ways a `use` reference may resolve.
type UnitKind int

const (
	// UnitSource is a unit compiled from a gold source file.
	UnitSource UnitKind = iota

	// UnitBinary is a unit loaded directly from an up-to-date cache
	// artifact, skipping recompilation.
	UnitBinary

	// UnitVirtual is a unit whose AST is synthesized by a registered
	// provider instead of being parsed from a file.
	UnitVirtual
)

// String returns the kind name for diagnostics.
func (k UnitKind) String() string {
	switch k {
	case UnitSource:
		return "source"
	case UnitBinary:
		return "binary"
	case UnitVirtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// Unit is an independently nameable compilation module in the resolved
// graph.  Unit names are globally unique within a compilation plan.
type Unit struct {
	Name string
	Kind UnitKind

	// The source path for source units, or the artifact path for binary
	// units.  Virtual units have no path.
	Path string

	// The names of the units this unit uses, in order of first appearance.
	Uses []string

	// The parsed (or synthesized) AST, for source and virtual units.
	AST *ast.Unit

	// The compiled artifact.  For binary units it is loaded during
	// resolution; for source and virtual units it is produced by the code
	// generator.
	Bin *BinaryUnit

	// The unit's export table, available to dependents once the unit has
	// been checked (source/virtual) or loaded (binary).
	Exports map[string]*Export
}
