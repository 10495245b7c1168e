// Package depm manages the unit dependency graph: it resolves `use`
// references to source, binary, and virtual units, caches compiled binary
// units with at-most-once compilation per name, and defines the artifact
// model (symbols, relocations, binary units) shared by the code generator
// and the linker.
package depm

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/types"
)

// Section identifies which region of a binary unit a symbol lives in.
type Section int

const (
	// SecCode is the unit's instruction bytes.
	SecCode Section = iota

	// SecStash is the unit's initialized-data bytes: space for stash
	// bindings, emitted into the image literally.
	SecStash

	// SecMut is the unit's zero-contribution reservation: space for mut
	// bindings and function frames, sized at compile time but absent from
	// the emitted image.
	SecMut
)

// String returns the section name used in cache artifacts.
func (s Section) String() string {
	switch s {
	case SecCode:
		return "code"
	case SecStash:
		return "stash"
	case SecMut:
		return "mut"
	default:
		return "unknown"
	}
}

// sectionNames maps artifact section names back to sections.
var sectionNames = map[string]Section{
	"code":  SecCode,
	"stash": SecStash,
	"mut":   SecMut,
}

// -----------------------------------------------------------------------------

// RelocKind is the fixup rule applied to a relocation site at link time.
type RelocKind int

const (
	// RelocAbs16 writes the full 16-bit little-endian address.
	RelocAbs16 RelocKind = iota

	// RelocLo writes the low byte of the address.
	RelocLo

	// RelocHi writes the high byte of the address.
	RelocHi

	// RelocRel computes and writes an 8-bit relative displacement from the
	// byte following the site to the target.
	RelocRel
)

// String returns the relocation kind name used in cache artifacts.
func (k RelocKind) String() string {
	switch k {
	case RelocAbs16:
		return "abs16"
	case RelocLo:
		return "lo"
	case RelocHi:
		return "hi"
	case RelocRel:
		return "rel"
	default:
		return "unknown"
	}
}

// relocKindNames maps artifact relocation kind names back to kinds.
var relocKindNames = map[string]RelocKind{
	"abs16": RelocAbs16,
	"lo":    RelocLo,
	"hi":    RelocHi,
	"rel":   RelocRel,
}

// -----------------------------------------------------------------------------

// Symbol is a named location within a binary unit.  Its final address is
// absent until link time: Offset is relative to the unit's section.
type Symbol struct {
	Name    string
	Section Section

	// The symbol's offset within its section.
	Offset int

	// The size of the symbol's storage in bytes.
	Size int

	// Whether the symbol is visible to other units.  Exported symbol names
	// must be globally unique across the linked unit graph.
	Exported bool

	// The gold type of the symbol, so dependent units can be checked against
	// a cached artifact without its source.
	Type types.Type
}

// Reloc is a deferred address fixup: a site in the unit's emitted bytes
// whose value must be patched once the referenced symbol's final address is
// known.  Most sites are instruction operands in the code section; an
// address-valued stash initializer produces a site in the stash section.
type Reloc struct {
	// The section the fixup site lives in: SecCode or SecStash.
	Section Section

	// The offset of the fixup site within its section's bytes.
	Offset int

	// The name of the referenced symbol.  Unit-local symbols are looked up
	// in the defining unit's own table first, then the global exported
	// table.
	Symbol string

	// The fixup rule.
	Kind RelocKind

	// A constant added to the symbol's address before the fixup is applied.
	Addend int
}

// Const is an exported constant binding: dependents inline its value, so the
// value itself travels with the unit artifact.
type Const struct {
	Name  string
	Type  types.Type
	Value ast.ConstValue
}

// -----------------------------------------------------------------------------

// BinaryUnit is the compiled artifact of one unit: ordered code bytes,
// ordered stash-data bytes, the symbol table, the relocation list, and the
// exported constants.  It is the on-disk cache artifact for a compiled unit
// and the linker's input.
type BinaryUnit struct {
	Name string

	// The names of the units this unit uses.
	Uses []string

	// The unit's instruction bytes.
	Code []byte

	// The unit's initialized-data bytes.
	Stash []byte

	// The size in bytes of the unit's zero-contribution reservation.
	MutSize int

	Symbols []*Symbol
	Relocs  []Reloc
	Consts  []Const
}

// Symbol returns the unit's symbol with the given name.
func (bu *BinaryUnit) Symbol(name string) (*Symbol, bool) {
	for _, sym := range bu.Symbols {
		if sym.Name == name {
			return sym, true
		}
	}

	return nil, false
}

// Exports returns the export table of the unit: the name, type, and constant
// value (where applicable) of every binding dependents may reference.
func (bu *BinaryUnit) Exports() map[string]*Export {
	exports := make(map[string]*Export)

	for _, sym := range bu.Symbols {
		if sym.Exported {
			exports[sym.Name] = &Export{Unit: bu.Name, Name: sym.Name, Type: sym.Type}
		}
	}

	for i := range bu.Consts {
		c := &bu.Consts[i]
		exports[c.Name] = &Export{Unit: bu.Name, Name: c.Name, Type: c.Type, Const: &c.Value}
	}

	return exports
}

// Export is one entry of a unit's export table.
type Export struct {
	Unit string
	Name string
	Type types.Type

	// The constant's value, for constant exports; nil otherwise.
	Const *ast.ConstValue
}
