package codegen

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/types"
)

// Generator lowers one checked unit into a binary unit: code bytes, stash
// data bytes, a mut-storage reservation, the symbol table, and the
// relocation list.  Every construct it is handed has already been accepted
// by the checker, so a construct it cannot emit is an internal error, not a
// user error.
type Generator struct {
	unit *depm.Unit

	asm     assembler
	stash   []byte
	relocs  []depm.Reloc // stash-section fixup sites
	mutSize int

	symbols []*depm.Symbol
	consts  []depm.Const

	// Stash symbols holding the materialized bytes of array constants that
	// are indexed or referenced at runtime, keyed by constant name.
	interned map[string]string
}

// Generate lowers a checked unit into its binary unit artifact.
func Generate(u *depm.Unit) *depm.BinaryUnit {
	g := &Generator{
		unit:     u,
		interned: make(map[string]string),
	}

	for _, stmt := range u.AST.Stmts {
		switch v := stmt.(type) {
		case *ast.ConstStmt:
			g.genConstant(v)
		case *ast.LetStmt:
			g.genGlobalLet(v)
		case *ast.FunStmt:
			g.genFun(v)
		case *ast.IsrStmt:
			g.genIsr(v)
		}
	}

	bu := &depm.BinaryUnit{
		Name:    u.Name,
		Uses:    u.Uses,
		Code:    g.asm.code,
		Stash:   g.stash,
		MutSize: g.mutSize,
		Symbols: g.symbols,
		Relocs:  append(g.asm.relocs, g.relocs...),
		Consts:  g.consts,
	}

	u.Bin = bu
	return bu
}

// ice aborts on an emission-rule gap: a checked construct the lowerer has no
// rule for signals a checker defect, never a user error.
func (g *Generator) ice(msg string, args ...interface{}) {
	report.ICE("codegen: unit `"+g.unit.Name+"`: "+msg, args...)
}

// -----------------------------------------------------------------------------

// addSymbol records a symbol at the current end of the given section.
func (g *Generator) addSymbol(name string, section depm.Section, size int, exported bool, typ types.Type) *depm.Symbol {
	sym := &depm.Symbol{
		Name:     name,
		Section:  section,
		Size:     size,
		Exported: exported,
		Type:     typ,
	}

	switch section {
	case depm.SecCode:
		sym.Offset = g.asm.here()
	case depm.SecStash:
		sym.Offset = len(g.stash)
	case depm.SecMut:
		sym.Offset = g.mutSize
		g.mutSize += size
	}

	g.symbols = append(g.symbols, sym)
	return sym
}

// genConstant records an exported constant.  Constants never occupy image
// space; dependents inline the value from the artifact.
func (g *Generator) genConstant(cs *ast.ConstStmt) {
	b := cs.Decl.Binding
	if b == nil || b.Const == nil {
		g.ice("constant `%s` has no evaluated value", cs.Decl.Name)
	}

	g.consts = append(g.consts, depm.Const{
		Name:  b.Name,
		Type:  b.Type,
		Value: *b.Const,
	})
}

// genGlobalLet allocates static storage for a unit-level binding.  Stash
// bindings contribute their initializer bytes to the image; mut bindings
// contribute only a sized reservation, implicitly zero at load.
func (g *Generator) genGlobalLet(ls *ast.LetStmt) {
	b := ls.Decl.Binding
	if b == nil {
		g.ice("binding `%s` was not declared", ls.Decl.Name)
	}

	g.genStaticBinding(b, true)
}

// genStaticBinding allocates the symbol and bytes for a global or local
// static binding.
func (g *Generator) genStaticBinding(b *ast.Binding, exported bool) {
	switch b.Storage {
	case types.Stash:
		if b.Const == nil {
			g.ice("stash binding `%s` has no initializer bytes", b.Name)
		}

		g.addSymbol(b.Name, depm.SecStash, b.Type.Size(), exported, b.Type)
		g.emitStash(*b.Const, b.Type)
	case types.Mut:
		g.addSymbol(b.Name, depm.SecMut, b.Type.Size(), exported, b.Type)
	default:
		g.ice("binding `%s` has no static storage class", b.Name)
	}
}

// emitStash appends a translation-time value's encoding to the stash
// section.  An address-valued initializer emits a relocation site in stash.
func (g *Generator) emitStash(value ast.ConstValue, typ types.Type) {
	size := typ.Size()

	switch {
	case value.Sym != "":
		g.relocs = append(g.relocs, depm.Reloc{
			Section: depm.SecStash,
			Offset:  len(g.stash),
			Symbol:  value.Sym,
			Kind:    depm.RelocAbs16,
		})
		g.stash = append(g.stash, 0x00, 0x00)
	case value.Bytes != nil:
		if len(value.Bytes) != size {
			g.ice("initializer of %d bytes for %s storage", len(value.Bytes), typ.Repr())
		}

		g.stash = append(g.stash, value.Bytes...)
	default:
		g.stash = append(g.stash, encodeInt(value.Int, size)...)
	}
}

// internConst materializes an array constant's bytes as unit-local stash
// data, once, so that runtime-indexed and referenced uses have an address to
// work against.  Statically indexed uses still inline the element value.
func (g *Generator) internConst(b *ast.Binding) string {
	if name, ok := g.interned[b.Name]; ok {
		return name
	}

	if b.Const == nil || b.Const.Bytes == nil {
		g.ice("constant `%s` cannot be materialized", b.Name)
	}

	name := b.Name + "$data"
	g.addSymbol(name, depm.SecStash, len(b.Const.Bytes), false, b.Type)
	g.stash = append(g.stash, b.Const.Bytes...)

	g.interned[b.Name] = name
	return name
}

// encodeInt encodes a value as size little-endian bytes.
func encodeInt(v int64, size int) []byte {
	buff := make([]byte, size)
	for i := 0; i < size; i++ {
		buff[i] = byte(v >> (uint(i) * 8))
	}

	return buff
}
