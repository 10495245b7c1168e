package ast

import (
	"github.com/jdpage/jeff65/types"
)

// BindKind enumerates the kinds of declaration an identifier may resolve to.
type BindKind int

const (
	// BindAuto is a function-local auto binding or parameter: it lives in the
	// enclosing function's working frame.
	BindAuto BindKind = iota

	// BindGlobal is a unit-level mut or stash binding, or a function-local
	// stash binding: it is addressed through a symbol.
	BindGlobal

	// BindConst is a constant binding: the value is inlined at the use site
	// and never addressed.
	BindConst

	// BindFunc is a function or isr definition.
	BindFunc
)

// Binding records what an identifier resolved to.  The checker attaches one
// to every identifier expression; the code generator consumes them.
type Binding struct {
	Kind BindKind

	// The name of the unit the binding is declared in.
	Unit string

	// The declared name.  For globals this is also the symbol name.
	Name string

	// The resolved type of the binding.
	Type types.Type

	// The storage class, for global and auto bindings.
	Storage types.Storage

	// The evaluated value, for constant bindings.
	Const *ConstValue

	// The byte offset of the binding within its function's frame, for auto
	// bindings.
	FrameOff int
}

// ConstValue is the translation-time value of a constant binding.  Exactly
// one representation is populated: Bytes for array-valued constants, Sym for
// address constants referring to a symbol, and Int otherwise.  An address
// constant with an absolute value (eg. a hardware register) uses Int.
type ConstValue struct {
	Int   int64
	Bytes []byte
	Sym   string
}
