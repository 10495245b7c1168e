package ast

import (
	"github.com/jdpage/jeff65/types"
)

// Statement is the interface implemented by all statement nodes.
type Statement interface {
	Node

	stmt()
}

// StmtBase is the base struct for all statements.
type StmtBase struct {
	NodeBase
}

func (sb *StmtBase) stmt() {}

// -----------------------------------------------------------------------------

// UseStmt is a `use name` statement referencing another unit.
type UseStmt struct {
	StmtBase

	Unit string
}

// ConstStmt is a `constant name: type = expr` binding.  A constant never
// occupies image space: its value is fully determined at translation time and
// inlined at every use site.
type ConstStmt struct {
	StmtBase

	Decl Decl
	Init Expr
}

// LetStmt is a `let [mut|stash] name: type = expr` binding.
type LetStmt struct {
	StmtBase

	Decl    Decl
	Storage types.Storage
	Init    Expr
}

// FunStmt is a `fun name(params) -> ret ... endfun` definition.
type FunStmt struct {
	StmtBase

	Name   string
	Params []Decl
	Return types.Type
	Body   []Statement
}

// Type returns the function type of the definition.
func (fs *FunStmt) Type() types.FuncType {
	params := make([]types.Type, len(fs.Params))
	for i, p := range fs.Params {
		params[i] = p.Type
	}

	return types.FuncType{Params: params, Return: fs.Return}
}

// IsrStmt is an `isr name ... endisr` definition: an interrupt service
// routine.  ISRs accept no parameters and are never invoked as ordinary
// calls; returning from one resumes interrupt dispatch.
type IsrStmt struct {
	StmtBase

	Name string
	Body []Statement
}

// WhileStmt is a `while cond do ... end` loop.
type WhileStmt struct {
	StmtBase

	Cond Expr
	Body []Statement
}

// ForStmt is a `for x: t in a to b do ... end` or
// `for x: t in expr.range do ... end` loop.  Exactly one of (Lo, Hi) and
// Range is set.
type ForStmt struct {
	StmtBase

	Var Decl

	// Numeric range bounds: `a to b`, inclusive.
	Lo, Hi Expr

	// Iterator source: the expr of `expr.range`, which must have a
	// statically known fixed size.
	Range Expr

	Body []Statement
}

// CondBody is one `(condition, body)` branch of an if-chain.
type CondBody struct {
	Cond Expr
	Body []Statement
}

// IfStmt is an `if ... then ... elseif ... else ... end` chain: an ordered
// list of branches plus an optional final unconditional body.  The first
// branch whose condition holds executes, mutually exclusive with the rest.
type IfStmt struct {
	StmtBase

	Branches []CondBody
	Else     []Statement
}

// AssignStmt is a `place = expr` statement.  The left side must be an
// identifier, a subscript, or a dereference.
type AssignStmt struct {
	StmtBase

	Lhs Expr
	Rhs Expr
}

// ReturnStmt is a `return [expr]` statement.
type ReturnStmt struct {
	StmtBase

	Value Expr // nil for a bare return
}

// ExprStmt is an expression evaluated as a statement (a call).
type ExprStmt struct {
	StmtBase

	Expr Expr
}
