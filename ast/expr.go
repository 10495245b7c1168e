package ast

import (
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/types"
)

// Expr represents an expression, simple or complex.  All expression nodes
// implement the Expr interface.  The checker annotates every expression with
// its resolved type without altering the node shape.
type Expr interface {
	Node

	// Type is the resolved type of the expression.  It is nil until the
	// checker has visited the node.
	Type() types.Type

	// SetType sets the resolved type of the expression.
	SetType(types.Type)
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	NodeBase

	typ types.Type
}

// NewExprBaseOn creates a new expression base with the given span.
func NewExprBaseOn(span *report.TextSpan) ExprBase {
	return ExprBase{NodeBase: NewNodeBaseOn(span)}
}

// NewExprBaseOver creates a new expression base spanning over two spans.
func NewExprBaseOver(start, end *report.TextSpan) ExprBase {
	return ExprBase{NodeBase: NewNodeBaseOver(start, end)}
}

func (eb *ExprBase) Type() types.Type {
	return eb.typ
}

func (eb *ExprBase) SetType(typ types.Type) {
	eb.typ = typ
}

// -----------------------------------------------------------------------------

// Identifier is a name reference.
type Identifier struct {
	ExprBase

	Name string

	// Binding is the declaration this name resolved to.  It is nil until the
	// checker has visited the node.
	Binding *Binding
}

// NumberLit is a numeric literal.  The lexer accepts decimal, `$` hex, and
// `%` binary forms; the parsed value is stored here.
type NumberLit struct {
	ExprBase

	Value int64
}

// StringLit is a double-quoted string literal.  Strings are only usable as
// u8-array initializers.
type StringLit struct {
	ExprBase

	Value string
}

// ArrayLit is a bracketed array literal: `[1, 2, 3]`.
type ArrayLit struct {
	ExprBase

	Elems []Expr
}

// UnaryOp is a unary operator application.  Op is one of the operator token
// kinds defined by the syntax package.
type UnaryOp struct {
	ExprBase

	Op      string
	Operand Expr
}

// BinaryOp is a binary operator application.
type BinaryOp struct {
	ExprBase

	Op       string
	Lhs, Rhs Expr
}

// Member is a member access expression: `x.len`, `tbl.range`.
type Member struct {
	ExprBase

	Root  Expr
	Field string

	// The span of the field name, for diagnostics.
	FieldPos *report.TextSpan

	// Binding is set when the member access names an export of a used unit;
	// it is nil for `.len` and `.range` accesses.
	Binding *Binding
}

// Subscript is an index expression: `x[i]`.
type Subscript struct {
	ExprBase

	Target Expr
	Index  Expr
}

// Call is a function call expression.
type Call struct {
	ExprBase

	Func Expr
	Args []Expr
}
