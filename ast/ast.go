// Package ast defines the abstract syntax representation of a gold unit: a
// closed set of expression and statement variants, each carrying the source
// span it was parsed from.
package ast

import (
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/types"
)

// Node is the abstract interface for all AST nodes.
type Node interface {
	// Span returns the text span of the node.
	Span() *report.TextSpan
}

// NodeBase is a utility base struct for all AST nodes.
type NodeBase struct {
	span *report.TextSpan
}

// NewNodeBaseOn creates a new node base with the given span.
func NewNodeBaseOn(span *report.TextSpan) NodeBase {
	return NodeBase{span: span}
}

// NewNodeBaseOver creates a new node base spanning over two spans.
func NewNodeBaseOver(start, end *report.TextSpan) NodeBase {
	return NodeBase{span: report.NewSpanOver(start, end)}
}

func (nb NodeBase) Span() *report.TextSpan {
	return nb.span
}

// -----------------------------------------------------------------------------

// Decl is a typed binding declaration: a name paired with a declared type.
// It is used for let bindings, constants, and function parameters.
type Decl struct {
	Name string
	Type types.Type

	// The span of the name identifier, for diagnostics.
	NamePos *report.TextSpan

	// Binding is the binding introduced by this declaration.  It is nil
	// until the checker has visited the declaration.
	Binding *Binding
}

// Unit is the root node of a parsed unit: its name and ordered top-level
// statement list.
type Unit struct {
	NodeBase

	Name string

	// The path of the source file the unit was parsed from, or "" for
	// virtual units.
	Path string

	Stmts []Statement
}

// UsedUnits returns the names of the units this unit `use`s, in order of
// first appearance.
func (u *Unit) UsedUnits() []string {
	var names []string
	seen := make(map[string]struct{})

	for _, stmt := range u.Stmts {
		if use, ok := stmt.(*UseStmt); ok {
			if _, dup := seen[use.Unit]; !dup {
				seen[use.Unit] = struct{}{}
				names = append(names, use.Unit)
			}
		}
	}

	return names
}
