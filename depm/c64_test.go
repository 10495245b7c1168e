package depm

import (
	"testing"

	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/types"
	"github.com/nalgeon/be"
)

func TestC64Provider(t *testing.T) {
	provide, ok := LookupVirtual("c64")
	be.True(t, ok)

	stmts, err := provide("c64")
	be.Err(t, err, nil)
	be.Equal(t, len(stmts), len(c64Registers))

	byName := make(map[string]*ast.ConstStmt)
	for _, stmt := range stmts {
		cs, ok := stmt.(*ast.ConstStmt)
		if !ok {
			t.Fatalf("synthesized statement is not a constant: %T", stmt)
		}

		byName[cs.Decl.Name] = cs
	}

	border, ok := byName["vic-border"]
	be.True(t, ok)
	be.Equal(t, border.Decl.Type, types.Type(types.RefType{Elem: types.U8, Storage: types.Mut}))
	be.Equal(t, border.Init.(*ast.NumberLit).Value, 0xd020)

	screen, ok := byName["screen"]
	be.True(t, ok)
	be.Equal(t, screen.Init.(*ast.NumberLit).Value, 0x0400)
}
