package depm

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/types"
)

// The built-in `c64` virtual unit: address constants for the machine's
// memory-mapped hardware.  Because these are constants of reference type,
// their addresses inline directly into the instruction stream and the unit
// itself contributes no bytes to the image.
var c64Registers = []struct {
	name string
	addr int64
	elem types.Type
}{
	{"vic-border", 0xd020, types.U8},
	{"vic-background", 0xd021, types.U8},
	{"vic-raster", 0xd012, types.U8},
	{"vic-ctrl1", 0xd011, types.U8},
	{"sid-volume", 0xd418, types.U8},
	{"cia1-port-a", 0xdc00, types.U8},
	{"cia1-port-b", 0xdc01, types.U8},
	{"cia1-icr", 0xdc0d, types.U8},
	{"screen", 0x0400, types.U8},
	{"color-ram", 0xd800, types.U8},
}

func init() {
	RegisterVirtual("c64", provideC64)
}

// provideC64 synthesizes the statement list of the `c64` unit.
func provideC64(name string) ([]ast.Statement, error) {
	span := &report.TextSpan{}

	stmts := make([]ast.Statement, 0, len(c64Registers))
	for _, reg := range c64Registers {
		stmts = append(stmts, &ast.ConstStmt{
			StmtBase: synthStmtBase(span),
			Decl: ast.Decl{
				Name:    reg.name,
				Type:    types.RefType{Elem: reg.elem, Storage: types.Mut},
				NamePos: span,
			},
			Init: synthNumber(span, reg.addr),
		})
	}

	return stmts, nil
}

func synthStmtBase(span *report.TextSpan) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NewNodeBaseOn(span)}
}

func synthNumber(span *report.TextSpan, value int64) *ast.NumberLit {
	return &ast.NumberLit{
		ExprBase: ast.NewExprBaseOn(span),
		Value:    value,
	}
}
