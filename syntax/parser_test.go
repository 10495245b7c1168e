package syntax

import (
	"testing"

	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/types"
	"github.com/nalgeon/be"
)

// parseOne parses the source as a unit and fails the test on any error.
func parseOne(t *testing.T, src string) *ast.Unit {
	t.Helper()

	unit, errs := ParseUnit("test", "test.gold", src)
	for _, cerr := range errs {
		t.Errorf("parse: %s", cerr.Error())
	}
	if unit == nil {
		t.FailNow()
	}

	return unit
}

func TestParseUseAndConstant(t *testing.T) {
	unit := parseOne(t, "use c64\nconstant speed: u8 = $1f")

	be.Equal(t, len(unit.Stmts), 2)
	be.Equal(t, unit.UsedUnits(), []string{"c64"})

	use := unit.Stmts[0].(*ast.UseStmt)
	be.Equal(t, use.Unit, "c64")

	cs := unit.Stmts[1].(*ast.ConstStmt)
	be.Equal(t, cs.Decl.Name, "speed")
	be.Equal(t, cs.Decl.Type, types.Type(types.U8))
	be.Equal(t, cs.Init.(*ast.NumberLit).Value, int64(0x1f))
}

func TestParseLetStorageClasses(t *testing.T) {
	unit := parseOne(t, "let a: u8 = 1\nlet mut b: u16\nlet stash c: [u8: 4] = [1, 2, 3, 4]")

	a := unit.Stmts[0].(*ast.LetStmt)
	be.Equal(t, a.Storage, types.Auto)

	b := unit.Stmts[1].(*ast.LetStmt)
	be.Equal(t, b.Storage, types.Mut)
	be.True(t, b.Init == nil)

	c := unit.Stmts[2].(*ast.LetStmt)
	be.Equal(t, c.Storage, types.Stash)
	be.Equal(t, len(c.Init.(*ast.ArrayLit).Elems), 4)
}

func TestParseTypeLabels(t *testing.T) {
	unit := parseOne(t, "let a: &mut u8\nlet b: [u8]\nlet c: [stash u8: 3 to 7]\nlet d: [u16: 4]")

	be.Equal(t, unit.Stmts[0].(*ast.LetStmt).Decl.Type,
		types.Type(types.RefType{Elem: types.U8, Storage: types.Mut}))
	be.Equal(t, unit.Stmts[1].(*ast.LetStmt).Decl.Type,
		types.Type(types.SliceType{Elem: types.U8}))
	be.Equal(t, unit.Stmts[2].(*ast.LetStmt).Decl.Type,
		types.Type(types.ArrayType{Elem: types.U8, Storage: types.Stash, Lo: 3, Hi: 7}))

	// `[t: n]` is shorthand for `[t: 0 to n-1]`.
	be.Equal(t, unit.Stmts[3].(*ast.LetStmt).Decl.Type,
		types.Type(types.ArrayType{Elem: types.U16, Lo: 0, Hi: 3}))
}

func TestParseFun(t *testing.T) {
	unit := parseOne(t, "fun add(a: u8, b: u8) -> u8\n    return a + b\nendfun")

	fn := unit.Stmts[0].(*ast.FunStmt)
	be.Equal(t, fn.Name, "add")
	be.Equal(t, len(fn.Params), 2)
	be.Equal(t, fn.Return, types.Type(types.U8))

	ret := fn.Body[0].(*ast.ReturnStmt)
	sum := ret.Value.(*ast.BinaryOp)
	be.Equal(t, sum.Op, "+")
	be.Equal(t, sum.Lhs.(*ast.Identifier).Name, "a")
}

func TestParseFunNoReturnType(t *testing.T) {
	unit := parseOne(t, "fun noop()\nendfun")

	fn := unit.Stmts[0].(*ast.FunStmt)
	be.Equal(t, fn.Return, types.Type(types.VoidType{}))
	be.Equal(t, len(fn.Body), 0)
}

func TestParseIsr(t *testing.T) {
	unit := parseOne(t, "isr tick\n    n = n + 1\nendisr")

	isr := unit.Stmts[0].(*ast.IsrStmt)
	be.Equal(t, isr.Name, "tick")
	be.Equal(t, len(isr.Body), 1)
}

func TestParseControlFlow(t *testing.T) {
	src := `fun main()
    while n < 10 do
        n = n + 1
    end
    for i: u8 in 0 to 7 do
        poke(i)
    end
    for i: u8 in tbl.range do
        poke(tbl[i])
    end
    if n == 0 then
        n = 1
    elseif n == 1 then
        n = 2
    else
        n = 0
    end
endfun`

	unit := parseOne(t, src)
	body := unit.Stmts[0].(*ast.FunStmt).Body
	be.Equal(t, len(body), 4)

	while := body[0].(*ast.WhileStmt)
	be.Equal(t, while.Cond.(*ast.BinaryOp).Op, "<")

	bounded := body[1].(*ast.ForStmt)
	be.Equal(t, bounded.Var.Name, "i")
	be.Equal(t, bounded.Lo.(*ast.NumberLit).Value, int64(0))
	be.Equal(t, bounded.Hi.(*ast.NumberLit).Value, int64(7))
	be.True(t, bounded.Range == nil)

	iter := body[2].(*ast.ForStmt)
	be.True(t, iter.Lo == nil)
	be.Equal(t, iter.Range.(*ast.Identifier).Name, "tbl")

	chain := body[3].(*ast.IfStmt)
	be.Equal(t, len(chain.Branches), 2)
	be.Equal(t, len(chain.Else), 1)
}

func TestParseExprForms(t *testing.T) {
	unit := parseOne(t, "fun f()\n    @screen = buf[i].len + -x * 2\n    go(1, 2)\nendfun")

	body := unit.Stmts[0].(*ast.FunStmt).Body

	assign := body[0].(*ast.AssignStmt)
	deref := assign.Lhs.(*ast.UnaryOp)
	be.Equal(t, deref.Op, "@")

	sum := assign.Rhs.(*ast.BinaryOp)
	be.Equal(t, sum.Op, "+")

	length := sum.Lhs.(*ast.Member)
	be.Equal(t, length.Field, "len")
	be.Equal(t, length.Root.(*ast.Subscript).Target.(*ast.Identifier).Name, "buf")

	// Unary minus binds tighter than `*`.
	prod := sum.Rhs.(*ast.BinaryOp)
	be.Equal(t, prod.Op, "*")
	be.Equal(t, prod.Lhs.(*ast.UnaryOp).Op, "-")

	call := body[1].(*ast.ExprStmt).Expr.(*ast.Call)
	be.Equal(t, call.Func.(*ast.Identifier).Name, "go")
	be.Equal(t, len(call.Args), 2)
}

func TestParsePrecedence(t *testing.T) {
	unit := parseOne(t, "constant x: u8 = 1 + 2 * 3")

	sum := unit.Stmts[0].(*ast.ConstStmt).Init.(*ast.BinaryOp)
	be.Equal(t, sum.Op, "+")
	be.Equal(t, sum.Rhs.(*ast.BinaryOp).Op, "*")
}

func TestParseErrorsAccumulate(t *testing.T) {
	// Both bad statements produce a diagnostic; the parser resynchronizes on
	// statement leaders.
	unit, errs := ParseUnit("test", "test.gold", "constant = 1\nfun f(\nendfun\nlet ok: u8 = 1")

	be.True(t, unit == nil)
	be.Equal(t, len(errs), 2)

	for _, cerr := range errs {
		be.Equal(t, cerr.Path, "test.gold")
		be.True(t, cerr.Span != nil)
	}
}

func TestParseAssignToNonPlace(t *testing.T) {
	unit, errs := ParseUnit("test", "test.gold", "fun f()\n    1 = 2\nendfun")

	be.True(t, unit == nil)
	be.True(t, len(errs) > 0)
}
