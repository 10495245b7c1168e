package walk

import (
	"strings"
	"testing"

	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/syntax"
	"github.com/jdpage/jeff65/types"
	"github.com/nalgeon/be"
)

// checkUnit parses and checks src as a unit named "test".  Units named in
// `use` statements must be built-ins; they are synthesized and checked first
// so their exports are available.
func checkUnit(t *testing.T, src string) (*depm.Unit, []*report.CompileError) {
	t.Helper()

	table := depm.NewUnitTable()

	astUnit, perrs := syntax.ParseUnit("test", "test.gold", src)
	for _, cerr := range perrs {
		t.Fatalf("parse: %s", cerr.Error())
	}

	u := &depm.Unit{
		Name: "test",
		Kind: depm.UnitSource,
		Path: "test.gold",
		AST:  astUnit,
		Uses: astUnit.UsedUnits(),
	}

	for _, dep := range u.Uses {
		provide, ok := depm.LookupVirtual(dep)
		if !ok {
			t.Fatalf("unit %s is not a built-in", dep)
		}

		stmts, err := provide(dep)
		be.Err(t, err, nil)

		du := &depm.Unit{
			Name: dep,
			Kind: depm.UnitVirtual,
			AST:  &ast.Unit{Name: dep, Stmts: stmts},
		}
		table.Add(du)
		be.Equal(t, len(WalkUnit(du, table)), 0)
	}

	table.Add(u)
	return u, WalkUnit(u, table)
}

// wantClean checks src and fails on any diagnostic.
func wantClean(t *testing.T, src string) *depm.Unit {
	t.Helper()

	u, errs := checkUnit(t, src)
	for _, cerr := range errs {
		t.Errorf("unexpected: %s", cerr.Error())
	}

	return u
}

// wantError checks src and requires a diagnostic containing frag.
func wantError(t *testing.T, src, frag string) {
	t.Helper()

	_, errs := checkUnit(t, src)
	for _, cerr := range errs {
		if strings.Contains(cerr.Message, frag) {
			return
		}
	}

	t.Errorf("expected a diagnostic containing %q, got %v", frag, errs)
}

// -----------------------------------------------------------------------------

func TestCleanUnitExports(t *testing.T) {
	u := wantClean(t, `
constant speed: u8 = $1f
let mut count: u16
let stash tbl: [u8: 4] = [1, 2, 4, 8]
fun tick(step: u8) -> u8
    return step + 1
endfun
`)

	be.Equal(t, len(u.Exports), 4)

	speed := u.Exports["speed"]
	be.Equal(t, speed.Type, types.Type(types.U8))
	be.True(t, speed.Const != nil)
	be.Equal(t, speed.Const.Int, int64(0x1f))

	count := u.Exports["count"]
	be.True(t, count.Const == nil)

	tbl := u.Exports["tbl"]
	be.Equal(t, tbl.Const.Bytes, []byte{1, 2, 4, 8})

	tick := u.Exports["tick"]
	ft := tick.Type.(types.FuncType)
	be.Equal(t, len(ft.Params), 1)
	be.Equal(t, ft.Return, types.Type(types.U8))
}

func TestExportsWithheldOnError(t *testing.T) {
	u, errs := checkUnit(t, "constant bad: u8 = 300")
	be.True(t, len(errs) > 0)
	be.True(t, u.Exports == nil)
}

func TestUndefinedName(t *testing.T) {
	wantError(t, "fun f()\n    x = 1\nendfun", "not defined")
}

func TestDuplicateDefinitions(t *testing.T) {
	wantError(t, "let mut x: u8\nfun x()\nendfun", "multiple definitions")
	wantError(t, "fun f()\n    let a: u8 = 1\n    let a: u8 = 2\nendfun", "multiple definitions")
}

func TestLiteralAdoption(t *testing.T) {
	// A literal adopts the expected type; an unannotated one defaults to the
	// narrowest that fits.
	u := wantClean(t, "fun f()\n    let a: u16 = 1\n    let b: i8 = -3\nendfun")

	body := u.AST.Stmts[0].(*ast.FunStmt).Body
	be.Equal(t, body[0].(*ast.LetStmt).Init.Type(), types.Type(types.U16))
}

func TestLiteralOutOfRange(t *testing.T) {
	wantError(t, "constant x: u8 = 256", "out of range")
	wantError(t, "constant x: i8 = 128", "out of range")
}

func TestTypeMismatch(t *testing.T) {
	wantError(t, "let mut w: u16\nfun f(b: u8)\n    w = b\nendfun", "expected u16, found u8")
}

func TestMutInitializerMustBeZero(t *testing.T) {
	wantClean(t, "let mut n: u8 = 0")
	wantError(t, "let mut n: u8 = 1", "implicitly zero")
	wantError(t, "fun f()\n    let mut n: u8 = 5\nendfun", "implicitly zero")
}

func TestStashRequiresStaticInitializer(t *testing.T) {
	wantError(t, "let stash s: [u8: 2]", "requires an initializer")
	wantError(t, "fun f(n: u8)\n    let stash s: u8 = n\nendfun", "not determined at translation time")
}

func TestConstantMustFold(t *testing.T) {
	wantError(t, "let mut n: u8\nconstant c: u8 = n", "not determined at translation time")
}

func TestReturnRules(t *testing.T) {
	wantClean(t, "fun f() -> u8\n    return 1\nendfun")
	wantError(t, "fun f() -> u8\n    return\nendfun", "must return a value")
	wantError(t, "fun f()\n    return 1\nendfun", "does not return a value")
	wantError(t, "isr tick\n    return 1\nendisr", "cannot return a value")
	wantClean(t, "isr tick\n    return\nendisr")
}

func TestIsrCannotBeCalled(t *testing.T) {
	wantError(t, "isr tick\nendisr\nfun f()\n    tick()\nendfun", "cannot be called")
}

func TestIsrCannotCall(t *testing.T) {
	wantError(t, "fun poke()\nendfun\nisr tick\n    poke()\nendisr", "cannot call functions")
}

func TestWideArithmeticMustFold(t *testing.T) {
	// u24/u32 arithmetic exists only at translation time.
	wantClean(t, "constant big: u32 = $10000 + $8000")
	wantError(t, "fun f(a: u32)\n    let b: u32 = a + 1\nendfun", "translation time")
}

func TestMulDivRequirePowerOfTwo(t *testing.T) {
	wantClean(t, "fun f(a: u8) -> u8\n    return a * 4\nendfun")
	wantClean(t, "constant c: u8 = 5 * 3")
	wantError(t, "fun f(a: u8) -> u8\n    return a * 3\nendfun", "power-of-two")
	wantError(t, "fun f(a: u8, b: u8) -> u8\n    return a / b\nendfun", "power-of-two")
}

func TestShiftCountMustFold(t *testing.T) {
	wantClean(t, "fun f(a: u8) -> u8\n    return a << 2\nendfun")
	wantError(t, "fun f(a: u8, b: u8) -> u8\n    return a << b\nendfun", "translation-time")
}

func TestConditionsAreBool(t *testing.T) {
	wantClean(t, "fun f(a: u8)\n    if a == 0 then\n    end\nendfun")
	wantError(t, "fun f(a: u8)\n    if a then\n    end\nendfun", "expected bool")
	wantError(t, "fun f(a: u8)\n    while a + 1 do\n    end\nendfun", "expected bool")
}

func TestComparisonsNeedAgreeingOperands(t *testing.T) {
	wantError(t, "fun f(a: u8, w: u16) -> bool\n    return a < w\nendfun", "expected u8, found u16")
}

func TestSubscriptBounds(t *testing.T) {
	wantClean(t, "let stash tbl: [u8: 8] = \"abcdefgh\"\nfun f() -> u8\n    return tbl[7]\nendfun")
	wantError(t, "let stash tbl: [u8: 8] = \"abcdefgh\"\nfun f() -> u8\n    return tbl[8]\nendfun",
		"outside the declared range")
	wantError(t, "let stash tbl: [u8: 3 to 7] = \"abcde\"\nfun f() -> u8\n    return tbl[2]\nendfun",
		"outside the declared range")
	wantError(t, "fun f(n: u8) -> u8\n    return n[0]\nendfun", "cannot index")
}

func TestConstantReferences(t *testing.T) {
	// A whole array constant may be referenced; it materializes as stash
	// data.  Part of a constant may not.
	u := wantClean(t, "constant tbl: [u8: 4] = [1, 2, 3, 4]\nfun f() -> &stash [u8: 4]\n    return &tbl\nendfun")

	fn := u.AST.Stmts[1].(*ast.FunStmt)
	ref := fn.Body[0].(*ast.ReturnStmt).Value.Type().(types.RefType)
	be.Equal(t, ref.Storage, types.Stash)

	wantError(t, "constant x: u8 = 4\nfun f() -> &u8\n    return &x\nendfun", "cannot take a reference")
	wantError(t, "constant tbl: [u8: 4] = [1, 2, 3, 4]\nfun f(i: u8) -> &u8\n    return &tbl[i]\nendfun",
		"reference into constant")
}

func TestLenAndRange(t *testing.T) {
	u := wantClean(t, "let stash tbl: [u8: 4] = [1, 2, 3, 4]\nfun f() -> u16\n    return tbl.len\nendfun")

	fn := u.AST.Stmts[1].(*ast.FunStmt)
	be.Equal(t, fn.Body[0].(*ast.ReturnStmt).Value.Type(), types.Type(types.U16))

	wantError(t, "fun f(n: u8) -> u16\n    return n.len\nendfun", "has no `len`")
	wantError(t, "let stash tbl: [u8: 4] = [1, 2, 3, 4]\nfun f()\n    let r: u8 = tbl.range\nendfun",
		"only valid as a `for` iterator")
}

func TestForLoops(t *testing.T) {
	wantClean(t, "fun f()\n    for i: u8 in 0 to 7 do\n    end\nendfun")
	wantClean(t, "let stash tbl: [u8: 4] = [1, 2, 3, 4]\nfun f()\n    for i: u8 in tbl.range do\n    end\nendfun")

	wantError(t, "fun f()\n    for i: bool in 0 to 1 do\n    end\nendfun", "integer type")
	wantError(t, "fun f()\n    for i: u8 in 0 to 300 do\n    end\nendfun", "out of range")
	wantError(t, "fun f(s: [u8])\n    for i: u8 in s.range do\n    end\nendfun", "fixed-size array")
}

func TestExprStatementMustBeCall(t *testing.T) {
	wantClean(t, "fun g()\nendfun\nfun f()\n    g()\nendfun")
	wantError(t, "fun f(a: u8)\n    a + 1\nendfun", "unused")
}

func TestCallChecking(t *testing.T) {
	wantError(t, "fun g(a: u8)\nendfun\nfun f()\n    g()\nendfun", "takes 1 arguments, found 0")
	wantError(t, "let mut n: u8\nfun f()\n    n()\nendfun", "not callable")
}

func TestAssignToConstant(t *testing.T) {
	wantError(t, "constant c: u8 = 1\nfun f()\n    c = 2\nendfun", "cannot assign to constant")
	wantError(t, "constant tbl: [u8: 2] = [1, 2]\nfun f()\n    tbl[0] = 2\nendfun", "cannot assign into constant")
}

func TestFrameLayout(t *testing.T) {
	u := wantClean(t, "fun f(a: u8, b: u16)\n    let c: u8 = 0\n    for i: u8 in 0 to 3 do\n    end\nendfun")

	fn := u.AST.Stmts[0].(*ast.FunStmt)
	be.Equal(t, fn.Params[0].Binding.FrameOff, 0)
	be.Equal(t, fn.Params[1].Binding.FrameOff, 1)

	c := fn.Body[0].(*ast.LetStmt)
	be.Equal(t, c.Decl.Binding.Kind, ast.BindAuto)
	be.Equal(t, c.Decl.Binding.FrameOff, 3)

	loop := fn.Body[1].(*ast.ForStmt)
	be.Equal(t, loop.Var.Binding.FrameOff, 4)
}

func TestLocalStaticNaming(t *testing.T) {
	// Function-local stash and mut bindings become per-function symbols.
	u := wantClean(t, "fun f()\n    let stash hits: u8 = 9\n    let mut seen: u8\nendfun")

	body := u.AST.Stmts[0].(*ast.FunStmt).Body

	hits := body[0].(*ast.LetStmt).Decl.Binding
	be.Equal(t, hits.Kind, ast.BindGlobal)
	be.Equal(t, hits.Name, "f$hits")
	be.Equal(t, hits.Const.Int, int64(9))

	seen := body[1].(*ast.LetStmt).Decl.Binding
	be.Equal(t, seen.Name, "f$seen")
}

func TestUnitMemberAccess(t *testing.T) {
	u := wantClean(t, "use c64\nfun f()\n    @c64.vic-border = 0\nendfun")

	fn := u.AST.Stmts[1].(*ast.FunStmt)
	deref := fn.Body[0].(*ast.AssignStmt).Lhs.(*ast.UnaryOp)
	member := deref.Operand.(*ast.Member)
	be.True(t, member.Binding != nil)
	be.Equal(t, member.Binding.Kind, ast.BindConst)
	be.Equal(t, member.Binding.Const.Int, int64(0xd020))

	wantError(t, "use c64\nfun f()\n    @c64.nope = 0\nendfun", "does not export")
	wantError(t, "fun f()\n    @c64.vic-border = 0\nendfun", "not defined")
}

func TestAddressConstants(t *testing.T) {
	// A numeric literal against a reference expectation is an address
	// constant.
	u := wantClean(t, "constant border: &mut u8 = $d020")

	border := u.Exports["border"]
	be.Equal(t, border.Type, types.Type(types.RefType{Elem: types.U8, Storage: types.Mut}))
	be.True(t, border.Const != nil)
	be.Equal(t, border.Const.Int, int64(0xd020))

	wantError(t, "constant bad: &mut u8 = $12345", "out of range for an address")
}

func TestBuiltinUnitChecks(t *testing.T) {
	provide, ok := depm.LookupVirtual("c64")
	be.True(t, ok)

	stmts, err := provide("c64")
	be.Err(t, err, nil)

	table := depm.NewUnitTable()
	du := &depm.Unit{
		Name: "c64",
		Kind: depm.UnitVirtual,
		AST:  &ast.Unit{Name: "c64", Stmts: stmts},
	}
	table.Add(du)

	be.Equal(t, len(WalkUnit(du, table)), 0)

	border := du.Exports["vic-border"]
	be.Equal(t, border.Type, types.Type(types.RefType{Elem: types.U8, Storage: types.Mut}))
	be.Equal(t, border.Const.Int, int64(0xd020))
}
