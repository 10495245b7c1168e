package walk

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/types"
)

// Walker performs the type and storage checking pass over a single unit's
// AST.  It annotates every declaration and expression with its resolved type,
// attaches bindings to identifiers, and accumulates diagnostics without
// halting: code generation for the unit only begins if the walk produced no
// diagnostics.
//
// All top-level declarations are in scope throughout the unit.  Inside a
// function, a binding is in scope from its declaration to the end of the
// enclosing block.
type Walker struct {
	unit  *depm.Unit
	table *depm.UnitTable

	// The units this unit uses, by name.
	uses map[string]*depm.Unit

	// The unit-level bindings, by name.
	globals map[string]*ast.Binding

	// The local scope stack, innermost last.  Empty outside function bodies.
	scopes []map[string]*ast.Binding

	// The enclosing function context, nil at unit level.
	fn *fnContext

	errs []*report.CompileError
}

// fnContext is the checking context of the enclosing function or isr body.
type fnContext struct {
	name   string
	ret    types.Type
	isISR  bool
	offset int
}

// allocFrame reserves size bytes in the function's working frame and returns
// the byte offset of the reservation.
func (fc *fnContext) allocFrame(size int) int {
	off := fc.offset
	fc.offset += size
	return off
}

// WalkUnit checks the given unit against the unit table of its resolved
// dependencies.  On success the unit's export table is populated; the
// returned diagnostics are nil only if the unit is clean.
func WalkUnit(u *depm.Unit, table *depm.UnitTable) []*report.CompileError {
	w := &Walker{
		unit:    u,
		table:   table,
		uses:    make(map[string]*depm.Unit),
		globals: make(map[string]*ast.Binding),
	}

	w.declareTopLevel()
	w.walkTopLevel()

	if len(w.errs) == 0 {
		w.exportGlobals()
	}

	return w.errs
}

// error records a spanned diagnostic and continues the walk.
func (w *Walker) error(span *report.TextSpan, msg string, args ...interface{}) {
	ce := report.Raise(span, msg, args...)
	ce.Path = w.unit.Path
	w.errs = append(w.errs, ce)
}

// -----------------------------------------------------------------------------

// declareTopLevel collects every unit-level binding before any body is
// walked, so that definitions may reference each other freely regardless of
// order.
func (w *Walker) declareTopLevel() {
	for _, stmt := range w.unit.AST.Stmts {
		switch v := stmt.(type) {
		case *ast.UseStmt:
			if dep, ok := w.table.Lookup(v.Unit); ok {
				w.uses[v.Unit] = dep
			} else {
				w.error(v.Span(), "unit `%s` is not part of the compilation plan", v.Unit)
			}
		case *ast.ConstStmt:
			w.declareGlobal(v.Decl.NamePos, &ast.Binding{
				Kind: ast.BindConst,
				Unit: w.unit.Name,
				Name: v.Decl.Name,
				Type: v.Decl.Type,
			})
		case *ast.LetStmt:
			// A unit-level binding always occupies static storage; plain
			// `let` reserves zeroed space the same way `let mut` does.
			storage := v.Storage
			if storage == types.Auto {
				storage = types.Mut
			}

			w.declareGlobal(v.Decl.NamePos, &ast.Binding{
				Kind:    ast.BindGlobal,
				Unit:    w.unit.Name,
				Name:    v.Decl.Name,
				Type:    v.Decl.Type,
				Storage: storage,
			})
		case *ast.FunStmt:
			w.declareGlobal(v.Span(), &ast.Binding{
				Kind: ast.BindFunc,
				Unit: w.unit.Name,
				Name: v.Name,
				Type: v.Type(),
			})
		case *ast.IsrStmt:
			w.declareGlobal(v.Span(), &ast.Binding{
				Kind: ast.BindFunc,
				Unit: w.unit.Name,
				Name: v.Name,
				Type: types.FuncType{Return: types.VoidType{}, IsISR: true},
			})
		}
	}
}

func (w *Walker) declareGlobal(span *report.TextSpan, b *ast.Binding) {
	if _, ok := w.globals[b.Name]; ok {
		w.error(span, "multiple definitions of `%s`", b.Name)
		return
	}

	w.globals[b.Name] = b
}

// exportGlobals publishes the unit's export table.  Every top-level binding
// is exported.
func (w *Walker) exportGlobals() {
	exports := make(map[string]*depm.Export)
	for name, b := range w.globals {
		exports[name] = &depm.Export{
			Unit:  w.unit.Name,
			Name:  name,
			Type:  b.Type,
			Const: b.Const,
		}
	}

	w.unit.Exports = exports
}

// -----------------------------------------------------------------------------

// walkTopLevel checks every top-level definition body and evaluates every
// unit-level initializer.
func (w *Walker) walkTopLevel() {
	for _, stmt := range w.unit.AST.Stmts {
		switch v := stmt.(type) {
		case *ast.UseStmt:
			// Handled during declaration.
		case *ast.ConstStmt:
			w.walkConstant(v)
		case *ast.LetStmt:
			w.walkGlobalLet(v)
		case *ast.FunStmt:
			w.walkFun(v)
		case *ast.IsrStmt:
			w.walkIsr(v)
		default:
			w.error(stmt.Span(), "statement is not valid at unit level")
		}
	}
}

// walkConstant checks and evaluates a `constant` binding.  The value must be
// fully determined at translation time; it never occupies image space.
func (w *Walker) walkConstant(cs *ast.ConstStmt) {
	b := w.globals[cs.Decl.Name]
	cs.Decl.Binding = b

	if w.checkExpr(cs.Init, cs.Decl.Type) == nil {
		return
	}

	value, ok := w.constEval(cs.Init)
	if !ok {
		w.error(cs.Init.Span(), "constant `%s` has a value not determined at translation time", cs.Decl.Name)
		return
	}

	if prim, ok := cs.Decl.Type.(types.PrimType); ok && value.Bytes == nil && value.Sym == "" {
		if !prim.Representable(value.Int) {
			w.error(cs.Init.Span(), "value %d is out of range for %s", value.Int, prim.Repr())
			return
		}
	}

	b.Const = &value
}

// walkGlobalLet checks a unit-level `let` binding.  Stash bindings must have
// a translation-time initializer, which becomes literal image bytes; mut (and
// plain) bindings are implicitly zero at load and reject any other
// initializer.
func (w *Walker) walkGlobalLet(ls *ast.LetStmt) {
	b := w.globals[ls.Decl.Name]
	ls.Decl.Binding = b

	if ls.Init != nil && w.checkExpr(ls.Init, ls.Decl.Type) == nil {
		return
	}

	switch b.Storage {
	case types.Stash:
		if ls.Init == nil {
			w.error(ls.Span(), "stash binding `%s` requires an initializer", ls.Decl.Name)
			return
		}

		value, ok := w.constEval(ls.Init)
		if !ok {
			w.error(ls.Init.Span(), "stash initializer for `%s` is not determined at translation time", ls.Decl.Name)
			return
		}

		b.Const = &value
	case types.Mut:
		if ls.Init == nil {
			return
		}

		if value, ok := w.constEval(ls.Init); !ok || value.Int != 0 || value.Bytes != nil || value.Sym != "" {
			w.error(ls.Init.Span(), "`%s` is implicitly zero at load; only a zero initializer is allowed", ls.Decl.Name)
		}
	}
}

// walkFun checks a function definition body.
func (w *Walker) walkFun(fs *ast.FunStmt) {
	w.fn = &fnContext{name: fs.Name, ret: fs.Return}
	w.pushScope()

	for i := range fs.Params {
		p := &fs.Params[i]
		b := &ast.Binding{
			Kind:     ast.BindAuto,
			Unit:     w.unit.Name,
			Name:     p.Name,
			Type:     p.Type,
			FrameOff: w.fn.allocFrame(p.Type.Size()),
		}
		p.Binding = b
		w.declareLocal(p.NamePos, b)
	}

	w.walkBlock(fs.Body)

	w.popScope()
	w.fn = nil
}

// walkIsr checks an interrupt service routine body.  ISRs accept no
// parameters; returning from one resumes interrupt dispatch rather than any
// caller.
func (w *Walker) walkIsr(is *ast.IsrStmt) {
	w.fn = &fnContext{name: is.Name, ret: types.VoidType{}, isISR: true}
	w.pushScope()

	w.walkBlock(is.Body)

	w.popScope()
	w.fn = nil
}

// -----------------------------------------------------------------------------

func (w *Walker) pushScope() {
	w.scopes = append(w.scopes, make(map[string]*ast.Binding))
}

func (w *Walker) popScope() {
	w.scopes = w.scopes[:len(w.scopes)-1]
}

func (w *Walker) declareLocal(span *report.TextSpan, b *ast.Binding) {
	scope := w.scopes[len(w.scopes)-1]
	if _, ok := scope[b.Name]; ok {
		w.error(span, "multiple definitions of `%s`", b.Name)
		return
	}

	scope[b.Name] = b
}

// lookup resolves a name against the local scopes, innermost first, then the
// unit's top-level bindings.
func (w *Walker) lookup(name string) (*ast.Binding, bool) {
	for i := len(w.scopes) - 1; i >= 0; i-- {
		if b, ok := w.scopes[i][name]; ok {
			return b, true
		}
	}

	b, ok := w.globals[name]
	return b, ok
}

// -----------------------------------------------------------------------------

func (w *Walker) walkBlock(stmts []ast.Statement) {
	w.pushScope()
	for _, stmt := range stmts {
		w.walkStmt(stmt)
	}
	w.popScope()
}

func (w *Walker) walkStmt(stmt ast.Statement) {
	switch v := stmt.(type) {
	case *ast.LetStmt:
		w.walkLocalLet(v)
	case *ast.WhileStmt:
		w.checkCond(v.Cond)
		w.walkBlock(v.Body)
	case *ast.ForStmt:
		w.walkFor(v)
	case *ast.IfStmt:
		for _, branch := range v.Branches {
			w.checkCond(branch.Cond)
			w.walkBlock(branch.Body)
		}
		w.walkBlock(v.Else)
	case *ast.AssignStmt:
		w.walkAssign(v)
	case *ast.ReturnStmt:
		w.walkReturn(v)
	case *ast.ExprStmt:
		if _, ok := v.Expr.(*ast.Call); !ok {
			w.error(v.Span(), "expression result is unused")
			return
		}

		w.checkExpr(v.Expr, nil)
	default:
		w.error(stmt.Span(), "statement is not valid inside a function body")
	}
}

// walkLocalLet checks a function-local `let` binding.  Auto bindings live in
// the enclosing function's working frame; mut and stash bindings occupy
// static storage addressed through a per-function symbol, so their values
// persist across calls.
func (w *Walker) walkLocalLet(ls *ast.LetStmt) {
	if ls.Init != nil && w.checkExpr(ls.Init, ls.Decl.Type) == nil {
		return
	}

	b := &ast.Binding{
		Unit:    w.unit.Name,
		Name:    ls.Decl.Name,
		Type:    ls.Decl.Type,
		Storage: ls.Storage,
	}

	switch ls.Storage {
	case types.Auto:
		b.Kind = ast.BindAuto
		b.FrameOff = w.fn.allocFrame(ls.Decl.Type.Size())
	case types.Stash:
		b.Kind = ast.BindGlobal
		b.Name = w.fn.name + "$" + ls.Decl.Name

		if ls.Init == nil {
			w.error(ls.Span(), "stash binding `%s` requires an initializer", ls.Decl.Name)
		} else if value, ok := w.constEval(ls.Init); ok {
			b.Const = &value
		} else {
			w.error(ls.Init.Span(), "stash initializer for `%s` is not determined at translation time", ls.Decl.Name)
		}
	case types.Mut:
		b.Kind = ast.BindGlobal
		b.Name = w.fn.name + "$" + ls.Decl.Name

		if ls.Init != nil {
			if value, ok := w.constEval(ls.Init); !ok || value.Int != 0 || value.Bytes != nil || value.Sym != "" {
				w.error(ls.Init.Span(), "`%s` is implicitly zero at load; only a zero initializer is allowed", ls.Decl.Name)
			}
		}
	}

	ls.Decl.Binding = b
	w.declareLocal(ls.Decl.NamePos, b)
}

func (w *Walker) walkFor(fs *ast.ForStmt) {
	prim, ok := fs.Var.Type.(types.PrimType)
	if !ok || !types.IsInteger(prim) {
		w.error(fs.Var.NamePos, "loop variable `%s` must have an integer type, not %s",
			fs.Var.Name, fs.Var.Type.Repr())
		return
	}

	if fs.Range != nil {
		// `for x in expr.range` requires a statically known fixed size.
		typ := w.checkExpr(fs.Range, nil)
		if typ != nil {
			at, ok := typ.(types.ArrayType)
			if !ok {
				w.error(fs.Range.Span(), "`.range` requires a fixed-size array, not %s", typ.Repr())
			} else if !prim.Representable(int64(at.Lo)) || !prim.Representable(int64(at.Hi)) {
				w.error(fs.Var.NamePos, "index range %d to %d is out of range for %s", at.Lo, at.Hi, prim.Repr())
			}
		}
	} else {
		w.checkExpr(fs.Lo, prim)
		w.checkExpr(fs.Hi, prim)

		// Where the bounds are translation-time values, reject a range the
		// loop variable cannot represent.
		if lo, ok := w.constEval(fs.Lo); ok && !prim.Representable(lo.Int) {
			w.error(fs.Lo.Span(), "value %d is out of range for %s", lo.Int, prim.Repr())
		}
		if hi, ok := w.constEval(fs.Hi); ok && !prim.Representable(hi.Int) {
			w.error(fs.Hi.Span(), "value %d is out of range for %s", hi.Int, prim.Repr())
		}
	}

	w.pushScope()

	b := &ast.Binding{
		Kind:     ast.BindAuto,
		Unit:     w.unit.Name,
		Name:     fs.Var.Name,
		Type:     fs.Var.Type,
		FrameOff: w.fn.allocFrame(fs.Var.Type.Size()),
	}
	fs.Var.Binding = b
	w.declareLocal(fs.Var.NamePos, b)

	w.walkBlock(fs.Body)
	w.popScope()
}

func (w *Walker) walkAssign(as *ast.AssignStmt) {
	typ := w.checkPlace(as.Lhs)
	if typ == nil {
		return
	}

	w.checkExpr(as.Rhs, typ)
}

// walkReturn checks a `return` statement against the enclosing definition's
// declared return type.
func (w *Walker) walkReturn(rs *ast.ReturnStmt) {
	if w.fn.isISR {
		if rs.Value != nil {
			w.error(rs.Span(), "isr `%s` cannot return a value", w.fn.name)
		}
		return
	}

	if types.IsVoid(w.fn.ret) {
		if rs.Value != nil {
			w.error(rs.Value.Span(), "fun `%s` does not return a value", w.fn.name)
		}
		return
	}

	if rs.Value == nil {
		w.error(rs.Span(), "fun `%s` must return a value of type %s", w.fn.name, w.fn.ret.Repr())
		return
	}

	w.checkExpr(rs.Value, w.fn.ret)
}

// checkCond checks a loop or branch condition, which must be boolean.
func (w *Walker) checkCond(cond ast.Expr) {
	w.checkExpr(cond, types.Bool)
}
