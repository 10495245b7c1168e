package walk

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/types"
)

// checkExpr resolves and annotates the type of an expression.  When expected
// is non-nil the resolved type must match it; literals adopt the expected
// type where they can.  Returns nil if the expression (or a subexpression)
// was rejected, in which case a diagnostic has already been recorded.
func (w *Walker) checkExpr(e ast.Expr, expected types.Type) types.Type {
	typ := w.exprType(e, expected)
	if typ == nil {
		return nil
	}

	e.SetType(typ)

	if expected != nil && !types.Equal(typ, expected) {
		w.error(e.Span(), "expected %s, found %s", expected.Repr(), typ.Repr())
		return nil
	}

	return typ
}

func (w *Walker) exprType(e ast.Expr, expected types.Type) types.Type {
	switch v := e.(type) {
	case *ast.NumberLit:
		return w.numberType(v, expected)
	case *ast.StringLit:
		return w.stringType(v, expected)
	case *ast.ArrayLit:
		return w.arrayLitType(v, expected)
	case *ast.Identifier:
		return w.identType(v)
	case *ast.UnaryOp:
		return w.unaryType(v, expected)
	case *ast.BinaryOp:
		return w.binaryType(v, expected)
	case *ast.Member:
		return w.memberType(v)
	case *ast.Subscript:
		return w.subscriptType(v)
	case *ast.Call:
		return w.callType(v)
	default:
		w.error(e.Span(), "expression form is not supported here")
		return nil
	}
}

// -----------------------------------------------------------------------------

// numberType types a numeric literal.  The literal adopts the expected
// primitive where one is given; otherwise it gets the narrowest unsigned (or,
// for negative values, signed) primitive that represents it.
func (w *Walker) numberType(v *ast.NumberLit, expected types.Type) types.Type {
	if prim, ok := expected.(types.PrimType); ok {
		if !prim.Representable(v.Value) {
			w.error(v.Span(), "value %d is out of range for %s", v.Value, prim.Repr())
			return nil
		}

		return prim
	}

	// A literal against a reference expectation is an address constant: the
	// value is the address itself, inlined by dependents.
	if ref, ok := expected.(types.RefType); ok {
		if v.Value < 0 || v.Value > 0xffff {
			w.error(v.Span(), "value %d is out of range for an address", v.Value)
			return nil
		}

		return ref
	}

	for _, prim := range numberDefaults(v.Value < 0) {
		if prim.Representable(v.Value) {
			return prim
		}
	}

	w.error(v.Span(), "value %d is not representable by any integer type", v.Value)
	return nil
}

func numberDefaults(negative bool) []types.PrimType {
	if negative {
		return []types.PrimType{types.I8, types.I16, types.I24, types.I32}
	}

	return []types.PrimType{types.U8, types.U16, types.U24, types.U32}
}

// stringType types a string literal, which is a fixed u8 array over its
// bytes.
func (w *Walker) stringType(v *ast.StringLit, expected types.Type) types.Type {
	n := len(v.Value)
	if n == 0 {
		w.error(v.Span(), "string literals cannot be empty")
		return nil
	}

	if at, ok := expected.(types.ArrayType); ok && types.Equal(at.Elem, types.U8) {
		if at.Len() != n {
			w.error(v.Span(), "string of %d bytes does not fit %s", n, at.Repr())
			return nil
		}

		return at
	}

	return types.ArrayType{Elem: types.U8, Storage: types.Stash, Lo: 0, Hi: n - 1}
}

// arrayLitType types a bracketed array literal.  The element type and index
// range come from the expected array type where one is given.
func (w *Walker) arrayLitType(v *ast.ArrayLit, expected types.Type) types.Type {
	if at, ok := expected.(types.ArrayType); ok {
		if at.Len() != len(v.Elems) {
			w.error(v.Span(), "array literal of %d elements does not fit %s", len(v.Elems), at.Repr())
			return nil
		}

		ok := true
		for _, elem := range v.Elems {
			if w.checkExpr(elem, at.Elem) == nil {
				ok = false
			}
		}
		if !ok {
			return nil
		}

		return at
	}

	if len(v.Elems) == 0 {
		w.error(v.Span(), "array literals cannot be empty")
		return nil
	}

	elemType := w.checkExpr(v.Elems[0], nil)
	if elemType == nil {
		return nil
	}

	for _, elem := range v.Elems[1:] {
		if w.checkExpr(elem, elemType) == nil {
			return nil
		}
	}

	return types.ArrayType{Elem: elemType, Storage: types.Stash, Lo: 0, Hi: len(v.Elems) - 1}
}

func (w *Walker) identType(v *ast.Identifier) types.Type {
	b, ok := w.lookup(v.Name)
	if !ok {
		w.error(v.Span(), "`%s` is not defined", v.Name)
		return nil
	}

	if b.Kind == ast.BindFunc {
		w.error(v.Span(), "`%s` is a definition, not a value", v.Name)
		return nil
	}

	v.Binding = b
	return b.Type
}

// -----------------------------------------------------------------------------

func (w *Walker) unaryType(v *ast.UnaryOp, expected types.Type) types.Type {
	switch v.Op {
	case "-":
		typ := w.checkExpr(v.Operand, expected)
		if typ == nil {
			return nil
		}

		if !types.IsInteger(typ) {
			w.error(v.Span(), "cannot negate %s", typ.Repr())
			return nil
		}

		return typ
	case "not":
		if w.checkExpr(v.Operand, types.Bool) == nil {
			return nil
		}

		return types.Bool
	case "bitnot":
		typ := w.checkExpr(v.Operand, expected)
		if typ == nil {
			return nil
		}

		if !types.IsInteger(typ) {
			w.error(v.Span(), "`bitnot` requires an integer operand, not %s", typ.Repr())
			return nil
		}

		return typ
	case "&":
		return w.refType(v)
	case "@":
		typ := w.checkExpr(v.Operand, nil)
		if typ == nil {
			return nil
		}

		rt, ok := typ.(types.RefType)
		if !ok {
			w.error(v.Span(), "cannot dereference %s", typ.Repr())
			return nil
		}

		return rt.Elem
	default:
		w.error(v.Span(), "unary operator `%s` is not supported", v.Op)
		return nil
	}
}

// refType types a reference-taking expression.  A reference may be taken to
// any addressable place, and to a whole array-valued constant, but not into
// part of a constant: constants have no address of their own, so only the
// declared shape may be referenced.
func (w *Walker) refType(v *ast.UnaryOp) types.Type {
	switch operand := v.Operand.(type) {
	case *ast.Identifier:
		typ := w.checkExpr(operand, nil)
		if typ == nil {
			return nil
		}

		b := operand.Binding
		if b.Kind == ast.BindConst {
			if _, ok := typ.(types.ArrayType); !ok {
				w.error(v.Span(), "cannot take a reference to constant `%s`", operand.Name)
				return nil
			}

			// A referenced array constant materializes as stash data.
			return types.RefType{Elem: typ, Storage: types.Stash}
		}

		return types.RefType{Elem: typ, Storage: b.Storage}
	case *ast.Subscript:
		typ := w.checkExpr(operand, nil)
		if typ == nil {
			return nil
		}

		if root, ok := subscriptRoot(operand); ok && root.Binding != nil && root.Binding.Kind == ast.BindConst {
			w.error(v.Span(), "cannot take a reference into constant `%s`", root.Name)
			return nil
		}

		storage := types.Auto
		switch tt := operand.Target.Type().(type) {
		case types.ArrayType:
			storage = tt.Storage
		case types.SliceType:
			storage = tt.Storage
		}

		return types.RefType{Elem: typ, Storage: storage}
	default:
		w.error(v.Span(), "cannot take a reference to this expression")
		return nil
	}
}

// subscriptRoot returns the identifier at the base of a subscript chain.
func subscriptRoot(s *ast.Subscript) (*ast.Identifier, bool) {
	target := s.Target
	for {
		switch v := target.(type) {
		case *ast.Identifier:
			return v, true
		case *ast.Subscript:
			target = v.Target
		default:
			return nil, false
		}
	}
}

func (w *Walker) binaryType(v *ast.BinaryOp, expected types.Type) types.Type {
	switch v.Op {
	case "and", "or":
		if w.checkExpr(v.Lhs, types.Bool) == nil || w.checkExpr(v.Rhs, types.Bool) == nil {
			return nil
		}

		return types.Bool
	case "==", "!=", "<", "<=", ">", ">=":
		typ := w.checkOperands(v, nil)
		if typ == nil {
			return nil
		}

		if !types.IsInteger(typ) && !types.IsBool(typ) {
			w.error(v.Span(), "cannot compare %s values", typ.Repr())
			return nil
		}

		return types.Bool
	case "+", "-", "bitand", "bitor", "bitxor":
		return w.arithType(v, expected)
	case "<<", ">>":
		typ := w.arithType(v, expected)
		if typ == nil {
			return nil
		}

		if _, ok := w.constEval(v.Rhs); !ok {
			w.error(v.Rhs.Span(), "shift amount must be a translation-time value")
			return nil
		}

		return typ
	case "*", "/":
		typ := w.arithType(v, expected)
		if typ == nil {
			return nil
		}

		// Runtime multiplication and division exist only as shifts.
		if _, ok := w.constEval(v); ok {
			return typ
		}

		if rhs, ok := w.constEval(v.Rhs); !ok || !isPowerOfTwo(rhs.Int) {
			w.error(v.Rhs.Span(), "`%s` requires a translation-time power-of-two operand", v.Op)
			return nil
		}

		return typ
	default:
		w.error(v.Span(), "binary operator `%s` is not supported", v.Op)
		return nil
	}
}

// arithType types an arithmetic or bitwise application.  Both operands must
// agree; values wider than 16 bits only participate in translation-time
// arithmetic.
func (w *Walker) arithType(v *ast.BinaryOp, expected types.Type) types.Type {
	typ := w.checkOperands(v, expected)
	if typ == nil {
		return nil
	}

	if !types.IsInteger(typ) {
		w.error(v.Span(), "operator `%s` requires integer operands, not %s", v.Op, typ.Repr())
		return nil
	}

	if typ.Size() > 2 {
		if _, ok := w.constEval(v); !ok {
			w.error(v.Span(), "%s arithmetic is only supported at translation time", typ.Repr())
			return nil
		}
	}

	return typ
}

// checkOperands types both operands of a binary application against each
// other.  The literal operand, if any, is checked second so that it adopts
// the other side's type.
func (w *Walker) checkOperands(v *ast.BinaryOp, expected types.Type) types.Type {
	first, second := v.Lhs, v.Rhs
	if isLiteral(first) && !isLiteral(second) {
		first, second = second, first
	}

	typ := w.checkExpr(first, expected)
	if typ == nil {
		return nil
	}

	if w.checkExpr(second, typ) == nil {
		return nil
	}

	return typ
}

func isLiteral(e ast.Expr) bool {
	_, ok := e.(*ast.NumberLit)
	return ok
}

func isPowerOfTwo(v int64) bool {
	return v > 0 && v&(v-1) == 0
}

// -----------------------------------------------------------------------------

// memberType types a member access: an export of a used unit, or the `.len`
// of an array or slice.
func (w *Walker) memberType(v *ast.Member) types.Type {
	// A root identifier naming a used unit, unless shadowed by a binding,
	// selects one of that unit's exports.
	if root, ok := v.Root.(*ast.Identifier); ok {
		if dep, isUnit := w.uses[root.Name]; isUnit {
			if _, shadowed := w.lookup(root.Name); !shadowed {
				return w.exportType(v, dep)
			}
		}
	}

	typ := w.checkExpr(v.Root, nil)
	if typ == nil {
		return nil
	}

	switch v.Field {
	case "len":
		switch typ.(type) {
		case types.ArrayType:
			return types.U16
		case types.SliceType:
			return types.U8
		default:
			w.error(v.FieldPos, "%s has no `len`", typ.Repr())
			return nil
		}
	case "range":
		w.error(v.FieldPos, "`.range` is only valid as a `for` iterator")
		return nil
	default:
		w.error(v.FieldPos, "%s has no member `%s`", typ.Repr(), v.Field)
		return nil
	}
}

// exportType resolves a `unit.name` access against the used unit's export
// table.
func (w *Walker) exportType(v *ast.Member, dep *depm.Unit) types.Type {
	exp, ok := dep.Exports[v.Field]
	if !ok {
		w.error(v.FieldPos, "unit `%s` does not export `%s`", dep.Name, v.Field)
		return nil
	}

	b := &ast.Binding{
		Unit:  exp.Unit,
		Name:  exp.Name,
		Type:  exp.Type,
		Const: exp.Const,
	}

	switch {
	case exp.Const != nil:
		b.Kind = ast.BindConst
	default:
		if _, isFunc := exp.Type.(types.FuncType); isFunc {
			b.Kind = ast.BindFunc
		} else {
			b.Kind = ast.BindGlobal
		}
	}

	v.Binding = b
	return exp.Type
}

// subscriptType types an index expression.  The target must be an array or
// slice; where the extent is statically known, a translation-time index must
// fall inside it.
func (w *Walker) subscriptType(v *ast.Subscript) types.Type {
	typ := w.checkExpr(v.Target, nil)
	if typ == nil {
		return nil
	}

	elem, ok := types.Indexable(typ)
	if !ok {
		w.error(v.Span(), "cannot index %s", typ.Repr())
		return nil
	}

	idxType := w.checkExpr(v.Index, nil)
	if idxType == nil {
		return nil
	}

	if !types.IsInteger(idxType) {
		w.error(v.Index.Span(), "index must be an integer, not %s", idxType.Repr())
		return nil
	}

	if at, isArray := typ.(types.ArrayType); isArray {
		if idx, isConst := w.constEval(v.Index); isConst {
			if idx.Int < int64(at.Lo) || idx.Int > int64(at.Hi) {
				w.error(v.Index.Span(), "index %d is outside the declared range %d to %d", idx.Int, at.Lo, at.Hi)
				return nil
			}
		}
	}

	return elem
}

// callType types a call expression.  Only fun definitions are callable;
// isrs are dispatched by the interrupt hardware, never by a call.  Calls are
// also rejected inside isr bodies: an interrupt may fire mid-call, and the
// working storage of the interrupted function must not be reentered.
func (w *Walker) callType(v *ast.Call) types.Type {
	if w.fn != nil && w.fn.isISR {
		w.error(v.Span(), "isr `%s` cannot call functions", w.fn.name)
		return nil
	}

	var b *ast.Binding
	var name string

	switch f := v.Func.(type) {
	case *ast.Identifier:
		var ok bool
		if b, ok = w.lookup(f.Name); !ok {
			w.error(f.Span(), "`%s` is not defined", f.Name)
			return nil
		}

		f.Binding = b
		name = f.Name
	case *ast.Member:
		if w.memberType(f) == nil {
			return nil
		}

		b = f.Binding
		if b == nil {
			w.error(f.Span(), "member access does not name a definition")
			return nil
		}

		name = f.Field
	default:
		w.error(v.Func.Span(), "expression is not callable")
		return nil
	}

	ft, ok := b.Type.(types.FuncType)
	if !ok {
		w.error(v.Func.Span(), "`%s` is not callable", name)
		return nil
	}

	if ft.IsISR {
		w.error(v.Func.Span(), "isr `%s` cannot be called; it is dispatched by the interrupt hardware", name)
		return nil
	}

	if len(v.Args) != len(ft.Params) {
		w.error(v.Span(), "`%s` takes %d arguments, found %d", name, len(ft.Params), len(v.Args))
		return nil
	}

	ok = true
	for i, arg := range v.Args {
		if w.checkExpr(arg, ft.Params[i]) == nil {
			ok = false
		}
	}
	if !ok {
		return nil
	}

	if ft.Return == nil {
		return types.VoidType{}
	}

	return ft.Return
}

// -----------------------------------------------------------------------------

// checkPlace types the left side of an assignment, which must be an
// identifier, a subscript, or a dereference, and must not name a constant.
func (w *Walker) checkPlace(e ast.Expr) types.Type {
	switch v := e.(type) {
	case *ast.Identifier:
		typ := w.checkExpr(v, nil)
		if typ == nil {
			return nil
		}

		if v.Binding.Kind == ast.BindConst {
			w.error(v.Span(), "cannot assign to constant `%s`", v.Name)
			return nil
		}

		return typ
	case *ast.Subscript:
		typ := w.checkExpr(v, nil)
		if typ == nil {
			return nil
		}

		if root, ok := subscriptRoot(v); ok && root.Binding != nil && root.Binding.Kind == ast.BindConst {
			w.error(v.Span(), "cannot assign into constant `%s`", root.Name)
			return nil
		}

		return typ
	case *ast.UnaryOp:
		if v.Op != "@" {
			w.error(e.Span(), "expression is not assignable")
			return nil
		}

		return w.checkExpr(v, nil)
	default:
		w.error(e.Span(), "expression is not assignable")
		return nil
	}
}
