package walk

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/types"
)

// constEval attempts translation-time evaluation of a checked expression.
// It returns the value and true when the expression is fully determined at
// translation time, and false otherwise; false is not an error by itself.
//
// Integer values evaluate to Int, array-valued expressions to their encoded
// Bytes, and references to static storage to the Sym of the referenced
// symbol.
func (w *Walker) constEval(e ast.Expr) (ast.ConstValue, bool) {
	switch v := e.(type) {
	case *ast.NumberLit:
		return ast.ConstValue{Int: v.Value}, true

	case *ast.StringLit:
		return ast.ConstValue{Bytes: []byte(v.Value)}, true

	case *ast.ArrayLit:
		return w.constEvalArray(v)

	case *ast.Identifier:
		if v.Binding != nil && v.Binding.Kind == ast.BindConst && v.Binding.Const != nil {
			return *v.Binding.Const, true
		}

		return ast.ConstValue{}, false

	case *ast.Member:
		if v.Binding != nil && v.Binding.Const != nil {
			return *v.Binding.Const, true
		}

		if v.Field == "len" {
			if at, ok := v.Root.Type().(types.ArrayType); ok {
				return ast.ConstValue{Int: int64(at.Len())}, true
			}
		}

		return ast.ConstValue{}, false

	case *ast.Subscript:
		return w.constEvalSubscript(v)

	case *ast.UnaryOp:
		return w.constEvalUnary(v)

	case *ast.BinaryOp:
		return w.constEvalBinary(v)

	default:
		return ast.ConstValue{}, false
	}
}

// constEvalArray encodes an array literal of translation-time elements as
// little-endian bytes.
func (w *Walker) constEvalArray(v *ast.ArrayLit) (ast.ConstValue, bool) {
	at, ok := v.Type().(types.ArrayType)
	if !ok {
		return ast.ConstValue{}, false
	}

	elemSize := at.Elem.Size()
	buff := make([]byte, 0, len(v.Elems)*elemSize)

	for _, elem := range v.Elems {
		value, ok := w.constEval(elem)
		if !ok || value.Bytes != nil || value.Sym != "" {
			return ast.ConstValue{}, false
		}

		buff = append(buff, encodeInt(value.Int, elemSize)...)
	}

	return ast.ConstValue{Bytes: buff}, true
}

// constEvalSubscript extracts one element of an array-valued constant
// indexed by a translation-time value.
func (w *Walker) constEvalSubscript(v *ast.Subscript) (ast.ConstValue, bool) {
	at, ok := v.Target.Type().(types.ArrayType)
	if !ok {
		return ast.ConstValue{}, false
	}

	target, ok := w.constEval(v.Target)
	if !ok || target.Bytes == nil {
		return ast.ConstValue{}, false
	}

	idx, ok := w.constEval(v.Index)
	if !ok {
		return ast.ConstValue{}, false
	}

	elemSize := at.Elem.Size()
	off := int(idx.Int-int64(at.Lo)) * elemSize
	if off < 0 || off+elemSize > len(target.Bytes) {
		return ast.ConstValue{}, false
	}

	return ast.ConstValue{Int: decodeInt(target.Bytes[off:off+elemSize], isSigned(at.Elem))}, true
}

func (w *Walker) constEvalUnary(v *ast.UnaryOp) (ast.ConstValue, bool) {
	if v.Op == "&" {
		// A reference to static storage is an address constant naming the
		// symbol; the address itself is baked in at link time.
		if ident, ok := v.Operand.(*ast.Identifier); ok {
			if b := ident.Binding; b != nil && b.Kind == ast.BindGlobal {
				return ast.ConstValue{Sym: b.Name}, true
			}
		}

		return ast.ConstValue{}, false
	}

	value, ok := w.constEval(v.Operand)
	if !ok || value.Bytes != nil || value.Sym != "" {
		return ast.ConstValue{}, false
	}

	switch v.Op {
	case "-":
		return ast.ConstValue{Int: -value.Int}, true
	case "not":
		return ast.ConstValue{Int: boolInt(value.Int == 0)}, true
	case "bitnot":
		return ast.ConstValue{Int: truncate(^value.Int, v.Type())}, true
	default:
		return ast.ConstValue{}, false
	}
}

func (w *Walker) constEvalBinary(v *ast.BinaryOp) (ast.ConstValue, bool) {
	lhs, ok := w.constEval(v.Lhs)
	if !ok || lhs.Bytes != nil || lhs.Sym != "" {
		return ast.ConstValue{}, false
	}

	rhs, ok := w.constEval(v.Rhs)
	if !ok || rhs.Bytes != nil || rhs.Sym != "" {
		return ast.ConstValue{}, false
	}

	a, b := lhs.Int, rhs.Int

	switch v.Op {
	case "+":
		return ast.ConstValue{Int: truncate(a+b, v.Type())}, true
	case "-":
		return ast.ConstValue{Int: truncate(a-b, v.Type())}, true
	case "*":
		return ast.ConstValue{Int: truncate(a*b, v.Type())}, true
	case "/":
		if b == 0 {
			w.error(v.Rhs.Span(), "division by zero")
			return ast.ConstValue{}, false
		}

		return ast.ConstValue{Int: a / b}, true
	case "<<":
		if b < 0 || b > 32 {
			return ast.ConstValue{}, false
		}

		return ast.ConstValue{Int: truncate(a<<uint(b), v.Type())}, true
	case ">>":
		if b < 0 || b > 32 {
			return ast.ConstValue{}, false
		}

		return ast.ConstValue{Int: a >> uint(b)}, true
	case "bitand":
		return ast.ConstValue{Int: a & b}, true
	case "bitor":
		return ast.ConstValue{Int: a | b}, true
	case "bitxor":
		return ast.ConstValue{Int: a ^ b}, true
	case "==":
		return ast.ConstValue{Int: boolInt(a == b)}, true
	case "!=":
		return ast.ConstValue{Int: boolInt(a != b)}, true
	case "<":
		return ast.ConstValue{Int: boolInt(a < b)}, true
	case "<=":
		return ast.ConstValue{Int: boolInt(a <= b)}, true
	case ">":
		return ast.ConstValue{Int: boolInt(a > b)}, true
	case ">=":
		return ast.ConstValue{Int: boolInt(a >= b)}, true
	case "and":
		return ast.ConstValue{Int: boolInt(a != 0 && b != 0)}, true
	case "or":
		return ast.ConstValue{Int: boolInt(a != 0 || b != 0)}, true
	default:
		return ast.ConstValue{}, false
	}
}

// -----------------------------------------------------------------------------

// truncate wraps a folded value to the width of its resolved type.  Signed
// results keep int64 semantics; the declaration-site representability check
// catches overflow where it matters.
func truncate(v int64, typ types.Type) int64 {
	prim, ok := typ.(types.PrimType)
	if !ok || prim.Signed {
		return v
	}

	mask := int64(1)<<(uint(prim.Width)*8) - 1
	return v & mask
}

func isSigned(typ types.Type) bool {
	prim, ok := typ.(types.PrimType)
	return ok && prim.Signed
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}

	return 0
}

// encodeInt encodes a value as size little-endian bytes.
func encodeInt(v int64, size int) []byte {
	buff := make([]byte, size)
	for i := 0; i < size; i++ {
		buff[i] = byte(v >> (uint(i) * 8))
	}

	return buff
}

// decodeInt decodes size little-endian bytes, sign-extending if signed.
func decodeInt(buff []byte, signed bool) int64 {
	var v int64
	for i, b := range buff {
		v |= int64(b) << (uint(i) * 8)
	}

	if signed && len(buff) > 0 && buff[len(buff)-1]&0x80 != 0 {
		v -= int64(1) << (uint(len(buff)) * 8)
	}

	return v
}
