package codegen

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/types"
)

// foldInt attempts translation-time evaluation of a checked expression to an
// integer.  It mirrors the checker's evaluator for the integer cases the
// lowerer wants as immediates: literal values, inlined constants, static
// array lengths, statically indexed array constants, and operator
// applications over those.
func (fg *funcGen) foldInt(e ast.Expr) (int64, bool) {
	switch v := e.(type) {
	case *ast.NumberLit:
		return v.Value, true

	case *ast.Identifier:
		return constInt(v.Binding)

	case *ast.Member:
		if n, ok := constInt(v.Binding); ok {
			return n, true
		}

		if v.Field == "len" {
			if at, ok := v.Root.Type().(types.ArrayType); ok {
				return int64(at.Len()), true
			}
		}

		return 0, false

	case *ast.Subscript:
		return fg.foldConstElement(v)

	case *ast.UnaryOp:
		n, ok := fg.foldInt(v.Operand)
		if !ok {
			return 0, false
		}

		switch v.Op {
		case "-":
			return -n, true
		case "not":
			if n == 0 {
				return 1, true
			}
			return 0, true
		case "bitnot":
			return foldTruncate(^n, v.Type()), true
		default:
			return 0, false
		}

	case *ast.BinaryOp:
		a, ok := fg.foldInt(v.Lhs)
		if !ok {
			return 0, false
		}

		b, ok := fg.foldInt(v.Rhs)
		if !ok {
			return 0, false
		}

		return foldBinary(v, a, b)

	default:
		return 0, false
	}
}

func foldBinary(v *ast.BinaryOp, a, b int64) (int64, bool) {
	switch v.Op {
	case "+":
		return foldTruncate(a+b, v.Type()), true
	case "-":
		return foldTruncate(a-b, v.Type()), true
	case "*":
		return foldTruncate(a*b, v.Type()), true
	case "/":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case "<<":
		if b < 0 || b > 32 {
			return 0, false
		}
		return foldTruncate(a<<uint(b), v.Type()), true
	case ">>":
		if b < 0 || b > 32 {
			return 0, false
		}
		return a >> uint(b), true
	case "bitand":
		return a & b, true
	case "bitor":
		return a | b, true
	case "bitxor":
		return a ^ b, true
	case "==":
		return foldBool(a == b), true
	case "!=":
		return foldBool(a != b), true
	case "<":
		return foldBool(a < b), true
	case "<=":
		return foldBool(a <= b), true
	case ">":
		return foldBool(a > b), true
	case ">=":
		return foldBool(a >= b), true
	case "and":
		return foldBool(a != 0 && b != 0), true
	case "or":
		return foldBool(a != 0 || b != 0), true
	default:
		return 0, false
	}
}

// foldConstElement extracts a statically indexed element of an array-valued
// constant, so such uses stay zero-footprint inline values.
func (fg *funcGen) foldConstElement(v *ast.Subscript) (int64, bool) {
	ident, ok := v.Target.(*ast.Identifier)
	if !ok || ident.Binding == nil || ident.Binding.Kind != ast.BindConst {
		return 0, false
	}

	at, ok := ident.Type().(types.ArrayType)
	if !ok {
		return 0, false
	}

	value := ident.Binding.Const
	if value == nil || value.Bytes == nil {
		return 0, false
	}

	idx, ok := fg.foldInt(v.Index)
	if !ok {
		return 0, false
	}

	elemSize := at.Elem.Size()
	off := int(idx-int64(at.Lo)) * elemSize
	if off < 0 || off+elemSize > len(value.Bytes) {
		return 0, false
	}

	var n int64
	for i := 0; i < elemSize; i++ {
		n |= int64(value.Bytes[off+i]) << (uint(i) * 8)
	}

	if prim, ok := at.Elem.(types.PrimType); ok && prim.Signed && value.Bytes[off+elemSize-1]&0x80 != 0 {
		n -= int64(1) << (uint(elemSize) * 8)
	}

	return n, true
}

// constInt returns the integer value of an inlined constant binding.
func constInt(b *ast.Binding) (int64, bool) {
	if b == nil || b.Kind != ast.BindConst || b.Const == nil {
		return 0, false
	}

	if b.Const.Bytes != nil || b.Const.Sym != "" {
		return 0, false
	}

	return b.Const.Int, true
}

// foldTruncate wraps a folded value to the width of its unsigned type.
func foldTruncate(v int64, typ types.Type) int64 {
	prim, ok := typ.(types.PrimType)
	if !ok || prim.Signed {
		return v
	}

	mask := int64(1)<<(uint(prim.Width)*8) - 1
	return v & mask
}

func foldBool(b bool) int64 {
	if b {
		return 1
	}

	return 0
}
