package codegen

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/types"
)

// genAssign lowers `place = expr`.  The place is an identifier, a subscript,
// or a dereference; wider-than-16-bit values only assign when the right side
// folds, in which case the bytes store as immediates.
func (fg *funcGen) genAssign(lhs, rhs ast.Expr) {
	size := rhs.Type().Size()

	if size > 2 {
		fg.genWideAssign(lhs, rhs, size)
		return
	}

	switch v := lhs.(type) {
	case *ast.Identifier:
		fg.genExpr(rhs)
		fg.storeBinding(v.Binding, size)
	case *ast.Subscript:
		fg.genSubscriptStore(v, rhs, size)
	case *ast.UnaryOp:
		fg.genDerefStore(v, rhs, size)
	default:
		fg.g.ice("no emission rule for assignment target in `%s`", fg.name)
	}
}

// storeBinding stores A (and X) to an identifier's storage.
func (fg *funcGen) storeBinding(b *ast.Binding, size int) {
	switch b.Kind {
	case ast.BindAuto:
		fg.storeFrame(b.FrameOff, size)
	case ast.BindGlobal:
		fg.g.asm.emitAbs(opSTAAbs, b.Name, 0)
		if size == 2 {
			fg.g.asm.emitAbs(opSTXAbs, b.Name, 1)
		}
	default:
		fg.g.ice("`%s` is not writable storage", b.Name)
	}
}

// genWideAssign stores a folded value wider than 16 bits byte by byte.
func (fg *funcGen) genWideAssign(lhs, rhs ast.Expr, size int) {
	ident, ok := lhs.(*ast.Identifier)
	if !ok {
		fg.g.ice("no emission rule for a %d-byte assignment in `%s`", size, fg.name)
	}

	value, ok := fg.foldInt(rhs)
	if !ok {
		fg.g.ice("%d-byte arithmetic reached the lowerer in `%s`", size, fg.name)
	}

	asm := &fg.g.asm
	b := ident.Binding

	for i := 0; i < size; i++ {
		asm.emit(opLDAImm, byte(value>>(uint(i)*8)))
		switch b.Kind {
		case ast.BindAuto:
			asm.emitAbs(opSTAAbs, fg.frame, b.FrameOff+i)
		case ast.BindGlobal:
			asm.emitAbs(opSTAAbs, b.Name, i)
		default:
			fg.g.ice("`%s` is not writable storage", b.Name)
		}
	}
}

// genSubscriptStore lowers `target[index] = expr`.
func (fg *funcGen) genSubscriptStore(v *ast.Subscript, rhs ast.Expr, size int) {
	asm := &fg.g.asm

	if symbol, addend, esize, ok := fg.arrayBase(v.Target); ok {
		if idx, folded := fg.foldInt(v.Index); folded {
			off := addend + int(idx)*esize
			fg.genExpr(rhs)
			asm.emitAbs(opSTAAbs, symbol, off)
			if size == 2 {
				asm.emitAbs(opSTXAbs, symbol, off+1)
			}
			return
		}

		if size == 1 {
			fg.genExpr(rhs)
			asm.emit(opPHA)
			fg.genExpr(v.Index)
			asm.emit(opTAY, opPLA)
			asm.emitAbs(opSTAAbsY, symbol, addend)
			return
		}

		fg.genExpr(rhs)
		asm.emit(opPHA, opTXA, opPHA)
		fg.genExpr(v.Index)
		asm.emit(opASLA, opTAY)
		asm.emit(opPLA) // high byte
		asm.emitAbs(opSTAAbsY, symbol, addend+1)
		asm.emit(opPLA) // low byte
		asm.emitAbs(opSTAAbsY, symbol, addend)
		return
	}

	// A slice target stores through its runtime data pointer.
	if ident, ok := v.Target.(*ast.Identifier); ok {
		if _, isSlice := ident.Type().(types.SliceType); isSlice {
			fg.loadPointer(ident.Binding, zpStorePtr)
			fg.genExpr(rhs)

			if size == 1 {
				asm.emit(opPHA)
				fg.genExpr(v.Index)
				asm.emit(opTAY, opPLA)
				asm.emit(opSTAIndY, zpStorePtr)
				return
			}

			asm.emit(opPHA, opTXA, opPHA)
			fg.genExpr(v.Index)
			asm.emit(opASLA, opTAY, opINY)
			asm.emit(opPLA) // high byte
			asm.emit(opSTAIndY, zpStorePtr)
			asm.emit(opDEY, opPLA) // low byte
			asm.emit(opSTAIndY, zpStorePtr)
			return
		}
	}

	fg.g.ice("no emission rule for subscript assignment in `%s`", fg.name)
}

// genDerefStore lowers `@ref = expr`.  The pointer is parked outside the
// scratch window before the value expression runs.
func (fg *funcGen) genDerefStore(v *ast.UnaryOp, rhs ast.Expr, size int) {
	asm := &fg.g.asm

	if v.Op != "@" {
		fg.g.ice("no emission rule for assignment target in `%s`", fg.name)
	}

	fg.genExpr(v.Operand)
	asm.emit(opSTAZp, zpStorePtr, opSTXZp, zpStorePtr+1)

	fg.genExpr(rhs)
	asm.emit(opLDYImm, 0x00, opSTAIndY, zpStorePtr)
	if size == 2 {
		asm.emit(opTXA, opINY, opSTAIndY, zpStorePtr)
	}
}
