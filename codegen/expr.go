package codegen

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/types"
)

// genExpr evaluates an expression, leaving an 8-bit result in A or a 16-bit
// result in A (low) and X (high).  Fully folded expressions load their value
// as immediates; everything else lowers to stack-disciplined instruction
// sequences so subexpressions nest freely.
func (fg *funcGen) genExpr(e ast.Expr) {
	size := e.Type().Size()

	if v, ok := fg.foldInt(e); ok && size >= 1 && size <= 2 {
		fg.loadImm(v, size)
		return
	}

	if size > 2 {
		fg.g.ice("no emission rule for a %d-byte value in `%s`", size, fg.name)
	}

	switch v := e.(type) {
	case *ast.Identifier:
		fg.genBindingLoad(v.Binding, size)
	case *ast.Member:
		fg.genMemberLoad(v)
	case *ast.UnaryOp:
		fg.genUnary(v)
	case *ast.BinaryOp:
		fg.genBinary(v)
	case *ast.Subscript:
		fg.genSubscriptLoad(v)
	case *ast.Call:
		fg.genCall(v)
	default:
		fg.g.ice("no emission rule for expression in `%s`", fg.name)
	}
}

// loadImm loads a translation-time value into A (and X).
func (fg *funcGen) loadImm(v int64, size int) {
	fg.g.asm.emit(opLDAImm, byte(v))
	if size == 2 {
		fg.g.asm.emit(opLDXImm, byte(v>>8))
	}
}

// genBindingLoad loads the value of a binding.  Auto bindings come from the
// frame, globals from their symbol, and address constants inline the
// referenced symbol's address via low/high-byte fixups.
func (fg *funcGen) genBindingLoad(b *ast.Binding, size int) {
	switch b.Kind {
	case ast.BindAuto:
		fg.loadFrame(b.FrameOff, size)
	case ast.BindGlobal:
		fg.g.asm.emitAbs(opLDAAbs, b.Name, 0)
		if size == 2 {
			fg.g.asm.emitAbs(opLDXAbs, b.Name, 1)
		}
	case ast.BindConst:
		if b.Const == nil || b.Const.Bytes != nil {
			fg.g.ice("constant `%s` has no loadable value", b.Name)
		}

		if b.Const.Sym != "" {
			fg.g.asm.emitImmLo(opLDAImm, b.Const.Sym, 0)
			if size == 2 {
				fg.g.asm.emitImmHi(opLDXImm, b.Const.Sym, 0)
			}
			return
		}

		// Fixed-address constants carry the address as their value.
		fg.loadImm(b.Const.Int, size)
	default:
		fg.g.ice("`%s` cannot be loaded as a value", b.Name)
	}
}

// genMemberLoad loads a unit export or a slice's runtime length.  Array
// lengths and exported integer constants fold before reaching here.
func (fg *funcGen) genMemberLoad(v *ast.Member) {
	if v.Binding != nil {
		fg.genBindingLoad(v.Binding, v.Type().Size())
		return
	}

	if v.Field == "len" {
		// The slice length byte sits behind the 16-bit data address.
		switch root := v.Root.(type) {
		case *ast.Identifier:
			b := root.Binding
			switch b.Kind {
			case ast.BindAuto:
				fg.loadFrame(b.FrameOff+2, 1)
			case ast.BindGlobal:
				fg.g.asm.emitAbs(opLDAAbs, b.Name, 2)
			default:
				fg.g.ice("no emission rule for `.len` in `%s`", fg.name)
			}
			return
		}
	}

	fg.g.ice("no emission rule for member `%s` in `%s`", v.Field, fg.name)
}

// -----------------------------------------------------------------------------

func (fg *funcGen) genUnary(v *ast.UnaryOp) {
	asm := &fg.g.asm

	switch v.Op {
	case "&":
		fg.genRef(v.Operand, v.Type().Size())
		return
	case "@":
		fg.genDerefLoad(v)
		return
	}

	fg.genExpr(v.Operand)
	size := v.Type().Size()

	switch v.Op {
	case "not":
		asm.emit(opEORImm, 0x01)
	case "bitnot":
		if size == 1 {
			asm.emit(opEORImm, 0xff)
		} else {
			fg.complement16(false)
		}
	case "-":
		if size == 1 {
			asm.emit(opEORImm, 0xff, opCLC, opADCImm, 0x01)
		} else {
			fg.complement16(true)
		}
	default:
		fg.g.ice("no emission rule for unary `%s` in `%s`", v.Op, fg.name)
	}
}

// complement16 computes the ones' (or, when negate is set, two's) complement
// of the 16-bit value in A/X.
func (fg *funcGen) complement16(negate bool) {
	asm := &fg.g.asm

	asm.emit(opSTAZp, zpScratch0, opSTXZp, zpScratch1)
	if negate {
		asm.emit(opSEC)
		asm.emit(opLDAImm, 0x00, opSBCZp, zpScratch0, opSTAZp, zpScratch0)
		asm.emit(opLDAImm, 0x00, opSBCZp, zpScratch1, opTAX)
	} else {
		asm.emit(opLDAZp, zpScratch0, opEORImm, 0xff, opSTAZp, zpScratch0)
		asm.emit(opLDAZp, zpScratch1, opEORImm, 0xff, opTAX)
	}
	asm.emit(opLDAZp, zpScratch0)
}

// genDerefLoad loads the value behind a reference.
func (fg *funcGen) genDerefLoad(v *ast.UnaryOp) {
	asm := &fg.g.asm

	fg.genExpr(v.Operand)
	asm.emit(opSTAZp, zpScratch0, opSTXZp, zpScratch1)

	if v.Type().Size() == 2 {
		asm.emit(opLDYImm, 0x01, opLDAIndY, zpScratch0, opTAX)
		asm.emit(opLDYImm, 0x00, opLDAIndY, zpScratch0)
		return
	}

	asm.emit(opLDYImm, 0x00, opLDAIndY, zpScratch0)
}

// genRef loads the address of a place into A/X via low/high-byte fixups.
func (fg *funcGen) genRef(operand ast.Expr, size int) {
	asm := &fg.g.asm

	switch v := operand.(type) {
	case *ast.Identifier:
		symbol, addend := fg.bindingAddress(v.Binding)
		asm.emitImmLo(opLDAImm, symbol, addend)
		asm.emitImmHi(opLDXImm, symbol, addend)
	case *ast.Subscript:
		symbol, addend, elemSize, ok := fg.arrayBase(v.Target)
		if !ok {
			fg.g.ice("no emission rule for reference into this expression in `%s`", fg.name)
		}

		if idx, folded := fg.foldInt(v.Index); folded {
			addend += int(idx) * elemSize
			asm.emitImmLo(opLDAImm, symbol, addend)
			asm.emitImmHi(opLDXImm, symbol, addend)
			return
		}

		fg.genExpr(v.Index)
		if elemSize == 2 {
			asm.emit(opASLA)
		}
		asm.emit(opCLC)
		asm.emitImmLo(opADCImm, symbol, addend)
		asm.emit(opSTAZp, zpScratch0)
		asm.emitImmHi(opLDAImm, symbol, addend)
		asm.emit(opADCImm, 0x00, opTAX, opLDAZp, zpScratch0)
	default:
		fg.g.ice("no emission rule for reference in `%s`", fg.name)
	}
}

// bindingAddress resolves a binding to the symbol and addend its address
// fixes up against.  Referenced array constants are materialized into stash.
func (fg *funcGen) bindingAddress(b *ast.Binding) (string, int) {
	switch b.Kind {
	case ast.BindAuto:
		return fg.frame, b.FrameOff
	case ast.BindGlobal:
		return b.Name, 0
	case ast.BindConst:
		return fg.g.internConst(b), 0
	default:
		fg.g.ice("`%s` has no address", b.Name)
		return "", 0
	}
}

// arrayBase resolves a subscript target to a symbol-addressed array base.
// The addend folds the declared lower bound away, so an index register holds
// the raw index value.
func (fg *funcGen) arrayBase(target ast.Expr) (string, int, int, bool) {
	ident, ok := target.(*ast.Identifier)
	if !ok {
		return "", 0, 0, false
	}

	at, ok := ident.Type().(types.ArrayType)
	if !ok {
		return "", 0, 0, false
	}

	elemSize := at.Elem.Size()
	symbol, addend := fg.bindingAddress(ident.Binding)
	return symbol, addend - at.Lo*elemSize, elemSize, true
}

// -----------------------------------------------------------------------------

// genSubscriptLoad loads an element of an array or slice.
func (fg *funcGen) genSubscriptLoad(v *ast.Subscript) {
	asm := &fg.g.asm
	elemSize := v.Type().Size()

	if symbol, addend, esize, ok := fg.arrayBase(v.Target); ok {
		if idx, folded := fg.foldInt(v.Index); folded {
			off := addend + int(idx)*esize
			asm.emitAbs(opLDAAbs, symbol, off)
			if elemSize == 2 {
				asm.emitAbs(opLDXAbs, symbol, off+1)
			}
			return
		}

		fg.genExpr(v.Index)
		if elemSize == 2 {
			asm.emit(opASLA)
		}
		asm.emit(opTAY)
		asm.emitAbs(opLDAAbsY, symbol, addend)
		if elemSize == 2 {
			asm.emitAbs(opLDXAbsY, symbol, addend+1)
		}
		return
	}

	// A slice target indexes through its runtime data pointer.
	if ident, ok := v.Target.(*ast.Identifier); ok {
		if _, isSlice := ident.Type().(types.SliceType); isSlice {
			fg.genExpr(v.Index)
			asm.emit(opPHA)
			fg.loadPointer(ident.Binding, zpScratch0)
			asm.emit(opPLA)

			if elemSize == 2 {
				asm.emit(opASLA, opTAY, opINY)
				asm.emit(opLDAIndY, zpScratch0, opTAX, opDEY)
				asm.emit(opLDAIndY, zpScratch0)
				return
			}

			asm.emit(opTAY, opLDAIndY, zpScratch0)
			return
		}
	}

	fg.g.ice("no emission rule for subscript in `%s`", fg.name)
}

// loadPointer copies a binding's 16-bit data pointer into a zero-page pair.
func (fg *funcGen) loadPointer(b *ast.Binding, zp byte) {
	asm := &fg.g.asm

	switch b.Kind {
	case ast.BindAuto:
		asm.emitAbs(opLDAAbs, fg.frame, b.FrameOff)
		asm.emit(opSTAZp, zp)
		asm.emitAbs(opLDAAbs, fg.frame, b.FrameOff+1)
		asm.emit(opSTAZp, zp+1)
	case ast.BindGlobal:
		asm.emitAbs(opLDAAbs, b.Name, 0)
		asm.emit(opSTAZp, zp)
		asm.emitAbs(opLDAAbs, b.Name, 1)
		asm.emit(opSTAZp, zp+1)
	default:
		fg.g.ice("`%s` has no data pointer", b.Name)
	}
}

// -----------------------------------------------------------------------------

func (fg *funcGen) genBinary(v *ast.BinaryOp) {
	switch v.Op {
	case "and", "or":
		fg.genShortCircuit(v)
	case "==", "!=", "<", "<=", ">", ">=":
		fg.genCompare(v)
	case "+", "-", "bitand", "bitor", "bitxor":
		fg.genArith(v)
	case "<<", ">>", "*", "/":
		fg.genShift(v)
	default:
		fg.g.ice("no emission rule for binary `%s` in `%s`", v.Op, fg.name)
	}
}

// genShortCircuit lowers `and`/`or`.  The left value is already the result
// when it decides the outcome; the right side only runs otherwise.
func (fg *funcGen) genShortCircuit(v *ast.BinaryOp) {
	asm := &fg.g.asm

	fg.genExpr(v.Lhs)
	asm.emit(opCMPImm, 0x01)

	if v.Op == "and" {
		asm.emit(opBEQ, 0x03) // true: the right side decides
	} else {
		asm.emit(opBNE, 0x03) // false: the right side decides
	}
	end := fg.jmpForward()

	fg.genExpr(v.Rhs)
	fg.patchTarget(end)
}

// genCompare lowers a comparison to a CMP (or 16-bit CMP chain) and a
// branch that selects 0 or 1.  `<=` and `>` evaluate their operands swapped
// so that every comparison reduces to the carry or zero flag of one
// subtraction direction.
func (fg *funcGen) genCompare(v *ast.BinaryOp) {
	asm := &fg.g.asm

	first, second, branch := v.Lhs, v.Rhs, byte(0)
	switch v.Op {
	case "==":
		branch = opBEQ
	case "!=":
		branch = opBNE
	case "<":
		branch = opBCC
	case ">=":
		branch = opBCS
	case "<=":
		first, second, branch = v.Rhs, v.Lhs, opBCS
	case ">":
		first, second, branch = v.Rhs, v.Lhs, opBCC
	}

	// The carry test orders unsigned values.  Ordered signed comparisons
	// flip the sign bit of both operands first, which maps the signed range
	// onto the unsigned one.
	signed := false
	if prim, ok := first.Type().(types.PrimType); ok {
		signed = prim.Signed && branch != opBEQ && branch != opBNE
	}

	if first.Type().Size() == 1 {
		fg.genExpr(first)
		if signed {
			asm.emit(opEORImm, 0x80)
		}
		asm.emit(opPHA)
		fg.genExpr(second)
		if signed {
			asm.emit(opEORImm, 0x80)
		}
		asm.emit(opSTAZp, zpScratch0, opPLA, opCMPZp, zpScratch0)
	} else {
		fg.genExpr(first)
		asm.emit(opPHA, opTXA, opPHA)
		fg.genExpr(second)
		asm.emit(opSTAZp, zpScratch2, opSTXZp, zpScratch3)
		asm.emit(opPLA, opSTAZp, zpScratch1, opPLA, opSTAZp, zpScratch0)

		if signed {
			asm.emit(opLDAZp, zpScratch1, opEORImm, 0x80, opSTAZp, zpScratch1)
			asm.emit(opLDAZp, zpScratch3, opEORImm, 0x80, opSTAZp, zpScratch3)
		}

		// Flags as if one 16-bit CMP: the high bytes decide unless equal.
		asm.emit(opLDAZp, zpScratch1, opCMPZp, zpScratch3)
		asm.emit(opBNE, 0x04)
		asm.emit(opLDAZp, zpScratch0, opCMPZp, zpScratch2)
	}

	asm.emit(branch, 0x04)
	asm.emit(opLDAImm, 0x00)
	asm.emit(opBEQ, 0x02) // always: LDA #0 left the zero flag set
	asm.emit(opLDAImm, 0x01)
}

// genArith lowers addition, subtraction, and the bitwise operators.  The
// left value rides the hardware stack across the right side's evaluation.
func (fg *funcGen) genArith(v *ast.BinaryOp) {
	asm := &fg.g.asm

	if v.Type().Size() == 1 {
		fg.genExpr(v.Lhs)
		asm.emit(opPHA)
		fg.genExpr(v.Rhs)
		asm.emit(opSTAZp, zpScratch0, opPLA)

		switch v.Op {
		case "+":
			asm.emit(opCLC, opADCZp, zpScratch0)
		case "-":
			asm.emit(opSEC, opSBCZp, zpScratch0)
		case "bitand":
			asm.emit(opANDZp, zpScratch0)
		case "bitor":
			asm.emit(opORAZp, zpScratch0)
		case "bitxor":
			asm.emit(opEORZp, zpScratch0)
		}
		return
	}

	fg.genExpr(v.Lhs)
	asm.emit(opPHA, opTXA, opPHA)
	fg.genExpr(v.Rhs)
	asm.emit(opSTAZp, zpScratch2, opSTXZp, zpScratch3)
	asm.emit(opPLA, opSTAZp, zpScratch1, opPLA, opSTAZp, zpScratch0)

	binop16 := func(prep byte, op byte) {
		if prep != 0 {
			asm.emit(prep)
		}
		asm.emit(opLDAZp, zpScratch0, op, zpScratch2, opSTAZp, zpScratch0)
		asm.emit(opLDAZp, zpScratch1, op, zpScratch3, opTAX)
		asm.emit(opLDAZp, zpScratch0)
	}

	switch v.Op {
	case "+":
		binop16(opCLC, opADCZp)
	case "-":
		binop16(opSEC, opSBCZp)
	case "bitand":
		binop16(0, opANDZp)
	case "bitor":
		binop16(0, opORAZp)
	case "bitxor":
		binop16(0, opEORZp)
	}
}

// genShift lowers shifts and power-of-two multiplication/division to
// repeated single-bit shifts.  The shift count is a translation-time value.
func (fg *funcGen) genShift(v *ast.BinaryOp) {
	asm := &fg.g.asm
	size := v.Type().Size()

	amount, ok := fg.foldInt(v.Rhs)
	if !ok {
		fg.g.ice("shift amount did not fold in `%s`", fg.name)
	}

	count := int(amount)
	left := v.Op == "<<"
	if v.Op == "*" || v.Op == "/" {
		left = v.Op == "*"
		count = log2(amount)
		if count < 0 {
			fg.g.ice("`%s` operand is not a power of two in `%s`", v.Op, fg.name)
		}
	}

	// Right shifts on a signed operand propagate the sign bit instead of
	// feeding in zeros.
	signed := false
	if prim, ok := v.Type().(types.PrimType); ok {
		signed = prim.Signed
	}

	fg.genExpr(v.Lhs)

	if count > size*8 {
		count = size * 8
	}

	if size == 1 {
		for i := 0; i < count; i++ {
			switch {
			case left:
				asm.emit(opASLA)
			case signed:
				// CMP #$80 latches the sign bit into carry for the rotate.
				asm.emit(opCMPImm, 0x80, opRORA)
			default:
				asm.emit(opLSRA)
			}
		}
		return
	}

	asm.emit(opSTAZp, zpScratch0, opSTXZp, zpScratch1)
	for i := 0; i < count; i++ {
		switch {
		case left:
			asm.emit(opASLZp, zpScratch0, opROLZp, zpScratch1)
		case signed:
			asm.emit(opLDAZp, zpScratch1, opASLA, opRORZp, zpScratch1, opRORZp, zpScratch0)
		default:
			asm.emit(opLSRZp, zpScratch1, opRORZp, zpScratch0)
		}
	}
	asm.emit(opLDAZp, zpScratch0, opLDXZp, zpScratch1)
}

func log2(v int64) int {
	if v <= 0 || v&(v-1) != 0 {
		return -1
	}

	n := 0
	for v > 1 {
		v >>= 1
		n++
	}

	return n
}

// -----------------------------------------------------------------------------

// genCall pushes the arguments in declared order, low byte first, and jumps
// to the callee, which owns their cleanup.  The result comes back in A/X.
func (fg *funcGen) genCall(v *ast.Call) {
	asm := &fg.g.asm

	b := calleeBinding(v.Func)
	if b == nil || b.Kind != ast.BindFunc {
		fg.g.ice("call target is not a definition in `%s`", fg.name)
	}

	for _, arg := range v.Args {
		fg.genExpr(arg)
		asm.emit(opPHA)
		if arg.Type().Size() == 2 {
			asm.emit(opTXA, opPHA)
		}
	}

	asm.emitAbs(opJSR, b.Name, 0)
}

func calleeBinding(f ast.Expr) *ast.Binding {
	switch v := f.(type) {
	case *ast.Identifier:
		return v.Binding
	case *ast.Member:
		return v.Binding
	default:
		return nil
	}
}
