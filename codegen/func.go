package codegen

import (
	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/types"
)

// funcGen lowers one fun or isr body.  Arguments and auto bindings live in a
// per-definition static frame symbol in the mut section; every jump inside
// the body is emitted as a relocation against the definition's own symbol
// with the target offset as addend, so the linker places everything.
type funcGen struct {
	g *Generator

	// The definition's code symbol name and its start offset in the unit's
	// code section.
	name  string
	start int

	frame     string
	frameSize int
	isISR     bool
}

// genFun lowers a fun definition.  The callee owns argument cleanup: the
// prologue saves the return address, pops every argument byte into the
// frame, and pushes the return address back, so RTS returns with the stack
// already clean and the result in A (or A lo / X hi).
func (g *Generator) genFun(fs *ast.FunStmt) {
	sym := g.addSymbol(fs.Name, depm.SecCode, 0, true, fs.Type())

	fg := &funcGen{
		g:         g,
		name:      fs.Name,
		start:     sym.Offset,
		frame:     fs.Name + "$frame",
		frameSize: frameExtent(fs.Params, fs.Body),
	}

	if len(fs.Params) > 0 {
		fg.emitPrologue(fs.Params)
	}

	fg.genBlock(fs.Body)
	g.asm.emit(opRTS)

	sym.Size = g.asm.here() - sym.Offset
	fg.finishFrame()
}

// genIsr lowers an isr definition.  The prologue saves A, X, and Y; the
// return sequence restores them and resumes interrupt dispatch with RTI
// instead of returning to a caller.
func (g *Generator) genIsr(is *ast.IsrStmt) {
	sym := g.addSymbol(is.Name, depm.SecCode, 0, true, types.FuncType{Return: types.VoidType{}, IsISR: true})

	fg := &funcGen{
		g:         g,
		name:      is.Name,
		start:     sym.Offset,
		frame:     is.Name + "$frame",
		frameSize: frameExtent(nil, is.Body),
		isISR:     true,
	}

	g.asm.emit(opPHA, opTXA, opPHA, opTYA, opPHA)
	fg.genBlock(is.Body)
	fg.emitIsrExit()

	sym.Size = g.asm.here() - sym.Offset
	fg.finishFrame()
}

// emitPrologue pops the caller-pushed arguments into the frame.  JSR leaves
// the return address on top of the arguments, so it is parked in zero page
// first and pushed back once the arguments are off.
func (fg *funcGen) emitPrologue(params []ast.Decl) {
	asm := &fg.g.asm

	asm.emit(opPLA, opSTAZp, zpScratch0) // return address low
	asm.emit(opPLA, opSTAZp, zpScratch1) // return address high

	// Arguments were pushed in declared order, low byte first, so they come
	// back off in reverse: last argument first, high byte first.
	for i := len(params) - 1; i >= 0; i-- {
		b := params[i].Binding
		for off := b.Type.Size() - 1; off >= 0; off-- {
			asm.emit(opPLA)
			asm.emitAbs(opSTAAbs, fg.frame, b.FrameOff+off)
		}
	}

	asm.emit(opLDAZp, zpScratch1, opPHA)
	asm.emit(opLDAZp, zpScratch0, opPHA)
}

// emitIsrExit restores the saved registers and resumes interrupt dispatch.
func (fg *funcGen) emitIsrExit() {
	fg.g.asm.emit(opPLA, opTAY, opPLA, opTAX, opPLA, opRTI)
}

// finishFrame allocates the definition's frame symbol, if it needs one.
func (fg *funcGen) finishFrame() {
	if fg.frameSize > 0 {
		fg.g.addSymbol(fg.frame, depm.SecMut, fg.frameSize, false, nil)
	}
}

// allocTemp reserves extra frame bytes for a lowering-internal temporary.
func (fg *funcGen) allocTemp(size int) int {
	off := fg.frameSize
	fg.frameSize += size
	return off
}

// here returns the current emission offset relative to the definition start,
// the addend form every intra-definition jump target uses.
func (fg *funcGen) here() int {
	return fg.g.asm.here() - fg.start
}

// jmpForward emits a JMP whose target is not yet emitted and returns the
// relocation index to patch once it is.
func (fg *funcGen) jmpForward() int {
	return fg.g.asm.emitAbs(opJMPAbs, fg.name, 0)
}

// patchTarget points a forward jump at the current offset.
func (fg *funcGen) patchTarget(reloc int) {
	fg.g.asm.patchAddend(reloc, fg.here())
}

// frameExtent computes the frame bytes the checker assigned to the
// definition's parameters and auto bindings.
func frameExtent(params []ast.Decl, body []ast.Statement) int {
	extent := 0

	note := func(d *ast.Decl) {
		if b := d.Binding; b != nil && b.Kind == ast.BindAuto {
			if end := b.FrameOff + b.Type.Size(); end > extent {
				extent = end
			}
		}
	}

	for i := range params {
		note(&params[i])
	}

	var walkStmts func(stmts []ast.Statement)
	walkStmts = func(stmts []ast.Statement) {
		for _, stmt := range stmts {
			switch v := stmt.(type) {
			case *ast.LetStmt:
				note(&v.Decl)
			case *ast.WhileStmt:
				walkStmts(v.Body)
			case *ast.ForStmt:
				note(&v.Var)
				walkStmts(v.Body)
			case *ast.IfStmt:
				for _, branch := range v.Branches {
					walkStmts(branch.Body)
				}
				walkStmts(v.Else)
			}
		}
	}
	walkStmts(body)

	return extent
}

// -----------------------------------------------------------------------------

func (fg *funcGen) genBlock(stmts []ast.Statement) {
	for _, stmt := range stmts {
		fg.genStmt(stmt)
	}
}

func (fg *funcGen) genStmt(stmt ast.Statement) {
	switch v := stmt.(type) {
	case *ast.LetStmt:
		fg.genLocalLet(v)
	case *ast.AssignStmt:
		fg.genAssign(v.Lhs, v.Rhs)
	case *ast.WhileStmt:
		fg.genWhile(v)
	case *ast.ForStmt:
		fg.genFor(v)
	case *ast.IfStmt:
		fg.genIf(v)
	case *ast.ReturnStmt:
		fg.genReturn(v)
	case *ast.ExprStmt:
		fg.genExpr(v.Expr)
	default:
		fg.g.ice("no emission rule for statement in `%s`", fg.name)
	}
}

// genLocalLet lowers a local binding.  Auto bindings initialize their frame
// slot on every entry; mut and stash bindings are static storage initialized
// at load, so they emit no code.
func (fg *funcGen) genLocalLet(ls *ast.LetStmt) {
	b := ls.Decl.Binding

	if b.Kind == ast.BindGlobal {
		fg.g.genStaticBinding(b, false)
		return
	}

	if ls.Init == nil {
		return
	}

	fg.genExpr(ls.Init)
	fg.storeFrame(b.FrameOff, ls.Init.Type().Size())
}

// storeFrame stores A (and X for 16-bit values) to a frame slot.
func (fg *funcGen) storeFrame(off, size int) {
	fg.g.asm.emitAbs(opSTAAbs, fg.frame, off)
	if size == 2 {
		fg.g.asm.emitAbs(opSTXAbs, fg.frame, off+1)
	}
}

// loadFrame loads a frame slot into A (and X).
func (fg *funcGen) loadFrame(off, size int) {
	fg.g.asm.emitAbs(opLDAAbs, fg.frame, off)
	if size == 2 {
		fg.g.asm.emitAbs(opLDXAbs, fg.frame, off+1)
	}
}

func (fg *funcGen) genWhile(ws *ast.WhileStmt) {
	top := fg.here()

	fg.genExpr(ws.Cond)
	fg.g.asm.emit(opCMPImm, 0x01)
	fg.g.asm.emit(opBEQ, 0x03) // skip the exit jump while the condition holds
	exit := fg.jmpForward()

	fg.genBlock(ws.Body)
	fg.g.asm.emitAbs(opJMPAbs, fg.name, top)

	fg.patchTarget(exit)
}

// genFor lowers an inclusive range loop.  The body runs with the loop
// variable at every value from the lower to the upper bound; the bound is
// latched in a frame temporary before the first iteration.
func (fg *funcGen) genFor(fs *ast.ForStmt) {
	b := fs.Var.Binding
	size := b.Type.Size()
	bound := fg.allocTemp(size)

	if fs.Range != nil {
		at, ok := fs.Range.Type().(types.ArrayType)
		if !ok {
			fg.g.ice("`.range` iterator over non-array in `%s`", fg.name)
		}

		fg.loadImm(int64(at.Hi), size)
		fg.storeFrame(bound, size)
		fg.loadImm(int64(at.Lo), size)
		fg.storeFrame(b.FrameOff, size)
	} else {
		fg.genExpr(fs.Hi)
		fg.storeFrame(bound, size)
		fg.genExpr(fs.Lo)
		fg.storeFrame(b.FrameOff, size)
	}

	top := fg.here()
	fg.genBlock(fs.Body)

	if size == 1 {
		fg.emitForStep8(b.FrameOff, bound, top)
	} else {
		fg.emitForStep16(b.FrameOff, bound, top)
	}
}

// emitForStep8 emits the 8-bit loop step: stop once the variable has run at
// its upper bound, otherwise increment and branch back.  The increment can
// never wrap to zero (the bound check fires at $ff first), so the branch is
// always taken; its displacement resolves at link time.
func (fg *funcGen) emitForStep8(varOff, bound, top int) {
	asm := &fg.g.asm

	asm.emitAbs(opLDAAbs, fg.frame, varOff)
	asm.emitAbs(opCMPAbs, fg.frame, bound)
	asm.emit(opBEQ, 0x05) // var == bound: fall out over INC+BNE
	asm.emitAbs(opINCAbs, fg.frame, varOff)
	asm.emitBranch(opBNE, fg.name, top)
}

// emitForStep16 is the 16-bit loop step.
func (fg *funcGen) emitForStep16(varOff, bound, top int) {
	asm := &fg.g.asm

	asm.emitAbs(opLDAAbs, fg.frame, varOff)
	asm.emitAbs(opCMPAbs, fg.frame, bound)
	asm.emit(opBNE, 0x08) // low bytes differ: straight to the increment
	asm.emitAbs(opLDAAbs, fg.frame, varOff+1)
	asm.emitAbs(opCMPAbs, fg.frame, bound+1)
	asm.emit(opBEQ, 0x0b) // var == bound: fall out over the increment+jump
	asm.emitAbs(opINCAbs, fg.frame, varOff)
	asm.emit(opBNE, 0x03)
	asm.emitAbs(opINCAbs, fg.frame, varOff+1)
	asm.emitAbs(opJMPAbs, fg.name, top)
}

func (fg *funcGen) genIf(is *ast.IfStmt) {
	var exits []int

	for _, branch := range is.Branches {
		fg.genExpr(branch.Cond)
		fg.g.asm.emit(opCMPImm, 0x01)
		fg.g.asm.emit(opBEQ, 0x03)
		next := fg.jmpForward()

		fg.genBlock(branch.Body)
		exits = append(exits, fg.jmpForward())

		fg.patchTarget(next)
	}

	fg.genBlock(is.Else)

	for _, exit := range exits {
		fg.patchTarget(exit)
	}
}

func (fg *funcGen) genReturn(rs *ast.ReturnStmt) {
	if rs.Value != nil {
		fg.genExpr(rs.Value)
	}

	if fg.isISR {
		fg.emitIsrExit()
		return
	}

	fg.g.asm.emit(opRTS)
}
