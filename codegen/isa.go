package codegen

import (
	"github.com/jdpage/jeff65/depm"
)

// The 6502 opcodes the expression and statement lowerers emit.  Addressing
// mode is part of the opcode; the operand bytes follow little-endian.
const (
	opLDAImm  = 0xa9
	opLDAZp   = 0xa5
	opLDAAbs  = 0xad
	opLDAAbsY = 0xb9
	opLDAIndY = 0xb1
	opLDXImm  = 0xa2
	opLDXAbs  = 0xae
	opLDXAbsY = 0xbe
	opLDYImm  = 0xa0

	opSTAZp   = 0x85
	opSTAAbs  = 0x8d
	opSTAAbsY = 0x99
	opSTAIndY = 0x91
	opSTXAbs  = 0x8e
	opSTXZp   = 0x86

	opTAX = 0xaa
	opTXA = 0x8a
	opTAY = 0xa8
	opTYA = 0x98
	opINY = 0xc8
	opDEY = 0x88
	opPHA = 0x48
	opPLA = 0x68

	opCLC    = 0x18
	opSEC    = 0x38
	opADCImm = 0x69
	opADCZp  = 0x65
	opSBCImm = 0xe9
	opSBCZp  = 0xe5
	opANDZp  = 0x25
	opORAZp  = 0x05
	opEORZp  = 0x45
	opEORImm = 0x49
	opLDXZp  = 0xa6
	opCMPImm = 0xc9
	opCMPZp  = 0xc5
	opCMPAbs = 0xcd

	opASLA  = 0x0a
	opLSRA  = 0x4a
	opRORA  = 0x6a
	opASLZp = 0x06
	opROLZp = 0x26
	opLSRZp = 0x46
	opRORZp = 0x66

	opINCAbs = 0xee

	opJMPAbs = 0x4c
	opJSR    = 0x20
	opRTS    = 0x60
	opRTI    = 0x40
	opBEQ    = 0xf0
	opBNE    = 0xd0
	opBCC    = 0x90
	opBCS    = 0xb0
)

// The zero-page scratch locations the lowerer owns.  $02-$05 hold binary
// operands and 16-bit intermediates; $06/$07 hold a store-target pointer
// while its value expression evaluates; the prologue borrows $02/$03 for the
// return address before any expression runs.
const (
	zpScratch0 = 0x02
	zpScratch1 = 0x03
	zpScratch2 = 0x04
	zpScratch3 = 0x05
	zpStorePtr = 0x06
)

// assembler accumulates one unit's code bytes and the relocations against
// them.  Operands whose final address is unknown are emitted as zero and
// recorded as relocation sites.
type assembler struct {
	code   []byte
	relocs []depm.Reloc
}

// here returns the offset the next emitted byte will occupy.
func (a *assembler) here() int {
	return len(a.code)
}

func (a *assembler) emit(bytes ...byte) {
	a.code = append(a.code, bytes...)
}

// emitAbs emits an absolute-addressed instruction whose operand is resolved
// at link time to the symbol's address plus addend.  It returns the index of
// the recorded relocation so a forward site can have its addend patched.
func (a *assembler) emitAbs(op byte, symbol string, addend int) int {
	a.emit(op)
	a.relocs = append(a.relocs, depm.Reloc{
		Section: depm.SecCode,
		Offset:  a.here(),
		Symbol:  symbol,
		Kind:    depm.RelocAbs16,
		Addend:  addend,
	})
	a.emit(0x00, 0x00)

	return len(a.relocs) - 1
}

// emitImmLo emits an immediate-operand instruction carrying the low byte of
// the symbol's final address plus addend.
func (a *assembler) emitImmLo(op byte, symbol string, addend int) {
	a.emit(op)
	a.relocs = append(a.relocs, depm.Reloc{
		Section: depm.SecCode,
		Offset:  a.here(),
		Symbol:  symbol,
		Kind:    depm.RelocLo,
		Addend:  addend,
	})
	a.emit(0x00)
}

// emitImmHi is emitImmLo for the high byte.
func (a *assembler) emitImmHi(op byte, symbol string, addend int) {
	a.emit(op)
	a.relocs = append(a.relocs, depm.Reloc{
		Section: depm.SecCode,
		Offset:  a.here(),
		Symbol:  symbol,
		Kind:    depm.RelocHi,
		Addend:  addend,
	})
	a.emit(0x00)
}

// emitBranch emits a conditional branch whose 8-bit displacement is computed
// at link time from the symbol's address plus addend.  The linker rejects
// displacements outside the branch range.
func (a *assembler) emitBranch(op byte, symbol string, addend int) {
	a.emit(op)
	a.relocs = append(a.relocs, depm.Reloc{
		Section: depm.SecCode,
		Offset:  a.here(),
		Symbol:  symbol,
		Kind:    depm.RelocRel,
		Addend:  addend,
	})
	a.emit(0x00)
}

// patchAddend rewrites the addend of a previously recorded relocation, once
// a forward target's offset is known.
func (a *assembler) patchAddend(reloc int, addend int) {
	a.relocs[reloc].Addend = addend
}
