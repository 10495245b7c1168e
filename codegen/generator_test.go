package codegen

import (
	"testing"

	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/syntax"
	"github.com/jdpage/jeff65/walk"
	"github.com/nalgeon/be"
)

// generate parses, checks, and lowers src as a unit named "test".
func generate(t *testing.T, src string) *depm.BinaryUnit {
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
	table.Add(u)

	for _, cerr := range walk.WalkUnit(u, table) {
		t.Fatalf("check: %s", cerr.Error())
	}

	return Generate(u)
}

func findSymbol(t *testing.T, bu *depm.BinaryUnit, name string) *depm.Symbol {
	t.Helper()

	sym, ok := bu.Symbol(name)
	if !ok {
		t.Fatalf("unit has no symbol %q", name)
	}

	return sym
}

// -----------------------------------------------------------------------------

func TestConstantsInline(t *testing.T) {
	bu := generate(t, `
constant base: u16 = $0400

fun origin() -> u16
    return base + 2
endfun`)

	// Constants travel with the artifact and occupy no image space.
	be.Equal(t, len(bu.Consts), 1)
	be.Equal(t, bu.Consts[0].Name, "base")
	be.Equal(t, bu.Consts[0].Value.Int, 0x0400)
	be.Equal(t, len(bu.Stash), 0)
	be.Equal(t, bu.MutSize, 0)

	// The folded sum loads as immediates: LDA #$02 / LDX #$04 / RTS / RTS.
	be.Equal(t, bu.Code, []byte{0xa9, 0x02, 0xa2, 0x04, 0x60, 0x60})
	be.Equal(t, len(bu.Relocs), 0)

	sym := findSymbol(t, bu, "origin")
	be.Equal(t, sym.Section, depm.SecCode)
	be.Equal(t, sym.Offset, 0)
	be.Equal(t, sym.Size, 6)
	be.True(t, sym.Exported)
}

func TestAddressConstantInline(t *testing.T) {
	bu := generate(t, `
constant border: &mut u8 = $d020

fun f() -> &mut u8
    return border
endfun`)

	// The constant's value is the address itself: LDA #$20 / LDX #$d0.
	be.Equal(t, bu.Code, []byte{0xa9, 0x20, 0xa2, 0xd0, 0x60, 0x60})
	be.Equal(t, len(bu.Relocs), 0)

	be.Equal(t, len(bu.Consts), 1)
	be.Equal(t, bu.Consts[0].Value.Int, 0xd020)
}

func TestStaticStorage(t *testing.T) {
	bu := generate(t, `
let stash tbl: [u8: 4] = [1, 2, 4, 8]
let mut count: u16
let mut flag: u8`)

	// Stash bindings contribute their bytes; mut bindings only reserve.
	be.Equal(t, bu.Stash, []byte{1, 2, 4, 8})
	be.Equal(t, bu.MutSize, 3)
	be.Equal(t, len(bu.Code), 0)

	tbl := findSymbol(t, bu, "tbl")
	be.Equal(t, tbl.Section, depm.SecStash)
	be.Equal(t, tbl.Offset, 0)
	be.Equal(t, tbl.Size, 4)

	count := findSymbol(t, bu, "count")
	be.Equal(t, count.Section, depm.SecMut)
	be.Equal(t, count.Offset, 0)
	be.Equal(t, count.Size, 2)

	flag := findSymbol(t, bu, "flag")
	be.Equal(t, flag.Section, depm.SecMut)
	be.Equal(t, flag.Offset, 2)
	be.Equal(t, flag.Size, 1)
}

func TestStashAddressInitializer(t *testing.T) {
	bu := generate(t, `
let mut spot: u8
let stash p: &mut u8 = &spot`)

	// The address bytes are zero until link time; the fixup site lives in
	// the stash section.
	be.Equal(t, bu.Stash, []byte{0x00, 0x00})
	be.Equal(t, len(bu.Relocs), 1)
	be.Equal(t, bu.Relocs[0], depm.Reloc{
		Section: depm.SecStash,
		Offset:  0,
		Symbol:  "spot",
		Kind:    depm.RelocAbs16,
	})
}

func TestCalleeCleansArguments(t *testing.T) {
	bu := generate(t, `
fun f(x: u8) -> u8
    return x
endfun`)

	be.Equal(t, bu.Code, []byte{
		0x68, 0x85, 0x02, // PLA / STA $02      return address low
		0x68, 0x85, 0x03, // PLA / STA $03      return address high
		0x68, 0x8d, 0x00, 0x00, // PLA / STA f$frame+0
		0xa5, 0x03, 0x48, // LDA $03 / PHA
		0xa5, 0x02, 0x48, // LDA $02 / PHA
		0xad, 0x00, 0x00, // LDA f$frame+0
		0x60, 0x60, // RTS / RTS
	})

	be.Equal(t, len(bu.Relocs), 2)
	be.Equal(t, bu.Relocs[0], depm.Reloc{Section: depm.SecCode, Offset: 8, Symbol: "f$frame", Kind: depm.RelocAbs16})
	be.Equal(t, bu.Relocs[1], depm.Reloc{Section: depm.SecCode, Offset: 17, Symbol: "f$frame", Kind: depm.RelocAbs16})

	frame := findSymbol(t, bu, "f$frame")
	be.Equal(t, frame.Section, depm.SecMut)
	be.Equal(t, frame.Size, 1)
	be.True(t, !frame.Exported)
}

func TestIsrSavesRegisters(t *testing.T) {
	bu := generate(t, `
let mut ticks: u8

isr tick
    ticks = 0
endisr`)

	be.Equal(t, bu.Code, []byte{
		0x48, 0x8a, 0x48, 0x98, 0x48, // PHA / TXA / PHA / TYA / PHA
		0xa9, 0x00, // LDA #$00
		0x8d, 0x00, 0x00, // STA ticks
		0x68, 0xa8, 0x68, 0xaa, 0x68, 0x40, // PLA / TAY / PLA / TAX / PLA / RTI
	})

	be.Equal(t, len(bu.Relocs), 1)
	be.Equal(t, bu.Relocs[0], depm.Reloc{Section: depm.SecCode, Offset: 8, Symbol: "ticks", Kind: depm.RelocAbs16})

	sym := findSymbol(t, bu, "tick")
	be.Equal(t, sym.Size, 16)
	be.True(t, sym.Exported)
}

func TestConstInterning(t *testing.T) {
	bu := generate(t, `
constant msg: [u8: 2] = [7, 9]

fun first() -> u8
    return msg[0]
endfun

fun addr() -> &stash [u8: 2]
    return &msg
endfun

fun again() -> &stash [u8: 2]
    return &msg
endfun`)

	// A statically indexed element inlines; only the referenced uses
	// materialize the bytes, and only once.
	first := findSymbol(t, bu, "first")
	be.Equal(t, bu.Code[first.Offset:first.Offset+first.Size], []byte{0xa9, 0x07, 0x60, 0x60})

	be.Equal(t, bu.Stash, []byte{7, 9})

	data := findSymbol(t, bu, "msg$data")
	be.Equal(t, data.Section, depm.SecStash)
	be.Equal(t, data.Size, 2)
	be.True(t, !data.Exported)

	count := 0
	for _, sym := range bu.Symbols {
		if sym.Name == "msg$data" {
			count++
		}
	}
	be.Equal(t, count, 1)

	// Each address load fixes up against the interned data symbol.
	lo, hi := 0, 0
	for _, reloc := range bu.Relocs {
		if reloc.Symbol != "msg$data" {
			continue
		}

		switch reloc.Kind {
		case depm.RelocLo:
			lo++
		case depm.RelocHi:
			hi++
		}
	}
	be.Equal(t, lo, 2)
	be.Equal(t, hi, 2)

	be.Equal(t, len(bu.Consts), 1)
	be.Equal(t, bu.Consts[0].Value.Bytes, []byte{7, 9})
}

func TestWhileLoop(t *testing.T) {
	bu := generate(t, `
fun spin(n: u8)
    while n > 0 do
        n = n - 1
    end
endfun`)

	be.Equal(t, len(bu.Code), 61)

	// The exit jump targets the RTS past the loop; the back jump targets
	// the condition at the top of the loop, after the prologue.
	exit := bu.Relocs[2]
	be.Equal(t, exit, depm.Reloc{Section: depm.SecCode, Offset: 40, Symbol: "spin", Kind: depm.RelocAbs16, Addend: 60})

	back := bu.Relocs[5]
	be.Equal(t, back, depm.Reloc{Section: depm.SecCode, Offset: 58, Symbol: "spin", Kind: depm.RelocAbs16, Addend: 16})

	be.Equal(t, bu.Code[39], 0x4c)
	be.Equal(t, bu.Code[57], 0x4c)
	be.Equal(t, bu.Code[60], 0x60)
}

func TestForLoopStep(t *testing.T) {
	bu := generate(t, `
fun f()
    for i: u8 in 0 to 3 do
    end
endfun`)

	be.Equal(t, bu.Code, []byte{
		0xa9, 0x03, 0x8d, 0x00, 0x00, // LDA #$03 / STA f$frame+1   latch bound
		0xa9, 0x00, 0x8d, 0x00, 0x00, // LDA #$00 / STA f$frame+0   init variable
		0xad, 0x00, 0x00, // LDA f$frame+0
		0xcd, 0x00, 0x00, // CMP f$frame+1
		0xf0, 0x05, // BEQ out
		0xee, 0x00, 0x00, // INC f$frame+0
		0xd0, 0x00, // BNE top (resolved at link time)
		0x60, // RTS
	})

	// The step's back branch is an 8-bit displacement fixup.
	be.Equal(t, bu.Relocs[len(bu.Relocs)-1], depm.Reloc{
		Section: depm.SecCode,
		Offset:  22,
		Symbol:  "f",
		Kind:    depm.RelocRel,
		Addend:  10,
	})

	// The variable and the latched bound share the frame.
	frame := findSymbol(t, bu, "f$frame")
	be.Equal(t, frame.Size, 2)
}

func TestSliceElementStore(t *testing.T) {
	bu := generate(t, `
fun f(s: [u16])
    s[0] = 5
endfun`)

	be.Equal(t, len(bu.Code), 54)

	// After the prologue: park the data pointer in zero page, push the value,
	// and store both bytes through (ptr),Y at twice the index.
	be.Equal(t, bu.Code[24:], []byte{
		0xad, 0x00, 0x00, 0x85, 0x06, // LDA s ptr low / STA $06
		0xad, 0x00, 0x00, 0x85, 0x07, // LDA s ptr high / STA $07
		0xa9, 0x05, 0xa2, 0x00, // LDA #$05 / LDX #$00
		0x48, 0x8a, 0x48, // PHA / TXA / PHA
		0xa9, 0x00, // LDA #$00           index
		0x0a, 0xa8, 0xc8, // ASL / TAY / INY
		0x68, 0x91, 0x06, // PLA / STA ($06),Y  high byte
		0x88, 0x68, 0x91, 0x06, // DEY / PLA / STA ($06),Y  low byte
		0x60, // RTS
	})

	frame := findSymbol(t, bu, "f$frame")
	be.Equal(t, frame.Size, 3)
}

func TestSignedCompare(t *testing.T) {
	bu := generate(t, `
fun f(a: i8, b: i8) -> bool
    return a < b
endfun`)

	be.Equal(t, len(bu.Code), 46)

	// Both operands get their sign bit flipped before the unsigned carry
	// test, so -1 < 1 holds.
	be.Equal(t, bu.Code[20:], []byte{
		0xad, 0x00, 0x00, 0x49, 0x80, // LDA a / EOR #$80
		0x48,                         // PHA
		0xad, 0x00, 0x00, 0x49, 0x80, // LDA b / EOR #$80
		0x85, 0x02, 0x68, 0xc5, 0x02, // STA $02 / PLA / CMP $02
		0x90, 0x04, // BCC true
		0xa9, 0x00, // LDA #$00
		0xf0, 0x02, // BEQ out
		0xa9, 0x01, // LDA #$01
		0x60, 0x60, // RTS / RTS
	})
}

func TestSignedShiftRight(t *testing.T) {
	bu := generate(t, `
fun f(n: i8) -> i8
    return n >> 1
endfun`)

	// The sign bit latches into carry and rotates back in from the top.
	be.Equal(t, bu.Code, []byte{
		0x68, 0x85, 0x02, // PLA / STA $02
		0x68, 0x85, 0x03, // PLA / STA $03
		0x68, 0x8d, 0x00, 0x00, // PLA / STA f$frame+0
		0xa5, 0x03, 0x48, // LDA $03 / PHA
		0xa5, 0x02, 0x48, // LDA $02 / PHA
		0xad, 0x00, 0x00, // LDA f$frame+0
		0xc9, 0x80, 0x6a, // CMP #$80 / ROR
		0x60, 0x60, // RTS / RTS
	})
}

func TestSignedShiftRightWide(t *testing.T) {
	bu := generate(t, `
fun f(n: i16) -> i16
    return n >> 1
endfun`)

	be.Equal(t, bu.Code[20:], []byte{
		0xad, 0x00, 0x00, // LDA f$frame+0
		0xae, 0x00, 0x00, // LDX f$frame+1
		0x85, 0x02, 0x86, 0x03, // STA $02 / STX $03
		0xa5, 0x03, 0x0a, // LDA $03 / ASL        sign into carry
		0x66, 0x03, 0x66, 0x02, // ROR $03 / ROR $02
		0xa5, 0x02, 0xa6, 0x03, // LDA $02 / LDX $03
		0x60, 0x60, // RTS / RTS
	})
}

func TestEncodeInt(t *testing.T) {
	be.Equal(t, encodeInt(0x1234, 2), []byte{0x34, 0x12})
	be.Equal(t, encodeInt(0x0400, 2), []byte{0x00, 0x04})
	be.Equal(t, encodeInt(-2, 1), []byte{0xfe})
	be.Equal(t, encodeInt(-1, 4), []byte{0xff, 0xff, 0xff, 0xff})
}
