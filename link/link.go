package link

import (
	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/report"
)

// Origin is the fixed load address of a linked program: the start of C64
// BASIC memory, so the image doubles as a runnable BASIC program.
const Origin = 0x0801

// basicStub is the BASIC line `10 SYS 2061` that transfers control to the
// entry jump placed immediately after it.
var basicStub = []byte{
	0x0b, 0x08, // next line link
	0x0a, 0x00, // line number 10
	0x9e,                   // SYS
	0x32, 0x30, 0x36, 0x31, // "2061"
	0x00,       // end of line
	0x00, 0x00, // end of program
}

// Image is a linked program: a flat byte sequence at the load origin with
// every relocation resolved, and the zero-contribution mut region accounted
// for behind it.
type Image struct {
	// The image bytes, starting at Origin.
	Data []byte

	// The final address of the exported `main` symbol.
	Entry int

	// The mut reservation: implicitly zero space after the image end.
	MutBase, MutSize int
}

// placement records the final base address of each of one unit's sections.
type placement struct {
	unit  *depm.Unit
	code  int
	stash int
	mut   int
}

func (p *placement) base(section depm.Section) int {
	switch section {
	case depm.SecCode:
		return p.code
	case depm.SecStash:
		return p.stash
	default:
		return p.mut
	}
}

// Link lays the compiled units of a plan out into a program image and
// resolves every relocation.  Units place in plan order: all code first,
// then all stash data, then the mut reservation; the image opens with a
// header stub transferring control to the exported `main`.
func Link(plan []*depm.Unit) (*Image, error) {
	placements := make([]*placement, len(plan))

	// Step 1-3: assign section base addresses in plan order.
	addr := Origin + len(basicStub) + 3 // header stub + entry jump
	for i, u := range plan {
		placements[i] = &placement{unit: u, code: addr}
		addr += len(u.Bin.Code)
	}

	for _, p := range placements {
		p.stash = addr
		addr += len(p.unit.Bin.Stash)
	}

	imageEnd := addr
	for _, p := range placements {
		p.mut = addr
		addr += p.unit.Bin.MutSize
	}

	// Step 4: global symbol table over every exported symbol.
	globals := make(map[string]int)
	owners := make(map[string]string)
	for _, p := range placements {
		for _, sym := range p.unit.Bin.Symbols {
			if !sym.Exported {
				continue
			}

			if first, ok := owners[sym.Name]; ok {
				return nil, report.RaiseDuplicate(sym.Name, first, p.unit.Name)
			}

			owners[sym.Name] = p.unit.Name
			globals[sym.Name] = p.base(sym.Section) + sym.Offset
		}
	}

	entry, ok := globals["main"]
	if !ok {
		return nil, report.RaiseUnresolved("main", plan[len(plan)-1].Name)
	}

	// Assemble the image and the entry jump.
	data := make([]byte, imageEnd-Origin)
	copy(data, basicStub)
	data[len(basicStub)] = 0x4c // JMP
	data[len(basicStub)+1] = byte(entry)
	data[len(basicStub)+2] = byte(entry >> 8)

	for _, p := range placements {
		copy(data[p.code-Origin:], p.unit.Bin.Code)
		copy(data[p.stash-Origin:], p.unit.Bin.Stash)
	}

	// Step 5: apply every unit's fixups.  A relocation's symbol resolves
	// against the unit's own table first, then the global exported table.
	for _, p := range placements {
		local := make(map[string]int)
		for _, sym := range p.unit.Bin.Symbols {
			local[sym.Name] = p.base(sym.Section) + sym.Offset
		}

		for _, reloc := range p.unit.Bin.Relocs {
			target, ok := local[reloc.Symbol]
			if !ok {
				if target, ok = globals[reloc.Symbol]; !ok {
					return nil, report.RaiseUnresolved(reloc.Symbol, p.unit.Name)
				}
			}

			site := p.base(reloc.Section) + reloc.Offset
			if err := applyFixup(data, site-Origin, site, target+reloc.Addend, reloc.Kind); err != nil {
				le := err.(*report.LinkError)
				le.Symbol = reloc.Symbol
				le.Units = []string{p.unit.Name}
				return nil, le
			}
		}
	}

	return &Image{
		Data:    data,
		Entry:   entry,
		MutBase: imageEnd,
		MutSize: addr - imageEnd,
	}, nil
}

// applyFixup patches one relocation site in place.
func applyFixup(data []byte, off, site, target int, kind depm.RelocKind) error {
	switch kind {
	case depm.RelocAbs16:
		data[off] = byte(target)
		data[off+1] = byte(target >> 8)
	case depm.RelocLo:
		data[off] = byte(target)
	case depm.RelocHi:
		data[off] = byte(target >> 8)
	case depm.RelocRel:
		// The displacement counts from the byte after the operand.
		disp := target - (site + 1)
		if disp < -128 || disp > 127 {
			return &report.LinkError{Message: "relative branch out of range"}
		}

		data[off] = byte(disp)
	}

	return nil
}
