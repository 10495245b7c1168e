package link

import (
	"testing"

	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/report"
	"github.com/nalgeon/be"
)

// unit wraps a hand-built binary unit for a link plan.
func unit(name string, bin *depm.BinaryUnit) *depm.Unit {
	bin.Name = name
	return &depm.Unit{Name: name, Kind: depm.UnitSource, Bin: bin}
}

func TestLinkLayout(t *testing.T) {
	a := unit("a", &depm.BinaryUnit{
		Code:    []byte{0xa9, 0x00, 0x60},
		Stash:   []byte{1, 2},
		MutSize: 2,
		Symbols: []*depm.Symbol{
			{Name: "main", Section: depm.SecCode, Offset: 0, Size: 3, Exported: true},
			{Name: "tbl", Section: depm.SecStash, Offset: 0, Size: 2, Exported: true},
			{Name: "count", Section: depm.SecMut, Offset: 0, Size: 2, Exported: true},
		},
	})
	b := unit("b", &depm.BinaryUnit{
		Code: []byte{0x60},
		Symbols: []*depm.Symbol{
			{Name: "helper", Section: depm.SecCode, Offset: 0, Size: 1, Exported: true},
		},
	})

	img, err := Link([]*depm.Unit{a, b})
	be.Err(t, err, nil)

	// Code in plan order behind the header, then stash data, then the mut
	// reservation past the image end.
	be.Equal(t, img.Entry, 0x0810)
	be.Equal(t, len(img.Data), 0x0816-Origin)
	be.Equal(t, img.MutBase, 0x0816)
	be.Equal(t, img.MutSize, 2)

	// The BASIC stub and the entry jump open the image.
	be.Equal(t, img.Data[:12], []byte{
		0x0b, 0x08, 0x0a, 0x00, 0x9e, 0x32, 0x30, 0x36, 0x31, 0x00, 0x00, 0x00,
	})
	be.Equal(t, img.Data[12:15], []byte{0x4c, 0x10, 0x08})

	be.Equal(t, img.Data[15:18], []byte{0xa9, 0x00, 0x60}) // a code
	be.Equal(t, img.Data[18], 0x60)                        // b code
	be.Equal(t, img.Data[19:21], []byte{1, 2})             // a stash
}

func TestLinkFixups(t *testing.T) {
	a := unit("a", &depm.BinaryUnit{
		Code: []byte{
			0xad, 0x00, 0x00, // LDA count
			0xa9, 0x00, // LDA #<tbl
			0xa2, 0x00, // LDX #>tbl
			0xd0, 0x00, // BNE main
			0x60,
		},
		Stash:   []byte{0x00, 0x00},
		MutSize: 1,
		Symbols: []*depm.Symbol{
			{Name: "main", Section: depm.SecCode, Offset: 0, Size: 10, Exported: true},
			{Name: "tbl", Section: depm.SecStash, Offset: 0, Size: 2},
			{Name: "count", Section: depm.SecMut, Offset: 0, Size: 1},
		},
		Relocs: []depm.Reloc{
			{Section: depm.SecCode, Offset: 1, Symbol: "count", Kind: depm.RelocAbs16},
			{Section: depm.SecCode, Offset: 4, Symbol: "tbl", Kind: depm.RelocLo},
			{Section: depm.SecCode, Offset: 6, Symbol: "tbl", Kind: depm.RelocHi},
			{Section: depm.SecCode, Offset: 8, Symbol: "main", Kind: depm.RelocRel},
			{Section: depm.SecStash, Offset: 0, Symbol: "count", Kind: depm.RelocAbs16},
		},
	})

	img, err := Link([]*depm.Unit{a})
	be.Err(t, err, nil)

	// code at $0810, stash at $081a, mut at $081c.
	be.Equal(t, img.Data[16], 0x1c) // count low
	be.Equal(t, img.Data[17], 0x08) // count high
	be.Equal(t, img.Data[19], 0x1a) // <tbl
	be.Equal(t, img.Data[21], 0x08) // >tbl
	be.Equal(t, img.Data[23], 0xf7) // branch back to $0810 from $0819
	be.Equal(t, img.Data[25], 0x1c) // stash-section site, count low
	be.Equal(t, img.Data[26], 0x08) // count high
}

func TestLinkDuplicateSymbol(t *testing.T) {
	a := unit("a", &depm.BinaryUnit{
		Code:    []byte{0x60},
		Symbols: []*depm.Symbol{{Name: "main", Section: depm.SecCode, Size: 1, Exported: true}},
	})
	b := unit("b", &depm.BinaryUnit{
		Code:    []byte{0x60},
		Symbols: []*depm.Symbol{{Name: "main", Section: depm.SecCode, Size: 1, Exported: true}},
	})

	_, err := Link([]*depm.Unit{a, b})
	le, ok := err.(*report.LinkError)
	if !ok {
		t.Fatalf("expected a link error, got %v", err)
	}
	be.Equal(t, le.Message, "duplicate symbol")
	be.Equal(t, le.Symbol, "main")
	be.Equal(t, le.Units, []string{"a", "b"})
}

func TestLinkUnresolvedSymbol(t *testing.T) {
	a := unit("a", &depm.BinaryUnit{
		Code:    []byte{0x20, 0x00, 0x00, 0x60},
		Symbols: []*depm.Symbol{{Name: "main", Section: depm.SecCode, Size: 4, Exported: true}},
		Relocs: []depm.Reloc{
			{Section: depm.SecCode, Offset: 1, Symbol: "missing", Kind: depm.RelocAbs16},
		},
	})

	_, err := Link([]*depm.Unit{a})
	le, ok := err.(*report.LinkError)
	if !ok {
		t.Fatalf("expected a link error, got %v", err)
	}
	be.Equal(t, le.Message, "unresolved symbol")
	be.Equal(t, le.Symbol, "missing")
}

func TestLinkRequiresMain(t *testing.T) {
	a := unit("a", &depm.BinaryUnit{
		Code:    []byte{0x60},
		Symbols: []*depm.Symbol{{Name: "helper", Section: depm.SecCode, Size: 1, Exported: true}},
	})

	_, err := Link([]*depm.Unit{a})
	le, ok := err.(*report.LinkError)
	if !ok {
		t.Fatalf("expected a link error, got %v", err)
	}
	be.Equal(t, le.Symbol, "main")
}

func TestLinkBranchOutOfRange(t *testing.T) {
	code := make([]byte, 200)
	for i := range code {
		code[i] = 0xea
	}

	a := unit("a", &depm.BinaryUnit{
		Code: code,
		Symbols: []*depm.Symbol{
			{Name: "main", Section: depm.SecCode, Size: 200, Exported: true},
		},
		Relocs: []depm.Reloc{
			{Section: depm.SecCode, Offset: 198, Symbol: "main", Kind: depm.RelocRel},
		},
	})

	_, err := Link([]*depm.Unit{a})
	le, ok := err.(*report.LinkError)
	if !ok {
		t.Fatalf("expected a link error, got %v", err)
	}
	be.Equal(t, le.Message, "relative branch out of range")
}
