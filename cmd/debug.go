package cmd

import (
	"fmt"
)

// dumpPlan prints the compilation plan in link order: one line per unit with
// its kind and the units it uses.
func (c *Compiler) dumpPlan() {
	fmt.Println("plan:")

	for i, u := range c.plan {
		fmt.Printf("  %2d. %s (%s)", i+1, u.Name, u.Kind)

		if len(u.Uses) > 0 {
			fmt.Print(" uses")
			for _, dep := range u.Uses {
				fmt.Printf(" %s", dep)
			}
		}

		fmt.Println()
	}
}

// dumpSymbols prints every unit's symbol table: section, offset, size, and
// exportedness per symbol, plus section byte totals.
func (c *Compiler) dumpSymbols() {
	for _, u := range c.plan {
		if u.Bin == nil {
			continue
		}

		fmt.Printf("%s: code=%d stash=%d mut=%d\n", u.Name, len(u.Bin.Code), len(u.Bin.Stash), u.Bin.MutSize)

		for _, sym := range u.Bin.Symbols {
			vis := "local"
			if sym.Exported {
				vis = "export"
			}

			fmt.Printf("  %-24s %-5s+$%04x size=%-4d %s\n", sym.Name, sym.Section, sym.Offset, sym.Size, vis)
		}

		for _, k := range u.Bin.Consts {
			fmt.Printf("  %-24s const %s\n", k.Name, k.Type.Repr())
		}
	}
}
