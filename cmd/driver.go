// Package cmd is the top-level "driver" package for the jeff65 compiler: it
// contains all the functionality for parsing command-line arguments, managing
// compiler state, and running all the various phases of the compiler.
package cmd

import (
	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/report"
)

// Version is the compiler version reported by `--version` and the compilation
// header.
const Version = "0.1.0"

// Compiler represents the overall state and configuration of compilation.
type Compiler struct {
	// The command being run.  Only `compile` is recognized for now.
	verb string

	// The path to the root unit source file of compilation.
	rootPath string

	// The path to write the program image to.
	outputPath string

	// Additional directories searched for used units.  The root unit's
	// directory is always searched first.
	searchPaths []string

	// The directory unit cache artifacts are read from and written to.  If
	// empty, artifacts live alongside their source files.
	cacheDir string

	// Whether to skip writing cache artifacts after code generation.
	noCache bool

	// The set of enabled -Z debug outputs.
	debug map[string]bool

	// table is the compiler's resolved unit table.
	table *depm.UnitTable

	// plan is the compilation plan: every reachable unit, dependencies before
	// dependents, with the root unit last.
	plan []*depm.Unit
}

// RunCompiler is the main entry point for the jeff65 compiler.  This should be
// called directly from main.
func RunCompiler() int {
	// Create a new compiler from the given command-line arguments.
	c := NewCompilerFromArgs()

	report.CompileHeader(Version, depm.UnitName(c.rootPath))

	// Resolve the unit graph rooted at the root unit.
	if !c.Resolve() {
		return 1
	}

	if c.debug["plan"] {
		c.dumpPlan()
	}

	// Perform type and storage checking on every unit in the plan.
	if !c.Check() {
		report.CompileFooter(c.outputPath)
		return 1
	}

	// Generate relocatable code for every checked unit.
	if !c.Generate() {
		report.CompileFooter(c.outputPath)
		return 1
	}

	if c.debug["symbols"] {
		c.dumpSymbols()
	}

	// Link the plan into a program image and write it out.
	if !c.Link() {
		report.CompileFooter(c.outputPath)
		return 1
	}

	report.CompileFooter(c.outputPath)
	return 0
}
