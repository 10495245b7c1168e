package cmd

import (
	"path/filepath"

	"github.com/jdpage/jeff65/codegen"
	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/link"
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/walk"
)

// Resolve runs the resolution phase of the compiler: the unit graph rooted at
// the root unit is walked, every reachable unit is located, parsed or loaded
// from its cache artifact, and the compilation plan is produced.
func (c *Compiler) Resolve() bool {
	report.BeginPhase("Resolving")

	r := depm.NewResolver(c.table, c.searchPaths, c.cacheDir)
	plan, err := r.Resolve(c.rootPath)

	// Parse errors accumulate during resolution so that diagnostics from
	// several units surface in a single run.
	for _, cerr := range r.Errors {
		report.ReportCompileError(cerr.Path, cerr.Span, "%s", cerr.Message)
	}

	if err != nil {
		if ue, ok := err.(*report.UnitError); ok {
			report.ReportUnitError(ue)
		} else {
			report.ReportStdError(c.rootPath, err)
		}
	}

	c.plan = plan

	ok := err == nil && report.ShouldProceed()
	report.EndPhase(ok)
	return ok
}

// Check runs the checking phase of the compiler: every source and virtual
// unit in the plan is type and storage checked, in plan order so that each
// unit's exports are published before its dependents are checked.  Code
// generation never begins on a plan with outstanding diagnostics.
func (c *Compiler) Check() bool {
	report.BeginPhase("Checking")

	for _, u := range c.plan {
		if u.Kind == depm.UnitBinary {
			continue
		}

		for _, cerr := range walk.WalkUnit(u, c.table) {
			report.ReportCompileError(cerr.Path, cerr.Span, "%s", cerr.Message)
		}
	}

	ok := report.ShouldProceed()
	report.EndPhase(ok)
	return ok
}

// Generate runs the code generation phase of the compiler.  Checked units are
// independent of each other at this stage (cross-unit constants were inlined
// during checking), so each unit is generated on its own goroutine and the
// results are collected over a channel.  Freshly generated units are written
// back to the cache as they complete.
func (c *Compiler) Generate() bool {
	report.BeginPhase("Generating")

	binCh := make(chan *depm.Unit)
	nUnits := 0

	for _, u := range c.plan {
		// Binary units were loaded from an up-to-date artifact.
		if u.Kind == depm.UnitBinary {
			continue
		}

		nUnits++

		go func(u *depm.Unit) {
			defer report.CatchErrors(u.Path)

			codegen.Generate(u)
			binCh <- u
		}(u)
	}

	for i := 0; i < nUnits; i++ {
		u := <-binCh

		// Virtual units are synthesized on every run; caching them buys
		// nothing.
		if c.noCache || u.Kind == depm.UnitVirtual || u.Bin == nil {
			continue
		}

		if err := depm.WriteBlum(c.blumPath(u), u.Bin); err != nil {
			// A cold cache only costs recompilation time.
			report.ReportCompileWarning(u.Path, nil, "unable to write cache artifact: %s", err)
		}
	}

	close(binCh)

	ok := report.ShouldProceed()
	report.EndPhase(ok)
	return ok
}

// Link runs the linking phase of the compiler: the plan's binary units are
// laid out into a program image and the image is written to the output path.
func (c *Compiler) Link() bool {
	report.BeginPhase("Linking")

	img, err := link.Link(c.plan)
	if err == nil {
		err = link.WritePrg(c.outputPath, img)
	}

	if err != nil {
		if le, ok := err.(*report.LinkError); ok {
			report.ReportLinkError(le)
		} else {
			report.ReportStdError(c.outputPath, err)
		}

		report.EndPhase(false)
		return false
	}

	report.EndPhase(true)
	return true
}

// blumPath returns the cache artifact path for a freshly generated unit.
func (c *Compiler) blumPath(u *depm.Unit) string {
	if c.cacheDir != "" {
		return filepath.Join(c.cacheDir, u.Name+".blum")
	}

	return filepath.Join(filepath.Dir(u.Path), u.Name+".blum")
}
