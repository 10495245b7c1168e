package depm

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/report"
	"github.com/jdpage/jeff65/syntax"
)

// Resolver walks the `use` graph starting from the root unit and loads every
// reachable unit exactly once: source units are parsed, virtual units are
// synthesized by their registered provider, and units with an up-to-date
// cache artifact are loaded as binary units without reparsing.
//
// Resolution is depth-first, so the resulting plan lists dependencies before
// their dependents.  A unit whose artifact is fresh on disk is still
// recompiled if any of its dependencies is being recompiled, since exported
// constants are inlined into dependents.
type Resolver struct {
	table       *UnitTable
	searchPaths []string
	cacheDir    string

	stack   []string
	inStack map[string]bool
	plan    []*Unit

	// Compile errors encountered while parsing source units.  Resolution
	// continues past parse errors where it can, so that diagnostics from
	// several units accumulate in a single run.
	Errors []*report.CompileError
}

// NewResolver creates a resolver over the given unit table.  Units are
// located as `<name>.gold` files in the search paths; cache artifacts are
// read from and written to cacheDir, or alongside their source if cacheDir
// is empty.
func NewResolver(table *UnitTable, searchPaths []string, cacheDir string) *Resolver {
	return &Resolver{
		table:       table,
		searchPaths: searchPaths,
		cacheDir:    cacheDir,
		inStack:     make(map[string]bool),
	}
}

// UnitName derives a unit name from its source path: the base name with the
// extension removed.
func UnitName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Resolve resolves the unit graph rooted at the given source file and returns
// the compilation plan: every reachable unit, dependencies before dependents,
// with the root unit last.  The root unit is always compiled from source.
func (r *Resolver) Resolve(rootPath string) ([]*Unit, error) {
	// The root unit's directory is always searched first.
	r.searchPaths = append([]string{filepath.Dir(rootPath)}, r.searchPaths...)

	if _, err := r.resolveSource(UnitName(rootPath), rootPath); err != nil {
		return nil, err
	}

	return r.plan, nil
}

// BlumPath returns the cache artifact path for the named unit whose source
// lives at srcPath.
func (r *Resolver) BlumPath(name, srcPath string) string {
	if r.cacheDir != "" {
		return filepath.Join(r.cacheDir, name+".blum")
	}

	return filepath.Join(filepath.Dir(srcPath), name+".blum")
}

// resolveUnit resolves a single `use` reference.  Virtual providers shadow
// source files: built-in unit names are reserved.
func (r *Resolver) resolveUnit(name string) (*Unit, error) {
	if u, ok := r.table.Lookup(name); ok {
		if r.inStack[name] {
			return nil, report.RaiseCycle(name, r.cycleFrom(name))
		}

		return u, nil
	}

	if provide, ok := LookupVirtual(name); ok {
		return r.resolveVirtual(name, provide)
	}

	if srcPath, ok := r.locate(name, ".gold"); ok {
		blumPath := r.BlumPath(name, srcPath)
		if BlumFresh(blumPath, srcPath) {
			return r.resolveBinary(name, srcPath, blumPath)
		}

		return r.resolveSource(name, srcPath)
	}

	// An artifact with no source alongside it is usable as-is.
	if blumPath, ok := r.locate(name, ".blum"); ok {
		return r.resolveBinary(name, "", blumPath)
	}

	return nil, report.RaiseUnit(name, "unit not found")
}

// resolveSource parses a unit from its source file and resolves its uses.
func (r *Resolver) resolveSource(name, path string) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, report.RaiseUnit(name, "unable to read unit: %s", err)
	}

	u := &Unit{Name: name, Kind: UnitSource, Path: path}
	r.enter(u)
	defer r.leave(u)

	astUnit, errs := syntax.ParseUnit(name, path, string(src))
	if len(errs) > 0 {
		// Record the diagnostics but keep resolving: other units may have
		// errors of their own worth surfacing in the same run.
		r.Errors = append(r.Errors, errs...)
	}

	if astUnit != nil {
		u.AST = astUnit
		u.Uses = astUnit.UsedUnits()
	}

	for _, dep := range u.Uses {
		if _, err := r.resolveUnit(dep); err != nil {
			return nil, err
		}
	}

	r.plan = append(r.plan, u)
	return u, nil
}

// resolveVirtual synthesizes a built-in unit from its registered provider.
func (r *Resolver) resolveVirtual(name string, provide ProvideAST) (*Unit, error) {
	stmts, err := provide(name)
	if err != nil {
		return nil, report.RaiseUnit(name, "synthesizing unit: %s", err)
	}

	astUnit := &ast.Unit{Name: name, Stmts: stmts}
	u := &Unit{Name: name, Kind: UnitVirtual, AST: astUnit, Uses: astUnit.UsedUnits()}
	r.enter(u)
	defer r.leave(u)

	for _, dep := range u.Uses {
		if _, err := r.resolveUnit(dep); err != nil {
			return nil, err
		}
	}

	r.plan = append(r.plan, u)
	return u, nil
}

// resolveBinary loads a unit from its cache artifact.  If any of the unit's
// dependencies turns out to be compiled from source in this run, the artifact
// is discarded and the unit is recompiled from srcPath as well; an artifact
// with no source is used regardless.
func (r *Resolver) resolveBinary(name, srcPath, blumPath string) (*Unit, error) {
	bu, err := ReadBlum(blumPath)
	if err != nil {
		if srcPath == "" {
			return nil, report.RaiseUnit(name, "unable to load unit: %s", err)
		}

		// Unreadable artifact: recompile from source.
		return r.resolveSource(name, srcPath)
	}

	u := &Unit{Name: name, Kind: UnitBinary, Path: blumPath, Bin: bu, Uses: bu.Uses}
	r.enter(u)
	defer r.leave(u)

	stale := false
	for _, dep := range u.Uses {
		du, err := r.resolveUnit(dep)
		if err != nil {
			return nil, err
		}

		if du.Kind == UnitSource {
			stale = true
		}
	}

	if stale && srcPath != "" {
		src, err := os.ReadFile(srcPath)
		if err != nil {
			return nil, report.RaiseUnit(name, "unable to read unit: %s", err)
		}

		astUnit, errs := syntax.ParseUnit(name, srcPath, string(src))
		if len(errs) > 0 {
			r.Errors = append(r.Errors, errs...)
		}

		u.Kind = UnitSource
		u.Path = srcPath
		u.Bin = nil

		if astUnit != nil {
			u.AST = astUnit
			u.Uses = astUnit.UsedUnits()

			// The source's use list may differ from the cached one.
			for _, dep := range u.Uses {
				if _, err := r.resolveUnit(dep); err != nil {
					return nil, err
				}
			}
		}
	} else {
		u.Exports = bu.Exports()
	}

	r.plan = append(r.plan, u)
	return u, nil
}

// locate searches the search paths for `<name><ext>`.
func (r *Resolver) locate(name, ext string) (string, bool) {
	dirs := r.searchPaths
	if ext == ".blum" && r.cacheDir != "" {
		dirs = append([]string{r.cacheDir}, dirs...)
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}

	return "", false
}

func (r *Resolver) enter(u *Unit) {
	r.table.Add(u)
	r.inStack[u.Name] = true
	r.stack = append(r.stack, u.Name)
}

func (r *Resolver) leave(u *Unit) {
	delete(r.inStack, u.Name)
	r.stack = r.stack[:len(r.stack)-1]
}

// cycleFrom returns the names forming the detected cycle, starting and ending
// at the named unit.
func (r *Resolver) cycleFrom(name string) []string {
	for i, n := range r.stack {
		if n == name {
			cycle := make([]string, 0, len(r.stack)-i+1)
			cycle = append(cycle, r.stack[i:]...)
			return append(cycle, name)
		}
	}

	return []string{name, name}
}
