package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jdpage/jeff65/depm"
	"github.com/jdpage/jeff65/report"
	"github.com/nalgeon/be"
)

// compileOnce runs every phase over the root unit and returns the program
// image bytes.
func compileOnce(t *testing.T, rootPath, outputPath, cacheDir string) ([]byte, *Compiler) {
	t.Helper()

	c := &Compiler{
		verb:       "compile",
		rootPath:   rootPath,
		outputPath: outputPath,
		cacheDir:   cacheDir,
		debug:      make(map[string]bool),
		table:      depm.NewUnitTable(),
	}

	be.True(t, c.Resolve())
	be.True(t, c.Check())
	be.True(t, c.Generate())
	be.True(t, c.Link())

	img, err := os.ReadFile(outputPath)
	be.Err(t, err, nil)

	return img, c
}

func TestWarmCacheRebuild(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)

	dir := t.TempDir()
	cache := t.TempDir()

	util := filepath.Join(dir, "util.gold")
	be.Err(t, os.WriteFile(util, []byte(`
constant bump: u8 = 3

fun add-bump(n: u8) -> u8
    return n + bump
endfun
`), 0o644), nil)

	root := filepath.Join(dir, "root.gold")
	be.Err(t, os.WriteFile(root, []byte(`
use util

fun main()
    util.add-bump(4)
endfun
`), 0o644), nil)

	out := filepath.Join(dir, "root.prg")
	cold, _ := compileOnce(t, root, out, cache)

	// On the second run every artifact is fresh, so the helper unit loads
	// from the cache instead of its source and the image comes out
	// byte-identical.
	warm, c := compileOnce(t, root, out, cache)
	be.Equal(t, warm, cold)

	var reused *depm.Unit
	for _, u := range c.plan {
		if u.Name == "util" {
			reused = u
		}
	}
	be.True(t, reused != nil && reused.Kind == depm.UnitBinary)
	be.True(t, len(reused.Exports) > 0)
}
