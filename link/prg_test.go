package link

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

func TestPrg(t *testing.T) {
	img := &Image{Data: []byte{0x0b, 0x08, 0x4c, 0x0f, 0x08}, Entry: 0x080f}

	prg := img.Prg()
	be.Equal(t, prg[:2], []byte{0x01, 0x08})
	be.Equal(t, prg[2:], img.Data)
}

func TestWritePrg(t *testing.T) {
	img := &Image{Data: []byte{0xa9, 0x00, 0x60}}

	dir := t.TempDir()
	path := filepath.Join(dir, "out.prg")
	be.Err(t, WritePrg(path, img), nil)

	got, err := os.ReadFile(path)
	be.Err(t, err, nil)
	be.Equal(t, got, img.Prg())

	// The temporary write never leaves a stray file behind.
	entries, err := os.ReadDir(dir)
	be.Err(t, err, nil)
	be.Equal(t, len(entries), 1)
	be.Equal(t, entries[0].Name(), "out.prg")
}
