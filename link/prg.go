package link

import (
	"os"
	"path/filepath"
)

// Prg returns the image in .prg form: a 2-byte little-endian load address
// followed by the image bytes, loadable directly by the target hardware or
// its emulator.
func (img *Image) Prg() []byte {
	prg := make([]byte, 0, len(img.Data)+2)
	prg = append(prg, byte(Origin&0xff), byte(Origin>>8))
	return append(prg, img.Data...)
}

// WritePrg persists the image as a .prg file.  The file is written to a
// temporary name and renamed into place so that a failed link never leaves a
// partial image behind.
func WritePrg(path string, img *Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".prg-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(img.Prg()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
