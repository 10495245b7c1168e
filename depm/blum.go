package depm

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"github.com/jdpage/jeff65/ast"
	"github.com/jdpage/jeff65/types"
)

// BlumVersion is the cache artifact format version.  Artifacts with a
// different version are treated as stale.
const BlumVersion = "2"

// blumFile is a binary unit as it is encoded in TOML on disk.
type blumFile struct {
	Name    string   `toml:"name"`
	Version string   `toml:"blum-version"`
	Uses    []string `toml:"uses,omitempty"`
	MutSize int      `toml:"mut-size"`
	Code    string   `toml:"code"`
	Stash   string   `toml:"stash"`

	Symbols []blumSymbol `toml:"symbol,omitempty"`
	Relocs  []blumReloc  `toml:"reloc,omitempty"`
	Consts  []blumConst  `toml:"const,omitempty"`
}

type blumSymbol struct {
	Name     string `toml:"name"`
	Section  string `toml:"section"`
	Offset   int    `toml:"offset"`
	Size     int    `toml:"size"`
	Exported bool   `toml:"exported"`
	Type     string `toml:"type"`
}

type blumReloc struct {
	Section string `toml:"section"`
	Offset  int    `toml:"offset"`
	Symbol  string `toml:"symbol"`
	Kind    string `toml:"kind"`
	Addend  int    `toml:"addend"`
}

type blumConst struct {
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Value int64  `toml:"value"`
	Bytes string `toml:"bytes,omitempty"`
	Sym   string `toml:"sym,omitempty"`
}

// -----------------------------------------------------------------------------

// WriteBlum persists a binary unit as a cache artifact at the given path.
// The artifact is written to a temporary file and renamed into place so that
// no partial artifact is ever observed.
func WriteBlum(path string, bu *BinaryUnit) error {
	bf := blumFile{
		Name:    bu.Name,
		Version: BlumVersion,
		Uses:    bu.Uses,
		MutSize: bu.MutSize,
		Code:    hex.EncodeToString(bu.Code),
		Stash:   hex.EncodeToString(bu.Stash),
	}

	for _, sym := range bu.Symbols {
		typeRepr := ""
		if sym.Type != nil {
			typeRepr = sym.Type.Repr()
		}

		bf.Symbols = append(bf.Symbols, blumSymbol{
			Name:     sym.Name,
			Section:  sym.Section.String(),
			Offset:   sym.Offset,
			Size:     sym.Size,
			Exported: sym.Exported,
			Type:     typeRepr,
		})
	}

	for _, reloc := range bu.Relocs {
		bf.Relocs = append(bf.Relocs, blumReloc{
			Section: reloc.Section.String(),
			Offset:  reloc.Offset,
			Symbol:  reloc.Symbol,
			Kind:    reloc.Kind.String(),
			Addend:  reloc.Addend,
		})
	}

	for _, c := range bu.Consts {
		bf.Consts = append(bf.Consts, blumConst{
			Name:  c.Name,
			Type:  c.Type.Repr(),
			Value: c.Value.Int,
			Bytes: hex.EncodeToString(c.Value.Bytes),
			Sym:   c.Value.Sym,
		})
	}

	buff, err := toml.Marshal(bf)
	if err != nil {
		return fmt.Errorf("encoding unit cache for `%s`: %w", bu.Name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".blum-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(buff); err != nil {
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

// ReadBlum loads a binary unit cache artifact from the given path.
func ReadBlum(path string) (*BinaryUnit, error) {
	buff, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var bf blumFile
	if err := toml.Unmarshal(buff, &bf); err != nil {
		return nil, fmt.Errorf("parsing unit cache `%s`: %w", path, err)
	}

	if bf.Version != BlumVersion {
		return nil, fmt.Errorf("unit cache `%s` has version %s, want %s", path, bf.Version, BlumVersion)
	}

	bu := &BinaryUnit{
		Name:    bf.Name,
		Uses:    bf.Uses,
		MutSize: bf.MutSize,
	}

	if bu.Code, err = hex.DecodeString(bf.Code); err != nil {
		return nil, fmt.Errorf("parsing unit cache `%s`: bad code bytes: %w", path, err)
	}
	if bu.Stash, err = hex.DecodeString(bf.Stash); err != nil {
		return nil, fmt.Errorf("parsing unit cache `%s`: bad stash bytes: %w", path, err)
	}

	for _, bsym := range bf.Symbols {
		section, ok := sectionNames[bsym.Section]
		if !ok {
			return nil, fmt.Errorf("parsing unit cache `%s`: unknown section `%s`", path, bsym.Section)
		}

		var symType types.Type
		if bsym.Type != "" {
			if symType, err = types.ParseRepr(bsym.Type); err != nil {
				return nil, fmt.Errorf("parsing unit cache `%s`: %w", path, err)
			}
		}

		bu.Symbols = append(bu.Symbols, &Symbol{
			Name:     bsym.Name,
			Section:  section,
			Offset:   bsym.Offset,
			Size:     bsym.Size,
			Exported: bsym.Exported,
			Type:     symType,
		})
	}

	for _, breloc := range bf.Relocs {
		kind, ok := relocKindNames[breloc.Kind]
		if !ok {
			return nil, fmt.Errorf("parsing unit cache `%s`: unknown reloc kind `%s`", path, breloc.Kind)
		}

		section, ok := sectionNames[breloc.Section]
		if !ok {
			return nil, fmt.Errorf("parsing unit cache `%s`: unknown section `%s`", path, breloc.Section)
		}

		bu.Relocs = append(bu.Relocs, Reloc{
			Section: section,
			Offset:  breloc.Offset,
			Symbol:  breloc.Symbol,
			Kind:    kind,
			Addend:  breloc.Addend,
		})
	}

	for _, bconst := range bf.Consts {
		constType, err := types.ParseRepr(bconst.Type)
		if err != nil {
			return nil, fmt.Errorf("parsing unit cache `%s`: %w", path, err)
		}

		bytes, err := hex.DecodeString(bconst.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parsing unit cache `%s`: bad const bytes: %w", path, err)
		}
		if len(bytes) == 0 {
			bytes = nil
		}

		bu.Consts = append(bu.Consts, Const{
			Name:  bconst.Name,
			Type:  constType,
			Value: ast.ConstValue{Int: bconst.Value, Bytes: bytes, Sym: bconst.Sym},
		})
	}

	return bu, nil
}

// -----------------------------------------------------------------------------

// BlumFresh reports whether the cache artifact at blumPath exists and is not
// older than the source at srcPath.
func BlumFresh(blumPath, srcPath string) bool {
	blumInfo, err := os.Stat(blumPath)
	if err != nil {
		return false
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		// No source at all: the artifact stands alone and is usable.
		return true
	}

	return !blumInfo.ModTime().Before(srcInfo.ModTime())
}
