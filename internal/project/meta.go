package project

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when BuildMeta format changes.
const metaSchemaVersion uint16 = 1

// Digest is a sha256 content hash.
type Digest [sha256.Size]byte

// ImportMeta is one import binding in serialized form.
type ImportMeta struct {
	Local    string
	Exported string
	Module   string
}

// ModuleMeta describes one resolved module for external tooling.
type ModuleMeta struct {
	Name    string
	Path    string
	Content Digest
	Imports []ImportMeta
	Exports []string
	Deps    []string
}

// BuildMeta is the serialized module graph written next to the output when
// the driver is asked for it. Persistence stays the driver's concern; the
// compiler core never touches disk.
type BuildMeta struct {
	Schema  uint16
	Entry   string
	Target  string
	Modules []ModuleMeta
}

// Describe snapshots the resolved module graph in compilation order.
func Describe(entry, target string, mods []*Module) *BuildMeta {
	meta := &BuildMeta{
		Schema: metaSchemaVersion,
		Entry:  entry,
		Target: target,
	}
	for _, mod := range mods {
		mm := ModuleMeta{
			Name:    mod.Name,
			Path:    mod.Path,
			Content: sha256.Sum256(mod.AST.Source.Src),
			Deps:    mod.Deps,
		}
		for _, imp := range mod.Imports {
			mm.Imports = append(mm.Imports, ImportMeta{
				Local:    imp.Local,
				Exported: imp.Exported,
				Module:   imp.Module,
			})
		}
		for name := range mod.Exports {
			mm.Exports = append(mm.Exports, name)
		}
		sort.Strings(mm.Exports)
		meta.Modules = append(meta.Modules, mm)
	}
	return meta
}

// WriteFile serializes the metadata with msgpack, writing through a temp
// file and a rename so a crashed build never leaves a torn payload.
func (m *BuildMeta) WriteFile(path string) error {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode build metadata: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "tmp-meta-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
