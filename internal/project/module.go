// Package project models the compilation unit graph: modules, their
// imports and exports, and the order they are walked in.
package project

import "github.com/kdetry/MicroTS/internal/ast"

// Import is one named import binding.
type Import struct {
	Local    string // name the importing module uses
	Exported string // name the source module exports
	Module   string // source module short name
	Path     string // absolute path of the source module
}

// Module is one resolved source module. The AST stays alive for the whole
// compilation; walkers borrow it.
type Module struct {
	Path    string // absolute file path
	Name    string // basename without extension
	AST     *ast.File
	Imports []Import
	Exports map[string]struct{}
	Deps    []string // dependency module names, in import order
}

// ImportMap indexes imports by local name for call resolution.
func (m *Module) ImportMap() map[string]Import {
	out := make(map[string]Import, len(m.Imports))
	for _, imp := range m.Imports {
		out[imp.Local] = imp
	}
	return out
}

// Exported reports whether the module exports name.
func (m *Module) Exported(name string) bool {
	_, ok := m.Exports[name]
	return ok
}
