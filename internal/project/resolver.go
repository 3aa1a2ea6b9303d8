package project

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/kdetry/MicroTS/internal/ast"
	"github.com/kdetry/MicroTS/internal/diag"
	"github.com/kdetry/MicroTS/internal/parser"
	"github.com/kdetry/MicroTS/internal/source"
)

const sourceExt = ".ts"

// Resolver discovers the transitive closure of relative imports starting
// from an entry file and yields modules in dependency order, leaves first.
type Resolver struct {
	modules  map[string]*Module // by absolute path
	order    []*Module          // DFS post-order
	visiting map[string]bool
}

func NewResolver() *Resolver {
	return &Resolver{
		modules:  make(map[string]*Module),
		visiting: make(map[string]bool),
	}
}

// Resolve parses the entry module and every relative import reachable from
// it. The returned list is the compilation order: every dependency of a
// module appears before the module itself. Import cycles are fatal.
func (r *Resolver) Resolve(entry string) ([]*Module, error) {
	if _, err := r.load(entry); err != nil {
		return nil, err
	}
	return r.order, nil
}

func (r *Resolver) load(path string) (*Module, error) {
	abs, err := normalize(path)
	if err != nil {
		return nil, err
	}
	if mod, done := r.modules[abs]; done {
		return mod, nil
	}
	if r.visiting[abs] {
		return nil, diag.Errorf(diag.ResolveCycle, source.Pos{},
			"import cycle through module %q", source.ShortName(abs))
	}
	r.visiting[abs] = true
	defer delete(r.visiting, abs)

	file, err := source.Load(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, diag.Errorf(diag.IOMissing, source.Pos{}, "module not found: %s", abs)
		}
		return nil, err
	}
	tree, err := parser.Parse(file)
	if err != nil {
		return nil, err
	}

	mod := &Module{
		Path:    abs,
		Name:    file.Name,
		AST:     tree,
		Exports: make(map[string]struct{}),
	}
	for _, top := range tree.Root.NamedChildren() {
		switch top.Kind() {
		case ast.ImportStatement:
			if err := r.collectImport(mod, top); err != nil {
				return nil, err
			}
		case ast.ExportStatement:
			collectExport(mod, top)
		}
	}

	r.modules[abs] = mod
	r.order = append(r.order, mod)
	return mod, nil
}

// collectImport records the named bindings of one import statement and
// recurses into the source module when the specifier is relative.
// Non-relative specifiers are external and ignored.
func (r *Resolver) collectImport(mod *Module, stmt ast.Node) error {
	spec := importSpecifier(stmt)
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return nil
	}
	depPath, err := normalize(filepath.Join(filepath.Dir(mod.Path), spec))
	if err != nil {
		return err
	}
	dep, err := r.load(depPath)
	if err != nil {
		return err
	}

	for _, binding := range namedBindings(stmt) {
		exported := binding.Field("name").Text()
		local := exported
		if alias := binding.Field("alias"); alias.Valid() {
			local = alias.Text()
		}
		if !dep.Exported(exported) {
			return diag.Errorf(diag.UnknownSymbol, mod.AST.PosOf(binding),
				"module %q does not export %q", dep.Name, exported)
		}
		mod.Imports = append(mod.Imports, Import{
			Local:    local,
			Exported: exported,
			Module:   dep.Name,
			Path:     dep.Path,
		})
	}
	mod.Deps = append(mod.Deps, dep.Name)
	return nil
}

// collectExport adds the names one export statement contributes: either the
// decorated declaration's name or every name of an export { ... } list.
func collectExport(mod *Module, stmt ast.Node) {
	if decl := stmt.Field("declaration"); decl.Valid() {
		if name := decl.Field("name"); name.Valid() {
			mod.Exports[name.Text()] = struct{}{}
		}
		return
	}
	for _, child := range stmt.NamedChildren() {
		if child.Kind() != ast.ExportClause {
			continue
		}
		for _, spec := range child.NamedChildren() {
			if spec.Kind() != ast.ExportSpecifier {
				continue
			}
			if name := spec.Field("name"); name.Valid() {
				mod.Exports[name.Text()] = struct{}{}
			}
		}
	}
}

// importSpecifier extracts the module specifier string of an import
// statement, quotes stripped.
func importSpecifier(stmt ast.Node) string {
	src := stmt.Field("source")
	if !src.Valid() {
		return ""
	}
	return strings.Trim(src.Text(), "\"'")
}

// namedBindings returns the import_specifier nodes of an import statement.
func namedBindings(stmt ast.Node) []ast.Node {
	var out []ast.Node
	for _, child := range stmt.NamedChildren() {
		if child.Kind() != ast.ImportClause {
			continue
		}
		for _, clause := range child.NamedChildren() {
			if clause.Kind() != ast.NamedImports {
				continue
			}
			for _, spec := range clause.NamedChildren() {
				if spec.Kind() == ast.ImportSpecifier {
					out = append(out, spec)
				}
			}
		}
	}
	return out
}

// normalize makes a path absolute and appends the source extension when the
// specifier omitted it.
func normalize(path string) (string, error) {
	if filepath.Ext(path) == "" {
		path += sourceExt
	}
	return filepath.Abs(path)
}
