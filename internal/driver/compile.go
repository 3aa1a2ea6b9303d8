// Package driver owns the compilation pipeline: one Compilation handle
// carries the shared registries through the prelude load, module
// resolution, the per-module walks, and finalization.
package driver

import (
	"github.com/kdetry/MicroTS/internal/backend/llvm"
	"github.com/kdetry/MicroTS/internal/layout"
	"github.com/kdetry/MicroTS/internal/project"
	"github.com/kdetry/MicroTS/internal/source"
	"github.com/kdetry/MicroTS/internal/symbols"
	"github.com/kdetry/MicroTS/internal/types"
)

// Options configure one compilation.
type Options struct {
	TargetTriple string
	PreludePath  string // empty selects the embedded descriptor
}

// Compilation owns every shared registry for one pipeline run. Registries
// are created once and threaded through all modules; nothing here is a
// package-level global.
type Compilation struct {
	opts Options

	Emitter  *llvm.Emitter
	Mapper   *types.Mapper
	Registry *layout.Registry
	Externs  *symbols.ExternTable
	Funcs    *symbols.FunctionTable

	// Modules is the resolved graph in compilation order, available after
	// Compile for metadata emission.
	Modules []*project.Module
}

func NewCompilation(opts Options) *Compilation {
	registry := layout.NewRegistry()
	return &Compilation{
		opts:     opts,
		Mapper:   types.NewMapper(registry),
		Registry: registry,
		Externs:  symbols.NewExternTable(),
		Funcs:    symbols.NewFunctionTable(),
	}
}

// Compile runs the pipeline for one entry file and returns the IR text.
// The first error aborts the compilation.
func (c *Compilation) Compile(entry string) (string, error) {
	c.Emitter = llvm.NewEmitter(source.ShortName(entry), c.opts.TargetTriple)

	prelude, err := symbols.LoadPrelude(c.opts.PreludePath, c.Mapper, c.Externs)
	if err != nil {
		return "", err
	}
	for _, ex := range prelude {
		paramIRs := make([]string, len(ex.Params))
		for i, p := range ex.Params {
			paramIRs[i] = p.IR
		}
		c.Emitter.AddExternFunction(ex.Name, ex.Ret, paramIRs, ex.Variadic)
	}

	mods, err := project.NewResolver().Resolve(entry)
	if err != nil {
		return "", err
	}
	c.Modules = mods

	shared := &llvm.Shared{
		Emitter:  c.Emitter,
		Mapper:   c.Mapper,
		Registry: c.Registry,
		Externs:  c.Externs,
		Funcs:    c.Funcs,
	}
	for _, mod := range mods {
		if err := llvm.NewWalker(shared, mod).Walk(); err != nil {
			return "", err
		}
	}

	// Generic records instantiated from function signatures or bodies are
	// registered after the per-module struct flush; pick them up here.
	order, err := c.Registry.TopoOrder()
	if err != nil {
		return "", err
	}
	for _, rec := range order {
		if !c.Emitter.HasStruct(rec.Name) {
			c.Emitter.AddStructType(rec.Name, rec.FieldIRs())
		}
	}

	return c.Emitter.Output(), nil
}
