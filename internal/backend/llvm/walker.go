package llvm

import (
	"strings"

	"github.com/kdetry/MicroTS/internal/ast"
	"github.com/kdetry/MicroTS/internal/diag"
	"github.com/kdetry/MicroTS/internal/layout"
	"github.com/kdetry/MicroTS/internal/project"
	"github.com/kdetry/MicroTS/internal/symbols"
	"github.com/kdetry/MicroTS/internal/types"
)

// Shared bundles the compilation-wide registries every walker is bound to.
// One Shared lives for the whole compilation; a fresh Walker is built per
// module.
type Shared struct {
	Emitter  *Emitter
	Mapper   *types.Mapper
	Registry *layout.Registry
	Externs  *symbols.ExternTable
	Funcs    *symbols.FunctionTable
}

// Walker lowers one module's AST into the shared emitter. It runs three
// ordered passes over the top level: record registration, extern
// declarations, then function bodies.
type Walker struct {
	sh      *Shared
	mod     *project.Module
	imports map[string]project.Import

	// module-local function names; the shared table indexes by mangled name
	locals map[string]*symbols.Function

	syms       *symbols.Table
	fn         *symbols.Function // function being lowered
	terminated bool              // current basic block already ended
}

func NewWalker(sh *Shared, mod *project.Module) *Walker {
	return &Walker{
		sh:      sh,
		mod:     mod,
		imports: mod.ImportMap(),
		locals:  make(map[string]*symbols.Function),
		syms:    symbols.NewTable(),
	}
}

// Walk lowers the module.
func (w *Walker) Walk() error {
	if err := w.walkRecords(); err != nil {
		return err
	}
	if err := w.walkExterns(); err != nil {
		return err
	}
	return w.walkBodies()
}

// topDecls yields the module's top-level declarations with export wrappers
// peeled off.
func (w *Walker) topDecls() []ast.Node {
	var out []ast.Node
	for _, top := range w.mod.AST.Root.NamedChildren() {
		if top.Kind() == ast.ExportStatement {
			if decl := top.Field("declaration"); decl.Valid() {
				out = append(out, decl)
			}
			continue
		}
		out = append(out, top)
	}
	return out
}

func (w *Walker) errf(code diag.Code, n ast.Node, format string, args ...any) error {
	return diag.Errorf(code, w.mod.AST.PosOf(n), format, args...)
}

// pendingRecord is a concrete record awaiting field mapping; names are
// declared first so sibling records can reference each other regardless of
// declaration order.
type pendingRecord struct {
	name   string
	node   ast.Node
	fields []fieldDecl
}

type fieldDecl struct {
	name    string
	surface string
	node    ast.Node
}

// walkRecords registers every interface-like record of the module and then
// hands the registry's dependency order to the emitter. Generic records
// become templates; instantiation happens lazily at first use.
func (w *Walker) walkRecords() error {
	var pending []pendingRecord
	for _, decl := range w.topDecls() {
		if decl.Kind() == ast.Bad {
			return w.errf(diag.UnsupportedConstruct, decl,
				"unsupported declaration %q", decl.GrammarType())
		}
		if decl.Kind() != ast.InterfaceDeclaration {
			continue
		}
		name := decl.Field("name").Text()
		fields, err := w.recordFields(decl)
		if err != nil {
			return err
		}

		if tp := decl.Field("type_parameters"); tp.Valid() {
			params := typeParamNames(tp)
			specs := make([]types.FieldSpec, len(fields))
			for i, f := range fields {
				specs[i] = types.FieldSpec{Name: f.name, Surface: f.surface}
			}
			if err := w.sh.Registry.RegisterTemplate(name, params, specs); err != nil {
				return w.errf(diag.TypeLayout, decl, "%s", err)
			}
			continue
		}

		if err := w.sh.Registry.Declare(name); err != nil {
			return w.errf(diag.TypeLayout, decl, "%s", err)
		}
		pending = append(pending, pendingRecord{name: name, node: decl, fields: fields})
	}

	for _, rec := range pending {
		laid := make([]layout.Field, 0, len(rec.fields))
		for _, f := range rec.fields {
			ir, err := w.sh.Mapper.Map(f.surface)
			if err != nil {
				return w.errf(diag.UnknownSymbol, f.node, "field %q: %s", f.name, err)
			}
			laid = append(laid, layout.Field{Name: f.name, Surface: f.surface, IR: ir})
		}
		if _, err := w.sh.Registry.Register(rec.name, laid); err != nil {
			return w.errf(diag.TypeLayout, rec.node, "%s", err)
		}
	}

	return w.flushStructTypes()
}

// flushStructTypes emits every registered record the emitter has not seen
// yet, in dependency order.
func (w *Walker) flushStructTypes() error {
	order, err := w.sh.Registry.TopoOrder()
	if err != nil {
		return diag.Errorf(diag.ResolveCycle, w.mod.AST.PosOf(w.mod.AST.Root), "%s", err)
	}
	for _, rec := range order {
		if !w.sh.Emitter.HasStruct(rec.Name) {
			w.sh.Emitter.AddStructType(rec.Name, rec.FieldIRs())
		}
	}
	return nil
}

// recordFields extracts the property signatures of an interface body.
// Optional fields are rejected.
func (w *Walker) recordFields(decl ast.Node) ([]fieldDecl, error) {
	body := decl.Field("body")
	if !body.Valid() {
		return nil, nil
	}
	var out []fieldDecl
	for _, prop := range body.NamedChildren() {
		if prop.Kind() != ast.PropertySignature {
			return nil, w.errf(diag.UnsupportedConstruct, prop,
				"unsupported record member %q", prop.GrammarType())
		}
		if prop.HasToken("?") {
			return nil, w.errf(diag.TypeLayout, prop, "optional fields are not supported")
		}
		name := prop.Field("name").Text()
		surface, err := w.annotatedType(prop)
		if err != nil {
			return nil, err
		}
		out = append(out, fieldDecl{name: name, surface: surface, node: prop})
	}
	return out, nil
}

// annotatedType returns the surface-type text of a node's type annotation.
func (w *Walker) annotatedType(n ast.Node) (string, error) {
	annot := n.Field("type")
	if !annot.Valid() {
		return "", w.errf(diag.TypeLayout, n, "missing type annotation")
	}
	inner := annot.NamedChild(0)
	if !inner.Valid() {
		return "", w.errf(diag.TypeLayout, n, "empty type annotation")
	}
	return inner.Text(), nil
}

// typeParamNames extracts the names of a type_parameters list.
func typeParamNames(tp ast.Node) []string {
	var out []string
	for _, p := range tp.NamedChildren() {
		if p.Kind() != ast.TypeParameter {
			continue
		}
		if name := p.Field("name"); name.Valid() {
			out = append(out, name.Text())
			continue
		}
		out = append(out, p.Text())
	}
	return out
}

// walkExterns registers every bodyless function declaration as a C FFI
// signature. A trailing rest parameter marks the signature variadic.
func (w *Walker) walkExterns() error {
	for _, decl := range w.topDecls() {
		if decl.Kind() != ast.FunctionSignature {
			continue
		}
		name := decl.Field("name").Text()
		params, variadic, err := w.parseParams(decl)
		if err != nil {
			return err
		}
		ret, err := w.returnType(decl)
		if err != nil {
			return err
		}
		ex := &symbols.Extern{Name: name, Ret: ret, Params: params, Variadic: variadic}
		if err := w.sh.Externs.Declare(ex); err != nil {
			return w.errf(diag.TypeLayout, decl, "%s", err)
		}
		paramIRs := make([]string, len(params))
		for i, p := range params {
			paramIRs[i] = p.IR
		}
		w.sh.Emitter.AddExternFunction(name, ret, paramIRs, variadic)
	}
	return nil
}

// walkBodies lowers every function with a body. Signatures are registered
// up front so calls may reference functions declared later in the module.
func (w *Walker) walkBodies() error {
	type loweredFunc struct {
		node ast.Node
		fn   *symbols.Function
	}
	var fns []loweredFunc
	for _, decl := range w.topDecls() {
		if decl.Kind() != ast.FunctionDeclaration {
			continue
		}
		fn, receiver, err := w.signature(decl)
		if err != nil {
			return err
		}
		if err := w.sh.Funcs.Declare(fn); err != nil {
			return w.errf(diag.TypeLayout, decl, "%s", err)
		}
		if receiver != "" {
			w.sh.Funcs.DeclareMethod(receiver, fn)
		}
		w.locals[fn.Name] = fn
		fns = append(fns, loweredFunc{node: decl, fn: fn})
	}
	for _, lf := range fns {
		if err := w.lowerFunction(lf.node, lf.fn); err != nil {
			return err
		}
	}
	return nil
}

// signature resolves a function's mangled name, parameter IR types, and
// return IR type. The second result names the receiver record when the
// function is a method (first parameter `this`).
func (w *Walker) signature(decl ast.Node) (*symbols.Function, string, error) {
	name := decl.Field("name").Text()
	params, variadic, err := w.parseParams(decl)
	if err != nil {
		return nil, "", err
	}
	if variadic {
		return nil, "", w.errf(diag.UnsupportedConstruct, decl,
			"rest parameters are only allowed on extern declarations")
	}
	ret, err := w.returnType(decl)
	if err != nil {
		return nil, "", err
	}

	receiver := ""
	mangled := w.mod.Name + "_" + name
	if name == "main" {
		mangled = "main"
	} else if len(params) > 0 && params[0].Name == "this" {
		receiver = strings.TrimSuffix(strings.TrimPrefix(params[0].IR, "%"), "*")
		if receiver == "" || !strings.HasPrefix(params[0].IR, "%") {
			return nil, "", w.errf(diag.TypeLayout, decl, "this parameter must have a record type")
		}
		mangled = receiver + "_" + name
	}

	return &symbols.Function{
		Name:    name,
		Mangled: mangled,
		Ret:     ret,
		Params:  params,
	}, receiver, nil
}

// parseParams maps a declaration's formal parameters. A rest parameter is
// reported through the variadic flag and contributes no parameter slot.
func (w *Walker) parseParams(decl ast.Node) ([]symbols.Param, bool, error) {
	list := decl.Field("parameters")
	if !list.Valid() {
		return nil, false, nil
	}
	var (
		params   []symbols.Param
		variadic bool
	)
	for _, p := range list.NamedChildren() {
		switch p.Kind() {
		case ast.RequiredParameter:
		case ast.OptionalParameter:
			return nil, false, w.errf(diag.TypeLayout, p, "optional parameters are not supported")
		default:
			return nil, false, w.errf(diag.UnsupportedConstruct, p,
				"unsupported parameter form %q", p.GrammarType())
		}
		pattern := p.Field("pattern")
		if pattern.Kind() == ast.RestPattern {
			variadic = true
			continue
		}
		pname := pattern.Text()
		surface, err := w.annotatedType(p)
		if err != nil {
			return nil, false, err
		}
		ir, err := w.sh.Mapper.Map(surface)
		if err != nil {
			return nil, false, w.errf(diag.UnknownSymbol, p, "parameter %q: %s", pname, err)
		}
		params = append(params, symbols.Param{Name: pname, IR: ir})
	}
	return params, variadic, nil
}

// returnType maps the declared return type. When the annotation is absent
// the fallback mirrors the surface default: i32 if the body returns a
// value, void otherwise.
func (w *Walker) returnType(decl ast.Node) (string, error) {
	if annot := decl.Field("return_type"); annot.Valid() {
		inner := annot.NamedChild(0)
		if !inner.Valid() {
			return "", w.errf(diag.TypeLayout, decl, "empty return type annotation")
		}
		ir, err := w.sh.Mapper.Map(inner.Text())
		if err != nil {
			return "", w.errf(diag.UnknownSymbol, decl, "return type: %s", err)
		}
		return ir, nil
	}
	if body := decl.Field("body"); body.Valid() && hasValueReturn(body) {
		return "i32", nil
	}
	return "void", nil
}

// hasValueReturn scans a body for `return expr`.
func hasValueReturn(n ast.Node) bool {
	if n.Kind() == ast.ReturnStatement {
		return n.NamedChildCount() > 0
	}
	for i := 0; i < n.NamedChildCount(); i++ {
		if hasValueReturn(n.NamedChild(i)) {
			return true
		}
	}
	return false
}

// lowerFunction emits one define: the parameter spill into stack slots,
// the body, and the terminator backstop for void functions.
func (w *Walker) lowerFunction(decl ast.Node, fn *symbols.Function) error {
	w.fn = fn
	w.syms.Reset()
	w.terminated = false

	w.sh.Emitter.StartFunction(fn.Mangled, fn.Ret, fn.Params)
	for _, p := range fn.Params {
		v := w.syms.Declare(p.Name, p.IR)
		w.sh.Emitter.Alloca(v.Reg, p.IR)
		w.sh.Emitter.Store(p.IR, "%"+p.Name+".param", v.Reg)
	}

	body := decl.Field("body")
	for _, stmt := range body.NamedChildren() {
		if err := w.walkStmt(stmt); err != nil {
			return err
		}
	}

	if !w.terminated {
		if fn.Ret == "void" {
			w.sh.Emitter.RetVoid()
		} else {
			w.sh.Emitter.Ret(fn.Ret, zeroValue(fn.Ret))
		}
	}
	w.sh.Emitter.EndFunction()
	return nil
}

// zeroValue is the terminator backstop operand for a fall-through block in
// a non-void function.
func zeroValue(ir string) string {
	switch {
	case strings.HasSuffix(ir, "*"):
		return "null"
	case ir == "float" || ir == "double":
		return "0.0"
	}
	return "0"
}
