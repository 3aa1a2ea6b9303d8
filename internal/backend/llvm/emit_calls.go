package llvm

import (
	"strconv"
	"strings"

	"github.com/kdetry/MicroTS/internal/ast"
	"github.com/kdetry/MicroTS/internal/diag"
	"github.com/kdetry/MicroTS/internal/symbols"
)

// walkCall lowers a call expression. A member-expression callee is a
// uniform method call; an identifier callee resolves through imports, the
// module's own functions, then externs.
func (w *Walker) walkCall(n ast.Node) (value, error) {
	callee := n.Field("function")
	switch callee.Kind() {
	case ast.MemberExpression:
		return w.walkMethodCall(n, callee)
	case ast.Identifier:
	default:
		return value{}, w.errf(diag.UnsupportedConstruct, callee,
			"unsupported callee %q", callee.GrammarType())
	}

	name := callee.Text()
	if name == "sizeof" {
		return w.walkSizeof(n)
	}

	if imp, ok := w.imports[name]; ok {
		mangled := imp.Module + "_" + imp.Exported
		fn, ok := w.sh.Funcs.LookupMangled(mangled)
		if !ok {
			return value{}, w.errf(diag.UnknownSymbol, callee,
				"imported function %q has no definition in module %q", imp.Exported, imp.Module)
		}
		return w.emitUserCall(n, fn, nil)
	}
	if fn, ok := w.locals[name]; ok {
		return w.emitUserCall(n, fn, nil)
	}
	if ex, ok := w.sh.Externs.Lookup(name); ok {
		return w.emitExternCall(n, ex)
	}
	return value{}, w.errf(diag.UnknownSymbol, callee, "unknown function %q", name)
}

// walkMethodCall dispatches obj.m(args) statically: the receiver's record
// type picks the method table, and the receiver pointer is prepended as the
// first argument. There are no vtables.
func (w *Walker) walkMethodCall(n, callee ast.Node) (value, error) {
	recv, recTy, err := w.recordPointer(callee.Field("object"))
	if err != nil {
		return value{}, err
	}
	methodName := callee.Field("property").Text()
	recName := strings.TrimPrefix(recTy, "%")
	fn, ok := w.sh.Funcs.Method(recName, methodName)
	if !ok {
		return value{}, w.errf(diag.UnknownSymbol, callee,
			"record %q has no method %q", recName, methodName)
	}
	receiver := []Arg{{IR: recTy + "*", Val: recv}}
	return w.emitUserCall(n, fn, receiver)
}

// emitUserCall lowers the arguments against the callee's parameter list and
// writes the direct call. A non-empty prefix carries the receiver.
func (w *Walker) emitUserCall(n ast.Node, fn *symbols.Function, prefix []Arg) (value, error) {
	args, err := w.lowerArgs(n.Field("arguments"), fn.Params[len(prefix):], false)
	if err != nil {
		return value{}, err
	}
	args = append(prefix, args...)

	if fn.Ret == "void" {
		w.sh.Emitter.Call("", fn.Ret, fn.Mangled, args)
		return value{typ: "void"}, nil
	}
	tmp := w.syms.NextTemp()
	w.sh.Emitter.Call(tmp, fn.Ret, fn.Mangled, args)
	return value{reg: tmp, typ: fn.Ret}, nil
}

// emitExternCall lowers a C FFI call; variadic externs use the
// (params, ...) signature syntax.
func (w *Walker) emitExternCall(n ast.Node, ex *symbols.Extern) (value, error) {
	args, err := w.lowerArgs(n.Field("arguments"), ex.Params, ex.Variadic)
	if err != nil {
		return value{}, err
	}

	dst := ""
	if ex.Ret != "void" {
		dst = w.syms.NextTemp()
	}
	if ex.Variadic {
		declared := make([]string, len(ex.Params))
		for i, p := range ex.Params {
			declared[i] = p.IR
		}
		w.sh.Emitter.VariadicCall(dst, ex.Ret, declared, ex.Name, args)
	} else {
		w.sh.Emitter.Call(dst, ex.Ret, ex.Name, args)
	}
	return value{reg: dst, typ: ex.Ret}, nil
}

// lowerArgs evaluates arguments left to right. Each argument's IR type is
// the callee's parameter type at that position; positions beyond the
// declared arity (variadic externs only) fall back to i32, or i8* for a
// string literal.
func (w *Walker) lowerArgs(argList ast.Node, params []symbols.Param, variadic bool) ([]Arg, error) {
	if !argList.Valid() {
		return nil, nil
	}
	nodes := argList.NamedChildren()
	if !variadic && len(nodes) != len(params) {
		return nil, w.errf(diag.UnknownSymbol, argList,
			"expected %d arguments, got %d", len(params), len(nodes))
	}
	args := make([]Arg, 0, len(nodes))
	for i, argNode := range nodes {
		v, err := w.walkExpr(argNode)
		if err != nil {
			return nil, err
		}
		var ir string
		switch {
		case i < len(params):
			ir = params[i].IR
		case argNode.Kind() == ast.StringLiteral:
			ir = "i8*"
		default:
			ir = "i32"
		}
		args = append(args, Arg{IR: ir, Val: v.reg})
	}
	return args, nil
}

// walkSizeof materializes the total byte size of a record as an integer
// literal. The type argument must name a registered record; generic
// references instantiate on first use here like anywhere else.
func (w *Walker) walkSizeof(n ast.Node) (value, error) {
	targs := n.Field("type_arguments")
	if !targs.Valid() || targs.NamedChildCount() == 0 {
		return value{}, w.errf(diag.IntrinsicMisuse, n, "sizeof requires a type argument")
	}
	surface := targs.NamedChild(0).Text()
	ir, err := w.sh.Mapper.Map(surface)
	if err != nil {
		return value{}, w.errf(diag.IntrinsicMisuse, n, "sizeof<%s>: %s", surface, err)
	}
	if !strings.HasPrefix(ir, "%") || !strings.HasSuffix(ir, "*") {
		return value{}, w.errf(diag.IntrinsicMisuse, n,
			"sizeof<%s>: not a record type", surface)
	}
	rec, ok := w.sh.Registry.Lookup(strings.TrimSuffix(strings.TrimPrefix(ir, "%"), "*"))
	if !ok {
		return value{}, w.errf(diag.IntrinsicMisuse, n,
			"sizeof<%s>: unregistered record", surface)
	}
	return value{reg: strconv.Itoa(rec.Size), typ: "i32"}, nil
}
