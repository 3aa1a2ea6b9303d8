package llvm

import (
	"strings"

	"github.com/kdetry/MicroTS/internal/ast"
	"github.com/kdetry/MicroTS/internal/diag"
)

// recordPointer lowers an expression that must denote a record value and
// returns (pointer register, record IR type without the trailing *). The
// base case loads a variable's slot; a member access loads the computed
// field slot, so chains like line.start.x walk one hop at a time.
func (w *Walker) recordPointer(n ast.Node) (string, string, error) {
	switch n.Kind() {
	case ast.Identifier, ast.ThisExpression:
		name := n.Text()
		v, ok := w.syms.Lookup(name)
		if !ok {
			return "", "", w.errf(diag.UnknownSymbol, n, "unknown identifier %q", name)
		}
		if !strings.HasPrefix(v.IR, "%") || !strings.HasSuffix(v.IR, "*") {
			return "", "", w.errf(diag.UnsupportedConstruct, n,
				"%q is not a record (type %s)", name, v.IR)
		}
		tmp := w.syms.NextTemp()
		w.sh.Emitter.Load(tmp, v.IR, v.Reg)
		return tmp, strings.TrimSuffix(v.IR, "*"), nil

	case ast.ParenthesizedExpression:
		return w.recordPointer(n.NamedChild(0))

	case ast.MemberExpression:
		addr, fieldIR, err := w.fieldAddress(n)
		if err != nil {
			return "", "", err
		}
		if !strings.HasPrefix(fieldIR, "%") || !strings.HasSuffix(fieldIR, "*") {
			return "", "", w.errf(diag.UnsupportedConstruct, n,
				"field is not a record (type %s)", fieldIR)
		}
		tmp := w.syms.NextTemp()
		w.sh.Emitter.Load(tmp, fieldIR, addr)
		return tmp, strings.TrimSuffix(fieldIR, "*"), nil
	}
	return "", "", w.errf(diag.UnsupportedConstruct, n,
		"unsupported receiver %q", n.GrammarType())
}

// fieldAddress computes the l-value of obj.field: the parent's record
// pointer, the field index from the registry, one getelementptr. It
// returns the field pointer and the field's IR type.
func (w *Walker) fieldAddress(n ast.Node) (string, string, error) {
	base, recTy, err := w.recordPointer(n.Field("object"))
	if err != nil {
		return "", "", err
	}
	fieldName := n.Field("property").Text()
	rec, ok := w.sh.Registry.Lookup(strings.TrimPrefix(recTy, "%"))
	if !ok {
		return "", "", w.errf(diag.UnknownSymbol, n, "unknown record type %s", recTy)
	}
	f, ok := rec.Field(fieldName)
	if !ok {
		return "", "", w.errf(diag.UnknownSymbol, n,
			"record %q has no field %q", rec.Name, fieldName)
	}
	tmp := w.syms.NextTemp()
	w.sh.Emitter.StructGEP(tmp, recTy, base, f.Index)
	return tmp, f.IR, nil
}

// elementAddress computes the l-value of arr[i]: load the base pointer,
// getelementptr on the element type. Returns the element pointer and the
// element IR type.
func (w *Walker) elementAddress(n ast.Node) (string, string, error) {
	base, err := w.walkExpr(n.Field("object"))
	if err != nil {
		return "", "", err
	}
	if !strings.HasSuffix(base.typ, "*") {
		return "", "", w.errf(diag.UnsupportedConstruct, n,
			"cannot index a value of type %s", base.typ)
	}
	idx, err := w.walkExpr(n.Field("index"))
	if err != nil {
		return "", "", err
	}
	elemIR := strings.TrimSuffix(base.typ, "*")
	tmp := w.syms.NextTemp()
	w.sh.Emitter.ElemGEP(tmp, elemIR, base.reg, idx.reg)
	return tmp, elemIR, nil
}

// walkAssign splits on the target kind: identifier, array element, or
// property path. Anything else is not an l-value.
func (w *Walker) walkAssign(n ast.Node) (value, error) {
	target := n.Field("left")
	rhs, err := w.walkExpr(n.Field("right"))
	if err != nil {
		return value{}, err
	}

	switch target.Kind() {
	case ast.Identifier, ast.ThisExpression:
		name := target.Text()
		v, ok := w.syms.Lookup(name)
		if !ok {
			return value{}, w.errf(diag.UnknownSymbol, target, "unknown identifier %q", name)
		}
		stored := w.coerceRecordPointer(rhs, v.IR)
		w.sh.Emitter.Store(v.IR, stored.reg, v.Reg)
		return stored, nil

	case ast.SubscriptExpression:
		ptr, elemIR, err := w.elementAddress(target)
		if err != nil {
			return value{}, err
		}
		w.sh.Emitter.Store(elemIR, rhs.reg, ptr)
		return rhs, nil

	case ast.MemberExpression:
		addr, fieldIR, err := w.fieldAddress(target)
		if err != nil {
			return value{}, err
		}
		stored := w.coerceRecordPointer(rhs, fieldIR)
		w.sh.Emitter.Store(fieldIR, stored.reg, addr)
		return stored, nil
	}
	return value{}, w.errf(diag.BadAssignTarget, target,
		"cannot assign to %q", target.GrammarType())
}
