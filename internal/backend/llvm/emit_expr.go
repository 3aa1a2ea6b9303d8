package llvm

import (
	"strings"

	"github.com/kdetry/MicroTS/internal/ast"
	"github.com/kdetry/MicroTS/internal/diag"
	"github.com/kdetry/MicroTS/internal/types"
)

// value is one lowered expression result: the register (or literal text)
// plus its IR type. Tracking the type here is what lets boolean coercion
// and the record bitcast work without inspecting register spellings.
type value struct {
	reg string
	typ string
}

func (w *Walker) walkExpr(n ast.Node) (value, error) {
	switch n.Kind() {
	case ast.NumberLiteral:
		text := n.Text()
		if strings.Contains(text, ".") {
			return value{reg: text, typ: "double"}, nil
		}
		return value{reg: text, typ: "i32"}, nil

	case ast.StringLiteral:
		raw := stripQuotes(n.Text())
		global, length := w.sh.Emitter.AddStringConstant(raw)
		tmp := w.syms.NextTemp()
		w.sh.Emitter.StringGEP(tmp, global, length)
		return value{reg: tmp, typ: "i8*"}, nil

	case ast.TrueLiteral:
		return value{reg: "1", typ: "i1"}, nil
	case ast.FalseLiteral:
		return value{reg: "0", typ: "i1"}, nil

	case ast.Identifier, ast.ThisExpression:
		name := n.Text()
		v, ok := w.syms.Lookup(name)
		if !ok {
			return value{}, w.errf(diag.UnknownSymbol, n, "unknown identifier %q", name)
		}
		tmp := w.syms.NextTemp()
		w.sh.Emitter.Load(tmp, v.IR, v.Reg)
		return value{reg: tmp, typ: v.IR}, nil

	case ast.ParenthesizedExpression:
		return w.walkExpr(n.NamedChild(0))

	case ast.UnaryExpression:
		return w.walkUnary(n)

	case ast.BinaryExpression:
		return w.walkBinary(n)

	case ast.AssignmentExpression:
		return w.walkAssign(n)

	case ast.CallExpression:
		return w.walkCall(n)

	case ast.MemberExpression:
		addr, fieldIR, err := w.fieldAddress(n)
		if err != nil {
			return value{}, err
		}
		tmp := w.syms.NextTemp()
		w.sh.Emitter.Load(tmp, fieldIR, addr)
		return value{reg: tmp, typ: fieldIR}, nil

	case ast.SubscriptExpression:
		ptr, elemIR, err := w.elementAddress(n)
		if err != nil {
			return value{}, err
		}
		tmp := w.syms.NextTemp()
		w.sh.Emitter.Load(tmp, elemIR, ptr)
		return value{reg: tmp, typ: elemIR}, nil
	}
	return value{}, w.errf(diag.UnsupportedConstruct, n, "unsupported expression %q", n.GrammarType())
}

// walkUnary lowers prefix minus and logical not.
func (w *Walker) walkUnary(n ast.Node) (value, error) {
	op := n.Field("operator").Text()
	arg, err := w.walkExpr(n.Field("argument"))
	if err != nil {
		return value{}, err
	}
	switch op {
	case "-":
		inst := "sub"
		zero := "0"
		if types.IsFloat(arg.typ) {
			inst = "fsub"
			zero = "0.0"
		}
		tmp := w.syms.NextTemp()
		w.sh.Emitter.Binary(tmp, inst, arg.typ, zero, arg.reg)
		return value{reg: tmp, typ: arg.typ}, nil
	case "!":
		tmp := w.syms.NextTemp()
		w.sh.Emitter.Compare(tmp, "icmp", "eq", arg.typ, arg.reg, "0")
		return value{reg: tmp, typ: "i1"}, nil
	}
	return value{}, w.errf(diag.UnsupportedConstruct, n, "unsupported unary operator %q", op)
}

// walkBinary lowers arithmetic and comparisons; the operand IR type picks
// the integer or floating instruction family.
func (w *Walker) walkBinary(n ast.Node) (value, error) {
	lhs, err := w.walkExpr(n.Field("left"))
	if err != nil {
		return value{}, err
	}
	rhs, err := w.walkExpr(n.Field("right"))
	if err != nil {
		return value{}, err
	}
	op := n.Field("operator").Text()

	if types.IsCompare(op) {
		inst, pred, err := types.CompareOp(op, lhs.typ)
		if err != nil {
			return value{}, w.errf(diag.UnsupportedConstruct, n, "%s", err)
		}
		tmp := w.syms.NextTemp()
		w.sh.Emitter.Compare(tmp, inst, pred, lhs.typ, lhs.reg, rhs.reg)
		return value{reg: tmp, typ: "i1"}, nil
	}

	inst, err := types.BinaryOp(op, lhs.typ)
	if err != nil {
		return value{}, w.errf(diag.UnsupportedConstruct, n, "%s", err)
	}
	tmp := w.syms.NextTemp()
	w.sh.Emitter.Binary(tmp, inst, lhs.typ, lhs.reg, rhs.reg)
	return value{reg: tmp, typ: lhs.typ}, nil
}

// stripQuotes removes the surrounding quotes of a string literal, keeping
// escapes unresolved; the emitter decodes them when interning.
func stripQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
