package llvm

import (
	"fmt"
	"strings"

	"github.com/kdetry/MicroTS/internal/ast"
	"github.com/kdetry/MicroTS/internal/diag"
)

// walkStmt dispatches one statement. Statements that transfer control set
// w.terminated so no instruction lands after a terminator.
func (w *Walker) walkStmt(n ast.Node) error {
	if w.terminated {
		// Unreachable until the next label; nothing may follow the terminator.
		return nil
	}
	switch n.Kind() {
	case ast.LexicalDeclaration:
		for _, d := range n.NamedChildren() {
			if d.Kind() != ast.VariableDeclarator {
				continue
			}
			if err := w.walkVarDecl(d); err != nil {
				return err
			}
		}
		return nil
	case ast.ExpressionStatement:
		_, err := w.walkExpr(n.NamedChild(0))
		return err
	case ast.ReturnStatement:
		return w.walkReturn(n)
	case ast.IfStatement:
		return w.walkIf(n)
	case ast.WhileStatement:
		return w.walkWhile(n)
	case ast.ForStatement:
		return w.walkFor(n)
	case ast.StatementBlock:
		w.syms.Push()
		defer w.syms.Pop()
		for _, stmt := range n.NamedChildren() {
			if err := w.walkStmt(stmt); err != nil {
				return err
			}
		}
		return nil
	case ast.EmptyStatement:
		return nil
	}
	return w.errf(diag.UnsupportedConstruct, n, "unsupported statement %q", n.GrammarType())
}

// walkVarDecl lowers one declarator: allocate the stack slot, then store
// the initializer. A record-typed slot initialized from an i8* expression
// (the malloc convention) gets the bitcast before the store.
func (w *Walker) walkVarDecl(d ast.Node) error {
	name := d.Field("name").Text()

	declared := ""
	if annot := d.Field("type"); annot.Valid() {
		surface, err := w.annotatedType(d)
		if err != nil {
			return err
		}
		declared, err = w.sh.Mapper.Map(surface)
		if err != nil {
			return w.errf(diag.UnknownSymbol, d, "variable %q: %s", name, err)
		}
	}

	init := d.Field("value")
	var initVal value
	if init.Valid() {
		v, err := w.walkExpr(init)
		if err != nil {
			return err
		}
		initVal = v
	}

	ir := declared
	if ir == "" {
		if !init.Valid() || initVal.typ == "" || initVal.typ == "void" {
			return w.errf(diag.UnsupportedConstruct, d,
				"cannot infer a type for variable %q", name)
		}
		ir = initVal.typ
	}

	v := w.syms.Declare(name, ir)
	w.sh.Emitter.Alloca(v.Reg, ir)
	if init.Valid() {
		stored := w.coerceRecordPointer(initVal, ir)
		w.sh.Emitter.Store(ir, stored.reg, v.Reg)
	}
	return nil
}

// coerceRecordPointer inserts the i8*-to-pointer bitcast the heap
// constructor convention relies on: malloc yields i8*, the declared slot is
// a record or array pointer. Any other mismatch passes through untouched.
func (w *Walker) coerceRecordPointer(v value, wantIR string) value {
	if v.typ == wantIR || v.typ != "i8*" {
		return v
	}
	if !strings.HasSuffix(wantIR, "*") {
		return v
	}
	tmp := w.syms.NextTemp()
	w.sh.Emitter.Bitcast(tmp, "i8*", v.reg, wantIR)
	return value{reg: tmp, typ: wantIR}
}

// walkReturn emits ret typed by the enclosing function's return type.
func (w *Walker) walkReturn(n ast.Node) error {
	if n.NamedChildCount() == 0 {
		w.sh.Emitter.RetVoid()
		w.terminated = true
		return nil
	}
	v, err := w.walkExpr(n.NamedChild(0))
	if err != nil {
		return err
	}
	v = w.coerceRecordPointer(v, w.fn.Ret)
	w.sh.Emitter.Ret(w.fn.Ret, v.reg)
	w.terminated = true
	return nil
}

// boolValue lowers an expression into an i1. Comparison results pass
// through; any other value compares against zero.
func (w *Walker) boolValue(n ast.Node) (string, error) {
	v, err := w.walkExpr(n)
	if err != nil {
		return "", err
	}
	if v.typ == "i1" {
		return v.reg, nil
	}
	tmp := w.syms.NextTemp()
	w.sh.Emitter.Compare(tmp, "icmp", "ne", v.typ, v.reg, "0")
	return tmp, nil
}

func (w *Walker) walkIf(n ast.Node) error {
	id := w.syms.NextLabelID()
	thenLabel := fmt.Sprintf("if.then%d", id)
	elseLabel := fmt.Sprintf("if.else%d", id)
	endLabel := fmt.Sprintf("if.end%d", id)

	cond, err := w.boolValue(n.Field("condition"))
	if err != nil {
		return err
	}
	alt := n.Field("alternative")
	if alt.Valid() {
		w.sh.Emitter.CondBr(cond, thenLabel, elseLabel)
	} else {
		w.sh.Emitter.CondBr(cond, thenLabel, endLabel)
	}

	w.sh.Emitter.Label(thenLabel)
	w.terminated = false
	if err := w.walkStmt(n.Field("consequence")); err != nil {
		return err
	}
	if !w.terminated {
		w.sh.Emitter.Br(endLabel)
	}

	if alt.Valid() {
		w.sh.Emitter.Label(elseLabel)
		w.terminated = false
		if err := w.walkStmt(alt.NamedChild(0)); err != nil {
			return err
		}
		if !w.terminated {
			w.sh.Emitter.Br(endLabel)
		}
	}

	w.sh.Emitter.Label(endLabel)
	w.terminated = false
	return nil
}

func (w *Walker) walkWhile(n ast.Node) error {
	id := w.syms.NextLabelID()
	condLabel := fmt.Sprintf("while.cond%d", id)
	bodyLabel := fmt.Sprintf("while.body%d", id)
	endLabel := fmt.Sprintf("while.end%d", id)

	w.sh.Emitter.Br(condLabel)
	w.sh.Emitter.Label(condLabel)
	cond, err := w.boolValue(n.Field("condition"))
	if err != nil {
		return err
	}
	w.sh.Emitter.CondBr(cond, bodyLabel, endLabel)

	w.sh.Emitter.Label(bodyLabel)
	w.terminated = false
	if err := w.walkStmt(n.Field("body")); err != nil {
		return err
	}
	if !w.terminated {
		w.sh.Emitter.Br(condLabel)
	}

	w.sh.Emitter.Label(endLabel)
	w.terminated = false
	return nil
}

// walkFor lowers: initializer, cond block, conditional branch to body or
// end, body, optional increment, branch back to cond. A for with no
// condition branches into the body unconditionally.
func (w *Walker) walkFor(n ast.Node) error {
	w.syms.Push()
	defer w.syms.Pop()

	id := w.syms.NextLabelID()
	condLabel := fmt.Sprintf("for.cond%d", id)
	bodyLabel := fmt.Sprintf("for.body%d", id)
	endLabel := fmt.Sprintf("for.end%d", id)

	if init := n.Field("initializer"); init.Valid() && init.Kind() != ast.EmptyStatement {
		if err := w.walkStmt(init); err != nil {
			return err
		}
	}
	w.sh.Emitter.Br(condLabel)
	w.sh.Emitter.Label(condLabel)

	cond := n.Field("condition")
	if cond.Kind() == ast.ExpressionStatement {
		cond = cond.NamedChild(0)
	}
	if cond.Valid() && cond.Kind() != ast.EmptyStatement {
		c, err := w.boolValue(cond)
		if err != nil {
			return err
		}
		w.sh.Emitter.CondBr(c, bodyLabel, endLabel)
	} else {
		w.sh.Emitter.Br(bodyLabel)
	}

	w.sh.Emitter.Label(bodyLabel)
	w.terminated = false
	if err := w.walkStmt(n.Field("body")); err != nil {
		return err
	}
	if !w.terminated {
		if incr := n.Field("increment"); incr.Valid() {
			if _, err := w.walkExpr(incr); err != nil {
				return err
			}
		}
		w.sh.Emitter.Br(condLabel)
	}

	w.sh.Emitter.Label(endLabel)
	w.terminated = false
	return nil
}
