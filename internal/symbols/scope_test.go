package symbols

import "testing"

func TestDeclareAndLookup(t *testing.T) {
	tab := NewTable()
	v := tab.Declare("sum", "i32")
	if v.Reg != "%sum" || v.IR != "i32" || !v.IsPointer {
		t.Fatalf("unexpected variable: %+v", v)
	}
	got, ok := tab.Lookup("sum")
	if !ok || got != v {
		t.Fatalf("Lookup(sum) = %v/%v", got, ok)
	}
	if _, ok := tab.Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) unexpectedly succeeded")
	}
}

func TestShadowingAndPop(t *testing.T) {
	tab := NewTable()
	outer := tab.Declare("x", "i32")

	tab.Push()
	inner := tab.Declare("x", "i8*")
	if inner.Reg == outer.Reg {
		t.Fatalf("shadowed binding reuses register %q", inner.Reg)
	}
	if got, _ := tab.Lookup("x"); got != inner {
		t.Fatalf("inner scope lookup = %+v, want the shadowing binding", got)
	}

	tab.Pop()
	if got, _ := tab.Lookup("x"); got != outer {
		t.Fatalf("after pop lookup = %+v, want the outer binding", got)
	}
}

func TestCountersResetPerFunction(t *testing.T) {
	tab := NewTable()
	if got := tab.NextTemp(); got != "%t0" {
		t.Fatalf("first temp = %q, want %%t0", got)
	}
	if got := tab.NextTemp(); got != "%t1" {
		t.Fatalf("second temp = %q, want %%t1", got)
	}
	if got := tab.NextLabelID(); got != 0 {
		t.Fatalf("first label id = %d, want 0", got)
	}
	if got := tab.NextLabelID(); got != 1 {
		t.Fatalf("second label id = %d, want 1", got)
	}

	tab.Reset()
	if got := tab.NextTemp(); got != "%t0" {
		t.Fatalf("temp after reset = %q, want %%t0", got)
	}
	if got := tab.NextLabelID(); got != 0 {
		t.Fatalf("label id after reset = %d, want 0", got)
	}
	if _, ok := tab.Lookup("x"); ok {
		t.Fatalf("bindings survived reset")
	}
}

func TestFunctionTableMethods(t *testing.T) {
	ft := NewFunctionTable()
	area := &Function{Name: "area", Mangled: "Rect_area", Ret: "i32"}
	if err := ft.Declare(area); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	ft.DeclareMethod("Rect", area)

	if fn, ok := ft.Method("Rect", "area"); !ok || fn != area {
		t.Fatalf("Method lookup = %v/%v", fn, ok)
	}
	if _, ok := ft.Method("Rect", "perimeter"); ok {
		t.Fatalf("unexpected method hit")
	}
	if _, ok := ft.LookupMangled("Rect_area"); !ok {
		t.Fatalf("mangled lookup failed")
	}
	if err := ft.Declare(&Function{Name: "area2", Mangled: "Rect_area"}); err == nil {
		t.Fatalf("expected mangled-name collision error")
	}
}

func TestExternTableDedup(t *testing.T) {
	et := NewExternTable()
	printf := &Extern{Name: "printf", Ret: "i32", Params: []Param{{Name: "format", IR: "i8*"}}, Variadic: true}
	if err := et.Declare(printf); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	// Identical re-declaration is fine (prelude + user module).
	if err := et.Declare(printf); err != nil {
		t.Fatalf("identical re-declare failed: %v", err)
	}
	if len(et.All()) != 1 {
		t.Fatalf("extern list has %d entries, want 1", len(et.All()))
	}
	if err := et.Declare(&Extern{Name: "printf", Ret: "void"}); err == nil {
		t.Fatalf("expected conflicting signature error")
	}
}
