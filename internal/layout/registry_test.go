package layout

import (
	"testing"

	"github.com/kdetry/MicroTS/internal/types"
)

func mustRegister(t *testing.T, g *Registry, name string, fields []Field) *Record {
	t.Helper()
	rec, err := g.Register(name, fields)
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", name, err)
	}
	return rec
}

func TestRegisterAssignsIndicesAndOffsets(t *testing.T) {
	g := NewRegistry()
	rec := mustRegister(t, g, "Mixed", []Field{
		{Name: "flag", Surface: "boolean", IR: "i1"},
		{Name: "count", Surface: "i64", IR: "i64"},
		{Name: "name", Surface: "string", IR: "i8*"},
		{Name: "ratio", Surface: "f32", IR: "float"},
	})

	wantOffsets := []int{0, 1, 9, 17}
	wantSizes := []int{1, 8, 8, 4}
	for i, f := range rec.Fields {
		if int(f.Index) != i {
			t.Fatalf("field %q index = %d, want %d", f.Name, f.Index, i)
		}
		if f.Offset != wantOffsets[i] {
			t.Fatalf("field %q offset = %d, want %d", f.Name, f.Offset, wantOffsets[i])
		}
		if f.Size != wantSizes[i] {
			t.Fatalf("field %q size = %d, want %d", f.Name, f.Size, wantSizes[i])
		}
	}
	if rec.Size != 21 {
		t.Fatalf("total size = %d, want 21", rec.Size)
	}
	if rec.Ptr != "%Mixed*" {
		t.Fatalf("pointer type = %q, want %%Mixed*", rec.Ptr)
	}
}

func TestRegisterEmptyRecord(t *testing.T) {
	g := NewRegistry()
	rec := mustRegister(t, g, "Empty", nil)
	if rec.Size != 0 {
		t.Fatalf("empty record size = %d, want 0", rec.Size)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	g := NewRegistry()
	mustRegister(t, g, "Point", []Field{{Name: "x", IR: "i32"}})
	if _, err := g.Register("Point", nil); err == nil {
		t.Fatalf("expected duplicate record error")
	}
	if _, err := g.Register("Bad", []Field{
		{Name: "x", IR: "i32"},
		{Name: "x", IR: "i32"},
	}); err == nil {
		t.Fatalf("expected duplicate field error")
	}
}

func TestNestedRecordFieldIsPointerSized(t *testing.T) {
	g := NewRegistry()
	mustRegister(t, g, "Point", []Field{
		{Name: "x", IR: "i32"},
		{Name: "y", IR: "i32"},
	})
	line := mustRegister(t, g, "Line", []Field{
		{Name: "start", IR: "%Point*"},
		{Name: "end", IR: "%Point*"},
	})
	if line.Size != 16 {
		t.Fatalf("Line size = %d, want 16", line.Size)
	}
}

func TestTypeSize(t *testing.T) {
	g := NewRegistry()
	mustRegister(t, g, "Point", []Field{
		{Name: "x", IR: "i32"},
		{Name: "y", IR: "i32"},
	})

	cases := []struct {
		ir   string
		want int
	}{
		{"i1", 1},
		{"i8", 1},
		{"i16", 2},
		{"i32", 4},
		{"float", 4},
		{"i64", 8},
		{"double", 8},
		{"i8*", 8},
		{"%Point*", 8},
		{"%Point", 8}, // bare record resolves to its total size
	}
	for _, tc := range cases {
		got, err := g.TypeSize(tc.ir)
		if err != nil {
			t.Fatalf("TypeSize(%q) failed: %v", tc.ir, err)
		}
		if got != tc.want {
			t.Fatalf("TypeSize(%q) = %d, want %d", tc.ir, got, tc.want)
		}
	}

	if _, err := g.TypeSize("%Missing"); err == nil {
		t.Fatalf("expected an error for an unregistered record")
	}
}

func TestTopoOrderEmitsDependenciesFirst(t *testing.T) {
	g := NewRegistry()
	// Register the referrer before the dependency: emission order must
	// still put Point first.
	if err := g.Declare("Line"); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	if err := g.Declare("Point"); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	mustRegister(t, g, "Line", []Field{
		{Name: "start", IR: "%Point*"},
		{Name: "end", IR: "%Point*"},
	})
	mustRegister(t, g, "Point", []Field{
		{Name: "x", IR: "i32"},
		{Name: "y", IR: "i32"},
	})

	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder failed: %v", err)
	}
	pos := make(map[string]int)
	for i, rec := range order {
		pos[rec.Name] = i
	}
	if pos["Point"] > pos["Line"] {
		t.Fatalf("Point emitted after Line: %v", pos)
	}
}

func TestTopoOrderRejectsFieldCycle(t *testing.T) {
	g := NewRegistry()
	mustRegister(t, g, "A", []Field{{Name: "b", IR: "%B*"}})
	mustRegister(t, g, "B", []Field{{Name: "a", IR: "%A*"}})
	if _, err := g.TopoOrder(); err == nil {
		t.Fatalf("expected a cycle error")
	}

	g2 := NewRegistry()
	mustRegister(t, g2, "Node", []Field{{Name: "next", IR: "%Node*"}})
	if _, err := g2.TopoOrder(); err == nil {
		t.Fatalf("expected a self-cycle error")
	}
}

func TestRegisterInstance(t *testing.T) {
	g := NewRegistry()
	if err := g.RegisterTemplate("Box", []string{"T"}, []types.FieldSpec{
		{Name: "value", Surface: "T"},
	}); err != nil {
		t.Fatalf("RegisterTemplate failed: %v", err)
	}
	if g.Defined("Box") {
		t.Fatalf("template must not count as a concrete record")
	}
	if err := g.RegisterInstance("Box_i32", []types.InstanceField{
		{Name: "value", Surface: "number", IR: "i32"},
	}); err != nil {
		t.Fatalf("RegisterInstance failed: %v", err)
	}
	rec, ok := g.Lookup("Box_i32")
	if !ok || rec.Size != 4 {
		t.Fatalf("instance lookup = %v/%v, want size 4", rec, ok)
	}
}
