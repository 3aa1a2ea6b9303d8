package types

import "testing"

// fakeRecords is a minimal RecordSource for mapper tests.
type fakeRecords struct {
	defined   map[string]bool
	templates map[string][]FieldSpec
	params    map[string][]string
	instances map[string][]InstanceField
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		defined:   make(map[string]bool),
		templates: make(map[string][]FieldSpec),
		params:    make(map[string][]string),
		instances: make(map[string][]InstanceField),
	}
}

func (f *fakeRecords) Defined(name string) bool {
	return f.defined[name]
}

func (f *fakeRecords) Template(name string) ([]string, []FieldSpec, bool) {
	fields, ok := f.templates[name]
	if !ok {
		return nil, nil, false
	}
	return f.params[name], fields, true
}

func (f *fakeRecords) RegisterInstance(name string, fields []InstanceField) error {
	f.defined[name] = true
	f.instances[name] = fields
	return nil
}

func TestMapPrimitives(t *testing.T) {
	m := NewMapper(nil)
	cases := []struct {
		surface string
		want    string
	}{
		{"number", "i32"},
		{"i32", "i32"},
		{"i64", "i64"},
		{"f32", "float"},
		{"f64", "double"},
		{"boolean", "i1"},
		{"string", "i8*"},
		{"void", "void"},
		{"number[]", "i32*"},
		{"number[][]", "i32**"},
		{"string[]", "i8**"},
	}
	for _, tc := range cases {
		got, err := m.Map(tc.surface)
		if err != nil {
			t.Fatalf("Map(%q) failed: %v", tc.surface, err)
		}
		if got != tc.want {
			t.Fatalf("Map(%q) = %q, want %q", tc.surface, got, tc.want)
		}
	}
}

func TestMapRecordIsPointer(t *testing.T) {
	recs := newFakeRecords()
	recs.defined["Vector3"] = true
	m := NewMapper(recs)

	got, err := m.Map("Vector3")
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if got != "%Vector3*" {
		t.Fatalf("Map(Vector3) = %q, want %%Vector3*", got)
	}

	if _, err := m.Map("Missing"); err == nil {
		t.Fatalf("expected an error for an unknown type")
	}
}

func TestMangleGenerics(t *testing.T) {
	recs := newFakeRecords()
	recs.defined["Vector3"] = true
	m := NewMapper(recs)

	cases := []struct {
		surface string
		want    string
	}{
		{"number", "i32"},
		{"Vector3", "Vector3"},
		{"Box<number>", "Box_i32"},
		{"Pair<i32, f64>", "Pair_i32_double"},
		{"Box<Box<number>>", "Box_Box_i32"},
		{"Pair<Vector3, Vector3>", "Pair_Vector3_Vector3"},
	}
	for _, tc := range cases {
		got, err := m.Mangle(tc.surface)
		if err != nil {
			t.Fatalf("Mangle(%q) failed: %v", tc.surface, err)
		}
		if got != tc.want {
			t.Fatalf("Mangle(%q) = %q, want %q", tc.surface, got, tc.want)
		}
	}
}

func TestInstantiateRegistersNestedInstances(t *testing.T) {
	recs := newFakeRecords()
	recs.templates["Box"] = []FieldSpec{{Name: "value", Surface: "T"}}
	recs.params["Box"] = []string{"T"}
	m := NewMapper(recs)

	got, err := m.Map("Box<Box<number>>")
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if got != "%Box_Box_i32*" {
		t.Fatalf("Map = %q, want %%Box_Box_i32*", got)
	}

	inner, ok := recs.instances["Box_i32"]
	if !ok {
		t.Fatalf("inner instance Box_i32 was not registered")
	}
	if inner[0].IR != "i32" {
		t.Fatalf("Box_i32 field IR = %q, want i32", inner[0].IR)
	}

	outer, ok := recs.instances["Box_Box_i32"]
	if !ok {
		t.Fatalf("outer instance Box_Box_i32 was not registered")
	}
	if outer[0].IR != "%Box_i32*" {
		t.Fatalf("Box_Box_i32 field IR = %q, want %%Box_i32*", outer[0].IR)
	}

	// Mangling is a function: mapping the same reference again must not
	// register anything new.
	before := len(recs.instances)
	if _, err := m.Map("Box<Box<number>>"); err != nil {
		t.Fatalf("second Map failed: %v", err)
	}
	if len(recs.instances) != before {
		t.Fatalf("re-mapping registered %d new instances", len(recs.instances)-before)
	}
}

func TestInstantiateArityMismatch(t *testing.T) {
	recs := newFakeRecords()
	recs.templates["Box"] = []FieldSpec{{Name: "value", Surface: "T"}}
	recs.params["Box"] = []string{"T"}
	m := NewMapper(recs)

	if _, err := m.Map("Box<number, number>"); err == nil {
		t.Fatalf("expected an arity error")
	}
}

func TestCompareOp(t *testing.T) {
	cases := []struct {
		op, ir   string
		wantInst string
		wantPred string
	}{
		{"<", "i32", "icmp", "slt"},
		{">", "i32", "icmp", "sgt"},
		{"<=", "i32", "icmp", "sle"},
		{">=", "i32", "icmp", "sge"},
		{"==", "i32", "icmp", "eq"},
		{"===", "i32", "icmp", "eq"},
		{"!=", "i32", "icmp", "ne"},
		{"<", "double", "fcmp", "olt"},
		{"==", "float", "fcmp", "oeq"},
		{"!==", "double", "fcmp", "one"},
	}
	for _, tc := range cases {
		inst, pred, err := CompareOp(tc.op, tc.ir)
		if err != nil {
			t.Fatalf("CompareOp(%q, %q) failed: %v", tc.op, tc.ir, err)
		}
		if inst != tc.wantInst || pred != tc.wantPred {
			t.Fatalf("CompareOp(%q, %q) = %s %s, want %s %s",
				tc.op, tc.ir, inst, pred, tc.wantInst, tc.wantPred)
		}
	}
}

func TestBinaryOp(t *testing.T) {
	cases := []struct {
		op, ir string
		want   string
	}{
		{"+", "i32", "add"},
		{"-", "i32", "sub"},
		{"*", "i32", "mul"},
		{"/", "i32", "sdiv"},
		{"%", "i32", "srem"},
		{"+", "double", "fadd"},
		{"/", "float", "fdiv"},
		{"%", "double", "frem"},
	}
	for _, tc := range cases {
		got, err := BinaryOp(tc.op, tc.ir)
		if err != nil {
			t.Fatalf("BinaryOp(%q, %q) failed: %v", tc.op, tc.ir, err)
		}
		if got != tc.want {
			t.Fatalf("BinaryOp(%q, %q) = %q, want %q", tc.op, tc.ir, got, tc.want)
		}
	}
}
