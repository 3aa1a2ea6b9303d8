// Package layout owns canonical record layouts: field indices, byte
// offsets, and the dependency order struct types are emitted in.
package layout

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"github.com/kdetry/MicroTS/internal/types"
)

// Field is one laid-out record field. Index is the getelementptr index;
// Offset is the running sum of preceding field sizes.
type Field struct {
	Name    string
	Surface string
	IR      string
	Index   int32
	Offset  int
	Size    int
}

// Record is a registered concrete record layout.
type Record struct {
	Name   string
	Fields []Field
	byName map[string]int
	Size   int    // plain sum of field sizes, used only by sizeof
	Ptr    string // "%Name*"
}

// Field retrieves a field by name.
func (r *Record) Field(name string) (*Field, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return &r.Fields[i], true
}

// FieldIRs returns the field IR types in declaration order.
func (r *Record) FieldIRs() []string {
	out := make([]string, len(r.Fields))
	for i := range r.Fields {
		out[i] = r.Fields[i].IR
	}
	return out
}

// Template is an unexpanded generic record declaration. Instantiations are
// registered as plain records under their mangled names; the template
// itself never reaches the emitter.
type Template struct {
	Name   string
	Params []string
	Fields []types.FieldSpec
}

// Registry is the process-wide record table. Names are unique across both
// concrete records and templates; re-registering is an error.
type Registry struct {
	records   map[string]*Record
	declared  map[string]bool
	order     []string
	templates map[string]*Template
}

func NewRegistry() *Registry {
	return &Registry{
		records:   make(map[string]*Record),
		declared:  make(map[string]bool),
		templates: make(map[string]*Template),
	}
}

// Declare reserves a record name before its layout is computed, so fields
// of records declared later in the same module still resolve. Every
// declared name must be registered before struct emission.
func (g *Registry) Declare(name string) error {
	if g.declared[name] || g.records[name] != nil {
		return fmt.Errorf("record %q is already registered", name)
	}
	if _, exists := g.templates[name]; exists {
		return fmt.Errorf("record %q conflicts with a generic record of the same name", name)
	}
	g.declared[name] = true
	return nil
}

// Register stores a concrete record layout. Fields arrive with their name,
// surface type, and IR type filled in; indices, offsets, and sizes are
// assigned here in declaration order.
func (g *Registry) Register(name string, fields []Field) (*Record, error) {
	if _, exists := g.records[name]; exists {
		return nil, fmt.Errorf("record %q is already registered", name)
	}
	if _, exists := g.templates[name]; exists {
		return nil, fmt.Errorf("record %q conflicts with a generic template of the same name", name)
	}
	rec := &Record{
		Name:   name,
		Fields: make([]Field, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
		Ptr:    "%" + name + "*",
	}
	offset := 0
	for i, f := range fields {
		if _, dup := rec.byName[f.Name]; dup {
			return nil, fmt.Errorf("record %q declares field %q twice", name, f.Name)
		}
		size, err := FieldSize(f.IR)
		if err != nil {
			return nil, fmt.Errorf("record %q field %q: %w", name, f.Name, err)
		}
		idx, err := safecast.Conv[int32](i)
		if err != nil {
			panic(fmt.Errorf("field index overflow: %w", err))
		}
		f.Index = idx
		f.Offset = offset
		f.Size = size
		rec.byName[f.Name] = len(rec.Fields)
		rec.Fields = append(rec.Fields, f)
		offset += size
	}
	rec.Size = offset
	delete(g.declared, name)
	g.records[name] = rec
	g.order = append(g.order, name)
	return rec, nil
}

// Lookup retrieves a concrete record by name.
func (g *Registry) Lookup(name string) (*Record, bool) {
	rec, ok := g.records[name]
	return rec, ok
}

// RegisterTemplate stores a generic record declaration for later
// monomorphization.
func (g *Registry) RegisterTemplate(name string, params []string, fields []types.FieldSpec) error {
	if _, exists := g.templates[name]; exists {
		return fmt.Errorf("generic record %q is already registered", name)
	}
	if g.declared[name] || g.records[name] != nil {
		return fmt.Errorf("generic record %q conflicts with a record of the same name", name)
	}
	if len(params) == 0 {
		return fmt.Errorf("generic record %q has no type parameters", name)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return fmt.Errorf("record %q declares field %q twice", name, f.Name)
		}
		seen[f.Name] = true
	}
	g.templates[name] = &Template{Name: name, Params: params, Fields: fields}
	return nil
}

// Defined implements types.RecordSource. Forward-declared records count as
// defined so sibling records can reference them by pointer.
func (g *Registry) Defined(name string) bool {
	if _, ok := g.records[name]; ok {
		return true
	}
	return g.declared[name]
}

// Template implements types.RecordSource.
func (g *Registry) Template(name string) ([]string, []types.FieldSpec, bool) {
	t, ok := g.templates[name]
	if !ok {
		return nil, nil, false
	}
	return t.Params, t.Fields, true
}

// RegisterInstance implements types.RecordSource: it stores one
// monomorphized generic layout under its mangled name.
func (g *Registry) RegisterInstance(name string, fields []types.InstanceField) error {
	converted := make([]Field, len(fields))
	for i, f := range fields {
		converted[i] = Field{Name: f.Name, Surface: f.Surface, IR: f.IR}
	}
	_, err := g.Register(name, converted)
	return err
}

// FieldSize returns the byte size a field of the given IR type contributes
// to its record: 1 for i1/i8, 2 for i16, 4 for i32/float, 8 for i64/double
// and anything held by pointer (strings, arrays, nested records).
func FieldSize(ir string) (int, error) {
	switch ir {
	case "i1", "i8":
		return 1, nil
	case "i16":
		return 2, nil
	case "i32", "float":
		return 4, nil
	case "i64", "double":
		return 8, nil
	}
	if strings.HasSuffix(ir, "*") {
		return 8, nil
	}
	if strings.HasPrefix(ir, "%") {
		return 8, nil
	}
	return 0, fmt.Errorf("no size for IR type %q", ir)
}

// TypeSize is the byte size used by sizeof: pointers are 8, a bare record
// type resolves to its total size, primitives follow the field table.
func (g *Registry) TypeSize(ir string) (int, error) {
	if strings.HasSuffix(ir, "*") {
		return 8, nil
	}
	if strings.HasPrefix(ir, "%") {
		rec, ok := g.records[strings.TrimPrefix(ir, "%")]
		if !ok {
			return 0, fmt.Errorf("unregistered record type %q", ir)
		}
		return rec.Size, nil
	}
	return FieldSize(ir)
}

// TopoOrder yields records so every record referenced by another's fields
// appears before its referrer. A revisit while a record is still being
// traversed is a field-type cycle and rejects the layout.
func (g *Registry) TopoOrder() ([]*Record, error) {
	var (
		out      []*Record
		visited  = make(map[string]bool)
		visiting = make(map[string]bool)
	)
	var visit func(name string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		if visiting[name] {
			return fmt.Errorf("record %q participates in a field-type cycle", name)
		}
		visiting[name] = true
		rec := g.records[name]
		for _, f := range rec.Fields {
			dep := recordRef(f.IR)
			if dep == "" || dep == name {
				if dep == name {
					return fmt.Errorf("record %q participates in a field-type cycle", name)
				}
				continue
			}
			if _, ok := g.records[dep]; !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(visiting, name)
		visited[name] = true
		out = append(out, rec)
		return nil
	}
	for _, name := range g.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// recordRef extracts the record name an IR type refers to, or "".
func recordRef(ir string) string {
	ir = strings.TrimRight(ir, "*")
	if strings.HasPrefix(ir, "%") {
		return strings.TrimPrefix(ir, "%")
	}
	return ""
}
