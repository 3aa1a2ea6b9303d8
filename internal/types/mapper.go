// Package types converts surface types to LLVM IR types and owns the
// mangling scheme for monomorphized generic records.
package types

import "fmt"

// primitives is the canonical surface-to-IR table. Records are handled by
// the RecordSource; everything else must appear here.
var primitives = map[string]string{
	"number":  "i32",
	"i32":     "i32",
	"i64":     "i64",
	"f32":     "float",
	"f64":     "double",
	"boolean": "i1",
	"string":  "i8*",
	"void":    "void",
}

// FieldSpec is one template field before substitution: a name plus the
// surface-type text it was declared with.
type FieldSpec struct {
	Name    string
	Surface string
}

// InstanceField is one concrete field of a monomorphized record: the
// substituted surface text plus its mapped IR type.
type InstanceField struct {
	Name    string
	Surface string
	IR      string
}

// RecordSource is the struct registry as the mapper sees it. Defined covers
// concrete records (declared or already instantiated); Template exposes
// generic record templates; RegisterInstance stores a fresh instantiation.
type RecordSource interface {
	Defined(name string) bool
	Template(name string) (params []string, fields []FieldSpec, ok bool)
	RegisterInstance(name string, fields []InstanceField) error
}

// Mapper converts surface types to IR types. It holds no per-module state;
// one mapper serves the whole compilation.
type Mapper struct {
	Records RecordSource
}

func NewMapper(records RecordSource) *Mapper {
	return &Mapper{Records: records}
}

// Map converts a textual surface type to its IR type. Record references
// (including generic instantiations) always map to a pointer.
func (m *Mapper) Map(surface string) (string, error) {
	ref, err := ParseSurface(surface)
	if err != nil {
		return "", err
	}
	return m.mapRef(ref)
}

func (m *Mapper) mapRef(ref *TypeRef) (string, error) {
	if ref.Elem != nil {
		elem, err := m.mapRef(ref.Elem)
		if err != nil {
			return "", err
		}
		if elem == "void" {
			return "", fmt.Errorf("array of void")
		}
		return elem + "*", nil
	}
	if len(ref.Args) > 0 {
		name, err := m.instantiate(ref)
		if err != nil {
			return "", err
		}
		return "%" + name + "*", nil
	}
	if ir, ok := primitives[ref.Name]; ok {
		return ir, nil
	}
	if m.Records != nil && m.Records.Defined(ref.Name) {
		return "%" + ref.Name + "*", nil
	}
	return "", fmt.Errorf("unknown type %q", ref.Name)
}

// Mangle computes the stable mangled name for a surface type: the IR name
// for primitives, the record name for records, and `Name_A1_…_An` for
// generic references, recursively. Mangling only computes the name and
// registers nothing, so the same surface type always maps to the same
// record name within a compilation; Map performs the instantiation.
func (m *Mapper) Mangle(surface string) (string, error) {
	ref, err := ParseSurface(surface)
	if err != nil {
		return "", err
	}
	return m.mangleRef(ref)
}

func (m *Mapper) mangleRef(ref *TypeRef) (string, error) {
	if ref.Elem != nil {
		return "", fmt.Errorf("array type %q cannot appear as a generic argument", ref)
	}
	if len(ref.Args) == 0 {
		if ir, ok := primitives[ref.Name]; ok {
			return ir, nil
		}
		return ref.Name, nil
	}
	mangled := ref.Name
	for _, a := range ref.Args {
		part, err := m.mangleRef(a)
		if err != nil {
			return "", err
		}
		mangled += "_" + part
	}
	return mangled, nil
}

// instantiate resolves Name<Args> to its mangled record name, registering
// the concrete layout on first use. Generic references inside the
// substituted fields instantiate while those fields are mapped, so they are
// registered before the outer instance.
func (m *Mapper) instantiate(ref *TypeRef) (string, error) {
	mangled, err := m.mangleRef(ref)
	if err != nil {
		return "", err
	}
	if m.Records == nil {
		return "", fmt.Errorf("no record registry for generic type %q", ref)
	}
	if m.Records.Defined(mangled) {
		return mangled, nil
	}
	params, fields, ok := m.Records.Template(ref.Name)
	if !ok {
		return "", fmt.Errorf("unknown generic type %q", ref.Name)
	}
	if len(params) != len(ref.Args) {
		return "", fmt.Errorf("%s expects %d type arguments, got %d", ref.Name, len(params), len(ref.Args))
	}
	bindings := make(map[string]*TypeRef, len(params))
	for i, p := range params {
		bindings[p] = ref.Args[i]
	}
	instance := make([]InstanceField, 0, len(fields))
	for _, f := range fields {
		declared, err := ParseSurface(f.Surface)
		if err != nil {
			return "", fmt.Errorf("field %s of %s: %w", f.Name, ref.Name, err)
		}
		concrete := declared.substitute(bindings)
		ir, err := m.mapRef(concrete)
		if err != nil {
			return "", fmt.Errorf("field %s of %s: %w", f.Name, mangled, err)
		}
		instance = append(instance, InstanceField{
			Name:    f.Name,
			Surface: concrete.String(),
			IR:      ir,
		})
	}
	if err := m.Records.RegisterInstance(mangled, instance); err != nil {
		return "", err
	}
	return mangled, nil
}
