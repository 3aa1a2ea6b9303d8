package types

import (
	"fmt"
	"strings"
)

// TypeRef is a parsed surface type: a leaf name, a generic reference with
// arguments, or an array of an element type. Exactly one of Name/Elem is
// meaningful: Elem non-nil marks an array.
type TypeRef struct {
	Name string
	Args []*TypeRef
	Elem *TypeRef
}

// ParseSurface parses the textual surface form of a type: a leaf name, a
// `T[]` suffix, or a `Name<A1, …, An>` reference with arbitrary nesting.
func ParseSurface(s string) (*TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type")
	}
	if strings.HasSuffix(s, "[]") {
		elem, err := ParseSurface(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return nil, err
		}
		return &TypeRef{Elem: elem}, nil
	}
	open := strings.Index(s, "<")
	if open < 0 {
		if strings.ContainsAny(s, "<>,") {
			return nil, fmt.Errorf("malformed type %q", s)
		}
		return &TypeRef{Name: s}, nil
	}
	if !strings.HasSuffix(s, ">") {
		return nil, fmt.Errorf("malformed generic type %q", s)
	}
	head := strings.TrimSpace(s[:open])
	if head == "" {
		return nil, fmt.Errorf("malformed generic type %q", s)
	}
	args, err := splitTypeArgs(s[open+1 : len(s)-1])
	if err != nil {
		return nil, fmt.Errorf("malformed generic type %q: %w", s, err)
	}
	ref := &TypeRef{Name: head}
	for _, a := range args {
		parsed, err := ParseSurface(a)
		if err != nil {
			return nil, err
		}
		ref.Args = append(ref.Args, parsed)
	}
	return ref, nil
}

// splitTypeArgs splits a type-argument list on top-level commas.
func splitTypeArgs(s string) ([]string, error) {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced angle brackets")
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced angle brackets")
	}
	last := strings.TrimSpace(s[start:])
	if last == "" {
		return nil, fmt.Errorf("empty type argument")
	}
	out = append(out, s[start:])
	return out, nil
}

// substitute replaces leaf names bound in params throughout the reference.
func (r *TypeRef) substitute(params map[string]*TypeRef) *TypeRef {
	if r == nil {
		return nil
	}
	if r.Elem != nil {
		return &TypeRef{Elem: r.Elem.substitute(params)}
	}
	if len(r.Args) == 0 {
		if bound, ok := params[r.Name]; ok {
			return bound
		}
		return r
	}
	out := &TypeRef{Name: r.Name}
	for _, a := range r.Args {
		out.Args = append(out.Args, a.substitute(params))
	}
	return out
}

func (r *TypeRef) String() string {
	if r == nil {
		return ""
	}
	if r.Elem != nil {
		return r.Elem.String() + "[]"
	}
	if len(r.Args) == 0 {
		return r.Name
	}
	parts := make([]string, len(r.Args))
	for i, a := range r.Args {
		parts[i] = a.String()
	}
	return r.Name + "<" + strings.Join(parts, ", ") + ">"
}
