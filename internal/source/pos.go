package source

import "fmt"

// Pos is a 1-based source position.
type Pos struct {
	Path string
	Line int
	Col  int
}

// Valid reports whether the position points into a real file.
func (p Pos) Valid() bool {
	return p.Path != "" && p.Line > 0
}

func (p Pos) String() string {
	if !p.Valid() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}
