package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is one loaded source file. The compiler keeps the raw bytes for the
// lifetime of the compilation; AST nodes borrow slices of them.
type File struct {
	Path string // absolute path
	Name string // basename without extension
	Src  []byte
}

// Load reads a file from disk. The returned File carries the absolute path
// and the short module name derived from the basename.
func Load(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	return &File{
		Path: abs,
		Name: ShortName(abs),
		Src:  src,
	}, nil
}

// ShortName returns the module name for a path: the basename without its
// extension.
func ShortName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Line returns the 1-based line's text without the trailing newline, or ""
// when the line is out of range. Used by the diagnostic reporter.
func (f *File) Line(n int) string {
	if f == nil || n < 1 {
		return ""
	}
	lines := strings.Split(string(f.Src), "\n")
	if n > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[n-1], "\r")
}
