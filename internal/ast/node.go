package ast

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kdetry/MicroTS/internal/source"
)

// Node is a borrowed view of one parser node. The zero Node is invalid;
// callers check Valid before descending. The underlying tree is owned by the
// File and stays alive for the whole compilation.
type Node struct {
	raw *sitter.Node
	src []byte
}

// Wrap adapts a raw parser node.
func Wrap(raw *sitter.Node, src []byte) Node {
	return Node{raw: raw, src: src}
}

func (n Node) Valid() bool {
	return n.raw != nil
}

// Kind returns the supported-subset kind, or Bad for anything outside it.
func (n Node) Kind() Kind {
	if n.raw == nil {
		return Bad
	}
	return KindOf(n.raw.Type())
}

// GrammarType returns the parser's raw node type string, for diagnostics.
func (n Node) GrammarType() string {
	if n.raw == nil {
		return "<nil>"
	}
	return n.raw.Type()
}

// Text returns the verbatim source text of the node.
func (n Node) Text() string {
	if n.raw == nil {
		return ""
	}
	return n.raw.Content(n.src)
}

// Field returns the child stored under a grammar field name.
func (n Node) Field(name string) Node {
	if n.raw == nil {
		return Node{}
	}
	child := n.raw.ChildByFieldName(name)
	if child == nil {
		return Node{}
	}
	return Node{raw: child, src: n.src}
}

// NamedChildCount counts named children (anonymous tokens excluded).
func (n Node) NamedChildCount() int {
	if n.raw == nil {
		return 0
	}
	return int(n.raw.NamedChildCount())
}

func (n Node) NamedChild(i int) Node {
	if n.raw == nil || i < 0 || i >= int(n.raw.NamedChildCount()) {
		return Node{}
	}
	return Node{raw: n.raw.NamedChild(i), src: n.src}
}

// NamedChildren materializes the named children, comments excluded.
func (n Node) NamedChildren() []Node {
	count := n.NamedChildCount()
	out := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c.Kind() == Comment {
			continue
		}
		out = append(out, c)
	}
	return out
}

// HasToken reports whether an anonymous token (e.g. "?" on an optional
// field, "..." on a rest parameter) appears directly under this node.
func (n Node) HasToken(tok string) bool {
	if n.raw == nil {
		return false
	}
	for i := 0; i < int(n.raw.ChildCount()); i++ {
		c := n.raw.Child(i)
		if c != nil && !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

// point converts the node start to a 1-based line and column. The path is
// filled by File.PosOf; a bare Node does not know its file.
func (n Node) point() (line, col int) {
	if n.raw == nil {
		return 0, 0
	}
	p := n.raw.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

// File is one parsed module source. The parser owns the concrete tree; the
// walker only borrows nodes from it.
type File struct {
	Source *source.File
	Root   Node
	tree   *sitter.Tree
}

// NewFile binds a parse tree to its source.
func NewFile(src *source.File, tree *sitter.Tree) *File {
	return &File{
		Source: src,
		Root:   Wrap(tree.RootNode(), src.Src),
		tree:   tree,
	}
}

// PosOf locates a node inside this file.
func (f *File) PosOf(n Node) source.Pos {
	line, col := n.point()
	return source.Pos{Path: f.Source.Path, Line: line, Col: col}
}

// Close releases the parser-owned tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}
