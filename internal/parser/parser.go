// Package parser wraps the external tree-sitter TypeScript parser. The
// compiler only ever queries node kinds, fields, children, and source text;
// everything syntactic beyond that stays the collaborator's business.
package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kdetry/MicroTS/internal/ast"
	"github.com/kdetry/MicroTS/internal/diag"
	"github.com/kdetry/MicroTS/internal/source"
)

// Parse runs the TypeScript grammar over one source file. Grammar errors are
// fatal: the first ERROR or MISSING node becomes a parse diagnostic.
func Parse(file *source.File) (*ast.File, error) {
	p := sitter.NewParser()
	p.SetLanguage(typescript.GetLanguage())
	tree, err := p.ParseCtx(context.Background(), nil, file.Src)
	if err != nil {
		return nil, fmt.Errorf("parser failed on %s: %w", file.Path, err)
	}

	out := ast.NewFile(file, tree)
	if bad := firstSyntaxError(tree.RootNode()); bad != nil {
		pos := out.PosOf(ast.Wrap(bad, file.Src))
		out.Close()
		if bad.IsMissing() {
			return nil, diag.Errorf(diag.Parse, pos, "missing %q", bad.Type())
		}
		return nil, diag.Errorf(diag.Parse, pos, "unexpected token near %q", clip(bad.Content(file.Src)))
	}
	return out, nil
}

// firstSyntaxError walks the tree for the first ERROR or MISSING node.
func firstSyntaxError(n *sitter.Node) *sitter.Node {
	if n == nil || !n.HasError() {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstSyntaxError(n.Child(i)); bad != nil {
			return bad
		}
	}
	// HasError was set but no child owns it; report the node itself.
	return n
}

func clip(s string) string {
	const max = 24
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
