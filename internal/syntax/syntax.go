package syntax

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"gitlab.com/tozd/go/errors"
)

// Syntax identifies the surface syntax of a legacy configuration document.
type Syntax string

const (
	JS   Syntax = "js"
	JSON Syntax = "json"
	YAML Syntax = "yaml"
)

var (
	ErrParse             = errors.Base("document could not be parsed")
	ErrUnsupportedSyntax = errors.Base("unsupported syntax")
)

// ParseSyntax converts a user supplied tag ("js", "json", "yaml", "yml") to a Syntax.
func ParseSyntax(value string) (Syntax, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "js", "javascript", "cjs", "mjs":
		return JS, nil
	case "json", "jsonc":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", errors.Errorf("%w: %q", ErrUnsupportedSyntax, value)
	}
}

// Document is a parsed configuration document. JSON and YAML documents are
// held as a single parenthesized JavaScript expression so that every surface
// syntax is queried through the same grammar.
type Document struct {
	Syntax Syntax
	Source []byte
	tree   *sitter.Tree
}

// Program returns the root node of the parsed tree.
func (d *Document) Program() *sitter.Node {
	return d.tree.RootNode()
}

// Expression returns the top-level value of a JSON or YAML document, or nil
// for JavaScript documents.
func (d *Document) Expression() *sitter.Node {
	if d.Syntax == JS {
		return nil
	}
	return expressionOf(d.Program())
}

// Close releases the underlying tree. Nodes obtained from the document must
// not be used afterwards.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// Parse parses text written in the given surface syntax. YAML is lowered to
// JSON text first; comments and anchors in YAML input do not survive.
func Parse(ctx context.Context, syn Syntax, text []byte) (*Document, error) {
	switch syn {
	case JS:
		return parse(ctx, syn, text)
	case JSON:
		return parse(ctx, syn, wrapExpression(text))
	case YAML:
		lowered, err := LowerYAML(text)
		if err != nil {
			return nil, err
		}
		return parse(ctx, syn, wrapExpression(lowered))
	default:
		return nil, errors.Errorf("%w: %q", ErrUnsupportedSyntax, syn)
	}
}

// Expr is a standalone JavaScript expression parsed from a value fragment.
type Expr struct {
	Node   *sitter.Node
	Source []byte
	tree   *sitter.Tree
}

// Text returns the source text of a node belonging to this expression.
func (e *Expr) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(e.Source)
}

// ParseExpression parses a single JavaScript expression, such as a rule value
// copied out of a sector.
func ParseExpression(text string) (*Expr, error) {
	src := wrapExpression([]byte(text))
	tree, err := newParser().ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, errors.Errorf("%w: %s", ErrParse, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.Errorf("%w: invalid expression %q", ErrParse, text)
	}
	node := expressionOf(root)
	if node == nil {
		return nil, errors.Errorf("%w: empty expression", ErrParse)
	}
	return &Expr{Node: node, Source: src, tree: tree}, nil
}

func parse(ctx context.Context, syn Syntax, src []byte) (*Document, error) {
	tree, err := newParser().ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Errorf("%w: %s", ErrParse, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		tree.Close()
		return nil, errors.Errorf("%w: syntax error near line %d", ErrParse, line)
	}
	doc := &Document{Syntax: syn, Source: src, tree: tree}
	if syn != JS && doc.Expression() == nil {
		doc.Close()
		return nil, errors.Errorf("%w: document has no top-level value", ErrParse)
	}
	return doc, nil
}

func newParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return p
}

// wrapExpression turns a bare value into an expression statement. The
// closing parenthesis sits on its own line so a trailing line comment in
// the value cannot swallow it.
func wrapExpression(text []byte) []byte {
	out := make([]byte, 0, len(text)+3)
	out = append(out, '(')
	out = append(out, text...)
	out = append(out, '\n', ')')
	return out
}

func expressionOf(program *sitter.Node) *sitter.Node {
	for i := 0; i < int(program.NamedChildCount()); i++ {
		stmt := program.NamedChild(i)
		if stmt.Type() != "expression_statement" {
			continue
		}
		return Unwrap(firstNamed(stmt))
	}
	return nil
}

// Unwrap strips any parentheses around an expression.
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		n = firstNamed(n)
	}
	return n
}

func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}

func firstErrorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			return firstErrorLine(child)
		}
	}
	return int(n.StartPoint().Row) + 1
}
