package sector

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/query"
	"github.com/morozRed/flatcfg/internal/syntax"
)

// Sector is an object literal holding one legacy configuration: either the
// top-level configuration or one element of an overrides array.
type Sector struct {
	Node     *sitter.Node
	Source   []byte
	TopLevel bool

	// expr owns the tree of a sector that was re-parsed after its nested
	// overrides were removed.
	expr *syntax.Expr
}

// Locate returns the sectors of doc in document order: the top-level
// configuration first, if there is one, followed by every override.
func Locate(doc *syntax.Document) ([]Sector, error) {
	var sectors []Sector

	if top := topLevelObject(doc); top != nil {
		sectors = append(sectors, Sector{Node: top, Source: doc.Source, TopLevel: true})
	}

	for _, obj := range overrideObjects(doc.Program(), doc.Source) {
		sec := Sector{Node: obj, Source: doc.Source}
		if len(overridePairs(obj, doc.Source)) > 0 {
			stripped, err := stripOverrides(obj, doc.Source)
			if err != nil {
				return nil, err
			}
			sec = Sector{Node: stripped.Node, Source: stripped.Source, expr: stripped}
		}
		sectors = append(sectors, sec)
	}
	return sectors, nil
}

func topLevelObject(doc *syntax.Document) *sitter.Node {
	if doc.Syntax != syntax.JS {
		if expr := doc.Expression(); expr != nil && expr.Type() == "object" {
			return expr
		}
		return nil
	}

	program := doc.Program()
	src := doc.Source
	bindings := make(map[string]*sitter.Node)
	for _, stmt := range query.Named(program) {
		switch stmt.Type() {
		case "lexical_declaration", "variable_declaration":
			for _, decl := range query.Named(stmt) {
				if decl.Type() != "variable_declarator" {
					continue
				}
				name := decl.ChildByFieldName("name")
				value := decl.ChildByFieldName("value")
				if name == nil || value == nil || name.Type() != "identifier" {
					continue
				}
				bindings[name.Content(src)] = syntax.Unwrap(value)
			}
		}
	}

	resolve := func(n *sitter.Node) *sitter.Node {
		n = syntax.Unwrap(n)
		if n != nil && n.Type() == "identifier" {
			n = bindings[n.Content(src)]
		}
		if n != nil && n.Type() == "object" {
			return n
		}
		return nil
	}

	for _, stmt := range query.Named(program) {
		switch stmt.Type() {
		case "expression_statement":
			expr := syntax.Unwrap(stmt.NamedChild(0))
			if expr == nil || expr.Type() != "assignment_expression" {
				continue
			}
			if query.Text(expr.ChildByFieldName("left"), src) != "module.exports" {
				continue
			}
			if obj := resolve(expr.ChildByFieldName("right")); obj != nil {
				return obj
			}
		case "export_statement":
			if obj := resolve(stmt.ChildByFieldName("value")); obj != nil {
				return obj
			}
		}
	}
	return nil
}

func isOverridesPair(n *sitter.Node, src []byte) bool {
	key, _ := query.Unquote(query.Text(n.ChildByFieldName("key"), src))
	value := n.ChildByFieldName("value")
	return key == "overrides" && value != nil && value.Type() == "array"
}

func overrideObjects(root *sitter.Node, src []byte) []*sitter.Node {
	pairs := query.FindAll(root, query.Matcher{
		Kind:  "pair",
		Where: func(n *sitter.Node) bool { return isOverridesPair(n, src) },
	})
	var out []*sitter.Node
	for _, pair := range pairs {
		for _, el := range query.Elements(pair.ChildByFieldName("value")) {
			if el.Type() == "object" {
				out = append(out, el)
			}
		}
	}
	// Nested overrides are found after their parent pair; keep document order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartByte() < out[j].StartByte() })
	return out
}

func overridePairs(obj *sitter.Node, src []byte) []*sitter.Node {
	var out []*sitter.Node
	for _, p := range query.Pairs(obj, src) {
		if !p.Spread && p.Node.Type() == "pair" && isOverridesPair(p.Node, src) {
			out = append(out, p.Node)
		}
	}
	return out
}

// stripOverrides removes the overrides entries of obj from its text and
// parses the remainder as a standalone object.
func stripOverrides(obj *sitter.Node, src []byte) (*syntax.Expr, error) {
	base := obj.StartByte()
	text := []byte(obj.Content(src))

	pairs := overridePairs(obj, src)
	for i := len(pairs) - 1; i >= 0; i-- {
		pair := pairs[i]
		start, end := pair.StartByte()-base, pair.EndByte()-base
		if next := pair.NextSibling(); next != nil && next.Type() == "," {
			end = next.EndByte() - base
		}
		text = append(text[:start:start], text[end:]...)
	}

	expr, err := syntax.ParseExpression(string(text))
	if err != nil {
		return nil, errors.Errorf("re-parsing override without nested overrides: %w", err)
	}
	if expr.Node.Type() != "object" {
		return nil, errors.Errorf("%w: override is not an object", syntax.ErrParse)
	}
	return expr, nil
}
