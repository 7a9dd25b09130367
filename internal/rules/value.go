package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/morozRed/flatcfg/internal/query"
	"github.com/morozRed/flatcfg/internal/sector"
	"github.com/morozRed/flatcfg/internal/syntax"
)

// ruleValue is a rule setting split into its severity and option elements.
type ruleValue struct {
	expr     *syntax.Expr
	severity string
	level    string
	options  []*sitter.Node
}

// parseRuleValue reads either a bare severity or a [severity, ...options]
// array. Anything else is reported as not recognised.
func parseRuleValue(text string) (*ruleValue, bool) {
	expr, err := syntax.ParseExpression(text)
	if err != nil {
		return nil, false
	}
	node := expr.Node
	rv := &ruleValue{expr: expr}
	if node.Type() == "array" {
		elements := query.Elements(node)
		if len(elements) == 0 {
			return nil, false
		}
		node = elements[0]
		rv.options = elements[1:]
	}
	switch node.Type() {
	case "string", "number":
	default:
		return nil, false
	}
	rv.severity = expr.Text(node)
	lit := sector.ParseLiteral(rv.severity)
	rv.level = strings.ToLower(lit.Str)
	if lit.Kind == sector.Number {
		rv.level = lit.Raw
	}
	return rv, true
}

func (rv *ruleValue) off() bool {
	return rv.level == "off" || rv.level == "0"
}

// objectOption returns the first option element when it is an object.
// The second return value is false when options exist but do not start with
// an object.
func (rv *ruleValue) objectOption() (*sitter.Node, bool) {
	if len(rv.options) == 0 {
		return nil, true
	}
	if rv.options[0].Type() != "object" {
		return nil, false
	}
	return rv.options[0], true
}

func (rv *ruleValue) text(n *sitter.Node) string {
	return rv.expr.Text(n)
}

// optionPair is one "key: value" entry of a rendered options object.
type optionPair struct {
	name string
	text string
}

type optionList struct {
	pairs []optionPair
}

// set replaces the entry named name, or appends it.
func (l *optionList) set(name, text string) {
	for i, p := range l.pairs {
		if p.name == name {
			l.pairs[i].text = text
			return
		}
	}
	l.pairs = append(l.pairs, optionPair{name: name, text: text})
}

func (l *optionList) get(name string) (string, bool) {
	for _, p := range l.pairs {
		if p.name == name {
			return p.text, true
		}
	}
	return "", false
}

func (l *optionList) empty() bool {
	return len(l.pairs) == 0
}

// copyFrom appends the entries of obj verbatim, keeping their key quoting.
func (l *optionList) copyFrom(rv *ruleValue, obj *sitter.Node) {
	for _, p := range query.Pairs(obj, rv.expr.Source) {
		l.set(p.Key, rv.text(p.Node))
	}
}

func (l *optionList) String() string {
	parts := make([]string, len(l.pairs))
	for i, p := range l.pairs {
		parts[i] = p.text
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func render(severity string, options ...string) string {
	parts := append([]string{severity}, options...)
	return "[" + strings.Join(parts, ", ") + "]"
}
