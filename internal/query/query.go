// Package query provides structural lookups over parsed configuration
// documents: node matching by kind, ancestor scoping and object pair access.
package query

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Matcher selects nodes of one kind, optionally restricted to nodes that sit
// inside an ancestor of another kind and filtered by a predicate.
type Matcher struct {
	Kind   string
	Inside string
	Where  func(n *sitter.Node) bool
}

func (m Matcher) matches(n *sitter.Node) bool {
	if m.Kind != "" && n.Type() != m.Kind {
		return false
	}
	if m.Inside != "" && !HasAncestor(n, m.Inside) {
		return false
	}
	if m.Where != nil && !m.Where(n) {
		return false
	}
	return true
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the visited node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), fn)
	}
}

// FindAll returns every node under root (root included) accepted by m, in
// document order.
func FindAll(root *sitter.Node, m Matcher) []*sitter.Node {
	var out []*sitter.Node
	Walk(root, func(n *sitter.Node) bool {
		if m.matches(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindFirst returns the first node accepted by m, or nil.
func FindFirst(root *sitter.Node, m Matcher) *sitter.Node {
	var found *sitter.Node
	Walk(root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if m.matches(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func HasAncestor(n *sitter.Node, kind string) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == kind {
			return true
		}
	}
	return false
}

// Text returns the source text spanned by n.
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(src)
}

// Named returns the named children of n, skipping comments.
func Named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// Elements returns the elements of an array node.
func Elements(arr *sitter.Node) []*sitter.Node {
	if arr == nil || arr.Type() != "array" {
		return nil
	}
	return Named(arr)
}

// Pair is one entry of an object literal.
type Pair struct {
	// Key is the unquoted property name. For spread entries it holds the
	// spread text, e.g. "...base.rules".
	Key string
	// KeyText is the key as written, quotes included.
	KeyText string
	Spread  bool
	Node    *sitter.Node
	Value   *sitter.Node
}

// Pairs returns the immediate entries of an object node in document order.
// Shorthand properties are reported with the identifier as both key and
// value. Methods and computed keys are skipped.
func Pairs(obj *sitter.Node, src []byte) []Pair {
	if obj == nil || obj.Type() != "object" {
		return nil
	}
	var out []Pair
	for _, child := range Named(obj) {
		switch child.Type() {
		case "pair":
			key := child.ChildByFieldName("key")
			if key == nil || key.Type() == "computed_property_name" {
				continue
			}
			keyText := key.Content(src)
			name, _ := Unquote(keyText)
			out = append(out, Pair{
				Key:     name,
				KeyText: keyText,
				Node:    child,
				Value:   child.ChildByFieldName("value"),
			})
		case "spread_element":
			text := child.Content(src)
			out = append(out, Pair{Key: text, KeyText: text, Spread: true, Node: child})
		case "shorthand_property_identifier":
			text := child.Content(src)
			out = append(out, Pair{Key: text, KeyText: text, Node: child, Value: child})
		}
	}
	return out
}

// Lookup returns the last immediate pair of obj named key. ESLint resolved
// duplicate keys the same way.
func Lookup(obj *sitter.Node, src []byte, key string) (Pair, bool) {
	var (
		found Pair
		ok    bool
	)
	for _, p := range Pairs(obj, src) {
		if !p.Spread && p.Key == key {
			found, ok = p, true
		}
	}
	return found, ok
}

// StringValue returns the decoded value of a string literal node.
func StringValue(n *sitter.Node, src []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
		return Unquote(n.Content(src))
	case "template_string":
		if n.NamedChildCount() > 0 {
			for _, child := range Named(n) {
				if child.Type() == "template_substitution" {
					return "", false
				}
			}
		}
		return Unquote(n.Content(src))
	}
	return "", false
}

// Unquote strips one level of matching quotes from s and decodes escape
// sequences. The second return value is false when s was not quoted, in
// which case s is returned unchanged.
func Unquote(s string) (string, bool) {
	if len(s) < 2 {
		return s, false
	}
	first, last := s[0], s[len(s)-1]
	if first != last || (first != '"' && first != '\'' && first != '`') {
		return s, false
	}
	inner := s[1 : len(s)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner, true
	}
	if first == '"' {
		if v, err := strconv.Unquote(s); err == nil {
			return v, true
		}
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(inner[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), true
}

// IsIdentifier reports whether name can be used as a bare property key.
func IsIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Key renders name as an object key: bare when it is an identifier,
// double-quoted otherwise.
func Key(name string) string {
	if IsIdentifier(name) {
		return name
	}
	return Quote(name)
}

// Quote renders s as a double-quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Property renders a member access of name on base, using dot notation when
// possible.
func Property(base, name string) string {
	if IsIdentifier(name) {
		return base + "." + name
	}
	return base + "[" + Quote(name) + "]"
}
