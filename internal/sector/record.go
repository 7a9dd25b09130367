// Package sector finds the legacy configuration sectors of a parsed document
// and normalizes each one into a Record.
package sector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/morozRed/flatcfg/internal/query"
)

// GlobalsModule is the package that provides environment preset globals.
const GlobalsModule = "globals"

// Record is the normalized content of one configuration sector. Values are
// kept as source fragments so that anything not explicitly rewritten is
// copied through verbatim.
type Record struct {
	TopLevel bool

	// Files and Ignores hold array literal text. Override sectors always
	// carry Files.
	Files   string
	Ignores string

	Rules   *OrderedMap
	Extends []string
	// Plugins maps a plugin name to the identifier of its import. The
	// identifier is empty until the plugin has been resolved.
	Plugins         *OrderedMap
	LanguageOptions LanguageOptions
	Settings        string
	Processor       string
	LinterOptions   *OrderedMap
	// IgnorePatterns are the unquoted ignorePatterns of a top-level sector.
	IgnorePatterns []string
	RequireJsdoc   RequireJsdoc
	// Todos are notes rendered as "// TODO:" comments in the sector.
	Todos []string

	DirectConfigs     []ConfigRef
	UnresolvedExtends []string
}

type LanguageOptions struct {
	Parser string
	// Globals maps names to "readonly", "writable" or "off" literals.
	// Preset spreads are stored under their spread text.
	Globals       *OrderedMap
	ParserOptions *OrderedMap
}

// RequireJsdoc records that the legacy require-jsdoc or valid-jsdoc rules
// were enabled, and the require settings to carry over.
type RequireJsdoc struct {
	Exists   bool
	Settings *OrderedMap
}

// ConfigRef is a reference to a flat configuration emitted next to the
// sector object.
type ConfigRef struct {
	Expr  string
	Array bool
}

func NewRecord(topLevel bool) *Record {
	return &Record{
		TopLevel: topLevel,
		Rules:    NewOrderedMap(),
		Plugins:  NewOrderedMap(),
		LanguageOptions: LanguageOptions{
			Globals:       NewOrderedMap(),
			ParserOptions: NewOrderedMap(),
		},
		LinterOptions: NewOrderedMap(),
		RequireJsdoc:  RequireJsdoc{Settings: NewOrderedMap()},
	}
}

// RuleKey is the normalized key under which a rule is stored.
func RuleKey(name string) string {
	return query.Key(name)
}

// Rule returns the value of the named rule.
func (r *Record) Rule(name string) (string, bool) {
	return r.Rules.Get(RuleKey(name))
}

func (r *Record) SetRule(name, value string) {
	r.Rules.Set(RuleKey(name), value)
}

func (r *Record) DeleteRule(name string) bool {
	return r.Rules.Delete(RuleKey(name))
}

func (r *Record) AddTodo(format string, args ...any) {
	if len(args) == 0 {
		r.Todos = append(r.Todos, format)
		return
	}
	r.Todos = append(r.Todos, fmt.Sprintf(format, args...))
}

// AddDirect appends a configuration reference unless it is already present.
func (r *Record) AddDirect(ref ConfigRef) {
	for _, existing := range r.DirectConfigs {
		if existing.Expr == ref.Expr {
			return
		}
	}
	r.DirectConfigs = append(r.DirectConfigs, ref)
}

// Empty reports whether the sector object would have no content.
func (r *Record) Empty() bool {
	return r.Files == "" && r.Ignores == "" && r.Rules.Len() == 0 &&
		r.Plugins.Len() == 0 && r.LanguageOptions.Empty() && r.Settings == "" &&
		r.Processor == "" && r.LinterOptions.Len() == 0 && len(r.Todos) == 0 &&
		len(r.UnresolvedExtends) == 0
}

func (l LanguageOptions) Empty() bool {
	return l.Parser == "" && l.Globals.Len() == 0 && l.ParserOptions.Len() == 0
}

// LiteralKind classifies a scalar source fragment.
type LiteralKind int

const (
	Other LiteralKind = iota
	Bool
	Number
	String
	Null
)

// Literal is a scalar value read back from its source text.
type Literal struct {
	Kind  LiteralKind
	Bool  bool
	Num   float64
	Str   string
	Quote byte
	Raw   string
}

// ParseLiteral coerces boolean, numeric and string literal text.
func ParseLiteral(raw string) Literal {
	raw = strings.TrimSpace(raw)
	lit := Literal{Raw: raw}
	switch raw {
	case "true", "false":
		lit.Kind, lit.Bool = Bool, raw == "true"
		return lit
	case "null":
		lit.Kind = Null
		return lit
	}
	if s, ok := query.Unquote(raw); ok {
		lit.Kind, lit.Str, lit.Quote = String, s, raw[0]
		return lit
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		lit.Kind, lit.Num = Number, n
	}
	return lit
}

// QuoteLike renders s with the same quote character as lit, falling back to
// double quotes.
func (lit Literal) QuoteLike(s string) string {
	if lit.Quote == '\'' && !strings.ContainsAny(s, `'\`) {
		return "'" + s + "'"
	}
	return query.Quote(s)
}
