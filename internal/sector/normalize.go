package sector

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/morozRed/flatcfg/internal/query"
)

// ignoredKeys have no flat counterpart and are dropped without a note.
// Unknown keys get a TODO instead.
var ignoredKeys = map[string]bool{
	"root":      true,
	"overrides": true,
	"$schema":   true,
}

// Normalize extracts the content of one sector. Only the immediate entries
// of each key are read. Imports required by environment presets and custom
// parsers are added to imports.
func Normalize(sec Sector, imports *ImportSet) *Record {
	rec := NewRecord(sec.TopLevel)
	src := sec.Source

	for _, p := range query.Pairs(sec.Node, src) {
		if p.Spread {
			rec.AddTodo("spread %s was not migrated", p.Key)
			continue
		}
		value := p.Value
		switch p.Key {
		case "rules":
			normalizeRules(rec, value, src)
		case "extends":
			normalizeExtends(rec, value, src)
		case "plugins":
			normalizePlugins(rec, value, src)
		case "globals":
			normalizeGlobals(rec, value, src)
		case "env":
			normalizeEnv(rec, value, src, imports)
		case "parser":
			normalizeParser(rec, value, src, imports)
		case "parserOptions":
			if value.Type() != "object" {
				rec.AddTodo("parserOptions %s was not migrated", query.Text(value, src))
				continue
			}
			for _, opt := range query.Pairs(value, src) {
				if opt.Spread {
					rec.LanguageOptions.ParserOptions.Set(opt.Key, "")
					continue
				}
				rec.LanguageOptions.ParserOptions.Set(opt.Key, query.Text(opt.Value, src))
			}
		case "files":
			if sec.TopLevel {
				rec.AddTodo("top-level files %s has no flat equivalent; scope the configs below manually", query.Text(value, src))
				continue
			}
			rec.Files = arrayText(value, src)
		case "excludedFiles":
			rec.Ignores = arrayText(value, src)
		case "ignorePatterns":
			patterns := stringList(value, src)
			if !sec.TopLevel {
				rec.Ignores = arrayOf(patterns)
				continue
			}
			rec.IgnorePatterns = append(rec.IgnorePatterns, patterns...)
		case "settings":
			rec.Settings = query.Text(value, src)
		case "processor":
			rec.Processor = query.Text(value, src)
		case "noInlineConfig", "reportUnusedDisableDirectives":
			rec.LinterOptions.Set(p.Key, query.Text(value, src))
		default:
			if ignoredKeys[p.Key] {
				continue
			}
			rec.AddTodo("%s: %s was not migrated", p.KeyText, strings.Join(strings.Fields(query.Text(value, src)), " "))
		}
	}

	if !sec.TopLevel && rec.Files == "" {
		rec.Files = `["**/*"]`
		rec.AddTodo("this override had no files pattern; narrow it down")
	}
	return rec
}

func normalizeRules(rec *Record, value *sitter.Node, src []byte) {
	if value.Type() != "object" {
		rec.AddTodo("rules %s was not migrated", query.Text(value, src))
		return
	}
	for _, p := range query.Pairs(value, src) {
		if p.Spread {
			rec.Rules.Set(p.Key, "")
			continue
		}
		rec.SetRule(p.Key, query.Text(p.Value, src))
	}
}

func normalizeExtends(rec *Record, value *sitter.Node, src []byte) {
	if value.Type() == "array" {
		for _, el := range query.Elements(value) {
			rec.Extends = append(rec.Extends, query.Text(el, src))
		}
		return
	}
	rec.Extends = append(rec.Extends, query.Text(value, src))
}

func normalizePlugins(rec *Record, value *sitter.Node, src []byte) {
	switch value.Type() {
	case "array":
		for _, el := range query.Elements(value) {
			name, ok := query.StringValue(el, src)
			if !ok {
				rec.AddTodo("plugin %s was not migrated", query.Text(el, src))
				continue
			}
			rec.Plugins.SetDefault(PluginName(name), "")
		}
	case "object":
		for _, p := range query.Pairs(value, src) {
			if p.Spread {
				rec.AddTodo("plugins spread %s was not migrated", p.Key)
				continue
			}
			rec.Plugins.Set(p.Key, query.Text(p.Value, src))
		}
	default:
		if name, ok := query.StringValue(value, src); ok {
			rec.Plugins.SetDefault(PluginName(name), "")
			return
		}
		rec.AddTodo("plugins %s was not migrated", query.Text(value, src))
	}
}

func normalizeGlobals(rec *Record, value *sitter.Node, src []byte) {
	if value.Type() != "object" {
		rec.AddTodo("globals %s was not migrated", query.Text(value, src))
		return
	}
	for _, p := range query.Pairs(value, src) {
		if p.Spread {
			rec.LanguageOptions.Globals.Set(p.Key, "")
			continue
		}
		rec.LanguageOptions.Globals.Set(p.Key, GlobalValue(query.Text(p.Value, src)))
	}
}

// GlobalValue maps legacy global settings to the flat vocabulary.
func GlobalValue(raw string) string {
	lit := ParseLiteral(raw)
	switch lit.Kind {
	case Bool:
		if lit.Bool {
			return `"writable"`
		}
		return `"readonly"`
	case String:
		switch lit.Str {
		case "writeable", "writable":
			return lit.QuoteLike("writable")
		case "readable", "readonly":
			return lit.QuoteLike("readonly")
		}
	}
	return raw
}

func normalizeEnv(rec *Record, value *sitter.Node, src []byte, imports *ImportSet) {
	if value.Type() != "object" {
		rec.AddTodo("env %s was not migrated", query.Text(value, src))
		return
	}
	for _, p := range query.Pairs(value, src) {
		if p.Spread {
			rec.AddTodo("env spread %s was not migrated", p.Key)
			continue
		}
		raw := query.Text(p.Value, src)
		if lit := ParseLiteral(raw); lit.Kind != Bool || !lit.Bool {
			rec.LanguageOptions.Globals.Set(p.Key, raw)
			continue
		}
		ident := imports.AddDefault("globals", GlobalsModule)
		rec.LanguageOptions.Globals.Set("..."+query.Property(ident, p.Key), "")
	}
}

func normalizeParser(rec *Record, value *sitter.Node, src []byte, imports *ImportSet) {
	module, ok := query.StringValue(value, src)
	if !ok {
		rec.LanguageOptions.Parser = query.Text(value, src)
		return
	}
	rec.LanguageOptions.Parser = imports.AddDefault(ParserIdent(module), module)
}

// PluginName shortens a plugin package name to the name used as its key in
// rules and in the plugins object.
func PluginName(name string) string {
	if strings.HasPrefix(name, "@") {
		scope, rest, found := strings.Cut(name, "/")
		if !found {
			return name
		}
		switch {
		case rest == "eslint-plugin":
			return scope
		case strings.HasPrefix(rest, "eslint-plugin-"):
			return scope + "/" + strings.TrimPrefix(rest, "eslint-plugin-")
		}
		return name
	}
	return strings.TrimPrefix(name, "eslint-plugin-")
}

func arrayText(value *sitter.Node, src []byte) string {
	text := query.Text(value, src)
	if value.Type() == "array" {
		return text
	}
	return "[" + text + "]"
}

func stringList(value *sitter.Node, src []byte) []string {
	if value.Type() != "array" {
		if s, ok := query.StringValue(value, src); ok {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, el := range query.Elements(value) {
		if s, ok := query.StringValue(el, src); ok {
			out = append(out, s)
		}
	}
	return out
}

func arrayOf(patterns []string) string {
	quoted := make([]string, len(patterns))
	for i, p := range patterns {
		quoted[i] = query.Quote(p)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
