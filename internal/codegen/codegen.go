// Package codegen renders normalized sectors as a flat eslint.config.mjs
// module.
package codegen

import (
	"strings"

	"github.com/morozRed/flatcfg/internal/fileutil"
	"github.com/morozRed/flatcfg/internal/query"
	"github.com/morozRed/flatcfg/internal/resolve"
	"github.com/morozRed/flatcfg/internal/sector"
)

const (
	jsdocModule  = "eslint-plugin-jsdoc"
	eslintJS     = "@eslint/js"
	eslintrc     = "@eslint/eslintrc"
	cleanGlobals = "cleanGlobals"
)

type Options struct {
	// Ignores are global ignore patterns gathered outside the document,
	// such as the entries of .eslintignore files.
	Ignores []string
	Bridge  resolve.Bridge
}

// plan holds what the records need from the module prologue.
type plan struct {
	ignores  []string
	jsdoc    *sector.Record
	dirname  bool
	clean    bool
	bridge   resolve.Bridge
	imports  []string
	sections []string
}

// Generate renders records, in order, as the default export of a flat
// configuration module. imports are emitted after the eslint/config import
// and before any import the rendered content needs.
func Generate(records []*sector.Record, imports []string, opts Options) string {
	p := newPlan(records, imports, opts)

	var elements []string
	if len(p.ignores) > 0 {
		quoted := make([]string, len(p.ignores))
		for i, pattern := range p.ignores {
			quoted[i] = query.Quote(pattern)
		}
		elements = append(elements, "globalIgnores(["+strings.Join(quoted, ", ")+"])")
	}
	if p.jsdoc != nil {
		elements = append(elements, jsdocElement(p.jsdoc))
	}
	for _, rec := range records {
		elements = append(elements, directElements(rec)...)
		if !rec.Empty() {
			elements = append(elements, sectorObject(rec, p.clean).String())
		}
	}

	var sb strings.Builder
	for _, line := range p.imports {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	for _, section := range p.sections {
		sb.WriteString(section)
		sb.WriteString("\n\n")
	}

	if len(elements) == 0 {
		sb.WriteString("export default defineConfig([]);\n")
		return sb.String()
	}
	sb.WriteString("export default defineConfig([\n")
	for i, el := range elements {
		sb.WriteString(indentUnit)
		sb.WriteString(el)
		if i < len(elements)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("]);\n")
	return sb.String()
}

func newPlan(records []*sector.Record, imports []string, opts Options) *plan {
	p := &plan{bridge: opts.Bridge, dirname: opts.Bridge.Enabled}

	ignores := append([]string{}, opts.Ignores...)
	for _, rec := range records {
		if rec.TopLevel {
			ignores = append(ignores, rec.IgnorePatterns...)
		}
		if p.jsdoc == nil && rec.RequireJsdoc.Exists {
			p.jsdoc = rec
		}
		if usesDirname(rec) {
			p.dirname = true
		}
		if needsCleaning(rec) {
			p.clean = true
		}
	}
	p.ignores = fileutil.DedupeStrings(ignores)

	header := `import { defineConfig } from "eslint/config";`
	if len(p.ignores) > 0 {
		header = `import { defineConfig, globalIgnores } from "eslint/config";`
	}
	lines := append([]string{header}, imports...)
	if p.jsdoc != nil {
		lines = append(lines, `import { jsdoc } from "`+jsdocModule+`";`)
	}
	if p.bridge.Enabled {
		if (p.bridge.Recommended || p.bridge.All) && !importsModule(lines, eslintJS) {
			lines = append(lines, `import js from "`+eslintJS+`";`)
		}
		lines = append(lines, `import { FlatCompat } from "`+eslintrc+`";`)
	}
	if p.dirname {
		lines = append(lines, `import path from "node:path";`, `import { fileURLToPath } from "node:url";`)
	}
	p.imports = fileutil.DedupeStrings(lines)

	if p.dirname {
		p.sections = append(p.sections, "const __filename = fileURLToPath(import.meta.url);\nconst __dirname = path.dirname(__filename);")
	}
	if p.clean {
		p.sections = append(p.sections, "const "+cleanGlobals+" = (globalsObj) =>\n"+
			"  Object.fromEntries(\n"+
			"    Object.entries(globalsObj).map(([key, value]) => [key.trim(), value]),\n"+
			"  );")
	}
	if p.bridge.Enabled {
		b := newBlock(0)
		b.prop("baseDirectory", "__dirname")
		if p.bridge.Recommended {
			b.prop("recommendedConfig", "js.configs.recommended")
		}
		if p.bridge.All {
			b.prop("allConfig", "js.configs.all")
		}
		p.sections = append(p.sections, "const compat = new FlatCompat("+b.String()+");")
	}
	return p
}

func importsModule(lines []string, module string) bool {
	suffix := `from "` + module + `";`
	for _, line := range lines {
		if strings.HasSuffix(line, suffix) {
			return true
		}
	}
	return false
}

func usesDirname(rec *sector.Record) bool {
	for _, e := range rec.LanguageOptions.ParserOptions.Entries() {
		if strings.Contains(e.Value, "__dirname") || strings.Contains(e.Key, "__dirname") {
			return true
		}
	}
	return strings.Contains(rec.Settings, "__dirname")
}

func presetSpread(key string) bool {
	prefix := "..." + sector.GlobalsModule
	return strings.HasPrefix(key, prefix+".") || strings.HasPrefix(key, prefix+"[")
}

// needsCleaning reports whether rec spreads a globals preset. Literal keys
// are trimmed as they are rendered and never go through cleanGlobals.
func needsCleaning(rec *sector.Record) bool {
	for _, e := range rec.LanguageOptions.Globals.Entries() {
		if e.Spread() && presetSpread(e.Key) {
			return true
		}
	}
	return false
}

func jsdocElement(rec *sector.Record) string {
	settings := newBlock(2)
	settings.comment("TODO: Migrate settings manually")
	for _, e := range rec.RequireJsdoc.Settings.Entries() {
		settings.verbatim(query.Key(e.Key), e.Value)
	}

	b := newBlock(1)
	b.prop("config", `"flat/recommended"`)
	b.prop("settings", settings.String())
	return "jsdoc(" + b.String() + ")"
}

// directElements renders the configuration references of rec. References
// of an override are scoped to its files.
func directElements(rec *sector.Record) []string {
	out := make([]string, 0, len(rec.DirectConfigs))
	for _, ref := range rec.DirectConfigs {
		if rec.TopLevel || rec.Files == "" {
			if ref.Array {
				out = append(out, "..."+ref.Expr)
			} else {
				out = append(out, ref.Expr)
			}
			continue
		}

		if ref.Array {
			b := newBlock(1)
			b.add("...config")
			scope(b, rec)
			out = append(out, "..."+ref.Expr+".map((config) => ("+b.String()+"))")
			continue
		}
		b := newBlock(1)
		b.add("..." + ref.Expr)
		scope(b, rec)
		out = append(out, b.String())
	}
	return out
}

func scope(b *block, rec *sector.Record) {
	b.verbatim("files", rec.Files)
	if rec.Ignores != "" {
		b.verbatim("ignores", rec.Ignores)
	}
}

func sectorObject(rec *sector.Record, clean bool) *block {
	b := newBlock(1)
	if rec.Files != "" {
		b.verbatim("files", rec.Files)
	}
	if rec.Ignores != "" {
		b.verbatim("ignores", rec.Ignores)
	}

	if len(rec.UnresolvedExtends) > 0 {
		parts := make([]string, len(rec.UnresolvedExtends))
		for i, raw := range rec.UnresolvedExtends {
			parts[i] = collapse(raw)
		}
		b.comment("TODO: these configs could not be migrated automatically; import their flat versions and add them above")
		b.comment("extends: [" + strings.Join(parts, ", ") + "]")
	}
	for _, todo := range rec.Todos {
		b.comment("TODO: " + collapse(todo))
	}

	plugins := newBlock(2)
	for _, e := range rec.Plugins.Entries() {
		if e.Value == "" {
			continue
		}
		plugins.verbatim(query.Key(e.Key), e.Value)
	}
	b.nested("plugins", plugins)

	b.nested("languageOptions", languageOptions(rec.LanguageOptions, clean))

	if rec.Processor != "" {
		b.verbatim("processor", rec.Processor)
	}
	if rec.Settings != "" {
		b.verbatim("settings", rec.Settings)
	}

	linter := newBlock(2)
	for _, e := range rec.LinterOptions.Entries() {
		linter.verbatim(e.Key, e.Value)
	}
	b.nested("linterOptions", linter)

	rules := newBlock(2)
	for _, e := range rec.Rules.Entries() {
		if e.Spread() {
			rules.add(e.Key)
			continue
		}
		rules.verbatim(e.Key, e.Value)
	}
	b.nested("rules", rules)
	return b
}

// languageOptions keeps sourceType at the language options level and nests
// every other parser option under parserOptions.
func languageOptions(opts sector.LanguageOptions, clean bool) *block {
	b := newBlock(2)
	if opts.Parser != "" {
		b.verbatim("parser", opts.Parser)
	}
	if value, ok := opts.ParserOptions.Get("sourceType"); ok {
		b.verbatim("sourceType", value)
	}

	globals := newBlock(3)
	for _, e := range opts.Globals.Entries() {
		if e.Spread() {
			if clean && presetSpread(e.Key) {
				globals.add("..." + cleanGlobals + "(" + e.Key[3:] + ")")
			} else {
				globals.add(e.Key)
			}
			continue
		}
		globals.verbatim(query.Key(strings.TrimSpace(e.Key)), e.Value)
	}
	b.nested("globals", globals)

	parserOptions := newBlock(3)
	for _, e := range opts.ParserOptions.Entries() {
		if e.Key == "sourceType" {
			continue
		}
		if e.Spread() {
			parserOptions.add(e.Key)
			continue
		}
		parserOptions.verbatim(query.Key(e.Key), e.Value)
	}
	b.nested("parserOptions", parserOptions)
	return b
}
