// Package resolve maps legacy "extends" identifiers and plugin names to the
// imports and configuration references of a flat configuration.
package resolve

import (
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/query"
	"github.com/morozRed/flatcfg/internal/sector"
)

// Mode selects how extends are migrated.
type Mode string

const (
	// ModeDirect imports flat configurations from the packages that
	// publish them.
	ModeDirect Mode = "direct"
	// ModeCompat routes every extends and plugin through the FlatCompat
	// bridge of @eslint/eslintrc.
	ModeCompat Mode = "compat"
)

var ErrUnknownMode = errors.Base("unknown resolution mode")

func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeDirect:
		return ModeDirect, nil
	case ModeCompat:
		return ModeCompat, nil
	}
	return "", errors.Errorf("%w: %q", ErrUnknownMode, value)
}

const (
	eslintJSModule  = "@eslint/js"
	prettierConfig  = "eslint-config-prettier"
	emberRecommends = "eslint-plugin-ember/recommended"
)

type Import struct {
	Ident  string
	Module string
}

// Plugin is a plugin registration implied by an extends entry.
type Plugin struct {
	Name   string
	Ident  string
	Module string
}

// Resolution is the outcome of resolving one extends entry. An entry that
// resolves to nothing else is Unresolved and is kept as a placeholder.
// TodoExpr is the expression a Todo asks the user to spread by hand.
type Resolution struct {
	Raw        string
	ID         string
	Configs    []sector.ConfigRef
	Imports    []Import
	Plugins    []Plugin
	Todo       string
	TodoExpr   string
	Unresolved bool
	Prettier   bool
	Angular    bool
	Inline     bool
}

// Bridge reports which parts of the compatibility bridge are in use.
type Bridge struct {
	Enabled     bool
	Recommended bool
	All         bool
}

// Resolver resolves the extends and plugins of every sector of one
// migration, sharing one import set so that each module is imported once.
type Resolver struct {
	mode    Mode
	imports *sector.ImportSet

	bridge   Bridge
	prettier bool
	angular  bool
	inline   bool
}

func New(mode Mode, imports *sector.ImportSet) *Resolver {
	if mode == "" {
		mode = ModeDirect
	}
	return &Resolver{mode: mode, imports: imports}
}

func (r *Resolver) Mode() Mode {
	return r.mode
}

func (r *Resolver) Bridge() Bridge {
	return r.bridge
}

// Resolve looks up a single extends entry as written in the source.
func Resolve(raw string) Resolution {
	res := Resolution{Raw: raw}
	id, ok := query.Unquote(strings.TrimSpace(raw))
	if !ok {
		res.Unresolved = true
		return res
	}
	res.ID = id

	switch {
	case id == "eslint:recommended" || id == "eslint:all":
		name := strings.TrimPrefix(id, "eslint:")
		res.Imports = []Import{{Ident: "js", Module: eslintJSModule}}
		res.Configs = []sector.ConfigRef{{Expr: "js.configs." + name}}
	case strings.HasPrefix(id, "plugin:"):
		resolvePluginConfig(&res, strings.TrimPrefix(id, "plugin:"))
	case strings.HasPrefix(id, "@"):
		config, ok := scopedConfigs[id]
		if !ok {
			res.Unresolved = true
			break
		}
		usePluginConfig(&res, "@typescript-eslint", typescriptPlugin, config)
	default:
		name := strings.TrimPrefix(id, "eslint-config-")
		ident, ok := sharedConfigs[name]
		if !ok {
			res.Unresolved = true
			break
		}
		res.Imports = []Import{{Ident: ident, Module: "eslint-config-" + name}}
		res.Configs = []sector.ConfigRef{{Expr: ident}}
	}
	return res
}

// resolvePluginConfig handles "plugin:<name>/<config>". Scoped plugin names
// stop at the first slash after the scope.
func resolvePluginConfig(res *Resolution, spec string) {
	name, config, found := strings.Cut(spec, "/")
	if !found || name == "" || config == "" {
		res.Unresolved = true
		return
	}
	if strings.HasPrefix(name, "@") {
		if _, known := knownPlugins[name]; !known {
			// "@scope/name/config" names the scoped plugin "@scope/name".
			if sub, rest, ok := strings.Cut(config, "/"); ok {
				if _, known := knownPlugins[name+"/"+sub]; known {
					name, config = name+"/"+sub, rest
				}
			}
		}
	}

	switch {
	case name == "prettier" && config == "recommended":
		res.Prettier = true
		return
	case strings.HasPrefix(name, "@angular-eslint"):
		res.Angular = true
		res.Inline = strings.Contains(config, "process-inline-templates")
		return
	case name == "ember" && config == "recommended":
		res.Imports = []Import{{Ident: "emberRecommended", Module: emberRecommends}}
		for _, c := range []string{"base", "gjs", "gts"} {
			res.Configs = append(res.Configs, sector.ConfigRef{Expr: "emberRecommended.configs." + c})
		}
		return
	}

	info, ok := knownPlugins[name]
	if !ok {
		res.Unresolved = true
		return
	}
	if info.manual {
		res.Plugins = []Plugin{{Name: name, Ident: info.ident, Module: info.module}}
		res.TodoExpr = info.configExpr(info.ident, config)
		res.Todo = manualTodo(res.ID, res.TodoExpr)
		return
	}
	usePluginConfig(res, name, info, config)
}

func usePluginConfig(res *Resolution, name string, info pluginInfo, config string) {
	res.Imports = append(res.Imports, Import{Ident: info.ident, Module: info.module})
	res.Plugins = append(res.Plugins, Plugin{Name: name, Ident: info.ident, Module: info.module})
	res.Configs = append(res.Configs, sector.ConfigRef{Expr: info.configExpr(info.ident, config), Array: info.array})
}

// Apply resolves the plugins and extends of rec in place.
func (r *Resolver) Apply(rec *sector.Record) {
	if r.mode == ModeCompat {
		r.applyCompat(rec)
		return
	}

	for _, e := range rec.Plugins.Entries() {
		if e.Value != "" {
			continue
		}
		info := pluginFor(e.Key)
		rec.Plugins.Set(e.Key, r.imports.AddDefault(info.ident, info.module))
	}

	for _, raw := range rec.Extends {
		r.record(rec, Resolve(raw))
	}
}

func (r *Resolver) record(rec *sector.Record, res Resolution) {
	if res.Unresolved {
		rec.UnresolvedExtends = append(rec.UnresolvedExtends, res.Raw)
		return
	}

	renamed := make(map[string]string)
	for _, imp := range res.Imports {
		if got := r.imports.AddDefault(imp.Ident, imp.Module); got != imp.Ident {
			renamed[imp.Ident] = got
		}
	}
	for _, p := range res.Plugins {
		ident := r.imports.AddDefault(p.Ident, p.Module)
		if ident != p.Ident {
			renamed[p.Ident] = ident
		}
		if existing, ok := rec.Plugins.Get(p.Name); !ok || existing == "" {
			rec.Plugins.Set(p.Name, ident)
		}
	}
	for _, ref := range res.Configs {
		ref.Expr = rebaseAll(ref.Expr, renamed)
		rec.AddDirect(ref)
	}
	switch {
	case res.TodoExpr != "":
		rec.AddTodo(manualTodo(res.ID, rebaseAll(res.TodoExpr, renamed)))
	case res.Todo != "":
		rec.AddTodo(res.Todo)
	}
	if res.Prettier {
		r.prettier = true
	}
	if res.Angular {
		r.angular = true
		r.inline = r.inline || res.Inline
	}
}

func manualTodo(id, expr string) string {
	return id + " must be migrated by hand: spread ..." + expr + " into this config"
}

func rebaseAll(expr string, renamed map[string]string) string {
	for from, to := range renamed {
		if rebased := rebase(expr, from, to); rebased != expr {
			return rebased
		}
	}
	return expr
}

func rebase(expr, from, to string) string {
	if !strings.HasPrefix(expr, from) {
		return expr
	}
	rest := expr[len(from):]
	if rest == "" || rest[0] == '.' || rest[0] == '[' {
		return to + rest
	}
	return expr
}

func (r *Resolver) applyCompat(rec *sector.Record) {
	var extends []string
	for _, raw := range rec.Extends {
		id, ok := query.Unquote(strings.TrimSpace(raw))
		if !ok {
			rec.UnresolvedExtends = append(rec.UnresolvedExtends, raw)
			continue
		}
		switch id {
		case "eslint:recommended":
			r.bridge.Recommended = true
		case "eslint:all":
			r.bridge.All = true
		}
		extends = append(extends, query.Quote(id))
	}
	if len(extends) > 0 {
		r.bridge.Enabled = true
		rec.AddDirect(sector.ConfigRef{Expr: "compat.extends(" + strings.Join(extends, ", ") + ")", Array: true})
	}

	var plugins []string
	for _, e := range rec.Plugins.Entries() {
		if e.Value != "" {
			continue
		}
		plugins = append(plugins, query.Quote(e.Key))
		rec.Plugins.Delete(e.Key)
	}
	if len(plugins) > 0 {
		r.bridge.Enabled = true
		rec.AddDirect(sector.ConfigRef{Expr: "compat.plugins(" + strings.Join(plugins, ", ") + ")", Array: true})
	}
}

// Trailing returns the sectors implied by resolved extends that must come
// after every migrated sector.
func (r *Resolver) Trailing() []*sector.Record {
	var out []*sector.Record

	if r.angular {
		angular := r.imports.AddDefault("angular", "@angular-eslint/eslint-plugin")
		template := r.imports.AddDefault("angularTemplate", "@angular-eslint/eslint-plugin-template")
		tsParser := r.imports.AddDefault("typescriptParser", "@typescript-eslint/parser")
		templateParser := r.imports.AddDefault("templateParser", "@angular-eslint/template-parser")

		ts := sector.NewRecord(false)
		ts.Files = `["**/*.ts"]`
		ts.Plugins.Set("@angular-eslint", angular)
		ts.Plugins.Set("@angular-eslint/template", template)
		ts.LanguageOptions.Parser = tsParser
		ts.LanguageOptions.ParserOptions.Set("project", `["tsconfig.json"]`)
		ts.Rules.Set("..."+angular+".configs.recommended.rules", "")
		if r.inline {
			ts.Processor = `"@angular-eslint/template/extract-inline-html"`
		}

		html := sector.NewRecord(false)
		html.Files = `["**/*.html"]`
		html.Plugins.Set("@angular-eslint/template", template)
		html.LanguageOptions.Parser = templateParser
		html.Rules.Set("..."+template+".configs.recommended.rules", "")

		out = append(out, ts, html)
	}

	if r.prettier {
		plugin := r.imports.AddDefault("prettierPlugin", "eslint-plugin-prettier")
		config := r.imports.AddDefault("eslintConfigPrettier", prettierConfig)

		rec := sector.NewRecord(true)
		rec.Plugins.Set("prettier", plugin)
		rec.SetRule("prettier/prettier", `"error"`)

		last := sector.NewRecord(true)
		last.AddDirect(sector.ConfigRef{Expr: config})
		out = append(out, rec, last)
	}
	return out
}
