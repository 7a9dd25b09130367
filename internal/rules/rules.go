// Package rules rewrites the settings of legacy rules whose options changed
// shape or meaning in flat configurations.
package rules

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/morozRed/flatcfg/internal/query"
	"github.com/morozRed/flatcfg/internal/sector"
)

// Policy rewrites one rule of a sector in place.
type Policy func(rec *sector.Record)

type entry struct {
	name   string
	policy Policy
}

// table is applied in this order. Each policy leaves values it does not
// recognise untouched.
var table = []entry{
	{"no-unused-vars", migrateNoUnusedVars},
	{"no-useless-computed-key", migrateNoUselessComputedKey},
	{"camelcase", migrateCamelcase},
	{"no-constructor-return", migrateSeverityOnly("no-constructor-return")},
	{"no-sequences", migrateNoSequences},
	{"no-restricted-imports", migrateNoRestrictedImports},
	{"require-jsdoc", migrateJsdocRule("require-jsdoc")},
	{"valid-jsdoc", migrateJsdocRule("valid-jsdoc")},
}

// Apply runs every policy against rec.
func Apply(rec *sector.Record) {
	for _, e := range table {
		if _, ok := rec.Rule(e.name); ok {
			e.policy(rec)
		}
	}
}

func lookup(rec *sector.Record, name string) (*ruleValue, bool) {
	text, ok := rec.Rule(name)
	if !ok {
		return nil, false
	}
	return parseRuleValue(text)
}

// migrateNoUnusedVars makes the legacy default for caughtErrors explicit,
// since flat configurations report caught errors unless told otherwise.
func migrateNoUnusedVars(rec *sector.Record) {
	rv, ok := lookup(rec, "no-unused-vars")
	if !ok {
		return
	}
	obj, ok := rv.objectOption()
	if !ok {
		return
	}
	opts := &optionList{}
	opts.set("caughtErrors", `caughtErrors: "none"`)
	if obj != nil {
		opts.copyFrom(rv, obj)
	}
	rec.SetRule("no-unused-vars", render(rv.severity, opts.String()))
}

func migrateNoUselessComputedKey(rec *sector.Record) {
	rv, ok := lookup(rec, "no-useless-computed-key")
	if !ok {
		return
	}
	obj, ok := rv.objectOption()
	if !ok {
		return
	}
	opts := &optionList{}
	if obj != nil {
		opts.copyFrom(rv, obj)
	}
	if _, ok := opts.get("enforceForClassMembers"); !ok {
		opts.set("enforceForClassMembers", "enforceForClassMembers: false")
	}
	rec.SetRule("no-useless-computed-key", render(rv.severity, opts.String()))
}

// migrateCamelcase keeps only an allow list made of bare entries. Quoted
// names were matched literally by the legacy rule but as patterns now.
func migrateCamelcase(rec *sector.Record) {
	rv, ok := lookup(rec, "camelcase")
	if !ok {
		return
	}
	obj, ok := rv.objectOption()
	if !ok {
		return
	}
	if obj == nil {
		rec.SetRule("camelcase", render(rv.severity))
		return
	}
	opts := &optionList{}
	for _, p := range query.Pairs(obj, rv.expr.Source) {
		if p.Key == "allow" && !bareArray(rv, p.Value) {
			continue
		}
		opts.set(p.Key, rv.text(p.Node))
	}
	if opts.empty() {
		rec.SetRule("camelcase", render(rv.severity))
		return
	}
	rec.SetRule("camelcase", render(rv.severity, opts.String()))
}

func bareArray(rv *ruleValue, n *sitter.Node) bool {
	if n == nil || n.Type() != "array" {
		return false
	}
	for _, el := range query.Elements(n) {
		if strings.ContainsAny(rv.text(el), "\"'`") {
			return false
		}
	}
	return true
}

func migrateSeverityOnly(name string) Policy {
	return func(rec *sector.Record) {
		rv, ok := lookup(rec, name)
		if !ok {
			return
		}
		rec.SetRule(name, render(rv.severity))
	}
}

// migrateNoSequences keeps allowInParentheses only when it was written out.
func migrateNoSequences(rec *sector.Record) {
	rv, ok := lookup(rec, "no-sequences")
	if !ok {
		return
	}
	obj, ok := rv.objectOption()
	if !ok {
		return
	}
	if obj != nil {
		if p, found := query.Lookup(obj, rv.expr.Source, "allowInParentheses"); found {
			rec.SetRule("no-sequences", render(rv.severity, "{"+rv.text(p.Node)+"}"))
			return
		}
	}
	rec.SetRule("no-sequences", render(rv.severity))
}

// migrateNoRestrictedImports removes duplicate entries from the paths
// option. Entries are keyed by module name; a later duplicate replaces the
// content of the earlier one but keeps its position.
func migrateNoRestrictedImports(rec *sector.Record) {
	rv, ok := lookup(rec, "no-restricted-imports")
	if !ok {
		return
	}
	obj, ok := rv.objectOption()
	if !ok || obj == nil || len(rv.options) != 1 {
		return
	}
	paths, found := query.Lookup(obj, rv.expr.Source, "paths")
	if !found || paths.Value.Type() != "array" {
		return
	}

	var (
		order   []string
		content = make(map[string]string)
	)
	for i, el := range query.Elements(paths.Value) {
		key := restrictedName(rv, el)
		if key == "" {
			key = "\x00" + strconv.Itoa(i)
		}
		if _, seen := content[key]; !seen {
			order = append(order, key)
		}
		content[key] = rv.text(el)
	}
	deduped := make([]string, len(order))
	for i, key := range order {
		deduped[i] = content[key]
	}

	opts := &optionList{}
	opts.copyFrom(rv, obj)
	opts.set("paths", paths.KeyText+": ["+strings.Join(deduped, ", ")+"]")
	rec.SetRule("no-restricted-imports", render(rv.severity, opts.String()))
}

func restrictedName(rv *ruleValue, el *sitter.Node) string {
	if name, ok := query.StringValue(el, rv.expr.Source); ok {
		return name
	}
	if el.Type() != "object" {
		return ""
	}
	p, ok := query.Lookup(el, rv.expr.Source, "name")
	if !ok {
		return ""
	}
	name, _ := query.StringValue(p.Value, rv.expr.Source)
	return name
}

// migrateJsdocRule removes a core rule that no longer exists and records
// that the documentation plugin has to be configured instead.
func migrateJsdocRule(name string) Policy {
	return func(rec *sector.Record) {
		text, _ := rec.Rule(name)
		rec.DeleteRule(name)

		rv, ok := parseRuleValue(text)
		if ok && rv.off() {
			return
		}
		rec.RequireJsdoc.Exists = true
		if !ok || name != "require-jsdoc" {
			return
		}
		obj, _ := rv.objectOption()
		if obj == nil {
			return
		}
		req, found := query.Lookup(obj, rv.expr.Source, "require")
		if !found || req.Value.Type() != "object" {
			return
		}
		for _, p := range query.Pairs(req.Value, rv.expr.Source) {
			if p.Spread {
				continue
			}
			rec.RequireJsdoc.Settings.Set(p.Key, rv.text(p.Value))
		}
	}
}
