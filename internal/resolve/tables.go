package resolve

import (
	"strings"

	"github.com/morozRed/flatcfg/internal/query"
	"github.com/morozRed/flatcfg/internal/sector"
)

// access describes where a plugin keeps its flat configurations.
type access int

const (
	// configs["flat/<name>"]
	flatSlash access = iota
	// configs.flat.<name>
	flatNested
	// flatConfigs.<name>
	flatConfigs
	// configs.<name>
	plainConfigs
)

type pluginInfo struct {
	ident  string
	module string
	access access
	array  bool
	// manual plugins have no usable flat configuration object; the user
	// gets a TODO with the expression to spread instead.
	manual  bool
	renames map[string]string
}

func (p pluginInfo) configExpr(ident, config string) string {
	if renamed, ok := p.renames[config]; ok {
		config = renamed
	}
	base := ident + ".configs"
	switch p.access {
	case flatNested:
		return query.Property(base+".flat", config)
	case flatConfigs:
		return query.Property(ident+".flatConfigs", config)
	case plainConfigs:
		return query.Property(base, config)
	default:
		return query.Property(base, "flat/"+config)
	}
}

var typescriptPlugin = pluginInfo{
	ident:  "typescriptEslint",
	module: "@typescript-eslint/eslint-plugin",
	access: flatSlash,
	array:  true,
	renames: map[string]string{
		"recommended-requiring-type-checking": "recommended-type-checked",
	},
}

var knownPlugins = map[string]pluginInfo{
	"react":                    {ident: "react", module: "eslint-plugin-react", access: flatNested},
	"react-hooks":              {ident: "reactHooks", module: "eslint-plugin-react-hooks", access: flatNested},
	"react-native":             {ident: "reactNative", module: "eslint-plugin-react-native", access: plainConfigs, manual: true},
	"vue":                      {ident: "vue", module: "eslint-plugin-vue", access: flatSlash, array: true},
	"@typescript-eslint":       typescriptPlugin,
	"typescript-eslint":        typescriptPlugin,
	"jest":                     {ident: "jest", module: "eslint-plugin-jest", access: flatSlash},
	"vitest":                   {ident: "vitest", module: "@vitest/eslint-plugin", access: plainConfigs},
	"testing-library":          {ident: "testingLibrary", module: "eslint-plugin-testing-library", access: flatSlash},
	"playwright":               {ident: "playwright", module: "eslint-plugin-playwright", access: flatSlash},
	"n":                        {ident: "n", module: "eslint-plugin-n", access: flatSlash, manual: true},
	"node":                     {ident: "node", module: "eslint-plugin-node", access: plainConfigs, manual: true},
	"import":                   {ident: "importPlugin", module: "eslint-plugin-import", access: flatConfigs},
	"unused-imports":           {ident: "unusedImports", module: "eslint-plugin-unused-imports", access: plainConfigs, manual: true},
	"security":                 {ident: "security", module: "eslint-plugin-security", access: plainConfigs},
	"sonarjs":                  {ident: "sonarjs", module: "eslint-plugin-sonarjs", access: plainConfigs},
	"unicorn":                  {ident: "unicorn", module: "eslint-plugin-unicorn", access: flatSlash},
	"promise":                  {ident: "promise", module: "eslint-plugin-promise", access: flatSlash},
	"compat":                   {ident: "compatPlugin", module: "eslint-plugin-compat", access: flatSlash},
	"ember":                    {ident: "ember", module: "eslint-plugin-ember", access: plainConfigs},
	"qunit":                    {ident: "qunit", module: "eslint-plugin-qunit", access: plainConfigs, manual: true},
	"@angular-eslint":          {ident: "angular", module: "@angular-eslint/eslint-plugin", access: plainConfigs},
	"@angular-eslint/template": {ident: "angularTemplate", module: "@angular-eslint/eslint-plugin-template", access: plainConfigs},
	"jsx-a11y":                 {ident: "jsxA11y", module: "eslint-plugin-jsx-a11y", access: flatConfigs},
	"jsdoc":                    {ident: "jsdocPlugin", module: "eslint-plugin-jsdoc", access: flatSlash},
	"tailwindcss":              {ident: "tailwindcss", module: "eslint-plugin-tailwindcss", access: flatSlash},
	"graphql":                  {ident: "graphql", module: "@graphql-eslint/eslint-plugin", access: flatSlash},
	"@next/next":               {ident: "nextPlugin", module: "@next/eslint-plugin-next", access: plainConfigs, manual: true},
	"prettier":                 {ident: "prettierPlugin", module: "eslint-plugin-prettier", access: plainConfigs},
}

// sharedConfigs maps shareable configuration names, without their
// "eslint-config-" prefix, to import identifiers.
var sharedConfigs = map[string]string{
	"airbnb":                   "airbnb",
	"airbnb-base":              "airbnbBase",
	"airbnb-typescript":        "airbnbTypescript",
	"prettier":                 "eslintConfigPrettier",
	"standard":                 "standard",
	"standard-with-typescript": "standardWithTypescript",
	"google":                   "google",
	"xo":                       "xo",
	"xo-typescript":            "xoTypescript",
}

// scopedConfigs maps scoped shareable configurations published by the
// TypeScript project to their flat plugin counterparts.
var scopedConfigs = map[string]string{
	"@typescript-eslint/recommended":                         "recommended",
	"@typescript-eslint/eslint-recommended":                  "eslint-recommended",
	"@typescript-eslint/recommended-requiring-type-checking": "recommended-type-checked",
	"@typescript-eslint/strict":                              "strict",
}

// pluginFor returns the import for a plugin name, falling back to the
// eslint-plugin package naming convention.
func pluginFor(name string) pluginInfo {
	if info, ok := knownPlugins[name]; ok {
		return info
	}
	var module, base string
	if strings.HasPrefix(name, "@") {
		scope, rest, found := strings.Cut(name, "/")
		if found {
			module = scope + "/eslint-plugin-" + rest
			base = scope[1:] + "-" + rest
		} else {
			module = name + "/eslint-plugin"
			base = name[1:]
		}
	} else {
		module = "eslint-plugin-" + name
		base = name
	}
	ident := sector.CamelIdent(base)
	if ident == "" {
		ident = "plugin"
	}
	return pluginInfo{ident: ident, module: module, access: flatSlash}
}
