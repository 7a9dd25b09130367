package sector

import "strings"

// parserImports maps legacy parser module names to the identifier used when
// importing them into a flat configuration.
var parserImports = map[string]string{
	"@typescript-eslint/parser":       "typescriptParser",
	"@babel/eslint-parser":            "babelParser",
	"babel-eslint":                    "babelEslint",
	"vue-eslint-parser":               "vueParser",
	"espree":                          "espree",
	"@angular-eslint/template-parser": "templateParser",
	"svelte-eslint-parser":            "svelteParser",
	"jsonc-eslint-parser":             "jsoncParser",
	"yaml-eslint-parser":              "yamlParser",
	"@graphql-eslint/eslint-plugin":   "graphqlParser",
}

// ParserIdent returns the import identifier for a parser module.
func ParserIdent(module string) string {
	if ident, ok := parserImports[module]; ok {
		return ident
	}
	name := strings.TrimPrefix(module, "@")
	name = strings.TrimSuffix(name, "/parser")
	name = strings.TrimSuffix(name, "-eslint-parser")
	name = strings.TrimSuffix(name, "-parser")
	ident := CamelIdent(name)
	if ident == "" {
		ident = "custom"
	}
	return ident + "Parser"
}

// CamelIdent converts a package-like name to a lowerCamel identifier.
func CamelIdent(name string) string {
	var b strings.Builder
	upper := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '$':
			if upper && b.Len() > 0 && r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upper = false
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	return b.String()
}
