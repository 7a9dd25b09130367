package sector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/flatcfg/internal/syntax"
)

func locate(t *testing.T, syn syntax.Syntax, src string) []Sector {
	t.Helper()
	doc, err := syntax.Parse(context.Background(), syn, []byte(src))
	require.NoError(t, err)
	t.Cleanup(doc.Close)
	sectors, err := Locate(doc)
	require.NoError(t, err)
	return sectors
}

func TestLocateTopLevelForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		syn  syntax.Syntax
		src  string
		want int
	}{
		{"module exports", syntax.JS, `module.exports = { rules: {} };`, 1},
		{"export default", syntax.JS, `export default { rules: {} };`, 1},
		{"bound identifier", syntax.JS, "const config = { rules: {} };\nmodule.exports = config;\n", 1},
		{"json root", syntax.JSON, `{"rules": {}}`, 1},
		{"yaml root", syntax.YAML, "rules:\n  semi: error\n", 1},
		{"flat config", syntax.JS, "import { defineConfig } from \"eslint/config\";\nexport default defineConfig([{ rules: {} }]);\n", 0},
		{"flat array", syntax.JS, "export default [{ rules: {} }];\n", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sectors := locate(t, tt.syn, tt.src)
			require.Len(t, sectors, tt.want)
			if tt.want > 0 {
				assert.True(t, sectors[0].TopLevel)
			}
		})
	}
}

func TestLocateOverridesInOrderAndStripsNested(t *testing.T) {
	t.Parallel()

	src := `{
  "rules": { "semi": "error" },
  "overrides": [
    { "files": ["*.ts"], "rules": { "a": 1 }, "overrides": [ { "files": ["*.d.ts"], "rules": { "b": 1 } } ] },
    { "files": ["*.js"], "rules": { "c": 1 } }
  ]
}`
	sectors := locate(t, syntax.JSON, src)
	require.Len(t, sectors, 4)

	assert.True(t, sectors[0].TopLevel)
	var files []string
	for _, sec := range sectors[1:] {
		assert.False(t, sec.TopLevel)
		rec := Normalize(sec, NewImportSet())
		files = append(files, rec.Files)
		assert.NotContains(t, sec.Node.Content(sec.Source), "overrides")
	}
	assert.Equal(t, []string{`["*.ts"]`, `["*.d.ts"]`, `["*.js"]`}, files)
}

func TestNormalizeRulesDuplicateKeepsFirstPositionLastValue(t *testing.T) {
	t.Parallel()

	sectors := locate(t, syntax.JS, `module.exports = {
  rules: {
    semi: "error",
    "no-console": "warn",
    'semi': "off",
    ...shared.rules,
  },
};`)
	rec := Normalize(sectors[0], NewImportSet())

	assert.Equal(t, []Entry{
		{Key: "semi", Value: `"off"`},
		{Key: `"no-console"`, Value: `"warn"`},
		{Key: "...shared.rules", Value: ""},
	}, rec.Rules.Entries())
}

func TestNormalizeEnvGlobalsParser(t *testing.T) {
	t.Parallel()

	sectors := locate(t, syntax.JSON, `{
  "root": true,
  "env": { "browser": true, "node": false, "shared-node-browser": true },
  "globals": { "jQuery": true, "Vue": "readable", "legacy": "writeable", "off": "off" },
  "parser": "@typescript-eslint/parser",
  "parserOptions": { "ecmaVersion": 2020, "sourceType": "module" },
  "plugins": ["react", "eslint-plugin-import", "@typescript-eslint"],
  "ignorePatterns": ["dist/", "*.min.js"],
  "reportUnusedDisableDirectives": true,
  "files": ["*.js"],
  "unknownKey": 1
}`)
	imports := NewImportSet()
	rec := Normalize(sectors[0], imports)

	assert.Equal(t, []Entry{
		{Key: "...globals.browser"},
		{Key: "node", Value: "false"},
		{Key: `...globals["shared-node-browser"]`},
		{Key: "jQuery", Value: `"writable"`},
		{Key: "Vue", Value: `"readonly"`},
		{Key: "legacy", Value: `"writable"`},
		{Key: "off", Value: `"off"`},
	}, rec.LanguageOptions.Globals.Entries())
	assert.Equal(t, "typescriptParser", rec.LanguageOptions.Parser)
	assert.Equal(t, []string{"ecmaVersion", "sourceType"}, rec.LanguageOptions.ParserOptions.Keys())
	assert.Equal(t, []string{"react", "import", "@typescript-eslint"}, rec.Plugins.Keys())
	assert.Equal(t, []string{"dist/", "*.min.js"}, rec.IgnorePatterns)
	assert.Equal(t, "", rec.Files)
	assert.Len(t, rec.Todos, 2)

	assert.Equal(t, []string{
		`import globals from "globals";`,
		`import typescriptParser from "@typescript-eslint/parser";`,
	}, imports.Lines())
}

func TestNormalizeOverrideWithoutFiles(t *testing.T) {
	t.Parallel()

	sectors := locate(t, syntax.JS, `module.exports = { overrides: [{ excludedFiles: "*.test.js", rules: { semi: 0 } }] };`)
	require.Len(t, sectors, 2)

	rec := Normalize(sectors[1], NewImportSet())
	assert.Equal(t, `["**/*"]`, rec.Files)
	assert.Equal(t, `["*.test.js"]`, rec.Ignores)
	assert.NotEmpty(t, rec.Todos)
}

func TestPluginName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"react":                                  "react",
		"eslint-plugin-react":                    "react",
		"@typescript-eslint":                     "@typescript-eslint",
		"@typescript-eslint/eslint-plugin":       "@typescript-eslint",
		"@angular-eslint/eslint-plugin-template": "@angular-eslint/template",
		"@scope/custom":                          "@scope/custom",
	}
	for in, want := range tests {
		assert.Equal(t, want, PluginName(in), in)
	}
}

func TestOrderedMapDelete(t *testing.T) {
	t.Parallel()

	m := NewOrderedMap()
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("c", "3")
	assert.True(t, m.Delete("b"))
	assert.False(t, m.Delete("b"))
	m.Set("c", "4")
	assert.Equal(t, []Entry{{"a", "1"}, {"c", "4"}}, m.Entries())
}

func TestImportSetDedupesByModule(t *testing.T) {
	t.Parallel()

	s := NewImportSet()
	assert.Equal(t, "react", s.AddDefault("react", "eslint-plugin-react"))
	assert.Equal(t, "react", s.AddDefault("reactPlugin", "eslint-plugin-react"))
	assert.Equal(t, 1, s.Len())
}

func TestImportSetNeverBindsOneIdentifierTwice(t *testing.T) {
	t.Parallel()

	s := NewImportSet()
	assert.Equal(t, "standard", s.AddDefault("standard", "eslint-plugin-standard"))
	assert.Equal(t, "standardConfig", s.AddDefault("standard", "eslint-config-standard"))
	assert.Equal(t, "reactNative", s.AddDefault("reactNative", "eslint-plugin-react-native"))
	assert.Equal(t, "reactNativePlugin", s.AddDefault("reactNative", "@react-native/eslint-plugin"))
	assert.Equal(t, "reactNative2", s.AddDefault("reactNative", "eslint-plugin-react-native-a11y"))
	assert.Equal(t, "reactNative2", s.AddDefault("other", "eslint-plugin-react-native-a11y"))

	assert.Equal(t, []string{
		`import standard from "eslint-plugin-standard";`,
		`import standardConfig from "eslint-config-standard";`,
		`import reactNative from "eslint-plugin-react-native";`,
		`import reactNativePlugin from "@react-native/eslint-plugin";`,
		`import reactNative2 from "eslint-plugin-react-native-a11y";`,
	}, s.Lines())
}

func TestImportSetAvoidsGeneratedAndReservedNames(t *testing.T) {
	t.Parallel()

	s := NewImportSet()
	assert.Equal(t, "js", s.AddDefault("js", "@eslint/js"))
	assert.Equal(t, "globals", s.AddDefault("globals", GlobalsModule))
	assert.Equal(t, "pathPlugin", s.AddDefault("path", "eslint-plugin-path"))
	assert.Equal(t, "compat2", s.AddDefault("compat", "some-compat"))
	assert.Equal(t, "deletePlugin", s.AddDefault("delete", "eslint-plugin-delete"))
}

func TestParserIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "babelParser", ParserIdent("@babel/eslint-parser"))
	assert.Equal(t, "flowParser", ParserIdent("flow-eslint-parser"))
	assert.Equal(t, "myOrgCustomParser", ParserIdent("@my-org/custom-parser"))
}
