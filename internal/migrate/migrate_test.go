package migrate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/resolve"
	"github.com/morozRed/flatcfg/internal/syntax"
)

type fakeSteps map[string]string

func (f fakeSteps) StepOutput(stage, key string) (string, bool) {
	v, ok := f[stage+"/"+key]
	return v, ok
}

const legacyJSON = `{
  "root": true,
  "env": { "browser": true },
  "extends": ["eslint:recommended", "plugin:react/recommended"],
  "plugins": ["react"],
  "rules": {
    "no-sequences": "error",
    "semi": ["error", "always"]
  },
  "overrides": [
    {
      "files": ["*.test.js"],
      "env": { "jest": true },
      "rules": { "no-console": "off" }
    }
  ]
}
`

const flatJSON = `import { defineConfig } from "eslint/config";
import globals from "globals";
import react from "eslint-plugin-react";
import js from "@eslint/js";

const cleanGlobals = (globalsObj) =>
  Object.fromEntries(
    Object.entries(globalsObj).map(([key, value]) => [key.trim(), value]),
  );

export default defineConfig([
  js.configs.recommended,
  react.configs.flat.recommended,
  {
    plugins: {
      react: react
    },
    languageOptions: {
      globals: {
        ...cleanGlobals(globals.browser)
      }
    },
    rules: {
      "no-sequences": ["error"],
      semi: ["error", "always"]
    }
  },
  {
    files: ["*.test.js"],
    languageOptions: {
      globals: {
        ...cleanGlobals(globals.jest)
      }
    },
    rules: {
      "no-console": "off"
    }
  }
]);
`

func run(t *testing.T, syn syntax.Syntax, src string, opts Options) Result {
	t.Helper()
	res, err := Migrate(context.Background(), Input{Path: "app/.eslintrc", Syntax: syn, Source: []byte(src)}, opts)
	require.NoError(t, err)
	return res
}

func TestMigrateJSON(t *testing.T) {
	t.Parallel()

	res := run(t, syntax.JSON, legacyJSON, Options{})
	assert.True(t, res.Changed)
	assert.Equal(t, 2, res.Sectors)
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, flatJSON, res.Output)
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	first := run(t, syntax.JSON, legacyJSON, Options{})
	second := run(t, syntax.JS, first.Output, Options{})

	assert.False(t, second.Changed)
	assert.Equal(t, first.Output, second.Output)
}

func TestMigrateRecommendedHasNoExtendsKey(t *testing.T) {
	t.Parallel()

	res := run(t, syntax.JS, `module.exports = { extends: "eslint:recommended" };`, Options{})
	assert.Contains(t, res.Output, `import js from "@eslint/js";`)
	assert.Contains(t, res.Output, "  js.configs.recommended\n]);")
	assert.NotContains(t, res.Output, "extends")
}

func TestMigrateKeepsUnresolvedExtends(t *testing.T) {
	t.Parallel()

	res := run(t, syntax.JS, `module.exports = { extends: ["./base", "plugin:react/recommended", "airbnb"] };`, Options{})
	assert.Equal(t, []string{`"./base"`}, res.Unresolved)
	assert.Contains(t, res.Output, `// extends: ["./base"]`)
	assert.Contains(t, res.Output, "react.configs.flat.recommended")
	assert.Contains(t, res.Output, "  airbnb,")
}

func TestMigrateYAMLRestrictedImports(t *testing.T) {
	t.Parallel()

	src := `rules:
  no-restricted-imports:
    - error
    - paths:
        - name: lodash
          message: old
        - name: lodash
          message: new
`
	res := run(t, syntax.YAML, src, Options{})
	assert.Contains(t, res.Output, `"no-restricted-imports": ["error", {"paths": [{"name": "lodash", "message": "new"}]}]`)
	assert.NotContains(t, res.Output, "old")
}

func TestMigrateJsdocOnce(t *testing.T) {
	t.Parallel()

	src := `module.exports = {
  rules: { "require-jsdoc": "error" },
  overrides: [{ files: ["*.js"], rules: { "valid-jsdoc": ["warn"] } }],
};`
	res := run(t, syntax.JS, src, Options{})
	assert.Equal(t, 1, strings.Count(res.Output, "jsdoc({"))
	assert.NotContains(t, res.Output, `"require-jsdoc"`)
	assert.NotContains(t, res.Output, `"valid-jsdoc"`)
}

func TestMigrateReadsStepOutputs(t *testing.T) {
	t.Parallel()

	steps := fakeSteps{
		StageIgnoreFiles + "/" + IgnoreKey("app"): `["dist/","*.min.js"]`,
		StageFileJsdoc + "/" + KeyJsdocComments:   "true",
	}
	res := run(t, syntax.JSON, `{"ignorePatterns": ["dist/", "tmp/"], "rules": {"semi": 2}}`, Options{Steps: steps})

	assert.Contains(t, res.Output, `globalIgnores(["dist/", "*.min.js", "tmp/"])`)
	assert.Contains(t, res.Output, `import { jsdoc } from "eslint-plugin-jsdoc";`)
}

func TestMigrateCompatMode(t *testing.T) {
	t.Parallel()

	res := run(t, syntax.JS, `module.exports = { extends: ["eslint:recommended", "plugin:vue/recommended"], plugins: ["vue"] };`, Options{Mode: resolve.ModeCompat})
	assert.Contains(t, res.Output, `...compat.extends("eslint:recommended", "plugin:vue/recommended")`)
	assert.Contains(t, res.Output, `...compat.plugins("vue")`)
	assert.Contains(t, res.Output, "recommendedConfig: js.configs.recommended")
	assert.NotContains(t, res.Output, "vue.configs")
}

func TestMigrateNoSectors(t *testing.T) {
	t.Parallel()

	src := "export default [];\n"
	res := run(t, syntax.JS, src, Options{})
	assert.False(t, res.Changed)
	assert.Equal(t, src, res.Output)
}

func TestMigrateParseError(t *testing.T) {
	t.Parallel()

	_, err := Migrate(context.Background(), Input{Path: ".eslintrc.json", Syntax: syntax.JSON, Source: []byte(`{"rules": [}`)}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, syntax.ErrParse))
}

func TestMigrateExtensionlessFallsBackToYAML(t *testing.T) {
	t.Parallel()

	res := run(t, syntax.JSON, "rules:\n  semi: error\n", Options{})
	assert.Equal(t, syntax.YAML, res.Syntax)
	assert.Equal(t, 1, res.Sectors)
	assert.Contains(t, res.Output, `semi: "error"`)

	res = run(t, syntax.JSON, `{"rules": {"semi": "error"}}`, Options{})
	assert.Equal(t, syntax.JSON, res.Syntax)
}

func TestMigrateFallbackOnlyForExtensionless(t *testing.T) {
	t.Parallel()

	src := []byte("rules:\n  semi: error\n")
	_, err := Migrate(context.Background(), Input{Path: ".eslintrc.json", Syntax: syntax.JSON, Source: src}, Options{})
	assert.True(t, errors.Is(err, syntax.ErrParse))

	_, err = Migrate(context.Background(), Input{Path: ".eslintrc", Syntax: syntax.JSON, Source: []byte(`{"rules": [}`)}, Options{})
	assert.True(t, errors.Is(err, syntax.ErrParse))
}

func TestMigrateKeepsDisabledEnv(t *testing.T) {
	t.Parallel()

	res := run(t, syntax.JSON, `{"env": {"browser": true, "node": false}}`, Options{})
	assert.Contains(t, res.Output, "...cleanGlobals(globals.browser),\n        node: false\n")
}

func TestIgnoreKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ignoreFiles:packages-web", IgnoreKey("packages/web/"))
	assert.Equal(t, "ignoreFiles:.", IgnoreKey(""))
}

func importedIdents(t *testing.T, output string) []string {
	t.Helper()
	var idents []string
	for _, line := range strings.Split(output, "\n") {
		rest, ok := strings.CutPrefix(line, "import ")
		if !ok {
			continue
		}
		clause, _, found := strings.Cut(rest, " from ")
		require.True(t, found, line)
		clause = strings.Trim(clause, "{} ")
		for _, name := range strings.Split(clause, ",") {
			idents = append(idents, strings.TrimSpace(name))
		}
	}
	return idents
}

func TestMigrateNeverImportsOneIdentifierTwice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "plugin and shared config of the same name",
			src:  `{"extends": ["standard"], "plugins": ["standard", "promise"]}`,
			want: []string{
				`import standard from "eslint-plugin-standard";`,
				`import standardConfig from "eslint-config-standard";`,
				"  standardConfig,\n",
				"standard: standard",
			},
		},
		{
			name: "scoped and unscoped plugins",
			src:  `{"plugins": ["react-native", "@react-native"]}`,
			want: []string{
				`import reactNative from "eslint-plugin-react-native";`,
				`import reactNativePlugin from "@react-native/eslint-plugin";`,
				`"@react-native": reactNativePlugin`,
			},
		},
		{
			name: "manual plugin renamed in its note",
			src:  `{"plugins": ["@react-native"], "extends": ["plugin:react-native/all"]}`,
			want: []string{
				`import reactNativePlugin from "eslint-plugin-react-native";`,
				"...reactNativePlugin.configs.all",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := run(t, syntax.JSON, tt.src, Options{})
			for _, want := range tt.want {
				assert.Contains(t, res.Output, want)
			}
			idents := importedIdents(t, res.Output)
			seen := make(map[string]bool)
			for _, ident := range idents {
				assert.False(t, seen[ident], "%s imported twice", ident)
				seen[ident] = true
			}
		})
	}
}
