package syntax

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestParseJS(t *testing.T) {
	t.Parallel()

	doc, err := Parse(context.Background(), JS, []byte("module.exports = {\n  rules: { semi: 2 },\n};\n"))
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, "program", doc.Program().Type())
	assert.Nil(t, doc.Expression())
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	doc, err := Parse(context.Background(), JSON, []byte(`{"rules": {"semi": "error"}} // trailing`))
	require.NoError(t, err)
	defer doc.Close()

	expr := doc.Expression()
	require.NotNil(t, expr)
	assert.Equal(t, "object", expr.Type())
}

func TestParseYAMLKeepsOrder(t *testing.T) {
	t.Parallel()

	src := []byte("rules:\n  semi: error\n  quotes: [warn, single]\n  eqeqeq: 2\nenv:\n  browser: true\n")
	lowered, err := LowerYAML(src)
	require.NoError(t, err)
	assert.Equal(t, `{"rules": {"semi": "error", "quotes": ["warn", "single"], "eqeqeq": 2}, "env": {"browser": true}}`, string(lowered))

	doc, err := Parse(context.Background(), YAML, src)
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, "object", doc.Expression().Type())
}

func TestLowerYAMLAliasesAndMerge(t *testing.T) {
	t.Parallel()

	src := []byte("base: &base\n  semi: error\nrules:\n  <<: *base\n  quotes: off\nother: *base\nempty: ~\n")
	lowered, err := LowerYAML(src)
	require.NoError(t, err)
	assert.Equal(t, `{"base": {"semi": "error"}, "rules": {"semi": "error", "quotes": "off"}, "other": {"semi": "error"}, "empty": null}`, string(lowered))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		syntax Syntax
		src    string
	}{
		{"broken js", JS, "module.exports = {"},
		{"broken json", JSON, `{"rules": }`},
		{"broken yaml", YAML, "rules: [a, b"},
		{"empty json", JSON, ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(context.Background(), tt.syntax, []byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))
		})
	}
}

func TestParseExpression(t *testing.T) {
	t.Parallel()

	expr, err := ParseExpression(`["error", { allow: ["a"] }]`)
	require.NoError(t, err)
	assert.Equal(t, "array", expr.Node.Type())
	assert.Equal(t, `["error", { allow: ["a"] }]`, expr.Text(expr.Node))

	_, err = ParseExpression(`[1, `)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestDetectSyntax(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Syntax
		ok   bool
	}{
		{"app/.eslintrc", JSON, true},
		{".eslintrc.json", JSON, true},
		{"pkg/.eslintrc.cjs", JS, true},
		{".eslintrc.yml", YAML, true},
		{"eslint.config.mjs", "", false},
	}

	for _, tt := range tests {
		got, ok := DetectSyntax(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	syn, ok := DetectByExtension("legacy/eslint.yml")
	assert.True(t, ok)
	assert.Equal(t, YAML, syn)

	_, err := ParseSyntax("toml")
	assert.True(t, errors.Is(err, ErrUnsupportedSyntax))

	assert.True(t, Extensionless("app/.eslintrc"))
	assert.True(t, Extensionless(".ESLintRC"))
	assert.False(t, Extensionless(".eslintrc.json"))
}
