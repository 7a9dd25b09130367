package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/flatcfg/internal/ignore"
	"github.com/morozRed/flatcfg/internal/migrate"
	"github.com/morozRed/flatcfg/internal/state"
	"github.com/morozRed/flatcfg/internal/syntax"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestHasJsdocDirective(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want bool
	}{
		{`/* eslint require-jsdoc: "error" */`, true},
		{`/*eslint 'valid-jsdoc': ['warn', { prefer: { return: "returns" } }] */`, true},
		{`/* eslint require-jsdoc: 2 */`, true},
		{`/* eslint require-jsdoc: "off" */`, false},
		{`// eslint require-jsdoc: "error"`, false},
		{`/** @returns {string} */`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasJsdocDirective([]byte(tt.src)), tt.src)
	}
}

func TestTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, ".eslintrc.json"), `{"rules": {}}`)
	mustWriteFile(t, filepath.Join(root, ".eslintignore"), "# generated\ndist/\n*.min.js\n")
	mustWriteFile(t, filepath.Join(root, "packages/web/.eslintrc.yml"), "rules: {}\n")
	mustWriteFile(t, filepath.Join(root, "packages/web/.eslintignore"), "public/\n[bad\n")
	mustWriteFile(t, filepath.Join(root, "packages/web/src/a.js"), "/* eslint require-jsdoc: \"error\" */\nfunction a() {}\n")
	mustWriteFile(t, filepath.Join(root, "node_modules/dep/.eslintrc"), `{}`)

	st := state.NewState()
	st.SetStepOutput(migrate.StageIgnoreFiles, migrate.IgnoreKey("."), `["stale/"]`)

	summary, err := Tree(context.Background(), root, ignore.NewMatcher(nil), st)
	require.NoError(t, err)

	assert.Equal(t, []Config{
		{Path: ".eslintrc.json", Syntax: syntax.JSON},
		{Path: "packages/web/.eslintrc.yml", Syntax: syntax.YAML},
	}, summary.Configs)
	assert.Equal(t, 2, summary.IgnoreFiles)
	assert.Equal(t, 3, summary.IgnorePatterns)
	assert.Equal(t, []string{filepath.Join("packages", "web", ".eslintignore") + ": [bad"}, summary.InvalidLines)
	assert.Equal(t, []string{"packages/web/src/a.js"}, summary.JsdocFiles)

	rootIgnores, ok := st.StepOutput(migrate.StageIgnoreFiles, migrate.IgnoreKey("."))
	require.True(t, ok)
	assert.JSONEq(t, `["dist/", "*.min.js"]`, rootIgnores)

	webIgnores, ok := st.StepOutput(migrate.StageIgnoreFiles, migrate.IgnoreKey("packages/web"))
	require.True(t, ok)
	assert.JSONEq(t, `["public/"]`, webIgnores)

	flag, ok := st.StepOutput(migrate.StageFileJsdoc, migrate.KeyJsdocComments)
	require.True(t, ok)
	assert.Equal(t, "true", flag)
}

func TestAddIgnoreFileAccumulates(t *testing.T) {
	t.Parallel()

	st := state.NewState()
	_, _, err := AddIgnoreFile(st, "app", []byte("a/\n"))
	require.NoError(t, err)
	_, _, err = AddIgnoreFile(st, "app", []byte("b/\n"))
	require.NoError(t, err)

	value, _ := st.StepOutput(migrate.StageIgnoreFiles, migrate.IgnoreKey("app"))
	assert.JSONEq(t, `["a/", "b/"]`, value)
}
