package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_DefaultAndUserOverrides(t *testing.T) {
	m := NewMatcher([]string{
		"vendor/**",
		"!vendor/keep/.eslintrc",
		"*.tmp",
	})

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: ".git/config", isDir: false, ignored: true},
		{path: ".flatcfg/state.json", isDir: false, ignored: true},
		{path: "node_modules/pkg/.eslintrc.js", isDir: false, ignored: true},
		{path: "packages/web/node_modules", isDir: true, ignored: true},
		{path: "vendor/lib/.eslintrc", isDir: false, ignored: true},
		{path: "vendor/keep/.eslintrc", isDir: false, ignored: false},
		{path: "nested/cache.tmp", isDir: false, ignored: true},
		{path: "src/.eslintrc.json", isDir: false, ignored: false},
		{path: ".", isDir: true, ignored: false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ignored, m.ShouldIgnore(tc.path, tc.isDir), tc.path)
	}
}

func TestMatcher_NegatedDirectoryRule(t *testing.T) {
	m := NewMatcher([]string{
		"build/",
		"!build/include/",
	})

	assert.True(t, m.ShouldIgnore("build/out/.eslintrc", false))
	assert.False(t, m.ShouldIgnore("build/include/.eslintrc", false))
}

func TestMatcher_AnchoredRule(t *testing.T) {
	m := NewMatcher([]string{"/legacy", "fixtures/**/*.json"})

	assert.True(t, m.ShouldIgnore("legacy", true))
	assert.False(t, m.ShouldIgnore("app/legacy", true))
	assert.True(t, m.ShouldIgnore("test/fixtures/a/b.json", false))
}

func TestParsePatterns(t *testing.T) {
	patterns, invalid := ParsePatterns("# comment\n\ndist/\r\n*.min.js\n[unclosed\n!keep.js\n")

	assert.Equal(t, []string{"dist/", "*.min.js", "!keep.js"}, patterns)
	assert.Equal(t, []string{"[unclosed"}, invalid)
}
