// Package ignore implements gitignore-like path exclusion for directory walks
// and validates .eslintignore entries.
package ignore

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type rule struct {
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool
}

// Matcher applies gitignore-like rules with "last rule wins" behavior.
type Matcher struct {
	rules []rule
}

// DefaultRules are always applied before user rules.
var DefaultRules = []string{
	".git/",
	".flatcfg/",
	"node_modules/",
	"bower_components/",
	"dist/",
	"build/",
	"coverage/",
}

// NewMatcher builds a matcher from user-provided .flatcfgignore lines.
// Default excludes are prepended and can be overridden by user negation rules.
// Lines that are not valid glob patterns are skipped.
func NewMatcher(userRules []string) *Matcher {
	all := make([]string, 0, len(DefaultRules)+len(userRules))
	all = append(all, DefaultRules...)
	all = append(all, userRules...)

	rules := make([]rule, 0, len(all))
	for _, line := range all {
		if parsed, ok := parseRule(line); ok {
			rules = append(rules, parsed)
		}
	}

	return &Matcher{rules: rules}
}

// ShouldIgnore returns true when relPath should be excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	if relPath == "" || relPath == "." {
		return false
	}
	ignored := false
	for _, r := range m.rules {
		if ruleMatches(r, relPath, isDir) {
			ignored = !r.negated
		}
	}
	return ignored
}

// ParsePatterns returns the usable patterns of an ignore file, dropping
// blank lines, comments and invalid globs. The second slice holds the
// rejected lines.
func ParsePatterns(content string) (patterns, invalid []string) {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := parseRule(line); !ok {
			invalid = append(invalid, line)
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, invalid
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	parsed := rule{}
	if strings.HasPrefix(line, "!") {
		parsed.negated = true
		line = strings.TrimPrefix(line, "!")
	}
	if strings.HasPrefix(line, "/") {
		parsed.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.HasSuffix(line, "/") {
		parsed.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	line = normalizePath(line)
	if line == "" || !doublestar.ValidatePattern(line) {
		return rule{}, false
	}
	parsed.pattern = line
	return parsed, true
}

func ruleMatches(r rule, relPath string, isDir bool) bool {
	if r.dirOnly {
		// A directory rule covers the directory and everything below it.
		parts := strings.Split(relPath, "/")
		limit := len(parts)
		if !isDir {
			limit--
		}
		for i := 1; i <= limit; i++ {
			if matchSegments(r, strings.Join(parts[:i], "/")) {
				return true
			}
		}
		return false
	}
	return matchSegments(r, relPath)
}

// matchSegments matches anchored patterns and patterns containing a slash
// against the full path, and bare names against any suffix of it.
func matchSegments(r rule, relPath string) bool {
	if r.anchored || strings.Contains(r.pattern, "/") {
		if match(r.pattern, relPath) {
			return true
		}
		if r.anchored {
			return false
		}
		return match("**/"+r.pattern, relPath)
	}
	return match(r.pattern, path.Base(relPath))
}

func match(pattern, value string) bool {
	ok, err := doublestar.Match(pattern, value)
	return err == nil && ok
}

func normalizePath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return p
}
