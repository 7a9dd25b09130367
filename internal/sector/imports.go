package sector

import (
	"fmt"
	"strconv"
	"strings"
)

// generatedIdents are bound by the generated module itself. The value is the
// only module whose default import may use the name; "" means none may.
var generatedIdents = map[string]string{
	"js":            "@eslint/js",
	GlobalsModule:   GlobalsModule,
	"jsdoc":         "",
	"compat":        "",
	"cleanGlobals":  "",
	"path":          "",
	"fileURLToPath": "",
	"defineConfig":  "",
	"globalIgnores": "",
	"FlatCompat":    "",
	"__dirname":     "",
	"__filename":    "",
}

var keywords = map[string]bool{
	"import": true, "export": true, "default": true, "new": true, "delete": true,
	"function": true, "class": true, "const": true, "let": true, "var": true,
	"in": true, "of": true, "if": true, "for": true, "do": true, "while": true,
	"switch": true, "case": true, "return": true, "this": true, "null": true,
	"true": true, "false": true, "typeof": true, "void": true, "with": true,
	"else": true, "try": true, "catch": true, "finally": true, "throw": true,
	"break": true, "continue": true, "super": true, "extends": true, "yield": true,
	"await": true, "static": true, "enum": true, "instanceof": true, "debugger": true,
}

// ImportSet collects the default imports of one migration. Imports are
// deduplicated by module: asking for a module that is already imported
// returns the identifier chosen first. An identifier is never bound to two
// modules; a taken name gets a suffix and the caller must use the returned
// identifier.
type ImportSet struct {
	lines    []string
	defaults map[string]string
	bound    map[string]string
}

func NewImportSet() *ImportSet {
	return &ImportSet{
		defaults: make(map[string]string),
		bound:    make(map[string]string),
	}
}

// AddDefault records `import ident from "module";` and returns the
// identifier actually bound to the module's default export.
func (s *ImportSet) AddDefault(ident, module string) string {
	if existing, ok := s.defaults[module]; ok {
		return existing
	}
	ident = s.free(ident, module)
	s.defaults[module] = ident
	s.bound[ident] = module
	s.lines = append(s.lines, fmt.Sprintf("import %s from %q;", ident, module))
	return ident
}

func (s *ImportSet) free(ident, module string) string {
	if s.available(ident, module) {
		return ident
	}
	if suffix := moduleSuffix(module); suffix != "" && !strings.HasSuffix(ident, suffix) {
		if s.available(ident+suffix, module) {
			return ident + suffix
		}
	}
	for i := 2; ; i++ {
		candidate := ident + strconv.Itoa(i)
		if s.available(candidate, module) {
			return candidate
		}
	}
}

func (s *ImportSet) available(ident, module string) bool {
	if keywords[ident] {
		return false
	}
	if owner, ok := s.bound[ident]; ok {
		return owner == module
	}
	if owner, ok := generatedIdents[ident]; ok {
		return owner != "" && owner == module
	}
	return true
}

func moduleSuffix(module string) string {
	switch {
	case strings.Contains(module, "eslint-plugin"):
		return "Plugin"
	case strings.Contains(module, "eslint-config"):
		return "Config"
	case strings.Contains(module, "parser"):
		return "Parser"
	}
	return ""
}

// Lines returns the import declarations in the order they were first added.
func (s *ImportSet) Lines() []string {
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *ImportSet) Len() int {
	return len(s.lines)
}
