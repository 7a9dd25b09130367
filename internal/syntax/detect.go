package syntax

import (
	"path/filepath"
	"strings"
)

// extensionless is the legacy configuration name that does not tell its
// syntax apart. ESLint read it as JSON first and as YAML when that failed.
const extensionless = ".eslintrc"

// legacyNames lists the file names ESLint looked up for a directory-level
// legacy configuration, keyed to their surface syntax.
var legacyNames = map[string]Syntax{
	extensionless:    JSON,
	".eslintrc.json": JSON,
	".eslintrc.js":   JS,
	".eslintrc.cjs":  JS,
	".eslintrc.mjs":  JS,
	".eslintrc.yaml": YAML,
	".eslintrc.yml":  YAML,
}

// DetectSyntax reports the surface syntax for a legacy configuration file
// name. The second return value is false for files that are not legacy
// configurations.
func DetectSyntax(path string) (Syntax, bool) {
	syn, ok := legacyNames[strings.ToLower(filepath.Base(path))]
	return syn, ok
}

// DetectByExtension falls back to the file extension for explicitly named
// inputs such as "eslint-legacy.yml".
func DetectByExtension(path string) (Syntax, bool) {
	if syn, ok := DetectSyntax(path); ok {
		return syn, true
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".cjs", ".mjs":
		return JS, true
	case ".json", ".jsonc":
		return JSON, true
	case ".yaml", ".yml":
		return YAML, true
	}
	return "", false
}

// Extensionless reports whether path names an extensionless .eslintrc,
// whose content may be either JSON or YAML.
func Extensionless(path string) bool {
	return strings.EqualFold(filepath.Base(path), extensionless)
}
