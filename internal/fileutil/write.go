package fileutil

import (
	"bytes"
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// WriteIfChangedTracked writes data to path unless the file already holds
// exactly data. It reports whether a write happened.
func WriteIfChangedTracked(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, errors.Errorf("failed to read %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, errors.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

func EnsureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
