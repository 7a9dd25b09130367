// Package scan walks a project before migration and publishes the facts
// that migrations of individual configuration files depend on: the
// .eslintignore patterns of each directory and whether any source file
// enables require-jsdoc or valid-jsdoc through an inline directive.
package scan

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/ignore"
	"github.com/morozRed/flatcfg/internal/migrate"
	"github.com/morozRed/flatcfg/internal/syntax"
)

const (
	IgnoreFileName = ".eslintignore"
	maxSourceSize  = 2 << 20
)

// Store is where scan results are published.
type Store interface {
	migrate.StepOutputs
	SetStepOutput(stage, key, value string)
	ResetStep(stage string)
}

var jsdocDirective = regexp.MustCompile(`/\*\s*eslint\s+["']?(?:require|valid)-jsdoc["']?\s*:\s*(?:\[[^\]]*\]|["'](?:error|warn)["']|[12])\s*\*/`)

var sourceExtensions = map[string]bool{
	".js": true, ".jsx": true, ".cjs": true, ".mjs": true,
	".ts": true, ".tsx": true, ".cts": true, ".mts": true,
	".vue": true, ".svelte": true,
}

// Config is a legacy configuration found during a scan.
type Config struct {
	Path   string        `json:"path"`
	Syntax syntax.Syntax `json:"syntax"`
}

type Summary struct {
	Configs        []Config `json:"configs"`
	IgnoreFiles    int      `json:"ignore_files"`
	IgnorePatterns int      `json:"ignore_patterns"`
	InvalidLines   []string `json:"invalid_lines,omitempty"`
	SourceFiles    int      `json:"source_files"`
	JsdocFiles     []string `json:"jsdoc_files,omitempty"`
}

// HasJsdocDirective reports whether content carries an inline directive
// enabling require-jsdoc or valid-jsdoc.
func HasJsdocDirective(content []byte) bool {
	return jsdocDirective.Match(content)
}

// AddIgnoreFile appends the patterns of an ignore file found in dir to the
// patterns already published for that directory.
func AddIgnoreFile(store Store, dir string, content []byte) (patterns, invalid []string, err error) {
	patterns, invalid = ignore.ParsePatterns(string(content))

	key := migrate.IgnoreKey(dir)
	var existing []string
	if raw, ok := store.StepOutput(migrate.StageIgnoreFiles, key); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &existing); err != nil {
			return nil, nil, errors.Errorf("failed to decode ignore patterns for %s: %w", dir, err)
		}
	}
	merged := append(append([]string{}, existing...), patterns...)
	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	store.SetStepOutput(migrate.StageIgnoreFiles, key, string(encoded))
	return patterns, invalid, nil
}

// Tree scans root and publishes its results to store, replacing those of
// any earlier scan.
func Tree(ctx context.Context, root string, matcher *ignore.Matcher, store Store) (*Summary, error) {
	logger := zerolog.Ctx(ctx)

	store.ResetStep(migrate.StageIgnoreFiles)
	store.ResetStep(migrate.StageFileJsdoc)

	summary := &Summary{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matcher.ShouldIgnore(relPath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if name == IgnoreFileName {
			content, err := os.ReadFile(path)
			if err != nil {
				return errors.Errorf("failed to read %s: %w", relPath, err)
			}
			patterns, invalid, err := AddIgnoreFile(store, filepath.Dir(relPath), content)
			if err != nil {
				return err
			}
			summary.IgnoreFiles++
			summary.IgnorePatterns += len(patterns)
			for _, line := range invalid {
				logger.Warn().Str("file", relPath).Str("pattern", line).Msg("skipping invalid ignore pattern")
				summary.InvalidLines = append(summary.InvalidLines, relPath+": "+line)
			}
			return nil
		}

		if syn, ok := syntax.DetectSyntax(name); ok {
			summary.Configs = append(summary.Configs, Config{Path: filepath.ToSlash(relPath), Syntax: syn})
			return nil
		}

		if !sourceExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxSourceSize {
			logger.Debug().Str("file", relPath).Int64("size", info.Size()).Msg("skipping large source file")
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Errorf("failed to read %s: %w", relPath, err)
		}
		summary.SourceFiles++
		if HasJsdocDirective(content) {
			summary.JsdocFiles = append(summary.JsdocFiles, filepath.ToSlash(relPath))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("failed to scan %s: %w", root, err)
	}

	found := "false"
	if len(summary.JsdocFiles) > 0 {
		found = "true"
	}
	store.SetStepOutput(migrate.StageFileJsdoc, migrate.KeyJsdocComments, found)

	sort.Slice(summary.Configs, func(i, j int) bool { return summary.Configs[i].Path < summary.Configs[j].Path })
	logger.Debug().
		Int("configs", len(summary.Configs)).
		Int("ignore_files", summary.IgnoreFiles).
		Int("jsdoc_files", len(summary.JsdocFiles)).
		Msg("scan complete")
	return summary, nil
}
