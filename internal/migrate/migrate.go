// Package migrate converts one legacy configuration document into a flat
// configuration module.
package migrate

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/codegen"
	"github.com/morozRed/flatcfg/internal/resolve"
	"github.com/morozRed/flatcfg/internal/rules"
	"github.com/morozRed/flatcfg/internal/sector"
	"github.com/morozRed/flatcfg/internal/syntax"
)

// Stage names and keys under which the scanning steps publish their
// results.
const (
	StageIgnoreFiles = "scan-ignore-files"
	StageFileJsdoc   = "scan-file-jsdoc"
	KeyJsdocComments = "isJsdoccommentExists"
)

// StepOutputs is read-only access to the results of earlier scanning steps.
type StepOutputs interface {
	StepOutput(stage, key string) (string, bool)
}

// IgnoreKey returns the key under which the ignore patterns found in dir
// are stored.
func IgnoreKey(dir string) string {
	dir = filepath.ToSlash(filepath.Clean(dir))
	return "ignoreFiles:" + strings.ReplaceAll(dir, "/", "-")
}

type Input struct {
	// Path of the legacy configuration, used for logging and to find the
	// ignore patterns of its directory.
	Path   string
	Syntax syntax.Syntax
	Source []byte
}

type Options struct {
	Mode  resolve.Mode
	Steps StepOutputs
}

// Result is the outcome of one migration. Syntax is the syntax the source
// was parsed as, which differs from Input.Syntax when an extensionless
// .eslintrc turned out to be YAML.
type Result struct {
	Output     string
	Changed    bool
	Syntax     syntax.Syntax
	Sectors    int
	Unresolved []string
	Todos      int
}

// Migrate produces the flat configuration for in. A document without any
// legacy sector, such as one that is already flat, yields an unchanged
// result rather than an error.
func Migrate(ctx context.Context, in Input, opts Options) (Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("path", in.Path).Str("syntax", string(in.Syntax)).Logger()

	doc, err := parse(ctx, in)
	if err != nil {
		return Result{}, errors.Errorf("failed to parse %s: %w", in.Path, err)
	}
	defer doc.Close()
	if doc.Syntax != in.Syntax {
		logger.Debug().Str("parsedAs", string(doc.Syntax)).Msg("parsed with fallback syntax")
	}

	sectors, err := sector.Locate(doc)
	if err != nil {
		return Result{}, errors.Errorf("failed to locate sectors in %s: %w", in.Path, err)
	}
	if len(sectors) == 0 {
		logger.Debug().Msg("no legacy sectors found")
		return Result{Output: string(in.Source), Syntax: doc.Syntax}, nil
	}

	imports := sector.NewImportSet()
	resolver := resolve.New(opts.Mode, imports)

	records := make([]*sector.Record, 0, len(sectors))
	result := Result{Sectors: len(sectors), Syntax: doc.Syntax}
	for _, sec := range sectors {
		rec := sector.Normalize(sec, imports)
		rules.Apply(rec)
		resolver.Apply(rec)

		result.Unresolved = append(result.Unresolved, rec.UnresolvedExtends...)
		for _, raw := range rec.UnresolvedExtends {
			logger.Warn().Str("extends", raw).Msg("extends could not be resolved")
		}
		records = append(records, rec)
	}
	records = append(records, resolver.Trailing()...)

	// Inline require-jsdoc directives in source files need the plugin even
	// when the configuration itself never enabled the rule.
	if stepFlag(opts.Steps, StageFileJsdoc, KeyJsdocComments) {
		records[0].RequireJsdoc.Exists = true
	}

	ignores, err := ignorePatterns(opts.Steps, filepath.Dir(in.Path))
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring unreadable ignore patterns")
	}

	for _, rec := range records {
		result.Todos += len(rec.Todos)
	}

	output := codegen.Generate(records, imports.Lines(), codegen.Options{
		Ignores: ignores,
		Bridge:  resolver.Bridge(),
	})
	result.Output = output
	result.Changed = output != string(in.Source)

	logger.Debug().
		Int("sectors", result.Sectors).
		Int("unresolved", len(result.Unresolved)).
		Int("todos", result.Todos).
		Int("imports", imports.Len()).
		Bool("changed", result.Changed).
		Msg("migrated configuration")
	return result, nil
}

// parse reads in.Source in its detected syntax. An extensionless .eslintrc
// that is not valid JSON is read again as YAML; when both fail the JSON
// error is returned.
func parse(ctx context.Context, in Input) (*syntax.Document, error) {
	doc, err := syntax.Parse(ctx, in.Syntax, in.Source)
	if err == nil || in.Syntax != syntax.JSON || !syntax.Extensionless(in.Path) {
		return doc, err
	}
	if yamlDoc, yamlErr := syntax.Parse(ctx, syntax.YAML, in.Source); yamlErr == nil {
		return yamlDoc, nil
	}
	return nil, err
}

func stepFlag(steps StepOutputs, stage, key string) bool {
	if steps == nil {
		return false
	}
	value, ok := steps.StepOutput(stage, key)
	return ok && value == "true"
}

func ignorePatterns(steps StepOutputs, dir string) ([]string, error) {
	if steps == nil {
		return nil, nil
	}
	raw, ok := steps.StepOutput(StageIgnoreFiles, IgnoreKey(dir))
	if !ok || raw == "" {
		return nil, nil
	}
	var patterns []string
	if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
		return nil, errors.Errorf("failed to decode ignore patterns for %s: %w", dir, err)
	}
	return patterns, nil
}
