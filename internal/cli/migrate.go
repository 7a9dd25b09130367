package cli

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/morozRed/flatcfg/internal/fileutil"
	"github.com/morozRed/flatcfg/internal/migrate"
	"github.com/morozRed/flatcfg/internal/scan"
	"github.com/morozRed/flatcfg/internal/settings"
	"github.com/morozRed/flatcfg/internal/state"
	"github.com/morozRed/flatcfg/internal/syntax"
)

// ErrMigrationFailed is returned when at least one configuration of a batch
// could not be migrated.
var ErrMigrationFailed = errors.Base("migration failed")

func RunMigrate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	rootPath, file, err := resolveTarget(args)
	if err != nil {
		return err
	}
	ctx, cfg, err := prepare(cmd, rootPath)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}
	forced, err := OptionalStringFlag(cmd, "syntax")
	if err != nil {
		return err
	}
	if forced != "" && file == "" {
		return errors.Errorf("%w: --syntax needs a configuration file argument", settings.ErrInvalid)
	}

	st, err := state.Load(rootPath)
	if err != nil {
		return err
	}
	matcher, err := newMatcher(ctx, rootPath, cfg)
	if err != nil {
		return err
	}
	scanned, err := scan.Tree(ctx, rootPath, matcher, st)
	if err != nil {
		return err
	}
	configs := scanned.Configs
	if file != "" {
		config, err := explicitConfig(file, forced)
		if err != nil {
			return err
		}
		configs = []scan.Config{config}
	}

	progress := newMigrateProgressReporter(len(configs), asJSON)
	results, err := MigrateConfigs(ctx, rootPath, configs, cfg, st, progress.Update)
	if err != nil {
		return err
	}
	progress.Done(len(results))

	// A single file run does not see the rest of the project.
	var deleted []string
	if file == "" {
		current := make([]string, 0, len(configs))
		for _, c := range configs {
			current = append(current, c.Path)
		}
		deleted = st.DeletedFiles(fileutil.ToSet(current))
		for _, name := range deleted {
			st.RemoveFile(name)
		}
	}

	if !cfg.DryRun {
		if err := st.Save(rootPath); err != nil {
			return errors.Errorf("failed to persist state: %w", err)
		}
	}

	summary := NewRunSummary(rootPath, cfg, results)
	summary.DeletedFiles = deleted
	summary.DurationMS = time.Since(start).Milliseconds()
	if err := PrintRunSummary(cmd.OutOrStdout(), summary, asJSON); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return errors.Errorf("%w: %d of %d configurations", ErrMigrationFailed, summary.Failed, summary.Scanned)
	}
	return nil
}

// explicitConfig describes a configuration named on the command line. The
// syntax comes from forced when set and from the file name otherwise.
func explicitConfig(file, forced string) (scan.Config, error) {
	if forced != "" {
		syn, err := syntax.ParseSyntax(forced)
		if err != nil {
			return scan.Config{}, errors.Errorf("%w: --syntax: %s", settings.ErrInvalid, err.Error())
		}
		return scan.Config{Path: file, Syntax: syn}, nil
	}
	syn, ok := syntax.DetectByExtension(file)
	if !ok {
		return scan.Config{}, errors.Errorf("%w: cannot tell the syntax of %s, pass --syntax", syntax.ErrUnsupportedSyntax, file)
	}
	return scan.Config{Path: file, Syntax: syn}, nil
}

// MigrateConfigs migrates every configuration independently, at most
// cfg.Concurrency at a time. Failures are reported per file and do not stop
// the batch. Results keep the order of configs.
func MigrateConfigs(
	ctx context.Context,
	rootPath string,
	configs []scan.Config,
	cfg *settings.Settings,
	st *state.State,
	onDone func(file string, count int),
) ([]FileResult, error) {
	results := make([]FileResult, len(configs))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i, c := range configs {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = migrateConfig(gctx, rootPath, c, cfg, st)

			if onDone != nil {
				mu.Lock()
				done++
				onDone(c.Path, done)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.WithStack(err)
	}
	return results, nil
}

func migrateConfig(ctx context.Context, rootPath string, c scan.Config, cfg *settings.Settings, st *state.State) FileResult {
	logger := zerolog.Ctx(ctx).With().Str("config", c.Path).Logger()
	result := FileResult{
		Path:   c.Path,
		Output: path.Join(path.Dir(c.Path), cfg.Output),
	}
	outputPath := filepath.Join(rootPath, filepath.FromSlash(result.Output))

	source, err := os.ReadFile(filepath.Join(rootPath, filepath.FromSlash(c.Path)))
	if err != nil {
		return result.fail(errors.Errorf("failed to read %s: %w", c.Path, err))
	}

	hash := inputHash(source, cfg, st, c)
	if !cfg.DryRun && !st.HasChanged(c.Path, hash) && fileExists(outputPath) {
		logger.Debug().Msg("configuration unchanged since last migration")
		result.Status = StatusUnchanged
		return result
	}

	res, err := migrate.Migrate(ctx, migrate.Input{
		Path:   c.Path,
		Syntax: c.Syntax,
		Source: source,
	}, migrate.Options{
		Mode:  cfg.ResolvedMode(),
		Steps: st,
	})
	if err != nil {
		logger.Error().Err(err).Msg("migration failed")
		return result.fail(err)
	}
	result.Unresolved = res.Unresolved
	result.Todos = res.Todos

	if !res.Changed {
		result.Status = StatusSkipped
		return result
	}

	content := fileutil.EnsureTrailingNewline(res.Output)
	if cfg.DryRun {
		result.Status = StatusDryRun
		result.Content = content
		return result
	}

	wrote, err := fileutil.WriteIfChangedTracked(outputPath, []byte(content))
	if err != nil {
		return result.fail(err)
	}
	result.Status = StatusUpToDate
	if wrote {
		result.Status = StatusWritten
	}
	st.SetFile(c.Path, state.FileState{
		Hash:   hash,
		Syntax: string(res.Syntax),
		Output: result.Output,
	})
	return result
}

// inputHash covers everything a migration reads: the source and its syntax,
// the settings that shape the output and the scan results for the file's
// directory.
func inputHash(source []byte, cfg *settings.Settings, st *state.State, c scan.Config) string {
	ignores, _ := st.StepOutput(migrate.StageIgnoreFiles, migrate.IgnoreKey(path.Dir(c.Path)))
	jsdoc, _ := st.StepOutput(migrate.StageFileJsdoc, migrate.KeyJsdocComments)

	parts := []string{string(source), string(c.Syntax), string(cfg.ResolvedMode()), cfg.Output, ignores, jsdoc}
	return fileutil.HashBytes([]byte(strings.Join(parts, "\x00")))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
