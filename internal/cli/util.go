package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/ignore"
	"github.com/morozRed/flatcfg/internal/settings"
)

const IgnoreFileName = ".flatcfgignore"

// resolveTarget resolves the path argument. A file argument names a single
// configuration and its directory becomes the project root.
func resolveTarget(args []string) (rootPath, file string, err error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", "", errors.Errorf("failed to resolve path %q: %w", path, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", "", errors.Errorf("failed to access path %q: %w", absPath, err)
	}
	if info.IsDir() {
		return absPath, "", nil
	}
	return filepath.Dir(absPath), filepath.Base(absPath), nil
}

func resolveRoot(args []string) (string, error) {
	rootPath, file, err := resolveTarget(args)
	if err != nil {
		return "", err
	}
	if file != "" {
		return "", errors.Errorf("path %q is not a directory", filepath.Join(rootPath, file))
	}
	return rootPath, nil
}

// prepare loads the settings of rootPath with flag overrides and returns a
// context carrying the logger.
func prepare(cmd *cobra.Command, rootPath string) (context.Context, *settings.Settings, error) {
	cfg, err := settings.Load(rootPath)
	if err != nil {
		return nil, nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, err = withLogger(ctx, cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return ctx, cfg, nil
}

func withLogger(ctx context.Context, w io.Writer, level string) (context.Context, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, errors.Errorf("%w: log level %q", settings.ErrInvalid, level)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger().Level(lvl)
	return logger.WithContext(ctx), nil
}

// LoadIgnoreRules reads .flatcfgignore from rootPath. Invalid patterns are
// logged and skipped.
func LoadIgnoreRules(ctx context.Context, rootPath string) ([]string, error) {
	ignorePath := filepath.Join(rootPath, IgnoreFileName)
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	rules, invalid := ignore.ParsePatterns(string(content))
	for _, line := range invalid {
		zerolog.Ctx(ctx).Warn().Str("file", IgnoreFileName).Str("pattern", line).Msg("skipping invalid ignore pattern")
	}
	return rules, nil
}

func newMatcher(ctx context.Context, rootPath string, cfg *settings.Settings) (*ignore.Matcher, error) {
	rules, err := LoadIgnoreRules(ctx, rootPath)
	if err != nil {
		return nil, err
	}
	all := make([]string, 0, len(cfg.Ignore)+len(rules))
	all = append(all, cfg.Ignore...)
	all = append(all, rules...)
	return ignore.NewMatcher(all), nil
}
