// Package settings loads flatcfg's own configuration.
//
// Precedence, highest first:
//  1. Command line flags (applied by the caller)
//  2. Environment variables prefixed with FLATCFG_ (FLATCFG_LOG_LEVEL -> log_level)
//  3. .flatcfg.yaml in the project root
//  4. Defaults
package settings

import (
	"os"
	"path/filepath"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/resolve"
)

const (
	FileName  = ".flatcfg.yaml"
	EnvPrefix = "FLATCFG_"

	DefaultOutput      = "eslint.config.mjs"
	DefaultConcurrency = 4

	maxFileSize = 1 << 20
)

var ErrInvalid = errors.Base("invalid settings")

type Settings struct {
	Mode        string   `koanf:"mode"`
	Output      string   `koanf:"output"`
	Concurrency int      `koanf:"concurrency"`
	LogLevel    string   `koanf:"log_level"`
	DryRun      bool     `koanf:"dry_run"`
	Ignore      []string `koanf:"ignore"`
}

func Default() *Settings {
	return &Settings{
		Mode:        string(resolve.ModeDirect),
		Output:      DefaultOutput,
		Concurrency: DefaultConcurrency,
		LogLevel:    zerolog.InfoLevel.String(),
	}
}

// Load reads .flatcfg.yaml from root, if present, and applies environment
// overrides on top of the defaults.
func Load(root string) (*Settings, error) {
	k := koanf.New(".")

	path := filepath.Join(root, FileName)
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), kyaml.Parser()); err != nil {
			return nil, errors.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, errors.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Settings
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Errorf("failed to unmarshal settings: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Settings) applyDefaults() {
	defaults := Default()
	if s.Mode == "" {
		s.Mode = defaults.Mode
	}
	if s.Output == "" {
		s.Output = defaults.Output
	}
	if s.Concurrency <= 0 {
		s.Concurrency = defaults.Concurrency
	}
	if s.LogLevel == "" {
		s.LogLevel = defaults.LogLevel
	}
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > maxFileSize {
		return nil, errors.Errorf("%w: %s is larger than %d bytes", ErrInvalid, path, maxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}

func (s *Settings) Validate() error {
	if _, err := resolve.ParseMode(s.Mode); err != nil {
		return errors.Errorf("%w: mode: %s", ErrInvalid, err)
	}
	if strings.TrimSpace(s.Output) == "" {
		return errors.Errorf("%w: output must not be empty", ErrInvalid)
	}
	if filepath.Base(s.Output) != s.Output {
		return errors.Errorf("%w: output %q must be a file name", ErrInvalid, s.Output)
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return errors.Errorf("%w: log_level %q", ErrInvalid, s.LogLevel)
	}
	return nil
}

// ResolvedMode returns the validated resolution mode.
func (s *Settings) ResolvedMode() resolve.Mode {
	mode, _ := resolve.ParseMode(s.Mode)
	return mode
}
