package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/resolve"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, string(resolve.ModeDirect), cfg.Mode)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, resolve.ModeDirect, cfg.ResolvedMode())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	root := t.TempDir()
	content := "mode: compat\nconcurrency: 2\nlog_level: debug\nignore:\n  - legacy/\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644))

	t.Setenv("FLATCFG_LOG_LEVEL", "warn")
	t.Setenv("FLATCFG_DRY_RUN", "true")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, resolve.ModeCompat, cfg.ResolvedMode())
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"legacy/"}, cfg.Ignore)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"mode":      "mode: bridge\n",
		"output":    "output: sub/eslint.config.mjs\n",
		"log level": "log_level: loud\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644))

			_, err := Load(root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("mode: [\n"), 0o644))

	_, err := Load(root)
	assert.Error(t, err)
}
