package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/settings"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", errors.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return false, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, errors.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

// applyFlags overrides cfg with the flags set on cmd and validates the result.
func applyFlags(cmd *cobra.Command, cfg *settings.Settings) error {
	mode, err := OptionalStringFlag(cmd, "mode")
	if err != nil {
		return err
	}
	if mode != "" {
		cfg.Mode = mode
	}

	output, err := OptionalStringFlag(cmd, "output")
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Output = output
	}

	if cmd.Flags().Changed("dry-run") {
		if cfg.DryRun, err = OptionalBoolFlag(cmd, "dry-run"); err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("concurrency") {
		concurrency, err := cmd.Flags().GetInt("concurrency")
		if err != nil {
			return errors.Errorf("failed to read --concurrency flag: %w", err)
		}
		if concurrency < 1 {
			return errors.Errorf("%w: --concurrency must be at least 1", settings.ErrInvalid)
		}
		cfg.Concurrency = concurrency
	}

	verbose, err := OptionalBoolFlag(cmd, "verbose")
	if err != nil {
		return err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg.Validate()
}
