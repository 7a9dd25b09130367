package cli

import (
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/flatcfg/internal/scan"
	"github.com/morozRed/flatcfg/internal/state"
)

func RunScan(cmd *cobra.Command, args []string) error {
	start := time.Now()
	rootPath, err := resolveRoot(args)
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

	st, err := state.Load(rootPath)
	if err != nil {
		return err
	}
	matcher, err := newMatcher(ctx, rootPath, cfg)
	if err != nil {
		return err
	}

	summary, err := scan.Tree(ctx, rootPath, matcher, st)
	if err != nil {
		return err
	}
	if err := st.Save(rootPath); err != nil {
		return errors.Errorf("failed to persist state: %w", err)
	}

	return PrintScanSummary(cmd.OutOrStdout(), ScanSummary{
		RootPath:   rootPath,
		Summary:    summary,
		DurationMS: time.Since(start).Milliseconds(),
	}, asJSON)
}
