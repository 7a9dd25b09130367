package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/morozRed/flatcfg/internal/fileutil"
	"github.com/morozRed/flatcfg/internal/scan"
	"github.com/morozRed/flatcfg/internal/settings"
)

type Status string

const (
	StatusWritten   Status = "written"
	StatusUpToDate  Status = "up-to-date"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusDryRun    Status = "dry-run"
	StatusFailed    Status = "failed"
)

// FileResult is the outcome of migrating one legacy configuration.
type FileResult struct {
	Path       string   `json:"path"`
	Output     string   `json:"output"`
	Status     Status   `json:"status"`
	Unresolved []string `json:"unresolved,omitempty"`
	Todos      int      `json:"todos,omitempty"`
	Error      string   `json:"error,omitempty"`
	Content    string   `json:"content,omitempty"`
}

func (r FileResult) fail(err error) FileResult {
	r.Status = StatusFailed
	r.Error = err.Error()
	return r
}

type RunSummary struct {
	Mode         string       `json:"mode"`
	RootPath     string       `json:"root_path"`
	DryRun       bool         `json:"dry_run"`
	Scanned      int          `json:"scanned"`
	Written      int          `json:"written"`
	UpToDate     int          `json:"up_to_date"`
	Unchanged    int          `json:"unchanged"`
	Skipped      int          `json:"skipped"`
	Failed       int          `json:"failed"`
	Unresolved   int          `json:"unresolved"`
	Todos        int          `json:"todos"`
	DurationMS   int64        `json:"duration_ms"`
	Files        []FileResult `json:"files"`
	DeletedFiles []string     `json:"deleted_files,omitempty"`
}

type ScanSummary struct {
	RootPath   string `json:"root_path"`
	DurationMS int64  `json:"duration_ms"`
	*scan.Summary
}

func NewRunSummary(rootPath string, cfg *settings.Settings, results []FileResult) RunSummary {
	summary := RunSummary{
		Mode:     string(cfg.ResolvedMode()),
		RootPath: rootPath,
		DryRun:   cfg.DryRun,
		Scanned:  len(results),
		Files:    results,
	}
	for _, r := range results {
		switch r.Status {
		case StatusWritten:
			summary.Written++
		case StatusUpToDate:
			summary.UpToDate++
		case StatusUnchanged:
			summary.Unchanged++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		}
		summary.Unresolved += len(r.Unresolved)
		summary.Todos += r.Todos
	}
	return summary
}

func PrintRunSummary(w io.Writer, summary RunSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	for _, r := range summary.Files {
		if r.Status == StatusDryRun {
			fmt.Fprintf(w, "// %s\n%s\n", r.Output, r.Content)
		}
	}

	label := "migrate"
	if summary.DryRun {
		label = "migrate (dry-run)"
	}
	fmt.Fprintf(w,
		"%s: mode=%s scanned=%d written=%d up-to-date=%d unchanged=%d skipped=%d failed=%d duration=%dms\n",
		label,
		summary.Mode,
		summary.Scanned,
		summary.Written,
		summary.UpToDate,
		summary.Unchanged,
		summary.Skipped,
		summary.Failed,
		summary.DurationMS,
	)

	for _, r := range summary.Files {
		fmt.Fprintln(w, formatFileResult(r))
		for _, raw := range r.Unresolved {
			fmt.Fprintf(w, "    %s unresolved extends %s\n", color.YellowString("!"), raw)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "    %s\n", color.RedString(r.Error))
		}
	}
	if summary.Todos > 0 {
		fmt.Fprintf(w, "%s %d TODO comments need manual review\n", color.YellowString("!"), summary.Todos)
	}
	if len(summary.DeletedFiles) > 0 {
		fmt.Fprintf(w, "forgotten configurations (%d): %s\n", len(summary.DeletedFiles), SummarizePaths(summary.DeletedFiles, 8))
	}
	return nil
}

func formatFileResult(r FileResult) string {
	var prefix string
	switch r.Status {
	case StatusWritten:
		prefix = color.GreenString("✓")
	case StatusDryRun:
		prefix = color.CyanString("~")
	case StatusFailed:
		prefix = color.RedString("✗")
	default:
		prefix = color.HiBlackString("-")
	}
	return fmt.Sprintf("  %s %-40s %-12s %s", prefix, r.Path, r.Status, r.Output)
}

func PrintScanSummary(w io.Writer, summary ScanSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	fmt.Fprintf(w,
		"scan: configs=%d ignore_files=%d ignore_patterns=%d source_files=%d jsdoc_files=%d duration=%dms\n",
		len(summary.Configs),
		summary.IgnoreFiles,
		summary.IgnorePatterns,
		summary.SourceFiles,
		len(summary.JsdocFiles),
		summary.DurationMS,
	)
	if len(summary.Configs) > 0 {
		paths := make([]string, 0, len(summary.Configs))
		for _, c := range summary.Configs {
			paths = append(paths, c.Path)
		}
		fmt.Fprintf(w, "configurations (%d): %s\n", len(paths), SummarizePaths(paths, 8))
	}
	if len(summary.JsdocFiles) > 0 {
		fmt.Fprintf(w, "jsdoc directives (%d): %s\n", len(summary.JsdocFiles), SummarizePaths(summary.JsdocFiles, 8))
	}
	for _, line := range summary.InvalidLines {
		fmt.Fprintf(w, "%s invalid ignore pattern %s\n", color.YellowString("!"), line)
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
