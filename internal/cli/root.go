package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/morozRed/flatcfg/internal/settings"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flatcfg",
		Short: "Migrate legacy ESLint configurations to flat config",
		Long: `flatcfg rewrites legacy ESLint configurations (.eslintrc, .eslintrc.js,
.eslintrc.json, .eslintrc.yaml and friends) into eslint.config.mjs files
using the flat config format.

Scan results are kept in .flatcfg/state.json so unchanged configurations
are not migrated twice.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	scanCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Record ignore files and inline jsdoc directives for a later migrate",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunScan,
	}
	scanCmd.Flags().Bool("json", false, "Print machine-readable scan summary")

	migrateCmd := &cobra.Command{
		Use:   "migrate [path]",
		Short: "Scan a project and migrate every legacy configuration in it",
		Long: `Scan a project and migrate every legacy configuration in it.

When path names a file, only that file is migrated. Its syntax is taken
from --syntax or guessed from the file name.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunMigrate,
	}
	migrateCmd.Flags().String("mode", "", "Resolution mode: direct|compat (default direct)")
	migrateCmd.Flags().String("output", "", "Output file name (default "+settings.DefaultOutput+")")
	migrateCmd.Flags().Bool("dry-run", false, "Print migrated configurations instead of writing them")
	migrateCmd.Flags().Bool("json", false, "Print machine-readable run summary")
	migrateCmd.Flags().Int("concurrency", 0, "Maximum number of configurations migrated in parallel")
	migrateCmd.Flags().String("syntax", "", "Syntax of a configuration file argument: js|json|yaml")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flatcfg %s\n", version)
		},
	}

	rootCmd.AddCommand(
		scanCmd,
		migrateCmd,
		versionCmd,
	)

	return rootCmd
}
