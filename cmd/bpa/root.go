package main

import (
	"github.com/spf13/cobra"

	"bpa/internal/version"
)

var (
	// projectFlag selects the project inside the workspace database
	projectFlag string
)

var rootCmd = &cobra.Command{
	Use:   "bpa",
	Short: "bpa - Business Plan Auditor",
	Long: `bpa audits business-plan documents against the SEBRAE/BRDE validation
matrix: it extracts evidence into a Canvas+SWOT strategic matrix, scores each
criterion of the rule registry, and tracks the resulting gaps until they are
resolved.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("bpa version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "default",
		"Project name inside the workspace database")
}
