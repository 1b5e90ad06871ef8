package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bpa/internal/audit"
	"bpa/internal/gaps"
)

var (
	auditFormat string
	auditFiles  []string
	auditText   string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the documents against the rule registry without a full diagnosis",
	Long: `Runs only the criterion checks: every registry criterion is tested
against the corpus at its rigor level and the resulting gaps and readiness
are reported. The strategic matrix and the diagnosis history are untouched.`,
	Run: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditFormat, "format", "human", "Output format (json, human)")
	auditCmd.Flags().StringArrayVar(&auditFiles, "file", nil, "Business-plan document to include (repeatable)")
	auditCmd.Flags().StringVar(&auditText, "text", "", "Inline text appended to the corpus")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) {
	logger := newLogger(auditFormat)

	root := mustGetWorkspaceRoot()
	cfg, reg, err := loadWorkspace(root)
	if err != nil {
		fail(err)
	}

	corpus, err := buildCorpus(auditFiles, auditText)
	if err != nil {
		fail(err)
	}

	engine := audit.New(reg, cfg.Audit, logger)
	result := engine.Audit(corpus)

	now := time.Now().UTC()
	gapList := make([]gaps.Gap, 0, len(result.Gaps))
	for _, draft := range result.Gaps {
		gapList = append(gapList, gaps.FromDraft(draft, now))
	}

	output, err := FormatResponse(&DiagnoseResponseCLI{
		ID:               "audit",
		Timestamp:        now.Format(time.RFC3339),
		RegistryVersion:  reg.Version,
		TotalCriteria:    result.TotalCriteria,
		OverallReadiness: result.OverallReadiness,
		Gaps:             gapList,
	}, OutputFormat(auditFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
