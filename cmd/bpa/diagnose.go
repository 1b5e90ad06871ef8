package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bpa/internal/diagnosis"
	"bpa/internal/gaps"
	"bpa/internal/matrix"
	"bpa/internal/storage"
)

var (
	diagnoseFormat string
	diagnoseFiles  []string
	diagnoseText   string
	diagnoseStep   int
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Run the ten-step diagnosis over the business-plan documents",
	Long: `Runs the full diagnosis pipeline: each step extracts evidence into the
strategic matrix and the final step audits the corpus against the rule
registry, producing the gap list and the readiness percentage. With --step
only the named step runs and its matrix contribution is folded in.`,
	Run: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseFormat, "format", "human", "Output format (json, human)")
	diagnoseCmd.Flags().StringArrayVar(&diagnoseFiles, "file", nil, "Business-plan document to include (repeatable)")
	diagnoseCmd.Flags().StringVar(&diagnoseText, "text", "", "Inline text appended to the corpus")
	diagnoseCmd.Flags().IntVar(&diagnoseStep, "step", -1, "Run a single step (0-9) instead of the full pipeline")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) {
	start := time.Now()
	logger := newLogger(diagnoseFormat)

	root := mustGetWorkspaceRoot()
	cfg, reg, err := loadWorkspace(root)
	if err != nil {
		fail(err)
	}

	corpus, err := buildCorpus(diagnoseFiles, diagnoseText)
	if err != nil {
		fail(err)
	}

	db, project, err := openProject(root, logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	current, _, err := db.LoadMatrix(project.ID)
	if err != nil {
		fail(err)
	}

	pipeline := diagnosis.New(reg, cfg, logger)

	if diagnoseStep >= 0 {
		runSingleStep(db, project, pipeline, corpus, current)
		return
	}

	final, resp, err := pipeline.Run(corpus, current)
	if err != nil {
		fail(err)
	}

	// Persist the outcome: matrix snapshot, diagnosis history, readiness
	now := time.Now().UTC()
	gapList := make([]gaps.Gap, 0, len(resp.Gaps))
	for _, draft := range resp.Gaps {
		gapList = append(gapList, gaps.FromDraft(draft, now))
	}
	if err := db.SaveMatrix(project.ID, final); err != nil {
		fail(err)
	}
	if err := db.AppendDiagnosis(&storage.DiagnosisRecord{
		ID:               resp.ID,
		ProjectID:        project.ID,
		RegistryVersion:  resp.RegistryVersion,
		OverallReadiness: resp.OverallReadiness,
		Gaps:             gapList,
		CreatedAt:        resp.Timestamp,
	}); err != nil {
		fail(err)
	}
	if err := db.UpdateProjectReadiness(project.ID, resp.OverallReadiness); err != nil {
		fail(err)
	}

	output, err := FormatResponse(&DiagnoseResponseCLI{
		ID:               resp.ID,
		Timestamp:        resp.Timestamp.Format(time.RFC3339),
		RegistryVersion:  resp.RegistryVersion,
		TotalCriteria:    reg.TotalCriteria(),
		OverallReadiness: resp.OverallReadiness,
		Gaps:             gapList,
	}, OutputFormat(diagnoseFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)

	if diagnoseFormat == "human" {
		fmt.Printf("\n(Diagnosis took %dms)\n", time.Since(start).Milliseconds())
	}
}

// runSingleStep executes one pipeline stage and folds its contribution into
// the stored matrix
func runSingleStep(db *storage.DB, project *storage.Project, pipeline *diagnosis.Pipeline, corpus string, current matrix.StrategicMatrix) {
	result, err := pipeline.RunStep(diagnoseStep, corpus, current)
	if err != nil {
		fail(err)
	}

	next := current.Apply(result.Delta)
	next.GeneratedAt = time.Now().UnixMilli()
	if err := db.SaveMatrix(project.ID, next); err != nil {
		fail(err)
	}

	for _, line := range result.Logs {
		fmt.Println(line)
	}
	if result.Final != nil {
		fmt.Printf("\nNível de prontidão: %d%% (%d pendências)\n",
			result.Final.OverallReadiness, len(result.Final.Gaps))
	}
}
