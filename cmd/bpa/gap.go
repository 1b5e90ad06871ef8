package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bpa/internal/audit"
	"bpa/internal/errors"
	"bpa/internal/gaps"
	"bpa/internal/matrix"
)

var (
	gapFormat    string
	gapResolveID string
	gapText      string
	gapFiles     []string
)

var gapCmd = &cobra.Command{
	Use:   "gap",
	Short: "Inspect and resolve diagnosis gaps",
}

var gapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the gaps of the latest diagnosis",
	Run:   runGapList,
}

var gapResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Submit new evidence for a gap",
	Long: `Re-evaluates a gap against new evidence: free text via --text and
document files via --file. A resolved gap raises the project readiness by the
delta of its severity class; re-submitting evidence for an already resolved
gap changes nothing.`,
	Run: runGapResolve,
}

func init() {
	gapListCmd.Flags().StringVar(&gapFormat, "format", "human", "Output format (json, human)")
	gapResolveCmd.Flags().StringVar(&gapFormat, "format", "human", "Output format (json, human)")
	gapResolveCmd.Flags().StringVar(&gapResolveID, "id", "", "Gap id (e.g. GAP-8.1)")
	gapResolveCmd.Flags().StringVar(&gapText, "text", "", "New evidence as free text")
	gapResolveCmd.Flags().StringArrayVar(&gapFiles, "file", nil, "New evidence document (repeatable)")
	gapResolveCmd.MarkFlagRequired("id")
	gapCmd.AddCommand(gapListCmd)
	gapCmd.AddCommand(gapResolveCmd)
	rootCmd.AddCommand(gapCmd)
}

func runGapList(cmd *cobra.Command, args []string) {
	logger := newLogger(gapFormat)
	root := mustGetWorkspaceRoot()

	db, project, err := openProject(root, logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	latest, err := db.LatestDiagnosis(project.ID)
	if err != nil {
		fail(err)
	}

	output, err := FormatResponse(&GapListResponseCLI{
		DiagnosisID:      latest.ID,
		OverallReadiness: latest.OverallReadiness,
		Gaps:             latest.Gaps,
	}, OutputFormat(gapFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}

func runGapResolve(cmd *cobra.Command, args []string) {
	logger := newLogger(gapFormat)
	root := mustGetWorkspaceRoot()

	cfg, reg, err := loadWorkspace(root)
	if err != nil {
		fail(err)
	}

	db, project, err := openProject(root, logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	latest, err := db.LatestDiagnosis(project.ID)
	if err != nil {
		fail(err)
	}

	idx := -1
	for i, gap := range latest.Gaps {
		if gap.ID == gapResolveID {
			idx = i
			break
		}
	}
	if idx < 0 {
		fail(errors.New(errors.GapNotFound,
			fmt.Sprintf("gap %s is not part of the latest diagnosis", gapResolveID), nil))
	}

	var fragments []string
	for _, file := range gapFiles {
		data, readErr := os.ReadFile(file)
		if readErr != nil {
			fail(fmt.Errorf("failed to read evidence document %s: %w", file, readErr))
		}
		fragments = append(fragments, string(data))
	}

	// The strict policy re-checks against everything the project knows:
	// the stored matrix appendix plus the new evidence
	fullContext := ""
	if stored, found, loadErr := db.LoadMatrix(project.ID); loadErr == nil && found {
		fullContext = stored.Appendix()
	}

	engine := audit.New(reg, cfg.Audit, logger)
	manager := gaps.NewManager(cfg.Gaps, engine, logger)

	updated, result := manager.Reevaluate(latest.Gaps[idx], gapText, fragments, fullContext, time.Now().UTC())
	latest.Gaps[idx] = updated

	readiness := gaps.ApplyReadiness(latest.OverallReadiness, result.ReadinessDelta)
	if err := db.UpdateDiagnosisGaps(latest.ID, latest.Gaps, readiness); err != nil {
		fail(err)
	}
	if err := db.UpdateProjectReadiness(project.ID, readiness); err != nil {
		fail(err)
	}

	// Approved evidence retro-feeds the strategic matrix
	if result.NewStatus == gaps.StatusResolved && gapText != "" {
		if stored, found, loadErr := db.LoadMatrix(project.ID); loadErr == nil && found {
			if delta, ok := matrix.RetroFeed(gapText, updated.Description, stored, cfg.Matrix.RetroFeedClarity); ok {
				if saveErr := db.SaveMatrix(project.ID, stored.Apply(delta)); saveErr != nil {
					fail(saveErr)
				}
			}
		}
	}

	output, err := FormatResponse(&GapResolveResponseCLI{
		Gap:              updated,
		Feedback:         result.Feedback,
		ReadinessDelta:   result.ReadinessDelta,
		ProjectReadiness: readiness,
	}, OutputFormat(gapFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
