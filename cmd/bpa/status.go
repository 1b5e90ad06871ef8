package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bpa/internal/errors"
	"bpa/internal/gaps"
	"bpa/internal/version"
)

var (
	statusFormat string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace status",
	Long:  "Display the current project readiness, stored matrix state and gap counts",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	logger := newLogger(statusFormat)
	root := mustGetWorkspaceRoot()

	_, reg, err := loadWorkspace(root)
	if err != nil {
		fail(err)
	}

	db, project, err := openProject(root, logger)
	if err != nil {
		fail(err)
	}
	defer db.Close()

	_, matrixStored, err := db.LoadMatrix(project.ID)
	if err != nil {
		fail(err)
	}

	resp := &StatusResponseCLI{
		BpaVersion:      version.Version,
		Project:         project,
		RegistryVersion: reg.Version,
		MatrixStored:    matrixStored,
	}

	latest, err := db.LatestDiagnosis(project.ID)
	if err != nil && errors.CodeOf(err) != errors.DiagnosisMissing {
		fail(err)
	}
	if err == nil {
		resp.LatestDiagnosis = latest
		for _, gap := range latest.Gaps {
			switch gap.Status {
			case gaps.StatusResolved:
				resp.ResolvedGaps++
			case gaps.StatusPartial:
				resp.PartialGaps++
			default:
				resp.OpenGaps++
			}
		}
	}

	output, err := FormatResponse(resp, OutputFormat(statusFormat))
	if err != nil {
		fail(err)
	}
	fmt.Println(output)
}
