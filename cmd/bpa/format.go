package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"bpa/internal/gaps"
	"bpa/internal/matrix"
	"bpa/internal/registry"
	"bpa/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *DiagnoseResponseCLI:
		return formatDiagnoseHuman(v)
	case *GapListResponseCLI:
		return formatGapListHuman(v)
	case *GapResolveResponseCLI:
		return formatGapResolveHuman(v)
	case *MatrixResponseCLI:
		return formatMatrixHuman(v)
	case *RegistryResponseCLI:
		return formatRegistryHuman(v)
	case *StatusResponseCLI:
		return formatStatusHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func severityMark(severity string) string {
	switch severity {
	case "A":
		return "[A] CRÍTICO  "
	case "B":
		return "[B] IMPORTANTE"
	default:
		return "[C] COSMÉTICO "
	}
}

func formatDiagnoseHuman(resp *DiagnoseResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Diagnóstico %s\n", resp.ID))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Registro de exigências: %s\n", resp.RegistryVersion))
	b.WriteString(fmt.Sprintf("Critérios avaliados:    %d\n", resp.TotalCriteria))
	b.WriteString(fmt.Sprintf("Nível de prontidão:     %d%%\n", resp.OverallReadiness))
	b.WriteString(fmt.Sprintf("Pendências abertas:     %d\n", len(resp.Gaps)))

	if len(resp.Gaps) > 0 {
		b.WriteString("\nPendências:\n")
		for _, gap := range resp.Gaps {
			b.WriteString(fmt.Sprintf("  %s %s - %s\n", severityMark(string(gap.Severity)), gap.ID, gap.Description))
		}
	}
	return b.String(), nil
}

func formatGapListHuman(resp *GapListResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Pendências do diagnóstico %s (prontidão %d%%)\n", resp.DiagnosisID, resp.OverallReadiness))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	if len(resp.Gaps) == 0 {
		b.WriteString("Nenhuma pendência registrada.\n")
		return b.String(), nil
	}

	for _, gap := range resp.Gaps {
		b.WriteString(fmt.Sprintf("%s %s [%s]\n", severityMark(string(gap.Severity)), gap.ID, gap.Status))
		b.WriteString(fmt.Sprintf("    %s\n", gap.Description))
		b.WriteString(fmt.Sprintf("    %s\n", gap.Feedback))
		if gap.ResolutionScore > 0 {
			b.WriteString(fmt.Sprintf("    Resolução: %d/100\n", gap.ResolutionScore))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func formatGapResolveHuman(resp *GapResolveResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Pendência %s\n", resp.Gap.ID))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Status:     %s\n", resp.Gap.Status))
	b.WriteString(fmt.Sprintf("Resolução:  %d/100\n", resp.Gap.ResolutionScore))
	b.WriteString(fmt.Sprintf("Prontidão:  %d%% (%+d)\n", resp.ProjectReadiness, resp.ReadinessDelta))
	b.WriteString(fmt.Sprintf("\n%s\n", resp.Feedback))
	return b.String(), nil
}

func formatMatrixHuman(resp *MatrixResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Matriz Estratégica\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	if resp.Matrix.GeneratedAt == 0 {
		b.WriteString("A matriz ainda não foi gerada. Execute 'bpa diagnose'.\n")
		return b.String(), nil
	}

	for _, field := range matrix.AllFields() {
		block, _ := resp.Matrix.Block(field)
		b.WriteString(fmt.Sprintf("%s (clareza %d%%)\n", field, block.ClarityLevel))
		for _, item := range block.Items {
			b.WriteString(fmt.Sprintf("  - [%s/%s] %s\n", item.Severity, item.Confidence, item.Item))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func formatRegistryHuman(resp *RegistryResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Registro de exigências %s\n", resp.Version))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Capítulos: %d, critérios: %d\n\n", len(resp.Chapters), resp.TotalCriteria))

	for _, chapter := range resp.Chapters {
		b.WriteString(fmt.Sprintf("%s. %s (%d critérios)\n", chapter.ChapterID, chapter.ChapterName, len(chapter.Criteria)))
		for _, criterion := range chapter.Criteria {
			b.WriteString(fmt.Sprintf("  %s [nível %d] %s\n", criterion.ID, criterion.Level, criterion.Label))
		}
	}
	return b.String(), nil
}

func formatStatusHuman(resp *StatusResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("bpa v%s\n", resp.BpaVersion))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Projeto:            %s\n", resp.Project.Name))
	b.WriteString(fmt.Sprintf("Prontidão atual:    %d%%\n", resp.Project.Readiness))
	b.WriteString(fmt.Sprintf("Registro:           %s\n", resp.RegistryVersion))
	b.WriteString(fmt.Sprintf("Matriz gerada:      %v\n", resp.MatrixStored))

	if resp.LatestDiagnosis != nil {
		b.WriteString(fmt.Sprintf("Último diagnóstico: %s (%s)\n", resp.LatestDiagnosis.ID,
			resp.LatestDiagnosis.CreatedAt.Format("2006-01-02 15:04")))
		b.WriteString(fmt.Sprintf("Pendências:         %d abertas, %d parciais, %d resolvidas\n",
			resp.OpenGaps, resp.PartialGaps, resp.ResolvedGaps))
	} else {
		b.WriteString("Último diagnóstico: nenhum\n")
	}
	return b.String(), nil
}

// CLI response types

// DiagnoseResponseCLI is the output of a full diagnosis run
type DiagnoseResponseCLI struct {
	ID               string     `json:"id"`
	Timestamp        string     `json:"timestamp"`
	RegistryVersion  string     `json:"registryVersion"`
	TotalCriteria    int        `json:"totalCriteria"`
	OverallReadiness int        `json:"overallReadiness"`
	Gaps             []gaps.Gap `json:"gaps"`
}

// GapListResponseCLI lists the gaps of the latest diagnosis
type GapListResponseCLI struct {
	DiagnosisID      string     `json:"diagnosisId"`
	OverallReadiness int        `json:"overallReadiness"`
	Gaps             []gaps.Gap `json:"gaps"`
}

// GapResolveResponseCLI is the outcome of one gap re-evaluation
type GapResolveResponseCLI struct {
	Gap              gaps.Gap `json:"gap"`
	Feedback         string   `json:"feedback"`
	ReadinessDelta   int      `json:"readinessDelta"`
	ProjectReadiness int      `json:"projectReadiness"`
}

// MatrixResponseCLI wraps the stored strategic matrix
type MatrixResponseCLI struct {
	Matrix matrix.StrategicMatrix `json:"matrix"`
}

// RegistryResponseCLI describes the loaded rule registry
type RegistryResponseCLI struct {
	Version       string                       `json:"version"`
	TotalCriteria int                          `json:"totalCriteria"`
	Chapters      []registry.ChapterValidation `json:"chapters"`
}

// StatusResponseCLI summarizes the workspace state
type StatusResponseCLI struct {
	BpaVersion      string                   `json:"bpaVersion"`
	Project         *storage.Project         `json:"project"`
	RegistryVersion string                   `json:"registryVersion"`
	MatrixStored    bool                     `json:"matrixStored"`
	LatestDiagnosis *storage.DiagnosisRecord `json:"latestDiagnosis,omitempty"`
	OpenGaps        int                      `json:"openGaps"`
	PartialGaps     int                      `json:"partialGaps"`
	ResolvedGaps    int                      `json:"resolvedGaps"`
}
