// Package diagnosis runs the ten-step evaluation pipeline: each step derives
// evidence for a fixed set of matrix blocks and the terminal step audits the
// whole corpus, producing the project's gaps and readiness percentage.
package diagnosis

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bpa/internal/audit"
	"bpa/internal/config"
	"bpa/internal/errors"
	"bpa/internal/logging"
	"bpa/internal/matrix"
	"bpa/internal/registry"
)

// Step is one pipeline stage: a display name plus the matrix block fields it
// contributes to
type Step struct {
	Name          string   `json:"name"`
	MatrixTargets []string `json:"matrixTargets"`
}

// Steps is the fixed pipeline, run strictly in order. The last step is
// terminal: it consolidates the matrix and triggers the full audit.
var Steps = []Step{
	{Name: "Entendimento do Negócio", MatrixTargets: []string{matrix.FieldValueProposition, matrix.FieldKeyActivities}},
	{Name: "Análise de Clientes e Segmentos", MatrixTargets: []string{matrix.FieldCustomerSegments}},
	{Name: "Canais de Distribuição e Venda", MatrixTargets: []string{matrix.FieldChannels}},
	{Name: "Relacionamento com Clientes", MatrixTargets: []string{matrix.FieldCustomerRelationships}},
	{Name: "Estrutura de Receitas", MatrixTargets: []string{matrix.FieldRevenueStreams}},
	{Name: "Recursos e Ativos Chave", MatrixTargets: []string{matrix.FieldKeyResources}},
	{Name: "Parcerias Estratégicas", MatrixTargets: []string{matrix.FieldKeyPartnerships}},
	{Name: "Estrutura de Custos", MatrixTargets: []string{matrix.FieldCostStructure}},
	{Name: "Análise SWOT (Forças e Fraquezas)", MatrixTargets: []string{matrix.FieldSwotStrengths, matrix.FieldSwotWeaknesses}},
	{Name: "Análise SWOT (Oportunidades e Ameaças)", MatrixTargets: []string{matrix.FieldSwotOpportunities, matrix.FieldSwotThreats}},
}

// terminalStep triggers the audit after its matrix contribution
var terminalStep = len(Steps) - 1

// Final carries the terminal step's audit outcome
type Final struct {
	OverallReadiness int           `json:"overallReadiness"`
	Gaps             []audit.Draft `json:"gaps"`
}

// StepResult is the output of one pipeline stage
type StepResult struct {
	Logs  []string     `json:"logs"`
	Delta matrix.Delta `json:"-"`
	Final *Final       `json:"finalDiagnosis,omitempty"`
}

// Response summarizes a completed diagnosis run
type Response struct {
	ID               string        `json:"id"`
	Timestamp        time.Time     `json:"timestamp"`
	RegistryVersion  string        `json:"registryVersion"`
	Gaps             []audit.Draft `json:"gaps"`
	OverallReadiness int           `json:"overallReadiness"`
}

// Pipeline folds diagnosis steps over a matrix value
type Pipeline struct {
	reg     *registry.Registry
	engine  *audit.Engine
	builder matrix.Builder
	cfg     *config.Config
	log     *logging.Logger
	now     func() time.Time
}

// New returns a diagnosis pipeline. A nil logger falls back to a no-op
// logger.
func New(reg *registry.Registry, cfg *config.Config, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.NewNop()
	}
	return &Pipeline{
		reg:    reg,
		engine: audit.New(reg, cfg.Audit, log),
		builder: matrix.Builder{
			MaxFragments: cfg.Extractor.MaxFragments,
			MinLen:       cfg.Extractor.MinFragmentLen,
			MaxLen:       cfg.Extractor.MaxFragmentLen,
			LabelMaxLen:  cfg.Matrix.LabelMaxLen,
			ClarityBase:  cfg.Matrix.ClarityBase,
			ClarityStep:  cfg.Matrix.ClarityStep,
		},
		cfg: cfg,
		log: log.WithComponent("diagnosis"),
		now: time.Now,
	}
}

// hasContent mirrors the audit threshold so step logs and audit behavior
// agree on what counts as an empty corpus
func (p *Pipeline) hasContent(corpus string) bool {
	return len(strings.TrimSpace(corpus)) > p.cfg.Audit.MinCorpusLen
}

// RunStep executes one pipeline stage against the corpus and the current
// matrix. The returned delta has not been applied; the caller folds it. The
// current matrix is consulted only at the terminal step, where its appendix
// augments the audit corpus.
func (p *Pipeline) RunStep(idx int, corpus string, current matrix.StrategicMatrix) (*StepResult, error) {
	if idx < 0 || idx >= len(Steps) {
		return nil, errors.New(errors.StepOutOfRange,
			fmt.Sprintf("diagnosis step %d out of range [0,%d]", idx, len(Steps)-1), nil)
	}

	step := Steps[idx]
	logs := []string{
		fmt.Sprintf("Executando Etapa %d: %s", idx+1, step.Name),
		"Analisando contexto e arquivos...",
	}

	delta := matrix.NewDelta()
	if p.hasContent(corpus) {
		logs = append(logs, "Contexto detectado. Extraindo insights dos documentos...")
		for _, target := range step.MatrixTargets {
			delta.Set(target, p.builder.BuildBlock(corpus, target))
		}
		logs = append(logs, "Insights extraídos e aplicados à matriz.")
	} else {
		logs = append(logs, "AVISO: Contexto de entrada vazio ou insuficiente. A análise será limitada.")
	}

	result := &StepResult{Logs: logs, Delta: delta}

	if idx == terminalStep {
		logs = append(logs, "Consolidando diagnóstico...")
		logs = append(logs, "Executando auditoria completa com base na matriz de exigências...")

		// Evidence that only survives as matrix items still counts
		augmented := corpus
		if appendix := current.Apply(delta).Appendix(); appendix != "" {
			augmented = corpus + "\n" + appendix
		}
		auditResult := p.engine.Audit(augmented)

		result.Final = &Final{
			OverallReadiness: auditResult.OverallReadiness,
			Gaps:             auditResult.Gaps,
		}
		if len(auditResult.Gaps) > 0 {
			logs = append(logs, fmt.Sprintf("Auditoria finalizada. Nível de Prontidão: %d%%. Foram identificadas %d pendências.", auditResult.OverallReadiness, len(auditResult.Gaps)))
		} else {
			logs = append(logs, fmt.Sprintf("Auditoria finalizada. Nível de Prontidão: %d%%. Nenhuma pendência identificada.", auditResult.OverallReadiness))
		}
		result.Logs = logs
	}

	return result, nil
}

// Run executes all ten steps in order, folding each delta into a fresh copy
// of the starting matrix, and returns the final matrix plus the diagnosis
// summary. The input matrix is never mutated.
func (p *Pipeline) Run(corpus string, start matrix.StrategicMatrix) (matrix.StrategicMatrix, *Response, error) {
	current := start.Clone()
	var final *Final

	for idx := range Steps {
		result, err := p.RunStep(idx, corpus, current)
		if err != nil {
			return start, nil, err
		}
		current = current.Apply(result.Delta)
		current.GeneratedAt = p.now().UnixMilli()
		if result.Final != nil {
			final = result.Final
		}
	}

	if final == nil {
		return start, nil, errors.New(errors.InternalError, "pipeline finished without a terminal audit", nil)
	}

	resp := &Response{
		ID:               uuid.NewString(),
		Timestamp:        p.now().UTC(),
		RegistryVersion:  p.reg.Version,
		Gaps:             final.Gaps,
		OverallReadiness: final.OverallReadiness,
	}

	p.log.Info("diagnosis complete", map[string]interface{}{
		"id":        resp.ID,
		"registry":  resp.RegistryVersion,
		"gaps":      len(resp.Gaps),
		"readiness": resp.OverallReadiness,
	})

	return current, resp, nil
}
