// Package audit scores a business-plan corpus against the validation
// registry. Each criterion is checked at its declared rigor level and every
// failure becomes one gap draft; readiness is the surviving fraction of
// criteria mapped to a 0-100 percentage.
package audit

import (
	"fmt"
	"strings"

	"bpa/internal/config"
	"bpa/internal/extract"
	"bpa/internal/logging"
	"bpa/internal/registry"
)

// SeverityClass ranks a gap for triage: A blocks a bank submission, B weakens
// it, C is polish.
type SeverityClass string

const (
	SeverityA SeverityClass = "A"
	SeverityB SeverityClass = "B"
	SeverityC SeverityClass = "C"
)

// classify derives the gap class from the criterion rigor level
func classify(level int) SeverityClass {
	switch {
	case level >= registry.LevelBank:
		return SeverityA
	case level == registry.LevelDepth:
		return SeverityB
	default:
		return SeverityC
	}
}

// Draft is a gap candidate produced by one audit pass. Lifecycle fields
// (status, timestamps, resolution score) are attached downstream.
type Draft struct {
	ID          string        `json:"id"`
	CriterionID string        `json:"criterionId"`
	Description string        `json:"description"`
	Feedback    string        `json:"feedback"`
	Severity    SeverityClass `json:"severity"`
}

// Result is the outcome of a full audit pass
type Result struct {
	Gaps             []Draft `json:"gaps"`
	OverallReadiness int     `json:"overallReadiness"`
	TotalCriteria    int     `json:"totalCriteria"`
}

// pendingMarkers flag unresolved placeholders left in the corpus. A
// coherence-level criterion fails while any of them survives near its topic.
var pendingMarkers = []string{
	"[informação pendente",
	"pendente",
	"a definir",
	"tbd",
	"aguardando definição",
}

// Engine runs audits against one registry snapshot
type Engine struct {
	reg *registry.Registry
	cfg config.AuditConfig
	log *logging.Logger
}

// New returns an audit engine. A nil logger falls back to a no-op logger.
func New(reg *registry.Registry, cfg config.AuditConfig, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	return &Engine{reg: reg, cfg: cfg, log: log.WithComponent("audit")}
}

// DefaultReadinessFloor is the minimum readiness for any corpus that was
// actually audited
const DefaultReadinessFloor = 10

// Readiness maps the surviving criteria fraction to a percentage, floored so
// a plan that passed anything at all never reads as zero.
func Readiness(total, gapCount int) int {
	return readinessFloored(total, gapCount, DefaultReadinessFloor)
}

func readinessFloored(total, gapCount, floor int) int {
	if total <= 0 {
		return floor
	}
	readiness := (total - gapCount) * 100 / total
	if readiness < floor {
		readiness = floor
	}
	return readiness
}

// readiness applies the configured floor, falling back to the default when
// the config leaves it unset
func (e *Engine) readiness(total, gapCount int) int {
	floor := e.cfg.ReadinessFloor
	if floor <= 0 {
		floor = DefaultReadinessFloor
	}
	return readinessFloored(total, gapCount, floor)
}

// hasContent reports whether the corpus carries enough text to audit at all
func (e *Engine) hasContent(corpus string) bool {
	return len(strings.TrimSpace(corpus)) > e.cfg.MinCorpusLen
}

// Audit checks every registry criterion against the corpus and returns the
// resulting gaps plus the overall readiness percentage.
func (e *Engine) Audit(corpus string) *Result {
	total := e.reg.TotalCriteria()

	if !e.hasContent(corpus) {
		return e.emptyCorpusResult(total)
	}

	var gaps []Draft
	for _, chapter := range e.reg.GetChapters() {
		for _, criterion := range chapter.Criteria {
			if draft, failed := e.check(corpus, criterion); failed {
				gaps = append(gaps, draft)
			}
		}
	}

	readiness := e.readiness(total, len(gaps))
	e.log.Info("audit complete", map[string]interface{}{
		"totalCriteria": total,
		"gaps":          len(gaps),
		"readiness":     readiness,
	})

	return &Result{Gaps: gaps, OverallReadiness: readiness, TotalCriteria: total}
}

// check runs one criterion through its level checks in order: existence
// first, then depth, then coherence. The first failing level wins.
func (e *Engine) check(corpus string, criterion registry.Criterion) (Draft, bool) {
	if !extract.MatchesAny(corpus, criterion.Keywords) {
		return e.existenceGap(criterion), true
	}

	if criterion.Level == registry.LevelDepth && len(criterion.SubCriteria) > 0 {
		var missing []string
		for _, sub := range criterion.SubCriteria {
			if !extract.MatchesAny(corpus, sub.Keywords) {
				missing = append(missing, sub.Label)
			}
		}
		if len(missing) > 0 {
			return Draft{
				ID:          gapID(criterion.ID),
				CriterionID: criterion.ID,
				Description: fmt.Sprintf("[Nível 1] Falta profundidade em: %s", criterion.Label),
				Feedback:    fmt.Sprintf("O tópico foi mencionado, mas faltam detalhes específicos sobre: %s.", strings.Join(missing, ", ")),
				Severity:    SeverityB,
			}, true
		}
	}

	if criterion.Level == registry.LevelCoherence {
		if marker, found := findPendingMarker(corpus); found {
			return Draft{
				ID:          gapID(criterion.ID),
				CriterionID: criterion.ID,
				Description: fmt.Sprintf("[Nível 3] Coerência comprometida em: %s", criterion.Label),
				Feedback:    fmt.Sprintf("O conteúdo contém o marcador de pendência %q. Resolva as pendências deixadas no texto para validar a coerência entre as seções.", marker),
				Severity:    SeverityA,
			}, true
		}
	}

	return Draft{}, false
}

func (e *Engine) existenceGap(criterion registry.Criterion) Draft {
	kind := "básico"
	if criterion.Level >= registry.LevelBank {
		kind = "crítico (exigência bancária)"
	}
	return Draft{
		ID:          gapID(criterion.ID),
		CriterionID: criterion.ID,
		Description: fmt.Sprintf("[Nível 0/2] Informação ausente: %s", criterion.Label),
		Feedback:    fmt.Sprintf("Não foram encontradas menções a %q no contexto. Este é um ponto %s que precisa ser abordado.", strings.Join(criterion.Keywords, ", "), kind),
		Severity:    classify(criterion.Level),
	}
}

// emptyCorpusResult is the total failure mode: one gap per criterion and a
// flat readiness of 5, below the normal floor so callers can tell "nothing
// to audit" from "audited badly".
func (e *Engine) emptyCorpusResult(total int) *Result {
	var gaps []Draft
	for _, chapter := range e.reg.GetChapters() {
		for _, criterion := range chapter.Criteria {
			gaps = append(gaps, Draft{
				ID:          gapID(criterion.ID),
				CriterionID: criterion.ID,
				Description: fmt.Sprintf("[Nível 0] Informação ausente: %s", criterion.Label),
				Feedback:    fmt.Sprintf("Nenhuma informação encontrada nos documentos sobre %q. É necessário criar este conteúdo do zero.", criterion.Description),
				Severity:    classify(criterion.Level),
			})
		}
	}

	readiness := e.cfg.EmptyReadiness
	if readiness <= 0 {
		readiness = 5
	}

	e.log.Warn("corpus empty or below threshold", map[string]interface{}{
		"totalCriteria": total,
		"readiness":     readiness,
	})

	return &Result{Gaps: gaps, OverallReadiness: readiness, TotalCriteria: total}
}

// CheckCriterion re-runs the level checks for a single criterion, used when
// a gap is re-evaluated under the strict policy. The second return reports
// whether the criterion exists in the registry at all.
func (e *Engine) CheckCriterion(corpus, criterionID string) (passed, known bool) {
	criterion, ok := e.reg.FindCriterion(criterionID)
	if !ok {
		return false, false
	}
	_, failed := e.check(corpus, *criterion)
	return !failed, true
}

func findPendingMarker(corpus string) (string, bool) {
	lower := strings.ToLower(corpus)
	for _, marker := range pendingMarkers {
		if strings.Contains(lower, marker) {
			return marker, true
		}
	}
	return "", false
}

func gapID(criterionID string) string {
	return "GAP-" + criterionID
}

// GapID exposes the gap naming scheme for callers resolving by criterion
func GapID(criterionID string) string {
	return gapID(criterionID)
}
