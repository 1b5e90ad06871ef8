// Package gaps manages the lifecycle of audit gaps: open on creation,
// re-evaluated against new evidence, resolved or left partial, with each
// resolution feeding a bounded readiness adjustment back to the project.
package gaps

import (
	"strings"
	"time"

	"bpa/internal/audit"
	"bpa/internal/config"
	"bpa/internal/logging"
)

// Status is the gap lifecycle state
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusPartial  Status = "PARTIAL"
	StatusResolved Status = "RESOLVED"
)

// minEvidenceLen is the shortest free text that counts as new evidence
const minEvidenceLen = 10

// Gap is a tracked audit finding
type Gap struct {
	ID              string              `json:"id"`
	CriterionID     string              `json:"criterionId"`
	Description     string              `json:"description"`
	Feedback        string              `json:"feedback"`
	Severity        audit.SeverityClass `json:"severity"`
	Status          Status              `json:"status"`
	ResolutionScore int                 `json:"resolutionScore"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	ResolvedAt      *time.Time          `json:"resolvedAt,omitempty"`
}

// FromDraft opens a gap from an audit draft
func FromDraft(draft audit.Draft, now time.Time) Gap {
	return Gap{
		ID:          draft.ID,
		CriterionID: draft.CriterionID,
		Description: draft.Description,
		Feedback:    draft.Feedback,
		Severity:    draft.Severity,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Result is the outcome of one re-evaluation
type Result struct {
	Feedback       string `json:"feedback"`
	NewScore       int    `json:"newScore"`
	NewStatus      Status `json:"newStatus"`
	ReadinessDelta int    `json:"readinessDelta"`
}

// Manager re-evaluates gaps under the configured policy. The audit engine is
// only consulted under the strict policy; it may be nil otherwise.
type Manager struct {
	cfg    config.GapsConfig
	engine *audit.Engine
	log    *logging.Logger
}

// NewManager returns a gap manager. A nil logger falls back to a no-op logger.
func NewManager(cfg config.GapsConfig, engine *audit.Engine, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{cfg: cfg, engine: engine, log: log.WithComponent("gaps")}
}

// hasNewEvidence reports whether the submission carries anything to judge
func hasNewEvidence(newText string, newFragments []string) bool {
	return len(strings.TrimSpace(newText)) > minEvidenceLen || len(newFragments) > 0
}

// delta is the readiness adjustment earned by resolving a gap of this class
func (m *Manager) delta(severity audit.SeverityClass) int {
	if severity == audit.SeverityA {
		if m.cfg.ReadinessDeltaA > 0 {
			return m.cfg.ReadinessDeltaA
		}
		return 15
	}
	if m.cfg.ReadinessDeltaB > 0 {
		return m.cfg.ReadinessDeltaB
	}
	return 10
}

// Reevaluate judges new evidence against a gap and returns the updated gap
// plus the outcome. Callers serialize re-evaluations of the same gap; the
// manager itself holds no per-gap locks.
//
// A RESOLVED gap is terminal: re-submitting evidence is a no-op, so repeated
// resolutions never stack readiness deltas. Submissions without evidence
// leave the gap untouched.
func (m *Manager) Reevaluate(gap Gap, newText string, newFragments []string, fullContext string, now time.Time) (Gap, Result) {
	if gap.Status == StatusResolved {
		return gap, Result{
			Feedback:  "Esta pendência já foi resolvida. Nenhuma alteração foi aplicada.",
			NewScore:  gap.ResolutionScore,
			NewStatus: gap.Status,
		}
	}

	if !hasNewEvidence(newText, newFragments) {
		return gap, Result{
			Feedback:  "Nenhuma informação nova foi fornecida. A pendência permanece a mesma.",
			NewScore:  gap.ResolutionScore,
			NewStatus: gap.Status,
		}
	}

	if m.cfg.Policy == config.PolicyStrict && m.engine != nil {
		augmented := augmentCorpus(fullContext, newText, newFragments)
		if passed, known := m.engine.CheckCriterion(augmented, gap.CriterionID); known && !passed {
			gap.Status = StatusPartial
			gap.ResolutionScore = 40
			gap.Feedback = "A informação enviada foi registrada, mas o critério de origem ainda não é atendido pelo conteúdo disponível. Complemente os dados para resolver a pendência."
			gap.UpdatedAt = now
			m.log.Info("gap kept partial under strict policy", map[string]interface{}{
				"gap": gap.ID,
			})
			return gap, Result{
				Feedback:  gap.Feedback,
				NewScore:  gap.ResolutionScore,
				NewStatus: gap.Status,
			}
		}
	}

	feedback := resolutionFeedback(gap.Description)
	delta := m.delta(gap.Severity)

	gap.Status = StatusResolved
	gap.ResolutionScore = 100
	gap.Feedback = feedback
	gap.UpdatedAt = now
	resolvedAt := now
	gap.ResolvedAt = &resolvedAt

	m.log.Info("gap resolved", map[string]interface{}{
		"gap":            gap.ID,
		"severity":       string(gap.Severity),
		"readinessDelta": delta,
	})

	return gap, Result{
		Feedback:       feedback,
		NewScore:       100,
		NewStatus:      StatusResolved,
		ReadinessDelta: delta,
	}
}

// resolutionFeedback keys the confirmation message off the gap topic
func resolutionFeedback(description string) string {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "financeiro"):
		return "Excelente! As planilhas financeiras foram anexadas e os dados detalhados. A projeção agora está clara."
	case strings.Contains(lower, "mercado"):
		return "Ótimo! A pesquisa de mercado foi adicionada, fornecendo os dados quantitativos necessários para validar a demanda."
	default:
		return "Informação recebida. Os novos dados foram processados e esta pendência foi considerada resolvida."
	}
}

// augmentCorpus appends the new evidence to the existing context so strict
// checks see everything at once
func augmentCorpus(fullContext, newText string, newFragments []string) string {
	parts := []string{fullContext}
	if strings.TrimSpace(newText) != "" {
		parts = append(parts, newText)
	}
	parts = append(parts, newFragments...)
	return strings.Join(parts, "\n")
}

// ApplyReadiness folds a resolution delta into the project readiness,
// capped at 100
func ApplyReadiness(current, delta int) int {
	next := current + delta
	if next > 100 {
		return 100
	}
	return next
}
