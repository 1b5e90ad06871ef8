package diagnosis

import (
	"strings"
	"testing"
	"time"

	"bpa/internal/config"
	"bpa/internal/errors"
	"bpa/internal/matrix"
	"bpa/internal/registry"
)

const planCorpus = `O público-alvo são clientes e empresas da região sul, segmentados por porte.
A proposta de valor é o acesso a conteúdo regional com infraestrutura própria de produção.
Os canais de distribuição incluem a plataforma OTT e pontos de venda físicos.
O relacionamento com o assinante é mantido por suporte dedicado e comunidade ativa.
A receita vem de assinatura nos planos free, star e premium, além de faturamento por eventos.
Os recursos incluem estúdios próprios, equipamentos de captação e uma equipe experiente.
As parcerias com produtores locais e fornecedores de tecnologia sustentam a operação.
Os custos cobrem investimento em equipamentos e despesas operacionais recorrentes.
Nossa vantagem é o diferencial de foco regional com qualidade superior.
As ameaças incluem concorrência nacional e mudança regulatória no setor.`

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	p := New(reg, config.DefaultConfig(), nil)
	p.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestStepsShape(t *testing.T) {
	if len(Steps) != 10 {
		t.Fatalf("steps = %d, want 10", len(Steps))
	}
	if terminalStep != len(Steps)-1 {
		t.Fatalf("terminalStep = %d, want %d", terminalStep, len(Steps)-1)
	}

	covered := make(map[string]bool)
	for _, step := range Steps {
		if step.Name == "" || len(step.MatrixTargets) == 0 {
			t.Errorf("step %+v incomplete", step)
		}
		for _, target := range step.MatrixTargets {
			covered[target] = true
		}
	}
	for _, field := range matrix.AllFields() {
		if !covered[field] {
			t.Errorf("no step targets %s", field)
		}
	}
}

func TestRunStepOutOfRange(t *testing.T) {
	p := newPipeline(t)
	for _, idx := range []int{-1, 10, 99} {
		_, err := p.RunStep(idx, planCorpus, matrix.New())
		var bpaErr *errors.BpaError
		if !errors.As(err, &bpaErr) || bpaErr.Code != errors.StepOutOfRange {
			t.Errorf("idx %d: err = %v, want STEP_OUT_OF_RANGE", idx, err)
		}
	}
}

func TestRunStepContribution(t *testing.T) {
	p := newPipeline(t)

	result, err := p.RunStep(1, planCorpus, matrix.New())
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}
	if result.Final != nil {
		t.Error("non-terminal step must not carry a final diagnosis")
	}

	fields := result.Delta.Fields()
	if len(fields) != 1 || fields[0] != matrix.FieldCustomerSegments {
		t.Fatalf("step 1 delta fields = %v", fields)
	}
	block := result.Delta.Blocks[matrix.FieldCustomerSegments]
	if len(block.Items) == 0 {
		t.Error("step 1 must extract customer segment items from the corpus")
	}

	joined := strings.Join(result.Logs, "\n")
	if !strings.Contains(joined, "Etapa 2") {
		t.Errorf("logs must name the step: %q", joined)
	}
}

func TestRunStepEmptyCorpus(t *testing.T) {
	p := newPipeline(t)

	result, err := p.RunStep(0, "   ", matrix.New())
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}
	if len(result.Delta.Blocks) != 0 {
		t.Errorf("empty corpus must contribute nothing, got %v", result.Delta.Fields())
	}
	if !strings.Contains(strings.Join(result.Logs, "\n"), "AVISO") {
		t.Error("empty corpus must be flagged in the logs")
	}
}

func TestRunStepTerminalAudits(t *testing.T) {
	p := newPipeline(t)

	result, err := p.RunStep(9, planCorpus, matrix.New())
	if err != nil {
		t.Fatalf("RunStep: %v", err)
	}
	if result.Final == nil {
		t.Fatal("terminal step must produce a final diagnosis")
	}
	if result.Final.OverallReadiness < 5 || result.Final.OverallReadiness > 100 {
		t.Errorf("readiness = %d out of range", result.Final.OverallReadiness)
	}
	if !strings.Contains(strings.Join(result.Logs, "\n"), "Auditoria finalizada") {
		t.Error("terminal logs must record the audit")
	}
}

func TestRunFoldsAllSteps(t *testing.T) {
	p := newPipeline(t)
	start := matrix.New()

	final, resp, err := p.Run(planCorpus, start)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if start.GeneratedAt != 0 {
		t.Error("Run mutated its input matrix")
	}
	if final.GeneratedAt == 0 {
		t.Error("final matrix must be stamped")
	}
	for _, field := range matrix.AllFields() {
		block, _ := final.Block(field)
		if len(block.Items) == 0 {
			t.Errorf("block %s left empty after a full run", field)
		}
		if block.ClarityLevel < 10 || block.ClarityLevel > 100 {
			t.Errorf("block %s clarity %d out of range", field, block.ClarityLevel)
		}
	}

	if resp.ID == "" {
		t.Error("response must carry an id")
	}
	if resp.RegistryVersion == "" {
		t.Error("response must carry the registry version")
	}
	if resp.Timestamp.IsZero() {
		t.Error("response must carry a timestamp")
	}
	if resp.OverallReadiness == 5 {
		t.Error("a populated corpus must not hit the empty-corpus readiness")
	}
}

// Two runs over the same corpus fold to structurally identical matrices
func TestRunDeterministic(t *testing.T) {
	p := newPipeline(t)

	first, _, err := p.Run(planCorpus, matrix.New())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, _, err := p.Run(planCorpus, matrix.New())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, field := range matrix.AllFields() {
		a, _ := first.Block(field)
		b, _ := second.Block(field)
		if len(a.Items) != len(b.Items) || a.ClarityLevel != b.ClarityLevel {
			t.Errorf("block %s differs between identical runs", field)
		}
		for i := range a.Items {
			if a.Items[i] != b.Items[i] {
				t.Errorf("block %s item %d differs", field, i)
			}
		}
	}
}

func TestRunEmptyCorpus(t *testing.T) {
	p := newPipeline(t)

	final, resp, err := p.Run("", matrix.New())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.OverallReadiness != 5 {
		t.Errorf("readiness = %d, want 5", resp.OverallReadiness)
	}
	if len(resp.Gaps) == 0 {
		t.Error("empty corpus must open gaps for every criterion")
	}
	for _, field := range matrix.AllFields() {
		block, _ := final.Block(field)
		if len(block.Items) != 0 {
			t.Errorf("block %s must stay empty on an empty corpus", field)
		}
	}
}
