package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"bpa/internal/audit"
	"bpa/internal/errors"
	"bpa/internal/gaps"
	"bpa/internal/matrix"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesDatabase(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if !fileExists(filepath.Join(root, ".bpa", "bpa.db")) {
		t.Error("database file not created under .bpa")
	}
}

func TestOpenExistingDatabase(t *testing.T) {
	root := t.TempDir()

	db, err := Open(root, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	project, err := db.CreateProject("plano")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	db, err = Open(root, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, err := db.GetProject(project.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Name != "plano" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestProjectLifecycle(t *testing.T) {
	db := openTestDB(t)

	project, err := db.CreateProject("hub-audiovisual")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if project.ID == "" || project.Readiness != 0 {
		t.Errorf("project = %+v", project)
	}

	byName, err := db.GetProjectByName("hub-audiovisual")
	if err != nil || byName.ID != project.ID {
		t.Fatalf("by name: %v, %+v", err, byName)
	}

	if err := db.UpdateProjectReadiness(project.ID, 72); err != nil {
		t.Fatalf("update readiness: %v", err)
	}
	got, err := db.GetProject(project.ID)
	if err != nil || got.Readiness != 72 {
		t.Errorf("readiness = %d, err %v", got.Readiness, err)
	}

	_, err = db.GetProject("nonexistent")
	if errors.CodeOf(err) != errors.ProjectNotFound {
		t.Errorf("missing project error = %v", err)
	}
	if err := db.UpdateProjectReadiness("nonexistent", 10); errors.CodeOf(err) != errors.ProjectNotFound {
		t.Errorf("readiness on missing project = %v", err)
	}
}

func TestEnsureProject(t *testing.T) {
	db := openTestDB(t)

	first, err := db.EnsureProject("default")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	second, err := db.EnsureProject("default")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if first.ID != second.ID {
		t.Error("EnsureProject must be idempotent per name")
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	db := openTestDB(t)
	project, _ := db.CreateProject("plano")

	m, found, err := db.LoadMatrix(project.ID)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if found {
		t.Error("fresh project must report no stored matrix")
	}

	m.ValueProposition = matrix.Block{
		Items:        []matrix.Item{{Item: "x", Description: "proposta", Severity: matrix.SeverityModerate, Confidence: matrix.ConfidenceMedium}},
		Source:       "Diagnóstico - valueProposition",
		ClarityLevel: 28,
	}
	m.GeneratedAt = 1756600000000

	if err := db.SaveMatrix(project.ID, m); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := db.LoadMatrix(project.ID)
	if err != nil || !found {
		t.Fatalf("load: %v, found=%v", err, found)
	}
	if got.GeneratedAt != m.GeneratedAt {
		t.Error("generatedAt lost")
	}
	if len(got.ValueProposition.Items) != 1 || got.ValueProposition.ClarityLevel != 28 {
		t.Errorf("block = %+v", got.ValueProposition)
	}

	// Upsert replaces the snapshot
	m.ValueProposition.ClarityLevel = 46
	if err := db.SaveMatrix(project.ID, m); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _, _ = db.LoadMatrix(project.ID)
	if got.ValueProposition.ClarityLevel != 46 {
		t.Errorf("clarity after upsert = %d", got.ValueProposition.ClarityLevel)
	}
}

func testGap(id string) gaps.Gap {
	return gaps.FromDraft(audit.Draft{
		ID:          id,
		CriterionID: "2.1",
		Description: "[Nível 0/2] Informação ausente: Projeção",
		Feedback:    "feedback",
		Severity:    audit.SeverityA,
	}, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
}

func TestDiagnosisHistory(t *testing.T) {
	db := openTestDB(t)
	project, _ := db.CreateProject("plano")

	if _, err := db.LatestDiagnosis(project.ID); errors.CodeOf(err) != errors.DiagnosisMissing {
		t.Errorf("latest on fresh project = %v", err)
	}

	first := &DiagnosisRecord{
		ID:               "diag-1",
		ProjectID:        project.ID,
		RegistryVersion:  "sebrae-brde/1",
		OverallReadiness: 5,
		Gaps:             []gaps.Gap{testGap("GAP-2.1"), testGap("GAP-2.2")},
		CreatedAt:        time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	second := &DiagnosisRecord{
		ID:               "diag-2",
		ProjectID:        project.ID,
		RegistryVersion:  "sebrae-brde/1",
		OverallReadiness: 60,
		Gaps:             []gaps.Gap{testGap("GAP-2.1")},
		CreatedAt:        time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
	}
	if err := db.AppendDiagnosis(first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := db.AppendDiagnosis(second); err != nil {
		t.Fatalf("append second: %v", err)
	}

	latest, err := db.LatestDiagnosis(project.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "diag-2" || latest.OverallReadiness != 60 {
		t.Errorf("latest = %+v", latest)
	}
	if len(latest.Gaps) != 1 || latest.Gaps[0].Status != gaps.StatusOpen {
		t.Errorf("latest gaps = %+v", latest.Gaps)
	}

	all, err := db.ListDiagnoses(project.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "diag-2" || all[1].ID != "diag-1" {
		t.Errorf("history order wrong: %+v", all)
	}
}

func TestUpdateDiagnosisGaps(t *testing.T) {
	db := openTestDB(t)
	project, _ := db.CreateProject("plano")

	record := &DiagnosisRecord{
		ID:               "diag-1",
		ProjectID:        project.ID,
		RegistryVersion:  "sebrae-brde/1",
		OverallReadiness: 40,
		Gaps:             []gaps.Gap{testGap("GAP-2.1")},
		CreatedAt:        time.Now().UTC(),
	}
	if err := db.AppendDiagnosis(record); err != nil {
		t.Fatalf("append: %v", err)
	}

	resolved := record.Gaps[0]
	resolved.Status = gaps.StatusResolved
	resolved.ResolutionScore = 100
	if err := db.UpdateDiagnosisGaps("diag-1", []gaps.Gap{resolved}, 55); err != nil {
		t.Fatalf("update: %v", err)
	}

	latest, err := db.LatestDiagnosis(project.ID)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.OverallReadiness != 55 {
		t.Errorf("readiness = %d", latest.OverallReadiness)
	}
	if latest.Gaps[0].Status != gaps.StatusResolved || latest.Gaps[0].ResolutionScore != 100 {
		t.Errorf("gap = %+v", latest.Gaps[0])
	}

	if err := db.UpdateDiagnosisGaps("missing", nil, 0); errors.CodeOf(err) != errors.DiagnosisMissing {
		t.Errorf("update missing diagnosis = %v", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db := openTestDB(t)

	failErr := errors.New(errors.InternalError, "boom", nil)
	err := db.WithTx(func(tx *sql.Tx) error {
		if _, execErr := tx.Exec(
			"INSERT INTO projects (id, name, readiness, created_at, updated_at) VALUES ('p1', 'tx-test', 0, '2026-08-31T00:00:00Z', '2026-08-31T00:00:00Z')",
		); execErr != nil {
			t.Fatalf("insert in tx: %v", execErr)
		}
		return failErr
	})
	if !errors.Is(err, failErr) {
		t.Fatalf("err = %v, want the function error", err)
	}

	if _, err := db.GetProjectByName("tx-test"); errors.CodeOf(err) != errors.ProjectNotFound {
		t.Error("rolled-back insert is still visible")
	}
}
