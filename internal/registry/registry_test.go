package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	if r.Version == "" {
		t.Error("embedded registry must carry a version")
	}
	if len(r.GetChapters()) != 9 {
		t.Errorf("chapters = %d, want 9", len(r.GetChapters()))
	}
	if r.TotalCriteria() < 50 {
		t.Errorf("TotalCriteria = %d, expected the full SEBRAE+BRDE matrix", r.TotalCriteria())
	}

	// Chapter order must follow the artifact
	if got := r.GetChapters()[0].ChapterName; got != "SUMÁRIO EXECUTIVO" {
		t.Errorf("first chapter = %q", got)
	}
}

func TestTotalMatchesWalk(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	count := 0
	for _, ch := range r.GetChapters() {
		count += len(ch.Criteria)
	}
	if count != r.TotalCriteria() {
		t.Errorf("TotalCriteria = %d, walk = %d", r.TotalCriteria(), count)
	}
}

func TestFindCriterion(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	c, ok := r.FindCriterion("2.1.1")
	if !ok {
		t.Fatal("criterion 2.1.1 not found")
	}
	if c.Level != LevelDepth {
		t.Errorf("2.1.1 level = %d, want depth", c.Level)
	}
	if len(c.SubCriteria) != 3 {
		t.Errorf("2.1.1 sub-criteria = %d, want 3", len(c.SubCriteria))
	}
	if r.ChapterOf("2.1.1") != "ANÁLISE DE MERCADO" {
		t.Errorf("ChapterOf = %q", r.ChapterOf("2.1.1"))
	}

	if _, ok := r.FindCriterion("99.9.9"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestSeverityLevelsPresent(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	seen := map[int]bool{}
	for _, ch := range r.GetChapters() {
		for _, c := range ch.Criteria {
			seen[c.Level] = true
		}
	}
	for lvl := LevelExistence; lvl <= LevelCoherence; lvl++ {
		if !seen[lvl] {
			t.Errorf("default registry has no level-%d criterion", lvl)
		}
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.yaml")

	artifact := `version: "test/1"
chapters:
  - chapterId: "1"
    chapterName: "CAPÍTULO DE TESTE"
    criteria:
      - id: "1.0.1"
        level: 0
        label: "Critério"
        description: "Descrição"
        keywords: ["alpha"]
`
	if err := os.WriteFile(path, []byte(artifact), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Version != "test/1" || r.TotalCriteria() != 1 {
		t.Errorf("override registry = %q/%d", r.Version, r.TotalCriteria())
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if len(r.GetChapters()) != 9 {
		t.Errorf("expected embedded default, got %d chapters", len(r.GetChapters()))
	}
}

func TestValidationRejects(t *testing.T) {
	tests := []struct {
		name     string
		artifact string
	}{
		{"no version", "chapters:\n  - chapterId: \"1\"\n    chapterName: \"X\"\n    criteria:\n      - id: \"1.0.1\"\n        level: 0\n        label: \"a\"\n        description: \"b\"\n        keywords: [\"k\"]\n"},
		{"no chapters", "version: \"v\"\nchapters: []\n"},
		{"bad level", "version: \"v\"\nchapters:\n  - chapterId: \"1\"\n    chapterName: \"X\"\n    criteria:\n      - id: \"1.0.1\"\n        level: 7\n        label: \"a\"\n        description: \"b\"\n        keywords: [\"k\"]\n"},
		{"no keywords", "version: \"v\"\nchapters:\n  - chapterId: \"1\"\n    chapterName: \"X\"\n    criteria:\n      - id: \"1.0.1\"\n        level: 0\n        label: \"a\"\n        description: \"b\"\n        keywords: []\n"},
		{"duplicate id", "version: \"v\"\nchapters:\n  - chapterId: \"1\"\n    chapterName: \"X\"\n    criteria:\n      - id: \"1.0.1\"\n        level: 0\n        label: \"a\"\n        description: \"b\"\n        keywords: [\"k\"]\n      - id: \"1.0.1\"\n        level: 0\n        label: \"a\"\n        description: \"b\"\n        keywords: [\"k\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse([]byte(tt.artifact)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
