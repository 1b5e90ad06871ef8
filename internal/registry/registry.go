// Package registry holds the immutable rule hierarchy the audit engine walks:
// chapters, criteria, and sub-criteria with their keyword sets and levels.
//
// The registry is a versioned configuration artifact, not code. A default
// artifact (SEBRAE+BRDE) is embedded; a workspace may override it with its own
// .bpa/registry.yaml. Swapping registries changes the total criterion count,
// which is a breaking change for stored diagnosis history.
package registry

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bpa/internal/errors"
)

//go:embed registry.yaml
var defaultRegistryYAML []byte

// DefaultYAML returns the embedded default artifact, for workspaces that
// want a local copy to edit
func DefaultYAML() []byte {
	out := make([]byte, len(defaultRegistryYAML))
	copy(out, defaultRegistryYAML)
	return out
}

// Criterion levels. Levels 0 and 2 are existence-class checks (2 is the
// bank-grade variant), level 1 requires sub-criteria depth, level 3 requires
// the absence of pending markers across the corpus.
const (
	LevelExistence = 0
	LevelDepth     = 1
	LevelBank      = 2
	LevelCoherence = 3
)

// SubCriterion is a depth requirement nested under a level-1 criterion
type SubCriterion struct {
	ID       string   `yaml:"id" json:"id"`
	Label    string   `yaml:"label" json:"label"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Criterion is one testable requirement in the rule tree
type Criterion struct {
	ID          string         `yaml:"id" json:"id"`
	Level       int            `yaml:"level" json:"level"`
	Label       string         `yaml:"label" json:"label"`
	Description string         `yaml:"description" json:"description"`
	Keywords    []string       `yaml:"keywords" json:"keywords"`
	SubCriteria []SubCriterion `yaml:"subCriteria,omitempty" json:"subCriteria,omitempty"`
}

// ChapterValidation groups the criteria of one business-plan chapter
type ChapterValidation struct {
	ChapterID   string      `yaml:"chapterId" json:"chapterId"`
	ChapterName string      `yaml:"chapterName" json:"chapterName"`
	Criteria    []Criterion `yaml:"criteria" json:"criteria"`
}

// Registry is the loaded, immutable rule set
type Registry struct {
	Version  string              `yaml:"version" json:"version"`
	Chapters []ChapterValidation `yaml:"chapters" json:"chapters"`

	total   int
	byID    map[string]*Criterion
	chapter map[string]string // criterion id -> chapter name
}

// Default returns the embedded SEBRAE+BRDE registry
func Default() (*Registry, error) {
	return parse(defaultRegistryYAML)
}

// Load reads a registry artifact from path, falling back to the embedded
// default when path is empty
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.RegistryInvalid, fmt.Sprintf("cannot read registry artifact %s", path), err)
	}
	return parse(data)
}

func parse(data []byte) (*Registry, error) {
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.New(errors.RegistryInvalid, "registry artifact is not valid YAML", err)
	}

	if err := r.index(); err != nil {
		return nil, err
	}
	return &r, nil
}

// index builds lookup tables and validates the tree
func (r *Registry) index() error {
	r.byID = make(map[string]*Criterion)
	r.chapter = make(map[string]string)
	r.total = 0

	var problems []string
	if r.Version == "" {
		problems = append(problems, "registry version is empty")
	}
	if len(r.Chapters) == 0 {
		problems = append(problems, "registry has no chapters")
	}

	for ci := range r.Chapters {
		ch := &r.Chapters[ci]
		for i := range ch.Criteria {
			c := &ch.Criteria[i]
			if _, dup := r.byID[c.ID]; dup {
				problems = append(problems, fmt.Sprintf("duplicate criterion id %s", c.ID))
				continue
			}
			if c.Level < LevelExistence || c.Level > LevelCoherence {
				problems = append(problems, fmt.Sprintf("criterion %s has level %d outside [0,3]", c.ID, c.Level))
			}
			if len(c.Keywords) == 0 {
				problems = append(problems, fmt.Sprintf("criterion %s has no keywords", c.ID))
			}
			for _, sc := range c.SubCriteria {
				if len(sc.Keywords) == 0 {
					problems = append(problems, fmt.Sprintf("sub-criterion %s has no keywords", sc.ID))
				}
			}
			r.byID[c.ID] = c
			r.chapter[c.ID] = ch.ChapterName
			r.total++
		}
	}

	if len(problems) > 0 {
		return errors.New(errors.RegistryInvalid, "registry failed validation", nil).WithDetails(problems)
	}
	return nil
}

// GetChapters returns the chapter list in registry order
func (r *Registry) GetChapters() []ChapterValidation {
	return r.Chapters
}

// TotalCriteria returns T, the criterion count the readiness formula divides by
func (r *Registry) TotalCriteria() int {
	return r.total
}

// FindCriterion looks a criterion up by id
func (r *Registry) FindCriterion(id string) (*Criterion, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// ChapterOf returns the chapter name a criterion belongs to
func (r *Registry) ChapterOf(criterionID string) string {
	return r.chapter[criterionID]
}
