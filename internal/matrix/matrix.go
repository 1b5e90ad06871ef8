// Package matrix implements the strategic matrix: the nine Business-Model-
// Canvas blocks plus the four SWOT blocks that aggregate evidence extracted
// from the corpus, with append-only merge semantics and monotonic clarity.
package matrix

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Severity classifies how serious a matrix item is. Closed enumeration;
// unknown inputs are coerced at the boundary via ParseSeverity.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
	SeverityCosmetic Severity = "cosmetic"
)

// Confidence classifies how reliable an extracted item is
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// severityAliases maps legacy Portuguese spellings onto the closed enum
var severityAliases = map[string]Severity{
	"critical": SeverityCritical, "crítico": SeverityCritical,
	"high": SeverityHigh, "alto": SeverityHigh,
	"moderate": SeverityModerate, "moderado": SeverityModerate,
	"low": SeverityLow, "baixo": SeverityLow,
	"cosmetic": SeverityCosmetic, "cosmético": SeverityCosmetic,
}

var confidenceAliases = map[string]Confidence{
	"high": ConfidenceHigh, "alta": ConfidenceHigh,
	"medium": ConfidenceMedium, "média": ConfidenceMedium,
	"low": ConfidenceLow, "baixa": ConfidenceLow,
}

// ParseSeverity coerces an arbitrary input into the closed severity enum.
// Unknown values coerce to moderate and report false.
func ParseSeverity(s string) (Severity, bool) {
	if sev, ok := severityAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return sev, true
	}
	return SeverityModerate, false
}

// ParseConfidence coerces an arbitrary input into the closed confidence enum.
// Unknown values coerce to low and report false.
func ParseConfidence(s string) (Confidence, bool) {
	if c, ok := confidenceAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, true
	}
	return ConfidenceLow, false
}

// Item is one atomic fact extracted from evidence
type Item struct {
	Item        string     `json:"item"`
	Description string     `json:"description"`
	Severity    Severity   `json:"severity"`
	Confidence  Confidence `json:"confidence"`
}

// Block is one Canvas or SWOT slot: its extracted items, the description and
// source of the latest contributor, and a 0-100 clarity percentage.
// ClarityLevel never decreases across merges.
type Block struct {
	Items        []Item `json:"items"`
	Description  string `json:"description"`
	Source       string `json:"source"`
	ClarityLevel int    `json:"clarityLevel"`
}

// Swot groups the four polarity blocks
type Swot struct {
	Strengths     Block `json:"strengths"`
	Weaknesses    Block `json:"weaknesses"`
	Opportunities Block `json:"opportunities"`
	Threats       Block `json:"threats"`
}

// StrategicMatrix is the full Canvas+SWOT aggregate. GeneratedAt is unix
// milliseconds, zero until the first diagnosis step runs.
type StrategicMatrix struct {
	CustomerSegments      Block `json:"customerSegments"`
	ValueProposition      Block `json:"valueProposition"`
	Channels              Block `json:"channels"`
	CustomerRelationships Block `json:"customerRelationships"`
	RevenueStreams        Block `json:"revenueStreams"`
	KeyResources          Block `json:"keyResources"`
	KeyActivities         Block `json:"keyActivities"`
	KeyPartnerships       Block `json:"keyPartnerships"`
	CostStructure         Block `json:"costStructure"`
	Swot                  Swot  `json:"swot"`
	GeneratedAt           int64 `json:"generatedAt"`
}

// Canvas field names, as they appear in snapshots and step targets
const (
	FieldCustomerSegments      = "customerSegments"
	FieldValueProposition      = "valueProposition"
	FieldChannels              = "channels"
	FieldCustomerRelationships = "customerRelationships"
	FieldRevenueStreams        = "revenueStreams"
	FieldKeyResources          = "keyResources"
	FieldKeyActivities         = "keyActivities"
	FieldKeyPartnerships       = "keyPartnerships"
	FieldCostStructure         = "costStructure"
)

// SWOT field names use a dotted path under the swot slot
const (
	FieldSwotStrengths     = "swot.strengths"
	FieldSwotWeaknesses    = "swot.weaknesses"
	FieldSwotOpportunities = "swot.opportunities"
	FieldSwotThreats       = "swot.threats"
)

// CanvasFields returns the nine canvas field names in canonical order
func CanvasFields() []string {
	return []string{
		FieldCustomerSegments,
		FieldValueProposition,
		FieldChannels,
		FieldCustomerRelationships,
		FieldRevenueStreams,
		FieldKeyResources,
		FieldKeyActivities,
		FieldKeyPartnerships,
		FieldCostStructure,
	}
}

// SwotFields returns the four SWOT field paths in canonical order
func SwotFields() []string {
	return []string{
		FieldSwotStrengths,
		FieldSwotWeaknesses,
		FieldSwotOpportunities,
		FieldSwotThreats,
	}
}

// AllFields returns every addressable block field in canonical order
func AllFields() []string {
	return append(CanvasFields(), SwotFields()...)
}

// IsSwotField reports whether a field path addresses a SWOT polarity
func IsSwotField(field string) bool {
	return strings.HasPrefix(field, "swot.")
}

// New returns an empty, structurally valid matrix (GeneratedAt zero)
func New() StrategicMatrix {
	return StrategicMatrix{}
}

// Clone deep-copies the matrix so folds never alias item slices
func (m StrategicMatrix) Clone() StrategicMatrix {
	out := m
	for _, field := range AllFields() {
		ref, _ := out.blockRef(field)
		items := make([]Item, len(ref.Items))
		copy(items, ref.Items)
		ref.Items = items
	}
	return out
}

// blockRef resolves a field path to the addressed block. Unknown fields
// report false; callers skip them without error.
func (m *StrategicMatrix) blockRef(field string) (*Block, bool) {
	switch field {
	case FieldCustomerSegments:
		return &m.CustomerSegments, true
	case FieldValueProposition:
		return &m.ValueProposition, true
	case FieldChannels:
		return &m.Channels, true
	case FieldCustomerRelationships:
		return &m.CustomerRelationships, true
	case FieldRevenueStreams:
		return &m.RevenueStreams, true
	case FieldKeyResources:
		return &m.KeyResources, true
	case FieldKeyActivities:
		return &m.KeyActivities, true
	case FieldKeyPartnerships:
		return &m.KeyPartnerships, true
	case FieldCostStructure:
		return &m.CostStructure, true
	case FieldSwotStrengths:
		return &m.Swot.Strengths, true
	case FieldSwotWeaknesses:
		return &m.Swot.Weaknesses, true
	case FieldSwotOpportunities:
		return &m.Swot.Opportunities, true
	case FieldSwotThreats:
		return &m.Swot.Threats, true
	default:
		return nil, false
	}
}

// Block returns a copy of the block at a field path
func (m StrategicMatrix) Block(field string) (Block, bool) {
	ref, ok := m.blockRef(field)
	if !ok {
		return Block{}, false
	}
	return *ref, true
}

// Appendix renders every item description as one line per item, in canonical
// field order. The audit engine appends this to the corpus so evidence that
// only survives as matrix items still satisfies existence checks.
func (m StrategicMatrix) Appendix() string {
	var sb strings.Builder
	for _, field := range AllFields() {
		block, _ := m.Block(field)
		for _, item := range block.Items {
			if item.Description != "" {
				sb.WriteString(item.Description)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// ValidateSnapshot checks a serialized matrix for structural validity: the
// nine canvas slots plus swot present, and all four polarities under swot.
// It returns the missing slot names; decode failures return an error.
func ValidateSnapshot(data []byte) ([]string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("snapshot is not a JSON object: %w", err)
	}

	var missing []string
	for _, field := range CanvasFields() {
		if _, ok := top[field]; !ok {
			missing = append(missing, field)
		}
	}

	raw, ok := top["swot"]
	if !ok {
		missing = append(missing, "swot")
	} else {
		var swot map[string]json.RawMessage
		if err := json.Unmarshal(raw, &swot); err != nil {
			return nil, fmt.Errorf("swot slot is not a JSON object: %w", err)
		}
		for _, field := range SwotFields() {
			polarity := strings.TrimPrefix(field, "swot.")
			if _, ok := swot[polarity]; !ok {
				missing = append(missing, field)
			}
		}
	}

	sort.Strings(missing)
	return missing, nil
}
