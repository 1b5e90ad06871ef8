package matrix

import (
	"fmt"

	"bpa/internal/extract"
)

// DefaultRetroFeedClarity is the clarity bump granted per approved insight
const DefaultRetroFeedClarity = 5

// insightKeywords select the strategic statement fed back into the matrix
// when a drafted section is approved
var insightKeywords = []string{"estratégia", "objetivo", "meta", "valor"}

// RetroFeed derives a delta from an approved section text: the first
// strategic fragment becomes a high-confidence item on the value proposition
// block, with a small clarity bump over the current level. It reports false
// when the text carries no strategic fragment.
func RetroFeed(approvedText, sectionLabel string, current StrategicMatrix, clarityStep int) (Delta, bool) {
	if clarityStep <= 0 {
		clarityStep = DefaultRetroFeedClarity
	}

	fragments := extract.Extract(approvedText, insightKeywords, 1)
	if len(fragments) == 0 {
		return Delta{}, false
	}

	clarity := current.ValueProposition.ClarityLevel + clarityStep
	if clarity > 100 {
		clarity = 100
	}

	delta := NewDelta()
	delta.Set(FieldValueProposition, Block{
		Items: []Item{{
			Item:        fmt.Sprintf("Insight Aprovado: %s", sectionLabel),
			Description: fragments[0],
			Severity:    SeverityLow,
			Confidence:  ConfidenceHigh,
		}},
		Source:       fmt.Sprintf("Retroalimentação - %s", sectionLabel),
		ClarityLevel: clarity,
	})
	return delta, true
}
