// Package extract implements the lexical evidence extractor: given an opaque
// corpus and a keyword set, it returns the matching text fragments. It is a
// pure function layer; fragments are always substrings of the input, never
// synthesized.
package extract

import (
	"regexp"
	"strings"
)

// Fragment length bounds used when the caller passes no explicit bounds.
// Shorter lines are headers/noise, longer ones are runaway blocks.
const (
	DefaultMinLen = 20
	DefaultMaxLen = 2000
)

// DefaultMaxCount is the usual fragment cap per extraction pass
const DefaultMaxCount = 5

// markerLine matches ingestion markers ("--- Página 3 ---", "--- ARQUIVO: x ---")
// that the corpus assembler inserts between documents.
var markerLine = regexp.MustCompile(`^---\s*(Página|ARQUIVO).*?---$`)

// listPrefix strips leading bullet/enumeration markers from a fragment.
var listPrefix = regexp.MustCompile(`^(-|\d+\.)\s*`)

// Options bounds an extraction pass
type Options struct {
	MinLen   int
	MaxLen   int
	MaxCount int
}

func (o Options) withDefaults() Options {
	if o.MinLen <= 0 {
		o.MinLen = DefaultMinLen
	}
	if o.MaxLen <= 0 {
		o.MaxLen = DefaultMaxLen
	}
	return o
}

// Extract returns up to maxCount corpus fragments matching any keyword,
// de-duplicated by exact text, in first-seen order. Empty inputs yield nil.
func Extract(corpus string, keywords []string, maxCount int) []string {
	return ExtractWith(corpus, keywords, Options{MaxCount: maxCount})
}

// ExtractWith is Extract with explicit length bounds
func ExtractWith(corpus string, keywords []string, opts Options) []string {
	if corpus == "" || len(keywords) == 0 || opts.MaxCount <= 0 {
		return nil
	}
	opts = opts.withDefaults()

	patterns := compileKeywords(keywords)
	if len(patterns) == 0 {
		return nil
	}

	var fragments []string
	seen := make(map[string]struct{})

	for _, line := range splitLines(corpus) {
		if len(fragments) >= opts.MaxCount {
			break
		}

		// The marker check must see the raw line: the list-prefix strip
		// would eat a marker's leading dash and let it through.
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || markerLine.MatchString(trimmed) {
			continue
		}

		fragment := cleanFragment(trimmed)
		if fragment == "" {
			continue
		}
		if len(fragment) < opts.MinLen || len(fragment) > opts.MaxLen {
			continue
		}
		if _, dup := seen[fragment]; dup {
			continue
		}

		for _, p := range patterns {
			if p.MatchString(fragment) {
				fragments = append(fragments, fragment)
				seen[fragment] = struct{}{}
				break
			}
		}
	}

	return fragments
}

// MatchesAny reports whether any keyword matches the corpus under the same
// whole-word, whitespace-flexible rule the extractor uses. Existence only;
// fragment counts and bounds do not apply.
func MatchesAny(corpus string, keywords []string) bool {
	if corpus == "" {
		return false
	}
	for _, p := range compileKeywords(keywords) {
		if p.MatchString(corpus) {
			return true
		}
	}
	return false
}

// splitLines splits on runs of newlines so bullet lists and paragraphs both
// become candidate fragments.
func splitLines(corpus string) []string {
	return strings.FieldsFunc(corpus, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
}

func cleanFragment(line string) string {
	fragment := strings.TrimSpace(line)
	fragment = listPrefix.ReplaceAllString(fragment, "")
	return strings.TrimSpace(fragment)
}

// compileKeywords builds one case-insensitive whole-word pattern per keyword.
// Internal spaces collapse to \s* so multi-word keywords tolerate irregular
// spacing in the corpus.
func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		parts := strings.Fields(kw)
		if len(parts) == 0 {
			continue
		}
		for i, part := range parts {
			parts[i] = regexp.QuoteMeta(part)
		}
		expr := `(?i)\b` + strings.Join(parts, `\s*`) + `\b`

		p, err := regexp.Compile(expr)
		if err != nil {
			// QuoteMeta makes this unreachable for well-formed keywords
			continue
		}
		patterns = append(patterns, p)
	}
	return patterns
}
