package retrieval

import (
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/docent/core"
)

const (
	// defaultSnippetLength is the target character width of a keyword snippet.
	defaultSnippetLength = 200

	// maxSnippetsPerChunk bounds how many snippets a single hit carries.
	maxSnippetsPerChunk = 3
)

// ScoringPolicy scores how well a chunk's text matches query keywords.
// Scores must fall in [0,1].
type ScoringPolicy interface {
	Score(text string, keywords []string) float64
}

// TFLengthBoostPolicy scores by term frequency with a boost that favors
// longer, more specific keywords. It is the engine's default policy.
type TFLengthBoostPolicy struct{}

var _ ScoringPolicy = TFLengthBoostPolicy{}

func (TFLengthBoostPolicy) Score(text string, keywords []string) float64 {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		return 0
	}
	lower := strings.ToLower(text)

	total := 0.0
	for _, keyword := range keywords {
		count := strings.Count(lower, strings.ToLower(keyword))
		if count == 0 {
			continue
		}
		frequency := float64(count) / float64(wordCount)
		total += frequency * (1 + float64(len(keyword))/10)
	}
	return core.Clamp01(total)
}

// FindSnippets locates up to maxSnippetsPerChunk excerpts of text around
// keyword matches. Windows whose starts fall within half a snippet length of
// an existing window merge into it, unioning their matched keywords. Snippets
// with more distinct keyword hits sort first.
func FindSnippets(text string, keywords []string, snippetLength int) []core.Snippet {
	if text == "" || len(keywords) == 0 {
		return nil
	}
	if snippetLength <= 0 {
		snippetLength = defaultSnippetLength
	}
	window := snippetLength / 2
	lower := strings.ToLower(text)

	var snippets []core.Snippet
	for _, keyword := range keywords {
		needle := strings.ToLower(keyword)
		if needle == "" {
			continue
		}
		for from := 0; ; {
			pos := strings.Index(lower[from:], needle)
			if pos < 0 {
				break
			}
			pos += from
			from = pos + 1

			start := max(0, pos-window)
			end := min(len(text), pos+len(needle)+window)

			merged := false
			for i := range snippets {
				if absInt(snippets[i].Start-start) < window {
					if !slices.Contains(snippets[i].Keywords, keyword) {
						snippets[i].Keywords = append(snippets[i].Keywords, keyword)
					}
					merged = true
					break
				}
			}
			if !merged {
				snippets = append(snippets, core.Snippet{
					Text:     text[start:end],
					Start:    start,
					End:      end,
					Keywords: []string{keyword},
				})
			}
		}
	}

	slices.SortStableFunc(snippets, func(a, b core.Snippet) int {
		return len(b.Keywords) - len(a.Keywords)
	})
	if len(snippets) > maxSnippetsPerChunk {
		snippets = snippets[:maxSnippetsPerChunk]
	}
	return snippets
}

// HighlightText wraps every keyword occurrence in a <mark> tag. Longer
// keywords are applied first so a shorter keyword cannot split a match
// already wrapped by a longer one.
func HighlightText(text string, keywords []string) string {
	if text == "" || len(keywords) == 0 {
		return text
	}
	ordered := slices.Clone(keywords)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return len(b) - len(a)
	})

	highlighted := text
	for _, keyword := range ordered {
		if keyword == "" {
			continue
		}
		pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(keyword))
		if err != nil {
			continue
		}
		highlighted = pattern.ReplaceAllString(highlighted, "<mark>$0</mark>")
	}
	return highlighted
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
