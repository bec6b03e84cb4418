package prompt

import (
	"regexp"
	"strings"
)

// Citation forms the models actually produce: numbered document markers,
// parenthesized sources, and labeled citation or reference lines.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[document\s*(\d+)\]`),
	regexp.MustCompile(`(?i)\(source:\s*([^)]+)\)`),
	regexp.MustCompile(`(?i)citation:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)reference:\s*([^\n]+)`),
}

// ExtractCitations pulls citation markers out of a generated answer,
// deduplicated in first-seen order.
func ExtractCitations(response string) []string {
	var citations []string
	seen := make(map[string]bool)
	for _, pattern := range citationPatterns {
		for _, match := range pattern.FindAllStringSubmatch(response, -1) {
			citation := strings.TrimSpace(match[1])
			if citation == "" || seen[citation] {
				continue
			}
			seen[citation] = true
			citations = append(citations, citation)
		}
	}
	return citations
}
