package ingest

import (
	"regexp"
	"strings"
)

// maxChunkChars bounds chunk length. Paragraphs longer than this are
// wrapped at word boundaries; a single word longer than the bound is
// kept whole.
const maxChunkChars = 1500

var blankLinePattern = regexp.MustCompile(`\n[ \t]*\n`)

// SplitText splits document text into chunk texts at blank lines.
// Surrounding whitespace is trimmed and empty paragraphs are dropped.
func SplitText(text string) []string {
	var chunks []string
	for _, paragraph := range blankLinePattern.Split(text, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		chunks = append(chunks, wrapParagraph(paragraph)...)
	}
	return chunks
}

// wrapParagraph breaks an overlong paragraph into word-bounded pieces.
func wrapParagraph(paragraph string) []string {
	if len(paragraph) <= maxChunkChars {
		return []string{paragraph}
	}

	var parts []string
	var b strings.Builder
	for _, word := range strings.Fields(paragraph) {
		if b.Len() > 0 && b.Len()+1+len(word) > maxChunkChars {
			parts = append(parts, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}
