package core

import "strings"

// Stop words to filter out when tokenizing queries and chunk text
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "why": true,
	"where": true, "who": true, "when": true, "which": true, "can": true,
	"could": true, "would": true, "should": true, "me": true, "my": true,
	"we": true, "us": true, "our": true, "about": true, "between": true,
}

// IsStopWord reports whether the word carries no search signal on its own.
func IsStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}

// Tokenize splits text into words, lowercases, trims punctuation, and removes
// stop words and single-character tokens.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words, empty strings, and bare single characters
		if len(cleaned) < 2 || stopWords[cleaned] {
			continue
		}
		filtered = append(filtered, cleaned)
	}

	return filtered
}

// ContainsAllWords checks if all query words (after filtering) appear in the document text.
func ContainsAllWords(document, query string) bool {
	queryWords := Tokenize(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := Tokenize(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !docWordSet[qWord] {
			return false
		}
	}

	return true
}
