package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// IdentityPrefixLen is the number of leading characters of chunk text that
// participate in identity and deduplication.
const IdentityPrefixLen = 100

// ChunkIdentity derives the identity of a chunk from its document and the
// leading portion of its text. Two chunks with the same document and the same
// text prefix are the same chunk for deduplication purposes.
func ChunkIdentity(documentId ID, text string) ID {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(documentId))
	return IDFromContent(string(buf[:]) + TextPrefix(text, IdentityPrefixLen))
}

// TextPrefix returns the first n characters of text, trimmed of surrounding
// whitespace. Counts characters, not bytes, so multi-byte text truncates
// cleanly.
func TextPrefix(text string, n int) string {
	runes := []rune(text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return strings.TrimSpace(string(runes))
}

// Role identifies the author of a chat message.
type Role int

const (
	// RoleUser represents the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant represents the generated answers.
	RoleAssistant
	// RoleSystem represents injected system instructions.
	RoleSystem
)

// String returns the wire form of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	case RoleSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ChatMessage is a single turn in a conversation session.
type ChatMessage struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]string
}

// Document is a catalog entry for one ingested document. The extracted text
// itself lives in the document's chunks.
type Document struct {
	Id         ID
	Filename   string
	Title      string
	Author     string
	Type       string // source format: txt, md, pdf...
	Category   string
	Tags       []string
	CreatedAt  time.Time
	InsertedAt time.Time
	Indexed    bool // true once every chunk carries an embedding
	ChunkCount int
}

// Chunk is a bounded span of a document's extracted text, indexed
// individually for retrieval.
type Chunk struct {
	Id         ID
	DocumentId ID
	Seq        int
	Text       string
	Vector     []float32 // embedding, populated by the ingest pipeline
	Metadata   map[string]string
	CreatedAt  time.Time
}

// SearchType describes which retrieval pass produced a chunk.
type SearchType string

const (
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeKeyword  SearchType = "keyword"
	SearchTypeHybrid   SearchType = "hybrid"
)

// Intent classifies what the user is trying to do with a query.
type Intent string

const (
	IntentQuestion       Intent = "question"
	IntentSearch         Intent = "search"
	IntentSummary        Intent = "summary"
	IntentComparison     Intent = "comparison"
	IntentAnalysis       Intent = "analysis"
	IntentRecommendation Intent = "recommendation"
)

// QueryAnalysis is the result of analyzing a query before retrieval.
// Produced fresh per query and never persisted.
type QueryAnalysis struct {
	OriginalQuery           string
	Intent                  Intent
	Keywords                []string
	Entities                []string
	QueryType               string
	ComplexityScore         float64 // in [0,1]
	RequiresContext         bool
	SuggestedRetrievalCount int // in [1,10]
	SuggestedCategories     []string
}

// Snippet is a short excerpt of chunk text around keyword matches.
type Snippet struct {
	Text     string
	Start    int
	End      int
	Keywords []string // which query keywords matched inside the window
}

// RetrievedChunk is one search hit. SemanticScore and KeywordScore are only
// populated when both passes contributed (SearchType hybrid).
type RetrievedChunk struct {
	Id            ID
	DocumentId    ID
	Text          string
	Score         float64 // fused relevance in [0,1]
	SearchType    SearchType
	SemanticScore float64
	KeywordScore  float64
	Snippets      []Snippet
	Metadata      map[string]string
}

// Identity returns the deduplication identity of the hit.
func (c *RetrievedChunk) Identity() ID {
	return ChunkIdentity(c.DocumentId, c.Text)
}

// RetrievalContext is the ordered outcome of one search, ready to be folded
// into a context window.
type RetrievalContext struct {
	Query         string
	Chunks        []*RetrievedChunk // descending by Score
	TotalFound    int
	Elapsed       time.Duration
	ContextLength int      // sum of chunk text lengths
	Sources       []string // distinct source filenames, first-seen order
}

// DocumentSource is a provenance entry: the best chunk of one document that
// contributed to an answer.
type DocumentSource struct {
	DocumentId     ID
	Filename       string
	ChunkId        ID
	RelevanceScore float64
	ContentPreview string
}

// ContextWindow is the bounded text handed to the generation step.
// Built fresh per turn and never persisted.
type ContextWindow struct {
	SystemPrompt    string
	History         []ChatMessage
	RetrievedText   string
	EstimatedTokens int
	Sources         []string
}

// VectorMatch is a chunk match from vector similarity search.
type VectorMatch struct {
	ChunkId    ID
	DocumentId ID
	Text       string
	Distance   float64 // similarity is 1 - Distance
	Metadata   map[string]string
}
