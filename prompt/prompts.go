package prompt

import "github.com/poiesic/docent/core"

// System prompt variants. The analyzer's intent picks one; anything that
// is not an analysis or summary task gets the default document assistant.
const (
	defaultSystemPrompt = `You are a document assistant. You help users understand and work with the content of their document collection.

Core abilities:
1. Answer questions from the provided document content
2. Give accurate and useful information
3. Name the document sources you draw on
4. Acknowledge the limits of what the documents cover

Answering principles:
- Prefer the retrieved document content over general knowledge
- Stay objective and accurate
- Include concrete citations
- Say so clearly when the documents hold no relevant information`

	analysisSystemPrompt = `You are a document analyst. You specialize in deep analysis and synthesis of document content.

Focus on:
1. Extracting the key information and main points
2. Analyzing document structure and reasoning
3. Identifying important concepts and how they relate
4. Offering substantive insight

Ground every part of the analysis in the provided document content.`

	summarySystemPrompt = `You are a summarization expert. You distill documents down to their core quickly and precisely.

Summary requirements:
1. Lead with the main points and conclusions
2. Preserve the essential information
3. Use clear and concise language
4. Order information by importance

Produce a high quality summary of the provided document content.`
)

// answerDirective closes every prompt and restates the grounding rules
// right before the model starts writing.
const answerDirective = `Answer the user's question using the information above. Requirements:
1. Prefer the provided document content
2. State clearly when the documents do not cover the question
3. Cite the specific sources used
4. Keep the answer accurate and useful`

// Section labels of the assembled prompt.
const (
	systemLabel   = "System instructions:"
	documentLabel = "Relevant documents:"
	historyLabel  = "Conversation history:"
	questionLabel = "User question:"
)

// noDocumentsLine stands in for the document section when retrieval
// found nothing, so the model knows the silence is real.
const noDocumentsLine = "No relevant document content was found."

// SystemPrompt returns the system prompt variant for a query intent.
// Comparison queries share the analysis prompt.
func SystemPrompt(intent core.Intent) string {
	switch intent {
	case core.IntentAnalysis, core.IntentComparison:
		return analysisSystemPrompt
	case core.IntentSummary:
		return summarySystemPrompt
	default:
		return defaultSystemPrompt
	}
}
