package main

// seedDocument is one entry of the built-in sample corpus.
type seedDocument struct {
	filename string
	title    string
	category string
	tags     []string
	content  string
}

// seedCorpus is a small documentation set for trying the assistant without
// ingesting your own files. Paragraphs are separated by blank lines so the
// chunker splits them naturally.
var seedCorpus = []seedDocument{
	{
		filename: "getting-started.md",
		title:    "Getting Started",
		category: "guides",
		tags:     []string{"intro", "setup"},
		content: `Docent answers questions about your own documents. You point it at a directory, ingest text files, and then either search the indexed chunks directly or ask questions in plain language. Answers are grounded in the retrieved passages and cite the documents they came from.

Start by seeding the sample corpus or ingesting a file of your own. Ingestion splits the file into paragraph chunks, computes an embedding for each chunk, and adds the document to a keyword index. A document becomes searchable once all of its chunks are embedded.

Once something is indexed, run a search to see the raw retrieval results, or ask a question to get a generated answer. The ask command keeps a conversation going when you pass the same conversation id, so follow-up questions can lean on earlier turns.`,
	},
	{
		filename: "semantic-search.md",
		title:    "Semantic Search",
		category: "concepts",
		tags:     []string{"embeddings", "vectors"},
		content: `Semantic search compares meaning rather than words. Every chunk is embedded into a vector, and a query is embedded the same way. Cosine similarity between the query vector and each chunk vector ranks the chunks, so a question about restarting a service can match a paragraph that never uses the word restart.

Similarity scores run from zero to one. The threshold flag discards weak matches; raising it trades recall for precision. A threshold around 0.7 suits focused technical corpora, while broader collections often work better near 0.6.

Embeddings come from the configured embedding model and are stored alongside the chunk text. Changing the embedding model invalidates stored vectors, so re-ingest documents after switching models.`,
	},
	{
		filename: "keyword-search.md",
		title:    "Keyword Search",
		category: "concepts",
		tags:     []string{"keywords", "index"},
		content: `Keyword search matches exact terms. During ingestion the most frequent informative words of a document are extracted, lowercased, and written to an inverted index together with the document category. Stop words and very short tokens are dropped.

A keyword query tokenizes the question the same way and finds documents sharing any term. This catches identifiers, product names, and rare words that embeddings tend to blur, which is exactly where semantic search is weakest.

Keyword hits carry an index score rather than a cosine similarity. During fusion they are normalized so both kinds of evidence can be weighed on one scale.`,
	},
	{
		filename: "hybrid-retrieval.md",
		title:    "Hybrid Retrieval",
		category: "concepts",
		tags:     []string{"fusion", "ranking"},
		content: `Hybrid retrieval runs the semantic and keyword passes together and fuses their scores. Each chunk's final score is a weighted sum: semantic weight times cosine similarity plus keyword weight times the normalized keyword score. The two weights must sum to one.

A chunk found by both passes is deduplicated and keeps the stronger evidence, which pushes documents that match on both meaning and vocabulary to the top. Chunks below the similarity threshold are dropped after fusion.

The default weighting favors the semantic pass at 0.7 against 0.3 for keywords. Shift weight toward keywords when queries contain exact identifiers, and toward semantics for conversational questions.`,
	},
	{
		filename: "chunking.md",
		title:    "Chunking",
		category: "concepts",
		tags:     []string{"ingestion", "text"},
		content: `Documents are split on blank lines, so a paragraph is the unit of retrieval. Paragraphs keep enough context to answer a question on their own while staying small enough to embed precisely.

Very long paragraphs are wrapped at a character limit on word boundaries rather than embedded whole. Oversized chunks dilute their embedding and waste context budget during generation, so the wrapper produces several dense chunks instead of one vague one.

Chunk order is preserved through a sequence number. Ordering matters when several chunks of the same document appear in a context window, because the prompt builder can then present them in reading order.`,
	},
	{
		filename: "conversations.md",
		title:    "Conversations",
		category: "guides",
		tags:     []string{"chat", "history"},
		content: `Every answer belongs to a conversation. If you do not pass a conversation id a new one is created and printed with the answer, and passing it back continues the session. Recent turns are replayed into the prompt so the model can resolve references like "that file" or "the second option".

History is bounded. Only the most recent messages are included, and the context builder trims history first when the token budget runs short, because retrieved passages are usually more valuable than old turns.

Idle conversations are swept after a day by a background janitor, and the oldest sessions are evicted when the session cap is reached. Conversation state lives in memory, so a restart starts clean.`,
	},
	{
		filename: "configuration.md",
		title:    "Configuration",
		category: "operations",
		tags:     []string{"models", "hosts"},
		content: `Docent talks to an OpenAI-compatible endpoint for both embeddings and chat completion. By default it expects a local Ollama server on port 11434 with the embeddinggemma embedding model and the qwen2.5 chat model pulled.

Embedding and generation can point at different hosts. A common split runs a small local embedding model for cheap indexing while sending generation to a larger hosted model. Hosts are given as base URLs and the version suffix is appended automatically when missing.

When several providers are configured, requests go to the first healthy one and fail over in registration order. A provider that errors is re-probed before being trusted again.`,
	},
	{
		filename: "troubleshooting.md",
		title:    "Troubleshooting",
		category: "operations",
		tags:     []string{"errors", "recovery"},
		content: `If ingestion reports failed chunks, the embedding host is usually unreachable or the model is not pulled. The document stays registered but unindexed; fix the host and ingest the file again. Unindexed documents never appear in search results.

Empty search results typically mean the threshold is too high for the corpus or nothing relevant is indexed yet. Re-run with a lower threshold or in keyword mode to check whether the terms exist at all, and use the explain flag to see how many hits each pass produced.

If answers come back without sources, retrieval found nothing above the threshold and the model answered from general knowledge. The answer will say so rather than invent citations.`,
	},
}
