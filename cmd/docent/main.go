// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/docent"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/ingest"
	"github.com/poiesic/docent/prompt"
	"github.com/poiesic/docent/rag"
	"github.com/poiesic/docent/retrieval"
	"github.com/poiesic/docent/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docent",
		Usage: "Retrieval-augmented assistant over your documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Load the built-in sample corpus",
				Action: seedCommand,
				Flags:  append(storageFlags(), aiFlags()...),
			},
			{
				Name:   "ingest",
				Usage:  "Register a text file and embed its chunks",
				Action: ingestCommand,
				Flags: append(append(storageFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the file to ingest",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Document category for keyword search",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Document tag (repeatable)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per request",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 10,
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search over the indexed documents",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(append(storageFlags(), aiFlags()...),
					&cli.IntFlag{
						Name:    "results",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score, 0 to 1",
						Value: 0.7,
					},
					&cli.Float64Flag{
						Name:  "semantic-weight",
						Usage: "Weight of the semantic pass in hybrid mode",
						Value: 0.7,
					},
					&cli.Float64Flag{
						Name:  "keyword-weight",
						Usage: "Weight of the keyword pass in hybrid mode",
						Value: 0.3,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Search mode (hybrid, semantic, keyword)",
						Value: "hybrid",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print each pipeline stage to stderr",
					},
					&cli.BoolFlag{
						Name:  "highlight",
						Usage: "Mark keyword matches in the result text",
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question answered from the indexed documents",
				ArgsUsage: "MESSAGE",
				Action:    askCommand,
				Flags: append(append(storageFlags(), aiFlags()...),
					&cli.StringFlag{
						Name:    "conversation",
						Aliases: []string{"c"},
						Usage:   "Conversation id to continue",
					},
					&cli.BoolFlag{
						Name:  "stream",
						Usage: "Print the answer as it is generated",
					},
					&cli.IntFlag{
						Name:    "chunks",
						Aliases: []string{"n"},
						Usage:   "Maximum retrieved chunks",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score, 0 to 1",
						Value: 0.6,
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Context ordering (simple, ranked, hierarchical, summarized)",
						Value: "ranked",
					},
					&cli.Float64Flag{
						Name:  "temperature",
						Usage: "Generation temperature",
						Value: 0.7,
					},
					&cli.IntFlag{
						Name:  "max-tokens",
						Usage: "Maximum tokens to generate",
						Value: 1000,
					},
					&cli.BoolFlag{
						Name:  "no-retrieval",
						Usage: "Answer without document context",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Answer without conversation history",
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Show catalog, index, search and conversation statistics",
				Action: statsCommand,
				Flags:  append(storageFlags(), aiFlags()...),
			},
		},
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the data directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "generation-host",
			Usage: "Chat completion service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "chat-model",
			Usage: "Chat completion model name",
			Value: "qwen2.5:3b",
		},
	}
}

// openEngine builds a docent instance from the command's storage and AI
// flags. The caller owns the returned engine and must close it.
func openEngine(c *cli.Context) (*docent.Engine, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithChatHost(c.String("generation-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	eng, err := docent.NewEngine(dbPath, docent.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
	}
	return eng, nil
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	// Split every document up front so progress reports a real total
	texts := make([][]string, len(seedCorpus))
	total := 0
	for i, seed := range seedCorpus {
		texts[i] = ingest.SplitText(seed.content)
		total += len(texts[i])
	}

	progress := ingest.NewProgress(os.Stderr, total, 5)
	pipeline, err := eng.NewIngestPipeline(ingest.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("failed to create ingest pipeline: %w", err)
	}
	progress.Start()

	for i, seed := range seedCorpus {
		doc := &core.Document{
			Filename: seed.filename,
			Title:    seed.title,
			Type:     "md",
			Category: seed.category,
			Tags:     seed.tags,
		}
		if _, err := pipeline.RegisterDocument(ctx, doc, texts[i]); err != nil {
			pipeline.Close()
			return fmt.Errorf("failed to register %s: %w", seed.filename, err)
		}
	}

	pipeline.Close()
	progress.Finish()

	processed, failed := progress.Counts()
	fmt.Fprintf(os.Stderr, "Seeded %d documents: %d chunks embedded, %d failed\n",
		len(seedCorpus), processed, failed)
	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	path := c.String("file")
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	chunks := ingest.SplitText(string(content))
	if len(chunks) == 0 {
		return fmt.Errorf("%s contains no text", path)
	}

	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	title := c.String("title")
	if title == "" {
		title = filepath.Base(path)
	}
	doc := &core.Document{
		Filename: filepath.Base(path),
		Title:    title,
		Type:     strings.TrimPrefix(filepath.Ext(path), "."),
		Category: c.String("category"),
		Tags:     c.StringSlice("tag"),
	}

	progress := ingest.NewProgress(os.Stderr, len(chunks), c.Int("report-interval"))
	pipeline, err := eng.NewIngestPipeline(
		ingest.WithProgress(progress),
		ingest.WithBatchSize(c.Int("batch-size")),
	)
	if err != nil {
		return fmt.Errorf("failed to create ingest pipeline: %w", err)
	}
	progress.Start()

	added, err := pipeline.RegisterDocument(ctx, doc, chunks)
	if err != nil {
		pipeline.Close()
		return fmt.Errorf("failed to register document: %w", err)
	}
	pipeline.Close()
	progress.Finish()

	if _, failed := progress.Counts(); failed > 0 {
		return fmt.Errorf("%d of %d chunks failed to embed", failed, len(chunks))
	}
	fmt.Fprintf(os.Stderr, "Registered %s: document %d, %d chunks\n", path, added.Id, len(chunks))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	retriever, err := eng.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}

	req := retrieval.NewSearchRequest(query)
	req.MaxResults = c.Int("results")
	req.SimilarityThreshold = c.Float64("threshold")
	req.SemanticWeight = c.Float64("semantic-weight")
	req.KeywordWeight = c.Float64("keyword-weight")
	req.Highlight = c.Bool("highlight")

	switch mode := c.String("mode"); mode {
	case "hybrid":
	case "semantic":
		req.EnableKeyword = false
	case "keyword":
		req.EnableSemantic = false
	default:
		return fmt.Errorf("invalid mode %q: must be one of hybrid, semantic, keyword", mode)
	}

	var monitor retrieval.SearchMonitor
	if c.Bool("explain") {
		monitor = &explainMonitor{out: os.Stderr}
	}

	result, err := retriever.SearchWithMonitor(ctx, req, monitor)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits in %s\n", len(result.Chunks), result.Elapsed.Round(time.Millisecond))
	for i, hit := range result.Chunks {
		source := hit.Metadata["filename"]
		if source == "" {
			source = fmt.Sprintf("document %d", hit.DocumentId)
		}
		fmt.Printf("%d: [%.3f] %s (%s)\n", i+1, hit.Score, source, hit.SearchType)
		fmt.Printf("   %s\n", core.TextPrefix(hit.Text, 120))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	ctx := context.Background()

	message := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if message == "" {
		return fmt.Errorf("message is required")
	}

	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	service, err := eng.NewChatService()
	if err != nil {
		return fmt.Errorf("failed to create chat service: %w", err)
	}

	req := rag.NewChatRequest(message)
	req.ConversationId = c.String("conversation")
	req.MaxRetrievedChunks = c.Int("chunks")
	req.SimilarityThreshold = c.Float64("threshold")
	req.Temperature = c.Float64("temperature")
	req.MaxTokens = c.Int("max-tokens")
	if c.Bool("no-retrieval") {
		req.EnableRetrieval = false
	}
	if c.Bool("no-history") {
		req.IncludeChatHistory = false
	}

	switch strategy := c.String("strategy"); strategy {
	case "simple":
		req.ContextStrategy = prompt.StrategySimple
	case "ranked":
		req.ContextStrategy = prompt.StrategyRanked
	case "hierarchical":
		req.ContextStrategy = prompt.StrategyHierarchical
	case "summarized":
		req.ContextStrategy = prompt.StrategySummarized
	default:
		return fmt.Errorf("invalid strategy %q: must be one of simple, ranked, hierarchical, summarized", strategy)
	}

	if c.Bool("stream") {
		return askStreaming(ctx, service, req)
	}

	resp, err := service.Chat(ctx, req)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("chat failed: %s", resp.ErrorMessage)
	}

	fmt.Println(resp.Message)
	printSources(resp.Sources)
	fmt.Fprintf(os.Stderr, "\n[%s, %d tokens, %s, conversation %s]\n",
		resp.ModelUsed, resp.TokensUsed, resp.ResponseTime.Round(time.Millisecond), resp.ConversationId)
	return nil
}

func askStreaming(ctx context.Context, service *rag.Service, req *rag.ChatRequest) error {
	stream, err := service.ChatStream(ctx, req)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	var final rag.StreamChunk
	for chunk := range stream {
		if chunk.Final {
			final = chunk
			continue
		}
		fmt.Print(chunk.Content)
	}
	fmt.Println()

	if final.ErrorMessage != "" {
		return fmt.Errorf("chat failed: %s", final.ErrorMessage)
	}
	printSources(final.Sources)
	return nil
}

func printSources(sources []core.DocumentSource) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, source := range sources {
		fmt.Printf("  %s [%.3f]\n", source.Filename, source.RelevanceScore)
	}
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	eng, err := openEngine(c)
	if err != nil {
		return err
	}
	defer eng.Close()

	docs, err := eng.Documents().ListDocuments(ctx, storage.DocumentFilters{})
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	indexed, chunks := 0, 0
	for _, doc := range docs {
		if doc.Indexed {
			indexed++
		}
		chunks += doc.ChunkCount
	}
	fmt.Printf("Catalog:\n  documents: %d (%d indexed)\n  chunks:    %d\n", len(docs), indexed, chunks)

	indexStats, err := eng.KeywordIndex().Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read keyword index: %w", err)
	}
	fmt.Printf("Keyword index:\n  documents:  %d\n  categories: %d\n", indexStats.Documents, indexStats.Categories)

	retriever, err := eng.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}
	searchStats := retriever.Statistics()
	fmt.Printf("Search:\n  searches:      %d\n  cache entries: %d\n", searchStats.TotalSearches, searchStats.CacheSize)

	convStats := eng.Conversations().Statistics()
	metrics := eng.Conversations().Metrics()
	fmt.Printf("Conversations:\n  sessions: %d\n  messages: %d\n  requests: %d (%d failed)\n",
		convStats.TotalSessions, convStats.TotalMessages, metrics.TotalRequests, metrics.FailedRequests)
	return nil
}

// explainMonitor prints each search pipeline stage as it completes.
type explainMonitor struct {
	out   io.Writer
	start time.Time
}

var _ retrieval.SearchMonitor = (*explainMonitor)(nil)

func (m *explainMonitor) Start(query string) {
	m.start = time.Now()
	fmt.Fprintf(m.out, "searching %q\n", query)
}

func (m *explainMonitor) CacheHit(query string) {
	fmt.Fprintln(m.out, "served from cache")
}

func (m *explainMonitor) AfterCandidateSelection(ids []core.ID) {
	fmt.Fprintf(m.out, "candidates: %d documents\n", len(ids))
}

func (m *explainMonitor) AfterSemanticPass(hits []*core.RetrievedChunk) {
	fmt.Fprintf(m.out, "semantic pass: %d hits\n", len(hits))
}

func (m *explainMonitor) AfterKeywordPass(hits []*core.RetrievedChunk) {
	fmt.Fprintf(m.out, "keyword pass: %d hits\n", len(hits))
}

func (m *explainMonitor) AfterFusion(hits []*core.RetrievedChunk) {
	fmt.Fprintf(m.out, "fused: %d hits above threshold\n", len(hits))
}

func (m *explainMonitor) Finish(result *core.RetrievalContext) {
	fmt.Fprintf(m.out, "finished in %s: %d results from %d documents\n",
		time.Since(m.start).Round(time.Millisecond), len(result.Chunks), len(result.Sources))
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
