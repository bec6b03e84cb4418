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


package docent

import (
	"log/slog"
	"path/filepath"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/openai"
	"github.com/poiesic/docent/analyzer"
	"github.com/poiesic/docent/conversation"
	"github.com/poiesic/docent/ingest"
	"github.com/poiesic/docent/rag"
	"github.com/poiesic/docent/retrieval"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
	"github.com/poiesic/docent/storage/bleve"
)

const (
	catalogDir = "catalog"
	keywordDir = "keywords"
)

// Engine owns the stores and services that make up a docent instance:
// the document catalog, the keyword index, the AI provider and the
// conversation store. Retrievers, chat services and ingest pipelines are
// created from it and share these resources.
type Engine struct {
	backend       *badger.Backend
	documents     *badger.DocumentRepository
	chunks        *badger.ChunkRepository
	keywords      *bleve.Index
	provider      ai.AIProvider
	conversations *conversation.Store
	janitor       *conversation.Janitor
	logger        *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig sets the AI service configuration used to build the
// OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects an already constructed AI provider instead of
// building one from configuration. The engine takes ownership and closes
// it on Close.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// NewEngine opens a docent instance rooted at dir. The document catalog
// and the keyword index live in subdirectories and are created when
// missing.
func NewEngine(dir string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filepath.Join(dir, catalogDir), false)
	if err != nil {
		return nil, err
	}

	// Create document repository
	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create chunk repository
	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Open keyword index
	keywords, err := bleve.Open(filepath.Join(dir, keywordDir))
	if err != nil {
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			keywords.Close()
			chunks.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	conversations, err := conversation.NewStore()
	if err != nil {
		provider.Close()
		keywords.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}

	janitor, err := conversation.NewJanitor(conversations)
	if err != nil {
		provider.Close()
		keywords.Close()
		chunks.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}
	janitor.Start()

	return &Engine{
		backend:       backend,
		documents:     documents,
		chunks:        chunks,
		keywords:      keywords,
		provider:      provider,
		conversations: conversations,
		janitor:       janitor,
		logger:        slog.Default(),
	}, nil
}

func (e *Engine) Close() error {
	e.janitor.Stop()

	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	// Close the keyword index and repositories
	if err := e.keywords.Close(); err != nil {
		e.logger.Error("error closing keyword index", "err", err)
		return err
	}
	if err := e.chunks.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.documents.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Documents() storage.DocumentRepository {
	return e.documents
}

func (e *Engine) Chunks() storage.ChunkRepository {
	return e.chunks
}

func (e *Engine) KeywordIndex() storage.KeywordIndex {
	return e.keywords
}

func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

func (e *Engine) Conversations() *conversation.Store {
	return e.conversations
}

// NewRetriever creates a hybrid search engine over the instance's stores.
func (e *Engine) NewRetriever(opts ...retrieval.Option) (*retrieval.Engine, error) {
	return retrieval.NewEngine(e.documents, e.chunks, e.chunks, e.provider, opts...)
}

// NewIngestPipeline creates an ingest pipeline that registers documents
// into the instance's stores. Close the pipeline when done to wait for
// in-flight embedding work.
func (e *Engine) NewIngestPipeline(opts ...ingest.Option) (*ingest.Pipeline, error) {
	opts = append([]ingest.Option{ingest.WithKeywordIndex(e.keywords)}, opts...)
	return ingest.NewPipeline(e.documents, e.chunks, e.chunks, e.provider, opts...)
}

// NewChatService creates a retrieval-augmented chat service backed by the
// instance's stores and conversation state. The query analyzer uses the
// provider's generator for intent enhancement.
func (e *Engine) NewChatService(opts ...rag.Option) (*rag.Service, error) {
	qa, err := analyzer.New(analyzer.WithGenerator(e.provider.Generator()))
	if err != nil {
		return nil, err
	}

	retriever, err := e.NewRetriever()
	if err != nil {
		return nil, err
	}

	opts = append([]rag.Option{
		rag.WithAnalyzer(qa),
		rag.WithCatalog(e.documents),
		rag.WithChunks(e.chunks),
		rag.WithKeywordIndex(e.keywords),
	}, opts...)
	return rag.NewService(retriever, e.conversations, e.provider, opts...)
}
