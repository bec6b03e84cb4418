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


package retrieval

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmptyQuery is returned when a search request has no query text.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNoSearchMode is returned when both search passes are disabled.
	ErrNoSearchMode = errors.New("at least one search mode must be enabled")

	// ErrInvalidWeights is returned when keyword and semantic weights do not sum to 1.0.
	ErrInvalidWeights = errors.New("keyword and semantic weights must sum to 1.0")

	// ErrInvalidThreshold is returned when the similarity threshold is outside [0,1].
	ErrInvalidThreshold = errors.New("similarity threshold must be between 0 and 1")

	// ErrInvalidResultCount is returned when fewer than one result is requested.
	ErrInvalidResultCount = errors.New("result count must be at least 1")

	// ErrTooManyQueries is returned when a batch exceeds the query limit.
	ErrTooManyQueries = errors.New("too many queries in batch")
)
