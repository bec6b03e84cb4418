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


// Package retrieval provides hybrid semantic and keyword search over
// ingested documents.
//
// The Engine type implements a multi-stage retrieval pipeline:
//   - Candidate selection through catalog filters
//   - Semantic search using vector embeddings
//   - Keyword scoring with stop-word filtering and snippet extraction
//   - Weighted score fusion, deduplication and ranking
//
// Results are cached by request identity with a bounded TTL, and every
// search feeds an in-memory history that powers statistics and query
// suggestions.
package retrieval
