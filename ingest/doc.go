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


// Package ingest registers documents and makes them searchable.
//
// The Pipeline persists a document and its chunk records synchronously,
// then embeds the chunks on a worker pool: each batch goes to the
// embedder with retry and backoff, vectors are upserted, and once every
// chunk is embedded the document is marked indexed and registered in the
// keyword index. Documents whose embedding fails stay unindexed and
// invisible to retrieval.
//
// SplitText turns raw document text into chunk texts, and Progress
// reports embedding throughput for long ingests.
package ingest
