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


// Package rag orchestrates retrieval-augmented chat turns.
//
// The Service type runs the full pipeline for each turn: it analyzes the
// question, retrieves supporting chunks through a multi-strategy merge of
// hybrid search and index lookups, assembles a token-bounded prompt,
// generates the answer and persists both sides of the exchange in the
// conversation store.
//
// Chat delivers complete answers; ChatStream delivers the same turn as
// incremental chunks on an unbuffered channel, ending with one terminal
// chunk carrying attribution or an error. Generation faults never fail a
// turn outright: they come back as a response with Success false, while
// the error returns are reserved for invalid requests.
package rag
