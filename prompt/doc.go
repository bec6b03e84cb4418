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


// Package prompt assembles generation prompts from retrieval output and
// conversation history.
//
// A Builder produces a core.ContextWindow holding the system instructions,
// the retrieved document block, and recent conversation turns. Chunk order
// in the document block follows a Strategy: retrieval order, relevance,
// document recency, or grouped by source. The assembled prompt is kept
// inside a token budget; when it would overflow, only the document block is
// truncated, proportionally to the overflow, so the system instructions and
// the user's question always survive intact.
//
// Token costs are estimated through a TokenEstimator. The default is a
// word-count heuristic; ModelEstimator counts with the actual tokenizer of
// a named model.
package prompt
