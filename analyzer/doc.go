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


// Package analyzer classifies user queries before retrieval.
//
// The Analyzer runs a deterministic pass that assigns an intent, extracts
// keywords and entities, scores complexity, and suggests how many chunks to
// retrieve. When constructed with a generator, a second pass asks the model
// for a structured assessment and merges it into the deterministic result;
// the merge is best effort and a failed or unparseable model response never
// affects the outcome.
//
// Usage:
//
//	a, err := analyzer.New(analyzer.WithGenerator(provider.Generator()))
//	if err != nil {
//		log.Fatal(err)
//	}
//	analysis := a.Analyze(ctx, "what is hybrid search?")
//	fmt.Println(analysis.Intent, analysis.SuggestedRetrievalCount)
package analyzer
