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


// Package conversation keeps chat sessions and service metrics in memory.
//
// A Store maps conversation ids to bounded message histories. Mutations to
// one session serialize on that session's lock while different sessions
// proceed independently. Sessions are capped at a fixed message count and
// reaped by a Janitor, which periodically removes idle sessions and evicts
// the least recently used ones past a session cap.
package conversation
