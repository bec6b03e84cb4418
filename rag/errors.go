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


package rag

import "errors"

var (
	// ErrEngineRequired is returned when a service is created without a
	// retrieval engine.
	ErrEngineRequired = errors.New("retrieval engine required")

	// ErrStoreRequired is returned when a service is created without a
	// conversation store.
	ErrStoreRequired = errors.New("conversation store required")

	// ErrProviderRequired is returned when a service is created without an
	// AI provider.
	ErrProviderRequired = errors.New("AI provider required")

	// ErrNilRequest is returned when a chat turn is started without a
	// request.
	ErrNilRequest = errors.New("chat request required")

	// ErrEmptyMessage is returned when a chat request carries no message.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrInvalidChunkCount is returned when the retrieved chunk count is
	// outside [1, 20].
	ErrInvalidChunkCount = errors.New("retrieved chunk count must be between 1 and 20")

	// ErrInvalidThreshold is returned when the similarity threshold is
	// outside [0, 1].
	ErrInvalidThreshold = errors.New("similarity threshold must be between 0.0 and 1.0")

	// ErrInvalidContextLength is returned when the context budget is
	// outside [500, 8000].
	ErrInvalidContextLength = errors.New("context length must be between 500 and 8000")

	// ErrInvalidHistoryLimit is returned when the history limit is outside
	// [0, 50].
	ErrInvalidHistoryLimit = errors.New("history limit must be between 0 and 50")

	// ErrInvalidTemperature is returned when the temperature is outside
	// [0, 2].
	ErrInvalidTemperature = errors.New("temperature must be between 0.0 and 2.0")

	// ErrInvalidMaxTokens is returned when the generation cap is outside
	// [50, 4000].
	ErrInvalidMaxTokens = errors.New("max tokens must be between 50 and 4000")
)
