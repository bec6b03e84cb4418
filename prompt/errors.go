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


package prompt

import "errors"

var (
	// ErrNilRequest is returned when Build is called without a request.
	ErrNilRequest = errors.New("build request required")

	// ErrEmptyQuery is returned when a build request carries no query text.
	ErrEmptyQuery = errors.New("query must not be empty")
)
