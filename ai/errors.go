package ai

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNoProviders is returned when a manager is created without providers
	ErrNoProviders = errors.New("no providers configured")

	// ErrNoHealthyProvider is returned when every provider fails its health probe
	ErrNoHealthyProvider = errors.New("no healthy provider available")

	// ErrUnknownProvider is returned when a named provider is not registered
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrEmptyResponse is returned when the model returns no choices
	ErrEmptyResponse = errors.New("model returned no choices")
)
