package vision

import "errors"

var (
	// ErrNoAPIKey is returned by constructors when the backend needs a key and none is configured.
	ErrNoAPIKey = errors.New("vision: api key not configured")
	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("vision: unknown provider")
	// ErrEmptyResponse is returned when the model answered with no text.
	ErrEmptyResponse = errors.New("vision: empty response")
	// ErrNoBackend is returned by Identify when vision is disabled.
	ErrNoBackend = errors.New("vision: no backend configured")
)
