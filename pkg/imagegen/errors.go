package imagegen

import "errors"

var (
	ErrNoAPIKey        = errors.New("imagegen: api key not configured")
	ErrUnknownProvider = errors.New("imagegen: unknown provider")
	// ErrNoImage is returned when the backend answered without image data.
	ErrNoImage = errors.New("imagegen: no image in response")
)
