package errors

import "errors"

// Standard API-related errors
var (
	ErrUnauthorized       = errors.New("provider: unauthorized (invalid API key or token)")
	ErrRateLimited        = errors.New("provider: rate limit exceeded")
	ErrServiceUnavailable = errors.New("provider: service unavailable or internal server error")

	// Application/Flow specific errors
	ErrNotAVideo       = errors.New("scan: not a video file")
	ErrUnknownProvider = errors.New("search: unknown provider name")
	ErrNoResults       = errors.New("search: no matching subtitles found")
	ErrNotLoggedIn     = errors.New("client: not logged in")
)
