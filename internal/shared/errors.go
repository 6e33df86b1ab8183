package shared

import "errors"

var (
	// Configuration errors
	ErrMissingConfig      = errors.New("configuration not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing credentials")

	// Authentication errors
	ErrAuthFailed = errors.New("authentication failed")

	// API and service errors
	ErrAPIRequest         = errors.New("API request failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrPlaylistNotFound   = errors.New("the playlist wasn't found. Is it marked as private?")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingShowInfo = errors.New("show title and show date are required for the old playlist editor")
)
