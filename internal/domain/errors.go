package domain

import "errors"

// Sentinel errors used across layers. Matched with errors.Is.
var (
	// AI client failures, surfaced after retries are exhausted.
	ErrTimeout               = errors.New("request timed out")
	ErrInvalidAPIKey         = errors.New("invalid api key")
	ErrRateLimited           = errors.New("rate limited")
	ErrRequestFailed         = errors.New("request failed")
	ErrInvalidResponseFormat = errors.New("invalid response format")

	// Camera failures.
	ErrCaptureTooSoon = errors.New("capture requested too soon")
	ErrNoFrame        = errors.New("no frame available")

	// Device failures, reported once per session.
	ErrDeviceUnsupported = errors.New("device unsupported")
	ErrPermissionDenied  = errors.New("permission denied")
)
