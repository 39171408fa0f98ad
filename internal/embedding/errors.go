package embedding

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRateLimited is returned when the backend rejects a request for rate limiting.
	ErrRateLimited = errors.New("embedding backend rate limited")
	// ErrInputTooLong is returned when the backend rejects input that exceeds its context.
	ErrInputTooLong = errors.New("embedding input too long")
	// ErrEmptyInput is returned when GenerateEmbedding is called without texts.
	ErrEmptyInput = errors.New("empty input array")
	// ErrUnknownProvider is returned by NewProvider for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown embedding provider")
)

// APIError is a non-200 response from an embedding backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bad status %d: %s", e.StatusCode, e.Body)
}

// Is maps HTTP failures onto the package sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrInputTooLong:
		if e.StatusCode != http.StatusBadRequest && e.StatusCode != http.StatusRequestEntityTooLarge {
			return false
		}
		return e.StatusCode == http.StatusRequestEntityTooLarge || mentionsLength(e.Body)
	}
	return false
}

var tooLongMarkers = []string{
	"too long",
	"maximum context length",
	"context length",
	"too many tokens",
	"input length",
}

func mentionsLength(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range tooLongMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
