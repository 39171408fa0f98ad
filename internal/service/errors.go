package service

import (
	"errors"
	"fmt"
	"net/url"

	"notes-retrieval/internal/embedding"
	"notes-retrieval/internal/retrieval"
	"notes-retrieval/internal/storage"
	"notes-retrieval/internal/syncer"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrPrecondition is returned when the index is not in a state that
	// allows the operation.
	ErrPrecondition = errors.New("precondition failed")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// classify tags lower-layer errors with the service sentinel callers map
// to responses. The original error stays in the chain.
func classify(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, retrieval.ErrEmptyQuery):
		return &ValidationError{Field: "query", Message: "cannot be empty"}
	case errors.Is(err, retrieval.ErrNotSynced), errors.Is(err, syncer.ErrSyncInProgress):
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case isProviderError(err):
		return fmt.Errorf("%w: %s: %w", ErrExternalService, msg, err)
	default:
		return WrapError(err, msg)
	}
}

func isProviderError(err error) bool {
	var apiErr *embedding.APIError
	var urlErr *url.Error
	return errors.As(err, &apiErr) ||
		errors.As(err, &urlErr) ||
		errors.Is(err, embedding.ErrRateLimited) ||
		errors.Is(err, embedding.ErrInputTooLong)
}
