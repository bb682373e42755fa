package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMaxAttempts is returned when a retry is configured with a
	// non-positive attempt ceiling.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrEmbedderRequired is returned when a client is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrPermanent marks an embedding failure that retrying cannot fix.
	ErrPermanent = errors.New("permanent embedding error")

	// ErrDimensionMismatch indicates the service returned a vector of the
	// wrong width for the configured model.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrVectorSize indicates encoded vector bytes are not a whole number of
	// 32-bit floats.
	ErrVectorSize = errors.New("encoded vector length is not a multiple of 4")
)

// Permanent wraps err so IsPermanent recognizes it.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsPermanent reports whether err should fail immediately without retry.
// Malformed-input style HTTP statuses from OpenAI-compatible services are
// treated as permanent; everything else (network errors, rate limits,
// timeouts) is transient and follows the retry policy.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermanent) || errors.Is(err, ErrDimensionMismatch) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}

	msg := err.Error()
	for _, marker := range []string{
		"status code: 400",
		"status code: 401",
		"status code: 403",
		"status code: 404",
		"status code: 422",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
