package shopify

import (
	"errors"
	"fmt"
)

// ErrorClass partitions platform failures by how callers must react.
type ErrorClass string

const (
	// ClassThrottled marks rate-limit responses. Retried internally with
	// backoff; terminal only after the retry budget is exhausted.
	ClassThrottled ErrorClass = "throttled"

	// ClassValidation marks validation rejections. Never retried; the
	// caller logs the structured detail and skips the affected entity.
	ClassValidation ErrorClass = "validation"

	// ClassTransport marks every other client/server/network failure.
	// Never retried by this layer; fatal for the current product.
	ClassTransport ErrorClass = "transport"
)

// APIError is a classified failure from the remote platform.
type APIError struct {
	Class      ErrorClass
	StatusCode int
	Path       string
	Body       []byte
}

func (e *APIError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("shopify %s error (status %d) on %s: %s", e.Class, e.StatusCode, e.Path, e.Body)
	}
	return fmt.Sprintf("shopify %s error (status %d) on %s", e.Class, e.StatusCode, e.Path)
}

// IsThrottled reports whether err is a throttling failure that exhausted
// its retry budget.
func IsThrottled(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ClassThrottled
}

// IsValidation reports whether err is a validation rejection the caller
// should log and skip.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ClassValidation
}
