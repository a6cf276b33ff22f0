package pipeline

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skyops/apodsync/pkg/nasa"
)

// DataError reports a record that cannot be transformed into a valid
// row. Retrying cannot fix the payload, so these fail the node on the
// first attempt.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "data error: " + e.Reason
}

// IsRetryable classifies a node failure. Transient infrastructure
// errors (network timeouts, non-2xx statuses, connection failures)
// are retried with bounded attempts; upstream data errors, persistence
// integrity errors, and run cancellation are terminal immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var dataErr *DataError
	if errors.As(err, &dataErr) {
		return false
	}

	var upstreamErr *nasa.DataError
	if errors.As(err, &upstreamErr) {
		return false
	}

	// Anything other than the expected date-keyed upsert path hitting
	// a constraint is a data integrity problem, not a transient fault.
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrInvalidValue) {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return true
}

// IsDataError reports whether the failure originated from the payload
// rather than from infrastructure.
func IsDataError(err error) bool {
	var dataErr *DataError
	if errors.As(err, &dataErr) {
		return true
	}

	var upstreamErr *nasa.DataError

	return errors.As(err, &upstreamErr)
}
