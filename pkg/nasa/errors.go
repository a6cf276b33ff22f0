package nasa

import "fmt"

// StatusError reports a non-2xx response from the APOD API. These are
// transient as far as the caller can tell (rate limits, upstream
// hiccups) and may be retried with bounded attempts.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("apod api returned status %d", e.StatusCode)
	}

	return fmt.Sprintf("apod api returned status %d: %s", e.StatusCode, e.Body)
}

// DataError reports a malformed or empty payload. Retrying will not
// change the payload, so these are terminal.
type DataError struct {
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Err == nil {
		return "apod data error: " + e.Reason
	}

	return fmt.Sprintf("apod data error: %s: %v", e.Reason, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}
