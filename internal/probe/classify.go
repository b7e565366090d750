package probe

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
)

// Classify maps a completed HTTP exchange to a result category and
// detail text. It is pure: retry decisions live in the Probe loop, so
// a 429 that reaches Classify (retries exhausted) degrades to error.
func Classify(status int, body string) (Category, string) {
	switch {
	case status >= 200 && status < 300:
		return CategoryValid, "OK"
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return CategoryInvalid, truncate(body, maxBodyDetail)
	case status == http.StatusNotFound:
		return CategoryModelNotFound, truncate(body, maxBodyDetail)
	default:
		return CategoryError, truncate(body, maxBodyDetail)
	}
}

// retryableStatus reports whether a status code warrants another attempt.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests
}

// isTimeout reports whether err is a connect or read timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// requestError marks failures that occur before a request reaches the
// network, such as payload encoding or URL construction. They are never
// retried and map to the StatusUnexpected sentinel.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

// isUnexpected reports whether err is a non-network failure.
func isUnexpected(err error) bool {
	var reqErr *requestError
	return errors.As(err, &reqErr)
}
