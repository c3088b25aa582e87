package remote

import (
	"errors"
	"fmt"
)

// ErrIncompleteCredentials is returned before any network call when identifiers are missing.
var ErrIncompleteCredentials = errors.New("remote credentials incomplete")

// HTTPError is a non-success HTTP status.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Body)
}

// APIError is a success HTTP status carrying a non-zero application code.
type APIError struct {
	Op   string
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (code %d)", e.Op, e.Msg, e.Code)
}

// tokenRejectedCodes are application codes meaning the tenant token is invalid or expired.
var tokenRejectedCodes = map[int]struct{}{
	99991661: {},
	99991663: {},
	99991668: {},
}

// isTokenRejected reports whether err means the cached token must be dropped.
func isTokenRejected(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == 401 {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		_, ok := tokenRejectedCodes[apiErr.Code]
		return ok
	}
	return false
}
