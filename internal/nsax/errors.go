// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package nsax

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx backend response. Body holds the parsed JSON error
// payload when the backend sent one; parse failures leave it nil rather than
// masking the original error.
type APIError struct {
	Status     int
	StatusText string
	Body       map[string]interface{}
}

// Error formats as "<status> <statusText>", mirroring the backend convention.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.StatusText)
}

// Detail returns the backend's "detail" message when present, falling back
// to the status line. FastAPI-style backends put human-readable messages
// there.
func (e *APIError) Detail() string {
	if e.Body != nil {
		if detail, ok := e.Body["detail"].(string); ok && detail != "" {
			return detail
		}
	}
	return e.Error()
}

// ErrSessionExpired is returned when a 401 survives the single
// refresh-and-retry attempt. By the time a caller sees it the token store
// has been cleared and the session-expired hook has fired.
var ErrSessionExpired = &APIError{Status: http.StatusUnauthorized, StatusText: "Session expired"}

// AsAPIError unwraps err to an *APIError, or returns nil when err is not one.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	apiErr := AsAPIError(err)
	return apiErr != nil && apiErr.Status == http.StatusUnauthorized
}
