// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package web

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/nsa-x/console/internal/logging"
	"github.com/nsa-x/console/internal/nsax"
	"github.com/nsa-x/console/internal/query"
	"github.com/nsa-x/console/internal/validation"
)

// errorResponse is the uniform error body of the UI API.
type errorResponse struct {
	Error  string      `json:"error"`
	Fields interface{} `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeQueryError maps a query-layer failure to a UI API response. Backend
// errors keep their status and detail; transport failures surface as a 502
// because from the dashboard's perspective the console is a gateway.
func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrEmptyID):
		writeError(w, http.StatusBadRequest, "missing resource id")
	case errors.Is(err, nsax.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, nsax.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backend unavailable")
	default:
		if apiErr := nsax.AsAPIError(err); apiErr != nil {
			writeError(w, apiErr.Status, apiErr.Detail())
			return
		}
		writeError(w, http.StatusBadGateway, "backend request failed")
	}
}

// fieldFailure is one field-level validation failure in an error response.
type fieldFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// writeValidationError renders field-level validation failures.
func writeValidationError(w http.ResponseWriter, reqErr *validation.RequestError) {
	fields := make([]fieldFailure, 0, len(reqErr.Fields()))
	for _, f := range reqErr.Fields() {
		fields = append(fields, fieldFailure{Field: f.Field, Message: f.Message})
	}
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  reqErr.Error(),
		Fields: fields,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
