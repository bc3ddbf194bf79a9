// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

// Package validation provides struct validation using go-playground/validator
// v10 behind a thread-safe singleton.
//
// It backs the client-side preconditions the console enforces before any
// network call is made, most importantly that a decision justification is at
// least ten characters:
//
//	req := models.DecisionRequest{Action: "ESCALATE", Justification: "..."}
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // surface verr.Error() to the analyst, do not submit
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Error returns the human-readable message for the failure.
func (e FieldError) Error() string {
	return e.Message
}

// RequestError is a collection of field validation failures for one request.
type RequestError struct {
	fields []FieldError
}

// Fields returns the individual field failures.
func (e *RequestError) Fields() []FieldError {
	return e.fields
}

// Error implements the error interface with a combined message.
func (e *RequestError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.fields))
	for i, f := range e.fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Validator returns the singleton validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct against its validate tags. Returns nil on
// success, or a *RequestError describing every failing field.
func ValidateStruct(s interface{}) *RequestError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestError{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: messageFor(fe),
		}
	}
	return &RequestError{fields: fields}
}

// messageFor renders analyst-facing messages for the tags the console uses.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
