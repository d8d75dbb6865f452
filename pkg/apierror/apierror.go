// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package apierror defines the typed error taxonomy that domain handlers
// signal and the HTTP boundary maps onto the wire envelope.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class. The HTTP status is derived from it.
type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeFeatureDisabled Code = "FEATURE_DISABLED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Error is a typed domain error. Details is optional structured context that
// is surfaced verbatim in the response envelope.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the code to its transport status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeFeatureDisabled:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newError(code Code, msg string) *Error { return &Error{Code: code, Message: msg} }

// Validation returns a VALIDATION_ERROR.
func Validation(format string, args ...any) *Error {
	return newError(CodeValidation, fmt.Sprintf(format, args...))
}

// Unauthorized returns an UNAUTHORIZED error.
func Unauthorized(msg string) *Error { return newError(CodeUnauthorized, msg) }

// Forbidden returns a FORBIDDEN error.
func Forbidden(msg string) *Error { return newError(CodeForbidden, msg) }

// FeatureDisabled returns a FEATURE_DISABLED error for the given feature key.
func FeatureDisabled(key string) *Error {
	return newError(CodeFeatureDisabled, fmt.Sprintf("feature %s is disabled", key))
}

// NotFound returns a NOT_FOUND error for the addressed entity.
func NotFound(entity string) *Error {
	return newError(CodeNotFound, fmt.Sprintf("%s not found", entity))
}

// Conflict returns a CONFLICT error.
func Conflict(msg string) *Error { return newError(CodeConflict, msg) }

// Internal wraps an unexpected failure. The cause is logged at the boundary
// but never serialized to the client.
func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "internal error", cause: err}
}

// WithDetails attaches structured context to the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// From coerces an arbitrary error into an *Error, wrapping unknown errors as
// INTERNAL_ERROR.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
