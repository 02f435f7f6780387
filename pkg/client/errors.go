/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is returned when the service responds with anything
	// other than the expected status code.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrMissingField is returned when a successful response lacks a required
	// JSON field.
	ErrMissingField = errors.New("missing field")

	// ErrSchemaViolation is returned when a request or response doesn't conform
	// to the service's OpenAPI document.
	ErrSchemaViolation = errors.New("schema violation")
)

// UnexpectedStatusError records the expected and actual status of a call.
type UnexpectedStatusError struct {
	Method   string
	Path     string
	Expected int
	Actual   int
	// Message is the service provided error message, if any.
	Message string
	// Body is the raw response body.
	Body string
	// TraceID can be used to find the request in the service logs.
	TraceID string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("Expected status code %d, got %d", e.Expected, e.Actual)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// MissingFieldError records which field a response should have contained.
type MissingFieldError struct {
	Method string
	Path   string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("response to %s %s should contain a %s", e.Method, e.Path, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
