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

// Package openapi holds the contract of the provisioning service and the
// means to check traffic against it.
package openapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

var (
	// ErrMissingBearer is raised when a secured operation has no bearer token.
	ErrMissingBearer = errors.New("missing bearer token")
)

//go:embed server.spec.yaml
var spec []byte

// Spec returns the raw OpenAPI document.
func Spec() []byte {
	return spec
}

// Schema returns the parsed and validated OpenAPI document.
func Schema(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validating schema: %w", err)
	}

	return doc, nil
}

// Validator checks requests and responses against the service schema.
type Validator struct {
	router routers.Router
}

// NewValidator returns a validator for the embedded schema.
func NewValidator(ctx context.Context) (*Validator, error) {
	doc, err := Schema(ctx)
	if err != nil {
		return nil, err
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("building schema router: %w", err)
	}

	return &Validator{
		router: router,
	}, nil
}

// authenticate only checks the presence of credentials, their validity
// is the service's business.
func authenticate(_ context.Context, input *openapi3filter.AuthenticationInput) error {
	if input.SecurityScheme == nil || input.SecurityScheme.Scheme != "bearer" {
		return nil
	}

	header := input.RequestValidationInput.Request.Header.Get("Authorization")

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return ErrMissingBearer
	}

	return nil
}

// ValidateRequest checks a request, the returned input must be passed to
// ValidateResponse.  The request body is preserved.
func (v *Validator) ValidateRequest(req *http.Request) (*openapi3filter.RequestValidationInput, error) {
	route, params, err := v.router.FindRoute(req)
	if err != nil {
		return nil, fmt.Errorf("finding route for %s %s: %w", req.Method, req.URL.Path, err)
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: params,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: authenticate,
		},
	}

	if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
		return nil, err
	}

	return input, nil
}

// ValidateResponse checks a response to a previously validated request.
func (v *Validator) ValidateResponse(ctx context.Context, input *openapi3filter.RequestValidationInput, status int, header http.Header, body []byte) error {
	responseInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 status,
		Header:                 header,
	}

	responseInput.SetBodyBytes(body)

	return openapi3filter.ValidateResponse(ctx, responseInput)
}
