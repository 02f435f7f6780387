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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-logr/logr"

	"github.com/unikorn-cloud/smoke/pkg/constants"
	"github.com/unikorn-cloud/smoke/pkg/openapi"

	"k8s.io/utils/ptr"
)

// Config defines how the client talks to the service.
type Config struct {
	// BaseURL is the service root e.g. http://localhost:3000.
	BaseURL string
	// RequestTimeout bounds each individual request.
	RequestTimeout time.Duration
	// LogRequests logs the status and duration of every request.
	LogRequests bool
	// LogResponses logs every response body.
	LogResponses bool
	// Validator, if set, checks traffic against the service schema.
	Validator *openapi.Validator
}

//go:generate mockgen -source=client.go -destination=mock/interfaces.go -package=mock

// ClientInterface is the set of service operations the runner drives.
type ClientInterface interface {
	// Ping checks the service is up.
	Ping(ctx context.Context) error
	// CreateUser creates a pending user.
	CreateUser(ctx context.Context, credentials Credentials) (PendingToken, error)
	// RegisterUser completes registration of a pending user.
	RegisterUser(ctx context.Context, token PendingToken, code VerificationCode, password string) (SessionToken, error)
	// CreateServer provisions a server as the session's user.
	CreateServer(ctx context.Context, token SessionToken, spec ServerSpec) error
}

// Client is a hand written client for the provisioning service.  Every call
// returns either the decoded payload or a categorised error, it never
// retries.
type Client struct {
	baseURL   string
	client    *http.Client
	config    Config
	endpoints *Endpoints
	logger    logr.Logger
}

// Ensure the interface is implemented.
var _ ClientInterface = &Client{}

// New returns a new client.
func New(config Config, logger logr.Logger) *Client {
	return NewWithHTTPClient(config, logger, &http.Client{
		Timeout: config.RequestTimeout,
	})
}

// NewWithHTTPClient returns a new client using the provided transport.
func NewWithHTTPClient(config Config, logger logr.Logger, client *http.Client) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(config.BaseURL, "/"),
		client:    client,
		config:    config,
		endpoints: NewEndpoints(),
		logger:    logger.WithName("client"),
	}
}

// logError logs a transport error with trace context.
func (c *Client) logError(method, path string, duration time.Duration, traceParent string, err error, context string) {
	c.logger.Error(err, context, "method", method, "path", path, "duration", duration, "traceID", extractTraceID(traceParent))
}

// logUnexpectedStatus logs an unexpected HTTP status code.
func (c *Client) logUnexpectedStatus(method, path string, expectedStatus, actualStatus int, body, traceParent string) {
	c.logger.Info("unexpected status", "method", method, "path", path, "expected", expectedStatus, "status", actualStatus, "body", body, "traceID", extractTraceID(traceParent))
}

// request is a single call to the service.
type request struct {
	method string
	path   string
	// body is marshaled as JSON if set.
	body any
	// bearer is sent as the Authorization header if set.
	bearer string
	// expectedStatus is the only status considered a success.
	expectedStatus int
	// required names a field a successful response must carry.
	required string
}

//nolint:cyclop
func (c *Client) doRequest(ctx context.Context, r *request) (*http.Response, []byte, error) {
	var body io.Reader

	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling request body: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	// Add W3C Trace Context headers
	traceParent := createTraceParent()
	req.Header.Set("Traceparent", traceParent)
	req.Header.Set("Tracestate", "smoke="+constants.Application)
	req.Header.Set("User-Agent", constants.VersionString())

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}

	var validationInput *openapi3filter.RequestValidationInput

	if c.config.Validator != nil {
		if validationInput, err = c.config.Validator.ValidateRequest(req); err != nil {
			return nil, nil, fmt.Errorf("%w: request %s %s: %w", ErrSchemaViolation, r.method, r.path, err)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logError(r.method, r.path, duration, traceParent, err, "http request failed")
		return nil, nil, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logError(r.method, r.path, duration, traceParent, err, "reading response body")
		return resp, nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.config.LogRequests {
		c.logger.Info("request", "method", r.method, "path", r.path, "status", resp.StatusCode, "duration", duration, "traceID", extractTraceID(traceParent))
	}

	if c.config.LogResponses && len(respBody) > 0 {
		c.logger.Info("response", "method", r.method, "path", r.path, "body", string(respBody))
	}

	if resp.StatusCode != r.expectedStatus {
		c.logUnexpectedStatus(r.method, r.path, r.expectedStatus, resp.StatusCode, string(respBody), traceParent)

		statusErr := &UnexpectedStatusError{
			Method:   r.method,
			Path:     r.path,
			Expected: r.expectedStatus,
			Actual:   resp.StatusCode,
			Body:     string(respBody),
			TraceID:  extractTraceID(traceParent),
		}

		var apiErr errorResponse

		if json.Unmarshal(respBody, &apiErr) == nil {
			statusErr.Message = apiErr.Message
		}

		return resp, respBody, statusErr
	}

	if r.required != "" {
		if err := checkRequired(r.method, r.path, r.required, respBody); err != nil {
			return resp, respBody, err
		}
	}

	if validationInput != nil {
		if err := c.config.Validator.ValidateResponse(ctx, validationInput, resp.StatusCode, resp.Header, respBody); err != nil {
			return resp, respBody, fmt.Errorf("%w: response %s %s: %w", ErrSchemaViolation, r.method, r.path, err)
		}
	}

	return resp, respBody, nil
}

// checkRequired runs ahead of schema validation, an absent field is always a
// MissingFieldError.  Bodies that aren't JSON objects are left to the
// validator and decoder.
func checkRequired(method, path, field string, body []byte) error {
	var fields map[string]json.RawMessage

	if json.Unmarshal(body, &fields) != nil {
		return nil
	}

	if _, ok := fields[field]; !ok {
		return &MissingFieldError{
			Method: method,
			Path:   path,
			Field:  field,
		}
	}

	return nil
}

// decodeToken extracts the mandatory token from a successful response.
func decodeToken(method, path string, body []byte) (string, error) {
	var out tokenResponse

	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshaling %s %s response: %w", method, path, err)
	}

	if out.Token == nil {
		return "", &MissingFieldError{
			Method: method,
			Path:   path,
			Field:  "token",
		}
	}

	return *out.Token, nil
}

// Ping checks the service root responds.
func (c *Client) Ping(ctx context.Context) error {
	//nolint:bodyclose // response body is closed in doRequest
	_, body, err := c.doRequest(ctx, &request{
		method:         http.MethodGet,
		path:           c.endpoints.Root(),
		expectedStatus: http.StatusOK,
	})
	if err != nil {
		return fmt.Errorf("checking service health: %w", err)
	}

	c.logger.V(1).Info("service healthy", "body", string(body))

	return nil
}

// CreateUser creates a pending user and returns the token that must be
// presented with the verification code to complete registration.
func (c *Client) CreateUser(ctx context.Context, credentials Credentials) (PendingToken, error) {
	path := c.endpoints.CreateUser()

	//nolint:bodyclose // response body is closed in doRequest
	_, body, err := c.doRequest(ctx, &request{
		method:         http.MethodPost,
		path:           path,
		body:           credentials,
		expectedStatus: http.StatusOK,
		required:       "token",
	})
	if err != nil {
		return "", fmt.Errorf("creating user: %w", err)
	}

	token, err := decodeToken(http.MethodPost, path, body)
	if err != nil {
		return "", fmt.Errorf("creating user: %w", err)
	}

	return PendingToken(token), nil
}

// RegisterUser exchanges a pending token and verification code for a session.
func (c *Client) RegisterUser(ctx context.Context, token PendingToken, code VerificationCode, password string) (SessionToken, error) {
	path := c.endpoints.RegisterUser()

	//nolint:bodyclose // response body is closed in doRequest
	_, body, err := c.doRequest(ctx, &request{
		method: http.MethodPost,
		path:   path,
		body: &registerUserRequest{
			Token:    token,
			Code:     code,
			Password: password,
		},
		expectedStatus: http.StatusOK,
		required:       "token",
	})
	if err != nil {
		return "", fmt.Errorf("registering user: %w", err)
	}

	session, err := decodeToken(http.MethodPost, path, body)
	if err != nil {
		return "", fmt.Errorf("registering user: %w", err)
	}

	return SessionToken(session), nil
}

// CreateServer provisions a server, authenticating with the session token.
func (c *Client) CreateServer(ctx context.Context, token SessionToken, spec ServerSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	//nolint:bodyclose // response body is closed in doRequest
	_, body, err := c.doRequest(ctx, &request{
		method:         http.MethodPost,
		path:           c.endpoints.CreateServer(),
		body:           spec,
		bearer:         string(token),
		expectedStatus: http.StatusOK,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// The service need not say anything about the server, but if it does
	// hand back an ID it's useful when chasing provisioning problems.
	var out createServerResponse

	if len(body) > 0 && json.Unmarshal(body, &out) == nil {
		c.logger.V(1).Info("server created", "name", spec.Name, "id", ptr.Deref(out.ID, "unknown"))
	}

	return nil
}
