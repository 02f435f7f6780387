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

	"github.com/unikorn-cloud/smoke/pkg/openapi"
)

var (
	// ErrInvalidServerSpec is raised when a server payload cannot be sent.
	ErrInvalidServerSpec = errors.New("invalid server spec")
)

// PendingToken identifies a created but unverified user account.
type PendingToken string

// SessionToken identifies an authenticated session and is sent as a bearer
// credential.
type SessionToken string

// VerificationCode proves control of the registered identity, it is delivered
// out of band by the service.
type VerificationCode string

// Credentials describe the user to create.
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ServerSpec describes the server to provision.
type ServerSpec struct {
	Name           string `json:"name"`
	Plan           int    `json:"plan"`
	ServerPassword string `json:"server_password"`
}

// Validate checks the server is something the service could accept.
func (s *ServerSpec) Validate() error {
	var name openapi.ServerName

	if err := name.UnmarshalText([]byte(s.Name)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidServerSpec, err)
	}

	if s.Plan <= 0 {
		return fmt.Errorf("%w: plan must be positive, got %d", ErrInvalidServerSpec, s.Plan)
	}

	if s.ServerPassword == "" {
		return fmt.Errorf("%w: server password must be set", ErrInvalidServerSpec)
	}

	return nil
}

type registerUserRequest struct {
	Token    PendingToken     `json:"token"`
	Code     VerificationCode `json:"code"`
	Password string           `json:"password"`
}

type tokenResponse struct {
	Token *string `json:"token"`
}

type createServerResponse struct {
	ID *string `json:"id,omitempty"`
}

// errorResponse is the body the service returns alongside non-2xx statuses.
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}
