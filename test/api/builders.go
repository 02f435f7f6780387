/*
Copyright 2024-2025 the Unikorn Authors.
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

package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/unikorn-cloud/smoke/pkg/client"
)

func generateRandomName(prefix string) string {
	bytes := make([]byte, 4) // 8 hex characters
	_, _ = rand.Read(bytes)

	return fmt.Sprintf("%s-%s", prefix, hex.EncodeToString(bytes))
}

func GenerateTestID() string {
	return generateRandomName("test")
}

// CredentialsBuilder builds user credentials for testing.
type CredentialsBuilder struct {
	credentials client.Credentials
}

// NewCredentials creates a credentials builder with a unique username and
// email so repeated runs against a live service don't collide.
func NewCredentials() *CredentialsBuilder {
	id := GenerateTestID()

	return &CredentialsBuilder{
		credentials: client.Credentials{
			Username: strings.ToLower(gofakeit.Username()) + "-" + id,
			Email:    id + "+" + gofakeit.Email(),
		},
	}
}

// WithUsername sets the username.
func (b *CredentialsBuilder) WithUsername(username string) *CredentialsBuilder {
	b.credentials.Username = username
	return b
}

// WithEmail sets the email address.
func (b *CredentialsBuilder) WithEmail(email string) *CredentialsBuilder {
	b.credentials.Email = email
	return b
}

// Build returns the credentials.
func (b *CredentialsBuilder) Build() client.Credentials {
	return b.credentials
}

// ServerPayloadBuilder builds server payloads for testing.
type ServerPayloadBuilder struct {
	spec client.ServerSpec
}

// NewServerPayload creates a server payload builder with a unique name.
func NewServerPayload() *ServerPayloadBuilder {
	return &ServerPayloadBuilder{
		spec: client.ServerSpec{
			Name:           generateRandomName("testautomation"),
			Plan:           1,
			ServerPassword: gofakeit.Password(true, true, true, false, false, 16),
		},
	}
}

// WithName sets the server name.
func (b *ServerPayloadBuilder) WithName(name string) *ServerPayloadBuilder {
	b.spec.Name = name
	return b
}

// WithPlan sets the plan.
func (b *ServerPayloadBuilder) WithPlan(plan int) *ServerPayloadBuilder {
	b.spec.Plan = plan
	return b
}

// WithServerPassword sets the server's root password.
func (b *ServerPayloadBuilder) WithServerPassword(password string) *ServerPayloadBuilder {
	b.spec.ServerPassword = password
	return b
}

// Build returns the server payload.
func (b *ServerPayloadBuilder) Build() client.ServerSpec {
	return b.spec
}
