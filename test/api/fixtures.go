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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"
	"net/http/httptest"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/smoke/pkg/client"
	"github.com/unikorn-cloud/smoke/pkg/openapi"
	"github.com/unikorn-cloud/smoke/pkg/testing/fakeservice"
)

// Target is the service under test.
type Target struct {
	// BaseURL is where the service is listening.
	BaseURL string
	// Fake is the in-process service, nil for live runs.
	Fake *fakeservice.Service
}

// StartTarget returns the live service if configured, otherwise starts a
// fake that is torn down at the end of the test.  Options only apply to
// the fake.
func StartTarget(config *TestConfig, options ...fakeservice.Option) *Target {
	if config.Live() {
		return &Target{
			BaseURL: config.BaseURL,
		}
	}

	fake := fakeservice.New(options...)
	server := httptest.NewServer(fake)

	DeferCleanup(server.Close)

	return &Target{
		BaseURL: server.URL,
		Fake:    fake,
	}
}

// StartFake starts a fake configured with the given options, skipping the
// test when running live.
func StartFake(config *TestConfig, options ...fakeservice.Option) *Target {
	if config.Live() {
		Skip("requires the fake service")
	}

	return StartTarget(config, options...)
}

// RequireFake skips the test when running live, for things like failure
// injection that only the fake can do.
func (t *Target) RequireFake() *fakeservice.Service {
	if t.Fake == nil {
		Skip("requires the fake service")
	}

	return t.Fake
}

// NewClient returns a client for the target that logs to the Ginkgo writer.
func NewClient(ctx context.Context, config *TestConfig, target *Target) *client.Client {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(GinkgoWriter), zapcore.DebugLevel)

	clientConfig := client.Config{
		BaseURL:        target.BaseURL,
		RequestTimeout: config.RequestTimeout,
		LogRequests:    config.LogRequests,
		LogResponses:   config.LogResponses,
	}

	if config.ValidateSchema {
		validator, err := openapi.NewValidator(ctx)
		Expect(err).NotTo(HaveOccurred())

		clientConfig.Validator = validator
	}

	return client.New(clientConfig, zapr.NewLogger(zap.New(core)))
}

// VerificationCode returns the code to register with.  The fake accepts
// anything unless configured otherwise.
func VerificationCode(config *TestConfig) client.VerificationCode {
	if config.VerificationCode == "" {
		return "123456"
	}

	return client.VerificationCode(config.VerificationCode)
}

// RegisterSession creates and registers a fresh user, returning the session.
func RegisterSession(ctx context.Context, c client.ClientInterface, config *TestConfig) (client.Credentials, client.SessionToken) {
	credentials := NewCredentials().Build()

	pending, err := c.CreateUser(ctx, credentials)
	Expect(err).NotTo(HaveOccurred())
	Expect(pending).NotTo(BeEmpty())

	session, err := c.RegisterUser(ctx, pending, VerificationCode(config), "abcd1234")
	Expect(err).NotTo(HaveOccurred())
	Expect(session).NotTo(BeEmpty())

	GinkgoWriter.Printf("Registered user: %s\n", credentials.Username)

	return credentials, session
}
