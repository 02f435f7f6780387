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

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/smoke/pkg/client"
	"github.com/unikorn-cloud/smoke/pkg/testing/fakeservice"
	"github.com/unikorn-cloud/smoke/test/api"
)

var _ = Describe("Error Handling and Edge Cases", func() {
	Context("When the service fails", func() {
		DescribeTable("should report the status it got",
			func(method, path string, status int) {
				fakeTarget := api.StartFake(config, fakeservice.WithOverride(method, path, status, fmt.Sprintf(`{"status":%d,"message":%q}`, status, http.StatusText(status))))
				c := api.NewClient(ctx, config, fakeTarget)

				var err error

				switch path {
				case "/users":
					_, err = c.CreateUser(ctx, api.NewCredentials().Build())
				case "/users/register":
					_, _, err = registerWith(c)
				case "/servers":
					var session client.SessionToken

					_, session, err = registerWith(c)
					Expect(err).NotTo(HaveOccurred())

					err = c.CreateServer(ctx, session, api.NewServerPayload().Build())
				}

				var statusErr *client.UnexpectedStatusError

				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.Expected).To(Equal(http.StatusOK))
				Expect(statusErr.Actual).To(Equal(status))
				Expect(statusErr.Message).To(Equal(http.StatusText(status)))
				Expect(statusErr.TraceID).To(HaveLen(32))
			},
			Entry("on user creation", http.MethodPost, "/users", http.StatusInternalServerError),
			Entry("on registration", http.MethodPost, "/users/register", http.StatusServiceUnavailable),
			Entry("on server creation", http.MethodPost, "/servers", http.StatusForbidden),
			Entry("with a non-200 success", http.MethodPost, "/users", http.StatusCreated),
		)
	})

	Context("When a successful response has no token", func() {
		It("should report the missing field", func() {
			noValidation := *config
			noValidation.ValidateSchema = false

			fakeTarget := api.StartFake(config, fakeservice.WithOverride(http.MethodPost, "/users", http.StatusOK, `{}`))
			c := api.NewClient(ctx, &noValidation, fakeTarget)

			_, err := c.CreateUser(ctx, api.NewCredentials().Build())
			Expect(err).To(MatchError(client.ErrMissingField))

			var fieldErr *client.MissingFieldError

			Expect(errors.As(err, &fieldErr)).To(BeTrue())
			Expect(fieldErr.Field).To(Equal("token"))
			Expect(fieldErr.Path).To(Equal("/users"))
		})

		It("should report the missing field on registration with schema validation enabled", func() {
			fakeTarget := api.StartFake(config, fakeservice.WithOverride(http.MethodPost, "/users/register", http.StatusOK, `{}`))
			withValidation := *config
			withValidation.ValidateSchema = true

			c := api.NewClient(ctx, &withValidation, fakeTarget)

			_, _, err := registerWith(c)
			Expect(err).To(MatchError(client.ErrMissingField))
			Expect(err).NotTo(MatchError(client.ErrSchemaViolation))

			var fieldErr *client.MissingFieldError

			Expect(errors.As(err, &fieldErr)).To(BeTrue())
			Expect(fieldErr.Path).To(Equal("/users/register"))
			Expect(fieldErr.Field).To(Equal("token"))
		})

		It("should flag a token of the wrong type through schema validation", func() {
			fakeTarget := api.StartFake(config, fakeservice.WithOverride(http.MethodPost, "/users/register", http.StatusOK, `{"token":42}`))
			withValidation := *config
			withValidation.ValidateSchema = true

			c := api.NewClient(ctx, &withValidation, fakeTarget)

			_, _, err := registerWith(c)
			Expect(err).To(MatchError(client.ErrSchemaViolation))
		})
	})

	Context("When the service is unreachable", func() {
		It("should fail with a transport error", func() {
			unreachable := &api.Target{
				BaseURL: "http://127.0.0.1:1",
			}

			c := api.NewClient(ctx, config, unreachable)

			err := c.Ping(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(client.ErrUnexpectedStatus))
		})
	})
})

// registerWith creates and registers a fresh user with the given client.
func registerWith(c *client.Client) (client.PendingToken, client.SessionToken, error) {
	pending, err := c.CreateUser(ctx, api.NewCredentials().Build())
	if err != nil {
		return "", "", err
	}

	session, err := c.RegisterUser(ctx, pending, api.VerificationCode(config), "abcd1234")

	return pending, session, err
}
