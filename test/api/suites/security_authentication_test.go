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
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/smoke/pkg/client"
	"github.com/unikorn-cloud/smoke/pkg/openapi"
	"github.com/unikorn-cloud/smoke/pkg/testing/fakeservice"
	"github.com/unikorn-cloud/smoke/test/api"
)

var _ = Describe("Security and Authentication", func() {
	Context("When creating a server without a valid session", func() {
		Describe("Given no bearer token", func() {
			It("should be caught by schema validation before it is sent", func() {
				fake := target.RequireFake()

				err := apiClient.CreateServer(ctx, "", api.NewServerPayload().Build())
				Expect(err).To(MatchError(client.ErrSchemaViolation))
				Expect(err).To(MatchError(openapi.ErrMissingBearer))
				Expect(fake.RequestsTo("/servers")).To(BeEmpty())
			})

			It("should be rejected by the service with a 401", func() {
				noValidation := *config
				noValidation.ValidateSchema = false

				c := api.NewClient(ctx, &noValidation, target)

				err := c.CreateServer(ctx, "", api.NewServerPayload().Build())

				var statusErr *client.UnexpectedStatusError

				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.Actual).To(Equal(http.StatusUnauthorized))
			})
		})

		Describe("Given a pending token instead of a session", func() {
			It("should be rejected with a 401", func() {
				pending, err := apiClient.CreateUser(ctx, api.NewCredentials().Build())
				Expect(err).NotTo(HaveOccurred())

				err = apiClient.CreateServer(ctx, client.SessionToken(pending), api.NewServerPayload().Build())

				var statusErr *client.UnexpectedStatusError

				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.Actual).To(Equal(http.StatusUnauthorized))
				Expect(statusErr.Error()).To(Equal("Expected status code 200, got 401"))
			})
		})

		Describe("Given a forged session token", func() {
			It("should be rejected with a 401", func() {
				err := apiClient.CreateServer(ctx, client.SessionToken(api.GenerateTestID()), api.NewServerPayload().Build())

				var statusErr *client.UnexpectedStatusError

				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.Actual).To(Equal(http.StatusUnauthorized))
			})
		})
	})

	Context("When registering with the wrong verification code", func() {
		It("should reject the registration and keep the user pending", func() {
			fakeTarget := api.StartFake(config, fakeservice.WithVerificationCode("654321"))
			fake := fakeTarget.Fake
			c := api.NewClient(ctx, config, fakeTarget)

			token, err := c.CreateUser(ctx, api.NewCredentials().Build())
			Expect(err).NotTo(HaveOccurred())

			_, err = c.RegisterUser(ctx, token, "000000", "abcd1234")

			var statusErr *client.UnexpectedStatusError

			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.Actual).To(Equal(http.StatusBadRequest))
			Expect(statusErr.Message).To(Equal("Invalid verification code"))
			Expect(fake.PendingUsers()).To(Equal(1))

			_, err = c.RegisterUser(ctx, token, "654321", "abcd1234")
			Expect(err).NotTo(HaveOccurred())
			Expect(fake.PendingUsers()).To(BeZero())
		})
	})
})
