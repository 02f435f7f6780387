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
	"github.com/unikorn-cloud/smoke/test/api"
)

var _ = Describe("User Registration", func() {
	Context("When creating a user", func() {
		Describe("Given valid credentials", func() {
			It("should return a pending token", func() {
				credentials := api.NewCredentials().Build()

				token, err := apiClient.CreateUser(ctx, credentials)
				Expect(err).NotTo(HaveOccurred())
				Expect(token).NotTo(BeEmpty())

				GinkgoWriter.Printf("Created pending user: %s\n", credentials.Username)
			})

			It("should hold the user until it is registered", func() {
				fake := target.RequireFake()

				_, err := apiClient.CreateUser(ctx, api.NewCredentials().Build())
				Expect(err).NotTo(HaveOccurred())
				Expect(fake.PendingUsers()).To(Equal(1))
				Expect(fake.Users()).To(BeEmpty())
			})
		})

		Describe("Given missing credentials", func() {
			It("should reject the user with a 400", func() {
				fake := target.RequireFake()

				noValidation := *config
				noValidation.ValidateSchema = false

				c := api.NewClient(ctx, &noValidation, target)

				_, err := c.CreateUser(ctx, api.NewCredentials().WithEmail("").Build())

				var statusErr *client.UnexpectedStatusError

				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.Actual).To(Equal(http.StatusBadRequest))
				Expect(statusErr.Message).To(Equal("Username and email are required"))
				Expect(fake.PendingUsers()).To(BeZero())
			})

			It("should be caught by schema validation before it is sent", func() {
				fake := target.RequireFake()

				_, err := apiClient.CreateUser(ctx, api.NewCredentials().WithUsername("").Build())
				Expect(err).To(MatchError(client.ErrSchemaViolation))
				Expect(fake.RequestsTo("/users")).To(BeEmpty())
			})
		})
	})

	Context("When registering a pending user", func() {
		Describe("Given a valid token and verification code", func() {
			It("should return a session token", func() {
				_, session := api.RegisterSession(ctx, apiClient, config)
				Expect(session).NotTo(BeEmpty())
			})

			It("should send the fixed password with the token and code", func() {
				fake := target.RequireFake()

				credentials, _ := api.RegisterSession(ctx, apiClient, config)

				users := fake.Users()
				Expect(users).To(HaveLen(1))
				Expect(users[0].Username).To(Equal(credentials.Username))
				Expect(users[0].Password).To(Equal("abcd1234"))
			})
		})

		Describe("Given a token that has already been used", func() {
			It("should reject the second registration", func() {
				token, err := apiClient.CreateUser(ctx, api.NewCredentials().Build())
				Expect(err).NotTo(HaveOccurred())

				_, err = apiClient.RegisterUser(ctx, token, api.VerificationCode(config), "abcd1234")
				Expect(err).NotTo(HaveOccurred())

				_, err = apiClient.RegisterUser(ctx, token, api.VerificationCode(config), "abcd1234")
				Expect(err).To(MatchError(client.ErrUnexpectedStatus))

				var statusErr *client.UnexpectedStatusError

				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.Actual).To(Equal(http.StatusNotFound))
			})
		})

		Describe("Given an unknown token", func() {
			It("should fail with a 404", func() {
				_, err := apiClient.RegisterUser(ctx, client.PendingToken(api.GenerateTestID()), api.VerificationCode(config), "abcd1234")

				var statusErr *client.UnexpectedStatusError

				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.Actual).To(Equal(http.StatusNotFound))
				Expect(statusErr.Error()).To(Equal("Expected status code 200, got 404"))
			})
		})
	})
})
