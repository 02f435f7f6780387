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
	"bytes"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/unikorn-cloud/smoke/pkg/runner"
	"github.com/unikorn-cloud/smoke/pkg/testing/fakeservice"
	"github.com/unikorn-cloud/smoke/test/api"
)

var _ = Describe("Smoke Run", func() {
	Context("When running the full flow", func() {
		It("should complete every step in order", func() {
			credentials := api.NewCredentials().Build()
			spec := api.NewServerPayload().Build()

			var out bytes.Buffer

			r := runner.New(apiClient, runner.StaticCode(api.VerificationCode(config)),
				runner.WithCredentials(credentials),
				runner.WithServerSpec(spec),
				runner.WithOutput(&out),
			)

			result, err := r.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			steps := make([]runner.Step, 0, len(result.Steps))
			for _, s := range result.Steps {
				steps = append(steps, s.Step)
			}

			Expect(steps).To(Equal([]runner.Step{
				runner.StepCreateUser,
				runner.StepVerify,
				runner.StepRegisterUser,
				runner.StepCreateServer,
			}))

			Expect(out.String()).To(ContainSubstring("User " + credentials.Username + " created successfully"))
			Expect(out.String()).To(ContainSubstring("User " + credentials.Username + " registered successfully"))
			Expect(out.String()).To(ContainSubstring("Server " + spec.Name + " created successfully"))

			GinkgoWriter.Printf("Smoke run completed in %s\n", result.Duration)
		})
	})

	Context("When a step fails", func() {
		It("should stop and name the failed step", func() {
			fakeTarget := api.StartFake(config, fakeservice.WithOverride(http.MethodPost, "/users/register", http.StatusInternalServerError, ""))
			c := api.NewClient(ctx, config, fakeTarget)

			r := runner.New(c, runner.StaticCode(api.VerificationCode(config)),
				runner.WithCredentials(api.NewCredentials().Build()),
				runner.WithOutput(GinkgoWriter),
			)

			_, err := r.Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("Expected status code 200, got 500")))

			step, ok := runner.FailedStep(err)
			Expect(ok).To(BeTrue())
			Expect(step).To(Equal(runner.StepRegisterUser))
			Expect(fakeTarget.Fake.RequestsTo("/servers")).To(BeEmpty())
		})
	})
})
