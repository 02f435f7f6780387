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

// Package runner drives the registration smoke flow: create a user, register
// it with an out of band verification code, then provision a server with
// the resulting session.  Each step's output is the next step's input, and
// the first failure stops the run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"

	"github.com/unikorn-cloud/smoke/pkg/client"
)

// Step names a stage of the run.
type Step string

const (
	StepHealth       Step = "health"
	StepCreateUser   Step = "create-user"
	StepVerify       Step = "verification-code"
	StepRegisterUser Step = "register-user"
	StepCreateServer Step = "create-server"
)

const (
	// DefaultUsername is the user created when none is specified.
	DefaultUsername = "testuser"
	// DefaultEmail is the email registered when none is specified.
	DefaultEmail = "test@example.com"
	// DefaultPassword is the account password set on registration.
	DefaultPassword = "abcd1234"
	// DefaultServerName is the name of the provisioned server.
	DefaultServerName = "test-server"
	// DefaultServerPlan is the plan of the provisioned server.
	DefaultServerPlan = 1
	// DefaultServerPassword is the root password of the provisioned server.
	DefaultServerPassword = "abcd1234"
)

// DefaultCredentials returns the user the run creates by default.
func DefaultCredentials() client.Credentials {
	return client.Credentials{
		Username: DefaultUsername,
		Email:    DefaultEmail,
	}
}

// DefaultServerSpec returns the server the run provisions by default.
func DefaultServerSpec() client.ServerSpec {
	return client.ServerSpec{
		Name:           DefaultServerName,
		Plan:           DefaultServerPlan,
		ServerPassword: DefaultServerPassword,
	}
}

// StepError identifies the step a run failed at.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step a run error originated from, if any.
func FailedStep(err error) (Step, bool) {
	var stepErr *StepError

	if !errors.As(err, &stepErr) {
		return "", false
	}

	return stepErr.Step, true
}

// StepResult records a completed step.
type StepResult struct {
	Step     Step
	Duration time.Duration
}

// Result is the report of a run.  Tokens are never recorded.
type Result struct {
	Steps    []StepResult
	Duration time.Duration
}

// Option configures a runner.
type Option func(*Runner)

// WithCredentials overrides the user to create.
func WithCredentials(credentials client.Credentials) Option {
	return func(r *Runner) {
		r.credentials = credentials
	}
}

// WithPassword overrides the account password.
func WithPassword(password string) Option {
	return func(r *Runner) {
		r.password = password
	}
}

// WithServerSpec overrides the server to provision.
func WithServerSpec(spec client.ServerSpec) Option {
	return func(r *Runner) {
		r.server = spec
	}
}

// WithPreflight enables or disables the initial health check.
func WithPreflight(enabled bool) Option {
	return func(r *Runner) {
		r.preflight = enabled
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger logr.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithOutput sets where human readable progress is written.
func WithOutput(out io.Writer) Option {
	return func(r *Runner) {
		r.out = out
	}
}

// Runner executes the smoke flow against a service.
type Runner struct {
	client      client.ClientInterface
	codes       CodeProvider
	credentials client.Credentials
	password    string
	server      client.ServerSpec
	preflight   bool
	logger      logr.Logger
	out         io.Writer
}

// New returns a runner with the default user and server.
func New(c client.ClientInterface, codes CodeProvider, options ...Option) *Runner {
	r := &Runner{
		client:      c,
		codes:       codes,
		credentials: DefaultCredentials(),
		password:    DefaultPassword,
		server:      DefaultServerSpec(),
		logger:      logr.Discard(),
		out:         io.Discard,
	}

	for _, o := range options {
		o(r)
	}

	return r
}

// step runs a single stage, timing it and attributing any error to it.
func (r *Runner) step(ctx context.Context, result *Result, step Step, f func(context.Context) error) error {
	log := r.logger.WithValues("step", step)

	log.V(1).Info("starting step")

	start := time.Now()

	if err := f(ctx); err != nil {
		log.Error(err, "step failed")

		return &StepError{
			Step: step,
			Err:  err,
		}
	}

	duration := time.Since(start)

	result.Steps = append(result.Steps, StepResult{
		Step:     step,
		Duration: duration,
	})

	log.Info("step completed", "duration", duration)

	return nil
}

// Run executes the flow.  The returned result lists every step that
// completed, even on error.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)
	}()

	if r.preflight {
		if err := r.step(ctx, result, StepHealth, r.client.Ping); err != nil {
			return result, err
		}
	}

	var pending client.PendingToken

	if err := r.step(ctx, result, StepCreateUser, func(ctx context.Context) error {
		var err error

		pending, err = r.client.CreateUser(ctx, r.credentials)

		return err
	}); err != nil {
		return result, err
	}

	fmt.Fprintf(r.out, "User %s created successfully\n", r.credentials.Username)

	var code client.VerificationCode

	if err := r.step(ctx, result, StepVerify, func(ctx context.Context) error {
		var err error

		code, err = r.codes.VerificationCode(ctx, r.credentials)

		return err
	}); err != nil {
		return result, err
	}

	var session client.SessionToken

	if err := r.step(ctx, result, StepRegisterUser, func(ctx context.Context) error {
		var err error

		session, err = r.client.RegisterUser(ctx, pending, code, r.password)

		return err
	}); err != nil {
		return result, err
	}

	fmt.Fprintf(r.out, "User %s registered successfully\n", r.credentials.Username)

	if err := r.step(ctx, result, StepCreateServer, func(ctx context.Context) error {
		return r.client.CreateServer(ctx, session, r.server)
	}); err != nil {
		return result, err
	}

	fmt.Fprintf(r.out, "Server %s created successfully\n", r.server.Name)

	return result, nil
}
