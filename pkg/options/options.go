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

// Package options defines the command line and environment configuration of
// the smoke runner.
package options

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/smoke/pkg/client"
	"github.com/unikorn-cloud/smoke/pkg/logging"
	"github.com/unikorn-cloud/smoke/pkg/openapi"
	"github.com/unikorn-cloud/smoke/pkg/runner"
)

var (
	// ErrInvalidBaseURL is raised when the service URL is unusable.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidTimeout is raised when the request timeout is unusable.
	ErrInvalidTimeout = errors.New("invalid request timeout")
)

const (
	// DefaultBaseURL is where the service listens during development.
	DefaultBaseURL = "http://localhost:3000"

	// DefaultRequestTimeout bounds each request.
	DefaultRequestTimeout = 30 * time.Second
)

// Options holds everything configurable about a run.
type Options struct {
	BaseURL          string
	RequestTimeout   time.Duration
	VerificationCode string
	Username         string
	Email            string
	Password         string
	ServerName       string
	ServerPlan       int
	ServerPassword   string
	Preflight        bool
	ValidateSchema   bool
	LogRequests      bool
	LogResponses     bool
	Logging          logging.Config
}

// LoadEnvFile seeds the environment from a .env file, if one exists.
// Variables already set take precedence.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// New returns options populated from defaults, overridden by the environment.
func New() *Options {
	logDefaults := logging.DefaultConfig()

	return &Options{
		BaseURL:          getStringWithDefault("SMOKE_BASE_URL", DefaultBaseURL),
		RequestTimeout:   getDurationWithDefault("SMOKE_REQUEST_TIMEOUT", DefaultRequestTimeout),
		VerificationCode: os.Getenv("SMOKE_VERIFICATION_CODE"),
		Username:         getStringWithDefault("SMOKE_USERNAME", runner.DefaultUsername),
		Email:            getStringWithDefault("SMOKE_EMAIL", runner.DefaultEmail),
		Password:         getStringWithDefault("SMOKE_PASSWORD", runner.DefaultPassword),
		ServerName:       getStringWithDefault("SMOKE_SERVER_NAME", runner.DefaultServerName),
		ServerPlan:       getIntWithDefault("SMOKE_SERVER_PLAN", runner.DefaultServerPlan),
		ServerPassword:   getStringWithDefault("SMOKE_SERVER_PASSWORD", runner.DefaultServerPassword),
		Preflight:        getBoolWithDefault("SMOKE_PREFLIGHT", false),
		ValidateSchema:   getBoolWithDefault("SMOKE_VALIDATE_SCHEMA", false),
		LogRequests:      getBoolWithDefault("SMOKE_LOG_REQUESTS", false),
		LogResponses:     getBoolWithDefault("SMOKE_LOG_RESPONSES", false),
		Logging: logging.Config{
			Level:  getStringWithDefault("SMOKE_LOG_LEVEL", logDefaults.Level),
			Format: getStringWithDefault("SMOKE_LOG_FORMAT", logDefaults.Format),
		},
	}
}

// AddFlags registers flags, the current values become the defaults.
func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.BaseURL, "base-url", o.BaseURL, "Root URL of the service under test.")
	f.DurationVar(&o.RequestTimeout, "request-timeout", o.RequestTimeout, "Timeout for each individual request.")
	f.StringVar(&o.VerificationCode, "verification-code", o.VerificationCode, "Verification code to register with, prompted for if not set.")
	f.StringVar(&o.Username, "username", o.Username, "Username of the user to create.")
	f.StringVar(&o.Email, "email", o.Email, "Email address of the user to create.")
	f.StringVar(&o.Password, "password", o.Password, "Password to register the user with.")
	f.StringVar(&o.ServerName, "server-name", o.ServerName, "Name of the server to create.")
	f.IntVar(&o.ServerPlan, "server-plan", o.ServerPlan, "Plan of the server to create.")
	f.StringVar(&o.ServerPassword, "server-password", o.ServerPassword, "Password of the server to create.")
	f.BoolVar(&o.Preflight, "preflight", o.Preflight, "Check the service is up before starting.")
	f.BoolVar(&o.ValidateSchema, "validate-schema", o.ValidateSchema, "Validate all traffic against the service schema.")
	f.BoolVar(&o.LogRequests, "log-requests", o.LogRequests, "Log every request.")
	f.BoolVar(&o.LogResponses, "log-responses", o.LogResponses, "Log every response body.")
	f.StringVar(&o.Logging.Level, "log-level", o.Logging.Level, "Minimum log level, one of debug, info, warn or error.")
	f.StringVar(&o.Logging.Format, "log-format", o.Logging.Format, "Log format, one of text or json.")
}

// Credentials returns the user to create.
func (o *Options) Credentials() client.Credentials {
	return client.Credentials{
		Username: o.Username,
		Email:    o.Email,
	}
}

// ServerSpec returns the server to create.
func (o *Options) ServerSpec() client.ServerSpec {
	return client.ServerSpec{
		Name:           o.ServerName,
		Plan:           o.ServerPlan,
		ServerPassword: o.ServerPassword,
	}
}

// Validate checks the options are usable.
func (o *Options) Validate() error {
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q must be an absolute http or https URL", ErrInvalidBaseURL, o.BaseURL)
	}

	if o.RequestTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, o.RequestTimeout)
	}

	spec := o.ServerSpec()

	return spec.Validate()
}

// ClientConfig returns the client configuration.
func (o *Options) ClientConfig(ctx context.Context) (client.Config, error) {
	config := client.Config{
		BaseURL:        o.BaseURL,
		RequestTimeout: o.RequestTimeout,
		LogRequests:    o.LogRequests,
		LogResponses:   o.LogResponses,
	}

	if o.ValidateSchema {
		validator, err := openapi.NewValidator(ctx)
		if err != nil {
			return config, err
		}

		config.Validator = validator
	}

	return config, nil
}

// SetupLogging returns the logger for the run.
func (o *Options) SetupLogging() (logr.Logger, error) {
	return logging.New(o.Logging)
}

// getStringWithDefault gets a string from environment variable or returns default.
func getStringWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getDurationWithDefault gets a duration from environment variable or returns default.
func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getBoolWithDefault gets a boolean from environment variable or returns default.
func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getIntWithDefault gets an integer from environment variable or returns default.
func getIntWithDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}
