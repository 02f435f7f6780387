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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/unikorn-cloud/smoke/pkg/client"
	"github.com/unikorn-cloud/smoke/pkg/constants"
	"github.com/unikorn-cloud/smoke/pkg/options"
	"github.com/unikorn-cloud/smoke/pkg/runner"
)

func main() {
	if err := options.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	o := options.New()

	o.AddFlags(pflag.CommandLine)

	pflag.Parse()

	if err := o.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := o.SetupLogging()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.WithName("init").Info("smoke test starting", "application", constants.Application, "version", constants.Version, "revision", constants.Revision, "baseURL", o.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := o.ClientConfig(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var codes runner.CodeProvider = runner.NewPrompt(os.Stdin, os.Stdout)

	if o.VerificationCode != "" {
		codes = runner.StaticCode(o.VerificationCode)
	}

	r := runner.New(client.New(config, logger), codes,
		runner.WithCredentials(o.Credentials()),
		runner.WithPassword(o.Password),
		runner.WithServerSpec(o.ServerSpec()),
		runner.WithPreflight(o.Preflight),
		runner.WithLogger(logger.WithName("runner")),
		runner.WithOutput(os.Stdout),
	)

	result, err := r.Run(ctx)
	if err != nil {
		// os.Exit skips deferred calls.
		stop()

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Smoke test passed: %d steps in %s\n", len(result.Steps), result.Duration)
}
