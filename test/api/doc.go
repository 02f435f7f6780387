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

// Package api provides integration test utilities for the provisioning
// service.
//
// # Targets
//
// Suites run against a live service when API_BASE_URL is set, otherwise an
// in-process fake implementing the same contract is started for each spec.
// Failure injection is only possible against the fake, specs that need it
// are skipped when running live.
//
// # Live runs
//
// The service delivers verification codes out of band, so live runs need
// TEST_VERIFICATION_CODE to be a code the service will accept.  Credentials
// are randomized per spec so runs can be repeated against the same service.
package api
