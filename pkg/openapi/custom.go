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

package openapi

import (
	"errors"
	"regexp"
)

var ErrInvalidServerName = errors.New("invalid server name: must consist of lower case alphanumeric characters or '-', and must start and end with an alphanumeric character")

var serverNameValidationRegex = regexp.MustCompile("^[a-z0-9]([-a-z0-9]{0,61}[a-z0-9])?$")

// ServerName is a server name as accepted by the service, it doubles as
// the guest hostname so follows DNS label rules.
type ServerName struct {
	Value string
}

func (n *ServerName) UnmarshalText(text []byte) error {
	if !serverNameValidationRegex.Match(text) {
		return ErrInvalidServerName
	}

	*n = ServerName{
		Value: string(text),
	}

	return nil
}
