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

package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/unikorn-cloud/smoke/pkg/client"
)

var (
	// ErrNoVerificationCode is raised when no code was supplied.
	ErrNoVerificationCode = errors.New("no verification code supplied")
)

// CodeProvider supplies the verification code the service delivered out of
// band for a newly created user.
type CodeProvider interface {
	VerificationCode(ctx context.Context, credentials client.Credentials) (client.VerificationCode, error)
}

// StaticCode always returns the same code, for unattended runs.
type StaticCode string

// VerificationCode implements CodeProvider.
func (c StaticCode) VerificationCode(_ context.Context, _ client.Credentials) (client.VerificationCode, error) {
	if c == "" {
		return "", ErrNoVerificationCode
	}

	return client.VerificationCode(c), nil
}

// Prompt asks an operator for the code.
type Prompt struct {
	lock sync.Mutex
	in   *bufio.Reader
	out  io.Writer
	// pending is an in flight read abandoned by a cancelled call, the next
	// call picks up its line.
	pending chan line
}

// NewPrompt reads codes from in, writing prompts to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{
		in:  bufio.NewReader(in),
		out: out,
	}
}

type line struct {
	text string
	err  error
}

// VerificationCode implements CodeProvider.  If the context is cancelled the
// read is left running and its line is returned by the next call.
func (p *Prompt) VerificationCode(ctx context.Context, credentials client.Credentials) (client.VerificationCode, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	fmt.Fprintf(p.out, "Enter verification code for %s: ", credentials.Email)

	if p.pending == nil {
		result := make(chan line, 1)

		go func() {
			text, err := p.in.ReadString('\n')
			result <- line{text: text, err: err}
		}()

		p.pending = result
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-p.pending:
		p.pending = nil

		// A final line without a newline is still a code.
		if l.err != nil && !(errors.Is(l.err, io.EOF) && l.text != "") {
			if errors.Is(l.err, io.EOF) {
				return "", ErrNoVerificationCode
			}

			return "", fmt.Errorf("reading verification code: %w", l.err)
		}

		code := strings.TrimSpace(l.text)
		if code == "" {
			return "", ErrNoVerificationCode
		}

		return client.VerificationCode(code), nil
	}
}
