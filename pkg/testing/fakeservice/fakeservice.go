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

// Package fakeservice provides an in-process implementation of the
// provisioning service contract.  Pending users are keyed by a single use
// token, sessions are opaque bearer tokens, and any route can be made to
// misbehave for failure testing.
package fakeservice

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"k8s.io/apimachinery/pkg/util/sets"
)

// User is a pending or registered user.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Server is a provisioned server.
type Server struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Plan           int    `json:"plan"`
	ServerPassword string `json:"server_password"`
	Owner          string `json:"-"`
}

// Request is a recorded request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Override replaces the service's response for a route.
type Override struct {
	Status int
	Body   string
}

// Option configures the service.
type Option func(*Service)

// WithVerificationCode makes registration require the given code.  By
// default any code is accepted, as the real service does until mail
// delivery is wired up.
func WithVerificationCode(code string) Option {
	return func(s *Service) {
		s.code = code
	}
}

// WithTokens fixes the tokens handed out by create and register, in order,
// rather than generating random ones.
func WithTokens(tokens ...string) Option {
	return func(s *Service) {
		s.tokens = append(s.tokens, tokens...)
	}
}

// WithOverride responds to method and path with the given status and body,
// regardless of the request.
func WithOverride(method, path string, status int, body string) Option {
	return func(s *Service) {
		s.overrides[method+" "+path] = Override{
			Status: status,
			Body:   body,
		}
	}
}

// Service is the fake provisioning service.
type Service struct {
	lock sync.Mutex

	router chi.Router

	code      string
	tokens    []string
	overrides map[string]Override

	// pending maps a create user token to the user awaiting verification.
	pending map[string]*User
	// consumed remembers create user tokens that have been used.
	consumed sets.Set[string]
	// sessions maps a session token to its username.
	sessions map[string]string
	users    []User
	servers  []Server
	requests []Request
}

// New returns a new fake service.
func New(options ...Option) *Service {
	s := &Service{
		overrides: map[string]Override{},
		pending:   map[string]*User{},
		consumed:  sets.New[string](),
		sessions:  map[string]string{},
	}

	for _, o := range options {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(s.record, s.override)
	r.Get("/", s.root)
	r.Post("/users", s.createUser)
	r.Post("/users/register", s.registerUser)
	r.Post("/servers", s.createServer)

	s.router = r

	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Requests returns all requests received so far.
func (s *Service) Requests() []Request {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)

	return out
}

// RequestsTo returns all requests received for a path.
func (s *Service) RequestsTo(path string) []Request {
	var out []Request

	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}

	return out
}

// Users returns all registered users.
func (s *Service) Users() []User {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]User, len(s.users))
	copy(out, s.users)

	return out
}

// Servers returns all provisioned servers.
func (s *Service) Servers() []Server {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]Server, len(s.servers))
	copy(out, s.servers)

	return out
}

// PendingUsers returns the number of users awaiting verification.
func (s *Service) PendingUsers() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.pending)
}

// nextToken must be called with the lock held.
func (s *Service) nextToken() string {
	if len(s.tokens) > 0 {
		token := s.tokens[0]
		s.tokens = s.tokens[1:]

		return token
	}

	return uuid.NewString()
}

func (s *Service) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unreadable request body")
			return
		}

		s.lock.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.lock.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Service) override(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o, ok := s.overrides[r.Method+" "+r.URL.Path]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if o.Body != "" {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(o.Status)

		if o.Body != "" {
			_, _ = w.Write([]byte(o.Body))
		}
	})
}

func (s *Service) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello, World!"))
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerUserRequest struct {
	Token    string `json:"token"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type createServerRequest struct {
	Name           string `json:"name"`
	Plan           int    `json:"plan"`
	ServerPassword string `json:"server_password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (s *Service) createUser(w http.ResponseWriter, r *http.Request) {
	var request createUserRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	if request.Username == "" || request.Email == "" {
		writeError(w, http.StatusBadRequest, "Username and email are required")
		return
	}

	s.lock.Lock()
	token := s.nextToken()
	s.pending[token] = &User{
		Username: request.Username,
		Email:    request.Email,
	}
	s.lock.Unlock()

	writeJSON(w, http.StatusOK, &tokenResponse{Token: token})
}

func (s *Service) registerUser(w http.ResponseWriter, r *http.Request) {
	var request registerUserRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	user, ok := s.pending[request.Token]
	if !ok {
		message := "User data not found"

		if s.consumed.Has(request.Token) {
			message = "Token already used"
		}

		writeError(w, http.StatusNotFound, message)

		return
	}

	if s.code != "" && request.Code != s.code {
		writeError(w, http.StatusBadRequest, "Invalid verification code")
		return
	}

	delete(s.pending, request.Token)
	s.consumed.Insert(request.Token)

	user.Password = request.Password
	s.users = append(s.users, *user)

	session := s.nextToken()
	s.sessions[session] = user.Username

	writeJSON(w, http.StatusOK, &tokenResponse{Token: session})
}

func (s *Service) createServer(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing authorization header")
		return
	}

	var request createServerRequest

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	owner, ok := s.sessions[token]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	server := Server{
		ID:             uuid.NewString(),
		Name:           request.Name,
		Plan:           request.Plan,
		ServerPassword: request.ServerPassword,
		Owner:          owner,
	}

	s.servers = append(s.servers, server)

	writeJSON(w, http.StatusOK, map[string]string{"id": server.ID})
}
