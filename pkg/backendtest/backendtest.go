// Copyright 2026 © The Vibemonitor Authors
// SPDX-License-Identifier: Apache-2.0

// Package backendtest runs a scripted Vibemonitor backend for tests.
//
// The fake speaks the real wire conventions: bearer authentication, the
// refresh grant endpoint, and the error envelope. Tests script routes
// with fixed responses and assert on the recorded requests afterwards.
//
// Example usage:
//
//	backend := backendtest.New().
//	    WithValidToken("tok-1").
//	    WithRefreshGrant("ref-1", "tok-2").
//	    Route("GET /api/v1/workspaces/ws-1/environments", 200, `[]`)
//	defer backend.Close()
//
//	client := api.New(backend.URL(), api.WithTokenProvider(tokens))
package backendtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
)

// RequestRecord captures one request the fake backend served.
type RequestRecord struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   []byte
}

type scriptedResponse struct {
	status int
	body   string
}

// Backend is the scripted fake. Safe for concurrent use.
type Backend struct {
	server *httptest.Server

	mu            sync.Mutex
	routes        map[string]scriptedResponse
	validTokens   map[string]bool
	refreshGrants map[string]string
	requests      []RequestRecord
}

// New starts a fake backend with no routes scripted. Unscripted paths
// answer 404 with the standard error envelope.
func New() *Backend {
	b := &Backend{
		routes:        make(map[string]scriptedResponse),
		validTokens:   make(map[string]bool),
		refreshGrants: make(map[string]string),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close shuts the backend down.
func (b *Backend) Close() {
	b.server.Close()
}

// WithValidToken accepts the given bearer token on authenticated routes.
func (b *Backend) WithValidToken(token string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validTokens[token] = true
	return b
}

// WithRefreshGrant scripts the refresh endpoint: presenting refreshToken
// yields accessToken, which is also registered as valid.
func (b *Backend) WithRefreshGrant(refreshToken, accessToken string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshGrants[refreshToken] = accessToken
	b.validTokens[accessToken] = true
	return b
}

// Route scripts one endpoint. The key is "METHOD /path" without query.
func (b *Backend) Route(route string, status int, body string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[route] = scriptedResponse{status: status, body: body}
	return b
}

// Requests returns a copy of every request served so far.
func (b *Backend) Requests() []RequestRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RequestRecord(nil), b.requests...)
}

// RequestsTo returns the recorded requests matching "METHOD /path".
func (b *Backend) RequestsTo(route string) []RequestRecord {
	var out []RequestRecord
	for _, record := range b.Requests() {
		if record.Method+" "+record.Path == route {
			out = append(out, record)
		}
	}
	return out
}

func (b *Backend) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	record := RequestRecord{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Token:  bearerToken(r),
		Body:   body,
	}
	b.mu.Lock()
	b.requests = append(b.requests, record)
	route, scripted := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if r.Method == http.MethodPost && r.URL.Path == "/api/v1/auth/refresh" {
		b.handleRefresh(w, body)
		return
	}

	if record.Token != "" && !b.tokenValid(record.Token) {
		writeEnvelope(w, http.StatusUnauthorized, "token expired")
		return
	}

	if !scripted {
		writeEnvelope(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, route.status, route.body)
}

func (b *Backend) handleRefresh(w http.ResponseWriter, body []byte) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.Unmarshal(body, &payload)

	b.mu.Lock()
	access, ok := b.refreshGrants[payload.RefreshToken]
	b.mu.Unlock()
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized, "refresh token revoked")
		return
	}

	grant, _ := json.Marshal(map[string]any{
		"access_token": access,
		"expires_in":   3600,
	})
	writeJSON(w, http.StatusOK, string(grant))
}

func (b *Backend) tokenValid(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.validTokens[token]
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeEnvelope(w http.ResponseWriter, status int, detail string) {
	body, _ := json.Marshal(map[string]string{"detail": detail})
	writeJSON(w, status, string(body))
}
