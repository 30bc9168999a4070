// Package api implements the authenticated HTTP client core for the
// Vibemonitor backend.
//
// Every call funnels through Client.Request, which attaches the bearer
// token, performs at most one token-refresh-and-retry when the backend
// answers 401, and folds transport and parse failures into a uniform
// Result. Request never returns a Go error: callers branch on the
// Result's Status and Error fields only.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/vibemonitor/vibemonitor-go/pkg/auth"
	"github.com/vibemonitor/vibemonitor-go/pkg/telemetry"
)

const (
	loginPath   = "/api/v1/auth/login"
	logoutPath  = "/api/v1/auth/logout"
	refreshPath = "/api/v1/auth/refresh"
)

// authFailedMessage is the fixed error surfaced when a 401 survives the
// single refresh-and-retry cycle.
const authFailedMessage = "Authentication failed"

// Client executes authenticated requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.Provider
	reporter   Reporter
	metrics    *telemetry.ClientMetrics

	// refreshMu serializes token refreshes so concurrent 401s collapse
	// into one refresh call instead of racing the token store.
	refreshMu sync.Mutex

	now func() time.Time
}

// Option configures the client.
type Option func(*Client)

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		tokens:     auth.NewMemory(),
		reporter:   logReporter{},
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTokenProvider sets the credential store consulted on every request.
func WithTokenProvider(tokens auth.Provider) Option {
	return func(c *Client) {
		if tokens != nil {
			c.tokens = tokens
		}
	}
}

// WithReporter sets the session-level failure reporter.
func WithReporter(reporter Reporter) Option {
	return func(c *Client) {
		if reporter != nil {
			c.reporter = reporter
		}
	}
}

// WithMetrics enables request and auth lifecycle metrics.
func WithMetrics(metrics *telemetry.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// Request executes one authenticated call. An expired token is refreshed
// before sending; a 401 answer triggers exactly one refresh and one
// re-issue of the identical request, whose result is returned as-is.
func (c *Client) Request(ctx context.Context, method, path string, payload any) Result {
	// Pre-flight: refresh a stale token before building the request. A
	// failed refresh is reported but the request is still attempted; the
	// backend's 401 is the authoritative answer.
	creds, err := c.tokens.Load()
	if err == nil && creds.RefreshToken != "" && creds.Expired(c.now()) {
		_ = c.refresh(ctx, creds.AccessToken)
	}

	result, attachedToken := c.send(ctx, method, path, payload, true)

	retried := false
	if result.Status == http.StatusUnauthorized && attachedToken != "" {
		if err := c.refresh(ctx, attachedToken); err != nil {
			c.record(ctx, method, http.StatusUnauthorized, false)
			return Result{Error: authFailedMessage, Status: http.StatusUnauthorized}
		}
		// One retry with the new token; its result stands even if the
		// backend answers 401 again.
		result, _ = c.send(ctx, method, path, payload, true)
		retried = true
	}

	c.record(ctx, method, result.Status, retried)
	return result
}

// PublicRequest executes one call without credentials. No token is
// attached and a 401 is returned to the caller without any refresh.
func (c *Client) PublicRequest(ctx context.Context, method, path string, payload any) Result {
	result, _ := c.send(ctx, method, path, payload, false)
	c.record(ctx, method, result.Status, false)
	return result
}

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, email, password string) Result {
	payload := map[string]string{"email": email, "password": password}
	result := c.PublicRequest(ctx, http.MethodPost, loginPath, payload)
	if !result.OK() {
		return result
	}
	if err := c.storeTokenGrant(result.Data); err != nil {
		return Result{Error: err.Error(), Status: result.Status}
	}
	return result
}

// Logout revokes the session server-side (best effort) and clears all
// stored tokens.
func (c *Client) Logout(ctx context.Context) error {
	c.Request(ctx, http.MethodPost, logoutPath, nil)
	return c.tokens.Clear()
}

// refresh performs one serialized token refresh. staleAccess is the
// access token the caller observed failing; when another goroutine has
// already replaced it, the refresh is skipped. Any failure clears every
// stored token and reports an auth error with a redirect flag. This is
// the single place tokens are invalidated wholesale.
func (c *Client) refresh(ctx context.Context, staleAccess string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	creds, err := c.tokens.Load()
	if err != nil {
		return err
	}
	if creds.AccessToken != "" && creds.AccessToken != staleAccess && !creds.Expired(c.now()) {
		// A concurrent caller refreshed while we waited on the mutex.
		return nil
	}
	if creds.RefreshToken == "" {
		return c.failRefresh(ctx, fmt.Errorf("no refresh token available"))
	}

	payload := map[string]string{"refresh_token": creds.RefreshToken}
	result, _ := c.send(ctx, http.MethodPost, refreshPath, payload, false)
	if !result.OK() {
		return c.failRefresh(ctx, fmt.Errorf("refresh rejected with status %d", result.Status))
	}
	if err := c.storeTokenGrant(result.Data); err != nil {
		return c.failRefresh(ctx, err)
	}
	c.metrics.RecordRefresh(ctx, true)
	return nil
}

func (c *Client) failRefresh(ctx context.Context, cause error) error {
	_ = c.tokens.Clear()
	c.metrics.RecordRefresh(ctx, false)
	c.metrics.RecordAuthRedirect(ctx)
	c.reporter.AuthError(ctx, "Your session has expired. Please sign in again.", true)
	return cause
}

// storeTokenGrant persists the token pair from a login or refresh body.
func (c *Client) storeTokenGrant(data json.RawMessage) error {
	var grant struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(data, &grant); err != nil {
		return fmt.Errorf("malformed token grant: %w", err)
	}
	if grant.AccessToken == "" {
		return fmt.Errorf("token grant carries no access token")
	}
	var expiresAt time.Time
	if grant.ExpiresIn > 0 {
		expiresAt = c.now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	}
	if err := c.tokens.StoreAccess(grant.AccessToken, expiresAt); err != nil {
		return err
	}
	if grant.RefreshToken != "" {
		return c.tokens.StoreRefresh(grant.RefreshToken)
	}
	return nil
}

// send performs a single HTTP exchange. It returns the access token that
// was attached (empty for unauthenticated sends) so the caller can decide
// whether a 401 warrants a refresh.
func (c *Client) send(ctx context.Context, method, path string, payload any, authenticated bool) (Result, string) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Result{Error: err.Error(), Status: http.StatusInternalServerError}, ""
		}
		body = bytes.NewReader(raw)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return Result{Error: err.Error(), Status: http.StatusInternalServerError}, ""
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("ngrok-skip-browser-warning", "true")
	request.Header.Set("X-Request-Id", uuid.NewString())

	attachedToken := ""
	if authenticated {
		if creds, err := c.tokens.Load(); err == nil && creds.AccessToken != "" {
			request.Header.Set("Authorization", "Bearer "+creds.AccessToken)
			attachedToken = creds.AccessToken
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(request.Header))

	response, err := c.httpClient.Do(request)
	if err != nil {
		c.reporter.NetworkError(ctx, err)
		return Result{Error: err.Error(), Status: http.StatusInternalServerError, Transport: true}, attachedToken
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		c.reporter.NetworkError(ctx, err)
		return Result{Error: err.Error(), Status: http.StatusInternalServerError, Transport: true}, attachedToken
	}

	result := Result{
		Data:   decodeBody(response, raw),
		Status: response.StatusCode,
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		result.Error = errorMessage(result.Data, response.Status)
	}
	return result, attachedToken
}

func (c *Client) endpoint(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) record(ctx context.Context, method string, status int, retried bool) {
	c.metrics.RecordRequest(ctx, method, status, retried)
}
