package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/metrics"
	"github.com/ErlanBelekov/storefront-client/internal/requestid"
	"golang.org/x/net/publicsuffix"
)

const (
	PathLogin         = "/auth/login"
	PathRegister      = "/auth/register"
	PathLogout        = "/auth/logout"
	PathLogoutRefresh = "/auth/logout_refresh"
	PathRefresh       = "/auth/refresh"
)

// Session is the part of the session manager the interceptor pair talks to.
type Session interface {
	AccessToken() string
	// BeginRefresh reports whether a refresh may start now and, if so, marks
	// the session as loading. It must check and mark atomically.
	BeginRefresh() bool
	RefreshAccessToken(ctx context.Context) bool
	EndRefresh()
}

// Call is one logical backend request. Attempt counts replays of the same
// call: 0 on first send, 1 after a refresh-and-retry.
type Call struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Header  http.Header
	Attempt int
}

func (c Call) retry() Call {
	c.Attempt++
	return c
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Client is the shared HTTP client every store and the session manager call
// through. It owns the cookie jar that carries the refresh cookie.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger

	mu      sync.RWMutex
	session Session
}

type Option func(*Client)

// WithHTTPClient swaps the underlying transport client. A client without a
// cookie jar gets the default one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		jar := c.http.Jar
		c.http = hc
		if c.http.Jar == nil {
			c.http.Jar = jar
		}
	}
}

// WithTimeout sets a per-attempt deadline. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func New(baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse base url: %q is not absolute", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar},
		logger:  logger.With("component", "api_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetSession installs the session the interceptors consult. Until it is
// called every request goes out unauthenticated and 401s pass through.
func (c *Client) SetSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends call and returns the 2xx response. Non-2xx answers come back as
// *APIError, transport failures wrap domain.ErrNetwork. A 401 on a first
// attempt triggers at most one refresh-and-retry through the session.
func (c *Client) Do(ctx context.Context, call Call) (*Response, error) {
	ctx, _ = requestid.Ensure(ctx)

	resp, err := c.send(ctx, call)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	apiErr := newAPIError(resp)
	if !c.shouldRefresh(call, resp.StatusCode) {
		return nil, apiErr
	}

	sess := c.currentSession()
	if !sess.BeginRefresh() {
		c.logger.DebugContext(ctx, "unauthorized, refresh not attempted", "path", call.Path)
		return nil, apiErr
	}

	c.logger.WarnContext(ctx, "access token rejected, attempting refresh", "path", call.Path)
	refreshed := sess.RefreshAccessToken(ctx)
	sess.EndRefresh()

	if !refreshed {
		c.logger.ErrorContext(ctx, "token refresh failed, session cleared", "path", call.Path)
		return nil, apiErr
	}

	metrics.ClientRetriesTotal.Inc()
	return c.Do(ctx, call.retry())
}

func (c *Client) shouldRefresh(call Call, status int) bool {
	return status == http.StatusUnauthorized &&
		call.Attempt == 0 &&
		call.Path != PathRefresh &&
		c.currentSession() != nil
}

// Ping reports whether the backend answers at all. Client errors count as
// reachable; only transport failures and 5xx do not.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.send(ctx, Call{
		Method: http.MethodGet,
		Path:   "/products/",
		Query:  url.Values{"per_page": {"1"}},
	})
	if err != nil {
		return err
	}
	if resp.StatusCode >= 500 {
		return newAPIError(resp)
	}
	return nil
}

func (c *Client) send(ctx context.Context, call Call) (*Response, error) {
	start := time.Now()
	route := routeLabel(call.Path)

	req, err := c.newRequest(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		observe(call.Method, route, "error", start)
		c.logger.WarnContext(ctx, "backend unreachable", "method", call.Method, "path", call.Path, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, call.Method, call.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(call.Method, route, "error", start)
		return nil, fmt.Errorf("%w: read %s %s: %w", domain.ErrNetwork, call.Method, call.Path, err)
	}

	observe(call.Method, route, strconv.Itoa(resp.StatusCode), start)
	c.logger.DebugContext(ctx, "backend call",
		"method", call.Method,
		"path", call.Path,
		"status", resp.StatusCode,
		"attempt", call.Attempt,
		"duration", time.Since(start),
	)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *Client) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	u := c.baseURL.JoinPath(call.Path)
	if len(call.Query) > 0 {
		u.RawQuery = call.Query.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		raw, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, u.String(), body)
	if err != nil {
		return nil, err
	}

	for k, vs := range call.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}
	return req, nil
}

// authorize is the outgoing hook: bearer credential when one is held,
// otherwise the request goes out untouched.
func (c *Client) authorize(req *http.Request) {
	sess := c.currentSession()
	if sess == nil {
		return
	}
	if token := sess.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func observe(method, route, status string, start time.Time) {
	metrics.ClientRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	metrics.ClientRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// routeLabel collapses numeric path segments so metric cardinality stays
// bounded: /api/cart/update/17 becomes /api/cart/update/:id.
func routeLabel(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
