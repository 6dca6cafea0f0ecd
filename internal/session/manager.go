package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/apiclient"
	"github.com/ErlanBelekov/storefront-client/internal/domain"
	ctxlog "github.com/ErlanBelekov/storefront-client/internal/log"
	"github.com/ErlanBelekov/storefront-client/internal/metrics"
	"github.com/ErlanBelekov/storefront-client/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultStorageName is the key the persisted session lives under.
const DefaultStorageName = "auth-storage"

// persistTimeout bounds a snapshot write. The write is detached from the
// caller's cancellation so a cleared session is never left on disk.
const persistTimeout = 5 * time.Second

// doer is the subset of *apiclient.Client the manager needs.
type doer interface {
	Do(ctx context.Context, call apiclient.Call) (*apiclient.Response, error)
}

// State is a point-in-time copy of the session. IsAuthenticated is derived:
// true iff AccessToken and User are both present.
type State struct {
	AccessToken     string
	User            *domain.UserProfile
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Manager owns the access credential, the user profile and the session
// flags. All mutation goes through its methods; no lock is held across a
// network call.
type Manager struct {
	client doer
	repo   repository.StateRepository
	name   string
	logger *slog.Logger

	persistMu sync.Mutex // orders writes to repo with the transitions producing them
	mu        sync.RWMutex
	state     State
}

// Open starts a session lifecycle: it restores the persisted snapshot stored
// under name, falling back to an anonymous session when there is none or it
// cannot be decoded.
func Open(ctx context.Context, client doer, repo repository.StateRepository, name string, logger *slog.Logger) (*Manager, error) {
	if name == "" {
		name = DefaultStorageName
	}
	m := &Manager{
		client: client,
		repo:   repo,
		name:   name,
		logger: logger.With("component", "session"),
	}

	raw, err := repo.Load(ctx, name)
	switch {
	case errors.Is(err, domain.ErrStateNotFound):
		m.logger.DebugContext(ctx, "no persisted session", "storage", name)
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	default:
		snap, err := decodeSnapshot(raw)
		if err != nil {
			m.logger.WarnContext(ctx, "discarding unreadable persisted session", "storage", name, "error", err)
			break
		}
		m.state = applySnapshot(State{}, snap)
		if snap.IsAuthenticated && !m.state.IsAuthenticated {
			m.logger.WarnContext(ctx, "persisted session missing credential or profile, starting anonymous", "storage", name)
		}
	}

	setAuthenticatedGauge(m.state.IsAuthenticated)
	return m, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string              `json:"access_token"`
	User        *domain.UserProfile `json:"user"`
	Message     string              `json:"message"`
}

// Login exchanges credentials for a session. On any failure the previous
// credential and profile stay as they were and Error explains why.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	m.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})

	resp, err := m.client.Do(ctx, apiclient.Call{
		Method: http.MethodPost,
		Path:   apiclient.PathLogin,
		Body:   loginRequest{Email: email, Password: password},
	})
	if err != nil {
		msg := apiclient.Message(err, "Login failed.")
		m.fail(msg)
		m.logger.ErrorContext(ctx, "login failed", "error", msg)
		return false
	}

	var body loginResponse
	if err := resp.Decode(&body); err != nil || body.AccessToken == "" || body.User == nil {
		m.fail("Login failed: No access token or user data received.")
		m.logger.ErrorContext(ctx, "login response incomplete", "error", err)
		return false
	}

	m.transition(ctx, func(s *State) {
		s.AccessToken = body.AccessToken
		s.User = body.User
		s.IsLoading = false
		s.Error = ""
	})
	m.logger.InfoContext(ctxlog.WithUserID(ctx, body.User.ID), "login successful", "message", body.Message)
	return true
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	Message string              `json:"message"`
	User    *domain.UserProfile `json:"user"`
}

// Register creates an account. It never establishes a session; callers log
// in separately.
func (m *Manager) Register(ctx context.Context, username, email, password string) bool {
	m.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})

	resp, err := m.client.Do(ctx, apiclient.Call{
		Method: http.MethodPost,
		Path:   apiclient.PathRegister,
		Body:   registerRequest{Username: username, Email: email, Password: password},
	})
	if err != nil {
		msg := apiclient.Message(err, "Registration failed.")
		m.fail(msg)
		m.logger.ErrorContext(ctx, "registration failed", "error", msg)
		return false
	}

	var body registerResponse
	if err := resp.Decode(&body); err != nil || body.Message == "" || resp.StatusCode != http.StatusCreated {
		m.fail("Registration failed: Unexpected response.")
		m.logger.ErrorContext(ctx, "registration response unexpected", "status", resp.StatusCode, "error", err)
		return false
	}

	m.update(func(s *State) {
		s.IsLoading = false
		s.Error = ""
	})
	m.logger.InfoContext(ctx, "registration successful", "message", body.Message, "username", username)
	return true
}

// Logout tells the backend to revoke both credentials and then clears the
// local session unconditionally. Backend failures are only logged.
func (m *Manager) Logout(ctx context.Context) {
	m.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})
	defer func() {
		m.transition(ctx, func(s *State) {
			s.AccessToken = ""
			s.User = nil
			s.IsLoading = false
			s.Error = ""
		})
		m.logger.InfoContext(ctx, "logged out, local session cleared")
	}()

	if m.AccessToken() != "" {
		_, err := m.client.Do(ctx, apiclient.Call{
			Method: http.MethodPost,
			Path:   apiclient.PathLogout,
			Body:   struct{}{},
		})
		if err != nil {
			m.logger.WarnContext(ctx, "logout call failed", "error", apiclient.Message(err, ""))
		}
	}

	if _, err := m.client.Do(ctx, apiclient.Call{
		Method: http.MethodPost,
		Path:   apiclient.PathLogoutRefresh,
		Body:   struct{}{},
	}); err != nil {
		m.logger.WarnContext(ctx, "refresh token logout call failed", "error", apiclient.Message(err, ""))
	}
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// RefreshAccessToken mints a new access token from the refresh cookie the
// transport holds. Success replaces only the credential; failure ends the
// session. With no session to refresh it fails without calling the backend.
func (m *Manager) RefreshAccessToken(ctx context.Context) bool {
	m.mu.Lock()
	if !m.state.IsAuthenticated {
		m.state.Error = "Failed to refresh token: " + domain.ErrNoSession.Error() + "."
		m.mu.Unlock()
		metrics.TokenRefreshesTotal.WithLabelValues("no_session").Inc()
		return false
	}
	m.state.IsLoading = true
	m.state.Error = ""
	m.mu.Unlock()

	resp, err := m.client.Do(ctx, apiclient.Call{
		Method: http.MethodPost,
		Path:   apiclient.PathRefresh,
	})
	if err != nil {
		m.expire(ctx, apiclient.Message(err, "Failed to refresh token."))
		return false
	}

	var body refreshResponse
	if err := resp.Decode(&body); err != nil || body.AccessToken == "" {
		m.expire(ctx, "Failed to refresh token: No new token received.")
		return false
	}

	m.transition(ctx, func(s *State) {
		s.AccessToken = body.AccessToken
		s.IsLoading = false
		s.Error = ""
	})
	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	m.logger.InfoContext(ctx, "access token refreshed")
	return true
}

// expire ends the session after a failed refresh, forcing a new login.
func (m *Manager) expire(ctx context.Context, msg string) {
	m.transition(ctx, func(s *State) {
		s.AccessToken = ""
		s.User = nil
		s.IsLoading = false
		s.Error = msg
	})
	metrics.TokenRefreshesTotal.WithLabelValues("failure").Inc()
	m.logger.ErrorContext(ctx, "refresh token error", "error", msg)
}

// BeginRefresh is the interceptor's gate: it succeeds only for an
// authenticated session with nothing else in flight, and marks it loading.
func (m *Manager) BeginRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.IsAuthenticated || m.state.IsLoading {
		return false
	}
	m.state.IsLoading = true
	return true
}

func (m *Manager) EndRefresh() {
	m.SetLoading(false)
}

func (m *Manager) SetLoading(loading bool) {
	m.update(func(s *State) { s.IsLoading = loading })
}

func (m *Manager) ClearError() {
	m.update(func(s *State) { s.Error = "" })
}

func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	s.User = cloneUser(s.User)
	return s
}

func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.AccessToken
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsAuthenticated
}

func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsLoading
}

func (m *Manager) User() *domain.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneUser(m.state.User)
}

// TokenExpiry reads the exp claim of the held credential without verifying
// it. ok is false when there is no credential or it carries no expiry.
func (m *Manager) TokenExpiry() (exp time.Time, ok bool) {
	token := m.AccessToken()
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	e, err := parsed.Claims.GetExpirationTime()
	if err != nil || e == nil {
		return time.Time{}, false
	}
	return e.Time, true
}

// update mutates fields that are never persisted.
func (m *Manager) update(fn func(s *State)) {
	m.mu.Lock()
	fn(&m.state)
	m.mu.Unlock()
}

func (m *Manager) fail(msg string) {
	m.update(func(s *State) {
		s.IsLoading = false
		s.Error = msg
	})
}

// transition applies fn atomically, re-derives IsAuthenticated and writes
// the persisted subset. An anonymous session is stored as no record at all.
func (m *Manager) transition(ctx context.Context, fn func(s *State)) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	fn(&m.state)
	m.state.IsAuthenticated = derivedAuthenticated(m.state)
	snap := toSnapshot(m.state)
	m.mu.Unlock()

	setAuthenticatedGauge(snap.IsAuthenticated)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if !snap.IsAuthenticated && snap.AccessToken == "" && snap.User == nil {
		if err := m.repo.Delete(ctx, m.name); err != nil {
			m.logger.ErrorContext(ctx, "clear persisted session", "storage", m.name, "error", err)
		}
		return
	}

	raw, err := encodeSnapshot(snap)
	if err == nil {
		err = m.repo.Save(ctx, m.name, raw)
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "persist session", "storage", m.name, "error", err)
	}
}

func setAuthenticatedGauge(authenticated bool) {
	if authenticated {
		metrics.SessionAuthenticated.Set(1)
		return
	}
	metrics.SessionAuthenticated.Set(0)
}
