package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/handler"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/middleware"
	"github.com/ErlanBelekov/storefront-client/internal/usecase"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeAuthUsecase implements the unexported authUsecaser interface via method matching.
type fakeAuthUsecase struct {
	register func(ctx context.Context, in usecase.RegisterInput) (*domain.User, error)
	login    func(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error)
	refresh  func(ctx context.Context, refreshToken string) (string, error)
	revoke   func(ctx context.Context, claims *domain.TokenClaims) error
}

func (f *fakeAuthUsecase) Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, error) {
	return f.register(ctx, in)
}

func (f *fakeAuthUsecase) Login(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error) {
	return f.login(ctx, email, password)
}

func (f *fakeAuthUsecase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return f.refresh(ctx, refreshToken)
}

func (f *fakeAuthUsecase) Revoke(ctx context.Context, claims *domain.TokenClaims) error {
	return f.revoke(ctx, claims)
}

// tokenVerifier accepts "access-<id>" as a bearer and "refresh-<id>" as a
// cookie, for user 1.
type tokenVerifier struct{}

func (tokenVerifier) Verify(_ context.Context, raw string, kind domain.TokenKind) (*domain.TokenClaims, error) {
	if raw != string(kind)+"-1" {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.TokenClaims{UserID: 1, TokenID: raw, Kind: kind}, nil
}

func newAuthEngine(uc *fakeAuthUsecase) *gin.Engine {
	h := handler.NewAuthHandler(uc, false, discard)

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", middleware.Refresh(tokenVerifier{}, discard), h.Refresh)
	r.POST("/auth/logout", middleware.Auth(tokenVerifier{}, discard), h.Logout)
	r.POST("/auth/logout_refresh", middleware.Refresh(tokenVerifier{}, discard), h.LogoutRefresh)
	return r
}

func postJSON(r http.Handler, path, body string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, o := range opts {
		o(req)
	}
	r.ServeHTTP(w, req)
	return w
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func refreshCookie(tok string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: middleware.RefreshCookie, Value: tok}) }
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

func findCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.RefreshCookie {
			return c
		}
	}
	return nil
}

// ---- Register ----

func TestRegister_MissingField_Returns400(t *testing.T) {
	w := postJSON(newAuthEngine(&fakeAuthUsecase{}), "/auth/register", `{"username":"ada","email":"ada@example.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if got := decode(t, w)["message"]; got != "Missing username, email, or password" {
		t.Errorf("message = %v", got)
	}
}

func TestRegister_Duplicates_Return409(t *testing.T) {
	for _, tc := range []struct {
		err error
		msg string
	}{
		{domain.ErrUsernameTaken, "Username already taken"},
		{domain.ErrEmailTaken, "Email already registered"},
	} {
		uc := &fakeAuthUsecase{register: func(context.Context, usecase.RegisterInput) (*domain.User, error) {
			return nil, tc.err
		}}
		w := postJSON(newAuthEngine(uc), "/auth/register", `{"username":"ada","email":"ada@example.com","password":"pw"}`)

		if w.Code != http.StatusConflict {
			t.Errorf("%v: status = %d, want 409", tc.err, w.Code)
		}
		if got := decode(t, w)["message"]; got != tc.msg {
			t.Errorf("%v: message = %v", tc.err, got)
		}
	}
}

func TestRegister_Success_Returns201(t *testing.T) {
	uc := &fakeAuthUsecase{register: func(_ context.Context, in usecase.RegisterInput) (*domain.User, error) {
		return &domain.User{ID: 7, Username: in.Username, Email: in.Email}, nil
	}}
	w := postJSON(newAuthEngine(uc), "/auth/register", `{"username":"ada","email":"ada@example.com","password":"pw"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	body := decode(t, w)
	if body["message"] != "User registered successfully" {
		t.Errorf("message = %v", body["message"])
	}
	user, _ := body["user"].(map[string]any)
	if user["username"] != "ada" || user["id"] != float64(7) {
		t.Errorf("user = %v", user)
	}
}

// ---- Login ----

func TestLogin_BadCredentials_Returns401(t *testing.T) {
	uc := &fakeAuthUsecase{login: func(context.Context, string, string) (*domain.User, domain.TokenPair, error) {
		return nil, domain.TokenPair{}, domain.ErrBadCredential
	}}
	w := postJSON(newAuthEngine(uc), "/auth/login", `{"email":"ada@example.com","password":"nope"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if findCookie(w) != nil {
		t.Error("refresh cookie set on failed login")
	}
}

func TestLogin_InternalError_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{login: func(context.Context, string, string) (*domain.User, domain.TokenPair, error) {
		return nil, domain.TokenPair{}, errors.New("db down")
	}}
	w := postJSON(newAuthEngine(uc), "/auth/login", `{"email":"ada@example.com","password":"pw"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestLogin_Success_ReturnsAccessTokenAndRefreshCookie(t *testing.T) {
	uc := &fakeAuthUsecase{login: func(context.Context, string, string) (*domain.User, domain.TokenPair, error) {
		return &domain.User{ID: 1, Username: "ada", Email: "ada@example.com"}, domain.TokenPair{
			AccessToken:      "access-1",
			RefreshToken:     "refresh-1",
			RefreshExpiresAt: time.Now().Add(time.Hour),
		}, nil
	}}
	w := postJSON(newAuthEngine(uc), "/auth/login", `{"email":"ada@example.com","password":"pw"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decode(t, w)
	if body["access_token"] != "access-1" || body["message"] != "Login successful" {
		t.Errorf("body = %v", body)
	}
	if _, leaked := body["refresh_token"]; leaked {
		t.Error("refresh token must not appear in the body")
	}

	c := findCookie(w)
	if c == nil {
		t.Fatal("no refresh cookie")
	}
	if c.Value != "refresh-1" || !c.HttpOnly || c.Path != "/auth" || c.MaxAge <= 0 {
		t.Errorf("cookie = %+v", c)
	}
}

// ---- Refresh ----

func TestRefresh_WithCookie_ReturnsNewAccessToken(t *testing.T) {
	uc := &fakeAuthUsecase{refresh: func(_ context.Context, raw string) (string, error) {
		if raw != "refresh-1" {
			t.Errorf("refresh got %q", raw)
		}
		return "access-2", nil
	}}
	w := postJSON(newAuthEngine(uc), "/auth/refresh", ``, refreshCookie("refresh-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["access_token"]; got != "access-2" {
		t.Errorf("access_token = %v", got)
	}
}

func TestRefresh_WithoutCookie_Returns401(t *testing.T) {
	w := postJSON(newAuthEngine(&fakeAuthUsecase{}), "/auth/refresh", ``)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRefresh_LostRaceWithRevocation_Returns401(t *testing.T) {
	uc := &fakeAuthUsecase{refresh: func(context.Context, string) (string, error) {
		return "", domain.ErrTokenRevoked
	}}
	w := postJSON(newAuthEngine(uc), "/auth/refresh", ``, refreshCookie("refresh-1"))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---- Logout ----

func TestLogout_RevokesAccessToken(t *testing.T) {
	var revoked *domain.TokenClaims
	uc := &fakeAuthUsecase{revoke: func(_ context.Context, c *domain.TokenClaims) error {
		revoked = c
		return nil
	}}
	w := postJSON(newAuthEngine(uc), "/auth/logout", ``, bearer("access-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if revoked == nil || revoked.Kind != domain.TokenAccess || revoked.TokenID != "access-1" {
		t.Errorf("revoked = %+v", revoked)
	}
	if got := decode(t, w)["message"]; got != "Successfully logged out (access token revoked)" {
		t.Errorf("message = %v", got)
	}
}

func TestLogoutRefresh_RevokesRefreshTokenAndClearsCookie(t *testing.T) {
	var revoked *domain.TokenClaims
	uc := &fakeAuthUsecase{revoke: func(_ context.Context, c *domain.TokenClaims) error {
		revoked = c
		return nil
	}}
	w := postJSON(newAuthEngine(uc), "/auth/logout_refresh", ``, refreshCookie("refresh-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if revoked == nil || revoked.Kind != domain.TokenRefresh {
		t.Errorf("revoked = %+v", revoked)
	}
	if c := findCookie(w); c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", c)
	}
}

func TestLogout_RevokeFailure_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{revoke: func(context.Context, *domain.TokenClaims) error {
		return errors.New("store down")
	}}
	w := postJSON(newAuthEngine(uc), "/auth/logout", ``, bearer("access-1"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
