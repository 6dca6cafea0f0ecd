package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeVerifier struct {
	verify func(ctx context.Context, raw string, kind domain.TokenKind) (*domain.TokenClaims, error)
}

func (f *fakeVerifier) Verify(ctx context.Context, raw string, kind domain.TokenKind) (*domain.TokenClaims, error) {
	return f.verify(ctx, raw, kind)
}

// acceptOnly accepts exactly one raw token of one kind as user 42.
func acceptOnly(token string, kind domain.TokenKind) *fakeVerifier {
	return &fakeVerifier{verify: func(_ context.Context, raw string, k domain.TokenKind) (*domain.TokenClaims, error) {
		if raw != token || k != kind {
			return nil, domain.ErrTokenInvalid
		}
		return &domain.TokenClaims{UserID: 42, TokenID: "jti-1", Kind: k}, nil
	}}
}

// newEngine protects GET /protected with Auth and GET /refresh with Refresh.
// Handlers echo what the middleware put in the context.
func newEngine(v middleware.TokenVerifier) *gin.Engine {
	r := gin.New()
	echo := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": middleware.UserID(c), "jti": middleware.Claims(c).TokenID})
	}
	r.GET("/protected", middleware.Auth(v, discard), echo)
	r.GET("/refresh", middleware.Refresh(v, discard), echo)
	return r
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body.Message
}

func TestAuth_MissingHeader_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	newEngine(acceptOnly("good", domain.TokenAccess)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if got := message(t, w); got != "Missing Authorization Header" {
		t.Errorf("message = %q", got)
	}
}

func TestAuth_NonBearerScheme_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	newEngine(acceptOnly("good", domain.TokenAccess)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_VerifierErrors_MapToMessages(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.ErrTokenExpired, http.StatusUnauthorized, "Token has expired"},
		{domain.ErrTokenRevoked, http.StatusUnauthorized, "Token has been revoked"},
		{domain.ErrTokenInvalid, http.StatusUnauthorized, "Invalid token"},
		{errors.New("revocation store down"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			v := &fakeVerifier{verify: func(context.Context, string, domain.TokenKind) (*domain.TokenClaims, error) {
				return nil, tc.err
			}}
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer whatever")
			newEngine(v).ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}
			if got := message(t, w); got != tc.msg {
				t.Errorf("message = %q, want %q", got, tc.msg)
			}
		})
	}
}

func TestAuth_ValidToken_PassesAndSetsUserID(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	newEngine(acceptOnly("good", domain.TokenAccess)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != `{"jti":"jti-1","user_id":42}` {
		t.Errorf("body = %s", got)
	}
}

func TestAuth_RefreshTokenNotAcceptedAsBearer(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	newEngine(acceptOnly("good", domain.TokenRefresh)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRefresh_MissingCookie_Returns401(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
	req.Header.Set("Authorization", "Bearer good")
	newEngine(acceptOnly("good", domain.TokenRefresh)).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if got := message(t, w); got != `Missing cookie "refresh_token_cookie"` {
		t.Errorf("message = %q", got)
	}
}

func TestRefresh_ValidCookie_Passes(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
	req.AddCookie(&http.Cookie{Name: middleware.RefreshCookie, Value: "good"})
	newEngine(acceptOnly("good", domain.TokenRefresh)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}
