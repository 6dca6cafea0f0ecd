package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/middleware"
	"github.com/ErlanBelekov/storefront-client/internal/usecase"
	"github.com/gin-gonic/gin"
)

// refreshCookiePath scopes the refresh cookie to the endpoints that read it.
const refreshCookiePath = "/auth"

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Revoke(ctx context.Context, claims *domain.TokenClaims) error
}

type AuthHandler struct {
	authUsecase   authUsecaser
	secureCookies bool
	now           func() time.Time
	logger        *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase:   authUsecase,
		secureCookies: secureCookies,
		now:           time.Now,
		logger:        logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || blank(req.Username, req.Email, req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"message": errMissingRegistration})
		return
	}

	user, err := h.authUsecase.Register(c.Request.Context(), usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"message": errUsernameTaken})
		case errors.Is(err, domain.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"message": errEmailTaken})
		default:
			h.logger.ErrorContext(c.Request.Context(), "register", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		}
		return
	}

	h.logger.InfoContext(c.Request.Context(), "user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user.Profile()})
}

// POST /auth/login
// The access token goes in the body; the refresh token only ever travels
// in an HttpOnly cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || blank(req.Email, req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"message": errMissingLogin})
		return
	}

	user, tokens, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrBadCredential) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": errBadCredentials})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}

	maxAge := int(tokens.RefreshExpiresAt.Sub(h.now()).Seconds())
	h.setRefreshCookie(c, tokens.RefreshToken, maxAge)

	h.logger.InfoContext(c.Request.Context(), "user logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         user.Profile(),
		"access_token": tokens.AccessToken,
	})
}

// POST /auth/refresh, behind middleware.Refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, _ := c.Cookie(middleware.RefreshCookie)

	access, err := h.authUsecase.Refresh(c.Request.Context(), raw)
	if err != nil {
		// The middleware already verified the cookie; losing a race with
		// logout_refresh lands here.
		h.logger.WarnContext(c.Request.Context(), "refresh after verification", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"message": errInvalidToken})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": access})
}

// POST /auth/logout, behind middleware.Auth. Revokes the access token and
// leaves the refresh cookie for logout_refresh to revoke.
func (h *AuthHandler) Logout(c *gin.Context) {
	if !h.revoke(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out (access token revoked)"})
}

// POST /auth/logout_refresh, behind middleware.Refresh. Revokes the refresh
// token from the cookie.
func (h *AuthHandler) LogoutRefresh(c *gin.Context) {
	if !h.revoke(c) {
		return
	}
	h.setRefreshCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Refresh token successfully revoked"})
}

// GET /auth/protected, behind middleware.Auth and middleware.EnsureUser.
func (h *AuthHandler) Protected(c *gin.Context) {
	user := middleware.User(c)
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Hello, %s! You accessed a protected route.", user.Username),
		"user_id": user.ID,
	})
}

func (h *AuthHandler) revoke(c *gin.Context) bool {
	claims := middleware.Claims(c)
	if err := h.authUsecase.Revoke(c.Request.Context(), claims); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "revoke token", "kind", claims.Kind, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return false
	}
	h.logger.InfoContext(c.Request.Context(), "token revoked", "kind", claims.Kind)
	return true
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.RefreshCookie, value, maxAge, refreshCookiePath, "", h.secureCookies, true)
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}
