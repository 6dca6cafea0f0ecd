package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	ctxlog "github.com/ErlanBelekov/storefront-client/internal/log"
	"github.com/gin-gonic/gin"
)

// RefreshCookie is the HttpOnly cookie the refresh token travels in.
const RefreshCookie = "refresh_token_cookie"

const (
	keyUserID = "userID"
	keyClaims = "tokenClaims"
)

// TokenVerifier is satisfied by *usecase.AuthUsecase.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string, kind domain.TokenKind) (*domain.TokenClaims, error)
}

// Auth validates a Bearer access token and sets "userID" (int64) and the
// verified claims in the gin context.
func Auth(v TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing Authorization Header"})
			return
		}
		verify(c, v, logger, strings.TrimPrefix(header, "Bearer "), domain.TokenAccess)
	}
}

// Refresh validates the refresh token carried in the RefreshCookie cookie.
func Refresh(v TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(RefreshCookie)
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": `Missing cookie "` + RefreshCookie + `"`})
			return
		}
		verify(c, v, logger, raw, domain.TokenRefresh)
	}
}

func verify(c *gin.Context, v TokenVerifier, logger *slog.Logger, raw string, kind domain.TokenKind) {
	claims, err := v.Verify(c.Request.Context(), raw, kind)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has expired"})
		case errors.Is(err, domain.ErrTokenRevoked):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has been revoked"})
		case errors.Is(err, domain.ErrTokenInvalid):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
		default:
			logger.ErrorContext(c.Request.Context(), "verify token", "kind", kind, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.Set(keyUserID, claims.UserID)
	c.Set(keyClaims, claims)
	c.Request = c.Request.WithContext(ctxlog.WithUserID(c.Request.Context(), claims.UserID))
	c.Next()
}

// UserID returns the authenticated user set by Auth or Refresh.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(keyUserID)
}

// Claims returns the verified token claims, or nil outside an authenticated route.
func Claims(c *gin.Context) *domain.TokenClaims {
	v, ok := c.Get(keyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*domain.TokenClaims)
	return claims
}
