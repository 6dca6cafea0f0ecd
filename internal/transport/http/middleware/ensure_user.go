package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/repository"
	"github.com/gin-gonic/gin"
)

const keyUser = "user"

// EnsureUser runs after Auth. It loads the account behind the token so a
// deleted user cannot keep using a still-valid access token.
func EnsureUser(repo repository.UserRepository, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := repo.FindByID(c.Request.Context(), UserID(c))
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "User not found."})
				return
			}
			logger.ErrorContext(c.Request.Context(), "ensure user lookup", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"message": "Internal server error"})
			return
		}
		c.Set(keyUser, user)
		c.Next()
	}
}

// User returns the account loaded by EnsureUser.
func User(c *gin.Context) *domain.User {
	v, ok := c.Get(keyUser)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
