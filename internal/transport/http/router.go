package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/storefront-client/internal/repository"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/handler"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Chatbot  *handler.ChatbotHandler
}

func NewRouter(logger *slog.Logger, h Handlers, verifier middleware.TokenVerifier, userRepo repository.UserRepository, secure bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(secure))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(verifier, logger)
	refreshMW := middleware.Refresh(verifier, logger)
	ensureUser := middleware.EnsureUser(userRepo, logger)

	auth := r.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", refreshMW, h.Auth.Refresh)
	auth.POST("/logout", authMW, h.Auth.Logout)
	auth.POST("/logout_refresh", refreshMW, h.Auth.LogoutRefresh)
	auth.GET("/protected", authMW, ensureUser, h.Auth.Protected)

	// Public catalogue
	products := r.Group("/products")
	products.GET("/", h.Products.List)
	products.GET("/:id", h.Products.Get)

	// Protected cart routes
	api := r.Group("/api", authMW, ensureUser)
	api.GET("/cart", h.Cart.View)
	api.POST("/cart/add", h.Cart.Add)
	api.PUT("/cart/update/:id", h.Cart.Update)
	api.DELETE("/cart/remove/:id", h.Cart.Remove)
	api.DELETE("/cart/clear", h.Cart.Clear)
	api.POST("/checkout", h.Cart.Checkout)

	chatbot := r.Group("/chatbot", authMW, ensureUser)
	chatbot.POST("/converse", h.Chatbot.Converse)

	return r
}
