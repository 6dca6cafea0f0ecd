package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"
)

type chatbotUsecaser interface {
	Converse(ctx context.Context, userID int64, message string) (*domain.ChatReply, error)
}

type ChatbotHandler struct {
	chatbot chatbotUsecaser
	logger  *slog.Logger
}

func NewChatbotHandler(chatbot chatbotUsecaser, logger *slog.Logger) *ChatbotHandler {
	return &ChatbotHandler{chatbot: chatbot, logger: logger.With("component", "chatbot_handler")}
}

type converseRequest struct {
	Message string `json:"message"`
}

// POST /chatbot/converse
func (h *ChatbotHandler) Converse(c *gin.Context) {
	var req converseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": errInvalidBody})
		return
	}

	reply, err := h.chatbot.Converse(c.Request.Context(), middleware.UserID(c), req.Message)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "converse", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":  errInternalServer,
			"response": "Sorry, something went wrong on my side. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, reply)
}
