package store

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/apiclient"
	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/google/uuid"
)

type ChatbotState struct {
	Messages  []domain.ChatMessage
	IsTyping  bool
	IsLoading bool
	Error     string
}

type ChatbotStore struct {
	client Doer
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state ChatbotState
}

func NewChatbotStore(client Doer, logger *slog.Logger) *ChatbotStore {
	return &ChatbotStore{
		client: client,
		logger: logger.With("component", "chatbot_store"),
		now:    time.Now,
		state:  ChatbotState{Messages: []domain.ChatMessage{}},
	}
}

// SendMessage appends the user's message, asks the backend, and appends the
// reply. A failed call still produces a chatbot message starting "Error: ".
func (s *ChatbotStore) SendMessage(ctx context.Context, text string) {
	s.mu.Lock()
	s.state.Messages = append(s.state.Messages, domain.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    domain.SenderUser,
		Text:      text,
		Timestamp: s.now().UTC(),
	})
	s.state.IsLoading = true
	s.state.IsTyping = true
	s.state.Error = ""
	s.mu.Unlock()

	resp, err := s.client.Do(ctx, apiclient.Call{
		Method: http.MethodPost,
		Path:   "/chatbot/converse",
		Body: struct {
			Message string `json:"message"`
		}{text},
	})
	var reply domain.ChatReply
	if err == nil {
		err = resp.Decode(&reply)
	}
	if err != nil {
		msg := chatErrorMessage(err)
		s.mu.Lock()
		s.state.Messages = append(s.state.Messages, domain.ChatMessage{
			ID:        uuid.NewString(),
			Sender:    domain.SenderChatbot,
			Text:      "Error: " + msg,
			Timestamp: s.now().UTC(),
		})
		s.state.IsLoading = false
		s.state.IsTyping = false
		s.state.Error = msg
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "chatbot call failed", "error", msg)
		return
	}

	products := reply.Products
	if products == nil {
		products = []domain.ProductSummary{}
	}

	s.mu.Lock()
	s.state.Messages = append(s.state.Messages, domain.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    domain.SenderChatbot,
		Text:      reply.Response,
		Products:  products,
		Timestamp: s.now().UTC(),
	})
	s.state.IsLoading = false
	s.state.IsTyping = false
	s.mu.Unlock()
}

// ClearChat drops the local transcript only; the backend keeps its context.
func (s *ChatbotStore) ClearChat() {
	s.mu.Lock()
	s.state.Messages = []domain.ChatMessage{}
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *ChatbotStore) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *ChatbotStore) Snapshot() ChatbotState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Messages = append([]domain.ChatMessage(nil), s.state.Messages...)
	return st
}

// chatErrorMessage prefers the body's "response" field, which is where the
// chatbot explains itself, then the usual message.
func chatErrorMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Response != "" {
		return apiErr.Response
	}
	return apiclient.Message(err, "Failed to get chatbot response.")
}
