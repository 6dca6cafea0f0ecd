package store

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/ErlanBelekov/storefront-client/internal/apiclient"
	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

type CartState struct {
	Items      []domain.CartItem
	TotalPrice float64
	// Notice carries the backend's message when the cart comes back empty.
	Notice    string
	IsLoading bool
	Error     string
}

type CartStore struct {
	client Doer
	logger *slog.Logger

	mu    sync.RWMutex
	state CartState
}

func NewCartStore(client Doer, logger *slog.Logger) *CartStore {
	return &CartStore{
		client: client,
		logger: logger.With("component", "cart_store"),
		state:  CartState{Items: []domain.CartItem{}},
	}
}

type cartResponse struct {
	Items      []domain.CartItem `json:"items"`
	TotalPrice float64           `json:"total_price"`
	Message    string            `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *CartStore) FetchCart(ctx context.Context) {
	s.begin()

	resp, err := s.client.Do(ctx, apiclient.Call{Method: http.MethodGet, Path: "/api/cart"})
	var body cartResponse
	if err == nil {
		err = resp.Decode(&body)
	}
	if err != nil {
		msg := apiclient.Message(err, "Failed to fetch cart.")
		s.fail(msg)
		s.logger.ErrorContext(ctx, "fetch cart failed", "error", msg)
		return
	}

	s.mu.Lock()
	if body.Items != nil {
		s.state.Items = body.Items
		s.state.TotalPrice = body.TotalPrice
		s.state.Notice = ""
	} else {
		s.state.Items = []domain.CartItem{}
		s.state.TotalPrice = 0
		s.state.Notice = body.Message
	}
	s.state.IsLoading = false
	s.mu.Unlock()
}

// AddToCart adds quantity of a product; a non-positive quantity means one.
func (s *CartStore) AddToCart(ctx context.Context, productID int64, quantity int) bool {
	if quantity <= 0 {
		quantity = 1
	}
	return s.mutate(ctx, apiclient.Call{
		Method: http.MethodPost,
		Path:   "/api/cart/add",
		Body: struct {
			ProductID int64 `json:"product_id"`
			Quantity  int   `json:"quantity"`
		}{productID, quantity},
	}, "Failed to add to cart.")
}

// UpdateQuantity sets an item's quantity. Zero removes the item.
func (s *CartStore) UpdateQuantity(ctx context.Context, itemID int64, quantity int) bool {
	return s.mutate(ctx, apiclient.Call{
		Method: http.MethodPut,
		Path:   "/api/cart/update/" + strconv.FormatInt(itemID, 10),
		Body: struct {
			Quantity int `json:"quantity"`
		}{quantity},
	}, "Failed to update cart item.")
}

func (s *CartStore) RemoveFromCart(ctx context.Context, itemID int64) bool {
	return s.mutate(ctx, apiclient.Call{
		Method: http.MethodDelete,
		Path:   "/api/cart/remove/" + strconv.FormatInt(itemID, 10),
	}, "Failed to remove from cart.")
}

func (s *CartStore) ClearCart(ctx context.Context) bool {
	return s.mutate(ctx, apiclient.Call{
		Method: http.MethodDelete,
		Path:   "/api/cart/clear",
	}, "Failed to clear cart.")
}

// Checkout places the order and empties the local cart. The message the
// backend confirms with is returned alongside the outcome.
func (s *CartStore) Checkout(ctx context.Context) (string, bool) {
	s.begin()

	resp, err := s.client.Do(ctx, apiclient.Call{Method: http.MethodPost, Path: "/api/checkout"})
	if err != nil {
		msg := apiclient.Message(err, "Checkout failed.")
		s.fail(msg)
		s.logger.ErrorContext(ctx, "checkout failed", "error", msg)
		return "", false
	}
	var body messageResponse
	if err := resp.Decode(&body); err != nil {
		s.logger.DebugContext(ctx, "checkout response unreadable", "status", resp.StatusCode, "error", err)
	}

	s.mu.Lock()
	s.state.Items = []domain.CartItem{}
	s.state.TotalPrice = 0
	s.state.Notice = ""
	s.state.IsLoading = false
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "checkout successful", "message", body.Message)
	return body.Message, true
}

func (s *CartStore) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *CartStore) Snapshot() CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Items = append([]domain.CartItem(nil), s.state.Items...)
	return st
}

// mutate sends a cart change and, when it lands, reloads the cart so local
// state always mirrors the server.
func (s *CartStore) mutate(ctx context.Context, call apiclient.Call, fallback string) bool {
	s.begin()

	resp, err := s.client.Do(ctx, call)
	if err != nil {
		msg := apiclient.Message(err, fallback)
		s.fail(msg)
		s.logger.ErrorContext(ctx, "cart change failed", "method", call.Method, "path", call.Path, "error", msg)
		return false
	}

	var body messageResponse
	if err := resp.Decode(&body); err != nil {
		s.logger.DebugContext(ctx, "cart change response unreadable", "path", call.Path, "status", resp.StatusCode, "error", err)
	}
	s.logger.InfoContext(ctx, "cart changed", "method", call.Method, "path", call.Path, "message", body.Message)

	s.FetchCart(ctx)
	return true
}

func (s *CartStore) begin() {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *CartStore) fail(msg string) {
	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Error = msg
	s.mu.Unlock()
}
