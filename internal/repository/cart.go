package repository

import (
	"context"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

type CartRepository interface {
	// Get returns the user's cart, creating an empty one on first use.
	Get(ctx context.Context, userID int64) (*domain.Cart, error)
	// AddItem adds quantity of product, merging with an existing line.
	AddItem(ctx context.Context, userID int64, product *domain.Product, quantity int) (*domain.CartItem, error)
	// SetQuantity fails with domain.ErrCartItemNotFound when the item is not
	// in this user's cart. Zero removes the line.
	SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*domain.CartItem, error)
	// Clear empties the cart and returns the removed lines.
	Clear(ctx context.Context, userID int64) ([]domain.CartItem, error)
}
