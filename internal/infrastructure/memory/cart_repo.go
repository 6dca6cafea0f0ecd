package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

// CartRepository keeps one cart per user. Item IDs are unique across carts.
type CartRepository struct {
	mu         sync.Mutex
	nextCartID int64
	nextItemID int64
	carts      map[int64]*domain.Cart
}

func NewCartRepository() *CartRepository {
	return &CartRepository{nextCartID: 1, nextItemID: 1, carts: make(map[int64]*domain.Cart)}
}

func (r *CartRepository) Get(_ context.Context, userID int64) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneCart(r.cartFor(userID)), nil
}

func (r *CartRepository) AddItem(_ context.Context, userID int64, product *domain.Product, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.cartFor(userID)
	cart.UpdatedAt = time.Now().UTC()
	for i := range cart.Items {
		if cart.Items[i].ProductID == product.ID {
			cart.Items[i].Quantity += quantity
			return cloneItem(cart.Items[i]), nil
		}
	}

	summary := product.Summary()
	item := domain.CartItem{
		ID:        r.nextItemID,
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		AddedAt:   cart.UpdatedAt,
		Product:   &summary,
	}
	r.nextItemID++
	cart.Items = append(cart.Items, item)
	return cloneItem(item), nil
}

func (r *CartRepository) SetQuantity(_ context.Context, userID, itemID int64, quantity int) (*domain.CartItem, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.cartFor(userID)
	i := indexOf(cart, itemID)
	if i < 0 {
		return nil, domain.ErrCartItemNotFound
	}
	cart.UpdatedAt = time.Now().UTC()
	if quantity == 0 {
		removed := cart.Items[i]
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		removed.Quantity = 0
		return cloneItem(removed), nil
	}
	cart.Items[i].Quantity = quantity
	return cloneItem(cart.Items[i]), nil
}

func (r *CartRepository) RemoveItem(_ context.Context, userID, itemID int64) (*domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.cartFor(userID)
	i := indexOf(cart, itemID)
	if i < 0 {
		return nil, domain.ErrCartItemNotFound
	}
	removed := cart.Items[i]
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	cart.UpdatedAt = time.Now().UTC()
	return cloneItem(removed), nil
}

func (r *CartRepository) Clear(_ context.Context, userID int64) ([]domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.cartFor(userID)
	removed := cloneCart(cart).Items
	cart.Items = nil
	cart.UpdatedAt = time.Now().UTC()
	return removed, nil
}

// cartFor must be called with r.mu held.
func (r *CartRepository) cartFor(userID int64) *domain.Cart {
	if c, ok := r.carts[userID]; ok {
		return c
	}
	now := time.Now().UTC()
	c := &domain.Cart{ID: r.nextCartID, UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.nextCartID++
	r.carts[userID] = c
	return c
}

func indexOf(cart *domain.Cart, itemID int64) int {
	for i, it := range cart.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = make([]domain.CartItem, len(c.Items))
	for i, it := range c.Items {
		out.Items[i] = *cloneItem(it)
	}
	return &out
}

func cloneItem(it domain.CartItem) *domain.CartItem {
	out := it
	if it.Product != nil {
		p := *it.Product
		out.Product = &p
	}
	return &out
}
