package domain

import (
	"errors"
	"time"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrCartEmpty        = errors.New("cart is empty")
)

type CartItem struct {
	ID        int64           `json:"id"`
	CartID    int64           `json:"cart_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
	Product   *ProductSummary `json:"product"`
}

// Cart is a user's cart as held by the backend.
type Cart struct {
	ID        int64
	UserID    int64
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalPrice sums discounted price times quantity, rounded to cents.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, it := range c.Items {
		if it.Product == nil {
			continue
		}
		total += it.Product.DiscountedPrice * float64(it.Quantity)
	}
	return roundCents(total)
}

func roundCents(v float64) float64 {
	if v < 0 {
		return -roundCents(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
