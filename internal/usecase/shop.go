package usecase

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/repository"
)

const (
	defaultPerPage = 12
	maxPerPage     = 100
)

type ShopUsecase struct {
	catalog repository.CatalogRepository
	carts   repository.CartRepository
}

func NewShopUsecase(catalog repository.CatalogRepository, carts repository.CartRepository) *ShopUsecase {
	return &ShopUsecase{catalog: catalog, carts: carts}
}

// ListProducts normalizes paging (page >= 1, 1 <= per_page <= 100) and
// returns the page. An empty result carries an explanatory message.
func (u *ShopUsecase) ListProducts(ctx context.Context, f domain.ProductFilter) (*domain.ProductPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = defaultPerPage
	}
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}

	products, total, err := u.catalog.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	page := &domain.ProductPage{
		Products:      products,
		TotalProducts: total,
		Page:          f.Page,
		PerPage:       f.PerPage,
	}
	if total == 0 {
		page.Message = "No products found matching your criteria."
	}
	return page, nil
}

func (u *ShopUsecase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return u.catalog.FindByID(ctx, id)
}

func (u *ShopUsecase) Cart(ctx context.Context, userID int64) (*domain.Cart, error) {
	return u.carts.Get(ctx, userID)
}

// AddToCart fails with domain.ErrProductNotFound for an unknown product.
func (u *ShopUsecase) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*domain.CartItem, *domain.Product, error) {
	if productID <= 0 || quantity <= 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}
	product, err := u.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	item, err := u.carts.AddItem(ctx, userID, product, quantity)
	if err != nil {
		return nil, nil, err
	}
	return item, product, nil
}

func (u *ShopUsecase) UpdateCartItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.CartItem, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return u.carts.SetQuantity(ctx, userID, itemID, quantity)
}

func (u *ShopUsecase) RemoveCartItem(ctx context.Context, userID, itemID int64) (*domain.CartItem, error) {
	return u.carts.RemoveItem(ctx, userID, itemID)
}

// ClearCart reports whether there was anything to clear.
func (u *ShopUsecase) ClearCart(ctx context.Context, userID int64) (bool, error) {
	removed, err := u.carts.Clear(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(removed) > 0, nil
}

type Receipt struct {
	TotalItems int
	TotalPrice float64
}

// Checkout simulates placing the order: it totals the cart and empties it.
func (u *ShopUsecase) Checkout(ctx context.Context, userID int64) (*Receipt, error) {
	cart, err := u.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	receipt := &Receipt{TotalPrice: cart.TotalPrice()}
	for _, it := range cart.Items {
		receipt.TotalItems += it.Quantity
	}
	if _, err := u.carts.Clear(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear cart after checkout: %w", err)
	}
	return receipt, nil
}
