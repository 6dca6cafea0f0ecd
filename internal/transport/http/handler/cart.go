package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/transport/http/middleware"
	"github.com/ErlanBelekov/storefront-client/internal/usecase"
	"github.com/gin-gonic/gin"
)

type cartUsecaser interface {
	Cart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddToCart(ctx context.Context, userID, productID int64, quantity int) (*domain.CartItem, *domain.Product, error)
	UpdateCartItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.CartItem, error)
	RemoveCartItem(ctx context.Context, userID, itemID int64) (*domain.CartItem, error)
	ClearCart(ctx context.Context, userID int64) (bool, error)
	Checkout(ctx context.Context, userID int64) (*usecase.Receipt, error)
}

// CartHandler serves the /api cart routes. Every route sits behind
// middleware.Auth.
type CartHandler struct {
	shop   cartUsecaser
	logger *slog.Logger
}

func NewCartHandler(shop cartUsecaser, logger *slog.Logger) *CartHandler {
	return &CartHandler{shop: shop, logger: logger.With("component", "cart_handler")}
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  *int  `json:"quantity"`
}

type updateCartRequest struct {
	Quantity *int `json:"quantity"`
}

// GET /api/cart
// An empty cart answers 200 with only a message, no items.
func (h *CartHandler) View(c *gin.Context) {
	cart, err := h.shop.Cart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.internal(c, "view cart", err)
		return
	}
	if len(cart.Items) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Your cart is empty."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": cart.Items, "total_price": cart.TotalPrice()})
}

// POST /api/cart/add
func (h *CartHandler) Add(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": errProductIDQuantity})
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, product, err := h.shop.AddToCart(c.Request.Context(), middleware.UserID(c), req.ProductID, quantity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"message": errProductIDQuantity})
		case errors.Is(err, domain.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": errProductMissing})
		default:
			h.internal(c, "add to cart", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   fmt.Sprintf("Added %d x %s to cart.", quantity, product.Name),
		"cart_item": item,
	})
}

// PUT /api/cart/update/:id
// A quantity of zero removes the item.
func (h *CartHandler) Update(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil || *req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": errInvalidQuantity})
		return
	}

	item, err := h.shop.UpdateCartItem(c.Request.Context(), middleware.UserID(c), itemID, *req.Quantity)
	if err != nil {
		h.cartItemError(c, "update cart item", err)
		return
	}

	if item.Quantity == 0 {
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Item '%s' removed from cart.", itemName(item))})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   fmt.Sprintf("Quantity for '%s' updated to %d.", itemName(item), item.Quantity),
		"cart_item": item,
	})
}

// DELETE /api/cart/remove/:id
func (h *CartHandler) Remove(c *gin.Context) {
	itemID, ok := itemParam(c)
	if !ok {
		return
	}

	item, err := h.shop.RemoveCartItem(c.Request.Context(), middleware.UserID(c), itemID)
	if err != nil {
		h.cartItemError(c, "remove cart item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Item '%s' removed from cart.", itemName(item))})
}

// DELETE /api/cart/clear
func (h *CartHandler) Clear(c *gin.Context) {
	had, err := h.shop.ClearCart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.internal(c, "clear cart", err)
		return
	}
	if !had {
		c.JSON(http.StatusOK, gin.H{"message": "Your cart is already empty."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your cart has been cleared."})
}

// POST /api/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	receipt, err := h.shop.Checkout(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrCartEmpty) {
			c.JSON(http.StatusBadRequest, gin.H{"message": errCheckoutEmpty})
			return
		}
		h.internal(c, "checkout", err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "checkout", "total_items", receipt.TotalItems, "total_price", receipt.TotalPrice)
	c.JSON(http.StatusOK, gin.H{
		"message":     "Checkout successful! Your order has been placed. (Simulated)",
		"total_items": receipt.TotalItems,
		"total_price": receipt.TotalPrice,
	})
}

func (h *CartHandler) cartItemError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrCartItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": errCartItemNotFound})
	case errors.Is(err, domain.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"message": errInvalidQuantity})
	default:
		h.internal(c, op, err)
	}
}

func (h *CartHandler) internal(c *gin.Context, op string, err error) {
	h.logger.ErrorContext(c.Request.Context(), op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
}

func itemParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": errCartItemNotFound})
		return 0, false
	}
	return id, true
}

func itemName(item *domain.CartItem) string {
	if item.Product == nil {
		return "item"
	}
	return item.Product.Name
}
