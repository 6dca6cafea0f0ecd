package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/gin-gonic/gin"
)

type productUsecaser interface {
	ListProducts(ctx context.Context, f domain.ProductFilter) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type ProductHandler struct {
	shop   productUsecaser
	logger *slog.Logger
}

func NewProductHandler(shop productUsecaser, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{shop: shop, logger: logger.With("component", "product_handler")}
}

// GET /products/?name=&category=&min_price=&max_price=&page=&per_page=
// Unparseable numbers fall back to their defaults rather than failing.
func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage, _ := strconv.Atoi(c.Query("per_page"))

	result, err := h.shop.ListProducts(c.Request.Context(), domain.ProductFilter{
		Name:     c.Query("name"),
		Category: c.Query("category"),
		MinPrice: queryFloat(c, "min_price"),
		MaxPrice: queryFloat(c, "max_price"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list products", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}
	if result.Products == nil {
		result.Products = []domain.Product{}
	}

	c.JSON(http.StatusOK, result)
}

// GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": errProductNotFound})
		return
	}

	product, err := h.shop.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": errProductNotFound})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get product", "product_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, product)
}

func queryFloat(c *gin.Context, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
