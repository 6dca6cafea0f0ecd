package store_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/ErlanBelekov/storefront-client/internal/store"
	"github.com/gin-gonic/gin"
)

// fakeCart is a tiny in-process cart backend.
type fakeCart struct {
	mu      sync.Mutex
	items   map[int64]int // item id -> quantity
	nextID  int64
	fetches int
	lastAdd struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
}

func newFakeCart() *fakeCart {
	return &fakeCart{items: map[int64]int{}, nextID: 1}
}

func (f *fakeCart) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeCart) lastAddQuantity() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAdd.Quantity
}

func (f *fakeCart) engine() *gin.Engine {
	r := gin.New()
	r.GET("/api/cart", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.fetches++
		if len(f.items) == 0 {
			c.JSON(http.StatusOK, gin.H{"message": "Your cart is empty."})
			return
		}
		var items []gin.H
		var total float64
		for id, qty := range f.items {
			items = append(items, gin.H{
				"id": id, "cart_id": 1, "product_id": 10, "quantity": qty,
				"product": gin.H{"id": 10, "name": "Mug", "discounted_price": 2.5},
			})
			total += 2.5 * float64(qty)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Your cart contents:", "items": items, "total_price": total})
	})
	r.POST("/api/cart/add", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if err := c.ShouldBindJSON(&f.lastAdd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid product ID or quantity."})
			return
		}
		if f.lastAdd.ProductID != 10 {
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found."})
			return
		}
		f.items[f.nextID] = f.lastAdd.Quantity
		f.nextID++
		c.JSON(http.StatusOK, gin.H{"message": "Added"})
	})
	r.PUT("/api/cart/update/:id", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		var body struct {
			Quantity int `json:"quantity"`
		}
		_ = c.ShouldBindJSON(&body)
		if _, ok := f.items[id]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cart item not found or does not belong to your cart."})
			return
		}
		if body.Quantity == 0 {
			delete(f.items, id)
		} else {
			f.items[id] = body.Quantity
		}
		c.JSON(http.StatusOK, gin.H{"message": "Updated"})
	})
	r.DELETE("/api/cart/remove/:id", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
		delete(f.items, id)
		c.JSON(http.StatusOK, gin.H{"message": "Removed"})
	})
	r.DELETE("/api/cart/clear", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.items = map[int64]int{}
		c.JSON(http.StatusOK, gin.H{"message": "Your cart has been cleared."})
	})
	r.POST("/api/checkout", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if len(f.items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Your cart is empty. Nothing to checkout."})
			return
		}
		f.items = map[int64]int{}
		c.JSON(http.StatusOK, gin.H{"message": "Checkout successful!"})
	})
	return r
}

func TestCartStore_FetchCart_Empty(t *testing.T) {
	client, _ := newClient(t, newFakeCart().engine())
	s := store.NewCartStore(client, discardLogger())

	s.FetchCart(context.Background())

	st := s.Snapshot()
	if len(st.Items) != 0 || st.TotalPrice != 0 {
		t.Errorf("state = %+v", st)
	}
	if st.Notice != "Your cart is empty." {
		t.Errorf("notice = %q", st.Notice)
	}
	if st.Error != "" {
		t.Errorf("an empty cart is not an error, got %q", st.Error)
	}
}

func TestCartStore_AddDefaultsQuantityAndRefetches(t *testing.T) {
	fc := newFakeCart()
	client, _ := newClient(t, fc.engine())
	s := store.NewCartStore(client, discardLogger())

	if !s.AddToCart(context.Background(), 10, 0) {
		t.Fatalf("add failed: %s", s.Snapshot().Error)
	}
	if got := fc.lastAddQuantity(); got != 1 {
		t.Errorf("quantity sent = %d, want 1", got)
	}
	if got := fc.fetchCount(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}

	st := s.Snapshot()
	if len(st.Items) != 1 || st.Items[0].Product == nil || st.Items[0].Product.Name != "Mug" {
		t.Fatalf("items = %+v", st.Items)
	}
	if st.TotalPrice != 2.5 || st.Notice != "" || st.IsLoading {
		t.Errorf("state = %+v", st)
	}
}

func TestCartStore_AddUnknownProduct(t *testing.T) {
	fc := newFakeCart()
	client, _ := newClient(t, fc.engine())
	s := store.NewCartStore(client, discardLogger())

	if s.AddToCart(context.Background(), 99, 2) {
		t.Fatal("expected failure")
	}
	if got := s.Snapshot().Error; got != "Product not found." {
		t.Errorf("error = %q", got)
	}
	if fc.fetchCount() != 0 {
		t.Error("failed change must not refetch")
	}
}

func TestCartStore_UpdateRemoveClear(t *testing.T) {
	fc := newFakeCart()
	client, _ := newClient(t, fc.engine())
	s := store.NewCartStore(client, discardLogger())
	ctx := context.Background()

	s.AddToCart(ctx, 10, 1)
	s.AddToCart(ctx, 10, 1)
	items := s.Snapshot().Items
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}

	if !s.UpdateQuantity(ctx, items[0].ID, 4) {
		t.Fatalf("update: %s", s.Snapshot().Error)
	}
	if got := s.Snapshot().TotalPrice; got != 12.5 {
		t.Errorf("total = %v, want 12.5", got)
	}

	if !s.RemoveFromCart(ctx, items[0].ID) {
		t.Fatalf("remove: %s", s.Snapshot().Error)
	}
	if got := len(s.Snapshot().Items); got != 1 {
		t.Errorf("items after remove = %d", got)
	}

	if s.UpdateQuantity(ctx, 999, 1) {
		t.Error("update of unknown item should fail")
	}

	if !s.ClearCart(ctx) {
		t.Fatalf("clear: %s", s.Snapshot().Error)
	}
	st := s.Snapshot()
	if len(st.Items) != 0 || st.Notice != "Your cart is empty." || st.Error != "" {
		t.Errorf("state after clear = %+v", st)
	}
}

func TestCartStore_Checkout(t *testing.T) {
	fc := newFakeCart()
	client, _ := newClient(t, fc.engine())
	s := store.NewCartStore(client, discardLogger())
	ctx := context.Background()

	if _, ok := s.Checkout(ctx); ok {
		t.Fatal("checkout of empty cart should fail")
	}
	if got := s.Snapshot().Error; got != "Your cart is empty. Nothing to checkout." {
		t.Errorf("error = %q", got)
	}
	s.ClearError()

	s.AddToCart(ctx, 10, 2)
	msg, ok := s.Checkout(ctx)
	if !ok || msg != "Checkout successful!" {
		t.Fatalf("checkout = %q, %v", msg, ok)
	}
	st := s.Snapshot()
	if len(st.Items) != 0 || st.TotalPrice != 0 || st.IsLoading || st.Error != "" {
		t.Errorf("state after checkout = %+v", st)
	}
}

func TestCartStore_UnreadableSuccessBodiesAreLogged(t *testing.T) {
	r := gin.New()
	r.GET("/api/cart", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Your cart is empty."})
	})
	r.POST("/api/cart/add", func(c *gin.Context) {
		c.String(http.StatusOK, "added")
	})
	r.POST("/api/checkout", func(c *gin.Context) {
		c.String(http.StatusOK, "<html>ok</html>")
	})
	client, _ := newClient(t, r)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := store.NewCartStore(client, logger)
	ctx := context.Background()

	if !s.AddToCart(ctx, 10, 1) {
		t.Fatalf("add failed: %s", s.Snapshot().Error)
	}
	msg, ok := s.Checkout(ctx)
	if !ok || msg != "" {
		t.Errorf("Checkout() = %q, %v; want empty message and success", msg, ok)
	}

	out := logs.String()
	for _, want := range []string{"cart change response unreadable", "checkout response unreadable"} {
		if !strings.Contains(out, want) {
			t.Errorf("logs missing %q:\n%s", want, out)
		}
	}
}
