package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ErlanBelekov/storefront-client/internal/apiclient"
	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

const (
	pathProducts       = "/products/"
	categoriesPageSize = 100
)

type ProductState struct {
	Products        []domain.Product
	Selected        *domain.Product
	TotalProducts   int
	CurrentPage     int
	ProductsPerPage int
	// Notice is the backend's informational message, e.g. an empty result.
	Notice    string
	IsLoading bool
	Error     string
}

type ProductStore struct {
	client Doer
	logger *slog.Logger

	mu    sync.RWMutex
	state ProductState
}

func NewProductStore(client Doer, perPage int, logger *slog.Logger) *ProductStore {
	if perPage <= 0 {
		perPage = 12
	}
	return &ProductStore{
		client: client,
		logger: logger.With("component", "product_store"),
		state:  ProductState{CurrentPage: 1, ProductsPerPage: perPage},
	}
}

// FetchProducts loads one page of the catalogue. Zero Page or PerPage fall
// back to the store's current pagination.
func (s *ProductStore) FetchProducts(ctx context.Context, f domain.ProductFilter) {
	s.mu.Lock()
	if f.Page <= 0 {
		f.Page = s.state.CurrentPage
	}
	if f.PerPage <= 0 {
		f.PerPage = s.state.ProductsPerPage
	}
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	resp, err := s.client.Do(ctx, apiclient.Call{
		Method: http.MethodGet,
		Path:   pathProducts,
		Query:  productQuery(f),
	})
	var page domain.ProductPage
	if err == nil {
		err = resp.Decode(&page)
	}
	if err != nil {
		msg := apiclient.Message(err, "Failed to fetch products.")
		s.fail(msg)
		s.logger.ErrorContext(ctx, "fetch products failed", "error", msg)
		return
	}

	if page.Page <= 0 {
		page.Page = f.Page
	}
	if page.PerPage <= 0 {
		page.PerPage = f.PerPage
	}
	if page.Products == nil {
		page.Products = []domain.Product{}
	}

	s.mu.Lock()
	s.state.Products = page.Products
	s.state.TotalProducts = page.TotalProducts
	s.state.CurrentPage = page.Page
	s.state.ProductsPerPage = page.PerPage
	s.state.Notice = page.Message
	s.state.IsLoading = false
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *ProductStore) FetchProduct(ctx context.Context, id int64) {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	resp, err := s.client.Do(ctx, apiclient.Call{
		Method: http.MethodGet,
		Path:   "/products/" + strconv.FormatInt(id, 10),
	})
	var p domain.Product
	if err == nil {
		err = resp.Decode(&p)
	}
	if err != nil {
		msg := apiclient.Message(err, fmt.Sprintf("Failed to fetch product %d.", id))
		s.fail(msg)
		s.logger.ErrorContext(ctx, "fetch product failed", "product_id", id, "error", msg)
		return
	}

	s.mu.Lock()
	s.state.Selected = &p
	s.state.IsLoading = false
	s.mu.Unlock()
}

// Categories lists the distinct categories found on the first unfiltered
// page. Pipe-separated category paths count each segment once.
func (s *ProductStore) Categories(ctx context.Context) []string {
	resp, err := s.client.Do(ctx, apiclient.Call{
		Method: http.MethodGet,
		Path:   pathProducts,
		Query:  url.Values{"page": {"1"}, "per_page": {strconv.Itoa(categoriesPageSize)}},
	})
	var page domain.ProductPage
	if err == nil {
		err = resp.Decode(&page)
	}
	if err != nil {
		msg := apiclient.Message(err, "Failed to fetch categories.")
		s.fail(msg)
		s.logger.ErrorContext(ctx, "fetch categories failed", "error", msg)
		return nil
	}

	seen := make(map[string]struct{})
	for _, p := range page.Products {
		for _, c := range strings.Split(p.Category, "|") {
			if c = strings.TrimSpace(c); c != "" {
				seen[c] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s *ProductStore) ClearSelected() {
	s.mu.Lock()
	s.state.Selected = nil
	s.mu.Unlock()
}

func (s *ProductStore) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *ProductStore) SetCurrentPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.state.CurrentPage = page
	s.mu.Unlock()
}

func (s *ProductStore) SetProductsPerPage(n int) {
	if n < 1 {
		return
	}
	s.mu.Lock()
	s.state.ProductsPerPage = n
	s.mu.Unlock()
}

// TotalPages is at least 1 so an empty listing still renders one page.
func (s *ProductStore) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.ProductsPerPage <= 0 || s.state.TotalProducts <= 0 {
		return 1
	}
	return (s.state.TotalProducts + s.state.ProductsPerPage - 1) / s.state.ProductsPerPage
}

func (s *ProductStore) Snapshot() ProductState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Products = append([]domain.Product(nil), s.state.Products...)
	if s.state.Selected != nil {
		sel := *s.state.Selected
		st.Selected = &sel
	}
	return st
}

func (s *ProductStore) fail(msg string) {
	s.mu.Lock()
	s.state.IsLoading = false
	s.state.Error = msg
	s.mu.Unlock()
}

func productQuery(f domain.ProductFilter) url.Values {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("per_page", strconv.Itoa(f.PerPage))
	return q
}
