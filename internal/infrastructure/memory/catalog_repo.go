package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/repository"
)

// CatalogRepository is a read-only product catalogue ordered by ID.
type CatalogRepository struct {
	mu       sync.RWMutex
	products []domain.Product
}

func NewCatalogRepository(products []domain.Product) *CatalogRepository {
	ps := append([]domain.Product(nil), products...)
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	return &CatalogRepository{products: ps}
}

func (r *CatalogRepository) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Product
	for _, p := range r.products {
		if f.Name != "" && !containsFold(p.Name, f.Name) {
			continue
		}
		if f.Category != "" && !containsFold(p.Category, f.Category) {
			continue
		}
		if !inPriceRange(p.Price, f.MinPrice, f.MaxPrice) {
			continue
		}
		matched = append(matched, p)
	}

	total := len(matched)
	offset := (f.Page - 1) * f.PerPage
	if offset < 0 || offset >= total {
		return []domain.Product{}, total, nil
	}
	end := offset + f.PerPage
	if end > total {
		end = total
	}
	return append([]domain.Product(nil), matched[offset:end]...), total, nil
}

func (r *CatalogRepository) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (r *CatalogRepository) FindByName(_ context.Context, fragment string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *domain.Product
	for i := range r.products {
		p := &r.products[i]
		if !containsFold(p.Name, fragment) {
			continue
		}
		if best == nil || p.Name < best.Name {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrProductNotFound
	}
	out := *best
	return &out, nil
}

func (r *CatalogRepository) Search(_ context.Context, q repository.ProductSearch) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Product
	for _, p := range r.products {
		if !matchesAll(p, q.Keywords) {
			continue
		}
		if q.Category != "" && !containsFold(p.Category, q.Category) {
			continue
		}
		if q.Brand != "" && !containsFold(p.Name, q.Brand) && !containsFold(p.Description, q.Brand) {
			continue
		}
		if !inPriceRange(p.Price, q.MinPrice, q.MaxPrice) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Categories splits pipe-separated category paths and returns every
// distinct segment, sorted.
func (r *CatalogRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range r.products {
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
	return out, nil
}

func matchesAll(p domain.Product, keywords []string) bool {
	for _, k := range keywords {
		if !containsFold(p.Name, k) && !containsFold(p.Description, k) {
			return false
		}
	}
	return true
}

func inPriceRange(price float64, lo, hi *float64) bool {
	if lo != nil && price < *lo {
		return false
	}
	if hi != nil && price > *hi {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
