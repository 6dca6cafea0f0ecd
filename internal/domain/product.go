package domain

import "errors"

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Category           string   `json:"category"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	OriginalPrice      float64  `json:"original_price"`
	DiscountPercentage float64  `json:"discount_percentage"`
	Rating             *float64 `json:"rating"`
	RatingCount        *int     `json:"rating_count"`
	ImageURL           string   `json:"image_url"`
	ProductURL         string   `json:"product_url"`
}

// Summary is the trimmed product shape embedded in cart items and chatbot
// replies.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:              p.ID,
		Name:            p.Name,
		ImageURL:        p.ImageURL,
		DiscountedPrice: p.Price,
	}
}

type ProductSummary struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	ImageURL        string  `json:"image_url"`
	DiscountedPrice float64 `json:"discounted_price"`
}

// ProductFilter narrows a product listing. Zero values mean "unset".
type ProductFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	PerPage  int
}

// ProductPage is one page of a filtered listing plus the total match count.
type ProductPage struct {
	Products      []Product `json:"products"`
	TotalProducts int       `json:"total_products"`
	Page          int       `json:"page"`
	PerPage       int       `json:"per_page"`
	Message       string    `json:"message,omitempty"`
}
