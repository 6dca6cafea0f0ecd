package memory

import (
	"strconv"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

type seedProduct struct {
	name     string
	category string
	desc     string
	price    float64
	original float64
	rating   float64
	votes    int
}

var seedCatalog = []seedProduct{
	{"boAt Rockerz 255 Pro+ Wireless Earphones", "Electronics|Headphones", "Bluetooth neckband with 40 hours of playback and ASAP charge.", 1299, 3990, 4.1, 28712},
	{"boAt Airdopes 141 True Wireless Earbuds", "Electronics|Headphones", "42 hours of playtime, low latency mode and IPX4 water resistance.", 1099, 4490, 3.9, 41022},
	{"Sony WH-1000XM4 Noise Cancelling Headphones", "Electronics|Headphones", "Industry leading noise cancellation with 30 hour battery.", 19990, 29990, 4.6, 9102},
	{"JBL Go 3 Portable Bluetooth Speaker", "Electronics|Speakers", "Compact waterproof speaker with punchy bass.", 2999, 3999, 4.4, 15300},
	{"Ambrane 10000mAh Power Bank", "Electronics|Accessories", "Slim lithium polymer power bank with 20W fast charging.", 799, 1999, 4.0, 22133},
	{"Portronics Konnect L USB-C Cable", "Electronics|Accessories", "1.2m braided fast charging and data cable.", 154, 399, 4.2, 16905},
	{"Wayona Nylon Braided Lightning Cable", "Electronics|Accessories", "3A fast charging cable compatible with iPhone.", 199, 999, 4.0, 24269},
	{"Redmi 12C Smartphone 64GB", "Electronics|Mobiles", "6.71 inch display, 50MP dual camera, 5000mAh battery.", 8999, 13999, 4.1, 54012},
	{"Samsung Galaxy M14 5G 128GB", "Electronics|Mobiles", "6000mAh battery and 50MP triple camera.", 13490, 18990, 4.0, 12877},
	{"Fire-Boltt Phoenix Smart Watch", "Electronics|Wearables", "Bluetooth calling smartwatch with 120 sports modes.", 1399, 9999, 4.0, 67259},
	{"Noise ColorFit Pulse Grand Smart Watch", "Electronics|Wearables", "1.69 inch display with SpO2 and heart rate monitoring.", 1499, 4999, 4.1, 31457},
	{"HP 15s Laptop Ryzen 5", "Computers|Laptops", "15.6 inch FHD, 8GB RAM, 512GB SSD.", 42990, 51990, 4.2, 3201},
	{"Lenovo IdeaPad Slim 3 Laptop", "Computers|Laptops", "Intel Core i3, 8GB RAM, 256GB SSD, thin and light.", 35990, 56890, 4.0, 2144},
	{"Logitech M235 Wireless Mouse", "Computers|Accessories", "Compact mouse with 12 month battery life.", 649, 1195, 4.4, 70411},
	{"Zebronics Zeb-Transformer Keyboard and Mouse Combo", "Computers|Accessories", "Gaming keyboard with rainbow LED and matching mouse.", 1049, 2499, 4.1, 12007},
	{"SanDisk Ultra 64GB microSD Card", "Computers|Storage", "Up to 140MB/s read speed for phones and tablets.", 579, 1200, 4.4, 189104},
	{"Prestige PKOSS 3 Litre Pressure Cooker", "Home|Kitchen", "Aluminium outer lid pressure cooker.", 1199, 1850, 4.2, 8212},
	{"Pigeon Polypropylene Mini Handy Chopper", "Home|Kitchen", "400ml chopper with three blades for vegetables.", 199, 545, 4.1, 98242},
	{"Borosil Vision Glass Set of 6", "Home|Kitchen", "Microwave safe glass tumblers, 350ml each.", 499, 820, 4.3, 6511},
	{"Philips GC1905 Steam Iron", "Home|Appliances", "1440W iron with non-stick soleplate.", 1695, 2095, 4.3, 14450},
	{"Bajaj Majesty DX-11 Dry Iron", "Home|Appliances", "1000W dry iron with advance soleplate.", 649, 1000, 4.2, 36220},
	{"Havells Ventil Air DSP Exhaust Fan", "Home|Appliances", "230mm exhaust fan for kitchen and bathroom.", 1499, 2390, 4.1, 3111},
}

// SeedProducts returns the demo catalogue the dev backend starts with.
func SeedProducts() []domain.Product {
	out := make([]domain.Product, 0, len(seedCatalog))
	for i, s := range seedCatalog {
		rating := s.rating
		votes := s.votes
		discount := 0.0
		if s.original > 0 {
			discount = float64(int((1-s.price/s.original)*100 + 0.5))
		}
		out = append(out, domain.Product{
			ID:                 int64(i + 1),
			Name:               s.name,
			Category:           s.category,
			Description:        s.desc,
			Price:              s.price,
			OriginalPrice:      s.original,
			DiscountPercentage: discount,
			Rating:             &rating,
			RatingCount:        &votes,
			ImageURL:           "https://cdn.example.com/products/" + strconv.Itoa(i+1) + ".jpg",
			ProductURL:         "https://shop.example.com/p/" + strconv.Itoa(i+1),
		})
	}
	return out
}
