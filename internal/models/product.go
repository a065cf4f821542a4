package models

import "time"

// Category groups products
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is a sellable item with one or more variants
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Category    *Category        `json:"category,omitempty"`
	Variants    []ProductVariant `json:"variants"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ProductVariant is a concrete purchasable configuration of a product.
// ImageKey holds the object-store key; ImageURL is filled at read time
// (presigned when object storage is configured, the raw key otherwise).
type ProductVariant struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Color        string `json:"color,omitempty"`
	PriceInCents int64  `json:"price_in_cents"`
	ImageKey     string `json:"-"`
	ImageURL     string `json:"image_url,omitempty"`
}
