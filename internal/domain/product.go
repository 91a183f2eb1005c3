package domain

import (
	"time"
)

// Product represents a product in the catalog. Prices are whole currency units.
type Product struct {
	ID             string                 `json:"id" bson:"_id"`
	SellerID       string                 `json:"seller_id" bson:"seller_id"`
	Name           string                 `json:"name" bson:"name"`
	Description    string                 `json:"description" bson:"description"`
	Price          int64                  `json:"price" bson:"price"`
	OfferPrice     int64                  `json:"offer_price" bson:"offer_price"`
	Category       Category               `json:"category" bson:"category"`
	Images         []string               `json:"images" bson:"images"`
	Specifications map[string]interface{} `json:"specifications,omitempty" bson:"specifications,omitempty"`
	CreatedAt      time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at" bson:"updated_at"`
}

// MaxPrice caps catalog prices so order totals stay within int64
const MaxPrice int64 = 1_000_000_000_000

// Validate checks the invariants a seller must respect when saving a product
func (p *Product) Validate() error {
	if p.Price < 0 || p.Price > MaxPrice || p.OfferPrice < 0 || p.OfferPrice > MaxPrice {
		return ErrInvalidPrice
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	if len(p.Images) == 0 {
		return ErrProductImagesRequired
	}
	return ValidateSpecifications(p.Category, p.Specifications)
}

// PriceIndex maps product ids to their current offer price
type PriceIndex map[string]int64

// IndexPrices builds a PriceIndex from a list of products
func IndexPrices(products []*Product) PriceIndex {
	index := make(PriceIndex, len(products))
	for _, p := range products {
		index[p.ID] = p.OfferPrice
	}
	return index
}
