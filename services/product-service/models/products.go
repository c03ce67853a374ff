package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. Prices and stock live on its variants.
type Product struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty" yaml:"-"`
	Slug      string             `json:"slug" bson:"slug" yaml:"slug"`
	Name      string             `json:"name" bson:"name" yaml:"name"`
	Category  string             `json:"category" bson:"category" yaml:"category"`
	InStock   bool               `json:"inStock" bson:"in_stock" yaml:"-"`
	Variants  []Variant          `json:"variants" bson:"variants" yaml:"variants"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at" yaml:"-"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at" yaml:"-"`
}

// Variant is one purchasable option of a product. Its id is global across
// the catalog.
type Variant struct {
	ID         int64  `json:"id" bson:"id" yaml:"id"`
	Label      string `json:"label" bson:"label" yaml:"label"`
	PriceMinor int64  `json:"priceMinor" bson:"price_minor" yaml:"price_minor"`
	Stock      int    `json:"stock" bson:"stock" yaml:"stock"`
}

// HasStock reports whether any variant can be sold.
func (p *Product) HasStock() bool {
	for _, v := range p.Variants {
		if v.Stock > 0 {
			return true
		}
	}
	return false
}

// VariantView is the flattened variant read by order-service.
type VariantView struct {
	VariantID   int64  `json:"variantId"`
	ProductSlug string `json:"productSlug"`
	Name        string `json:"name"`
	PriceMinor  int64  `json:"priceMinor"`
	Stock       int    `json:"stock"`
}

// View flattens v for the internal variant endpoint. Name combines the
// product name and the variant label.
func (p *Product) View(v Variant) VariantView {
	name := p.Name
	if v.Label != "" {
		name += " - " + v.Label
	}
	return VariantView{
		VariantID:   v.ID,
		ProductSlug: p.Slug,
		Name:        name,
		PriceMinor:  v.PriceMinor,
		Stock:       v.Stock,
	}
}
