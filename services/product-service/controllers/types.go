package controllers

import (
	"context"

	"github.com/yashrajoria/storefront/services/product-service/models"
	"github.com/yashrajoria/storefront/services/product-service/services"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ProductServiceAPI defines the interface for product service operations
type ProductServiceAPI interface {
	ListProducts(ctx context.Context, params services.ListProductsParams) ([]models.Product, int64, error)
	GetProduct(ctx context.Context, slug string) (*models.Product, error)
	Variants(ctx context.Context, ids []int64) ([]models.VariantView, error)
}

// DetailCache caches product detail documents by slug.
type DetailCache interface {
	GetProduct(ctx context.Context, slug string) (*models.Product, bool)
	SetProductAsync(product *models.Product)
}
