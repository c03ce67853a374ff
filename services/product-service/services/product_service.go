package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yashrajoria/storefront/services/product-service/models"
	"github.com/yashrajoria/storefront/services/product-service/repository"
)

var ErrProductNotFound = errors.New("product not found")

type ProductService struct {
	repo repository.ProductRepo
}

func NewProductService(repo repository.ProductRepo) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, int64, error) {
	skip := (params.Page - 1) * params.PerPage
	filter := models.ProductFilter{Category: params.Category, InStock: params.InStock}
	return s.repo.List(ctx, filter, skip, params.PerPage)
}

func (s *ProductService) GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// Variants resolves variant ids to their current price and stock. Unknown
// ids are left out; callers detect them by comparing lengths.
func (s *ProductService) Variants(ctx context.Context, ids []int64) ([]models.VariantView, error) {
	if len(ids) > MaxVariantLookup {
		return nil, fmt.Errorf("at most %d variant ids per lookup", MaxVariantLookup)
	}
	products, err := s.repo.FindByVariantIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	views := []models.VariantView{}
	for i := range products {
		p := &products[i]
		for _, v := range p.Variants {
			if want[v.ID] {
				views = append(views, p.View(v))
				delete(want, v.ID)
			}
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].VariantID < views[j].VariantID })
	return views, nil
}
