package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yashrajoria/storefront/services/product-service/models"
)

type memRepo struct {
	products   []models.Product
	lastFilter models.ProductFilter
	lastSkip   int
	lastLimit  int
}

func (m *memRepo) List(ctx context.Context, f models.ProductFilter, skip, limit int) ([]models.Product, int64, error) {
	m.lastFilter, m.lastSkip, m.lastLimit = f, skip, limit
	return m.products, int64(len(m.products)), nil
}

func (m *memRepo) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	for i := range m.products {
		if m.products[i].Slug == slug {
			return &m.products[i], nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *memRepo) FindByVariantIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, p := range m.products {
		for _, v := range p.Variants {
			if containsID(ids, v.ID) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (m *memRepo) UpsertBySlug(ctx context.Context, p *models.Product) (bool, error) {
	return false, nil
}

func (m *memRepo) EnsureIndexes(ctx context.Context) error { return nil }

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func catalog() *memRepo {
	return &memRepo{products: []models.Product{
		{Slug: "assam-gold", Name: "Assam Gold", Category: "tea", Variants: []models.Variant{
			{ID: 11, Label: "250g", PriceMinor: 24900, Stock: 8},
			{ID: 12, Label: "1kg", PriceMinor: 89900, Stock: 0},
		}},
		{Slug: "darjeeling-first-flush", Name: "Darjeeling First Flush", Category: "tea", Variants: []models.Variant{
			{ID: 21, PriceMinor: 74900, Stock: 3},
		}},
	}}
}

func TestListProductsPaging(t *testing.T) {
	repo := catalog()
	svc := NewProductService(repo)
	inStock := true

	_, total, err := svc.ListProducts(context.Background(), ListProductsParams{Page: 3, PerPage: 20, Category: "tea", InStock: &inStock})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, 40, repo.lastSkip)
	assert.Equal(t, 20, repo.lastLimit)
	assert.Equal(t, "tea", repo.lastFilter.Category)
	assert.True(t, *repo.lastFilter.InStock)
}

func TestGetProduct(t *testing.T) {
	svc := NewProductService(catalog())

	p, err := svc.GetProduct(context.Background(), "assam-gold")
	require.NoError(t, err)
	assert.Len(t, p.Variants, 2)

	_, err = svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestVariantsFlattensAndOmitsUnknown(t *testing.T) {
	svc := NewProductService(catalog())

	views, err := svc.Variants(context.Background(), []int64{21, 12, 99})
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, models.VariantView{VariantID: 12, ProductSlug: "assam-gold", Name: "Assam Gold - 1kg", PriceMinor: 89900, Stock: 0}, views[0])
	assert.Equal(t, models.VariantView{VariantID: 21, ProductSlug: "darjeeling-first-flush", Name: "Darjeeling First Flush", PriceMinor: 74900, Stock: 3}, views[1])
}

func TestVariantsLimit(t *testing.T) {
	svc := NewProductService(catalog())
	ids := make([]int64, MaxVariantLookup+1)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	_, err := svc.Variants(context.Background(), ids)
	assert.Error(t, err)
}
