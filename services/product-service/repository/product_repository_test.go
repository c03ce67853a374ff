package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/yashrajoria/storefront/services/product-service/models"
)

const ns = "catalog.products"

func assamGold() bson.D {
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "slug", Value: "assam-gold"},
		{Key: "name", Value: "Assam Gold"},
		{Key: "category", Value: "tea"},
		{Key: "in_stock", Value: true},
		{Key: "variants", Value: bson.A{
			bson.D{{Key: "id", Value: int64(11)}, {Key: "label", Value: "250g"}, {Key: "price_minor", Value: int64(24900)}, {Key: "stock", Value: 8}},
		}},
	}
}

func TestProductRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find by slug", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, assamGold()))

		p, err := repo.FindBySlug(context.Background(), "assam-gold")
		require.NoError(mt, err)
		assert.Equal(mt, "Assam Gold", p.Name)
		require.Len(mt, p.Variants, 1)
		assert.Equal(mt, int64(24900), p.Variants[0].PriceMinor)
	})

	mt.Run("find by slug missing", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindBySlug(context.Background(), "missing")
		assert.ErrorIs(mt, err, mongo.ErrNoDocuments)
	})

	mt.Run("list with count", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, assamGold()),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(21)}}),
		)

		products, total, err := repo.List(context.Background(), models.ProductFilter{Category: "tea"}, 0, 20)
		require.NoError(mt, err)
		assert.Len(mt, products, 1)
		assert.Equal(mt, int64(21), total)
	})

	mt.Run("upsert inserts", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: primitive.NewObjectID()}}}},
		))

		created, err := repo.UpsertBySlug(context.Background(), &models.Product{
			Slug:     "assam-gold",
			Name:     "Assam Gold",
			Variants: []models.Variant{{ID: 11, PriceMinor: 24900, Stock: 8}},
		})
		require.NoError(mt, err)
		assert.True(mt, created)
	})

	mt.Run("upsert updates", func(mt *mtest.T) {
		repo := NewProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		created, err := repo.UpsertBySlug(context.Background(), &models.Product{Slug: "assam-gold"})
		require.NoError(mt, err)
		assert.False(mt, created)
	})
}

func TestListFilter(t *testing.T) {
	inStock := false
	assert.Equal(t, bson.M{}, listFilter(models.ProductFilter{}))
	assert.Equal(t, bson.M{"category": "tea", "in_stock": false}, listFilter(models.ProductFilter{Category: "tea", InStock: &inStock}))
}
