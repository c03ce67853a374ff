package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yashrajoria/storefront/services/product-service/models"
)

const productsCollection = "products"

// ProductRepo is the catalog storage used by product-service and the seed tool.
type ProductRepo interface {
	List(ctx context.Context, filter models.ProductFilter, skip, limit int) ([]models.Product, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByVariantIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	UpsertBySlug(ctx context.Context, product *models.Product) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(productsCollection),
	}
}

func listFilter(f models.ProductFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.InStock != nil {
		filter["in_stock"] = *f.InStock
	}
	return filter
}

func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter, skip, limit int) ([]models.Product, int64, error) {
	filter := listFilter(f)

	findOptions := options.Find().
		SetSort(bson.D{{Key: "slug", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindBySlug returns mongo.ErrNoDocuments when there is no such product.
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByVariantIDs returns every product owning at least one of ids.
func (r *ProductRepository) FindByVariantIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"variants.id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// UpsertBySlug replaces the catalog fields of the product with the same slug,
// inserting it when absent. It reports whether a new document was created.
func (r *ProductRepository) UpsertBySlug(ctx context.Context, p *models.Product) (bool, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":       p.Name,
			"category":   p.Category,
			"in_stock":   p.HasStock(),
			"variants":   p.Variants,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"slug":       p.Slug,
			"created_at": now,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"slug": p.Slug}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// EnsureIndexes creates the unique slug and variant id indexes.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "variants.id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "in_stock", Value: 1}}},
	})
	return err
}
