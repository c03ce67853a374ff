// Command seed-catalog upserts a YAML catalog into the products collection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yashrajoria/storefront/services/common/database"
	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/product-service/cache"
	"github.com/yashrajoria/storefront/services/product-service/repository"
)

func main() {
	var file, mongoURI, dbName, redisURL string
	var dryRun bool
	flag.StringVar(&file, "file", "catalog.yaml", "YAML catalog to load")
	flag.StringVar(&mongoURI, "mongo", envOr("MONGO_URL", "mongodb://localhost:27017"), "MongoDB URI")
	flag.StringVar(&dbName, "db", envOr("MONGO_DB", "catalog"), "MongoDB database name")
	flag.StringVar(&redisURL, "redis", os.Getenv("REDIS_URL"), "Redis URL; cached product details are dropped when set")
	flag.BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	flag.Parse()

	log := logger.Initialize(envOr("ENVIRONMENT", "development"))
	defer log.Sync()

	f, err := os.Open(file)
	if err != nil {
		log.Fatal("Failed to open catalog", zap.String("file", file), zap.Error(err))
	}
	products, err := loadCatalog(f)
	f.Close()
	if err != nil {
		log.Fatal("Invalid catalog", zap.String("file", file), zap.Error(err))
	}
	log.Info("Catalog loaded", zap.String("file", file), zap.Int("products", len(products)))
	if dryRun {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, db, err := database.ConnectMongo(ctx, mongoURI, dbName, log)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer database.DisconnectMongo(client, log)

	repo := repository.NewProductRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to ensure product indexes", zap.Error(err))
	}

	res, err := seed(ctx, repo, products)
	if err != nil {
		log.Fatal("Seeding failed", zap.Int("created", res.Created), zap.Int("updated", res.Updated), zap.Error(err))
	}
	log.Info("Catalog seeded", zap.Int("created", res.Created), zap.Int("updated", res.Updated))

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatal("Invalid Redis URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := cache.NewCacheManager(rdb, 0, nil, log).InvalidateProducts(ctx, res.Slugs...); err != nil {
			log.Warn("Failed to drop cached product details", zap.Error(err))
		}
	}

	fmt.Printf("seeded %d products (%d new, %d updated)\n", res.Created+res.Updated, res.Created, res.Updated)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
