// Package cache keeps product detail documents in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/product-service/models"
)

const (
	ProductCachePrefix = "product:detail:"
	DefaultCacheTTL    = 10 * time.Minute

	writeTimeout = 5 * time.Second
)

// CacheManager handles product detail caching. Redis failures degrade to
// cache misses.
type CacheManager struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics awspkg.MetricsRecorder
	logger  *zap.Logger
}

func NewCacheManager(client *redis.Client, ttl time.Duration, metrics awspkg.MetricsRecorder, logger *zap.Logger) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheManager{redis: client, ttl: ttl, metrics: metrics, logger: logger}
}

func key(slug string) string { return ProductCachePrefix + slug }

// GetProduct returns the cached product for slug.
func (cm *CacheManager) GetProduct(ctx context.Context, slug string) (*models.Product, bool) {
	data, err := cm.redis.Get(ctx, key(slug)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			cm.logger.Warn("Product cache read failed", zap.String("slug", slug), zap.Error(err))
		}
		cm.count(ctx, awspkg.MetricCacheMisses)
		return nil, false
	}

	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		cm.logger.Warn("Failed to unmarshal cached product", zap.String("slug", slug), zap.Error(err))
		cm.count(ctx, awspkg.MetricCacheMisses)
		return nil, false
	}
	cm.count(ctx, awspkg.MetricCacheHits)
	return &product, true
}

// SetProductAsync caches a product without holding up the request.
func (cm *CacheManager) SetProductAsync(product *models.Product) {
	payload, err := json.Marshal(product)
	if err != nil {
		cm.logger.Warn("Failed to marshal product for cache", zap.String("slug", product.Slug), zap.Error(err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := cm.redis.Set(ctx, key(product.Slug), payload, cm.ttl).Err(); err != nil {
			cm.logger.Warn("Failed to cache product", zap.String("slug", product.Slug), zap.Error(err))
		}
	}()
}

// InvalidateProducts drops the cached detail of every slug.
func (cm *CacheManager) InvalidateProducts(ctx context.Context, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}
	keys := make([]string, len(slugs))
	for i, s := range slugs {
		keys[i] = key(s)
	}
	return cm.redis.Del(ctx, keys...).Err()
}

func (cm *CacheManager) count(ctx context.Context, metric string) {
	if cm.metrics == nil {
		return
	}
	_ = cm.metrics.RecordCount(ctx, metric, map[string]string{"Service": "product-service", "Cache": "product_detail"})
}
