package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/storefront/services/common/logger"
	"github.com/yashrajoria/storefront/services/product-service/services"
)

type ProductController struct {
	service ProductServiceAPI
	cache   DetailCache
}

// NewProductController creates a controller. cache may be nil.
func NewProductController(service ProductServiceAPI, cache DetailCache) *ProductController {
	return &ProductController{service: service, cache: cache}
}

// GetProducts lists products, optionally filtered by category and stock.
func (pc *ProductController) GetProducts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("perPage", strconv.Itoa(defaultPerPage)))
	if err != nil || perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	params := services.ListProductsParams{
		Page:     page,
		PerPage:  perPage,
		Category: strings.TrimSpace(c.Query("category")),
	}
	if raw := c.Query("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "in_stock must be a boolean"})
			return
		}
		params.InStock = &inStock
	}

	products, total, err := pc.service.ListProducts(c.Request.Context(), params)
	if err != nil {
		logger.Error(c.Request.Context(), "Error listing products", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"meta": gin.H{
			"page":       page,
			"perPage":    perPage,
			"total":      total,
			"totalPages": int(math.Ceil(float64(total) / float64(perPage))),
		},
	})
}

// GetProduct returns one product by slug, served from Redis when cached.
func (pc *ProductController) GetProduct(c *gin.Context) {
	slug := c.Param("slug")
	ctx := c.Request.Context()

	if pc.cache != nil {
		if product, ok := pc.cache.GetProduct(ctx, slug); ok {
			c.JSON(http.StatusOK, product)
			return
		}
	}

	product, err := pc.service.GetProduct(ctx, slug)
	if errors.Is(err, services.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		logger.Error(ctx, "Error loading product", err, zap.String("slug", slug))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if pc.cache != nil {
		pc.cache.SetProductAsync(product)
	}
	c.JSON(http.StatusOK, product)
}

// GetVariants serves GET /internal/variants?ids=1,2 to order-service. The
// response is a bare array; unknown ids are omitted.
func (pc *ProductController) GetVariants(c *gin.Context) {
	ids, err := parseIDs(c.Query("ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(ids) > services.MaxVariantLookup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many variant ids"})
		return
	}

	views, err := pc.service.Variants(c.Request.Context(), ids)
	if err != nil {
		logger.Error(c.Request.Context(), "Variant lookup failed", err, zap.Int("ids", len(ids)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch variants"})
		return
	}
	c.JSON(http.StatusOK, views)
}

func parseIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("ids is required")
	}
	seen := map[int64]bool{}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("ids must be positive integers")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}
