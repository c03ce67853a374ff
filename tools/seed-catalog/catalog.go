package main

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/yashrajoria/storefront/services/product-service/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type upserter interface {
	UpsertBySlug(ctx context.Context, product *models.Product) (bool, error)
}

type seedResult struct {
	Created int
	Updated int
	Slugs   []string
}

// loadCatalog decodes and checks a catalog file. Slugs and variant ids must
// be unique across the whole file.
func loadCatalog(r io.Reader) ([]models.Product, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc models.CatalogFile
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Products) == 0 {
		return nil, fmt.Errorf("catalog has no products")
	}

	slugs := map[string]bool{}
	variants := map[int64]string{}
	for i := range doc.Products {
		p := &doc.Products[i]
		switch {
		case !slugPattern.MatchString(p.Slug):
			return nil, fmt.Errorf("product %d: invalid slug %q", i, p.Slug)
		case slugs[p.Slug]:
			return nil, fmt.Errorf("duplicate slug %q", p.Slug)
		case p.Name == "":
			return nil, fmt.Errorf("%s: name is required", p.Slug)
		case len(p.Variants) == 0:
			return nil, fmt.Errorf("%s: at least one variant is required", p.Slug)
		}
		slugs[p.Slug] = true

		for _, v := range p.Variants {
			if v.ID <= 0 {
				return nil, fmt.Errorf("%s: variant id must be positive", p.Slug)
			}
			if owner, dup := variants[v.ID]; dup {
				return nil, fmt.Errorf("variant %d used by %s and %s", v.ID, owner, p.Slug)
			}
			if v.PriceMinor <= 0 {
				return nil, fmt.Errorf("%s: variant %d needs a positive price_minor", p.Slug, v.ID)
			}
			if v.Stock < 0 {
				return nil, fmt.Errorf("%s: variant %d has negative stock", p.Slug, v.ID)
			}
			variants[v.ID] = p.Slug
		}
		p.InStock = p.HasStock()
	}
	return doc.Products, nil
}

func seed(ctx context.Context, repo upserter, products []models.Product) (seedResult, error) {
	var res seedResult
	for i := range products {
		created, err := repo.UpsertBySlug(ctx, &products[i])
		if err != nil {
			return res, fmt.Errorf("upsert %s: %w", products[i].Slug, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
		res.Slugs = append(res.Slugs, products[i].Slug)
	}
	return res, nil
}
