package models

// ProductFilter narrows a catalog listing. Zero values do not filter.
type ProductFilter struct {
	Category string
	InStock  *bool
}

// CatalogFile is the document read by the catalog seeder.
type CatalogFile struct {
	Products []Product `yaml:"products"`
}
