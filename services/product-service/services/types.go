package services

// ListProductsParams contains parameters for listing products with filters
type ListProductsParams struct {
	Page     int
	PerPage  int
	Category string
	InStock  *bool
}

// MaxVariantLookup bounds one internal variant lookup.
const MaxVariantLookup = 100
