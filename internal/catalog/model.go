// Package catalog stores the furniture catalog: the category tree, product
// types, products and their photos.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        int64  `db:"id"`
	Slug      string `db:"slug"`
	Name      string `db:"name"`
	ParentID  *int64 `db:"parent_id"`
	SortOrder int    `db:"sort_order"`
}

// IsRoot reports whether the category sits at the top of the tree.
func (c Category) IsRoot() bool { return c.ParentID == nil }

type NewCategory struct {
	Name string
	// Slug is generated from Name when empty.
	Slug      string
	ParentID  *int64
	SortOrder int
}

type ProductType struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Slug        string  `db:"slug"`
	Description *string `db:"description"`
}

type NewProductType struct {
	Name        string
	Slug        string
	Description string
}

// Product is a catalog item together with the category fields needed for navigation.
type Product struct {
	ID            int64               `db:"id"`
	CategoryID    int64               `db:"category_id"`
	ProductTypeID *int64              `db:"product_type_id"`
	Country       string              `db:"country"`
	Title         string              `db:"title"`
	Description   string              `db:"description"`
	Price         decimal.NullDecimal `db:"price"`
	Dimensions    *string             `db:"dimensions"`
	InStock       bool                `db:"in_stock"`
	SortOrder     int                 `db:"sort_order"`
	CreatedAt     time.Time           `db:"created_at"`

	CategorySlug     string  `db:"category_slug"`
	CategoryName     string  `db:"category_name"`
	CategoryParentID *int64  `db:"category_parent_id"`
	ProductTypeName  *string `db:"product_type_name"`
}

type NewProduct struct {
	CategoryID    int64
	ProductTypeID *int64
	Country       string
	Title         string
	Description   string
	Price         decimal.NullDecimal
	Dimensions    *string
	// InStock defaults to true when nil.
	InStock   *bool
	SortOrder int
	// PhotoURLs are stored in order; the first one becomes the main photo.
	PhotoURLs []string
}

// ProductPatch lists the fields to change; nil fields are left untouched.
// A non-nil Price with Valid=false clears the price.
type ProductPatch struct {
	CategoryID    *int64
	ProductTypeID *int64
	Country       *string
	Title         *string
	Description   *string
	Price         *decimal.NullDecimal
	Dimensions    *string
	InStock       *bool
	SortOrder     *int
}

func (p ProductPatch) empty() bool {
	return p == ProductPatch{}
}

// ProductFilter narrows ListProducts. Zero values mean "any".
type ProductFilter struct {
	CategoryID    int64
	CategorySlug  string
	Country       string
	ProductTypeID int64
	Limit         int
	Offset        int
}

type ProductPhoto struct {
	ID        int64  `db:"id"`
	ProductID int64  `db:"product_id"`
	PhotoURL  string `db:"photo_url"`
	SortOrder int    `db:"sort_order"`
	IsMain    bool   `db:"is_main"`
}

// Stats aggregates the catalog for the admin dashboard.
type Stats struct {
	Products   int                 `db:"products"`
	Categories int                 `db:"categories"`
	AvgPrice   decimal.NullDecimal `db:"avg_price"`
}
