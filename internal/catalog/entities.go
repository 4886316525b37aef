// Package catalog is the product catalog module. Its entities live in
// each tenant's own database, never in the control plane.
package catalog

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ModuleName is the catalog module's platform-wide name.
const ModuleName = "Catalog"

// Category groups products inside one tenant's catalog.
type Category struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null;uniqueIndex:ux_categories_name" json:"name"`
	IsDefault bool         `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Category) TableName() string { return "categories" }

// Product is one sellable item in a tenant's catalog.
type Product struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CategoryID  snowflake.ID `gorm:"index" json:"category_id"`
	SKU         string       `gorm:"type:text;not null;uniqueIndex:ux_products_sku" json:"sku"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	PriceCents  int64        `gorm:"not null;default:0" json:"price_cents"`
	Currency    string       `gorm:"type:text;not null;default:EUR" json:"currency"`
	Active      bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// Entities lists the schema every tenant database must contain for this module.
func Entities() []any {
	return []any{&Category{}, &Product{}}
}
