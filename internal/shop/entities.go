// Package shop is the storefront module.
package shop

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const ModuleName = "Shop"

// Settings holds one tenant's storefront configuration. Exactly one row
// exists per tenant database.
type Settings struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	DisplayName string       `gorm:"type:text;not null" json:"display_name"`
	Currency    string       `gorm:"type:text;not null;default:EUR" json:"currency"`
	Timezone    string       `gorm:"type:text;not null;default:UTC" json:"timezone"`
	Published   bool         `gorm:"not null;default:false" json:"published"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Settings) TableName() string { return "shop_settings" }

// SalesChannel is one storefront surface (online shop, point of sale, ...).
type SalesChannel struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_sales_channels_code" json:"code"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Enabled   bool         `gorm:"not null;default:true" json:"enabled"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (SalesChannel) TableName() string { return "sales_channels" }

// Entities lists the schema every tenant database must contain for this module.
func Entities() []any {
	return []any{&Settings{}, &SalesChannel{}}
}
