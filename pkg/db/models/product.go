package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvalenz/bazario-backend/pkg/enums"
)

// Product represents the canonical vendor listing. StockQuantity is only
// mutated through guarded updates so it can never be observed negative.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name            string              `gorm:"column:name;not null"`
	Description     string              `gorm:"column:description;not null"`
	PriceCents      int64               `gorm:"column:price_cents;not null"`
	ComparePriceCents *int64            `gorm:"column:compare_price_cents"`
	CommissionRate  decimal.Decimal     `gorm:"column:commission_rate;type:numeric(6,4);not null"`
	StockQuantity   int                 `gorm:"column:stock_quantity;not null;default:0"`
	SKU             *string             `gorm:"column:sku;uniqueIndex"`
	Status          enums.ProductStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RejectionReason *string             `gorm:"column:rejection_reason"`
	Active          bool                `gorm:"column:active;not null;default:true"`
	SalesCount      int64               `gorm:"column:sales_count;not null;default:0"`
	AverageRating   decimal.Decimal     `gorm:"column:average_rating;type:numeric(3,2);not null;default:0"`
	ReviewCount     int64               `gorm:"column:review_count;not null;default:0"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
