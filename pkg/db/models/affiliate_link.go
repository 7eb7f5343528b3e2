package models

import (
	"time"

	"github.com/google/uuid"
)

// AffiliateLink ties a tracking code to a product and the affiliate who
// promotes it. Clicks and conversions are denormalized counters; each
// conversion is additionally backed by an AffiliateConversion row keyed by
// order id so the counter can only move once per order.
type AffiliateLink struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string    `gorm:"column:code;not null;uniqueIndex"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	AffiliateID uuid.UUID `gorm:"column:affiliate_id;type:uuid;not null;index"`
	Clicks      int64     `gorm:"column:clicks;not null;default:0"`
	Conversions int64     `gorm:"column:conversions;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AffiliateConversion is the idempotency record behind the conversions
// counter: one row per paid order, enforced by the unique order_id index.
type AffiliateConversion struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LinkID    uuid.UUID `gorm:"column:link_id;type:uuid;not null;index"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
