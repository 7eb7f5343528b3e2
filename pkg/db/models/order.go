package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/pkg/enums"
)

// Order captures a checkout together with its settlement breakdown. The
// payout fields are computed once at creation time and never recomputed.
type Order struct {
	ID                   uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID           uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	SubtotalCents        int64                 `gorm:"column:subtotal_cents;not null"`
	AffiliateLinkID      *uuid.UUID            `gorm:"column:affiliate_link_id;type:uuid;index"`
	VendorPayoutCents    int64                 `gorm:"column:vendor_payout_cents;not null"`
	AffiliatePayoutCents int64                 `gorm:"column:affiliate_payout_cents;not null"`
	PlatformFeeCents     int64                 `gorm:"column:platform_fee_cents;not null"`
	Status               enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentProvider      enums.PaymentProvider `gorm:"column:payment_provider;type:text;not null;default:'manual'"`
	PaymentRef           *string               `gorm:"column:payment_ref"`
	Items                []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a purchased line. UnitPriceCents is copied from the
// product at creation time; later price edits never touch it.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
