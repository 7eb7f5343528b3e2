package products

import (
	"github.com/shopspring/decimal"
)

// CreateProductInput captures a vendor's new listing. CommissionRate is
// optional and falls back to the platform default.
type CreateProductInput struct {
	Name              string           `json:"name" validate:"required,min=2,max=200"`
	Description       string           `json:"description" validate:"required,min=2"`
	PriceCents        int64            `json:"price_cents" validate:"required,gt=0"`
	ComparePriceCents *int64           `json:"compare_price_cents" validate:"omitempty,gt=0"`
	CommissionRate    *decimal.Decimal `json:"commission_rate"`
	StockQuantity     int              `json:"stock_quantity" validate:"gte=0"`
	SKU               *string          `json:"sku" validate:"omitempty,min=1,max=64"`
}

// UpdateProductInput carries a partial listing edit. Nil fields are left
// untouched.
type UpdateProductInput struct {
	Name              *string          `json:"name" validate:"omitempty,min=2,max=200"`
	Description       *string          `json:"description" validate:"omitempty,min=2"`
	PriceCents        *int64           `json:"price_cents" validate:"omitempty,gt=0"`
	ComparePriceCents *int64           `json:"compare_price_cents" validate:"omitempty,gt=0"`
	CommissionRate    *decimal.Decimal `json:"commission_rate"`
	StockQuantity     *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	Active            *bool            `json:"active"`
}
