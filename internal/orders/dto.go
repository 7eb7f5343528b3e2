package orders

import (
	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/payments"
)

// OrderItemInput is one requested line of a checkout.
type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput captures a checkout request. Prices are never accepted
// from the client; they are resolved server-side from the listings.
type CreateOrderInput struct {
	Items         []OrderItemInput      `json:"items" validate:"required,min=1,dive"`
	AffiliateCode *string               `json:"affiliate_code"`
	Provider      enums.PaymentProvider `json:"payment_provider" validate:"required"`
}

// CreateOrderResult bundles the stored order with the payment handle the
// provider returned, if any.
type CreateOrderResult struct {
	Order   *models.Order          `json:"order"`
	Payment *payments.ChargeResult `json:"payment,omitempty"`
}
