package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/api/middleware"
	"github.com/mvalenz/bazario-backend/api/responses"
	"github.com/mvalenz/bazario-backend/api/validators"
	ordersvc "github.com/mvalenz/bazario-backend/internal/orders"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	pkgerrors "github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/payments"
)

// CreateOrder runs checkout for the authenticated customer.
func CreateOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ordersvc.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), uid, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCreateOrderResponse(result))
	}
}

// ListOrders returns the caller's own orders, newest first.
func ListOrders(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListByCustomer(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(orders))
		for i := range orders {
			items = append(items, newOrderResponse(&orders[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// GetOrder returns one order. Admins can read any order; everyone else only
// their own.
func GetOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role := enums.UserRole(middleware.RoleFromContext(r.Context()))
		order, err := svc.GetByID(r.Context(), orderID, uid, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type confirmPaymentRequest struct {
	PaymentRef *string `json:"payment_ref"`
}

// ConfirmOrderPayment settles a pending order after the provider reports a
// successful charge. Replays return the already-settled order unchanged.
func ConfirmOrderPayment(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ConfirmPayment(r.Context(), orderID, payload.PaymentRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminFailOrder marks a pending order as failed.
func AdminFailOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkFailed(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// AdminRefundOrder marks a pending or paid order as refunded.
func AdminRefundOrder(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.MarkRefunded(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type createOrderResponse struct {
	Order   orderResponse          `json:"order"`
	Payment *payments.ChargeResult `json:"payment,omitempty"`
}

type orderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	CustomerID           uuid.UUID           `json:"customer_id"`
	SubtotalCents        int64               `json:"subtotal_cents"`
	AffiliateLinkID      *uuid.UUID          `json:"affiliate_link_id,omitempty"`
	VendorPayoutCents    int64               `json:"vendor_payout_cents"`
	AffiliatePayoutCents int64               `json:"affiliate_payout_cents"`
	PlatformFeeCents     int64               `json:"platform_fee_cents"`
	Status               string              `json:"status"`
	PaymentProvider      string              `json:"payment_provider"`
	PaymentRef           *string             `json:"payment_ref,omitempty"`
	Items                []orderItemResponse `json:"items"`
	CreatedAt            time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

func newCreateOrderResponse(result *ordersvc.CreateOrderResult) createOrderResponse {
	if result == nil {
		return createOrderResponse{}
	}
	return createOrderResponse{
		Order:   newOrderResponse(result.Order),
		Payment: result.Payment,
	}
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return orderResponse{
		ID:                   order.ID,
		CustomerID:           order.CustomerID,
		SubtotalCents:        order.SubtotalCents,
		AffiliateLinkID:      order.AffiliateLinkID,
		VendorPayoutCents:    order.VendorPayoutCents,
		AffiliatePayoutCents: order.AffiliatePayoutCents,
		PlatformFeeCents:     order.PlatformFeeCents,
		Status:               string(order.Status),
		PaymentProvider:      string(order.PaymentProvider),
		PaymentRef:           order.PaymentRef,
		Items:                items,
		CreatedAt:            order.CreatedAt,
	}
}
