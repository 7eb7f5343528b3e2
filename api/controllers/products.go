package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvalenz/bazario-backend/api/responses"
	"github.com/mvalenz/bazario-backend/api/validators"
	productsvc "github.com/mvalenz/bazario-backend/internal/products"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	pkgerrors "github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/pagination"
)

// ListProducts returns the public storefront listing, newest first.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		items, next, err := svc.ListForSale(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productListResponse{
			Items:      newProductResponses(items),
			NextCursor: next,
		})
	}
}

// GetProduct returns a single approved active listing.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.FindForSale(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// VendorCreateProduct submits a new listing into the moderation queue.
func VendorCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productsvc.CreateProductInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), uid, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

// VendorUpdateProduct edits a listing owned by the caller.
func VendorUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productsvc.UpdateProductInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), uid, productID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

// VendorListProducts returns every listing owned by the caller, regardless
// of moderation state.
func VendorListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListByVendor(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productListResponse{Items: newProductResponses(items)})
	}
}

// AdminListModerationQueue returns pending listings awaiting review.
func AdminListModerationQueue(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		items, err := svc.ListModerationQueue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productListResponse{Items: newProductResponses(items)})
	}
}

// AdminApproveProduct approves a pending listing.
func AdminApproveProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Approve(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type rejectProductRequest struct {
	Reason string `json:"reason" validate:"required,min=2,max=500"`
}

// AdminRejectProduct rejects a pending listing with a reason the vendor sees.
func AdminRejectProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rejectProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Reject(r.Context(), productID, payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type productListResponse struct {
	Items      []productResponse `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type productResponse struct {
	ID                uuid.UUID       `json:"id"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	PriceCents        int64           `json:"price_cents"`
	ComparePriceCents *int64          `json:"compare_price_cents,omitempty"`
	CommissionRate    decimal.Decimal `json:"commission_rate"`
	StockQuantity     int             `json:"stock_quantity"`
	SKU               *string         `json:"sku,omitempty"`
	Status            string          `json:"status"`
	RejectionReason   *string         `json:"rejection_reason,omitempty"`
	Active            bool            `json:"active"`
	SalesCount        int64           `json:"sales_count"`
	AverageRating     decimal.Decimal `json:"average_rating"`
	ReviewCount       int64           `json:"review_count"`
	CreatedAt         time.Time       `json:"created_at"`
}

func newProductResponse(product *models.Product) productResponse {
	if product == nil {
		return productResponse{}
	}
	return productResponse{
		ID:                product.ID,
		VendorID:          product.VendorID,
		Name:              product.Name,
		Description:       product.Description,
		PriceCents:        product.PriceCents,
		ComparePriceCents: product.ComparePriceCents,
		CommissionRate:    product.CommissionRate,
		StockQuantity:     product.StockQuantity,
		SKU:               product.SKU,
		Status:            string(product.Status),
		RejectionReason:   product.RejectionReason,
		Active:            product.Active,
		SalesCount:        product.SalesCount,
		AverageRating:     product.AverageRating,
		ReviewCount:       product.ReviewCount,
		CreatedAt:         product.CreatedAt,
	}
}

func newProductResponses(items []models.Product) []productResponse {
	out := make([]productResponse, 0, len(items))
	for i := range items {
		out = append(out, newProductResponse(&items[i]))
	}
	return out
}
