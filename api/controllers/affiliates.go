package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/api/responses"
	"github.com/mvalenz/bazario-backend/api/validators"
	affiliatesvc "github.com/mvalenz/bazario-backend/internal/affiliates"
	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	pkgerrors "github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
)

type createAffiliateLinkRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// CreateAffiliateLink mints a tracking code for an approved listing.
func CreateAffiliateLink(svc affiliatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createAffiliateLinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		link, err := svc.CreateLink(r.Context(), uid, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAffiliateLinkResponse(link))
	}
}

// ListAffiliateLinks returns the caller's tracking links with their counters.
func ListAffiliateLinks(svc affiliatesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		links, err := svc.ListByAffiliate(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]affiliateLinkResponse, 0, len(links))
		for i := range links {
			items = append(items, newAffiliateLinkResponse(&links[i]))
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// AffiliateRedirect counts the click and forwards the visitor to the
// product page with the code preserved as a ref parameter.
func AffiliateRedirect(svc affiliatesvc.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "affiliate service unavailable"))
			return
		}

		code := chi.URLParam(r, "code")
		link, err := svc.RecordClick(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target := fmt.Sprintf("%s/products/%s?ref=%s", cfg.App.BaseURL, link.ProductID, link.Code)
		http.Redirect(w, r, target, http.StatusFound)
	}
}

type affiliateLinkResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	ProductID   uuid.UUID `json:"product_id"`
	AffiliateID uuid.UUID `json:"affiliate_id"`
	Clicks      int64     `json:"clicks"`
	Conversions int64     `json:"conversions"`
	CreatedAt   time.Time `json:"created_at"`
}

func newAffiliateLinkResponse(link *models.AffiliateLink) affiliateLinkResponse {
	if link == nil {
		return affiliateLinkResponse{}
	}
	return affiliateLinkResponse{
		ID:          link.ID,
		Code:        link.Code,
		ProductID:   link.ProductID,
		AffiliateID: link.AffiliateID,
		Clicks:      link.Clicks,
		Conversions: link.Conversions,
		CreatedAt:   link.CreatedAt,
	}
}
