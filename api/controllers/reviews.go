package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/api/responses"
	"github.com/mvalenz/bazario-backend/api/validators"
	reviewsvc "github.com/mvalenz/bazario-backend/internal/reviews"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	pkgerrors "github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/pagination"
)

type createReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=2,max=2000"`
}

// CreateReview stores a verified purchase review for a product.
func CreateReview(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
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

		var payload createReviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Create(r.Context(), uid, reviewsvc.CreateReviewInput{
			ProductID: productID,
			Rating:    payload.Rating,
			Comment:   payload.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newReviewResponse(review))
	}
}

// ListProductReviews returns a product's reviews, newest first.
func ListProductReviews(svc reviewsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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

		items, next, err := svc.ListByProduct(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, reviewListResponse{
			Items:      newReviewResponses(items),
			NextCursor: next,
		})
	}
}

type reviewResponse struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type reviewListResponse struct {
	Items      []reviewResponse `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func newReviewResponse(review *models.Review) reviewResponse {
	return reviewResponse{
		ID:         review.ID,
		ProductID:  review.ProductID,
		CustomerID: review.CustomerID,
		Rating:     review.Rating,
		Comment:    review.Comment,
		Verified:   review.Verified,
		CreatedAt:  review.CreatedAt,
	}
}

func newReviewResponses(items []models.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(items))
	for i := range items {
		out = append(out, newReviewResponse(&items[i]))
	}
	return out
}
