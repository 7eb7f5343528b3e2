package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/pagination"
)

// ProductCatalog is the slice of the products domain the review service
// needs when validating review targets.
type ProductCatalog interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateReviewInput carries a new review from the API layer.
type CreateReviewInput struct {
	ProductID uuid.UUID
	Rating    int
	Comment   string
}

// Service manages verified purchase reviews and the product rating rollup.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, input CreateReviewInput) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, string, error)
}

type service struct {
	repo    Repository
	tx      TxRunner
	catalog ProductCatalog
}

// NewService wires the reviews service with its dependencies.
func NewService(repo Repository, tx TxRunner, catalog ProductCatalog) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

// Create stores a review for a product the customer has paid for. A second
// review of the same product by the same customer is a conflict. The product
// rating rollup is recomputed in the same transaction.
func (s *service) Create(ctx context.Context, customerID uuid.UUID, input CreateReviewInput) (*models.Review, error) {
	if customerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "customer id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "product id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, errors.New(errors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.Comment == "" {
		return nil, errors.New(errors.CodeValidation, "comment is required")
	}

	if _, err := s.catalog.FindProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	purchased, err := s.repo.HasPaidPurchase(ctx, customerID, input.ProductID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking purchase history")
	}
	if !purchased {
		return nil, errors.New(errors.CodeForbidden, "only purchased products can be reviewed")
	}

	review := &models.Review{
		ProductID:  input.ProductID,
		CustomerID: customerID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		Verified:   true,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, review); err != nil {
			if db.IsUniqueViolation(err) {
				return errors.New(errors.CodeConflict, "product already reviewed")
			}
			return errors.Wrap(errors.CodeInternal, err, "creating review")
		}
		average, count, err := repo.AggregateByProduct(ctx, input.ProductID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "aggregating ratings")
		}
		if err := repo.UpdateProductRating(ctx, input.ProductID, average, count); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating product rating")
		}
		return nil
	})
	if err != nil {
		if typed := errors.As(err); typed != nil {
			return nil, typed
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "saving review")
	}
	return review, nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.Review, string, error) {
	if productID == uuid.Nil {
		return nil, "", errors.New(errors.CodeValidation, "product id is required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	list, err := s.repo.ListByProduct(ctx, productID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "listing reviews")
	}

	next := ""
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, next, nil
}
