package inventory

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/metrics"
)

// ReservationRequest asks for qty units of one product.
type ReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// Reservation records a successful decrement, including the stock level the
// product was left at.
type Reservation struct {
	ProductID  uuid.UUID
	Qty        int
	StockAfter int
}

// LowStockNotifier is told when a reservation leaves a product nearly sold
// out. Implementations must not block reservation.
type LowStockNotifier interface {
	LowStock(ctx context.Context, product *models.Product)
}

// Service reserves and releases product stock.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Reserve(ctx context.Context, requests []ReservationRequest) ([]Reservation, error)
	Release(ctx context.Context, productID uuid.UUID, qty int) error
}

type service struct {
	repo              Repository
	notifier          LowStockNotifier
	logg              *logger.Logger
	metrics           *metrics.PlatformMetrics
	lowStockThreshold int
}

// NewService wires the inventory service. The notifier and metrics are
// optional.
func NewService(repo Repository, notifier LowStockNotifier, logg *logger.Logger, m *metrics.PlatformMetrics, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if lowStockThreshold < 0 {
		lowStockThreshold = 0
	}
	return &service{
		repo:              repo,
		notifier:          notifier,
		logg:              logg,
		metrics:           m,
		lowStockThreshold: lowStockThreshold,
	}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	clone := *s
	clone.repo = s.repo.WithTx(tx)
	return &clone
}

// Reserve decrements stock for each request in order. The first failure
// rolls back every decrement already applied and returns the failure; stock
// is never left partially reserved.
func (s *service) Reserve(ctx context.Context, requests []ReservationRequest) ([]Reservation, error) {
	if len(requests) == 0 {
		return nil, errors.New(errors.CodeValidation, "at least one reservation is required")
	}
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return nil, errors.New(errors.CodeValidation, "product id is required")
		}
		if req.Qty <= 0 {
			return nil, errors.New(errors.CodeValidation, "reservation quantity must be positive")
		}
	}

	reserved := make([]Reservation, 0, len(requests))
	for _, req := range requests {
		ok, err := s.repo.DecrementStock(ctx, req.ProductID, req.Qty)
		if err != nil {
			return nil, s.rollback(ctx, reserved, errors.Wrap(errors.CodeInternal, err, "decrementing stock"))
		}
		if !ok {
			return nil, s.rollback(ctx, reserved, s.classifyFailure(ctx, req))
		}

		product, err := s.repo.FindProduct(ctx, req.ProductID)
		if err != nil {
			return nil, s.rollback(ctx, append(reserved, Reservation{ProductID: req.ProductID, Qty: req.Qty}),
				errors.Wrap(errors.CodeInternal, err, "loading product after reservation"))
		}

		reserved = append(reserved, Reservation{
			ProductID:  req.ProductID,
			Qty:        req.Qty,
			StockAfter: product.StockQuantity,
		})
		s.maybeNotifyLowStock(ctx, product)
	}
	return reserved, nil
}

// Release re-increments stock, undoing a reservation.
func (s *service) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return errors.New(errors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return errors.New(errors.CodeValidation, "release quantity must be positive")
	}
	if err := s.repo.IncrementStock(ctx, productID, qty); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "releasing stock")
	}
	return nil
}

func (s *service) classifyFailure(ctx context.Context, req ReservationRequest) error {
	s.metrics.IncReservationFailure("insufficient_stock")
	product, err := s.repo.FindProduct(ctx, req.ProductID)
	if err != nil {
		if stdIsNotFound(err) {
			return errors.New(errors.CodeNotFound, fmt.Sprintf("product %s not found", req.ProductID))
		}
		return errors.Wrap(errors.CodeInternal, err, "inspecting reservation failure")
	}
	return errors.New(errors.CodeInsufficient,
		fmt.Sprintf("insufficient stock for %q: requested %d, available %d", product.Name, req.Qty, product.StockQuantity))
}

// rollback releases already-reserved stock. Release failures are collected
// and escalate the whole operation to an internal error because stock may be
// left under-counted.
func (s *service) rollback(ctx context.Context, reserved []Reservation, cause error) error {
	var releaseErr error
	for _, res := range reserved {
		if err := s.repo.IncrementStock(ctx, res.ProductID, res.Qty); err != nil {
			releaseErr = multierr.Append(releaseErr, fmt.Errorf("release %s x%d: %w", res.ProductID, res.Qty, err))
		}
	}
	if releaseErr != nil {
		s.logg.Error(ctx, "reservation rollback left stock under-counted", releaseErr)
		s.metrics.IncReservationFailure("rollback_failed")
		return errors.Wrap(errors.CodeInternal, multierr.Append(cause, releaseErr), "rolling back reservation")
	}
	return cause
}

func (s *service) maybeNotifyLowStock(ctx context.Context, product *models.Product) {
	if s.notifier == nil {
		return
	}
	if product.StockQuantity >= 1 && product.StockQuantity <= s.lowStockThreshold {
		s.notifier.LowStock(ctx, product)
	}
}

func stdIsNotFound(err error) bool {
	return stdErrors.Is(err, gorm.ErrRecordNotFound)
}
