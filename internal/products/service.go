package products

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/pagination"
)

// Service covers vendor listing management, the admin moderation queue and
// the public storefront reads.
type Service interface {
	Create(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Product, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindForSale(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListForSale(ctx context.Context, params pagination.Params) ([]models.Product, string, error)
	ListModerationQueue(ctx context.Context) ([]models.Product, error)
	Approve(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	Reject(ctx context.Context, productID uuid.UUID, reason string) (*models.Product, error)
	RecordSale(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type service struct {
	repo                  Repository
	defaultCommissionRate decimal.Decimal
}

// NewService wires the products service.
func NewService(repo Repository, defaultCommissionRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if defaultCommissionRate.IsNegative() {
		return nil, fmt.Errorf("default commission rate cannot be negative")
	}
	return &service{repo: repo, defaultCommissionRate: defaultCommissionRate}, nil
}

// Create stores a new listing in the pending moderation state.
func (s *service) Create(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if vendorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "vendor id is required")
	}

	rate := s.defaultCommissionRate
	if input.CommissionRate != nil {
		rate = *input.CommissionRate
		if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, errors.New(errors.CodeValidation, "commission rate must be in [0,1)")
		}
	}

	product := &models.Product{
		VendorID:          vendorID,
		Name:              input.Name,
		Description:       input.Description,
		PriceCents:        input.PriceCents,
		ComparePriceCents: input.ComparePriceCents,
		CommissionRate:    rate,
		StockQuantity:     input.StockQuantity,
		SKU:               input.SKU,
		Status:            enums.ProductStatusPending,
		Active:            true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, errors.New(errors.CodeConflict, "sku already in use")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "creating product")
	}
	return product, nil
}

// Update applies a partial edit to the vendor's own listing. Order items
// snapshot prices at checkout, so edits never touch existing orders.
func (s *service) Update(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.findOwned(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.PriceCents != nil {
		product.PriceCents = *input.PriceCents
	}
	if input.ComparePriceCents != nil {
		product.ComparePriceCents = input.ComparePriceCents
	}
	if input.CommissionRate != nil {
		rate := *input.CommissionRate
		if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, errors.New(errors.CodeValidation, "commission rate must be in [0,1)")
		}
		product.CommissionRate = rate
	}
	if input.StockQuantity != nil {
		product.StockQuantity = *input.StockQuantity
	}
	if input.Active != nil {
		product.Active = *input.Active
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "updating product")
	}
	return product, nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Product, error) {
	if vendorID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "vendor id is required")
	}
	listings, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing vendor products")
	}
	return listings, nil
}

func (s *service) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "product not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "loading product")
	}
	return product, nil
}

// FindForSale loads a product only if it is purchasable right now.
func (s *service) FindForSale(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Status != enums.ProductStatusApproved || !product.Active {
		return nil, errors.New(errors.CodeNotFound, "product not available")
	}
	return product, nil
}

func (s *service) ListForSale(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	listings, err := s.repo.ListForSale(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "listing products")
	}

	next := ""
	if len(listings) > limit {
		listings = listings[:limit]
		last := listings[len(listings)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return listings, next, nil
}

func (s *service) ListModerationQueue(ctx context.Context) ([]models.Product, error) {
	listings, err := s.repo.ListByStatus(ctx, enums.ProductStatusPending)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing moderation queue")
	}
	return listings, nil
}

// Approve moves a pending listing into the storefront.
func (s *service) Approve(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != enums.ProductStatusPending {
		return nil, errors.New(errors.CodeStateConflict,
			fmt.Sprintf("product is %s, only pending products can be approved", product.Status))
	}
	product.Status = enums.ProductStatusApproved
	product.RejectionReason = nil
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "approving product")
	}
	return product, nil
}

// Reject declines a pending listing with a reason shown to the vendor.
func (s *service) Reject(ctx context.Context, productID uuid.UUID, reason string) (*models.Product, error) {
	if reason == "" {
		return nil, errors.New(errors.CodeValidation, "rejection reason is required")
	}
	product, err := s.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != enums.ProductStatusPending {
		return nil, errors.New(errors.CodeStateConflict,
			fmt.Sprintf("product is %s, only pending products can be rejected", product.Status))
	}
	product.Status = enums.ProductStatusRejected
	product.RejectionReason = &reason
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "rejecting product")
	}
	return product, nil
}

// RecordSale bumps the sales counter when an order settles.
func (s *service) RecordSale(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return errors.New(errors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return errors.New(errors.CodeValidation, "sale quantity must be positive")
	}
	if err := s.repo.WithTx(tx).IncrementSales(ctx, productID, qty); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "recording sale")
	}
	return nil
}

func (s *service) findOwned(ctx context.Context, vendorID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.VendorID != vendorID {
		return nil, errors.New(errors.CodeForbidden, "product belongs to another vendor")
	}
	return product, nil
}
