package affiliates

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/security"
)

const linkCodeLength = 8

// ProductCatalog is the slice of the products domain the affiliate service
// needs when validating link targets.
type ProductCatalog interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service manages affiliate links, clicks and conversions.
type Service interface {
	CreateLink(ctx context.Context, affiliateID, productID uuid.UUID) (*models.AffiliateLink, error)
	ResolveCode(ctx context.Context, code string) (*models.AffiliateLink, error)
	RecordClick(ctx context.Context, code string) (*models.AffiliateLink, error)
	RecordConversion(ctx context.Context, tx *gorm.DB, linkID, orderID uuid.UUID) error
	ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateLink, error)
}

type service struct {
	repo    Repository
	catalog ProductCatalog
	logg    *logger.Logger
}

// NewService wires the affiliate service with its dependencies.
func NewService(repo Repository, catalog ProductCatalog, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("affiliates repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, catalog: catalog, logg: logg}, nil
}

// CreateLink issues a tracking link for an approved product. A code collision
// is retried once with a fresh code before giving up.
func (s *service) CreateLink(ctx context.Context, affiliateID, productID uuid.UUID) (*models.AffiliateLink, error) {
	if affiliateID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "affiliate id is required")
	}
	if productID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "product id is required")
	}

	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != enums.ProductStatusApproved || !product.Active {
		return nil, errors.New(errors.CodeValidation, "product is not available for promotion")
	}

	for attempt := 0; attempt < 2; attempt++ {
		code, err := security.GenerateReference(linkCodeLength)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "generating link code")
		}
		link := &models.AffiliateLink{
			Code:        code,
			ProductID:   productID,
			AffiliateID: affiliateID,
		}
		if err := s.repo.Create(ctx, link); err != nil {
			if db.IsUniqueViolation(err) {
				continue
			}
			return nil, errors.Wrap(errors.CodeInternal, err, "creating affiliate link")
		}
		return link, nil
	}
	return nil, errors.New(errors.CodeConflict, "could not allocate a unique link code")
}

func (s *service) ResolveCode(ctx context.Context, code string) (*models.AffiliateLink, error) {
	if code == "" {
		return nil, errors.New(errors.CodeValidation, "code is required")
	}
	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.CodeNotFound, "affiliate link not found")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "resolving affiliate code")
	}
	return link, nil
}

// RecordClick bumps the click counter and returns the link so callers can
// redirect to the promoted product.
func (s *service) RecordClick(ctx context.Context, code string) (*models.AffiliateLink, error) {
	link, err := s.ResolveCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementClicks(ctx, link.ID); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "recording click")
	}
	link.Clicks++
	return link, nil
}

// RecordConversion bumps the conversion counter exactly once per order. The
// conversion row's unique order id turns a replay into a no-op, so confirming
// the same payment twice cannot double-count.
func (s *service) RecordConversion(ctx context.Context, tx *gorm.DB, linkID, orderID uuid.UUID) error {
	if linkID == uuid.Nil {
		return errors.New(errors.CodeValidation, "link id is required")
	}
	if orderID == uuid.Nil {
		return errors.New(errors.CodeValidation, "order id is required")
	}

	repo := s.repo.WithTx(tx)
	err := repo.CreateConversion(ctx, &models.AffiliateConversion{
		LinkID:  linkID,
		OrderID: orderID,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			s.logg.Info(ctx, fmt.Sprintf("conversion for order %s already recorded", orderID))
			return nil
		}
		return errors.Wrap(errors.CodeInternal, err, "recording conversion")
	}
	if err := repo.IncrementConversions(ctx, linkID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "incrementing conversions")
	}
	return nil
}

func (s *service) ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateLink, error) {
	if affiliateID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "affiliate id is required")
	}
	links, err := s.repo.ListByAffiliate(ctx, affiliateID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing affiliate links")
	}
	return links, nil
}
