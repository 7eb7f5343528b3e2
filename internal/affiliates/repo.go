package affiliates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
)

// Repository persists affiliate links and their conversion records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, link *models.AffiliateLink) error
	FindByCode(ctx context.Context, code string) (*models.AffiliateLink, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AffiliateLink, error)
	ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateLink, error)
	IncrementClicks(ctx context.Context, id uuid.UUID) error
	IncrementConversions(ctx context.Context, id uuid.UUID) error
	CreateConversion(ctx context.Context, conversion *models.AffiliateConversion) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an affiliates repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, link *models.AffiliateLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AffiliateLink, error) {
	var link models.AffiliateLink
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) ListByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateLink, error) {
	var links []models.AffiliateLink
	err := r.db.WithContext(ctx).
		Where("affiliate_id = ?", affiliateID).
		Order("created_at DESC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repository) IncrementClicks(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AffiliateLink{}).
		Where("id = ?", id).
		UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
}

func (r *repository) IncrementConversions(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AffiliateLink{}).
		Where("id = ?", id).
		UpdateColumn("conversions", gorm.Expr("conversions + 1")).Error
}

func (r *repository) CreateConversion(ctx context.Context, conversion *models.AffiliateConversion) error {
	return r.db.WithContext(ctx).Create(conversion).Error
}
