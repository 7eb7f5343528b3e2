package reviews

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/pagination"
)

// Repository persists product reviews and the rating rollup on products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Review, error)
	HasPaidPurchase(ctx context.Context, customerID, productID uuid.UUID) (bool, error)
	AggregateByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, int64, error)
	UpdateProductRating(ctx context.Context, productID uuid.UUID, average decimal.Decimal, count int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Review, error) {
	query := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// HasPaidPurchase reports whether the customer has a paid order containing
// the product.
func (r *repository) HasPaidPurchase(ctx context.Context, customerID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.customer_id = ? AND orders.status = ? AND order_items.product_id = ?",
			customerID, enums.OrderStatusPaid, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) AggregateByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, int64, error) {
	var row struct {
		Average decimal.Decimal
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Average, row.Total, nil
}

func (r *repository) UpdateProductRating(ctx context.Context, productID uuid.UUID, average decimal.Decimal, count int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"average_rating": average,
			"review_count":   count,
		}).Error
}
