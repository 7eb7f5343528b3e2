package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a product review left by a customer who purchased the product.
// The (product, customer) pair is unique so a second review is a conflict.
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_reviews_product_customer"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex:idx_reviews_product_customer"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    string    `gorm:"column:comment;not null"`
	Verified   bool      `gorm:"column:verified;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
