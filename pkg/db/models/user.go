package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/pkg/enums"
)

// User is the single account record shared by customers, vendors,
// affiliates, influencers and admins. The wallet balance lives here because
// refunds and withdrawal compensations settle against the owning account.
type User struct {
	ID                 uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string         `gorm:"column:name;not null"`
	Email              string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash       string         `gorm:"column:password_hash;not null"`
	Role               enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	WalletBalanceCents int64          `gorm:"column:wallet_balance_cents;not null;default:0"`
	Verified           bool           `gorm:"column:verified;not null;default:false"`
	LastLoginAt        *time.Time     `gorm:"column:last_login_at"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
