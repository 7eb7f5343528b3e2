package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mvalenz/bazario-backend/pkg/enums"
)

// WithdrawalAccountDetails holds the payout destination for a withdrawal.
// Only the fields relevant to the chosen method are populated.
type WithdrawalAccountDetails struct {
	AccountNumber   string `json:"account_number,omitempty"`
	BankName        string `json:"bank_name,omitempty"`
	PayPalEmail     string `json:"paypal_email,omitempty"`
	StripeAccountID string `json:"stripe_account_id,omitempty"`
}

// Withdrawal records a payout request. The requesting user's wallet is
// debited eagerly at creation; a failed processing outcome credits it back.
type Withdrawal struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index"`
	AmountCents     int64                     `gorm:"column:amount_cents;not null"`
	Method          enums.WithdrawalMethod    `gorm:"column:method;type:text;not null"`
	AccountDetails  *WithdrawalAccountDetails `gorm:"column:account_details;type:jsonb;serializer:json"`
	Status          enums.WithdrawalStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	ProcessedAt     *time.Time                `gorm:"column:processed_at"`
	FailureReason   *string                   `gorm:"column:failure_reason"`
	ReferenceNumber *string                   `gorm:"column:reference_number"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
