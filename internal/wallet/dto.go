package wallet

import (
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
)

// RequestWithdrawalInput captures a payout request.
type RequestWithdrawalInput struct {
	AmountCents    int64                            `json:"amount_cents" validate:"required,gt=0"`
	Method         enums.WithdrawalMethod           `json:"method" validate:"required"`
	AccountDetails *models.WithdrawalAccountDetails `json:"account_details" validate:"required"`
}

// ProcessWithdrawalInput captures an admin decision on a withdrawal.
type ProcessWithdrawalInput struct {
	Status          enums.WithdrawalStatus `json:"status" validate:"required"`
	FailureReason   *string                `json:"failure_reason"`
	ReferenceNumber *string                `json:"reference_number"`
}
