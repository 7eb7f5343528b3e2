package enums

import "fmt"

// WithdrawalStatus tracks the lifecycle of a payout request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
	WithdrawalStatusCancelled  WithdrawalStatus = "cancelled"
)

var validWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusProcessing,
	WithdrawalStatusCompleted,
	WithdrawalStatusFailed,
	WithdrawalStatusCancelled,
}

// String implements fmt.Stringer.
func (s WithdrawalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WithdrawalStatus.
func (s WithdrawalStatus) IsValid() bool {
	for _, candidate := range validWithdrawalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further processing.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed || s == WithdrawalStatusCancelled
}

// ParseWithdrawalStatus converts raw input into a WithdrawalStatus.
func ParseWithdrawalStatus(value string) (WithdrawalStatus, error) {
	for _, candidate := range validWithdrawalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal status %q", value)
}

// WithdrawalMethod identifies the payout rail for a withdrawal.
type WithdrawalMethod string

const (
	WithdrawalMethodBankTransfer WithdrawalMethod = "bank_transfer"
	WithdrawalMethodPayPal       WithdrawalMethod = "paypal"
	WithdrawalMethodStripe       WithdrawalMethod = "stripe"
)

var validWithdrawalMethods = []WithdrawalMethod{
	WithdrawalMethodBankTransfer,
	WithdrawalMethodPayPal,
	WithdrawalMethodStripe,
}

// String implements fmt.Stringer.
func (m WithdrawalMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known WithdrawalMethod.
func (m WithdrawalMethod) IsValid() bool {
	for _, candidate := range validWithdrawalMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseWithdrawalMethod converts raw input into a WithdrawalMethod.
func ParseWithdrawalMethod(value string) (WithdrawalMethod, error) {
	for _, candidate := range validWithdrawalMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal method %q", value)
}
