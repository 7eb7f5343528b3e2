package wallet

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/metrics"
	"github.com/mvalenz/bazario-backend/pkg/security"
)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier is the slice of the notifications domain the wallet uses.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string, data any)
}

// Service owns wallet balances and the withdrawal lifecycle. The wallet is
// debited the moment a withdrawal is requested; only a failed payout credits
// the amount back. A cancelled withdrawal keeps the debit.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	RequestWithdrawal(ctx context.Context, userID uuid.UUID, input RequestWithdrawalInput) (*models.Withdrawal, error)
	ProcessWithdrawal(ctx context.Context, withdrawalID uuid.UUID, input ProcessWithdrawalInput) (*models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, userID uuid.UUID) ([]models.Withdrawal, error)
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64) error
}

type service struct {
	repo     Repository
	tx       TxRunner
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.PlatformMetrics
}

// NewService wires the wallet service. Notifier and metrics are optional.
func NewService(repo Repository, tx TxRunner, notifier Notifier, logg *logger.Logger, m *metrics.PlatformMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, notifier: notifier, logg: logg, metrics: m}, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, errors.New(errors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errors.New(errors.CodeNotFound, "user not found")
		}
		return 0, errors.Wrap(errors.CodeInternal, err, "loading wallet balance")
	}
	return user.WalletBalanceCents, nil
}

// RequestWithdrawal debits the wallet and records a pending withdrawal in
// one transaction. The debit is a guarded update, so a concurrent request
// cannot overdraw the balance.
func (s *service) RequestWithdrawal(ctx context.Context, userID uuid.UUID, input RequestWithdrawalInput) (*models.Withdrawal, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	if input.AmountCents <= 0 {
		return nil, errors.New(errors.CodeValidation, "withdrawal amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid withdrawal method %q", input.Method))
	}
	if input.AccountDetails == nil {
		return nil, errors.New(errors.CodeValidation, "account details are required")
	}

	var withdrawal *models.Withdrawal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		debited, err := repo.DebitBalance(ctx, userID, input.AmountCents)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "debiting wallet")
		}
		if !debited {
			if _, err := repo.FindUser(ctx, userID); err != nil {
				if stdErrors.Is(err, gorm.ErrRecordNotFound) {
					return errors.New(errors.CodeNotFound, "user not found")
				}
				return errors.Wrap(errors.CodeInternal, err, "inspecting wallet")
			}
			return errors.New(errors.CodeInsufficient, "insufficient wallet balance")
		}

		withdrawal = &models.Withdrawal{
			UserID:         userID,
			AmountCents:    input.AmountCents,
			Method:         input.Method,
			AccountDetails: input.AccountDetails,
			Status:         enums.WithdrawalStatusPending,
		}
		if err := repo.CreateWithdrawal(ctx, withdrawal); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating withdrawal")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawal(string(enums.WithdrawalStatusPending))
	s.notify(ctx, userID, "Withdrawal requested",
		fmt.Sprintf("Your withdrawal of %s is pending review", formatCents(input.AmountCents)), withdrawal.ID)
	return withdrawal, nil
}

// ProcessWithdrawal applies an admin decision. A failed payout credits the
// amount back inside the same transaction; any other terminal outcome keeps
// the debit.
func (s *service) ProcessWithdrawal(ctx context.Context, withdrawalID uuid.UUID, input ProcessWithdrawalInput) (*models.Withdrawal, error) {
	if withdrawalID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "withdrawal id is required")
	}
	if !input.Status.IsValid() || input.Status == enums.WithdrawalStatusPending {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid target status %q", input.Status))
	}

	var withdrawal *models.Withdrawal
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindWithdrawal(ctx, withdrawalID)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New(errors.CodeNotFound, "withdrawal not found")
			}
			return errors.Wrap(errors.CodeInternal, err, "loading withdrawal")
		}
		if current.Status.IsTerminal() {
			return errors.New(errors.CodeStateConflict,
				fmt.Sprintf("withdrawal is already %s", current.Status))
		}
		if current.Status == enums.WithdrawalStatusProcessing && input.Status == enums.WithdrawalStatusProcessing {
			return errors.New(errors.CodeStateConflict, "withdrawal is already processing")
		}

		current.Status = input.Status
		current.FailureReason = input.FailureReason
		if input.ReferenceNumber != nil {
			current.ReferenceNumber = input.ReferenceNumber
		}

		if input.Status.IsTerminal() {
			now := time.Now().UTC()
			current.ProcessedAt = &now
		}
		if input.Status == enums.WithdrawalStatusCompleted && current.ReferenceNumber == nil {
			ref, err := security.GenerateReference(10)
			if err != nil {
				return errors.Wrap(errors.CodeInternal, err, "generating reference number")
			}
			current.ReferenceNumber = &ref
		}
		if input.Status == enums.WithdrawalStatusFailed {
			if err := repo.CreditBalance(ctx, current.UserID, current.AmountCents); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "crediting wallet after failure")
			}
		}

		if err := repo.SaveWithdrawal(ctx, current); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "saving withdrawal")
		}
		withdrawal = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncWithdrawal(string(withdrawal.Status))
	s.notify(ctx, withdrawal.UserID, "Withdrawal "+string(withdrawal.Status),
		fmt.Sprintf("Your withdrawal of %s is now %s", formatCents(withdrawal.AmountCents), withdrawal.Status), withdrawal.ID)
	return withdrawal, nil
}

func (s *service) ListWithdrawals(ctx context.Context, userID uuid.UUID) ([]models.Withdrawal, error) {
	if userID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id is required")
	}
	withdrawals, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing withdrawals")
	}
	return withdrawals, nil
}

// Credit adds funds to a wallet, typically from a refund flow. It runs on
// the caller's transaction when one is supplied.
func (s *service) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amountCents int64) error {
	if userID == uuid.Nil {
		return errors.New(errors.CodeValidation, "user id is required")
	}
	if amountCents <= 0 {
		return errors.New(errors.CodeValidation, "credit amount must be positive")
	}
	if err := s.repo.WithTx(tx).CreditBalance(ctx, userID, amountCents); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "crediting wallet")
	}
	return nil
}

func (s *service) notify(ctx context.Context, userID uuid.UUID, title, message string, withdrawalID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, enums.NotificationTypeWallet, title, message,
		map[string]any{"withdrawal_id": withdrawalID})
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
