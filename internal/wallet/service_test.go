package wallet

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:wallet_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Withdrawal{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "wallet-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, nil, logg, nil)
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, db *gorm.DB, balanceCents int64) *models.User {
	t.Helper()
	user := &models.User{
		ID:                 uuid.New(),
		Name:               "Pat Affiliate",
		Email:              uuid.NewString() + "@example.com",
		PasswordHash:       "x",
		Role:               enums.UserRoleAffiliate,
		WalletBalanceCents: balanceCents,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func withdrawalInput(amountCents int64) RequestWithdrawalInput {
	return RequestWithdrawalInput{
		AmountCents: amountCents,
		Method:      enums.WithdrawalMethodBankTransfer,
		AccountDetails: &models.WithdrawalAccountDetails{
			AccountNumber: "12345678",
			BankName:      "Test Bank",
		},
	}
}

func balanceOf(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, "id = ?", userID).Error)
	return user.WalletBalanceCents
}

func TestRequestWithdrawalDebitsEagerly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, 10000)

	withdrawal, err := svc.RequestWithdrawal(context.Background(), user.ID, withdrawalInput(4000))
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusPending, withdrawal.Status)
	assert.Equal(t, int64(6000), balanceOf(t, db, user.ID))
}

func TestRequestWithdrawalInsufficientBalance(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, 1000)

	_, err := svc.RequestWithdrawal(context.Background(), user.ID, withdrawalInput(4000))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInsufficient, errors.As(err).Code())
	assert.Equal(t, int64(1000), balanceOf(t, db, user.ID))

	var count int64
	require.NoError(t, db.Model(&models.Withdrawal{}).Count(&count).Error)
	assert.Zero(t, count, "no withdrawal row on failed debit")
}

func TestRequestWithdrawalUnknownUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.RequestWithdrawal(context.Background(), uuid.New(), withdrawalInput(100))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestProcessWithdrawalFailedCreditsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, 10000)

	withdrawal, err := svc.RequestWithdrawal(context.Background(), user.ID, withdrawalInput(4000))
	require.NoError(t, err)
	require.Equal(t, int64(6000), balanceOf(t, db, user.ID))

	reason := "bank rejected transfer"
	processed, err := svc.ProcessWithdrawal(context.Background(), withdrawal.ID, ProcessWithdrawalInput{
		Status:        enums.WithdrawalStatusFailed,
		FailureReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusFailed, processed.Status)
	require.NotNil(t, processed.ProcessedAt)
	require.NotNil(t, processed.FailureReason)

	// The debit is compensated in full.
	assert.Equal(t, int64(10000), balanceOf(t, db, user.ID))
}

func TestProcessWithdrawalCancelledKeepsDebit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, 10000)

	withdrawal, err := svc.RequestWithdrawal(context.Background(), user.ID, withdrawalInput(4000))
	require.NoError(t, err)

	processed, err := svc.ProcessWithdrawal(context.Background(), withdrawal.ID, ProcessWithdrawalInput{
		Status: enums.WithdrawalStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusCancelled, processed.Status)
	assert.Equal(t, int64(6000), balanceOf(t, db, user.ID))
}

func TestProcessWithdrawalCompletedGeneratesReference(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, 10000)

	withdrawal, err := svc.RequestWithdrawal(context.Background(), user.ID, withdrawalInput(4000))
	require.NoError(t, err)

	processing, err := svc.ProcessWithdrawal(context.Background(), withdrawal.ID, ProcessWithdrawalInput{
		Status: enums.WithdrawalStatusProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusProcessing, processing.Status)
	assert.Nil(t, processing.ProcessedAt)

	completed, err := svc.ProcessWithdrawal(context.Background(), withdrawal.ID, ProcessWithdrawalInput{
		Status: enums.WithdrawalStatusCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, completed.ReferenceNumber)
	assert.Len(t, *completed.ReferenceNumber, 10)
	assert.Equal(t, int64(6000), balanceOf(t, db, user.ID))
}

func TestProcessWithdrawalTerminalIsConflict(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, 10000)

	withdrawal, err := svc.RequestWithdrawal(context.Background(), user.ID, withdrawalInput(4000))
	require.NoError(t, err)

	reason := "bank rejected transfer"
	_, err = svc.ProcessWithdrawal(context.Background(), withdrawal.ID, ProcessWithdrawalInput{
		Status:        enums.WithdrawalStatusFailed,
		FailureReason: &reason,
	})
	require.NoError(t, err)

	// Replaying the failure must not credit twice.
	_, err = svc.ProcessWithdrawal(context.Background(), withdrawal.ID, ProcessWithdrawalInput{
		Status:        enums.WithdrawalStatusFailed,
		FailureReason: &reason,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeStateConflict, errors.As(err).Code())
	assert.Equal(t, int64(10000), balanceOf(t, db, user.ID))
}

func TestProcessWithdrawalValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.ProcessWithdrawal(context.Background(), uuid.New(), ProcessWithdrawalInput{
		Status: enums.WithdrawalStatusPending,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())

	_, err = svc.ProcessWithdrawal(context.Background(), uuid.New(), ProcessWithdrawalInput{
		Status: enums.WithdrawalStatusCompleted,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestCreditAndList(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	user := seedUser(t, db, 0)

	require.NoError(t, svc.Credit(context.Background(), nil, user.ID, 2500))
	balance, err := svc.Balance(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), balance)

	_, err = svc.RequestWithdrawal(context.Background(), user.ID, withdrawalInput(1000))
	require.NoError(t, err)

	withdrawals, err := svc.ListWithdrawals(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, withdrawals, 1)
}
