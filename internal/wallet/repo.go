package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
)

// Repository persists wallet balances and withdrawal rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	DebitBalance(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error)
	CreditBalance(ctx context.Context, userID uuid.UUID, amountCents int64) error
	CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error
	FindWithdrawal(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	SaveWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Withdrawal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DebitBalance performs an atomic compare-and-debit so two concurrent
// withdrawals cannot both pass a balance check.
func (r *repository) DebitBalance(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND wallet_balance_cents >= ?", userID, amountCents).
		UpdateColumn("wallet_balance_cents", gorm.Expr("wallet_balance_cents - ?", amountCents))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CreditBalance(ctx context.Context, userID uuid.UUID, amountCents int64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("wallet_balance_cents", gorm.Expr("wallet_balance_cents + ?", amountCents)).Error
}

func (r *repository) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(withdrawal).Error
}

func (r *repository) FindWithdrawal(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&withdrawal).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) SaveWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) error {
	return r.db.WithContext(ctx).Save(withdrawal).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}
