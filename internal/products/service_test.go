package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), decimal.RequireFromString("0.1"))
	require.NoError(t, err)
	return svc
}

func createListing(t *testing.T, svc Service, vendorID uuid.UUID) *models.Product {
	t.Helper()
	product, err := svc.Create(context.Background(), vendorID, CreateProductInput{
		Name:          "Headphones",
		Description:   "Wireless headphones",
		PriceCents:    9900,
		StockQuantity: 20,
	})
	require.NoError(t, err)
	return product
}

func TestCreateDefaultsCommissionRate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := createListing(t, svc, uuid.New())

	assert.Equal(t, enums.ProductStatusPending, product.Status)
	assert.True(t, product.CommissionRate.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, product.Active)
}

func TestCreateRejectsBadCommissionRate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	rate := decimal.RequireFromString("1.2")

	_, err := svc.Create(context.Background(), uuid.New(), CreateProductInput{
		Name:           "Headphones",
		Description:    "Wireless headphones",
		PriceCents:     9900,
		CommissionRate: &rate,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestUpdateOwnershipCheck(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	vendorID := uuid.New()
	product := createListing(t, svc, vendorID)

	newPrice := int64(12900)
	updated, err := svc.Update(context.Background(), vendorID, product.ID, UpdateProductInput{PriceCents: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(12900), updated.PriceCents)

	_, err = svc.Update(context.Background(), uuid.New(), product.ID, UpdateProductInput{PriceCents: &newPrice})
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}

func TestApproveAndReject(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	pending := createListing(t, svc, uuid.New())

	approved, err := svc.Approve(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusApproved, approved.Status)

	// Approving twice is a state conflict.
	_, err = svc.Approve(context.Background(), pending.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeStateConflict, errors.As(err).Code())

	other := createListing(t, svc, uuid.New())
	rejected, err := svc.Reject(context.Background(), other.ID, "prohibited item")
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "prohibited item", *rejected.RejectionReason)

	_, err = svc.Reject(context.Background(), other.ID, "again")
	require.Error(t, err)
	assert.Equal(t, errors.CodeStateConflict, errors.As(err).Code())
}

func TestFindForSale(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := createListing(t, svc, uuid.New())

	_, err := svc.FindForSale(context.Background(), product.ID)
	require.Error(t, err, "pending product is not purchasable")
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())

	_, err = svc.Approve(context.Background(), product.ID)
	require.NoError(t, err)

	found, err := svc.FindForSale(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, found.ID)

	inactive := false
	_, err = svc.Update(context.Background(), product.VendorID, product.ID, UpdateProductInput{Active: &inactive})
	require.NoError(t, err)

	_, err = svc.FindForSale(context.Background(), product.ID)
	require.Error(t, err)
}

func TestListForSalePagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	vendorID := uuid.New()
	for i := 0; i < 3; i++ {
		product := createListing(t, svc, vendorID)
		_, err := svc.Approve(context.Background(), product.ID)
		require.NoError(t, err)
	}

	page, next, err := svc.ListForSale(context.Background(), pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
	require.NotEmpty(t, next)

	rest, _, err := svc.ListForSale(context.Background(), pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestRecordSale(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := createListing(t, svc, uuid.New())

	require.NoError(t, svc.RecordSale(context.Background(), db, product.ID, 3))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, int64(3), reloaded.SalesCount)
}
