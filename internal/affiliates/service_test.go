package affiliates

import (
	"context"
	"io"
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
	"github.com/mvalenz/bazario-backend/pkg/logger"
)

type gormCatalog struct {
	db *gorm.DB
}

func (c gormCatalog) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:affiliates_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.AffiliateLink{}, &models.AffiliateConversion{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "affiliates-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), gormCatalog{db: db}, logg)
	require.NoError(t, err)
	return svc
}

func seedApprovedProduct(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:             uuid.New(),
		VendorID:       uuid.New(),
		Name:           "Gadget",
		Description:    "A gadget",
		PriceCents:     2500,
		CommissionRate: decimal.RequireFromString("0.15"),
		StockQuantity:  10,
		Status:         enums.ProductStatusApproved,
		Active:         true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestCreateLink(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedApprovedProduct(t, db)
	affiliateID := uuid.New()

	link, err := svc.CreateLink(context.Background(), affiliateID, product.ID)
	require.NoError(t, err)
	assert.Len(t, link.Code, linkCodeLength)
	assert.Equal(t, product.ID, link.ProductID)
	assert.Equal(t, affiliateID, link.AffiliateID)
	assert.Zero(t, link.Clicks)
	assert.Zero(t, link.Conversions)
}

func TestCreateLinkRejectsUnapprovedProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedApprovedProduct(t, db)
	require.NoError(t, db.Model(product).Update("status", enums.ProductStatusPending).Error)

	_, err := svc.CreateLink(context.Background(), uuid.New(), product.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestCreateLinkUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.CreateLink(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestResolveCodeNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.ResolveCode(context.Background(), "NOPE1234")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestRecordClick(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedApprovedProduct(t, db)

	link, err := svc.CreateLink(context.Background(), uuid.New(), product.ID)
	require.NoError(t, err)

	clicked, err := svc.RecordClick(context.Background(), link.Code)
	require.NoError(t, err)
	assert.Equal(t, product.ID, clicked.ProductID)

	_, err = svc.RecordClick(context.Background(), link.Code)
	require.NoError(t, err)

	var reloaded models.AffiliateLink
	require.NoError(t, db.First(&reloaded, "id = ?", link.ID).Error)
	assert.Equal(t, int64(2), reloaded.Clicks)
}

func TestRecordConversionIsIdempotentPerOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedApprovedProduct(t, db)

	link, err := svc.CreateLink(context.Background(), uuid.New(), product.ID)
	require.NoError(t, err)

	orderID := uuid.New()
	require.NoError(t, svc.RecordConversion(context.Background(), db, link.ID, orderID))
	require.NoError(t, svc.RecordConversion(context.Background(), db, link.ID, orderID))

	var reloaded models.AffiliateLink
	require.NoError(t, db.First(&reloaded, "id = ?", link.ID).Error)
	assert.Equal(t, int64(1), reloaded.Conversions, "replayed conversion must not double-count")

	var count int64
	require.NoError(t, db.Model(&models.AffiliateConversion{}).Where("order_id = ?", orderID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecordConversionDistinctOrders(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedApprovedProduct(t, db)

	link, err := svc.CreateLink(context.Background(), uuid.New(), product.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RecordConversion(context.Background(), db, link.ID, uuid.New()))
	require.NoError(t, svc.RecordConversion(context.Background(), db, link.ID, uuid.New()))

	var reloaded models.AffiliateLink
	require.NoError(t, db.First(&reloaded, "id = ?", link.ID).Error)
	assert.Equal(t, int64(2), reloaded.Conversions)
}

func TestListByAffiliate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedApprovedProduct(t, db)
	affiliateID := uuid.New()

	_, err := svc.CreateLink(context.Background(), affiliateID, product.ID)
	require.NoError(t, err)
	_, err = svc.CreateLink(context.Background(), uuid.New(), product.ID)
	require.NoError(t, err)

	links, err := svc.ListByAffiliate(context.Background(), affiliateID)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}
