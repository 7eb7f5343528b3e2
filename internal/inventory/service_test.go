package inventory

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/logger"
)

type capturingNotifier struct {
	mu       sync.Mutex
	products []uuid.UUID
}

func (n *capturingNotifier) LowStock(_ context.Context, product *models.Product) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.products = append(n.products, product.ID)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:             uuid.New(),
		VendorID:       uuid.New(),
		Name:           "Widget",
		Description:    "A widget",
		PriceCents:     5000,
		CommissionRate: decimal.RequireFromString("0.1"),
		StockQuantity:  stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newTestService(t *testing.T, db *gorm.DB, notifier LowStockNotifier) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "inventory-test", Output: io.Discard})
	svc, err := NewService(NewRepository(db), notifier, logg, nil, 5)
	require.NoError(t, err)
	return svc
}

func TestReserveDecrementsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	product := seedProduct(t, db, 10)

	results, err := svc.Reserve(context.Background(), []ReservationRequest{
		{ProductID: product.ID, Qty: 3},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].StockAfter)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 7, reloaded.StockQuantity)
}

func TestReserveInsufficientStockRollsBackPriorItems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	first := seedProduct(t, db, 5)
	second := seedProduct(t, db, 3)

	_, err := svc.Reserve(context.Background(), []ReservationRequest{
		{ProductID: first.ID, Qty: 2},
		{ProductID: second.ID, Qty: 10},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInsufficient, errors.As(err).Code())

	var p1, p2 models.Product
	require.NoError(t, db.First(&p1, "id = ?", first.ID).Error)
	require.NoError(t, db.First(&p2, "id = ?", second.ID).Error)
	assert.Equal(t, 5, p1.StockQuantity, "first reservation must be rolled back")
	assert.Equal(t, 3, p2.StockQuantity)
}

func TestReserveUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)

	_, err := svc.Reserve(context.Background(), []ReservationRequest{
		{ProductID: uuid.New(), Qty: 1},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
}

func TestReserveValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	product := seedProduct(t, db, 5)

	_, err := svc.Reserve(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())

	_, err = svc.Reserve(context.Background(), []ReservationRequest{{ProductID: product.ID, Qty: 0}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestReserveNotifiesOnLowStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	notifier := &capturingNotifier{}
	svc := newTestService(t, db, notifier)
	low := seedProduct(t, db, 6)
	high := seedProduct(t, db, 50)

	_, err := svc.Reserve(context.Background(), []ReservationRequest{
		{ProductID: low.ID, Qty: 2},
		{ProductID: high.ID, Qty: 2},
	})
	require.NoError(t, err)

	require.Len(t, notifier.products, 1)
	assert.Equal(t, low.ID, notifier.products[0])
}

func TestReserveNoNotificationAtZeroStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	notifier := &capturingNotifier{}
	svc := newTestService(t, db, notifier)
	product := seedProduct(t, db, 2)

	_, err := svc.Reserve(context.Background(), []ReservationRequest{
		{ProductID: product.ID, Qty: 2},
	})
	require.NoError(t, err)
	assert.Empty(t, notifier.products)
}

func TestRelease(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db, nil)
	product := seedProduct(t, db, 1)

	require.NoError(t, svc.Release(context.Background(), product.ID, 4))

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 5, reloaded.StockQuantity)

	err := svc.Release(context.Background(), uuid.Nil, 1)
	require.Error(t, err)
}
