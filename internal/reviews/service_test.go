package reviews

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/internal/products"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
	"github.com/mvalenz/bazario-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db      *gorm.DB
	svc     Service
	catalog products.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:reviews_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Order{}, &models.OrderItem{}, &models.Review{},
	))

	catalogSvc, err := products.NewService(products.NewRepository(db), decimal.RequireFromString("0.1"))
	require.NoError(t, err)

	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, catalogSvc)
	require.NoError(t, err)

	return &fixture{db: db, svc: svc, catalog: catalogSvc}
}

func (f *fixture) seedProduct(t *testing.T) *models.Product {
	t.Helper()
	product, err := f.catalog.Create(context.Background(), uuid.New(), products.CreateProductInput{
		Name:          fmt.Sprintf("Product %s", uuid.NewString()[:8]),
		Description:   "Test listing",
		PriceCents:    5000,
		StockQuantity: 10,
	})
	require.NoError(t, err)
	return product
}

func (f *fixture) seedPaidOrder(t *testing.T, customerID, productID uuid.UUID) {
	t.Helper()
	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     enums.OrderStatusPaid,
		Items: []models.OrderItem{{
			ID:             uuid.New(),
			ProductID:      productID,
			Quantity:       1,
			UnitPriceCents: 5000,
		}},
	}
	require.NoError(t, f.db.Create(order).Error)
}

func TestCreateReviewRequiresPurchase(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t)

	_, err := f.svc.Create(context.Background(), uuid.New(), CreateReviewInput{
		ProductID: product.ID,
		Rating:    5,
		Comment:   "Great",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
}

func TestCreateReviewUpdatesProductRating(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t)
	customerID := uuid.New()
	f.seedPaidOrder(t, customerID, product.ID)

	review, err := f.svc.Create(context.Background(), customerID, CreateReviewInput{
		ProductID: product.ID,
		Rating:    4,
		Comment:   "Solid build quality",
	})
	require.NoError(t, err)
	assert.True(t, review.Verified)

	var stored models.Product
	require.NoError(t, f.db.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, int64(1), stored.ReviewCount)
	assert.True(t, stored.AverageRating.Equal(decimal.NewFromInt(4)),
		"average %s", stored.AverageRating)
}

func TestCreateReviewTwiceConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t)
	customerID := uuid.New()
	f.seedPaidOrder(t, customerID, product.ID)

	_, err := f.svc.Create(context.Background(), customerID, CreateReviewInput{
		ProductID: product.ID,
		Rating:    5,
		Comment:   "First impressions",
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), customerID, CreateReviewInput{
		ProductID: product.ID,
		Rating:    1,
		Comment:   "Changed my mind",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.As(err).Code())

	// The failed second attempt must not disturb the rollup.
	var stored models.Product
	require.NoError(t, f.db.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, int64(1), stored.ReviewCount)
}

func TestCreateReviewValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t)
	customerID := uuid.New()
	f.seedPaidOrder(t, customerID, product.ID)

	_, err := f.svc.Create(context.Background(), customerID, CreateReviewInput{
		ProductID: product.ID,
		Rating:    6,
		Comment:   "Too high",
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())

	_, err = f.svc.Create(context.Background(), customerID, CreateReviewInput{
		ProductID: product.ID,
		Rating:    3,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestListByProductPaginates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	product := f.seedProduct(t)

	for i := 0; i < 3; i++ {
		customerID := uuid.New()
		f.seedPaidOrder(t, customerID, product.ID)
		_, err := f.svc.Create(context.Background(), customerID, CreateReviewInput{
			ProductID: product.ID,
			Rating:    i + 3,
			Comment:   fmt.Sprintf("Review %d", i),
		})
		require.NoError(t, err)
	}

	first, next, err := f.svc.ListByProduct(context.Background(), product.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)

	rest, last, err := f.svc.ListByProduct(context.Background(), product.ID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, last)
}
