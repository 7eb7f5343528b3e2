package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/pkg/auth"
	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db),
		config.JWTConfig{Secret: "test-secret", Issuer: "bazario-test", ExpirationMinutes: 15},
		config.PasswordConfig{ArgonMemoryKB: 8 * 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
	)
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Dana Vendor",
		Email:    "Dana@Example.com",
		Password: "sup3r-secret",
		Role:     enums.UserRoleVendor,
	})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", registered.User.Email)
	assert.NotEmpty(t, registered.Token)

	claims, err := auth.ParseAccessToken(config.JWTConfig{Secret: "test-secret", Issuer: "bazario-test", ExpirationMinutes: 15}, registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, enums.UserRoleVendor, claims.Role)

	loggedIn, err := svc.Login(context.Background(), LoginInput{
		Email:    "dana@example.com",
		Password: "sup3r-secret",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", registered.User.ID).Error)
	assert.NotNil(t, reloaded.LastLoginAt)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	input := RegisterInput{
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: "sup3r-secret",
		Role:     enums.UserRoleCustomer,
	}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.As(err).Code())
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Root",
		Email:    "root@example.com",
		Password: "sup3r-secret",
		Role:     enums.UserRoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.As(err).Code())
}

func TestLoginInvalidCredentials(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: "sup3r-secret",
		Role:     enums.UserRoleCustomer,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "sam@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())
}
