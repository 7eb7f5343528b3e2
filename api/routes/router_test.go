package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mvalenz/bazario-backend/internal/orders"
	"github.com/mvalenz/bazario-backend/internal/reviews"
	"github.com/mvalenz/bazario-backend/internal/users"
	"github.com/mvalenz/bazario-backend/internal/wallet"
	pkgAuth "github.com/mvalenz/bazario-backend/pkg/auth"
	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/db/models"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/pagination"
	"github.com/mvalenz/bazario-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) Register(context.Context, users.RegisterInput) (*users.AuthResult, error) {
	return &users.AuthResult{User: &models.User{}}, nil
}

func (stubUsersService) Login(context.Context, users.LoginInput) (*users.AuthResult, error) {
	return &users.AuthResult{User: &models.User{}}, nil
}

func (stubUsersService) GetByID(context.Context, uuid.UUID) (*models.User, error) {
	return &models.User{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Create(context.Context, uuid.UUID, orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	panic("unimplemented")
}

func (stubOrdersService) ConfirmPayment(context.Context, uuid.UUID, *string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) MarkFailed(context.Context, uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) MarkRefunded(context.Context, uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) GetByID(context.Context, uuid.UUID, uuid.UUID, enums.UserRole) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrdersService) ListByCustomer(context.Context, uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

type stubWalletService struct{}

func (stubWalletService) Balance(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubWalletService) RequestWithdrawal(context.Context, uuid.UUID, wallet.RequestWithdrawalInput) (*models.Withdrawal, error) {
	panic("unimplemented")
}

func (stubWalletService) ProcessWithdrawal(context.Context, uuid.UUID, wallet.ProcessWithdrawalInput) (*models.Withdrawal, error) {
	panic("unimplemented")
}

func (stubWalletService) ListWithdrawals(context.Context, uuid.UUID) ([]models.Withdrawal, error) {
	return nil, nil
}

func (stubWalletService) Credit(context.Context, *gorm.DB, uuid.UUID, int64) error {
	return nil
}

type stubAffiliatesService struct{}

func (stubAffiliatesService) CreateLink(context.Context, uuid.UUID, uuid.UUID) (*models.AffiliateLink, error) {
	panic("unimplemented")
}

func (stubAffiliatesService) ResolveCode(context.Context, string) (*models.AffiliateLink, error) {
	return &models.AffiliateLink{}, nil
}

func (stubAffiliatesService) RecordClick(context.Context, string) (*models.AffiliateLink, error) {
	return &models.AffiliateLink{Code: "DEMO1234", ProductID: uuid.New()}, nil
}

func (stubAffiliatesService) RecordConversion(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubAffiliatesService) ListByAffiliate(context.Context, uuid.UUID) ([]models.AffiliateLink, error) {
	return nil, nil
}

type stubReviewsService struct{}

func (stubReviewsService) Create(context.Context, uuid.UUID, reviews.CreateReviewInput) (*models.Review, error) {
	panic("unimplemented")
}

func (stubReviewsService) ListByProduct(context.Context, uuid.UUID, pagination.Params) ([]models.Review, string, error) {
	return nil, "", nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) Notify(context.Context, uuid.UUID, enums.NotificationType, string, string, any) {
}

func (stubNotificationsService) LowStock(context.Context, *models.Product) {}

func (stubNotificationsService) ListByUser(context.Context, uuid.UUID, bool) ([]models.Notification, error) {
	return nil, nil
}

func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		nil,
		nil,
		Services{
			Users:         stubUsersService{},
			Products:      nil,
			Affiliates:    stubAffiliatesService{},
			Orders:        stubOrdersService{},
			Reviews:       stubReviewsService{},
			Wallet:        stubWalletService{},
			Notifications: stubNotificationsService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAuthedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for profile read got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products/pending", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}
}

func TestVendorGroupRequiresVendorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/products", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}
}

func TestAffiliateGroupRequiresAffiliateRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	vendor := httptest.NewRequest(http.MethodGet, "/api/v1/affiliate/links", nil)
	vendor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleVendor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, vendor)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for vendor got %d", resp.Code)
	}

	affiliate := httptest.NewRequest(http.MethodGet, "/api/v1/affiliate/links", nil)
	affiliate.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAffiliate))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, affiliate)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for affiliate got %d", resp.Code)
	}
}

func TestAffiliateRedirectCountsClick(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/l/DEMO1234", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302 redirect got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc == "" {
		t.Fatal("expected redirect location")
	}
}

func TestProductReviewsPublicList(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString()+"/reviews", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public review list got %d", resp.Code)
	}
}

func TestCreateReviewRequiresJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+uuid.NewString()+"/reviews", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
