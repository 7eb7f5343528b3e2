package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvalenz/bazario-backend/api/controllers"
	"github.com/mvalenz/bazario-backend/api/middleware"
	"github.com/mvalenz/bazario-backend/internal/affiliates"
	"github.com/mvalenz/bazario-backend/internal/notifications"
	"github.com/mvalenz/bazario-backend/internal/orders"
	"github.com/mvalenz/bazario-backend/internal/products"
	"github.com/mvalenz/bazario-backend/internal/reviews"
	"github.com/mvalenz/bazario-backend/internal/users"
	"github.com/mvalenz/bazario-backend/internal/wallet"
	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/db"
	"github.com/mvalenz/bazario-backend/pkg/enums"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/metrics"
	"github.com/mvalenz/bazario-backend/pkg/redis"
)

// Services bundles everything the router hands to controllers.
type Services struct {
	Users         users.Service
	Products      products.Service
	Affiliates    affiliates.Service
	Orders        orders.Service
	Reviews       reviews.Service
	Wallet        wallet.Service
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	platformMetrics *metrics.PlatformMetrics,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, platformMetrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Public click tracking; redirects to the storefront product page.
	r.Get("/l/{code}", controllers.AffiliateRedirect(svcs.Affiliates, cfg, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.Register(svcs.Users, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(svcs.Users, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(svcs.Products, logg))
		r.Get("/{productID}", controllers.GetProduct(svcs.Products, logg))
		r.Get("/{productID}/reviews", controllers.ListProductReviews(svcs.Reviews, logg))
		r.With(
			middleware.Auth(cfg.JWT, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/{productID}/reviews", controllers.CreateReview(svcs.Reviews, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/users/me", controllers.Me(svcs.Users, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(svcs.Orders, logg))
			r.Post("/{orderID}/confirm", controllers.ConfirmOrderPayment(svcs.Orders, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(svcs.Wallet, logg))
			r.Post("/withdrawals", controllers.RequestWithdrawal(svcs.Wallet, logg))
			r.Get("/withdrawals", controllers.ListWithdrawals(svcs.Wallet, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleVendor), logg))
			r.Post("/products", controllers.VendorCreateProduct(svcs.Products, logg))
			r.Get("/products", controllers.VendorListProducts(svcs.Products, logg))
			r.Patch("/products/{productID}", controllers.VendorUpdateProduct(svcs.Products, logg))
		})

		r.Route("/affiliate", func(r chi.Router) {
			r.Use(middleware.RequireAnyRole(logg,
				string(enums.UserRoleAffiliate),
				string(enums.UserRoleInfluencer),
			))
			r.Post("/links", controllers.CreateAffiliateLink(svcs.Affiliates, logg))
			r.Get("/links", controllers.ListAffiliateLinks(svcs.Affiliates, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/products/pending", controllers.AdminListModerationQueue(svcs.Products, logg))
			r.Post("/products/{productID}/approve", controllers.AdminApproveProduct(svcs.Products, logg))
			r.Post("/products/{productID}/reject", controllers.AdminRejectProduct(svcs.Products, logg))
			r.Post("/orders/{orderID}/fail", controllers.AdminFailOrder(svcs.Orders, logg))
			r.Post("/orders/{orderID}/refund", controllers.AdminRefundOrder(svcs.Orders, logg))
			r.Post("/withdrawals/{withdrawalID}/process", controllers.AdminProcessWithdrawal(svcs.Wallet, logg))
		})
	})

	return r
}
