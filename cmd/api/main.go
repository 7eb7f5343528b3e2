package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mvalenz/bazario-backend/api/routes"
	"github.com/mvalenz/bazario-backend/internal/affiliates"
	"github.com/mvalenz/bazario-backend/internal/inventory"
	"github.com/mvalenz/bazario-backend/internal/ledger"
	"github.com/mvalenz/bazario-backend/internal/notifications"
	"github.com/mvalenz/bazario-backend/internal/orders"
	"github.com/mvalenz/bazario-backend/internal/products"
	"github.com/mvalenz/bazario-backend/internal/reviews"
	"github.com/mvalenz/bazario-backend/internal/users"
	"github.com/mvalenz/bazario-backend/internal/wallet"
	"github.com/mvalenz/bazario-backend/pkg/config"
	"github.com/mvalenz/bazario-backend/pkg/db"
	"github.com/mvalenz/bazario-backend/pkg/logger"
	"github.com/mvalenz/bazario-backend/pkg/metrics"
	"github.com/mvalenz/bazario-backend/pkg/migrate"
	"github.com/mvalenz/bazario-backend/pkg/payments"
	"github.com/mvalenz/bazario-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	platformMetrics := metrics.NewPlatformMetrics(registry)

	ledgerService, err := ledger.NewService(cfg.Platform)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(products.NewRepository(dbClient.DB()), ledgerService.DefaultCommissionRate())
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(
		inventory.NewRepository(dbClient.DB()),
		notificationsService,
		logg,
		platformMetrics,
		cfg.Platform.LowStockThreshold,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	affiliatesService, err := affiliates.NewService(affiliates.NewRepository(dbClient.DB()), productsService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create affiliates service", err)
		os.Exit(1)
	}

	walletService, err := wallet.NewService(
		wallet.NewRepository(dbClient.DB()),
		dbClient,
		notificationsService,
		logg,
		platformMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(
		reviews.NewRepository(dbClient.DB()),
		dbClient,
		productsService,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	chargeRegistry := payments.NewRegistry(
		payments.NewStripeProvider(cfg.Stripe, nil, logg),
		payments.NewPayPalProvider(cfg.PayPal, nil, logg),
	)

	ordersService, err := orders.NewService(orders.Deps{
		Repo:       orders.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Ledger:     ledgerService,
		Inventory:  inventoryService,
		Affiliates: affiliatesService,
		Catalog:    productsService,
		Charger:    chargeRegistry,
		Notifier:   notificationsService,
		Logger:     logg,
		Metrics:    platformMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, platformMetrics, routes.Services{
			Users:         usersService,
			Products:      productsService,
			Affiliates:    affiliatesService,
			Orders:        ordersService,
			Reviews:       reviewsService,
			Wallet:        walletService,
			Notifications: notificationsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
