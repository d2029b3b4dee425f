package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/shopkart/backend/internal/application/cart"
	catalogapp "github.com/shopkart/backend/internal/application/catalog"
	identityapp "github.com/shopkart/backend/internal/application/identity"
	orderapp "github.com/shopkart/backend/internal/application/order"
	paymentapp "github.com/shopkart/backend/internal/application/payment"
	"github.com/shopkart/backend/internal/domain/order"
	"github.com/shopkart/backend/internal/domain/shared"
	"github.com/shopkart/backend/internal/infrastructure/auth"
	"github.com/shopkart/backend/internal/infrastructure/cache"
	"github.com/shopkart/backend/internal/infrastructure/config"
	"github.com/shopkart/backend/internal/infrastructure/logger"
	"github.com/shopkart/backend/internal/infrastructure/payment"
	"github.com/shopkart/backend/internal/infrastructure/persistence"
	"github.com/shopkart/backend/internal/interfaces/http/handler"
	"github.com/shopkart/backend/internal/interfaces/http/middleware"
	"github.com/shopkart/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Shopkart backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	checkoutRepo := persistence.NewGormCheckoutRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Webhook idempotency store: Redis when enabled, in-memory otherwise
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotencyStore = redisStore
		log.Info("Using Redis idempotency store")
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("Using in-memory idempotency store")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Payment gateway
	stripeConfig := &payment.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Currency:      cfg.Stripe.Currency,
	}
	var gateway order.PaymentGateway
	if stripeGateway, err := payment.NewStripeGateway(stripeConfig, log); err != nil {
		log.Warn("Stripe is not configured, card payments are disabled", zap.Error(err))
	} else {
		gateway = stripeGateway
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	pricing := order.PricingPolicy{
		TaxRate:               decimal.NewFromFloat(cfg.Pricing.TaxRate),
		FreeShippingThreshold: decimal.NewFromFloat(cfg.Pricing.FreeShippingThreshold),
		FlatShippingFee:       decimal.NewFromFloat(cfg.Pricing.FlatShippingFee),
	}
	if err := pricing.Validate(); err != nil {
		log.Fatal("Invalid pricing configuration", zap.Error(err))
	}

	// Application services
	authService := identityapp.NewAuthService(userRepo, jwtService, log)
	productService := catalogapp.NewProductService(productRepo, log)
	cartService := cartapp.NewCartService(cartRepo, productRepo, log)
	checkoutService := orderapp.NewCheckoutService(orderapp.CheckoutServiceConfig{
		CartRepo:     cartRepo,
		ProductRepo:  productRepo,
		OrderRepo:    orderRepo,
		CheckoutRepo: checkoutRepo,
		Gateway:      gateway,
		Pricing:      pricing,
		Currency:     cfg.Stripe.Currency,
		Logger:       log,
	})
	orderService := orderapp.NewOrderService(orderRepo, checkoutRepo, log)
	webhookService := paymentapp.NewWebhookService(paymentapp.WebhookServiceConfig{
		Config:      stripeConfig,
		OrderRepo:   orderRepo,
		Idempotency: idempotencyStore,
		TTL:         cfg.Webhook.IdempotencyTTL,
		Logger:      log,
	})

	// HTTP engine
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
	)

	// Routes
	productHandler := handler.NewProductHandler(productService)
	orderHandler := handler.NewOrderHandler(checkoutService, orderService)

	r := router.NewRouter(engine, jwtService)
	r.RegisterRoot(handler.NewSystemHandler(db)).
		RegisterRoot(handler.NewWebhookHandler(webhookService)).
		RegisterPublic(productHandler).
		RegisterPublic(handler.NewAuthHandler(authService, jwtService)).
		RegisterAuthed(handler.NewCartHandler(cartService)).
		RegisterAuthed(orderHandler).
		RegisterAdmin(productHandler).
		RegisterAdmin(orderHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
