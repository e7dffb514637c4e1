package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"storefront-service/internal/clients"
	"storefront-service/internal/config"
	"storefront-service/internal/events"
	"storefront-service/internal/gateway"
	"storefront-service/internal/handlers"
	"storefront-service/internal/middleware"
	"storefront-service/internal/repository"
	"storefront-service/internal/services"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	logger.Info("Connected to database")

	redisClient := config.InitRedis(cfg, logger)

	var publisher *events.Publisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err = events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ unavailable, continuing without events")
			publisher = nil
		} else {
			defer publisher.Close()
			logger.Info("Connected to RabbitMQ")
		}
	}

	// Repositories
	productRepo := repository.NewProductRepository(db)
	shippingRuleRepo := repository.NewShippingRuleRepository(db, redisClient)
	bundleRepo := repository.NewBundleRepository(db, redisClient)
	couponRepo := repository.NewCouponRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Collaborator boundaries
	notificationClient := clients.NewNotificationClient(cfg.App.NotificationURL, logger)
	gatewayFactory := gateway.NewFactory(
		gateway.NewNGeniusGateway(gateway.NGeniusConfig{
			APIKey:    cfg.Gateway.NGeniusAPIKey,
			OutletRef: cfg.Gateway.NGeniusOutletRef,
			BaseURL:   cfg.Gateway.NGeniusBaseURL,
		}),
	)

	// Services
	shippingService := services.NewShippingService(shippingRuleRepo, logger)
	bundleService := services.NewBundleService(bundleRepo, productRepo, logger)
	couponService := services.NewCouponService(couponRepo, orderRepo, logger)
	orderService := services.NewOrderService(
		orderRepo, productRepo, shippingService, bundleService, couponService,
		notificationClient, publisher, logger,
	)
	paymentService := services.NewPaymentService(
		orderRepo, couponService, gatewayFactory,
		notificationClient, publisher, logger,
		cfg.App.StoreCurrency, cfg.Gateway.ReturnBaseURL,
	)

	// Handlers
	healthHandlers := handlers.NewHealthHandlers(db)
	productHandlers := handlers.NewProductHandlers(productRepo, logger)
	shippingHandlers := handlers.NewShippingHandlers(shippingService, shippingRuleRepo, logger)
	bundleHandlers := handlers.NewBundleHandlers(bundleService, bundleRepo, logger)
	couponHandlers := handlers.NewCouponHandlers(couponService, couponRepo, logger)
	orderHandlers := handlers.NewOrderHandlers(orderService, logger)
	paymentHandlers := handlers.NewPaymentHandlers(paymentService, logger)

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.SetupCORS())

	router.GET("/health", healthHandlers.Health)
	router.GET("/ready", healthHandlers.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", productHandlers.List)
		v1.GET("/products/:id", productHandlers.Get)

		v1.POST("/orders", orderHandlers.Create)
		v1.GET("/orders/:id", orderHandlers.Get)
		v1.GET("/orders/number/:orderNumber", orderHandlers.GetByNumber)

		v1.POST("/shipping/calculate", shippingHandlers.Calculate)
		v1.GET("/shipping/rules/active", shippingHandlers.ListActive)

		v1.POST("/coupons/validate", couponHandlers.Validate)

		v1.POST("/bundles/calculate-discount", bundleHandlers.CalculateDiscount)
		v1.GET("/bundles/active", bundleHandlers.ListActive)
		v1.GET("/bundles/active/:category", bundleHandlers.ListActive)

		v1.POST("/payment/:gateway/create/:orderId", paymentHandlers.CreateSession)
		v1.POST("/payment/:gateway/webhook", paymentHandlers.Webhook)
		v1.GET("/payment/success/:orderId", paymentHandlers.Confirm)
		v1.GET("/payment/status/:orderId", paymentHandlers.Status)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.App.JWTSecret))
	{
		admin.GET("/orders", orderHandlers.List)
		admin.PUT("/orders/:id/status", orderHandlers.UpdateStatus)
		admin.GET("/orders/stats", orderHandlers.Stats)

		admin.GET("/shipping/rules", shippingHandlers.List)
		admin.POST("/shipping/rules", shippingHandlers.Create)
		admin.GET("/shipping/rules/:id", shippingHandlers.Get)
		admin.PUT("/shipping/rules/:id", shippingHandlers.Update)
		admin.DELETE("/shipping/rules/:id", shippingHandlers.Delete)

		admin.GET("/coupons", couponHandlers.List)
		admin.POST("/coupons", couponHandlers.Create)
		admin.GET("/coupons/stats", couponHandlers.Stats)
		admin.GET("/coupons/:id", couponHandlers.Get)
		admin.PUT("/coupons/:id", couponHandlers.Update)
		admin.DELETE("/coupons/:id", couponHandlers.Delete)

		admin.GET("/bundles", bundleHandlers.List)
		admin.POST("/bundles", bundleHandlers.Create)
		admin.GET("/bundles/:id", bundleHandlers.Get)
		admin.PUT("/bundles/:id", bundleHandlers.Update)
		admin.DELETE("/bundles/:id", bundleHandlers.Delete)

		admin.POST("/products", productHandlers.Create)
		admin.PUT("/products/:id", productHandlers.Update)
		admin.DELETE("/products/:id", productHandlers.Delete)
	}

	addr := cfg.GetServerAddress()
	logger.WithField("addr", addr).Info("Starting storefront service")
	if err := router.Run(addr); err != nil {
		logger.WithError(err).Fatal("Server exited")
	}
}
