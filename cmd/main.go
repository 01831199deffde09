package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/rbac"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Catalog Management API
// @version 1.0.0
// @description Catalog browsing, bulk import and review reconciliation service with multi-tenant support
// @termsOfService http://swagger.io/terms/

// @contact.name Catalog API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8093
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	// Set Redis password from GCP Secret Manager
	redisOpts.Password = secrets.GetRedisPassword()
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	reviewsRepo := repository.NewReviewsRepository(db)
	usersRepo := repository.NewUsersRepository(db)

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	natsURL := os.Getenv("NATS_URL")
	if natsURL != "" {
		var err error
		eventsPublisher, err = events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize handlers (publisher may be nil if NATS not configured)
	catalogHandler := handlers.NewCatalogHandler(db, redisClient)
	importHandler := handlers.NewImportHandler(db, redisClient, reviewsRepo, usersRepo, eventsPublisher, logger)
	reviewsHandler := handlers.NewReviewsHandler(db, redisClient, reviewsRepo, eventsPublisher, logger)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("catalog-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("catalog-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("tesseract", "catalog_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize RBAC middleware
	staffServiceURL := os.Getenv("STAFF_SERVICE_URL")
	if staffServiceURL == "" {
		staffServiceURL = "http://staff-service:8080"
	}
	rbacMw := rbac.NewMiddlewareWithURL(staffServiceURL, nil)
	log.Println("✓ RBAC middleware initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = int64(cfg.MaxImportFileSizeMB) << 20

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("catalog-service"))
	router.Use(gosharedmw.CompressionMiddleware())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	// Protected API routes
	api := router.Group("/api/v1")

	// Authentication middleware
	// In development: use DevelopmentAuthMiddleware for local testing
	// In production: use IstioAuth which reads x-jwt-claim-* headers from Istio
	//                or falls back to X-* headers from auth-bff during migration
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
		api.Use(middleware.TenantMiddleware()) // Still needed in dev mode
	} else {
		istioAuthLogger := logrus.NewEntry(logger).WithField("component", "istio_auth")
		api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
			RequireAuth:        true,
			AllowLegacyHeaders: true, // Allow X-User-ID, X-Tenant-ID during migration
			Logger:             istioAuthLogger,
		}))
	}

	// API routes
	v1 := api.Group("")
	{
		catalog := v1.Group("/catalog/:kind")
		{
			// Read operations - require products:read permission
			catalog.GET("", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.ListEntities)
			catalog.GET("/:id", rbacMw.RequirePermission(rbac.PermissionProductsRead), catalogHandler.GetEntity)
			catalog.GET("/:id/reviews", rbacMw.RequirePermission(rbac.PermissionReviewsRead), reviewsHandler.GetEntityReviews)

			// Import - requires products:import permission
			catalog.GET("/import/template", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.GetImportTemplate)
			catalog.POST("/import", rbacMw.RequirePermission(rbac.PermissionProductsImport), importHandler.ImportEntities)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.POST("", reviewsHandler.CreateReview)
			reviews.GET("/summary", rbacMw.RequirePermission(rbac.PermissionReviewsRead), reviewsHandler.GetReviewsSummary)
			reviews.PUT("/:id/status", rbacMw.RequirePermission(rbac.PermissionReviewsModerate), reviewsHandler.UpdateReviewStatus)
		}
	}

	// =============================================================================
	// PUBLIC STOREFRONT ENDPOINTS (no auth required, only tenant context)
	// These endpoints are for public storefronts to browse the catalog
	// =============================================================================
	storefront := router.Group("/api/v1/storefront")
	storefront.Use(middleware.TenantMiddleware()) // Require tenant context only
	{
		storefront.GET("/catalog/:kind", catalogHandler.ListEntities)
		storefront.GET("/catalog/:kind/:id", catalogHandler.GetEntity)
		storefront.GET("/catalog/:kind/:id/reviews", reviewsHandler.GetEntityReviews)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := cfg.Port

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down catalog-service...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Catalog service stopped")
}
