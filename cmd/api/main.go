package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/n1str/RationX/internal/config"
	"github.com/n1str/RationX/internal/database"
	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/handlers"
	"github.com/n1str/RationX/internal/logger"
	"github.com/n1str/RationX/internal/metrics"
	"github.com/n1str/RationX/internal/middleware"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	if envErr != nil {
		log.Warn().Msg(".env file not found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server exited")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Msg("Connected to database")

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	store := db.NewStore(pool)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Services
	validator := services.NewRequestValidator()
	categoryService := services.NewCategoryService(store, validator, log)
	transactionService := services.NewTransactionService(
		store,
		services.NewSubjectService(validator, log),
		services.NewBankService(log),
		categoryService,
		services.NewRegisterService(log),
		validator,
		m,
		log,
	)
	statisticsService := services.NewStatisticsService(store, log)
	exportService := services.NewExportService(store, statisticsService, m, log)
	categorizer, err := services.NewCategorizer(services.DefaultCategoryRules)
	if err != nil {
		return fmt.Errorf("failed to compile categorization rules: %w", err)
	}
	importService := services.NewImportService(transactionService, services.NewParser(), categorizer, m, log)

	if cfg.SeedDefaults {
		created, err := categoryService.SeedDefaults(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed default categories: %w", err)
		}
		log.Info().Int("created", created).Msg("Default categories seeded")
	}

	// Token revocation
	var revocations services.RevocationStore = services.NewMemoryRevocationStore()
	if cfg.RedisURL != "" {
		client, err := services.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		revocations = services.NewRedisRevocationStore(client)
		log.Info().Msg("Token revocation backed by Redis")
	} else {
		log.Warn().Msg("REDIS_URL not set, token revocation is kept in memory")
	}
	authService := services.NewAuthService(store, revocations, validator, m, log, cfg.JWTSecret, cfg.JWTTTL)

	// Object storage is optional
	var exportStorage handlers.ExportStorage
	var uploadStorage handlers.UploadStorage
	if cfg.StorageEnabled() {
		storageService, err := services.NewStorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize storage service: %w", err)
		}
		exportStorage = storageService
		uploadStorage = storageService
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Storage service initialized")
	} else {
		log.Warn().Msg("S3_BUCKET not set, presigned exports and uploads are disabled")
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction())
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	statisticsHandler := handlers.NewStatisticsHandler(statisticsService)
	exportHandler := handlers.NewExportHandler(exportService, exportStorage, cfg.ExportURLExpiry)
	uploadHandler := handlers.NewUploadHandler(importService, uploadStorage, cfg.ExportURLExpiry)
	rulesHandler := handlers.NewRulesHandler(categorizer)

	app := fiber.New(fiber.Config{
		AppName:      "RationX API v1.0",
		ErrorHandler: utils.ErrorHandler,
		BodyLimit:    handlers.MaxImportFileSize + 1<<20,
	})

	// Apply global middleware
	app.Use(recoverer.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check endpoint (public)
	app.Get("/health", func(c fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  "database unreachable",
			})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "rationx-api",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	v1 := app.Group("/v1")
	requireAuth := middleware.Auth(authService)

	// Auth routes
	v1.Post("/auth/register", authHandler.Register)
	v1.Post("/auth/login", authHandler.Login)
	v1.Post("/auth/validate", authHandler.Validate)
	v1.Post("/auth/logout", requireAuth, authHandler.Logout)
	v1.Get("/me", requireAuth, authHandler.Me)

	// Transaction routes
	transactions := v1.Group("/transactions", requireAuth)
	transactions.Get("/", transactionHandler.GetTransactions)
	transactions.Get("/:id", transactionHandler.GetTransaction)
	transactions.Post("/", transactionHandler.CreateTransaction)
	transactions.Put("/:id", transactionHandler.UpdateTransaction)
	transactions.Delete("/:id", transactionHandler.DeleteTransaction)

	// Category routes
	categories := v1.Group("/categories", requireAuth)
	categories.Get("/", categoryHandler.GetCategories)
	categories.Get("/by-type", categoryHandler.GetCategoriesByType)
	categories.Get("/:id", categoryHandler.GetCategory)
	categories.Post("/", categoryHandler.CreateCategory)
	categories.Put("/:id", categoryHandler.UpdateCategory)
	categories.Delete("/:id", categoryHandler.DeleteCategory)

	// Statistics routes
	statistics := v1.Group("/statistics", requireAuth)
	statistics.Get("/", statisticsHandler.GetGeneral)
	statistics.Get("/by-category", statisticsHandler.GetByCategory)
	statistics.Get("/by-period", statisticsHandler.GetByPeriod)
	statistics.Get("/dashboard", statisticsHandler.GetDashboard)

	// Export routes
	exports := v1.Group("/exports", requireAuth)
	exports.Get("/transactions.xlsx", exportHandler.DownloadTransactions)
	exports.Post("/transactions", exportHandler.CreateExport)

	// Import routes
	imports := v1.Group("/imports", requireAuth)
	imports.Post("/transactions", uploadHandler.UploadFile)
	imports.Get("/upload-url", uploadHandler.GetPresignedURL)
	imports.Post("/process", uploadHandler.ProcessUpload)

	// Categorization rules
	rules := v1.Group("/rules", requireAuth)
	rules.Get("/", rulesHandler.GetRules)
	rules.Post("/test", rulesHandler.TestRules)

	// Start server in a goroutine
	addr := fmt.Sprintf(":%d", cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("environment", cfg.Environment).Msg("Starting API server")
		errCh <- app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
