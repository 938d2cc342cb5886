package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/internal/api/handlers"
	cache "github.com/shydevcorp/codejeet/internal/cache/redis"
	"github.com/shydevcorp/codejeet/internal/content"
	"github.com/shydevcorp/codejeet/internal/metrics"
	"github.com/shydevcorp/codejeet/internal/middleware/auth"
	"github.com/shydevcorp/codejeet/internal/middleware/ratelimit"
	"github.com/shydevcorp/codejeet/internal/middleware/security"
	"github.com/shydevcorp/codejeet/internal/progress"
	"github.com/shydevcorp/codejeet/internal/questions"
	"github.com/shydevcorp/codejeet/internal/solutions"
	"github.com/shydevcorp/codejeet/internal/storage/postgres"
	"github.com/shydevcorp/codejeet/pkg/config"
	appLogger "github.com/shydevcorp/codejeet/pkg/logger"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting codejeet API server")

	metrics.Init()

	db, err := postgres.NewClient(cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		appLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// The cache is an accelerator, not a dependency; run without it when
	// Redis is unreachable.
	var cacheClient *cache.Client
	if cfg.Redis.Enabled {
		cacheClient, err = cache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	aggregator := questions.NewAggregator(db)
	synchronizer := progress.NewSynchronizer(db)

	solutionsClient := solutions.NewClient(
		cfg.Solutions.APIKey,
		cfg.Solutions.BaseURL,
		cfg.Solutions.Model,
		cfg.Solutions.Temperature,
		cfg.Solutions.MaxTokens,
		cfg.Solutions.TimeoutSec,
	)
	var solutionCache solutions.Cache
	if cacheClient != nil {
		solutionCache = cacheClient
	}
	solutionsService := solutions.NewService(
		solutionsClient,
		solutionCache,
		db,
		time.Duration(cfg.Solutions.CacheTTLSec)*time.Second,
	)

	contentReader := content.NewReader(cfg.Content.Dir)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(metrics.Middleware())

	if cfg.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
			Logger:               appLogger.GetLogger(),
		})
		defer limiter.Stop()
		app.Use(limiter.Middleware())
	}

	questionsHandler := handlers.NewQuestionsHandler(aggregator, cacheClient)
	progressHandler := handlers.NewProgressHandler(synchronizer)
	solutionsHandler := handlers.NewSolutionsHandler(solutionsService)
	contentHandler := handlers.NewContentHandler(contentReader)

	api := app.Group("/api")

	api.Get("/questions", questionsHandler.ListQuestions)
	api.Get("/companies", questionsHandler.ListCompanies)
	api.Get("/topics", questionsHandler.ListTopics)

	authenticated := api.Group("/progress", auth.Middleware(cfg.Auth.JWTSecret))
	authenticated.Get("/", progressHandler.GetProgress)
	authenticated.Post("/", progressHandler.UpdateProgress)
	authenticated.Put("/", progressHandler.SyncProgress)

	api.Get("/solutions", solutionsHandler.GetSolution)

	api.Get("/system-design", contentHandler.ListChapters)
	api.Get("/system-design/:slug", contentHandler.GetChapter)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
