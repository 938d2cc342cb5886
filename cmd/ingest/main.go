package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	cache "github.com/shydevcorp/codejeet/internal/cache/redis"
	"github.com/shydevcorp/codejeet/internal/ingest"
	"github.com/shydevcorp/codejeet/internal/storage/postgres"
	"github.com/shydevcorp/codejeet/pkg/config"
	appLogger "github.com/shydevcorp/codejeet/pkg/logger"
)

func main() {
	dataDir := flag.String("data", "./data", "directory of <company>/<timeframe>.csv files")
	flag.Parse()

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

	db, err := postgres.NewClient(cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to create Postgres client", zap.Error(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		appLogger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	ctx := context.Background()

	loader := ingest.NewLoader(db)
	stats, err := loader.LoadDir(ctx, *dataDir)
	if err != nil {
		appLogger.Fatal("Load failed", zap.Error(err))
	}

	// Stale listings would otherwise serve until their TTL runs out.
	if cfg.Redis.Enabled {
		if cacheClient, err := cache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB); err == nil {
			if err := cacheClient.InvalidateQuestions(ctx); err != nil {
				appLogger.Warn("Cache invalidation failed", zap.Error(err))
			}
			cacheClient.Close()
		}
	}

	appLogger.Info("Ingest complete",
		zap.Int("companies", stats.Companies),
		zap.Int("files", stats.Files),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped", stats.Skipped),
	)
}
