package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/institute/coursecatalog/internal/config"
	"github.com/institute/coursecatalog/internal/database"
	"github.com/institute/coursecatalog/internal/logger"
	"github.com/institute/coursecatalog/internal/repositories"
	"github.com/institute/coursecatalog/internal/services"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "seed/courses.yaml", "path to the YAML seed dataset")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	appLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*file)
	if err != nil {
		appLogger.Fatal("Failed to open seed dataset", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	dataset, err := services.ParseSeedDataset(f)
	if err != nil {
		appLogger.Fatal("Failed to parse seed dataset", zap.String("file", *file), zap.Error(err))
	}

	db, dialect, err := database.Open(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, dialect); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	docs, err := repositories.NewDocumentRepository(db, dialect, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create document repository", zap.Error(err))
	}

	ledger := services.NewHistoryLedger(docs, appLogger)
	contentService := services.NewCourseContentService(docs, ledger, cfg.Store.Timeout, appLogger)

	written, err := services.NewSeeder(contentService, appLogger).Seed(ctx, dataset)
	if err != nil {
		appLogger.Fatal("Seeding failed", zap.Int("courses_written", written), zap.Error(err))
	}

	appLogger.Info("Seeding complete", zap.Int("courses_written", written))
}
