package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/config"
	"github.com/Ramsey-B/aster/internal/seed"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/utils"
)

func main() {
	datasetPath := flag.String("dataset", "data/sales.csv", "path to the sales dataset CSV")
	flag.Parse()

	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		panic(fmt.Sprintf("failed to bind config: %v", err))
	}
	if _, err := utils.Validate(*cfg); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer zapLogger.Sync()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx := context.Background()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)
	conn, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer conn.Close()

	driver, err := migratepg.WithInstance(conn.DB, &migratepg.Config{})
	if err != nil {
		logger.WithError(err).Error("Failed to create migration driver")
		os.Exit(1)
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		logger.WithError(err).Error("Failed to run migrations")
		os.Exit(1)
	}

	loader := seed.NewLoader(database.NewDatabaseInstance(conn, logger), logger, cfg.SeedBatchSize)
	summary, err := loader.LoadFile(ctx, *datasetPath)
	if err != nil {
		logger.WithError(err).Error("Seeding failed")
		os.Exit(1)
	}

	logger.WithFields(map[string]any{
		"customers": summary.Customers,
		"products":  summary.Products,
		"stores":    summary.Stores,
		"employees": summary.Employees,
		"sales":     summary.Sales,
	}).Info("Seeding completed")
}
