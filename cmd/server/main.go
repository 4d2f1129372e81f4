package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/aster/config"
	filteroptionrepo "github.com/Ramsey-B/aster/internal/repositories/filteroption"
	salerepo "github.com/Ramsey-B/aster/internal/repositories/sale"
	filteroptionsvc "github.com/Ramsey-B/aster/internal/services/filteroption"
	transactionsvc "github.com/Ramsey-B/aster/internal/services/transaction"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/health"
	"github.com/Ramsey-B/aster/pkg/middleware"
	"github.com/Ramsey-B/aster/pkg/redis"
	transactionroutes "github.com/Ramsey-B/aster/pkg/routes/transaction"
	"github.com/Ramsey-B/aster/pkg/startup"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/tracing/exporters"
	"github.com/Ramsey-B/aster/pkg/utils"
)

const version = "1.0.0"

type serviceDependency struct {
	name  string
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

func (d *serviceDependency) GetName() string {
	return d.name
}

func (d *serviceDependency) DependsOn() []string {
	return nil
}

func (d *serviceDependency) Start(ctx context.Context) error {
	return d.start(ctx)
}

func (d *serviceDependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	if err := ectoenv.BindEnv(cfg); err != nil {
		panic(fmt.Sprintf("failed to bind config: %v", err))
	}
	if _, err := utils.Validate(*cfg); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}

	zapLogger := newZapLogger(cfg)
	defer zapLogger.Sync()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx := context.Background()

	shutdownTracing := initTracing(ctx, cfg, logger)
	defer shutdownTracing(context.Background())

	var (
		sqlxDB *sqlx.DB
		db     database.DB
		cache  *redis.Client
	)

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&serviceDependency{
		name: "postgres",
		start: func(ctx context.Context) error {
			dsn := fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
			)

			conn, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
			if err != nil {
				return err
			}
			conn.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			conn.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			conn.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

			driver, err := migratepg.WithInstance(conn.DB, &migratepg.Config{})
			if err != nil {
				return err
			}

			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
				return err
			}

			sqlxDB = conn
			db = database.NewDatabaseInstance(conn, logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			if sqlxDB == nil {
				return nil
			}
			return sqlxDB.Close()
		},
	})
	boot.AddDependency(&serviceDependency{
		name: "redis",
		start: func(ctx context.Context) error {
			if !cfg.RedisEnabled {
				return nil
			}

			client, err := redis.NewClient(redis.Config{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			}, logger)
			if err != nil {
				// The options cache is best-effort; serve without it.
				logger.WithError(err).Warn("Redis unavailable, continuing without options cache")
				return nil
			}

			cache = client
			return nil
		},
		stop: func(ctx context.Context) error {
			if cache == nil {
				return nil
			}
			return cache.Close()
		},
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start dependencies")
		os.Exit(1)
	}

	saleRepo := salerepo.NewRepository(db, logger)
	optionRepo := filteroptionrepo.NewRepository(db, logger)
	txService := transactionsvc.NewService(saleRepo, logger)
	optionService := filteroptionsvc.NewService(optionRepo, cache, cfg.OptionsCacheTTL, logger)

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		logger.WithError(err).Error("Failed to create DI container")
		os.Exit(1)
	}
	mustRegister(logger, ectoinject.RegisterInstance[*config.Config](container, cfg))
	mustRegister(logger, ectoinject.RegisterInstance[*transactionsvc.Service](container, txService))
	mustRegister(logger, ectoinject.RegisterInstance[*filteroptionsvc.Service](container, optionService))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	checker := health.NewChecker(sqlxDB, rawRedis(cache), version)
	checker.RegisterRoutes(e)

	transactionroutes.Register(e.Group("/api/transactions"))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("addr", addr).Info("Starting HTTP server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	checker.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shut down HTTP server cleanly")
	}
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to stop dependencies cleanly")
	}
}

func mustRegister(logger ectologger.Logger, err error) {
	if err != nil {
		logger.WithError(err).Error("Failed to register dependency")
		os.Exit(1)
	}
}

func rawRedis(cache *redis.Client) *goredis.Client {
	if cache == nil {
		return nil
	}
	return cache.Redis()
}

func newZapLogger(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapConfig zap.Config
	if cfg.PrettyLogs {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

// initTracing wires the tracer provider. Without OTLP enabled spans are still
// created (repos and services start them) but never exported.
func initTracing(ctx context.Context, cfg *config.Config, logger ectologger.Logger) func(context.Context) error {
	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}

	if cfg.OTLPEnabled {
		otlpExporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Warn("Failed to create OTLP exporter, traces will not be exported")
		} else {
			exporter = otlpExporter
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewSchemaless(
			attribute.String("service.name", cfg.AppName),
			attribute.String("service.version", version),
		)),
	)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return tp.Shutdown
}
