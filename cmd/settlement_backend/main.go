package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	portsrepo "github.com/remitwave/settlement_engine/internal/core/ports/repositories"
	portssvc "github.com/remitwave/settlement_engine/internal/core/ports/services"
	"github.com/remitwave/settlement_engine/internal/core/services"
	"github.com/remitwave/settlement_engine/internal/handlers"
	"github.com/remitwave/settlement_engine/internal/middleware"
	"github.com/remitwave/settlement_engine/internal/repositories/database/pgsql"
	"github.com/remitwave/settlement_engine/internal/repositories/kafka"
	"github.com/remitwave/settlement_engine/internal/repositories/quotes"
	"github.com/remitwave/settlement_engine/pkg/config"
	"github.com/remitwave/settlement_engine/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if cfg.RunMigrations {
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	repos := &portsrepo.RepositoryProvider{
		OrderRepo:      pgsql.NewOrderRepository(dbPool),
		RateRepo:       pgsql.NewRateVersionRepository(dbPool),
		WalletRepo:     pgsql.NewWalletRepository(dbPool),
		WithdrawalRepo: pgsql.NewWithdrawalRepository(dbPool),
		UserRepo:       pgsql.NewUserRepository(dbPool),
		SettingRepo:    pgsql.NewSettingRepository(dbPool),
	}

	// The event publisher is optional: without brokers configured, order
	// mutations still commit, they just go unannounced.
	var events portssvc.OrderEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewOrderEventPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				logger.Error("Error closing kafka publisher", slog.String("error", cerr.Error()))
			}
		}()
		events = publisher
		logger.Info("Kafka event publisher configured", slog.String("topic", cfg.KafkaTopic))
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	settings := services.NewSettingCache(repos.SettingRepo, cfg.SettingCacheTTL, time.Now)
	quoteSource := quotes.NewP2PSource(cfg.QuoteAPIURL)
	container := services.NewContainer(repos, quoteSource, events, settings)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidationAliases()

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	rateLimiter := limiter.New(memory.NewStore(), limiter.Rate{
		Period: time.Second,
		Limit:  int64(cfg.RateLimitRPS),
	})
	r.Use(middleware.RateLimit(rateLimiter))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, container)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// registerValidationAliases maps the binding tags used by the DTOs onto the
// validator's built-in ISO checks.
func registerValidationAliases() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterAlias("country", "iso3166_1_alpha2")
		v.RegisterAlias("currency", "iso4217")
	}
}

// runMigrations applies all pending migrations from the migrations directory
// over a temporary database/sql connection.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
