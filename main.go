package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/camden-git/moviesysbackend/config"
	"github.com/camden-git/moviesysbackend/database"
	"github.com/camden-git/moviesysbackend/handlers"
	"github.com/camden-git/moviesysbackend/logging"
	"github.com/camden-git/moviesysbackend/metrics"
	"github.com/camden-git/moviesysbackend/realtime"
	"github.com/camden-git/moviesysbackend/repository"
	"github.com/camden-git/moviesysbackend/services"
	"github.com/camden-git/moviesysbackend/validation"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Primary.Env, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	store, err := openStore(cfg.Database, cfg.Log.Level == "debug")
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()
	logger.Info().Str("backend", cfg.Database.Backend).Msg("store ready")

	metrics.Init()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	catalog := services.NewCatalogService(store, validation.New(nil),
		services.WithDeletePolicy(services.DeletePolicy(cfg.Catalog.ActorDeletePolicy)),
		services.WithBroadcaster(hub),
		services.WithLogger(logger.With().Str("component", "catalog").Logger()),
	)

	var limiter *handlers.IPRateLimiter
	if cfg.Limiter.Enabled {
		limiter = handlers.NewIPRateLimiter(cfg.Limiter.RPS, cfg.Limiter.Burst)
		go limiter.Run(ctx.Done())
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Catalog:        catalog,
		Backend:        cfg.Database.Backend,
		Logger:         logger,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Limiter:        limiter,
		Realtime:       hub.ServeWS,
		VerboseErrors:  cfg.IsDevelopment(),
	})

	return serve(ctx, cfg, router, logger)
}

func openStore(cfg config.DatabaseConfig, verbose bool) (repository.Store, error) {
	pool := database.PoolOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	switch cfg.Backend {
	case config.BackendGorm:
		if cfg.Driver != database.DriverSQLite {
			return nil, fmt.Errorf("gorm backend supports only the %s driver, got %q", database.DriverSQLite, cfg.Driver)
		}
		db, err := database.InitGormDB(cfg.DSN, pool, verbose)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrateModels(db); err != nil {
			return nil, err
		}
		return repository.NewGormStore(db), nil
	case config.BackendSQL:
		db, err := database.InitDB(cfg.Driver, cfg.DSN, pool)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLStore(db, cfg.Driver), nil
	default:
		return repository.NewMemoryStore(), nil
	}
}
