package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-devfolio-api/app/db"
	"github.com/FACorreiaa/go-devfolio-api/config"
	"github.com/FACorreiaa/go-devfolio-api/internal/api/auth"
)

// Container holds all application dependencies. Created once at process
// start and torn down at shutdown; request handlers receive dependencies
// from here instead of touching globals.
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	Pool         *pgxpool.Pool // nil when the memory backend is active
	Store        auth.Store
	TokenService *auth.TokenService
	AuthHandler  *auth.HandlerImpl
}

// NewContainer initializes the store backend selected by configuration
// and wires the service and handler on top of it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	switch cfg.Store.Backend {
	case "postgres":
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("database config: %w", err)
		}

		if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}

		pool, err := database.Init(dbConfig.ConnectionURL, logger)
		if err != nil {
			return nil, fmt.Errorf("database pool: %w", err)
		}
		if !database.WaitForDB(ctx, pool, logger) {
			pool.Close()
			return nil, fmt.Errorf("database not ready")
		}

		c.Pool = pool
		c.Store = auth.NewPostgresStore(pool, logger)

	case "memory", "":
		c.Store = auth.NewMemoryStore(logger)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	c.TokenService = auth.NewTokenService(cfg.Auth)
	authService := auth.NewAuthService(c.Store, c.TokenService, logger)
	c.AuthHandler = auth.NewAuthHandlerImpl(authService, logger)

	return c, nil
}

// Close releases held resources.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
