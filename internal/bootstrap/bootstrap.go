// Package bootstrap builds the stores and engines shared by the API server and aeoctl.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	appai "github.com/bryanwahyu/aeo-tracker/internal/application/ai"
	"github.com/bryanwahyu/aeo-tracker/internal/config"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/ai"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/ai/anthropic"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/ai/gemini"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/ai/lorem"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/ai/openai"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/aeo-tracker/internal/infra/db/mysql"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/db/postgres"
	"github.com/bryanwahyu/aeo-tracker/internal/middleware"
)

// Stores groups the repositories for the configured driver.
type Stores struct {
	Projects visibility.ProjectRepository
	Checks   visibility.CheckRepository
	Failures visibility.FailureRepository
	Health   middleware.HealthChecker
	db       *sql.DB
}

// Close releases the database pool, if any.
func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// OpenStores connects to the configured database driver.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN(), postgres.PoolOptions{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		logger.Info("database connected", zap.String("driver", config.DriverPostgres))
		return &Stores{
			Projects: postgres.NewProjectRepository(db),
			Checks:   postgres.NewCheckRepository(db),
			Failures: postgres.NewFailureRepository(db),
			Health:   &middleware.DatabaseHealthChecker{DB: db},
			db:       db,
		}, nil

	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN(), mysqlp.PoolOptions{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		logger.Info("database connected", zap.String("driver", config.DriverMySQL))
		return &Stores{
			Projects: mysqlp.NewProjectRepository(db),
			Checks:   mysqlp.NewCheckRepository(db),
			Failures: mysqlp.NewFailureRepository(db),
			Health:   &middleware.DatabaseHealthChecker{DB: db},
			db:       db,
		}, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &Stores{
			Projects: store.Projects(),
			Checks:   store.Checks(),
			Failures: store.Failures(),
			Health:   middleware.CheckFunc(store.Ping),
		}, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// Engines registers one generator per configured engine, in config order.
func Engines(ctx context.Context, cfg *config.Config) (*appai.Service, error) {
	svc := appai.NewService(cfg.Checks.SystemPrompt, cfg.Checks.Timeout)
	for _, e := range cfg.Checks.Engines {
		g, err := newGenerator(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("engine %s: %w", e.Name, err)
		}
		svc.Register(e.Name, g)
	}
	return svc, nil
}

func newGenerator(ctx context.Context, e config.EngineConfig) (ai.Generator, error) {
	switch e.Provider {
	case config.ProviderOpenAI:
		return openai.NewClient(e.APIKey, e.Model, e.BaseURL), nil
	case config.ProviderGemini:
		return gemini.NewClient(ctx, e.APIKey, e.Model, e.BaseURL)
	case config.ProviderAnthropic:
		return anthropic.NewClient(e.APIKey, e.Model, e.BaseURL)
	case config.ProviderLorem:
		return lorem.NewProvider(e.Mentions), nil
	}
	return nil, fmt.Errorf("%w: provider %q", ai.ErrUnknownEngine, e.Provider)
}
