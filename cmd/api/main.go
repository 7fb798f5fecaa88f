package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bryanwahyu/aeo-tracker/internal/application"
	appchecks "github.com/bryanwahyu/aeo-tracker/internal/application/checks"
	appprojects "github.com/bryanwahyu/aeo-tracker/internal/application/projects"
	appstats "github.com/bryanwahyu/aeo-tracker/internal/application/stats"
	"github.com/bryanwahyu/aeo-tracker/internal/bootstrap"
	"github.com/bryanwahyu/aeo-tracker/internal/config"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/httpserver"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/identity/supabase"
	"github.com/bryanwahyu/aeo-tracker/internal/infra/scheduler"
	minioStore "github.com/bryanwahyu/aeo-tracker/internal/infra/storage"
	"github.com/bryanwahyu/aeo-tracker/internal/logging"
	"github.com/bryanwahyu/aeo-tracker/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config:\n%v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	health := map[string]middleware.HealthChecker{"database": stores.Health}

	// rate limiter: redis kalau ada, selain itu in-memory
	var limiter middleware.Limiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		limiter = middleware.NewRedisLimiter(rdb, cfg.Server.RatePerMinute)
		health["redis"] = middleware.CheckFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	} else {
		mem := middleware.NewMemoryLimiter(cfg.Server.RatePerMinute, cfg.Server.RateBurst)
		go mem.Cleanup(ctx, time.Minute, 10*time.Minute)
		limiter = mem
	}

	checksSvc := &appchecks.Service{
		Projects:    stores.Projects,
		Checks:      stores.Checks,
		Failures:    stores.Failures,
		Clock:       application.SystemClock{},
		Logger:      logger.Named("checks"),
		Concurrency: cfg.Checks.Concurrency,
	}

	// answer archive di minio (optional)
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		checksSvc.Archive = store
		health["storage"] = middleware.CheckFunc(store.Ping)
	}

	engines, err := bootstrap.Engines(ctx, cfg)
	if err != nil {
		return err
	}
	checksSvc.Engines = engines
	logger.Info("engines registered", zap.Strings("engines", engines.Engines()))

	verifier, err := supabase.NewVerifier(ctx, cfg.JWKSURL(), cfg.Supabase.JWTSecret, logger.Named("auth"))
	if err != nil {
		return fmt.Errorf("token verifier: %w", err)
	}

	handler := httpserver.NewRouter(httpserver.Deps{
		Projects: &appprojects.Service{
			Repo:   stores.Projects,
			Clock:  application.SystemClock{},
			Logger: logger.Named("projects"),
		},
		Checks: checksSvc,
		Stats: &appstats.Service{
			ProjectRepo: stores.Projects,
			CheckRepo:   stores.Checks,
			FailureRepo: stores.Failures,
			Clock:       application.SystemClock{},
		},
		Verifier:    verifier,
		Identity:    supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey),
		Limiter:     limiter,
		Health:      health,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	if cfg.Checks.Schedule != "" {
		sched, err := scheduler.New(cfg.Checks.Schedule, checksSvc, logger.Named("scheduler"))
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
		}()
		logger.Info("scheduled checks enabled", zap.String("schedule", cfg.Checks.Schedule))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// a check run answers only after every engine call
		WriteTimeout: cfg.RunWriteTimeout(appprojects.MaxKeywords),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// graceful shutdown
	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	return nil
}
