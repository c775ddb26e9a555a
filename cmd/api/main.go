package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	apptherapy "github.com/bryanwahyu/therapy-advisor/internal/application/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/config"
	domain "github.com/bryanwahyu/therapy-advisor/internal/domain/therapy"
	"github.com/bryanwahyu/therapy-advisor/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/therapy-advisor/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/therapy-advisor/internal/infra/db/postgres"
	"github.com/bryanwahyu/therapy-advisor/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/therapy-advisor/internal/infra/storage"
	"github.com/bryanwahyu/therapy-advisor/internal/logging"
	"github.com/bryanwahyu/therapy-advisor/internal/metrics"
	"github.com/bryanwahyu/therapy-advisor/internal/middleware"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, os.Stderr)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	if cfg.AI.APIKey == "" {
		log.Warn("no AI API key configured, every request will use offline analysis")
	}
	client := openai.NewClient(openai.Options{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Referer: cfg.AI.Referer,
		Title:   cfg.AI.Title,
		Timeout: cfg.AI.Timeout,
	})

	svc := apptherapy.NewService(client, cfg.AI.AnalysisModels, cfg.AI.QuestionModels, log)
	checkers := map[string]middleware.HealthChecker{
		"models": middleware.ModelsChecker{
			APIKeyConfigured: cfg.AI.APIKey != "",
			AnalysisModels:   len(cfg.AI.AnalysisModels),
			QuestionModels:   len(cfg.AI.QuestionModels),
		},
	}

	// history database
	db, repo, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		svc.History = repo
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		log.Info("history enabled", "driver", cfg.Database.Driver, "host", cfg.Database.Host)
	}

	// photo archive
	if cfg.Minio.Enabled {
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
		svc.Photos = store
		log.Info("photo archive enabled", "endpoint", cfg.Minio.Endpoint, "bucket", cfg.Minio.BucketName)
	}

	for client := range cfg.Auth.APIKeys {
		if err := middleware.ValidateClientID(client); err != nil {
			return fmt.Errorf("auth.apiKeys: %w", err)
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Capacity > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
		go limiter.Run(5*time.Minute, 10*time.Minute, stop)
	}

	metrics.Register()

	handler := httpserver.NewRouter(httpserver.Options{
		Service:        svc,
		Log:            log,
		APIKeys:        cfg.Auth.APIKeys,
		Limiter:        limiter,
		CORSOrigins:    cfg.Server.CORSOrigins,
		HealthCheckers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr,
			"analysis_models", len(cfg.AI.AnalysisModels), "question_models", len(cfg.AI.QuestionModels))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-sig:
	}
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("shutdown error", "err", err)
	}
	return nil
}

// openHistory connects the configured history database. It returns a nil db when history is off.
func openHistory(ctx context.Context, cfg *config.Config) (*sql.DB, domain.HistoryRepository, error) {
	switch cfg.Database.Driver {
	case "":
		return nil, nil, nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return db, mysqlp.NewHistoryRepository(db), nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := pgp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return db, pgp.NewHistoryRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
