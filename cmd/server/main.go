package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gofiber/fiber/v3"
	redisstore "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"modengine/internal/cache"
	"modengine/internal/config"
	"modengine/internal/db"
	"modengine/internal/email"
	"modengine/internal/handlers/api"
	"modengine/internal/jobs"
	"modengine/internal/logging"
	"modengine/internal/metrics"
	"modengine/internal/middleware"
	"modengine/internal/models"
	"modengine/internal/moderation"
	"modengine/internal/risk"
	"modengine/internal/server"
	"modengine/internal/stats"
	"modengine/internal/store"
	"modengine/internal/store/memory"
)

const (
	connectTimeout  = 30 * time.Second
	sweepTimeout    = 10 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(logging.Config{
		Environment: cfg.Env,
		LogLevel:    cfg.LogLevel,
		ServiceName: "modengine",
	})
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("server exited")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	yamlCfg, err := config.LoadYAMLConfig(cfg.ConfigFile)
	if err != nil {
		return err
	}
	if yamlCfg != nil {
		logger.Info("loaded config file", zap.String("path", cfg.ConfigFile))
	}

	health := map[string]api.Pinger{}

	// Storage
	var st store.Store
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		st = memory.New()
	case config.StoragePostgres:
		database, err := connectDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations completed successfully")

		if cfg.IsDev() {
			if err := database.SeedDevCompanies(ctx); err != nil {
				logger.Warn("failed to seed dev companies", zap.Error(err))
			}
		}
		health["database"] = database
		st = database
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	// Redis: active rule cache and shared rate limit counters
	var (
		ruleCache      moderation.RuleCache
		limiterStorage fiber.Storage
	)
	if cfg.IsRedisEnabled() {
		client, err := connectRedis(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer client.Close()

		ruleCache = cache.NewRuleCache(client, cfg.RuleCacheTTL)
		limiterStorage = redisstore.New(redisstore.Config{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			Database: cfg.RedisDB,
		})
		health["redis"] = api.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	// Moderation
	registry := moderation.NewRegistry(st, ruleCache, logger.Named("rules"))
	ledger := moderation.NewLedger(st, logger.Named("flags"))
	moderationSvc := moderation.NewService(registry, ledger, logger.Named("moderation"))

	if seeds := yamlCfg.GetKeywords(); len(seeds) > 0 {
		added, err := registry.Seed(ctx, keywordSeeds(seeds))
		if err != nil {
			return err
		}
		logger.Info("seeded keyword rules", zap.Int("added", added), zap.Int("configured", len(seeds)))
	}

	// Risk
	riskCfg := risk.Config{
		Policy:        risk.DefaultPolicy().Merge(yamlCfg.GetRiskPolicy()),
		Concurrency:   cfg.RiskBatchConcurrency,
		SaveSnapshots: cfg.RiskSnapshotsEnabled,
	}
	if cfg.IsEmailEnabled() {
		riskCfg.Alerter = email.NewNotifier(cfg, logger.Named("email"))
		logger.Info("high risk email alerts enabled", zap.Int("recipients", len(cfg.AlertRecipients)))
	}
	riskSvc := risk.NewService(st, riskCfg, logger.Named("risk"))
	logger.Info("risk policy loaded", zap.String("version", riskSvc.Policy().Version))

	metrics.Init(st, logger.Named("metrics"))

	// Admin authentication
	var verifier middleware.TokenVerifier
	if cfg.IsOIDCEnabled() {
		verifier, err = middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return err
		}
	} else if !cfg.IsDev() {
		return errors.New("OIDC_ISSUER is required outside development")
	} else {
		logger.Warn("OIDC disabled; trusting X-Admin-ID header (development only)")
	}
	if cfg.IngestAPIKey == "" {
		if !cfg.IsDev() {
			return errors.New("INGEST_API_KEY is required outside development")
		}
		logger.Warn("INGEST_API_KEY not set; submissions are unauthenticated")
	}

	// Background risk sweep
	if cfg.RiskSweepSchedule != "" {
		sweep := jobs.NewRiskSweep(riskSvc, cfg.RiskSweepSchedule, sweepTimeout, logger.Named("sweep"))
		if err := sweep.Start(ctx); err != nil {
			return err
		}
	}

	srv := server.New(cfg, logger.Named("http"), limiterStorage)
	srv.RegisterRoutes(server.Services{
		Moderation: moderationSvc,
		Registry:   registry,
		Ledger:     ledger,
		Risk:       riskSvc,
		Stats:      stats.NewAggregator(st, riskSvc),
		AdminAuth:  middleware.NewAdminAuth(verifier, verifier == nil && cfg.IsDev(), logger.Named("auth")),
		Health:     health,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// connectDatabase retries until Postgres accepts connections or connectTimeout passes.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*db.DB, error) {
	var database *db.DB
	err := backoff.RetryNotify(func() error {
		var err error
		database, err = db.New(ctx, cfg.DatabaseURL)
		return err
	}, retryPolicy(ctx), func(err error, wait time.Duration) {
		logger.Warn("database not ready, retrying", zap.Duration("wait", wait), zap.Error(err))
	})
	return database, err
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	var client *redis.Client
	err := backoff.RetryNotify(func() error {
		var err error
		client, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return err
	}, retryPolicy(ctx), func(err error, wait time.Duration) {
		logger.Warn("redis not ready, retrying", zap.Duration("wait", wait), zap.Error(err))
	})
	return client, err
}

func retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = connectTimeout
	return backoff.WithContext(b, ctx)
}

func keywordSeeds(seeds []config.KeywordConfig) []models.NewKeywordRule {
	rules := make([]models.NewKeywordRule, 0, len(seeds))
	for _, s := range seeds {
		rule := models.NewKeywordRule{
			Keyword:  s.Keyword,
			Category: models.Category(s.Category),
			Severity: s.Severity,
		}
		if s.Description != "" {
			desc := s.Description
			rule.Description = &desc
		}
		rules = append(rules, rule)
	}
	return rules
}
