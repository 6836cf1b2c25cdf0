package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Checker-Finance/basedata-adapter/internal/api"
	"github.com/Checker-Finance/basedata-adapter/internal/basedata"
	"github.com/Checker-Finance/basedata-adapter/internal/comdirect"
	"github.com/Checker-Finance/basedata-adapter/internal/httpclient"
	"github.com/Checker-Finance/basedata-adapter/internal/rate"
	"github.com/Checker-Finance/basedata-adapter/internal/store"
	"github.com/Checker-Finance/basedata-adapter/pkg/config"
	"github.com/Checker-Finance/basedata-adapter/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [basedata-adapter]...")

	if err := cfg.Validate(); err != nil {
		logg.Fatalw("invalid configuration", "error", err)
	}

	// --- Rate limiter (per provider host) ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	// --- Provider HTTP client ---
	executor := httpclient.New(
		logger.Named("httpclient"),
		rateMgr,
		&http.Client{Timeout: cfg.FetchTimeout},
		cfg.FetchRetryMax,
		httpclient.Backoff{Base: cfg.BackoffBase, Max: cfg.BackoffMax},
		"comdirect",
	)
	fetcher := comdirect.NewFetcher(logger.Named("comdirect"), executor, cfg.ProviderBaseURL, cfg.UserAgent)

	// --- Extraction service ---
	svc := basedata.NewService(logger.Named("basedata"), fetcher, basedata.NewRegistry())

	// --- Record cache ---
	var cache store.RecordCache
	stopCleaner := make(chan struct{})
	switch {
	case cfg.CacheTTL <= 0:
		logg.Warn("RECORD_CACHE_TTL is zero; record cache disabled")
	case cfg.RedisAddr != "":
		rs, err := store.NewRedis(cfg.RedisAddr, cfg.RedisDB, cfg.RedisPass, cfg.CacheTTL, logger.Named("store"))
		if err != nil {
			logg.Fatalw("failed to init record cache", "error", err)
		}
		cache = rs
	default:
		mem := store.NewMemory(cfg.CacheTTL)
		go mem.StartCleaner(cfg.CleanupFreq, stopCleaner)
		cache = mem
		logg.Info("REDIS_ADDR not configured; using in-process record cache")
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	})

	handler := api.NewBaseDataHandler(logger.Named("api"), svc, cache)
	api.RegisterRoutes(app, cache, handler)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[basedata-adapter] running",
		"env", cfg.Env,
		"provider", cfg.ProviderBaseURL,
		"cache_enabled", cache != nil)

	<-ctx.Done()
	logg.Info("shutting down [basedata-adapter]...")

	close(stopCleaner)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			logg.Warnw("store.close_failed", "error", err)
		}
	}
}
