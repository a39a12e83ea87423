package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/backend"
	"spendlog/internal/cache"
	"spendlog/internal/cli"
	apphttp "spendlog/internal/http"
	applog "spendlog/internal/log"
	"spendlog/internal/rates"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateStore(backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		PostgresURL:  cfg.PostgresURL,
	})
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
	}()

	ratesClient := rates.New(cfg.RatesURL, cfg.RatesTimeout, cfg.RatesCacheTTL)

	cacheManager := cache.NewManager()
	cacheManager.Register(ratesClient)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, result.Store, ratesClient, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		PageSizeDefault:    cfg.PageSizeDefault,
		PageSizeMax:        cfg.PageSizeMax,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting spendlog server",
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend,
			"rates_url", cfg.RatesURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
