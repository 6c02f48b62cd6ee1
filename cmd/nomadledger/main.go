package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"nomadledger/internal/auth"
	"nomadledger/internal/backend"
	"nomadledger/internal/cache"
	"nomadledger/internal/cli"
	"nomadledger/internal/config"
	"nomadledger/internal/core"
	apphttp "nomadledger/internal/http"
	"nomadledger/internal/log"
	"nomadledger/internal/metrics"
	"nomadledger/internal/middleware/ratelimit"
	"nomadledger/internal/services"
)

const (
	expenseCacheSize = 500
	shutdownTimeout  = 30 * time.Second
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	m := metrics.New()

	cacheManager := cache.NewManager(logger)
	defer cacheManager.Stop()
	var expenseCache *cache.LRUCache[[]core.Expense]
	if cfg.ExpenseCacheTTL > 0 {
		expenseCache = cache.NewLRUCache[[]core.Expense](expenseCacheSize, cfg.ExpenseCacheTTL)
		cacheManager.Register(expenseCache)
		cacheManager.StartCleanup(cfg.ExpenseCacheTTL * 2)
	}

	ledger := services.NewLedger(res.Store, expenseCache, logger, m)
	expenses := services.NewExpenseService(res.Store, services.ExpenseServiceOptions{
		Receipts:        res.Receipts,
		UploadTimeout:   cfg.ReceiptUploadTimeout,
		MaxReceiptBytes: cfg.MaxReceiptBytes,
		Publisher:       res.Publisher,
		Invalidator:     ledger,
		Logger:          logger,
		Metrics:         m,
	})

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Ledger:      ledger,
		Expenses:    expenses,
		Auth:        auth.NewService(res.Store, []byte(cfg.SessionSecret), cfg.SessionTTL),
		Store:       res.Store,
		Metrics:     m,
		Logger:      logger,
		ReceiptsDir: res.ReceiptsDir,
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		ImgOrigins:      receiptOrigins(cfg),
		MaxReceiptBytes: cfg.MaxReceiptBytes,
		SecureCookies:   cfg.SecureCookies,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting nomadledger server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"receipts", cfg.ReceiptsBackend,
			"sync_enabled", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// receiptOrigins lists the origins receipt images are served from, for the
// img-src policy.
func receiptOrigins(cfg *config.Config) []string {
	if cfg.ReceiptsBackend == config.ReceiptsGCS {
		return []string{"https://storage.googleapis.com"}
	}
	u, err := url.Parse(cfg.ReceiptsBaseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Scheme + "://" + u.Host}
}
