package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiantWizard/wiz/mutations/internal/api"
	"github.com/GiantWizard/wiz/mutations/internal/bazaar"
	"github.com/GiantWizard/wiz/mutations/internal/catalog"
	"github.com/GiantWizard/wiz/mutations/internal/config"
	"github.com/GiantWizard/wiz/mutations/internal/leaderboard"
	"github.com/GiantWizard/wiz/mutations/internal/prefs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cat, err := catalog.Load()
	if err != nil {
		log.Error("catalog load failed", "err", err)
		os.Exit(1)
	}

	client := bazaar.NewClient(
		bazaar.WithURL(cfg.BazaarURL),
		bazaar.WithRateLimit(cfg.BazaarRate, 1),
		bazaar.WithLogger(log),
	)
	opts := []bazaar.CacheOption{bazaar.WithTTL(cfg.BazaarCacheTTL), bazaar.WithCacheLogger(log)}
	if cfg.RedisAddr != "" {
		rc := bazaar.NewRedisCache(cfg.RedisAddr)
		defer rc.Close()
		opts = append(opts, bazaar.WithSharedCache(rc))
		log.Info("sharing bazaar snapshots via redis", "addr", cfg.RedisAddr)
	}
	prices := bazaar.NewCachedSource(client, cat.ProductIDs(), opts...)

	store, err := prefs.OpenSQLite(cfg.PrefsDB)
	if err != nil {
		log.Error("prefs db open failed", "path", cfg.PrefsDB, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the price cache so the first dashboard load is fast.
	go func() {
		if _, err := prices.Prices(ctx); err != nil {
			log.Warn("initial bazaar fetch failed", "err", err)
		}
	}()

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: (&api.Server{
			Boards: leaderboard.NewService(cat, prices, leaderboard.DefaultBoardTTL, log),
			Prefs:  prefs.New(store, log),
			Log:    log,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", cfg.HTTPAddr, "mutations", len(cat.Mutations))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", "err", err)
	}
}
