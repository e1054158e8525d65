package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alareot-bit/coex-voltrally/internal/content"
	"github.com/alareot-bit/coex-voltrally/internal/feed"
	"github.com/alareot-bit/coex-voltrally/internal/handlers"
	"github.com/alareot-bit/coex-voltrally/internal/i18n"
	"github.com/alareot-bit/coex-voltrally/internal/market"
	"github.com/alareot-bit/coex-voltrally/internal/middleware"
	"github.com/alareot-bit/coex-voltrally/internal/platform/config"
	"github.com/alareot-bit/coex-voltrally/internal/platform/observability"
	"github.com/alareot-bit/coex-voltrally/internal/prefs"
	"github.com/alareot-bit/coex-voltrally/internal/pricing"
	"github.com/alareot-bit/coex-voltrally/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "voltrally: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	markets, err := market.Load()
	if err != nil {
		return fmt.Errorf("load market pack: %w", err)
	}

	prefStore, closePrefs, err := buildPrefs(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePrefs()

	feedClient := feed.NewClient(feed.Options{
		BaseURL:     cfg.Upstream.BaseURL,
		MockBaseURL: cfg.Upstream.MockBaseURL,
		Timeout:     cfg.Upstream.Timeout,
		Logger:      logger,
	})

	st, err := store.New(store.Options{
		Feed:    feedClient,
		Prefs:   prefStore,
		Markets: markets,
		Logger:  logger,
		SiteURL: cfg.Site.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	st.Init(initCtx)
	cancel()

	selector := pricing.NewSelector(pricing.Options{
		Prefs:  prefStore,
		Logger: logger,
	})
	selector.Load(ctx)

	bundle, err := i18n.Load("en", []string{"en", "es"})
	if err != nil {
		return fmt.Errorf("load i18n: %w", err)
	}

	h, err := handlers.New(handlers.Options{
		Store:    st,
		Selector: selector,
		Docs:     content.NewLibrary(),
		Bundle:   bundle,
		Markets:  markets,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init handlers: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.HTMX)
	r.Use(middleware.Visitor)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir("public/assets"))))
	h.Routes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildPrefs selects the preference backend: redis when configured,
// in-memory otherwise.
func buildPrefs(ctx context.Context, cfg config.Config, logger *zap.Logger) (prefs.Store, func(), error) {
	if cfg.Redis.URL == "" {
		logger.Info("prefs: using in-memory store")
		return prefs.NewMemory(), func() {}, nil
	}
	r, err := prefs.NewRedis(ctx, prefs.RedisOptions{
		URL:          cfg.Redis.URL,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("prefs: using redis store")
	return r, func() { _ = r.Close() }, nil
}
