// Package app wires configuration, storage, the provider client and the
// transports into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"stockcache/config"
	"stockcache/internal/stock/calendar"
	"stockcache/internal/stock/httpapi"
	"stockcache/internal/stock/memorystore"
	"stockcache/internal/stock/refresh"
	"stockcache/internal/stock/stream"
	"stockcache/internal/stock/warmup"
	"stockcache/pkg/alphavantage"
	"stockcache/pkg/storage/postgres"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Store is everything the service needs from a price store.
type Store interface {
	refresh.Store
	warmup.SymbolLister
	httpapi.HealthChecker
}

type App struct {
	cfg         *config.Config
	logger      *zap.Logger
	store       Store
	closeStore  func() error
	calendar    *calendar.Calendar
	coordinator *refresh.Coordinator
	router      *gin.Engine
	warmup      *warmup.Scheduler
}

// New builds the service from cfg: the store selected by storage.driver and
// the Alpha Vantage client.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	av := cfg.AlphaVantage
	provider := alphavantage.NewRESTClient(av.BaseURL, av.ResolveAPIKey(cfg.Log.Environment), av.Timeout, av.RateLimit)

	a, err := NewWithDeps(cfg, logger, store, provider)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	a.closeStore = closeStore
	return a, nil
}

func openStore(cfg *config.Config, logger *zap.Logger) (Store, func() error, error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.Info("using in-memory price store")
		return memorystore.NewPriceStore(), func() error { return nil }, nil
	case "postgres", "":
		client, err := postgres.InitializeAndMigratePriceRecord(cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		logger.Info("using postgres price store", zap.String("dbname", cfg.Postgres.DBName))
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewWithDeps builds the service around an existing store and provider.
func NewWithDeps(cfg *config.Config, logger *zap.Logger, store Store, provider refresh.Provider) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cal, err := calendar.New(cfg.Market.Timezone, cfg.Market.Cutoff)
	if err != nil {
		return nil, err
	}

	coordinator, err := refresh.New(refresh.Config{
		Store:            store,
		Provider:         provider,
		Calendar:         cal,
		Logger:           logger.Named("refresh"),
		CompactThreshold: cfg.AlphaVantage.CompactThreshold,
		ProviderTimeout:  cfg.Refresh.ProviderTimeout,
		SingleFlight:     cfg.Refresh.SingleFlight,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Log.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(logger.Named("http"))
	handler := httpapi.NewHandler(coordinator, store, cal, cfg.Server.DefaultDays, logger.Named("http"))
	handler.RegisterRoutes(router)
	stream.NewServer(coordinator, handler, cfg.Server.DefaultDays, logger.Named("stream")).RegisterRoutes(router)

	a := &App{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		closeStore:  func() error { return nil },
		calendar:    cal,
		coordinator: coordinator,
		router:      router,
	}

	if cfg.Warmup.Enabled {
		loader := &warmup.SymbolLoader{Watchlist: cfg.Warmup.Symbols, Store: store, Logger: logger.Named("warmup")}
		a.warmup = warmup.NewScheduler(warmup.Config{
			Spec:     cfg.Warmup.Cron,
			Location: cal.Location,
			Days:     cfg.Warmup.Days,
		}, loader, coordinator, logger.Named("warmup"))
		if err := a.warmup.Register(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *App) Handler() http.Handler { return a.router }

func (a *App) Coordinator() *refresh.Coordinator { return a.coordinator }

// Run serves HTTP on server.addr until ctx is cancelled, then shuts down
// the server, the warm-up scheduler and the store.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.warmup != nil {
		a.warmup.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http server shutdown failed", zap.Error(err))
	}
	if a.warmup != nil {
		a.warmup.Stop(shutdownCtx)
	}
	if err := a.closeStore(); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}
	a.logger.Info("stockcache stopped")

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}
