// Package warmup refreshes the cache on a schedule so that the first request
// after the daily publication is served from the store.
package warmup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockcache/internal/stock/refresh"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultConcurrency = 5

// PriceService is the refresh coordinator.
type PriceService interface {
	Prices(ctx context.Context, symbol string, days int) (*refresh.Result, error)
}

type Config struct {
	Spec        string         // seconds-enabled cron spec
	Location    *time.Location // exchange timezone the spec is read in
	Days        int
	Concurrency int
	Timeout     time.Duration // bound on one whole run; 0 means none
}

// Summary reports one warm-up run.
type Summary struct {
	Symbols   int
	Fetched   int
	Cached    int
	Failed    int
	Inserted  int
	StartedAt time.Time
	Duration  time.Duration
}

type Scheduler struct {
	cron   *cron.Cron
	loader *SymbolLoader
	prices PriceService
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

func NewScheduler(cfg Config, loader *SymbolLoader, prices PriceService, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLogger{logger.Sugar()}),
		),
		loader: loader,
		prices: prices,
		cfg:    cfg,
		logger: logger,
	}
}

// Register adds the warm-up job at cfg.Spec.
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.cfg.Spec, s.scheduledRun); err != nil {
		return fmt.Errorf("register warm-up task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("warm-up scheduler started", zap.String("spec", s.cfg.Spec),
		zap.String("timezone", s.cfg.Location.String()))
}

// Stop stops the scheduler and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info("warm-up scheduler stopped")
}

func (s *Scheduler) scheduledRun() {
	ctx := context.Background()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Warn("warm-up run skipped", zap.Error(err))
	}
}

// RunOnce refreshes every loaded symbol with at most Concurrency requests in
// flight. Only one run executes at a time.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Summary{}, fmt.Errorf("warm-up already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	summary := Summary{StartedAt: time.Now()}
	symbolCh := make(chan string, 100)
	go func() {
		if err := s.loader.LoadSymbols(ctx, symbolCh); err != nil {
			s.logger.Warn("failed to load warm-up symbols", zap.Error(err))
		}
	}()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.cfg.Concurrency)
	)
	for symbol := range symbolCh {
		sem <- struct{}{}
		wg.Add(1)
		go func(symbol string) {
			defer func() { <-sem; wg.Done() }()

			res, err := s.prices.Prices(ctx, symbol, s.cfg.Days)

			mu.Lock()
			defer mu.Unlock()
			summary.Symbols++
			if err != nil {
				summary.Failed++
				s.logger.Warn("warm-up failed for symbol", zap.String("symbol", symbol), zap.Error(err))
				return
			}
			if res.Source == refresh.SourceProvider {
				summary.Fetched++
			} else {
				summary.Cached++
			}
			summary.Inserted += res.Inserted
		}(symbol)
	}
	wg.Wait()

	summary.Duration = time.Since(summary.StartedAt)
	s.logger.Info("warm-up finished",
		zap.Int("symbols", summary.Symbols),
		zap.Int("fetched", summary.Fetched),
		zap.Int("cached", summary.Cached),
		zap.Int("failed", summary.Failed),
		zap.Int("inserted", summary.Inserted),
		zap.Duration("duration", summary.Duration))
	return summary, nil
}

// cronLogger routes robfig/cron's logging into zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
