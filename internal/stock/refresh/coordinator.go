// Package refresh answers "the N most recent daily prices for a symbol",
// serving from the store when it is fresh and refetching from the provider
// otherwise.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockcache/internal/stock/calendar"
	"stockcache/internal/stock/freshness"
	"stockcache/internal/stock/model"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the persistent price store.
type Store interface {
	FindBySymbol(ctx context.Context, symbol string) (model.PriceHistory, error)
	ExistsBySymbolAndDate(ctx context.Context, symbol string, date time.Time) (bool, error)
	Insert(ctx context.Context, record model.PriceRecord) (bool, error)
}

// Provider is the upstream market-data source. It returns an error wrapping
// model.ErrSymbolNotFound when it has no series for the symbol.
type Provider interface {
	FetchDailySeries(ctx context.Context, symbol string, size model.SizeHint) (model.PriceHistory, error)
}

// Pacer is implemented by providers with a call quota. Wait is called before
// every fetch and is not counted against the provider timeout.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Source tells where the returned records came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceProvider Source = "provider"
)

const DefaultCompactThreshold = 100

// Config wires a Coordinator.
type Config struct {
	Store    Store
	Provider Provider
	Calendar *calendar.Calendar
	Logger   *zap.Logger

	// CompactThreshold is the largest day count served by a compact fetch.
	CompactThreshold int
	// ProviderTimeout bounds a single provider call; 0 means no extra bound.
	ProviderTimeout time.Duration
	// SingleFlight collapses concurrent fetches for the same symbol and size.
	SingleFlight bool
}

// Result is the answer to one request.
type Result struct {
	Symbol  string
	Days    int
	AsOf    time.Time // most recent complete trading day at request time
	Records model.PriceHistory
	Source  Source

	Inserted      int
	PersistErrors int
}

type Coordinator struct {
	store            Store
	provider         Provider
	cal              *calendar.Calendar
	logger           *zap.Logger
	compactThreshold int
	providerTimeout  time.Duration
	singleFlight     bool

	group singleflight.Group
}

func New(cfg Config) (*Coordinator, error) {
	if cfg.Store == nil {
		return nil, errors.New("refresh: store is required")
	}
	if cfg.Provider == nil {
		return nil, errors.New("refresh: provider is required")
	}
	if cfg.Calendar == nil {
		return nil, errors.New("refresh: calendar is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.CompactThreshold
	if threshold <= 0 {
		threshold = DefaultCompactThreshold
	}
	return &Coordinator{
		store:            cfg.Store,
		provider:         cfg.Provider,
		cal:              cfg.Calendar,
		logger:           logger,
		compactThreshold: threshold,
		providerTimeout:  cfg.ProviderTimeout,
		singleFlight:     cfg.SingleFlight,
	}, nil
}

// Prices returns the most recent days records for symbol, newest first.
//
// Local history is used only when it is fresh and long enough. Otherwise the
// provider's series replaces it for this response, new sessions are written
// to the store, and the response is cut from the fetched series.
func (c *Coordinator) Prices(ctx context.Context, symbol string, days int) (*Result, error) {
	symbol = model.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if days < 0 {
		return nil, ErrInvalidDays
	}

	local, err := c.store.FindBySymbol(ctx, symbol)
	if err != nil {
		return nil, &StoreUnavailableError{Op: "read", Symbol: symbol, Err: err}
	}

	asOf := c.cal.ReferenceDay()
	result := &Result{Symbol: symbol, Days: days, AsOf: asOf}

	if freshness.IsSufficient(local, days, asOf) {
		c.logger.Debug("serving prices from store",
			zap.String("symbol", symbol), zap.Int("days", days), zap.Int("stored", len(local)))
		result.Records = local.First(days)
		result.Source = SourceCache
		return result, nil
	}

	size := model.SizeHintFor(days, c.compactThreshold)
	c.logger.Info("stored prices insufficient, fetching from provider",
		zap.String("symbol", symbol),
		zap.Int("days", days),
		zap.Int("stored", len(local)),
		zap.String("as_of", asOf.Format(model.DateLayout)),
		zap.String("size", string(size)))

	fetched, err := c.fetch(ctx, symbol, size)
	if err != nil {
		return nil, err
	}

	// persist before trimming; runs to completion even if the caller goes away
	inserted, failed := c.Persist(context.WithoutCancel(ctx), fetched, local)

	result.Records = fetched.First(days)
	result.Source = SourceProvider
	result.Inserted = inserted
	result.PersistErrors = failed
	return result, nil
}

func (c *Coordinator) fetch(ctx context.Context, symbol string, size model.SizeHint) (model.PriceHistory, error) {
	if !c.singleFlight {
		return c.fetchOnce(ctx, symbol, size)
	}

	// the shared call is not tied to whichever caller started it
	sharedCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(symbol+"|"+string(size), func() (interface{}, error) {
		return c.fetchOnce(sharedCtx, symbol, size)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("shared provider fetch", zap.String("symbol", symbol))
		}
		return res.Val.(model.PriceHistory), nil
	case <-ctx.Done():
		return nil, &ProviderUnavailableError{Symbol: symbol, Err: ctx.Err()}
	}
}

// fetchOnce waits for the provider quota under ctx, then bounds the call
// itself by the provider timeout.
func (c *Coordinator) fetchOnce(ctx context.Context, symbol string, size model.SizeHint) (model.PriceHistory, error) {
	if p, ok := c.provider.(Pacer); ok {
		if err := p.Wait(ctx); err != nil {
			c.logger.Warn("provider quota wait aborted", zap.String("symbol", symbol), zap.Error(err))
			return nil, &ProviderUnavailableError{Symbol: symbol, Err: err}
		}
	}

	fctx := ctx
	if c.providerTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, c.providerTimeout)
		defer cancel()
	}
	history, err := c.provider.FetchDailySeries(fctx, symbol, size)
	if err != nil {
		return nil, c.classify(ctx, symbol, err)
	}
	if len(history) == 0 {
		return nil, &DataNotFoundError{Symbol: symbol}
	}
	return model.SortHistory(history), nil
}

// classify maps a provider error onto the request error taxonomy. A timeout
// of the provider call counts as not-found; cancellation by the caller does not.
func (c *Coordinator) classify(ctx context.Context, symbol string, err error) error {
	switch {
	case errors.Is(err, model.ErrSymbolNotFound):
		c.logger.Info("provider has no data", zap.String("symbol", symbol))
		return &DataNotFoundError{Symbol: symbol, Err: err}
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		c.logger.Warn("provider timed out", zap.String("symbol", symbol), zap.Duration("timeout", c.providerTimeout))
		return &DataNotFoundError{Symbol: symbol, Err: err}
	default:
		c.logger.Warn("provider fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return &ProviderUnavailableError{Symbol: symbol, Err: err}
	}
}

// Persist inserts the records whose (symbol, date) is not yet stored.
// Keys present in known are skipped without a store round trip. Write
// failures are logged and counted, never returned.
func (c *Coordinator) Persist(ctx context.Context, records model.PriceHistory, known model.PriceHistory) (inserted, failed int) {
	seen := known.Keys()

	for _, rec := range records {
		key := rec.Key()
		if _, ok := seen[key]; ok {
			continue
		}

		exists, err := c.store.ExistsBySymbolAndDate(ctx, key.Symbol, key.Date)
		if err != nil {
			failed++
			c.logger.Warn("failed to check stored price", zap.String("symbol", key.Symbol),
				zap.String("date", key.Date.Format(model.DateLayout)), zap.Error(err))
			continue
		}
		if !exists {
			ok, err := c.store.Insert(ctx, rec)
			if err != nil {
				failed++
				c.logger.Warn("failed to insert price", zap.String("symbol", key.Symbol),
					zap.String("date", key.Date.Format(model.DateLayout)),
					zap.Error(&StoreUnavailableError{Op: "write", Symbol: key.Symbol, Err: err}))
				continue
			}
			if ok {
				inserted++
			}
		}
		seen[key] = struct{}{}
	}

	if inserted > 0 || failed > 0 {
		c.logger.Info("persisted fetched prices",
			zap.Int("fetched", len(records)), zap.Int("inserted", inserted), zap.Int("failed", failed))
	}
	return inserted, failed
}

// String is used in log lines.
func (r *Result) String() string {
	return fmt.Sprintf("%s days=%d as_of=%s source=%s records=%d",
		r.Symbol, r.Days, r.AsOf.Format(model.DateLayout), r.Source, len(r.Records))
}
