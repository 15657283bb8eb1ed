package warmup

import (
	"context"

	"stockcache/internal/stock/model"

	"go.uber.org/zap"
)

// SymbolLister lists every symbol the store holds prices for.
type SymbolLister interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

type SymbolLoader struct {
	Watchlist []string
	Store     SymbolLister // optional
	Logger    *zap.Logger
}

// LoadSymbols streams the configured watch-list followed by every stored
// symbol into ch, once each, and closes ch. A store failure is logged and the
// watch-list is still delivered.
func (l *SymbolLoader) LoadSymbols(ctx context.Context, ch chan<- string) error {
	defer close(ch)

	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	symbols := append([]string(nil), l.Watchlist...)
	if l.Store != nil {
		stored, err := l.Store.ListSymbols(ctx)
		if err != nil {
			logger.Warn("failed to list stored symbols", zap.Error(err))
		} else {
			symbols = append(symbols, stored...)
		}
	}

	seen := make(map[string]struct{}, len(symbols))
	sent := 0
	for _, s := range symbols {
		symbol := model.NormalizeSymbol(s)
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}

		select {
		case ch <- symbol:
			sent++
		case <-ctx.Done():
			logger.Warn("symbol streaming interrupted", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}
	logger.Info("loaded warm-up symbols", zap.Int("count", sent))
	return nil
}
