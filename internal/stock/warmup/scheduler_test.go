package warmup

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"stockcache/internal/stock/refresh"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	symbols []string
	err     error
}

func (s stubLister) ListSymbols(context.Context) ([]string, error) { return s.symbols, s.err }

type recordingPrices struct {
	mu    sync.Mutex
	calls map[string]int
	days  []int
}

func (p *recordingPrices) Prices(_ context.Context, symbol string, days int) (*refresh.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	p.calls[symbol]++
	p.days = append(p.days, days)

	switch symbol {
	case "ZZZZINVALID":
		return nil, &refresh.DataNotFoundError{Symbol: symbol}
	case "IBM":
		return &refresh.Result{Symbol: symbol, Source: refresh.SourceCache}, nil
	default:
		return &refresh.Result{Symbol: symbol, Source: refresh.SourceProvider, Inserted: 100}, nil
	}
}

func collect(t *testing.T, l *SymbolLoader) []string {
	t.Helper()
	ch := make(chan string, 10)
	require.NoError(t, l.LoadSymbols(context.Background(), ch))
	var out []string
	for s := range ch {
		out = append(out, s)
	}
	return out
}

// go test -v --run TestLoadSymbols
func TestLoadSymbols(t *testing.T) {
	l := &SymbolLoader{
		Watchlist: []string{"ibm", "MSFT", " "},
		Store:     stubLister{symbols: []string{"IBM", "AAPL"}},
	}
	assert.Equal(t, []string{"IBM", "MSFT", "AAPL"}, collect(t, l))
}

// go test -v --run TestLoadSymbolsStoreFailure
func TestLoadSymbolsStoreFailure(t *testing.T) {
	l := &SymbolLoader{
		Watchlist: []string{"IBM"},
		Store:     stubLister{err: errors.New("db down")},
	}
	assert.Equal(t, []string{"IBM"}, collect(t, l))
}

// go test -v --run TestLoadSymbolsCancelled
func TestLoadSymbolsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := &SymbolLoader{Watchlist: []string{"IBM", "MSFT"}}
	ch := make(chan string) // unbuffered, nobody reads
	assert.ErrorIs(t, l.LoadSymbols(ctx, ch), context.Canceled)

	_, open := <-ch
	assert.False(t, open)
}

// go test -v --run TestRunOnce
func TestRunOnce(t *testing.T) {
	prices := &recordingPrices{}
	loader := &SymbolLoader{
		Watchlist: []string{"IBM", "MSFT", "ZZZZINVALID"},
		Store:     stubLister{symbols: []string{"AAPL", "msft"}},
	}
	s := NewScheduler(Config{Spec: "0 30 16 * * 1-5", Days: 100, Concurrency: 2}, loader, prices, nil)

	summary, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Symbols)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Cached)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 200, summary.Inserted)

	var symbols []string
	for s, n := range prices.calls {
		assert.Equal(t, 1, n, s)
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	assert.Equal(t, []string{"AAPL", "IBM", "MSFT", "ZZZZINVALID"}, symbols)
	for _, d := range prices.days {
		assert.Equal(t, 100, d)
	}
}

// go test -v --run TestRegister
func TestRegister(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	bad := NewScheduler(Config{Spec: "not a cron", Location: loc}, &SymbolLoader{}, &recordingPrices{}, nil)
	assert.Error(t, bad.Register())

	good := NewScheduler(Config{Spec: "0 30 16 * * 1-5", Location: loc}, &SymbolLoader{}, &recordingPrices{}, nil)
	require.NoError(t, good.Register())
	good.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	good.Stop(ctx)
}
