package memorystore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stockcache/internal/stock/model"
)

// MemoryPriceStore keeps price history per symbol in memory. It satisfies
// the same contract as the Postgres store and backs `storage.driver: memory`.
type MemoryPriceStore struct {
	globalMu sync.RWMutex
	data     map[string]*symbolPriceStore
}

type symbolPriceStore struct {
	mu     sync.Mutex
	byDate map[time.Time]model.PriceRecord
}

func NewPriceStore() *MemoryPriceStore {
	return &MemoryPriceStore{
		data: make(map[string]*symbolPriceStore),
	}
}

// symbolStore returns the per-symbol store, creating it when create is set.
func (s *MemoryPriceStore) symbolStore(symbol string, create bool) *symbolPriceStore {
	// Fast path: shared lock only
	s.globalMu.RLock()
	store, ok := s.data[symbol]
	s.globalMu.RUnlock()
	if ok || !create {
		return store
	}

	s.globalMu.Lock()
	defer s.globalMu.Unlock()
	if store, ok = s.data[symbol]; !ok {
		store = &symbolPriceStore{byDate: make(map[time.Time]model.PriceRecord)}
		s.data[symbol] = store
	}
	return store
}

// Insert adds record if its (symbol, date) is absent and reports whether it did.
func (s *MemoryPriceStore) Insert(_ context.Context, record model.PriceRecord) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, fmt.Errorf("invalid price record: %w", err)
	}
	key := record.Key()
	record.Symbol = key.Symbol
	record.Date = key.Date

	store := s.symbolStore(key.Symbol, true)
	store.mu.Lock()
	defer store.mu.Unlock()
	if _, exists := store.byDate[key.Date]; exists {
		return false, nil
	}
	store.byDate[key.Date] = record
	return true, nil
}

// FindBySymbol returns a date-descending copy of the symbol's history.
func (s *MemoryPriceStore) FindBySymbol(_ context.Context, symbol string) (model.PriceHistory, error) {
	store := s.symbolStore(model.NormalizeSymbol(symbol), false)
	if store == nil {
		return model.PriceHistory{}, nil
	}

	store.mu.Lock()
	out := make(model.PriceHistory, 0, len(store.byDate))
	for _, rec := range store.byDate {
		out = append(out, rec)
	}
	store.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *MemoryPriceStore) ExistsBySymbolAndDate(_ context.Context, symbol string, date time.Time) (bool, error) {
	store := s.symbolStore(model.NormalizeSymbol(symbol), false)
	if store == nil {
		return false, nil
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.byDate[model.CivilDate(date)]
	return ok, nil
}

// ListSymbols returns the symbols with at least one stored record, sorted.
func (s *MemoryPriceStore) ListSymbols(_ context.Context) ([]string, error) {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	out := make([]string, 0, len(s.data))
	for sym, store := range s.data {
		store.mu.Lock()
		n := len(store.byDate)
		store.mu.Unlock()
		if n > 0 {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out, nil
}

// CountAll returns the total number of records stored across all symbols.
func (s *MemoryPriceStore) CountAll() int {
	s.globalMu.RLock()
	defer s.globalMu.RUnlock()

	total := 0
	for _, store := range s.data {
		store.mu.Lock()
		total += len(store.byDate)
		store.mu.Unlock()
	}
	return total
}

// IsHealthy always reports true; there is nothing to reach.
func (s *MemoryPriceStore) IsHealthy(context.Context) bool { return true }
