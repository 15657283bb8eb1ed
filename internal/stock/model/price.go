package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSymbolNotFound is the provider's signal that it has no data for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// DateLayout is the civil date format used on the wire and by the provider.
const DateLayout = "2006-01-02"

// PriceRecord is one trading session's OHLCV for one symbol.
// Date carries no time component: it is always 00:00 UTC of the session's
// civil date in the exchange calendar.
type PriceRecord struct {
	Symbol string
	Date   time.Time

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	Volume int64
}

// Key identifies a stored record.
type Key struct {
	Symbol string
	Date   time.Time
}

// NormalizeSymbol trims and upper-cases a ticker so symbol comparison is case-insensitive.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// CivilDate drops the time component of t, keeping its year/month/day as seen in t's location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a yyyy-mm-dd string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// NewPriceRecord builds a normalized record.
func NewPriceRecord(symbol string, date time.Time, open, high, low, closePrice decimal.Decimal, volume int64) PriceRecord {
	return PriceRecord{
		Symbol: NormalizeSymbol(symbol),
		Date:   CivilDate(date),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
}

// Key returns the (symbol, date) identity of the record.
func (r PriceRecord) Key() Key {
	return Key{Symbol: NormalizeSymbol(r.Symbol), Date: CivilDate(r.Date)}
}

// Equal compares symbol, date, prices and volume. Decimals are compared by value.
func (r PriceRecord) Equal(o PriceRecord) bool {
	return r.Key() == o.Key() &&
		r.Open.Equal(o.Open) &&
		r.High.Equal(o.High) &&
		r.Low.Equal(o.Low) &&
		r.Close.Equal(o.Close) &&
		r.Volume == o.Volume
}

// Validate checks the record invariants.
func (r PriceRecord) Validate() error {
	if NormalizeSymbol(r.Symbol) == "" {
		return errors.New("symbol must not be empty")
	}
	if r.Date.IsZero() {
		return errors.New("date must be set")
	}
	for name, v := range map[string]decimal.Decimal{"open": r.Open, "high": r.High, "low": r.Low, "close": r.Close} {
		if v.IsNegative() {
			return fmt.Errorf("%s price must be greater than or equal to 0: %s", name, v)
		}
	}
	if r.Volume < 0 {
		return fmt.Errorf("volume must be greater than or equal to 0: %d", r.Volume)
	}
	return nil
}

// PriceHistory is a date-descending series of records for one symbol without duplicate dates.
type PriceHistory []PriceRecord

// SortHistory returns a valid history built from records: sorted by date
// descending, keeping the first record seen for each date.
func SortHistory(records []PriceRecord) PriceHistory {
	out := make(PriceHistory, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })

	dedup := out[:0]
	for i, rec := range out {
		if i > 0 && rec.Date.Equal(dedup[len(dedup)-1].Date) {
			continue
		}
		dedup = append(dedup, rec)
	}
	return dedup
}

// First returns the first min(n, len(h)) records.
func (h PriceHistory) First(n int) PriceHistory {
	if n <= 0 {
		return PriceHistory{}
	}
	if n > len(h) {
		n = len(h)
	}
	out := make(PriceHistory, n)
	copy(out, h[:n])
	return out
}

// Latest returns the most recent record.
func (h PriceHistory) Latest() (PriceRecord, bool) {
	if len(h) == 0 {
		return PriceRecord{}, false
	}
	return h[0], true
}

// Keys returns the set of (symbol, date) keys in the history.
func (h PriceHistory) Keys() map[Key]struct{} {
	keys := make(map[Key]struct{}, len(h))
	for _, rec := range h {
		keys[rec.Key()] = struct{}{}
	}
	return keys
}

// SizeHint tells the provider how much history to return.
type SizeHint string

const (
	// SizeCompact asks for the recent window (about the last 100 sessions).
	SizeCompact SizeHint = "compact"
	// SizeFull asks for the complete available history.
	SizeFull SizeHint = "full"
)

// SizeHintFor picks compact when days fits in the compact window.
func SizeHintFor(days, compactThreshold int) SizeHint {
	if days <= compactThreshold {
		return SizeCompact
	}
	return SizeFull
}
