package freshness

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stockcache/internal/stock/model"
)

var reference = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

// history returns n consecutive daily records ending at latest.
func history(latest time.Time, n int) model.PriceHistory {
	out := make(model.PriceHistory, 0, n)
	for i := 0; i < n; i++ {
		p := decimal.NewFromInt(int64(100 + i))
		out = append(out, model.NewPriceRecord("IBM", latest.AddDate(0, 0, -i), p, p, p, p, 1000))
	}
	return out
}

// go test -v --run TestIsSufficientZeroDays
func TestIsSufficientZeroDays(t *testing.T) {
	assert.True(t, IsSufficient(nil, 0, reference))
	assert.True(t, IsSufficient(model.PriceHistory{}, 0, reference))
	assert.True(t, IsSufficient(history(reference.AddDate(0, -1, 0), 3), 0, reference))
}

// go test -v --run TestIsSufficientEmpty
func TestIsSufficientEmpty(t *testing.T) {
	assert.False(t, IsSufficient(nil, 1, reference))
	assert.False(t, IsSufficient(model.PriceHistory{}, 5, reference))
}

// go test -v --run TestIsSufficientStale
func TestIsSufficientStale(t *testing.T) {
	stale := history(reference.AddDate(0, 0, -1), 500)
	for _, days := range []int{1, 5, 100, 500} {
		assert.False(t, IsSufficient(stale, days, reference), "days=%d", days)
	}
}

// go test -v --run TestIsSufficientFresh
func TestIsSufficientFresh(t *testing.T) {
	fresh := history(reference, 30)

	assert.True(t, IsSufficient(fresh, 5, reference))
	assert.True(t, IsSufficient(fresh, 30, reference))
	assert.False(t, IsSufficient(fresh, 31, reference), "fresh but too short")
}

// go test -v --run TestIsSufficientFutureDate
func TestIsSufficientFutureDate(t *testing.T) {
	ahead := history(reference.AddDate(0, 0, 2), 10)
	assert.True(t, IsSufficient(ahead, 10, reference))
}
