package freshness

import (
	"time"

	"stockcache/internal/stock/model"
)

// IsSufficient reports whether a date-descending history can answer a
// request for the most recent days records without calling the provider.
// The newest record must not be older than referenceDay, and the history
// must hold at least days records.
func IsSufficient(history model.PriceHistory, days int, referenceDay time.Time) bool {
	if days <= 0 {
		return true
	}
	latest, ok := history.Latest()
	if !ok {
		return false
	}
	if model.CivilDate(latest.Date).Before(model.CivilDate(referenceDay)) {
		return false
	}
	return len(history) >= days
}
