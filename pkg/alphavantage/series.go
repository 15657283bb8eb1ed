package alphavantage

import (
	"fmt"
	"strconv"

	"stockcache/internal/stock/model"

	"github.com/shopspring/decimal"
)

// ParseDailySeries converts the daily time series to a date-descending history.
// Rows that fail to parse are skipped. Records carry the normalised requested
// symbol, not the metadata spelling.
func ParseDailySeries(requested string, resp *DailySeriesResponse) (model.PriceHistory, error) {
	symbol := model.NormalizeSymbol(requested)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	out := make([]model.PriceRecord, 0, len(resp.TimeSeries))
	for date, bar := range resp.TimeSeries {
		rec, err := parseBar(symbol, date, bar)
		if err != nil {
			continue // skip malformed row
		}
		out = append(out, rec)
	}
	return model.SortHistory(out), nil
}

func parseBar(symbol, date string, bar DailyBarMessage) (model.PriceRecord, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return model.PriceRecord{}, err
	}
	open, err := decimal.NewFromString(bar.Open)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("open: %w", err)
	}
	high, err := decimal.NewFromString(bar.High)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("high: %w", err)
	}
	low, err := decimal.NewFromString(bar.Low)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("low: %w", err)
	}
	closePrice, err := decimal.NewFromString(bar.Close)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("close: %w", err)
	}
	volume, err := parseVolume(bar.Volume)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("volume: %w", err)
	}

	rec := model.NewPriceRecord(symbol, day, open, high, low, closePrice, volume)
	if err := rec.Validate(); err != nil {
		return model.PriceRecord{}, err
	}
	return rec, nil
}

// parseVolume accepts integer strings and, for some ETFs, "123.0".
func parseVolume(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.IntPart(), nil
}
