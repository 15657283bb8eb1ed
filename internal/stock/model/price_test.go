package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(symbol, date string, closePrice string) PriceRecord {
	d, _ := ParseDate(date)
	c := decimal.RequireFromString(closePrice)
	return NewPriceRecord(symbol, d, c, c, c, c, 100)
}

// go test -v --run TestSortHistory
func TestSortHistory(t *testing.T) {
	in := []PriceRecord{
		rec("ibm", "2024-01-03", "3"),
		rec("IBM", "2024-01-05", "5"),
		rec("IBM", "2024-01-04", "4"),
		rec("IBM", "2024-01-05", "99"),
	}

	h := SortHistory(in)
	require.Len(t, h, 3)
	assert.Equal(t, "2024-01-05", h[0].Date.Format(DateLayout))
	assert.True(t, h[0].Close.Equal(decimal.NewFromInt(5)), "first record for a date wins")
	assert.Equal(t, "2024-01-04", h[1].Date.Format(DateLayout))
	assert.Equal(t, "2024-01-03", h[2].Date.Format(DateLayout))

	// input untouched
	assert.Equal(t, "2024-01-03", in[0].Date.Format(DateLayout))
}

// go test -v --run TestHistoryFirst
func TestHistoryFirst(t *testing.T) {
	h := SortHistory([]PriceRecord{
		rec("IBM", "2024-01-03", "3"),
		rec("IBM", "2024-01-04", "4"),
	})

	assert.Len(t, h.First(1), 1)
	assert.Len(t, h.First(5), 2)
	assert.Empty(t, h.First(0))
	assert.Empty(t, PriceHistory{}.First(3))
}

// go test -v --run TestPriceRecordEqual
func TestPriceRecordEqual(t *testing.T) {
	a := rec("ibm", "2024-01-03", "10.5")
	b := rec("IBM", "2024-01-03", "10.5000")
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	c := rec("IBM", "2024-01-03", "10.6")
	assert.False(t, a.Equal(c))
}

// go test -v --run TestPriceRecordValidate
func TestPriceRecordValidate(t *testing.T) {
	ok := rec("IBM", "2024-01-03", "1")
	assert.NoError(t, ok.Validate())

	noSymbol := ok
	noSymbol.Symbol = "  "
	assert.Error(t, noSymbol.Validate())

	negative := ok
	negative.Low = decimal.NewFromInt(-1)
	assert.Error(t, negative.Validate())

	negVolume := ok
	negVolume.Volume = -5
	assert.Error(t, negVolume.Validate())
}

// go test -v --run TestCivilDate
func TestCivilDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	late := time.Date(2024, 1, 5, 23, 30, 0, 0, ny)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), CivilDate(late))
}

// go test -v --run TestSizeHintFor
func TestSizeHintFor(t *testing.T) {
	assert.Equal(t, SizeCompact, SizeHintFor(5, 100))
	assert.Equal(t, SizeCompact, SizeHintFor(100, 100))
	assert.Equal(t, SizeFull, SizeHintFor(101, 100))
}
