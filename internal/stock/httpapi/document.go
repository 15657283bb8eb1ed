package httpapi

import (
	"encoding/json"

	"stockcache/internal/stock/model"
	"stockcache/internal/stock/refresh"

	"github.com/shopspring/decimal"
)

const documentDescription = "Daily stock prices"

// PriceDocument is the body returned for a price request over HTTP and WebSocket.
type PriceDocument struct {
	Metadata Metadata   `json:"metadata"`
	Data     []PriceRow `json:"data"`
}

type Metadata struct {
	Description string `json:"description"`
	Symbol      string `json:"symbol"`
	Days        int    `json:"days"`
	RequestDate string `json:"request-date"`
	TimeZone    string `json:"time-zone"`
	RequestID   string `json:"request-id"`
	Source      string `json:"source"`
}

// PriceRow is one daily bar. Prices are JSON numbers, not strings.
type PriceRow struct {
	Date   string      `json:"date"`
	Open   json.Number `json:"open"`
	High   json.Number `json:"high"`
	Low    json.Number `json:"low"`
	Close  json.Number `json:"close"`
	Volume int64       `json:"volume"`
}

// DocumentInfo is the request context stamped into Metadata.
type DocumentInfo struct {
	RequestID   string
	RequestDate string
	TimeZone    string
}

// NewPriceDocument renders a coordinator result.
func NewPriceDocument(res *refresh.Result, info DocumentInfo) PriceDocument {
	rows := make([]PriceRow, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, PriceRow{
			Date:   rec.Date.Format(model.DateLayout),
			Open:   number(rec.Open),
			High:   number(rec.High),
			Low:    number(rec.Low),
			Close:  number(rec.Close),
			Volume: rec.Volume,
		})
	}
	return PriceDocument{
		Metadata: Metadata{
			Description: documentDescription,
			Symbol:      res.Symbol,
			Days:        res.Days,
			RequestDate: info.RequestDate,
			TimeZone:    info.TimeZone,
			RequestID:   info.RequestID,
			Source:      string(res.Source),
		},
		Data: rows,
	}
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
