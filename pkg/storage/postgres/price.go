package postgres

import (
	"context"
	"fmt"
	"time"

	"stockcache/internal/stock/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Insert stores record unless a row for its (symbol, date) already exists.
// It reports whether a row was written; a conflict is not an error.
func (p *PostgresClient) Insert(ctx context.Context, record model.PriceRecord) (bool, error) {
	if err := record.Validate(); err != nil {
		return false, fmt.Errorf("invalid price record: %w", err)
	}
	row := ToPriceRecordRow(record)

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "symbol"},
			{Name: "date"},
		},
		DoNothing: true,
	}).Create(row)

	if tx.Error != nil {
		return false, fmt.Errorf("insert %s %s: %w", row.Symbol, row.Date.Format(model.DateLayout), tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// FindBySymbol returns every stored session for symbol, newest first.
// Any case of symbol matches.
func (p *PostgresClient) FindBySymbol(ctx context.Context, symbol string) (model.PriceHistory, error) {
	var rows []PriceRecordRow
	err := bySymbol(p.DB.WithContext(ctx), symbol).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find prices for %s: %w", symbol, err)
	}

	history := make(model.PriceHistory, 0, len(rows))
	for i := range rows {
		history = append(history, toPriceRecord(&rows[i]))
	}
	return history, nil
}

// ExistsBySymbolAndDate reports whether a session is already stored.
func (p *PostgresClient) ExistsBySymbolAndDate(ctx context.Context, symbol string, date time.Time) (bool, error) {
	var count int64
	err := bySymbolAndDate(p.DB.WithContext(ctx).Model(&PriceRecordRow{}), symbol, date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check price %s %s: %w", symbol, date.Format(model.DateLayout), err)
	}
	return count > 0, nil
}

// ListSymbols returns the distinct stored symbols.
func (p *PostgresClient) ListSymbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := p.DB.WithContext(ctx).
		Model(&PriceRecordRow{}).
		Distinct("symbol").
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return symbols, nil
}

// bySymbol matches the stored upper-case symbol so idx_stock_price_symbol_date
// serves the lookup; callers may pass any case.
func bySymbol(db *gorm.DB, symbol string) *gorm.DB {
	return db.Where("symbol = ?", model.NormalizeSymbol(symbol))
}

func bySymbolAndDate(db *gorm.DB, symbol string, date time.Time) *gorm.DB {
	return bySymbol(db, symbol).Where("date = ?", model.CivilDate(date))
}

// ToPriceRecordRow converts a domain record into a row for insertion.
func ToPriceRecordRow(r model.PriceRecord) *PriceRecordRow {
	return &PriceRecordRow{
		Symbol: model.NormalizeSymbol(r.Symbol),
		Date:   model.CivilDate(r.Date),
		Open:   r.Open,
		High:   r.High,
		Low:    r.Low,
		Close:  r.Close,
		Volume: r.Volume,
	}
}

func toPriceRecord(row *PriceRecordRow) model.PriceRecord {
	return model.NewPriceRecord(row.Symbol, row.Date, row.Open, row.High, row.Low, row.Close, row.Volume)
}
