package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecordRow is one stored daily session. (symbol, date) is unique;
// symbols are stored upper-case.
type PriceRecordRow struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Symbol string    `gorm:"type:varchar(16);not null;index:idx_stock_price_symbol_date,unique"`
	Date   time.Time `gorm:"type:date;not null;index:idx_stock_price_symbol_date,unique"`

	Open  decimal.Decimal `gorm:"type:numeric(12,4);not null"`
	High  decimal.Decimal `gorm:"type:numeric(12,4);not null"`
	Low   decimal.Decimal `gorm:"type:numeric(12,4);not null"`
	Close decimal.Decimal `gorm:"type:numeric(12,4);not null"`

	Volume int64 `gorm:"not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (PriceRecordRow) TableName() string {
	return "stock_price"
}
