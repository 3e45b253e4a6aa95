package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ClosingPrice is one row of the historical price cache: the close (or last
// recorded price) of a symbol on a calendar date. Filled by the history sync
// job; read by the price resolver.
type ClosingPrice struct {
	ID     uint64         `gorm:"primaryKey;autoIncrement"`
	Symbol string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_closing_prices_symbol_date"`
	Date   datatypes.Date `gorm:"not null;uniqueIndex:idx_closing_prices_symbol_date"`

	Close decimal.Decimal `gorm:"type:numeric(20,10);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (ClosingPrice) TableName() string {
	return "closing_prices"
}
