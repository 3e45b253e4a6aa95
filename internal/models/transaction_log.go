package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionBuy  = "BUY"
	TransactionSell = "SELL"
)

// TransactionLogEntry is append-only: rows are created once and never
// updated or deleted. It is the audit source of truth for buy/sell history.
type TransactionLogEntry struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	PortfolioID string `gorm:"type:varchar(50);not null;index"`
	Symbol      string `gorm:"type:varchar(20);not null;index"`
	Type        string `gorm:"type:varchar(4);not null"`

	Price    decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	Quantity decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Timestamp time.Time `gorm:"type:timestamptz;not null;index"`
}

func (TransactionLogEntry) TableName() string {
	return "transaction_log_entries"
}
