package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashAccount holds the free cash of one portfolio. The balance is only
// mutated through the ledger transaction primitives and never goes negative.
type CashAccount struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	PortfolioID string `gorm:"type:varchar(50);not null;uniqueIndex"`

	Balance decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (CashAccount) TableName() string {
	return "cash_accounts"
}
