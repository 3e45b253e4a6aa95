package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the blended average-cost position in one symbol.
// TotalCost is the cost basis of the currently held shares; RealizedProfit
// accumulates across sells and survives the position going to zero.
type Holding struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	PortfolioID string `gorm:"type:varchar(50);not null;uniqueIndex:idx_holdings_portfolio_symbol"`
	Symbol      string `gorm:"type:varchar(20);not null;uniqueIndex:idx_holdings_portfolio_symbol"`

	Shares         decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	TotalCost      decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	RealizedProfit decimal.Decimal `gorm:"column:realized_profit;type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Holding) TableName() string {
	return "holdings"
}

// AvgCost is the blended cost per share. Undefined at zero shares; callers
// must check Shares first.
func (h Holding) AvgCost() decimal.Decimal {
	if h.Shares.IsZero() {
		return decimal.Zero
	}
	return h.TotalCost.Div(h.Shares)
}
