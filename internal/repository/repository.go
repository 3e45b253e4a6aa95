package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stockfolio/internal/models"
)

// Ledger is the durable state of one or more portfolios: cash, holdings and
// the append-only transaction log. Mutating primitives carry the Tx suffix
// and must run inside an InTx scope; everything inside one InTx call commits
// atomically or not at all.
type Ledger interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	GetCashAccount(ctx context.Context, portfolioID string) (*models.CashAccount, error)
	GetCashAccountTx(tx *gorm.DB, portfolioID string, forUpdate bool) (*models.CashAccount, error)
	AdjustCashTx(tx *gorm.DB, portfolioID string, delta decimal.Decimal) (decimal.Decimal, error)

	GetHolding(ctx context.Context, portfolioID, symbol string) (*models.Holding, error)
	ListActiveHoldings(ctx context.Context, portfolioID string) ([]models.Holding, error)

	RecordBuyTx(tx *gorm.DB, portfolioID, symbol string, price, quantity decimal.Decimal, at time.Time) error
	RecordSellTx(tx *gorm.DB, portfolioID, symbol string, price, quantity decimal.Decimal, at time.Time) error
	ClearHoldingTx(tx *gorm.DB, portfolioID, symbol string) error

	ListTransactions(ctx context.Context, portfolioID string, limit int) ([]models.TransactionLogEntry, error)
	TransactionSummary(ctx context.Context, portfolioID string) (TransactionSummary, error)
}

// PriceHistory is the locally owned close-price cache. The resolver reads it;
// only the history sync job writes it.
type PriceHistory interface {
	CloseOn(ctx context.Context, symbol string, date time.Time) (*models.ClosingPrice, error)
	MostRecentCloseAtOrBefore(ctx context.Context, symbol string, date time.Time) (*models.ClosingPrice, error)
	UpsertClose(ctx context.Context, symbol string, date time.Time, close decimal.Decimal) error
}

// TransactionSummary aggregates the full buy/sell history of a portfolio
// straight from the log.
type TransactionSummary struct {
	TotalBoughtValue  decimal.Decimal `json:"total_bought_value"`
	TotalSoldValue    decimal.Decimal `json:"total_sold_value"`
	TotalBoughtShares decimal.Decimal `json:"total_bought_shares"`
	TotalSoldShares   decimal.Decimal `json:"total_sold_shares"`
}
