package gormrepository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockfolio/internal/models"
	"stockfolio/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn inside one database transaction: commit when fn returns nil,
// rollback otherwise. Nothing fn did is visible to other readers until the
// commit.
func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- cash ---------------------------------------------------------------

// GetCashAccountTx loads (creating at zero on first touch) the cash row of a
// portfolio inside an open transaction. With forUpdate the row is locked for
// the remainder of the transaction, which is what serializes concurrent
// mutations against the same portfolio.
func (s *Store) GetCashAccountTx(tx *gorm.DB, portfolioID string, forUpdate bool) (*models.CashAccount, error) {
	query := tx
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var acct models.CashAccount
	err := query.Where("portfolio_id = ?", portfolioID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acct = models.CashAccount{PortfolioID: portfolioID, Balance: decimal.Zero}
		if err := tx.Create(&acct).Error; err != nil {
			return nil, err
		}
		return &acct, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *Store) AdjustCashTx(tx *gorm.DB, portfolioID string, delta decimal.Decimal) (decimal.Decimal, error) {
	acct, err := s.GetCashAccountTx(tx, portfolioID, true)
	if err != nil {
		return decimal.Zero, err
	}
	balance := acct.Balance.Add(delta)
	if balance.IsNegative() {
		return decimal.Zero, repository.ErrInsufficientFunds
	}
	if err := tx.Model(acct).Update("balance", balance).Error; err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// --- holdings -----------------------------------------------------------

func (s *Store) lockHoldingTx(tx *gorm.DB, portfolioID, symbol string) (*models.Holding, error) {
	var h models.Holding
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("portfolio_id = ? AND symbol = ?", portfolioID, symbol).
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) RecordBuyTx(tx *gorm.DB, portfolioID, symbol string, price, quantity decimal.Decimal, at time.Time) error {
	entry := models.TransactionLogEntry{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Type:        models.TransactionBuy,
		Price:       price,
		Quantity:    quantity,
		Timestamp:   at,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	h, err := s.lockHoldingTx(tx, portfolioID, symbol)
	if err != nil {
		return err
	}
	created := false
	if h == nil {
		h = &models.Holding{
			PortfolioID:    portfolioID,
			Symbol:         symbol,
			Shares:         decimal.Zero,
			TotalCost:      decimal.Zero,
			RealizedProfit: decimal.Zero,
		}
		created = true
	}
	cost := repository.ApplyBuy(h, price, quantity)
	if created {
		if err := tx.Create(h).Error; err != nil {
			return err
		}
	} else {
		updates := map[string]any{
			"shares":     h.Shares,
			"total_cost": h.TotalCost,
		}
		if err := tx.Model(h).Updates(updates).Error; err != nil {
			return err
		}
	}

	_, err = s.AdjustCashTx(tx, portfolioID, cost.Neg())
	return err
}

func (s *Store) RecordSellTx(tx *gorm.DB, portfolioID, symbol string, price, quantity decimal.Decimal, at time.Time) error {
	h, err := s.lockHoldingTx(tx, portfolioID, symbol)
	if err != nil {
		return err
	}
	proceeds, err := repository.ApplySell(h, price, quantity)
	if err != nil {
		return err
	}

	entry := models.TransactionLogEntry{
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Type:        models.TransactionSell,
		Price:       price,
		Quantity:    quantity,
		Timestamp:   at,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	updates := map[string]any{
		"shares":          h.Shares,
		"total_cost":      h.TotalCost,
		"realized_profit": h.RealizedProfit,
	}
	if err := tx.Model(h).Updates(updates).Error; err != nil {
		return err
	}

	_, err = s.AdjustCashTx(tx, portfolioID, proceeds)
	return err
}

// ClearHoldingTx zeroes a position without touching realized profit or the
// log. Clearing an absent or already-empty holding is a no-op.
func (s *Store) ClearHoldingTx(tx *gorm.DB, portfolioID, symbol string) error {
	return tx.Model(&models.Holding{}).
		Where("portfolio_id = ? AND symbol = ?", portfolioID, symbol).
		Updates(map[string]any{
			"shares":     decimal.Zero,
			"total_cost": decimal.Zero,
		}).Error
}
