package gormrepository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stockfolio/internal/models"
	"stockfolio/internal/repository"
)

func (s *Store) GetCashAccount(ctx context.Context, portfolioID string) (*models.CashAccount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var acct models.CashAccount
	err := s.db.WithContext(ctx).Where("portfolio_id = ?", portfolioID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.CashAccount{PortfolioID: portfolioID, Balance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *Store) GetHolding(ctx context.Context, portfolioID, symbol string) (*models.Holding, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var h models.Holding
	err := s.db.WithContext(ctx).
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

// ListActiveHoldings returns the positions with shares > 0. Emptied holdings
// keep their realized profit in the table but drop out of portfolio views.
func (s *Store) ListActiveHoldings(ctx context.Context, portfolioID string) ([]models.Holding, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Holding
	err := s.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Where("shares > 0").
		Order("symbol asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTransactions(ctx context.Context, portfolioID string, limit int) ([]models.TransactionLogEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	var items []models.TransactionLogEntry
	err := s.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("timestamp desc").
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) TransactionSummary(ctx context.Context, portfolioID string) (repository.TransactionSummary, error) {
	out := repository.TransactionSummary{
		TotalBoughtValue:  decimal.Zero,
		TotalSoldValue:    decimal.Zero,
		TotalBoughtShares: decimal.Zero,
		TotalSoldShares:   decimal.Zero,
	}
	if s == nil || s.db == nil {
		return out, nil
	}
	var rows []struct {
		Type        string
		TotalValue  decimal.Decimal
		TotalShares decimal.Decimal
	}
	err := s.db.WithContext(ctx).
		Model(&models.TransactionLogEntry{}).
		Select("type, COALESCE(SUM(price * quantity), 0) AS total_value, COALESCE(SUM(quantity), 0) AS total_shares").
		Where("portfolio_id = ?", portfolioID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return out, err
	}
	for _, row := range rows {
		switch row.Type {
		case models.TransactionBuy:
			out.TotalBoughtValue = row.TotalValue
			out.TotalBoughtShares = row.TotalShares
		case models.TransactionSell:
			out.TotalSoldValue = row.TotalValue
			out.TotalSoldShares = row.TotalShares
		}
	}
	return out, nil
}
