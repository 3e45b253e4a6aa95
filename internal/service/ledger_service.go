package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stockfolio/internal/models"
	"stockfolio/internal/repository"
)

// LedgerService executes deposit/withdraw/buy/sell requests as all-or-nothing
// ledger transactions. Validation happens before a transaction opens;
// balance and share sufficiency are enforced inside it, so a rejection never
// leaves partial cash or holding mutations behind.
type LedgerService struct {
	Repo   repository.Ledger
	Logger *zap.Logger
}

func (s *LedgerService) Deposit(ctx context.Context, portfolioID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	var balance decimal.Decimal
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		balance, err = s.Repo.AdjustCashTx(tx, portfolioID, amount)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.logOp("deposit", portfolioID, zap.String("amount", amount.String()))
	return balance, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, portfolioID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	var balance decimal.Decimal
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		balance, err = s.Repo.AdjustCashTx(tx, portfolioID, amount.Neg())
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.logOp("withdraw", portfolioID, zap.String("amount", amount.String()))
	return balance, nil
}

func (s *LedgerService) Buy(ctx context.Context, portfolioID, symbol string, price, quantity decimal.Decimal) error {
	symbol, err := validateTrade(symbol, price, quantity)
	if err != nil {
		return err
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		// Pre-check against the locked balance for a clear rejection before
		// any row changes; AdjustCashTx inside RecordBuyTx stays the
		// authoritative guard. Taking the cash lock first also fixes the
		// cash-then-holding acquisition order shared with Sell.
		acct, err := s.Repo.GetCashAccountTx(tx, portfolioID, true)
		if err != nil {
			return err
		}
		if price.Mul(quantity).GreaterThan(acct.Balance) {
			return repository.ErrInsufficientFunds
		}
		return s.Repo.RecordBuyTx(tx, portfolioID, symbol, price, quantity, time.Now().UTC())
	})
	if err != nil {
		return err
	}
	s.logOp("buy", portfolioID,
		zap.String("symbol", symbol),
		zap.String("price", price.String()),
		zap.String("quantity", quantity.String()),
	)
	return nil
}

func (s *LedgerService) Sell(ctx context.Context, portfolioID, symbol string, price, quantity decimal.Decimal) error {
	symbol, err := validateTrade(symbol, price, quantity)
	if err != nil {
		return err
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		// Lock the cash row before RecordSellTx locks the holding row so
		// Buy and Sell agree on acquisition order; concurrent trades on one
		// portfolio queue instead of deadlocking.
		if _, err := s.Repo.GetCashAccountTx(tx, portfolioID, true); err != nil {
			return err
		}
		return s.Repo.RecordSellTx(tx, portfolioID, symbol, price, quantity, time.Now().UTC())
	})
	if err != nil {
		return err
	}
	s.logOp("sell", portfolioID,
		zap.String("symbol", symbol),
		zap.String("price", price.String()),
		zap.String("quantity", quantity.String()),
	)
	return nil
}

// Holding returns one position, emptied ones included so realized profit
// stays visible after removal. Nil when the portfolio never traded the
// symbol.
func (s *LedgerService) Holding(ctx context.Context, portfolioID, symbol string) (*models.Holding, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	return s.Repo.GetHolding(ctx, portfolioID, symbol)
}

// RemoveHolding zeroes a position. Idempotent delete: an absent or empty
// holding succeeds with no effect, and realized profit is kept.
func (s *LedgerService) RemoveHolding(ctx context.Context, portfolioID, symbol string) error {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		return s.Repo.ClearHoldingTx(tx, portfolioID, symbol)
	})
	if err != nil {
		return err
	}
	s.logOp("remove holding", portfolioID, zap.String("symbol", symbol))
	return nil
}

func (s *LedgerService) logOp(op, portfolioID string, fields ...zap.Field) {
	if s.Logger == nil {
		return
	}
	fields = append([]zap.Field{zap.String("portfolio_id", portfolioID)}, fields...)
	s.Logger.Info(op, fields...)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func validateTrade(symbol string, price, quantity decimal.Decimal) (string, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", ErrInvalidRequest)
	}
	if !price.IsPositive() {
		return "", fmt.Errorf("%w: price must be positive", ErrInvalidRequest)
	}
	if !quantity.IsPositive() {
		return "", fmt.Errorf("%w: quantity must be positive", ErrInvalidRequest)
	}
	return symbol, nil
}
