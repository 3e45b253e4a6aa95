package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"stockfolio/internal/models"
	"stockfolio/internal/repository"
)

// stubLedger is a test-only in-memory implementation of repository.Ledger and
// repository.PriceHistory. InTx serializes transactions behind a mutex and
// snapshots state before fn, restoring it on failure, mirroring the database
// locking and rollback guarantees. calls records the Tx primitives fn touched,
// in order.
type stubLedger struct {
	mu       sync.Mutex
	cash     map[string]decimal.Decimal
	holdings map[string]map[string]*models.Holding
	log      []models.TransactionLogEntry
	closes   map[string]map[string]decimal.Decimal
	calls    []string
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		cash:     map[string]decimal.Decimal{},
		holdings: map[string]map[string]*models.Holding{},
		closes:   map[string]map[string]decimal.Decimal{},
	}
}

func dayKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}

func (s *stubLedger) snapshot() *stubLedger {
	cp := newStubLedger()
	for k, v := range s.cash {
		cp.cash[k] = v
	}
	for pid, byl := range s.holdings {
		cp.holdings[pid] = map[string]*models.Holding{}
		for sym, h := range byl {
			clone := *h
			cp.holdings[pid][sym] = &clone
		}
	}
	cp.log = append(cp.log, s.log...)
	return cp
}

func (s *stubLedger) restore(from *stubLedger) {
	s.cash = from.cash
	s.holdings = from.holdings
	s.log = from.log
}

func (s *stubLedger) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(before)
		return err
	}
	return nil
}

func (s *stubLedger) GetCashAccount(ctx context.Context, portfolioID string) (*models.CashAccount, error) {
	return &models.CashAccount{PortfolioID: portfolioID, Balance: s.cash[portfolioID]}, nil
}

func (s *stubLedger) GetCashAccountTx(tx *gorm.DB, portfolioID string, forUpdate bool) (*models.CashAccount, error) {
	s.calls = append(s.calls, "GetCashAccountTx")
	if _, ok := s.cash[portfolioID]; !ok {
		s.cash[portfolioID] = decimal.Zero
	}
	return &models.CashAccount{PortfolioID: portfolioID, Balance: s.cash[portfolioID]}, nil
}

func (s *stubLedger) AdjustCashTx(tx *gorm.DB, portfolioID string, delta decimal.Decimal) (decimal.Decimal, error) {
	balance := s.cash[portfolioID].Add(delta)
	if balance.IsNegative() {
		return decimal.Zero, repository.ErrInsufficientFunds
	}
	s.cash[portfolioID] = balance
	return balance, nil
}

func (s *stubLedger) holding(portfolioID, symbol string) *models.Holding {
	if byl, ok := s.holdings[portfolioID]; ok {
		return byl[symbol]
	}
	return nil
}

func (s *stubLedger) setHolding(h *models.Holding) {
	if s.holdings[h.PortfolioID] == nil {
		s.holdings[h.PortfolioID] = map[string]*models.Holding{}
	}
	s.holdings[h.PortfolioID][h.Symbol] = h
}

func (s *stubLedger) GetHolding(ctx context.Context, portfolioID, symbol string) (*models.Holding, error) {
	h := s.holding(portfolioID, symbol)
	if h == nil {
		return nil, nil
	}
	clone := *h
	return &clone, nil
}

func (s *stubLedger) ListActiveHoldings(ctx context.Context, portfolioID string) ([]models.Holding, error) {
	var out []models.Holding
	for _, h := range s.holdings[portfolioID] {
		if h.Shares.IsPositive() {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *stubLedger) RecordBuyTx(tx *gorm.DB, portfolioID, symbol string, price, quantity decimal.Decimal, at time.Time) error {
	s.calls = append(s.calls, "RecordBuyTx")
	s.log = append(s.log, models.TransactionLogEntry{
		ID:          uint64(len(s.log) + 1),
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Type:        models.TransactionBuy,
		Price:       price,
		Quantity:    quantity,
		Timestamp:   at,
	})
	h := s.holding(portfolioID, symbol)
	if h == nil {
		h = &models.Holding{PortfolioID: portfolioID, Symbol: symbol}
		s.setHolding(h)
	}
	cost := repository.ApplyBuy(h, price, quantity)
	_, err := s.AdjustCashTx(tx, portfolioID, cost.Neg())
	return err
}

func (s *stubLedger) RecordSellTx(tx *gorm.DB, portfolioID, symbol string, price, quantity decimal.Decimal, at time.Time) error {
	s.calls = append(s.calls, "RecordSellTx")
	h := s.holding(portfolioID, symbol)
	proceeds, err := repository.ApplySell(h, price, quantity)
	if err != nil {
		return err
	}
	s.log = append(s.log, models.TransactionLogEntry{
		ID:          uint64(len(s.log) + 1),
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Type:        models.TransactionSell,
		Price:       price,
		Quantity:    quantity,
		Timestamp:   at,
	})
	_, err = s.AdjustCashTx(tx, portfolioID, proceeds)
	return err
}

func (s *stubLedger) ClearHoldingTx(tx *gorm.DB, portfolioID, symbol string) error {
	h := s.holding(portfolioID, symbol)
	if h == nil {
		return nil
	}
	h.Shares = decimal.Zero
	h.TotalCost = decimal.Zero
	return nil
}

func (s *stubLedger) ListTransactions(ctx context.Context, portfolioID string, limit int) ([]models.TransactionLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []models.TransactionLogEntry
	for i := len(s.log) - 1; i >= 0 && len(out) < limit; i-- {
		if s.log[i].PortfolioID == portfolioID {
			out = append(out, s.log[i])
		}
	}
	return out, nil
}

func (s *stubLedger) TransactionSummary(ctx context.Context, portfolioID string) (repository.TransactionSummary, error) {
	out := repository.TransactionSummary{
		TotalBoughtValue:  decimal.Zero,
		TotalSoldValue:    decimal.Zero,
		TotalBoughtShares: decimal.Zero,
		TotalSoldShares:   decimal.Zero,
	}
	for _, e := range s.log {
		if e.PortfolioID != portfolioID {
			continue
		}
		value := e.Price.Mul(e.Quantity)
		if e.Type == models.TransactionBuy {
			out.TotalBoughtValue = out.TotalBoughtValue.Add(value)
			out.TotalBoughtShares = out.TotalBoughtShares.Add(e.Quantity)
		} else {
			out.TotalSoldValue = out.TotalSoldValue.Add(value)
			out.TotalSoldShares = out.TotalSoldShares.Add(e.Quantity)
		}
	}
	return out, nil
}

func (s *stubLedger) setClose(symbol string, date time.Time, close decimal.Decimal) {
	if s.closes[symbol] == nil {
		s.closes[symbol] = map[string]decimal.Decimal{}
	}
	s.closes[symbol][dayKey(date)] = close
}

func (s *stubLedger) CloseOn(ctx context.Context, symbol string, date time.Time) (*models.ClosingPrice, error) {
	if close, ok := s.closes[symbol][dayKey(date)]; ok {
		return &models.ClosingPrice{
			Symbol: symbol,
			Date:   datatypes.Date(date.UTC().Truncate(24 * time.Hour)),
			Close:  close,
		}, nil
	}
	return nil, nil
}

func (s *stubLedger) MostRecentCloseAtOrBefore(ctx context.Context, symbol string, date time.Time) (*models.ClosingPrice, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	for i := 0; i < 366; i++ {
		if cp, _ := s.CloseOn(ctx, symbol, day.AddDate(0, 0, -i)); cp != nil {
			return cp, nil
		}
	}
	return nil, nil
}

func (s *stubLedger) UpsertClose(ctx context.Context, symbol string, date time.Time, close decimal.Decimal) error {
	s.setClose(symbol, date, close)
	return nil
}
