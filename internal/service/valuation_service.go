package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockfolio/internal/models"
	"stockfolio/internal/pricing"
	"stockfolio/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// ValuationService computes current portfolio value and reconstructs the
// trailing performance series. It never mutates ledger state.
type ValuationService struct {
	Repo     repository.Ledger
	Resolver *pricing.Resolver
	Logger   *zap.Logger

	// HistoryDays is the default reconstruction window (30 when unset).
	HistoryDays int
	// LookupConcurrency bounds the per-holding price fan-out (8 when unset).
	LookupConcurrency int
}

type HoldingView struct {
	Symbol         string          `json:"symbol"`
	Shares         decimal.Decimal `json:"shares"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	AvgCost        decimal.Decimal `json:"avg_cost"`
	RealizedProfit decimal.Decimal `json:"realized_profit"`

	CurrentPrice    *decimal.Decimal `json:"current_price"`
	PriceSource     string           `json:"price_source,omitempty"`
	CurrentValue    *decimal.Decimal `json:"current_value"`
	GainLoss        *decimal.Decimal `json:"gain_loss"`
	GainLossPercent *decimal.Decimal `json:"gain_loss_percent"`
	PriceError      string           `json:"price_error,omitempty"`
}

type PortfolioView struct {
	PortfolioID string          `json:"portfolio_id"`
	Cash        decimal.Decimal `json:"cash"`
	Holdings    []HoldingView   `json:"holdings"`
	AsOf        time.Time       `json:"as_of"`
}

type DailySnapshot struct {
	Date                 string          `json:"date"`
	TotalValue           decimal.Decimal `json:"total_value"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
	HoldingGain          decimal.Decimal `json:"holding_gain"`
	HoldingGainPercent   decimal.Decimal `json:"holding_gain_percent"`
	CashBalance          decimal.Decimal `json:"cash_balance"`
	ValidHoldingsCount   int             `json:"valid_holdings_count"`
}

type GainLossSummary struct {
	Cash                 decimal.Decimal `json:"cash"`
	TotalValue           decimal.Decimal `json:"total_value"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
	RealizedProfit       decimal.Decimal `json:"realized_profit"`
}

type GainLossReport struct {
	Holdings              []HoldingView   `json:"holdings"`
	Summary               GainLossSummary `json:"summary"`
	HistoricalPerformance []DailySnapshot `json:"historical_performance"`
}

// PortfolioView prices every active holding once via the resolver. A holding
// whose resolution fails is annotated, never dropped, and never aborts the
// view.
func (s *ValuationService) PortfolioView(ctx context.Context, portfolioID string) (PortfolioView, error) {
	acct, err := s.Repo.GetCashAccount(ctx, portfolioID)
	if err != nil {
		return PortfolioView{}, err
	}
	holdings, err := s.Repo.ListActiveHoldings(ctx, portfolioID)
	if err != nil {
		return PortfolioView{}, err
	}

	resolved := s.resolveEach(holdings, func(h models.Holding) (pricing.Quote, error) {
		return s.Resolver.ResolveCurrent(ctx, h.Symbol)
	})

	views := make([]HoldingView, 0, len(holdings))
	for i, h := range holdings {
		views = append(views, buildHoldingView(h, resolved[i]))
	}

	return PortfolioView{
		PortfolioID: portfolioID,
		Cash:        acct.Balance,
		Holdings:    views,
		AsOf:        time.Now().UTC(),
	}, nil
}

// HistoricalPerformance reconstructs one snapshot per calendar day for the
// trailing window, oldest first. Days are processed sequentially because
// carry-forward reads the previous day; price lookups within a day fan out
// concurrently.
func (s *ValuationService) HistoricalPerformance(ctx context.Context, portfolioID string, days int) ([]DailySnapshot, error) {
	if days <= 0 {
		days = s.HistoryDays
	}
	if days <= 0 {
		days = 30
	}

	acct, err := s.Repo.GetCashAccount(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.Repo.ListActiveHoldings(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	cash := acct.Balance

	today := time.Now().UTC().Truncate(24 * time.Hour)
	series := make([]DailySnapshot, 0, days)
	var prev *DailySnapshot

	for offset := days - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)

		resolved := s.resolveEach(holdings, func(h models.Holding) (pricing.Quote, error) {
			return s.Resolver.ResolveHistorical(ctx, h.Symbol, day)
		})

		snap := DailySnapshot{
			Date:        day.Format("2006-01-02"),
			CashBalance: cash,
		}

		totalValue := decimal.Zero
		totalCost := decimal.Zero
		realized := decimal.Zero
		valid := 0
		for i, h := range holdings {
			if resolved[i].err != nil {
				continue
			}
			totalValue = totalValue.Add(resolved[i].quote.Price.Mul(h.Shares))
			totalCost = totalCost.Add(h.TotalCost)
			realized = realized.Add(h.RealizedProfit)
			valid++
		}

		switch {
		case valid > 0:
			gainLoss := totalValue.Sub(totalCost)
			snap.TotalValue = totalValue.Add(cash)
			snap.TotalCost = totalCost
			snap.TotalGainLoss = gainLoss
			snap.HoldingGain = gainLoss.Add(realized)
			snap.ValidHoldingsCount = valid
			if totalCost.IsPositive() {
				snap.TotalGainLossPercent = gainLoss.Div(totalCost).Mul(hundred)
				snap.HoldingGainPercent = snap.HoldingGain.Div(totalCost).Mul(hundred)
			}
		case prev != nil:
			// Data gap: carry the prior day's non-cash figures forward so the
			// series shows a plateau instead of a hole or a zero.
			snap.TotalValue = prev.TotalValue.Sub(prev.CashBalance).Add(cash)
			snap.TotalCost = prev.TotalCost
			snap.TotalGainLoss = prev.TotalGainLoss
			snap.TotalGainLossPercent = prev.TotalGainLossPercent
			snap.HoldingGain = prev.HoldingGain
			snap.HoldingGainPercent = prev.HoldingGainPercent
			snap.ValidHoldingsCount = prev.ValidHoldingsCount
		default:
			// Nothing to carry from: cash is still always known.
			snap.TotalValue = cash
		}

		series = append(series, snap)
		prev = &series[len(series)-1]
	}

	return series, nil
}

// GainLossReport bundles the valued holdings, their aggregate summary and
// the default-window performance series into one read.
func (s *ValuationService) GainLossReport(ctx context.Context, portfolioID string) (GainLossReport, error) {
	view, err := s.PortfolioView(ctx, portfolioID)
	if err != nil {
		return GainLossReport{}, err
	}

	summary := GainLossSummary{Cash: view.Cash}
	for _, h := range view.Holdings {
		summary.RealizedProfit = summary.RealizedProfit.Add(h.RealizedProfit)
		if h.CurrentValue == nil {
			continue
		}
		summary.TotalValue = summary.TotalValue.Add(*h.CurrentValue)
		summary.TotalCost = summary.TotalCost.Add(h.TotalCost)
	}
	summary.TotalGainLoss = summary.TotalValue.Sub(summary.TotalCost)
	if summary.TotalCost.IsPositive() {
		summary.TotalGainLossPercent = summary.TotalGainLoss.Div(summary.TotalCost).Mul(hundred)
	}

	history, err := s.HistoricalPerformance(ctx, portfolioID, 0)
	if err != nil {
		return GainLossReport{}, err
	}

	return GainLossReport{
		Holdings:              view.Holdings,
		Summary:               summary,
		HistoricalPerformance: history,
	}, nil
}

type resolvedPrice struct {
	quote pricing.Quote
	err   error
}

// resolveEach fans one resolver call per holding out across a bounded worker
// set and joins before returning. Results line up with the input slice.
func (s *ValuationService) resolveEach(holdings []models.Holding, resolve func(models.Holding) (pricing.Quote, error)) []resolvedPrice {
	out := make([]resolvedPrice, len(holdings))
	if len(holdings) == 0 {
		return out
	}

	limit := s.LookupConcurrency
	if limit <= 0 {
		limit = 8
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := range holdings {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			q, err := resolve(holdings[i])
			out[i] = resolvedPrice{quote: q, err: err}
		}(i)
	}
	wg.Wait()
	return out
}

func buildHoldingView(h models.Holding, rp resolvedPrice) HoldingView {
	view := HoldingView{
		Symbol:         h.Symbol,
		Shares:         h.Shares,
		TotalCost:      h.TotalCost,
		AvgCost:        h.AvgCost(),
		RealizedProfit: h.RealizedProfit,
	}
	if rp.err != nil {
		view.PriceError = rp.err.Error()
		return view
	}
	price := rp.quote.Price
	value := price.Mul(h.Shares)
	gainLoss := value.Sub(h.TotalCost)
	view.CurrentPrice = &price
	view.PriceSource = string(rp.quote.Source)
	view.CurrentValue = &value
	view.GainLoss = &gainLoss
	if h.TotalCost.IsPositive() {
		pct := gainLoss.Div(h.TotalCost).Mul(hundred)
		view.GainLossPercent = &pct
	}
	return view
}
