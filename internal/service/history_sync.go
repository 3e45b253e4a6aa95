package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stockfolio/internal/pricing"
	"stockfolio/internal/repository"
)

// HistorySyncService fills the close-price cache: for every active holding it
// fetches a live quote and upserts it as that day's close. The resolver and
// the reconstruction loop read what this job writes.
type HistorySyncService struct {
	Repo        repository.Ledger
	History     repository.PriceHistory
	Quotes      pricing.QuoteClient
	Logger      *zap.Logger
	PortfolioID string
}

type HistorySyncResult struct {
	Symbols int
	Stored  int
	Failed  int
}

func (s *HistorySyncService) RunOnce(ctx context.Context) (HistorySyncResult, error) {
	var result HistorySyncResult
	if s == nil || s.Repo == nil || s.History == nil || s.Quotes == nil {
		return result, nil
	}

	holdings, err := s.Repo.ListActiveHoldings(ctx, s.PortfolioID)
	if err != nil {
		return result, err
	}
	result.Symbols = len(holdings)

	today := time.Now().UTC()
	for _, h := range holdings {
		price, _, err := s.Quotes.Quote(ctx, h.Symbol)
		if err != nil {
			result.Failed++
			if s.Logger != nil {
				s.Logger.Warn("history sync quote failed",
					zap.String("symbol", h.Symbol),
					zap.Error(err),
				)
			}
			continue
		}
		if err := s.History.UpsertClose(ctx, h.Symbol, today, price); err != nil {
			result.Failed++
			if s.Logger != nil {
				s.Logger.Warn("history sync store failed",
					zap.String("symbol", h.Symbol),
					zap.Error(err),
				)
			}
			continue
		}
		result.Stored++
	}

	return result, nil
}
