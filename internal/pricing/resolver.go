package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockfolio/internal/repository"
)

// Source tags where a resolved price came from.
type Source string

const (
	SourceLive   Source = "live"
	SourceCached Source = "cached"
)

// ErrNoData means neither the provider nor the cache can price the
// symbol (or symbol/day). Terminal for that symbol; callers render a
// "no price available" state instead of a generic failure.
var ErrNoData = errors.New("no price data")

// ProviderError wraps a live-provider failure (timeout, unknown symbol,
// transport error). It triggers the cache fallback inside the resolver and
// only escapes when there is no fallback path.
type ProviderError struct {
	Symbol string
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("quote provider failed for %s: %v", e.Symbol, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
	Source Source          `json:"source"`
}

// QuoteClient is the live-provider capability the resolver consumes.
type QuoteClient interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
}

// Resolver prices symbols from the live provider with a cached-close
// fallback. It is read-only: it never writes the history cache.
type Resolver struct {
	Quotes  QuoteClient
	History repository.PriceHistory
	Logger  *zap.Logger
}

// ResolveCurrent tries the live provider first, then the most recent cached
// close at or before today. Returns ErrNoData when both tiers come up empty.
func (r *Resolver) ResolveCurrent(ctx context.Context, symbol string) (Quote, error) {
	price, asOf, err := r.Quotes.Quote(ctx, symbol)
	if err == nil {
		return Quote{Symbol: symbol, Price: price, AsOf: asOf, Source: SourceLive}, nil
	}
	liveErr := &ProviderError{Symbol: symbol, Err: err}
	if r.Logger != nil {
		r.Logger.Debug("live quote failed, trying cache",
			zap.String("symbol", symbol),
			zap.Error(liveErr),
		)
	}

	cp, cacheErr := r.History.MostRecentCloseAtOrBefore(ctx, symbol, time.Now().UTC())
	if cacheErr != nil {
		return Quote{}, cacheErr
	}
	if cp == nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrNoData, liveErr)
	}
	return Quote{
		Symbol: symbol,
		Price:  cp.Close,
		AsOf:   time.Time(cp.Date),
		Source: SourceCached,
	}, nil
}

// ResolveHistorical is cache-only: the provider has no reliable notion of
// "last Tuesday's close". A missing day returns ErrNoData; filling gaps is
// the valuation engine's job, not the resolver's.
func (r *Resolver) ResolveHistorical(ctx context.Context, symbol string, date time.Time) (Quote, error) {
	cp, err := r.History.CloseOn(ctx, symbol, date)
	if err != nil {
		return Quote{}, err
	}
	if cp == nil {
		return Quote{}, fmt.Errorf("%w for %s on %s", ErrNoData, symbol, date.Format("2006-01-02"))
	}
	return Quote{
		Symbol: symbol,
		Price:  cp.Close,
		AsOf:   time.Time(cp.Date),
		Source: SourceCached,
	}, nil
}
