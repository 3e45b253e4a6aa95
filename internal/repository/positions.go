package repository

import (
	"github.com/shopspring/decimal"

	"stockfolio/internal/models"
)

// ApplyBuy folds a buy into the holding aggregate and returns the cash cost.
func ApplyBuy(h *models.Holding, price, quantity decimal.Decimal) decimal.Decimal {
	cost := price.Mul(quantity)
	h.Shares = h.Shares.Add(quantity)
	h.TotalCost = h.TotalCost.Add(cost)
	return cost
}

// ApplySell folds a sell into the holding aggregate under the blended
// average-cost model and returns the cash proceeds. A full sell removes the
// whole remaining cost so division rounding never strands a residue on an
// empty position.
func ApplySell(h *models.Holding, price, quantity decimal.Decimal) (decimal.Decimal, error) {
	if h == nil || quantity.GreaterThan(h.Shares) {
		return decimal.Zero, ErrInsufficientShares
	}
	var costRemoved decimal.Decimal
	if quantity.Equal(h.Shares) {
		costRemoved = h.TotalCost
	} else {
		costRemoved = h.TotalCost.Mul(quantity).Div(h.Shares)
	}
	proceeds := price.Mul(quantity)
	h.Shares = h.Shares.Sub(quantity)
	h.TotalCost = h.TotalCost.Sub(costRemoved)
	h.RealizedProfit = h.RealizedProfit.Add(proceeds.Sub(costRemoved))
	return proceeds, nil
}
