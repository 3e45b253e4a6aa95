package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockfolio/internal/service"
)

// PortfolioHandler serves the read side: valued portfolio, performance
// series and the gain/loss report. Responses are best-effort: a holding
// without a resolvable price is annotated, never omitted.
type PortfolioHandler struct {
	Valuation          *service.ValuationService
	DefaultPortfolioID string
}

func (h *PortfolioHandler) Register(r *gin.Engine) {
	p := r.Group("/api/v1/portfolio")
	p.GET("", h.portfolio)
	p.GET("/performance", h.performance)
	p.GET("/gainloss", h.gainLoss)
}

func (h *PortfolioHandler) portfolio(c *gin.Context) {
	if h.Valuation == nil {
		Error(c, http.StatusInternalServerError, "valuation unavailable", nil)
		return
	}
	pid := portfolioID(c, h.DefaultPortfolioID)
	view, err := h.Valuation.PortfolioView(c.Request.Context(), pid)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, view, nil)
}

func (h *PortfolioHandler) performance(c *gin.Context) {
	if h.Valuation == nil {
		Error(c, http.StatusInternalServerError, "valuation unavailable", nil)
		return
	}
	pid := portfolioID(c, h.DefaultPortfolioID)
	days := intQuery(c, "days", 0)
	series, err := h.Valuation.HistoricalPerformance(c.Request.Context(), pid, days)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, series, map[string]any{"days": len(series)})
}

func (h *PortfolioHandler) gainLoss(c *gin.Context) {
	if h.Valuation == nil {
		Error(c, http.StatusInternalServerError, "valuation unavailable", nil)
		return
	}
	pid := portfolioID(c, h.DefaultPortfolioID)
	report, err := h.Valuation.GainLossReport(c.Request.Context(), pid)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, report, nil)
}
