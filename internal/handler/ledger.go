package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stockfolio/internal/service"
)

// LedgerHandler serves the mutation side: cash movements, trades and the
// idempotent holding removal.
type LedgerHandler struct {
	Ledger             *service.LedgerService
	DefaultPortfolioID string
}

func (h *LedgerHandler) Register(r *gin.Engine) {
	cash := r.Group("/api/v1/cash")
	cash.POST("/deposit", h.deposit)
	cash.POST("/withdraw", h.withdraw)

	trades := r.Group("/api/v1/trades")
	trades.POST("/buy", h.buy)
	trades.POST("/sell", h.sell)

	r.GET("/api/v1/holdings/:symbol", h.getHolding)
	r.DELETE("/api/v1/holdings/:symbol", h.removeHolding)
}

type cashRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type tradeRequest struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

func (h *LedgerHandler) deposit(c *gin.Context) {
	var req cashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), map[string]any{"kind": "invalid_request"})
		return
	}
	pid := portfolioID(c, h.DefaultPortfolioID)
	balance, err := h.Ledger.Deposit(c.Request.Context(), pid, req.Amount)
	if err != nil {
		RejectError(c, err)
		return
	}
	Ok(c, gin.H{"balance": balance}, nil)
}

func (h *LedgerHandler) withdraw(c *gin.Context) {
	var req cashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), map[string]any{"kind": "invalid_request"})
		return
	}
	pid := portfolioID(c, h.DefaultPortfolioID)
	balance, err := h.Ledger.Withdraw(c.Request.Context(), pid, req.Amount)
	if err != nil {
		RejectError(c, err)
		return
	}
	Ok(c, gin.H{"balance": balance}, nil)
}

func (h *LedgerHandler) buy(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), map[string]any{"kind": "invalid_request"})
		return
	}
	pid := portfolioID(c, h.DefaultPortfolioID)
	if err := h.Ledger.Buy(c.Request.Context(), pid, req.Symbol, req.Price, req.Quantity); err != nil {
		RejectError(c, err)
		return
	}
	Ok(c, gin.H{"ok": true}, nil)
}

func (h *LedgerHandler) sell(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), map[string]any{"kind": "invalid_request"})
		return
	}
	pid := portfolioID(c, h.DefaultPortfolioID)
	if err := h.Ledger.Sell(c.Request.Context(), pid, req.Symbol, req.Price, req.Quantity); err != nil {
		RejectError(c, err)
		return
	}
	Ok(c, gin.H{"ok": true}, nil)
}

func (h *LedgerHandler) getHolding(c *gin.Context) {
	pid := portfolioID(c, h.DefaultPortfolioID)
	holding, err := h.Ledger.Holding(c.Request.Context(), pid, c.Param("symbol"))
	if err != nil {
		RejectError(c, err)
		return
	}
	if holding == nil {
		Error(c, http.StatusNotFound, "holding not found", map[string]any{"kind": "not_found"})
		return
	}
	Ok(c, holding, nil)
}

func (h *LedgerHandler) removeHolding(c *gin.Context) {
	pid := portfolioID(c, h.DefaultPortfolioID)
	symbol := c.Param("symbol")
	if err := h.Ledger.RemoveHolding(c.Request.Context(), pid, symbol); err != nil {
		RejectError(c, err)
		return
	}
	Ok(c, gin.H{"ok": true}, nil)
}
