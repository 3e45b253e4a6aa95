package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockfolio/internal/repository"
)

// TransactionsHandler reads the append-only trade log with its aggregate
// summary.
type TransactionsHandler struct {
	Repo               repository.Ledger
	DefaultPortfolioID string
}

func (h *TransactionsHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/transactions", h.list)
}

func (h *TransactionsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	pid := portfolioID(c, h.DefaultPortfolioID)
	limit := intQuery(c, "limit", 100)

	entries, err := h.Repo.ListTransactions(c.Request.Context(), pid, limit)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	summary, err := h.Repo.TransactionSummary(c.Request.Context(), pid)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"entries": entries, "summary": summary}, map[string]any{"limit": limit})
}
