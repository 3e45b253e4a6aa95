package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockfolio/internal/repository"
	"stockfolio/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// RejectError maps a mutation failure to its HTTP status and a
// machine-distinguishable kind in meta. Anything outside the known taxonomy
// is a persistence failure: fully rolled back, safe to retry as a whole.
func RejectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		Error(c, http.StatusBadRequest, err.Error(), map[string]any{"kind": "invalid_request"})
	case errors.Is(err, repository.ErrInsufficientFunds):
		Error(c, http.StatusConflict, "Insufficient funds", map[string]any{"kind": "insufficient_funds"})
	case errors.Is(err, repository.ErrInsufficientShares):
		Error(c, http.StatusConflict, "Insufficient shares", map[string]any{"kind": "insufficient_shares"})
	default:
		Error(c, http.StatusBadGateway, "operation failed", map[string]any{"kind": "persistence"})
	}
}
