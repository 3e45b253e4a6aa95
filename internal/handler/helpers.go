package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

// portfolioID resolves the target portfolio: explicit query param when given,
// otherwise the configured owner portfolio.
func portfolioID(c *gin.Context, def string) string {
	if val := strings.TrimSpace(c.Query("portfolio_id")); val != "" {
		return val
	}
	return def
}
