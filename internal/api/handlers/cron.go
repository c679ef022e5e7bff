package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunChecks is the scheduled trigger. The guard enforces the minimum
// interval between runs no matter how often the cron service fires.
func (h *Handler) RunChecks(c *gin.Context) {
	allowed, wait, err := h.guard.Allow()
	if err != nil {
		h.logger.Error("Failed to read last run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !allowed {
		c.Header("Retry-After", wait.Round(time.Second).String())
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "Monitor run already executed recently",
			"retry_after": wait.Seconds(),
		})
		return
	}

	stats, err := h.runner.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Monitor run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Monitor run failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "completed",
		"stats":  stats,
	})
}
