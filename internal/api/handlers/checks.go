package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/alert"
	"github.com/statuslabs/domainwatch/internal/db"
	"github.com/statuslabs/domainwatch/internal/probe"
)

type CheckRequest struct {
	DomainID string `json:"domain_id" binding:"required,uuid"`
}

func (h *Handler) domainFor(c *gin.Context) (*db.Domain, bool) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	d, err := h.repo.GetDomain(req.DomainID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
			return nil, false
		}
		h.logger.Error("Failed to load domain", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return d, true
}

// checkError maps check failures onto status codes. Missing credentials
// surface as 503 so a manual caller can tell configuration from outage.
func (h *Handler) checkError(c *gin.Context, msg string, err error) {
	var confErr *probe.ConfigError
	if errors.As(err, &confErr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": confErr.Error()})
		return
	}
	var probeErr *probe.Error
	if errors.As(err, &probeErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": probeErr.Error()})
		return
	}
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (h *Handler) CheckUptime(c *gin.Context) {
	d, ok := h.domainFor(c)
	if !ok {
		return
	}

	result, err := h.checks.Uptime(c.Request.Context(), d.ID, d.UptimeURL)
	if err != nil {
		h.checkError(c, "Uptime check failed", err)
		return
	}

	alerted := false
	if a, fired := alert.ForDowntime(d, result); fired {
		alerted = h.dispatcher.Send(*a)
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "alert_sent": alerted})
}

func (h *Handler) CheckSSL(c *gin.Context) {
	d, ok := h.domainFor(c)
	if !ok {
		return
	}

	result, err := h.checks.SSL(c.Request.Context(), d.ID, d.DomainName)
	if err != nil {
		h.checkError(c, "SSL check failed", err)
		return
	}

	alerted := false
	if a, fired := alert.ForSSLExpiry(d, result); fired {
		alerted = h.dispatcher.Send(*a)
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "alert_sent": alerted})
}

func (h *Handler) CheckWhois(c *gin.Context) {
	d, ok := h.domainFor(c)
	if !ok {
		return
	}

	result, err := h.checks.DomainExpiry(c.Request.Context(), d.ID, d.DomainName)
	if err != nil {
		h.checkError(c, "Domain expiry check failed", err)
		return
	}

	alerted := false
	if a, fired := alert.ForDomainExpiry(d, result); fired {
		alerted = h.dispatcher.Send(*a)
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "alert_sent": alerted})
}

func (h *Handler) CheckIP(c *gin.Context) {
	d, ok := h.domainFor(c)
	if !ok {
		return
	}

	result, err := h.checks.IPRecords(c.Request.Context(), d.ID, d.DomainName)
	if err != nil {
		h.checkError(c, "IP record check failed", err)
		return
	}

	alerted := false
	if a, fired := alert.ForIPChange(d, result); fired {
		alerted = h.dispatcher.Send(*a)
	}

	c.JSON(http.StatusOK, gin.H{"result": result, "alert_sent": alerted})
}
