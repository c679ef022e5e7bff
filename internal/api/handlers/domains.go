package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/db"
)

type CreateDomainRequest struct {
	DomainName       string  `json:"domain_name" binding:"required,min=1,max=255"`
	UptimeURL        string  `json:"uptime_url" binding:"required,url"`
	DisplayName      *string `json:"display_name"`
	NotifyOnDowntime *bool   `json:"notify_on_downtime"`
	NotifyOnExpiry   *bool   `json:"notify_on_expiry"`
}

type UpdateDomainRequest struct {
	DomainName       *string `json:"domain_name" binding:"omitempty,min=1,max=255"`
	UptimeURL        *string `json:"uptime_url" binding:"omitempty,url"`
	DisplayName      *string `json:"display_name"`
	NotifyOnDowntime *bool   `json:"notify_on_downtime"`
	NotifyOnExpiry   *bool   `json:"notify_on_expiry"`
}

func (h *Handler) CreateDomain(c *gin.Context) {
	var req CreateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	domain := &db.Domain{
		DomainName:  req.DomainName,
		UptimeURL:   req.UptimeURL,
		DisplayName: req.DisplayName,
		// Notifications default on; tracking a domain silently is opt-out.
		NotifyOnDowntime: true,
		NotifyOnExpiry:   true,
	}
	if req.NotifyOnDowntime != nil {
		domain.NotifyOnDowntime = *req.NotifyOnDowntime
	}
	if req.NotifyOnExpiry != nil {
		domain.NotifyOnExpiry = *req.NotifyOnExpiry
	}

	if err := h.repo.CreateDomain(domain); err != nil {
		h.logger.Error("Failed to create domain", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create domain"})
		return
	}

	h.logger.Info("Domain created",
		zap.String("domain_id", domain.ID),
		zap.String("domain", domain.DomainName),
	)

	c.JSON(http.StatusCreated, domain)
}

func (h *Handler) GetDomain(c *gin.Context) {
	domain, err := h.repo.GetDomain(c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
			return
		}
		h.logger.Error("Failed to get domain", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, domain)
}

func (h *Handler) ListDomains(c *gin.Context) {
	domains, err := h.repo.ListDomains()
	if err != nil {
		h.logger.Error("Failed to list domains", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"domains": domains,
		"total":   len(domains),
	})
}

func (h *Handler) UpdateDomain(c *gin.Context) {
	domain, err := h.repo.GetDomain(c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
			return
		}
		h.logger.Error("Failed to get domain", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req UpdateDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DomainName != nil {
		domain.DomainName = *req.DomainName
	}
	if req.UptimeURL != nil {
		domain.UptimeURL = *req.UptimeURL
	}
	if req.DisplayName != nil {
		domain.DisplayName = req.DisplayName
	}
	if req.NotifyOnDowntime != nil {
		domain.NotifyOnDowntime = *req.NotifyOnDowntime
	}
	if req.NotifyOnExpiry != nil {
		domain.NotifyOnExpiry = *req.NotifyOnExpiry
	}

	if err := h.repo.UpdateDomain(domain); err != nil {
		h.logger.Error("Failed to update domain", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update domain"})
		return
	}

	c.JSON(http.StatusOK, domain)
}

func (h *Handler) DeleteDomain(c *gin.Context) {
	if err := h.repo.DeleteDomain(c.Param("id")); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
			return
		}
		h.logger.Error("Failed to delete domain", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete domain"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// GetDomainStatus returns the newest row of every check type plus recent
// uptime history, the snapshot a dashboard renders per domain.
func (h *Handler) GetDomainStatus(c *gin.Context) {
	id := c.Param("id")

	domain, err := h.repo.GetDomain(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
			return
		}
		h.logger.Error("Failed to get domain", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("history_limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	uptime, err := h.repo.LatestUptimeRecord(id)
	if err != nil {
		h.logger.Error("Failed to load uptime record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	ssl, err := h.repo.LatestSSLRecord(id)
	if err != nil {
		h.logger.Error("Failed to load ssl record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	expiry, err := h.repo.LatestDomainExpiryRecord(id)
	if err != nil {
		h.logger.Error("Failed to load domain expiry record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	ip, err := h.repo.LatestIPRecord(id)
	if err != nil {
		h.logger.Error("Failed to load ip record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	history, err := h.repo.GetUptimeHistory(id, limit)
	if err != nil {
		h.logger.Error("Failed to load uptime history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"domain":         domain,
		"uptime":         uptime,
		"ssl":            ssl,
		"domain_expiry":  expiry,
		"ip_records":     ip,
		"uptime_history": history,
	})
}
