package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/alert"
)

func (h *Handler) GetNotificationSettings(c *gin.Context) {
	settings, err := h.repo.GetNotificationSettings()
	if err != nil {
		h.logger.Error("Failed to load notification settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	emails, err := h.repo.ListEmailRecipients()
	if err != nil {
		h.logger.Error("Failed to list email recipients", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	phones, err := h.repo.ListPhoneRecipients()
	if err != nil {
		h.logger.Error("Failed to list phone recipients", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email_enabled": settings.EmailEnabled,
		"sms_enabled":   settings.SMSEnabled,
		"emails":        emails,
		"phones":        phones,
	})
}

type UpdateSettingsRequest struct {
	EmailEnabled *bool `json:"email_enabled"`
	SMSEnabled   *bool `json:"sms_enabled"`
}

func (h *Handler) UpdateNotificationSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.repo.GetNotificationSettings()
	if err != nil {
		h.logger.Error("Failed to load notification settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if req.EmailEnabled != nil {
		settings.EmailEnabled = *req.EmailEnabled
	}
	if req.SMSEnabled != nil {
		settings.SMSEnabled = *req.SMSEnabled
	}

	if err := h.repo.UpdateNotificationSettings(settings); err != nil {
		h.logger.Error("Failed to update notification settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

type EmailRecipientRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *Handler) AddEmailRecipient(c *gin.Context) {
	var req EmailRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.AddEmailRecipient(req.Email); err != nil {
		h.logger.Error("Failed to add email recipient", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add recipient"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"email": req.Email})
}

func (h *Handler) RemoveEmailRecipient(c *gin.Context) {
	var req EmailRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.RemoveEmailRecipient(req.Email); err != nil {
		h.logger.Error("Failed to remove email recipient", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove recipient"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

type PhoneRecipientRequest struct {
	Phone string `json:"phone" binding:"required,e164"`
}

func (h *Handler) AddPhoneRecipient(c *gin.Context) {
	var req PhoneRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.AddPhoneRecipient(req.Phone); err != nil {
		h.logger.Error("Failed to add phone recipient", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add recipient"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"phone": req.Phone})
}

func (h *Handler) RemovePhoneRecipient(c *gin.Context) {
	var req PhoneRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.repo.RemovePhoneRecipient(req.Phone); err != nil {
		h.logger.Error("Failed to remove phone recipient", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove recipient"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

type TestNotificationRequest struct {
	Type string `json:"type" binding:"required,oneof=downtime ssl-expiry domain-expiry ip-change"`
}

// TestNotification pushes a synthetic alert through the full compose and
// dispatch path, audit log included.
func (h *Handler) TestNotification(c *gin.Context) {
	var req TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	days := alert.UrgentExpiryDays
	expires := time.Now().AddDate(0, 0, days)
	a := alert.Alert{
		Type:        alert.Type(req.Type),
		Domain:      "test.example.com",
		DisplayName: "Test Domain",
		Message:     "This is a test notification from domainwatch.",
	}
	switch a.Type {
	case alert.TypeSSLExpiry, alert.TypeDomainExpiry:
		a.DaysRemaining = &days
		a.ExpiresAt = &expires
	}

	delivered := h.dispatcher.Send(a)
	c.JSON(http.StatusOK, gin.H{
		"delivered": delivered,
		"type":      req.Type,
	})
}
