// Package api wires the HTTP surface: cron trigger, manual checks,
// domain and notification management, health, and metrics.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/statuslabs/domainwatch/internal/api/handlers"
	"github.com/statuslabs/domainwatch/internal/api/middleware"
	"github.com/statuslabs/domainwatch/internal/config"
)

type Server struct {
	Config  *config.Config
	Router  *gin.Engine
	handler *handlers.Handler
}

func NewServer(cfg *config.Config, h *handlers.Handler, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(middleware.Logger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(rate.Limit(20), 40))

	server := &Server{
		Config:  cfg,
		Router:  router,
		handler: h,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	h := s.handler

	s.Router.GET("/health", h.Health)
	s.Router.GET("/ready", h.Ready)
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Scheduled trigger, authenticated by shared secret.
	cron := s.Router.Group("/api/v1/cron")
	cron.Use(middleware.CronAuth(s.Config.CronSecret))
	{
		cron.GET("/run", h.RunChecks)
	}

	// Admin surface.
	api := s.Router.Group("/api/v1")
	api.Use(middleware.AuthRequired(s.Config.JWTSecret))
	{
		api.GET("/domains", h.ListDomains)
		api.POST("/domains", h.CreateDomain)
		api.GET("/domains/:id", h.GetDomain)
		api.PUT("/domains/:id", h.UpdateDomain)
		api.DELETE("/domains/:id", h.DeleteDomain)
		api.GET("/domains/:id/status", h.GetDomainStatus)

		api.POST("/checks/uptime", h.CheckUptime)
		api.POST("/checks/ssl", h.CheckSSL)
		api.POST("/checks/whois", h.CheckWhois)
		api.POST("/checks/ip", h.CheckIP)

		api.GET("/notifications/settings", h.GetNotificationSettings)
		api.PUT("/notifications/settings", h.UpdateNotificationSettings)
		api.POST("/notifications/emails", h.AddEmailRecipient)
		api.DELETE("/notifications/emails", h.RemoveEmailRecipient)
		api.POST("/notifications/phones", h.AddPhoneRecipient)
		api.DELETE("/notifications/phones", h.RemovePhoneRecipient)
		api.POST("/notifications/test", h.TestNotification)
	}
}
