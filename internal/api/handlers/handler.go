package handlers

import (
	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/alert"
	"github.com/statuslabs/domainwatch/internal/check"
	"github.com/statuslabs/domainwatch/internal/db"
	"github.com/statuslabs/domainwatch/internal/monitor"
)

type Handler struct {
	repo       *db.Repository
	checks     *check.Service
	runner     *monitor.Runner
	guard      *monitor.Guard
	dispatcher *alert.Dispatcher
	logger     *zap.Logger
}

func NewHandler(repo *db.Repository, checks *check.Service, runner *monitor.Runner, guard *monitor.Guard, dispatcher *alert.Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{
		repo:       repo,
		checks:     checks,
		runner:     runner,
		guard:      guard,
		dispatcher: dispatcher,
		logger:     logger,
	}
}
