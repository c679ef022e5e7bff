package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/alert"
	"github.com/statuslabs/domainwatch/internal/check"
	"github.com/statuslabs/domainwatch/internal/config"
	"github.com/statuslabs/domainwatch/internal/db"
	"github.com/statuslabs/domainwatch/internal/metrics"
	"github.com/statuslabs/domainwatch/internal/monitor"
	"github.com/statuslabs/domainwatch/internal/notify"
	"github.com/statuslabs/domainwatch/internal/probe"
)

// Standalone monitor process. Runs the batch on a ticker instead of waiting
// for the cron endpoint; the shared guard keeps both from double-running.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	database, err := db.NewConnection(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := db.NewRepository(database)
	collector := metrics.NewCollector()

	checks := check.NewService(
		repo,
		probe.NewHTTPProber(cfg.Monitor.CheckTimeout),
		probe.NewCertProber(cfg.Monitor.CheckTimeout),
		probe.NewDNSProber(),
		probe.NewWhoisProber(cfg.Whois.APIURL, cfg.Whois.APIKey, cfg.Monitor.CheckTimeout),
		logger,
	)

	dispatcher := alert.NewDispatcher(
		repo,
		notify.NewEmailSender(cfg.SMTP),
		notify.NewSMSSender(cfg.SMS, logger),
		logger,
	)

	runner := monitor.NewRunner(repo, checks, dispatcher, collector, logger, cfg.Monitor)
	guard := monitor.NewGuard(repo, cfg.Monitor.RunInterval)

	ctx, cancel := context.WithCancel(context.Background())

	writer := metrics.NewRemoteWriter(cfg.RemoteWrite, logger)
	go writer.Start(ctx)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				allowed, wait, err := guard.Allow()
				if err != nil {
					logger.Error("Failed to read last run", zap.Error(err))
					continue
				}
				if !allowed {
					logger.Debug("Run window not open yet", zap.Duration("wait", wait))
					continue
				}
				if _, err := runner.Run(ctx); err != nil {
					logger.Error("Monitor run failed", zap.Error(err))
				}
			}
		}
	}()

	logger.Info("Monitor started", zap.Duration("run_interval", cfg.Monitor.RunInterval))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down monitor...")
	cancel()
	logger.Info("Monitor exited")
}
