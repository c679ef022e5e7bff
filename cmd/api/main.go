package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/statuslabs/domainwatch/internal/alert"
	"github.com/statuslabs/domainwatch/internal/api"
	"github.com/statuslabs/domainwatch/internal/api/handlers"
	"github.com/statuslabs/domainwatch/internal/check"
	"github.com/statuslabs/domainwatch/internal/config"
	"github.com/statuslabs/domainwatch/internal/db"
	"github.com/statuslabs/domainwatch/internal/metrics"
	"github.com/statuslabs/domainwatch/internal/monitor"
	"github.com/statuslabs/domainwatch/internal/notify"
	"github.com/statuslabs/domainwatch/internal/probe"
)

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

	h := handlers.NewHandler(repo, checks, runner, guard, dispatcher, logger)
	server := api.NewServer(cfg, h, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer := metrics.NewRemoteWriter(cfg.RemoteWrite, logger)
	go writer.Start(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("API server started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
