package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rroethle7474/timehealer-api/internal/api"
	"github.com/rroethle7474/timehealer-api/internal/cache"
	"github.com/rroethle7474/timehealer-api/internal/config"
	"github.com/rroethle7474/timehealer-api/internal/monitoring"
	"github.com/rroethle7474/timehealer-api/internal/scraper"
	"github.com/rroethle7474/timehealer-api/internal/session"
	"github.com/rroethle7474/timehealer-api/internal/utils"
)

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type releaser interface {
	ReleaseAll()
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	logger.Info("Starting TimeHealer API")

	if cfg.Twitter.Username == "" || cfg.Twitter.Password == "" {
		logger.Warn("TWITTER_USERNAME or TWITTER_PASSWORD not set, scraping operations will fail at login")
	}

	sessions, err := session.NewManager(session.Config{
		ProfileBase:    cfg.Scraper.ProfileDir,
		UserAgent:      cfg.Scraper.UserAgent,
		Headless:       cfg.Scraper.Headless,
		SessionTimeout: time.Duration(cfg.Scraper.SessionTimeout) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize session manager: %v", err)
	}

	resultCache := cache.New(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTL)*time.Second)
	monitor := monitoring.NewMonitor(logger)
	svc := scraper.NewService(cfg, sessions, resultCache, monitor, logger)
	server := api.NewServer(cfg, svc, resultCache, monitor, sessions, logger)

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("Received %v, shutting down", sig)
		shutdown(logger, server, sessions, done)
	}()

	server.SetReady()
	if err := server.Start(); err != nil {
		logger.Fatalf("Server error: %v", err)
	}

	// Start returns as soon as Shutdown is initiated; sessions may still be
	// tearing down. Block until every browser process and profile is gone.
	<-done
	logger.Info("Shutdown complete")
}

// shutdown drains the HTTP server, then releases every active browser
// session, and only then signals done. Process exit must not precede
// ReleaseAll or Chrome processes and profile directories leak.
func shutdown(logger *logrus.Logger, srv shutdowner, sessions releaser, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
	sessions.ReleaseAll()
}
