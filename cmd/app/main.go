package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prepquest/prepquest-server/internal/catalog"
	"github.com/prepquest/prepquest-server/internal/config"
	"github.com/prepquest/prepquest-server/internal/database"
	"github.com/prepquest/prepquest-server/internal/database/postgres"
	"github.com/prepquest/prepquest-server/internal/database/schema"
	"github.com/prepquest/prepquest-server/internal/event"
	"github.com/prepquest/prepquest-server/internal/handler"
	"github.com/prepquest/prepquest-server/internal/localstore"
	"github.com/prepquest/prepquest-server/internal/logger"
	"github.com/prepquest/prepquest-server/internal/progression"
	"github.com/prepquest/prepquest-server/internal/server"
	"github.com/prepquest/prepquest-server/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	initLogger(cfg)

	warnings, err := config.ValidateEnvWithWarnings()
	if err != nil {
		logger.Error("Environment validation failed", "error", err)
		os.Exit(1)
	}
	for _, warning := range warnings {
		logger.Warn("Environment warning", "warning", warning)
	}

	cat, err := catalog.Load(config.ConfigPathBadgeCatalog, config.ConfigPathQuestCatalog)
	if err != nil {
		logger.Error("Failed to load content catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("Content catalog loaded", "badges", len(cat.Badges()), "quests", len(cat.Quests()))

	pool, err := database.NewPool(
		cfg.GetDBConnString(),
		config.DefaultDBMaxConns,
		time.Duration(config.DefaultDBMaxIdleMinutes)*time.Minute,
		time.Duration(config.DefaultDBMaxLifeMinutes)*time.Minute,
	)
	if err != nil {
		logger.Error("Failed to connect to remote store", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Schema is idempotent, so applying it on every boot is safe and keeps
	// fresh environments self-provisioning.
	if _, err := pool.Exec(context.Background(), schema.SchemaSQL); err != nil {
		logger.Error("Failed to apply remote schema", "error", err)
		os.Exit(1)
	}

	local, err := localstore.Open(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open local store", "error", err, "data_dir", cfg.DataDir)
		os.Exit(1)
	}

	remote := postgres.NewRemoteRepository(pool)

	bus := event.NewMemoryBus()
	publisher := event.NewResilientPublisher(bus, event.ResilientConfig{
		MaxRetries:     3,
		RetryDelay:     time.Second,
		DeadLetterPath: "events_deadletter.jsonl",
	})

	svc, err := progression.NewService(cat, local, remote, publisher, nil)
	if err != nil {
		logger.Error("Failed to initialize progression service", "error", err)
		os.Exit(1)
	}

	if cfg.BadgeWebhookURL != "" {
		progression.NewNotifier(cfg.BadgeWebhookURL).Subscribe(bus)
		logger.Info("Badge webhook notifications enabled")
	}

	handler.InitValidator()

	syncWorker := worker.NewSyncWorker(svc, cfg.SyncInterval)
	syncWorker.Start()

	rolloverWorker := worker.NewRolloverWorker(svc)
	rolloverWorker.Start()

	trustedProxies := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))

	srv := server.NewServer(cfg.Port, cfg.APIKey, trustedProxies, pool, svc, cat)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeoutSecs*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if err := syncWorker.Shutdown(shutdownCtx); err != nil {
		logger.Error("Sync worker shutdown error", "error", err)
	}
	if err := rolloverWorker.Shutdown(shutdownCtx); err != nil {
		logger.Error("Rollover worker shutdown error", "error", err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Error("Progression service shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
}

// parseTrustedProxies splits a comma-separated list of proxy IPs, allowing
// X-Forwarded-For headers from those addresses to be honored.
func parseTrustedProxies(raw string) []string {
	if raw == "" {
		return nil
	}
	var proxies []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			proxies = append(proxies, trimmed)
		}
	}
	return proxies
}
