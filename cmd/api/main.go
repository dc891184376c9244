package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vigilops/ipsentry/internal/abuseipdb"
	"github.com/vigilops/ipsentry/internal/config"
	"github.com/vigilops/ipsentry/internal/database"
	"github.com/vigilops/ipsentry/internal/logger"
	"github.com/vigilops/ipsentry/internal/maintenance"
	"github.com/vigilops/ipsentry/internal/reputation"
	"github.com/vigilops/ipsentry/internal/server"
	"github.com/vigilops/ipsentry/internal/services"
	"github.com/vigilops/ipsentry/internal/version"
)

func main() {
	// Setup logging with rotation
	logDir := "data/logs"
	_ = os.MkdirAll(logDir, 0o755)

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "ipsentry.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(cfg.Environment == "development", io.MultiWriter(os.Stdout, rotator))
	logger.Log().Infof("starting %s %s", version.Name, version.Full())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	store := services.NewTierStoreService(db)

	var checker reputation.Checker
	if cfg.AbuseIPDBKey != "" {
		checker = abuseipdb.NewClient(cfg.AbuseIPDBURL, cfg.AbuseIPDBKey)
	} else {
		logger.Log().Warn("no AbuseIPDB credential configured; reputation checks will fail open")
	}

	gate := reputation.NewGate(cfg.Thresholds, store, checker, cfg.CheckEnabled)
	gate.SetNotifier(services.NewNotificationService(db))

	srv, err := server.New(db, cfg, gate, store)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	sweeper := maintenance.Start(gate, store)
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log().Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
