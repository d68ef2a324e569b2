// tgdrive-server exposes a Telegram-chat-backed drive over HTTP.
//
// Features:
// - listing, upload and mkdir endpoints over the drive core
// - SSE notifications for created records
// - Prometheus metrics & structured logging (zap)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/devyuvraj7/telegram-drive/internal/api"
	"github.com/devyuvraj7/telegram-drive/internal/config"
	"github.com/devyuvraj7/telegram-drive/internal/cursor"
	"github.com/devyuvraj7/telegram-drive/internal/drive"
	"github.com/devyuvraj7/telegram-drive/internal/events"
	"github.com/devyuvraj7/telegram-drive/internal/logging"
	"github.com/devyuvraj7/telegram-drive/internal/metrics"
	"github.com/devyuvraj7/telegram-drive/internal/transport/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("tgdrive server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr))

	store, err := cursor.Open(cfg.CursorDBPath)
	if err != nil {
		logging.Fatal("cursor db open failed", zap.Error(err))
	}
	defer store.Close()

	tr, err := telegram.New(telegram.Config{
		Token:   cfg.BotToken,
		ChatID:  cfg.ChatID,
		APIBase: cfg.APIBase,
		Cursor:  store,
	})
	if err != nil {
		logging.Fatal("telegram transport init failed", zap.Error(err))
	}

	reader := drive.NewReader(tr, cfg.PageSize)
	coordinator := drive.NewCoordinator(tr)
	broadcaster := events.NewBroadcaster()

	srv := api.NewServer(reader, coordinator, broadcaster, cfg.MaxUploadSize)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		logging.Info("api server listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal("api server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logging.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logging.Error("api server shutdown failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logging.Error("metrics server shutdown failed", zap.Error(err))
	}
	logging.Info("shutdown complete")
}
