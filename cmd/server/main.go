// cmd/server/main.go
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tvhook/internal/config"
	"tvhook/internal/lifecycle"
	"tvhook/internal/logger"
	"tvhook/internal/metrics"
	"tvhook/internal/relay"
	"tvhook/internal/trade/repository"
	"tvhook/internal/trade/service"
	tradehttp "tvhook/internal/trade/transport/http"
	"tvhook/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	slog.SetDefault(log)

	if cfg.InsecureSecret() {
		log.Warn("APP_SECRET is the default placeholder, set a real secret")
	}

	// Go and process collectors are already on the default registry.
	metrics.InitMetrics()

	// --- ХРАНИЛИЩЕ ---
	var open lifecycle.OpenFunc
	if cfg.StorageConfigured() {
		open = func(ctx context.Context) (lifecycle.Store, error) {
			conn, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return nil, err
			}
			return repository.NewPostgresEventRepository(conn), nil
		}
	}
	storage := lifecycle.NewManager(open, lifecycle.Options{
		ConnectTimeout:    cfg.DBConnectTimeout,
		ReconnectInterval: cfg.DBReconnectInterval,
	}, log)
	state := storage.Start(context.Background())
	log.Info("storage initialised", "state", state.String())

	// --- ИНИЦИАЛИЗАЦИЯ СЛОЁВ ---
	forwarder := relay.NewClient(cfg.ForwardURL, cfg.RelayTimeout, log)
	if forwarder.Enabled() {
		log.Info("relay enabled")
	}
	ingest := service.NewService(storage, forwarder, log)
	h := tradehttp.NewHandler(ingest, storage, log)

	// --- РОУТЕР ---
	r := newRouter(cfg, h)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server running", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown на сигналы ОС
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutdown signal received, starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
	if err := storage.Close(); err != nil {
		log.Error("storage close failed", "err", err)
	}

	log.Info("server stopped")
}
