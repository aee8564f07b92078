package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/cinelist/pkg/cache"
	"github.com/diagnosis/cinelist/pkg/config"
	"github.com/diagnosis/cinelist/pkg/events"
	"github.com/diagnosis/cinelist/pkg/logger"
	mw "github.com/diagnosis/cinelist/pkg/middleware"
	"github.com/diagnosis/cinelist/services/notify/internal/mailer"
	"github.com/diagnosis/cinelist/services/notify/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "notify")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()
	if err := eventBus.EnsureStream(events.NotifyStream, events.NotifySend); err != nil {
		logger.Error("Failed to ensure notification stream", "error", err)
		os.Exit(1)
	}

	// Redis only dedupes redeliveries; run without it if unavailable.
	var dedupe worker.Deduper
	if rdb, err := cache.Connect(context.Background(), cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, notification dedupe disabled", "error", err)
	} else {
		defer rdb.Close()
		dedupe = worker.NewRedisDeduper(rdb, 24*time.Hour)
	}

	w := worker.New(eventBus, mailer.New(cfg.Email), dedupe, cfg.NATS.NotifyQueue)
	if err := w.Start(); err != nil {
		logger.Error("Failed to start notify worker", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health)

	addr := cfg.Server.Addr("8086")
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down notify service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Notify service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting notify service", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Notify service error", "error", err)
		os.Exit(1)
	}
}
