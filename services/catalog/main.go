package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diagnosis/cinelist/pkg/auth"
	"github.com/diagnosis/cinelist/pkg/cache"
	"github.com/diagnosis/cinelist/pkg/config"
	"github.com/diagnosis/cinelist/pkg/database"
	"github.com/diagnosis/cinelist/pkg/events"
	"github.com/diagnosis/cinelist/pkg/logger"
	mw "github.com/diagnosis/cinelist/pkg/middleware"
	"github.com/diagnosis/cinelist/pkg/notifier"
	"github.com/diagnosis/cinelist/services/catalog/internal/handlers"
	"github.com/diagnosis/cinelist/services/catalog/internal/repository"
	"github.com/diagnosis/cinelist/services/catalog/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	db, err := database.OpenGorm(pool)
	if err != nil {
		logger.Error("Failed to open gorm", "error", err)
		os.Exit(1)
	}

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "catalog")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()
	if err := eventBus.EnsureStream(events.NotifyStream, events.NotifySend); err != nil {
		logger.Error("Failed to ensure notification stream", "error", err)
		os.Exit(1)
	}

	catalogRepo := repository.NewCatalogRepository(db)
	watchlistRepo := repository.NewWatchlistRepository(pool)

	resolver := auth.NewResolver(auth.NewPostgresTokenStore(pool), rdb, cfg.Auth.TokenCacheTTL)
	mailer := notifier.NewIsolated(notifier.NewEventNotifier(eventBus))

	catalogService := service.NewCatalogService(catalogRepo, mailer)
	watchlistService := service.NewWatchlistService(catalogRepo, watchlistRepo, mailer)

	h := handlers.New(catalogService, watchlistService)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("catalog"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health)

	h.Routes(r, mw.RequireToken(resolver), mw.StaffForWrites(resolver))

	addr := cfg.Server.Addr("8082")
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

		logger.Info("Shutting down catalog service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Catalog service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting catalog service", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Catalog service error", "error", err)
		os.Exit(1)
	}
}
