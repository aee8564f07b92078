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
	"github.com/diagnosis/cinelist/services/auth/internal/handlers"
	"github.com/diagnosis/cinelist/services/auth/internal/repository"
	"github.com/diagnosis/cinelist/services/auth/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
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

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL, "auth")
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()
	if err := eventBus.EnsureStream(events.NotifyStream, events.NotifySend); err != nil {
		logger.Error("Failed to ensure notification stream", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)

	resolver := auth.NewResolver(auth.NewPostgresTokenStore(pool), rdb, cfg.Auth.TokenCacheTTL)
	mailer := notifier.NewIsolated(notifier.NewEventNotifier(eventBus))

	// Initialize services
	otpService := service.NewOTPService(userRepo, mailer, cfg.Auth.OTPTTL)
	authService := service.NewAuthService(userRepo, tokenRepo, otpService, resolver)

	h := handlers.New(authService, otpService)

	limiter := mw.NewRateLimiter(rdb, mw.RateLimitConfig{
		Prefix:   "rl:auth",
		Requests: cfg.Auth.RateLimitRequests,
		Window:   cfg.Auth.RateLimitWindow,
		KeyFunc:  mw.ClientIPAndEmailKey,
	})

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("auth"))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)
	r.Use(mw.Health)

	h.Routes(r, mw.RequireToken(resolver), mw.RequireStaff(resolver), limiter.Middleware())

	addr := cfg.Server.Addr("8081")
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down auth service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Auth service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting auth service", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Auth service error", "error", err)
		os.Exit(1)
	}
}
