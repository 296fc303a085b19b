// Package main is the entry point for the Pressroom server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pressroom/internal/cache"
	"pressroom/internal/config"
	"pressroom/internal/database"
	"pressroom/internal/handlers"
	"pressroom/internal/lifecycle"
	"pressroom/internal/mailer"
	"pressroom/internal/middleware"
	"pressroom/internal/paywall"
	"pressroom/internal/redirects"
	"pressroom/internal/router"
	"pressroom/internal/scheduler"
	"pressroom/internal/session"
	"pressroom/internal/storage"
	"pressroom/internal/store"
)

const (
	// loginRateLimit caps credential attempts per IP per minute.
	loginRateLimit = 10

	// subscribeRateLimit caps newsletter signups per IP per minute.
	subscribeRateLimit = 5
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	contentStore := store.NewContentStore(db)
	assetStore := store.NewAssetStore(db)
	subscriberStore := store.NewSubscriberStore(db)
	redirectStore := store.NewRedirectStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	// Connect to S3-compatible object storage (optional — asset uploads
	// answer 503 without it).
	var storageClient *storage.Client
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" {
		storageClient, err = storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3BucketPublic, cfg.S3BucketPrivate, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		slog.Info("s3 storage connected",
			"endpoint", cfg.S3Endpoint,
			"public_bucket", cfg.S3BucketPublic,
			"private_bucket", cfg.S3BucketPrivate,
		)
	} else {
		slog.Warn("s3 storage not configured — asset uploads disabled")
	}

	// Lifecycle engine and the publish scheduler built on it.
	engine := lifecycle.NewEngine(db)
	scheduleSvc := scheduler.NewService(db, engine)

	worker := scheduler.NewWorker(db, engine, logger, cfg.SchedulerPoll)
	worker.Start()

	// Redirect rules live in memory; load them before serving.
	redirectSvc := redirects.NewService(redirectStore)
	if err := redirectSvc.Reload(); err != nil {
		slog.Error("failed to load redirect rules", "error", err)
		os.Exit(1)
	}

	// Public content responses cache per slug and viewer tier.
	contentCache := cache.NewContentCache(valkeyClient, cache.DefaultContentTTL)

	// Newsletter mail is best-effort; without SMTP the mailer is nil and
	// drops every message.
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.PublicBaseURL, logger)
	if mail == nil {
		slog.Warn("smtp not configured — newsletter mail disabled")
	}

	gate := paywall.New(cfg.PreviewBlocks)

	// Create handler groups with their dependencies.
	adminHandlers := handlers.NewAdmin(sessionStore, contentStore, userStore, assetStore, subscriberStore, storageClient, engine, scheduleSvc, redirectSvc, contentCache, cacheLogStore)
	authHandlers := handlers.NewAuth(sessionStore, userStore)
	publicHandlers := handlers.NewPublic(contentStore, subscriberStore, redirectSvc, gate, contentCache, mail)

	// Per-IP rate limiters for the abuse-prone public endpoints.
	loginLimiter := middleware.NewRateLimiter(loginRateLimit, time.Minute)
	subscribeLimiter := middleware.NewRateLimiter(subscribeRateLimit, time.Minute)

	// Set up the Chi router with all middleware and routes.
	r := router.New(secureCookies, sessionStore, adminHandlers, authHandlers, publicHandlers, redirectSvc, loginLimiter, subscribeLimiter)

	// Create the HTTP server with sensible timeouts. WriteTimeout must
	// accommodate large asset uploads on slow links.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// The worker may be mid-tick; Stop waits for it.
	worker.Stop()
	loginLimiter.Stop()
	subscribeLimiter.Stop()

	slog.Info("server stopped gracefully")
}
